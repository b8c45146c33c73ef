package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		href          string
		wantCanonical string
		wantID        string
		wantOK        bool
	}{
		{
			name:          "already canonical",
			href:          "https://www.linkedin.com/jobs/view/4011223344/",
			wantCanonical: "https://www.linkedin.com/jobs/view/4011223344/",
			wantID:        "4011223344",
			wantOK:        true,
		},
		{
			name:          "tracking parameters stripped",
			href:          "https://www.linkedin.com/jobs/view/4011223344/?refId=abc&trackingId=def&trk=eml",
			wantCanonical: "https://www.linkedin.com/jobs/view/4011223344/",
			wantID:        "4011223344",
			wantOK:        true,
		},
		{
			name:          "comm path variant folded",
			href:          "https://www.linkedin.com/comm/jobs/view/4011223344/?trackingId=xyz",
			wantCanonical: "https://www.linkedin.com/jobs/view/4011223344/",
			wantID:        "4011223344",
			wantOK:        true,
		},
		{
			name:          "no trailing slash",
			href:          "https://linkedin.com/jobs/view/987654",
			wantCanonical: "https://www.linkedin.com/jobs/view/987654/",
			wantID:        "987654",
			wantOK:        true,
		},
		{
			name:   "missing id segment",
			href:   "https://www.linkedin.com/jobs/view/",
			wantOK: false,
		},
		{
			name:   "non job-view path",
			href:   "https://www.linkedin.com/feed/update/urn:li:activity:123/",
			wantOK: false,
		},
		{
			name:   "empty href",
			href:   "   ",
			wantOK: false,
		},
		{
			name:   "non-numeric id",
			href:   "https://www.linkedin.com/jobs/view/abcdef/",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			canonical, id, ok := CleanURL(tt.href)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantCanonical, canonical)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestCleanURLRoundTrip(t *testing.T) {
	t.Parallel()

	// The comm/ variant with tracking parameters and the plain variant must
	// canonicalize identically when they carry the same id.
	withComm, _, ok := CleanURL("https://www.linkedin.com/comm/jobs/view/555000111/?refId=a1&trk=eml-email_job_alert")
	require.True(t, ok)
	plain, _, ok := CleanURL("https://www.linkedin.com/jobs/view/555000111/")
	require.True(t, ok)
	assert.Equal(t, plain, withComm)

	// Cleaning an already-cleaned URL is a no-op.
	again, _, ok := CleanURL(withComm)
	require.True(t, ok)
	assert.Equal(t, withComm, again)
}
