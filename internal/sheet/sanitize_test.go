package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeCell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"=1+1", "'=1+1"},
		{"+44 1234", "'+44 1234"},
		{"-rf", "'-rf"},
		{"@import", "'@import"},
		{"Acme Corp", "Acme Corp"},
		{"A+B", "A+B"}, // only the first character is inspected
		{"", ""},
		{"'already quoted", "'already quoted"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeCell(tt.input), "input %q", tt.input)
	}
}

func TestUnsanitizeCell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"'=1+1", "=1+1"},
		{"'+44 1234", "+44 1234"},
		{"'-rf", "-rf"},
		{"'@import", "@import"},
		{"'already quoted", "'already quoted"}, // not a guard, stays
		{"Acme Corp", "Acme Corp"},
		{"'", "'"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, UnsanitizeCell(tt.input), "input %q", tt.input)
		// A guarded value must survive the full round trip.
		assert.Equal(t, tt.want, UnsanitizeCell(SanitizeCell(tt.want)), "round trip %q", tt.want)
	}
}
