package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/jobsheet/internal/jobs"
)

func intPtr(v int) *int { return &v }

func TestRowCells(t *testing.T) {
	t.Parallel()

	row := Row{
		JobID:        "4011223344",
		Title:        "=HYPERLINK evil",
		Company:      "Acme",
		Location:     "Austin, TX",
		URL:          "https://www.linkedin.com/jobs/view/4011223344/",
		Status:       jobs.StatusNew,
		Probability:  intPtr(85),
		DateAdded:    "2025-06-01 09:00:00",
		DateModified: "2025-06-01 09:00:00",
		ProArgument:  "+strong platform background",
		Notes:        "",
	}

	cells := row.Cells()
	require.Len(t, cells, len(Header))

	assert.Equal(t, "4011223344", cells[0])
	assert.Equal(t, "'=HYPERLINK evil", cells[1], "title must be sanitized")
	assert.Equal(t, "NEW", cells[5])
	assert.Equal(t, 85, cells[6])
	assert.Equal(t, "'+strong platform background", cells[10])
	assert.Equal(t, "", cells[16])
}

func TestParseRowRoundTrip(t *testing.T) {
	t.Parallel()

	row := Row{
		JobID:             "123",
		Title:             "Engineer",
		Company:           "Acme",
		Location:          "Remote",
		URL:               "https://www.linkedin.com/jobs/view/123/",
		Status:            jobs.StatusLowMatch,
		Probability:       intPtr(40),
		DateAdded:         "2025-06-01 09:00:00",
		DateModified:      "2025-06-02 10:30:00",
		ProScore:          intPtr(45),
		ProArgument:       "limited overlap",
		FlashScore:        intPtr(35),
		FlashArgument:     "missing core skills",
		RequirementsMet:   intPtr(3),
		RequirementsTotal: intPtr(9),
		RequirementGaps:   "Kubernetes; Terraform",
		Notes:             "phone screen done",
	}

	parsed := ParseRow(row.Cells())
	assert.Equal(t, row, parsed)
}

func TestParseRowRoundTripWithGuardedText(t *testing.T) {
	t.Parallel()

	// A value whose stored form carries the guard quote must parse back to
	// its source, or every rerun would see a phantom card change.
	row := Row{
		JobID:           "321",
		Title:           "-Ops Lead",
		Company:         "=Equals Inc",
		Location:        "+30 locations",
		URL:             "https://www.linkedin.com/jobs/view/321/",
		Status:          jobs.StatusNew,
		RequirementGaps: "@scale experience",
	}

	cells := row.Cells()
	assert.Equal(t, "'-Ops Lead", cells[1])
	assert.Equal(t, row, ParseRow(cells))
}

func TestSubRanges(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Jobs!B7:E7", CardRange(7))
	assert.Equal(t, "Jobs!I7", ModifiedRange(7))
	assert.Equal(t, "Jobs!F7:G7", MatchRange(7))
	assert.Equal(t, "Jobs!I7:P7", ScoreRange(7))

	row := Row{
		Title:        "-Ops Lead",
		Company:      "Acme",
		Location:     "Remote",
		URL:          "https://www.linkedin.com/jobs/view/1/",
		Status:       jobs.StatusLowMatch,
		Probability:  intPtr(40),
		DateModified: "2025-06-01 13:00:00",
		ProScore:     intPtr(45),
		ProArgument:  "limited overlap",
	}

	assert.Equal(t, []any{"'-Ops Lead", "Acme", "Remote", "https://www.linkedin.com/jobs/view/1/"}, row.CardCells())
	assert.Equal(t, []any{"LOW_MATCH", 40}, row.MatchCells())

	scores := row.ScoreCells()
	require.Len(t, scores, 8)
	assert.Equal(t, "2025-06-01 13:00:00", scores[0])
	assert.Equal(t, 45, scores[1])
	assert.Equal(t, "limited overlap", scores[2])
}

func TestParseRowShortAndTyped(t *testing.T) {
	t.Parallel()

	// The API omits trailing empty cells and returns numbers as floats or
	// formatted strings depending on the cell.
	parsed := ParseRow([]any{"99", "Title", "Co", "", "https://www.linkedin.com/jobs/view/99/", "NEW", 77.0})
	assert.Equal(t, "99", parsed.JobID)
	assert.Equal(t, jobs.StatusNew, parsed.Status)
	require.NotNil(t, parsed.Probability)
	assert.Equal(t, 77, *parsed.Probability)
	assert.Nil(t, parsed.ProScore)
	assert.Empty(t, parsed.Notes)

	empty := ParseRow(nil)
	assert.Empty(t, empty.JobID)
	assert.Nil(t, empty.Probability)
}
