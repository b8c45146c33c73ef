package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/jobsheet/internal/jobs"
)

const (
	// JobsSheet holds the tracked postings, ConfigSheet the status dropdown
	// values (column A) and the ignored-companies list (column B).
	JobsSheet   = "Jobs"
	ConfigSheet = "Config"

	// LastColumn is the rightmost column of the Jobs table.
	LastColumn = "Q"
)

// Header is the fixed Jobs sheet column order. Row field mapping below must
// stay in sync with it.
var Header = []string{
	"Job ID",
	"Title",
	"Company",
	"Location",
	"URL",
	"Status",
	"Match %",
	"Date Added",
	"Date Modified",
	"Pro Score",
	"Pro Reasoning",
	"Flash Score",
	"Flash Reasoning",
	"Reqs Met",
	"Reqs Total",
	"Requirement Gaps",
	"Notes",
}

// Row is the persisted projection of a job record.
type Row struct {
	JobID    string
	Title    string
	Company  string
	Location string
	URL      string

	Status       jobs.Status
	Probability  *int
	DateAdded    string
	DateModified string

	ProScore      *int
	ProArgument   string
	FlashScore    *int
	FlashArgument string

	RequirementsMet   *int
	RequirementsTotal *int
	RequirementGaps   string

	// Notes is user-owned and never programmatically overwritten.
	Notes string
}

// Cells renders the row in Header order. Every free-text value passes
// through SanitizeCell on the way out, without exception.
func (r Row) Cells() []any {
	return []any{
		SanitizeCell(r.JobID),
		SanitizeCell(r.Title),
		SanitizeCell(r.Company),
		SanitizeCell(r.Location),
		r.URL,
		string(r.Status),
		intCell(r.Probability),
		r.DateAdded,
		r.DateModified,
		intCell(r.ProScore),
		SanitizeCell(r.ProArgument),
		intCell(r.FlashScore),
		SanitizeCell(r.FlashArgument),
		intCell(r.RequirementsMet),
		intCell(r.RequirementsTotal),
		SanitizeCell(r.RequirementGaps),
		SanitizeCell(r.Notes),
	}
}

// ParseRow reads one raw sheet row back into the typed projection. Short
// rows are tolerated: the API omits trailing empty cells. Free-text cells go
// through UnsanitizeCell so a guarded value round-trips to its source and
// change detection stays stable across reruns.
func ParseRow(cells []any) Row {
	return Row{
		JobID:             textCell(cells, 0),
		Title:             textCell(cells, 1),
		Company:           textCell(cells, 2),
		Location:          textCell(cells, 3),
		URL:               cellString(cells, 4),
		Status:            jobs.Status(cellString(cells, 5)),
		Probability:       cellInt(cells, 6),
		DateAdded:         cellString(cells, 7),
		DateModified:      cellString(cells, 8),
		ProScore:          cellInt(cells, 9),
		ProArgument:       textCell(cells, 10),
		FlashScore:        cellInt(cells, 11),
		FlashArgument:     textCell(cells, 12),
		RequirementsMet:   cellInt(cells, 13),
		RequirementsTotal: cellInt(cells, 14),
		RequirementGaps:   textCell(cells, 15),
		Notes:             textCell(cells, 16),
	}
}

// CardRange addresses the card-owned columns (Title through URL) of one row.
func CardRange(rowNumber int) string {
	return fmt.Sprintf("%s!B%d:E%d", JobsSheet, rowNumber, rowNumber)
}

// ModifiedRange addresses the Date Modified cell of one row.
func ModifiedRange(rowNumber int) string {
	return fmt.Sprintf("%s!I%d", JobsSheet, rowNumber)
}

// MatchRange addresses the Status and Match % cells of one row.
func MatchRange(rowNumber int) string {
	return fmt.Sprintf("%s!F%d:G%d", JobsSheet, rowNumber, rowNumber)
}

// ScoreRange addresses the Date Modified through Requirement Gaps cells of
// one row, the block a late score fills in.
func ScoreRange(rowNumber int) string {
	return fmt.Sprintf("%s!I%d:P%d", JobsSheet, rowNumber, rowNumber)
}

// CardCells renders the card-owned columns for CardRange.
func (r Row) CardCells() []any {
	return []any{
		SanitizeCell(r.Title),
		SanitizeCell(r.Company),
		SanitizeCell(r.Location),
		r.URL,
	}
}

// MatchCells renders the cells for MatchRange.
func (r Row) MatchCells() []any {
	return []any{string(r.Status), intCell(r.Probability)}
}

// ScoreCells renders the cells for ScoreRange.
func (r Row) ScoreCells() []any {
	return []any{
		r.DateModified,
		intCell(r.ProScore),
		SanitizeCell(r.ProArgument),
		intCell(r.FlashScore),
		SanitizeCell(r.FlashArgument),
		intCell(r.RequirementsMet),
		intCell(r.RequirementsTotal),
		SanitizeCell(r.RequirementGaps),
	}
}

func intCell(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}

func textCell(cells []any, idx int) string {
	return UnsanitizeCell(cellString(cells, idx))
}

func cellString(cells []any, idx int) string {
	if idx >= len(cells) {
		return ""
	}
	switch v := cells[idx].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func cellInt(cells []any, idx int) *int {
	s := cellString(cells, idx)
	if s == "" {
		return nil
	}

	// Values come back as strings or floats depending on cell formatting.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	n := int(f)
	return &n
}
