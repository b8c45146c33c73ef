package sheet

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"

	"github.com/spigell/jobsheet/internal/jobs"
)

// statusColors drive the conditional formatting of the Status column.
var statusColors = map[jobs.Status]*sheets.Color{
	jobs.StatusNew:                {Red: 0.85, Green: 0.92, Blue: 0.83},
	jobs.StatusLowMatch:           {Red: 0.96, Green: 0.80, Blue: 0.80},
	jobs.StatusInterested:         {Red: 0.99, Green: 0.91, Blue: 0.70},
	jobs.StatusApplied:            {Red: 0.79, Green: 0.85, Blue: 0.97},
	jobs.StatusInterviewScheduled: {Red: 0.70, Green: 0.78, Blue: 0.98},
	jobs.StatusAccepted:           {Red: 0.58, Green: 0.77, Blue: 0.49},
	jobs.StatusNotAvailable:       {Red: 0.85, Green: 0.85, Blue: 0.85},
}

// EnsureSchema creates or repairs the spreadsheet layout: both sheets, the
// header row, the status dropdown values, status-driven conditional
// formatting and the frozen header. Safe to call on every run.
func (c *Client) EnsureSchema(ctx context.Context) error {
	doc, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}

	sheetIDs := make(map[string]int64)
	for _, s := range doc.Sheets {
		sheetIDs[s.Properties.Title] = s.Properties.SheetId
	}

	var created []string
	var requests []*sheets.Request
	for _, title := range []string{JobsSheet, ConfigSheet} {
		if _, ok := sheetIDs[title]; ok {
			continue
		}
		created = append(created, title)
		requests = append(requests, &sheets.Request{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		})
	}

	if len(requests) > 0 {
		resp, err := c.svc.Spreadsheets.
			BatchUpdate(c.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("create missing sheets %v: %w", created, err)
		}
		for _, r := range resp.Replies {
			if r.AddSheet != nil {
				sheetIDs[r.AddSheet.Properties.Title] = r.AddSheet.Properties.SheetId
			}
		}
		c.logger.Info("created missing sheets", zap.Strings("titles", created))
	}

	if err := c.repairHeader(ctx); err != nil {
		return err
	}
	if err := c.repairConfig(ctx); err != nil {
		return err
	}

	return c.applyFormatting(ctx, sheetIDs[JobsSheet], len(created) > 0)
}

// repairHeader rewrites the header row unless it already matches.
func (c *Client) repairHeader(ctx context.Context) error {
	current, err := c.ReadRange(ctx, fmt.Sprintf("%s!A1:%s1", JobsSheet, LastColumn))
	if err != nil {
		return err
	}

	if len(current) == 1 && len(current[0]) == len(Header) {
		matches := true
		for i, want := range Header {
			if cellString(current[0], i) != want {
				matches = false
				break
			}
		}
		if matches {
			return nil
		}
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	return c.WriteRange(ctx, fmt.Sprintf("%s!A1:%s1", JobsSheet, LastColumn), [][]any{header})
}

// repairConfig seeds the status list; the ignored-companies column is
// user-maintained and only gets its heading.
func (c *Client) repairConfig(ctx context.Context) error {
	current, err := c.ReadRange(ctx, ConfigSheet+"!A:A")
	if err != nil {
		return err
	}
	if len(current) > 1 {
		return nil
	}

	rows := [][]any{{"Statuses", "Ignored Companies"}}
	for _, status := range jobs.AllStatuses() {
		rows = append(rows, []any{string(status)})
	}

	return c.WriteRange(ctx, fmt.Sprintf("%s!A1:B%d", ConfigSheet, len(rows)), rows)
}

func (c *Client) applyFormatting(ctx context.Context, jobsSheetID int64, freshSheet bool) error {
	statusColumn := int64(5) // zero-based index of the Status column

	requests := []*sheets.Request{
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        jobsSheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
		{
			SetDataValidation: &sheets.SetDataValidationRequest{
				Range: &sheets.GridRange{
					SheetId:          jobsSheetID,
					StartRowIndex:    1,
					StartColumnIndex: statusColumn,
					EndColumnIndex:   statusColumn + 1,
				},
				Rule: &sheets.DataValidationRule{
					Condition: &sheets.BooleanCondition{
						Type: "ONE_OF_RANGE",
						Values: []*sheets.ConditionValue{
							{UserEnteredValue: fmt.Sprintf("=%s!$A$2:$A$%d", ConfigSheet, len(jobs.AllStatuses())+1)},
						},
					},
					ShowCustomUi: true,
					Strict:       true,
				},
			},
		},
	}

	// Conditional format rules accumulate when re-added, so only install
	// them when the Jobs sheet was created in this run.
	if freshSheet {
		for _, status := range jobs.AllStatuses() {
			color, ok := statusColors[status]
			if !ok {
				continue
			}
			requests = append(requests, &sheets.Request{
				AddConditionalFormatRule: &sheets.AddConditionalFormatRuleRequest{
					Rule: &sheets.ConditionalFormatRule{
						Ranges: []*sheets.GridRange{{
							SheetId:          jobsSheetID,
							StartRowIndex:    1,
							StartColumnIndex: statusColumn,
							EndColumnIndex:   statusColumn + 1,
						}},
						BooleanRule: &sheets.BooleanRule{
							Condition: &sheets.BooleanCondition{
								Type:   "TEXT_EQ",
								Values: []*sheets.ConditionValue{{UserEnteredValue: string(status)}},
							},
							Format: &sheets.CellFormat{BackgroundColor: color},
						},
					},
				},
			})
		}
	}

	_, err := c.svc.Spreadsheets.
		BatchUpdate(c.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("apply sheet formatting: %w", err)
	}
	return nil
}

// LoadIgnoredCompanies reads the case-insensitive company ignore list from
// the Config area.
func (c *Client) LoadIgnoredCompanies(ctx context.Context) ([]string, error) {
	values, err := c.ReadRange(ctx, ConfigSheet+"!B2:B")
	if err != nil {
		return nil, err
	}

	companies := make([]string, 0, len(values))
	for _, row := range values {
		name := strings.TrimSpace(cellString(row, 0))
		if name == "" {
			continue
		}
		companies = append(companies, name)
	}
	return companies, nil
}
