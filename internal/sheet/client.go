package sheet

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Client is a thin transport over the Sheets API scoped to one spreadsheet.
type Client struct {
	svc           *sheets.Service
	spreadsheetID string
	logger        *zap.Logger
}

// RangeUpdate is one range worth of rows for a batched write.
type RangeUpdate struct {
	Range string
	Rows  [][]any
}

func NewClient(ctx context.Context, spreadsheetID string, logger *zap.Logger, opts ...option.ClientOption) (*Client, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: spreadsheetID, logger: logger}, nil
}

// ReadRange returns the raw values of the given A1 range. Trailing empty
// cells and rows are omitted by the API.
func (c *Client) ReadRange(ctx context.Context, rangeSpec string) ([][]any, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rangeSpec).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", rangeSpec, err)
	}
	return resp.Values, nil
}

// WriteRange overwrites the given A1 range with raw (unparsed) values.
func (c *Client) WriteRange(ctx context.Context, rangeSpec string, rows [][]any) error {
	_, err := c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, rangeSpec, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write range %s: %w", rangeSpec, err)
	}

	c.logger.Debug("wrote range", zap.String("range", rangeSpec), zap.Int("rows", len(rows)))
	return nil
}

// BatchWrite applies several range updates in a single API call.
func (c *Client) BatchWrite(ctx context.Context, updates []RangeUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, &sheets.ValueRange{Range: u.Range, Values: u.Rows})
	}

	_, err := c.svc.Spreadsheets.Values.
		BatchUpdate(c.spreadsheetID, &sheets.BatchUpdateValuesRequest{
			ValueInputOption: "RAW",
			Data:             data,
		}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("batch write %d ranges: %w", len(updates), err)
	}

	c.logger.Debug("batch wrote ranges", zap.Int("ranges", len(updates)))
	return nil
}

// RowCount returns the number of occupied rows in the Jobs sheet, header
// included. Callers re-read it right before appending so concurrent manual
// edits cannot shift the append offset.
func (c *Client) RowCount(ctx context.Context) (int, error) {
	values, err := c.ReadRange(ctx, JobsSheet+"!A:A")
	if err != nil {
		return 0, err
	}
	return len(values), nil
}
