package reconcile

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobsheet/internal/jobs"
	"github.com/spigell/jobsheet/internal/sheet"
)

const timestampLayout = "2006-01-02 15:04:05"

// DefaultTimezone stamps rows in the job seeker's local time.
const DefaultTimezone = "America/New_York"

// Store is the spreadsheet surface the engine needs.
type Store interface {
	ReadRange(ctx context.Context, rangeSpec string) ([][]any, error)
	WriteRange(ctx context.Context, rangeSpec string, rows [][]any) error
	BatchWrite(ctx context.Context, updates []sheet.RangeUpdate) error
	RowCount(ctx context.Context) (int, error)
}

// ExistingJob is one already-tracked posting and where it lives.
type ExistingJob struct {
	RowNumber int
	Row       sheet.Row
}

// Update pairs an incoming record with the row it supersedes.
type Update struct {
	Record    jobs.Record
	RowNumber int
	Existing  sheet.Row
}

// Classification splits a parse batch against the tracked sheet state.
type Classification struct {
	New     []jobs.Record
	Updates []Update
	Skipped []jobs.Record
}

// Engine reconciles parsed job records against the spreadsheet. Load the
// existing rows once per run, classify each batch, then apply the writes.
type Engine struct {
	store    Store
	logger   *zap.Logger
	now      func() time.Time
	location *time.Location

	index map[string]ExistingJob
}

type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithTimezone sets the timezone used for row timestamps.
func WithTimezone(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.location = loc
		}
	}
}

func NewEngine(store Store, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		loc = time.UTC
	}

	e := &Engine{
		store:    store,
		logger:   logger,
		now:      time.Now,
		location: loc,
		index:    make(map[string]ExistingJob),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *Engine) timestamp() string {
	return e.now().In(e.location).Format(timestampLayout)
}

// LoadExisting reads every tracked row and indexes it by job id. Rows with
// an empty id column are user damage and are left alone.
func (e *Engine) LoadExisting(ctx context.Context) error {
	values, err := e.store.ReadRange(ctx, fmt.Sprintf("%s!A2:%s", sheet.JobsSheet, sheet.LastColumn))
	if err != nil {
		return fmt.Errorf("load existing jobs: %w", err)
	}

	e.index = make(map[string]ExistingJob, len(values))
	for i, cells := range values {
		row := sheet.ParseRow(cells)
		if row.JobID == "" {
			continue
		}
		e.index[row.JobID] = ExistingJob{RowNumber: i + 2, Row: row}
	}

	e.logger.Info("loaded tracked jobs", zap.Int("count", len(e.index)))
	return nil
}

// Lookup returns the tracked state for a job id.
func (e *Engine) Lookup(jobID string) (ExistingJob, bool) {
	existing, ok := e.index[jobID]
	return existing, ok
}

// Classify splits records into new postings, postings whose card fields
// changed, and postings already tracked unchanged. Only the fields the card
// itself carries participate in change detection; everything else on the row
// belongs to the user or the scorer.
func (e *Engine) Classify(records []jobs.Record) Classification {
	var cl Classification
	for _, record := range records {
		existing, ok := e.index[record.ID]
		if !ok {
			cl.New = append(cl.New, record)
			continue
		}

		if cardChanged(existing.Row, record) {
			cl.Updates = append(cl.Updates, Update{Record: record, RowNumber: existing.RowNumber, Existing: existing.Row})
			continue
		}

		cl.Skipped = append(cl.Skipped, record)
	}

	e.logger.Info("classified records",
		zap.Int("new", len(cl.New)),
		zap.Int("updated", len(cl.Updates)),
		zap.Int("skipped", len(cl.Skipped)),
	)
	return cl
}

func cardChanged(existing sheet.Row, record jobs.Record) bool {
	return existing.Title != record.Title ||
		existing.Company != record.Company ||
		existing.Location != record.Location ||
		existing.URL != record.URL
}

// ApplyWrites appends the new rows and patches the changed ones. Scores, when
// present for a new job, land on the appended row together with the status
// they imply; without a score the row starts as NEW. The row count is re-read
// here so concurrent manual edits cannot shift the append offset.
func (e *Engine) ApplyWrites(ctx context.Context, cl Classification, scores map[string]jobs.MatchResult) (added, updated int, err error) {
	if len(cl.New) > 0 {
		rowCount, err := e.store.RowCount(ctx)
		if err != nil {
			return 0, 0, err
		}

		now := e.timestamp()
		rows := make([][]any, 0, len(cl.New))
		for _, record := range cl.New {
			row := e.newRow(record, now, scores)
			rows = append(rows, row.Cells())
			e.index[record.ID] = ExistingJob{RowNumber: rowCount + len(rows), Row: row}
		}

		start := rowCount + 1
		rangeSpec := fmt.Sprintf("%s!A%d:%s%d", sheet.JobsSheet, start, sheet.LastColumn, start+len(rows)-1)
		if err := e.store.WriteRange(ctx, rangeSpec, rows); err != nil {
			return 0, 0, err
		}
		added = len(rows)
	}

	if len(cl.Updates) > 0 {
		now := e.timestamp()
		batch := make([]sheet.RangeUpdate, 0, 2*len(cl.Updates))
		for _, u := range cl.Updates {
			merged := u.Existing
			merged.Title = u.Record.Title
			merged.Company = u.Record.Company
			merged.Location = u.Record.Location
			merged.URL = u.Record.URL
			merged.DateModified = now

			// Only the card columns and the modified stamp go out. The rest
			// of the row belongs to the user or the scorer, and a full-row
			// write would clobber edits made since the run started.
			batch = append(batch,
				sheet.RangeUpdate{Range: sheet.CardRange(u.RowNumber), Rows: [][]any{merged.CardCells()}},
				sheet.RangeUpdate{Range: sheet.ModifiedRange(u.RowNumber), Rows: [][]any{{merged.DateModified}}},
			)
			e.index[u.Record.ID] = ExistingJob{RowNumber: u.RowNumber, Row: merged}
		}

		if err := e.store.BatchWrite(ctx, batch); err != nil {
			return added, 0, err
		}
		updated = len(cl.Updates)
	}

	return added, updated, nil
}

func (e *Engine) newRow(record jobs.Record, now string, scores map[string]jobs.MatchResult) sheet.Row {
	row := sheet.Row{
		JobID:        record.ID,
		Title:        record.Title,
		Company:      record.Company,
		Location:     record.Location,
		URL:          record.URL,
		Status:       jobs.StatusNew,
		DateAdded:    now,
		DateModified: now,
	}

	if result, ok := scores[record.ID]; ok {
		applyResult(&row, result)
	}
	return row
}

func applyResult(row *sheet.Row, result jobs.MatchResult) {
	row.Probability = result.Probability
	row.ProScore = result.ProScore
	row.ProArgument = result.ProArgument
	row.FlashScore = result.FlashScore
	row.FlashArgument = result.FlashArgument
	row.RequirementsMet = result.RequirementsMet
	row.RequirementsTotal = result.RequirementsTotal
	row.RequirementGaps = result.RequirementGaps

	switch result.Status {
	case jobs.StatusLowMatch, jobs.StatusNotAvailable:
		row.Status = result.Status
	}
}

// BackfillCandidates returns records rebuilt from tracked rows that never
// got a score and are still untouched by the user.
func (e *Engine) BackfillCandidates() []jobs.Record {
	var records []jobs.Record
	for _, existing := range e.index {
		row := existing.Row
		if row.Probability != nil || row.Status != jobs.StatusNew {
			continue
		}
		records = append(records, jobs.Record{
			ID:       row.JobID,
			Title:    row.Title,
			Company:  row.Company,
			Location: row.Location,
			URL:      row.URL,
		})
	}
	return records
}

// BackfillProbabilities writes late scores onto tracked rows. Only rows that
// still have no probability and still sit in NEW are touched; the status can
// only move to the automatic LOW_MATCH or NOT_AVAILABLE states, never over a
// decision the user already made.
func (e *Engine) BackfillProbabilities(ctx context.Context, results []jobs.MatchResult) (int, error) {
	now := e.timestamp()

	var batch []sheet.RangeUpdate
	rows := 0
	for _, result := range results {
		existing, ok := e.index[result.JobID]
		if !ok {
			continue
		}
		if existing.Row.Probability != nil || existing.Row.Status != jobs.StatusNew {
			continue
		}

		merged := existing.Row
		applyResult(&merged, result)
		merged.DateModified = now

		// Scoring owns Status, Match % and the score block; the card columns,
		// Date Added and Notes stay whatever the user last left there.
		batch = append(batch,
			sheet.RangeUpdate{Range: sheet.MatchRange(existing.RowNumber), Rows: [][]any{merged.MatchCells()}},
			sheet.RangeUpdate{Range: sheet.ScoreRange(existing.RowNumber), Rows: [][]any{merged.ScoreCells()}},
		)
		rows++
		e.index[result.JobID] = ExistingJob{RowNumber: existing.RowNumber, Row: merged}
	}

	if rows == 0 {
		return 0, nil
	}

	if err := e.store.BatchWrite(ctx, batch); err != nil {
		return 0, err
	}

	e.logger.Info("backfilled scores", zap.Int("rows", rows))
	return rows, nil
}
