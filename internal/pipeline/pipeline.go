package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/jobsheet/internal/extract"
	"github.com/spigell/jobsheet/internal/filtering"
	"github.com/spigell/jobsheet/internal/jobs"
	"github.com/spigell/jobsheet/internal/logger"
	"github.com/spigell/jobsheet/internal/reconcile"
)

// Mail is the mailbox surface the pipeline needs.
type Mail interface {
	ListUnread(ctx context.Context, query string) ([]string, error)
	FetchBody(ctx context.Context, id string) (string, error)
	MarkProcessed(ctx context.Context, ids []string) error
}

// EmailParser turns one alert email into job records.
type EmailParser interface {
	ParseEmail(htmlBody string) ([]jobs.Record, extract.Stats, error)
}

// Reconciler is the sheet reconciliation surface, satisfied by
// reconcile.Engine.
type Reconciler interface {
	LoadExisting(ctx context.Context) error
	Classify(records []jobs.Record) reconcile.Classification
	ApplyWrites(ctx context.Context, cl reconcile.Classification, scores map[string]jobs.MatchResult) (added, updated int, err error)
	BackfillCandidates() []jobs.Record
	BackfillProbabilities(ctx context.Context, results []jobs.MatchResult) (int, error)
}

// Matcher scores job records against the reference document.
type Matcher interface {
	LoadReference(ctx context.Context, docID string) error
	ScoreBatch(ctx context.Context, records []jobs.Record) ([]jobs.MatchResult, error)
}

// Summary is the machine-readable outcome of one run.
type Summary struct {
	Success          bool   `json:"success"`
	EmailsProcessed  int    `json:"emailsProcessed"`
	JobsFound        int    `json:"jobsFound"`
	JobsAnalyzed     int    `json:"jobsAnalyzed"`
	JobsLowMatch     int    `json:"jobsLowMatch"`
	JobsNotAvailable int    `json:"jobsNotAvailable"`
	JobsAdded        int    `json:"jobsAdded"`
	JobsUpdated      int    `json:"jobsUpdated"`
	JobsSkipped      int    `json:"jobsSkipped"`
	Error            string `json:"error,omitempty"`
	RunID            string `json:"runId"`
}

// Config carries the run-scoped settings.
type Config struct {
	GmailQuery  string
	ResumeDocID string
	// DryRun stops the pipeline right after classification: no rows, no
	// backfill, no label changes, and no paid scoring calls either.
	DryRun bool
}

// Pipeline wires the transports, the parser, the filters, the reconciler and
// the matcher into one run.
type Pipeline struct {
	mail    Mail
	parser  EmailParser
	engine  Reconciler
	matcher Matcher
	filters []filtering.Filter
	cfg     Config
	logger  *zap.Logger
}

// New builds a pipeline. The matcher may be nil when scoring is disabled.
func New(mail Mail, parser EmailParser, engine Reconciler, matcher Matcher, filters []filtering.Filter, cfg Config, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}

	return &Pipeline{
		mail:    mail,
		parser:  parser,
		engine:  engine,
		matcher: matcher,
		filters: filters,
		cfg:     cfg,
		logger:  log,
	}
}

// Run executes one full ingestion pass. Transport failures abort the run;
// scoring failures degrade it, the sheet still gets the rows.
func (p *Pipeline) Run(ctx context.Context) Summary {
	summary := Summary{RunID: uuid.NewString()}
	log := logger.WithRun(p.logger, summary.RunID)

	ids, err := p.mail.ListUnread(ctx, p.cfg.GmailQuery)
	if err != nil {
		summary.Error = err.Error()
		log.Error("list unread emails", zap.Error(err))
		return summary
	}

	if len(ids) == 0 {
		log.Info("no unread alert emails")
		summary.Success = true
		return summary
	}

	records, processed, err := p.collect(ctx, log, ids)
	if err != nil {
		summary.Error = err.Error()
		return summary
	}
	summary.EmailsProcessed = processed

	records = jobs.Dedupe(records)
	records, err = filtering.Run(ctx, log, p.filters, records)
	if err != nil {
		summary.Error = err.Error()
		log.Error("filtering failed", zap.Error(err))
		return summary
	}
	summary.JobsFound = len(records)

	if err := p.engine.LoadExisting(ctx); err != nil {
		summary.Error = err.Error()
		log.Error("load existing jobs", zap.Error(err))
		return summary
	}

	cl := p.engine.Classify(records)
	summary.JobsSkipped = len(cl.Skipped)

	if p.cfg.DryRun {
		summary.JobsAdded = len(cl.New)
		summary.JobsUpdated = len(cl.Updates)
		summary.Success = true
		log.Info("dry run complete, skipping scoring and writes",
			zap.Int("would_add", summary.JobsAdded),
			zap.Int("would_update", summary.JobsUpdated),
		)
		return summary
	}

	run := &runState{}
	scores := p.score(ctx, log, run, cl.New, &summary)

	added, updated, err := p.engine.ApplyWrites(ctx, cl, scores)
	if err != nil {
		summary.Error = err.Error()
		log.Error("apply writes", zap.Error(err))
		return summary
	}
	summary.JobsAdded = added
	summary.JobsUpdated = updated

	p.backfill(ctx, log, run, &summary)

	if err := p.mail.MarkProcessed(ctx, ids); err != nil {
		summary.Error = err.Error()
		log.Error("mark emails processed", zap.Error(err))
		return summary
	}

	summary.Success = true
	log.Info("run complete",
		zap.Int("emails", summary.EmailsProcessed),
		zap.Int("found", summary.JobsFound),
		zap.Int("added", summary.JobsAdded),
		zap.Int("updated", summary.JobsUpdated),
		zap.Int("skipped", summary.JobsSkipped),
	)
	return summary
}

func (p *Pipeline) collect(ctx context.Context, log *zap.Logger, ids []string) ([]jobs.Record, int, error) {
	var records []jobs.Record
	processed := 0
	for _, id := range ids {
		body, err := p.mail.FetchBody(ctx, id)
		if err != nil {
			return nil, 0, fmt.Errorf("fetch email %s: %w", id, err)
		}

		parsed, stats, err := p.parser.ParseEmail(body)
		if err != nil {
			// One mangled email must not sink the batch.
			log.Warn("parse email failed", zap.String("email_id", id), zap.Error(err))
			continue
		}

		log.Debug("parsed email",
			zap.String("email_id", id),
			zap.Int("cards", stats.Cards),
			zap.Int("unique", stats.Unique),
		)
		records = append(records, parsed...)
		processed++
	}
	return records, processed, nil
}

// runState tracks the once-per-run reference document load.
type runState struct {
	refLoaded bool
	refFailed bool
}

func (p *Pipeline) ensureReference(ctx context.Context, log *zap.Logger, run *runState) bool {
	if run.refLoaded {
		return true
	}
	if run.refFailed {
		return false
	}

	if err := p.matcher.LoadReference(ctx, p.cfg.ResumeDocID); err != nil {
		log.Warn("reference document unavailable, skipping analysis", zap.Error(err))
		run.refFailed = true
		return false
	}
	run.refLoaded = true
	return true
}

// score runs the matcher over the new records. Every failure here is
// degradation, not abort: the records still land on the sheet and get picked
// up by a later backfill.
func (p *Pipeline) score(ctx context.Context, log *zap.Logger, run *runState, newRecords []jobs.Record, summary *Summary) map[string]jobs.MatchResult {
	if p.matcher == nil || len(newRecords) == 0 {
		return nil
	}

	if !p.ensureReference(ctx, log, run) {
		return nil
	}

	results, err := p.matcher.ScoreBatch(ctx, newRecords)
	if err != nil {
		log.Warn("scoring failed, rows will be added unscored", zap.Error(err))
		return nil
	}

	scores := make(map[string]jobs.MatchResult, len(results))
	for _, result := range results {
		scores[result.JobID] = result
		summary.JobsAnalyzed++
		switch result.Status {
		case jobs.StatusLowMatch:
			summary.JobsLowMatch++
		case jobs.StatusNotAvailable:
			summary.JobsNotAvailable++
		}
	}
	return scores
}

func (p *Pipeline) backfill(ctx context.Context, log *zap.Logger, run *runState, summary *Summary) {
	if p.matcher == nil {
		return
	}

	candidates := p.engine.BackfillCandidates()
	if len(candidates) == 0 {
		return
	}

	if !p.ensureReference(ctx, log, run) {
		return
	}

	results, err := p.matcher.ScoreBatch(ctx, candidates)
	if err != nil {
		log.Warn("backfill scoring failed", zap.Error(err))
		return
	}

	n, err := p.engine.BackfillProbabilities(ctx, results)
	if err != nil {
		log.Warn("backfill write failed", zap.Error(err))
		return
	}
	log.Info("backfilled rows", zap.Int("rows", n))

	for _, result := range results {
		summary.JobsAnalyzed++
		switch result.Status {
		case jobs.StatusLowMatch:
			summary.JobsLowMatch++
		case jobs.StatusNotAvailable:
			summary.JobsNotAvailable++
		}
	}
}
