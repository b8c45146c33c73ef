package match

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/spigell/jobsheet/internal/ai"
	"github.com/spigell/jobsheet/internal/jobs"
	"github.com/spigell/jobsheet/internal/logger"
)

const (
	// DefaultThreshold is the lowest probability that still counts as a match.
	DefaultThreshold = 70
	// DefaultConcurrency bounds how many jobs are scored at once.
	DefaultConcurrency = 3
	// defaultRequestsPerMinute paces the provider calls.
	defaultRequestsPerMinute = 12
)

// ReferenceFetcher loads the plain-text resume the jobs are scored against.
type ReferenceFetcher interface {
	FetchText(ctx context.Context, docID string) (string, error)
}

// Orchestrator fans job records out to the configured providers and folds
// the verdicts into one MatchResult per job.
type Orchestrator struct {
	primary   ai.Scorer
	secondary ai.Scorer

	fetcher     ReferenceFetcher
	threshold   int
	concurrency int
	limiter     *rate.Limiter
	logger      *zap.Logger

	mu     sync.Mutex
	resume string
}

// Option adjusts the orchestrator defaults.
type Option func(*Orchestrator)

func WithThreshold(threshold int) Option {
	return func(o *Orchestrator) {
		if threshold > 0 {
			o.threshold = threshold
		}
	}
}

func WithConcurrency(concurrency int) Option {
	return func(o *Orchestrator) {
		if concurrency > 0 {
			o.concurrency = concurrency
		}
	}
}

func WithRequestsPerMinute(rpm int) Option {
	return func(o *Orchestrator) {
		if rpm > 0 {
			o.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60), 1)
		}
	}
}

// NewOrchestrator builds an orchestrator around one or two providers. The
// secondary provider may be nil for single-model operation.
func NewOrchestrator(primary, secondary ai.Scorer, fetcher ReferenceFetcher, log *zap.Logger, opts ...Option) (*Orchestrator, error) {
	if primary == nil {
		return nil, errors.New("a primary provider is required")
	}
	if fetcher == nil {
		return nil, errors.New("a reference fetcher is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	o := &Orchestrator{
		primary:     primary,
		secondary:   secondary,
		fetcher:     fetcher,
		threshold:   DefaultThreshold,
		concurrency: DefaultConcurrency,
		limiter:     rate.NewLimiter(rate.Limit(float64(defaultRequestsPerMinute)/60), 1),
		logger:      log,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// LoadReference fetches and caches the resume document for this run. It must
// be called before scoring; a failure means scoring cannot proceed.
func (o *Orchestrator) LoadReference(ctx context.Context, docID string) error {
	text, err := o.fetcher.FetchText(ctx, docID)
	if err != nil {
		return fmt.Errorf("load reference document: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("reference document is empty")
	}

	o.mu.Lock()
	o.resume = text
	o.mu.Unlock()

	o.logger.Info("loaded reference document", zap.Int("chars", len(text)))
	return nil
}

// ScoreBatch scores the records with bounded concurrency. Individual provider
// failures degrade the affected job to NOT_AVAILABLE instead of failing the
// batch; only a missing reference document is a hard error.
func (o *Orchestrator) ScoreBatch(ctx context.Context, records []jobs.Record) ([]jobs.MatchResult, error) {
	o.mu.Lock()
	resume := o.resume
	o.mu.Unlock()
	if resume == "" {
		return nil, errors.New("reference document is not loaded")
	}

	results := make([]jobs.MatchResult, len(records))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(o.concurrency)

	for i, record := range records {
		group.Go(func() error {
			if err := o.limiter.Wait(ctx); err != nil {
				return err
			}
			results[i] = o.scoreOne(ctx, record, resume)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// ScoreOne scores a single record against the loaded reference document.
func (o *Orchestrator) ScoreOne(ctx context.Context, record jobs.Record) (jobs.MatchResult, error) {
	o.mu.Lock()
	resume := o.resume
	o.mu.Unlock()
	if resume == "" {
		return jobs.MatchResult{}, errors.New("reference document is not loaded")
	}
	return o.scoreOne(ctx, record, resume), nil
}

func (o *Orchestrator) scoreOne(ctx context.Context, record jobs.Record, resume string) jobs.MatchResult {
	log := logger.WithJob(o.logger, record.ID)
	result := jobs.MatchResult{JobID: record.ID}

	req := ai.ScoreRequest{Job: record, Resume: resume}

	primary, primaryErr := o.primary.Score(ctx, req)
	if primaryErr != nil {
		log.Warn("primary provider failed",
			zap.String(logger.FieldProvider, o.primary.Name()),
			zap.Error(primaryErr),
		)
	} else {
		result.ProScore = primary.Probability
		result.ProArgument = primary.Reasoning
		result.RequirementsMet = primary.RequirementsMet
		result.RequirementsTotal = primary.RequirementsTotal
		result.RequirementGaps = primary.RequirementGaps
		req.Description = primary.Description
	}

	var secondary *ai.ScoreResult
	if o.secondary != nil {
		var secondaryErr error
		secondary, secondaryErr = o.secondary.Score(ctx, req)
		if secondaryErr != nil {
			log.Warn("secondary provider failed",
				zap.String(logger.FieldProvider, o.secondary.Name()),
				zap.Error(secondaryErr),
			)
		} else {
			result.FlashScore = secondary.Probability
			result.FlashArgument = secondary.Reasoning
		}
	}

	result.Probability = ensemble(result.ProScore, result.FlashScore)
	result.Reasoning = combinedReasoning(o.primary.Name(), primary, secondaryName(o.secondary), secondary)

	if result.Probability == nil {
		result.Status = jobs.StatusNotAvailable
		result.Reasoning = ai.NotAvailableReasoning
		log.Warn("no provider produced a score")
		return result
	}

	result.Status = jobs.StatusForProbability(*result.Probability, o.threshold)
	log.Info("scored job",
		zap.Int("probability", *result.Probability),
		zap.String("status", string(result.Status)),
	)
	return result
}

// ensemble averages the available scores, rounding half away from zero. One
// missing score leaves the other as-is; both missing yields nil.
func ensemble(a, b *int) *int {
	switch {
	case a != nil && b != nil:
		mean := int(math.Round(float64(*a+*b) / 2))
		return &mean
	case a != nil:
		v := *a
		return &v
	case b != nil:
		v := *b
		return &v
	default:
		return nil
	}
}

func combinedReasoning(primaryName string, primary *ai.ScoreResult, secondaryName string, secondary *ai.ScoreResult) string {
	var parts []string
	if primary != nil && strings.TrimSpace(primary.Reasoning) != "" {
		parts = append(parts, fmt.Sprintf("[%s] %s", primaryName, primary.Reasoning))
	}
	if secondary != nil && strings.TrimSpace(secondary.Reasoning) != "" {
		parts = append(parts, fmt.Sprintf("[%s] %s", secondaryName, secondary.Reasoning))
	}
	return strings.Join(parts, "\n")
}

func secondaryName(s ai.Scorer) string {
	if s == nil {
		return ""
	}
	return s.Name()
}
