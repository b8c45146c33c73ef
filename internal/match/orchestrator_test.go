package match

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/jobsheet/internal/ai"
	"github.com/spigell/jobsheet/internal/jobs"
)

type fakeScorer struct {
	name string

	mu       sync.Mutex
	score    *int
	reason   string
	desc     string
	err      error
	requests []ai.ScoreRequest
}

func (f *fakeScorer) Score(_ context.Context, req ai.ScoreRequest) (*ai.ScoreResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &ai.ScoreResult{Probability: f.score, Reasoning: f.reason, Description: f.desc}, nil
}

func (f *fakeScorer) Name() string  { return f.name }
func (f *fakeScorer) Model() string { return f.name + "-model" }

type fakeFetcher struct {
	text string
	err  error
}

func (f *fakeFetcher) FetchText(context.Context, string) (string, error) {
	return f.text, f.err
}

func intPtr(v int) *int { return &v }

func record(id string) jobs.Record {
	return jobs.Record{
		ID:      id,
		Title:   "Engineer",
		Company: "Acme",
		URL:     "https://www.linkedin.com/jobs/view/" + id + "/",
	}
}

func newOrchestrator(t *testing.T, primary, secondary ai.Scorer) *Orchestrator {
	t.Helper()

	o, err := NewOrchestrator(primary, secondary, &fakeFetcher{text: "resume text"}, zap.NewNop(),
		WithRequestsPerMinute(60000))
	require.NoError(t, err)
	require.NoError(t, o.LoadReference(context.Background(), "doc-1"))
	return o
}

func TestScoreOneEnsembleMean(t *testing.T) {
	t.Parallel()

	pro := &fakeScorer{name: "pro", score: intPtr(80), reason: "strong", desc: "full posting text"}
	flash := &fakeScorer{name: "flash", score: intPtr(60), reason: "partial"}
	o := newOrchestrator(t, pro, flash)

	result, err := o.ScoreOne(context.Background(), record("1"))
	require.NoError(t, err)

	require.NotNil(t, result.Probability)
	assert.Equal(t, 70, *result.Probability, "round(mean(80,60))")
	assert.Equal(t, jobs.StatusNew, result.Status, "threshold is inclusive")
	assert.Equal(t, "[pro] strong\n[flash] partial", result.Reasoning)
	assert.Equal(t, 80, *result.ProScore)
	assert.Equal(t, 60, *result.FlashScore)

	// The secondary provider must see the primary's description.
	require.Len(t, flash.requests, 1)
	assert.Equal(t, "full posting text", flash.requests[0].Description)
}

func TestScoreOnePrimaryFailureUsesSecondary(t *testing.T) {
	t.Parallel()

	pro := &fakeScorer{name: "pro", err: errors.New("quota")}
	flash := &fakeScorer{name: "flash", score: intPtr(55), reason: "card only"}
	o := newOrchestrator(t, pro, flash)

	result, err := o.ScoreOne(context.Background(), record("2"))
	require.NoError(t, err)

	require.NotNil(t, result.Probability)
	assert.Equal(t, 55, *result.Probability)
	assert.Equal(t, jobs.StatusLowMatch, result.Status)
	assert.Nil(t, result.ProScore)
	assert.Equal(t, "[flash] card only", result.Reasoning)
}

func TestScoreOneBothFail(t *testing.T) {
	t.Parallel()

	pro := &fakeScorer{name: "pro", err: errors.New("quota")}
	flash := &fakeScorer{name: "flash", err: errors.New("down")}
	o := newOrchestrator(t, pro, flash)

	result, err := o.ScoreOne(context.Background(), record("3"))
	require.NoError(t, err)

	assert.Nil(t, result.Probability)
	assert.Equal(t, jobs.StatusNotAvailable, result.Status)
	assert.Equal(t, ai.NotAvailableReasoning, result.Reasoning)
}

func TestScoreOneSingleProvider(t *testing.T) {
	t.Parallel()

	pro := &fakeScorer{name: "pro", score: intPtr(69), reason: "close but short"}
	o := newOrchestrator(t, pro, nil)

	result, err := o.ScoreOne(context.Background(), record("4"))
	require.NoError(t, err)

	require.NotNil(t, result.Probability)
	assert.Equal(t, 69, *result.Probability)
	assert.Equal(t, jobs.StatusLowMatch, result.Status, "69 is below the default threshold")
	assert.Equal(t, "[pro] close but short", result.Reasoning)
	assert.Nil(t, result.FlashScore)
}

func TestScoreOneUnparseableScoreIsNotAvailable(t *testing.T) {
	t.Parallel()

	pro := &fakeScorer{name: "pro", score: nil, reason: "could not find posting"}
	o := newOrchestrator(t, pro, nil)

	result, err := o.ScoreOne(context.Background(), record("5"))
	require.NoError(t, err)

	assert.Equal(t, jobs.StatusNotAvailable, result.Status)
	assert.Equal(t, ai.NotAvailableReasoning, result.Reasoning)
}

func TestScoreBatchPreservesOrder(t *testing.T) {
	t.Parallel()

	pro := &fakeScorer{name: "pro", score: intPtr(90), reason: "fit"}
	o := newOrchestrator(t, pro, nil)

	records := []jobs.Record{record("10"), record("11"), record("12"), record("13")}
	results, err := o.ScoreBatch(context.Background(), records)
	require.NoError(t, err)

	require.Len(t, results, len(records))
	for i, r := range results {
		assert.Equal(t, records[i].ID, r.JobID)
		assert.Equal(t, jobs.StatusNew, r.Status)
	}
}

func TestScoreBatchRequiresReference(t *testing.T) {
	t.Parallel()

	o, err := NewOrchestrator(&fakeScorer{name: "pro"}, nil, &fakeFetcher{text: "x"}, zap.NewNop())
	require.NoError(t, err)

	_, err = o.ScoreBatch(context.Background(), []jobs.Record{record("1")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not loaded")
}

func TestLoadReferenceFailures(t *testing.T) {
	t.Parallel()

	o, err := NewOrchestrator(&fakeScorer{name: "pro"}, nil, &fakeFetcher{err: errors.New("403")}, zap.NewNop())
	require.NoError(t, err)
	require.Error(t, o.LoadReference(context.Background(), "doc-1"))

	o, err = NewOrchestrator(&fakeScorer{name: "pro"}, nil, &fakeFetcher{text: "   "}, zap.NewNop())
	require.NoError(t, err)
	require.Error(t, o.LoadReference(context.Background(), "doc-1"))
}

func TestEnsemble(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 71, *ensemble(intPtr(71), nil))
	assert.Equal(t, 71, *ensemble(nil, intPtr(71)))
	assert.Nil(t, ensemble(nil, nil))
	assert.Equal(t, 76, *ensemble(intPtr(80), intPtr(71)), "75.5 rounds up")
}
