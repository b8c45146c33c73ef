package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/jobsheet/internal/extract"
	"github.com/spigell/jobsheet/internal/jobs"
	"github.com/spigell/jobsheet/internal/pipeline"
	"github.com/spigell/jobsheet/internal/reconcile"
)

type emptyMail struct{}

func (emptyMail) ListUnread(context.Context, string) ([]string, error) { return nil, nil }
func (emptyMail) FetchBody(context.Context, string) (string, error)    { return "", nil }
func (emptyMail) MarkProcessed(context.Context, []string) error        { return nil }

type noopReconciler struct{}

func (noopReconciler) LoadExisting(context.Context) error { return nil }
func (noopReconciler) Classify([]jobs.Record) reconcile.Classification {
	return reconcile.Classification{}
}
func (noopReconciler) ApplyWrites(context.Context, reconcile.Classification, map[string]jobs.MatchResult) (int, int, error) {
	return 0, 0, nil
}
func (noopReconciler) BackfillCandidates() []jobs.Record { return nil }
func (noopReconciler) BackfillProbabilities(context.Context, []jobs.MatchResult) (int, error) {
	return 0, nil
}

func testPipeline() *pipeline.Pipeline {
	return pipeline.New(emptyMail{}, extract.NewParser(zap.NewNop()), noopReconciler{}, nil, nil,
		pipeline.Config{}, zap.NewNop())
}

func TestHandlerHealth(t *testing.T) {
	t.Parallel()

	handler := newHandler(testPipeline(), zap.NewNop())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestHandlerRun(t *testing.T) {
	t.Parallel()

	handler := newHandler(testPipeline(), zap.NewNop())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/run", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var summary pipeline.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.True(t, summary.Success)
	assert.NotEmpty(t, summary.RunID)
	assert.Zero(t, summary.EmailsProcessed)
}

func TestHandlerRunRejectsGet(t *testing.T) {
	t.Parallel()

	handler := newHandler(testPipeline(), zap.NewNop())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/run", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
