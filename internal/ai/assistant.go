package ai

import (
	"context"

	"github.com/spigell/jobsheet/internal/jobs"
)

// NotAvailableReasoning is written to the sheet when every provider failed
// for a job and no score could be produced.
const NotAvailableReasoning = "Automated analysis failed; manual review required."

// ScoreRequest carries one job posting through a provider.
type ScoreRequest struct {
	Job jobs.Record
	// Resume is the plain-text reference document the job is scored against.
	Resume string
	// Description is the posting description recovered by an earlier
	// provider, when available. Providers without their own retrieval use
	// it as context instead of the bare card fields.
	Description string
}

// ScoreResult is one provider's verdict on one job.
type ScoreResult struct {
	// Probability is the 0-100 match estimate. Nil means the provider
	// could not produce a usable score.
	Probability *int
	Reasoning   string
	// Description is the provider's reconstruction of the posting, passed
	// to subsequent providers. Empty when the provider does not retrieve.
	Description string

	RequirementsMet   *int
	RequirementsTotal *int
	RequirementGaps   string
}

// Scorer rates how well a job posting matches the reference resume.
type Scorer interface {
	Score(ctx context.Context, req ScoreRequest) (*ScoreResult, error)
	// Name identifies the provider in logs and reasoning labels.
	Name() string
	Model() string
}
