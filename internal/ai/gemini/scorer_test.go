package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/jobsheet/internal/ai"
	"github.com/spigell/jobsheet/internal/jobs"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
	grounded   bool
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) GenerateGrounded(ctx context.Context, prompt string) (string, error) {
	s.grounded = true
	return s.GenerateContent(ctx, prompt)
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

func testRequest() ai.ScoreRequest {
	return ai.ScoreRequest{
		Job: jobs.Record{
			ID:      "4011223344",
			Title:   "Platform Engineer",
			Company: "Acme",
			URL:     "https://www.linkedin.com/jobs/view/4011223344/",
		},
		Resume: "Ten years of Go and Kubernetes.",
	}
}

func TestScorerScore(t *testing.T) {
	stub := &stubGenerator{response: `{"probability": 82, "reasoning": "Strong overlap", "description": "Builds platforms", "requirements_met": 7, "requirements_total": 9, "requirement_gaps": "Terraform"}`}
	scorer := NewScorer(stub, zap.NewNop(), 0)

	result, err := scorer.Score(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Probability == nil || *result.Probability != 82 {
		t.Fatalf("expected probability 82, got %v", result.Probability)
	}

	if result.Reasoning != "Strong overlap" {
		t.Fatalf("unexpected reasoning: %s", result.Reasoning)
	}

	if result.Description != "Builds platforms" {
		t.Fatalf("unexpected description: %s", result.Description)
	}

	if result.RequirementsMet == nil || *result.RequirementsMet != 7 {
		t.Fatalf("unexpected requirements met: %v", result.RequirementsMet)
	}

	if !stub.grounded {
		t.Fatalf("expected the grounded generation path")
	}

	if !strings.Contains(stub.lastPrompt, "4011223344") {
		t.Fatalf("expected job id in prompt")
	}

	if !strings.Contains(stub.lastPrompt, "Ten years of Go") {
		t.Fatalf("expected resume text in prompt")
	}
}

func TestScorerRequiresResume(t *testing.T) {
	scorer := NewScorer(&stubGenerator{}, zap.NewNop(), 0)

	if _, err := scorer.Score(context.Background(), ai.ScoreRequest{Job: jobs.Record{ID: "1"}}); err == nil {
		t.Fatalf("expected error for missing resume")
	}
}

func TestScorerPropagatesGeneratorError(t *testing.T) {
	stub := &stubGenerator{err: errors.New("quota exceeded")}
	scorer := NewScorer(stub, zap.NewNop(), 0)

	if _, err := scorer.Score(context.Background(), testRequest()); err == nil {
		t.Fatalf("expected generator error to propagate")
	}
}

func TestParseResponseHandlesCodeBlock(t *testing.T) {
	raw := "```json\n{\"probability\": \"73.6\", \"reasoning\": \"Looks good\", \"description\": \"\"}\n```"
	result, err := parseResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Probability == nil || *result.Probability != 74 {
		t.Fatalf("expected rounded probability 74, got %v", result.Probability)
	}

	if result.RequirementsMet != nil {
		t.Fatalf("expected nil requirements when absent")
	}
}

func TestParseResponseClampsAndRejects(t *testing.T) {
	result, err := parseResponse(`{"probability": 140, "reasoning": "x"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Probability == nil || *result.Probability != 100 {
		t.Fatalf("expected clamp to 100, got %v", result.Probability)
	}

	result, err = parseResponse(`{"probability": "maybe", "reasoning": "x"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Probability != nil {
		t.Fatalf("expected nil probability for unparseable score")
	}

	if _, err = parseResponse("not json at all"); err == nil {
		t.Fatalf("expected parse error")
	}
}
