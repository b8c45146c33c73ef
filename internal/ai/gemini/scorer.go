package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/jobsheet/internal/ai"
	"github.com/spigell/jobsheet/internal/logger"
)

// ProviderName labels this provider in logs and reasoning output.
const ProviderName = "pro"

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	GenerateGrounded(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Scorer rates postings with the Gemini Pro model, using search grounding
// to recover the full posting text behind the card.
type Scorer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

func NewScorer(generator contentGenerator, log *zap.Logger, maxLogLength int) *Scorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Scorer{
		generator: generator,
		logger:    logger.WithCommonFields(log, ProviderName, generator.Model()),
		maxLogLen: maxLogLength,
	}
}

func (s *Scorer) Name() string  { return ProviderName }
func (s *Scorer) Model() string { return s.generator.Model() }

func (s *Scorer) Score(ctx context.Context, req ai.ScoreRequest) (*ai.ScoreResult, error) {
	if strings.TrimSpace(req.Resume) == "" {
		return nil, fmt.Errorf("resume text is required")
	}

	jobJSON, err := json.MarshalIndent(req.Job, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	prompt := buildPrompt(req.Resume, string(jobJSON))

	log := logger.WithJob(s.logger, req.Job.ID)
	log.Debug("gemini score request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateGrounded(ctx, prompt)
	if err != nil {
		return nil, err
	}

	log.Debug("gemini score response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, s.maxLogLen)),
	)

	return parseResponse(raw)
}

func buildPrompt(resume, jobJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Resume:\n{{RESUME}}\n\nJob posting:\n{{JOB_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{RESUME}}", resume)
	prompt = strings.ReplaceAll(prompt, "{{JOB_JSON}}", jobJSON)
	return prompt
}

func parseResponse(raw string) (*ai.ScoreResult, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	result := &ai.ScoreResult{
		Probability:       coerceScore(data["probability"]),
		Reasoning:         coerceString(data["reasoning"]),
		Description:       coerceString(data["description"]),
		RequirementsMet:   coerceCount(data["requirements_met"]),
		RequirementsTotal: coerceCount(data["requirements_total"]),
		RequirementGaps:   coerceString(data["requirement_gaps"]),
	}

	return result, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// coerceScore clamps the value into [0, 100], rounding fractional scores.
// Anything unparseable becomes nil rather than a fake zero.
func coerceScore(v any) *int {
	f := coerceFloat(v)
	if math.IsNaN(f) {
		return nil
	}

	score := int(math.Round(f))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return &score
}

func coerceCount(v any) *int {
	f := coerceFloat(v)
	if math.IsNaN(f) || f < 0 {
		return nil
	}
	n := int(math.Round(f))
	return &n
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
