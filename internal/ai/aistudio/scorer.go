package aistudio

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/jobsheet/internal/ai"
	"github.com/spigell/jobsheet/internal/logger"
)

// ProviderName labels this provider in logs and reasoning output.
const ProviderName = "flash"

type jsonGenerator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Scorer rates postings with a fast AI Studio model. It has no retrieval of
// its own and leans on the posting description recovered by the primary
// provider when one is available.
type Scorer struct {
	generator jsonGenerator
	logger    *zap.Logger
	maxLogLen int
}

const defaultMaxLogLength = 200

func NewScorer(generator jsonGenerator, log *zap.Logger, maxLogLength int) *Scorer {
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

	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	log := logger.WithJob(s.logger, req.Job.ID)
	log.Debug("ai studio score request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.Bool("has_description", strings.TrimSpace(req.Description) != ""),
	)

	raw, err := s.generator.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	log.Debug("ai studio score response",
		zap.String("response_preview", logger.TruncateForLog(raw, s.maxLogLen)),
	)

	return parseResponse(raw)
}

func buildPrompt(req ai.ScoreRequest) (string, error) {
	jobJSON, err := json.MarshalIndent(req.Job, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal job payload: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are a rigorous technical recruiter screening a job posting against one candidate's resume.\n")
	sb.WriteString("Score the match probability as an integer 0-100. Be conservative: 70 or higher means the candidate should apply.\n")
	sb.WriteString("Each missing must-have requirement costs 15-25 points. A seniority mismatch of more than one level caps the score at 50.\n\n")
	sb.WriteString("Respond with a single JSON object: {\"probability\": <integer 0-100>, \"reasoning\": \"<2-4 sentences>\"}\n\n")
	sb.WriteString("Resume:\n")
	sb.WriteString(req.Resume)
	sb.WriteString("\n\nJob posting card:\n")
	sb.Write(jobJSON)

	if description := strings.TrimSpace(req.Description); description != "" {
		sb.WriteString("\n\nFull posting description:\n")
		sb.WriteString(description)
	}

	return sb.String(), nil
}

func parseResponse(raw string) (*ai.ScoreResult, error) {
	var data struct {
		Probability *float64 `json:"probability"`
		Reasoning   string   `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(cleanJSONBlock(raw)), &data); err != nil {
		return nil, fmt.Errorf("parse ai studio response: %w", err)
	}

	result := &ai.ScoreResult{Reasoning: strings.TrimSpace(data.Reasoning)}
	if data.Probability != nil {
		score := int(math.Round(*data.Probability))
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}
		result.Probability = &score
	}

	return result, nil
}
