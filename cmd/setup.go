package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	docsapi "google.golang.org/api/docs/v1"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/spigell/jobsheet/internal/ai"
	"github.com/spigell/jobsheet/internal/ai/aistudio"
	"github.com/spigell/jobsheet/internal/ai/gemini"
	"github.com/spigell/jobsheet/internal/docs"
	"github.com/spigell/jobsheet/internal/extract"
	"github.com/spigell/jobsheet/internal/filtering"
	"github.com/spigell/jobsheet/internal/gmail"
	"github.com/spigell/jobsheet/internal/match"
	"github.com/spigell/jobsheet/internal/pipeline"
	"github.com/spigell/jobsheet/internal/reconcile"
	"github.com/spigell/jobsheet/internal/secrets"
	"github.com/spigell/jobsheet/internal/sheet"
)

// buildPipeline wires every transport and component from the config. It also
// repairs the spreadsheet schema so a brand-new spreadsheet works on the
// first run.
func buildPipeline(ctx context.Context, config *Config, dryRun bool, logger *zap.Logger) (*pipeline.Pipeline, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet-id is required")
	}

	var authOpts []option.ClientOption
	if config.CredentialsFile != "" {
		authOpts = append(authOpts, option.WithCredentialsFile(config.CredentialsFile))
	}

	store, err := sheet.NewClient(ctx, config.SpreadsheetID, logger,
		append(authOpts, option.WithScopes(sheetsapi.SpreadsheetsScope))...)
	if err != nil {
		return nil, err
	}

	if err := store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure spreadsheet schema: %w", err)
	}

	mail, err := gmail.NewClient(ctx, config.Gmail.ProcessedLabel, logger,
		append(authOpts, option.WithScopes(gmailapi.GmailModifyScope))...)
	if err != nil {
		return nil, err
	}

	engineOpts := []reconcile.Option{}
	if config.Timezone != "" {
		loc, err := time.LoadLocation(config.Timezone)
		if err != nil {
			return nil, fmt.Errorf("parse timezone %q: %w", config.Timezone, err)
		}
		engineOpts = append(engineOpts, reconcile.WithTimezone(loc))
	}
	engine := reconcile.NewEngine(store, logger, engineOpts...)

	ignored, err := store.LoadIgnoredCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ignored companies: %w", err)
	}
	var filters []filtering.Filter
	if len(ignored) > 0 {
		filters = append(filters, filtering.NewIgnoredCompanies(ignored, logger))
	}

	matcher, err := buildMatcher(ctx, config, logger, authOpts)
	if err != nil {
		return nil, err
	}

	var pipelineMatcher pipeline.Matcher
	if matcher != nil {
		pipelineMatcher = matcher
	}

	return pipeline.New(
		mail,
		extract.NewParser(logger),
		engine,
		pipelineMatcher,
		filters,
		pipeline.Config{
			GmailQuery:  config.Gmail.Query,
			ResumeDocID: config.ResumeDocID,
			DryRun:      dryRun,
		},
		logger,
	), nil
}

func buildMatcher(ctx context.Context, config *Config, logger *zap.Logger, authOpts []option.ClientOption) (*match.Orchestrator, error) {
	if config.AI == nil || !config.AI.Enabled {
		logger.Info("ai scoring disabled")
		return nil, nil
	}
	if config.ResumeDocID == "" {
		return nil, errors.New("resume-doc-id is required when ai scoring is enabled")
	}

	reference, err := docs.NewClient(ctx,
		logger, append(authOpts, option.WithScopes(docsapi.DocumentsReadonlyScope))...)
	if err != nil {
		return nil, err
	}

	primary, err := buildGemini(ctx, config.AI, logger)
	if err != nil {
		return nil, err
	}

	var secondary ai.Scorer
	if config.AI.DualModel {
		secondary, err = buildAIStudio(ctx, config.AI, logger)
		if err != nil {
			return nil, err
		}
	}

	var opts []match.Option
	if config.AI.Threshold > 0 {
		opts = append(opts, match.WithThreshold(config.AI.Threshold))
	}
	if config.AI.Concurrency > 0 {
		opts = append(opts, match.WithConcurrency(config.AI.Concurrency))
	}
	if config.AI.RequestsPerMinute > 0 {
		opts = append(opts, match.WithRequestsPerMinute(config.AI.RequestsPerMinute))
	}

	return match.NewOrchestrator(primary, secondary, reference, logger, opts...)
}

func buildGemini(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Scorer, error) {
	provider := cfg.Gemini
	if provider == nil {
		provider = &ProviderConfig{}
	}

	key, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: provider.APIKey,
		Env:   "GEMINI_API_KEY",
		File:  provider.APIKeyFile,
	})
	if err != nil {
		return nil, err
	}

	generator, err := gemini.NewGenerator(ctx, key, provider.Model)
	if err != nil {
		return nil, err
	}

	return gemini.NewScorer(generator, logger, cfg.MaxLogLength), nil
}

func buildAIStudio(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Scorer, error) {
	provider := cfg.AIStudio
	if provider == nil {
		provider = &ProviderConfig{}
	}

	key, err := secrets.Load(secrets.Source{
		Name:  "ai studio api key",
		Value: provider.APIKey,
		Env:   "AISTUDIO_API_KEY",
		File:  provider.APIKeyFile,
	})
	if err != nil {
		return nil, err
	}

	generator, err := aistudio.NewGenerator(ctx, key, provider.Model)
	if err != nil {
		return nil, err
	}

	return aistudio.NewScorer(generator, logger, cfg.MaxLogLength), nil
}
