package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobsheet/internal/jobs"
)

type companiesFilter struct {
	ignored map[string]struct{}
	logger  *zap.Logger
}

// NewIgnoredCompanies creates a filter that drops postings from companies the
// user listed on the Config sheet. Matching is case-insensitive.
func NewIgnoredCompanies(companies []string, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}

	ignored := make(map[string]struct{}, len(companies))
	for _, name := range companies {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		ignored[name] = struct{}{}
	}

	return &companiesFilter{ignored: ignored, logger: logger}
}

func (f *companiesFilter) Name() string { return "ignored_companies" }

func (f *companiesFilter) Apply(_ context.Context, records []jobs.Record) ([]jobs.Record, Step, error) {
	initial := len(records)
	if len(f.ignored) == 0 {
		return records, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	kept := make([]jobs.Record, 0, initial)
	var excluded []string
	for _, record := range records {
		if _, ok := f.ignored[strings.ToLower(record.Company)]; ok {
			excluded = append(excluded, record.ID)
			continue
		}
		kept = append(kept, record)
	}

	if len(excluded) > 0 {
		f.logger.Info("excluding jobs by ignored companies",
			zap.Strings("excluded_jobs", excluded),
			zap.Int("jobs_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(excluded), Left: len(kept)}, nil
}
