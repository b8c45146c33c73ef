package jobs

import (
	"fmt"
	"regexp"
	"strings"
)

// CanonicalURLPattern matches a cleaned LinkedIn job posting URL: fixed
// protocol, optional www subdomain, the /jobs/view/ path and a non-empty
// numeric id. Anything after the id (extra path or query) is ignored.
var CanonicalURLPattern = regexp.MustCompile(`^https://(www\.)?linkedin\.com/jobs/view/\d+([/?].*)?$`)

// Record is a single job posting extracted from an alert email. The job id is
// the sole identity key: it is globally unique per posting and drives both
// in-email deduplication and store reconciliation. A Record is treated as
// immutable once validated; downstream code builds new values instead of
// mutating in place.
type Record struct {
	ID       string
	Title    string
	Company  string
	Location string
	URL      string

	// Probability is the AI match score in [0,100]. Nil means not scored yet.
	Probability *int
}

// ValidationError enumerates every field that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid job record: %s", strings.Join(e.Fields, ", "))
}

// Normalize trims surrounding whitespace from all text fields.
func Normalize(r Record) Record {
	r.ID = strings.TrimSpace(r.ID)
	r.Title = strings.TrimSpace(r.Title)
	r.Company = strings.TrimSpace(r.Company)
	r.Location = strings.TrimSpace(r.Location)
	r.URL = strings.TrimSpace(r.URL)
	return r
}

// Validate checks the record against the schema rules and returns a
// *ValidationError listing every failing field. Location may be empty.
func Validate(r Record) error {
	r = Normalize(r)

	var failed []string
	if r.ID == "" {
		failed = append(failed, "id must be a non-empty string")
	}
	if r.Title == "" {
		failed = append(failed, "title must be a non-empty string")
	}
	if r.Company == "" {
		failed = append(failed, "company must be a non-empty string")
	}
	if !CanonicalURLPattern.MatchString(r.URL) {
		failed = append(failed, fmt.Sprintf("url %q is not a canonical job posting url", r.URL))
	}
	if r.Probability != nil && (*r.Probability < 0 || *r.Probability > 100) {
		failed = append(failed, fmt.Sprintf("probability %d is out of range [0,100]", *r.Probability))
	}

	if len(failed) > 0 {
		return &ValidationError{Fields: failed}
	}

	return nil
}

// Sanitize is the non-raising entry point sharing Validate's rule set: it
// returns the normalized record and reports whether it passed.
func Sanitize(r Record) (Record, bool) {
	r = Normalize(r)
	if err := Validate(r); err != nil {
		return Record{}, false
	}
	return r, true
}

// Dedupe returns the records with duplicate job ids removed, keeping the
// first occurrence and preserving order.
func Dedupe(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
