package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/spigell/jobsheet/internal/jobs"
)

// jobViewMarker identifies a hyperlink target as a job posting view. Alert
// emails use several path prefixes in front of it (notably /comm/), all of
// which collapse to the same posting.
const jobViewMarker = "/jobs/view/"

var reJobID = regexp.MustCompile(`/jobs/view/(\d+)`)

// CleanURL normalizes a job posting hyperlink to its canonical form:
// tracking query parameters stripped, path prefix variants folded away and a
// single fixed path scheme with the numeric id. It reports false when the
// href carries no usable id or the result fails the canonical pattern.
func CleanURL(href string) (canonical, id string, ok bool) {
	href = strings.TrimSpace(href)
	if href == "" || !strings.Contains(href, jobViewMarker) {
		return "", "", false
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", "", false
	}

	m := reJobID.FindStringSubmatch(u.Path)
	if len(m) != 2 || m[1] == "" {
		return "", "", false
	}
	id = m[1]

	canonical = "https://www.linkedin.com/jobs/view/" + id + "/"
	if !jobs.CanonicalURLPattern.MatchString(canonical) {
		return "", "", false
	}

	return canonical, id, true
}

// cleanText collapses whitespace (including non-breaking spaces) to single
// spaces, same as the flattened text the card markup renders to.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
