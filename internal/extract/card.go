package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/spigell/jobsheet/internal/jobs"
)

const (
	// PlaceholderTitle and PlaceholderCompany keep a card alive when every
	// extraction strategy for the field came up empty. Template drift across
	// sender services makes a missing title far more common than a missing
	// job id, and a placeholder row in the sheet beats a silently dropped
	// posting.
	PlaceholderTitle   = "Unknown Title"
	PlaceholderCompany = "Unknown Company"
)

// PlaceholderAlts are image alt texts that name a badge instead of the
// company. Treated as absent during company extraction.
var PlaceholderAlts = []string{"Premium", "LinkedIn"}

// headingSelectors are tried in priority order when no job-view anchor
// yields a usable title.
var headingSelectors = []string{"h1", "h2", "h3", "h4", "strong", "b"}

var (
	reLocationUS     = regexp.MustCompile(`United States(?:\s*\([^)]+\))?`)
	reLocationRemote = regexp.MustCompile(`\bRemote\b`)
	reLocationCitySt = regexp.MustCompile(`\b[A-Z][A-Za-z.' -]+,\s?[A-Z]{2}\b(?:\s*\([^)]+\))?`)
)

// ExtractCard parses one job-card fragment into a validated record. It
// reports false when the card has no usable job-view link or fails schema
// validation; the rejection itself is logged here, callers only aggregate.
func (p *Parser) ExtractCard(card *goquery.Selection) (jobs.Record, bool) {
	canonical, id, ok := discoverURL(card)
	if !ok {
		p.logger.Debug("card rejected", zap.String("reason", "no job view link"))
		return jobs.Record{}, false
	}

	title := extractTitle(card)
	company, location := extractCompanyAndLocation(card)

	record, ok := jobs.Sanitize(jobs.Record{
		ID:       id,
		Title:    title,
		Company:  company,
		Location: location,
		URL:      canonical,
	})
	if !ok {
		p.logger.Warn("card rejected by validation", zap.String("job_id", id))
		return jobs.Record{}, false
	}

	return record, true
}

// discoverURL finds the first job-view hyperlink in the card and
// canonicalizes it. The whole card is rejected when none resolves.
func discoverURL(card *goquery.Selection) (canonical, id string, ok bool) {
	card.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !strings.Contains(href, jobViewMarker) {
			return true
		}
		canonical, id, ok = CleanURL(href)
		return !ok
	})
	return canonical, id, ok
}

// extractTitle runs the ordered title strategies: bold job-view anchor text,
// then any job-view anchor with real text content, then heading-like
// elements, then the literal placeholder.
func extractTitle(card *goquery.Selection) string {
	if t := boldAnchorTitle(card); t != "" {
		return t
	}
	if t := anchorTitle(card); t != "" {
		return t
	}
	if t := headingTitle(card); t != "" {
		return t
	}
	return PlaceholderTitle
}

func boldAnchorTitle(card *goquery.Selection) string {
	var title string
	card.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !strings.Contains(href, jobViewMarker) {
			return true
		}
		if a.Find("strong,b").Length() == 0 && a.Closest("strong,b").Length() == 0 {
			return true
		}
		title = cleanText(a.Text())
		return title == ""
	})
	return title
}

func anchorTitle(card *goquery.Selection) string {
	var title string
	card.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !strings.Contains(href, jobViewMarker) {
			return true
		}

		// Drop embedded images before reading text so a logo-only anchor
		// does not pass on its alt attribute's behalf.
		clone := a.Clone()
		clone.Find("img").Remove()
		candidate := cleanText(clone.Text())
		if len([]rune(candidate)) <= 2 {
			return true
		}

		title = candidate
		return false
	})
	return title
}

func headingTitle(card *goquery.Selection) string {
	for _, selector := range headingSelectors {
		var title string
		card.Find(selector).EachWithBreak(func(_ int, h *goquery.Selection) bool {
			candidate := cleanText(h.Text())
			if len([]rune(candidate)) <= 2 {
				return true
			}
			title = candidate
			return false
		})
		if title != "" {
			return title
		}
	}
	return ""
}

// extractCompanyAndLocation reads the company from the first meaningful
// image alt, then scans paragraphs for the "Company · Location" line. The
// middle-dot paragraph both completes a missing company and provides the
// location; without one, location falls back to regex scans over the
// flattened card text.
func extractCompanyAndLocation(card *goquery.Selection) (company, location string) {
	company = companyFromImageAlt(card)

	card.Find("p").EachWithBreak(func(_ int, para *goquery.Selection) bool {
		text := cleanText(para.Text())
		if !strings.Contains(text, "·") {
			return true
		}

		parts := strings.Split(text, "·")
		if len(parts) < 2 {
			return true
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		if company == "" {
			company = parts[0]
		}
		location = strings.Join(parts[1:], " · ")
		return false
	})

	if location == "" {
		location = locationFromText(cleanText(card.Text()))
	}
	if company == "" {
		company = PlaceholderCompany
	}

	return company, location
}

func companyFromImageAlt(card *goquery.Selection) string {
	var company string
	card.Find("img[alt]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		alt, _ := img.Attr("alt")
		alt = cleanText(alt)
		if alt == "" || isPlaceholderAlt(alt) {
			return true
		}
		company = alt
		return false
	})
	return company
}

func isPlaceholderAlt(alt string) bool {
	for _, placeholder := range PlaceholderAlts {
		if strings.EqualFold(alt, placeholder) {
			return true
		}
	}
	return false
}

func locationFromText(text string) string {
	for _, re := range []*regexp.Regexp{reLocationUS, reLocationRemote, reLocationCitySt} {
		if m := re.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}
