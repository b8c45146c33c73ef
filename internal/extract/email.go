package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/spigell/jobsheet/internal/jobs"
)

// cardMarker is the structural attribute identifying one job card inside an
// alert email body.
const cardMarker = `td[data-test-id="job-card"]`

// Parser turns raw alert email bodies into deduplicated job records.
type Parser struct {
	logger *zap.Logger
}

// Stats aggregates one email's extraction counts.
type Stats struct {
	Cards     int
	Extracted int
	Unique    int
}

func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// ParseEmail locates every job card in the email body, extracts a record per
// card and deduplicates by job id keeping the first occurrence. Extraction
// failures are per-card and never fatal; only malformed HTML returns an
// error.
func (p *Parser) ParseEmail(htmlBody string) ([]jobs.Record, Stats, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil, Stats{}, fmt.Errorf("parse email html: %w", err)
	}

	cards := doc.Find(cardMarker)
	if cards.Length() == 0 {
		cards = fallbackCards(doc)
	}

	var stats Stats
	stats.Cards = cards.Length()

	records := make([]jobs.Record, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		record, ok := p.ExtractCard(card)
		if !ok {
			return
		}
		records = append(records, record)
	})
	stats.Extracted = len(records)

	unique := jobs.Dedupe(records)
	stats.Unique = len(unique)

	p.logger.Info("parsed alert email",
		zap.Int("cards_found", stats.Cards),
		zap.Int("records_extracted", stats.Extracted),
		zap.Int("unique_records", stats.Unique),
	)

	return unique, stats, nil
}

// fallbackCards groups job-view anchors by their closest table when the
// card marker is absent, which happens on older template revisions.
// AddSelection keeps nodes unique, so anchors sharing a table collapse into
// one card.
func fallbackCards(doc *goquery.Document) *goquery.Selection {
	var cards *goquery.Selection

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, jobViewMarker) {
			return
		}

		card := a.Closest("table")
		if card.Length() == 0 {
			card = a.Parent()
		}

		if cards == nil {
			cards = card
			return
		}
		cards = cards.AddSelection(card)
	})

	if cards == nil {
		return doc.Find(cardMarker)
	}
	return cards
}
