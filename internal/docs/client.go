package docs

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	docs "google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

// Client reads Google Docs as plain text.
type Client struct {
	svc    *docs.Service
	logger *zap.Logger
}

func NewClient(ctx context.Context, logger *zap.Logger, opts ...option.ClientOption) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	svc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create docs service: %w", err)
	}

	return &Client{svc: svc, logger: logger}, nil
}

// FetchText returns the document body flattened to plain text, with
// paragraphs separated by newlines and table cells by tabs.
func (c *Client) FetchText(ctx context.Context, docID string) (string, error) {
	doc, err := c.svc.Documents.Get(docID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get document %s: %w", docID, err)
	}
	if doc.Body == nil {
		return "", fmt.Errorf("document %s has no body", docID)
	}

	text := flattenElements(doc.Body.Content)
	c.logger.Debug("fetched document", zap.String("doc_id", docID), zap.Int("chars", len(text)))
	return text, nil
}

func flattenElements(elements []*docs.StructuralElement) string {
	var sb strings.Builder
	for _, el := range elements {
		switch {
		case el.Paragraph != nil:
			sb.WriteString(paragraphText(el.Paragraph))
		case el.Table != nil:
			sb.WriteString(tableText(el.Table))
		}
	}
	return sb.String()
}

func paragraphText(p *docs.Paragraph) string {
	var sb strings.Builder
	for _, el := range p.Elements {
		if el.TextRun != nil {
			sb.WriteString(el.TextRun.Content)
		}
	}
	return sb.String()
}

func tableText(t *docs.Table) string {
	var sb strings.Builder
	for _, row := range t.TableRows {
		cells := make([]string, 0, len(row.TableCells))
		for _, cell := range row.TableCells {
			cells = append(cells, strings.TrimSpace(flattenElements(cell.Content)))
		}
		sb.WriteString(strings.Join(cells, "\t"))
		sb.WriteString("\n")
	}
	return sb.String()
}
