package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const user = "me"

// Client is a thin transport over the Gmail API for one mailbox.
type Client struct {
	svc            *gmail.Service
	logger         *zap.Logger
	processedLabel string

	// labelID caches the resolved (or created) processed label for the run.
	labelID string
}

func NewClient(ctx context.Context, processedLabel string, logger *zap.Logger, opts ...option.ClientOption) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(processedLabel) == "" {
		return nil, errors.New("processed label name is required")
	}

	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	return &Client{svc: svc, logger: logger, processedLabel: processedLabel}, nil
}

// ListUnread returns the ids of all unread messages matching the query,
// following result pages to the end.
func (c *Client) ListUnread(ctx context.Context, query string) ([]string, error) {
	full := strings.TrimSpace("is:unread " + query)

	var ids []string
	pageToken := ""
	for {
		call := c.svc.Users.Messages.List(user).Q(full).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}

		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	c.logger.Debug("listed unread messages", zap.String("query", full), zap.Int("count", len(ids)))
	return ids, nil
}

// FetchBody returns the decoded HTML body of one message, preferring the
// text/html part and falling back to the top-level payload body.
func (c *Client) FetchBody(ctx context.Context, id string) (string, error) {
	msg, err := c.svc.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get message %s: %w", id, err)
	}
	if msg.Payload == nil {
		return "", fmt.Errorf("message %s has no payload", id)
	}

	if body := htmlPart(msg.Payload); body != "" {
		return body, nil
	}

	if msg.Payload.Body != nil && msg.Payload.Body.Data != "" {
		return decodeBody(msg.Payload.Body.Data)
	}

	return "", fmt.Errorf("message %s has no html body", id)
}

// MarkProcessed labels the messages as processed, marks them read and
// archives them, in one batch call.
func (c *Client) MarkProcessed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	labelID, err := c.ensureLabel(ctx)
	if err != nil {
		return err
	}

	err = c.svc.Users.Messages.BatchModify(user, &gmail.BatchModifyMessagesRequest{
		Ids:            ids,
		AddLabelIds:    []string{labelID},
		RemoveLabelIds: []string{"UNREAD", "INBOX"},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("mark %d messages processed: %w", len(ids), err)
	}

	c.logger.Info("marked messages processed", zap.Int("count", len(ids)))
	return nil
}

// ensureLabel resolves the processed label id, creating the label when the
// mailbox does not have it yet.
func (c *Client) ensureLabel(ctx context.Context) (string, error) {
	if c.labelID != "" {
		return c.labelID, nil
	}

	labels, err := c.svc.Users.Labels.List(user).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("list labels: %w", err)
	}

	for _, l := range labels.Labels {
		if strings.EqualFold(l.Name, c.processedLabel) {
			c.labelID = l.Id
			return c.labelID, nil
		}
	}

	created, err := c.svc.Users.Labels.Create(user, &gmail.Label{
		Name:                  c.processedLabel,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create label %q: %w", c.processedLabel, err)
	}

	c.logger.Info("created processed label", zap.String("label", c.processedLabel))
	c.labelID = created.Id
	return c.labelID, nil
}

// htmlPart walks the MIME tree depth-first for the first text/html part.
func htmlPart(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}

	if strings.HasPrefix(part.MimeType, "text/html") && part.Body != nil && part.Body.Data != "" {
		body, err := decodeBody(part.Body.Data)
		if err == nil {
			return body
		}
	}

	for _, child := range part.Parts {
		if body := htmlPart(child); body != "" {
			return body
		}
	}

	return ""
}

func decodeBody(data string) (string, error) {
	raw, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(data)
	if err != nil {
		// Some senders pad the url-safe encoding anyway.
		raw, err = base64.URLEncoding.DecodeString(data)
		if err != nil {
			return "", fmt.Errorf("decode message body: %w", err)
		}
	}
	return string(raw), nil
}
