package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// WebhookNotifier posts alerts as JSON to a chat-style incoming webhook.
type WebhookNotifier struct {
	url    string
	http   *http.Client
	logger zerolog.Logger
}

func NewWebhookNotifier(url string, logger zerolog.Logger) (*WebhookNotifier, error) {
	if url == "" {
		return nil, errors.New("alert webhook url is empty")
	}
	return &WebhookNotifier{
		url:    url,
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}, nil
}

func (n *WebhookNotifier) Send(ctx context.Context, title, body string) error {
	payload, err := json.Marshal(map[string]string{
		"title": title,
		"text":  body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("alert webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}

	n.logger.Debug().Str("title", title).Msg("alert delivered")
	return nil
}
