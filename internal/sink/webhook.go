package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/hazyhaar/scrapeking/internal/site"
)

// Webhook POSTs each envelope as JSON, retrying with exponential backoff.
type Webhook struct {
	url      string
	client   *http.Client
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

// WebhookOption configures a Webhook.
type WebhookOption func(*Webhook)

// WithWebhookRetries sets how many retries follow the first attempt. Default 3.
func WithWebhookRetries(n int) WebhookOption {
	return func(w *Webhook) {
		if n >= 0 {
			w.attempts = uint(n) + 1
		}
	}
}

// WithWebhookDelay sets the first backoff delay. Default 1s.
func WithWebhookDelay(d time.Duration) WebhookOption {
	return func(w *Webhook) { w.delay = d }
}

// WithWebhookLogger sets the logger.
func WithWebhookLogger(l *slog.Logger) WebhookOption {
	return func(w *Webhook) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithWebhookClient replaces the HTTP client.
func WithWebhookClient(c *http.Client) WebhookOption {
	return func(w *Webhook) { w.client = c }
}

// NewWebhook targets url.
func NewWebhook(url string, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		url:      url,
		client:   &http.Client{Timeout: 10 * time.Second},
		attempts: 4,
		delay:    time.Second,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

func (w *Webhook) SendPage(ctx context.Context, rec *site.PageRecord) error {
	return w.post(ctx, "page", rec)
}

func (w *Webhook) SendTerms(ctx context.Context, list TermList) error {
	return w.post(ctx, "terms", list)
}

func (w *Webhook) Close() error { return nil }

// statusError is a non-2xx answer. 4xx answers are not retried.
type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("webhook: status %d", e.code) }

func (w *Webhook) post(ctx context.Context, typ string, data any) error {
	body, err := json.Marshal(envelope{Type: typ, Data: data})
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("webhook: new request: %w", err))
			}
			req.Header.Set("Content-Type", "application/json")
			resp, err := w.client.Do(req)
			if err != nil {
				return err
			}
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			serr := &statusError{code: resp.StatusCode}
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return retry.Unrecoverable(serr)
			}
			return serr
		},
		retry.Context(ctx),
		retry.Attempts(w.attempts),
		retry.Delay(w.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			w.logger.Warn("webhook: attempt failed", "type", typ, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("webhook: deliver %s: %w", typ, err)
	}
	return nil
}
