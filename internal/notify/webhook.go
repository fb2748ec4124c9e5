package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fleetops/premia/backend/pkg/logger"
)

// Webhook POSTs officialization events to an external receiver. Like
// the hub, it is fire-and-forget: failures are logged after retries run
// out, never returned to the closing operation.
type Webhook struct {
	url        string
	httpClient *http.Client
	logger     *logger.Logger
	maxRetries int
	retryDelay time.Duration
}

// NewWebhook creates a webhook poster; an empty URL disables it
func NewWebhook(url string, log *logger.Logger) *Webhook {
	return &Webhook{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:     log,
		maxRetries: 3,
		retryDelay: 2 * time.Second,
	}
}

// Enabled reports whether a receiver is configured
func (w *Webhook) Enabled() bool {
	return w.url != ""
}

// Notify delivers the event in the background
func (w *Webhook) Notify(event Event) {
	if !w.Enabled() {
		return
	}
	go w.deliver(event)
}

func (w *Webhook) deliver(event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		w.logger.WithError(err).Error("Failed to marshal webhook event")
		return
	}

	var lastErr error
	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(w.retryDelay * time.Duration(attempt))
		}

		if lastErr = w.post(body); lastErr == nil {
			return
		}
	}

	w.logger.WithError(lastErr).WithFields(map[string]interface{}{
		"type":   event.Type,
		"period": event.PeriodID,
	}).Error("Webhook delivery failed")
}

func (w *Webhook) post(body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
