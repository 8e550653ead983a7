package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/utyara3/TimeTracker/internal/webhook"
)

const (
	requestTimeout   = 10 * time.Second
	eventKindHeader  = "X-TimeTracker-Event"
	userAgent        = "TimeTracker-Webhook/1"
	maxErrorBodySize = 512
)

// HTTPSender posts transition events as JSON to a single endpoint.
type HTTPSender struct {
	webhookURL string
	client     *http.Client
}

func NewHTTPSender(webhookURL string) webhook.Sender {
	return &HTTPSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: requestTimeout},
	}
}

func (s *HTTPSender) SendTransition(ctx context.Context, payload webhook.TransitionPayload) error {
	if s.webhookURL == "" {
		return nil
	}
	if payload.SchemaVersion == 0 {
		payload.SchemaVersion = webhook.TransitionSchemaVersion
	}

	body, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode transition event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build transition request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(eventKindHeader, payload.Kind)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post transition event: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}
	slog.Debug("transition event delivered", "kind", payload.Kind, "user_id", payload.UserID, "session_id", payload.NewSessionID)
	return nil
}
