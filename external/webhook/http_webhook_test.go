package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/utyara3/TimeTracker/internal/webhook"
)

func TestSendTransition_EmptyWebhookURL(t *testing.T) {
	sender := NewHTTPSender("")
	if err := sender.SendTransition(context.Background(), webhook.TransitionPayload{Kind: webhook.KindSwitch}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestSendTransition_Success(t *testing.T) {
	var got map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("unexpected content type: %s", ct)
		}
		if kind := r.Header.Get(eventKindHeader); kind != webhook.KindFix {
			t.Fatalf("unexpected event kind header: %q", kind)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("failed to read body: %v", err)
		}
		if err := sonic.Unmarshal(body, &got); err != nil {
			t.Fatalf("invalid json body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	err := sender.SendTransition(context.Background(), webhook.TransitionPayload{
		Kind:              webhook.KindFix,
		UserID:            42,
		PreviousState:     "work",
		PreviousSessionID: 7,
		ClosedSeconds:     5400,
		NewState:          "study",
		NewTag:            "math",
		NewSessionID:      8,
		At:                time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got["schema_version"] != float64(webhook.TransitionSchemaVersion) {
		t.Fatalf("unexpected schema_version: %v", got["schema_version"])
	}
	if got["kind"] != "fix" || got["new_state"] != "study" || got["closed_seconds"] != float64(5400) {
		t.Fatalf("unexpected payload: %v", got)
	}
	if _, ok := got["previous_tag"]; ok {
		t.Fatalf("empty previous_tag must be omitted: %v", got)
	}
}

func TestSendTransition_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "unknown schema\n")
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	err := sender.SendTransition(context.Background(), webhook.TransitionPayload{Kind: webhook.KindSwitch})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "status 400: unknown schema") {
		t.Fatalf("unexpected error: %v", err)
	}
}
