package nats

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/bdchat/internal/core/domain"
)

func TestEncodeExchange(t *testing.T) {
	payload, err := encodeExchange(domain.Exchange{
		ID:        "ex-1",
		Question:  "fees?",
		Status:    domain.ExchangeFailed,
		ErrorKind: "upstream",
		Duration:  250 * time.Millisecond,
		CreatedAt: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("encodeExchange() error = %v", err)
	}

	var event map[string]any
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event["status"] != "failed" || event["error_kind"] != "upstream" {
		t.Fatalf("unexpected event: %v", event)
	}
	if event["duration_ms"] != 250.0 || event["created_at"] != "2026-10-18T09:00:00Z" {
		t.Fatalf("unexpected timing fields: %v", event)
	}
	if topics, ok := event["topics"].([]any); !ok || len(topics) != 0 {
		t.Fatalf("expected empty topics array, got %v", event["topics"])
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	err := wrapTemporaryIfNeeded(fmt.Errorf("nats publish: %w", nats.ErrConnectionClosed))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("closed connection should be temporary, got %v", err)
	}

	permanent := errors.New("bad subject")
	if got := wrapTemporaryIfNeeded(permanent); got != permanent {
		t.Fatalf("permanent error must pass through, got %v", got)
	}
	if wrapTemporaryIfNeeded(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}
