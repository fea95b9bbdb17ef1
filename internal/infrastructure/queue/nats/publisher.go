package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/bdchat/internal/core/domain"
	"github.com/kirillkom/bdchat/internal/infrastructure/resilience"
)

// Publisher emits one message per finished chat exchange.
type Publisher struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

type Options struct {
	ConnectTimeout     time.Duration
	ReconnectWait      time.Duration
	MaxReconnects      int
	ResilienceExecutor *resilience.Executor
}

func New(url, subject string, options Options) (*Publisher, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}

	conn, err := nats.Connect(
		url,
		nats.Name("bdchat"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Publisher{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
	}, nil
}

func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.FlushTimeout(2 * time.Second); err != nil {
		slog.Warn("nats_flush_on_close_failed", "error", err)
	}
	p.conn.Close()
}

func (p *Publisher) RecordExchange(ctx context.Context, exchange domain.Exchange) error {
	payload, err := encodeExchange(exchange)
	if err != nil {
		return err
	}

	call := func(_ context.Context) error {
		if err := p.conn.Publish(p.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if p.executor != nil {
		err = p.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(err)
}

type exchangeEvent struct {
	ID         string   `json:"id"`
	Question   string   `json:"question"`
	Topics     []string `json:"topics"`
	Status     string   `json:"status"`
	ErrorKind  string   `json:"error_kind,omitempty"`
	DurationMS float64  `json:"duration_ms"`
	CreatedAt  string   `json:"created_at"`
}

func encodeExchange(exchange domain.Exchange) ([]byte, error) {
	topics := exchange.Topics
	if topics == nil {
		topics = []string{}
	}
	payload, err := json.Marshal(exchangeEvent{
		ID:         exchange.ID,
		Question:   exchange.Question,
		Topics:     topics,
		Status:     string(exchange.Status),
		ErrorKind:  exchange.ErrorKind,
		DurationMS: float64(exchange.Duration.Microseconds()) / 1000.0,
		CreatedAt:  exchange.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("encode exchange event: %w", err)
	}
	return payload, nil
}
