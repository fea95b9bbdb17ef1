package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/bdchat/internal/core/domain"
)

// ExchangeRepository keeps an append-only log of chat exchanges.
type ExchangeRepository struct {
	db *sql.DB
}

func NewExchangeRepository(db *sql.DB) *ExchangeRepository {
	return &ExchangeRepository{db: db}
}

func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ExchangeRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across replicas starting together.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS chat_exchanges (
	id TEXT PRIMARY KEY,
	question TEXT NOT NULL,
	topics JSONB NOT NULL DEFAULT '[]'::jsonb,
	status TEXT NOT NULL,
	error_kind TEXT,
	duration_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_exchanges_created_at ON chat_exchanges(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_chat_exchanges_status ON chat_exchanges(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ExchangeRepository) RecordExchange(ctx context.Context, exchange domain.Exchange) error {
	topics := exchange.Topics
	if topics == nil {
		topics = []string{}
	}
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("marshal exchange topics: %w", err)
	}

	var errorKind sql.NullString
	if exchange.ErrorKind != "" {
		errorKind = sql.NullString{String: exchange.ErrorKind, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO chat_exchanges (id, question, topics, status, error_kind, duration_ms, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO NOTHING
`,
		exchange.ID,
		exchange.Question,
		topicsJSON,
		string(exchange.Status),
		errorKind,
		float64(exchange.Duration.Microseconds())/1000.0,
		exchange.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record exchange %s: %w", exchange.ID, err)
	}
	return nil
}

// CountByStatus reports how many exchanges ended in each status.
func (r *ExchangeRepository) CountByStatus(ctx context.Context) (map[domain.ExchangeStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM chat_exchanges GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count exchanges: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.ExchangeStatus]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan exchange count: %w", err)
		}
		out[domain.ExchangeStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchange counts: %w", err)
	}
	return out, nil
}
