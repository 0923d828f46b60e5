package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, connStr string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

const schema = `
	CREATE TABLE IF NOT EXISTS ai_logs (
		id                UUID PRIMARY KEY,
		agent_name        TEXT NOT NULL,
		task_id           TEXT,
		status            TEXT NOT NULL,
		summary           TEXT,
		related_entity_id TEXT,
		details           JSONB,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS ai_logs_agent_created_idx ON ai_logs (agent_name, created_at DESC);
	CREATE INDEX IF NOT EXISTS ai_logs_created_idx ON ai_logs (created_at DESC);
`

// Migrate создаёт таблицы, если их ещё нет. Повторный вызов безопасен.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
