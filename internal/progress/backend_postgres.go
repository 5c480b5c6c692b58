package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createProgressTable = `CREATE TABLE IF NOT EXISTS progress_records (
	slot       TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresBackend stores the slot as one row of progress_records.
type PostgresBackend struct {
	pool *pgxpool.Pool
	slot string
}

// NewPostgresBackend creates the progress_records table if needed and
// returns a backend for slot.
func NewPostgresBackend(ctx context.Context, pool *pgxpool.Pool, slot string) (*PostgresBackend, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	if slot == "" {
		return nil, fmt.Errorf("slot is required")
	}

	ctx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()

	if _, err := pool.Exec(ctx, createProgressTable); err != nil {
		return nil, fmt.Errorf("create progress_records: %w", err)
	}
	return &PostgresBackend{pool: pool, slot: slot}, nil
}

func (b *PostgresBackend) Read(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()

	var payload string
	err := b.pool.QueryRow(ctx,
		`SELECT payload::text FROM progress_records WHERE slot = $1`,
		b.slot,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("select progress record: %w", err)
	}
	return []byte(payload), nil
}

func (b *PostgresBackend) Write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()

	_, err := b.pool.Exec(ctx,
		`INSERT INTO progress_records (slot, payload, updated_at)
		 VALUES ($1, $2::jsonb, NOW())
		 ON CONFLICT (slot) DO UPDATE
		 SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		b.slot,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("upsert progress record: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Delete(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()

	if _, err := b.pool.Exec(ctx, `DELETE FROM progress_records WHERE slot = $1`, b.slot); err != nil {
		return fmt.Errorf("delete progress record: %w", err)
	}
	return nil
}
