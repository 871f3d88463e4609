package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mnbizdata/filings-crawler/internal/registry"
)

// pgxQuerier is the subset of pgxpool.Pool the store needs; the mock pool
// used in tests satisfies it as well.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps shard checkpoints in a shared Postgres table, which
// lets shards of one crawl run on separate machines.
type PostgresStore struct {
	pool  pgxQuerier
	close func()
}

// NewPostgresStore connects a pool and ensures the checkpoint table exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	s := &PostgresStore{pool: pool, close: pool.Close}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreWithPool wires an existing pool (or mock) without running
// schema setup.
func NewPostgresStoreWithPool(pool pgxQuerier) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() {
	if s.close != nil {
		s.close()
	}
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS shard_checkpoints (
			shard_id           INT PRIMARY KEY,
			last_processed_id  BIGINT NOT NULL,
			consecutive_misses INT NOT NULL,
			updated_at         TIMESTAMPTZ NOT NULL
		);
	`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure checkpoint schema: %w", err)
	}
	return nil
}

// Load reads the checkpoint for shardID, or registry.ErrNoCheckpoint.
func (s *PostgresStore) Load(ctx context.Context, shardID int) (registry.Checkpoint, error) {
	query := `
		SELECT shard_id, last_processed_id, consecutive_misses, updated_at
		FROM shard_checkpoints
		WHERE shard_id = $1;
	`
	var cp registry.Checkpoint
	err := s.pool.QueryRow(ctx, query, shardID).
		Scan(&cp.ShardID, &cp.LastProcessedID, &cp.ConsecutiveMisses, &cp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return registry.Checkpoint{}, registry.ErrNoCheckpoint
	}
	if err != nil {
		return registry.Checkpoint{}, fmt.Errorf("load checkpoint: %w", err)
	}
	return cp, nil
}

// Save upserts the checkpoint for cp.ShardID.
func (s *PostgresStore) Save(ctx context.Context, cp registry.Checkpoint) error {
	query := `
		INSERT INTO shard_checkpoints (shard_id, last_processed_id, consecutive_misses, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (shard_id) DO UPDATE
		SET last_processed_id = EXCLUDED.last_processed_id,
		    consecutive_misses = EXCLUDED.consecutive_misses,
		    updated_at = EXCLUDED.updated_at;
	`
	if _, err := s.pool.Exec(ctx, query, cp.ShardID, cp.LastProcessedID, cp.ConsecutiveMisses, cp.UpdatedAt); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}
