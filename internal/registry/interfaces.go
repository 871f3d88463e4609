package registry

import (
	"context"
	"time"
)

// FetchOutcome is the tri-state result of looking up one file number.
type FetchOutcome int

// Fetch outcomes. Transient failures are reported as errors, not outcomes.
const (
	OutcomeFound FetchOutcome = iota
	OutcomeNotFound
)

// FetchResult carries the payload of a successful lookup. Body is the
// rendered detail page when Outcome is OutcomeFound.
type FetchResult struct {
	Outcome      FetchOutcome
	BusinessName string
	Body         []byte
}

// Fetcher looks up one file number against the remote record service.
// A returned error is treated as transient and retried by the caller.
type Fetcher interface {
	Fetch(ctx context.Context, fileNumber int64) (FetchResult, error)
}

// CheckpointStore persists per-shard resume positions.
type CheckpointStore interface {
	// Load returns the checkpoint for shardID, or ErrNoCheckpoint.
	Load(ctx context.Context, shardID int) (Checkpoint, error)
	// Save durably replaces the checkpoint for cp.ShardID.
	Save(ctx context.Context, cp Checkpoint) error
}

// RecordWriter appends validated records to a shard-local dataset. Append
// must not return until the row is durable.
type RecordWriter interface {
	Append(ctx context.Context, rec *BusinessRecord) error
	Close() error
}

// BlobStore archives raw payloads for offline review and returns a URI.
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
