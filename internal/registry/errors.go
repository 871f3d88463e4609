package registry

import "errors"

// Sentinel errors shared across subsystems. Callers classify with errors.Is.
var (
	// ErrConfig marks invalid run configuration (bad shard range, worker
	// count, and similar). It aborts the run immediately.
	ErrConfig = errors.New("invalid configuration")

	// ErrParseMismatch marks a fetched payload whose shape is not
	// recognized. It is a soft failure: the id is skipped, never fatal.
	ErrParseMismatch = errors.New("payload shape not recognized")

	// ErrInvalidRecord marks a record that violates its type variant.
	ErrInvalidRecord = errors.New("invalid business record")

	// ErrNoCheckpoint signals that no checkpoint exists for a shard.
	ErrNoCheckpoint = errors.New("no checkpoint for shard")
)
