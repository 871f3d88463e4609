// Package checkpoint persists per-shard resume positions.
package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mnbizdata/filings-crawler/internal/registry"
)

// FileStore keeps one JSON document per shard under a base directory.
// Writes go through a temp file plus rename so a crash mid-write can never
// leave a torn checkpoint behind.
type FileStore struct {
	dir string
}

// NewFileStore creates the base directory if needed and returns the store.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("checkpoint directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create checkpoint directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Load reads the checkpoint for shardID, or registry.ErrNoCheckpoint.
func (s *FileStore) Load(_ context.Context, shardID int) (registry.Checkpoint, error) {
	data, err := os.ReadFile(s.path(shardID))
	if err != nil {
		if os.IsNotExist(err) {
			return registry.Checkpoint{}, registry.ErrNoCheckpoint
		}
		return registry.Checkpoint{}, fmt.Errorf("read checkpoint: %w", err)
	}
	var cp registry.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return registry.Checkpoint{}, fmt.Errorf("decode checkpoint: %w", err)
	}
	return cp, nil
}

// Save durably replaces the checkpoint for cp.ShardID.
func (s *FileStore) Save(_ context.Context, cp registry.Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	final := s.path(cp.ShardID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

func (s *FileStore) path(shardID int) string {
	return filepath.Join(s.dir, fmt.Sprintf("progress_worker_%d.json", shardID))
}
