// Package coordinator drives one shard of the identifier range through the
// fetch, parse and record pipeline, checkpointing after every processed id.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mnbizdata/filings-crawler/internal/parser"
	"github.com/mnbizdata/filings-crawler/internal/policy/ratelimit"
	"github.com/mnbizdata/filings-crawler/internal/registry"
	"github.com/mnbizdata/filings-crawler/internal/telemetry"
)

// State describes where a shard coordinator is in its lifecycle.
type State string

// Coordinator states. Done and Aborted are terminal.
const (
	StateInit      State = "init"
	StateFetching  State = "fetching"
	StateParsing   State = "parsing"
	StateRecording State = "recording"
	StateMiss      State = "miss"
	StateDone      State = "done"
	StateAborted   State = "aborted"
)

// Config holds per-shard processing settings.
type Config struct {
	// MaxConsecutiveMisses aborts the shard when this many lookups in a row
	// come back not-found.
	MaxConsecutiveMisses int
	// FetchTimeout bounds each individual fetch attempt.
	FetchTimeout time.Duration
	// MismatchCountsTowardAbort makes unparseable payloads advance the miss
	// streak. Off by default: a run of odd pages should not kill a shard
	// that is still finding records.
	MismatchCountsTowardAbort bool
	// Resume picks up from a saved checkpoint instead of the shard start.
	Resume bool
	// ProgressLogInterval emits a progress line every N processed ids.
	ProgressLogInterval int64
}

// Summary reports what one shard coordinator accomplished.
type Summary struct {
	RunID           string
	ShardID         int
	Processed       int64
	Found           int64
	Missed          int64
	Skipped         int64
	LastProcessedID int64
	State           State
}

// Coordinator processes the ids of a single shard sequentially.
type Coordinator struct {
	shard       registry.Shard
	cfg         Config
	fetcher     registry.Fetcher
	parser      *parser.Parser
	writer      registry.RecordWriter
	checkpoints registry.CheckpointStore
	archive     registry.BlobStore
	pacer       *ratelimit.Pacer
	retry       RetryPolicy
	logger      *zap.Logger

	state State
}

// New wires a coordinator for one shard.
func New(
	shard registry.Shard,
	cfg Config,
	fetcher registry.Fetcher,
	p *parser.Parser,
	writer registry.RecordWriter,
	checkpoints registry.CheckpointStore,
	archive registry.BlobStore,
	pacer *ratelimit.Pacer,
	retry RetryPolicy,
	logger *zap.Logger,
) *Coordinator {
	if cfg.MaxConsecutiveMisses <= 0 {
		cfg.MaxConsecutiveMisses = 100
	}
	if cfg.ProgressLogInterval <= 0 {
		cfg.ProgressLogInterval = 10
	}
	return &Coordinator{
		shard:       shard,
		cfg:         cfg,
		fetcher:     fetcher,
		parser:      p,
		writer:      writer,
		checkpoints: checkpoints,
		archive:     archive,
		pacer:       pacer,
		retry:       retry,
		logger:      logger.With(zap.Int("shard_id", shard.ID)),
	}
}

// State returns the coordinator's current lifecycle state.
func (c *Coordinator) State() State {
	return c.state
}

// Run walks the shard's id range. It returns a summary even on error so the
// dispatcher can report partial progress. An aborted shard is not an error:
// hitting the miss streak limit is the normal way to find the end of the
// allocated id space.
func (c *Coordinator) Run(ctx context.Context) (Summary, error) {
	c.state = StateInit
	summary := Summary{ShardID: c.shard.ID, State: StateInit}

	start := c.shard.Start
	misses := 0
	if c.cfg.Resume {
		cp, err := c.checkpoints.Load(ctx, c.shard.ID)
		switch {
		case err == nil:
			start = cp.LastProcessedID + 1
			misses = cp.ConsecutiveMisses
			c.logger.Info("Resuming from checkpoint",
				zap.Int64("last_processed_id", cp.LastProcessedID),
				zap.Int("consecutive_misses", misses),
			)
		case errors.Is(err, registry.ErrNoCheckpoint):
			c.logger.Info("No checkpoint found, starting fresh", zap.Int64("start", start))
		default:
			summary.State = StateAborted
			return summary, fmt.Errorf("load checkpoint: %w", err)
		}
	}

	telemetry.IncActiveShards()
	defer telemetry.DecActiveShards()
	defer func() {
		telemetry.ObserveShardFinished(string(summary.State))
	}()

	for id := start; id <= c.shard.End; id++ {
		if err := c.pacer.Wait(ctx); err != nil {
			summary.State = StateAborted
			c.state = StateAborted
			return summary, err
		}

		c.state = StateFetching
		res, err := c.fetchWithRetry(ctx, id)
		if err != nil && ctx.Err() != nil {
			summary.State = StateAborted
			c.state = StateAborted
			return summary, fmt.Errorf("fetch %d: %w", id, ctx.Err())
		}
		summary.Processed++
		summary.LastProcessedID = id

		switch {
		case err != nil:
			// Retries exhausted. Count it as a miss so a dead upstream
			// eventually aborts the shard instead of spinning forever.
			c.state = StateMiss
			misses++
			summary.Missed++
			c.logger.Warn("Fetch failed after retries, counting as miss",
				zap.Int64("file_number", id), zap.Error(err))
			telemetry.ObserveLookup("error")
		case res.Outcome == registry.OutcomeFound:
			wrote, err := c.handleFound(ctx, id, res, &misses, &summary)
			if err != nil {
				summary.State = StateAborted
				c.state = StateAborted
				return summary, err
			}
			if wrote {
				misses = 0
			}
		default:
			c.state = StateMiss
			misses++
			summary.Missed++
			telemetry.ObserveLookup("miss")
		}

		if err := c.saveCheckpoint(ctx, id, misses); err != nil {
			summary.State = StateAborted
			c.state = StateAborted
			return summary, err
		}

		if summary.Processed%c.cfg.ProgressLogInterval == 0 {
			c.logger.Info("Progress",
				zap.Int64("file_number", id),
				zap.Int64("processed", summary.Processed),
				zap.Int64("found", summary.Found),
				zap.Int64("missed", summary.Missed),
				zap.Int64("skipped", summary.Skipped),
			)
		}

		if misses >= c.cfg.MaxConsecutiveMisses {
			c.logger.Info("Miss streak limit reached, stopping shard",
				zap.Int64("file_number", id),
				zap.Int("consecutive_misses", misses),
			)
			summary.State = StateAborted
			c.state = StateAborted
			return summary, nil
		}
	}

	summary.State = StateDone
	c.state = StateDone
	c.logger.Info("Shard complete",
		zap.Int64("processed", summary.Processed),
		zap.Int64("found", summary.Found),
	)
	return summary, nil
}

// handleFound parses and durably records a found payload. It reports whether
// a record was written; a parse mismatch is skipped, not written.
func (c *Coordinator) handleFound(ctx context.Context, id int64, res registry.FetchResult, misses *int, summary *Summary) (bool, error) {
	c.state = StateParsing
	rec, err := c.parser.Parse(id, res.BusinessName, res.Body)
	if err != nil {
		if !errors.Is(err, registry.ErrParseMismatch) {
			return false, fmt.Errorf("parse %d: %w", id, err)
		}
		summary.Skipped++
		telemetry.ObserveLookup("skip")
		uri := c.archivePayload(ctx, id, res.Body)
		c.logger.Warn("Unrecognized payload, skipping",
			zap.Int64("file_number", id),
			zap.String("payload_uri", uri),
			zap.Error(err),
		)
		if c.cfg.MismatchCountsTowardAbort {
			*misses++
		}
		return false, nil
	}

	c.state = StateRecording
	if err := c.writer.Append(ctx, rec); err != nil {
		return false, fmt.Errorf("record %d: %w", id, err)
	}
	summary.Found++
	telemetry.ObserveLookup("found")
	telemetry.ObserveRecordWritten()
	return true, nil
}

// saveCheckpoint runs after the record (if any) is durable, so a restart can
// never skip an unwritten id.
func (c *Coordinator) saveCheckpoint(ctx context.Context, id int64, misses int) error {
	cp := registry.Checkpoint{
		ShardID:           c.shard.ID,
		LastProcessedID:   id,
		ConsecutiveMisses: misses,
		UpdatedAt:         time.Now().UTC(),
	}
	if err := c.checkpoints.Save(ctx, cp); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (c *Coordinator) fetchWithRetry(ctx context.Context, id int64) (registry.FetchResult, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		res, err := c.fetchOnce(ctx, id)
		if err == nil {
			return res, nil
		}
		lastErr = err
		// Attempt deadlines are retryable; only the run's own context ends
		// the loop early.
		if ctx.Err() != nil {
			return registry.FetchResult{}, ctx.Err()
		}
		if !c.retry.ShouldRetry(err, attempt+1) {
			return registry.FetchResult{}, lastErr
		}
		telemetry.ObserveRetry()
		c.logger.Debug("Retrying fetch",
			zap.Int64("file_number", id),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		timer := time.NewTimer(c.retry.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return registry.FetchResult{}, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Coordinator) fetchOnce(ctx context.Context, id int64) (registry.FetchResult, error) {
	if c.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.FetchTimeout)
		defer cancel()
	}
	return c.fetcher.Fetch(ctx, id)
}

// archivePayload stores the raw payload for offline review. Failure to
// archive is logged but never stops the crawl.
func (c *Coordinator) archivePayload(ctx context.Context, id int64, body []byte) string {
	if c.archive == nil {
		return ""
	}
	path := fmt.Sprintf("mismatches/%d.html", id)
	uri, err := c.archive.Put(ctx, path, body)
	if err != nil {
		c.logger.Warn("Failed to archive payload", zap.Int64("file_number", id), zap.Error(err))
		return ""
	}
	return uri
}
