// Package dispatcher fans a crawl run out across shard coordinators.
package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mnbizdata/filings-crawler/internal/coordinator"
	"github.com/mnbizdata/filings-crawler/internal/registry"
)

// CoordinatorFactory builds the coordinator for one shard. Each shard gets
// its own writer, so construction is deferred until the shard is known.
type CoordinatorFactory func(shard registry.Shard) (*coordinator.Coordinator, func() error, error)

// Dispatcher runs one coordinator per shard concurrently.
type Dispatcher struct {
	factory CoordinatorFactory
	logger  *zap.Logger
}

// New constructs a Dispatcher.
func New(factory CoordinatorFactory, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{factory: factory, logger: logger}
}

// Run executes all shards and collects their summaries, indexed to match
// the shards slice. The first coordinator error cancels the others; partial
// summaries are still returned so the caller can report progress.
func (d *Dispatcher) Run(ctx context.Context, shards []registry.Shard) ([]coordinator.Summary, error) {
	runID := uuid.NewString()
	logger := d.logger.With(zap.String("run_id", runID))
	logger.Info("Starting crawl run", zap.Int("shards", len(shards)))

	summaries := make([]coordinator.Summary, len(shards))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, shard := range shards {
		g.Go(func() error {
			coord, cleanup, err := d.factory(shard)
			if err != nil {
				return fmt.Errorf("shard %d: %w", shard.ID, err)
			}
			defer func() {
				if err := cleanup(); err != nil {
					logger.Error("Shard cleanup failed", zap.Int("shard_id", shard.ID), zap.Error(err))
				}
			}()

			summary, err := coord.Run(gctx)
			summary.RunID = runID
			mu.Lock()
			summaries[i] = summary
			mu.Unlock()
			if err != nil {
				return fmt.Errorf("shard %d: %w", shard.ID, err)
			}
			return nil
		})
	}

	err := g.Wait()
	logger.Info("Crawl run finished", zap.Bool("clean", err == nil))
	return summaries, err
}
