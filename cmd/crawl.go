package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mnbizdata/filings-crawler/internal/archive/local"
	"github.com/mnbizdata/filings-crawler/internal/checkpoint"
	systemclock "github.com/mnbizdata/filings-crawler/internal/clock/system"
	"github.com/mnbizdata/filings-crawler/internal/config"
	"github.com/mnbizdata/filings-crawler/internal/coordinator"
	"github.com/mnbizdata/filings-crawler/internal/dispatcher"
	"github.com/mnbizdata/filings-crawler/internal/fetch"
	"github.com/mnbizdata/filings-crawler/internal/output"
	"github.com/mnbizdata/filings-crawler/internal/parser"
	"github.com/mnbizdata/filings-crawler/internal/partition"
	"github.com/mnbizdata/filings-crawler/internal/policy/ratelimit"
	"github.com/mnbizdata/filings-crawler/internal/registry"
	"github.com/mnbizdata/filings-crawler/internal/status"
)

func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Starts a sharded crawl of the configured file-number range",
		Long: `Splits the configured file-number range into one shard per worker and
walks each shard concurrently. Every shard checkpoints its position after
each processed number, so an interrupted crawl resumes where it stopped.`,
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shards, err := partition.Split(cfg.Crawler.StartID, cfg.Crawler.EndID, cfg.Crawler.Workers)
	if err != nil {
		return err
	}

	checkpoints, closeCheckpoints, err := buildCheckpointStore(ctx, cfg.Checkpoint)
	if err != nil {
		return err
	}
	defer closeCheckpoints()

	archiveStore, err := local.New(cfg.Output.ArchiveDir)
	if err != nil {
		return fmt.Errorf("init archive: %w", err)
	}

	probe, err := fetch.NewProbe(fetch.Config{
		SearchURLTemplate: cfg.Crawler.SearchURLTemplate,
		UserAgent:         cfg.Crawler.UserAgent,
		RequestTimeout:    cfg.Crawler.FetchTimeout(),
	}, logger)
	if err != nil {
		return fmt.Errorf("init probe: %w", err)
	}
	renderer, err := fetch.NewChromedpRenderer(cfg.Crawler.UserAgent, cfg.Crawler.FetchTimeout(), logger)
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}
	portal := fetch.NewPortal(probe, renderer, logger)
	defer func() {
		if cerr := portal.Close(); cerr != nil {
			logger.Warn("Failed to close portal fetcher", zap.Error(cerr))
		}
	}()

	if cfg.Metrics.Enabled {
		statusSrv := status.New(cfg.Metrics.Port, logger)
		statusSrv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if serr := statusSrv.Shutdown(shutdownCtx); serr != nil {
				logger.Warn("Status server shutdown failed", zap.Error(serr))
			}
		}()
	}

	recordParser := parser.New(systemclock.New())
	coordCfg := coordinator.Config{
		MaxConsecutiveMisses:      cfg.Crawler.MaxConsecutiveMisses,
		FetchTimeout:              cfg.Crawler.FetchTimeout(),
		MismatchCountsTowardAbort: cfg.Crawler.MismatchCountsTowardAbort,
		Resume:                    cfg.Crawler.Resume,
	}

	factory := func(shard registry.Shard) (*coordinator.Coordinator, func() error, error) {
		writer, err := output.NewCSVWriter(filepath.Join(cfg.Output.Dir, output.ShardFileName(shard.ID)))
		if err != nil {
			return nil, nil, err
		}
		pacer := ratelimit.New(ratelimit.Config{
			BaseDelay: cfg.Crawler.BaseDelay(),
			Jitter:    cfg.Crawler.DelayJitter(),
		})
		retry := coordinator.NewExponentialRetryPolicy(
			cfg.Retry.MaxAttempts,
			cfg.Retry.BackoffInitial(),
			cfg.Retry.BackoffMax(),
		)
		coord := coordinator.New(
			shard, coordCfg, portal, recordParser, writer,
			checkpoints, archiveStore, pacer, retry, logger,
		)
		return coord, writer.Close, nil
	}

	summaries, err := dispatcher.New(factory, logger).Run(ctx, shards)
	printCrawlSummary(summaries)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("crawl run: %w", err)
	}
	return nil
}

func buildCheckpointStore(ctx context.Context, cc config.CheckpointConfig) (registry.CheckpointStore, func(), error) {
	switch cc.Backend {
	case config.CheckpointBackendPostgres:
		store, err := checkpoint.NewPostgresStore(ctx, cc.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres checkpoints: %w", err)
		}
		return store, store.Close, nil
	default:
		store, err := checkpoint.NewFileStore(cc.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("init file checkpoints: %w", err)
		}
		return store, func() {}, nil
	}
}

func printCrawlSummary(summaries []coordinator.Summary) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	bold.Println("\nShard summary")
	var found, missed, skipped int64
	for _, s := range summaries {
		line := fmt.Sprintf("  shard %d: state=%s processed=%d found=%d missed=%d skipped=%d last_id=%d",
			s.ShardID, s.State, s.Processed, s.Found, s.Missed, s.Skipped, s.LastProcessedID)
		if s.State == coordinator.StateDone {
			green.Println(line)
		} else {
			yellow.Println(line)
		}
		found += s.Found
		missed += s.Missed
		skipped += s.Skipped
	}
	bold.Printf("Total: found=%d missed=%d skipped=%d\n", found, missed, skipped)
}
