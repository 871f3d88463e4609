// Package ratelimit paces lookups against the record service.
package ratelimit

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/time/rate"

	"github.com/mnbizdata/filings-crawler/internal/telemetry"
)

// Config holds pacing parameters.
type Config struct {
	// BaseDelay is the minimum interval between consecutive requests.
	BaseDelay time.Duration
	// Jitter is the upper bound of the random extra delay added on top of
	// BaseDelay so request timing does not look mechanical.
	Jitter time.Duration
}

// Pacer enforces a lower bound on the interval between requests using a
// token bucket, plus uniform jitter. The bound holds regardless of jitter:
// no two requests are ever admitted less than BaseDelay apart.
type Pacer struct {
	limiter *rate.Limiter
	jitter  time.Duration
}

// New creates a Pacer. A non-positive BaseDelay disables pacing.
func New(cfg Config) *Pacer {
	limit := rate.Inf
	if cfg.BaseDelay > 0 {
		limit = rate.Every(cfg.BaseDelay)
	}
	return &Pacer{
		limiter: rate.NewLimiter(limit, 1),
		jitter:  cfg.Jitter,
	}
}

// Wait blocks until the next request may be issued, respecting the context.
// The jitter sleep runs before the token wait, so every return is a token
// grant and consecutive grants are never less than BaseDelay apart.
func (p *Pacer) Wait(ctx context.Context) error {
	start := time.Now()
	if err := p.sleepJitter(ctx); err != nil {
		return err
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		telemetry.ObservePaceDelay(waited)
	}
	return nil
}

func (p *Pacer) sleepJitter(ctx context.Context) error {
	d := randomJitter(p.jitter)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("jitter wait: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
