package coordinator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExponentialRetryPolicyShouldRetry(t *testing.T) {
	t.Parallel()

	p := NewExponentialRetryPolicy(3, 10*time.Millisecond, 100*time.Millisecond)

	require.False(t, p.ShouldRetry(nil, 1))
	require.True(t, p.ShouldRetry(errors.New("boom"), 1))
	require.True(t, p.ShouldRetry(errors.New("boom"), 2))
	require.False(t, p.ShouldRetry(errors.New("boom"), 3), "attempts are capped")
	require.False(t, p.ShouldRetry(context.Canceled, 1))
	require.True(t, p.ShouldRetry(context.DeadlineExceeded, 1),
		"an attempt deadline is a timeout like any other")
	require.True(t, p.ShouldRetry(fmt.Errorf("fetch: %w", context.DeadlineExceeded), 1))
}

func TestExponentialRetryPolicyBackoffIsBoundedAndGrowing(t *testing.T) {
	t.Parallel()

	base := 10 * time.Millisecond
	ceiling := 80 * time.Millisecond
	p := NewExponentialRetryPolicy(5, base, ceiling)

	for attempt := 0; attempt < 10; attempt++ {
		d := p.Backoff(attempt)
		require.Greater(t, d, time.Duration(0))
		require.LessOrEqual(t, d, ceiling)
	}

	// The deterministic half of the delay doubles until it hits the ceiling.
	require.GreaterOrEqual(t, p.Backoff(3), 40*time.Millisecond)
}

func TestNewExponentialRetryPolicyDefaults(t *testing.T) {
	t.Parallel()

	p := NewExponentialRetryPolicy(0, 0, 0)
	require.True(t, p.ShouldRetry(errors.New("boom"), 1))
	require.False(t, p.ShouldRetry(errors.New("boom"), 3))
	require.Greater(t, p.Backoff(0), time.Duration(0))
}
