package fetch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mnbizdata/filings-crawler/internal/registry"
)

// Portal implements registry.Fetcher against the public record portal.
type Portal struct {
	probe    *Probe
	renderer Renderer
	logger   *zap.Logger
}

// NewPortal composes a search-page probe with a detail-page renderer.
func NewPortal(probe *Probe, renderer Renderer, logger *zap.Logger) *Portal {
	return &Portal{probe: probe, renderer: renderer, logger: logger}
}

// Fetch looks up one file number. A definitive no-results page comes back
// as OutcomeNotFound; transport failures, bad statuses and render failures
// come back as errors for the caller's retry policy.
func (p *Portal) Fetch(ctx context.Context, fileNumber int64) (registry.FetchResult, error) {
	probed, err := p.probe.Lookup(ctx, fileNumber)
	if err != nil {
		return registry.FetchResult{}, err
	}
	if !probed.found {
		return registry.FetchResult{Outcome: registry.OutcomeNotFound}, nil
	}

	body, err := p.renderer.Render(ctx, probed.detailURL)
	if err != nil {
		return registry.FetchResult{}, fmt.Errorf("render detail page for %d: %w", fileNumber, err)
	}

	p.logger.Debug("Fetched detail page",
		zap.Int64("file_number", fileNumber),
		zap.String("business_name", probed.businessName),
		zap.Int("body_bytes", len(body)),
	)
	return registry.FetchResult{
		Outcome:      registry.OutcomeFound,
		BusinessName: probed.businessName,
		Body:         body,
	}, nil
}

// Close releases the renderer's browser resources.
func (p *Portal) Close() error {
	if p.renderer == nil {
		return nil
	}
	return p.renderer.Close()
}
