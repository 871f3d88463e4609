// Package fetch looks business filings up against the public record portal.
// Lookups are two-step: a cheap HTTP probe of the search page decides
// found-or-not, and only found records pay for a headless render of the
// JavaScript detail page.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Config holds portal endpoints and HTTP settings.
type Config struct {
	// SearchURLTemplate is the search endpoint with one %d verb for the
	// file number.
	SearchURLTemplate string
	UserAgent         string
	RequestTimeout    time.Duration
}

// noResultMarkers are the phrases the portal renders when a file number has
// no filing.
var noResultMarkers = []string{
	"no records found",
	"no results found",
	"your search did not return any results",
}

// probeResult is the outcome of one search-page probe.
type probeResult struct {
	found        bool
	businessName string
	detailURL    string
}

// Probe checks the search page for a file number. The search page is
// server-rendered, so a plain HTTP fetch is enough.
type Probe struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// NewProbe constructs a configured search-page probe.
func NewProbe(cfg Config, logger *zap.Logger) (*Probe, error) {
	if cfg.SearchURLTemplate == "" {
		return nil, errors.New("search URL template is required")
	}
	base := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
	)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          32,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ForceAttemptHTTP2:     true,
	})
	if cfg.RequestTimeout > 0 {
		base.SetRequestTimeout(cfg.RequestTimeout)
	}
	return &Probe{cfg: cfg, baseCollector: base, logger: logger}, nil
}

// Lookup probes the search page for fileNumber. A transport failure or a
// non-200 status is returned as an error so the caller can retry.
func (p *Probe) Lookup(ctx context.Context, fileNumber int64) (probeResult, error) {
	searchURL := fmt.Sprintf(p.cfg.SearchURLTemplate, fileNumber)

	collector := p.baseCollector.Clone()

	var (
		body      []byte
		status    int
		fetchErr  error
		once      sync.Once
		recordErr = func(err error) {
			once.Do(func() { fetchErr = err })
		}
	)

	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte{}, r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		if err == nil {
			err = errors.New("unknown colly error")
		}
		recordErr(err)
	})

	if err := collector.Visit(searchURL); err != nil {
		return probeResult{}, fmt.Errorf("visit search page: %w", err)
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return probeResult{}, err
	}
	if fetchErr != nil {
		return probeResult{}, fmt.Errorf("probe %d: %w", fileNumber, fetchErr)
	}
	if status != http.StatusOK {
		return probeResult{}, fmt.Errorf("probe %d: unexpected status %d", fileNumber, status)
	}

	return p.classify(searchURL, body)
}

// classify decides found-or-not from the search page body and extracts the
// detail link for found records.
func (p *Probe) classify(searchURL string, body []byte) (probeResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return probeResult{}, fmt.Errorf("parse search page: %w", err)
	}

	pageText := strings.ToLower(doc.Text())
	for _, marker := range noResultMarkers {
		if strings.Contains(pageText, marker) {
			return probeResult{found: false}, nil
		}
	}

	link := doc.Find(`a[href*="SearchDetails"]`).First()
	if link.Length() == 0 {
		// Neither a no-results banner nor a detail link. Treat as transient:
		// the portal sometimes serves interstitial pages under load.
		return probeResult{}, errors.New("search page has no result marker")
	}

	href, _ := link.Attr("href")
	detailURL, err := resolveURL(searchURL, href)
	if err != nil {
		return probeResult{}, err
	}
	return probeResult{
		found:        true,
		businessName: strings.TrimSpace(link.Text()),
		detailURL:    detailURL,
	}, nil
}

func resolveURL(base, href string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse detail link: %w", err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}
