package resolver

import (
	"context"
	"fmt"
	"time"
)

const (
	// StrategyFallback is the name of the last-resort strategy.
	StrategyFallback = "fallback"

	defaultFallbackTimeout = 20 * time.Second
)

// PromoteFunc reports whether a plainly fetched page must be rendered
// before it is parsed.
type PromoteFunc func(FetchResponse) bool

// FallbackStrategy performs a browser-identity fetch and accepts whatever
// the page offers. Pages without a description get the readable excerpt of
// their main content. With a renderer attached, pages that fail to fetch or
// that the promote func flags are fetched again through the renderer.
type FallbackStrategy struct {
	fetcher  Fetcher
	renderer Fetcher
	promote  PromoteFunc
	identity ClientIdentity
	timeout  time.Duration
}

// NewFallbackStrategy builds the fallback strategy.
func NewFallbackStrategy(fetcher Fetcher, timeout time.Duration) *FallbackStrategy {
	if timeout <= 0 {
		timeout = defaultFallbackTimeout
	}
	return &FallbackStrategy{
		fetcher:  fetcher,
		identity: BrowserIdentity,
		timeout:  timeout,
	}
}

// WithRenderer attaches a rendering fetcher. A nil promote func sends every
// page straight to the renderer.
func (s *FallbackStrategy) WithRenderer(renderer Fetcher, promote PromoteFunc) *FallbackStrategy {
	s.renderer = renderer
	s.promote = promote
	return s
}

// Name implements Strategy.
func (s *FallbackStrategy) Name() string { return StrategyFallback }

// Fetch implements Strategy. It fails only when the page cannot be retrieved.
func (s *FallbackStrategy) Fetch(ctx context.Context, pageURL string) (MetadataCandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.fetch(ctx, FetchRequest{
		URL:     pageURL,
		Headers: s.identity.Headers(),
		Timeout: s.timeout,
	})
	if err != nil {
		return MetadataCandidate{}, fmt.Errorf("fetch page: %w", err)
	}
	tags, err := parsePage(resp.Body, resp.URL, parseOptions{documentTitle: true, inlineImages: true})
	if err != nil {
		return MetadataCandidate{}, err
	}
	if tags.description == "" {
		tags.description = readableExcerpt(resp.Body, resp.URL)
	}
	return MetadataCandidate{
		Title:       tags.title,
		Description: tags.description,
		Images:      tags.images,
	}, nil
}

func (s *FallbackStrategy) fetch(ctx context.Context, req FetchRequest) (FetchResponse, error) {
	if s.renderer == nil {
		return s.fetcher.Fetch(ctx, req)
	}
	if s.promote == nil {
		return s.renderer.Fetch(ctx, req)
	}
	plain, err := s.fetcher.Fetch(ctx, req)
	if err == nil && !s.promote(plain) {
		return plain, nil
	}
	rendered, renderErr := s.renderer.Fetch(ctx, req)
	switch {
	case renderErr == nil:
		return rendered, nil
	case err == nil:
		return plain, nil
	default:
		return FetchResponse{}, fmt.Errorf("render: %w (plain fetch: %w)", renderErr, err)
	}
}
