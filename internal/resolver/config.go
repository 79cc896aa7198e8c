package resolver

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// Config holds the tunables of a Resolver. It is decoupled from viper so the
// core can be built and tested on its own.
type Config struct {
	MarketplaceHost string
	ShortLinkHosts  []string
	RedirectTimeout time.Duration
	MarkupTimeout   time.Duration
	PreviewTimeout  time.Duration
	PreviewDelay    time.Duration
	FallbackTimeout time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MarketplaceHost: "amazon.com",
		ShortLinkHosts:  []string{"amzn.to", "a.co"},
		RedirectTimeout: defaultRedirectTimeout,
		MarkupTimeout:   defaultMarkupTimeout,
		PreviewTimeout:  defaultPreviewTimeout,
		PreviewDelay:    defaultPreviewDelay,
		FallbackTimeout: defaultFallbackTimeout,
	}
}

// Dependencies are the outbound collaborators of a Resolver built from Config.
type Dependencies struct {
	// Pages fetches product pages for every strategy.
	Pages Fetcher
	// Renderer, when set, serves the fallback strategy.
	Renderer Fetcher
	// Promote picks which plainly fetched fallback pages go to Renderer.
	// Nil sends every fallback fetch to Renderer.
	Promote PromoteFunc
	// Redirects follows short links. Required only with short-link hosts.
	Redirects RedirectResolver
	// Sleep overrides the wait between preview identities.
	Sleep  SleepFunc
	Logger *zap.Logger
}

// NewFromConfig wires the normalizer, extractor, scorer and the three
// strategies in their fixed order.
func NewFromConfig(cfg Config, deps Dependencies) (*Resolver, error) {
	if cfg.MarketplaceHost == "" {
		return nil, errors.New("marketplace host is required")
	}
	if deps.Pages == nil {
		return nil, errors.New("page fetcher is required")
	}
	fallback := NewFallbackStrategy(deps.Pages, cfg.FallbackTimeout)
	if deps.Renderer != nil {
		fallback.WithRenderer(deps.Renderer, deps.Promote)
	}

	scorer := NewScorer()
	strategies := []Strategy{
		NewMarkupStrategy(deps.Pages, cfg.MarkupTimeout),
		NewPreviewStrategy(deps.Pages, scorer, PreviewOptions{
			Timeout: cfg.PreviewTimeout,
			Delay:   cfg.PreviewDelay,
			Sleep:   deps.Sleep,
		}),
		fallback,
	}
	return New(
		NewNormalizer(cfg.MarketplaceHost, cfg.ShortLinkHosts, deps.Redirects, cfg.RedirectTimeout),
		NewIdentifierExtractor(),
		scorer,
		strategies,
		deps.Logger,
	), nil
}
