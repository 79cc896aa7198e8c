package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// StrategyPreview is the name of the client-identity rotation strategy.
	StrategyPreview = "preview"

	defaultPreviewTimeout = 8 * time.Second
	defaultPreviewDelay   = 500 * time.Millisecond
)

var (
	errPreviewIncomplete = errors.New("preview metadata missing title or usable image")
	errNoIdentities      = errors.New("no client identities configured")
)

// PreviewOptions tunes the preview strategy. A nil Identities, zero Timeout
// or nil Sleep uses the default.
type PreviewOptions struct {
	Identities []ClientIdentity
	// Timeout bounds each identity's attempt.
	Timeout time.Duration
	// Delay is waited between identities, never before the first.
	Delay time.Duration
	Sleep SleepFunc
}

// PreviewStrategy fetches the page under a rotation of client identities and
// parses generic preview metadata. It stops at the first identity that yields
// a title and at least one usable image.
type PreviewStrategy struct {
	fetcher    Fetcher
	scorer     *Scorer
	identities []ClientIdentity
	timeout    time.Duration
	delay      time.Duration
	sleep      SleepFunc
}

// NewPreviewStrategy builds the preview strategy.
func NewPreviewStrategy(fetcher Fetcher, scorer *Scorer, opts PreviewOptions) *PreviewStrategy {
	if opts.Identities == nil {
		opts.Identities = DefaultPreviewIdentities()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultPreviewTimeout
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.Sleep == nil {
		opts.Sleep = ContextSleep
	}
	if scorer == nil {
		scorer = NewScorer()
	}
	return &PreviewStrategy{
		fetcher:    fetcher,
		scorer:     scorer,
		identities: opts.Identities,
		timeout:    opts.Timeout,
		delay:      opts.Delay,
		sleep:      opts.Sleep,
	}
}

// Name implements Strategy.
func (s *PreviewStrategy) Name() string { return StrategyPreview }

// Fetch implements Strategy. When no identity is satisfactory the reason from
// the last identity is returned.
func (s *PreviewStrategy) Fetch(ctx context.Context, pageURL string) (MetadataCandidate, error) {
	lastErr := errNoIdentities
	for i, identity := range s.identities {
		if i > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				return MetadataCandidate{}, fmt.Errorf("wait before identity %s: %w", identity.Name, err)
			}
		}
		candidate, err := s.attempt(ctx, pageURL, identity)
		if err != nil {
			lastErr = fmt.Errorf("identity %s: %w", identity.Name, err)
			continue
		}
		if candidate.Title != "" && len(candidate.Images) > 0 {
			return candidate, nil
		}
		lastErr = fmt.Errorf("identity %s: %w", identity.Name, errPreviewIncomplete)
	}
	return MetadataCandidate{}, lastErr
}

func (s *PreviewStrategy) attempt(ctx context.Context, pageURL string, identity ClientIdentity) (MetadataCandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.fetcher.Fetch(ctx, FetchRequest{
		URL:     pageURL,
		Headers: identity.Headers(),
		Timeout: s.timeout,
	})
	if err != nil {
		return MetadataCandidate{}, err
	}
	tags, err := parsePage(resp.Body, resp.URL, parseOptions{})
	if err != nil {
		return MetadataCandidate{}, err
	}

	images := make([]string, 0, len(tags.images))
	for _, img := range tags.images {
		if !s.scorer.Disqualified(img) {
			images = append(images, img)
		}
	}
	return MetadataCandidate{
		Title:       tags.title,
		Description: tags.description,
		Images:      images,
	}, nil
}
