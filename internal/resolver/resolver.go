package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/listing-resolver/internal/metrics"
)

// Image selection sources, used as the metrics label.
const (
	ImageSourcePrimary  = "primary"
	ImageSourceScored   = "scored"
	ImageSourceFallback = "fallback"
	ImageSourceNone     = "none"
)

// Resolver turns a raw listing URL into ResolvedMetadata. It holds no state
// between calls and is safe for concurrent use.
type Resolver struct {
	normalizer *Normalizer
	extractor  *IdentifierExtractor
	scorer     *Scorer
	strategies []Strategy
	logger     *zap.Logger
}

// New assembles a Resolver. Strategies are tried in the given order.
func New(normalizer *Normalizer, extractor *IdentifierExtractor, scorer *Scorer, strategies []Strategy, logger *zap.Logger) *Resolver {
	metrics.Init()
	if logger == nil {
		logger = zap.NewNop()
	}
	if extractor == nil {
		extractor = NewIdentifierExtractor()
	}
	if scorer == nil {
		scorer = NewScorer()
	}
	return &Resolver{
		normalizer: normalizer,
		extractor:  extractor,
		scorer:     scorer,
		strategies: strategies,
		logger:     logger.Named("resolver"),
	}
}

// ResolveProductMetadata runs normalization, identifier extraction, the
// strategy chain and image selection. Every error it returns is a
// *ResolveError.
func (r *Resolver) ResolveProductMetadata(ctx context.Context, rawURL string) (ResolvedMetadata, error) {
	run := &resolution{logger: r.logger.With(zap.String("raw_url", rawURL)), phase: PhaseIdle}
	meta, err := r.resolve(ctx, run, rawURL)
	if err != nil {
		metrics.ObserveResolution(outcomeFor(err))
		return ResolvedMetadata{}, err
	}
	metrics.ObserveResolution("success")
	return meta, nil
}

func (r *Resolver) resolve(ctx context.Context, run *resolution, rawURL string) (ResolvedMetadata, error) {
	run.enter(PhaseNormalizing)
	normalized, err := r.normalizer.Normalize(ctx, rawURL)
	if err != nil {
		return ResolvedMetadata{}, run.fail(err)
	}

	run.enter(PhaseExtractingIdentifier)
	id, err := r.extractor.Extract(normalized)
	if err != nil {
		return ResolvedMetadata{}, run.fail(err)
	}
	run.logger = run.logger.With(zap.String("identifier", id.String()))

	run.enter(PhaseFetching)
	candidate, winner, err := r.runStrategies(ctx, run, normalized)
	if err != nil {
		return ResolvedMetadata{}, run.fail(err)
	}

	run.enter(PhaseScoring)
	image, source := r.selectImage(candidate)
	metrics.ObserveImageSelection(source)

	run.enter(PhaseDone)
	run.logger.Info("listing resolved",
		zap.String("strategy", winner),
		zap.String("image_source", source),
	)
	return ResolvedMetadata{
		Identifier:  id,
		Title:       cleanText(candidate.Title),
		Description: cleanText(candidate.Description),
		Image:       image,
		SourceURL:   normalized,
		Strategy:    winner,
	}, nil
}

// runStrategies tries each strategy once, in order, stopping at the first
// success.
func (r *Resolver) runStrategies(ctx context.Context, run *resolution, pageURL string) (MetadataCandidate, string, error) {
	attempts := make([]*StrategyError, 0, len(r.strategies))
	for _, s := range r.strategies {
		start := time.Now()
		candidate, err := r.runStrategy(ctx, s, pageURL)
		elapsed := time.Since(start)
		if err == nil {
			metrics.ObserveStrategy(s.Name(), "success", elapsed)
			return candidate, s.Name(), nil
		}
		metrics.ObserveStrategy(s.Name(), "failure", elapsed)
		serr := &StrategyError{Strategy: s.Name(), Cause: classifyFetchError(err)}
		run.logger.Info("strategy failed",
			zap.String("strategy", s.Name()),
			zap.Duration("elapsed", elapsed),
			zap.Error(serr.Cause),
		)
		attempts = append(attempts, serr)
	}
	return MetadataCandidate{}, "", &AllStrategiesFailedError{Attempts: attempts}
}

// runStrategy converts a strategy panic into an ordinary failure.
func (r *Resolver) runStrategy(ctx context.Context, s Strategy, pageURL string) (candidate MetadataCandidate, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			candidate = MetadataCandidate{}
			err = fmt.Errorf("strategy panicked: %v", rec)
		}
	}()
	return s.Fetch(ctx, pageURL)
}

// selectImage prefers the authoritative image, then the best positive score,
// then the first candidate that is not disqualified.
func (r *Resolver) selectImage(candidate MetadataCandidate) (string, string) {
	if candidate.PrimaryImage != "" && !r.scorer.Disqualified(candidate.PrimaryImage) {
		return candidate.PrimaryImage, ImageSourcePrimary
	}
	if img, ok := r.scorer.Select(candidate.Images); ok {
		return img, ImageSourceScored
	}
	if img, ok := r.scorer.Fallback(candidate.Images); ok {
		return img, ImageSourceFallback
	}
	return "", ImageSourceNone
}

// resolution tracks the phase of a single call.
type resolution struct {
	logger *zap.Logger
	phase  Phase
}

func (run *resolution) enter(p Phase) {
	run.logger.Debug("phase transition",
		zap.String("from", string(run.phase)),
		zap.String("to", string(p)),
	)
	run.phase = p
}

func (run *resolution) fail(err error) error {
	failed := run.phase
	run.enter(PhaseFailed)
	return &ResolveError{Phase: failed, Err: err}
}

func outcomeFor(err error) string {
	var all *AllStrategiesFailedError
	switch {
	case errors.Is(err, ErrUnsupportedDomain):
		return "unsupported_domain"
	case errors.Is(err, ErrRedirectResolutionFailed):
		return "redirect_failed"
	case errors.Is(err, ErrIdentifierNotFound):
		return "identifier_not_found"
	case errors.As(err, &all):
		if all.TimedOut() {
			return "timeout"
		}
		return "all_strategies_failed"
	default:
		return "error"
	}
}
