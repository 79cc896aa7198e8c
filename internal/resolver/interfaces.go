package resolver

import (
	"context"
	"time"
)

// Fetcher performs a single GET and returns the body plus metadata.
// Non-2xx responses are reported as errors.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// RedirectResolver follows redirects for a URL and returns the final location.
type RedirectResolver interface {
	Resolve(ctx context.Context, rawURL string) (string, error)
}

// Strategy is one self-contained metadata retrieval approach.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, pageURL string) (MetadataCandidate, error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep is the wall-clock SleepFunc.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
