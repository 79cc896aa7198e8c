package collyfetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/listing-resolver/internal/resolver"
)

// RedirectResolver follows short-link redirects with a HEAD request.
type RedirectResolver struct {
	fetcher  *Fetcher
	identity resolver.ClientIdentity
}

// NewRedirectResolver shares the fetcher's transport and timeout.
func NewRedirectResolver(f *Fetcher) *RedirectResolver {
	return &RedirectResolver{fetcher: f, identity: resolver.BrowserIdentity}
}

// Resolve returns the location the redirect chain ends at. A non-2xx status
// at the final hop still yields that location; only a failure to reach it is
// an error.
func (r *RedirectResolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	var (
		final    string
		fetchErr error
	)
	collector := r.fetcher.buildCollector(ctx, timeoutFrom(ctx))
	headers := r.identity.Headers()

	collector.OnRequest(func(req *colly.Request) {
		applyHeaders(headers, req)
	})
	collector.OnResponse(func(resp *colly.Response) {
		final = resp.Request.URL.String()
	})
	collector.OnError(func(resp *colly.Response, err error) {
		if resp != nil && resp.StatusCode != 0 && resp.Request != nil {
			final = resp.Request.URL.String()
			return
		}
		fetchErr = err
	})

	err := runCollector(ctx, func() error {
		return collector.Request(http.MethodHead, rawURL, nil, colly.NewContext(), nil)
	}, &fetchErr)
	if ctx.Err() != nil {
		return "", fmt.Errorf("resolve %s: %w", rawURL, ctx.Err())
	}
	if final != "" {
		return final, nil
	}
	if err != nil {
		return "", err
	}
	return "", fmt.Errorf("no response for %s", rawURL)
}

func timeoutFrom(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		return time.Until(deadline)
	}
	return 0
}
