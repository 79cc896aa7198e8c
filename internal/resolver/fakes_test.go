package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// fakePage is what fakeFetcher serves for one client identity.
type fakePage struct {
	body  string
	err   error
	block bool
	panic bool
}

// fakeFetcher serves pages keyed by the request User-Agent.
type fakeFetcher struct {
	mu     sync.Mutex
	pages  map[string]fakePage
	agents []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: make(map[string]fakePage)}
}

func (f *fakeFetcher) serve(identity ClientIdentity, page fakePage) *fakeFetcher {
	f.pages[identity.UserAgent] = page
	return f
}

func (f *fakeFetcher) Fetch(ctx context.Context, req FetchRequest) (FetchResponse, error) {
	ua := req.Headers.Get("User-Agent")
	f.mu.Lock()
	f.agents = append(f.agents, ua)
	page, ok := f.pages[ua]
	f.mu.Unlock()

	if !ok {
		return FetchResponse{}, fmt.Errorf("unexpected status %d", http.StatusForbidden)
	}
	if page.panic {
		panic("fetcher exploded")
	}
	if page.block {
		<-ctx.Done()
		return FetchResponse{}, ctx.Err()
	}
	if page.err != nil {
		return FetchResponse{}, page.err
	}
	return FetchResponse{
		URL:        req.URL,
		StatusCode: http.StatusOK,
		Body:       []byte(page.body),
		Duration:   time.Millisecond,
	}, nil
}

func (f *fakeFetcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.agents...)
}

// fakeRedirects resolves short links from a fixed table.
type fakeRedirects struct {
	mu      sync.Mutex
	targets map[string]string
	err     error
	block   bool
	count   int
}

func (f *fakeRedirects) Resolve(ctx context.Context, rawURL string) (string, error) {
	f.mu.Lock()
	f.count++
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	target, ok := f.targets[rawURL]
	if !ok {
		return "", errors.New("no such short link")
	}
	return target, nil
}

func (f *fakeRedirects) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// stubStrategy returns a fixed result and counts invocations.
type stubStrategy struct {
	name      string
	candidate MetadataCandidate
	err       error
	panic     bool
	mu        sync.Mutex
	runs      int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Fetch(_ context.Context, _ string) (MetadataCandidate, error) {
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
	if s.panic {
		panic("strategy exploded")
	}
	return s.candidate, s.err
}

func (s *stubStrategy) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// recordingSleep captures requested delays without waiting.
type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *recordingSleep) calls() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

func previewHTML(title, description string, images ...string) string {
	html := "<html><head>"
	if title != "" {
		html += `<meta property="og:title" content="` + title + `">`
	}
	if description != "" {
		html += `<meta property="og:description" content="` + description + `">`
	}
	for _, img := range images {
		html += `<meta property="og:image" content="` + img + `">`
	}
	return html + "</head><body></body></html>"
}
