package resolver

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"
	"time"
)

const (
	// StrategyMarkup is the name of the high-confidence markup scan strategy.
	StrategyMarkup = "markup"

	defaultMarkupTimeout = 8 * time.Second
)

var errPrimaryImageNotFound = errors.New("primary image marker not found in markup")

// primaryImagePatterns locate the main listing image in raw product markup,
// most specific first.
var primaryImagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`data-old-hires="(https?:[^"]+)"`),
	regexp.MustCompile(`"hiRes"\s*:\s*"(https?:[^"]+)"`),
	regexp.MustCompile(`id="landingImage"[^>]*?\ssrc="(https?:[^"]+)"`),
	regexp.MustCompile(`id="imgBlkFront"[^>]*?\ssrc="(https?:[^"]+)"`),
	regexp.MustCompile(`"large"\s*:\s*"(https?:[^"]+)"`),
}

// MarkupStrategy fetches the product page as a browser and scans the raw
// markup for the known primary-image markers. Title and description come
// from a concurrent preview-identity fetch of the same page.
type MarkupStrategy struct {
	fetcher         Fetcher
	pageIdentity    ClientIdentity
	detailsIdentity ClientIdentity
	timeout         time.Duration
}

// NewMarkupStrategy builds the markup strategy. A non-positive timeout uses
// the default.
func NewMarkupStrategy(fetcher Fetcher, timeout time.Duration) *MarkupStrategy {
	if timeout <= 0 {
		timeout = defaultMarkupTimeout
	}
	return &MarkupStrategy{
		fetcher:         fetcher,
		pageIdentity:    BrowserIdentity,
		detailsIdentity: ChatPreviewIdentity,
		timeout:         timeout,
	}
}

// Name implements Strategy.
func (s *MarkupStrategy) Name() string { return StrategyMarkup }

// Fetch implements Strategy. It fails when the page cannot be fetched or no
// primary-image marker is present. A failed details fetch is not fatal.
func (s *MarkupStrategy) Fetch(ctx context.Context, pageURL string) (MetadataCandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		wg      sync.WaitGroup
		details pageTags
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		details = s.fetchDetails(ctx, pageURL)
	}()

	resp, err := s.fetcher.Fetch(ctx, FetchRequest{
		URL:     pageURL,
		Headers: s.pageIdentity.Headers(),
		Timeout: s.timeout,
	})
	if err != nil {
		cancel()
		wg.Wait()
		return MetadataCandidate{}, fmt.Errorf("fetch product page: %w", err)
	}

	primary, ok := findPrimaryImage(resp.Body)
	if !ok {
		cancel()
		wg.Wait()
		return MetadataCandidate{}, errPrimaryImageNotFound
	}

	var markupTitle, markupDescription string
	if doc, err := newDocument(resp.Body); err == nil {
		markupTitle = cleanText(doc.Find("#productTitle").First().Text())
		tags := extractTags(doc, resp.URL, parseOptions{documentTitle: true})
		markupTitle = firstNonEmpty(markupTitle, tags.title)
		markupDescription = tags.description
	}

	wg.Wait()
	return MetadataCandidate{
		Title:        firstNonEmpty(details.title, markupTitle),
		Description:  firstNonEmpty(details.description, markupDescription),
		Images:       []string{primary},
		PrimaryImage: primary,
	}, nil
}

func (s *MarkupStrategy) fetchDetails(ctx context.Context, pageURL string) pageTags {
	resp, err := s.fetcher.Fetch(ctx, FetchRequest{
		URL:     pageURL,
		Headers: s.detailsIdentity.Headers(),
		Timeout: s.timeout,
	})
	if err != nil {
		return pageTags{}
	}
	tags, err := parsePage(resp.Body, resp.URL, parseOptions{})
	if err != nil {
		return pageTags{}
	}
	return tags
}

// findPrimaryImage returns the first primary-image marker match with its
// size token removed so the full-resolution asset is referenced.
func findPrimaryImage(body []byte) (string, bool) {
	for _, re := range primaryImagePatterns {
		m := re.FindSubmatch(body)
		if m == nil {
			continue
		}
		raw := strings.ReplaceAll(html.UnescapeString(string(m[1])), `\/`, `/`)
		if raw == "" {
			continue
		}
		return StripSizeToken(raw), true
	}
	return "", false
}
