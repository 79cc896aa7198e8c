package resolver

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var identifierRE = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// Known product-detail path shapes, most common first.
var defaultPathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/dp/([a-z0-9]{10})(?:/|$)`),
	regexp.MustCompile(`(?i)/gp/product/([a-z0-9]{10})(?:/|$)`),
	regexp.MustCompile(`(?i)/gp/aw/d/([a-z0-9]{10})(?:/|$)`),
	regexp.MustCompile(`(?i)/exec/obidos/asin/([a-z0-9]{10})(?:/|$)`),
	regexp.MustCompile(`(?i)/exec/obidos/tg/detail/-/([a-z0-9]{10})(?:/|$)`),
	regexp.MustCompile(`(?i)/o/asin/([a-z0-9]{10})(?:/|$)`),
	regexp.MustCompile(`(?i)/gp/offer-listing/([a-z0-9]{10})(?:/|$)`),
}

// ParseIdentifier upper-cases s and validates the strict identifier format.
func ParseIdentifier(s string) (ItemIdentifier, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !identifierRE.MatchString(s) {
		return "", false
	}
	return ItemIdentifier(s), true
}

// IdentifierExtractor derives the item identifier from a normalized URL. It
// does no I/O.
type IdentifierExtractor struct {
	patterns []*regexp.Regexp
}

// NewIdentifierExtractor returns an extractor over the known path shapes.
func NewIdentifierExtractor() *IdentifierExtractor {
	return &IdentifierExtractor{patterns: defaultPathPatterns}
}

// Extract applies the path patterns in order; the first match wins.
func (e *IdentifierExtractor) Extract(normalizedURL string) (ItemIdentifier, error) {
	u, err := url.Parse(normalizedURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIdentifierNotFound, err)
	}
	for _, re := range e.patterns {
		m := re.FindStringSubmatch(u.Path)
		if len(m) < 2 {
			continue
		}
		if id, ok := ParseIdentifier(m[1]); ok {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrIdentifierNotFound, u.Path)
}
