package resolver

import (
	"bytes"
	"net/url"

	readability "github.com/go-shiori/go-readability"
)

// minExcerptLength drops excerpts too short to describe a listing.
const minExcerptLength = 20

// readableExcerpt runs the readability algorithm over a page and returns its
// excerpt: the first paragraph of the main content. It returns "" when the
// page has no usable article text.
func readableExcerpt(body []byte, pageURL string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(body), base)
	if err != nil {
		return ""
	}
	excerpt := cleanText(article.Excerpt)
	if len(excerpt) < minExcerptLength {
		return ""
	}
	return excerpt
}
