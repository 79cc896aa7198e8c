package resolver

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// pageTags is the preview metadata found in one HTML document.
type pageTags struct {
	title       string
	description string
	images      []string
}

type parseOptions struct {
	// documentTitle falls back to <title> when no preview title exists.
	documentTitle bool
	// inlineImages also collects <img> sources from the body.
	inlineImages bool
}

var (
	titleSelectors = []string{
		`meta[property="og:title"]`,
		`meta[name="twitter:title"]`,
		`meta[name="title"]`,
	}
	descriptionSelectors = []string{
		`meta[property="og:description"]`,
		`meta[name="twitter:description"]`,
		`meta[name="description"]`,
	}
	imageSelectors = []string{
		`meta[property="og:image"]`,
		`meta[property="og:image:secure_url"]`,
		`meta[property="og:image:url"]`,
		`meta[name="twitter:image"]`,
		`meta[name="twitter:image:src"]`,
	}
	inlineImageAttrs = []string{"data-old-hires", "src", "data-src"}
)

func newDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

func parsePage(body []byte, pageURL string, opts parseOptions) (pageTags, error) {
	doc, err := newDocument(body)
	if err != nil {
		return pageTags{}, err
	}
	return extractTags(doc, pageURL, opts), nil
}

func extractTags(doc *goquery.Document, pageURL string, opts parseOptions) pageTags {
	base, _ := url.Parse(pageURL)
	tags := pageTags{
		title:       firstContent(doc, titleSelectors),
		description: firstContent(doc, descriptionSelectors),
	}
	if tags.title == "" && opts.documentTitle {
		tags.title = cleanText(doc.Find("title").First().Text())
	}

	seen := make(map[string]struct{})
	add := func(raw string) {
		abs := absoluteImageURL(base, raw)
		if abs == "" {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		tags.images = append(tags.images, abs)
	}
	for _, sel := range imageSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			add(s.AttrOr("content", ""))
		})
	}
	doc.Find(`link[rel="image_src"]`).Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("href", ""))
	})
	if opts.inlineImages {
		doc.Find("img").Each(func(_ int, s *goquery.Selection) {
			for _, attr := range inlineImageAttrs {
				if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
					add(v)
					return
				}
			}
		})
	}
	return tags
}

func firstContent(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if v := cleanText(doc.Find(sel).First().AttrOr("content", "")); v != "" {
			return v
		}
	}
	return ""
}

func absoluteImageURL(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "data:") {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}

// cleanText collapses runs of whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
