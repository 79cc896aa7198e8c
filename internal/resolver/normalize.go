package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/JakeFAU/listing-resolver/internal/metrics"
)

const defaultRedirectTimeout = 5 * time.Second

// Normalizer canonicalizes raw input into an absolute URL on the marketplace host.
type Normalizer struct {
	marketplaceHost string
	shortLinkHosts  []string
	redirects       RedirectResolver
	timeout         time.Duration
}

// NewNormalizer builds a Normalizer. redirects may be nil when no short-link
// hosts are configured.
func NewNormalizer(marketplaceHost string, shortLinkHosts []string, redirects RedirectResolver, timeout time.Duration) *Normalizer {
	metrics.Init()
	if timeout <= 0 {
		timeout = defaultRedirectTimeout
	}
	hosts := make([]string, 0, len(shortLinkHosts))
	for _, h := range shortLinkHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			hosts = append(hosts, h)
		}
	}
	return &Normalizer{
		marketplaceHost: strings.ToLower(strings.TrimSpace(marketplaceHost)),
		shortLinkHosts:  hosts,
		redirects:       redirects,
		timeout:         timeout,
	}
}

// Normalize trims, adds a scheme when missing, follows short links and rejects
// any host other than the marketplace. No network call happens unless the
// host is a short-link host.
func (n *Normalizer) Normalize(ctx context.Context, raw string) (string, error) {
	u, err := parseAbsolute(raw)
	if err != nil {
		return "", err
	}

	if n.isShortLink(u.Hostname()) {
		final, err := n.followShortLink(ctx, u.String())
		if err != nil {
			return "", err
		}
		if u, err = parseAbsolute(final); err != nil {
			return "", err
		}
	}

	host := strings.ToLower(u.Hostname())
	if !hostMatches(host, n.marketplaceHost) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDomain, host)
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

func (n *Normalizer) followShortLink(ctx context.Context, shortURL string) (string, error) {
	final, err := n.resolveRedirect(ctx, shortURL)
	if err != nil {
		metrics.ObserveRedirect("failure")
		return "", err
	}
	metrics.ObserveRedirect("success")
	return final, nil
}

func (n *Normalizer) resolveRedirect(ctx context.Context, shortURL string) (string, error) {
	if n.redirects == nil {
		return "", fmt.Errorf("%w: no redirect resolver configured", ErrRedirectResolutionFailed)
	}
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	final, err := n.redirects.Resolve(ctx, shortURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRedirectResolutionFailed, classifyFetchError(err))
	}
	if strings.TrimSpace(final) == "" {
		return "", fmt.Errorf("%w: empty location", ErrRedirectResolutionFailed)
	}
	return final, nil
}

func (n *Normalizer) isShortLink(host string) bool {
	host = strings.ToLower(host)
	for _, h := range n.shortLinkHosts {
		if hostMatches(host, h) {
			return true
		}
	}
	return false
}

func parseAbsolute(raw string) (*url.URL, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("%w: empty url", ErrUnsupportedDomain)
	}
	if !hasScheme(s) {
		s = "https://" + strings.TrimPrefix(s, "//")
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedDomain, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedDomain, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host", ErrUnsupportedDomain)
	}
	return u, nil
}

// hasScheme reports whether s starts with "<scheme>://". A "://" after the
// first path, query or fragment delimiter belongs to the rest of the URL.
func hasScheme(s string) bool {
	i := strings.Index(s, "://")
	return i > 0 && !strings.ContainsAny(s[:i], "/?#")
}

// hostMatches accepts the domain itself and any subdomain of it.
func hostMatches(host, domain string) bool {
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}
