package headless

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/listing-resolver/internal/resolver"
)

func TestNewChromedpLimiterValidation(t *testing.T) {
	t.Parallel()

	_, err := NewChromedp(Config{MaxParallel: -1})
	require.Error(t, err)

	fetcher, err := NewChromedp(Config{MaxParallel: 2})
	require.NoError(t, err)
	defer fetcher.Close()
	require.Equal(t, 2, cap(fetcher.limiter))
	require.Equal(t, defaultNavigationTimeout, fetcher.cfg.NavigationTimeout)
}

func TestFetcherNavTimeout(t *testing.T) {
	t.Parallel()

	fetcher := &Fetcher{}
	require.Equal(t, defaultNavigationTimeout, fetcher.navTimeout(0))

	fetcher.cfg.NavigationTimeout = time.Second
	require.Equal(t, time.Second, fetcher.navTimeout(0))
	require.Equal(t, 3*time.Second, fetcher.navTimeout(3*time.Second))
}

func TestToNetworkHeadersSkipsUserAgent(t *testing.T) {
	t.Parallel()

	src := resolver.BrowserIdentity.Headers()
	src.Add("X-Test", "a")
	src.Add("X-Test", "b")

	netHeaders := toNetworkHeaders(src)
	require.NotContains(t, netHeaders, "User-Agent")
	require.Equal(t, resolver.BrowserIdentity.Accept, netHeaders["Accept"])
	require.Equal(t, []string{"a", "b"}, netHeaders["X-Test"])
}

func TestResponseMetaCaptureAndFallbacks(t *testing.T) {
	t.Parallel()

	meta := newResponseMeta()
	meta.capture(&network.EventResponseReceived{
		Type:     network.ResourceTypeImage,
		Response: &network.Response{Status: 404, URL: "https://images.marketplace.example/x.jpg"},
	})
	meta.capture(&network.EventResponseReceived{
		Type: network.ResourceTypeDocument,
		Response: &network.Response{
			Status:  203,
			URL:     "https://marketplace.example/dp/B0ABCDEFGH",
			Headers: network.Headers{"X-Request-ID": "abc"},
		},
	})
	status, headers, url := meta.snapshotWithFallbacks("https://req", "")
	require.Equal(t, 203, status)
	require.Equal(t, "abc", headers.Get("X-Request-ID"))
	require.Equal(t, "https://marketplace.example/dp/B0ABCDEFGH", url)

	meta = newResponseMeta()
	status, headers, url = meta.snapshotWithFallbacks("https://req", "https://final")
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, headers)
	require.Equal(t, "https://final", url)
}

func TestAcquireRelease(t *testing.T) {
	t.Parallel()

	fetcher := &Fetcher{limiter: make(chan struct{}, 1)}
	require.NoError(t, fetcher.acquire(t.Context()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorContains(t, fetcher.acquire(ctx), "canceled")

	fetcher.release()
	require.NoError(t, fetcher.acquire(t.Context()))
}
