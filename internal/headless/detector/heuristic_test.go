package detector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/listing-resolver/internal/resolver"
)

func TestHeuristic_ShouldPromote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		threshold int
		status    int
		body      string
		want      bool
	}{
		{name: "empty body", threshold: 100, status: 200, body: "  \n", want: true},
		{name: "no metadata", threshold: 100, status: 200, body: `<html><body><div>loading</div></body></html>`, want: true},
		{
			name:      "spa marker",
			threshold: 100,
			status:    200,
			body:      `<html><head><title>Shop</title></head><body><div id="__next"></div></body></html>`,
			want:      true,
		},
		{
			name:      "script heavy short page",
			threshold: 1000,
			status:    200,
			body:      `<html><head><title>x</title></head><script>var a=1;var b=2;var c=3;</script><p>t</p></html>`,
			want:      true,
		},
		{
			name:      "static product page",
			threshold: 100,
			status:    200,
			body: `<html><head><meta property="og:title" content="Widget">` +
				`<meta property="og:image" content="https://images.marketplace.example/I/71abc.jpg"></head>` +
				`<body><h1>Widget</h1></body></html>`,
			want: false,
		},
		{name: "non 2xx", threshold: 100, status: 404, body: "not found", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHeuristic(tt.threshold)
			resp := resolver.FetchResponse{StatusCode: tt.status, Body: []byte(tt.body)}
			require.Equal(t, tt.want, h.ShouldPromote(resp))
		})
	}
}

func TestNewHeuristic_DefaultThreshold(t *testing.T) {
	t.Parallel()

	require.Equal(t, 2048, NewHeuristic(0).BodyLengthThreshold)
	require.Equal(t, 2048, NewHeuristic(-5).BodyLengthThreshold)
}
