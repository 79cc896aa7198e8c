package resolver

import (
	"net/http"
	"time"
)

// ItemIdentifier is the 10 character upper-case alphanumeric listing code.
type ItemIdentifier string

// String returns the identifier as a plain string.
func (id ItemIdentifier) String() string {
	return string(id)
}

// MetadataCandidate is what a single strategy managed to extract. Every field
// may be empty.
type MetadataCandidate struct {
	Title       string
	Description string
	Images      []string
	// PrimaryImage is set when the strategy is certain about the listing image.
	// It is always also present in Images.
	PrimaryImage string
}

// ScoredImage pairs an image URL with its heuristic score.
type ScoredImage struct {
	URL   string `json:"url"`
	Score int    `json:"score"`
}

// ResolvedMetadata is the only output of a successful resolution.
type ResolvedMetadata struct {
	Identifier  ItemIdentifier `json:"identifier"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Image       string         `json:"image,omitempty"`
	SourceURL   string         `json:"source_url"`
	Strategy    string         `json:"strategy"`
}

// HasImage reports whether a representative image was selected.
func (m ResolvedMetadata) HasImage() bool {
	return m.Image != ""
}

// Phase names a step of the resolution state machine.
type Phase string

// Resolution phases in the order they are entered.
const (
	PhaseIdle                 Phase = "idle"
	PhaseNormalizing          Phase = "normalizing"
	PhaseExtractingIdentifier Phase = "extracting_identifier"
	PhaseFetching             Phase = "fetching"
	PhaseScoring              Phase = "scoring"
	PhaseDone                 Phase = "done"
	PhaseFailed               Phase = "failed"
)

// FetchRequest captures everything needed to fetch a URL once.
type FetchRequest struct {
	URL     string
	Headers http.Header
	Timeout time.Duration
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}
