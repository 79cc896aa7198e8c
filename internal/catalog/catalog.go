// Package catalog persists resolved listings and announces them downstream.
// The resolver core never touches it; the API layer hands results over.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/JakeFAU/listing-resolver/internal/resolver"
)

// ErrNotFound signals that no listing exists for the identifier.
var ErrNotFound = errors.New("listing not found")

// EventListingResolved is the event type published after a successful save.
const EventListingResolved = "listing.resolved"

// Record is one stored listing. Identifier is the uniqueness key.
type Record struct {
	ID          string    `json:"id"`
	Identifier  string    `json:"identifier"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image,omitempty"`
	SourceURL   string    `json:"source_url"`
	Strategy    string    `json:"strategy"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

// Event is the payload published for downstream consumers.
type Event struct {
	Type   string `json:"type"`
	Record Record `json:"record"`
}

// Store persists records. Save upserts on Identifier and returns the stored
// row; an existing row keeps its ID.
type Store interface {
	Save(ctx context.Context, record Record) (Record, error)
	Get(ctx context.Context, identifier string) (Record, error)
}

// Resolver is the subset of the resolver core the catalog depends on.
type Resolver interface {
	ResolveProductMetadata(ctx context.Context, rawURL string) (resolver.ResolvedMetadata, error)
}

// Publisher sends events to a topic and returns the message ID.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator creates record IDs.
type IDGenerator interface {
	NewID() (string, error)
}

func recordFrom(meta resolver.ResolvedMetadata) Record {
	return Record{
		Identifier:  meta.Identifier.String(),
		Title:       meta.Title,
		Description: meta.Description,
		Image:       meta.Image,
		SourceURL:   meta.SourceURL,
		Strategy:    meta.Strategy,
	}
}
