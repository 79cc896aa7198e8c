package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/JakeFAU/listing-resolver/internal/metrics"
)

// Service resolves a URL, stores the result and publishes it.
type Service struct {
	resolver  Resolver
	store     Store
	publisher Publisher
	clock     Clock
	ids       IDGenerator
	topic     string
	logger    *zap.Logger
}

// NewService wires the catalog. publisher may be nil to skip notifications.
func NewService(res Resolver, store Store, publisher Publisher, clock Clock, ids IDGenerator, topic string, logger *zap.Logger) *Service {
	metrics.Init()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		resolver:  res,
		store:     store,
		publisher: publisher,
		clock:     clock,
		ids:       ids,
		topic:     topic,
		logger:    logger.Named("catalog"),
	}
}

// Resolve runs the resolver and saves the listing. Resolver errors are
// returned unchanged so callers can inspect them. A failed publish is logged
// and does not fail the call.
func (s *Service) Resolve(ctx context.Context, rawURL string) (Record, error) {
	ctx, span := otel.Tracer("catalog").Start(ctx, "catalog.Resolve")
	defer span.End()

	meta, err := s.resolver.ResolveProductMetadata(ctx, rawURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve failed")
		return Record{}, err
	}
	span.SetAttributes(
		attribute.String("listing.identifier", meta.Identifier.String()),
		attribute.String("listing.strategy", meta.Strategy),
	)

	id, err := s.ids.NewID()
	if err != nil {
		return Record{}, fmt.Errorf("generate record id: %w", err)
	}
	record := recordFrom(meta)
	record.ID = id
	record.ResolvedAt = s.clock.Now()

	saved, err := s.store.Save(ctx, record)
	if err != nil {
		return Record{}, fmt.Errorf("save listing: %w", err)
	}

	if s.publisher != nil {
		msgID, err := s.publisher.Publish(ctx, s.topic, Event{Type: EventListingResolved, Record: saved})
		if err != nil {
			metrics.ObservePublishFailure()
			s.logger.Warn("publish listing event failed",
				zap.String("identifier", saved.Identifier),
				zap.Error(err),
			)
		} else {
			s.logger.Debug("listing event published",
				zap.String("identifier", saved.Identifier),
				zap.String("message_id", msgID),
			)
		}
	}
	return saved, nil
}

// Get loads a stored listing by identifier, case-insensitively.
func (s *Service) Get(ctx context.Context, identifier string) (Record, error) {
	identifier = strings.ToUpper(strings.TrimSpace(identifier))
	if identifier == "" {
		return Record{}, ErrNotFound
	}
	return s.store.Get(ctx, identifier)
}
