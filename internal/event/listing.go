// Package event routes listing change events from the message bus into the
// sync engine. Ranking-slot and article changes arrive over webhooks instead;
// only the listing catalog publishes through Kafka.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pazarly/search-service/internal/domain"
	"github.com/pazarly/search-service/internal/mapper"
	"github.com/pazarly/search-service/pkg/kafka"
)

// Listing event types published by the marketplace catalog.
const (
	ListingCreated = "market.listing.created"
	ListingUpdated = "market.listing.updated"
	ListingDeleted = "market.listing.deleted"
)

// Syncer is the subset of the sync engine the handler drives.
type Syncer interface {
	UpsertListing(ctx context.Context, doc domain.StoreDocument) error
	Delete(ctx context.Context, indexName, id string) error
}

// ListingHandler applies listing change events to the index.
type ListingHandler struct {
	syncer Syncer
	logger *slog.Logger
}

// NewListingHandler creates a listing event handler.
func NewListingHandler(syncer Syncer, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{syncer: syncer, logger: logger}
}

// Handle dispatches one listing event. Unknown event types are logged and
// acknowledged so a producer rollout cannot wedge the partition.
func (h *ListingHandler) Handle(ctx context.Context, event *kafka.Event) error {
	switch event.EventType {
	case ListingCreated, ListingUpdated:
		var payload mapper.ListingPayload
		if err := event.UnmarshalData(&payload); err != nil {
			return fmt.Errorf("decode listing payload: %w", err)
		}
		doc, err := mapper.StoreFromPayload(payload)
		if err != nil {
			return fmt.Errorf("map listing event %s: %w", event.AggregateID, err)
		}
		return h.syncer.UpsertListing(ctx, doc)

	case ListingDeleted:
		if event.AggregateID == "" {
			return fmt.Errorf("listing delete event without aggregate id")
		}
		return h.syncer.Delete(ctx, domain.IndexListings, event.AggregateID)

	default:
		h.logger.Warn("ignoring unknown listing event type",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
		)
		return nil
	}
}
