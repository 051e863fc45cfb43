package event

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pazarly/search-service/internal/domain"
	"github.com/pazarly/search-service/internal/mapper"
	"github.com/pazarly/search-service/pkg/kafka"
)

type fakeSyncer struct {
	upserts []domain.StoreDocument
	deletes []string
}

func (s *fakeSyncer) UpsertListing(_ context.Context, doc domain.StoreDocument) error {
	s.upserts = append(s.upserts, doc)
	return nil
}

func (s *fakeSyncer) Delete(_ context.Context, indexName, id string) error {
	s.deletes = append(s.deletes, indexName+"/"+id)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleListingCreated(t *testing.T) {
	syncer := &fakeSyncer{}
	handler := NewListingHandler(syncer, testLogger())

	evt, err := kafka.NewEvent(ListingCreated, "lst-1", "listing", "market-service", mapper.ListingPayload{
		ID:          "lst-1",
		DisplayName: "Wireless Keyboard",
		Status:      domain.StatusActive,
	})
	require.NoError(t, err)

	require.NoError(t, handler.Handle(context.Background(), evt))
	require.Len(t, syncer.upserts, 1)
	assert.Equal(t, "lst-1", syncer.upserts[0].ID)
	assert.Equal(t, "Wireless Keyboard", syncer.upserts[0].Name)
}

func TestHandleListingDeleted(t *testing.T) {
	syncer := &fakeSyncer{}
	handler := NewListingHandler(syncer, testLogger())

	evt, err := kafka.NewEvent(ListingDeleted, "lst-1", "listing", "market-service", nil)
	require.NoError(t, err)

	require.NoError(t, handler.Handle(context.Background(), evt))
	assert.Equal(t, []string{"listings/lst-1"}, syncer.deletes)
}

func TestHandleMalformedPayloadFails(t *testing.T) {
	syncer := &fakeSyncer{}
	handler := NewListingHandler(syncer, testLogger())

	evt, err := kafka.NewEvent(ListingUpdated, "lst-1", "listing", "market-service", mapper.ListingPayload{
		ID: "lst-1", // missing display name
	})
	require.NoError(t, err)

	assert.Error(t, handler.Handle(context.Background(), evt))
	assert.Empty(t, syncer.upserts)
}

func TestHandleUnknownEventTypeIsAcknowledged(t *testing.T) {
	syncer := &fakeSyncer{}
	handler := NewListingHandler(syncer, testLogger())

	evt, err := kafka.NewEvent("market.listing.archived", "lst-1", "listing", "market-service", nil)
	require.NoError(t, err)

	assert.NoError(t, handler.Handle(context.Background(), evt))
	assert.Empty(t, syncer.upserts)
	assert.Empty(t, syncer.deletes)
}
