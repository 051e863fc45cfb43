package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pazarly/search-service/internal/domain"
	"github.com/pazarly/search-service/internal/index/indextest"
	"github.com/pazarly/search-service/internal/repository"
)

type fakeListingSource struct {
	rows    []repository.ListingRow
	pageErr error
}

func (s *fakeListingSource) ListPage(_ context.Context, limit, offset int) ([]repository.ListingRow, error) {
	if s.pageErr != nil {
		return nil, s.pageErr
	}
	if offset >= len(s.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return s.rows[offset:end], nil
}

func (s *fakeListingSource) FindByIDs(_ context.Context, ids []string) ([]repository.ListingRow, error) {
	var out []repository.ListingRow
	for _, id := range ids {
		for _, row := range s.rows {
			if row.ID == id {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

type fakeArticleSource struct {
	rows []repository.ArticleRow
}

func (s *fakeArticleSource) ListPage(_ context.Context, limit, offset int) ([]repository.ArticleRow, error) {
	if offset >= len(s.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return s.rows[offset:end], nil
}

type fakeSlotSource struct {
	rows []repository.SlotRow
}

func (s *fakeSlotSource) ListPage(_ context.Context, limit, offset int) ([]repository.SlotRow, error) {
	if offset >= len(s.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return s.rows[offset:end], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(store *indextest.Store, listings *fakeListingSource, articles *fakeArticleSource, slots *fakeSlotSource) *Engine {
	cfg := Config{PingAttempts: 2, PingDelay: time.Millisecond, PageSize: 2, BatchSize: 3}
	mappings := map[string]string{
		domain.IndexListings:     "{}",
		domain.IndexArticles:     "{}",
		domain.IndexRankingSlots: "{}",
	}
	return New(store, listings, articles, slots, mappings, cfg, testLogger())
}

func TestUpsertListingIsIdempotent(t *testing.T) {
	store := indextest.New()
	engine := newTestEngine(store, &fakeListingSource{}, &fakeArticleSource{}, &fakeSlotSource{})

	doc := domain.StoreDocument{ID: "lst-1", Name: "Keyboard", Status: domain.StatusActive}
	require.NoError(t, engine.UpsertListing(context.Background(), doc))

	doc.Name = "Keyboard Pro"
	require.NoError(t, engine.UpsertListing(context.Background(), doc))
	require.NoError(t, engine.UpsertListing(context.Background(), doc))

	assert.Equal(t, 1, store.Count(domain.IndexListings))
	stored, ok := store.Doc(domain.IndexListings, "lst-1")
	require.True(t, ok)
	assert.Equal(t, "Keyboard Pro", stored["name"])
}

func TestUpsertListingRequiresID(t *testing.T) {
	engine := newTestEngine(indextest.New(), &fakeListingSource{}, &fakeArticleSource{}, &fakeSlotSource{})
	assert.Error(t, engine.UpsertListing(context.Background(), domain.StoreDocument{}))
}

func TestUpdateSlotWinnersMergesPartially(t *testing.T) {
	store := indextest.New()
	engine := newTestEngine(store, &fakeListingSource{}, &fakeArticleSource{}, &fakeSlotSource{})

	require.NoError(t, engine.UpsertRankingSlot(context.Background(), domain.PositionDocument{
		ID:           "slot-1",
		CategorySlug: "electronics",
		Rank:         2,
		WinnerIDs:    []string{"lst-1"},
		Status:       domain.StatusActive,
	}))

	require.NoError(t, engine.UpdateSlotWinners(context.Background(), "slot-1", []string{"lst-9"}, domain.StatusActive))

	stored, ok := store.Doc(domain.IndexRankingSlots, "slot-1")
	require.True(t, ok)
	assert.Equal(t, "electronics", stored["category_slug"], "untouched fields survive a winner update")
	assert.EqualValues(t, 2, stored["rank"])
	assert.Equal(t, []any{"lst-9"}, stored["winner_ids"])
}

func TestUpdateSlotWinnersDropsUnknownSlot(t *testing.T) {
	store := indextest.New()
	engine := newTestEngine(store, &fakeListingSource{}, &fakeArticleSource{}, &fakeSlotSource{})

	err := engine.UpdateSlotWinners(context.Background(), "slot-missing", []string{"lst-1"}, domain.StatusActive)
	assert.NoError(t, err, "updates for unseen slots are dropped, not failed")
	assert.Equal(t, 0, store.Count(domain.IndexRankingSlots))
}

func TestDeleteAbsentIDIsNotAnError(t *testing.T) {
	engine := newTestEngine(indextest.New(), &fakeListingSource{}, &fakeArticleSource{}, &fakeSlotSource{})
	assert.NoError(t, engine.Delete(context.Background(), domain.IndexListings, "lst-ghost"))
}

func TestBootstrapSyncsAllKinds(t *testing.T) {
	store := indextest.New()
	listings := &fakeListingSource{rows: []repository.ListingRow{
		{ID: "lst-1", Name: "Keyboard"},
		{ID: "lst-2", Name: "Mouse"},
		{ID: "lst-3", Name: "Monitor"},
		{ID: "lst-4", Name: "Webcam"},
		{ID: "lst-5", Name: "Headset"},
	}}
	articles := &fakeArticleSource{rows: []repository.ArticleRow{
		{ID: "post-1", Title: "Choosing a VPN"},
	}}
	slots := &fakeSlotSource{rows: []repository.SlotRow{
		{ID: "slot-1", Name: "Top Spot #1"},
	}}
	engine := newTestEngine(store, listings, articles, slots)

	reports, err := engine.Bootstrap(context.Background())
	require.NoError(t, err)

	assert.True(t, store.HasIndex(domain.IndexListings))
	assert.True(t, store.HasIndex(domain.IndexArticles))
	assert.True(t, store.HasIndex(domain.IndexRankingSlots))

	byKind := make(map[string]Report)
	for _, r := range reports {
		byKind[r.Kind] = r
	}
	assert.Equal(t, 5, byKind[domain.IndexListings].Succeeded)
	assert.Equal(t, 1, byKind[domain.IndexArticles].Succeeded)
	assert.Equal(t, 1, byKind[domain.IndexRankingSlots].Succeeded)

	assert.Equal(t, 5, store.Count(domain.IndexListings))
	assert.Equal(t, 1, store.Count(domain.IndexArticles))
	assert.Equal(t, 1, store.Count(domain.IndexRankingSlots))
}

func TestBootstrapSkipsMalformedRows(t *testing.T) {
	store := indextest.New()
	listings := &fakeListingSource{rows: []repository.ListingRow{
		{ID: "lst-1", Name: "Keyboard"},
		{ID: "lst-2"}, // missing name
		{ID: "lst-3", Name: "Monitor"},
	}}
	engine := newTestEngine(store, listings, &fakeArticleSource{}, &fakeSlotSource{})

	reports, err := engine.Bootstrap(context.Background())
	require.NoError(t, err)

	byKind := make(map[string]Report)
	for _, r := range reports {
		byKind[r.Kind] = r
	}
	assert.Equal(t, 2, byKind[domain.IndexListings].Succeeded)
	assert.Equal(t, 1, byKind[domain.IndexListings].Skipped)
	assert.Equal(t, 2, store.Count(domain.IndexListings))
}

func TestBootstrapContinuesAfterFlushFailure(t *testing.T) {
	store := indextest.New()
	store.BulkErr = errors.New("bulk rejected")
	listings := &fakeListingSource{rows: []repository.ListingRow{
		{ID: "lst-1", Name: "Keyboard"},
		{ID: "lst-2", Name: "Mouse"},
	}}
	engine := newTestEngine(store, listings, &fakeArticleSource{}, &fakeSlotSource{})

	reports, err := engine.Bootstrap(context.Background())
	require.NoError(t, err, "flush failures must not abort bootstrap")

	byKind := make(map[string]Report)
	for _, r := range reports {
		byKind[r.Kind] = r
	}
	assert.Equal(t, 2, byKind[domain.IndexListings].Failed)
	assert.Equal(t, 0, byKind[domain.IndexListings].Succeeded)
}

func TestBootstrapRetriesPingThenSucceeds(t *testing.T) {
	store := indextest.New()
	store.PingErrs = []error{errors.New("connection refused"), nil}
	engine := newTestEngine(store, &fakeListingSource{}, &fakeArticleSource{}, &fakeSlotSource{})

	_, err := engine.Bootstrap(context.Background())
	assert.NoError(t, err)
}

func TestBootstrapFatalAfterPingExhaustion(t *testing.T) {
	store := indextest.New()
	store.PingErrs = []error{errors.New("connection refused"), errors.New("connection refused")}
	engine := newTestEngine(store, &fakeListingSource{}, &fakeArticleSource{}, &fakeSlotSource{})

	_, err := engine.Bootstrap(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable after 2 attempts")
}

func TestBootstrapAbortsKindOnPageError(t *testing.T) {
	store := indextest.New()
	listings := &fakeListingSource{pageErr: errors.New("db down")}
	slots := &fakeSlotSource{rows: []repository.SlotRow{{ID: "slot-1", Name: "Spot 1"}}}
	engine := newTestEngine(store, listings, &fakeArticleSource{}, slots)

	reports, err := engine.Bootstrap(context.Background())
	require.NoError(t, err)

	byKind := make(map[string]Report)
	for _, r := range reports {
		byKind[r.Kind] = r
	}
	assert.Equal(t, 0, byKind[domain.IndexListings].Succeeded)
	assert.Equal(t, 1, byKind[domain.IndexRankingSlots].Succeeded, "other kinds still sync")
}
