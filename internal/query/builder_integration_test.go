package query

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pazarly/search-service/internal/domain"
	"github.com/pazarly/search-service/internal/index/elasticsearch"
	"github.com/pazarly/search-service/pkg/pagination"
)

// newIntegrationIndex creates a throwaway listings index on a real
// Elasticsearch node. It skips the test if ELASTICSEARCH_URL is not set.
func newIntegrationIndex(t *testing.T) (*elasticsearch.Store, string) {
	t.Helper()

	esURL := os.Getenv("ELASTICSEARCH_URL")
	if esURL == "" {
		t.Skip("ELASTICSEARCH_URL not set — skipping Elasticsearch integration tests")
	}

	store, err := elasticsearch.New(esURL, testLogger())
	require.NoError(t, err)

	// Unique index per run to avoid data conflicts between test invocations.
	indexName := fmt.Sprintf("test_listings_%d", time.Now().UnixNano())
	mapping := elasticsearch.MappingFor(domain.IndexListings)
	require.NoError(t, store.EnsureIndex(context.Background(), indexName, mapping))

	t.Cleanup(func() {
		_ = store.DeleteIndex(context.Background(), indexName)
	})

	return store, indexName
}

func seedListing(t *testing.T, store *elasticsearch.Store, idx string, doc domain.StoreDocument) {
	t.Helper()
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	require.NoError(t, store.Upsert(context.Background(), idx, doc.ID, doc))
}

// TestESBoostLadderRanking verifies the observed ranking, not just the query
// shape: an exact name hit must outrank a phrase hit, which must outrank a
// fuzzy-only hit, and non-active listings must never surface.
func TestESBoostLadderRanking(t *testing.T) {
	store, idx := newIntegrationIndex(t)

	seedListing(t, store, idx, domain.StoreDocument{
		ID: "lst-exact", Name: "wireless keyboard", Status: domain.StatusActive,
	})
	seedListing(t, store, idx, domain.StoreDocument{
		ID: "lst-phrase", Name: "wireless keyboard stand", Status: domain.StatusActive,
	})
	seedListing(t, store, idx, domain.StoreDocument{
		ID: "lst-fuzzy", Name: "wireles keybord", Status: domain.StatusActive,
	})
	seedListing(t, store, idx, domain.StoreDocument{
		ID: "lst-passive", Name: "wireless keyboard", Status: "passive",
	})

	body := BuildListingQuery(domain.SearchParams{Query: "wireless keyboard"}, pagination.DefaultParams())
	res, err := store.Search(context.Background(), idx, body)
	require.NoError(t, err)

	var ids []string
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	assert.Equal(t, []string{"lst-exact", "lst-phrase", "lst-fuzzy"}, ids)

	require.Len(t, res.Hits, 3)
	assert.Greater(t, res.Hits[0].Score, res.Hits[1].Score, "exact keyword hit outranks phrase hit")
	assert.Greater(t, res.Hits[1].Score, res.Hits[2].Score, "phrase hit outranks fuzzy-only hit")
}

// TestESFilteredBrowseFacet verifies the filter clauses and the sub-category
// aggregation against a real node.
func TestESFilteredBrowseFacet(t *testing.T) {
	store, idx := newIntegrationIndex(t)

	seedListing(t, store, idx, domain.StoreDocument{
		ID: "lst-1", Name: "Mechanical Keyboard", Status: domain.StatusActive,
		CategorySlug: "electronics", SubCategorySlug: "peripherals",
	})
	seedListing(t, store, idx, domain.StoreDocument{
		ID: "lst-2", Name: "Gaming Headset", Status: domain.StatusActive,
		CategorySlug: "electronics", SubCategorySlug: "audio",
	})
	seedListing(t, store, idx, domain.StoreDocument{
		ID: "lst-3", Name: "Linen Shirt", Status: domain.StatusActive,
		CategorySlug: "apparel", SubCategorySlug: "tops",
	})

	body := BuildListingQuery(domain.SearchParams{CategorySlug: "electronics"}, pagination.DefaultParams())
	res, err := store.Search(context.Background(), idx, body)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	var keys []string
	for _, b := range res.Buckets[subCategoryAgg] {
		keys = append(keys, b.Key)
	}
	assert.ElementsMatch(t, []string{"peripherals", "audio"}, keys)
}
