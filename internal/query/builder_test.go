package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pazarly/search-service/internal/domain"
	"github.com/pazarly/search-service/pkg/pagination"
)

func boolSection(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	query, ok := body["query"].(map[string]any)
	require.True(t, ok)
	boolQuery, ok := query["bool"].(map[string]any)
	require.True(t, ok)
	return boolQuery
}

func TestBuildListingQueryBoostLadder(t *testing.T) {
	body := BuildListingQuery(
		domain.SearchParams{Query: "wireless keyboard"},
		pagination.Params{Page: 1, Limit: 20},
	)

	boolQuery := boolSection(t, body)
	should, ok := boolQuery["should"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, should, 8, "four tiers per searchable field")
	assert.Equal(t, 1, boolQuery["minimum_should_match"])

	// Tier order and boosts for the name field.
	keyword := should[0]["term"].(map[string]any)["name.keyword"].(map[string]any)
	assert.Equal(t, boostKeyword, keyword["boost"])

	phrase := should[1]["match_phrase"].(map[string]any)["name"].(map[string]any)
	assert.Equal(t, boostPhrase, phrase["boost"])
	assert.Equal(t, 0, phrase["slop"])

	fuzzyAnd := should[2]["match"].(map[string]any)["name"].(map[string]any)
	assert.Equal(t, boostFuzzyAnd, fuzzyAnd["boost"])
	assert.Equal(t, "and", fuzzyAnd["operator"])
	assert.Equal(t, "70%", fuzzyAnd["minimum_should_match"])

	fuzzyOr := should[3]["match"].(map[string]any)["name"].(map[string]any)
	assert.Equal(t, boostFuzzyOr, fuzzyOr["boost"])
	assert.Equal(t, "or", fuzzyOr["operator"])

	// Second field follows the same ladder.
	subtitleKeyword := should[4]["term"].(map[string]any)["subtitle.keyword"].(map[string]any)
	assert.Equal(t, boostKeyword, subtitleKeyword["boost"])
}

func TestBuildListingQueryMatchAllWithoutTerm(t *testing.T) {
	body := BuildListingQuery(domain.SearchParams{}, pagination.DefaultParams())

	boolQuery := boolSection(t, body)
	assert.NotContains(t, boolQuery, "should")
	must, ok := boolQuery["must"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, must, 1)
	assert.Contains(t, must[0], "match_all")
}

func TestBuildListingQueryAlwaysFiltersActiveStatus(t *testing.T) {
	for name, params := range map[string]domain.SearchParams{
		"match all":     {},
		"text query":    {Query: "keyboard"},
		"with filters":  {CategorySlug: "electronics", Classify: "physical"},
		"sub-category":  {SubCategorySlugs: []string{"peripherals", "audio"}},
		"type filtered": {Type: "product"},
	} {
		t.Run(name, func(t *testing.T) {
			body := BuildListingQuery(params, pagination.DefaultParams())
			filters := boolSection(t, body)["filter"].([]map[string]any)
			assert.Equal(t, map[string]any{
				"term": map[string]any{"status": domain.StatusActive},
			}, filters[0], "active status filter must always be first")
		})
	}
}

func TestBuildListingQueryFilters(t *testing.T) {
	body := BuildListingQuery(domain.SearchParams{
		Type:             "product",
		CategorySlug:     "electronics",
		SubCategorySlugs: []string{"peripherals", "audio"},
		Classify:         "physical",
	}, pagination.DefaultParams())

	filters := boolSection(t, body)["filter"].([]map[string]any)
	require.Len(t, filters, 5)
	assert.Contains(t, filters, map[string]any{
		"terms": map[string]any{"sub_category_slug": []string{"peripherals", "audio"}},
	})
	assert.Contains(t, filters, map[string]any{
		"term": map[string]any{"category_type": "product"},
	})
}

func TestBuildListingQuerySingleSubCategoryUsesTerm(t *testing.T) {
	body := BuildListingQuery(domain.SearchParams{
		SubCategorySlugs: []string{"peripherals"},
	}, pagination.DefaultParams())

	filters := boolSection(t, body)["filter"].([]map[string]any)
	assert.Contains(t, filters, map[string]any{
		"term": map[string]any{"sub_category_slug": "peripherals"},
	})
}

func TestBuildListingQueryPagination(t *testing.T) {
	body := BuildListingQuery(domain.SearchParams{}, pagination.Params{Page: 3, Limit: 10})
	assert.Equal(t, 20, body["from"])
	assert.Equal(t, 10, body["size"])
}

func TestBuildWinnersQuery(t *testing.T) {
	body := BuildWinnersQuery("electronics", "product")

	query := body["query"].(map[string]any)["bool"].(map[string]any)
	filters := query["filter"].([]map[string]any)
	require.Len(t, filters, 3)
	assert.Equal(t, map[string]any{
		"term": map[string]any{"status": domain.StatusActive},
	}, filters[0])

	sort := body["sort"].([]map[string]any)
	require.Len(t, sort, 1)
	assert.Equal(t, "asc", sort[0]["rank"])
}

func TestBuildArticleQueryUsesTitleLadder(t *testing.T) {
	body := BuildArticleQuery("vpn guide", pagination.DefaultParams())

	boolQuery := boolSection(t, body)
	should, ok := boolQuery["should"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, should, 4)
	keyword := should[0]["term"].(map[string]any)["title.keyword"].(map[string]any)
	assert.Equal(t, boostKeyword, keyword["boost"])
}
