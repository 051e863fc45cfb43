package query

import (
	"github.com/pazarly/search-service/internal/domain"
	"github.com/pazarly/search-service/pkg/pagination"
)

// Boost ladder for free-text clauses. Exact and phrase hits must outrank
// loose fuzzy hits regardless of term frequency.
const (
	boostKeyword  = 10.0
	boostPhrase   = 6.0
	boostFuzzyAnd = 3.0
	boostFuzzyOr  = 1.0
)

// subCategoryAgg is the terms aggregation name for the sub-category facet.
const subCategoryAgg = "sub_categories"

// winnersPageSize bounds the number of ranking slots consulted per lookup.
const winnersPageSize = 50

// BuildListingQuery constructs the listing search body: a tiered should
// ladder per searchable field when a term is present, exact-match filter
// clauses for the rest, and the sub-category facet aggregation.
func BuildListingQuery(p domain.SearchParams, page pagination.Params) map[string]any {
	boolQuery := map[string]any{
		"filter": listingFilters(p),
	}

	if p.HasTextQuery() {
		var should []map[string]any
		for _, field := range []string{"name", "subtitle"} {
			should = append(should, fieldClauses(field, p.Query)...)
		}
		boolQuery["should"] = should
		boolQuery["minimum_should_match"] = 1
	} else {
		boolQuery["must"] = []map[string]any{
			{"match_all": map[string]any{}},
		}
	}

	return map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"from":  page.Offset(),
		"size":  page.Limit,
		"sort": []map[string]any{
			{"_score": "desc"},
			{"rating_avg": "desc"},
		},
		"aggs": map[string]any{
			subCategoryAgg: map[string]any{
				"terms": map[string]any{
					"field": "sub_category_slug",
					"size":  winnersPageSize,
				},
			},
		},
		"_source": false,
		"track_total_hits": true,
	}
}

// BuildArticleQuery constructs the article search body over the title field.
func BuildArticleQuery(term string, page pagination.Params) map[string]any {
	boolQuery := map[string]any{}

	if term != "" {
		boolQuery["should"] = fieldClauses("title", term)
		boolQuery["minimum_should_match"] = 1
	} else {
		boolQuery["must"] = []map[string]any{
			{"match_all": map[string]any{}},
		}
	}

	return map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"from":  page.Offset(),
		"size":  page.Limit,
		"sort": []map[string]any{
			{"_score": "desc"},
			{"created_at": "desc"},
		},
		"track_total_hits": true,
	}
}

// BuildWinnersQuery constructs the ranking-slot lookup for the given scope:
// active slots only, ordered by their derived display rank.
func BuildWinnersQuery(categorySlug, slotType string) map[string]any {
	filters := []map[string]any{
		{"term": map[string]any{"status": domain.StatusActive}},
	}
	if categorySlug != "" {
		filters = append(filters, map[string]any{
			"term": map[string]any{"category_slug": categorySlug},
		})
	}
	if slotType != "" {
		filters = append(filters, map[string]any{
			"term": map[string]any{"type": slotType},
		})
	}

	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{"filter": filters},
		},
		"size": winnersPageSize,
		"sort": []map[string]any{
			{"rank": "asc"},
		},
	}
}

// fieldClauses returns the four-tier boost ladder for one searchable field,
// in descending boost order: exact keyword equality, zero-slop phrase,
// AND-combined fuzzy requiring 70% term overlap, OR-combined fuzzy.
func fieldClauses(field, term string) []map[string]any {
	return []map[string]any{
		{
			"term": map[string]any{
				field + ".keyword": map[string]any{
					"value": term,
					"boost": boostKeyword,
				},
			},
		},
		{
			"match_phrase": map[string]any{
				field: map[string]any{
					"query": term,
					"slop":  0,
					"boost": boostPhrase,
				},
			},
		},
		{
			"match": map[string]any{
				field: map[string]any{
					"query":                term,
					"operator":             "and",
					"minimum_should_match": "70%",
					"fuzziness":            "AUTO",
					"boost":                boostFuzzyAnd,
				},
			},
		},
		{
			"match": map[string]any{
				field: map[string]any{
					"query":     term,
					"operator":  "or",
					"fuzziness": "AUTO",
					"boost":     boostFuzzyOr,
				},
			},
		},
	}
}

// listingFilters returns the non-scoring exact-match filter clauses. The
// status=active filter is always present regardless of caller-supplied
// filters, so non-active listings never appear in results.
func listingFilters(p domain.SearchParams) []map[string]any {
	filters := []map[string]any{
		{"term": map[string]any{"status": domain.StatusActive}},
	}

	if p.Type != "" {
		filters = append(filters, map[string]any{
			"term": map[string]any{"category_type": p.Type},
		})
	}
	if p.CategorySlug != "" {
		filters = append(filters, map[string]any{
			"term": map[string]any{"category_slug": p.CategorySlug},
		})
	}
	if len(p.SubCategorySlugs) == 1 {
		filters = append(filters, map[string]any{
			"term": map[string]any{"sub_category_slug": p.SubCategorySlugs[0]},
		})
	} else if len(p.SubCategorySlugs) > 1 {
		filters = append(filters, map[string]any{
			"terms": map[string]any{"sub_category_slug": p.SubCategorySlugs},
		})
	}
	if p.Classify != "" {
		filters = append(filters, map[string]any{
			"term": map[string]any{"classify": p.Classify},
		})
	}

	return filters
}
