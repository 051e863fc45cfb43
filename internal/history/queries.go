package history

import "github.com/pazarly/search-service/internal/domain"

// historyFetchSize bounds the caller-history lookup used for suggestion
// composition and tagging. Only the first historySuggestionCap entries fill
// suggestion slots; the rest only inform the history/suggestion tag.
const historyFetchSize = 10

// buildListHistoryQuery returns the caller's history entries ordered by
// count, then recency.
func buildListHistoryQuery(userID string, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []map[string]any{
					{"term": map[string]any{"user_id": userID}},
				},
			},
		},
		"size": size,
		"sort": []map[string]any{
			{"count": "desc"},
			{"updated_at": "desc"},
		},
	}
}

// buildHistoryMatchQuery finds the caller's history entries whose content
// prefix-matches the typed term.
func buildHistoryMatchQuery(userID, term string, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []map[string]any{
					{"term": map[string]any{"user_id": userID}},
				},
				"must": []map[string]any{
					{"match_phrase_prefix": map[string]any{"content": term}},
				},
			},
		},
		"size": size,
		"sort": []map[string]any{
			{"count": "desc"},
			{"updated_at": "desc"},
		},
	}
}

// buildStatsMatchQuery finds global stats entries prefix-matching the typed
// term, most searched first. An empty term lists all stats, which also
// serves the top-searched lookup.
func buildStatsMatchQuery(term string, size int) map[string]any {
	query := map[string]any{"match_all": map[string]any{}}
	if term != "" {
		query = map[string]any{
			"match_phrase_prefix": map[string]any{"content": term},
		}
	}
	return map[string]any{
		"query": query,
		"size":  size,
		"sort": []map[string]any{
			{"count": "desc"},
			{"updated_at": "desc"},
		},
	}
}

// buildListingNameQuery finds active listings whose name prefix-matches the
// typed term, best rated first.
func buildListingNameQuery(term string, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []map[string]any{
					{"term": map[string]any{"status": domain.StatusActive}},
				},
				"must": []map[string]any{
					{"match_phrase_prefix": map[string]any{"name": term}},
				},
			},
		},
		"size": size,
		"sort": []map[string]any{
			{"rating_avg": "desc"},
		},
	}
}
