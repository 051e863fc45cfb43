package elasticsearch

import "github.com/pazarly/search-service/internal/domain"

// MappingFor returns the index mapping for the given index name, or an empty
// string for an unknown index. Mappings are fixed at bootstrap time; changing
// a schema requires an out-of-band reindex.
func MappingFor(name string) string {
	switch name {
	case domain.IndexListings:
		return listingsMapping
	case domain.IndexArticles:
		return articlesMapping
	case domain.IndexRankingSlots:
		return rankingSlotsMapping
	case domain.IndexSearchHistory:
		return searchHistoryMapping
	case domain.IndexSearchStats:
		return searchStatsMapping
	default:
		return ""
	}
}

const indexSettings = `"settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  }`

// listingsMapping indexes the searchable listing fields as analyzed text with
// keyword subfields so exact-equality clauses can outrank analyzed matches.
const listingsMapping = `{
  ` + indexSettings + `,
  "mappings": {
    "properties": {
      "id":                { "type": "keyword" },
      "name":              { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "subtitle":          { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "rating_avg":        { "type": "double" },
      "rating_count":      { "type": "integer" },
      "sold_count":        { "type": "integer" },
      "stock_count":       { "type": "integer" },
      "slug":              { "type": "keyword" },
      "status":            { "type": "keyword" },
      "category_slug":     { "type": "keyword" },
      "sub_category_slug": { "type": "keyword" },
      "category_type":     { "type": "keyword" },
      "classify":          { "type": "keyword" },
      "duplicate":         { "type": "boolean" },
      "created_at":        { "type": "date" },
      "updated_at":        { "type": "date" }
    }
  }
}`

const articlesMapping = `{
  ` + indexSettings + `,
  "mappings": {
    "properties": {
      "id":         { "type": "keyword" },
      "title":      { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "slug":       { "type": "keyword" },
      "tags":       { "type": "keyword" },
      "created_at": { "type": "date" }
    }
  }
}`

const rankingSlotsMapping = `{
  ` + indexSettings + `,
  "mappings": {
    "properties": {
      "id":            { "type": "keyword" },
      "category_slug": { "type": "keyword" },
      "type":          { "type": "keyword" },
      "rank":          { "type": "integer" },
      "winner_ids":    { "type": "keyword" },
      "status":        { "type": "keyword" },
      "description":   { "type": "text" }
    }
  }
}`

const searchHistoryMapping = `{
  ` + indexSettings + `,
  "mappings": {
    "properties": {
      "id":         { "type": "keyword" },
      "user_id":    { "type": "keyword" },
      "content":    { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "count":      { "type": "integer" },
      "updated_at": { "type": "date" }
    }
  }
}`

const searchStatsMapping = `{
  ` + indexSettings + `,
  "mappings": {
    "properties": {
      "id":         { "type": "keyword" },
      "content":    { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "count":      { "type": "integer" },
      "updated_at": { "type": "date" }
    }
  }
}`
