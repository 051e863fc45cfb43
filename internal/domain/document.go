package domain

import (
	"time"
)

// Index names. Each entity kind lives in its own index; the field mapping is
// created once at bootstrap and never migrated in place.
const (
	IndexListings      = "listings"
	IndexArticles      = "articles"
	IndexRankingSlots  = "ranking-slots"
	IndexSearchHistory = "search-history"
	IndexSearchStats   = "search-stats"
)

// Listing statuses. Non-active listings never appear in query results.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// StoreDocument is the denormalized index projection of one catalog listing.
// The authoritative record lives in the relational store; this document is
// used only for scoring and filtering.
type StoreDocument struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Subtitle        string    `json:"subtitle"`
	RatingAvg       float64   `json:"rating_avg"`
	RatingCount     int       `json:"rating_count"`
	SoldCount       int       `json:"sold_count"`
	StockCount      int       `json:"stock_count"`
	Slug            string    `json:"slug"`
	Status          string    `json:"status"`
	CategorySlug    string    `json:"category_slug"`
	SubCategorySlug string    `json:"sub_category_slug"`
	CategoryType    string    `json:"category_type"`
	Classify        string    `json:"classify"`
	Duplicate       bool      `json:"duplicate"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BlogDocument is the index projection of one published article.
type BlogDocument struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// PositionDocument is the index projection of one paid ranking slot.
// Rank is derived from the slot name and used only for display ordering
// within a category, never for relevance scoring.
type PositionDocument struct {
	ID           string   `json:"id"`
	CategorySlug string   `json:"category_slug"`
	Type         string   `json:"type"`
	Rank         int      `json:"rank"`
	WinnerIDs    []string `json:"winner_ids"`
	Status       string   `json:"status"`
	Description  string   `json:"description"`
}

// SearchHistoryDocument tracks one (user, normalized query) pair.
// Uniqueness is (UserID, Content); Content is always trimmed and
// whitespace-collapsed before comparison or storage.
type SearchHistoryDocument struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchStatsDocument tracks one normalized query globally.
// Its document id is the normalized content itself.
type SearchStatsDocument struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Suggestion types. A suggestion is tagged "history" when it also appears in
// the caller's own history set.
const (
	SuggestionHistory = "history"
	SuggestionGeneric = "suggestion"
)

// Suggestion is one entry of a composed suggestion list.
type Suggestion struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}
