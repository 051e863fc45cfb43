package repository

import (
	"context"
	"time"
)

// ListingRow is one catalog listing as stored in the authoritative relational
// source. Field naming follows the relational schema; the document mapper
// converts rows into canonical index documents.
type ListingRow struct {
	ID              string
	Name            string
	Subtitle        string
	RatingAvg       float64
	RatingCount     int
	SoldCount       int
	StockCount      int
	Slug            string
	Status          string
	CategorySlug    string
	SubCategorySlug string
	CategoryType    string
	Classify        string
	Duplicate       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ArticleRow is one published article row.
type ArticleRow struct {
	ID        string
	Title     string
	Slug      string
	Tags      []string
	CreatedAt time.Time
}

// SlotRow is one paid ranking slot row. The numeric rank is not stored
// relationally; the mapper derives it from Name.
type SlotRow struct {
	ID           string
	Name         string
	CategorySlug string
	Type         string
	WinnerIDs    []string
	Status       string
	Description  string
}

// ListingSource provides paged access to listings for bulk resync and
// id-set hydration for query results.
type ListingSource interface {
	// ListPage returns up to limit listings starting at offset, ordered by id.
	// An empty page signals the end of the dataset.
	ListPage(ctx context.Context, limit, offset int) ([]ListingRow, error)

	// FindByIDs returns the listings for the given id set, in no particular
	// order. Ids that do not resolve are silently absent from the result.
	FindByIDs(ctx context.Context, ids []string) ([]ListingRow, error)
}

// ArticleSource provides paged access to published articles for bulk resync.
type ArticleSource interface {
	ListPage(ctx context.Context, limit, offset int) ([]ArticleRow, error)
}

// SlotSource provides paged access to ranking slots for bulk resync.
type SlotSource interface {
	ListPage(ctx context.Context, limit, offset int) ([]SlotRow, error)
}
