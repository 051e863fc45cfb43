package postgres

import (
	"context"
	"fmt"

	"github.com/pazarly/search-service/internal/repository"
	"github.com/pazarly/search-service/pkg/database"
)

// ListingRepository implements repository.ListingSource using PostgreSQL.
type ListingRepository struct {
	pool database.DBTX
}

// NewListingRepository creates a new PostgreSQL-backed listing source.
func NewListingRepository(pool database.DBTX) *ListingRepository {
	return &ListingRepository{pool: pool}
}

const listingColumns = `id, name, subtitle, rating_avg, rating_count, sold_count,
	   stock_count, slug, status, category_slug, sub_category_slug,
	   category_type, classify, duplicate, created_at, updated_at`

// ListPage returns up to limit listings starting at offset, ordered by id.
func (r *ListingRepository) ListPage(ctx context.Context, limit, offset int) ([]repository.ListingRow, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings
		ORDER BY id
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list listings page: %w", err)
	}
	defer rows.Close()

	var listings []repository.ListingRow
	for rows.Next() {
		var l repository.ListingRow
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Subtitle, &l.RatingAvg, &l.RatingCount,
			&l.SoldCount, &l.StockCount, &l.Slug, &l.Status, &l.CategorySlug,
			&l.SubCategorySlug, &l.CategoryType, &l.Classify, &l.Duplicate,
			&l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan listing row: %w", err)
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listing rows: %w", err)
	}

	return listings, nil
}

// FindByIDs returns listings for the given id set in no particular order.
// Ids that do not resolve are silently absent from the result.
func (r *ListingRepository) FindByIDs(ctx context.Context, ids []string) ([]repository.ListingRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("find listings by ids: %w", err)
	}
	defer rows.Close()

	var listings []repository.ListingRow
	for rows.Next() {
		var l repository.ListingRow
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Subtitle, &l.RatingAvg, &l.RatingCount,
			&l.SoldCount, &l.StockCount, &l.Slug, &l.Status, &l.CategorySlug,
			&l.SubCategorySlug, &l.CategoryType, &l.Classify, &l.Duplicate,
			&l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan listing row: %w", err)
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listing rows: %w", err)
	}

	return listings, nil
}
