package postgres

import (
	"context"
	"fmt"

	"github.com/pazarly/search-service/internal/repository"
	"github.com/pazarly/search-service/pkg/database"
)

// SlotRepository implements repository.SlotSource using PostgreSQL.
type SlotRepository struct {
	pool database.DBTX
}

// NewSlotRepository creates a new PostgreSQL-backed ranking slot source.
func NewSlotRepository(pool database.DBTX) *SlotRepository {
	return &SlotRepository{pool: pool}
}

// ListPage returns up to limit ranking slots starting at offset, ordered by id.
func (r *SlotRepository) ListPage(ctx context.Context, limit, offset int) ([]repository.SlotRow, error) {
	query := `
		SELECT id, name, category_slug, type, winner_ids, status, description
		FROM ranking_slots
		ORDER BY id
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ranking slots page: %w", err)
	}
	defer rows.Close()

	var slots []repository.SlotRow
	for rows.Next() {
		var s repository.SlotRow
		if err := rows.Scan(&s.ID, &s.Name, &s.CategorySlug, &s.Type, &s.WinnerIDs, &s.Status, &s.Description); err != nil {
			return nil, fmt.Errorf("scan ranking slot row: %w", err)
		}
		slots = append(slots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranking slot rows: %w", err)
	}

	return slots, nil
}
