package postgres

import (
	"context"
	"fmt"

	"github.com/pazarly/search-service/internal/repository"
	"github.com/pazarly/search-service/pkg/database"
)

// ArticleRepository implements repository.ArticleSource using PostgreSQL.
type ArticleRepository struct {
	pool database.DBTX
}

// NewArticleRepository creates a new PostgreSQL-backed article source.
func NewArticleRepository(pool database.DBTX) *ArticleRepository {
	return &ArticleRepository{pool: pool}
}

// ListPage returns up to limit published articles starting at offset, ordered by id.
func (r *ArticleRepository) ListPage(ctx context.Context, limit, offset int) ([]repository.ArticleRow, error) {
	query := `
		SELECT id, title, slug, tags, created_at
		FROM articles
		WHERE published_at IS NOT NULL
		ORDER BY id
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list articles page: %w", err)
	}
	defer rows.Close()

	var articles []repository.ArticleRow
	for rows.Next() {
		var a repository.ArticleRow
		if err := rows.Scan(&a.ID, &a.Title, &a.Slug, &a.Tags, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan article row: %w", err)
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate article rows: %w", err)
	}

	return articles, nil
}
