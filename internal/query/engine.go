// Package query executes relevance-ranked catalog searches: free-text
// scoring with a tiered boost ladder, exact-match filters, sponsored-slot
// interleaving, and hydration of result ids from the authoritative source.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pazarly/search-service/internal/domain"
	"github.com/pazarly/search-service/internal/index"
	"github.com/pazarly/search-service/internal/repository"
	apperrors "github.com/pazarly/search-service/pkg/errors"
	"github.com/pazarly/search-service/pkg/pagination"
)

// ResultItem is one hydrated listing in a search result page.
type ResultItem struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Subtitle        string  `json:"subtitle"`
	Slug            string  `json:"slug"`
	RatingAvg       float64 `json:"ratingAvg"`
	RatingCount     int     `json:"ratingCount"`
	SoldCount       int     `json:"soldCount"`
	StockCount      int     `json:"stockCount"`
	CategorySlug    string  `json:"categorySlug"`
	SubCategorySlug string  `json:"subCategorySlug"`
	CategoryType    string  `json:"categoryType"`
	Classify        string  `json:"classify"`
	IsSponsor       bool    `json:"isSponsor"`
}

// Result is one listing search result page.
type Result struct {
	Items         []ResultItem    `json:"results"`
	SubCategories []string        `json:"subCategories"`
	Pagination    pagination.Meta `json:"pagination"`
}

// ArticleItem is one article hit. Articles are served straight from their
// index projection; there is no relational hydration step.
type ArticleItem struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Slug  string   `json:"slug"`
	Tags  []string `json:"tags"`
}

// ArticleResult is one article search result page.
type ArticleResult struct {
	Items      []ArticleItem   `json:"results"`
	Pagination pagination.Meta `json:"pagination"`
}

// Engine runs searches against the index store and hydrates listing results
// from the authoritative relational source.
type Engine struct {
	store    index.Store
	listings repository.ListingSource
	logger   *slog.Logger
}

// New creates a query engine.
func New(store index.Store, listings repository.ListingSource, logger *slog.Logger) *Engine {
	return &Engine{store: store, listings: listings, logger: logger}
}

// Search runs one catalog search. When the request is a filtered browse
// (no free-text term, category or type filter present) the active ranking
// slot winners for that scope are placed first in slot rank order, flagged
// as sponsored, and deduplicated against the organic tail. Winners lead the
// first page only; later pages serve the plain organic tail so the sponsor
// block is not repeated on every page. Any free-text term disables sponsored
// placement entirely.
func (e *Engine) Search(ctx context.Context, p domain.SearchParams) (*Result, error) {
	page := pagination.DefaultParams()
	if p.Page > 0 {
		page.Page = p.Page
	}
	if p.Limit > 0 {
		page.Limit = p.Limit
		if page.Limit > pagination.MaxLimit {
			page.Limit = pagination.MaxLimit
		}
	}

	res, err := e.store.Search(ctx, domain.IndexListings, BuildListingQuery(p, page))
	if err != nil {
		return nil, apperrors.Unavailable("search backend unavailable", err)
	}

	organic := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		organic = append(organic, hit.ID)
	}

	var winners []string
	if page.Page == 1 && !p.HasTextQuery() && p.HasScopeFilter() {
		winners, err = e.fetchWinners(ctx, p.CategorySlug, p.Type)
		if err != nil {
			// Sponsored placement is additive; a slot lookup failure must not
			// take down organic results.
			e.logger.Warn("ranking slot lookup failed, serving organic only",
				slog.String("category", p.CategorySlug),
				slog.String("type", p.Type),
				slog.String("error", err.Error()),
			)
			winners = nil
		}
	}

	ordered, sponsored := interleave(winners, organic)

	items, err := e.hydrate(ctx, ordered, sponsored)
	if err != nil {
		return nil, err
	}

	return &Result{
		Items:         items,
		SubCategories: bucketKeys(res.Buckets[subCategoryAgg]),
		Pagination:    pagination.NewMeta(res.Total, page),
	}, nil
}

// SearchArticles runs one article search over titles.
func (e *Engine) SearchArticles(ctx context.Context, term string, page pagination.Params) (*ArticleResult, error) {
	res, err := e.store.Search(ctx, domain.IndexArticles, BuildArticleQuery(term, page))
	if err != nil {
		return nil, apperrors.Unavailable("search backend unavailable", err)
	}

	items := make([]ArticleItem, 0, len(res.Hits))
	for _, hit := range res.Hits {
		var doc domain.BlogDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			e.logger.Warn("skipping undecodable article hit", slog.String("id", hit.ID))
			continue
		}
		tags := doc.Tags
		if tags == nil {
			tags = []string{}
		}
		items = append(items, ArticleItem{ID: doc.ID, Title: doc.Title, Slug: doc.Slug, Tags: tags})
	}

	return &ArticleResult{
		Items:      items,
		Pagination: pagination.NewMeta(res.Total, page),
	}, nil
}

// fetchWinners returns the winner listing ids for the active ranking slots
// matching the scope, in ascending slot rank order, deduplicated.
func (e *Engine) fetchWinners(ctx context.Context, categorySlug, slotType string) ([]string, error) {
	res, err := e.store.Search(ctx, domain.IndexRankingSlots, BuildWinnersQuery(categorySlug, slotType))
	if err != nil {
		return nil, fmt.Errorf("ranking slot search: %w", err)
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, hit := range res.Hits {
		var slot domain.PositionDocument
		if err := json.Unmarshal(hit.Source, &slot); err != nil {
			e.logger.Warn("skipping undecodable ranking slot", slog.String("id", hit.ID))
			continue
		}
		if slot.Status != domain.StatusActive {
			continue
		}
		for _, id := range slot.WinnerIDs {
			if _, dup := seen[id]; dup || id == "" {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// interleave places winners first and appends the organic ids that are not
// already covered by a winner. It returns the combined order and the set of
// sponsored ids.
func interleave(winners, organic []string) ([]string, map[string]struct{}) {
	sponsored := make(map[string]struct{}, len(winners))
	ordered := make([]string, 0, len(winners)+len(organic))

	for _, id := range winners {
		sponsored[id] = struct{}{}
		ordered = append(ordered, id)
	}
	for _, id := range organic {
		if _, dup := sponsored[id]; dup {
			continue
		}
		ordered = append(ordered, id)
	}
	return ordered, sponsored
}

// hydrate resolves the ordered id list against the authoritative source,
// preserving order. Ids that no longer resolve are silently omitted; the
// index lags the source of truth and a stale hit is not the caller's problem.
func (e *Engine) hydrate(ctx context.Context, ids []string, sponsored map[string]struct{}) ([]ResultItem, error) {
	if len(ids) == 0 {
		return []ResultItem{}, nil
	}

	rows, err := e.listings.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("listing hydration: %w", err))
	}

	byID := make(map[string]repository.ListingRow, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	items := make([]ResultItem, 0, len(ids))
	for _, id := range ids {
		row, ok := byID[id]
		if !ok {
			continue
		}
		_, isSponsor := sponsored[id]
		items = append(items, ResultItem{
			ID:              row.ID,
			Name:            row.Name,
			Subtitle:        row.Subtitle,
			Slug:            row.Slug,
			RatingAvg:       row.RatingAvg,
			RatingCount:     row.RatingCount,
			SoldCount:       row.SoldCount,
			StockCount:      row.StockCount,
			CategorySlug:    row.CategorySlug,
			SubCategorySlug: row.SubCategorySlug,
			CategoryType:    row.CategoryType,
			Classify:        row.Classify,
			IsSponsor:       isSponsor,
		})
	}
	return items, nil
}

// bucketKeys flattens aggregation buckets into their keys, preserving order.
func bucketKeys(buckets []index.Bucket) []string {
	keys := make([]string, 0, len(buckets))
	for _, b := range buckets {
		keys = append(keys, b.Key)
	}
	return keys
}
