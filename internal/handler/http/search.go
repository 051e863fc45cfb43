// Package http exposes the search, history, suggestion, and webhook endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pazarly/search-service/internal/domain"
	"github.com/pazarly/search-service/internal/query"
	"github.com/pazarly/search-service/pkg/httputil"
	"github.com/pazarly/search-service/pkg/pagination"
)

// Searcher is the query engine surface the search handler needs.
type Searcher interface {
	Search(ctx context.Context, p domain.SearchParams) (*query.Result, error)
	SearchArticles(ctx context.Context, term string, page pagination.Params) (*query.ArticleResult, error)
}

// SearchHandler serves catalog and article search requests.
type SearchHandler struct {
	engine Searcher
	logger *slog.Logger
}

// NewSearchHandler creates a search handler.
func NewSearchHandler(engine Searcher, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{engine: engine, logger: logger}
}

// Search handles GET /api/v1/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	q := r.URL.Query()

	params := domain.SearchParams{
		Query:            strings.TrimSpace(q.Get("query")),
		Type:             q.Get("type"),
		CategorySlug:     q.Get("category"),
		SubCategorySlugs: splitMulti(q.Get("subCategory")),
		Classify:         q.Get("classify"),
		Page:             page.Page,
		Limit:            page.Limit,
	}

	result, err := h.engine.Search(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// SearchArticles handles GET /api/v1/search/articles.
func (h *SearchHandler) SearchArticles(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	term := strings.TrimSpace(r.URL.Query().Get("query"))

	result, err := h.engine.SearchArticles(r.Context(), term, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// splitMulti parses a comma-separated multi-value filter, dropping empty
// segments.
func splitMulti(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
