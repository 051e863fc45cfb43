package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pazarly/search-service/internal/domain"
	"github.com/pazarly/search-service/internal/history"
	apperrors "github.com/pazarly/search-service/pkg/errors"
	"github.com/pazarly/search-service/pkg/httputil"
	"github.com/pazarly/search-service/pkg/middleware"
	"github.com/pazarly/search-service/pkg/validator"
)

// HistoryService is the history engine surface the handler needs.
type HistoryService interface {
	RecordSearch(ctx context.Context, userID, content, clientIP string) error
	ListHistory(ctx context.Context, userID string) ([]history.Entry, error)
	DeleteHistory(ctx context.Context, userID, historyID string) error
	Suggest(ctx context.Context, term, userID string, limit int) ([]domain.Suggestion, error)
	TopStats(ctx context.Context, limit int) ([]history.StatsEntry, error)
}

// topStatsLimit is the fixed size of the public top-searched endpoint.
const topStatsLimit = 3

// HistoryHandler serves the search-history, suggestion, and stats endpoints.
type HistoryHandler struct {
	service HistoryService
	logger  *slog.Logger
}

// NewHistoryHandler creates a history handler.
func NewHistoryHandler(service HistoryService, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{service: service, logger: logger}
}

type recordSearchRequest struct {
	Content string `json:"content" validate:"required"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// Record handles POST /api/v1/search-history.
func (h *HistoryHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req recordSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body"), h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	if err := h.service.RecordSearch(r.Context(), userID, req.Content, clientIP(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

// List handles GET /api/v1/search-history.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListHistory(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]history.Entry{"histories": entries})
}

// Delete handles DELETE /api/v1/search-history/{id}.
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("history id is required"), h.logger)
		return
	}

	if err := h.service.DeleteHistory(r.Context(), middleware.UserIDFromContext(r.Context()), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

// Suggestions handles the public GET /api/v1/search-suggestions.
func (h *HistoryHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	h.suggest(w, r, "")
}

// UserSuggestions handles the authenticated GET /api/v1/user-search-suggestions.
func (h *HistoryHandler) UserSuggestions(w http.ResponseWriter, r *http.Request) {
	h.suggest(w, r, middleware.UserIDFromContext(r.Context()))
}

func (h *HistoryHandler) suggest(w http.ResponseWriter, r *http.Request, userID string) {
	q := r.URL.Query()
	limit := history.DefaultSuggestionLimit
	if raw := q.Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	suggestions, err := h.service.Suggest(r.Context(), q.Get("query"), userID, limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]domain.Suggestion{"suggestions": suggestions})
}

// TopStats handles GET /api/v1/search-stats/top3.
func (h *HistoryHandler) TopStats(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.TopStats(r.Context(), topStatsLimit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]history.StatsEntry{"results": entries})
}

// clientIP resolves the caller address for rate limiting, preferring the
// gateway-supplied forwarding header over the socket peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
