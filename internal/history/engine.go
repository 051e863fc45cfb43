// Package history tracks per-user search history with count aggregation,
// maintains global search popularity stats, and composes ranked suggestion
// lists from history, stats, and catalog names.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pazarly/search-service/internal/domain"
	"github.com/pazarly/search-service/internal/index"
	"github.com/pazarly/search-service/internal/ratelimit"
	apperrors "github.com/pazarly/search-service/pkg/errors"
)

// listHistorySize is the number of entries ListHistory returns.
const listHistorySize = 10

// historySuggestionCap bounds how many suggestion slots the caller's own
// history may fill; the remainder always comes from stats and catalog names.
const historySuggestionCap = 3

// DefaultSuggestionLimit is the suggestion list size when the caller
// supplies none.
const DefaultSuggestionLimit = 5

// Config holds the history recording admission tunables.
type Config struct {
	// RateLimit is the number of recorded searches allowed per client IP
	// within one window.
	RateLimit int
	// RateWindow is the fixed rate-limit window length.
	RateWindow time.Duration
}

// DefaultConfig returns the standard admission tunables.
func DefaultConfig() Config {
	return Config{RateLimit: 10, RateWindow: time.Minute}
}

// Entry is one personal history entry as returned to the caller.
type Entry struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	SearchCount int    `json:"searchCount"`
	Personal    bool   `json:"personal"`
}

// StatsEntry is one globally aggregated search term.
type StatsEntry struct {
	Content          string    `json:"content"`
	TotalSearchCount int       `json:"totalSearchCount"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Engine records searches and serves history, stats, and suggestions.
type Engine struct {
	store   index.Store
	limiter *ratelimit.Limiter
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a history engine.
func New(store index.Store, limiter *ratelimit.Limiter, cfg Config, logger *slog.Logger) *Engine {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultConfig().RateLimit
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = DefaultConfig().RateWindow
	}
	return &Engine{
		store:   store,
		limiter: limiter,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Normalize trims and whitespace-collapses search content. The normalized
// form is the dedup and match key for both history and stats.
func Normalize(content string) string {
	return strings.Join(strings.Fields(content), " ")
}

// historyID derives the stable document id for one (user, normalized
// content) pair, making repeated recordings converge on a single document.
func historyID(userID, content string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(userID+":"+content)).String()
}

// RecordSearch records one search for the caller. Admission is checked
// first: a rate-limited request produces no writes at all. The personal
// history write and the global stats write are independent, not
// transactional; a failure between them is converged by later recordings.
func (e *Engine) RecordSearch(ctx context.Context, userID, content, clientIP string) error {
	allowed, err := e.limiter.Allow(ctx, clientIP, e.cfg.RateLimit, e.cfg.RateWindow)
	if err != nil {
		return apperrors.Unavailable("rate limit check failed", err)
	}
	if !allowed {
		return apperrors.RateLimited("too many searches, slow down")
	}

	normalized := Normalize(content)
	if normalized == "" {
		return apperrors.InvalidInput("search content is empty")
	}

	if err := e.upsertHistory(ctx, userID, normalized); err != nil {
		return apperrors.Internal(fmt.Errorf("record search history: %w", err))
	}
	if err := e.upsertStats(ctx, normalized); err != nil {
		// Personal history already recorded; stats converge on the next
		// occurrence of this term.
		e.logger.Warn("search stats write failed",
			slog.String("content", normalized),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func (e *Engine) upsertHistory(ctx context.Context, userID, content string) error {
	id := historyID(userID, content)

	doc := domain.SearchHistoryDocument{
		ID:        id,
		UserID:    userID,
		Content:   content,
		Count:     1,
		UpdatedAt: e.now(),
	}

	raw, err := e.store.Get(ctx, domain.IndexSearchHistory, id)
	switch {
	case errors.Is(err, index.ErrNotFound):
	case err != nil:
		return err
	default:
		var existing domain.SearchHistoryDocument
		if err := json.Unmarshal(raw, &existing); err != nil {
			return err
		}
		doc.Count = existing.Count + 1
	}

	return e.store.Upsert(ctx, domain.IndexSearchHistory, id, doc)
}

func (e *Engine) upsertStats(ctx context.Context, content string) error {
	doc := domain.SearchStatsDocument{
		ID:        content,
		Content:   content,
		Count:     1,
		UpdatedAt: e.now(),
	}

	raw, err := e.store.Get(ctx, domain.IndexSearchStats, content)
	switch {
	case errors.Is(err, index.ErrNotFound):
	case err != nil:
		return err
	default:
		var existing domain.SearchStatsDocument
		if err := json.Unmarshal(raw, &existing); err != nil {
			return err
		}
		doc.Count = existing.Count + 1
	}

	return e.store.Upsert(ctx, domain.IndexSearchStats, content, doc)
}

// ListHistory returns the caller's top history entries, most searched first,
// most recent first among equals.
func (e *Engine) ListHistory(ctx context.Context, userID string) ([]Entry, error) {
	docs, err := e.searchHistory(ctx, buildListHistoryQuery(userID, listHistorySize))
	if err != nil {
		return nil, apperrors.Unavailable("history lookup failed", err)
	}

	entries := make([]Entry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, Entry{
			ID:          doc.ID,
			Content:     doc.Content,
			SearchCount: doc.Count,
			Personal:    true,
		})
	}
	return entries, nil
}

// DeleteHistory removes one of the caller's own history entries. An entry
// owned by someone else is reported as not-found, never as forbidden, so
// the existence of other users' history cannot be probed.
func (e *Engine) DeleteHistory(ctx context.Context, userID, historyID string) error {
	raw, err := e.store.Get(ctx, domain.IndexSearchHistory, historyID)
	if errors.Is(err, index.ErrNotFound) {
		return apperrors.NotFound("search history", historyID)
	}
	if err != nil {
		return apperrors.Unavailable("history lookup failed", err)
	}

	var doc domain.SearchHistoryDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return apperrors.Internal(fmt.Errorf("decode history entry: %w", err))
	}
	if doc.UserID != userID {
		return apperrors.NotFound("search history", historyID)
	}

	if err := e.store.Delete(ctx, domain.IndexSearchHistory, historyID); err != nil {
		return apperrors.Internal(fmt.Errorf("delete history entry: %w", err))
	}
	return nil
}

// Suggest composes a deduplicated suggestion list of at most limit entries
// from three sources in strict priority order: the caller's own matching
// history (at most historySuggestionCap entries), global stats, and catalog
// listing names. A suggestion is tagged as history when its content appears
// anywhere in the caller's own matching history, regardless of which source
// supplied it. An empty userID skips the personal source entirely.
func (e *Engine) Suggest(ctx context.Context, term, userID string, limit int) ([]domain.Suggestion, error) {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	term = Normalize(term)

	var (
		ownContents  = make(map[string]struct{})
		suggestions  = make([]domain.Suggestion, 0, limit)
		seenContents = make(map[string]struct{})
	)

	if userID != "" {
		docs, err := e.searchHistory(ctx, buildHistoryMatchQuery(userID, term, historyFetchSize))
		if err != nil {
			return nil, apperrors.Unavailable("suggestion lookup failed", err)
		}
		for _, doc := range docs {
			ownContents[doc.Content] = struct{}{}
		}
		for _, doc := range docs {
			if len(suggestions) >= historySuggestionCap || len(suggestions) >= limit {
				break
			}
			if _, dup := seenContents[doc.Content]; dup {
				continue
			}
			seenContents[doc.Content] = struct{}{}
			suggestions = append(suggestions, domain.Suggestion{
				Content: doc.Content,
				Type:    domain.SuggestionHistory,
			})
		}
	}

	if len(suggestions) < limit {
		res, err := e.store.Search(ctx, domain.IndexSearchStats, buildStatsMatchQuery(term, limit))
		if err != nil {
			return nil, apperrors.Unavailable("suggestion lookup failed", err)
		}
		for _, hit := range res.Hits {
			if len(suggestions) >= limit {
				break
			}
			var doc domain.SearchStatsDocument
			if err := json.Unmarshal(hit.Source, &doc); err != nil {
				continue
			}
			e.appendSuggestion(&suggestions, seenContents, ownContents, doc.Content)
		}
	}

	if len(suggestions) < limit && term != "" {
		res, err := e.store.Search(ctx, domain.IndexListings, buildListingNameQuery(term, limit))
		if err != nil {
			return nil, apperrors.Unavailable("suggestion lookup failed", err)
		}
		for _, hit := range res.Hits {
			if len(suggestions) >= limit {
				break
			}
			var doc domain.StoreDocument
			if err := json.Unmarshal(hit.Source, &doc); err != nil {
				continue
			}
			e.appendSuggestion(&suggestions, seenContents, ownContents, Normalize(doc.Name))
		}
	}

	return suggestions, nil
}

func (e *Engine) appendSuggestion(suggestions *[]domain.Suggestion, seen, own map[string]struct{}, content string) {
	if content == "" {
		return
	}
	if _, dup := seen[content]; dup {
		return
	}
	seen[content] = struct{}{}

	kind := domain.SuggestionGeneric
	if _, isOwn := own[content]; isOwn {
		kind = domain.SuggestionHistory
	}
	*suggestions = append(*suggestions, domain.Suggestion{Content: content, Type: kind})
}

// TopStats returns the limit globally most-searched terms.
func (e *Engine) TopStats(ctx context.Context, limit int) ([]StatsEntry, error) {
	if limit <= 0 {
		limit = 3
	}

	res, err := e.store.Search(ctx, domain.IndexSearchStats, buildStatsMatchQuery("", limit))
	if err != nil {
		return nil, apperrors.Unavailable("stats lookup failed", err)
	}

	entries := make([]StatsEntry, 0, len(res.Hits))
	for _, hit := range res.Hits {
		var doc domain.SearchStatsDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			continue
		}
		entries = append(entries, StatsEntry{
			Content:          doc.Content,
			TotalSearchCount: doc.Count,
			UpdatedAt:        doc.UpdatedAt,
		})
	}
	return entries, nil
}

// searchHistory runs a history-index query and decodes the hits.
func (e *Engine) searchHistory(ctx context.Context, query map[string]any) ([]domain.SearchHistoryDocument, error) {
	res, err := e.store.Search(ctx, domain.IndexSearchHistory, query)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.SearchHistoryDocument, 0, len(res.Hits))
	for _, hit := range res.Hits {
		var doc domain.SearchHistoryDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			e.logger.Warn("skipping undecodable history entry", slog.String("id", hit.ID))
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
