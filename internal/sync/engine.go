// Package sync keeps the index consistent with the authoritative relational
// source: incremental single-document events and a best-effort bulk resync at
// process start. Sync is eventually consistent, never transactional — a failed
// batch is abandoned and corrected by the next resync or incremental event.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pazarly/search-service/internal/domain"
	"github.com/pazarly/search-service/internal/index"
	"github.com/pazarly/search-service/internal/mapper"
	"github.com/pazarly/search-service/internal/repository"
)

// Config holds the bootstrap sync tunables.
type Config struct {
	// PingAttempts bounds the startup connectivity retries. Exhaustion is fatal.
	PingAttempts int
	// PingDelay is the fixed delay between connectivity retries.
	PingDelay time.Duration
	// PageSize is the number of source records fetched per page.
	PageSize int
	// BatchSize is the number of accumulated upsert ops per bulk flush.
	BatchSize int
}

// DefaultConfig returns the standard bootstrap tunables.
func DefaultConfig() Config {
	return Config{
		PingAttempts: 5,
		PingDelay:    3 * time.Second,
		PageSize:     100,
		BatchSize:    200,
	}
}

// Report summarizes one entity kind's bulk resync so operators can observe
// sync health.
type Report struct {
	Kind      string
	Succeeded int
	Failed    int
	Skipped   int
}

// Engine applies incremental change events and runs the bootstrap bulk resync.
type Engine struct {
	store    index.Store
	listings repository.ListingSource
	articles repository.ArticleSource
	slots    repository.SlotSource
	mappings map[string]string
	cfg      Config
	logger   *slog.Logger
}

// New creates a sync engine. mappings holds the bootstrap field mapping per
// index name.
func New(
	store index.Store,
	listings repository.ListingSource,
	articles repository.ArticleSource,
	slots repository.SlotSource,
	mappings map[string]string,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	if cfg.PingAttempts <= 0 {
		cfg.PingAttempts = DefaultConfig().PingAttempts
	}
	if cfg.PingDelay <= 0 {
		cfg.PingDelay = DefaultConfig().PingDelay
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultConfig().PageSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}

	return &Engine{
		store:    store,
		listings: listings,
		articles: articles,
		slots:    slots,
		mappings: mappings,
		cfg:      cfg,
		logger:   logger,
	}
}

// UpsertListing writes a listing document by id with create-if-missing
// semantics. Applying the same event twice leaves exactly one document.
func (e *Engine) UpsertListing(ctx context.Context, doc domain.StoreDocument) error {
	if doc.ID == "" {
		return fmt.Errorf("upsert listing: missing id")
	}
	return e.store.Upsert(ctx, domain.IndexListings, doc.ID, doc)
}

// UpsertArticle writes an article document by id.
func (e *Engine) UpsertArticle(ctx context.Context, doc domain.BlogDocument) error {
	if doc.ID == "" {
		return fmt.Errorf("upsert article: missing id")
	}
	return e.store.Upsert(ctx, domain.IndexArticles, doc.ID, doc)
}

// UpsertRankingSlot writes a full ranking-slot document. Used for INSERT
// events and bulk resync only; UPDATE events go through UpdateSlotWinners.
func (e *Engine) UpsertRankingSlot(ctx context.Context, doc domain.PositionDocument) error {
	if doc.ID == "" {
		return fmt.Errorf("upsert ranking slot: missing id")
	}
	return e.store.Upsert(ctx, domain.IndexRankingSlots, doc.ID, doc)
}

// UpdateSlotWinners merges only the winner and status fields of a ranking
// slot, preserving the derived rank and all other fields. An update for a
// slot the index has not seen yet is logged and dropped; the next resync
// converges it.
func (e *Engine) UpdateSlotWinners(ctx context.Context, id string, winnerIDs []string, status string) error {
	if id == "" {
		return fmt.Errorf("update slot winners: missing id")
	}
	if winnerIDs == nil {
		winnerIDs = []string{}
	}

	err := e.store.UpdateFields(ctx, domain.IndexRankingSlots, id, map[string]any{
		"winner_ids": winnerIDs,
		"status":     status,
	})
	if errors.Is(err, index.ErrNotFound) {
		e.logger.Warn("winner update for unknown ranking slot dropped", "id", id)
		return nil
	}
	return err
}

// Delete removes a document from the named index. Deleting an absent id is
// not an error.
func (e *Engine) Delete(ctx context.Context, indexName, id string) error {
	if id == "" {
		return fmt.Errorf("delete from %s: missing id", indexName)
	}
	return e.store.Delete(ctx, indexName, id)
}

// Bootstrap verifies index store connectivity, ensures every index exists
// with its field mapping, and resyncs the full authoritative dataset in
// batches. It is run once at process start; serving read traffic does not
// wait for it.
func (e *Engine) Bootstrap(ctx context.Context) ([]Report, error) {
	if err := e.awaitStore(ctx); err != nil {
		return nil, err
	}

	for name, mapping := range e.mappings {
		if err := e.store.EnsureIndex(ctx, name, mapping); err != nil {
			return nil, fmt.Errorf("ensure index %s: %w", name, err)
		}
	}

	reports := []Report{
		e.syncListings(ctx),
		e.syncArticles(ctx),
		e.syncSlots(ctx),
	}

	for _, r := range reports {
		e.logger.Info("bulk resync finished",
			slog.String("kind", r.Kind),
			slog.Int("succeeded", r.Succeeded),
			slog.Int("failed", r.Failed),
			slog.Int("skipped", r.Skipped),
		)
	}

	return reports, nil
}

// awaitStore pings the index store with bounded fixed-delay retries.
func (e *Engine) awaitStore(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= e.cfg.PingAttempts; attempt++ {
		if err := e.store.Ping(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}

		e.logger.Warn("index store unreachable, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", e.cfg.PingAttempts),
			slog.String("error", lastErr.Error()),
		)

		if attempt < e.cfg.PingAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.cfg.PingDelay):
			}
		}
	}
	return fmt.Errorf("index store unreachable after %d attempts: %w", e.cfg.PingAttempts, lastErr)
}

// syncListings pages through the listing source, maps each row, and flushes
// doc-as-upsert batches. Mapping failures skip the record; flush failures
// abandon the batch and continue.
func (e *Engine) syncListings(ctx context.Context) Report {
	report := Report{Kind: domain.IndexListings}
	var ops []index.BulkOp

	for offset := 0; ; offset += e.cfg.PageSize {
		rows, err := e.listings.ListPage(ctx, e.cfg.PageSize, offset)
		if err != nil {
			e.logger.Error("listing page fetch failed, aborting kind",
				slog.Int("offset", offset),
				slog.String("error", err.Error()),
			)
			report.Failed += len(ops)
			return report
		}
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			doc, err := mapper.StoreFromRow(row)
			if err != nil {
				e.logger.Warn("skipping malformed listing row", slog.String("error", err.Error()))
				report.Skipped++
				continue
			}
			ops = append(ops, index.BulkOp{Index: domain.IndexListings, ID: doc.ID, Doc: doc})
			if len(ops) >= e.cfg.BatchSize {
				e.flush(ctx, ops, &report)
				ops = ops[:0]
			}
		}
	}

	e.flush(ctx, ops, &report)
	return report
}

func (e *Engine) syncArticles(ctx context.Context) Report {
	report := Report{Kind: domain.IndexArticles}
	var ops []index.BulkOp

	for offset := 0; ; offset += e.cfg.PageSize {
		rows, err := e.articles.ListPage(ctx, e.cfg.PageSize, offset)
		if err != nil {
			e.logger.Error("article page fetch failed, aborting kind",
				slog.Int("offset", offset),
				slog.String("error", err.Error()),
			)
			report.Failed += len(ops)
			return report
		}
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			doc, err := mapper.BlogFromRow(row)
			if err != nil {
				e.logger.Warn("skipping malformed article row", slog.String("error", err.Error()))
				report.Skipped++
				continue
			}
			ops = append(ops, index.BulkOp{Index: domain.IndexArticles, ID: doc.ID, Doc: doc})
			if len(ops) >= e.cfg.BatchSize {
				e.flush(ctx, ops, &report)
				ops = ops[:0]
			}
		}
	}

	e.flush(ctx, ops, &report)
	return report
}

func (e *Engine) syncSlots(ctx context.Context) Report {
	report := Report{Kind: domain.IndexRankingSlots}
	var ops []index.BulkOp

	for offset := 0; ; offset += e.cfg.PageSize {
		rows, err := e.slots.ListPage(ctx, e.cfg.PageSize, offset)
		if err != nil {
			e.logger.Error("ranking slot page fetch failed, aborting kind",
				slog.Int("offset", offset),
				slog.String("error", err.Error()),
			)
			report.Failed += len(ops)
			return report
		}
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			doc, err := mapper.PositionFromRow(row)
			if err != nil {
				e.logger.Warn("skipping malformed ranking slot row", slog.String("error", err.Error()))
				report.Skipped++
				continue
			}
			ops = append(ops, index.BulkOp{Index: domain.IndexRankingSlots, ID: doc.ID, Doc: doc})
			if len(ops) >= e.cfg.BatchSize {
				e.flush(ctx, ops, &report)
				ops = ops[:0]
			}
		}
	}

	e.flush(ctx, ops, &report)
	return report
}

// flush applies one bulk batch and folds its outcome into the report. A flush
// failure counts the whole batch as failed and does not abort pagination.
func (e *Engine) flush(ctx context.Context, ops []index.BulkOp, report *Report) {
	if len(ops) == 0 {
		return
	}

	result, err := e.store.Bulk(ctx, ops)
	if err != nil {
		e.logger.Error("bulk flush failed",
			slog.String("kind", report.Kind),
			slog.Int("ops", len(ops)),
			slog.String("error", err.Error()),
		)
		report.Failed += len(ops)
		return
	}

	report.Succeeded += result.Succeeded
	report.Failed += result.Failed
}
