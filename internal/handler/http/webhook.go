package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pazarly/search-service/internal/domain"
	"github.com/pazarly/search-service/internal/mapper"
	apperrors "github.com/pazarly/search-service/pkg/errors"
	"github.com/pazarly/search-service/pkg/httputil"
)

// Slot webhook operations.
const (
	opInsert = "INSERT"
	opUpdate = "UPDATE"
	opDelete = "DELETE"
)

// SlotSyncer is the sync engine surface the webhook handler drives.
type SlotSyncer interface {
	UpsertRankingSlot(ctx context.Context, doc domain.PositionDocument) error
	UpdateSlotWinners(ctx context.Context, id string, winnerIDs []string, status string) error
	UpsertArticle(ctx context.Context, doc domain.BlogDocument) error
	Delete(ctx context.Context, indexName, id string) error
}

// WebhookHandler applies ranking-slot and article CMS webhooks to the index.
type WebhookHandler struct {
	syncer SlotSyncer
	logger *slog.Logger
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(syncer SlotSyncer, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{syncer: syncer, logger: logger}
}

type slotWebhook struct {
	Event struct {
		Op   string `json:"op"`
		Data struct {
			New *mapper.SlotPayload `json:"new"`
			Old *mapper.SlotPayload `json:"old"`
		} `json:"data"`
	} `json:"event"`
}

// RankingSlots handles POST /webhooks/ranking-slots. INSERT upserts the full
// slot document; UPDATE merges only the winner and status fields so the
// derived rank survives; DELETE removes the slot by its previous id.
func (h *WebhookHandler) RankingSlots(w http.ResponseWriter, r *http.Request) {
	var payload slotWebhook
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid webhook body"), h.logger)
		return
	}

	var err error
	switch payload.Event.Op {
	case opInsert:
		if payload.Event.Data.New == nil {
			err = apperrors.InvalidInput("INSERT event without new data")
			break
		}
		var doc domain.PositionDocument
		doc, err = mapper.PositionFromPayload(*payload.Event.Data.New)
		if err != nil {
			err = apperrors.InvalidInput(err.Error())
			break
		}
		err = h.syncer.UpsertRankingSlot(r.Context(), doc)

	case opUpdate:
		next := payload.Event.Data.New
		if next == nil || next.ID == "" {
			err = apperrors.InvalidInput("UPDATE event without new data")
			break
		}
		err = h.syncer.UpdateSlotWinners(r.Context(), next.ID, next.WinnerIDs, next.Status)

	case opDelete:
		if payload.Event.Data.Old == nil || payload.Event.Data.Old.ID == "" {
			err = apperrors.InvalidInput("DELETE event without old data")
			break
		}
		err = h.syncer.Delete(r.Context(), domain.IndexRankingSlots, payload.Event.Data.Old.ID)

	default:
		err = apperrors.InvalidInput("unknown webhook operation: " + payload.Event.Op)
	}

	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

type postWebhook struct {
	Post struct {
		Current  *mapper.PostPayload `json:"current"`
		Previous *mapper.PostPayload `json:"previous"`
	} `json:"post"`
}

// Posts handles POST /webhooks/posts. A payload with a current revision
// upserts the article; one with only a previous revision deletes it.
func (h *WebhookHandler) Posts(w http.ResponseWriter, r *http.Request) {
	var payload postWebhook
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid webhook body"), h.logger)
		return
	}

	var err error
	switch {
	case payload.Post.Current != nil:
		var doc domain.BlogDocument
		doc, err = mapper.BlogFromPayload(*payload.Post.Current)
		if err != nil {
			err = apperrors.InvalidInput(err.Error())
			break
		}
		err = h.syncer.UpsertArticle(r.Context(), doc)

	case payload.Post.Previous != nil && payload.Post.Previous.ID != "":
		err = h.syncer.Delete(r.Context(), domain.IndexArticles, payload.Post.Previous.ID)

	default:
		err = apperrors.InvalidInput("post webhook without current or previous revision")
	}

	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}
