package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iudanet/gophdash/internal/server/auth"
	"github.com/iudanet/gophdash/internal/server/storage"
	"github.com/iudanet/gophdash/internal/validation"
	"github.com/iudanet/gophdash/pkg/api"
)

// DocumentReader чтение документов
type DocumentReader interface {
	Snapshot(ctx context.Context, doc string) (*storage.Snapshot, error)
	FieldsSince(ctx context.Context, doc string, version int64) (*storage.Snapshot, error)
	ListDocuments(ctx context.Context) ([]storage.DocumentInfo, error)
}

// DocumentHandler отдает снапшоты документов по HTTP
type DocumentHandler struct {
	logger  *slog.Logger
	storage DocumentReader
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(logger *slog.Logger, storage DocumentReader) *DocumentHandler {
	return &DocumentHandler{
		logger:  logger,
		storage: storage,
	}
}

// Get обрабатывает GET /api/v1/documents/{doc}?since=version
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := auth.ClaimsFrom(ctx)
	if !ok {
		h.logger.Error("Claims not found in context")
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	doc := r.PathValue("doc")
	if err := validation.ValidateDocumentID(doc); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}
	if !claims.CanAccess(doc) {
		sendError(h.logger, w, "forbidden", http.StatusForbidden)
		return
	}

	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			h.logger.Warn("Invalid since parameter", "since", raw)
			sendError(h.logger, w, "invalid since parameter", http.StatusBadRequest)
			return
		}
		since = v
	}

	var (
		snap *storage.Snapshot
		err  error
	)
	if since > 0 {
		snap, err = h.storage.FieldsSince(ctx, doc, since)
		if errors.Is(err, storage.ErrDocumentNotFound) {
			sendError(h.logger, w, "document not found", http.StatusNotFound)
			return
		}
	} else {
		snap, err = h.storage.Snapshot(ctx, doc)
	}
	if err != nil {
		h.logger.Error("Failed to load document", "doc", doc, "error", err)
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Debug("Snapshot served", "user", claims.User(), "doc", doc, "since", since, "version", snap.Version)

	sendJSON(h.logger, w, api.SnapshotResponse{
		Document:  doc,
		State:     snap.Fields,
		Version:   snap.Version,
		UpdatedAt: snap.UpdatedAt,
	}, http.StatusOK)
}

// List обрабатывает GET /api/v1/documents; видны только документы из scope токена
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	docs, err := h.storage.ListDocuments(r.Context())
	if err != nil {
		h.logger.Error("Failed to list documents", "error", err)
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.DocumentListResponse{Documents: make([]api.DocumentSummary, 0, len(docs))}
	for _, d := range docs {
		if !claims.CanAccess(d.ID) {
			continue
		}
		resp.Documents = append(resp.Documents, api.DocumentSummary{ID: d.ID, Version: d.Version, Fields: d.Fields})
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}
