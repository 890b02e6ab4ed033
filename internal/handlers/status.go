package handlers

import (
	"encoding/json"
	"net/http"

	"textbook-ai/internal/contextutil"
	"textbook-ai/internal/storage"
)

// StatusHandler reports what content is currently indexed.
type StatusHandler struct {
	chunks storage.ChunkStore
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(chunks storage.ChunkStore) *StatusHandler {
	return &StatusHandler{chunks: chunks}
}

// ContentStatusResponse represents the content-status payload.
type ContentStatusResponse struct {
	IndexedModules   []string `json:"indexed_modules"`
	TotalChunks      int      `json:"total_chunks"`
	IndexingComplete bool     `json:"indexing_complete"`
}

// ServeHTTP handles GET /api/content-status.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	count, err := h.chunks.Count(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to count chunks", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read content status")
		return
	}

	modules, err := h.chunks.ListModules(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list modules", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read content status")
		return
	}
	if modules == nil {
		modules = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ContentStatusResponse{
		IndexedModules:   modules,
		TotalChunks:      count,
		IndexingComplete: count > 0,
	})
}
