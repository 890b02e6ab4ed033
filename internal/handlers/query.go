package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"textbook-ai/internal/contextutil"
	"textbook-ai/internal/rag"
	"textbook-ai/internal/storage"
)

// generationRetryAfterSeconds is the hint sent with 503 responses after
// the generation retry budget is exhausted.
const generationRetryAfterSeconds = 30

// QueryHandler handles HTTP requests for textbook queries.
type QueryHandler struct {
	engine   rag.Engine
	messages storage.MessageStore
}

// NewQueryHandler creates a new QueryHandler. messages may be nil, in
// which case the session log is skipped.
func NewQueryHandler(engine rag.Engine, messages storage.MessageStore) *QueryHandler {
	return &QueryHandler{
		engine:   engine,
		messages: messages,
	}
}

// QueryRequest represents the HTTP request payload for queries.
// This mirrors rag.QueryRequest but is defined here for HTTP layer
// separation.
type QueryRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
	Context   string `json:"context,omitempty"`
	History   []struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	} `json:"conversation_history,omitempty"`
}

// QueryResponse represents the HTTP response payload for queries.
type QueryResponse struct {
	Answer         string         `json:"answer"`
	Citations      []rag.Citation `json:"citations"`
	Confidence     float64        `json:"confidence"`
	MessageID      string         `json:"message_id"`
	ResponseTimeMS int64          `json:"response_time_ms"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP handles POST /api/query.
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ragReq := rag.QueryRequest{
		Question:  req.Question,
		Context:   req.Context,
		SessionID: req.SessionID,
	}
	for _, turn := range req.History {
		ragReq.History = append(ragReq.History, rag.ConversationTurn{
			Question: turn.Question,
			Answer:   turn.Answer,
		})
	}

	result, err := h.engine.Answer(ctx, ragReq)
	if err != nil {
		h.writeEngineError(w, ctx, err)
		return
	}

	resp := QueryResponse{
		Answer:         result.Answer,
		Citations:      result.Citations,
		Confidence:     result.Confidence,
		MessageID:      result.MessageID,
		ResponseTimeMS: result.ResponseTime.Milliseconds(),
	}

	h.logMessage(ctx, req.SessionID, req.Question, resp)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeEngineError maps the pipeline error taxonomy to HTTP statuses.
// Provider error details stay in the logs, not in the response body.
func (h *QueryHandler) writeEngineError(w http.ResponseWriter, ctx context.Context, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	var validationErr *rag.ValidationError
	if errors.As(err, &validationErr) {
		logger.WarnContext(ctx, "invalid query", "field", validationErr.Field, "reason", validationErr.Message)
		writeError(w, http.StatusBadRequest, validationErr.Error())
		return
	}

	var embeddingErr *rag.EmbeddingError
	var retrievalErr *rag.RetrievalError
	if errors.As(err, &embeddingErr) || errors.As(err, &retrievalErr) {
		logger.ErrorContext(ctx, "upstream provider failure", "error", err)
		writeError(w, http.StatusServiceUnavailable, "The answer service is temporarily unavailable. Please try again later.")
		return
	}

	var generationErr *rag.GenerationError
	if errors.As(err, &generationErr) {
		logger.ErrorContext(ctx, "generation failed after retries", "error", err)
		w.Header().Set("Retry-After", strconv.Itoa(generationRetryAfterSeconds))
		writeError(w, http.StatusServiceUnavailable, "The answer service is temporarily unavailable. Please try again later.")
		return
	}

	logger.ErrorContext(ctx, "failed to process query", "error", err)
	writeError(w, http.StatusInternalServerError, "Failed to process query")
}

// logMessage records the exchange in the session log. Failures are
// logged and swallowed; logging must never fail the request.
func (h *QueryHandler) logMessage(ctx context.Context, sessionID, question string, resp QueryResponse) {
	if h.messages == nil {
		return
	}
	logger := contextutil.LoggerFromContext(ctx)

	citationsJSON, err := json.Marshal(resp.Citations)
	if err != nil {
		logger.WarnContext(ctx, "failed to marshal citations for session log", "error", err)
		citationsJSON = []byte("[]")
	}

	if err := h.messages.LogMessage(ctx, storage.ChatMessage{
		MessageID:      resp.MessageID,
		SessionID:      sessionID,
		Question:       question,
		Answer:         resp.Answer,
		CitationsJSON:  string(citationsJSON),
		Confidence:     resp.Confidence,
		ResponseTimeMS: resp.ResponseTimeMS,
	}); err != nil {
		logger.WarnContext(ctx, "failed to log chat message", "message_id", resp.MessageID, "error", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
