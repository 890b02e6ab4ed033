package handlers

import (
	"encoding/json"
	"net/http"
	"unicode/utf8"

	"github.com/google/uuid"

	"textbook-ai/internal/contextutil"
	"textbook-ai/internal/storage"
)

const maxIssueDescriptionLen = 1000

// validIssueTypes are the accepted issue categories.
var validIssueTypes = map[string]struct{}{
	"incorrect": {}, "incomplete": {}, "harmful": {}, "other": {},
}

// FeedbackHandler handles HTTP requests for message ratings.
type FeedbackHandler struct {
	messages storage.MessageStore
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(messages storage.MessageStore) *FeedbackHandler {
	return &FeedbackHandler{messages: messages}
}

// FeedbackRequest represents the HTTP request payload for feedback.
type FeedbackRequest struct {
	MessageID string `json:"message_id"`
	Rating    string `json:"rating"`
}

// FeedbackResponse represents the HTTP response payload for feedback.
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ServeHTTP handles POST /api/feedback.
func (h *FeedbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.MessageID == "" {
		writeError(w, http.StatusBadRequest, "message_id is required")
		return
	}
	if req.Rating != "up" && req.Rating != "down" {
		writeError(w, http.StatusBadRequest, "rating must be 'up' or 'down'")
		return
	}

	if err := h.messages.SaveFeedback(ctx, req.MessageID, req.Rating); err != nil {
		logger.ErrorContext(ctx, "failed to save feedback", "message_id", req.MessageID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to record feedback")
		return
	}

	logger.InfoContext(ctx, "feedback recorded", "message_id", req.MessageID, "rating", req.Rating)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(FeedbackResponse{
		Success: true,
		Message: "Feedback recorded successfully",
	})
}

// IssueHandler handles HTTP requests reporting problems with answers.
type IssueHandler struct {
	messages storage.MessageStore
}

// NewIssueHandler creates a new IssueHandler.
func NewIssueHandler(messages storage.MessageStore) *IssueHandler {
	return &IssueHandler{messages: messages}
}

// ReportIssueRequest represents the HTTP request payload for issue reports.
type ReportIssueRequest struct {
	MessageID   string `json:"message_id"`
	IssueType   string `json:"issue_type"`
	Description string `json:"description,omitempty"`
}

// ReportIssueResponse represents the HTTP response payload for issue reports.
type ReportIssueResponse struct {
	Success bool   `json:"success"`
	IssueID string `json:"issue_id"`
	Message string `json:"message"`
}

// ServeHTTP handles POST /api/report-issue.
func (h *IssueHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ReportIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.MessageID == "" {
		writeError(w, http.StatusBadRequest, "message_id is required")
		return
	}
	if _, ok := validIssueTypes[req.IssueType]; !ok {
		writeError(w, http.StatusBadRequest, "issue_type must be one of: incorrect, incomplete, harmful, other")
		return
	}
	if utf8.RuneCountInString(req.Description) > maxIssueDescriptionLen {
		writeError(w, http.StatusBadRequest, "description must be 1000 characters or less")
		return
	}

	issueID := uuid.NewString()
	if err := h.messages.ReportIssue(ctx, storage.IssueReport{
		IssueID:     issueID,
		MessageID:   req.MessageID,
		IssueType:   req.IssueType,
		Description: req.Description,
	}); err != nil {
		logger.ErrorContext(ctx, "failed to report issue", "message_id", req.MessageID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to report issue")
		return
	}

	logger.InfoContext(ctx, "issue reported", "issue_id", issueID, "issue_type", req.IssueType)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ReportIssueResponse{
		Success: true,
		IssueID: issueID,
		Message: "Issue reported successfully",
	})
}
