package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_stores.go -package=mocks textbook-ai/internal/storage MessageStore,ChunkStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ChatMessage is one logged question/answer exchange.
type ChatMessage struct {
	MessageID      string
	SessionID      string
	Question       string
	Answer         string
	CitationsJSON  string
	Confidence     float64
	ResponseTimeMS int64
}

// IssueReport is a student-flagged problem with an answer.
type IssueReport struct {
	IssueID     string
	MessageID   string
	IssueType   string
	Description string
}

// MessageStore persists the chat session log. Logging is best-effort
// from the caller's point of view: failures must never fail a query.
type MessageStore interface {
	// LogMessage records an answered query.
	LogMessage(ctx context.Context, msg ChatMessage) error
	// SaveFeedback records an up/down rating for a message.
	SaveFeedback(ctx context.Context, messageID, rating string) error
	// ReportIssue records a flagged answer.
	ReportIssue(ctx context.Context, report IssueReport) error
	// PurgeOlderThan deletes chat messages created before the cutoff and
	// returns how many rows were removed.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// MessageRepo implements MessageStore on SQLite.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo creates a message repository.
func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// LogMessage records an answered query.
func (r *MessageRepo) LogMessage(ctx context.Context, msg ChatMessage) error {
	sessionID := msg.SessionID
	if sessionID == "" {
		sessionID = "anonymous"
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_messages (message_id, session_id, question, answer, citations_json, confidence, response_time_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.MessageID, sessionID, msg.Question, msg.Answer, msg.CitationsJSON, msg.Confidence, msg.ResponseTimeMS,
	)
	if err != nil {
		return fmt.Errorf("failed to log chat message: %w", err)
	}
	return nil
}

// SaveFeedback records an up/down rating for a message.
func (r *MessageRepo) SaveFeedback(ctx context.Context, messageID, rating string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feedback (message_id, rating) VALUES (?, ?)`,
		messageID, rating,
	)
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	return nil
}

// ReportIssue records a flagged answer.
func (r *MessageRepo) ReportIssue(ctx context.Context, report IssueReport) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO issue_reports (issue_id, message_id, issue_type, description)
		VALUES (?, ?, ?, ?)`,
		report.IssueID, report.MessageID, report.IssueType, report.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to report issue: %w", err)
	}
	return nil
}

// PurgeOlderThan deletes chat messages, and their feedback and issue
// rows, created before the cutoff.
func (r *MessageRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffStr := cutoff.UTC().Format("2006-01-02 15:04:05")

	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM feedback WHERE message_id IN
			(SELECT message_id FROM chat_messages WHERE created_at < ?)`, cutoffStr); err != nil {
		return 0, fmt.Errorf("failed to purge feedback: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM issue_reports WHERE message_id IN
			(SELECT message_id FROM chat_messages WHERE created_at < ?)`, cutoffStr); err != nil {
		return 0, fmt.Errorf("failed to purge issue reports: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE created_at < ?`, cutoffStr)
	if err != nil {
		return 0, fmt.Errorf("failed to purge chat messages: %w", err)
	}
	return result.RowsAffected()
}
