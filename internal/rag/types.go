package rag

import "time"

// QueryRequest represents a question to answer against the textbook index.
type QueryRequest struct {
	// Question is the student's question (1-2000 characters after trimming).
	Question string `json:"question"`
	// Context is text the student highlighted in the textbook, if any.
	// Retrieval boosts chunks that overlap it (max 2000 characters).
	Context string `json:"context,omitempty"`
	// History holds prior turns of the conversation, most recent last.
	History []ConversationTurn `json:"conversation_history,omitempty"`
	// SessionID identifies the conversation for logging purposes.
	SessionID string `json:"session_id,omitempty"`
}

// ConversationTurn is one prior question/answer pair.
type ConversationTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// RetrievedChunk is a passage returned by vector search, with the
// textbook metadata carried in its payload. Chunks are transient: they
// live only for the duration of one query.
type RetrievedChunk struct {
	Text          string
	Heading       string
	ModuleID      string
	ChapterID     string
	SectionID     string
	NavigationURL string
	// Score is the similarity score and the ranking key. Context
	// boosting may raise it, clamped to 1.0.
	Score float64
}

// Citation is the user-facing projection of a RetrievedChunk.
type Citation struct {
	Section   string  `json:"section"`
	URL       string  `json:"url"`
	Score     float64 `json:"score"`
	ModuleID  string  `json:"module_id,omitempty"`
	ChapterID string  `json:"chapter_id,omitempty"`
}

// QueryResult is the answer to one query. It is constructed once and
// never mutated afterwards.
type QueryResult struct {
	Answer       string
	Citations    []Citation
	Confidence   float64
	MessageID    string
	ResponseTime time.Duration
}
