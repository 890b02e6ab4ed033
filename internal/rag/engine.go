package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks textbook-ai/internal/rag Engine,Embedder,Generator

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"textbook-ai/internal/contextutil"
	"textbook-ai/internal/llm"
	"textbook-ai/internal/vectorstore"
)

// Retrieval parameters. Direct search takes the final top 5 above a
// strict floor; the context-boost path first pulls a wider pool at a
// looser floor so re-ranking has candidates to promote.
const (
	defaultTopK            = 5
	directScoreThreshold   = 0.7
	boostPoolSize          = 10
	boostPoolThreshold     = 0.6
	maxQuestionLen         = 2000
	maxHighlightContextLen = 2000
)

// Per-stage timeouts so a hung upstream cannot block a query forever.
const (
	defaultEmbedTimeout    = 10 * time.Second
	defaultRetrieveTimeout = 10 * time.Second
	defaultGenerateTimeout = 30 * time.Second
)

// Fixed confidences for the short-circuit paths. These are deliberate
// constants, not derived values.
const (
	clarifyConfidence = 0.0
	noMatchConfidence = 0.0
	summaryConfidence = 0.5
)

// Embedder turns text into fixed-length vectors via the embedding
// provider. Defined consumer-first; satisfied by *llm.EmbeddingsClient.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a grounded answer from a composed prompt, retrying
// transient provider failures internally. Satisfied by *llm.Client.
type Generator interface {
	CompleteWithRetry(ctx context.Context, systemPrompt, userPrompt string) (llm.CompletionResult, error)
}

// Engine answers student questions against the textbook index.
type Engine interface {
	// Answer resolves one query: classification, retrieval, optional
	// context boosting, prompt composition, and generation.
	Answer(ctx context.Context, req QueryRequest) (QueryResult, error)
}

// Timeouts bounds each external call of the pipeline. Zero fields fall
// back to the package defaults.
type Timeouts struct {
	Embed    time.Duration
	Retrieve time.Duration
	Generate time.Duration
}

// engine implements Engine. It holds no mutable state across queries,
// so one instance serves concurrent callers.
type engine struct {
	embedder   Embedder
	store      vectorstore.VectorStore
	collection string
	generator  Generator
	timeouts   Timeouts
}

// NewEngine creates a query engine over the given service handles.
func NewEngine(embedder Embedder, store vectorstore.VectorStore, collection string, generator Generator, timeouts Timeouts) Engine {
	if timeouts.Embed == 0 {
		timeouts.Embed = defaultEmbedTimeout
	}
	if timeouts.Retrieve == 0 {
		timeouts.Retrieve = defaultRetrieveTimeout
	}
	if timeouts.Generate == 0 {
		timeouts.Generate = defaultGenerateTimeout
	}
	return &engine{
		embedder:   embedder,
		store:      store,
		collection: collection,
		generator:  generator,
		timeouts:   timeouts,
	}
}

// Answer resolves a query through the pipeline state machine:
//
//	START -> (ambiguous? -> CLARIFY) -> EMBED -> RETRIEVE
//	      -> (empty? -> NO_MATCH) -> (broad? -> SUMMARIZE)
//	      -> COMPOSE -> GENERATE -> RESPOND
//
// The short-circuit paths return canned, provider-independent answers
// and never invoke the generator.
func (e *engine) Answer(ctx context.Context, req QueryRequest) (QueryResult, error) {
	start := time.Now()
	logger := contextutil.LoggerFromContext(ctx)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return QueryResult{}, &ValidationError{Field: "question", Message: "cannot be empty"}
	}
	if utf8.RuneCountInString(question) > maxQuestionLen {
		return QueryResult{}, &ValidationError{Field: "question", Message: "must be 2000 characters or less"}
	}
	if utf8.RuneCountInString(req.Context) > maxHighlightContextLen {
		return QueryResult{}, &ValidationError{Field: "context", Message: "must be 2000 characters or less"}
	}

	logger.InfoContext(ctx, "query started",
		"question_length", len(question),
		"has_context", req.Context != "",
		"history_turns", len(req.History),
	)

	if isAmbiguous(question) {
		logger.InfoContext(ctx, "ambiguous question, asking for clarification")
		return e.result(buildClarification(question), nil, clarifyConfidence, start), nil
	}

	embedCtx, cancelEmbed := context.WithTimeout(ctx, e.timeouts.Embed)
	defer cancelEmbed()
	vector, err := e.embedder.EmbedText(embedCtx, question)
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed question", "error", err)
		return QueryResult{}, &EmbeddingError{Err: err}
	}

	chunks, err := e.retrieve(ctx, vector, req.Context)
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "error", err)
		return QueryResult{}, err
	}
	logger.InfoContext(ctx, "retrieval completed", "chunks", len(chunks))

	if len(chunks) == 0 {
		logger.InfoContext(ctx, "no relevant chunks found")
		return e.result(noMatchAnswer, nil, noMatchConfidence, start), nil
	}

	if isBroad(question) {
		logger.InfoContext(ctx, "broad question, returning section summary")
		return e.result(buildSummary(chunks), toCitations(chunks), summaryConfidence, start), nil
	}

	userPrompt := buildUserPrompt(question, chunks, req.History)

	genCtx, cancelGen := context.WithTimeout(ctx, e.timeouts.Generate)
	defer cancelGen()
	completion, err := e.generator.CompleteWithRetry(genCtx, systemPrompt, userPrompt)
	if err != nil {
		logger.ErrorContext(ctx, "generation failed", "error", err)
		return QueryResult{}, &GenerationError{Err: err}
	}

	citations := toCitations(chunks)
	logger.InfoContext(ctx, "query completed",
		"answer_length", len(completion.Answer),
		"tokens_used", completion.TokensUsed,
		"citations", len(citations),
		"generation_time", completion.ResponseTime,
	)
	logger.DebugContext(ctx, "citations", "summary", formatCitations(citations))

	return e.result(completion.Answer, citations, confidence(chunks), start), nil
}

// retrieve runs vector search, with context-boost re-ranking when the
// student highlighted text. The boost pool always spans the full index;
// the highlight only re-orders, never restricts.
func (e *engine) retrieve(ctx context.Context, vector []float32, highlight string) ([]RetrievedChunk, error) {
	retrieveCtx, cancel := context.WithTimeout(ctx, e.timeouts.Retrieve)
	defer cancel()

	logger := contextutil.LoggerFromContext(ctx)

	if highlight != "" {
		logger.DebugContext(ctx, "searching with context boost", "context_preview", contextSummary(highlight, 100))
		results, err := e.store.Search(retrieveCtx, e.collection, vector, boostPoolSize, boostPoolThreshold, nil)
		if err != nil {
			return nil, &RetrievalError{Err: err}
		}
		return boostByContext(chunksFromResults(results), highlight, defaultBoostFactor, defaultTopK), nil
	}

	results, err := e.store.Search(retrieveCtx, e.collection, vector, defaultTopK, directScoreThreshold, nil)
	if err != nil {
		return nil, &RetrievalError{Err: err}
	}
	return chunksFromResults(results), nil
}

// result assembles a QueryResult, stamping the message id and elapsed
// time. Citations are never nil in a response.
func (e *engine) result(answer string, citations []Citation, conf float64, start time.Time) QueryResult {
	if citations == nil {
		citations = []Citation{}
	}
	return QueryResult{
		Answer:       answer,
		Citations:    citations,
		Confidence:   conf,
		MessageID:    uuid.NewString(),
		ResponseTime: time.Since(start),
	}
}

// chunksFromResults maps search hits to domain chunks, pulling the
// textbook metadata out of the point payload. Unknown or missing
// payload fields stay zero-valued; downstream formatting uses explicit
// fallbacks instead.
func chunksFromResults(results []vectorstore.SearchResult) []RetrievedChunk {
	chunks := make([]RetrievedChunk, 0, len(results))
	for _, result := range results {
		text, _ := result.Meta["text"].(string)
		heading, _ := result.Meta["heading"].(string)
		moduleID, _ := result.Meta["module_id"].(string)
		chapterID, _ := result.Meta["chapter_id"].(string)
		sectionID, _ := result.Meta["section_id"].(string)
		navigationURL, _ := result.Meta["navigation_url"].(string)

		chunks = append(chunks, RetrievedChunk{
			Text:          text,
			Heading:       heading,
			ModuleID:      moduleID,
			ChapterID:     chapterID,
			SectionID:     sectionID,
			NavigationURL: navigationURL,
			Score:         float64(result.Score),
		})
	}
	return chunks
}
