package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"textbook-ai/internal/handlers"
	"textbook-ai/internal/rag"
	"textbook-ai/internal/storage"
	"textbook-ai/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine         rag.Engine
	Messages       storage.MessageStore
	Chunks         storage.ChunkStore
	VectorStore    vectorstore.VectorStore
	CollectionName string
	// RequestsPerMinute is the per-IP rate limit. Zero disables
	// limiting.
	RequestsPerMinute int
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)
	if deps.RequestsPerMinute > 0 {
		r.Use(NewRateLimiter(deps.RequestsPerMinute).Middleware)
	}

	queryHandler := handlers.NewQueryHandler(deps.Engine, deps.Messages)
	feedbackHandler := handlers.NewFeedbackHandler(deps.Messages)
	issueHandler := handlers.NewIssueHandler(deps.Messages)
	statusHandler := handlers.NewStatusHandler(deps.Chunks)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.CollectionName)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/query", queryHandler)
		r.Method(http.MethodPost, "/feedback", feedbackHandler)
		r.Method(http.MethodPost, "/report-issue", issueHandler)
		r.Method(http.MethodGet, "/content-status", statusHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	return r
}
