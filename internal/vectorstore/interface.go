package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks textbook-ai/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a single similarity-search hit.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore defines the interface for vector storage operations.
// An empty Search result is not an error; it means nothing in the index
// cleared the score threshold.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns up to limit nearest neighbours of query scoring at
	// least scoreThreshold, ordered by descending score. filter
	// restricts hits by payload equality.
	Search(ctx context.Context, collection string, query []float32, limit int, scoreThreshold float32, filter map[string]any) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	// CollectionExists checks if a collection exists.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// EnsureCollection creates the collection if missing and validates
	// its vector size otherwise.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error
}
