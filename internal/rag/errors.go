package rag

import "fmt"

// ValidationError reports invalid input. It is never retried and maps
// to a client error at the HTTP layer.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// EmbeddingError reports a failure of the embedding provider. The
// underlying provider message is preserved for diagnostics.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding provider failure: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// RetrievalError reports a failure of the vector search provider.
// An empty result set is not a RetrievalError.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("vector search failure: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError reports a text-generation failure after the retry
// budget is exhausted. Callers should surface it as service-unavailable
// with a retry-after hint.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failure: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
