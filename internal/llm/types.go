package llm

import "time"

// ChatParams holds decoding parameters for completion requests.
type ChatParams struct {
	// Model specifies the model to use. If empty, the client's default
	// model is used.
	Model string

	// Temperature controls the randomness of the output. The pipeline
	// uses a low temperature to favour factual consistency.
	Temperature float32

	// MaxTokens caps the generated response length.
	MaxTokens int

	// TopP is the nucleus sampling cutoff.
	TopP float32
}

// CompletionResult is a generated answer plus usage metadata.
type CompletionResult struct {
	Answer     string
	TokensUsed int
	// ResponseTime is the latency of the successful provider call.
	ResponseTime time.Duration
}
