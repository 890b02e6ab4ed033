package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func embeddingsServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req embeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			vec := make([]float64, dim)
			for j := range vec {
				vec[j] = float64(i) + 0.5
			}
			data[i] = map[string]any{"embedding": vec}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
}

func TestEmbedTexts(t *testing.T) {
	server := embeddingsServer(t, 4)
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "test-key", "test-model", 4)
	vectors, err := client.EmbedTexts(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if len(vectors[0]) != 4 {
		t.Errorf("expected dimension 4, got %d", len(vectors[0]))
	}
	if vectors[0][0] != 0.5 || vectors[1][0] != 1.5 {
		t.Errorf("unexpected vector values: %v, %v", vectors[0][0], vectors[1][0])
	}
}

func TestEmbedTextsEmptyInput(t *testing.T) {
	client := NewEmbeddingsClient("http://unused", "key", "model", 4)
	_, err := client.EmbedTexts(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "empty input") {
		t.Errorf("expected empty-input error, got %v", err)
	}
}

func TestEmbedTextsBatchTooLarge(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "test-key", "test-model", 4)
	texts := make([]string, MaxBatchSize+1)
	for i := range texts {
		texts[i] = "text"
	}

	_, err := client.EmbedTexts(context.Background(), texts)
	if !errors.Is(err, ErrBatchTooLarge) {
		t.Fatalf("expected ErrBatchTooLarge, got %v", err)
	}
	// Oversized batches fail before any network call
	if calls.Load() != 0 {
		t.Errorf("expected no requests, got %d", calls.Load())
	}
}

func TestEmbedTextsAtBatchLimit(t *testing.T) {
	server := embeddingsServer(t, 2)
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "test-key", "test-model", 2)
	texts := make([]string, MaxBatchSize)
	for i := range texts {
		texts[i] = "text"
	}

	vectors, err := client.EmbedTexts(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != MaxBatchSize {
		t.Errorf("expected %d vectors, got %d", MaxBatchSize, len(vectors))
	}
}

func TestEmbedTextsSizeMismatch(t *testing.T) {
	server := embeddingsServer(t, 3)
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "test-key", "test-model", 4)
	_, err := client.EmbedTexts(context.Background(), []string{"text"})
	if err == nil || !strings.Contains(err.Error(), "expected 4") {
		t.Errorf("expected size-mismatch error, got %v", err)
	}
}

func TestEmbedTextsCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "test-key", "test-model", 4)
	_, err := client.EmbedTexts(context.Background(), []string{"one", "two"})
	if err == nil || !strings.Contains(err.Error(), "expected 2 embeddings, got 0") {
		t.Errorf("expected count-mismatch error, got %v", err)
	}
}

func TestEmbedText(t *testing.T) {
	server := embeddingsServer(t, 4)
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "test-key", "test-model", 4)
	vector, err := client.EmbedText(context.Background(), "single text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vector) != 4 {
		t.Errorf("expected dimension 4, got %d", len(vector))
	}
}

func TestEmbedTextsBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "bad-key", "test-model", 4)
	_, err := client.EmbedTexts(context.Background(), []string{"text"})
	if err == nil || !strings.Contains(err.Error(), "bad status 401") {
		t.Errorf("expected bad-status error, got %v", err)
	}
}
