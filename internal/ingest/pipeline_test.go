package ingest

import (
	"context"
	"errors"
	"testing"

	"textbook-ai/internal/storage"
	storage_mocks "textbook-ai/internal/storage/mocks"
	"textbook-ai/internal/vectorstore"
	vectorstore_mocks "textbook-ai/internal/vectorstore/mocks"

	"go.uber.org/mock/gomock"
)

type stubEmbedder struct {
	err   error
	calls int
}

func (s *stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{0.1, 0.2}
	}
	return vectors, nil
}

const pipelineTestDoc = `---
title: Sensors Chapter
---

## Robot Sensors

Sensors measure physical quantities and convert them into signals the controller can process.

## Actuator Types

Actuators convert electrical commands into mechanical motion through motors, hydraulics, or pneumatics.
`

func TestIngestDir(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	root := t.TempDir()
	writeTestFile(t, root, "module-2/chapter-1/sensors.md", pipelineTestDoc)
	writeTestFile(t, root, "module-2/notes.txt", "not markdown, skipped")

	embedder := &stubEmbedder{}
	mockStore := vectorstore_mocks.NewMockVectorStore(ctrl)
	mockChunkRepo := storage_mocks.NewMockChunkStore(ctrl)

	var gotPoints []vectorstore.Point
	mockStore.EXPECT().
		Upsert(gomock.Any(), "test-collection", gomock.Any()).
		DoAndReturn(func(ctx context.Context, collection string, points []vectorstore.Point) error {
			gotPoints = points
			return nil
		})

	var gotRecords []storage.ContentChunk
	mockChunkRepo.EXPECT().
		ReplaceAll(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, records []storage.ContentChunk) error {
			gotRecords = records
			return nil
		})

	pipeline := NewPipeline(embedder, mockStore, "test-collection", mockChunkRepo)
	stats, err := pipeline.IngestDir(context.Background(), root)
	if err != nil {
		t.Fatalf("IngestDir() error = %v", err)
	}

	if stats.Files != 1 {
		t.Errorf("expected 1 file, got %d", stats.Files)
	}
	if stats.Chunks != 2 {
		t.Errorf("expected 2 chunks, got %d", stats.Chunks)
	}

	if len(gotPoints) != 2 {
		t.Fatalf("expected 2 points, got %d", len(gotPoints))
	}
	meta := gotPoints[0].Meta
	if meta["heading"] != "Robot Sensors" || meta["module_id"] != "module-2" {
		t.Errorf("unexpected point metadata: %v", meta)
	}
	if gotPoints[0].ID == "" {
		t.Error("expected point id to be set")
	}

	if len(gotRecords) != 2 {
		t.Fatalf("expected 2 records, got %d", len(gotRecords))
	}
	if gotRecords[0].ID != gotPoints[0].ID {
		t.Error("record id should match point id")
	}
	if gotRecords[0].CharCount == 0 {
		t.Error("expected char count to be set")
	}
}

func TestIngestDirEmptyTree(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	root := t.TempDir()
	embedder := &stubEmbedder{}
	mockStore := vectorstore_mocks.NewMockVectorStore(ctrl)
	mockChunkRepo := storage_mocks.NewMockChunkStore(ctrl)

	pipeline := NewPipeline(embedder, mockStore, "test-collection", mockChunkRepo)
	stats, err := pipeline.IngestDir(context.Background(), root)
	if err != nil {
		t.Fatalf("IngestDir() error = %v", err)
	}
	if stats.Files != 0 || stats.Chunks != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}
	if embedder.calls != 0 {
		t.Error("embedder must not be called for an empty tree")
	}
}

func TestIngestDirEmbedFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	root := t.TempDir()
	writeTestFile(t, root, "module-1/doc.md", pipelineTestDoc)

	embedErr := errors.New("provider down")
	embedder := &stubEmbedder{err: embedErr}
	mockStore := vectorstore_mocks.NewMockVectorStore(ctrl)
	mockChunkRepo := storage_mocks.NewMockChunkStore(ctrl)

	pipeline := NewPipeline(embedder, mockStore, "test-collection", mockChunkRepo)
	_, err := pipeline.IngestDir(context.Background(), root)
	if !errors.Is(err, embedErr) {
		t.Fatalf("expected embed error, got %v", err)
	}
}

func TestIngestDirUpsertFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	root := t.TempDir()
	writeTestFile(t, root, "module-1/doc.md", pipelineTestDoc)

	upsertErr := errors.New("qdrant unavailable")
	embedder := &stubEmbedder{}
	mockStore := vectorstore_mocks.NewMockVectorStore(ctrl)
	mockStore.EXPECT().
		Upsert(gomock.Any(), "test-collection", gomock.Any()).
		Return(upsertErr)
	mockChunkRepo := storage_mocks.NewMockChunkStore(ctrl)

	pipeline := NewPipeline(embedder, mockStore, "test-collection", mockChunkRepo)
	_, err := pipeline.IngestDir(context.Background(), root)
	if !errors.Is(err, upsertErr) {
		t.Fatalf("expected upsert error, got %v", err)
	}
}
