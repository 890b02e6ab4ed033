package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"textbook-ai/internal/contextutil"
	"textbook-ai/internal/llm"
	"textbook-ai/internal/storage"
	"textbook-ai/internal/vectorstore"
)

// Embedder batches texts into vectors. Satisfied by *llm.EmbeddingsClient.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Stats summarizes one ingestion run.
type Stats struct {
	Files  int
	Chunks int
}

// Pipeline ingests a textbook docs tree: extract, chunk, embed, upsert.
type Pipeline struct {
	chunker    *GoldmarkChunker
	embedder   Embedder
	store      vectorstore.VectorStore
	collection string
	chunkRepo  storage.ChunkStore
	batchSize  int
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(embedder Embedder, store vectorstore.VectorStore, collection string, chunkRepo storage.ChunkStore) *Pipeline {
	return &Pipeline{
		chunker:    NewGoldmarkChunker(),
		embedder:   embedder,
		store:      store,
		collection: collection,
		chunkRepo:  chunkRepo,
		batchSize:  llm.MaxBatchSize,
	}
}

// IngestDir walks a docs tree, chunks every .md/.mdx file, embeds the
// chunks in provider-sized batches, and upserts them into the vector
// store. The bookkeeping rows are swapped atomically at the end.
func (p *Pipeline) IngestDir(ctx context.Context, root string) (Stats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var stats Stats
	var chunks []Chunk

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".mdx" {
			return nil
		}

		doc, err := ExtractFile(path, root)
		if err != nil {
			return err
		}
		fileChunks := p.chunker.Chunk(doc)
		logger.DebugContext(ctx, "chunked file", "path", doc.RelPath, "chunks", len(fileChunks))

		stats.Files++
		chunks = append(chunks, fileChunks...)
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to walk docs tree: %w", err)
	}

	if len(chunks) == 0 {
		logger.WarnContext(ctx, "no chunks extracted", "root", root)
		return stats, nil
	}

	records := make([]storage.ContentChunk, 0, len(chunks))
	for start := 0; start < len(chunks); start += p.batchSize {
		end := min(start+p.batchSize, len(chunks))
		batch := chunks[start:end]

		batchRecords, err := p.indexBatch(ctx, batch)
		if err != nil {
			return stats, err
		}
		records = append(records, batchRecords...)
		stats.Chunks += len(batch)
		logger.InfoContext(ctx, "indexed batch", "from", start, "to", end, "total", len(chunks))
	}

	if err := p.chunkRepo.ReplaceAll(ctx, records); err != nil {
		return stats, err
	}

	logger.InfoContext(ctx, "ingestion completed", "files", stats.Files, "chunks", stats.Chunks)
	return stats, nil
}

// indexBatch embeds one batch of chunks and upserts the points.
func (p *Pipeline) indexBatch(ctx context.Context, batch []Chunk) ([]storage.ContentChunk, error) {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed batch: %w", err)
	}
	if len(vectors) != len(batch) {
		return nil, fmt.Errorf("expected %d vectors, got %d", len(batch), len(vectors))
	}

	points := make([]vectorstore.Point, len(batch))
	records := make([]storage.ContentChunk, len(batch))
	for i, chunk := range batch {
		id := uuid.NewString()
		points[i] = vectorstore.Point{
			ID:  id,
			Vec: vectors[i],
			Meta: map[string]any{
				"text":           chunk.Text,
				"heading":        chunk.Heading,
				"heading_level":  chunk.HeadingLevel,
				"section_id":     chunk.SectionID,
				"module_id":      chunk.ModuleID,
				"chapter_id":     chunk.ChapterID,
				"navigation_url": chunk.NavigationURL,
			},
		}
		records[i] = storage.ContentChunk{
			ID:            id,
			ModuleID:      chunk.ModuleID,
			ChapterID:     chunk.ChapterID,
			SectionID:     chunk.SectionID,
			Heading:       chunk.Heading,
			NavigationURL: chunk.NavigationURL,
			CharCount:     len(chunk.Text),
		}
	}

	if err := p.store.Upsert(ctx, p.collection, points); err != nil {
		return nil, err
	}
	return records, nil
}
