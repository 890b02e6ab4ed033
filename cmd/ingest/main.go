package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"textbook-ai/internal/config"
	"textbook-ai/internal/contextutil"
	"textbook-ai/internal/ingest"
	"textbook-ai/internal/llm"
	"textbook-ai/internal/storage"
	"textbook-ai/internal/vectorstore"
)

func main() {
	docsDir := flag.String("docs", "./docs", "path to the textbook markdown tree")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := contextutil.WithLogger(context.Background(), logger)

	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantAPIKey)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	chunkRepo := storage.NewChunkRepo(db)

	pipeline := ingest.NewPipeline(embedder, vectorStore, cfg.QdrantCollection, chunkRepo)

	slog.Info("Starting ingestion", "docs", *docsDir, "collection", cfg.QdrantCollection)
	stats, err := pipeline.IngestDir(ctx, *docsDir)
	if err != nil {
		log.Fatalf("Ingestion failed: %v", err)
	}
	slog.Info("Ingestion finished", "files", stats.Files, "chunks", stats.Chunks)
}
