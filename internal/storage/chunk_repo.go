package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// ContentChunk is the bookkeeping row for one indexed textbook section.
// The chunk text itself lives in the vector store payload; this table
// backs the content-status surface.
type ContentChunk struct {
	ID            string
	ModuleID      string
	ChapterID     string
	SectionID     string
	Heading       string
	NavigationURL string
	CharCount     int
}

// ChunkStore tracks which textbook chunks are indexed.
type ChunkStore interface {
	// ReplaceAll atomically swaps the indexed-chunk records for a fresh
	// ingestion run.
	ReplaceAll(ctx context.Context, chunks []ContentChunk) error
	// Count returns the number of indexed chunks.
	Count(ctx context.Context) (int, error)
	// ListModules returns indexed module ids in sorted order.
	ListModules(ctx context.Context) ([]string, error)
}

// ChunkRepo implements ChunkStore on SQLite.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a chunk repository.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ReplaceAll atomically swaps the indexed-chunk records.
func (r *ChunkRepo) ReplaceAll(ctx context.Context, chunks []ContentChunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM content_chunks`); err != nil {
		return fmt.Errorf("failed to clear content chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO content_chunks (id, module_id, chapter_id, section_id, heading, navigation_url, char_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx,
			chunk.ID, chunk.ModuleID, chunk.ChapterID, chunk.SectionID,
			chunk.Heading, chunk.NavigationURL, chunk.CharCount,
		); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Count returns the number of indexed chunks.
func (r *ChunkRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM content_chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// ListModules returns indexed module ids in sorted order.
func (r *ChunkRepo) ListModules(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT module_id FROM content_chunks ORDER BY module_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var modules []string
	for rows.Next() {
		var moduleID string
		if err := rows.Scan(&moduleID); err != nil {
			return nil, fmt.Errorf("failed to scan module id: %w", err)
		}
		modules = append(modules, moduleID)
	}
	return modules, rows.Err()
}
