package storage

import (
	"context"
	"testing"
)

func TestChunkRepo_ReplaceAll(t *testing.T) {
	db := newTestDB(t)
	repo := NewChunkRepo(db)
	ctx := context.Background()

	first := []ContentChunk{
		{ID: "c1", ModuleID: "module-1", ChapterID: "chapter-1", SectionID: "intro", Heading: "Intro", NavigationURL: "/module-1/intro", CharCount: 120},
		{ID: "c2", ModuleID: "module-2", ChapterID: "chapter-1", SectionID: "sensors", Heading: "Sensors", NavigationURL: "/module-2/sensors", CharCount: 340},
	}
	if err := repo.ReplaceAll(ctx, first); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 chunks, got %d", count)
	}

	// A second run replaces, not appends
	second := []ContentChunk{
		{ID: "c3", ModuleID: "module-3", ChapterID: "chapter-1", SectionID: "control", Heading: "Control", NavigationURL: "/module-3/control", CharCount: 200},
	}
	if err := repo.ReplaceAll(ctx, second); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	count, err = repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 chunk after replace, got %d", count)
	}
}

func TestChunkRepo_ReplaceAllEmpty(t *testing.T) {
	db := newTestDB(t)
	repo := NewChunkRepo(db)
	ctx := context.Background()

	if err := repo.ReplaceAll(ctx, []ContentChunk{{ID: "c1", ModuleID: "m", ChapterID: "c", SectionID: "s", Heading: "H", NavigationURL: "/u", CharCount: 10}}); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}
	if err := repo.ReplaceAll(ctx, nil); err != nil {
		t.Fatalf("ReplaceAll(nil) error = %v", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 chunks, got %d", count)
	}
}

func TestChunkRepo_ListModules(t *testing.T) {
	db := newTestDB(t)
	repo := NewChunkRepo(db)
	ctx := context.Background()

	chunks := []ContentChunk{
		{ID: "c1", ModuleID: "module-2", ChapterID: "c", SectionID: "s1", Heading: "H", NavigationURL: "/u", CharCount: 10},
		{ID: "c2", ModuleID: "module-1", ChapterID: "c", SectionID: "s2", Heading: "H", NavigationURL: "/u", CharCount: 10},
		{ID: "c3", ModuleID: "module-1", ChapterID: "c", SectionID: "s3", Heading: "H", NavigationURL: "/u", CharCount: 10},
	}
	if err := repo.ReplaceAll(ctx, chunks); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	modules, err := repo.ListModules(ctx)
	if err != nil {
		t.Fatalf("ListModules() error = %v", err)
	}
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}
	if modules[0] != "module-1" || modules[1] != "module-2" {
		t.Errorf("expected sorted distinct modules, got %v", modules)
	}
}

func TestChunkRepo_CountEmpty(t *testing.T) {
	db := newTestDB(t)
	repo := NewChunkRepo(db)

	count, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 chunks, got %d", count)
	}
}
