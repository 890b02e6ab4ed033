package ingest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is one extracted textbook source file: frontmatter metadata
// plus the markdown body.
type Document struct {
	Title         string
	ModuleID      string
	ChapterID     string
	NavigationURL string
	RelPath       string
	Body          []byte
}

// frontmatter is the YAML block at the top of a textbook markdown file.
type frontmatter struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

var frontmatterDelimiter = []byte("---\n")

// ExtractFile reads a markdown file and derives its textbook metadata:
// the module id from a "module-N" path part (default "general"), the
// chapter id from a "chapter-*" or "ch-*" part (default "intro"), and
// the navigation URL from the extension-less relative path.
func ExtractFile(path, root string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	relPath, err := filepath.Rel(root, path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to resolve relative path for %s: %w", path, err)
	}
	relPath = filepath.ToSlash(relPath)

	meta, body := splitFrontmatter(raw)

	moduleID := "general"
	chapterID := "intro"
	for _, part := range strings.Split(relPath, "/") {
		switch {
		case strings.HasPrefix(part, "module-"):
			moduleID = part
		case strings.HasPrefix(part, "chapter-"), strings.HasPrefix(part, "ch-"):
			chapterID = part
		}
	}

	navURL := "/" + strings.TrimSuffix(strings.TrimSuffix(relPath, ".mdx"), ".md")

	title := meta.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
	}

	return Document{
		Title:         title,
		ModuleID:      moduleID,
		ChapterID:     chapterID,
		NavigationURL: navURL,
		RelPath:       relPath,
		Body:          body,
	}, nil
}

// splitFrontmatter separates a leading YAML frontmatter block from the
// markdown body. Malformed frontmatter is treated as body content.
func splitFrontmatter(raw []byte) (frontmatter, []byte) {
	var meta frontmatter

	if !bytes.HasPrefix(raw, frontmatterDelimiter) {
		return meta, raw
	}

	rest := raw[len(frontmatterDelimiter):]
	end := bytes.Index(rest, frontmatterDelimiter)
	if end < 0 {
		return meta, raw
	}

	if err := yaml.Unmarshal(rest[:end], &meta); err != nil {
		return frontmatter{}, raw
	}
	return meta, rest[end+len(frontmatterDelimiter):]
}
