package ingest

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Minimum chunk sizes. Fragments below these carry too little content
// to be worth indexing.
const (
	minIntroLen   = 100
	minSectionLen = 50
)

// Chunk is one semantic unit of textbook content, bounded by H2/H3
// headings, with the metadata the retrieval payload carries.
type Chunk struct {
	Text          string
	Heading       string
	HeadingLevel  int
	SectionID     string
	ParentSection string
	ModuleID      string
	ChapterID     string
	NavigationURL string
}

// GoldmarkChunker splits markdown into heading-bounded chunks using
// goldmark AST parsing.
type GoldmarkChunker struct {
	parser goldmark.Markdown
}

// NewGoldmarkChunker creates a new chunker.
func NewGoldmarkChunker() *GoldmarkChunker {
	return &GoldmarkChunker{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// headingBoundary marks where a section heading sits in the source.
type headingBoundary struct {
	level        int
	title        string
	lineStart    int // offset of the first byte of the heading line
	contentStart int // offset of the first line after the heading
}

// Chunk splits a document on its H2 and H3 headings. Content before the
// first H2 becomes an intro chunk under the document title; content
// under an H3 gets a combined "H2 > H3" heading. Chunks below the
// minimum sizes are dropped.
func (c *GoldmarkChunker) Chunk(doc Document) []Chunk {
	source := doc.Body
	root := c.parser.Parser().Parse(text.NewReader(source))

	var boundaries []headingBoundary
	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		heading, ok := node.(*ast.Heading)
		if !ok || (heading.Level != 2 && heading.Level != 3) || heading.Lines().Len() == 0 {
			continue
		}
		segment := heading.Lines().At(0)
		lineStart := bytes.LastIndexByte(source[:segment.Start], '\n') + 1
		// A setext heading has no marker before the text; its underline
		// sits on the following line.
		setext := !bytes.Contains(source[lineStart:segment.Start], []byte("#"))
		contentStart := nextLineStart(source, segment.Stop)
		if setext {
			contentStart = nextLineStart(source, contentStart)
		}
		boundaries = append(boundaries, headingBoundary{
			level:        heading.Level,
			title:        strings.TrimSpace(string(source[segment.Start:segment.Stop])),
			lineStart:    lineStart,
			contentStart: contentStart,
		})
	}

	var chunks []Chunk

	introEnd := len(source)
	if len(boundaries) > 0 {
		introEnd = boundaries[0].lineStart
	}
	intro := strings.TrimSpace(string(source[:introEnd]))
	if len(intro) > minIntroLen {
		chunks = append(chunks, c.newChunk(doc, intro, doc.Title, 1, "intro", ""))
	}

	currentH2 := ""
	for i, boundary := range boundaries {
		contentEnd := len(source)
		if i+1 < len(boundaries) {
			contentEnd = boundaries[i+1].lineStart
		}
		content := strings.TrimSpace(string(source[boundary.contentStart:contentEnd]))

		if boundary.level == 2 {
			currentH2 = boundary.title
			if len(content) > minSectionLen {
				chunks = append(chunks, c.newChunk(doc, content, boundary.title, 2, headingToID(boundary.title), ""))
			}
			continue
		}

		if len(content) > minSectionLen {
			heading := boundary.title
			parent := ""
			if currentH2 != "" {
				heading = currentH2 + " > " + boundary.title
				parent = headingToID(currentH2)
			}
			chunks = append(chunks, c.newChunk(doc, content, heading, 3, headingToID(boundary.title), parent))
		}
	}

	return chunks
}

// nextLineStart returns the offset of the first byte after the line
// containing offset.
func nextLineStart(source []byte, offset int) int {
	if offset >= len(source) {
		return len(source)
	}
	i := bytes.IndexByte(source[offset:], '\n')
	if i < 0 {
		return len(source)
	}
	return offset + i + 1
}

func (c *GoldmarkChunker) newChunk(doc Document, content, heading string, level int, sectionID, parent string) Chunk {
	return Chunk{
		Text:          content,
		Heading:       heading,
		HeadingLevel:  level,
		SectionID:     sectionID,
		ParentSection: parent,
		ModuleID:      doc.ModuleID,
		ChapterID:     doc.ChapterID,
		NavigationURL: doc.NavigationURL,
	}
}

var (
	idStripPattern    = regexp.MustCompile(`[^\w\s-]`)
	idCollapsePattern = regexp.MustCompile(`[\s_]+`)
)

// headingToID converts heading text to a URL-friendly section id.
func headingToID(heading string) string {
	id := idStripPattern.ReplaceAllString(strings.ToLower(heading), "")
	id = idCollapsePattern.ReplaceAllString(id, "-")
	return strings.Trim(id, "-")
}
