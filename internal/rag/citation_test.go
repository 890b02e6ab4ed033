package rag

import (
	"strings"
	"testing"
)

func TestToCitations(t *testing.T) {
	chunks := []RetrievedChunk{
		{Heading: "Introduction to ROS2", NavigationURL: "/module-1/ros2-basics", ModuleID: "module-1", ChapterID: "chapter-2", Score: 0.92},
		{Heading: "", NavigationURL: "", Score: 0.71},
	}

	citations := toCitations(chunks)

	if len(citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(citations))
	}
	if citations[0].Section != "Introduction to ROS2" {
		t.Errorf("unexpected section: %q", citations[0].Section)
	}
	if citations[0].URL != "/module-1/ros2-basics" {
		t.Errorf("unexpected url: %q", citations[0].URL)
	}
	if citations[0].Score != 0.92 {
		t.Errorf("unexpected score: %v", citations[0].Score)
	}
	if citations[1].Section != "Unknown Section" {
		t.Errorf("expected fallback section, got %q", citations[1].Section)
	}
	if citations[1].URL != "#" {
		t.Errorf("expected fallback url, got %q", citations[1].URL)
	}
}

func TestToCitationsEmpty(t *testing.T) {
	citations := toCitations(nil)
	if citations == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(citations) != 0 {
		t.Errorf("expected 0 citations, got %d", len(citations))
	}
}

func TestToCitationsPreservesOrder(t *testing.T) {
	chunks := []RetrievedChunk{
		{Heading: "First", Score: 0.9},
		{Heading: "Second", Score: 0.8},
		{Heading: "Third", Score: 0.7},
	}

	citations := toCitations(chunks)
	for i, want := range []string{"First", "Second", "Third"} {
		if citations[i].Section != want {
			t.Errorf("position %d: got %q, want %q", i, citations[i].Section, want)
		}
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float64
		expected float64
	}{
		{"empty yields zero", nil, 0.0},
		{"single score", []float64{0.8}, 0.8},
		{"mean of all when fewer than five", []float64{0.9, 0.7}, 0.8},
		{"rounded to two decimals", []float64{0.333, 0.333, 0.333}, 0.33},
		{"rounds half up", []float64{0.125, 0.125}, 0.13},
		{"only first five counted", []float64{1.0, 1.0, 1.0, 1.0, 1.0, 0.0, 0.0}, 1.0},
		{"all perfect", []float64{1.0, 1.0}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := make([]RetrievedChunk, len(tt.scores))
			for i, score := range tt.scores {
				chunks[i] = RetrievedChunk{Score: score}
			}
			result := confidence(chunks)
			if result != tt.expected {
				t.Errorf("confidence(%v) = %v, want %v", tt.scores, result, tt.expected)
			}
		})
	}
}

func TestConfidenceRange(t *testing.T) {
	// Scores from the vector store are 0..1, so the mean must be too
	chunks := []RetrievedChunk{{Score: 0.61}, {Score: 0.99}, {Score: 0.75}}
	result := confidence(chunks)
	if result < 0.0 || result > 1.0 {
		t.Errorf("confidence out of range: %v", result)
	}
}

func TestFormatCitations(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		result := formatCitations(nil)
		if result != "No citations available" {
			t.Errorf("unexpected output: %q", result)
		}
	})

	t.Run("numbered lines", func(t *testing.T) {
		citations := []Citation{
			{Section: "Sensors", ModuleID: "module-2", Score: 0.88},
			{Section: "Actuators", Score: 0.75},
		}

		result := formatCitations(citations)
		lines := strings.Split(result, "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(lines))
		}
		if lines[0] != "1. Sensors (Module: module-2, Relevance: 0.88)" {
			t.Errorf("unexpected first line: %q", lines[0])
		}
		if lines[1] != "2. Actuators (, Relevance: 0.75)" {
			t.Errorf("unexpected second line: %q", lines[1])
		}
	})
}
