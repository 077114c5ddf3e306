package services

import (
	"strings"
	"testing"
)

func TestChunkTextSingleShortChunk(t *testing.T) {
	chunker := NewTextChunker(1000, 200, 200)
	chunks := chunker.ChunkText("A short syllabus section.\n\nAnother short paragraph.")
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if !strings.Contains(chunks[0], "Another short paragraph.") {
		t.Errorf("chunk lost a paragraph: %q", chunks[0])
	}
}

func TestChunkTextEmpty(t *testing.T) {
	chunker := NewTextChunker(1000, 200, 200)
	if chunks := chunker.ChunkText("   \n\n  "); len(chunks) != 0 {
		t.Errorf("got %d chunks for blank text, want 0", len(chunks))
	}
}

func TestChunkTextSplitsWithOverlap(t *testing.T) {
	chunker := NewTextChunker(50, 15, 10)
	p1 := "First paragraph with some text here."
	p2 := "Second paragraph follows with more text."

	chunks := chunker.ChunkText(p1 + "\n\n" + p2)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0] != p1 {
		t.Errorf("first chunk = %q, want first paragraph alone", chunks[0])
	}
	if !strings.Contains(chunks[1], p2) {
		t.Errorf("second chunk lost its paragraph: %q", chunks[1])
	}
	// The second chunk opens with trailing text of the first for continuity.
	if !strings.HasPrefix(chunks[1], "some text here.") {
		t.Errorf("second chunk missing overlap prefix: %q", chunks[1])
	}
}

func TestChunkTextPreservesAllParagraphs(t *testing.T) {
	chunker := NewTextChunker(120, 30, 40)
	paragraphs := []string{
		"Vectors describe quantities with both magnitude and direction.",
		"Scalar quantities carry magnitude only, such as mass and temperature.",
		"The dot product of two vectors yields a scalar result.",
		"The cross product yields a vector perpendicular to both operands.",
	}

	chunks := chunker.ChunkText(strings.Join(paragraphs, "\n\n"))
	if len(chunks) < 2 {
		t.Fatalf("expected the text to split, got %d chunks", len(chunks))
	}

	joined := strings.Join(chunks, "\n\n")
	for _, p := range paragraphs {
		if !strings.Contains(joined, p) {
			t.Errorf("paragraph dropped during chunking: %q", p)
		}
	}
}

func TestOverlapTextShorterThanOverlap(t *testing.T) {
	chunker := NewTextChunker(100, 50, 10)
	text := "Tiny chunk."
	if got := chunker.overlapText(text); got != text {
		t.Errorf("overlapText(%q) = %q, want full text", text, got)
	}
}

func TestOverlapTextDisabled(t *testing.T) {
	chunker := NewTextChunker(100, 0, 10)
	if got := chunker.overlapText("Some previous chunk content."); got != "" {
		t.Errorf("overlapText with zero overlap = %q, want empty", got)
	}
}
