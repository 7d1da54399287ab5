// Package embedding is the embedding client and sliding-window chunker (C5).
package embedding

import "strings"

const charsPerToken = 4

// Chunk is one slice of a document's text, with stable 0-based Index and
// byte offsets into the original text.
type Chunk struct {
	Index int
	Start int
	End   int
	Text  string
}

// ChunkOptions parameterizes Chunk's sliding window, grounded on
// chunker.targetLen's 4-chars-per-token heuristic.
type ChunkOptions struct {
	// ChunkSizeTokens is the target chunk size; default 500.
	ChunkSizeTokens int
	// OverlapTokens is the window overlap; default 50.
	OverlapTokens int
}

func (o ChunkOptions) sizeChars() int {
	n := o.ChunkSizeTokens
	if n <= 0 {
		n = 500
	}
	return n * charsPerToken
}

func (o ChunkOptions) overlapChars() int {
	n := o.OverlapTokens
	if n == 0 {
		n = 50
	}
	if n < 0 {
		n = 0
	}
	return n * charsPerToken
}

// SlidingWindow splits text into overlapping chunks of approximately
// ChunkSizeTokens with ChunkSizeTokens-OverlapTokens of new text per step,
// preferring to break on whitespace near the target boundary. Chunk.Index
// is 0-based and stable across calls with the same text and options.
func SlidingWindow(text string, opts ChunkOptions) []Chunk {
	size := opts.sizeChars()
	if size < charsPerToken {
		size = charsPerToken
	}
	overlap := opts.overlapChars()
	if overlap >= size {
		overlap = size / 2
	}

	var out []Chunk
	start := 0
	idx := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			end = len(text)
		} else if i := strings.LastIndex(text[start:end], " "); i > size/2 {
			end = start + i
		}

		trimmed := strings.TrimSpace(text[start:end])
		if trimmed != "" {
			out = append(out, Chunk{Index: idx, Start: start, End: end, Text: trimmed})
			idx++
		}

		if end >= len(text) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}
