package embedding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowIndicesStableAndZeroBased(t *testing.T) {
	text := strings.Repeat("word ", 1000)
	chunks := SlidingWindow(text, ChunkOptions{ChunkSizeTokens: 50, OverlapTokens: 10})

	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestSlidingWindowOverlapAdvancesLessThanChunkSize(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 200)
	chunks := SlidingWindow(text, ChunkOptions{ChunkSizeTokens: 20, OverlapTokens: 10})
	require.True(t, len(chunks) > 1)

	// With overlap, the second chunk's start must land before the first
	// chunk's end, otherwise there would be no overlap at all.
	assert.Less(t, chunks[1].Start, chunks[0].End)
}

func TestSlidingWindowShortTextSingleChunk(t *testing.T) {
	chunks := SlidingWindow("short text", ChunkOptions{ChunkSizeTokens: 500, OverlapTokens: 50})
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Start)
}

func TestSlidingWindowEmptyText(t *testing.T) {
	chunks := SlidingWindow("", ChunkOptions{})
	assert.Empty(t, chunks)
}
