package vectorindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarityIdentical(t *testing.T) {
	v := []float32{1, 2, 3}
	assert.InDelta(t, 1.0, cosineSimilarity(v, v), 1e-9)
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
}

func TestSelectMMRPrefersDiverseOverRedundant(t *testing.T) {
	// a and b are near-identical vectors (both highly relevant and highly
	// similar to each other); c is less relevant but orthogonal. With a
	// diversity-favoring lambda, the second pick should be c, not b.
	candidates := []Result{
		{DocumentID: 1, Score: 0.95, Vector: []float32{1, 0}},
		{DocumentID: 2, Score: 0.94, Vector: []float32{1, 0.01}},
		{DocumentID: 3, Score: 0.70, Vector: []float32{0, 1}},
	}
	picked := selectMMR(candidates, 0.3, 2)
	require.Len(t, picked, 2)
	assert.Equal(t, int64(1), picked[0].DocumentID)
	assert.Equal(t, int64(3), picked[1].DocumentID)
}

func TestSelectMMRFallsBackToRelevanceWithoutVectors(t *testing.T) {
	candidates := []Result{
		{DocumentID: 1, Score: 0.9},
		{DocumentID: 2, Score: 0.8},
		{DocumentID: 3, Score: 0.7},
	}
	picked := selectMMR(candidates, 0.5, 2)
	require.Len(t, picked, 2)
	assert.Equal(t, int64(1), picked[0].DocumentID)
	assert.Equal(t, int64(2), picked[1].DocumentID)
}

func TestSelectMMRCapsAtK(t *testing.T) {
	candidates := []Result{
		{DocumentID: 1, Score: 0.9, Vector: []float32{1, 0}},
		{DocumentID: 2, Score: 0.8, Vector: []float32{0, 1}},
		{DocumentID: 3, Score: 0.7, Vector: []float32{1, 1}},
	}
	picked := selectMMR(candidates, 0.5, 1)
	assert.Len(t, picked, 1)
}

func TestDedupeByDocumentKeepsHighestScore(t *testing.T) {
	candidates := []Result{
		{DocumentID: 1, ChunkIndex: 0, Score: 0.5},
		{DocumentID: 1, ChunkIndex: 1, Score: 0.9},
		{DocumentID: 2, ChunkIndex: 0, Score: 0.4},
	}
	out := dedupeByDocument(candidates)
	require.Len(t, out, 2)

	byDoc := map[int64]Result{}
	for _, r := range out {
		byDoc[r.DocumentID] = r
	}
	assert.Equal(t, 1, byDoc[1].ChunkIndex)
	assert.InDelta(t, 0.9, byDoc[1].Score, 1e-9)
	assert.InDelta(t, 0.4, byDoc[2].Score, 1e-9)
}
