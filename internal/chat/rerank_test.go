package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRerankOrderSortsByScoreDescending(t *testing.T) {
	contexts := []Context{{DocumentID: 1}, {DocumentID: 2}, {DocumentID: 3}}
	scores := map[string]float64{"1": 0.1, "2": 0.9, "3": 0.5}

	out := rerankOrder(contexts, scores)

	assert.Equal(t, []int64{2, 3, 1}, []int64{out[0].DocumentID, out[1].DocumentID, out[2].DocumentID})
}

func TestRerankOrderPreservesRelativeOrderForMissingIDs(t *testing.T) {
	contexts := []Context{{DocumentID: 1}, {DocumentID: 2}, {DocumentID: 3}}
	scores := map[string]float64{"2": 0.9} // 1 and 3 unscored, default to 0

	out := rerankOrder(contexts, scores)

	assert.Equal(t, int64(2), out[0].DocumentID)
	assert.Equal(t, int64(1), out[1].DocumentID, "unscored ids keep their pre-rerank relative order")
	assert.Equal(t, int64(3), out[2].DocumentID)
}
