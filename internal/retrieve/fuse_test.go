package retrieve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"archon/internal/lexicalindex"
	"archon/internal/vectorindex"
)

func TestFuseRRFCombinesBothSourceContributions(t *testing.T) {
	lex := []lexicalindex.Hit{{ID: "1"}, {ID: "2"}}
	vec := []vectorindex.Result{{DocumentID: 2}, {DocumentID: 1}}

	out := fuseRRF(lex, vec, 0.5, 0.5)

	var doc1, doc2 *Result
	for i := range out {
		switch out[i].DocumentID {
		case 1:
			doc1 = &out[i]
		case 2:
			doc2 = &out[i]
		}
	}
	expected1 := 0.5/float64(rrfK+1) + 0.5/float64(rrfK+2)
	expected2 := 0.5/float64(rrfK+2) + 0.5/float64(rrfK+1)
	assert.InDelta(t, expected1, doc1.Score, 1e-9)
	assert.InDelta(t, expected2, doc2.Score, 1e-9)
	assert.True(t, doc1.FromLexical && doc1.FromSemantic)
}

func TestFuseRRFSingleSourceScoresAlone(t *testing.T) {
	lex := []lexicalindex.Hit{{ID: "5"}}

	out := fuseRRF(lex, nil, 0.7, 0.3)

	assert.Len(t, out, 1)
	assert.Equal(t, int64(5), out[0].DocumentID)
	assert.InDelta(t, 0.7/float64(rrfK+1), out[0].Score, 1e-9)
	assert.False(t, out[0].FromSemantic)
}

func TestFuseRRFTieBreaksByDominantSourceRank(t *testing.T) {
	// Each doc is rank 1 on one side and rank 2 on the other, so with equal
	// weights their fused scores tie exactly; the lexical order decides.
	lex := []lexicalindex.Hit{{ID: "10"}, {ID: "20"}}
	vec := []vectorindex.Result{{DocumentID: 20}, {DocumentID: 10}}

	out := fuseRRF(lex, vec, 0.5, 0.5)

	assert.Equal(t, int64(10), out[0].DocumentID)
	assert.Equal(t, int64(20), out[1].DocumentID)
}

func TestFuseRRFSkipsLexicalHitsWithNonIntegerID(t *testing.T) {
	lex := []lexicalindex.Hit{{ID: "not-a-number"}, {ID: "3"}}

	out := fuseRRF(lex, nil, 1.0, 0.0)

	assert.Len(t, out, 1)
	assert.Equal(t, int64(3), out[0].DocumentID)
}
