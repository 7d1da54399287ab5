package retrieve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archon/internal/lexicalindex"
	"archon/internal/vectorindex"
)

type fakeLexical struct {
	resp lexicalindex.SearchResponse
	err  error
}

func (f fakeLexical) Search(ctx context.Context, query string, filters lexicalindex.SearchFilters) (lexicalindex.SearchResponse, error) {
	return f.resp, f.err
}

type fakeVector struct {
	results []vectorindex.Result
	err     error
}

func (f fakeVector) Search(ctx context.Context, queryVector []float32, k int, filters vectorindex.SearchFilters, opts vectorindex.SearchOptions) ([]vectorindex.Result, error) {
	return f.results, f.err
}

type fakeEmbedder struct{ vec []float32 }

func (f fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return f.vec, nil
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestRetrieveFusesLexicalAndSemanticHits(t *testing.T) {
	lex := fakeLexical{resp: lexicalindex.SearchResponse{Hits: []lexicalindex.Hit{
		{ID: "1", FilePath: "a.txt", Snippet: "lexical hit"},
		{ID: "2", FilePath: "b.txt"},
	}}}
	vec := fakeVector{results: []vectorindex.Result{
		{DocumentID: 2, FilePath: "b.txt", ChunkText: "semantic hit"},
		{DocumentID: 3, FilePath: "c.txt"},
	}}

	r := New(lex, vec, fakeEmbedder{vec: []float32{0.1, 0.2}})

	resp, err := r.Retrieve(context.Background(), Query{Text: "witness", Limit: 10, SemanticWeight: 0.5}, fixedClock(time.Unix(0, 0)))
	require.NoError(t, err)
	assert.Equal(t, 3, resp.TotalResults)
	assert.Equal(t, "witness", resp.Query)

	var doc2 *Result
	for i := range resp.Results {
		if resp.Results[i].DocumentID == 2 {
			doc2 = &resp.Results[i]
		}
	}
	require.NotNil(t, doc2)
	assert.True(t, doc2.FromLexical)
	assert.True(t, doc2.FromSemantic)
}

func TestRetrieveSkipsSemanticWhenWeightIsZero(t *testing.T) {
	lex := fakeLexical{resp: lexicalindex.SearchResponse{Hits: []lexicalindex.Hit{{ID: "1"}}}}
	r := New(lex, nil, nil)

	resp, err := r.Retrieve(context.Background(), Query{Text: "q", Limit: 5, SemanticWeight: 0}, nil)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.False(t, resp.Results[0].FromSemantic)
}

func TestRetrievePaginatesAfterFusion(t *testing.T) {
	var hits []lexicalindex.Hit
	for i := 1; i <= 5; i++ {
		hits = append(hits, lexicalindex.Hit{ID: string(rune('0' + i))})
	}
	lex := fakeLexical{resp: lexicalindex.SearchResponse{Hits: hits}}
	r := New(lex, nil, nil)

	resp, err := r.Retrieve(context.Background(), Query{Text: "q", Limit: 2, Offset: 2, SemanticWeight: 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, resp.TotalResults)
	assert.Len(t, resp.Results, 2)
}

func TestRetrieveAppliesRerankerBeforePagination(t *testing.T) {
	lex := fakeLexical{resp: lexicalindex.SearchResponse{Hits: []lexicalindex.Hit{{ID: "1"}, {ID: "2"}}}}
	reranked := rerankerFunc(func(ctx context.Context, query string, results []Result) ([]Result, error) {
		// reverse order
		out := make([]Result, len(results))
		for i, r := range results {
			out[len(results)-1-i] = r
		}
		return out, nil
	})
	r := New(lex, nil, nil, WithReranker(reranked))

	resp, err := r.Retrieve(context.Background(), Query{Text: "q", Limit: 10, SemanticWeight: 0}, nil)
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, int64(2), resp.Results[0].DocumentID)
}

type rerankerFunc func(ctx context.Context, query string, results []Result) ([]Result, error)

func (f rerankerFunc) Rerank(ctx context.Context, query string, results []Result) ([]Result, error) {
	return f(ctx, query, results)
}
