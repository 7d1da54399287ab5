// Package retrieve is the hybrid retriever (C11): it fans a query out to
// the lexical index (C7) and the vector index (C6), fuses the two ranked
// lists with Weighted Reciprocal Rank Fusion, and paginates the result.
//
// The fusion shape is grounded on its internal/rag/retrieve/fusion.go
// FuseRRF: 1-based ranks, a 0 contribution for an absent side, and a fused
// score that sums whichever sides a document appears in. This package
// narrows that to a fixed two-source, k=60 formula instead of its
// N-source/alpha generalization.
package retrieve

import (
	"context"
	"time"

	"archon/internal/catalog"
	"archon/internal/lexicalindex"
	"archon/internal/telemetry"
	"archon/internal/vectorindex"
)

const rrfK = 60

var tracer = telemetry.NewTracer("retrieve")

// Query is one hybrid search request (§4.10).
type Query struct {
	Text           string
	Limit          int
	Offset         int
	SemanticWeight float64 // in [0,1]; keyword weight is 1-SemanticWeight
	FileTypes      []catalog.FileType
	ScanIDs        []int64
}

// Result is one fused, document-level hit.
type Result struct {
	DocumentID   int64
	FilePath     string
	FileName     string
	FileType     string
	Score        float64
	FromLexical  bool
	FromSemantic bool
	LexicalRank  int // 1-based; 0 if absent
	SemanticRank int // 1-based; 0 if absent
	Snippet      string
	Highlights   []string
}

// Response is the full API-shaped payload for POST /search.
type Response struct {
	Query            string
	TotalResults     int
	Results          []Result
	ProcessingTimeMs int64
}

// LexicalSearcher is the subset of lexicalindex.Index the retriever needs.
type LexicalSearcher interface {
	Search(ctx context.Context, query string, filters lexicalindex.SearchFilters) (lexicalindex.SearchResponse, error)
}

// VectorSearcher is the subset of vectorindex.Index the retriever needs.
type VectorSearcher interface {
	Search(ctx context.Context, queryVector []float32, k int, filters vectorindex.SearchFilters, opts vectorindex.SearchOptions) ([]vectorindex.Result, error)
}

// QueryEmbedder turns a query string into a vector for semantic search.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Reranker re-scores a candidate list before pagination (§4.12). Optional.
type Reranker interface {
	Rerank(ctx context.Context, query string, results []Result) ([]Result, error)
}

// Retriever wires the two recall sources together.
type Retriever struct {
	lexical  LexicalSearcher
	vector   VectorSearcher
	embedder QueryEmbedder
	rerank   Reranker
}

// Option configures a Retriever.
type Option func(*Retriever)

func WithReranker(r Reranker) Option { return func(ret *Retriever) { ret.rerank = r } }

// New builds a Retriever. vector/embedder may be nil when semantic search is
// not configured for a deployment; Retrieve then behaves as lexical-only
// regardless of the query's semantic_weight.
func New(lexical LexicalSearcher, vector VectorSearcher, embedder QueryEmbedder, opts ...Option) *Retriever {
	r := &Retriever{lexical: lexical, vector: vector, embedder: embedder}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve executes the hybrid search described in §4.10 and returns a
// paginated, fused result set.
func (r *Retriever) Retrieve(ctx context.Context, q Query, now func() time.Time) (resp Response, err error) {
	ctx, end := tracer.Start(ctx, "retrieve.Retrieve", map[string]any{"query": q.Text, "semantic_weight": q.SemanticWeight})
	defer func() { end(err) }()

	start := timeNow(now)
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	semanticWeight := clamp01(q.SemanticWeight)
	if r.vector == nil || r.embedder == nil {
		semanticWeight = 0
	}
	keywordWeight := 1 - semanticWeight

	var lexHits []lexicalindex.Hit
	if keywordWeight > 0 && r.lexical != nil {
		resp, err := r.lexical.Search(ctx, q.Text, lexicalindex.SearchFilters{
			Limit:     limit * 2,
			FileTypes: fileTypeStrings(q.FileTypes),
			ScanIDs:   q.ScanIDs,
		})
		if err != nil {
			return Response{}, err
		}
		lexHits = resp.Hits
	}

	var vecResults []vectorindex.Result
	if semanticWeight > 0 && r.vector != nil && r.embedder != nil {
		vec, err := r.embedder.EmbedQuery(ctx, q.Text)
		if err != nil {
			return Response{}, err
		}
		vecResults, err = r.vector.Search(ctx, vec, limit*2, vectorindex.SearchFilters{
			FileTypes: q.FileTypes,
			ScanIDs:   q.ScanIDs,
		}, vectorindex.SearchOptions{})
		if err != nil {
			return Response{}, err
		}
	}

	fused := fuseRRF(lexHits, vecResults, keywordWeight, semanticWeight)

	if r.rerank != nil && len(fused) > 0 {
		reranked, err := r.rerank.Rerank(ctx, q.Text, fused)
		if err == nil {
			fused = reranked
		}
	}

	total := len(fused)
	page := paginate(fused, q.Offset, limit)

	return Response{
		Query:            q.Text,
		TotalResults:     total,
		Results:          page,
		ProcessingTimeMs: elapsedMs(start, now),
	}, nil
}

func paginate(results []Result, offset, limit int) []Result {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return []Result{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	out := make([]Result, end-offset)
	copy(out, results[offset:end])
	return out
}

func fileTypeStrings(ft []catalog.FileType) []string {
	if ft == nil {
		return nil
	}
	out := make([]string, len(ft))
	for i, t := range ft {
		out[i] = string(t)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func timeNow(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}

func elapsedMs(start time.Time, now func() time.Time) int64 {
	return timeNow(now).Sub(start).Milliseconds()
}
