package vectorindex

import (
	"context"
	"fmt"
	"sort"

	"github.com/qdrant/go-client/qdrant"

	"archon/internal/catalog"
)

const (
	defaultCandidateMultiplier = 2
	mmrCandidateMultiplier     = 18
	defaultLambda              = 0.5
)

// Search fetches k*candidateMultiplier candidates by cosine score, drops
// those under MinScore, deduplicates by document_id keeping the
// highest-scoring chunk, optionally re-selects via MMR, and returns at most
// k results.
func (idx *Index) Search(ctx context.Context, queryVector []float32, k int, filters SearchFilters, opts SearchOptions) ([]Result, error) {
	if k <= 0 {
		k = 10
	}
	multiplier := opts.CandidateMultiplier
	if multiplier <= 0 {
		multiplier = defaultCandidateMultiplier
		if opts.UseMMR {
			multiplier = mmrCandidateMultiplier
		}
	}
	lambda := opts.Lambda
	if lambda <= 0 {
		lambda = defaultLambda
	}

	qdrantFilter := buildFilter(filters)
	limit := uint64(k * multiplier)

	vec := make([]float32, len(queryVector))
	copy(vec, queryVector)

	hits, err := idx.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: idx.collection,
		Query:          qdrant.NewQueryDense(vec),
		Limit:          &limit,
		Filter:         qdrantFilter,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: search: %w", err)
	}

	candidates := make([]Result, 0, len(hits))
	for _, hit := range hits {
		score := float64(hit.Score)
		if opts.MinScore > 0 && score < opts.MinScore {
			continue
		}
		candidates = append(candidates, resultFromHit(hit, score))
	}

	deduped := dedupeByDocument(candidates)

	sort.Slice(deduped, func(i, j int) bool { return deduped[i].Score > deduped[j].Score })

	if opts.UseMMR {
		deduped = selectMMR(deduped, lambda, k)
	} else if len(deduped) > k {
		deduped = deduped[:k]
	}
	return deduped, nil
}

func buildFilter(filters SearchFilters) *qdrant.Filter {
	var must []*qdrant.Condition
	if len(filters.FileTypes) > 0 {
		var should []*qdrant.Condition
		for _, ft := range filters.FileTypes {
			should = append(should, qdrant.NewMatch("file_type", string(ft)))
		}
		must = append(must, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Filter{Filter: &qdrant.Filter{Should: should}},
		})
	}
	if len(filters.ScanIDs) > 0 {
		var should []*qdrant.Condition
		for _, id := range filters.ScanIDs {
			should = append(should, qdrant.NewMatchInt("scan_id", id))
		}
		must = append(must, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Filter{Filter: &qdrant.Filter{Should: should}},
		})
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

func resultFromHit(hit *qdrant.ScoredPoint, score float64) Result {
	r := Result{Score: score}
	if hit.Payload != nil {
		if v, ok := hit.Payload["document_id"]; ok {
			r.DocumentID = v.GetIntegerValue()
		}
		if v, ok := hit.Payload["scan_id"]; ok {
			r.ScanID = v.GetIntegerValue()
		}
		if v, ok := hit.Payload["file_path"]; ok {
			r.FilePath = v.GetStringValue()
		}
		if v, ok := hit.Payload["file_name"]; ok {
			r.FileName = v.GetStringValue()
		}
		if v, ok := hit.Payload["file_type"]; ok {
			r.FileType = catalog.FileType(v.GetStringValue())
		}
		if v, ok := hit.Payload["chunk_index"]; ok {
			r.ChunkIndex = int(v.GetIntegerValue())
		}
		if v, ok := hit.Payload["chunk_text"]; ok {
			r.ChunkText = v.GetStringValue()
		}
	}
	if hit.Vectors != nil {
		if dense := hit.Vectors.GetVector(); dense != nil {
			r.Vector = dense.GetData()
		}
	}
	return r
}

// dedupeByDocument keeps, per document_id, only the highest-scoring chunk.
// Input order does not matter; output order is unspecified (callers sort).
func dedupeByDocument(candidates []Result) []Result {
	best := make(map[int64]Result, len(candidates))
	order := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		existing, ok := best[c.DocumentID]
		if !ok {
			order = append(order, c.DocumentID)
			best[c.DocumentID] = c
			continue
		}
		if c.Score > existing.Score {
			best[c.DocumentID] = c
		}
	}
	out := make([]Result, 0, len(order))
	for _, id := range order {
		out = append(out, best[id])
	}
	return out
}
