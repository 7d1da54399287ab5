package retrieve

import (
	"sort"
	"strconv"

	"archon/internal/lexicalindex"
	"archon/internal/vectorindex"
)

// fuseRRF implements §4.10's Weighted Reciprocal Rank Fusion over exactly
// two sources. For rank r (0-based), a source contributes weight/(k+r+1);
// a document missing from a source contributes 0 from it. Ties are broken
// by the rank order of whichever side carries the larger weight, so the
// dominant source's ordering is preserved among equally-fused documents.
func fuseRRF(lexHits []lexicalindex.Hit, vecResults []vectorindex.Result, keywordWeight, semanticWeight float64) []Result {
	byDoc := make(map[int64]*Result)
	order := make([]int64, 0, len(lexHits)+len(vecResults))

	get := func(id int64) *Result {
		if res, ok := byDoc[id]; ok {
			return res
		}
		res := &Result{DocumentID: id}
		byDoc[id] = res
		order = append(order, id)
		return res
	}

	for i, h := range lexHits {
		id, err := strconv.ParseInt(h.ID, 10, 64)
		if err != nil {
			continue
		}
		res := get(id)
		res.FromLexical = true
		res.LexicalRank = i + 1
		res.FilePath = h.FilePath
		res.FileName = h.FileName
		res.FileType = h.FileType
		res.Snippet = h.Snippet
		res.Highlights = h.MatchPositions
		res.Score += keywordWeight / float64(rrfK+res.LexicalRank)
	}

	for i, v := range vecResults {
		res := get(v.DocumentID)
		res.FromSemantic = true
		res.SemanticRank = i + 1
		if res.FilePath == "" {
			res.FilePath = v.FilePath
			res.FileName = v.FileName
			res.FileType = string(v.FileType)
		}
		if res.Snippet == "" {
			res.Snippet = v.ChunkText
		}
		res.Score += semanticWeight / float64(rrfK+res.SemanticRank)
	}

	out := make([]Result, 0, len(order))
	for _, id := range order {
		out = append(out, *byDoc[id])
	}

	dominantSemantic := semanticWeight > keywordWeight

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		ri, rj := dominantRank(out[i], dominantSemantic), dominantRank(out[j], dominantSemantic)
		return ri < rj
	})
	return out
}

// dominantRank returns the rank on whichever side is weighted higher,
// falling back to a large sentinel when the document didn't appear there
// so it sorts after documents that did.
func dominantRank(r Result, semantic bool) int {
	rank := r.LexicalRank
	if semantic {
		rank = r.SemanticRank
	}
	if rank == 0 {
		return 1 << 30
	}
	return rank
}
