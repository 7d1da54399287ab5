package chat

import (
	"fmt"
	"sort"
)

// rerankOrder sorts contexts by score descending. A context whose id is
// missing from scores is treated as score 0, so sort.SliceStable preserves
// its pre-rerank relative position among other unscored (or equally
// scored) contexts.
func rerankOrder(contexts []Context, scores map[string]float64) []Context {
	out := make([]Context, len(contexts))
	copy(out, contexts)

	scoreFor := func(c Context) float64 {
		return scores[fmt.Sprintf("%d", c.DocumentID)]
	}

	sort.SliceStable(out, func(i, j int) bool {
		return scoreFor(out[i]) > scoreFor(out[j])
	})
	return out
}
