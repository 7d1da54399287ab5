package vectorindex

import "math"

// selectMMR iteratively picks the candidate maximizing
// lambda*relevance - (1-lambda)*max_similarity_to_already_picked, until k
// are picked or candidates are exhausted. Candidates must already be sorted
// by descending relevance (Score). Falls back to pure relevance order when
// no candidate carries a vector; a candidate without a vector is scored
// with zero similarity to the picked ones.
func selectMMR(candidates []Result, lambda float64, k int) []Result {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if !anyHasVector(candidates) {
		if len(candidates) > k {
			return candidates[:k]
		}
		return candidates
	}

	remaining := make([]Result, len(candidates))
	copy(remaining, candidates)
	picked := make([]Result, 0, k)

	for len(picked) < k && len(remaining) > 0 {
		bestIdx := -1
		bestScore := math.Inf(-1)
		for i, cand := range remaining {
			maxSim := 0.0
			if len(cand.Vector) > 0 {
				for _, p := range picked {
					if len(p.Vector) == 0 {
						continue
					}
					if sim := cosineSimilarity(cand.Vector, p.Vector); sim > maxSim {
						maxSim = sim
					}
				}
			}
			mmrScore := lambda*cand.Score - (1-lambda)*maxSim
			if mmrScore > bestScore {
				bestScore = mmrScore
				bestIdx = i
			}
		}
		picked = append(picked, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return picked
}

func anyHasVector(candidates []Result) bool {
	for _, c := range candidates {
		if len(c.Vector) > 0 {
			return true
		}
	}
	return false
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
