package memory

import (
	"math"
	"sort"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths and zero vectors have similarity 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// RankCandidates drops candidates whose score is not above minSimilarity,
// orders the rest by score then corpus position, and keeps the first fetchK.
func RankCandidates(candidates []domain.ScoredChunk, minSimilarity float64, fetchK int) []domain.ScoredChunk {
	kept := make([]domain.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		if c.Score > minSimilarity {
			kept = append(kept, c)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		return kept[i].Chunk.Position < kept[j].Chunk.Position
	})
	if fetchK > 0 && len(kept) > fetchK {
		kept = kept[:fetchK]
	}
	return kept
}

// SelectMMR picks up to k candidates by maximal marginal relevance.
// Candidates must already be ranked; their Score is the query similarity.
// The first pick is the most similar candidate, each later pick maximises
// lambda*relevance - (1-lambda)*max similarity to anything already picked.
// Ties go to the earlier candidate.
func SelectMMR(candidates []domain.ScoredChunk, k int, lambda float64) []domain.ScoredChunk {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	picked := make([]int, 0, k)
	used := make([]bool, len(candidates))
	// maxSim[i] is the highest similarity of candidate i to any picked one.
	maxSim := make([]float64, len(candidates))
	for i := range maxSim {
		maxSim[i] = math.Inf(-1)
	}

	for len(picked) < k {
		best, bestScore := -1, math.Inf(-1)
		for i, c := range candidates {
			if used[i] {
				continue
			}
			score := c.Score
			if len(picked) > 0 {
				score = lambda*c.Score - (1-lambda)*maxSim[i]
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		picked = append(picked, best)
		for i, c := range candidates {
			if used[i] {
				continue
			}
			sim := CosineSimilarity(c.Chunk.Embedding, candidates[best].Chunk.Embedding)
			if sim > maxSim[i] {
				maxSim[i] = sim
			}
		}
	}

	out := make([]domain.ScoredChunk, len(picked))
	for i, idx := range picked {
		out[i] = candidates[idx]
	}
	return out
}
