package classifier

import (
	"math"
	"sort"

	"github.com/leePettigrew/it-triage-demo/internal/corpus"
	"github.com/leePettigrew/it-triage-demo/internal/models"
)

// epsilon guards the cosine denominator against degenerate near-zero
// vectors.
const epsilon = 1e-8

// Match pairs a prototype's team label with its cosine similarity to the
// query.
type Match struct {
	Team       models.Team
	Similarity float64
}

// Rank scores the query vector against every prototype in the snapshot and
// returns the top k matches, highest similarity first. The query is centered
// on the corpus mean before scoring, mirroring the correction applied to the
// prototypes at load time. Ties keep corpus order, so ranking is
// deterministic for a given snapshot. If the corpus holds fewer than k
// prototypes, all of them are returned.
func Rank(query []float64, snapshot *corpus.Snapshot, k int) []Match {
	centered := make([]float64, len(query))
	for i, v := range query {
		centered[i] = v - snapshot.Mean[i]
	}

	matches := make([]Match, snapshot.Len())
	for i, vec := range snapshot.Vectors {
		matches[i] = Match{
			Team:       snapshot.Teams[i],
			Similarity: cosineSimilarity(vec, centered),
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Similarity > matches[b].Similarity
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k]
}

// cosineSimilarity computes (a · b) / (‖a‖ ‖b‖ + ε).
func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + epsilon)
}
