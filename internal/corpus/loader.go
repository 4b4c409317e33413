package corpus

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/leePettigrew/it-triage-demo/internal/models"
)

// ErrUnavailable marks a failure to build a complete corpus snapshot. A
// partial corpus would bias routing, so callers must abort the attempt
// instead of continuing with whatever loaded.
var ErrUnavailable = errors.New("prototype corpus unavailable")

// Embedder is the narrow slice of the embedding capability the loader needs.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// ExampleSource enumerates the prototype set for a team.
type ExampleSource interface {
	Examples(team models.Team) ([]Example, error)
}

// Snapshot is an ephemeral, per-classification-call view of the corpus:
// one team label per row, vectors aligned 1:1 with labels, and the corpus
// mean used to normalize queries. All vectors are mean-centered and unit
// normalized. A snapshot is never shared across routing attempts.
type Snapshot struct {
	Teams   []models.Team
	Vectors [][]float64
	Mean    []float64
}

// Len returns the number of prototypes in the snapshot.
func (s *Snapshot) Len() int { return len(s.Teams) }

// Loader builds corpus snapshots by re-reading and re-embedding every
// team's example set. Recomputing per call trades latency for always
// reflecting the newest feedback appends.
type Loader struct {
	source   ExampleSource
	embedder Embedder
	logger   *zap.Logger
}

func NewLoader(source ExampleSource, embedder Embedder, logger *zap.Logger) *Loader {
	return &Loader{source: source, embedder: embedder, logger: logger}
}

// Load reads every routable team's example set, embeds each team's examples
// as one batch, and applies anisotropy correction (mean-centering followed
// by unit L2 normalization). Raw embedding spaces are not uniformly
// distributed; centering on the corpus centroid before normalizing markedly
// improves cosine discrimination between unrelated teams.
//
// Any store or embedding failure aborts with ErrUnavailable.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	var teams []models.Team
	var vectors [][]float64

	for _, team := range models.RoutableTeams {
		examples, err := l.source.Examples(team)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if len(examples) == 0 {
			l.logger.Warn("Team has no prototype examples", zap.String("team", string(team)))
			continue
		}

		texts := make([]string, len(examples))
		for i, ex := range examples {
			texts[i] = ex.Title + ". " + ex.Description
		}

		embedded, err := l.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: embedding %s examples: %v", ErrUnavailable, team, err)
		}

		for _, vec := range embedded {
			teams = append(teams, team)
			vectors = append(vectors, vec)
		}
	}

	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no prototype examples found", ErrUnavailable)
	}

	mean := columnMean(vectors)
	for i, vec := range vectors {
		vectors[i] = unitNormalize(subtract(vec, mean))
	}

	l.logger.Debug("Corpus snapshot built",
		zap.Int("prototypes", len(vectors)),
		zap.Int("dimensions", len(mean)))

	return &Snapshot{Teams: teams, Vectors: vectors, Mean: mean}, nil
}

func columnMean(vectors [][]float64) []float64 {
	mean := make([]float64, len(vectors[0]))
	for _, vec := range vectors {
		for i, v := range vec {
			mean[i] += v
		}
	}
	n := float64(len(vectors))
	for i := range mean {
		mean[i] /= n
	}
	return mean
}

func subtract(vec, mean []float64) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = v - mean[i]
	}
	return out
}

func unitNormalize(vec []float64) []float64 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}
