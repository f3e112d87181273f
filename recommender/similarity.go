// Package recommender holds the pure ranking, consensus and podium algorithms
package recommender

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidVector is returned when vectors are empty or of different lengths
var ErrInvalidVector = errors.New("invalid taste vector")

// CatalogVector pairs a catalog airport code with its embedding
type CatalogVector struct {
	AirportCode string
	Embedding   []float64
}

// ScoredDestination is a catalog entry with its similarity to a taste vector
type ScoredDestination struct {
	AirportCode string
	Score       float64
}

// CosineSimilarity returns dot(a, b) / (|a| * |b|).
// A zero-norm vector scores 0.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("%w: empty vector", ErrInvalidVector)
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: length %d != %d", ErrInvalidVector, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// scoreTolerance absorbs floating point noise, so parallel vectors of
// different magnitude compare as equal.
const scoreTolerance = 1e-9

// Rank scores every catalog entry against taste, sorts by descending
// similarity and keeps the first limit entries. Scores within
// scoreTolerance of each other are ties and keep catalog order.
// Entries without an embedding are skipped.
func Rank(taste []float64, catalog []CatalogVector, limit int) ([]ScoredDestination, error) {
	if len(taste) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrInvalidVector)
	}

	scored := make([]ScoredDestination, 0, len(catalog))
	for _, entry := range catalog {
		if len(entry.Embedding) == 0 {
			continue
		}
		score, err := CosineSimilarity(taste, entry.Embedding)
		if err != nil {
			return nil, fmt.Errorf("destination %s: %w", entry.AirportCode, err)
		}
		scored = append(scored, ScoredDestination{AirportCode: entry.AirportCode, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score-scored[j].Score > scoreTolerance
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// Codes extracts the airport codes of a ranking, preserving order
func Codes(ranked []ScoredDestination) []string {
	codes := make([]string, len(ranked))
	for i, r := range ranked {
		codes[i] = r.AirportCode
	}
	return codes
}
