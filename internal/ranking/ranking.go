// Package ranking filters and orders generated candidate molecules.
package ranking

import (
	"cmp"
	"math"
	"slices"

	"github.com/felixbrock/dockflow/internal/domain"
)

// Rank keeps candidates whose score lies in the inclusive parameter range and
// orders them by the sort key. Equal keys keep their input order. The input
// slice is never modified.
func Rank(candidates []domain.Candidate, params domain.RankingParameters) []domain.Candidate {
	params = domain.NewRankingParameters(params.SortKey, params.ScoreMin, params.ScoreMax)

	ranked := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if params.Contains(c.Score) {
			ranked = append(ranked, c)
		}
	}

	slices.SortStableFunc(ranked, compareBy(params.SortKey))

	return ranked
}

func compareBy(key domain.SortKey) func(a, b domain.Candidate) int {
	switch key {
	case domain.SortByWeight:
		return func(a, b domain.Candidate) int { return cmp.Compare(a.MolecularWeight, b.MolecularWeight) }
	case domain.SortByLogP:
		return func(a, b domain.Candidate) int { return cmp.Compare(a.LogP, b.LogP) }
	default:
		return func(a, b domain.Candidate) int { return cmp.Compare(b.Score, a.Score) }
	}
}

const MaxStars = 5

type Rating struct {
	Full  int
	Half  bool
	Empty int
}

// Stars maps a score in [0,1] onto a five unit rating with half steps.
func Stars(score float64) Rating {
	if !(score >= 0) {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	scaled := score * MaxStars
	full := int(math.Floor(scaled))
	half := scaled-float64(full) >= 0.5

	empty := MaxStars - full
	if half {
		empty--
	}

	return Rating{Full: full, Half: half, Empty: empty}
}
