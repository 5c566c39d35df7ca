package workflow

import (
	"math"

	"github.com/felixbrock/dockflow/internal/domain"
	"github.com/felixbrock/dockflow/internal/ranking"
)

const (
	binsPerUnit = 20 // 0.05 wide score bins
	topN        = 3
	eps         = 1e-9
)

type Bin struct {
	Low   float64
	High  float64
	Count int
}

type Summary struct {
	SequenceId          string
	ResidueCount        int
	StructureId         string
	Parameters          domain.RankingParameters
	CandidateCount      int
	RankedCount         int
	Top                 []domain.Candidate
	TopScore            float64
	MeanMolecularWeight float64
	Distribution        []Bin
}

// Summary aggregates the session for the results stage. It is available once
// the structure has been resolved.
func (w *Workflow) Summary() (Summary, error) {
	if w.stage < domain.StageGeneration || w.sequence == nil || w.structure == nil {
		return Summary{}, domain.ErrStageIncomplete
	}

	ranked := w.Ranked()
	s := Summary{
		SequenceId:     w.sequence.Id,
		ResidueCount:   w.sequence.Length(),
		StructureId:    w.structure.StructureId,
		Parameters:     w.params,
		CandidateCount: len(w.candidates),
		RankedCount:    len(ranked),
		Distribution:   Distribution(ranked, w.params),
	}

	byScore := ranking.Rank(ranked, domain.RankingParameters{SortKey: domain.SortByScore, ScoreMin: 0, ScoreMax: 1})
	if len(byScore) > 0 {
		s.TopScore = byScore[0].Score
	}
	s.Top = byScore[:min(topN, len(byScore))]

	if len(ranked) > 0 {
		var total float64
		for _, c := range ranked {
			total += c.MolecularWeight
		}
		s.MeanMolecularWeight = total / float64(len(ranked))
	}

	return s, nil
}

// Distribution buckets candidate scores into 0.05 wide bins spanning the
// parameter range. The last bin is closed on the right.
func Distribution(candidates []domain.Candidate, params domain.RankingParameters) []Bin {
	lo := int(math.Floor(params.ScoreMin*binsPerUnit + eps))
	hi := int(math.Ceil(params.ScoreMax*binsPerUnit - eps))
	if hi <= lo {
		hi = lo + 1
	}

	bins := make([]Bin, hi-lo)
	for i := range bins {
		bins[i].Low = float64(lo+i) / binsPerUnit
		bins[i].High = float64(lo+i+1) / binsPerUnit
	}

	for _, c := range candidates {
		idx := int(math.Floor(c.Score*binsPerUnit+eps)) - lo
		if idx < 0 {
			idx = 0
		}
		if idx >= len(bins) {
			idx = len(bins) - 1
		}
		bins[idx].Count++
	}

	return bins
}
