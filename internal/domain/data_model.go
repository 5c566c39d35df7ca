package domain

import "strings"

type Format string

const (
	FormatValidFasta Format = "valid-fasta"
	FormatInvalid    Format = "invalid"
)

// Residue counts outside this window still validate but predict poorly.
const (
	MinAdvisedResidues = 50
	MaxAdvisedResidues = 1500
)

type Sequence struct {
	Id       string `json:"id"`
	Header   string `json:"header"`
	Residues string `json:"residues"`
	Raw      string `json:"raw"`
	Format   Format `json:"format"`
}

func (s Sequence) Length() int {
	return len(s.Residues)
}

// LengthAdvisory returns a user facing note when the residue count is outside
// the advised window, or "" otherwise.
func (s Sequence) LengthAdvisory() string {
	n := s.Length()
	if n >= MinAdvisedResidues && n <= MaxAdvisedResidues {
		return ""
	}
	return "For optimal performance, protein sequences should be between 50-1500 amino acids."
}

type SortKey string

const (
	SortByScore  SortKey = "score"
	SortByWeight SortKey = "weight"
	SortByLogP   SortKey = "logP"
)

// ParseSortKey is lenient: unknown keys fall back to score.
func ParseSortKey(s string) SortKey {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weight", "molecularweight", "molecular_weight":
		return SortByWeight
	case "logp":
		return SortByLogP
	default:
		return SortByScore
	}
}

type RankingParameters struct {
	SortKey  SortKey `json:"sort_key"`
	ScoreMin float64 `json:"score_min"`
	ScoreMax float64 `json:"score_max"`
}

// DefaultRankingParameters mirrors the initial slider position of the
// generation stage.
func DefaultRankingParameters() RankingParameters {
	return RankingParameters{SortKey: SortByScore, ScoreMin: 0.7, ScoreMax: 1.0}
}

// NewRankingParameters clamps both bounds into [0,1] and swaps them when
// given in the wrong order, so the result always satisfies min <= max.
func NewRankingParameters(key SortKey, min, max float64) RankingParameters {
	min = clampUnit(min)
	max = clampUnit(max)
	if min > max {
		min, max = max, min
	}
	if key != SortByWeight && key != SortByLogP {
		key = SortByScore
	}
	return RankingParameters{SortKey: key, ScoreMin: min, ScoreMax: max}
}

func (p RankingParameters) Contains(score float64) bool {
	return score >= p.ScoreMin && score <= p.ScoreMax
}

func clampUnit(v float64) float64 {
	// NaN compares false everywhere; treat it as the lower bound.
	if !(v >= 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
