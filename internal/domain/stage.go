package domain

type Stage int

const (
	StageInput Stage = iota + 1
	StageStructure
	StageGeneration
	StageSummary
)

func (s Stage) String() string {
	switch s {
	case StageInput:
		return "input"
	case StageStructure:
		return "structure"
	case StageGeneration:
		return "generation"
	case StageSummary:
		return "summary"
	default:
		return "unknown"
	}
}

// Label is the progress indicator caption.
func (s Stage) Label() string {
	switch s {
	case StageInput:
		return "Protein Target"
	case StageStructure:
		return "Structure Analysis"
	case StageGeneration:
		return "Molecule Generation"
	case StageSummary:
		return "Results"
	default:
		return ""
	}
}

func (s Stage) IsTerminal() bool {
	return s == StageSummary
}

func AllStages() []Stage {
	return []Stage{StageInput, StageStructure, StageGeneration, StageSummary}
}
