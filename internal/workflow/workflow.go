// Package workflow implements the four stage discovery workflow as a guarded
// state machine. It holds no locks; callers serialise access per session.
package workflow

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/felixbrock/dockflow/internal/domain"
	"github.com/felixbrock/dockflow/internal/ranking"
	"github.com/felixbrock/dockflow/internal/sequence"
)

type Transition struct {
	From domain.Stage
	To   domain.Stage
}

type Workflow struct {
	stage      domain.Stage
	sequence   *domain.Sequence
	structure  *domain.StructureReference
	params     domain.RankingParameters
	candidates []domain.Candidate
	newTag     func() string
}

// New starts a workflow at the input stage over a fixed candidate set.
func New(candidates []domain.Candidate) *Workflow {
	return &Workflow{
		stage:      domain.StageInput,
		params:     domain.DefaultRankingParameters(),
		candidates: slices.Clone(candidates),
		newTag:     func() string { return uuid.New().String() },
	}
}

func (w *Workflow) Stage() domain.Stage {
	return w.stage
}

func (w *Workflow) Sequence() (domain.Sequence, bool) {
	if w.sequence == nil {
		return domain.Sequence{}, false
	}
	return *w.sequence, true
}

func (w *Workflow) Structure() (domain.StructureReference, bool) {
	if w.structure == nil {
		return domain.StructureReference{}, false
	}
	return *w.structure, true
}

func (w *Workflow) Parameters() domain.RankingParameters {
	return w.params
}

func (w *Workflow) Candidates() []domain.Candidate {
	return slices.Clone(w.candidates)
}

// Submit validates text and, on success, moves Input -> Structure with a
// fresh pending reference. The returned reference carries the tag the
// caller must hand back to Settle.
func (w *Workflow) Submit(text string) (domain.StructureReference, error) {
	if w.stage != domain.StageInput {
		return domain.StructureReference{}, fmt.Errorf("submit in %s stage: %w", w.stage, domain.ErrStageIncomplete)
	}

	seq, err := sequence.Validate(text)
	if err != nil {
		return domain.StructureReference{}, err
	}

	w.sequence = &seq
	w.stage = domain.StageStructure
	return w.startResolution(), nil
}

// Retry issues a new pending reference after a failed resolution. A pending
// or resolved reference is left alone.
func (w *Workflow) Retry() (domain.StructureReference, error) {
	if w.stage != domain.StageStructure || w.structure == nil || w.structure.Status != domain.StatusFailed {
		return domain.StructureReference{}, fmt.Errorf("retry in %s stage: %w", w.stage, domain.ErrStageIncomplete)
	}
	return w.startResolution(), nil
}

func (w *Workflow) startResolution() domain.StructureReference {
	ref := domain.PendingReference(w.sequence.Id, w.newTag())
	w.structure = &ref
	return ref
}

// Settle records the outcome of the resolution identified by tag. Outcomes
// for a superseded tag are dropped with ErrStaleResolution.
func (w *Workflow) Settle(tag string, structureId string, resolveErr error) (domain.StructureReference, error) {
	if w.structure == nil || w.structure.Tag != tag || w.structure.Status.IsSettled() {
		return domain.StructureReference{}, domain.ErrStaleResolution
	}

	var ref domain.StructureReference
	if resolveErr != nil {
		ref = w.structure.Fail(resolveErr)
	} else {
		ref = w.structure.Resolve(structureId)
	}
	w.structure = &ref
	return ref, nil
}

// Advance moves one stage forward when the current stage reports success.
func (w *Workflow) Advance() (Transition, error) {
	from := w.stage
	if from.IsTerminal() {
		return Transition{}, fmt.Errorf("advance from %s: already at the final stage: %w", from, domain.ErrStageIncomplete)
	}

	switch w.stage {
	case domain.StageInput:
		return Transition{}, fmt.Errorf("advance from %s: submit a sequence first: %w", from, domain.ErrStageIncomplete)
	case domain.StageStructure:
		if w.structure == nil || w.structure.Status != domain.StatusResolved {
			return Transition{}, fmt.Errorf("advance from %s: structure not resolved: %w", from, domain.ErrStageIncomplete)
		}
		w.stage = domain.StageGeneration
	case domain.StageGeneration:
		w.stage = domain.StageSummary
	default:
		return Transition{}, fmt.Errorf("advance from %s: %w", from, domain.ErrStageIncomplete)
	}

	return Transition{From: from, To: w.stage}, nil
}

// SetParameters replaces the ranking parameters after clamping them.
func (w *Workflow) SetParameters(params domain.RankingParameters) domain.RankingParameters {
	w.params = domain.NewRankingParameters(params.SortKey, params.ScoreMin, params.ScoreMax)
	return w.params
}

func (w *Workflow) Ranked() []domain.Candidate {
	return ranking.Rank(w.candidates, w.params)
}

// Reset discards the sequence, the structure reference and the ranking
// parameters and returns to the input stage.
func (w *Workflow) Reset() {
	w.stage = domain.StageInput
	w.sequence = nil
	w.structure = nil
	w.params = domain.DefaultRankingParameters()
}
