package domain

type Candidate struct {
	Id              string  `json:"id"`
	Name            string  `json:"name"`
	Score           float64 `json:"score"`
	MolecularWeight float64 `json:"molecular_weight"`
	LogP            float64 `json:"log_p"`
	Description     string  `json:"description"`
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
	StatusFailed   Status = "failed"
)

func (s Status) IsSettled() bool {
	return s == StatusResolved || s == StatusFailed
}

type StructureReference struct {
	SequenceId  string `json:"sequence_id"`
	StructureId string `json:"structure_id"`
	Status      Status `json:"status"`
	Tag         string `json:"tag"`
	Err         error  `json:"-"`
}

func PendingReference(sequenceId string, tag string) StructureReference {
	return StructureReference{SequenceId: sequenceId, Status: StatusPending, Tag: tag}
}

// Resolve and Fail settle a pending reference. Settled references are
// returned unchanged so a status never moves backwards.
func (r StructureReference) Resolve(structureId string) StructureReference {
	if r.Status != StatusPending {
		return r
	}
	r.StructureId = structureId
	r.Status = StatusResolved
	return r
}

func (r StructureReference) Fail(err error) StructureReference {
	if r.Status != StatusPending {
		return r
	}
	r.Status = StatusFailed
	r.Err = err
	return r
}
