package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrEmptyInput      = errors.New("empty sequence input")
	ErrMalformedFormat = errors.New("malformed fasta sequence")
	ErrResolution      = errors.New("structure resolution failed")
	ErrStageIncomplete = errors.New("current stage is not complete")
	ErrStaleResolution = errors.New("stale structure resolution")
	ErrNoSession       = errors.New("session not found")
)

type ResolutionKind string

const (
	ResolutionNetwork   ResolutionKind = "network"
	ResolutionStatus    ResolutionKind = "status"
	ResolutionMalformed ResolutionKind = "malformed"
	ResolutionEmpty     ResolutionKind = "empty"
)

// ResolutionError is returned for every failed structure lookup. It matches
// ErrResolution with errors.Is and unwraps to the underlying cause.
type ResolutionError struct {
	Kind       ResolutionKind
	SequenceId string
	StatusCode int
	Err        error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("resolve %q: %s", e.SequenceId, e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

// Code is a short error class used for log attributes and metric labels.
type Code string

const (
	CodeNone       Code = ""
	CodeValidation Code = "validation"
	CodeResolution Code = "resolution"
	CodeNetwork    Code = "network"
	CodeWorkflow   Code = "workflow"
	CodeCancel     Code = "cancel"
	CodeUnknown    Code = "unknown"
)

func Classify(err error) Code {
	if err == nil {
		return CodeNone
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	if errors.Is(err, ErrEmptyInput) || errors.Is(err, ErrMalformedFormat) {
		return CodeValidation
	}
	var rerr *ResolutionError
	if errors.As(err, &rerr) {
		if rerr.Kind == ResolutionNetwork {
			return CodeNetwork
		}
		return CodeResolution
	}
	if errors.Is(err, ErrStageIncomplete) || errors.Is(err, ErrStaleResolution) || errors.Is(err, ErrNoSession) {
		return CodeWorkflow
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return CodeNetwork
	}
	return CodeUnknown
}
