package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"strings"

	"github.com/felixbrock/dockflow/internal/domain"
)

// PredictionEntry is one element of the prediction lookup response. Only the
// configured file reference field is read.
type PredictionEntry map[string]any

type PredictionRepo interface {
	Lookup(ctx context.Context, sequenceId string) ([]PredictionEntry, error)
}

const (
	DefaultFileField     = "pdbUrl"
	DefaultFileExtension = ".pdb"
)

type StructureResolver struct {
	Repo          PredictionRepo
	FileField     string
	FileExtension string
}

// Resolve performs a single lookup and derives the structure identifier from
// the first entry. Every failure is a *domain.ResolutionError; nothing is
// retried here.
func (r StructureResolver) Resolve(ctx context.Context, sequenceId string) (domain.StructureReference, error) {
	ref := domain.PendingReference(sequenceId, "")

	if strings.TrimSpace(sequenceId) == "" {
		rerr := &domain.ResolutionError{Kind: domain.ResolutionMalformed, SequenceId: sequenceId, Err: errors.New("empty sequence identifier")}
		return ref.Fail(rerr), rerr
	}

	entries, err := r.Repo.Lookup(ctx, sequenceId)
	if err != nil {
		rerr := lookupError(sequenceId, err)
		return ref.Fail(rerr), rerr
	}

	if len(entries) == 0 {
		rerr := &domain.ResolutionError{Kind: domain.ResolutionEmpty, SequenceId: sequenceId}
		return ref.Fail(rerr), rerr
	}

	field := r.FileField
	if field == "" {
		field = DefaultFileField
	}
	ext := r.FileExtension
	if ext == "" {
		ext = DefaultFileExtension
	}

	fileReference, _ := entries[0][field].(string)
	structureId, err := StructureId(fileReference, ext)
	if err != nil {
		rerr := &domain.ResolutionError{Kind: domain.ResolutionMalformed, SequenceId: sequenceId, Err: fmt.Errorf("field %q: %w", field, err)}
		return ref.Fail(rerr), rerr
	}

	return ref.Resolve(structureId), nil
}

// StructureId takes the final path segment of a file reference (a URL or a
// plain path) and strips ext from it, ignoring case.
func StructureId(fileReference string, ext string) (string, error) {
	ref := strings.TrimSpace(fileReference)
	if ref == "" {
		return "", errors.New("missing file reference")
	}

	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		ref = u.Path
	}

	base := path.Base(strings.ReplaceAll(ref, "\\", "/"))
	if n := len(base) - len(ext); n > 0 && strings.EqualFold(base[n:], ext) {
		base = base[:n]
	}

	if base == "" || base == "." || base == "/" || strings.EqualFold(base, ext) {
		return "", fmt.Errorf("no structure identifier in %q", fileReference)
	}

	return base, nil
}

func lookupError(sequenceId string, err error) *domain.ResolutionError {
	rerr := &domain.ResolutionError{SequenceId: sequenceId, Err: err}

	var serr *StatusError
	var uerr *url.Error
	var nerr net.Error
	switch {
	case errors.As(err, &serr):
		rerr.Kind = domain.ResolutionStatus
		rerr.StatusCode = serr.Code
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		rerr.Kind = domain.ResolutionNetwork
	case errors.As(err, &uerr), errors.As(err, &nerr):
		rerr.Kind = domain.ResolutionNetwork
	default:
		rerr.Kind = domain.ResolutionMalformed
	}

	return rerr
}

// StructureUrl fills the structure content template with the identifier.
func StructureUrl(template string, structureId string) string {
	if structureId == "" {
		return ""
	}
	return fmt.Sprintf(template, url.PathEscape(structureId))
}
