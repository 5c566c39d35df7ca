package app

import (
	"errors"

	"github.com/felixbrock/dockflow/internal/domain"
)

type errCtx struct {
	Code  int
	Title string
	Msg   string
}

func get400() errCtx {
	return errCtx{
		Code:  400,
		Title: "Bad request",
		Msg:   "Sorry, we could not read the submitted form.",
	}
}

func get404() errCtx {
	return errCtx{
		Code:  404,
		Title: "Not found",
		Msg:   "Sorry, we couldn't find the page you were looking for.",
	}
}

func get405() errCtx {
	return errCtx{
		Code:  405,
		Title: "Method not allowed",
		Msg:   "Sorry, we couldn't find the page you were looking for.",
	}
}

func get409() errCtx {
	return errCtx{
		Code:  409,
		Title: "Step not complete",
		Msg:   "Please finish the current step before moving on.",
	}
}

func get429() errCtx {
	return errCtx{
		Code:  429,
		Title: "Too many requests",
		Msg:   "Please wait a moment before submitting again.",
	}
}

func get500() errCtx {
	return errCtx{
		Code:  500,
		Title: "Internal server error",
		Msg:   "Sorry, there was an internal server error.",
	}
}

func errCtxFor(err error) errCtx {
	switch {
	case errors.Is(err, domain.ErrStageIncomplete), errors.Is(err, domain.ErrStaleResolution):
		return get409()
	default:
		return get500()
	}
}

// validationMessage is the user facing text for a sequence validation error.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyInput):
		return "Please enter a protein sequence"
	case errors.Is(err, domain.ErrMalformedFormat):
		return "Please enter a valid FASTA format sequence"
	default:
		return "The sequence could not be read"
	}
}

// resolutionMessage is the user facing text for a failed structure lookup.
func resolutionMessage(err error) string {
	var rerr *domain.ResolutionError
	if !errors.As(err, &rerr) {
		return "Structure prediction failed. Please try again."
	}
	switch rerr.Kind {
	case domain.ResolutionEmpty:
		return "No predicted structure is available for " + rerr.SequenceId + "."
	case domain.ResolutionStatus:
		return "The prediction service rejected the request. Please try again."
	case domain.ResolutionNetwork:
		return "The prediction service could not be reached. Please try again."
	default:
		return "The prediction service returned an unexpected response. Please try again."
	}
}
