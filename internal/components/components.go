// Package components renders the workflow stages as HTML fragments. The
// markup only displays what the core computed; it holds no workflow logic.
package components

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/felixbrock/dockflow/internal/domain"
)

type html struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) rawf(format string, args ...any) {
	h.raw(fmt.Sprintf(format, args...))
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *html) textf(format string, args ...any) {
	h.text(fmt.Sprintf(format, args...))
}

func (h *html) child(c templ.Component) {
	if h.err == nil && c != nil {
		h.err = c.Render(h.ctx, h.w)
	}
}

func component(fn func(h *html)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{ctx: ctx, w: w}
		fn(h)
		return h.err
	})
}

// Index is the full page shell around a stage fragment.
func Index(stage domain.Stage, body templ.Component) templ.Component {
	return component(func(h *html) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>dockflow</title>`)
		h.raw(`<script src="https://unpkg.com/htmx.org@1.9.10"></script></head><body>`)
		h.raw(`<main id="stage">`)
		h.child(Progress(stage))
		h.child(body)
		h.raw(`</main></body></html>`)
	})
}

func Progress(current domain.Stage) templ.Component {
	return component(func(h *html) {
		h.raw(`<ol class="progress">`)
		for _, s := range domain.AllStages() {
			class := "todo"
			switch {
			case s == current:
				class = "current"
			case s < current:
				class = "done"
			}
			h.rawf(`<li class="%s">`, class)
			h.textf("%d. %s", int(s), s.Label())
			h.raw(`</li>`)
		}
		h.raw(`</ol>`)
	})
}

func Loading(msg string) templ.Component {
	return component(func(h *html) {
		h.raw(`<div class="loading" hx-get="/structure" hx-trigger="every 2s" hx-target="#stage" hx-swap="innerHTML">`)
		h.text(msg)
		h.raw(`</div>`)
	})
}

func Error(code int, title string, msg string) templ.Component {
	return component(func(h *html) {
		h.rawf(`<div class="alert error" data-code="%d"><h3>`, code)
		h.text(title)
		h.raw(`</h3><p>`)
		h.text(msg)
		h.raw(`</p><a href="/">Back</a></div>`)
	})
}
