package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/felixbrock/dockflow/internal/components"
	"github.com/felixbrock/dockflow/internal/domain"
	"github.com/felixbrock/dockflow/internal/ranking"
	"github.com/felixbrock/dockflow/internal/workflow"
)

const (
	sessionCookie  = "dockflow_session"
	maxUploadBytes = 2 << 20
)

func (a *App) session(w http.ResponseWriter, r *http.Request) *Session {
	now := a.now()

	if c, err := r.Cookie(sessionCookie); err == nil {
		sess, err := a.sessions.Get(c.Value, now)
		if err == nil {
			return sess
		}
		slog.Debug("starting new session", "reason", err.Error(), "code", string(domain.Classify(err)))
	}

	sess := a.sessions.Create(now)
	a.metrics.Sessions(a.sessions.Len())

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.Id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return sess
}

func (a *App) view(r *http.Request, stage domain.Stage, body templ.Component) *ComponentResponse {
	var c templ.Component
	if isHtmx(r) {
		c = join(a.ComponentBuilder.Progress(stage), body)
	} else {
		c = a.ComponentBuilder.Index(stage, body)
	}
	return &ComponentResponse{Component: c, Code: 200, Message: "OK", ContentType: "text/html", Error: nil}
}

func (a *App) fail(ctx errCtx, err error) *ComponentResponse {
	return &ComponentResponse{
		Component:   a.ComponentBuilder.Error(ctx.Code, ctx.Title, ctx.Msg),
		Code:        ctx.Code,
		Message:     ctx.Title,
		ContentType: "text/html",
		Error:       err,
	}
}

func join(cs ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, c := range cs {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

// body renders the fragment for the workflow's current stage. Callers hold
// the session lock.
func (a *App) body(wf *workflow.Workflow) templ.Component {
	switch wf.Stage() {
	case domain.StageStructure:
		return a.ComponentBuilder.Structure(a.structureView(wf))
	case domain.StageGeneration:
		return a.ComponentBuilder.Generation(a.generationView(wf))
	case domain.StageSummary:
		view, err := a.summaryView(wf)
		if err != nil {
			ctx := errCtxFor(err)
			return a.ComponentBuilder.Error(ctx.Code, ctx.Title, ctx.Msg)
		}
		return a.ComponentBuilder.Summary(view)
	default:
		return a.ComponentBuilder.Input(components.InputView{})
	}
}

func (a *App) structureView(wf *workflow.Workflow) components.StructureView {
	var view components.StructureView

	if seq, ok := wf.Sequence(); ok {
		view.SequenceId = seq.Id
		view.Header = seq.Header
		view.ResidueCount = seq.Length()
		view.Advisory = seq.LengthAdvisory()
	}

	if ref, ok := wf.Structure(); ok {
		view.Status = ref.Status
		view.StructureId = ref.StructureId
		view.StructureUrl = StructureUrl(a.Config.Lookup.StructureUrl, ref.StructureId)
		if ref.Err != nil {
			view.Error = resolutionMessage(ref.Err)
		}
	}

	return view
}

func (a *App) generationView(wf *workflow.Workflow) components.GenerationView {
	ranked := wf.Ranked()
	rows := make([]components.CandidateRow, len(ranked))
	for i, c := range ranked {
		rows[i] = components.CandidateRow{Candidate: c, Stars: ranking.Stars(c.Score)}
	}

	return components.GenerationView{
		Params: wf.Parameters(),
		Rows:   rows,
		Total:  len(wf.Candidates()),
	}
}

func (a *App) summaryView(wf *workflow.Workflow) (components.SummaryView, error) {
	s, err := wf.Summary()
	if err != nil {
		return components.SummaryView{}, err
	}
	return components.SummaryView{
		Summary:      s,
		StructureUrl: StructureUrl(a.Config.Lookup.StructureUrl, s.StructureId),
	}, nil
}

func (a *App) index(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	if r.URL.Path != "/" {
		return a.fail(get404(), nil)
	}
	if r.Method != http.MethodGet {
		return a.fail(get405(), nil)
	}

	sess := a.session(w, r)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	return a.view(r, sess.wf.Stage(), a.body(sess.wf))
}

func (a *App) submitSequence(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	if r.Method != http.MethodPost {
		return a.fail(get405(), nil)
	}
	if !a.limiter.Allow(r, a.now()) {
		a.metrics.Throttled(r.URL.Path)
		return a.fail(get429(), nil)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	text, err := readSequenceText(r)
	if err != nil {
		return a.fail(get400(), err)
	}

	sess := a.session(w, r)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.wf.Stage() != domain.StageInput {
		return a.fail(get409(), fmt.Errorf("submit in %s stage: %w", sess.wf.Stage(), domain.ErrStageIncomplete))
	}

	ref, err := sess.wf.Submit(text)
	a.metrics.Validation(err)
	if err != nil {
		slog.Debug("sequence rejected", "session", sess.Id, "code", string(domain.Classify(err)))
		return a.view(r, domain.StageInput, a.ComponentBuilder.Input(components.InputView{Text: text, Error: validationMessage(err)}))
	}

	a.metrics.Transition(domain.StageInput, domain.StageStructure)
	a.capture(sess.Id, "sequence_submitted", map[string]string{"sequence_id": ref.SequenceId})
	a.resolve(sess, ref)

	return a.view(r, sess.wf.Stage(), a.body(sess.wf))
}

func readSequenceText(r *http.Request) (string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err := r.ParseMultipartForm(maxUploadBytes)
		if err != nil {
			return "", err
		}

		file, _, err := r.FormFile("file")
		switch {
		case err == nil:
			content, err := Read(file)
			if err != nil {
				return "", err
			}
			if len(bytes.TrimSpace(content)) > 0 {
				return string(content), nil
			}
		case !errors.Is(err, http.ErrMissingFile):
			return "", err
		}
	} else if err := r.ParseForm(); err != nil {
		return "", err
	}

	return r.FormValue("sequence"), nil
}

// resolve starts the lookup for ref in the background, cancelling any lookup
// still in flight for the session. Callers hold sess.mu.
func (a *App) resolve(sess *Session, ref domain.StructureReference) {
	sess.cancelPending()

	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Lookup.Timeout)
	done := make(chan struct{})
	sess.cancel = cancel
	sess.done = done

	go func() {
		defer close(done)
		defer cancel()

		start := time.Now()
		resolved, err := a.resolver.Resolve(ctx, ref.SequenceId)
		a.metrics.Resolution(err, time.Since(start))

		sess.mu.Lock()
		_, serr := sess.wf.Settle(ref.Tag, resolved.StructureId, err)
		sess.mu.Unlock()

		if serr != nil {
			slog.Debug("discarding stale structure resolution", "session", sess.Id, "tag", ref.Tag)
			return
		}

		if err != nil {
			slog.Error(fmt.Sprintf("Error occured: %s", err.Error()),
				"session", sess.Id,
				"code", string(domain.Classify(err)))
			a.capture(sess.Id, "structure_failed", map[string]string{"sequence_id": ref.SequenceId})
			return
		}

		slog.Info("structure resolved", "session", sess.Id, "sequence_id", ref.SequenceId, "structure_id", resolved.StructureId)
		a.capture(sess.Id, "structure_resolved", map[string]string{"structure_id": resolved.StructureId})
	}()
}

func (a *App) structure(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	if r.Method != http.MethodGet {
		return a.fail(get405(), nil)
	}

	sess := a.session(w, r)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	return a.view(r, sess.wf.Stage(), a.body(sess.wf))
}

func (a *App) retryStructure(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	if r.Method != http.MethodPost {
		return a.fail(get405(), nil)
	}
	if !a.limiter.Allow(r, a.now()) {
		a.metrics.Throttled(r.URL.Path)
		return a.fail(get429(), nil)
	}

	sess := a.session(w, r)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	ref, err := sess.wf.Retry()
	if err != nil {
		return a.fail(errCtxFor(err), err)
	}

	a.resolve(sess, ref)

	return a.view(r, sess.wf.Stage(), a.body(sess.wf))
}

// advance moves the session forward from the expected stage only, so a
// repeated form post cannot skip a stage.
func (a *App) advance(w http.ResponseWriter, r *http.Request, from domain.Stage) *ComponentResponse {
	if r.Method != http.MethodPost {
		return a.fail(get405(), nil)
	}

	sess := a.session(w, r)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.wf.Stage() != from {
		return a.fail(get409(), fmt.Errorf("advance from %s in %s stage: %w", from, sess.wf.Stage(), domain.ErrStageIncomplete))
	}

	tr, err := sess.wf.Advance()
	if err != nil {
		return a.fail(errCtxFor(err), err)
	}

	a.metrics.Transition(tr.From, tr.To)
	a.capture(sess.Id, "stage_"+tr.To.String(), nil)

	return a.view(r, tr.To, a.body(sess.wf))
}

func (a *App) generation(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	return a.advance(w, r, domain.StageStructure)
}

func (a *App) candidates(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	if r.Method != http.MethodGet {
		return a.fail(get405(), nil)
	}

	sess := a.session(w, r)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.wf.Stage() < domain.StageGeneration {
		return a.fail(get409(), fmt.Errorf("rank in %s stage: %w", sess.wf.Stage(), domain.ErrStageIncomplete))
	}

	params := parseParameters(r, sess.wf.Parameters())
	params = sess.wf.SetParameters(params)
	a.metrics.Ranking(params.SortKey)

	return a.view(r, sess.wf.Stage(), a.ComponentBuilder.Generation(a.generationView(sess.wf)))
}

// parseParameters overlays query values on current. Unparseable numbers keep
// the current bound; clamping happens in the workflow.
func parseParameters(r *http.Request, current domain.RankingParameters) domain.RankingParameters {
	q := r.URL.Query()
	params := current

	if v := q.Get("sort"); v != "" {
		params.SortKey = domain.ParseSortKey(v)
	}
	if v, err := strconv.ParseFloat(q.Get("min"), 64); err == nil {
		params.ScoreMin = v
	}
	if v, err := strconv.ParseFloat(q.Get("max"), 64); err == nil {
		params.ScoreMax = v
	}

	return params
}

func (a *App) summary(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	if r.Method == http.MethodPost {
		return a.advance(w, r, domain.StageGeneration)
	}
	if r.Method != http.MethodGet {
		return a.fail(get405(), nil)
	}

	sess := a.session(w, r)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.wf.Stage() != domain.StageSummary {
		return a.fail(get409(), fmt.Errorf("summary in %s stage: %w", sess.wf.Stage(), domain.ErrStageIncomplete))
	}

	return a.view(r, domain.StageSummary, a.body(sess.wf))
}

func (a *App) exportSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, get405().Title, http.StatusMethodNotAllowed)
		return
	}

	sess := a.session(w, r)
	sess.mu.Lock()
	stage := sess.wf.Stage()
	ranked := sess.wf.Ranked()
	seq, _ := sess.wf.Sequence()
	sess.mu.Unlock()

	if stage < domain.StageGeneration {
		http.Error(w, get409().Msg, http.StatusConflict)
		return
	}

	var buf bytes.Buffer
	err := a.CandidateRepo.Export(&buf, ranked)
	if err != nil {
		slog.Error(fmt.Sprintf("Error occured: %s", err.Error()), "session", sess.Id)
		http.Error(w, get500().Msg, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-candidates.csv"`, filenameToken(seq.Id)))
	_, err = w.Write(buf.Bytes())
	if err != nil {
		slog.Error(fmt.Sprintf("Error occured: %s", err.Error()), "session", sess.Id)
	}
}

func filenameToken(s string) string {
	token := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
	if token == "" {
		return "dockflow"
	}
	return token
}

func (a *App) reset(w http.ResponseWriter, r *http.Request) *ComponentResponse {
	if r.Method != http.MethodPost {
		return a.fail(get405(), nil)
	}

	sess := a.session(w, r)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	from := sess.wf.Stage()
	sess.cancelPending()
	sess.wf.Reset()

	if from != domain.StageInput {
		a.metrics.Transition(from, domain.StageInput)
	}
	a.capture(sess.Id, "session_reset", map[string]string{"from": from.String()})

	return a.view(r, domain.StageInput, a.body(sess.wf))
}
