package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/a-h/templ"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/felixbrock/dockflow/internal/components"
	"github.com/felixbrock/dockflow/internal/config"
	"github.com/felixbrock/dockflow/internal/domain"
)

type CandidateRepo interface {
	Read() ([]domain.Candidate, error)
	Export(w io.Writer, candidates []domain.Candidate) error
}

type EventRepo interface {
	Capture(ctx context.Context, eventType string, distinctId string, props map[string]string) error
}

type ComponentBuilder struct {
	Index      func(domain.Stage, templ.Component) templ.Component
	Progress   func(domain.Stage) templ.Component
	Input      func(components.InputView) templ.Component
	Structure  func(components.StructureView) templ.Component
	Generation func(components.GenerationView) templ.Component
	Summary    func(components.SummaryView) templ.Component
	Error      func(int, string, string) templ.Component
}

type App struct {
	PredictionRepo   PredictionRepo
	CandidateRepo    CandidateRepo
	EventRepo        EventRepo
	ComponentBuilder ComponentBuilder
	Config           config.Config
	Registry         *prometheus.Registry

	once     sync.Once
	initErr  error
	handler  http.Handler
	resolver StructureResolver
	sessions *SessionStore
	limiter  *SubmitLimiter
	metrics  *Metrics
	now      func() time.Time
}

func (a *App) init() {
	candidates, err := a.CandidateRepo.Read()
	if err != nil {
		a.initErr = fmt.Errorf("load candidates: %w", err)
		return
	}

	if a.Registry == nil {
		a.Registry = prometheus.NewRegistry()
	}
	if a.now == nil {
		a.now = time.Now
	}

	a.resolver = StructureResolver{
		Repo:          a.PredictionRepo,
		FileField:     a.Config.Lookup.FileField,
		FileExtension: a.Config.Lookup.FileExtension,
	}
	a.sessions = NewSessionStore(candidates, a.Config.Session.TTL)
	a.limiter = NewSubmitLimiter(a.Config.Session)
	a.metrics = NewMetrics(a.Registry)

	mux := http.NewServeMux()
	mux.Handle("/", ComponentHandler(a.index))
	mux.Handle("/sequence", ComponentHandler(a.submitSequence))
	mux.Handle("/structure", ComponentHandler(a.structure))
	mux.Handle("/structure/retry", ComponentHandler(a.retryStructure))
	mux.Handle("/generation", ComponentHandler(a.generation))
	mux.Handle("/candidates", ComponentHandler(a.candidates))
	mux.Handle("/summary", ComponentHandler(a.summary))
	mux.HandleFunc("/summary/export", a.exportSummary)
	mux.Handle("/reset", ComponentHandler(a.reset))
	mux.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))
	a.handler = mux

	slog.Info("app initialised", "candidates", len(candidates))
}

// Routes returns the HTTP handler, initialising the app on first use.
func (a *App) Routes() (http.Handler, error) {
	a.once.Do(a.init)
	if a.initErr != nil {
		return nil, a.initErr
	}
	return a.handler, nil
}

func (a *App) Start() error {
	handler, err := a.Routes()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + a.Config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go a.sweep(ctx, time.Minute)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			slog.Error(fmt.Sprintf("Error occured: %s", err.Error()))
		}
	}()

	slog.Info(fmt.Sprintf("App running on %s...", a.Config.Port))

	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := a.now()
			if n := a.sessions.Sweep(now); n > 0 {
				slog.Debug("expired sessions", "count", n)
			}
			if n := a.limiter.Sweep(now); n > 0 {
				slog.Debug("forgot idle submit clients", "count", n)
			}
			a.metrics.Sessions(a.sessions.Len())
		}
	}
}

// capture reports a workflow event without blocking the request.
func (a *App) capture(sessionId string, event string, props map[string]string) {
	if a.EventRepo == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := a.EventRepo.Capture(ctx, event, sessionId, props)
		if err != nil {
			slog.Error(fmt.Sprintf("Error occured: %s", err.Error()), "event", event)
		}
	}()
}
