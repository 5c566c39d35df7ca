package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	_ "go.uber.org/automaxprocs"
	"golang.org/x/time/rate"

	"github.com/felixbrock/dockflow/internal/app"
	"github.com/felixbrock/dockflow/internal/components"
	"github.com/felixbrock/dockflow/internal/config"
	"github.com/felixbrock/dockflow/internal/persistence"
)

func main() {
	cfg, err := config.Load(os.Getenv("DOCKFLOW_CONFIG"))
	if err != nil {
		slog.Error(fmt.Sprintf("Error occured: %s", err.Error()))
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: config.ParseLevel(cfg.LogLevel)})))

	if cfg.Analytics.ApiKey == "" {
		slog.Warn("PH_API_KEY environment variable not set, analytics disabled")
	}

	componentBuilder := app.ComponentBuilder{
		Index:      components.Index,
		Progress:   components.Progress,
		Input:      components.Input,
		Structure:  components.Structure,
		Generation: components.Generation,
		Summary:    components.Summary,
		Error:      components.Error,
	}

	client := &http.Client{Timeout: cfg.Lookup.Timeout}

	var limiter *rate.Limiter
	if cfg.Lookup.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Lookup.RPS), max(cfg.Lookup.Burst, 1))
	}

	predictionRepo := persistence.PredictionRepo{Client: client, LookupUrl: cfg.Lookup.Url, Limiter: limiter}
	candidateRepo := persistence.CandidateRepo{Path: cfg.CandidatesPath}
	phRepo := persistence.PHRepo{Client: client, Url: cfg.Analytics.Url, ApiKey: cfg.Analytics.ApiKey}

	a := &app.App{
		PredictionRepo:   predictionRepo,
		CandidateRepo:    candidateRepo,
		EventRepo:        phRepo,
		ComponentBuilder: componentBuilder,
		Config:           cfg,
	}

	err = a.Start()
	if err != nil {
		slog.Error(fmt.Sprintf("Error occured: %s", err.Error()))
		os.Exit(1)
	}
}
