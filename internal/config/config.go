// Package config assembles runtime settings from defaults, an optional YAML
// file and environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Port           string
	LogLevel       string
	CandidatesPath string
	Lookup         LookupConfig
	Session        SessionConfig
	Analytics      AnalyticsConfig
}

// LookupConfig drives the prediction lookup. A zero RPS switches outbound
// throttling off.
type LookupConfig struct {
	Url           string
	StructureUrl  string
	FileField     string
	FileExtension string
	Timeout       time.Duration
	RPS           float64
	Burst         int
}

// SessionConfig holds session expiry and submit limiting. A zero SubmitRPS or
// SubmitBurst switches submit limiting off.
type SessionConfig struct {
	TTL         time.Duration
	SubmitRPS   float64
	SubmitBurst int
}

type AnalyticsConfig struct {
	Url    string
	ApiKey string
}

// File is the YAML layout. Rate fields are pointers so that an explicit 0
// can be told apart from an absent key.
type File struct {
	Port           string          `yaml:"port"`
	LogLevel       string          `yaml:"logLevel"`
	CandidatesPath string          `yaml:"candidatesPath"`
	Lookup         LookupFile      `yaml:"lookup"`
	Session        SessionFile     `yaml:"session"`
	Analytics      AnalyticsConfig `yaml:"analytics"`
}

type LookupFile struct {
	Url           string        `yaml:"url"`
	StructureUrl  string        `yaml:"structureUrl"`
	FileField     string        `yaml:"fileField"`
	FileExtension string        `yaml:"fileExtension"`
	Timeout       time.Duration `yaml:"timeout"`
	RPS           *float64      `yaml:"rps"`
	Burst         *int          `yaml:"burst"`
}

type SessionFile struct {
	TTL         time.Duration `yaml:"ttl"`
	SubmitRPS   *float64      `yaml:"submitRps"`
	SubmitBurst *int          `yaml:"submitBurst"`
}

func Defaults() Config {
	return Config{
		Port:     "8000",
		LogLevel: "info",
		Lookup: LookupConfig{
			Url:           "https://alphafold.ebi.ac.uk/api/prediction/%s",
			StructureUrl:  "https://alphafold.ebi.ac.uk/files/%s.pdb",
			FileField:     "pdbUrl",
			FileExtension: ".pdb",
			Timeout:       20 * time.Second,
			RPS:           5,
			Burst:         10,
		},
		Session: SessionConfig{
			TTL:         30 * time.Minute,
			SubmitRPS:   1,
			SubmitBurst: 5,
		},
		Analytics: AnalyticsConfig{
			Url: "https://eu.posthog.com/capture/",
		},
	}
}

// Load reads the YAML file at path, or DefaultPath when path is empty, and
// applies environment overrides. A missing default file is not an error.
func Load(path string) (Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var parsed File
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		Merge(&cfg, parsed)
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return cfg, err
	}

	ApplyEnvOverrides(&cfg, getenv)

	return cfg, cfg.Validate()
}

// Merge copies every field set in src over dst. Strings and durations count
// as set when non-zero, rate fields when present.
func Merge(dst *Config, src File) {
	if src.Port != "" {
		dst.Port = src.Port
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.CandidatesPath != "" {
		dst.CandidatesPath = src.CandidatesPath
	}
	if src.Lookup.Url != "" {
		dst.Lookup.Url = src.Lookup.Url
	}
	if src.Lookup.StructureUrl != "" {
		dst.Lookup.StructureUrl = src.Lookup.StructureUrl
	}
	if src.Lookup.FileField != "" {
		dst.Lookup.FileField = src.Lookup.FileField
	}
	if src.Lookup.FileExtension != "" {
		dst.Lookup.FileExtension = src.Lookup.FileExtension
	}
	if src.Lookup.Timeout != 0 {
		dst.Lookup.Timeout = src.Lookup.Timeout
	}
	if src.Lookup.RPS != nil {
		dst.Lookup.RPS = *src.Lookup.RPS
	}
	if src.Lookup.Burst != nil {
		dst.Lookup.Burst = *src.Lookup.Burst
	}
	if src.Session.TTL != 0 {
		dst.Session.TTL = src.Session.TTL
	}
	if src.Session.SubmitRPS != nil {
		dst.Session.SubmitRPS = *src.Session.SubmitRPS
	}
	if src.Session.SubmitBurst != nil {
		dst.Session.SubmitBurst = *src.Session.SubmitBurst
	}
	if src.Analytics.Url != "" {
		dst.Analytics.Url = src.Analytics.Url
	}
	if src.Analytics.ApiKey != "" {
		dst.Analytics.ApiKey = src.Analytics.ApiKey
	}
}

func ApplyEnvOverrides(cfg *Config, getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	str("GOPORT", &cfg.Port)
	str("DOCKFLOW_LOG_LEVEL", &cfg.LogLevel)
	str("DOCKFLOW_CANDIDATES", &cfg.CandidatesPath)
	str("DOCKFLOW_LOOKUP_URL", &cfg.Lookup.Url)
	str("DOCKFLOW_STRUCTURE_URL", &cfg.Lookup.StructureUrl)
	str("PH_API_KEY", &cfg.Analytics.ApiKey)

	if v := strings.TrimSpace(getenv("DOCKFLOW_LOOKUP_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Lookup.Timeout = d
		} else {
			slog.Warn("ignoring invalid DOCKFLOW_LOOKUP_TIMEOUT", "value", v)
		}
	}
	rps := func(key string, dst *float64) {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			*dst = f
		} else {
			slog.Warn("ignoring invalid "+key, "value", v)
		}
	}
	count := func(key string, dst *int) {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return
		}
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			*dst = n
		} else {
			slog.Warn("ignoring invalid "+key, "value", v)
		}
	}

	// 0 is accepted and switches the limiter off.
	rps("DOCKFLOW_LOOKUP_RPS", &cfg.Lookup.RPS)
	count("DOCKFLOW_LOOKUP_BURST", &cfg.Lookup.Burst)
	rps("DOCKFLOW_SUBMIT_RPS", &cfg.Session.SubmitRPS)
	count("DOCKFLOW_SUBMIT_BURST", &cfg.Session.SubmitBurst)
}

func (c Config) Validate() error {
	if err := checkTemplate("lookup url", c.Lookup.Url); err != nil {
		return err
	}
	if err := checkTemplate("structure url", c.Lookup.StructureUrl); err != nil {
		return err
	}
	if c.Lookup.Timeout <= 0 {
		return errors.New("lookup timeout must be positive")
	}
	if c.Lookup.FileField == "" {
		return errors.New("lookup file field must be set")
	}
	return nil
}

// checkTemplate accepts a URL template with exactly one %s verb. Any other
// literal percent sign, such as a percent-encoded byte, must be written %%.
func checkTemplate(name string, tmpl string) error {
	rest := strings.ReplaceAll(tmpl, "%%", "")
	if strings.Count(rest, "%s") != 1 || strings.Count(rest, "%") != 1 {
		return fmt.Errorf("%s %q must contain exactly one %%s and no other unescaped %%", name, tmpl)
	}
	return nil
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
