package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeFile(t, `
port: "9090"
lookup:
  url: http://localhost:1234/api/%s
  timeout: 3s
session:
  ttl: 5m
`)

	cfg, err := load(path, env(nil))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "http://localhost:1234/api/%s", cfg.Lookup.Url)
	assert.Equal(t, 3*time.Second, cfg.Lookup.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "pdbUrl", cfg.Lookup.FileField)
	assert.Equal(t, Defaults().Lookup.StructureUrl, cfg.Lookup.StructureUrl)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "port: \"9090\"\n")

	cfg, err := load(path, env(map[string]string{
		"GOPORT":                  "7000",
		"DOCKFLOW_LOOKUP_URL":     "http://example.test/%s",
		"DOCKFLOW_LOOKUP_TIMEOUT": "750ms",
		"DOCKFLOW_SUBMIT_BURST":   "2",
		"DOCKFLOW_SUBMIT_RPS":     "nope",
		"PH_API_KEY":              "phc_test",
	}))
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "http://example.test/%s", cfg.Lookup.Url)
	assert.Equal(t, 750*time.Millisecond, cfg.Lookup.Timeout)
	assert.Equal(t, 2, cfg.Session.SubmitBurst)
	assert.Equal(t, Defaults().Session.SubmitRPS, cfg.Session.SubmitRPS)
	assert.Equal(t, "phc_test", cfg.Analytics.ApiKey)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "absent.yaml"), env(nil))
	assert.Error(t, err)
}

func TestLoadRejectsBadYaml(t *testing.T) {
	path := writeFile(t, "lookup: [unclosed")
	_, err := load(path, env(nil))
	assert.Error(t, err)
}

func TestValidateRejectsTemplateWithoutPlaceholder(t *testing.T) {
	cfg := Defaults()
	cfg.Lookup.Url = "https://alphafold.ebi.ac.uk/api/prediction/"
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Lookup.StructureUrl = "https://x/%s/%s"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsStrayPercent(t *testing.T) {
	for _, tmpl := range []string{
		"https://x/api%20v1/%s",
		"https://x/%s?q=%d",
		"https://x/%%s",
		"https://x/%s%",
	} {
		cfg := Defaults()
		cfg.Lookup.Url = tmpl
		assert.Error(t, cfg.Validate(), tmpl)
	}

	cfg := Defaults()
	cfg.Lookup.StructureUrl = "https://x/api%%20v1/%s.pdb"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://x/api%20v1/AF-P1.pdb", fmt.Sprintf(cfg.Lookup.StructureUrl, "AF-P1"))
}

func TestExplicitZeroDisablesLimits(t *testing.T) {
	path := writeFile(t, `
lookup:
  rps: 0
session:
  submitRps: 0
  submitBurst: 0
`)

	cfg, err := load(path, env(nil))
	require.NoError(t, err)

	assert.Zero(t, cfg.Lookup.RPS)
	assert.Equal(t, Defaults().Lookup.Burst, cfg.Lookup.Burst)
	assert.Zero(t, cfg.Session.SubmitRPS)
	assert.Zero(t, cfg.Session.SubmitBurst)
}

func TestEnvZeroDisablesLimits(t *testing.T) {
	cfg, err := load(writeFile(t, "{}\n"), env(map[string]string{
		"DOCKFLOW_LOOKUP_RPS":   "0",
		"DOCKFLOW_SUBMIT_RPS":   "0",
		"DOCKFLOW_SUBMIT_BURST": "-3",
	}))
	require.NoError(t, err)

	assert.Zero(t, cfg.Lookup.RPS)
	assert.Zero(t, cfg.Session.SubmitRPS)
	assert.Equal(t, Defaults().Session.SubmitBurst, cfg.Session.SubmitBurst)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warn "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}
