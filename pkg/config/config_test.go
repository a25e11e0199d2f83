package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MODEL", "")
	t.Setenv("GOOGLE_API_KEY", "test-key")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.Model.Provider)
	assert.Equal(t, DefaultModelName, cfg.Model.Name)
	assert.Equal(t, "test-key", cfg.Model.APIKey)
	assert.Equal(t, 6, cfg.Model.Retry.Attempts)
	assert.Equal(t, time.Second, cfg.Model.Retry.InitialDelay)

	assert.Equal(t, 4, cfg.Court.MaxIterations)
	assert.Equal(t, "historical_verdicts", cfg.Court.OutputDir)
	assert.Equal(t, LimitPolicyAccept, cfg.Court.LimitPolicy)
	assert.Equal(t, "loop_exhausted", cfg.Court.FlagKey)
	assert.InDelta(t, 0.2, *cfg.Court.InvestigatorTemperature, 1e-9)
	assert.Zero(t, *cfg.Court.JudgeTemperature)
	assert.True(t, cfg.Court.Wikipedia.IsEnabled())

	assert.Equal(t, StateBackendMemory, cfg.State.Backend)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.False(t, cfg.Observability.Metrics.Enabled)
}

func TestLoad_FileWithEnvExpansion(t *testing.T) {
	t.Setenv("MODEL", "gemini-2.5-pro")
	t.Setenv("TRIBUNAL_TEST_KEY", "secret")
	t.Setenv("REDIS_ADDR", "")

	data := []byte(`
model:
  provider: gemini
  name: ${MODEL}
  api_key: ${TRIBUNAL_TEST_KEY}
  retry:
    attempts: 3
    initial_delay: 250ms
court:
  max_iterations: 2
  limit_policy: flag
  judge_temperature: 0
  wikipedia:
    enabled: false
state:
  backend: redis
  redis:
    addr: ${REDIS_ADDR:-cache:6379}
    ttl: 1h
observability:
  metrics:
    enabled: true
    addr: ":9191"
logger:
  level: debug
  format: verbose
`)
	cfg, err := Load(data)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-pro", cfg.Model.Name)
	assert.Equal(t, "secret", cfg.Model.APIKey)
	assert.Equal(t, 3, cfg.Model.Retry.Attempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Model.Retry.InitialDelay)
	assert.Equal(t, 2, cfg.Court.MaxIterations)
	assert.Equal(t, LimitPolicyFlag, cfg.Court.LimitPolicy)
	assert.False(t, cfg.Court.Wikipedia.IsEnabled())
	assert.Equal(t, "cache:6379", cfg.State.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.State.Redis.TTL)
	assert.True(t, cfg.Observability.Metrics.Enabled)
	assert.Equal(t, ":9191", cfg.Observability.Metrics.Addr)
	assert.Equal(t, "verbose", cfg.Logger.Format)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "k")

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "unknown provider", yaml: "model: {provider: openai}", wantErr: "invalid provider"},
		{name: "zero iterations", yaml: "court: {max_iterations: -1}", wantErr: "max_iterations must be at least 1"},
		{name: "bad policy", yaml: "court: {limit_policy: retry}", wantErr: "invalid limit_policy"},
		{name: "hot judge", yaml: "court: {judge_temperature: 3}", wantErr: "judge_temperature"},
		{name: "bad backend", yaml: "state: {backend: etcd}", wantErr: "invalid backend"},
		{name: "bad log level", yaml: "logger: {level: loud}", wantErr: "invalid log level"},
		{name: "bad log format", yaml: "logger: {format: xml}", wantErr: "invalid log format \"xml\""},
		{name: "unknown key", yaml: "court: {judges: 3}", wantErr: "judges"},
		{name: "not yaml", yaml: "model: [", wantErr: "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_GeminiRequiresKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load(nil)
	assert.ErrorContains(t, err, "api_key is required")

	cfg, err := Load([]byte("model: {provider: scripted}"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Model.APIKey)
}

func TestParse_AllowsOverridesBeforeValidation(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Parse(nil)
	require.NoError(t, err)
	cfg.Model.Provider = ProviderScripted
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "k")

	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Court.MaxIterations)

	path := filepath.Join(t.TempDir(), "tribunal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("court:\n  output_dir: out\n"), 0o644))
	cfg, err = LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.Court.OutputDir)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}

func TestExpandEnvString(t *testing.T) {
	t.Setenv("TRIBUNAL_SET", "value")
	t.Setenv("TRIBUNAL_EMPTY", "")

	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"${TRIBUNAL_SET}", "value"},
		{"$TRIBUNAL_SET/x", "value/x"},
		{"${TRIBUNAL_EMPTY:-fallback}", "fallback"},
		{"${TRIBUNAL_SET:-fallback}", "value"},
		{"${TRIBUNAL_UNSET_FOR_TEST}", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, expandEnvString(tt.in), tt.in)
	}
}

func TestGetProviderAPIKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gem")
	assert.Equal(t, "gem", GetProviderAPIKey(ProviderGemini))

	t.Setenv("GOOGLE_API_KEY", "goog")
	assert.Equal(t, "goog", GetProviderAPIKey(ProviderGemini))
	assert.Empty(t, GetProviderAPIKey(ProviderScripted))
}
