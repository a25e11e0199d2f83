package observability

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestPrometheusMetrics(t *testing.T) {
	ctx := context.Background()
	m, err := InitMetrics(MetricsConfig{Enabled: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	m.RecordAgentRun(ctx, "judge", 100*time.Millisecond, nil)
	m.RecordAgentRun(ctx, "judge", 50*time.Millisecond, errors.New("boom"))
	m.RecordToolCall(ctx, "append_to_state", 5*time.Millisecond, nil)
	m.RecordLLMCall(ctx, "gemini-2.5-flash", 300*time.Millisecond, 100, 20, nil)
	m.RecordLoopIteration(ctx, "trial_and_review")

	code, body := scrape(t, m.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "tribunal_agent_runs_total")
	assert.Contains(t, body, "tribunal_agent_errors_total")
	assert.Contains(t, body, `agent="judge"`)
	assert.Contains(t, body, "tribunal_tool_calls_total")
	assert.Contains(t, body, "tribunal_llm_tokens_input_total")
	assert.Contains(t, body, "tribunal_loop_iterations_total")
	assert.Contains(t, body, `loop="trial_and_review"`)
}

func TestNoopMetrics(t *testing.T) {
	var m Metrics = NoopMetrics{}
	m.RecordAgentRun(context.Background(), "x", time.Second, nil)

	code, _ := scrape(t, NoopMetrics{}.Handler(), "/metrics")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, NoopMetrics{}, OrNoop(nil))
}

func TestTracer_Stdout(t *testing.T) {
	var buf bytes.Buffer
	tr, err := InitTracer(context.Background(), TracingConfig{Enabled: true}, WithTraceWriter(&buf))
	require.NoError(t, err)

	_, span := tr.StartToolExecution(context.Background(), "judge", "exit_loop", "call-1")
	RecordError(span, errors.New("failed"))
	span.End()
	require.NoError(t, tr.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), SpanToolExecution)
	assert.Contains(t, buf.String(), "exit_loop")
}

func TestTracer_Disabled(t *testing.T) {
	tr, err := InitTracer(context.Background(), TracingConfig{})
	require.NoError(t, err)
	_, span := tr.StartAgentRun(context.Background(), "court_clerk", "court_clerk", "inv")
	assert.False(t, span.IsRecording())
	span.End()
	assert.NoError(t, tr.Shutdown(context.Background()))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "disabled", cfg: Config{}},
		{name: "stdout", cfg: Config{Tracing: TracingConfig{Enabled: true}}},
		{name: "bad exporter", cfg: Config{Tracing: TracingConfig{Enabled: true, Exporter: "zipkin"}}, wantErr: "invalid exporter"},
		{name: "bad sampling", cfg: Config{Tracing: TracingConfig{Enabled: true, SamplingRate: 2}}, wantErr: "sampling_rate"},
		{name: "bad path", cfg: Config{Metrics: MetricsConfig{Enabled: true, Endpoint: "metrics"}}, wantErr: "absolute path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.SetDefaults()
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRouter(t *testing.T) {
	m := NewManager(Config{Metrics: MetricsConfig{Enabled: true}})
	require.NoError(t, m.Initialize(context.Background()))
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	m.Metrics().RecordLoopIteration(context.Background(), "trial_and_review")
	router := NewRouter("/metrics", m.MetricsHandler())

	code, body := scrape(t, router, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	code, body = scrape(t, router, "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "tribunal_loop_iterations_total")
}

func TestServer(t *testing.T) {
	m := NewManager(Config{Metrics: MetricsConfig{Enabled: true, Addr: "127.0.0.1:0"}})
	require.NoError(t, m.Initialize(context.Background()))

	srv, err := StartServer(m)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
