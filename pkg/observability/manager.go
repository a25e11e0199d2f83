package observability

import (
	"context"
	"errors"
	"net/http"
	"sync"
)

// Manager owns the tracer and metrics of a process.
type Manager struct {
	config  Config
	tracer  *Tracer
	metrics Metrics
	handler http.Handler
	opts    []TracerOption
	mu      sync.RWMutex
}

// NewManager returns a Manager whose tracer and metrics are no-ops until
// Initialize is called.
func NewManager(cfg Config, opts ...TracerOption) *Manager {
	cfg.SetDefaults()
	return &Manager{
		config:  cfg,
		tracer:  NoopTracer(),
		metrics: NoopMetrics{},
		handler: NoopMetrics{}.Handler(),
		opts:    opts,
	}
}

// Initialize builds the configured tracer and metrics.
func (m *Manager) Initialize(ctx context.Context) error {
	if err := m.config.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tracer, err := InitTracer(ctx, m.config.Tracing, m.opts...)
	if err != nil {
		return err
	}
	m.tracer = tracer

	if m.config.Metrics.Enabled {
		pm, err := InitMetrics(m.config.Metrics)
		if err != nil {
			return err
		}
		m.metrics = pm
		m.handler = pm.Handler()
	}
	return nil
}

func (m *Manager) Tracer() *Tracer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tracer
}

func (m *Manager) Metrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metrics
}

// MetricsHandler serves the metrics endpoint.
func (m *Manager) MetricsHandler() http.Handler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.handler
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.config
}

func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if m.tracer != nil {
		errs = append(errs, m.tracer.Shutdown(ctx))
	}
	if pm, ok := m.metrics.(*PrometheusMetrics); ok {
		errs = append(errs, pm.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
