// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/kadirpekel/tribunal"

// Tracer starts spans for agent runs, model requests and tool executions.
// The zero value is not usable; use InitTracer or NoopTracer.
type Tracer struct {
	provider trace.TracerProvider
	tracer   trace.Tracer
}

// TracerOption configures InitTracer.
type TracerOption func(*tracerOptions)

type tracerOptions struct {
	writer io.Writer
}

// WithTraceWriter sets the destination of the stdout exporter.
func WithTraceWriter(w io.Writer) TracerOption {
	return func(o *tracerOptions) { o.writer = w }
}

// NoopTracer returns a tracer whose spans record nothing.
func NoopTracer() *Tracer {
	tp := noop.NewTracerProvider()
	return &Tracer{provider: tp, tracer: tp.Tracer(instrumentationName)}
}

// InitTracer builds a tracer provider for cfg and installs it globally.
// A disabled config yields NoopTracer.
func InitTracer(ctx context.Context, cfg TracingConfig, opts ...TracerOption) (*Tracer, error) {
	if !cfg.Enabled {
		return NoopTracer(), nil
	}
	cfg.SetDefaults()

	o := tracerOptions{writer: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var spanProcessor sdktrace.TracerProviderOption
	switch cfg.Exporter {
	case ExporterOTLP:
		clientOpts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithTimeout(cfg.Timeout),
		}
		if cfg.IsInsecure() {
			clientOpts = append(clientOpts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		spanProcessor = sdktrace.WithBatcher(exporter)
	default:
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(o.writer))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		spanProcessor = sdktrace.WithSyncer(exporter)
	}

	tp := sdktrace.NewTracerProvider(
		spanProcessor,
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SamplingRate)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return &Tracer{provider: tp, tracer: tp.Tracer(instrumentationName)}, nil
}

// Start starts a span with the given attributes.
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartAgentRun starts the span wrapping one agent run.
func (t *Tracer) StartAgentRun(ctx context.Context, agentName, branch, invocationID string) (context.Context, trace.Span) {
	return t.Start(ctx, SpanAgentRun,
		attribute.String(AttrAgentName, agentName),
		attribute.String(AttrAgentBranch, branch),
		attribute.String(AttrInvocationID, invocationID),
	)
}

// StartLLMCall starts the span wrapping one model request.
func (t *Tracer) StartLLMCall(ctx context.Context, agentName, modelName string) (context.Context, trace.Span) {
	return t.Start(ctx, SpanLLMRequest,
		attribute.String(AttrAgentName, agentName),
		attribute.String(AttrLLMModel, modelName),
	)
}

// StartToolExecution starts the span wrapping one tool call.
func (t *Tracer) StartToolExecution(ctx context.Context, agentName, toolName, callID string) (context.Context, trace.Span) {
	return t.Start(ctx, SpanToolExecution,
		attribute.String(AttrAgentName, agentName),
		attribute.String(AttrToolName, toolName),
		attribute.String(AttrToolCallID, callID),
	)
}

// AddLLMUsage annotates span with token counts.
func AddLLMUsage(span trace.Span, inputTokens, outputTokens int) {
	span.SetAttributes(
		attribute.Int(AttrLLMTokensInput, inputTokens),
		attribute.Int(AttrLLMTokensOut, outputTokens),
	)
}

// RecordError marks span as failed when err is non-nil.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Shutdown flushes pending spans.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if sp, ok := t.provider.(interface{ Shutdown(context.Context) error }); ok {
		return sp.Shutdown(ctx)
	}
	return nil
}
