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

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/redis/go-redis/v9"
	"golang.org/x/term"

	"github.com/kadirpekel/tribunal/pkg/agent"
	"github.com/kadirpekel/tribunal/pkg/config"
	"github.com/kadirpekel/tribunal/pkg/court"
	"github.com/kadirpekel/tribunal/pkg/observability"
	"github.com/kadirpekel/tribunal/pkg/runner"
	"github.com/kadirpekel/tribunal/pkg/session"
)

const (
	appName = "tribunal"
	userID  = "cli"

	// scriptedModel selects the offline dry-run provider via --model.
	scriptedModel = "scripted"
)

// RunCmd runs the court on one topic.
type RunCmd struct {
	Topic         string `help:"Topic to put on trial. Read from stdin when empty." placeholder:"TEXT"`
	Model         string `help:"Model name. 'scripted' runs offline with canned responses." placeholder:"NAME"`
	MaxIterations int    `name:"max-iterations" help:"Bound on investigate-and-judge rounds (default: 4)." placeholder:"N"`
	OutputDir     string `name:"output-dir" help:"Directory verdicts are written to (default: historical_verdicts)." placeholder:"DIR"`
	LimitPolicy   string `name:"limit-policy" help:"When the judge never closes the investigation: accept, flag or fail." placeholder:"POLICY"`
	StateBackend  string `name:"state-backend" help:"Run state backend: memory or redis." placeholder:"BACKEND"`
	RedisAddr     string `name:"redis-addr" help:"Redis address for the redis state backend." placeholder:"ADDR"`
	MetricsAddr   string `name:"metrics-addr" help:"Serve Prometheus metrics on this address during the run." placeholder:"ADDR"`
	Trace         bool   `help:"Print OpenTelemetry spans to stderr."`
}

func (c *RunCmd) Run(ctx context.Context, cli *CLI) error {
	return c.execute(ctx, cli, os.Stdin, os.Stdout)
}

func (c *RunCmd) execute(ctx context.Context, cli *CLI, in io.Reader, out io.Writer) error {
	cfg, err := config.ParseFile(cli.Config)
	if err != nil {
		return err
	}
	c.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cleanup, err := setupLogger(cli, cfg.Logger)
	if err != nil {
		return err
	}
	defer cleanup()

	topic := strings.TrimSpace(c.Topic)
	if topic == "" {
		topic, err = readTopic(in, out, isTerminal(in))
		if err != nil {
			return err
		}
	}

	obs := observability.NewManager(cfg.Observability, observability.WithTraceWriter(os.Stderr))
	if err := obs.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Observability shutdown failed", "error", err)
		}
	}()
	if cfg.Observability.Metrics.Enabled {
		srv, err := observability.StartServer(obs)
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() { _ = srv.Shutdown(context.Background()) }()
	}

	sessions, closeState, err := newSessionService(cfg.State)
	if err != nil {
		return err
	}
	defer closeState()

	models, err := court.NewModels(ctx, cfg.Model, topic, cfg.Court.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to create model: %w", err)
	}
	root, err := court.Build(cfg.Court, court.Deps{
		Models:           models,
		WorkingDirectory: ".",
		Metrics:          obs.Metrics(),
		Tracer:           obs.Tracer(),
	})
	if err != nil {
		return fmt.Errorf("failed to build court: %w", err)
	}

	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          root,
		SessionService: sessions,
		Metrics:        obs.Metrics(),
		Tracer:         obs.Tracer(),
	})
	if err != nil {
		return err
	}

	slog.Info("Court in session", "topic", topic, "model", models.Judge.Name(), "state", cfg.State.Backend)
	report, runErr := r.Execute(ctx, userID, agent.NewTextContent(topic, a2a.MessageRoleUser))
	if report != nil {
		printReport(out, topic, cfg.Court, report)
	}
	if runErr != nil {
		return failure(report, runErr)
	}
	return nil
}

// apply overlays the flags that were given on cfg.
func (c *RunCmd) apply(cfg *config.Config) {
	switch {
	case c.Model == scriptedModel:
		cfg.Model.Provider = config.ProviderScripted
	case c.Model != "":
		cfg.Model.Name = c.Model
	}
	if c.MaxIterations != 0 {
		cfg.Court.MaxIterations = c.MaxIterations
	}
	if c.OutputDir != "" {
		cfg.Court.OutputDir = c.OutputDir
	}
	if c.LimitPolicy != "" {
		cfg.Court.LimitPolicy = c.LimitPolicy
	}
	if c.StateBackend != "" {
		cfg.State.Backend = c.StateBackend
	}
	if c.RedisAddr != "" {
		cfg.State.Redis.Addr = c.RedisAddr
	}
	if c.MetricsAddr != "" {
		cfg.Observability.Metrics.Enabled = true
		cfg.Observability.Metrics.Addr = c.MetricsAddr
	}
	if c.Trace {
		cfg.Observability.Tracing.Enabled = true
		cfg.Observability.Tracing.Exporter = observability.ExporterStdout
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// readTopic reads one line from in. An empty line is a valid answer: the
// clerk greets and asks for a topic.
func readTopic(in io.Reader, out io.Writer, prompt bool) (string, error) {
	if prompt {
		fmt.Fprint(out, "Which historical topic shall the court examine? ")
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read topic: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// newSessionService returns the session service for the configured state
// backend and a function releasing it.
func newSessionService(cfg config.StateConfig) (session.Service, func(), error) {
	switch cfg.Backend {
	case config.StateBackendMemory:
		return session.InMemoryService(), func() {}, nil
	case config.StateBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		factory := session.RedisStateFactory(client,
			session.WithRedisPrefix(cfg.Redis.Prefix),
			session.WithRedisTTL(cfg.Redis.TTL))
		return session.InMemoryService(session.WithStateFactory(factory)), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}

// failure names the unit that stopped the run.
func failure(report *runner.Report, err error) error {
	if report == nil || report.FailedAgent == "" {
		return err
	}
	if report.FailedTool != "" {
		return fmt.Errorf("%s failed in tool %s: %w", report.FailedAgent, report.FailedTool, err)
	}
	return fmt.Errorf("%s failed: %w", report.FailedAgent, err)
}

func printReport(w io.Writer, topic string, cfg config.CourtConfig, report *runner.Report) {
	if report.Reply != "" {
		fmt.Fprintf(w, "\n%s\n\n", report.Reply)
	}
	fmt.Fprintf(w, "Topic:    %s\n", topic)
	fmt.Fprintf(w, "Session:  %s\n", report.SessionID)
	if loop, ok := report.Loops[court.TrialAndReview]; ok {
		fmt.Fprintf(w, "Trial:    %s after %d of %d iterations\n", loop.State, loop.Iterations, cfg.MaxIterations)
	}
	if session.Text(report.State[cfg.FlagKey]) == "true" {
		fmt.Fprintf(w, "Flagged:  investigation incomplete\n")
	}
	switch {
	case len(report.Files) > 0:
		fmt.Fprintf(w, "Verdict:  %s\n", report.Files[len(report.Files)-1])
	case report.FailedAgent != "":
		fmt.Fprintf(w, "Verdict:  not written\n")
	}
	if report.FailedAgent != "" {
		unit := report.FailedAgent
		if report.FailedTool != "" {
			unit += " (tool " + report.FailedTool + ")"
		}
		fmt.Fprintf(w, "Failed:   %s\n", unit)
	}
}
