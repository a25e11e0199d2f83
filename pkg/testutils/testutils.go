// Package testutils provides testing utilities for the Tribunal framework.
package testutils

import (
	"context"
	"iter"
	"testing"

	"github.com/kadirpekel/tribunal/pkg/agent"
	"github.com/kadirpekel/tribunal/pkg/session"
)

// NewSession creates an in-memory session seeded with state.
func NewSession(t testing.TB, state map[string]any) session.Session {
	t.Helper()
	resp, err := session.InMemoryService().Create(context.Background(), &session.CreateRequest{
		AppName: "test-app",
		UserID:  "test-user",
		State:   state,
	})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return resp.Session
}

// InvocationContext returns an invocation context for ag over sess.
// signal may be nil.
func InvocationContext(ctx context.Context, ag agent.Agent, sess session.Session, signal *agent.LoopSignal) agent.InvocationContext {
	return agent.NewInvocationContext(ctx, agent.InvocationContextParams{
		Agent:      ag,
		Session:    sess,
		Branch:     ag.Name(),
		LoopSignal: signal,
	})
}

// StubAgent returns an agent named name that yields nothing.
func StubAgent(t testing.TB, name string) agent.Agent {
	t.Helper()
	return MustAgent(t, agent.Config{
		Name: name,
		Run: func(agent.InvocationContext) iter.Seq2[*agent.Event, error] {
			return func(func(*agent.Event, error) bool) {}
		},
	})
}

// MustAgent builds an agent or fails the test.
func MustAgent(t testing.TB, cfg agent.Config) agent.Agent {
	t.Helper()
	a, err := agent.New(cfg)
	if err != nil {
		t.Fatalf("failed to build agent %q: %v", cfg.Name, err)
	}
	return a
}

// Collect drains an agent's event stream, returning the events and the
// first error.
func Collect(ag agent.Agent, ctx agent.InvocationContext) ([]*agent.Event, error) {
	var events []*agent.Event
	for ev, err := range ag.Run(ctx) {
		if err != nil {
			return events, err
		}
		if ev != nil {
			events = append(events, ev)
		}
	}
	return events, nil
}
