package llmagent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/tribunal/pkg/agent"
	"github.com/kadirpekel/tribunal/pkg/model"
	"github.com/kadirpekel/tribunal/pkg/model/scripted"
	"github.com/kadirpekel/tribunal/pkg/session"
	"github.com/kadirpekel/tribunal/pkg/testutils"
	"github.com/kadirpekel/tribunal/pkg/tool"
	"github.com/kadirpekel/tribunal/pkg/tool/controltool"
	"github.com/kadirpekel/tribunal/pkg/tool/functiontool"
	"github.com/kadirpekel/tribunal/pkg/tool/statetool"
)

type runFixture struct {
	agent  agent.Agent
	sess   session.Session
	signal *agent.LoopSignal
}

func newFixture(t *testing.T, cfg Config, state map[string]any) *runFixture {
	t.Helper()
	a, err := New(cfg)
	require.NoError(t, err)
	return &runFixture{agent: a, sess: testutils.NewSession(t, state), signal: agent.NewLoopSignal()}
}

func (f *runFixture) run(ctx context.Context) ([]*agent.Event, error) {
	return testutils.Collect(f.agent, testutils.InvocationContext(ctx, f.agent, f.sess, f.signal))
}

func failingTool(t *testing.T, err error) tool.CallableTool {
	t.Helper()
	type noArgs struct{}
	ft, buildErr := functiontool.New(
		functiontool.Config{Name: "write_file", Description: "always fails"},
		func(tool.Context, noArgs) (map[string]any, error) { return nil, err },
	)
	require.NoError(t, buildErr)
	return ft
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Model: scripted.New("m")})
	assert.Error(t, err)

	_, err = New(Config{Name: "a"})
	assert.ErrorContains(t, err, "model is required")

	_, err = New(Config{
		Name:  "a",
		Model: scripted.New("m"),
		Tools: []tool.CallableTool{controltool.ExitLoop(), controltool.ExitLoop()},
	})
	assert.ErrorContains(t, err, "duplicate tool")
}

func TestRun_FinalResponseWithRenderedInstruction(t *testing.T) {
	llm := scripted.New("m", scripted.Reply("The evidence is balanced."))
	f := newFixture(t, Config{
		Name:        "judge",
		Model:       llm,
		Instruction: "Topic: { TOPIC? }\nFeedback: { JUDGE_FEEDBACK? }",
		OutputKey:   "verdict",
		GenerateConfig: &model.GenerateConfig{
			Temperature: model.Temperature(0),
		},
	}, map[string]any{"TOPIC": "Cold War"})

	events, err := f.run(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].IsFinalResponse())
	assert.Equal(t, "judge", events[0].Author)
	assert.Equal(t, "The evidence is balanced.", events[0].TextContent())

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Topic: Cold War\nFeedback: ", reqs[0].SystemInstruction)
	assert.InDelta(t, 0.0, *reqs[0].Config.Temperature, 1e-9)

	got, err := f.sess.State().Get("verdict")
	require.NoError(t, err)
	assert.Equal(t, "The evidence is balanced.", got)
}

func TestRun_ToolResultFedBack(t *testing.T) {
	llm := scripted.New("m",
		scripted.CallTool("append_to_state", map[string]any{"field": "pos_data", "response": "Marshall Plan"}),
		scripted.Reply("Recorded."),
	)
	f := newFixture(t, Config{
		Name:  "admirer",
		Model: llm,
		Tools: []tool.CallableTool{statetool.AppendToState()},
	}, nil)

	events, err := f.run(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Len(t, events[0].ToolCalls, 1)
	assert.Equal(t, "Marshall Plan", events[1].Actions.StateDelta["pos_data"])

	got, err := f.sess.State().Get("pos_data")
	require.NoError(t, err)
	assert.Equal(t, []string{"Marshall Plan"}, got)

	results := scripted.LastToolResults(llm.Requests()[1])
	require.Len(t, results, 1)
	assert.False(t, results[0].IsError)
	assert.Equal(t, "append_to_state", results[0].ToolName)
}

func TestRun_ToolMisuseIsReportedToModel(t *testing.T) {
	tests := []struct {
		name     string
		call     scripted.Step
		contains string
	}{
		{
			name:     "unknown tool",
			call:     scripted.CallTool("delete_everything", map[string]any{}),
			contains: "unknown tool",
		},
		{
			name:     "missing argument",
			call:     scripted.CallTool("append_to_state", map[string]any{"field": "pos_data"}),
			contains: "invalid tool arguments",
		},
		{
			name:     "wrong argument type",
			call:     scripted.CallTool("append_to_state", map[string]any{"field": "pos_data", "response": map[string]any{"x": 1}}),
			contains: "invalid tool arguments",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := scripted.New("m", tt.call, scripted.Reply("Sorry."))
			f := newFixture(t, Config{
				Name:  "critic",
				Model: llm,
				Tools: []tool.CallableTool{statetool.AppendToState()},
			}, nil)

			_, err := f.run(context.Background())
			require.NoError(t, err)

			results := scripted.LastToolResults(llm.Requests()[1])
			require.Len(t, results, 1)
			assert.True(t, results[0].IsError)
			assert.Contains(t, results[0].Content, tt.contains)

			got, err := f.sess.State().Get("pos_data")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestRun_ToolFailureFailsStep(t *testing.T) {
	diskFull := errors.New("disk full")
	llm := scripted.New("m",
		scripted.CallTool("write_file", map[string]any{}),
		scripted.Reply("unreachable"),
	)
	f := newFixture(t, Config{
		Name:  "verdict_writer",
		Model: llm,
		Tools: []tool.CallableTool{failingTool(t, diskFull)},
	}, nil)

	_, err := f.run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, diskFull)

	agentName, toolName, ok := agent.FailedAgent(err)
	require.True(t, ok)
	assert.Equal(t, "verdict_writer", agentName)
	assert.Equal(t, "write_file", toolName)
	assert.Equal(t, 1, llm.Remaining(), "model is not called again after a tool failure")
}

func TestRun_ModelFailureFailsStep(t *testing.T) {
	unavailable := errors.New("503 unavailable")
	f := newFixture(t, Config{
		Name:  "judge",
		Model: scripted.New("m", scripted.Fail(unavailable)),
	}, nil)

	_, err := f.run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, unavailable)

	var runErr *agent.RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, "judge", runErr.Agent)
	assert.Empty(t, runErr.Tool)
}

func TestRun_ExitLoopEndsTurn(t *testing.T) {
	llm := scripted.New("m", scripted.CallTool("exit_loop", nil))
	f := newFixture(t, Config{
		Name:  "judge",
		Model: llm,
		Tools: []tool.CallableTool{controltool.ExitLoop()},
	}, nil)

	events, err := f.run(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[1].Actions.Escalate)
	assert.True(t, events[1].IsFinalResponse())
	assert.True(t, f.signal.Raised())
	assert.Len(t, llm.Requests(), 1)
}

func TestRun_MaxSteps(t *testing.T) {
	llm := scripted.New("m").WithFallback(scripted.CallTool("append_to_state", map[string]any{"field": "x", "response": "y"}))
	f := newFixture(t, Config{
		Name:     "chatty",
		Model:    llm,
		Tools:    []tool.CallableTool{statetool.AppendToState()},
		MaxSteps: 3,
	}, nil)

	_, err := f.run(context.Background())
	assert.ErrorIs(t, err, ErrMaxStepsExceeded)
	assert.Len(t, llm.Requests(), 3)
}

func TestRun_ModelCallbacks(t *testing.T) {
	t.Run("before callback short-circuits", func(t *testing.T) {
		llm := scripted.New("m")
		f := newFixture(t, Config{
			Name:  "judge",
			Model: llm,
			BeforeModelCallbacks: []BeforeModelCallback{
				func(agent.CallbackContext, *model.Request) (*model.Response, error) {
					return scripted.TextResponse("cached"), nil
				},
			},
		}, nil)

		events, err := f.run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "cached", events[0].TextContent())
		assert.Empty(t, llm.Requests())
	})

	t.Run("after callback observes response", func(t *testing.T) {
		var seen []string
		f := newFixture(t, Config{
			Name:  "judge",
			Model: scripted.New("m", scripted.Reply("ok")),
			AfterModelCallbacks: []AfterModelCallback{
				func(_ agent.CallbackContext, resp *model.Response, err error) (*model.Response, error) {
					seen = append(seen, resp.TextContent())
					return nil, err
				},
			},
		}, nil)

		_, err := f.run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"ok"}, seen)
	})
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := newFixture(t, Config{Name: "judge", Model: scripted.New("m", scripted.Reply("x"))}, nil)

	_, err := f.run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
