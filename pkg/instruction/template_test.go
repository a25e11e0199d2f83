package instruction

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/tribunal/pkg/agent"
	"github.com/kadirpekel/tribunal/pkg/testutils"
)

func renderCtx(t *testing.T, state map[string]any) agent.ReadonlyContext {
	t.Helper()
	sess := testutils.NewSession(t, state)
	return testutils.InvocationContext(context.Background(), testutils.StubAgent(t, "judge"), sess, nil)
}

func TestInjectState(t *testing.T) {
	ctx := renderCtx(t, map[string]any{
		"TOPIC":    "Cold War",
		"pos_data": []string{"Space race", "Marshall Plan"},
	})

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"scalar", "Topic: {TOPIC}", "Topic: Cold War"},
		{"spaced optional", "Topic: { TOPIC? }", "Topic: Cold War"},
		{"accumulator", "{pos_data}", "- Space race\n- Marshall Plan"},
		{"missing renders empty", "Feedback: [{ JUDGE_FEEDBACK? }]", "Feedback: []"},
		{"missing required renders empty", "[{neg_data}]", "[]"},
		{"non identifier left alone", `{"field": 1}`, `{"field": 1}`},
		{"empty", "", ""},
		{"no placeholders", "plain text", "plain text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InjectState(ctx, tt.template)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type failingState struct{ agent.State }

func (failingState) Get(string) (any, error)     { return nil, errors.New("backend down") }
func (failingState) All() iter.Seq2[string, any] { return func(func(string, any) bool) {} }

type stateCtx struct {
	agent.ReadonlyContext
	state agent.ReadonlyState
}

func (c stateCtx) ReadonlyState() agent.ReadonlyState { return c.state }

func TestInjectState_BackendError(t *testing.T) {
	ctx := stateCtx{ReadonlyContext: renderCtx(t, nil), state: failingState{}}

	_, err := InjectState(ctx, "{TOPIC}")
	assert.ErrorContains(t, err, "backend down")

	got, err := InjectState(ctx, "[{TOPIC?}]")
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestTemplate(t *testing.T) {
	tmpl := New("Verdict on {TOPIC}")
	assert.Equal(t, "Verdict on {TOPIC}", tmpl.Raw())

	got, err := tmpl.Render(renderCtx(t, map[string]any{"TOPIC": "Napoleon"}))
	require.NoError(t, err)
	assert.Equal(t, "Verdict on Napoleon", got)
}

func TestFields(t *testing.T) {
	assert.Equal(t,
		[]string{"TOPIC", "pos_data", "neg_data"},
		Fields("{ TOPIC? } {pos_data} { neg_data? } {TOPIC} {not valid}"))
}
