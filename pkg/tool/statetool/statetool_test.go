package statetool_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/tribunal/pkg/testutils"
	"github.com/kadirpekel/tribunal/pkg/tool"
	"github.com/kadirpekel/tribunal/pkg/tool/statetool"
)

func TestAppendToState(t *testing.T) {
	sess := testutils.NewSession(t, nil)
	inv := testutils.InvocationContext(context.Background(), testutils.StubAgent(t, "admirer"), sess, nil)
	appendTool := statetool.AppendToState()

	for _, text := range []string{"Marshall Plan rebuilt Europe", "Space race advanced science"} {
		tc := tool.NewContext(inv, "c")
		res, err := appendTool.Call(tc, map[string]any{"field": "pos_data", "response": text})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"status": "success"}, res)
		assert.Equal(t, text, tc.Actions().StateDelta["pos_data"])
	}

	val, err := sess.State().Get("pos_data")
	require.NoError(t, err)
	assert.Equal(t, []string{"Marshall Plan rebuilt Europe", "Space race advanced science"}, val)
}

func TestAppendToState_Misuse(t *testing.T) {
	sess := testutils.NewSession(t, nil)
	inv := testutils.InvocationContext(context.Background(), testutils.StubAgent(t, "admirer"), sess, nil)

	_, err := statetool.AppendToState().Call(tool.NewContext(inv, "c"), map[string]any{"field": " ", "response": "x"})
	assert.ErrorIs(t, err, tool.ErrInvalidArgs)

	_, err = statetool.AppendToState().Call(tool.NewContext(inv, "c"), map[string]any{"response": "x"})
	assert.ErrorIs(t, err, tool.ErrInvalidArgs)
}
