package functiontool_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/tribunal/pkg/testutils"
	"github.com/kadirpekel/tribunal/pkg/tool"
	"github.com/kadirpekel/tribunal/pkg/tool/functiontool"
)

type greetArgs struct {
	Name  string `json:"name" jsonschema:"required,description=User name"`
	Times int    `json:"times,omitempty" jsonschema:"description=How many times"`
}

func newGreet(t *testing.T) tool.CallableTool {
	t.Helper()
	greet, err := functiontool.New(
		functiontool.Config{Name: "greet", Description: "Greet a user"},
		func(ctx tool.Context, args greetArgs) (map[string]any, error) {
			return map[string]any{"greeting": fmt.Sprintf("Hello, %s x%d", args.Name, args.Times)}, nil
		},
	)
	require.NoError(t, err)
	return greet
}

func toolContext(t *testing.T) tool.Context {
	sess := testutils.NewSession(t, nil)
	inv := testutils.InvocationContext(context.Background(), testutils.StubAgent(t, "caller"), sess, nil)
	return tool.NewContext(inv, "call-1")
}

func TestNew_Schema(t *testing.T) {
	greet := newGreet(t)

	assert.Equal(t, "greet", greet.Name())
	schema := greet.Schema()
	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "name")
	assert.Contains(t, props, "times")
	assert.Equal(t, []any{"name"}, schema["required"])
}

func TestCall_DecodesArgs(t *testing.T) {
	result, err := newGreet(t).Call(toolContext(t), map[string]any{"name": "Ada", "times": float64(2)})
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ada x2", result["greeting"])
}

func TestCall_Misuse(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing required", map[string]any{"times": 1}},
		{"unknown field", map[string]any{"name": "Ada", "color": "red"}},
		{"wrong type", map[string]any{"name": "Ada", "times": map[string]any{"n": 1}}},
		{"nil args", nil},
	}
	greet := newGreet(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := greet.Call(toolContext(t), tt.args)
			assert.ErrorIs(t, err, tool.ErrInvalidArgs)
		})
	}
}

func TestNewWithValidation(t *testing.T) {
	v, err := functiontool.NewWithValidation(
		functiontool.Config{Name: "v", Description: "validated"},
		func(ctx tool.Context, args greetArgs) (map[string]any, error) {
			return map[string]any{"ok": true}, nil
		},
		func(args greetArgs) error {
			if args.Name == "nobody" {
				return fmt.Errorf("name rejected")
			}
			return nil
		},
	)
	require.NoError(t, err)

	_, err = v.Call(toolContext(t), map[string]any{"name": "nobody"})
	assert.ErrorIs(t, err, tool.ErrInvalidArgs)

	res, err := v.Call(toolContext(t), map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, true, res["ok"])
}

func TestNew_ConfigValidation(t *testing.T) {
	fn := func(ctx tool.Context, args greetArgs) (map[string]any, error) { return nil, nil }

	_, err := functiontool.New(functiontool.Config{Description: "d"}, fn)
	assert.Error(t, err)

	_, err = functiontool.New(functiontool.Config{Name: "n"}, fn)
	assert.Error(t, err)
}

func TestCall_FunctionErrorPassesThrough(t *testing.T) {
	boom := fmt.Errorf("disk full")
	failing, err := functiontool.New(
		functiontool.Config{Name: "f", Description: "fails"},
		func(ctx tool.Context, args greetArgs) (map[string]any, error) { return nil, boom },
	)
	require.NoError(t, err)

	_, err = failing.Call(toolContext(t), map[string]any{"name": "x"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, tool.ErrInvalidArgs)
}
