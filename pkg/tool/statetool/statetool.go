// Package statetool provides tools that write to the shared run state.
package statetool

import (
	"fmt"
	"strings"

	"github.com/kadirpekel/tribunal/pkg/tool"
	"github.com/kadirpekel/tribunal/pkg/tool/functiontool"
)

// AppendArgs are the arguments of append_to_state.
type AppendArgs struct {
	Field    string `json:"field" jsonschema:"required,description=Name of the state field to append to"`
	Response string `json:"response" jsonschema:"required,description=Text to append to the field"`
}

// AppendToState returns the append_to_state tool. It appends the given
// text to an accumulator field, creating the field if needed.
func AppendToState() tool.CallableTool {
	t, err := functiontool.NewWithValidation(
		functiontool.Config{
			Name:        "append_to_state",
			Description: "Append new text to an existing state field. Use it to record findings or feedback for later steps.",
		},
		func(ctx tool.Context, args AppendArgs) (map[string]any, error) {
			if err := ctx.State().Append(args.Field, args.Response); err != nil {
				return nil, fmt.Errorf("failed to append to %q: %w", args.Field, err)
			}
			ctx.Actions().StateDelta[args.Field] = args.Response
			return map[string]any{"status": "success"}, nil
		},
		func(args AppendArgs) error {
			if strings.TrimSpace(args.Field) == "" {
				return fmt.Errorf("field must not be empty")
			}
			return nil
		},
	)
	if err != nil {
		panic(fmt.Sprintf("statetool: %v", err))
	}
	return t
}
