package agent

import (
	"errors"
	"fmt"
)

// RunError reports a failed agent step together with the agent and, when
// the failure came from a tool, the tool that caused it.
type RunError struct {
	Agent string
	Tool  string
	Err   error
}

func (e *RunError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("agent %q: tool %q: %v", e.Agent, e.Tool, e.Err)
	}
	return fmt.Sprintf("agent %q: %v", e.Agent, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// FailedAgent returns the innermost agent and tool named by a RunError in
// err's chain. ok is false when no RunError is present.
func FailedAgent(err error) (agentName, toolName string, ok bool) {
	for err != nil {
		var re *RunError
		if !errors.As(err, &re) {
			break
		}
		agentName, toolName, ok = re.Agent, re.Tool, true
		err = re.Err
	}
	return agentName, toolName, ok
}
