package workflowagent

import (
	"errors"

	"github.com/kadirpekel/tribunal/pkg/agent"
)

// errStopped reports that the consumer stopped iterating.
var errStopped = errors.New("iteration stopped by consumer")

// childContext builds the invocation context of sub under ctx, with signal
// as the child's loop signal.
func childContext(ctx agent.InvocationContext, sub agent.Agent, signal *agent.LoopSignal) agent.InvocationContext {
	params := agent.ChildParams(ctx, sub)
	params.LoopSignal = signal
	return agent.NewInvocationContext(ctx, params)
}

// forward runs sub and passes its events to yield. It returns the child's
// error, or errStopped if yield asked to stop.
func forward(ctx agent.InvocationContext, sub agent.Agent, yield func(*agent.Event, error) bool) error {
	for ev, err := range sub.Run(ctx) {
		if err != nil {
			return err
		}
		if ev == nil {
			continue
		}
		if !yield(ev, nil) {
			return errStopped
		}
	}
	return nil
}
