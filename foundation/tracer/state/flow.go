package state

import (
	"context"

	"github.com/ransomtrace/ransomtrace/foundation/tracer/flow"
)

// RunFlow performs a synchronous accumulator analysis for the specified
// address. Unlike traces, flow analyses are not queued: they are bound
// to the lifetime of the caller's context.
func (s *State) RunFlow(ctx context.Context, addr string) (flow.Flow, error) {
	analyzer := flow.New(s.client, flow.EventHandler(s.evHandler))
	return analyzer.Run(ctx, addr)
}
