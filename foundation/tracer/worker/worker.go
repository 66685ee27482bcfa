// Package worker implements the background execution of trace jobs for
// the tracer.
package worker

import (
	"sync"

	"github.com/ransomtrace/ransomtrace/foundation/tracer/state"
)

// Worker manages the job workflows for the tracer.
type Worker struct {
	state       *state.State
	wg          sync.WaitGroup
	shut        chan struct{}
	startTrace  chan bool
	cancelTrace chan chan struct{}
	evHandler   state.EventHandler
}

// Run creates a worker, registers the worker with the state package,
// and starts up all the background processes.
func Run(st *state.State, evHandler state.EventHandler) {
	w := Worker{
		state:       st,
		shut:        make(chan struct{}),
		startTrace:  make(chan bool, 1),
		cancelTrace: make(chan chan struct{}, 1),
		evHandler:   evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.traceOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	// Pick up any jobs queued before a restart.
	w.SignalStartTrace()
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: signal cancel trace")
	done := w.SignalCancelTrace()
	done()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartTrace starts a trace operation. If there is already a
// signal pending in the channel, just return since pending jobs will
// be drained.
func (w *Worker) SignalStartTrace() {
	select {
	case w.startTrace <- true:
	default:
	}
	w.evHandler("worker: SignalStartTrace: trace signaled")
}

// SignalCancelTrace signals the G executing the current trace to stop
// immediately. The returned function blocks until the cancellation has
// been processed.
func (w *Worker) SignalCancelTrace() (done func()) {
	wait := make(chan struct{})

	select {
	case w.cancelTrace <- wait:
	default:
		close(wait)
	}
	w.evHandler("worker: SignalCancelTrace: TRACE: CANCEL: signaled")

	return func() { <-wait }
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
