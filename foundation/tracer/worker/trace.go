package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ransomtrace/ransomtrace/foundation/tracer/store"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/trace"
)

// traceOperations handles the execution of queued trace jobs.
func (w *Worker) traceOperations() {
	w.evHandler("worker: traceOperations: G started")
	defer w.evHandler("worker: traceOperations: G completed")

	for {
		select {
		case <-w.startTrace:
			if !w.isShutdown() {
				w.runTraceOperation()
			}
		case <-w.shut:
			w.evHandler("worker: traceOperations: received shut signal")
			return
		}
	}
}

// runTraceOperation drains the pending job queue, executing one trace
// at a time. A second G waits for a cancellation signal and cancels the
// context the traces run under.
func (w *Worker) runTraceOperation() {
	w.evHandler("worker: runTraceOperation: TRACE: started")
	defer w.evHandler("worker: runTraceOperation: TRACE: completed")

	// Drain the cancel trace channel before starting.
	select {
	case wait := <-w.cancelTrace:
		close(wait)
		w.evHandler("worker: runTraceOperation: TRACE: drained cancel channel")
	default:
	}

	// Create a context so tracing can be cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	traceDone := make(chan struct{})

	// Can't return from this function until these G's are complete.
	var wg sync.WaitGroup
	wg.Add(2)

	// This G exists to cancel the trace operation.
	go func() {
		defer wg.Done()

		select {
		case wait := <-w.cancelTrace:
			w.evHandler("worker: runTraceOperation: TRACE: CANCEL: requested")
			cancel()
			<-traceDone
			close(wait)
		case <-traceDone:
		}
	}()

	// This G is performing the traces.
	go func() {
		defer wg.Done()
		defer close(traceDone)

		for ctx.Err() == nil && !w.isShutdown() {
			record, ok := w.state.NextPending()
			if !ok {
				return
			}

			w.executeTrace(ctx, record)
		}
	}()

	// Wait for both G's to terminate.
	wg.Wait()
}

// executeTrace runs a single trace job and persists the outcome. A
// cancelled job goes back to pending so it runs again after a restart.
func (w *Worker) executeTrace(ctx context.Context, record store.Record) {
	w.evHandler("worker: executeTrace: TRACE: started: trace[%s] address[%s] depth[%d]", record.ID, record.Address, record.Depth)

	record.Status = store.StatusRunning
	if err := w.state.UpdateRecord(record); err != nil {
		w.evHandler("worker: executeTrace: TRACE: ERROR: %s", err)
		return
	}

	t := time.Now()
	tracer := trace.New(w.state.Client(), record.Depth, trace.EventHandler(w.evHandler))
	edges, err := tracer.Run(ctx, record.Address)
	duration := time.Since(t)

	w.evHandler("worker: executeTrace: TRACE: trace duration[%v]", duration)

	switch {
	case ctx.Err() != nil:
		record.Status = store.StatusPending
		w.evHandler("worker: executeTrace: TRACE: CANCEL: trace[%s] requeued", record.ID)

	case err != nil:
		record.Status = store.StatusFailed
		record.Error = err.Error()
		record.CompletedAt = time.Now().UTC()
		w.evHandler("worker: executeTrace: TRACE: ERROR: %s", err)

	default:
		record.Status = store.StatusCompleted
		record.Edges = edges
		record.Summary = trace.Summarize(edges)
		record.CompletedAt = time.Now().UTC()
		w.evHandler("worker: executeTrace: TRACE: completed: trace[%s] edges[%d] addresses[%d] total[%.8f]",
			record.ID, record.Summary.Edges, record.Summary.UniqueAddresses, record.Summary.TotalBTC)
	}

	if err := w.state.UpdateRecord(record); err != nil {
		w.evHandler("worker: executeTrace: TRACE: ERROR: %s", err)
	}
}
