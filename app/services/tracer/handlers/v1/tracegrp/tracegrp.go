// Package tracegrp maintains the group of handlers for trace access.
package tracegrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ransomtrace/ransomtrace/business/web/metrics"
	v1 "github.com/ransomtrace/ransomtrace/business/web/v1"
	"github.com/ransomtrace/ransomtrace/foundation/events"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/address"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/export"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/flow"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/graph"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/state"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/store"
	"github.com/ransomtrace/ransomtrace/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of trace endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide trace progress events to a
// client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Submit queues a new trace for the specified address.
func (h Handlers) Submit(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nt newTrace
	if err := web.Decode(r, &nt); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	if err := address.Validate(nt.Address); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit trace", "traceid", v.TraceID, "address", nt.Address, "depth", nt.Depth)

	record, err := h.State.SubmitTrace(nt.Address, nt.Depth)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	metrics.AddTraces()

	return web.Respond(ctx, w, toTraceInfo(record), http.StatusCreated)
}

// Query returns all known trace records, most recent first.
func (h Handlers) Query(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	records := h.State.QueryRecords()

	sort.Slice(records, func(i, j int) bool {
		return records[i].SubmittedAt.After(records[j].SubmittedAt)
	})

	infos := make([]traceInfo, len(records))
	for i, record := range records {
		infos[i] = toTraceInfo(record)
	}

	return web.Respond(ctx, w, infos, http.StatusOK)
}

// QueryByID returns the trace record with the specified id.
func (h Handlers) QueryByID(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "id")

	record, err := h.State.QueryRecord(id)
	if err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, toTraceInfo(record), http.StatusOK)
}

// Edges returns the edges of a completed trace. With ?format=csv the
// edges are streamed as CSV instead of JSON.
func (h Handlers) Edges(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "id")

	record, err := h.State.QueryRecord(id)
	if err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	if record.Status != store.StatusCompleted {
		return v1.NewRequestError(fmt.Errorf("trace %s is %s", id, record.Status), http.StatusConflict)
	}

	if r.URL.Query().Get("format") == "csv" {
		web.SetStatusCode(ctx, http.StatusOK)
		w.Header().Set("Content-Type", "text/csv")
		return export.Edges(w, record.Edges)
	}

	return web.Respond(ctx, w, record.Edges, http.StatusOK)
}

// Flow performs an accumulator analysis for the specified address and
// returns the resulting flow.
func (h Handlers) Flow(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	addr := web.Param(r, "address")

	if err := address.Validate(addr); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	f, err := h.State.RunFlow(ctx, addr)
	if err != nil {
		if errors.Is(err, flow.ErrNoOutgoing) {
			return v1.NewRequestError(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, f, http.StatusOK)
}

// FlowGraph performs an accumulator analysis and returns the flow as a
// Graphviz DOT document.
func (h Handlers) FlowGraph(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	addr := web.Param(r, "address")

	if err := address.Validate(addr); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	f, err := h.State.RunFlow(ctx, addr)
	if err != nil {
		if errors.Is(err, flow.ErrNoOutgoing) {
			return v1.NewRequestError(err, http.StatusNotFound)
		}
		return err
	}

	web.SetStatusCode(ctx, http.StatusOK)
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, err = w.Write([]byte(graph.RenderDOT(f)))
	return err
}

// Label returns the ransomware family attribution for an address.
func (h Handlers) Label(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	addr := web.Param(r, "address")

	family := h.State.Lookup(addr)

	lbl := label{
		Address: addr,
		Family:  family,
		Known:   family != "",
	}

	return web.Respond(ctx, w, lbl, http.StatusOK)
}

// Seeds returns the loaded seed campaign targets.
func (h Handlers) Seeds(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveSeeds(), http.StatusOK)
}

// TraceSeeds queues a trace for every seed campaign address.
func (h Handlers) TraceSeeds(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	records, err := h.State.SubmitSeedTraces()
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	infos := make([]traceInfo, len(records))
	for i, record := range records {
		infos[i] = toTraceInfo(record)
		metrics.AddTraces()
	}

	return web.Respond(ctx, w, infos, http.StatusCreated)
}
