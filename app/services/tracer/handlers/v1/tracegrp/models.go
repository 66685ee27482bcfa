package tracegrp

import (
	"time"

	"github.com/ransomtrace/ransomtrace/foundation/tracer/store"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/trace"
)

// newTrace represents a request to start a trace.
type newTrace struct {
	Address string `json:"address" validate:"required"`
	Depth   int    `json:"depth" validate:"gte=0,lte=10"`
}

// traceInfo represents a trace record in API responses. Edges are
// served by their own endpoint to keep listings small.
type traceInfo struct {
	ID          string        `json:"id"`
	Address     string        `json:"address"`
	Depth       int           `json:"depth"`
	Family      string        `json:"family,omitempty"`
	Status      string        `json:"status"`
	SubmittedAt time.Time     `json:"submitted_at"`
	CompletedAt time.Time     `json:"completed_at,omitzero"`
	Error       string        `json:"error,omitempty"`
	Summary     trace.Summary `json:"summary"`
}

func toTraceInfo(record store.Record) traceInfo {
	return traceInfo{
		ID:          record.ID,
		Address:     record.Address,
		Depth:       record.Depth,
		Family:      record.Family,
		Status:      record.Status,
		SubmittedAt: record.SubmittedAt,
		CompletedAt: record.CompletedAt,
		Error:       record.Error,
		Summary:     record.Summary,
	}
}

// label represents the attribution of an address.
type label struct {
	Address string `json:"address"`
	Family  string `json:"family,omitempty"`
	Known   bool   `json:"known"`
}
