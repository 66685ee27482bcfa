// Package store maintains completed and in-flight trace records on
// disk, one JSON document per trace.
package store

import (
	"time"

	"github.com/ransomtrace/ransomtrace/foundation/tracer/trace"
)

// Status values for a trace record.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Record represents a trace job and its results.
type Record struct {
	ID          string        `json:"id"`
	Address     string        `json:"address"`
	Depth       int           `json:"depth"`
	Family      string        `json:"family,omitempty"`
	Status      string        `json:"status"`
	SubmittedAt time.Time     `json:"submitted_at"`
	CompletedAt time.Time     `json:"completed_at,omitzero"`
	Error       string        `json:"error,omitempty"`
	Edges       []trace.Edge  `json:"edges,omitempty"`
	Summary     trace.Summary `json:"summary"`
}

// Iterator interface represents the behavior required to be implemented
// by any package providing support to iterate over the stored records.
type Iterator interface {
	Next() (Record, error)
	Done() bool
}

// Storage interface represents the behavior required to be implemented
// by any package providing support for storing and reading records.
type Storage interface {
	Write(record Record) error
	GetRecord(id string) (Record, error)
	ForEach() Iterator
	Close() error
	Reset() error
}
