// Package state is the core API for the tracer and implements all the
// business rules and processing.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/chainapi"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/labels"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/seeds"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/store"
)

// EventHandler defines a function that is called when events occur in
// the processing of traces.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented
// by any package providing support for running trace jobs.
type Worker interface {
	Shutdown()
	SignalStartTrace()
	SignalCancelTrace() (done func())
}

// =============================================================================

// Config represents the configuration required to start the tracer
// state.
type Config struct {
	Client    *chainapi.Client
	Storage   store.Storage
	Labels    *labels.Labels
	Seeds     seeds.Seeds
	MaxDepth  int
	EvHandler EventHandler
}

// State manages the trace jobs and their persistence.
type State struct {
	mu sync.RWMutex

	client    *chainapi.Client
	storage   store.Storage
	labels    *labels.Labels
	seeds     seeds.Seeds
	maxDepth  int
	evHandler EventHandler

	records map[string]store.Record
	pending []string

	Worker Worker
}

// New constructs the state for managing traces. Records already on disk
// are loaded into memory and interrupted jobs are queued again.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	s := State{
		client:    cfg.Client,
		storage:   cfg.Storage,
		labels:    cfg.Labels,
		seeds:     cfg.Seeds,
		maxDepth:  cfg.MaxDepth,
		evHandler: ev,
		records:   make(map[string]store.Record),
	}

	iter := s.storage.ForEach()
	for record, err := iter.Next(); !iter.Done(); record, err = iter.Next() {
		if err != nil {
			return nil, fmt.Errorf("loading records: %w", err)
		}

		// Jobs interrupted by a previous shutdown run again.
		if record.Status == store.StatusRunning || record.Status == store.StatusPending {
			record.Status = store.StatusPending
			s.pending = append(s.pending, record.ID)
		}

		s.records[record.ID] = record
	}

	// The Worker is not set here. The call to worker.Run will assign
	// itself and start everything up and running.

	return &s, nil
}

// Shutdown cleanly brings the tracer down.
func (s *State) Shutdown() error {
	defer func() {
		s.storage.Close()
	}()

	s.Worker.Shutdown()

	return nil
}

// =============================================================================

// Client returns the configured API client.
func (s *State) Client() *chainapi.Client {
	return s.client
}

// MaxDepth returns the configured maximum trace depth.
func (s *State) MaxDepth() int {
	return s.maxDepth
}

// Lookup returns the ransomware family attributed to an address or the
// empty string.
func (s *State) Lookup(addr string) string {
	return s.labels.Lookup(addr)
}

// RetrieveSeeds returns the loaded seeds file.
func (s *State) RetrieveSeeds() seeds.Seeds {
	return s.seeds
}

// =============================================================================

// SubmitTrace creates a new pending trace record for the specified
// address and signals the worker. A depth of zero or above the maximum
// is clamped to the maximum.
func (s *State) SubmitTrace(addr string, depth int) (store.Record, error) {
	if depth <= 0 || depth > s.maxDepth {
		depth = s.maxDepth
	}

	record := store.Record{
		ID:          uuid.NewString(),
		Address:     addr,
		Depth:       depth,
		Family:      s.labels.Lookup(addr),
		Status:      store.StatusPending,
		SubmittedAt: time.Now().UTC(),
	}

	if err := s.storage.Write(record); err != nil {
		return store.Record{}, fmt.Errorf("persisting record: %w", err)
	}

	s.mu.Lock()
	s.records[record.ID] = record
	s.pending = append(s.pending, record.ID)
	s.mu.Unlock()

	s.evHandler("state: SubmitTrace: trace %s queued for address %s depth %d", record.ID, addr, depth)
	s.Worker.SignalStartTrace()

	return record, nil
}

// SubmitSeedTraces queues a trace for every address in the seeds file
// and returns the created records.
func (s *State) SubmitSeedTraces() ([]store.Record, error) {
	var records []store.Record
	for _, target := range s.seeds.Targets {
		record, err := s.SubmitTrace(target.Address, s.seeds.MaxDepth)
		if err != nil {
			return records, err
		}
		records = append(records, record)
	}

	return records, nil
}

// NextPending pops the next pending record for the worker to execute.
func (s *State) NextPending() (store.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.pending) > 0 {
		id := s.pending[0]
		s.pending = s.pending[1:]

		record, exists := s.records[id]
		if exists && record.Status == store.StatusPending {
			return record, true
		}
	}

	return store.Record{}, false
}

// UpdateRecord persists a record status change and updates the in
// memory index. A record moved back to pending is queued again.
func (s *State) UpdateRecord(record store.Record) error {
	if err := s.storage.Write(record); err != nil {
		return fmt.Errorf("persisting record: %w", err)
	}

	s.mu.Lock()
	prev := s.records[record.ID]
	s.records[record.ID] = record
	if record.Status == store.StatusPending && prev.Status != store.StatusPending {
		s.pending = append(s.pending, record.ID)
	}
	s.mu.Unlock()

	return nil
}

// QueryRecord returns the record with the specified id.
func (s *State) QueryRecord(id string) (store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[id]
	if !exists {
		return store.Record{}, fmt.Errorf("record %s not found", id)
	}

	return record, nil
}

// QueryRecords returns a copy of all known records.
func (s *State) QueryRecords() []store.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]store.Record, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}

	return records
}
