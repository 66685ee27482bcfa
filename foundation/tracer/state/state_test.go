package state_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ransomtrace/ransomtrace/foundation/tracer/labels"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/seeds"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/state"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/store"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/store/disk"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// worker stubs out the background processing so the state can be tested
// in isolation.
type worker struct {
	starts int
}

func (w *worker) Shutdown()         {}
func (w *worker) SignalStartTrace() { w.starts++ }

func (w *worker) SignalCancelTrace() (done func()) {
	return func() {}
}

func newState(t *testing.T, dbPath string) (*state.State, *worker) {
	labelDir := t.TempDir()
	doc := "addrConti1\naddrConti2\n"
	if err := os.WriteFile(filepath.Join(labelDir, "conti.txt"), []byte(doc), 0644); err != nil {
		t.Fatalf("\t%s\tShould be able to write the labels fixture: %v", failed, err)
	}

	lbls, err := labels.New(labelDir)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the labels: %v", failed, err)
	}

	storage, err := disk.New(dbPath)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open the storage: %v", failed, err)
	}

	st, err := state.New(state.Config{
		Storage: storage,
		Labels:  lbls,
		Seeds: seeds.Seeds{
			MaxDepth: 2,
			Targets: []seeds.Seed{
				{Address: "addrSeed1", Family: "ryuk"},
				{Address: "addrSeed2", Family: "ryuk"},
			},
		},
		MaxDepth: 3,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	var w worker
	st.Worker = &w

	return st, &w
}

func TestSubmitTrace(t *testing.T) {
	t.Log("Given the need to manage trace jobs.")
	{
		t.Logf("\tTest 0:\tWhen submitting a trace for a labeled address.")
		{
			st, w := newState(t, t.TempDir())

			record, err := st.SubmitTrace("addrConti1", 2)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit a trace: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to submit a trace.", success)

			if record.Status != store.StatusPending || record.Depth != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould create a pending record at depth 2: %+v", failed, record)
			}
			t.Logf("\t%s\tTest 0:\tShould create a pending record at depth 2.", success)

			if record.Family != "conti" {
				t.Fatalf("\t%s\tTest 0:\tShould attribute the conti family, got %q.", failed, record.Family)
			}
			t.Logf("\t%s\tTest 0:\tShould attribute the conti family.", success)

			if w.starts != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould signal the worker once, got %d.", failed, w.starts)
			}
			t.Logf("\t%s\tTest 0:\tShould signal the worker once.", success)

			next, exists := st.NextPending()
			if !exists || next.ID != record.ID {
				t.Fatalf("\t%s\tTest 0:\tShould find the record in the pending queue.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould find the record in the pending queue.", success)

			if _, exists := st.NextPending(); exists {
				t.Fatalf("\t%s\tTest 0:\tShould drain the pending queue.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould drain the pending queue.", success)
		}

		t.Logf("\tTest 1:\tWhen submitting a trace with an out of range depth.")
		{
			st, _ := newState(t, t.TempDir())

			record, err := st.SubmitTrace("addrUnknown", 25)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to submit a trace: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould be able to submit a trace.", success)

			if record.Depth != 3 {
				t.Fatalf("\t%s\tTest 1:\tShould clamp the depth to the maximum, got %d.", failed, record.Depth)
			}
			t.Logf("\t%s\tTest 1:\tShould clamp the depth to the maximum.", success)

			if record.Family != "" {
				t.Fatalf("\t%s\tTest 1:\tShould leave unknown addresses unattributed.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould leave unknown addresses unattributed.", success)
		}

		t.Logf("\tTest 2:\tWhen submitting the seed traces.")
		{
			st, w := newState(t, t.TempDir())

			records, err := st.SubmitSeedTraces()
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to submit the seed traces: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould be able to submit the seed traces.", success)

			if len(records) != 2 || w.starts != 2 {
				t.Fatalf("\t%s\tTest 2:\tShould queue one trace per seed.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould queue one trace per seed.", success)

			if records[0].Depth != 2 {
				t.Fatalf("\t%s\tTest 2:\tShould use the seed depth, got %d.", failed, records[0].Depth)
			}
			t.Logf("\t%s\tTest 2:\tShould use the seed depth.", success)
		}
	}
}

func TestRestart(t *testing.T) {
	t.Log("Given the need to recover jobs across a restart.")
	{
		t.Logf("\tTest 0:\tWhen records exist on disk from a previous run.")
		{
			dbPath := t.TempDir()

			st, _ := newState(t, dbPath)

			running, err := st.SubmitTrace("addr1", 1)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit a trace: %v", failed, err)
			}
			running.Status = store.StatusRunning
			if err := st.UpdateRecord(running); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to update a record: %v", failed, err)
			}

			completed, err := st.SubmitTrace("addr2", 1)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit a trace: %v", failed, err)
			}
			completed.Status = store.StatusCompleted
			if err := st.UpdateRecord(completed); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to update a record: %v", failed, err)
			}

			// A new state over the same storage picks the interrupted
			// job up again.
			st2, _ := newState(t, dbPath)

			if len(st2.QueryRecords()) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould load both records from disk.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould load both records from disk.", success)

			next, exists := st2.NextPending()
			if !exists || next.ID != running.ID {
				t.Fatalf("\t%s\tTest 0:\tShould requeue the interrupted job.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould requeue the interrupted job.", success)

			if next.Status != store.StatusPending {
				t.Fatalf("\t%s\tTest 0:\tShould move the interrupted job back to pending.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould move the interrupted job back to pending.", success)

			if _, exists := st2.NextPending(); exists {
				t.Fatalf("\t%s\tTest 0:\tShould not requeue the completed job.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not requeue the completed job.", success)

			record, err := st2.QueryRecord(completed.ID)
			if err != nil || record.Status != store.StatusCompleted {
				t.Fatalf("\t%s\tTest 0:\tShould keep the completed job as is.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the completed job as is.", success)
		}
	}
}
