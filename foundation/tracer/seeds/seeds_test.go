package seeds_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ransomtrace/ransomtrace/foundation/tracer/seeds"
)

func TestLoad(t *testing.T) {
	doc := `{
	"date": "2026-03-10T00:00:00Z",
	"source": "public ransomware address reports",
	"max_depth": 3,
	"targets": [
		{"address": "addr1", "family": "conti"},
		{"address": "addr2", "family": "ryuk", "note": "reported twice"}
	]
}`

	path := filepath.Join(t.TempDir(), "seeds.json")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("Test load:\tShould be able to write the fixture: %v", err)
	}

	sds, err := seeds.Load(path)
	if err != nil {
		t.Fatalf("Test load:\tShould be able to load the seeds file: %v", err)
	}

	if sds.MaxDepth != 3 {
		t.Errorf("Test load:\tShould read the default depth, got %d.", sds.MaxDepth)
	}
	if len(sds.Targets) != 2 {
		t.Fatalf("Test load:\tShould read 2 targets, got %d.", len(sds.Targets))
	}
	if sds.Targets[1].Family != "ryuk" || sds.Targets[1].Note != "reported twice" {
		t.Errorf("Test load:\tShould read the target fields, got %+v.", sds.Targets[1])
	}

	if _, err := seeds.Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("Test load:\tShould fail for a missing file.")
	}
}
