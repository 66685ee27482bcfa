// Package disk implements the store.Storage interface with one JSON
// file per trace record on disk.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/ransomtrace/ransomtrace/foundation/tracer/store"
)

// Disk represents the storage implementation for reading and storing
// trace records in their own separate files on disk. This implements
// the store.Storage interface.
type Disk struct {
	dbPath string
}

// New constructs a Disk value for use, creating the directory if needed.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a file is
// written for each record and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write takes the specified record and stores it on disk in a file
// labeled with the record id. An existing file for the id is replaced,
// which is how status transitions are persisted.
func (d *Disk) Write(record store.Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}

	tmp := d.getPath(record.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}

	return os.Rename(tmp, d.getPath(record.ID))
}

// GetRecord reads the record with the specified id from disk.
func (d *Disk) GetRecord(id string) (store.Record, error) {
	f, err := os.Open(d.getPath(id))
	if err != nil {
		return store.Record{}, err
	}
	defer f.Close()

	var record store.Record
	if err := json.NewDecoder(f).Decode(&record); err != nil {
		return store.Record{}, err
	}

	return record, nil
}

// ForEach returns an iterator to walk through all the records on disk
// ordered by id.
func (d *Disk) ForEach() store.Iterator {
	entries, err := os.ReadDir(d.dbPath)
	if err != nil {
		return &DiskIterator{eoc: true}
	}

	var ids []string
	for _, entry := range entries {
		if name, found := strings.CutSuffix(entry.Name(), ".json"); found {
			ids = append(ids, name)
		}
	}
	sort.Strings(ids)

	return &DiskIterator{disk: d, ids: ids}
}

// Reset clears out all the stored records.
func (d *Disk) Reset() error {
	if err := os.RemoveAll(d.dbPath); err != nil {
		return err
	}

	return os.MkdirAll(d.dbPath, 0755)
}

// getPath forms the path to the specified record.
func (d *Disk) getPath(id string) string {
	return path.Join(d.dbPath, fmt.Sprintf("%s.json", id))
}

// =============================================================================

// DiskIterator represents the iteration implementation for walking
// through and reading records on disk. This implements the store
// Iterator interface.
type DiskIterator struct {
	disk    *Disk    // Access to the disk storage API.
	ids     []string // Record ids captured when iteration started.
	current int      // Current position in the id list.
	eoc     bool     // Represents the iterator is at the end.
}

// Next retrieves the next record from disk.
func (di *DiskIterator) Next() (store.Record, error) {
	if di.eoc {
		return store.Record{}, errors.New("end of records")
	}

	if di.current >= len(di.ids) {
		di.eoc = true
		return store.Record{}, errors.New("end of records")
	}

	record, err := di.disk.GetRecord(di.ids[di.current])
	di.current++

	return record, err
}

// Done returns the end of records value.
func (di *DiskIterator) Done() bool {
	return di.eoc
}
