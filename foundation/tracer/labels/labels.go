// Package labels reads the zdata/labels folder and creates a lookup of
// Bitcoin addresses to the ransomware family they are attributed to.
// Each file in the folder is named after a family and lists one address
// per line.
package labels

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Labels maintains a map of addresses for family lookup.
type Labels struct {
	families map[string]string
}

// New constructs a labels value with the addresses from the specified
// folder.
func New(root string) (*Labels, error) {
	lbls := Labels{
		families: make(map[string]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".txt" {
			return nil
		}

		family := strings.TrimSuffix(path.Base(fileName), ".txt")

		f, err := os.Open(fileName)
		if err != nil {
			return err
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			addr := strings.TrimSpace(scanner.Text())
			if addr == "" || strings.HasPrefix(addr, "#") {
				continue
			}
			lbls.families[addr] = family
		}

		return scanner.Err()
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &lbls, nil
}

// Lookup returns the family for the specified address or the empty
// string when the address is not attributed.
func (lbls *Labels) Lookup(addr string) string {
	return lbls.families[addr]
}

// Copy returns a copy of the map of addresses and families.
func (lbls *Labels) Copy() map[string]string {
	cpy := make(map[string]string, len(lbls.families))
	for addr, family := range lbls.families {
		cpy[addr] = family
	}
	return cpy
}
