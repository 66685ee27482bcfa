// Package seeds maintains access to the seeds file, which lists known
// ransomware campaign addresses the service can trace without user
// input.
package seeds

import (
	"encoding/json"
	"os"
	"time"
)

// Seed represents one known campaign address.
type Seed struct {
	Address string `json:"address"`
	Family  string `json:"family"`
	Note    string `json:"note,omitempty"`
}

// Seeds represents the seeds file.
type Seeds struct {
	Date     time.Time `json:"date"`
	Source   string    `json:"source"`
	MaxDepth int       `json:"max_depth"` // Default trace depth for seeded campaigns.
	Targets  []Seed    `json:"targets"`
}

// =============================================================================

// Load opens and consumes the seeds file.
func Load(path string) (Seeds, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Seeds{}, err
	}

	var seeds Seeds
	if err := json.Unmarshal(content, &seeds); err != nil {
		return Seeds{}, err
	}

	return seeds, nil
}
