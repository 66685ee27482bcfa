package scan

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Audit reads a CSV document and returns the names of the columns that
// hold no value in any row. It is used to sanity check target dataset
// files before scanning them.
func Audit(in io.Reader) ([]string, error) {
	reader := csv.NewReader(in)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	hasValue := make([]bool, len(header))

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}

		for i, field := range record {
			if i < len(hasValue) && field != "" {
				hasValue[i] = true
			}
		}
	}

	var empty []string
	for i, name := range header {
		if !hasValue[i] {
			empty = append(empty, name)
		}
	}

	return empty, nil
}
