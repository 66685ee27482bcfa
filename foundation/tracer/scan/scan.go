// Package scan identifies active wallets in a CSV of candidate
// addresses by querying the blockchain.info batch endpoint. Rows whose
// address has transactions are written to the output with the
// transaction count appended, preserving every input column.
package scan

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the number of addresses per batch query, the
// maximum the multiaddr endpoint accepts comfortably.
const DefaultBatchSize = 100

// DefaultColumn is the CSV column holding the addresses in the target
// dataset files.
const DefaultColumn = "identifiers"

// EventHandler defines a function that is called as the scan progresses.
type EventHandler func(v string, args ...any)

// Counter represents the behavior required of an API client to read
// transaction counts in batch.
type Counter interface {
	TxCounts(ctx context.Context, addrs []string) (map[string]int, error)
}

// Stats represents the result of a completed scan.
type Stats struct {
	Processed int `json:"processed"`
	Active    int `json:"active"`
}

// =============================================================================

// Scanner processes target CSV files against the batch endpoint.
type Scanner struct {
	client    Counter
	batchSize int
	column    string
	evHandler EventHandler
}

// New constructs a scanner with the default batch size and column.
func New(client Counter, evHandler EventHandler) *Scanner {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	return &Scanner{
		client:    client,
		batchSize: DefaultBatchSize,
		column:    DefaultColumn,
		evHandler: evHandler,
	}
}

// Run reads the candidate rows from in, queries them in batches, and
// writes the active rows with an extra n_tx column to out. The output
// is flushed after every batch so partial results survive an abort. A
// failed batch query marks its addresses inactive and the scan
// continues.
func (s *Scanner) Run(ctx context.Context, in io.Reader, out io.Writer) (Stats, error) {
	reader := csv.NewReader(in)

	header, err := reader.Read()
	if err != nil {
		return Stats{}, fmt.Errorf("reading header: %w", err)
	}

	column := -1
	for i, name := range header {
		if name == s.column {
			column = i
			break
		}
	}
	if column == -1 {
		return Stats{}, fmt.Errorf("column %q not found in header", s.column)
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(append(append([]string{}, header...), "n_tx")); err != nil {
		return Stats{}, fmt.Errorf("writing header: %w", err)
	}

	batches := make(chan [][]string)
	var stats Stats

	g, ctx := errgroup.WithContext(ctx)

	// Read rows and group them into batches.
	g.Go(func() error {
		defer close(batches)

		var batch [][]string
		for {
			record, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("reading record: %w", err)
			}

			batch = append(batch, record)
			if len(batch) == s.batchSize {
				select {
				case batches <- batch:
				case <-ctx.Done():
					return ctx.Err()
				}
				batch = nil
			}
		}

		if len(batch) > 0 {
			select {
			case batches <- batch:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		return nil
	})

	// Query each batch and append the active rows.
	g.Go(func() error {
		for batch := range batches {
			addrs := make([]string, len(batch))
			for i, record := range batch {
				addrs[i] = record[column]
			}

			counts, err := s.client.TxCounts(ctx, addrs)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.evHandler("scan: batch of %d failed: %s", len(addrs), err)
			}

			for _, record := range batch {
				stats.Processed++

				n := counts[record[column]]
				if n <= 0 {
					continue
				}

				row := append(append([]string{}, record...), fmt.Sprintf("%d", n))
				if err := writer.Write(row); err != nil {
					return fmt.Errorf("writing record: %w", err)
				}

				stats.Active++
				s.evHandler("scan: active wallet %s with %d transactions", record[column], n)
			}

			writer.Flush()
			if err := writer.Error(); err != nil {
				return fmt.Errorf("flushing output: %w", err)
			}

			s.evHandler("scan: processed %d wallets, %d active so far", stats.Processed, stats.Active)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return stats, err
	}

	return stats, nil
}
