// Package export writes trace and flow results as CSV for analysis in
// external tooling.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ransomtrace/ransomtrace/foundation/tracer/flow"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/trace"
)

// Edges writes the edges of a trace in CSV form.
func Edges(out io.Writer, edges []trace.Edge) error {
	writer := csv.NewWriter(out)

	header := []string{"tx_hash", "timestamp", "from_address", "to_address", "value_btc", "value_satoshis", "tx_fee"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, edge := range edges {
		record := []string{
			edge.TxHash,
			edge.Timestamp.Format(time.DateTime),
			edge.From,
			edge.To,
			strconv.FormatFloat(edge.ValueBTC, 'f', 8, 64),
			strconv.FormatInt(edge.ValueSatoshis, 10),
			strconv.FormatFloat(edge.FeeBTC, 'f', 8, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing edge: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Flow writes the rows of a flow analysis in CSV form.
func Flow(out io.Writer, f flow.Flow) error {
	writer := csv.NewWriter(out)

	header := []string{"from_address", "to_address", "amount_btc", "flow_type"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, row := range f.Rows() {
		record := []string{
			row.From,
			row.To,
			strconv.FormatFloat(row.AmountBTC, 'f', 8, 64),
			row.FlowType,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
