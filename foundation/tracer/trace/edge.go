package trace

import "time"

// Edge represents one flow of funds from one address to another inside
// a single transaction.
type Edge struct {
	TxHash        string    `json:"tx_hash"`
	Timestamp     time.Time `json:"timestamp"`
	From          string    `json:"from_address"`
	To            string    `json:"to_address"`
	ValueSatoshis int64     `json:"value_satoshis"`
	ValueBTC      float64   `json:"value_btc"`
	FeeBTC        float64   `json:"tx_fee"`
}

// Summary represents the aggregate statistics over a completed trace.
type Summary struct {
	UniqueAddresses int     `json:"unique_addresses"`
	TotalBTC        float64 `json:"total_btc"`
	TotalFeesBTC    float64 `json:"total_fees_btc"`
	Edges           int     `json:"edges"`
}

// Summarize computes the aggregate statistics for a set of edges.
func Summarize(edges []Edge) Summary {
	unique := make(map[string]bool)
	var total float64
	var fees float64

	for _, edge := range edges {
		unique[edge.From] = true
		unique[edge.To] = true
		total += edge.ValueBTC
		fees += edge.FeeBTC
	}

	return Summary{
		UniqueAddresses: len(unique),
		TotalBTC:        total,
		TotalFeesBTC:    fees,
		Edges:           len(edges),
	}
}
