package flow

import "sort"

// Flow type values for exported rows.
const (
	TypeInitialToAccumulator     = "INITIAL_TO_ACCUMULATOR"
	TypeSourceToAccumulator      = "SOURCE_TO_ACCUMULATOR"
	TypeAccumulatorToDestination = "ACCUMULATOR_TO_DESTINATION"
)

// Flow represents the result of an accumulator analysis.
type Flow struct {
	Initial              string             `json:"initial"`
	Accumulator          string             `json:"accumulator"`
	InitialToAccumulator float64            `json:"initial_to_accumulator"`
	OtherSources         map[string]float64 `json:"other_sources"`
	Destinations         map[string]float64 `json:"destinations"`
}

// TotalFromOthers returns the amount received by the accumulator from
// sources other than the initial address.
func (f Flow) TotalFromOthers() float64 {
	var total float64
	for _, amount := range f.OtherSources {
		total += amount
	}
	return total
}

// TotalAccumulated returns the total amount received by the accumulator.
func (f Flow) TotalAccumulated() float64 {
	return f.InitialToAccumulator + f.TotalFromOthers()
}

// TotalRedistributed returns the total amount sent on by the accumulator.
func (f Flow) TotalRedistributed() float64 {
	var total float64
	for _, amount := range f.Destinations {
		total += amount
	}
	return total
}

// Retained returns the difference between the accumulated and
// redistributed amounts, which covers fees and funds still held.
func (f Flow) Retained() float64 {
	return f.TotalAccumulated() - f.TotalRedistributed()
}

// =============================================================================

// Row represents one edge of the flow in exportable form.
type Row struct {
	From      string  `json:"from_address"`
	To        string  `json:"to_address"`
	AmountBTC float64 `json:"amount_btc"`
	FlowType  string  `json:"flow_type"`
}

// Rows flattens the flow into typed rows: the initial payment first,
// then the other sources and the destinations, each ordered by amount
// descending.
func (f Flow) Rows() []Row {
	rows := make([]Row, 0, 1+len(f.OtherSources)+len(f.Destinations))

	rows = append(rows, Row{
		From:      f.Initial,
		To:        f.Accumulator,
		AmountBTC: f.InitialToAccumulator,
		FlowType:  TypeInitialToAccumulator,
	})

	for _, entry := range RankByAmount(f.OtherSources) {
		rows = append(rows, Row{
			From:      entry.Addr,
			To:        f.Accumulator,
			AmountBTC: entry.AmountBTC,
			FlowType:  TypeSourceToAccumulator,
		})
	}

	for _, entry := range RankByAmount(f.Destinations) {
		rows = append(rows, Row{
			From:      f.Accumulator,
			To:        entry.Addr,
			AmountBTC: entry.AmountBTC,
			FlowType:  TypeAccumulatorToDestination,
		})
	}

	return rows
}

// Entry represents an address with an aggregated amount.
type Entry struct {
	Addr      string
	AmountBTC float64
}

// RankByAmount orders the entries of an aggregation map by amount
// descending, breaking ties on the address for determinism.
func RankByAmount(amounts map[string]float64) []Entry {
	entries := make([]Entry, 0, len(amounts))
	for addr, amount := range amounts {
		entries = append(entries, Entry{Addr: addr, AmountBTC: amount})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AmountBTC != entries[j].AmountBTC {
			return entries[i].AmountBTC > entries[j].AmountBTC
		}
		return entries[i].Addr < entries[j].Addr
	})

	return entries
}
