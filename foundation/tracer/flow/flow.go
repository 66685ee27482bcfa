// Package flow implements the accumulator analysis of ransomware fund
// flows. A ransom payment address typically forwards its funds to an
// accumulation wallet that also collects from other victim addresses
// before redistributing to cash-out destinations. The analysis runs in
// three levels: the outgoing spends of the initial address identify the
// accumulator, the incoming flows of the accumulator identify the other
// sources, and the outgoing spends of the accumulator identify the
// destinations.
package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/ransomtrace/ransomtrace/foundation/tracer/chainapi"
)

// txLimit caps the number of transactions requested per address.
const txLimit = 100

// mainOutputShare is the fraction of a spend above which the whole
// spend is attributed to the largest output. Below it the spend is
// distributed across outputs proportionally.
const mainOutputShare = 0.9

// satoshisPerBTC converts API amounts to BTC.
const satoshisPerBTC = 100_000_000

// ErrNoOutgoing is returned when the initial address has no outgoing
// transactions to analyze.
var ErrNoOutgoing = errors.New("no outgoing transactions from initial address")

// EventHandler defines a function that is called when events occur
// during the analysis.
type EventHandler func(v string, args ...any)

// Lister represents the behavior required of an API client to read
// address information.
type Lister interface {
	Address(ctx context.Context, addr string, limit int) (chainapi.Address, error)
}

// =============================================================================

// Analyzer performs the three level accumulator analysis.
type Analyzer struct {
	client    Lister
	evHandler EventHandler
}

// New constructs an analyzer.
func New(client Lister, evHandler EventHandler) *Analyzer {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	return &Analyzer{
		client:    client,
		evHandler: evHandler,
	}
}

// Run analyzes the fund flow starting from the specified ransomware
// address.
func (a *Analyzer) Run(ctx context.Context, initial string) (Flow, error) {
	a.evHandler("flow: level 0: analyzing initial address %s", initial)

	fromInitial, err := a.outgoing(ctx, initial)
	if err != nil {
		return Flow{}, fmt.Errorf("outgoing from initial: %w", err)
	}
	if len(fromInitial) == 0 {
		return Flow{}, ErrNoOutgoing
	}

	accumulator, toAccumulator := largest(fromInitial)
	a.evHandler("flow: accumulator identified: %s (%.8f BTC from initial)", accumulator, toAccumulator)

	a.evHandler("flow: level 1: analyzing sources into accumulator %s", accumulator)
	toAccum, err := a.incoming(ctx, accumulator)
	if err != nil {
		return Flow{}, fmt.Errorf("incoming to accumulator: %w", err)
	}

	otherSources := make(map[string]float64, len(toAccum))
	for addr, amount := range toAccum {
		if addr != initial {
			otherSources[addr] = amount
		}
	}

	a.evHandler("flow: level 2: analyzing destinations from accumulator %s", accumulator)
	destinations, err := a.outgoing(ctx, accumulator)
	if err != nil {
		return Flow{}, fmt.Errorf("outgoing from accumulator: %w", err)
	}

	flow := Flow{
		Initial:              initial,
		Accumulator:          accumulator,
		InitialToAccumulator: toAccumulator,
		OtherSources:         otherSources,
		Destinations:         destinations,
	}

	a.evHandler("flow: complete: accumulated[%.8f] redistributed[%.8f] retained[%.8f]",
		flow.TotalAccumulated(), flow.TotalRedistributed(), flow.Retained())

	return flow, nil
}

// =============================================================================

// outgoing aggregates the amounts the address spends per destination.
// The spend of a transaction is the sum of the address's own inputs.
// When the largest output takes more than mainOutputShare of the spend
// the whole spend is attributed to it, which folds change and dust
// outputs into the real destination. Otherwise the spend is split
// across the outputs proportionally to their values.
func (a *Analyzer) outgoing(ctx context.Context, addr string) (map[string]float64, error) {
	data, err := a.client.Address(ctx, addr, txLimit)
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64)

	for _, tx := range data.Txs {
		var spending float64
		for _, input := range tx.Inputs {
			if input.PrevOut.Addr == addr {
				spending += btc(input.PrevOut.Value)
			}
		}
		if spending == 0 {
			continue
		}

		var others []chainapi.Output
		var totalToOthers float64
		for _, o := range tx.Outputs {
			if o.Addr == "" || o.Addr == addr || o.Value <= 0 {
				continue
			}
			others = append(others, o)
			totalToOthers += btc(o.Value)
		}
		if len(others) == 0 {
			continue
		}

		main := others[0]
		for _, o := range others[1:] {
			if o.Value > main.Value {
				main = o
			}
		}

		if btc(main.Value) > spending*mainOutputShare {
			out[main.Addr] += spending
			continue
		}

		for _, o := range others {
			out[o.Addr] += spending * (btc(o.Value) / totalToOthers)
		}
	}

	return out, nil
}

// incoming aggregates the amounts the address receives per source. For
// each transaction the received amount is split evenly across the
// unique source addresses of its inputs.
func (a *Analyzer) incoming(ctx context.Context, addr string) (map[string]float64, error) {
	data, err := a.client.Address(ctx, addr, txLimit)
	if err != nil {
		return nil, err
	}

	in := make(map[string]float64)

	for _, tx := range data.Txs {
		var received float64
		for _, o := range tx.Outputs {
			if o.Addr == addr {
				received += btc(o.Value)
			}
		}
		if received == 0 {
			continue
		}

		sources := make(map[string]bool)
		for _, input := range tx.Inputs {
			if input.PrevOut.Addr != "" && input.PrevOut.Addr != addr {
				sources[input.PrevOut.Addr] = true
			}
		}
		if len(sources) == 0 {
			continue
		}

		perSource := received / float64(len(sources))
		for source := range sources {
			in[source] += perSource
		}
	}

	return in, nil
}

// largest returns the address with the highest amount. Ties resolve to
// the lexicographically smaller address so results are deterministic.
func largest(amounts map[string]float64) (string, float64) {
	var addr string
	var max float64

	for a, amount := range amounts {
		switch {
		case amount > max:
			addr, max = a, amount
		case amount == max && (addr == "" || a < addr):
			addr = a
		}
	}

	return addr, max
}

// btc converts satoshis to BTC.
func btc(satoshis int64) float64 {
	return float64(satoshis) / satoshisPerBTC
}
