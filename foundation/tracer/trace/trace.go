// Package trace implements the recursive tracing of outgoing fund flows
// from a Bitcoin address. Starting from a target address, each level
// follows the spends of that address to the destinations that received
// the most value, building a set of edges that describe where the funds
// went.
package trace

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/ransomtrace/ransomtrace/foundation/tracer/chainapi"
)

// txLimit caps the number of transactions requested per address to keep
// API usage down.
const txLimit = 50

// frontierSize is the number of destination addresses followed at each
// level, ranked by total value received.
const frontierSize = 3

// satoshisPerBTC converts API amounts to BTC.
const satoshisPerBTC = 100_000_000

// EventHandler defines a function that is called when events occur
// during a trace.
type EventHandler func(v string, args ...any)

// Lister represents the behavior required of an API client to read
// address information.
type Lister interface {
	Address(ctx context.Context, addr string, limit int) (chainapi.Address, error)
}

// =============================================================================

// Tracer walks outgoing spends from a start address up to a maximum
// depth.
type Tracer struct {
	client    Lister
	maxDepth  int
	evHandler EventHandler
}

// New constructs a tracer for the specified depth.
func New(client Lister, maxDepth int, evHandler EventHandler) *Tracer {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	return &Tracer{
		client:    client,
		maxDepth:  maxDepth,
		evHandler: evHandler,
	}
}

// Run performs the trace and returns the full set of edges found. An
// address that cannot be queried ends its own branch without failing
// the trace. Context cancellation aborts the whole trace.
func (t *Tracer) Run(ctx context.Context, startAddr string) ([]Edge, error) {
	var edges []Edge
	if err := t.walk(ctx, startAddr, map[string]bool{}, 0, &edges); err != nil {
		return nil, err
	}

	return edges, nil
}

// walk processes one address and recurses into the most significant
// destinations. Each branch carries its own copy of the visited set so
// sibling branches do not cut each other off.
func (t *Tracer) walk(ctx context.Context, addr string, visited map[string]bool, depth int, edges *[]Edge) error {
	if visited[addr] || depth >= t.maxDepth {
		return nil
	}

	visited[addr] = true
	depth++

	t.evHandler("trace: level %d: processing address %s", depth, addr)

	data, err := t.client.Address(ctx, addr, txLimit)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		t.evHandler("trace: level %d: no data for address %s: %s", depth, addr, err)
		return nil
	}

	t.evHandler("trace: level %d: balance[%.8f] received[%.8f] sent[%.8f] txs[%d]",
		depth, btc(data.FinalBalance), btc(data.TotalReceived), btc(data.TotalSent), data.TxCount)

	found := spends(data, addr)
	if len(found) == 0 {
		t.evHandler("trace: level %d: no outgoing transactions for %s", depth, addr)
		return nil
	}

	*edges = append(*edges, found...)

	if depth >= t.maxDepth {
		return nil
	}

	for _, dest := range frontier(found, frontierSize) {
		t.evHandler("trace: level %d: following %s (%.8f BTC)", depth, dest.Addr, dest.TotalBTC)

		branchVisited := make(map[string]bool, len(visited))
		for k := range visited {
			branchVisited[k] = true
		}

		if err := t.walk(ctx, dest.Addr, branchVisited, depth, edges); err != nil {
			return err
		}
	}

	return nil
}

// =============================================================================

// spends extracts the outgoing edges for transactions where the target
// address appears in the inputs, meaning it is spending funds. Change
// outputs back to the target, empty addresses and zero values are
// filtered out.
func spends(data chainapi.Address, target string) []Edge {
	var edges []Edge

	for _, tx := range data.Txs {
		spending := false
		for _, input := range tx.Inputs {
			if input.PrevOut.Addr == target {
				spending = true
				break
			}
		}
		if !spending {
			continue
		}

		for _, out := range tx.Outputs {
			if out.Addr == "" || out.Addr == target || out.Value <= 0 {
				continue
			}

			edges = append(edges, Edge{
				TxHash:        tx.Hash,
				Timestamp:     time.Unix(tx.Time, 0).UTC(),
				From:          target,
				To:            out.Addr,
				ValueSatoshis: out.Value,
				ValueBTC:      btc(out.Value),
				FeeBTC:        btc(tx.Fee),
			})
		}
	}

	return edges
}

// Destination represents an address and the total value it received
// across the edges of one level.
type Destination struct {
	Addr     string
	TotalBTC float64
}

// frontier ranks destinations by total value received and returns the
// top howMany for the next level of the trace.
func frontier(edges []Edge, howMany int) []Destination {
	totals := make(map[string]float64)
	for _, edge := range edges {
		totals[edge.To] += edge.ValueBTC
	}

	dests := make([]Destination, 0, len(totals))
	for addr, total := range totals {
		dests = append(dests, Destination{Addr: addr, TotalBTC: total})
	}

	sort.Slice(dests, func(i, j int) bool {
		if dests[i].TotalBTC != dests[j].TotalBTC {
			return dests[i].TotalBTC > dests[j].TotalBTC
		}
		return dests[i].Addr < dests[j].Addr
	})

	if len(dests) > howMany {
		dests = dests[:howMany]
	}

	return dests
}

// btc converts satoshis to BTC.
func btc(satoshis int64) float64 {
	return float64(satoshis) / satoshisPerBTC
}
