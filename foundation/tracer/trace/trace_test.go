package trace_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ransomtrace/ransomtrace/foundation/tracer/chainapi"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/trace"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// lister implements the trace.Lister interface against a fixed set of
// address data. Addresses not in the set fail to query.
type lister struct {
	addresses map[string]chainapi.Address
}

func (l lister) Address(ctx context.Context, addr string, limit int) (chainapi.Address, error) {
	if err := ctx.Err(); err != nil {
		return chainapi.Address{}, err
	}

	data, exists := l.addresses[addr]
	if !exists {
		return chainapi.Address{}, errors.New("address not found")
	}

	return data, nil
}

func TestTrace(t *testing.T) {
	client := lister{
		addresses: map[string]chainapi.Address{
			"addrA": {
				Address: "addrA",
				TxCount: 2,
				Txs: []chainapi.Tx{
					{
						Hash: "tx1",
						Time: 1700000000,
						Fee:  5000,
						Inputs: []chainapi.Input{
							{PrevOut: chainapi.Output{Addr: "addrA", Value: 800_000_000}},
						},
						Outputs: []chainapi.Output{
							{Addr: "addrB", Value: 500_000_000},
							{Addr: "addrC", Value: 200_000_000},
							{Addr: "addrA", Value: 99_000_000},
							{Addr: "", Value: 700},
							{Addr: "addrD", Value: 0},
						},
					},
					{
						Hash: "tx2",
						Time: 1700000100,
						Inputs: []chainapi.Input{
							{PrevOut: chainapi.Output{Addr: "addrX", Value: 300_000_000}},
						},
						Outputs: []chainapi.Output{
							{Addr: "addrA", Value: 300_000_000},
						},
					},
				},
			},
			"addrB": {
				Address: "addrB",
				TxCount: 1,
				Txs: []chainapi.Tx{
					{
						Hash: "tx3",
						Time: 1700000200,
						Fee:  2000,
						Inputs: []chainapi.Input{
							{PrevOut: chainapi.Output{Addr: "addrB", Value: 500_000_000}},
						},
						Outputs: []chainapi.Output{
							{Addr: "addrE", Value: 400_000_000},
						},
					},
				},
			},
		},
	}

	t.Log("Given the need to trace outgoing fund flows from an address.")
	{
		t.Logf("\tTest 0:\tWhen tracing addrA to a depth of 2.")
		{
			edges, err := trace.New(client, 2, nil).Run(context.Background(), "addrA")
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to run the trace: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to run the trace.", success)

			if len(edges) != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould find 3 edges, got %d.", failed, len(edges))
			}
			t.Logf("\t%s\tTest 0:\tShould find 3 edges.", success)

			exp := []struct {
				from  string
				to    string
				value int64
			}{
				{"addrA", "addrB", 500_000_000},
				{"addrA", "addrC", 200_000_000},
				{"addrB", "addrE", 400_000_000},
			}

			for i, e := range exp {
				edge := edges[i]
				if edge.From != e.from || edge.To != e.to || edge.ValueSatoshis != e.value {
					t.Errorf("\t%s\tTest 0:\tShould have edge %s->%s with %d satoshis.", failed, e.from, e.to, e.value)
					t.Logf("\t%s\tTest 0:\tgot: %s->%s %d", failed, edge.From, edge.To, edge.ValueSatoshis)
				} else {
					t.Logf("\t%s\tTest 0:\tShould have edge %s->%s with %d satoshis.", success, e.from, e.to, e.value)
				}
			}

			for _, edge := range edges {
				if edge.To == "addrA" || edge.To == "" || edge.ValueSatoshis <= 0 {
					t.Errorf("\t%s\tTest 0:\tShould filter change, empty and zero value outputs.", failed)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould filter change, empty and zero value outputs.", success)
		}

		t.Logf("\tTest 1:\tWhen the depth limit stops the recursion.")
		{
			edges, err := trace.New(client, 1, nil).Run(context.Background(), "addrA")
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to run the trace: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould be able to run the trace.", success)

			if len(edges) != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould only find the first level edges, got %d.", failed, len(edges))
			}
			t.Logf("\t%s\tTest 1:\tShould only find the first level edges.", success)
		}

		t.Logf("\tTest 2:\tWhen the context is canceled.")
		{
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := trace.New(client, 2, nil).Run(ctx, "addrA"); !errors.Is(err, context.Canceled) {
				t.Fatalf("\t%s\tTest 2:\tShould abort the trace with the context error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould abort the trace with the context error.", success)
		}
	}
}

func TestFrontier(t *testing.T) {

	// addrA pays five destinations. Only the three largest are queried
	// for the next level, so only their spends show up as edges.
	client := lister{
		addresses: map[string]chainapi.Address{
			"addrA": {
				Address: "addrA",
				Txs: []chainapi.Tx{
					{
						Hash: "tx1",
						Time: 1700000000,
						Inputs: []chainapi.Input{
							{PrevOut: chainapi.Output{Addr: "addrA", Value: 1_500_000_000}},
						},
						Outputs: []chainapi.Output{
							{Addr: "dest1", Value: 500_000_000},
							{Addr: "dest2", Value: 400_000_000},
							{Addr: "dest3", Value: 300_000_000},
							{Addr: "dest4", Value: 200_000_000},
							{Addr: "dest5", Value: 100_000_000},
						},
					},
				},
			},
			"dest1": destSpend("dest1", "next1"),
			"dest2": destSpend("dest2", "next2"),
			"dest3": destSpend("dest3", "next3"),
			"dest4": destSpend("dest4", "next4"),
			"dest5": destSpend("dest5", "next5"),
		},
	}

	edges, err := trace.New(client, 2, nil).Run(context.Background(), "addrA")
	if err != nil {
		t.Fatalf("Test frontier:\tShould be able to run the trace: %v", err)
	}

	followed := make(map[string]bool)
	for _, edge := range edges {
		if edge.From != "addrA" {
			followed[edge.From] = true
		}
	}

	for _, addr := range []string{"dest1", "dest2", "dest3"} {
		if !followed[addr] {
			t.Errorf("Test frontier:\tShould follow top destination %s.", addr)
		}
	}
	for _, addr := range []string{"dest4", "dest5"} {
		if followed[addr] {
			t.Errorf("Test frontier:\tShould not follow destination %s.", addr)
		}
	}
}

func TestSummarize(t *testing.T) {
	edges := []trace.Edge{
		{From: "a", To: "b", ValueBTC: 1.5, FeeBTC: 0.0001},
		{From: "a", To: "c", ValueBTC: 0.5, FeeBTC: 0.0001},
		{From: "b", To: "c", ValueBTC: 1.0, FeeBTC: 0.0002},
	}

	summary := trace.Summarize(edges)

	if summary.UniqueAddresses != 3 {
		t.Errorf("Test summarize:\tShould count 3 unique addresses, got %d.", summary.UniqueAddresses)
	}
	if summary.Edges != 3 {
		t.Errorf("Test summarize:\tShould count 3 edges, got %d.", summary.Edges)
	}
	if summary.TotalBTC != 3.0 {
		t.Errorf("Test summarize:\tShould total 3.0 BTC, got %f.", summary.TotalBTC)
	}
}

// destSpend builds address data where addr forwards funds to next.
func destSpend(addr string, next string) chainapi.Address {
	return chainapi.Address{
		Address: addr,
		Txs: []chainapi.Tx{
			{
				Hash: "tx_" + addr,
				Time: 1700000300,
				Inputs: []chainapi.Input{
					{PrevOut: chainapi.Output{Addr: addr, Value: 100_000_000}},
				},
				Outputs: []chainapi.Output{
					{Addr: next, Value: 90_000_000},
				},
			},
		},
	}
}
