package flow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/chainapi"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/flow"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// lister implements the flow.Lister interface against a fixed set of
// address data.
type lister struct {
	addresses map[string]chainapi.Address
}

func (l lister) Address(ctx context.Context, addr string, limit int) (chainapi.Address, error) {
	data, exists := l.addresses[addr]
	if !exists {
		return chainapi.Address{}, errors.New("address not found")
	}

	return data, nil
}

func TestFlowAnalysis(t *testing.T) {

	// The initial address forwards everything to the accumulator, which
	// also collects from two victims and redistributes to two cash-out
	// destinations.
	txInitToAccum := chainapi.Tx{
		Hash: "tx_init",
		Time: 1700000000,
		Inputs: []chainapi.Input{
			{PrevOut: chainapi.Output{Addr: "init", Value: 1_000_000_000}},
		},
		Outputs: []chainapi.Output{
			{Addr: "accum", Value: 950_000_000},
			{Addr: "init", Value: 45_000_000},
		},
	}

	client := lister{
		addresses: map[string]chainapi.Address{
			"init": {
				Address: "init",
				Txs:     []chainapi.Tx{txInitToAccum},
			},
			"accum": {
				Address: "accum",
				Txs: []chainapi.Tx{
					txInitToAccum,
					{
						Hash: "tx_victims",
						Time: 1700000100,
						Inputs: []chainapi.Input{
							{PrevOut: chainapi.Output{Addr: "victim1", Value: 300_000_000}},
							{PrevOut: chainapi.Output{Addr: "victim2", Value: 100_000_000}},
						},
						Outputs: []chainapi.Output{
							{Addr: "accum", Value: 400_000_000},
						},
					},
					{
						Hash: "tx_cashout",
						Time: 1700000200,
						Inputs: []chainapi.Input{
							{PrevOut: chainapi.Output{Addr: "accum", Value: 1_000_000_000}},
						},
						Outputs: []chainapi.Output{
							{Addr: "dest1", Value: 600_000_000},
							{Addr: "dest2", Value: 400_000_000},
						},
					},
				},
			},
		},
	}

	approx := cmpopts.EquateApprox(0, 1e-9)

	t.Log("Given the need to analyze the fund flow around an accumulator.")
	{
		t.Logf("\tTest 0:\tWhen analyzing the initial address init.")
		{
			f, err := flow.New(client, nil).Run(context.Background(), "init")
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to run the analysis: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to run the analysis.", success)

			if f.Accumulator != "accum" {
				t.Fatalf("\t%s\tTest 0:\tShould identify accum as the accumulator, got %q.", failed, f.Accumulator)
			}
			t.Logf("\t%s\tTest 0:\tShould identify accum as the accumulator.", success)

			// The main output takes 95% of the 10 BTC spend, so the
			// whole spend is attributed to the accumulator.
			if !cmp.Equal(f.InitialToAccumulator, 10.0, approx) {
				t.Errorf("\t%s\tTest 0:\tShould attribute the full 10 BTC spend, got %f.", failed, f.InitialToAccumulator)
			} else {
				t.Logf("\t%s\tTest 0:\tShould attribute the full 10 BTC spend.", success)
			}

			// The 4 BTC victim payment splits evenly across the two
			// input sources. The initial address never shows up here.
			expSources := map[string]float64{"victim1": 2.0, "victim2": 2.0}
			if diff := cmp.Diff(expSources, f.OtherSources, approx); diff != "" {
				t.Errorf("\t%s\tTest 0:\tShould split incoming funds evenly across sources. Diff:\n%s", failed, diff)
			} else {
				t.Logf("\t%s\tTest 0:\tShould split incoming funds evenly across sources.", success)
			}

			// The cash-out outputs take 60% and 40%, so the 10 BTC
			// spend is distributed proportionally.
			expDests := map[string]float64{"dest1": 6.0, "dest2": 4.0}
			if diff := cmp.Diff(expDests, f.Destinations, approx); diff != "" {
				t.Errorf("\t%s\tTest 0:\tShould split the spend across outputs proportionally. Diff:\n%s", failed, diff)
			} else {
				t.Logf("\t%s\tTest 0:\tShould split the spend across outputs proportionally.", success)
			}

			if !cmp.Equal(f.TotalAccumulated(), 14.0, approx) {
				t.Errorf("\t%s\tTest 0:\tShould accumulate 14 BTC, got %f.", failed, f.TotalAccumulated())
			} else {
				t.Logf("\t%s\tTest 0:\tShould accumulate 14 BTC.", success)
			}

			if !cmp.Equal(f.Retained(), 4.0, approx) {
				t.Errorf("\t%s\tTest 0:\tShould retain 4 BTC, got %f.", failed, f.Retained())
			} else {
				t.Logf("\t%s\tTest 0:\tShould retain 4 BTC.", success)
			}

			rows := f.Rows()
			expRows := []flow.Row{
				{From: "init", To: "accum", AmountBTC: 10.0, FlowType: flow.TypeInitialToAccumulator},
				{From: "victim1", To: "accum", AmountBTC: 2.0, FlowType: flow.TypeSourceToAccumulator},
				{From: "victim2", To: "accum", AmountBTC: 2.0, FlowType: flow.TypeSourceToAccumulator},
				{From: "accum", To: "dest1", AmountBTC: 6.0, FlowType: flow.TypeAccumulatorToDestination},
				{From: "accum", To: "dest2", AmountBTC: 4.0, FlowType: flow.TypeAccumulatorToDestination},
			}
			if diff := cmp.Diff(expRows, rows, approx); diff != "" {
				t.Errorf("\t%s\tTest 0:\tShould flatten the flow into ordered rows. Diff:\n%s", failed, diff)
			} else {
				t.Logf("\t%s\tTest 0:\tShould flatten the flow into ordered rows.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen the initial address has no outgoing transactions.")
		{
			quiet := lister{
				addresses: map[string]chainapi.Address{
					"quiet": {Address: "quiet"},
				},
			}

			if _, err := flow.New(quiet, nil).Run(context.Background(), "quiet"); !errors.Is(err, flow.ErrNoOutgoing) {
				t.Fatalf("\t%s\tTest 1:\tShould get ErrNoOutgoing: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould get ErrNoOutgoing.", success)
		}
	}
}

func TestRankByAmount(t *testing.T) {
	amounts := map[string]float64{
		"b": 2.0,
		"c": 5.0,
		"a": 2.0,
	}

	exp := []flow.Entry{
		{Addr: "c", AmountBTC: 5.0},
		{Addr: "a", AmountBTC: 2.0},
		{Addr: "b", AmountBTC: 2.0},
	}

	if diff := cmp.Diff(exp, flow.RankByAmount(amounts)); diff != "" {
		t.Fatalf("Test rank:\tShould order by amount with address tie break. Diff:\n%s", diff)
	}
}
