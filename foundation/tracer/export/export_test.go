package export_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/export"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/flow"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/trace"
)

func TestEdges(t *testing.T) {
	edges := []trace.Edge{
		{
			TxHash:        "tx1",
			Timestamp:     time.Date(2026, time.March, 10, 12, 30, 0, 0, time.UTC),
			From:          "addr1",
			To:            "addr2",
			ValueSatoshis: 150_000_000,
			ValueBTC:      1.5,
			FeeBTC:        0.0001,
		},
	}

	var out strings.Builder
	if err := export.Edges(&out, edges); err != nil {
		t.Fatalf("Test edges:\tShould be able to export the edges: %v", err)
	}

	exp := "tx_hash,timestamp,from_address,to_address,value_btc,value_satoshis,tx_fee\n" +
		"tx1,2026-03-10 12:30:00,addr1,addr2,1.50000000,150000000,0.00010000\n"
	if diff := cmp.Diff(exp, out.String()); diff != "" {
		t.Fatalf("Test edges:\tShould write the expected document. Diff:\n%s", diff)
	}
}

func TestFlow(t *testing.T) {
	f := flow.Flow{
		Initial:              "init",
		Accumulator:          "accum",
		InitialToAccumulator: 10,
		OtherSources:         map[string]float64{"victim1": 2},
		Destinations:         map[string]float64{"dest1": 6},
	}

	var out strings.Builder
	if err := export.Flow(&out, f); err != nil {
		t.Fatalf("Test flow:\tShould be able to export the flow: %v", err)
	}

	exp := "from_address,to_address,amount_btc,flow_type\n" +
		"init,accum,10.00000000,INITIAL_TO_ACCUMULATOR\n" +
		"victim1,accum,2.00000000,SOURCE_TO_ACCUMULATOR\n" +
		"accum,dest1,6.00000000,ACCUMULATOR_TO_DESTINATION\n"
	if diff := cmp.Diff(exp, out.String()); diff != "" {
		t.Fatalf("Test flow:\tShould write the expected document. Diff:\n%s", diff)
	}
}
