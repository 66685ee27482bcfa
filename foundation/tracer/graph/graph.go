// Package graph renders a flow analysis as a Graphviz DOT document. The
// document keeps the top sources and destinations as individual nodes
// and folds the remainder into summary nodes so large flows stay
// readable. Rendering to an image is left to the dot tool.
package graph

import (
	"fmt"
	"strings"

	"github.com/ransomtrace/ransomtrace/foundation/tracer/flow"
)

// maxSources is the number of individual source nodes shown before the
// remainder is grouped.
const maxSources = 10

// maxDestinations is the number of individual destination nodes shown
// before the remainder is grouped.
const maxDestinations = 5

// Node fill colors per class, matching the meaning of the classes in
// the analysis: the initial ransomware address, the accumulator, the
// other sources and the final destinations.
const (
	colorInitial     = "#FF4444"
	colorAccumulator = "#FF8C00"
	colorSource      = "#FFD700"
	colorSourceGroup = "#FFA500"
	colorDestination = "#90EE90"
	colorDestGroup   = "#98FB98"
)

// RenderDOT produces the DOT document for the specified flow.
func RenderDOT(f flow.Flow) string {
	var b strings.Builder

	b.WriteString("digraph ransomware_flow {\n")
	b.WriteString("\trankdir=LR;\n")
	b.WriteString("\tnode [shape=box, style=filled, fontname=\"Helvetica\"];\n\n")

	fmt.Fprintf(&b, "\t%q [label=%q, fillcolor=%q];\n",
		f.Initial, fmt.Sprintf("INITIAL\n%s\nsends %.4f BTC", short(f.Initial), f.InitialToAccumulator), colorInitial)
	fmt.Fprintf(&b, "\t%q [label=%q, fillcolor=%q];\n",
		f.Accumulator, fmt.Sprintf("ACCUMULATOR\n%s\nreceives %.4f BTC\nsends %.4f BTC",
			short(f.Accumulator), f.TotalAccumulated(), f.TotalRedistributed()), colorAccumulator)

	fmt.Fprintf(&b, "\t%q -> %q [label=%q, color=%q, penwidth=3];\n",
		f.Initial, f.Accumulator, fmt.Sprintf("%.4f BTC", f.InitialToAccumulator), colorInitial)

	sources := flow.RankByAmount(f.OtherSources)
	for i, src := range sources {
		if i == maxSources {
			break
		}
		fmt.Fprintf(&b, "\t%q [label=%q, fillcolor=%q];\n",
			src.Addr, fmt.Sprintf("source %d\n%s\n%.4f BTC", i+1, short(src.Addr), src.AmountBTC), colorSource)
		fmt.Fprintf(&b, "\t%q -> %q [label=%q, style=dashed];\n",
			src.Addr, f.Accumulator, fmt.Sprintf("%.4f BTC", src.AmountBTC))
	}
	if len(sources) > maxSources {
		var rest float64
		for _, src := range sources[maxSources:] {
			rest += src.AmountBTC
		}
		fmt.Fprintf(&b, "\t\"other_sources\" [label=%q, fillcolor=%q];\n",
			fmt.Sprintf("OTHER SOURCES\n%d wallets\n%.4f BTC", len(sources)-maxSources, rest), colorSourceGroup)
		fmt.Fprintf(&b, "\t\"other_sources\" -> %q [label=%q, style=dotted];\n",
			f.Accumulator, fmt.Sprintf("%.4f BTC", rest))
	}

	dests := flow.RankByAmount(f.Destinations)
	for i, dest := range dests {
		if i == maxDestinations {
			break
		}
		fmt.Fprintf(&b, "\t%q [label=%q, fillcolor=%q];\n",
			dest.Addr, fmt.Sprintf("destination %d\n%s\n%.4f BTC", i+1, short(dest.Addr), dest.AmountBTC), colorDestination)
		fmt.Fprintf(&b, "\t%q -> %q [label=%q, color=\"#32CD32\", penwidth=2];\n",
			f.Accumulator, dest.Addr, fmt.Sprintf("%.4f BTC", dest.AmountBTC))
	}
	if len(dests) > maxDestinations {
		var rest float64
		for _, dest := range dests[maxDestinations:] {
			rest += dest.AmountBTC
		}
		fmt.Fprintf(&b, "\t\"other_destinations\" [label=%q, fillcolor=%q];\n",
			fmt.Sprintf("OTHER DESTINATIONS\n%d wallets\n%.4f BTC", len(dests)-maxDestinations, rest), colorDestGroup)
		fmt.Fprintf(&b, "\t%q -> \"other_destinations\" [label=%q, color=\"#32CD32\"];\n",
			f.Accumulator, fmt.Sprintf("%.4f BTC", rest))
	}

	b.WriteString("}\n")

	return b.String()
}

// short truncates an address for node labels.
func short(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-6:]
}
