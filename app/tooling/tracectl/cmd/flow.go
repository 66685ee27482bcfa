package cmd

import (
	"fmt"
	"os"

	"github.com/ransomtrace/ransomtrace/foundation/tracer/address"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/export"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/flow"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/graph"
	"github.com/spf13/cobra"
)

var (
	flowWallet string
	flowOutput string
	flowGraph  string
)

func init() {
	flowCmd.Flags().StringVarP(&flowWallet, "wallet", "w", "", "Bitcoin address associated with a ransom payment.")
	flowCmd.Flags().StringVarP(&flowOutput, "output", "o", "ransomware_analysis.csv", "CSV file for the flow rows.")
	flowCmd.Flags().StringVarP(&flowGraph, "graph", "g", "ransomware_graph.dot", "DOT file for the flow graph.")
	flowCmd.MarkFlagRequired("wallet")
	rootCmd.AddCommand(flowCmd)
}

var flowCmd = &cobra.Command{
	Use:   "flow",
	Short: "Identify the accumulator wallet and the flows around it",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := address.Validate(flowWallet); err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		fmt.Println("RANSOMWARE FUND FLOW ANALYSIS")
		fmt.Printf("initial address: %s\n", flowWallet)

		analyzer := flow.New(newClient(), printEvent)
		f, err := analyzer.Run(ctx, flowWallet)
		if err != nil {
			return err
		}

		fmt.Println("\nACCUMULATOR IDENTIFIED")
		fmt.Printf("address: %s\n", f.Accumulator)
		fmt.Printf("received from initial: %.8f BTC\n", f.InitialToAccumulator)

		printTop("TOP SOURCES", f.OtherSources, f.TotalAccumulated())
		printTop("TOP DESTINATIONS", f.Destinations, f.TotalRedistributed())

		fmt.Println("\nFLOW SUMMARY")
		fmt.Printf("sources into accumulator:  %d\n", len(f.OtherSources)+1)
		fmt.Printf("destinations:              %d\n", len(f.Destinations))
		fmt.Printf("total accumulated:         %.8f BTC\n", f.TotalAccumulated())
		fmt.Printf("total redistributed:       %.8f BTC\n", f.TotalRedistributed())
		fmt.Printf("fees/retained:             %.8f BTC\n", f.Retained())

		out, err := os.Create(flowOutput)
		if err != nil {
			return err
		}
		defer out.Close()

		if err := export.Flow(out, f); err != nil {
			return err
		}
		fmt.Printf("\nflow rows exported to %s\n", flowOutput)

		if err := os.WriteFile(flowGraph, []byte(graph.RenderDOT(f)), 0644); err != nil {
			return err
		}
		fmt.Printf("flow graph written to %s\n", flowGraph)

		return nil
	},
}

// printTop lists the ten largest entries of an aggregation with their
// share of the total.
func printTop(title string, amounts map[string]float64, total float64) {
	entries := flow.RankByAmount(amounts)
	if len(entries) == 0 {
		return
	}

	fmt.Printf("\n%s\n", title)
	for i, entry := range entries {
		if i == 10 {
			break
		}

		share := 0.0
		if total > 0 {
			share = entry.AmountBTC / total * 100
		}
		fmt.Printf("%2d. %s: %.8f BTC (%.2f%%)\n", i+1, entry.Addr, entry.AmountBTC, share)
	}
}
