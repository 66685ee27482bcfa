package cmd

import (
	"fmt"
	"os"

	"github.com/ransomtrace/ransomtrace/foundation/tracer/address"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/export"
	"github.com/ransomtrace/ransomtrace/foundation/tracer/trace"
	"github.com/spf13/cobra"
)

var (
	traceWallet string
	traceDepth  int
	traceOutput string
)

func init() {
	traceCmd.Flags().StringVarP(&traceWallet, "wallet", "w", "", "Bitcoin address to analyze.")
	traceCmd.Flags().IntVarP(&traceDepth, "depth", "d", 2, "Maximum recursion depth of the trace.")
	traceCmd.Flags().StringVarP(&traceOutput, "output", "o", "bitcoin_trace_results.csv", "CSV file for the results.")
	traceCmd.MarkFlagRequired("wallet")
	rootCmd.AddCommand(traceCmd)
}

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Recursively trace outgoing fund flows from an address",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := address.Validate(traceWallet); err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		fmt.Println("BITCOIN FUND FLOW TRACER")
		fmt.Printf("target address: %s\n", traceWallet)
		fmt.Printf("maximum depth:  %d\n", traceDepth)
		fmt.Printf("output file:    %s\n", traceOutput)

		tracer := trace.New(newClient(), traceDepth, printEvent)
		edges, err := tracer.Run(ctx, traceWallet)
		if err != nil {
			return err
		}

		if len(edges) == 0 {
			fmt.Println("no transactions found for the specified analysis")
			return nil
		}

		f, err := os.Create(traceOutput)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := export.Edges(f, edges); err != nil {
			return err
		}

		summary := trace.Summarize(edges)
		fmt.Println("\nTRACE SUMMARY")
		fmt.Printf("unique addresses: %d\n", summary.UniqueAddresses)
		fmt.Printf("total traced:     %.8f BTC\n", summary.TotalBTC)
		fmt.Printf("total fees:       %.8f BTC\n", summary.TotalFeesBTC)
		fmt.Printf("edges:            %d\n", summary.Edges)
		fmt.Printf("results exported to %s\n", traceOutput)

		return nil
	},
}
