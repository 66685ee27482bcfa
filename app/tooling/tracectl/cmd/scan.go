package cmd

import (
	"fmt"
	"os"

	"github.com/ransomtrace/ransomtrace/foundation/tracer/scan"
	"github.com/spf13/cobra"
)

var (
	scanInput  string
	scanOutput string
)

func init() {
	scanCmd.Flags().StringVarP(&scanInput, "input", "i", "", "CSV file with candidate addresses.")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "active_wallets.csv", "CSV file for the active wallets.")
	scanCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a CSV of candidate addresses for active wallets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		in, err := os.Open(scanInput)
		if err != nil {
			return err
		}
		defer in.Close()

		out, err := os.Create(scanOutput)
		if err != nil {
			return err
		}
		defer out.Close()

		fmt.Println("ACTIVE WALLET SCAN")
		fmt.Printf("input file:  %s\n", scanInput)
		fmt.Printf("output file: %s\n", scanOutput)

		scanner := scan.New(newClient(), printEvent)
		stats, err := scanner.Run(ctx, in, out)
		if err != nil {
			return err
		}

		fmt.Println("\nSCAN SUMMARY")
		fmt.Printf("wallets processed: %d\n", stats.Processed)
		fmt.Printf("active wallets:    %d\n", stats.Active)
		fmt.Printf("results exported to %s\n", scanOutput)

		return nil
	},
}
