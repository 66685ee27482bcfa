package cmd

import (
	"fmt"
	"os"

	"github.com/ransomtrace/ransomtrace/foundation/tracer/scan"
	"github.com/spf13/cobra"
)

var auditInput string

func init() {
	auditCmd.Flags().StringVarP(&auditInput, "input", "i", "", "CSV file to audit.")
	auditCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(auditCmd)
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Report CSV columns that hold no value in any row",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := os.Open(auditInput)
		if err != nil {
			return err
		}
		defer in.Close()

		empty, err := scan.Audit(in)
		if err != nil {
			return err
		}

		if len(empty) == 0 {
			fmt.Println("no empty columns found")
			return nil
		}

		fmt.Printf("%d empty columns found\n", len(empty))
		for _, name := range empty {
			fmt.Printf("  %s\n", name)
		}

		return nil
	},
}
