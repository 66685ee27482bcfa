// Package cmd contains the tracer command line tooling.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ransomtrace/ransomtrace/foundation/tracer/chainapi"
	"github.com/spf13/cobra"
)

var (
	apiHost    string
	paceDelay  time.Duration
	retryDelay time.Duration
	maxRetries int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiHost, "api-host", chainapi.DefaultHost, "Base URL of the blockchain.info API.")
	rootCmd.PersistentFlags().DurationVar(&paceDelay, "pace", chainapi.DefaultPaceDelay, "Delay between API calls.")
	rootCmd.PersistentFlags().DurationVar(&retryDelay, "retry-delay", chainapi.DefaultRetryDelay, "Delay before retrying a rate limited call.")
	rootCmd.PersistentFlags().IntVar(&maxRetries, "retries", chainapi.DefaultMaxRetries, "Maximum retries for a rate limited call.")
}

var rootCmd = &cobra.Command{
	Use:   "tracectl",
	Short: "Tooling for tracing ransomware payments on the Bitcoin blockchain",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newClient constructs the API client from the persistent flags.
func newClient() *chainapi.Client {
	return chainapi.New(chainapi.Config{
		Host:       apiHost,
		PaceDelay:  paceDelay,
		RetryDelay: retryDelay,
		MaxRetries: maxRetries,
		EvHandler:  printEvent,
	})
}

// printEvent writes progress events to the terminal.
func printEvent(v string, args ...any) {
	fmt.Printf(v+"\n", args...)
}

// signalContext returns a context cancelled by an interrupt so long
// running commands can be aborted cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
