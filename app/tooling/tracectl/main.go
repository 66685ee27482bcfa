// This program provides the tracer tooling from the command line: one
// shot traces, flow analyses and target dataset scans.
package main

import "github.com/ransomtrace/ransomtrace/app/tooling/tracectl/cmd"

func main() {
	cmd.Execute()
}
