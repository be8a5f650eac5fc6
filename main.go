// Package main is the entry point for the synclitedb CLI application.
// It drives a SyncLite DB gateway over its JSON/HTTP protocol.
package main

import (
	"synclite/cli/cmd"
)

// main is the entry point for the synclitedb CLI application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
