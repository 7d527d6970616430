// Command catalogai answers questions about the Rutgers undergraduate course
// catalog. It serves a chat API and web UI, answers one-off questions from the
// terminal, and builds the catalog vector index offline.
package main

import (
	"fmt"
	"os"

	"github.com/54b3r/catalogai-go/cmd/catalogai/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
