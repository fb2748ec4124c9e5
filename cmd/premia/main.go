package main

import (
	"os"

	"github.com/fleetops/premia/backend/cmd/premia/commands"
)

// main is the entry point for the premia CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
