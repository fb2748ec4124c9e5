package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "premia",
	Short: "Premia - sector competition scoring and ranking engine",
	Long: `Premia CLI

Monthly competition between operational sectors: versioned targets,
expurgo approvals, per-criterion scoring and the final ranking.

Usage:
  go run ./cmd/premia [command]

Examples:
  go run ./cmd/premia api
  go run ./cmd/premia compute --period 12
  go run ./cmd/premia scheduler
  go run ./cmd/premia status`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
