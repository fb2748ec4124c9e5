package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fleetops/premia/backend/internal/contracts"
)

var computePeriodID int64

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Recompute scores and ranking for one period",
	Long: `Recompute scores and ranking for one period.

Loads a consistent snapshot of the period's targets, measurements and
approved expurgos, rescores every (sector, criterion) cell and replaces
the stored ranking. Safe to run repeatedly.`,
	RunE: runCompute,
}

func init() {
	computeCmd.Flags().Int64Var(&computePeriodID, "period", 0, "period id to recompute (required)")
	computeCmd.MarkFlagRequired("period")
	rootCmd.AddCommand(computeCmd)
}

func runCompute(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	actor := contracts.NewActor("cli", "cli", contracts.CapComputeRun)

	result, err := a.engine.Recompute(ctx, actor, computePeriodID)
	if err != nil {
		return fmt.Errorf("recompute period %d: %w", computePeriodID, err)
	}

	fmt.Printf("Period %d recomputed in %s\n", result.PeriodID, result.Duration.Round(time.Millisecond))
	fmt.Printf("  scored cells:   %d\n", result.ScoredCells)
	fmt.Printf("  ranked sectors: %d\n", result.RankedSectors)
	fmt.Printf("  scale hash:     %s\n", result.ScaleHash)
	if len(result.Warnings) > 0 {
		fmt.Printf("  warnings:       %d\n", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Printf("    sector=%d criterion=%d: %s\n", w.SectorID, w.CriterionID, w.Reason)
		}
	}

	return nil
}
