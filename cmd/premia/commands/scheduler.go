package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fleetops/premia/backend/internal/scheduler"
	"github.com/fleetops/premia/backend/internal/scheduler/jobs"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Start the background job scheduler",
	Long: `Start the background job scheduler.

Runs the periodic recomputation job so approved expurgos and target
changes reach the ranking without a manual trigger.`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	sched := scheduler.New(a.log)

	recompute := jobs.NewRecomputeJob(a.periodRepo, a.engine, a.cfg.RecomputeSchedule, a.log)
	if err := sched.AddJob(recompute); err != nil {
		return err
	}

	sched.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	a.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	sched.Stop()

	return nil
}
