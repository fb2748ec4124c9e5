package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database health and the period list",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	fmt.Println("database: ok")

	if a.rdb.Enabled() {
		fmt.Println("redis:    ok")
	} else {
		fmt.Println("redis:    disabled")
	}

	periods, err := a.periodRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list periods: %w", err)
	}

	if len(periods) == 0 {
		fmt.Println("no periods defined")
		return nil
	}

	fmt.Printf("\n%-6s %-10s %-12s %s\n", "ID", "MONTH", "STATUS", "CLOSED AT")
	for _, p := range periods {
		closedAt := "-"
		if p.ClosedAt != nil {
			closedAt = p.ClosedAt.Format("2006-01-02 15:04")
		}
		fmt.Printf("%-6d %-10s %-12s %s\n", p.ID, p.Month, p.Status, closedAt)
	}

	return nil
}
