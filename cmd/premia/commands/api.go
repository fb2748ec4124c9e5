package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fleetops/premia/backend/internal/api"
	"github.com/fleetops/premia/backend/internal/api/handlers"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server.

Serves the period lifecycle, target definition, expurgo workflow,
recomputation trigger and the computed scores/rankings, plus a
websocket event stream on /api/events.`,
	RunE: runAPIServer,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	h := api.Handlers{
		Periods:    handlers.NewPeriodHandler(a.periods, a.engine, a.log),
		Parameters: handlers.NewParameterHandler(a.paramSvc, a.log),
		Expurgos:   handlers.NewExpurgoHandler(a.workflow, a.log),
		Results:    handlers.NewResultsHandler(a.scoreRepo, a.ingestRepo, a.cache, a.cfg, a.log),
		Catalog:    handlers.NewCatalogHandler(a.sectorRepo, a.critRepo, a.log),
	}

	router := api.NewRouter(h, a.hub, a.log)
	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		a.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
