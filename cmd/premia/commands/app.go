package commands

import (
	"fmt"

	"github.com/fleetops/premia/backend/internal/audit"
	"github.com/fleetops/premia/backend/internal/catalog"
	"github.com/fleetops/premia/backend/internal/expurgo"
	"github.com/fleetops/premia/backend/internal/ingest"
	"github.com/fleetops/premia/backend/internal/notify"
	"github.com/fleetops/premia/backend/internal/params"
	"github.com/fleetops/premia/backend/internal/period"
	"github.com/fleetops/premia/backend/internal/scoring"
	"github.com/fleetops/premia/backend/internal/scoring/scaleconfig"
	"github.com/fleetops/premia/backend/pkg/config"
	"github.com/fleetops/premia/backend/pkg/database"
	"github.com/fleetops/premia/backend/pkg/logger"
	"github.com/fleetops/premia/backend/pkg/redis"
)

// app bundles the wired-up service graph shared by the commands
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB
	rdb     *redis.Client
	cache   *redis.Cache
	hub     *notify.Hub
	webhook *notify.Webhook
	auditor *audit.Emitter

	periodRepo  *period.Repository
	sectorRepo  *catalog.SectorRepository
	critRepo    *catalog.CriterionRepository
	paramRepo   *params.Repository
	expurgoRepo *expurgo.Repository
	ingestRepo  *ingest.Repository
	scoreRepo   *scoring.Repository

	periods  *period.Service
	paramSvc *params.Service
	workflow *expurgo.Workflow
	engine   *scoring.Engine
}

// initApp loads config and wires the full service graph
func initApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	scale, err := scaleconfig.LoadOrDefault(cfg.ScaleConfigPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load scale config: %w", err)
	}
	scaleHash, err := scaleconfig.Hash(scale)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("hash scale config: %w", err)
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		db:      db,
		rdb:     rdb,
		cache:   redis.NewCache(rdb, "premia"),
		hub:     notify.NewHub(log),
		webhook: notify.NewWebhook(cfg.WebhookURL, log),
	}

	a.periodRepo = period.NewRepository(db.Pool)
	a.sectorRepo = catalog.NewSectorRepository(db.Pool)
	a.critRepo = catalog.NewCriterionRepository(db.Pool)
	a.paramRepo = params.NewRepository(db.Pool)
	a.expurgoRepo = expurgo.NewRepository(db.Pool)
	a.ingestRepo = ingest.NewRepository(db.Pool)
	a.scoreRepo = scoring.NewRepository(db.Pool)

	a.auditor = audit.NewEmitter(audit.NewRepository(db.Pool), log)

	calculator := scoring.NewCalculator(scale, scaleHash)
	a.engine = scoring.NewEngine(a.periodRepo, a.scoreRepo, a.scoreRepo, calculator, a.hub, a.cache, log)

	a.periods = period.NewService(a.periodRepo, a.sectorRepo, a.scoreRepo, a.auditor, a.hub, a.webhook, log)
	a.paramSvc = params.NewService(a.periodRepo, a.critRepo, a.sectorRepo, a.paramRepo, a.auditor, log)
	a.workflow = expurgo.NewWorkflow(a.periodRepo, a.critRepo, a.sectorRepo, a.expurgoRepo, a.auditor, a.hub, log)

	return a, nil
}

// close releases the app's resources in reverse order
func (a *app) close() {
	a.auditor.Close()
	a.hub.Close()
	_ = a.rdb.Close()
	a.db.Close()
}
