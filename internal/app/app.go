// Package app wires the full dependency graph (§4): row store, zone
// store, detector backends, occupancy tracker, event logger, fan-out
// hub, scheduler, and HTTP surface, grounded on the teacher's App
// struct and NewApp/Run wiring shape.
package app

import (
	"fmt"
	"net/http"

	"webserver/internal/config"
	"webserver/internal/detector"
	"webserver/internal/events"
	"webserver/internal/fanout"
	"webserver/internal/handler"
	"webserver/internal/logger"
	"webserver/internal/model"
	"webserver/internal/occupancy"
	"webserver/internal/route"
	"webserver/internal/scheduler"
	"webserver/internal/snapshot"
	"webserver/internal/sqlitestore"
	"webserver/internal/zonestore"
)

// App holds every long-lived collaborator of the running process.
type App struct {
	config *config.Config
	logger *logger.Logger
	db     *sqlitestore.DB

	zones     *zonestore.Store
	detectors *detector.Selector
	occupancy *occupancy.Tracker
	events    *events.Logger
	hub       *fanout.Hub
	scheduler *scheduler.Scheduler
	snapshot  *snapshot.Client
	server    *handler.Server
}

// NewApp loads configuration and constructs the full dependency graph.
func NewApp() *App {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	db, err := sqlitestore.Open(cfg.DBPath)
	if err != nil {
		log.Error("open row store: %v", err)
		panic(err)
	}

	zoneRepo := sqlitestore.NewZoneRepository(db)
	eventRepo := sqlitestore.NewEventRepository(db)

	hub := fanout.NewHub()
	eventLogger := events.NewLogger(eventRepo, hub)
	zones := zonestore.New(zoneRepo, eventLogger)

	blob := detector.NewBlobDetector(cfg.DiffThreshold, cfg.MorphologyPasses)
	var yolo, ssd *detector.ExternalDetector
	if cfg.ExternalDetectorURL != "" {
		yolo = detector.NewExternalDetector(cfg.ExternalDetectorURL, model.ModeExternalYOLO, cfg.ExternalDetectorHTTPTimeout, cfg.DiffThreshold, cfg.MorphologyPasses)
		ssd = detector.NewExternalDetector(cfg.ExternalDetectorURL, model.ModeExternalSSD, cfg.ExternalDetectorHTTPTimeout, cfg.DiffThreshold, cfg.MorphologyPasses)
	}
	selector := detector.NewSelector(blob, yolo, ssd)
	selector.OnModeChange(hub.PublishModeChanged)

	occ := occupancy.New()
	occ.AddListener(eventLogger)
	occ.SetPublisher(hub)

	snap := snapshot.New(cfg.SnapshotBaseURL, cfg.ExternalDetectorHTTPTimeout)
	sched := scheduler.New(snap, zones, selector, occ, log)

	srv := handler.New(cfg, log, zones, selector, occ, eventLogger, sched, snap, hub)

	return &App{
		config:    cfg,
		logger:    log,
		db:        db,
		zones:     zones,
		detectors: selector,
		occupancy: occ,
		events:    eventLogger,
		hub:       hub,
		scheduler: sched,
		snapshot:  snap,
		server:    srv,
	}
}

// Run starts the HTTP server and blocks until it exits.
func (a *App) Run() error {
	defer a.db.Close()

	mux := route.SetupRoutes(a.server, a.logger)

	a.logger.Info("zone-occupancy monitor listening on :%d", a.config.Port)
	fmt.Printf("zone-occupancy monitor listening on :%d\n", a.config.Port)

	return http.ListenAndServe(fmt.Sprintf(":%d", a.config.Port), mux)
}
