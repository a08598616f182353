// Package handler implements the admin/query HTTP surface (§6) over the
// zone-occupancy core. Grounded on the teacher's handler functions
// (internal/handler/*.go: constructor closes over dependencies, returns
// an http.HandlerFunc), generalized to a Server struct of methods since
// this surface shares many more collaborators than the teacher's.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"webserver/internal/config"
	"webserver/internal/core"
	"webserver/internal/detector"
	"webserver/internal/events"
	"webserver/internal/fanout"
	"webserver/internal/logger"
	"webserver/internal/occupancy"
	"webserver/internal/scheduler"
	"webserver/internal/snapshot"
	"webserver/internal/zonestore"
)

// Server bundles every collaborator an admin/query endpoint needs.
type Server struct {
	Config     *config.Config
	Logger     *logger.Logger
	Zones      *zonestore.Store
	Detectors  *detector.Selector
	Occupancy  *occupancy.Tracker
	Events     *events.Logger
	Scheduler  *scheduler.Scheduler
	Snapshot   *snapshot.Client
	Hub        *fanout.Hub
}

// New creates a Server over its collaborators.
func New(cfg *config.Config, log *logger.Logger, zones *zonestore.Store, detectors *detector.Selector,
	occ *occupancy.Tracker, evts *events.Logger, sched *scheduler.Scheduler, snap *snapshot.Client, hub *fanout.Hub) *Server {
	return &Server{
		Config:    cfg,
		Logger:    log,
		Zones:     zones,
		Detectors: detectors,
		Occupancy: occ,
		Events:    evts,
		Scheduler: sched,
		Snapshot:  snap,
		Hub:       hub,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the core error taxonomy (§7) onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, core.ErrInvalidZone), errors.Is(err, core.ErrInvalidImage),
		errors.Is(err, core.ErrUnknownMode), errors.Is(err, core.ErrDimensionMismatch):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, core.ErrBackendUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
