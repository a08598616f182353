package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"webserver/internal/model"
)

type healthResponse struct {
	Status                    string     `json:"status"`
	Service                   string     `json:"service"`
	Timestamp                 time.Time  `json:"timestamp"`
	DetectionMode             model.Mode `json:"detection_mode"`
	ExternalDetectorAvailable bool       `json:"external_detector_available"`
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:                    "ok",
		Service:                   "zone-occupancy-monitor",
		Timestamp:                 time.Now(),
		DetectionMode:             s.Detectors.Current().Mode(),
		ExternalDetectorAvailable: s.externalAvailable(),
	})
}

func (s *Server) externalAvailable() bool {
	for _, m := range s.Detectors.AvailableModes() {
		if m != model.ModeBlob {
			return true
		}
	}
	return false
}

type modeInfo struct {
	Mode        model.Mode `json:"mode"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Active      bool       `json:"active"`
	Available   bool       `json:"available"`
}

type modesResponse struct {
	CurrentMode               model.Mode `json:"current_mode"`
	ExternalDetectorAvailable bool       `json:"external_detector_available"`
	Modes                     []modeInfo `json:"modes"`
}

var knownModes = []struct {
	mode model.Mode
	name string
	desc string
}{
	{model.ModeBlob, "Background subtraction", "Built-in diff/threshold/connected-components pipeline"},
	{model.ModeExternalYOLO, "External YOLO", "Delegates to an external YOLO-family detector service"},
	{model.ModeExternalSSD, "External SSD", "Delegates to an external SSD-family detector service"},
}

// DetectionModes handles GET /detection/modes.
func (s *Server) DetectionModes(w http.ResponseWriter, r *http.Request) {
	current := s.Detectors.Current().Mode()
	available := map[model.Mode]bool{}
	for _, m := range s.Detectors.AvailableModes() {
		available[m] = true
	}

	modes := make([]modeInfo, 0, len(knownModes))
	for _, km := range knownModes {
		modes = append(modes, modeInfo{
			Mode:        km.mode,
			Name:        km.name,
			Description: km.desc,
			Active:      km.mode == current,
			Available:   available[km.mode],
		})
	}

	writeJSON(w, http.StatusOK, modesResponse{
		CurrentMode:               current,
		ExternalDetectorAvailable: s.externalAvailable(),
		Modes:                     modes,
	})
}

type modeRequest struct {
	Mode model.Mode `json:"mode"`
}

// DetectionMode handles GET/POST /detection/mode.
func (s *Server) DetectionMode(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, modeRequest{Mode: s.Detectors.Current().Mode()})
		return
	}

	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Selector.SetMode fires the ModeChanged fan-out itself via the
	// callback registered in app wiring.
	if err := s.Detectors.SetMode(r.Context(), req.Mode); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, modeRequest{Mode: req.Mode})
}
