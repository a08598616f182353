package handler

import (
	"encoding/json"
	"net/http"

	"webserver/internal/imaging"
)

type roundRobinRequest struct {
	Cameras    []string `json:"cameras"`
	IntervalMS int      `json:"interval_ms"`
}

// RoundRobinStart handles POST /round-robin/start.
func (s *Server) RoundRobinStart(w http.ResponseWriter, r *http.Request) {
	var req roundRobinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Cameras) == 0 {
		http.Error(w, "cameras required", http.StatusBadRequest)
		return
	}
	if req.IntervalMS <= 0 {
		req.IntervalMS = s.Config.RoundRobinIntervalMS
	}

	s.Scheduler.Start(req.Cameras, req.IntervalMS)
	writeJSON(w, http.StatusOK, s.Scheduler.Status())
}

// RoundRobinStop handles POST /round-robin/stop.
func (s *Server) RoundRobinStop(w http.ResponseWriter, r *http.Request) {
	s.Scheduler.Stop()
	writeJSON(w, http.StatusOK, s.Scheduler.Status())
}

// RoundRobinStatus handles GET /round-robin/status.
func (s *Server) RoundRobinStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Scheduler.Status())
}

// CaptureAllBackgrounds handles POST /backgrounds/capture-all: fetches
// the current frame for every known camera and stores it as that
// camera's background plate.
func (s *Server) CaptureAllBackgrounds(w http.ResponseWriter, r *http.Request) {
	streams, err := s.Snapshot.ListStreams()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	type result struct {
		CameraID string `json:"camera_id"`
		Success  bool   `json:"success"`
		Error    string `json:"error,omitempty"`
	}
	results := make([]result, 0, len(streams))

	for _, st := range streams {
		frame, err := s.Snapshot.FetchFrame(st.ID)
		if err != nil {
			results = append(results, result{CameraID: st.ID, Error: err.Error()})
			continue
		}
		plane, err := imaging.ToGray(frame)
		if err != nil {
			results = append(results, result{CameraID: st.ID, Error: err.Error()})
			continue
		}
		if err := s.Zones.SaveBackground(st.ID, plane.Pix, plane.Width, plane.Height); err != nil {
			results = append(results, result{CameraID: st.ID, Error: err.Error()})
			continue
		}
		results = append(results, result{CameraID: st.ID, Success: true})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}
