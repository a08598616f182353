package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"webserver/internal/model"
	"webserver/internal/render"
)

// GetOccupancy handles GET /occupancy.
func (s *Server) GetOccupancy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Occupancy.All())
}

// Frame handles GET /frame/:camera_id: fetches the latest snapshot and
// overlays the camera's zones and their current blobs.
func (s *Server) Frame(w http.ResponseWriter, r *http.Request) {
	cameraID := strings.TrimPrefix(r.URL.Path, "/frame/")
	if cameraID == "" {
		http.Error(w, "camera id required", http.StatusBadRequest)
		return
	}

	frame, err := s.Snapshot.FetchFrame(cameraID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	zones, err := s.Zones.ListForCamera(cameraID)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]render.ZoneView, 0, len(zones))
	for _, z := range zones {
		entry, ok := s.Occupancy.Get(z.ID)
		view := render.ZoneView{Zone: z}
		if ok {
			view.Occupied = entry.Alarm
			view.Blobs = entry.Blobs
		}
		views = append(views, view)
	}

	annotated, err := render.Annotate(frame, views)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(annotated)
}

// ListEvents handles GET /events with filters.
func (s *Server) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.EventFilter{
		ZoneID:    q.Get("zone_id"),
		CameraID:  q.Get("camera_id"),
		EventType: model.EventKind(q.Get("event_type")),
		Limit:     atoiDefault(q.Get("limit"), 50),
		Offset:    atoiDefault(q.Get("offset"), 0),
	}
	if v := q.Get("since"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.Since = t
		}
	}
	if v := q.Get("until"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.Until = t
		}
	}

	events, err := s.Events.Query(filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events, "total": len(events)})
}

// EventStats handles GET /events/stats?since=.
func (s *Server) EventStats(w http.ResponseWriter, r *http.Request) {
	var filter model.EventFilter
	if v := r.URL.Query().Get("since"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.Since = t
		}
	}

	stats, err := s.Events.Stats(filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Cameras handles GET /cameras via snapshot-source discovery.
func (s *Server) Cameras(w http.ResponseWriter, r *http.Request) {
	streams, err := s.Snapshot.ListStreams()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	ids := make([]string, len(streams))
	for i, st := range streams {
		ids[i] = st.ID
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"cameras": ids})
}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
