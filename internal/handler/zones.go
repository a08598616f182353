package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"webserver/internal/model"
)

// CreateZone handles POST /zones.
func (s *Server) CreateZone(w http.ResponseWriter, r *http.Request) {
	var input model.ZoneInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	zone, err := s.Zones.Create(input)
	if err != nil {
		writeError(w, err)
		return
	}
	s.Hub.PublishZoneCreated(*zone)
	writeJSON(w, http.StatusCreated, zone)
}

// ListZones handles GET /zones.
func (s *Server) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := s.Zones.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, zones)
}

// ZoneByID routes GET/PATCH/DELETE /zones/:id and its sub-resources
// (/zones/:id/count, /zones/:id/history) based on method and path tail.
func (s *Server) ZoneByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/zones/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		http.Error(w, "zone id required", http.StatusBadRequest)
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "count":
			s.zoneCount(w, r, id)
		case "history":
			s.zoneHistory(w, r, id)
		default:
			http.NotFound(w, r)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		zone, err := s.Zones.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, zone)
	case http.MethodPatch:
		var patch model.ZonePatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		zone, err := s.Zones.Update(id, patch)
		if err != nil {
			writeError(w, err)
			return
		}
		s.Hub.PublishZoneUpdated(*zone)
		writeJSON(w, http.StatusOK, zone)
	case http.MethodDelete:
		removed, err := s.Zones.Delete(id)
		if err != nil {
			writeError(w, err)
			return
		}
		if !removed {
			http.Error(w, "zone not found", http.StatusNotFound)
			return
		}
		s.Occupancy.Remove(id)
		s.Hub.PublishZoneDeleted(id)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) zoneCount(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := s.Zones.Get(id); err != nil {
		writeError(w, err)
		return
	}
	entry, ok := s.Occupancy.Get(id)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"zone_id": id, "count": 0, "alarm": false})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) zoneHistory(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := s.Zones.Get(id); err != nil {
		writeError(w, err)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	events, err := s.Events.Query(model.EventFilter{ZoneID: id, Limit: limit})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}
