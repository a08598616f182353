package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"webserver/internal/core"
	"webserver/internal/imaging"
	"webserver/internal/model"
)

type analyzeRequest struct {
	Image    string   `json:"image"`
	ZoneIDs  []string `json:"zone_ids"`
	CameraID string   `json:"camera_id"`
}

type analyzeStreamRequest struct {
	StreamURL string   `json:"stream_url"`
	CameraID  string   `json:"camera_id"`
	ZoneIDs   []string `json:"zone_ids"`
}

type zoneResult struct {
	ZoneID   string       `json:"zone_id"`
	ZoneName string       `json:"zone_name"`
	Count    int          `json:"count"`
	Blobs    []model.Blob `json:"blobs"`
	Alarm    bool         `json:"alarm"`
}

// Analyze handles POST /analyze: accepts either a JSON body with a
// base64 image, or a raw image body with zone_ids/camera_id as query
// parameters.
func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	frame, zoneIDs, cameraID, err := decodeAnalyzeRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	zones, err := s.resolveZones(zoneIDs, cameraID)
	if err != nil {
		writeError(w, err)
		return
	}

	results, err := s.analyzeZones(frame, cameraID, zones)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// AnalyzeStream handles POST /analyze-stream: fetches a frame from
// stream_url via the snapshot client convention, then analyzes it the
// same way as /analyze.
func (s *Server) AnalyzeStream(w http.ResponseWriter, r *http.Request) {
	var req analyzeStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.StreamURL == "" {
		http.Error(w, "stream_url required", http.StatusBadRequest)
		return
	}

	frame, err := s.Snapshot.FetchFrame(req.StreamURL)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	zones, err := s.resolveZones(req.ZoneIDs, req.CameraID)
	if err != nil {
		writeError(w, err)
		return
	}

	results, err := s.analyzeZones(frame, req.CameraID, zones)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func decodeAnalyzeRequest(r *http.Request) (frame []byte, zoneIDs []string, cameraID string, err error) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, nil, "", err
		}
		frame, err = base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			return nil, nil, "", err
		}
		return frame, req.ZoneIDs, req.CameraID, nil
	}

	frame, err = io.ReadAll(r.Body)
	if err != nil {
		return nil, nil, "", err
	}
	q := r.URL.Query()
	cameraID = q.Get("camera_id")
	var ids []string
	if raw := q.Get("zone_ids"); raw != "" {
		ids = strings.Split(raw, ",")
	}
	return frame, ids, cameraID, nil
}

func (s *Server) resolveZones(zoneIDs []string, cameraID string) ([]model.Zone, error) {
	if len(zoneIDs) > 0 {
		zones := make([]model.Zone, 0, len(zoneIDs))
		for _, id := range zoneIDs {
			z, err := s.Zones.Get(id)
			if err != nil {
				return nil, err
			}
			zones = append(zones, *z)
		}
		return zones, nil
	}
	if cameraID != "" {
		return s.Zones.ListForCamera(cameraID)
	}
	return s.Zones.List()
}

// analyzeZones runs the active detector against every zone. A
// dimension mismatch between the frame and a seeded background is
// surfaced to the caller rather than skipped, per the error taxonomy;
// any other per-zone analyze failure is logged and that zone omitted.
func (s *Server) analyzeZones(frame []byte, cameraID string, zones []model.Zone) ([]zoneResult, error) {
	det := s.Detectors.Current()
	results := make([]zoneResult, 0, len(zones))

	for i := range zones {
		zone := &zones[i]
		bgCamera := zone.CameraID
		if bgCamera == "" {
			bgCamera = cameraID
		}
		var background *model.BackgroundFrame
		if bgCamera != "" {
			background, _ = s.Zones.GetBackground(bgCamera)
		}

		result, err := det.Analyze(frame, background, zone, model.DetectOptions{MinArea: zone.MinArea, MaxArea: zone.MaxArea})
		if err != nil {
			if errors.Is(err, core.ErrDimensionMismatch) {
				return nil, err
			}
			s.Logger.Warning("analyze: zone %s: %v", zone.ID, err)
			continue
		}

		blobs := make([]model.Blob, len(result.Detections))
		for j, d := range result.Detections {
			blobs[j] = d.Blob
		}
		s.Occupancy.Update(zone, blobs)

		results = append(results, zoneResult{
			ZoneID:   zone.ID,
			ZoneName: zone.Name,
			Count:    len(blobs),
			Blobs:    blobs,
			Alarm:    len(blobs) >= zone.AlarmThreshold,
		})
	}
	return results, nil
}

// SetBackground handles POST /background: accepts JSON
// {image: base64, camera_id} or a raw image body with ?camera_id=.
func (s *Server) SetBackground(w http.ResponseWriter, r *http.Request) {
	var frame []byte
	var cameraID string

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Image    string `json:"image"`
			CameraID string `json:"camera_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		decoded, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			http.Error(w, "invalid base64 image", http.StatusBadRequest)
			return
		}
		frame = decoded
		cameraID = req.CameraID
	} else {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		frame = body
		cameraID = r.URL.Query().Get("camera_id")
	}

	if cameraID == "" {
		http.Error(w, "camera_id required", http.StatusBadRequest)
		return
	}

	plane, err := imaging.ToGray(frame)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Zones.SaveBackground(cameraID, plane.Pix, plane.Width, plane.Height); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "camera_id": cameraID})
}
