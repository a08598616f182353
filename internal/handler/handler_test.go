package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"

	"webserver/internal/config"
	"webserver/internal/detector"
	"webserver/internal/events"
	"webserver/internal/fanout"
	"webserver/internal/logger"
	"webserver/internal/model"
	"webserver/internal/occupancy"
	"webserver/internal/scheduler"
	"webserver/internal/snapshot"
	"webserver/internal/zonestore"
)

type memZoneRepo struct {
	zones map[string]model.Zone
	bgs   map[string]model.BackgroundFrame
}

func newMemZoneRepo() *memZoneRepo {
	return &memZoneRepo{zones: map[string]model.Zone{}, bgs: map[string]model.BackgroundFrame{}}
}

func (r *memZoneRepo) InsertZone(z *model.Zone) error { r.zones[z.ID] = *z; return nil }
func (r *memZoneRepo) GetZone(id string) (*model.Zone, error) {
	z, ok := r.zones[id]
	if !ok {
		return nil, nil
	}
	return &z, nil
}
func (r *memZoneRepo) ListZones() ([]model.Zone, error) {
	out := make([]model.Zone, 0, len(r.zones))
	for _, z := range r.zones {
		out = append(out, z)
	}
	return out, nil
}
func (r *memZoneRepo) UpdateZone(z *model.Zone) error { r.zones[z.ID] = *z; return nil }
func (r *memZoneRepo) DeleteZone(id string) error     { delete(r.zones, id); return nil }
func (r *memZoneRepo) SaveBackground(bg *model.BackgroundFrame) error {
	r.bgs[bg.CameraID] = *bg
	return nil
}
func (r *memZoneRepo) GetBackground(cameraID string) (*model.BackgroundFrame, error) {
	bg, ok := r.bgs[cameraID]
	if !ok {
		return nil, nil
	}
	return &bg, nil
}

type memEventRepo struct {
	events []model.ParkingEvent
	nextID int64
}

func (r *memEventRepo) Insert(e *model.ParkingEvent) (int64, error) {
	r.nextID++
	e.ID = r.nextID
	r.events = append(r.events, *e)
	return r.nextID, nil
}
func (r *memEventRepo) Query(filter model.EventFilter) ([]model.ParkingEvent, error) {
	var out []model.ParkingEvent
	for _, e := range r.events {
		if filter.ZoneID != "" && e.ZoneID != filter.ZoneID {
			continue
		}
		if filter.EventType != "" && e.Kind != filter.EventType {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
func (r *memEventRepo) Count(filter model.EventFilter) (int, error) {
	out, _ := r.Query(filter)
	return len(out), nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{RoundRobinIntervalMS: 1000, LogDirectory: t.TempDir()}
	log := logger.NewLogger(cfg)
	zones := zonestore.New(newMemZoneRepo(), nil)
	blob := detector.NewBlobDetector(30, 1)
	sel := detector.NewSelector(blob, nil, nil)
	occ := occupancy.New()
	hub := fanout.NewHub()
	evt := events.NewLogger(&memEventRepo{}, hub)
	occ.AddListener(evt)
	occ.SetPublisher(hub)
	snap := snapshot.New("http://unused.invalid", 0)
	sched := scheduler.New(snap, zones, sel, occ, log)
	return New(cfg, log, zones, sel, occ, evt, sched, snap, hub)
}

func squarePolygon() []model.Point {
	return []model.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
}

func solidJPEG(t *testing.T, w, h int, c color.Gray) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestCreateAndListZones(t *testing.T) {
	s := newTestServer(t)

	body, _ := json.Marshal(model.ZoneInput{Name: "dock-1", CameraID: "cam-1", Polygon: squarePolygon()})
	req := httptest.NewRequest(http.MethodPost, "/zones", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.CreateZone(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	listReq := httptest.NewRequest(http.MethodGet, "/zones", nil)
	listRec := httptest.NewRecorder()
	s.ListZones(listRec, listReq)

	var zones []model.Zone
	if err := json.Unmarshal(listRec.Body.Bytes(), &zones); err != nil {
		t.Fatalf("unmarshal zones: %v", err)
	}
	if len(zones) != 1 || zones[0].Name != "dock-1" {
		t.Fatalf("unexpected zones: %+v", zones)
	}
}

func TestCreateZone_RejectsShortPolygon(t *testing.T) {
	s := newTestServer(t)
	body, _ := json.Marshal(model.ZoneInput{Name: "bad", Polygon: []model.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}})
	req := httptest.NewRequest(http.MethodPost, "/zones", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.CreateZone(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHealth_ReportsBlobMode(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Health(rec, req)

	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if resp.DetectionMode != model.ModeBlob {
		t.Fatalf("expected blob mode, got %s", resp.DetectionMode)
	}
	if resp.ExternalDetectorAvailable {
		t.Fatalf("expected no external detector configured")
	}
}

func TestAnalyze_RecordsOccupancyEntry(t *testing.T) {
	s := newTestServer(t)

	zoneBody, _ := json.Marshal(model.ZoneInput{Name: "z1", CameraID: "cam-1", Polygon: squarePolygon(), MinArea: 10})
	createReq := httptest.NewRequest(http.MethodPost, "/zones", bytes.NewReader(zoneBody))
	createRec := httptest.NewRecorder()
	s.CreateZone(createRec, createReq)
	var zone model.Zone
	json.Unmarshal(createRec.Body.Bytes(), &zone)

	frame := solidJPEG(t, 100, 100, color.Gray{Y: 200})
	analyzeBody, _ := json.Marshal(map[string]interface{}{
		"image":     base64.StdEncoding.EncodeToString(frame),
		"camera_id": "cam-1",
	})
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(analyzeBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Analyze(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	entry, ok := s.Occupancy.Get(zone.ID)
	if !ok {
		t.Fatalf("expected occupancy entry for zone")
	}
	_ = entry
}

func TestRoundRobin_StartStopStatus(t *testing.T) {
	s := newTestServer(t)

	body, _ := json.Marshal(roundRobinRequest{Cameras: []string{"cam-1", "cam-2"}, IntervalMS: 50})
	startReq := httptest.NewRequest(http.MethodPost, "/round-robin/start", bytes.NewReader(body))
	startRec := httptest.NewRecorder()
	s.RoundRobinStart(startRec, startReq)

	var status map[string]interface{}
	json.Unmarshal(startRec.Body.Bytes(), &status)
	if status["running"] != true {
		t.Fatalf("expected running true, got %+v", status)
	}

	stopReq := httptest.NewRequest(http.MethodPost, "/round-robin/stop", nil)
	stopRec := httptest.NewRecorder()
	s.RoundRobinStop(stopRec, stopReq)

	var stopStatus map[string]interface{}
	json.Unmarshal(stopRec.Body.Bytes(), &stopStatus)
	if stopStatus["running"] != false {
		t.Fatalf("expected running false after stop, got %+v", stopStatus)
	}
}

func TestZoneByID_DeleteRemovesOccupancyAndReturns204(t *testing.T) {
	s := newTestServer(t)
	body, _ := json.Marshal(model.ZoneInput{Name: "z1", Polygon: squarePolygon()})
	createReq := httptest.NewRequest(http.MethodPost, "/zones", bytes.NewReader(body))
	createRec := httptest.NewRecorder()
	s.CreateZone(createRec, createReq)
	var zone model.Zone
	json.Unmarshal(createRec.Body.Bytes(), &zone)
	s.Occupancy.Update(&zone, nil)

	delReq := httptest.NewRequest(http.MethodDelete, "/zones/"+zone.ID, nil)
	delRec := httptest.NewRecorder()
	s.ZoneByID(delRec, delReq)

	if delRec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", delRec.Code)
	}
	if _, ok := s.Occupancy.Get(zone.ID); ok {
		t.Fatalf("expected occupancy entry removed after delete")
	}

	getReq := httptest.NewRequest(http.MethodGet, "/zones/"+zone.ID, nil)
	getRec := httptest.NewRecorder()
	s.ZoneByID(getRec, getReq)
	if getRec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", getRec.Code)
	}
}
