package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"webserver/internal/core"
	"webserver/internal/model"
)

func squareZone() *model.Zone {
	return &model.Zone{
		ID:      "z1",
		Name:    "test",
		Polygon: []model.Point{{X: 0, Y: 0}, {X: 99, Y: 0}, {X: 99, Y: 99}, {X: 0, Y: 99}},
		MinArea: 10,
		MaxArea: 10000,
	}
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestBlobDetector_FindsSquareAgainstBackground(t *testing.T) {
	w, h := 100, 100
	bg := image.NewGray(image.Rect(0, 0, w, h))
	for i := range bg.Pix {
		bg.Pix[i] = 20
	}
	fg := image.NewGray(image.Rect(0, 0, w, h))
	copy(fg.Pix, bg.Pix)
	for y := 40; y < 60; y++ {
		for x := 40; x < 60; x++ {
			fg.SetGray(x, y, color.Gray{Y: 220})
		}
	}

	bgFrame := &model.BackgroundFrame{CameraID: "cam1", Blob: bg.Pix, Width: w, Height: h}

	d := NewBlobDetector(30, 1)
	result, err := d.Analyze(encodeJPEG(t, fg), bgFrame, squareZone(), model.DetectOptions{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("expected 1 blob, got %d (%+v)", result.Count, result.Detections)
	}
	if result.Mode != model.ModeBlob {
		t.Errorf("expected mode blob, got %s", result.Mode)
	}
}

func TestBlobDetector_NoBackground_UsesMeanLumaFallback(t *testing.T) {
	w, h := 50, 50
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 10
	}

	zone := squareZone()
	zone.Polygon = []model.Point{{X: 0, Y: 0}, {X: 49, Y: 0}, {X: 49, Y: 49}, {X: 0, Y: 49}}

	d := NewBlobDetector(30, 1)
	result, err := d.Analyze(encodeJPEG(t, img), nil, zone, model.DetectOptions{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.Count != 0 {
		t.Errorf("expected a flat frame to produce no blobs, got %d", result.Count)
	}
}

func TestBlobDetector_BackgroundDimensionMismatch_ReturnsError(t *testing.T) {
	frame := image.NewGray(image.Rect(0, 0, 50, 50))
	bgFrame := &model.BackgroundFrame{CameraID: "cam1", Blob: make([]byte, 100*100), Width: 100, Height: 100}

	d := NewBlobDetector(30, 1)
	_, err := d.Analyze(encodeJPEG(t, frame), bgFrame, squareZone(), model.DetectOptions{})
	if !errors.Is(err, core.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestExternalDetector_ParsesArrayBBoxAndFiltersByPolygon(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"detections": []map[string]interface{}{
				{"label": "person", "confidence": 0.9, "bbox": []float64{10, 10, 20, 20}},
				{"label": "person", "confidence": 0.9, "bbox": []float64{500, 500, 20, 20}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	d := NewExternalDetector(server.URL, model.ModeExternalYOLO, 2*time.Second, 30, 1)
	zone := squareZone()

	result, err := d.Analyze([]byte("fake-frame"), nil, zone, model.DetectOptions{ConfidenceThreshold: 0.5})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("expected 1 in-zone detection, got %d", result.Count)
	}
	if result.Mode != model.ModeExternalYOLO {
		t.Errorf("expected mode external-yolo, got %s", result.Mode)
	}
}

func TestExternalDetector_PrefersServerReportedInferenceMS(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"detections": []map[string]interface{}{
				{"label": "person", "confidence": 0.9, "bbox": []float64{10, 10, 20, 20}},
			},
			"inference_ms": 42.5,
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	d := NewExternalDetector(server.URL, model.ModeExternalYOLO, 2*time.Second, 30, 1)
	result, err := d.Analyze([]byte("fake-frame"), nil, squareZone(), model.DetectOptions{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.InferenceMS != 42.5 {
		t.Errorf("expected server-reported inference_ms 42.5, got %v", result.InferenceMS)
	}
}

func TestExternalDetector_FallsBackToBlobOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	w, h := 100, 100
	bg := image.NewGray(image.Rect(0, 0, w, h))
	for i := range bg.Pix {
		bg.Pix[i] = 20
	}
	fg := image.NewGray(image.Rect(0, 0, w, h))
	copy(fg.Pix, bg.Pix)
	for y := 40; y < 60; y++ {
		for x := 40; x < 60; x++ {
			fg.SetGray(x, y, color.Gray{Y: 220})
		}
	}

	d := NewExternalDetector(server.URL, model.ModeExternalYOLO, 2*time.Second, 30, 1)
	result, err := d.Analyze(encodeJPEG(t, fg), nil, squareZone(), model.DetectOptions{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	// Effective mode on fallback is reported as blob, not the requested
	// external mode, since no external result was actually obtained.
	if result.Mode != model.ModeBlob {
		t.Errorf("expected fallback mode blob, got %s", result.Mode)
	}
}

func TestSelector_SwitchesAndProbesExternal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	blob := NewBlobDetector(30, 1)
	yolo := NewExternalDetector(server.URL, model.ModeExternalYOLO, 2*time.Second, 30, 1)
	sel := NewSelector(blob, yolo, nil)

	var changedTo model.Mode
	sel.OnModeChange(func(m model.Mode) { changedTo = m })

	if err := sel.SetMode(context.Background(), model.ModeExternalYOLO); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if sel.Current().Mode() != model.ModeExternalYOLO {
		t.Errorf("expected active mode external-yolo, got %s", sel.Current().Mode())
	}
	if changedTo != model.ModeExternalYOLO {
		t.Errorf("expected mode-change callback to fire with external-yolo, got %s", changedTo)
	}
}

func TestSelector_UnconfiguredModeRejected(t *testing.T) {
	sel := NewSelector(NewBlobDetector(30, 1), nil, nil)
	err := sel.SetMode(context.Background(), model.ModeExternalSSD)
	if err == nil {
		t.Fatal("expected error for unconfigured external-ssd mode")
	}
}

