package detector

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"webserver/internal/core"
	"webserver/internal/imaging"
	"webserver/internal/model"
)

// ExternalDetector calls an external object-detection service over HTTP
// and filters its results down to what fell inside a zone's polygon.
// Any transport or decode failure falls back to a BlobDetector pass
// against the frame's own mean luma, reported as effective mode "blob"
// rather than the external mode's name, since the caller asked for an
// external-backed result and did not get one.
type ExternalDetector struct {
	BaseURL    string
	ModelTag   string // "yolo" or "ssd", sent as a hint to the service
	mode       model.Mode
	httpClient *http.Client
	fallback   *BlobDetector
}

// NewExternalDetector builds an ExternalDetector for the given backend
// mode ("external-yolo" or "external-ssd"), falling back to blob
// detection with the given thresholds on failure.
func NewExternalDetector(baseURL string, mode model.Mode, timeout time.Duration, diffThreshold, morphologyPasses int) *ExternalDetector {
	tag := "yolo"
	if mode == model.ModeExternalSSD {
		tag = "ssd"
	}
	return &ExternalDetector{
		BaseURL:    baseURL,
		ModelTag:   tag,
		mode:       mode,
		httpClient: &http.Client{Timeout: timeout},
		fallback:   NewBlobDetector(diffThreshold, morphologyPasses),
	}
}

func (d *ExternalDetector) Mode() model.Mode { return d.mode }

// Probe checks that the external backend is reachable via
// GET {base}/status -> {available: bool}, returning
// core.ErrBackendUnavailable if not.
func (d *ExternalDetector) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.BaseURL+"/status", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrBackendUnavailable, err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: backend returned %d", core.ErrBackendUnavailable, resp.StatusCode)
	}

	var status struct {
		Available bool `json:"available"`
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrBackendUnavailable, err)
	}
	if err := json.Unmarshal(body, &status); err == nil && !status.Available {
		return fmt.Errorf("%w: backend reports unavailable", core.ErrBackendUnavailable)
	}
	return nil
}

type analyzeRequest struct {
	Image string `json:"image"`
	Model string `json:"model"`
}

// analyzeResponse is deliberately loose: different backends spell the
// detection list "detections" or "objects", and the bounding box either
// as a 4-element array or an {x,y,width,height} object. Both shapes are
// accepted.
type analyzeResponse struct {
	Detections  []rawDetection `json:"detections"`
	Objects     []rawDetection `json:"objects"`
	InferenceMS *float64       `json:"inference_ms"`
}

type rawDetection struct {
	Label      string          `json:"label"`
	Class      string          `json:"class"`
	Confidence float64         `json:"confidence"`
	Score      float64         `json:"score"`
	BBox       json.RawMessage `json:"bbox"`
	Box        json.RawMessage `json:"box"`
}

type bboxObject struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (rd rawDetection) label() string {
	if rd.Label != "" {
		return rd.Label
	}
	return rd.Class
}

func (rd rawDetection) confidence() float64 {
	if rd.Confidence != 0 {
		return rd.Confidence
	}
	return rd.Score
}

func (rd rawDetection) bbox() (model.Rect, error) {
	raw := rd.BBox
	if len(raw) == 0 {
		raw = rd.Box
	}
	if len(raw) == 0 {
		return model.Rect{}, fmt.Errorf("detection has no bbox")
	}

	var arr [4]float64
	if err := json.Unmarshal(raw, &arr); err == nil {
		return model.Rect{X: int(arr[0]), Y: int(arr[1]), Width: int(arr[2]), Height: int(arr[3])}, nil
	}

	var obj bboxObject
	if err := json.Unmarshal(raw, &obj); err == nil {
		return model.Rect{X: int(obj.X), Y: int(obj.Y), Width: int(obj.Width), Height: int(obj.Height)}, nil
	}
	return model.Rect{}, fmt.Errorf("unrecognized bbox shape: %s", raw)
}

func (d *ExternalDetector) Analyze(frame []byte, background *model.BackgroundFrame, zone *model.Zone, opts model.DetectOptions) (*model.DetectionResult, error) {
	start := time.Now()

	result, serverInferenceMS, err := d.callBackend(frame)
	if err != nil {
		fallbackResult, fbErr := d.fallback.Analyze(frame, nil, zone, opts)
		if fbErr != nil {
			return nil, fmt.Errorf("external detector: %w (fallback also failed: %v)", err, fbErr)
		}
		return fallbackResult, nil
	}

	pts := make([]imaging.Point, len(zone.Polygon))
	for i, p := range zone.Polygon {
		pts[i] = imaging.Point{X: p.X, Y: p.Y}
	}

	filtered := make([]model.Detection, 0, len(result))
	for _, det := range result {
		if opts.ConfidenceThreshold > 0 && det.Confidence < opts.ConfidenceThreshold {
			continue
		}
		if len(opts.AllowedClasses) > 0 && !containsClass(opts.AllowedClasses, det.Label) {
			continue
		}
		cx := det.BBox.X + det.BBox.Width/2
		cy := det.BBox.Y + det.BBox.Height/2
		if !imaging.PointInPolygon(imaging.Point{X: float64(cx), Y: float64(cy)}, pts) {
			continue
		}
		filtered = append(filtered, det)
	}

	inferenceMS := float64(time.Since(start).Microseconds()) / 1000.0
	if serverInferenceMS != nil {
		inferenceMS = *serverInferenceMS
	}

	return &model.DetectionResult{
		Detections:  filtered,
		Count:       len(filtered),
		InferenceMS: inferenceMS,
		Mode:        d.mode,
	}, nil
}

// callBackend returns the backend's detections (skipping any whose bbox
// cannot be parsed; polygon, class and confidence filtering happen in
// Analyze) and, when the backend
// reported its own inference_ms, a pointer to that figure so the
// caller can prefer it over a wall-clock measurement.
func (d *ExternalDetector) callBackend(frame []byte) ([]model.Detection, *float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.httpClient.Timeout)
	defer cancel()

	reqBody := analyzeRequest{
		Image: base64.StdEncoding.EncodeToString(frame),
		Model: d.ModelTag,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL+"/analyze/base64", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("backend returned %d: %s", resp.StatusCode, body)
	}

	var parsed analyzeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, nil, fmt.Errorf("unmarshal response: %w", err)
	}

	raw := parsed.Detections
	if len(raw) == 0 {
		raw = parsed.Objects
	}

	out := make([]model.Detection, 0, len(raw))
	for i, rd := range raw {
		bbox, err := rd.bbox()
		if err != nil {
			continue
		}
		out = append(out, model.Detection{
			Blob: model.Blob{
				ID:   i,
				Area: bbox.Width * bbox.Height,
				Centroid: model.Point{
					X: float64(bbox.X) + float64(bbox.Width)/2,
					Y: float64(bbox.Y) + float64(bbox.Height)/2,
				},
				BBox: bbox,
			},
			Label:      rd.label(),
			Confidence: rd.confidence(),
		})
	}
	return out, parsed.InferenceMS, nil
}

func containsClass(classes []string, label string) bool {
	for _, c := range classes {
		if c == label {
			return true
		}
	}
	return false
}
