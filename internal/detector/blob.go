package detector

import (
	"fmt"
	"time"

	"webserver/internal/core"
	"webserver/internal/imaging"
	"webserver/internal/model"
)

// BlobDetector is the built-in background-subtraction pipeline (§4.1,
// §4.3): gray conversion, diff against a stored background (or the
// frame's own mean luma if none is seeded yet), morphology cleanup,
// polygon masking, and connected-component extraction.
type BlobDetector struct {
	DiffThreshold    int
	MorphologyPasses int
}

// NewBlobDetector builds a BlobDetector from configured thresholds.
func NewBlobDetector(diffThreshold, morphologyPasses int) *BlobDetector {
	return &BlobDetector{DiffThreshold: diffThreshold, MorphologyPasses: morphologyPasses}
}

func (d *BlobDetector) Mode() model.Mode { return model.ModeBlob }

func (d *BlobDetector) Analyze(frame []byte, background *model.BackgroundFrame, zone *model.Zone, opts model.DetectOptions) (*model.DetectionResult, error) {
	start := time.Now()

	plane, err := imaging.ToGray(frame)
	if err != nil {
		return nil, fmt.Errorf("blob detector: decode frame: %w", err)
	}

	var diff []byte
	if background != nil {
		if background.Width != plane.Width || background.Height != plane.Height {
			return nil, fmt.Errorf("blob detector: %w: frame is %dx%d, background is %dx%d",
				core.ErrDimensionMismatch, plane.Width, plane.Height, background.Width, background.Height)
		}
		diff = imaging.AbsDiffThreshold(background.Blob, plane.Pix, d.DiffThreshold)
	} else {
		mean := imaging.MeanLuma(plane)
		diff = imaging.AbsDiffThresholdMean(plane.Pix, mean, d.DiffThreshold)
	}

	clean := imaging.MorphologyClean(diff, plane.Width, plane.Height, d.MorphologyPasses)

	pts := make([]imaging.Point, len(zone.Polygon))
	for i, p := range zone.Polygon {
		pts[i] = imaging.Point{X: p.X, Y: p.Y}
	}
	mask := imaging.PolygonMask(pts, plane.Width, plane.Height)
	masked := imaging.ApplyMask(clean, mask)

	minArea, maxArea := opts.MinArea, opts.MaxArea
	if minArea == 0 {
		minArea = zone.MinArea
	}
	if maxArea == 0 {
		maxArea = zone.MaxArea
	}

	blobs := imaging.ConnectedComponents(masked, plane.Width, plane.Height, minArea, maxArea)

	detections := make([]model.Detection, len(blobs))
	for i, b := range blobs {
		detections[i] = model.Detection{
			Blob:       b,
			Label:      "object",
			Confidence: 1.0,
		}
	}

	return &model.DetectionResult{
		Detections:  detections,
		Count:       len(detections),
		InferenceMS: float64(time.Since(start).Microseconds()) / 1000.0,
		Mode:        model.ModeBlob,
	}, nil
}
