package render

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"webserver/internal/model"
)

func solidJPEG(t *testing.T, w, h int, c color.Gray) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = c.Y
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestAnnotate_PassThroughWhenNoZones(t *testing.T) {
	frame := solidJPEG(t, 50, 50, color.Gray{Y: 100})
	out, err := Annotate(frame, nil)
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if len(out) != len(frame) {
		t.Errorf("expected unchanged byte length, got %d vs %d", len(out), len(frame))
	}
}

func TestAnnotate_ProducesValidJPEGWithZoneOverlay(t *testing.T) {
	frame := solidJPEG(t, 100, 100, color.Gray{Y: 128})
	zones := []ZoneView{
		{
			Zone: model.Zone{
				Name:    "lobby",
				Polygon: []model.Point{{X: 10, Y: 10}, {X: 90, Y: 10}, {X: 90, Y: 90}, {X: 10, Y: 90}},
			},
			Occupied: true,
			Blobs: []model.Blob{
				{ID: 1, Area: 100, Centroid: model.Point{X: 50, Y: 50}, BBox: model.Rect{X: 40, Y: 40, Width: 20, Height: 20}},
			},
		},
	}

	out, err := Annotate(frame, zones)
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("expected valid re-encoded jpeg: %v", err)
	}
	if decoded.Bounds().Dx() != 100 || decoded.Bounds().Dy() != 100 {
		t.Errorf("expected dimensions preserved, got %v", decoded.Bounds())
	}
}
