// Package render produces the annotated-frame overlay (§4.7): zone
// polygons, blob bounding boxes, and centroid markers composited onto a
// camera's latest JPEG. Grounded on the teacher's
// DetectorService/object_detection drawing pass (decode -> gocv.Rectangle
// -> re-encode), re-expressed with image/draw and
// golang.org/x/image/font/basicfont so the pipeline stays cgo-free.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"webserver/internal/imaging"
	"webserver/internal/model"
)

const jpegQuality = 85

var (
	colorAlarm = color.RGBA{R: 220, G: 40, B: 40, A: 255}
	colorOK    = color.RGBA{R: 40, G: 200, B: 80, A: 255}
	colorBBox  = color.RGBA{R: 230, G: 210, B: 20, A: 255}
	colorDot   = color.RGBA{R: 220, G: 20, B: 20, A: 255}
)

// ZoneView is a zone plus its current occupancy entry, the minimal
// input the renderer needs per zone.
type ZoneView struct {
	Zone     model.Zone
	Occupied bool
	Blobs    []model.Blob
}

// Annotate decodes frame, draws every zone's polygon (filled translucent,
// colored by alarm state) plus each blob's bounding box and centroid,
// and re-encodes as JPEG. If zones is empty the original bytes are
// returned unchanged.
func Annotate(frame []byte, zones []ZoneView) ([]byte, error) {
	if len(zones) == 0 {
		return frame, nil
	}

	src, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("render: decode frame: %w", err)
	}

	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Src)

	for _, zv := range zones {
		zoneColor := colorOK
		if zv.Occupied {
			zoneColor = colorAlarm
		}
		drawPolygon(canvas, zv.Zone.Polygon, zoneColor)
		drawLabel(canvas, zv.Zone.Polygon, zv.Zone.Name, zoneColor)

		for _, b := range zv.Blobs {
			drawBBox(canvas, b.BBox, colorBBox)
			drawCentroid(canvas, b.Centroid, colorDot)
		}
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("render: encode frame: %w", err)
	}
	return out.Bytes(), nil
}

// drawPolygon fills the polygon interior at 30% alpha and strokes its
// edges at 2px.
func drawPolygon(canvas *image.RGBA, polygon []model.Point, c color.RGBA) {
	if len(polygon) < 3 {
		return
	}
	bounds := canvas.Bounds()
	fill := color.RGBA{R: c.R, G: c.G, B: c.B, A: 76} // ~30% of 255

	pts := make([]imaging.Point, len(polygon))
	for i, p := range polygon {
		pts[i] = imaging.Point{X: p.X, Y: p.Y}
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if imaging.PointInPolygon(imaging.Point{X: float64(x), Y: float64(y)}, pts) {
				blendPixel(canvas, x, y, fill)
			}
		}
	}
	for i := range polygon {
		a := polygon[i]
		b := polygon[(i+1)%len(polygon)]
		drawThickLine(canvas, int(a.X), int(a.Y), int(b.X), int(b.Y), 2, c)
	}
}

func drawBBox(canvas *image.RGBA, r model.Rect, c color.RGBA) {
	drawThickLine(canvas, r.X, r.Y, r.X+r.Width, r.Y, 2, c)
	drawThickLine(canvas, r.X, r.Y+r.Height, r.X+r.Width, r.Y+r.Height, 2, c)
	drawThickLine(canvas, r.X, r.Y, r.X, r.Y+r.Height, 2, c)
	drawThickLine(canvas, r.X+r.Width, r.Y, r.X+r.Width, r.Y+r.Height, 2, c)
}

func drawCentroid(canvas *image.RGBA, p model.Point, c color.RGBA) {
	const radius = 4
	cx, cy := int(p.X), int(p.Y)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				blendPixel(canvas, cx+dx, cy+dy, c)
			}
		}
	}
}

func drawLabel(canvas *image.RGBA, polygon []model.Point, text string, c color.RGBA) {
	if len(polygon) == 0 || text == "" {
		return
	}
	origin := polygon[0]
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(origin.X), int(origin.Y)-4),
	}
	d.DrawString(text)
}

func drawThickLine(canvas *image.RGBA, x0, y0, x1, y1, thickness int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	x, y := x0, y0
	for {
		for oy := -thickness / 2; oy < thickness-thickness/2; oy++ {
			for ox := -thickness / 2; ox < thickness-thickness/2; ox++ {
				blendPixel(canvas, x+ox, y+oy, c)
			}
		}
		if x == x1 && y == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func blendPixel(canvas *image.RGBA, x, y int, c color.RGBA) {
	bounds := canvas.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	canvas.Set(x, y, blendOver(canvas.RGBAAt(x, y), c))
}

func blendOver(dst, src color.RGBA) color.RGBA {
	if src.A == 255 {
		return src
	}
	a := float64(src.A) / 255.0
	return color.RGBA{
		R: uint8(float64(src.R)*a + float64(dst.R)*(1-a)),
		G: uint8(float64(src.G)*a + float64(dst.G)*(1-a)),
		B: uint8(float64(src.B)*a + float64(dst.B)*(1-a)),
		A: 255,
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
