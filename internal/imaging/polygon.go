package imaging

// Point is an image-pixel-space coordinate used by the polygon rasterizer.
type Point struct {
	X float64
	Y float64
}

// PointInPolygon reports whether p lies inside the simple polygon described
// by vertices, using the even-odd ray-casting rule. A point exactly on a
// horizontal edge at a vertex's y is counted via the "yi > y" strictly
// greater than "yj > y" comparison, so shared vertices are never
// double-counted.
func PointInPolygon(p Point, vertices []Point) bool {
	inside := false
	n := len(vertices)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := vertices[i], vertices[j]
		if (vi.Y > p.Y) != (vj.Y > p.Y) {
			xIntersect := (vj.X-vi.X)*(p.Y-vi.Y)/(vj.Y-vi.Y) + vi.X
			if p.X < xIntersect {
				inside = !inside
			}
		}
	}
	return inside
}

// PolygonMask rasterizes vertices into a w x h mask: 255 for pixels whose
// integer-pixel center lies inside the polygon, 0 otherwise.
func PolygonMask(vertices []Point, w, h int) []byte {
	mask := make([]byte, w*h)
	for y := 0; y < h; y++ {
		p := Point{Y: float64(y)}
		for x := 0; x < w; x++ {
			p.X = float64(x)
			if PointInPolygon(p, vertices) {
				mask[y*w+x] = 255
			}
		}
	}
	return mask
}

// ApplyMask zeroes every pixel of bin whose corresponding mask pixel is not 255.
func ApplyMask(bin, mask []byte) []byte {
	out := make([]byte, len(bin))
	for i := range bin {
		if mask[i] == 255 {
			out[i] = bin[i]
		}
	}
	return out
}

// PolygonArea computes the (unsigned) area of a simple polygon via the
// shoelace formula. Used by the zone store to reject degenerate polygons.
func PolygonArea(vertices []Point) float64 {
	n := len(vertices)
	if n < 3 {
		return 0
	}
	var sum float64
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		sum += vertices[j].X*vertices[i].Y - vertices[i].X*vertices[j].Y
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}
