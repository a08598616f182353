package imaging

import (
	"math/rand"
	"testing"
)

func rectPlane(w, h int, rects [][4]int) []byte {
	bin := make([]byte, w*h)
	for _, r := range rects {
		x0, y0, rw, rh := r[0], r[1], r[2], r[3]
		for y := y0; y < y0+rh; y++ {
			for x := x0; x < x0+rw; x++ {
				bin[y*w+x] = 255
			}
		}
	}
	return bin
}

func TestAbsDiffThreshold_IdenticalIsZero(t *testing.T) {
	a := make([]byte, 100)
	rand.New(rand.NewSource(1)).Read(a)
	for _, tt := range []int{0, 1, 30, 255} {
		out := AbsDiffThreshold(a, a, tt)
		for i, v := range out {
			if v != 0 {
				t.Fatalf("t=%d: index %d expected 0, got %d", tt, i, v)
			}
		}
	}
}

func TestAbsDiffThreshold_Basic(t *testing.T) {
	a := []byte{100, 100, 100}
	b := []byte{100, 150, 69}
	out := AbsDiffThreshold(a, b, 30)
	want := []byte{0, 255, 255}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("index %d: got %d want %d", i, out[i], want[i])
		}
	}
}

func TestRunningMeanUpdate_FixedPoint(t *testing.T) {
	bg := []byte{0, 50, 128, 255}
	out := RunningMeanUpdate(bg, bg, 0.1)
	for i := range bg {
		if out[i] != bg[i] {
			t.Errorf("index %d: got %d want %d (fixed point under identity current)", i, out[i], bg[i])
		}
	}
}

func TestRunningMeanUpdate_Blend(t *testing.T) {
	bg := []byte{100}
	cur := []byte{200}
	out := RunningMeanUpdate(bg, cur, 0.1)
	if out[0] != 110 {
		t.Errorf("got %d want 110", out[0])
	}
}

func TestPointInPolygonMatchesMask(t *testing.T) {
	w, h := 50, 50
	square := []Point{{X: 10, Y: 10}, {X: 40, Y: 10}, {X: 40, Y: 40}, {X: 10, Y: 40}}
	mask := PolygonMask(square, w, h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := Point{X: float64(x), Y: float64(y)}
			got := PointInPolygon(p, square)
			want := mask[y*w+x] == 255
			if got != want {
				t.Fatalf("(%d,%d): PointInPolygon=%v mask=%v", x, y, got, want)
			}
		}
	}
}

func TestErodeDilateIdempotentAwayFromBorder(t *testing.T) {
	w, h := 40, 40
	bin := rectPlane(w, h, [][4]int{{10, 10, 20, 20}})

	once := MorphologyClean(bin, w, h, 2)
	twice := MorphologyClean(once, w, h, 2)

	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("index %d: first pass %d, second pass %d", i, once[i], twice[i])
		}
	}
}

func TestConnectedComponents_DisjointRectangles(t *testing.T) {
	w, h := 100, 100
	rects := [][4]int{
		{5, 5, 10, 10},   // area 100
		{50, 5, 20, 10},  // area 200
		{5, 50, 5, 5},    // area 25
	}
	bin := rectPlane(w, h, rects)

	blobs := ConnectedComponents(bin, w, h, 20, 500)
	if len(blobs) != 3 {
		t.Fatalf("expected 3 blobs, got %d", len(blobs))
	}

	areas := map[int]bool{100: false, 200: false, 25: false}
	for _, b := range blobs {
		areas[b.Area] = true
	}
	for a, found := range areas {
		if !found {
			t.Errorf("expected a blob of area %d", a)
		}
	}
}

func TestConnectedComponents_AreaGating(t *testing.T) {
	w, h := 50, 50
	bin := rectPlane(w, h, [][4]int{{5, 5, 5, 5}, {30, 30, 2, 2}})
	blobs := ConnectedComponents(bin, w, h, 10, 1000)
	if len(blobs) != 1 {
		t.Fatalf("expected 1 blob (the 2x2=4 px one gated out), got %d", len(blobs))
	}
	if blobs[0].Area != 25 {
		t.Errorf("expected area 25, got %d", blobs[0].Area)
	}
}

func TestConnectedComponents_CentroidAndBBox(t *testing.T) {
	w, h := 100, 100
	bin := rectPlane(w, h, [][4]int{{40, 40, 20, 20}})
	blobs := ConnectedComponents(bin, w, h, 100, 10000)
	if len(blobs) != 1 {
		t.Fatalf("expected 1 blob, got %d", len(blobs))
	}
	b := blobs[0]
	if b.Area != 400 {
		t.Errorf("area: got %d want 400", b.Area)
	}
	if b.BBox.X != 40 || b.BBox.Y != 40 || b.BBox.Width != 20 || b.BBox.Height != 20 {
		t.Errorf("bbox: got %+v", b.BBox)
	}
	if b.Centroid.X != 49 || b.Centroid.Y != 49 {
		t.Errorf("centroid: got %+v want (49,49)", b.Centroid)
	}
}

func TestPolygonArea(t *testing.T) {
	square := []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	if a := PolygonArea(square); a != 100 {
		t.Errorf("got %v want 100", a)
	}
}
