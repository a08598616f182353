package imaging

// DefaultDiffThreshold is the default absolute-difference threshold t.
const DefaultDiffThreshold = 30

// AbsDiffThreshold emits 255 at every index where |a_i - b_i| > t, else 0.
// a and b must be the same length (caller's responsibility; use
// DimensionsMatch to check width/height beforehand).
func AbsDiffThreshold(a, b []byte, t int) []byte {
	out := make([]byte, len(a))
	for i := range a {
		d := int(a[i]) - int(b[i])
		if d < 0 {
			d = -d
		}
		if d > t {
			out[i] = 255
		}
	}
	return out
}

// AbsDiffThresholdMean thresholds a plane against its own mean luma, used
// as the degraded fallback when no background frame is available.
func AbsDiffThresholdMean(a []byte, mean byte, t int) []byte {
	out := make([]byte, len(a))
	for i, v := range a {
		d := int(v) - int(mean)
		if d < 0 {
			d = -d
		}
		if d > t {
			out[i] = 255
		}
	}
	return out
}

// DimensionsMatch reports whether two planes have identical width and height.
func DimensionsMatch(a, b *Plane) bool {
	return a.Width == b.Width && a.Height == b.Height
}
