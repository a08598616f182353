package imaging

import "webserver/internal/model"

// ConnectedComponents finds 4-connected components of foreground (255)
// pixels in bin and returns one Blob per component whose area falls
// within [minArea, maxArea]. Components are assigned ids in row-major
// encounter order, regardless of whether they pass the area gate.
func ConnectedComponents(bin []byte, w, h, minArea, maxArea int) []model.Blob {
	visited := make([]bool, w*h)
	var blobs []model.Blob
	nextID := 0

	stack := make([]int, 0, 64)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if bin[idx] != 255 || visited[idx] {
				continue
			}

			nextID++
			stack = stack[:0]
			stack = append(stack, idx)
			visited[idx] = true

			minX, minY := x, y
			maxX, maxY := x, y
			var sumX, sumY, area int

			for len(stack) > 0 {
				cur := stack[len(stack)-1]
				stack = stack[:len(stack)-1]

				cy, cx := cur/w, cur%w
				area++
				sumX += cx
				sumY += cy
				if cx < minX {
					minX = cx
				}
				if cx > maxX {
					maxX = cx
				}
				if cy < minY {
					minY = cy
				}
				if cy > maxY {
					maxY = cy
				}

				neighbors := [4][2]int{{cx - 1, cy}, {cx + 1, cy}, {cx, cy - 1}, {cx, cy + 1}}
				for _, n := range neighbors {
					nx, ny := n[0], n[1]
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					nidx := ny*w + nx
					if bin[nidx] == 255 && !visited[nidx] {
						visited[nidx] = true
						stack = append(stack, nidx)
					}
				}
			}

			if area < minArea || area > maxArea {
				continue
			}

			blobs = append(blobs, model.Blob{
				ID:   nextID,
				Area: area,
				Centroid: model.Point{
					X: roundDiv(sumX, area),
					Y: roundDiv(sumY, area),
				},
				BBox: model.Rect{
					X:      minX,
					Y:      minY,
					Width:  maxX - minX + 1,
					Height: maxY - minY + 1,
				},
			})
		}
	}

	return blobs
}

// roundDiv computes the mean of sum over count member pixels rounded to
// the nearest integer, returned as a float64 for direct use in a Point
// (centroids are reported at integer pixel resolution but Point is
// float-valued for polygon math elsewhere). Ties (mean exactly at x.5)
// resolve down, matching the pixel-truncating convention used throughout
// the rasterizer.
func roundDiv(sum, count int) float64 {
	if count == 0 {
		return 0
	}
	q := sum / count
	if 2*(sum%count) > count {
		q++
	}
	return float64(q)
}
