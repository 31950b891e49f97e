package fingerprint

// Text-block detection is a heuristic over the edge map: text shows a
// medium edge density (dense strokes with gaps) and predominantly
// horizontal edge runs. Window sizes are tuned for the downscaled working
// image the extractor operates on.

var textWindows = []struct{ w, h int }{
	{60, 18}, // typical label blocks
	{40, 12}, // small annotations
	{80, 24}, // title fields
}

const (
	textMinDensity    = 0.05
	textMaxDensity    = 0.4
	textMinConfidence = 0.5
)

// textMask marks every pixel covered by at least one window classified as
// likely text. The per-cell coverage of this mask is the fingerprint's
// text-region statistic.
func textMask(edges [][]bool, width, height int) [][]bool {
	mask := make([][]bool, height)
	for y := range mask {
		mask[y] = make([]bool, width)
	}

	for _, ws := range textWindows {
		if ws.w > width || ws.h > height {
			continue
		}
		stepX := ws.w / 2
		stepY := ws.h / 2

		for y := 0; y+ws.h <= height; y += stepY {
			for x := 0; x+ws.w <= width; x += stepX {
				edgeCount := 0
				for wy := 0; wy < ws.h; wy++ {
					for wx := 0; wx < ws.w; wx++ {
						if edges[y+wy][x+wx] {
							edgeCount++
						}
					}
				}

				area := ws.w * ws.h
				density := float64(edgeCount) / float64(area)
				if density < textMinDensity || density > textMaxDensity {
					continue
				}

				horizontal := horizontalRunScore(edges, x, y, ws.w, ws.h)
				confidence := horizontal * (1.0 - abs(density-0.2)/0.2)
				if confidence < textMinConfidence {
					continue
				}

				for wy := 0; wy < ws.h; wy++ {
					for wx := 0; wx < ws.w; wx++ {
						mask[y+wy][x+wx] = true
					}
				}
			}
		}
	}

	return mask
}

// horizontalRunScore measures how horizontal the edge structure inside a
// window is. Text rows produce many short horizontal runs.
func horizontalRunScore(edges [][]bool, x, y, w, h int) float64 {
	horizontalRuns := 0
	verticalRuns := 0

	for row := y; row < y+h; row++ {
		inRun := false
		for col := x; col < x+w; col++ {
			if edges[row][col] {
				if !inRun {
					horizontalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	for col := x; col < x+w; col++ {
		inRun := false
		for row := y; row < y+h; row++ {
			if edges[row][col] {
				if !inRun {
					verticalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	if horizontalRuns+verticalRuns == 0 {
		return 0
	}
	return float64(horizontalRuns) / float64(horizontalRuns+verticalRuns)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
