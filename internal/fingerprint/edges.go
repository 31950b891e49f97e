package fingerprint

import (
	"image"
	"math"
)

// edgeGradientThreshold is the minimum forward-difference gradient for a
// pixel to count as an edge. Matches the sensitivity used for structural
// analysis of line drawings.
const edgeGradientThreshold = 30.0

// grayValue returns the 8-bit luminance of a pixel using ITU-R BT.601
// weights.
func grayValue(img image.Image, x, y int) int {
	r, g, b, _ := img.At(x, y).RGBA()
	return int(0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8))
}

// edgeMap computes a binary edge map using a simple forward-difference
// gradient. Border pixels are never edges.
func edgeMap(img image.Image) [][]bool {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	edges := make([][]bool, height)
	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			if x == 0 || y == 0 || x == width-1 || y == height-1 {
				continue
			}

			c := grayValue(img, x+bounds.Min.X, y+bounds.Min.Y)
			cx := grayValue(img, x+1+bounds.Min.X, y+bounds.Min.Y)
			cy := grayValue(img, x+bounds.Min.X, y+1+bounds.Min.Y)

			dx := math.Abs(float64(c) - float64(cx))
			dy := math.Abs(float64(c) - float64(cy))

			if dx > edgeGradientThreshold || dy > edgeGradientThreshold {
				edges[y][x] = true
			}
		}
	}

	return edges
}
