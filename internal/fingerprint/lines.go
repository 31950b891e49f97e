package fingerprint

import (
	"math"
	"sort"
)

// segment is a detected straight line segment, described only by the
// statistics the fingerprint needs.
type segment struct {
	length       float64
	angleDegrees float64 // normalized to [0, 180)
}

// maxSegments caps how many Hough peaks are traced into segments.
const maxSegments = 50

// detectSegments finds straight line segments in a binary edge map using a
// Hough transform. Peaks in the accumulator are local maxima above a vote
// threshold derived from minLength; each peak is traced back to its edge
// pixels to recover real endpoints, and segments shorter than minLength
// are discarded.
func detectSegments(edges [][]bool, width, height, minLength int) []segment {
	if width == 0 || height == 0 {
		return nil
	}

	maxDist := int(math.Sqrt(float64(width*width + height*height)))
	numAngles := 180
	accumulator := make([][]int, maxDist*2)
	for i := range accumulator {
		accumulator[i] = make([]int, numAngles)
	}

	// Vote in Hough space.
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !edges[y][x] {
				continue
			}
			for theta := 0; theta < numAngles; theta++ {
				angle := float64(theta) * math.Pi / 180.0
				rho := float64(x)*math.Cos(angle) + float64(y)*math.Sin(angle)
				rhoIdx := int(rho) + maxDist
				if rhoIdx >= 0 && rhoIdx < maxDist*2 {
					accumulator[rhoIdx][theta]++
				}
			}
		}
	}

	type peak struct {
		rho   int
		theta int
		votes int
	}
	peaks := make([]peak, 0)
	threshold := minLength / 2

	for rhoIdx := 0; rhoIdx < maxDist*2; rhoIdx++ {
		for theta := 0; theta < numAngles; theta++ {
			if accumulator[rhoIdx][theta] < threshold {
				continue
			}
			// Keep only local maxima.
			isMax := true
			for dr := -2; dr <= 2 && isMax; dr++ {
				for dt := -2; dt <= 2 && isMax; dt++ {
					if dr == 0 && dt == 0 {
						continue
					}
					nr := rhoIdx + dr
					nt := (theta + dt + numAngles) % numAngles
					if nr >= 0 && nr < maxDist*2 {
						if accumulator[nr][nt] > accumulator[rhoIdx][theta] {
							isMax = false
						}
					}
				}
			}
			if isMax {
				peaks = append(peaks, peak{
					rho:   rhoIdx - maxDist,
					theta: theta,
					votes: accumulator[rhoIdx][theta],
				})
			}
		}
	}

	// Strongest peaks first; ties broken by (rho, theta) so the result
	// is independent of sort internals.
	sort.Slice(peaks, func(i, j int) bool {
		if peaks[i].votes != peaks[j].votes {
			return peaks[i].votes > peaks[j].votes
		}
		if peaks[i].rho != peaks[j].rho {
			return peaks[i].rho < peaks[j].rho
		}
		return peaks[i].theta < peaks[j].theta
	})

	segments := make([]segment, 0)

	for _, p := range peaks {
		if len(segments) >= maxSegments {
			break
		}

		angle := float64(p.theta) * math.Pi / 180.0
		rho := float64(p.rho)
		cosA := math.Cos(angle)
		sinA := math.Sin(angle)

		// Trace edge pixels lying on this line and keep the extremes of
		// their projection along the line direction.
		var startX, startY, endX, endY int
		minProj := math.MaxFloat64
		maxProj := -math.MaxFloat64
		points := 0

		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if !edges[y][x] {
					continue
				}
				dist := math.Abs(float64(x)*cosA + float64(y)*sinA - rho)
				if dist >= 2.0 {
					continue
				}
				points++
				// Projection onto the line direction (perpendicular to the
				// normal used for rho).
				proj := float64(x)*(-sinA) + float64(y)*cosA
				if proj < minProj {
					minProj = proj
					startX, startY = x, y
				}
				if proj > maxProj {
					maxProj = proj
					endX, endY = x, y
				}
			}
		}

		if points < minLength {
			continue
		}

		dx := float64(endX - startX)
		dy := float64(endY - startY)
		length := math.Sqrt(dx*dx + dy*dy)
		if length < float64(minLength) {
			continue
		}

		angleDeg := math.Atan2(dy, dx) * 180 / math.Pi
		// Orientation is direction-free: fold into [0, 180).
		if angleDeg < 0 {
			angleDeg += 180
		}
		if angleDeg >= 180 {
			angleDeg -= 180
		}

		segments = append(segments, segment{
			length:       length,
			angleDegrees: angleDeg,
		})
	}

	return segments
}
