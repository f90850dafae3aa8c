package filter

import "image"

// clampInt clamps an integer to [minVal, maxVal].
func clampInt(v, minVal, maxVal int) int {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clipRect intersects r with the width x height image.
func clipRect(r image.Rectangle, width, height int) image.Rectangle {
	return r.Intersect(image.Rect(0, 0, width, height))
}

// neighborhood loads the 3x3 block around (x, y) with edge extension.
// n[0..2] is the row above, n[3..5] the current row, n[6..8] the row below.
func neighborhood(src []float32, width, height, x, y int, n *[9]float32) {
	xs := [3]int{clampInt(x-1, 0, width-1), x, clampInt(x+1, 0, width-1)}
	ys := [3]int{clampInt(y-1, 0, height-1), y, clampInt(y+1, 0, height-1)}

	for j, yy := range ys {
		row := src[yy*width : yy*width+width]
		for i, xx := range xs {
			n[j*3+i] = row[xx]
		}
	}
}

// mirrorInt reflects v into [0, n-1] without repeating the edge sample
// (-1 maps to 1, n maps to n-2). A single-sample axis maps to 0.
func mirrorInt(v, n int) int {
	if n == 1 {
		return 0
	}
	if v < 0 {
		v = -v
	}
	if v >= n {
		v = 2*n - 2 - v
	}
	return v
}

// mirrorNeighborhood loads the 3x3 block around (x, y) with mirrored
// reads past the border. The center sample is never duplicated into the
// block, so an isolated impulse has zero Sobel response at its own
// position even on the border.
func mirrorNeighborhood(src []float32, width, height, x, y int, n *[9]float32) {
	xs := [3]int{mirrorInt(x-1, width), x, mirrorInt(x+1, width)}
	ys := [3]int{mirrorInt(y-1, height), y, mirrorInt(y+1, height)}

	for j, yy := range ys {
		row := src[yy*width : yy*width+width]
		for i, xx := range xs {
			n[j*3+i] = row[xx]
		}
	}
}

// box3x3 returns the average of the 3x3 neighborhood n.
func box3x3(n *[9]float32) float32 {
	var sum float32
	for _, v := range n {
		sum += v
	}
	return sum / 9
}
