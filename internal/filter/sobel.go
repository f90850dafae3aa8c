package filter

import (
	"image"
	"math"
)

// Gradient writes the Sobel gradient magnitude of src into dst for the
// pixels of r. The magnitude is sqrt(gx*gx + gy*gy) with
//
//	gx = [-1 0 1; -2 0 2; -1 0 1]
//	gy = [-1 -2 -1; 0 0 0; 1 2 1]
//
// Reads past the image border are mirrored (-1 reads 1), so a flat plane
// yields exactly zero everywhere and a lone outlier sample never
// responds at its own position. src and dst must not alias.
func Gradient(src, dst []float32, width, height int, r image.Rectangle) {
	r = clipRect(r, width, height)

	var n [9]float32
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			mirrorNeighborhood(src, width, height, x, y, &n)
			dst[y*width+x] = sobel(&n)
		}
	}
}

func sobel(n *[9]float32) float32 {
	gx := (n[2] + 2*n[5] + n[8]) - (n[0] + 2*n[3] + n[6])
	gy := (n[6] + 2*n[7] + n[8]) - (n[0] + 2*n[1] + n[2])
	return float32(math.Sqrt(float64(gx*gx + gy*gy)))
}
