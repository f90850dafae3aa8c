package filter

import "image"

// Smooth writes the 3x3 box average of src into dst for the pixels of r,
// with clamp-to-edge reads. src and dst must not alias; iterated smoothing
// alternates between two planes.
func Smooth(src, dst []float32, width, height int, r image.Rectangle) {
	r = clipRect(r, width, height)

	var n [9]float32
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			neighborhood(src, width, height, x, y, &n)
			dst[y*width+x] = box3x3(&n)
		}
	}
}
