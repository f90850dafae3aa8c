package filter

// Normalize scales edge[lo:hi] in place by the global maximum.
// When maxVal is not positive the edge map is degenerate (a flat image)
// and every element is set to zero instead of dividing.
func Normalize(edge []float32, maxVal float32, lo, hi int) {
	if !(maxVal > 0) {
		clear(edge[lo:hi])
		return
	}
	for i := lo; i < hi; i++ {
		edge[i] /= maxVal
	}
}
