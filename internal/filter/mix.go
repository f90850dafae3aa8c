package filter

// Mix combines three gradient planes into one edge map over [lo, hi):
// dst[i] = max(a[i], b[i], c[i]). The result is independent of argument
// order and never decreases when any input increases. dst may not alias
// an input.
func Mix(a, b, c, dst []float32, lo, hi int) {
	for i := lo; i < hi; i++ {
		dst[i] = max(a[i], b[i], c[i])
	}
}
