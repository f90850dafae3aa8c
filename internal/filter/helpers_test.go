package filter

// Test helper functions shared across filter tests.

// filled returns a plane of n samples set to v.
func filled(n int, v float32) []float32 {
	p := make([]float32, n)
	for i := range p {
		p[i] = v
	}
	return p
}

// verticalEdge returns a plane that is 0 left of column edgeX and 255 from it.
func verticalEdge(w, h, edgeX int) []float32 {
	p := make([]float32, w*h)
	for y := range h {
		for x := edgeX; x < w; x++ {
			p[y*w+x] = 255
		}
	}
	return p
}

// pattern returns a deterministic non-trivial plane with byte-range values.
func pattern(w, h int) []float32 {
	p := make([]float32, w*h)
	for i := range p {
		p[i] = float32((i*37 + (i/w)*11) % 256)
	}
	return p
}
