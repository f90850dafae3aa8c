package filter

import "image"

// Blend writes the edge-aware mix of orig and its 3x3 box average into dst
// for the pixels of r:
//
//	w = min(clamp(strength, 0, 1), clamp(support, 0, 1))
//	v = w*orig + (1-w)*box3x3(orig)
//
// strength is the normalized raw edge map and support its normalized
// smoothed copy. Strong edges (w near 1) keep the original sample; flat
// regions and isolated impulses (w near 0) take the smoothed one. v is
// clamped to [0, 255] and rounded.
func Blend(orig, strength, support []float32, dst []byte, width, height int, r image.Rectangle) {
	r = clipRect(r, width, height)

	var n [9]float32
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i := y*width + x
			neighborhood(orig, width, height, x, y, &n)

			w := min(clampUnit(strength[i]), clampUnit(support[i]))
			dst[i] = clampUint8(w*orig[i] + (1-w)*box3x3(&n))
		}
	}
}

// clampUnit clamps v to [0, 1], mapping NaN to 0.
func clampUnit(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// clampUint8 clamps a float32 to [0, 255] and converts to uint8.
// NaN maps to 0.
func clampUint8(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5) // Round to nearest
}
