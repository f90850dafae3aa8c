package plane

import "unsafe"

// Promote widens 8-bit samples to float32. dst must be at least len(src).
func Promote(dst []float32, src []byte) {
	dst = dst[:len(src)]
	for i, v := range src {
		dst[i] = float32(v)
	}
}

// Overlaps reports whether a and b share any backing memory.
func Overlaps(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	a0 := uintptr(unsafe.Pointer(unsafe.SliceData(a)))
	b0 := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	a1 := a0 + uintptr(len(a))
	b1 := b0 + uintptr(len(b))
	return a0 < b1 && b0 < a1
}
