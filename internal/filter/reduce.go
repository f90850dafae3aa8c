package filter

import (
	"math"
	"sync"
)

// lowest pads lanes past the end of the input; it never wins a comparison
// against a finite edge value.
const lowest = -math.MaxFloat32

// floatBuffer wraps a slice for sync.Pool to avoid allocation warnings.
type floatBuffer struct {
	data []float32
}

// Scratch pool for reduction groups.
var groupPool = sync.Pool{
	New: func() interface{} {
		return &floatBuffer{data: make([]float32, 1024)}
	},
}

func getGroup(size int) *floatBuffer {
	wrapper := groupPool.Get().(*floatBuffer)
	if cap(wrapper.data) < size {
		wrapper.data = make([]float32, size)
	}
	wrapper.data = wrapper.data[:size]
	return wrapper
}

// ReduceMaxGroup reduces group g of src[:n] to its maximum.
// The group covers elements [g*groupSize, (g+1)*groupSize); lanes past n
// are padded with the lowest float32. groupSize must be a power of two.
// Each round halves the live lanes, mirroring the shared-memory tree the
// GPU kernel runs.
func ReduceMaxGroup(src []float32, n, g, groupSize int) float32 {
	buf := getGroup(groupSize)
	defer groupPool.Put(buf)

	lanes := buf.data
	base := g * groupSize
	for i := range lanes {
		if idx := base + i; idx < n {
			lanes[i] = src[idx]
		} else {
			lanes[i] = lowest
		}
	}

	for stride := groupSize / 2; stride > 0; stride /= 2 {
		for i := 0; i < stride; i++ {
			if lanes[i+stride] > lanes[i] {
				lanes[i] = lanes[i+stride]
			}
		}
	}
	return lanes[0]
}

// ReducePass writes the maxima of groups [lo, hi) of src[:n] into dst.
// src and dst must not alias.
func ReducePass(src, dst []float32, n, groupSize, lo, hi int) {
	for g := lo; g < hi; g++ {
		dst[g] = ReduceMaxGroup(src, n, g, groupSize)
	}
}

// ReduceMax returns the maximum of src by repeated passes of groupSize,
// using tmp (at least ceil(len(src)/groupSize) elements) as pass output.
// It is the serial reference for the staged reduction; src is not
// modified. Returns the lowest float32 for an empty src.
func ReduceMax(src, tmp []float32, groupSize int) float32 {
	n := len(src)
	if n == 0 {
		return lowest
	}
	if n == 1 {
		return src[0]
	}

	in := src
	for n > 1 {
		groups := (n + groupSize - 1) / groupSize
		out := tmp[:groups]
		// Group g writes index g, which no later group reads.
		ReducePass(in, out, n, groupSize, 0, groups)
		in, n = out, groups
	}
	return in[0]
}
