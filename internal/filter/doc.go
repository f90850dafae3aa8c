// Package filter provides the CPU kernels of the edge-aware blend pipeline.
//
// This package contains one kernel per pipeline stage:
//   - Sobel gradient magnitude (3x3, mirrored borders)
//   - Cross-channel mix (elementwise maximum)
//   - Box smoothing of the edge map (3x3, clamp-to-edge)
//   - Block max reduction (tree reduction over a power-of-two group)
//   - Normalization by the global maximum (zero guarded)
//   - Adaptive blend between original and 3x3 box average, weighted by
//     the smaller of edge strength and smoothed support
//
// Per-pixel kernels operate on a sub-rectangle of the image so that the
// software backend can run them tile by tile; element-wise kernels operate
// on a half-open index range. Neighborhood reads always come from a
// source plane distinct from the destination, so tiles never observe each
// other's writes.
//
// All planes are row-major with Height*Width samples.
package filter
