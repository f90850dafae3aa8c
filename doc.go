// Package edgeblend provides an edge-aware adaptive image filter.
//
// # Overview
//
// edgeblend estimates where an image has strong structure and blends, per
// pixel, between the original sample and a local 3x3 average: edges stay
// crisp while noise in flat regions is suppressed. The estimation runs as a
// data-parallel pipeline on a compute backend, either the CPU (always
// available) or a GPU through gogpu/wgpu.
//
// # Quick Start
//
//	import "github.com/gogpu/edgeblend"
//
//	// Filter three 8-bit planes in place.
//	err := edgeblend.Enhance(edgeblend.Planes{r, g, b}, height, width)
//
//	// Or filter an image.Image.
//	out, err := edgeblend.EnhanceImage(img)
//
// To run on the GPU, import the backend for its side effect:
//
//	import _ "github.com/gogpu/edgeblend/backend/wgpu"
//
// # Pipeline
//
// One run executes these stages, each finishing completely before the next
// begins:
//   - gradient: Sobel magnitude of each channel, mirrored borders
//   - mix: per-pixel maximum of the three channel gradients
//   - max reduce + normalize: the mixed map divided by its global maximum
//     (the edge strength), leaving zeros when the maximum is zero
//   - smooth: Iterations passes of a 3x3 box blur over the strength
//   - max reduce + normalize: the same for the smoothed map (the support)
//   - blend: w*orig + (1-w)*box3x3(orig) with w = min(strength, support),
//     clamped and rounded
//
// A lone outlier sample has no Sobel response at its own position, so its
// weight is zero and it is replaced by its neighborhood average.
//
// # Reusing a backend
//
// Enhance acquires and releases a backend on every call. To filter many
// images, create a Pipeline once:
//
//	p, err := edgeblend.NewPipeline(edgeblend.WithBackend("wgpu"))
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//	stats, err := p.Run(planes, height, width)
//
// # Backend selection
//
// Without WithBackend or WithDevice, the backend named by the
// EDGEBLEND_BACKEND environment variable is used. If that is empty too, the
// registered backends are tried in priority order (wgpu, then software).
//
// # Logging
//
// edgeblend is silent by default. Call SetLogger to enable log output.
package edgeblend
