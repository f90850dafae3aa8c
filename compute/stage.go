// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compute

import "fmt"

// Stage identifies one kernel of the filter pipeline.
type Stage int

const (
	// StageGradient computes the Sobel gradient magnitude of one working
	// channel. Inputs: channel. Output: scratch buffer.
	StageGradient Stage = iota

	// StageMix combines three gradient maps with an elementwise maximum.
	// Inputs: three gradient maps. Output: edge map.
	StageMix

	// StageSmooth applies one 3x3 box-blur pass.
	// Inputs: current buffer. Output: next buffer.
	StageSmooth

	// StageMaxReduce writes the maximum of every GroupSize-element block
	// of its input. Inputs: array of Length elements.
	// Output: array of ceil(Length/GroupSize) partial maxima.
	StageMaxReduce

	// StageNormalize divides the edge map by the scalar at index 0 of the
	// maximum buffer, in place. A zero maximum yields an all-zero map.
	// Inputs: edge map, maximum. Output: the same edge map.
	StageNormalize

	// StageBlend blends the original channel with its 3x3 average into a
	// byte-domain output. The weight is the smaller of the normalized edge
	// strength and the normalized smoothed support map.
	// Inputs: channel, edge strength, edge support. Output: output buffer.
	StageBlend

	// StageCount is the number of stages.
	StageCount
)

// String returns the stage name used in logs and shader labels.
func (s Stage) String() string {
	switch s {
	case StageGradient:
		return "gradient"
	case StageMix:
		return "mix"
	case StageSmooth:
		return "smooth"
	case StageMaxReduce:
		return "max_reduce"
	case StageNormalize:
		return "normalize"
	case StageBlend:
		return "blend"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Valid reports whether s names a pipeline stage.
func (s Stage) Valid() bool {
	return s >= 0 && s < StageCount
}

// Inputs returns the number of input buffers the stage reads.
func (s Stage) Inputs() int {
	switch s {
	case StageMix, StageBlend:
		return 3
	case StageNormalize:
		return 2
	case StageGradient, StageSmooth, StageMaxReduce:
		return 1
	default:
		return 0
	}
}

// PerPixel reports whether the stage runs over the 2-D pixel grid
// (tiles) rather than a 1-D element range.
func (s Stage) PerPixel() bool {
	return s == StageGradient || s == StageSmooth || s == StageBlend
}
