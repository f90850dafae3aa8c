// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compute

import (
	"errors"
	"fmt"
)

// ErrInvalidLaunch is returned when a launch descriptor does not match the
// contract of its stage.
var ErrInvalidLaunch = errors.New("compute: invalid launch")

// Launch describes a single stage invocation over a session's buffers.
type Launch struct {
	// Stage is the kernel to run.
	Stage Stage

	// Inputs are the buffers the stage reads, in the order documented on
	// each Stage constant.
	Inputs []BufferID

	// Output is the buffer the stage writes.
	Output BufferID

	// Length is the element count of 1-D stages (mix, max reduce,
	// normalize). Per-pixel stages always cover the full grid and ignore it.
	Length int
}

// Validate checks l against the stage contract for a session configured
// with cfg.
func (l Launch) Validate(cfg Config) error {
	if !l.Stage.Valid() {
		return fmt.Errorf("%w: unknown stage %d", ErrInvalidLaunch, int(l.Stage))
	}
	if len(l.Inputs) != l.Stage.Inputs() {
		return fmt.Errorf("%w: %s takes %d inputs, got %d",
			ErrInvalidLaunch, l.Stage, l.Stage.Inputs(), len(l.Inputs))
	}
	if !l.Output.Valid() {
		return fmt.Errorf("%w: %s output %s", ErrInvalidLaunch, l.Stage, l.Output)
	}
	for _, in := range l.Inputs {
		if !in.Valid() || in.IsOutput() {
			return fmt.Errorf("%w: %s input %s is not a float buffer", ErrInvalidLaunch, l.Stage, in)
		}
	}
	if l.Stage == StageBlend {
		if !l.Output.IsOutput() {
			return fmt.Errorf("%w: blend must write an output buffer, got %s", ErrInvalidLaunch, l.Output)
		}
	} else if l.Output.IsOutput() {
		return fmt.Errorf("%w: %s cannot write byte buffer %s", ErrInvalidLaunch, l.Stage, l.Output)
	}

	switch l.Stage {
	case StageNormalize:
		// In place on the edge map; the maximum must live elsewhere.
		if l.Output != l.Inputs[0] {
			return fmt.Errorf("%w: normalize runs in place, output %s != input %s",
				ErrInvalidLaunch, l.Output, l.Inputs[0])
		}
		if l.Inputs[1] == l.Output {
			return fmt.Errorf("%w: normalize maximum aliases the edge map", ErrInvalidLaunch)
		}
	default:
		for _, in := range l.Inputs {
			if in == l.Output {
				return fmt.Errorf("%w: %s reads and writes %s", ErrInvalidLaunch, l.Stage, in)
			}
		}
	}

	if !l.Stage.PerPixel() {
		if l.Length < 1 || l.Length > cfg.Pixels() {
			return fmt.Errorf("%w: %s length %d outside [1, %d]",
				ErrInvalidLaunch, l.Stage, l.Length, cfg.Pixels())
		}
	}
	return nil
}
