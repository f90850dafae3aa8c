// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compute

import (
	"errors"
	"fmt"
	"math/bits"
)

// Default pipeline tunables.
const (
	// DefaultIterations is the number of smoothing passes over the edge map.
	DefaultIterations = 8

	// DefaultGroupSize is the number of elements reduced by one worker
	// group in a single max-reduction pass.
	DefaultGroupSize = 1024

	// DefaultTileSize is the side of the square tiles per-pixel stages are
	// split into.
	DefaultTileSize = 32
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("compute: invalid config")

// Config describes one pipeline run.
type Config struct {
	// Width is the plane width in pixels.
	Width int

	// Height is the plane height in pixels.
	Height int

	// Iterations is the number of smoothing passes.
	// If 0, defaults to DefaultIterations. Negative values are invalid.
	Iterations int

	// GroupSize is the reduction worker-group size. Must be a power of two
	// of at least 2. If 0, defaults to DefaultGroupSize.
	GroupSize int

	// TileSize is the tile side for per-pixel stages.
	// If 0, defaults to DefaultTileSize.
	TileSize int

	// Workers bounds the number of concurrent workers on CPU backends.
	// If 0 or negative, GOMAXPROCS is used.
	Workers int
}

// WithDefaults returns a copy of c with zero fields replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Iterations == 0 {
		c.Iterations = DefaultIterations
	}
	if c.GroupSize == 0 {
		c.GroupSize = DefaultGroupSize
	}
	if c.TileSize == 0 {
		c.TileSize = DefaultTileSize
	}
	return c
}

// Validate reports whether c describes a runnable pipeline.
// It expects defaults to have been applied.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.Iterations < 0 {
		return fmt.Errorf("%w: iterations %d", ErrInvalidConfig, c.Iterations)
	}
	if c.GroupSize < 2 || bits.OnesCount(uint(c.GroupSize)) != 1 {
		return fmt.Errorf("%w: group size %d is not a power of two >= 2", ErrInvalidConfig, c.GroupSize)
	}
	if c.TileSize < 1 {
		return fmt.Errorf("%w: tile size %d", ErrInvalidConfig, c.TileSize)
	}
	return nil
}

// Pixels returns Width*Height.
func (c Config) Pixels() int {
	return c.Width * c.Height
}
