// Package parallel provides the tiling and worker infrastructure the
// software backend uses to run pipeline stages as grids of independent
// workers.
//
// Per-pixel stages split the image into square tiles (32x32 by default)
// that are processed independently. 1-D stages split an element range
// into spans. Every tile or span becomes one work item on a WorkerPool,
// and WorkerPool.ExecuteAll returns only when the whole grid finished.
//
// Thread safety: TileGrid is immutable after construction and safe for
// concurrent reads.
package parallel

import "image"

// Tile is a rectangular region of the pixel grid processed by one worker.
// Edge tiles may be smaller than the grid's tile size when the image is
// not evenly divisible.
type Tile struct {
	// X is the tile column index (0-based).
	X int

	// Y is the tile row index (0-based).
	Y int

	// Bounds is the pixel rectangle covered by the tile, in image space.
	Bounds image.Rectangle
}

// Width returns the tile width in pixels.
func (t Tile) Width() int { return t.Bounds.Dx() }

// Height returns the tile height in pixels.
func (t Tile) Height() int { return t.Bounds.Dy() }

// Pixels returns the number of pixels in the tile.
func (t Tile) Pixels() int { return t.Bounds.Dx() * t.Bounds.Dy() }

// Contains returns true if the pixel (px, py) is within this tile.
func (t Tile) Contains(px, py int) bool {
	return image.Pt(px, py).In(t.Bounds)
}

// Span is a half-open element range [Lo, Hi) processed by one worker.
type Span struct {
	Lo, Hi int
}

// Len returns the number of elements in the span.
func (s Span) Len() int { return s.Hi - s.Lo }

// Spans splits [0, n) into consecutive spans of at most size elements.
// The last span may be shorter. Returns nil if n <= 0.
func Spans(n, size int) []Span {
	if n <= 0 {
		return nil
	}
	if size <= 0 {
		size = n
	}
	spans := make([]Span, 0, (n+size-1)/size)
	for lo := 0; lo < n; lo += size {
		spans = append(spans, Span{Lo: lo, Hi: min(lo+size, n)})
	}
	return spans
}
