package edgeblend

import (
	"fmt"

	"github.com/gogpu/edgeblend/compute"
	"github.com/gogpu/edgeblend/internal/plane"
)

// Planes holds three 8-bit channel planes of identical size, row-major,
// height*width samples each. The pipeline overwrites them in place.
type Planes [compute.Channels][]byte

// Validate checks the pipeline preconditions for an image of the given
// size: positive dimensions, height*width samples per plane and no two
// planes sharing memory.
func (p Planes) Validate(height, width int) error {
	if height <= 0 || width <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	n, err := plane.Len(height, width)
	if err != nil {
		return &AllocationError{What: "planes", Err: err}
	}
	for c, pl := range p {
		if len(pl) != n {
			return fmt.Errorf("%w: plane %d has %d samples, want %d (%dx%d)",
				ErrDimensionMismatch, c, len(pl), n, width, height)
		}
	}
	for a := 0; a < len(p); a++ {
		for b := a + 1; b < len(p); b++ {
			if plane.Overlaps(p[a], p[b]) {
				return fmt.Errorf("%w: planes %d and %d", ErrAliasedPlanes, a, b)
			}
		}
	}
	return nil
}
