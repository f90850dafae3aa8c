package edgeblend

import (
	"image"

	"github.com/gogpu/edgeblend/internal/imageio"
)

// Enhance filters three channel planes of a height x width image in place.
// It acquires a backend, runs the pipeline once and releases the backend.
//
// Errors match ErrBackendUnavailable, ErrAllocation, ErrInvalidDimensions,
// ErrDimensionMismatch, ErrAliasedPlanes, ErrInvalidConfig, ErrStageFailed
// or ErrDevice. On error the planes are left untouched.
func Enhance(planes Planes, height, width int, opts ...Option) error {
	// Reject bad input before touching a device.
	if err := planes.Validate(height, width); err != nil {
		return err
	}
	p, err := NewPipeline(opts...)
	if err != nil {
		return err
	}
	defer p.Close()

	_, err = p.Run(planes, height, width)
	return err
}

// EnhanceImage filters a copy of img and returns it. The alpha channel
// passes through unchanged; color channels are filtered non-premultiplied.
func EnhanceImage(img image.Image, opts ...Option) (*image.NRGBA, error) {
	c := imageio.Split(img)
	if err := Enhance(Planes(c.Planes), c.Height, c.Width, opts...); err != nil {
		return nil, err
	}
	return c.Image(), nil
}
