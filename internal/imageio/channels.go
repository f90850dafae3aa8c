package imageio

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// Channels holds an image as three non-premultiplied 8-bit color planes
// plus alpha, row-major, Width*Height samples each.
type Channels struct {
	Width, Height int
	Planes        [3][]byte
	Alpha         []byte
}

// newChannels allocates zeroed color and alpha planes for a width x height
// image.
func newChannels(width, height int) *Channels {
	n := width * height
	c := &Channels{Width: width, Height: height, Alpha: make([]byte, n)}
	for i := range c.Planes {
		c.Planes[i] = make([]byte, n)
	}
	return c
}

// Split converts img to channel planes. Images other than *image.NRGBA are
// first converted with draw.Draw.
func Split(img image.Image) *Channels {
	src := toNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	c := newChannels(w, h)

	dsts := [4][]byte{c.Planes[0], c.Planes[1], c.Planes[2], c.Alpha}
	var g errgroup.Group
	for k, dst := range dsts {
		g.Go(func() error {
			for y := range h {
				row := src.Pix[y*src.Stride : y*src.Stride+w*4]
				out := dst[y*w : (y+1)*w]
				for x := range out {
					out[x] = row[x*4+k]
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return c
}

// Image merges the planes back into an *image.NRGBA.
func (c *Channels) Image() *image.NRGBA {
	w, h := c.Width, c.Height
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	srcs := [4][]byte{c.Planes[0], c.Planes[1], c.Planes[2], c.Alpha}
	var g errgroup.Group
	for k, src := range srcs {
		g.Go(func() error {
			for y := range h {
				row := img.Pix[y*img.Stride : y*img.Stride+w*4]
				in := src[y*w : (y+1)*w]
				for x, v := range in {
					row[x*4+k] = v
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return img
}

// toNRGBA returns img as an *image.NRGBA whose bounds start at the origin.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
