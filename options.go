package edgeblend

import (
	"os"

	"github.com/gogpu/edgeblend/backend"
	"github.com/gogpu/edgeblend/compute"
)

// EnvBackend names the environment variable consulted for the backend when
// neither WithBackend nor WithDevice is given.
const EnvBackend = "EDGEBLEND_BACKEND"

// Option configures Enhance and NewPipeline.
//
// Example:
//
//	// Default backend selection and tunables
//	err := edgeblend.Enhance(planes, h, w)
//
//	// Force the CPU with four smoothing passes
//	err := edgeblend.Enhance(planes, h, w,
//	    edgeblend.WithBackend("software"),
//	    edgeblend.WithIterations(4))
type Option func(*options)

// options holds the configuration collected from Options.
type options struct {
	backend   string
	device    backend.Device
	cfg       compute.Config
	maxPixels int
}

// defaultOptions returns the default options.
func defaultOptions() options {
	return options{
		backend: os.Getenv(EnvBackend),
	}
}

func newOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.cfg = o.cfg.WithDefaults()
	return o
}

// validate checks the tunables independent of image size.
func (o *options) validate() error {
	check := o.cfg
	check.Width, check.Height = 1, 1
	return check.Validate()
}

// WithBackend selects a registered backend by name ("software", "wgpu").
// Initialization failure of a named backend is fatal; there is no
// fallback.
func WithBackend(name string) Option {
	return func(o *options) {
		o.backend = name
	}
}

// WithDevice runs the pipeline on d instead of a registry backend.
// d is initialized if needed but never closed by the pipeline.
// WithDevice takes precedence over WithBackend.
func WithDevice(d backend.Device) Option {
	return func(o *options) {
		o.device = d
	}
}

// WithIterations sets the number of smoothing passes (default 8).
func WithIterations(n int) Option {
	return func(o *options) {
		o.cfg.Iterations = n
	}
}

// WithGroupSize sets the max-reduction worker-group size (default 1024).
// It must be a power of two of at least 2.
func WithGroupSize(n int) Option {
	return func(o *options) {
		o.cfg.GroupSize = n
	}
}

// WithTileSize sets the tile side used by per-pixel stages on the CPU
// (default 32).
func WithTileSize(n int) Option {
	return func(o *options) {
		o.cfg.TileSize = n
	}
}

// WithWorkers bounds the number of CPU workers (default GOMAXPROCS).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.cfg.Workers = n
	}
}

// WithMaxPixels rejects images with more than n pixels with an
// *AllocationError before any buffer is allocated. 0 means unlimited.
func WithMaxPixels(n int) Option {
	return func(o *options) {
		o.maxPixels = n
	}
}
