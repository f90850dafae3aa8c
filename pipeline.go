package edgeblend

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/edgeblend/backend"
	"github.com/gogpu/edgeblend/compute"
	"github.com/gogpu/edgeblend/internal/plane"
)

// Per-pixel byte costs used to turn WithMaxPixels into memory limits.
const (
	// sessionBytesPerPixel: channel, scratch and edge planes in float32
	// plus the three byte outputs.
	sessionBytesPerPixel = int64(compute.BufOutput0)*4 + compute.Channels

	// hostBytesPerPixel: promoted channels plus staged outputs.
	hostBytesPerPixel = compute.Channels*4 + compute.Channels

	// hostPoolBytes caps the float host planes a pipeline keeps between
	// runs; byte planes are capped at a quarter of it.
	hostPoolBytes = 128 << 20
)

// memoryLimiter is implemented by devices that cap session allocations.
type memoryLimiter interface {
	SetMemoryLimit(bytes int64)
}

// Pipeline runs the filter on one acquired backend. It is safe for
// concurrent use; runs are serialized.
type Pipeline struct {
	mu        sync.Mutex
	device    backend.Device
	owned     bool
	cfg       compute.Config
	maxPixels int
	closed    bool

	floats *plane.Pool[float32]
	bytes  *plane.Pool[byte]
}

// NewPipeline validates the options and acquires a backend.
//
// A backend that cannot be acquired yields a *BackendError naming the
// failed step. With an explicit backend (WithBackend or EDGEBLEND_BACKEND)
// that is fatal; otherwise the registered backends are tried in priority
// order and the error of the last one is returned.
func NewPipeline(opts ...Option) (*Pipeline, error) {
	o := newOptions(opts)
	if err := o.validate(); err != nil {
		return nil, err
	}
	if o.maxPixels < 0 {
		return nil, fmt.Errorf("%w: max pixels %d", ErrInvalidConfig, o.maxPixels)
	}

	d, owned, err := acquireDevice(&o)
	if err != nil {
		return nil, err
	}
	if lim, ok := d.(memoryLimiter); ok && o.maxPixels > 0 {
		lim.SetMemoryLimit(int64(o.maxPixels) * sessionBytesPerPixel)
	}
	trackDevice(d)

	Logger().Info("edgeblend: pipeline ready",
		"backend", d.Name(),
		"iterations", o.cfg.Iterations,
		"group_size", o.cfg.GroupSize,
		"tile_size", o.cfg.TileSize)

	return &Pipeline{
		device:    d,
		owned:     owned,
		cfg:       o.cfg,
		maxPixels: o.maxPixels,
		floats:    plane.NewPool[float32](compute.Channels, hostPoolBytes),
		bytes:     plane.NewPool[byte](compute.Channels, hostPoolBytes/4),
	}, nil
}

// acquireDevice resolves and initializes the device selected by o.
// The bool reports whether the pipeline owns the device and must close it.
func acquireDevice(o *options) (backend.Device, bool, error) {
	switch {
	case o.device != nil:
		if err := o.device.Init(); err != nil {
			return nil, false, backendError(o.device.Name(), err)
		}
		return o.device, false, nil

	case o.backend != "":
		d := backend.Get(o.backend)
		if d == nil {
			return nil, false, &BackendError{
				Backend: o.backend,
				Step:    StepLookup,
				Err:     fmt.Errorf("%w (registered: %v)", backend.ErrBackendNotAvailable, backend.Available()),
			}
		}
		if err := d.Init(); err != nil {
			return nil, false, backendError(o.backend, err)
		}
		return d, true, nil

	default:
		d, err := backend.InitDefault()
		if err != nil {
			return nil, false, backendError("default", err)
		}
		return d, true, nil
	}
}

// backendError converts a device initialization failure into a
// *BackendError, keeping the step reported by the backend.
func backendError(name string, err error) error {
	be := &BackendError{Backend: name, Step: "init", Err: err}
	var ie *backend.InitError
	if errors.As(err, &ie) {
		be.Backend = ie.Backend
		be.Step = ie.Step
	} else if errors.Is(err, backend.ErrBackendNotAvailable) {
		be.Step = StepLookup
	}
	return be
}

// Backend returns the name of the backend the pipeline runs on.
func (p *Pipeline) Backend() string {
	return p.device.Name()
}

// Close drops the pooled host planes and releases the backend unless it
// was supplied with WithDevice. It is idempotent.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.floats.Drain()
	p.bytes.Drain()
	untrackDevice(p.device)
	if p.owned {
		p.device.Close()
	}
}

// Run filters planes in place. On error the planes are left untouched.
func (p *Pipeline) Run(planes Planes, height, width int) (Stats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return Stats{}, ErrClosed
	}
	if err := planes.Validate(height, width); err != nil {
		return Stats{}, err
	}
	n := height * width
	if p.maxPixels > 0 && n > p.maxPixels {
		return Stats{}, &AllocationError{
			What:  "planes",
			Bytes: int64(n) * sessionBytesPerPixel,
			Err:   fmt.Errorf("%w: %d pixels > %d", plane.ErrLimitExceeded, n, p.maxPixels),
		}
	}

	cfg := p.cfg
	cfg.Width, cfg.Height = width, height
	r := &run{
		cfg:   cfg,
		stats: Stats{Backend: p.device.Name(), Width: width, Height: height},
	}
	start := time.Now()

	// Host buffers: promoted channels and staged outputs.
	var hostLimit int64
	if p.maxPixels > 0 {
		hostLimit = int64(p.maxPixels) * hostBytesPerPixel
	}
	arena := plane.NewArena(p.floats, p.bytes, hostLimit)
	defer arena.Release()

	var working [compute.Channels][]float32
	var staged [compute.Channels][]byte
	for c := range compute.Channels {
		var err error
		if working[c], err = arena.Floats(n); err != nil {
			return Stats{}, &AllocationError{What: "working plane", Bytes: int64(n) * 4, Err: err}
		}
		if staged[c], err = arena.Bytes(n); err != nil {
			return Stats{}, &AllocationError{What: "output plane", Bytes: int64(n), Err: err}
		}
	}

	sess, err := p.device.NewSession(cfg)
	if err != nil {
		if errors.Is(err, backend.ErrOutOfMemory) {
			return Stats{}, &AllocationError{What: "session buffers", Bytes: int64(n) * sessionBytesPerPixel, Err: err}
		}
		return Stats{}, &DeviceError{Backend: p.device.Name(), Op: OpNewSession, Err: err}
	}
	defer sess.Release()
	r.sess = sess

	var g errgroup.Group
	for c := range compute.Channels {
		g.Go(func() error {
			plane.Promote(working[c], planes[c])
			return nil
		})
	}
	_ = g.Wait() // promotion cannot fail
	if err := sess.Upload(working); err != nil {
		return Stats{}, &DeviceError{Backend: p.device.Name(), Op: OpUpload, Err: err}
	}

	if err := r.execute(); err != nil {
		return Stats{}, err
	}

	if err := sess.Download(staged); err != nil {
		return Stats{}, &DeviceError{Backend: p.device.Name(), Op: OpDownload, Err: err}
	}
	var out errgroup.Group
	for c := range compute.Channels {
		out.Go(func() error {
			copy(planes[c], staged[c])
			return nil
		})
	}
	_ = out.Wait()

	r.stats.Total = time.Since(start)
	Logger().Debug("edgeblend: run complete", "stats", r.stats)
	return r.stats, nil
}

// run sequences the stage launches of one pipeline run.
type run struct {
	cfg   compute.Config
	sess  backend.Session
	stats Stats
}

// dispatch runs one launch and accounts its duration.
func (r *run) dispatch(l compute.Launch) error {
	start := time.Now()
	err := r.sess.Dispatch(l)
	r.stats.Stages[l.Stage] += time.Since(start)
	if err != nil {
		return &StageError{Stage: l.Stage, Err: err}
	}
	return nil
}

// execute issues gradient, mix, the strength reduction and normalize,
// smooth, the support reduction and normalize, and blend. Every dispatch
// returns after its whole grid completed.
//
// Buffer plan: gradients land in scratch0..2 and are mixed into the edge
// buffer, which then holds the normalized strength for the rest of the
// run. Smoothing starts from the edge buffer and alternates between
// scratch0 and scratch1; reductions use the two scratch buffers that do
// not hold their source.
func (r *run) execute() error {
	n := r.cfg.Pixels()

	for c := range compute.Channels {
		if err := r.dispatch(compute.Launch{
			Stage:  compute.StageGradient,
			Inputs: []compute.BufferID{compute.ChannelBuffer(c)},
			Output: compute.ScratchBuffer(c),
		}); err != nil {
			return err
		}
	}

	if err := r.dispatch(compute.Launch{
		Stage:  compute.StageMix,
		Inputs: []compute.BufferID{compute.BufScratch0, compute.BufScratch1, compute.BufScratch2},
		Output: compute.BufEdge,
		Length: n,
	}); err != nil {
		return err
	}

	var err error
	if r.stats.EdgeMax, err = r.normalize(compute.BufEdge, n); err != nil {
		return err
	}

	support := compute.BufEdge
	smooth := compute.NewPingPong(compute.BufScratch1, compute.BufScratch0)
	for range r.cfg.Iterations {
		if err := r.dispatch(compute.Launch{
			Stage:  compute.StageSmooth,
			Inputs: []compute.BufferID{support},
			Output: smooth.Next(),
		}); err != nil {
			return err
		}
		smooth = smooth.Swap()
		support = smooth.Current()
	}

	if r.stats.Max, err = r.normalize(support, n); err != nil {
		return err
	}

	for c := range compute.Channels {
		if err := r.dispatch(compute.Launch{
			Stage:  compute.StageBlend,
			Inputs: []compute.BufferID{compute.ChannelBuffer(c), compute.BufEdge, support},
			Output: compute.OutputBuffer(c),
		}); err != nil {
			return err
		}
	}
	return nil
}

// normalize finds the maximum of the n elements of src and divides src by
// it in place. It returns the maximum.
func (r *run) normalize(src compute.BufferID, n int) (float32, error) {
	maxBuf, err := r.reduce(src, n)
	if err != nil {
		return 0, err
	}

	peak := make([]float32, 1)
	if err := r.sess.Read(maxBuf, peak); err != nil {
		return 0, &StageError{Stage: compute.StageMaxReduce, Err: err}
	}

	if err := r.dispatch(compute.Launch{
		Stage:  compute.StageNormalize,
		Inputs: []compute.BufferID{src, maxBuf},
		Output: src,
		Length: n,
	}); err != nil {
		return 0, err
	}
	return peak[0], nil
}

// reducePair returns the two scratch buffers a reduction of src may use.
func reducePair(src compute.BufferID) compute.PingPong {
	switch src {
	case compute.BufScratch1:
		return compute.NewPingPong(compute.BufScratch0, compute.BufScratch2)
	case compute.BufScratch2:
		return compute.NewPingPong(compute.BufScratch0, compute.BufScratch1)
	default:
		return compute.NewPingPong(compute.BufScratch1, compute.BufScratch2)
	}
}

// reduce runs max-reduction passes over the n elements of src, alternating
// between two scratch buffers other than src, and returns the buffer whose
// first element is the global maximum. At least one pass runs so the
// result never lives in src.
func (r *run) reduce(src compute.BufferID, n int) (compute.BufferID, error) {
	passes := compute.ReductionPasses(n, r.cfg.GroupSize)
	if len(passes) == 0 {
		passes = []int{1}
	}

	pair := reducePair(src)
	length := n
	for _, out := range passes {
		if err := r.dispatch(compute.Launch{
			Stage:  compute.StageMaxReduce,
			Inputs: []compute.BufferID{src},
			Output: pair.Current(),
			Length: length,
		}); err != nil {
			return 0, err
		}
		Logger().Debug("edgeblend: reduction pass", "in", length, "out", out)
		src = pair.Current()
		pair = pair.Swap()
		length = out
	}
	r.stats.ReductionPasses = len(passes)
	return src, nil
}
