package backend

import (
	"fmt"
	"sync"

	"github.com/gogpu/edgeblend/compute"
	"github.com/gogpu/edgeblend/internal/filter"
	"github.com/gogpu/edgeblend/internal/parallel"
	"github.com/gogpu/edgeblend/internal/plane"
)

// SoftwareBackend runs the pipeline on the CPU.
//
// Per-pixel stages are split into TileSize x TileSize tiles, element-wise
// stages into GroupSize spans and the max reduction into one work item per
// group. Every launch is executed as one ExecuteAll on a work-stealing
// pool, which returns only when the whole grid finished.
type SoftwareBackend struct {
	mu          sync.Mutex
	initialized bool
	maxBytes    int64

	// Session planes are recycled between runs and dropped on Close.
	floats *plane.Pool[float32]
	bytes  *plane.Pool[byte]
}

// Plane retention of a software device.
const (
	softwarePoolFloats = int(compute.BufOutput0)
	softwarePoolBytes  = 256 << 20
)

// init registers the software backend on package import.
func init() {
	Register(BackendSoftware, func() Device {
		return &SoftwareBackend{}
	})
}

// NewSoftwareBackend creates a new software backend.
func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{}
}

// Name returns the backend identifier.
func (b *SoftwareBackend) Name() string {
	return BackendSoftware
}

// Init initializes the backend.
func (b *SoftwareBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.floats == nil {
		b.floats = plane.NewPool[float32](softwarePoolFloats, softwarePoolBytes)
		b.bytes = plane.NewPool[byte](compute.Channels, softwarePoolBytes/4)
	}
	b.initialized = true
	return nil
}

// Close releases all backend resources, including pooled planes.
func (b *SoftwareBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = false
	if b.floats != nil {
		b.floats.Drain()
		b.bytes.Drain()
	}
}

// SetMemoryLimit caps the host bytes a single session may allocate.
// 0 means unlimited.
func (b *SoftwareBackend) SetMemoryLimit(bytes int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maxBytes = bytes
}

// NewSession allocates the session buffers for cfg.
func (b *SoftwareBackend) NewSession(cfg compute.Config) (Session, error) {
	b.mu.Lock()
	initialized, limit := b.initialized, b.maxBytes
	floats, bytes := b.floats, b.bytes
	b.mu.Unlock()

	if !initialized {
		return nil, ErrNotInitialized
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n, err := plane.Len(cfg.Height, cfg.Width)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}

	s := &softwareSession{
		cfg:   cfg,
		n:     n,
		arena: plane.NewArena(floats, bytes, limit),
	}
	for id := compute.BufChannel0; id < compute.BufOutput0; id++ {
		buf, err := s.arena.Floats(n)
		if err != nil {
			s.arena.Release()
			return nil, fmt.Errorf("%w: software: allocate %s: %w", ErrOutOfMemory, id, err)
		}
		s.floats[id] = buf
	}
	for c := range compute.Channels {
		buf, err := s.arena.Bytes(n)
		if err != nil {
			s.arena.Release()
			return nil, fmt.Errorf("%w: software: allocate %s: %w", ErrOutOfMemory, compute.OutputBuffer(c), err)
		}
		s.bytes[c] = buf
	}

	s.pool = parallel.NewWorkerPool(cfg.Workers)
	s.grid = parallel.NewTileGrid(cfg.Width, cfg.Height, cfg.TileSize)

	Logger().Debug("software: session created",
		"width", cfg.Width, "height", cfg.Height,
		"tiles", s.grid.TileCount(), "workers", s.pool.Workers(),
		"bytes", s.arena.Used())
	return s, nil
}

// stageFunc builds the work items of one launch.
type stageFunc func(s *softwareSession, l compute.Launch) []func() error

// stageTable maps every stage to its CPU implementation.
var stageTable = [compute.StageCount]stageFunc{
	compute.StageGradient:  (*softwareSession).gradientWork,
	compute.StageMix:       (*softwareSession).mixWork,
	compute.StageSmooth:    (*softwareSession).smoothWork,
	compute.StageMaxReduce: (*softwareSession).reduceWork,
	compute.StageNormalize: (*softwareSession).normalizeWork,
	compute.StageBlend:     (*softwareSession).blendWork,
}

type softwareSession struct {
	mu       sync.Mutex
	cfg      compute.Config
	n        int
	arena    *plane.Arena
	pool     *parallel.WorkerPool
	grid     *parallel.TileGrid
	floats   [compute.BufOutput0][]float32
	bytes    [compute.Channels][]byte
	released bool
}

// Upload copies the promoted channels into the channel buffers.
func (s *softwareSession) Upload(channels [compute.Channels][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrSessionReleased
	}
	for c, src := range channels {
		if len(src) != s.n {
			return fmt.Errorf("%w: channel %d has %d samples, want %d", ErrSizeMismatch, c, len(src), s.n)
		}
		copy(s.floats[compute.ChannelBuffer(c)], src)
	}
	return nil
}

// Dispatch validates l and runs its worker grid to completion.
func (s *softwareSession) Dispatch(l compute.Launch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrSessionReleased
	}
	if err := l.Validate(s.cfg); err != nil {
		return err
	}

	work := stageTable[l.Stage](s, l)
	Logger().Debug("software: dispatch",
		"stage", l.Stage.String(), "output", l.Output.String(), "items", len(work))

	if err := s.pool.ExecuteAll(work); err != nil {
		return fmt.Errorf("software: %s: %w", l.Stage, err)
	}
	return nil
}

func (s *softwareSession) gradientWork(l compute.Launch) []func() error {
	src, dst := s.floats[l.Inputs[0]], s.floats[l.Output]
	w, h := s.cfg.Width, s.cfg.Height
	return s.grid.Work(func(t parallel.Tile) error {
		filter.Gradient(src, dst, w, h, t.Bounds)
		return nil
	})
}

func (s *softwareSession) mixWork(l compute.Launch) []func() error {
	a, b, c := s.floats[l.Inputs[0]], s.floats[l.Inputs[1]], s.floats[l.Inputs[2]]
	dst := s.floats[l.Output]
	return parallel.SpanWork(l.Length, s.cfg.GroupSize, func(sp parallel.Span) error {
		filter.Mix(a, b, c, dst, sp.Lo, sp.Hi)
		return nil
	})
}

func (s *softwareSession) smoothWork(l compute.Launch) []func() error {
	src, dst := s.floats[l.Inputs[0]], s.floats[l.Output]
	w, h := s.cfg.Width, s.cfg.Height
	return s.grid.Work(func(t parallel.Tile) error {
		filter.Smooth(src, dst, w, h, t.Bounds)
		return nil
	})
}

func (s *softwareSession) reduceWork(l compute.Launch) []func() error {
	src, dst := s.floats[l.Inputs[0]], s.floats[l.Output]
	n, g := l.Length, s.cfg.GroupSize
	return parallel.SpanWork(compute.GroupCount(n, g), 1, func(sp parallel.Span) error {
		filter.ReducePass(src, dst, n, g, sp.Lo, sp.Hi)
		return nil
	})
}

func (s *softwareSession) normalizeWork(l compute.Launch) []func() error {
	edge := s.floats[l.Inputs[0]]
	maxVal := s.floats[l.Inputs[1]][0]
	return parallel.SpanWork(l.Length, s.cfg.GroupSize, func(sp parallel.Span) error {
		filter.Normalize(edge, maxVal, sp.Lo, sp.Hi)
		return nil
	})
}

func (s *softwareSession) blendWork(l compute.Launch) []func() error {
	orig := s.floats[l.Inputs[0]]
	strength, support := s.floats[l.Inputs[1]], s.floats[l.Inputs[2]]
	dst := s.bytes[l.Output-compute.BufOutput0]
	w, h := s.cfg.Width, s.cfg.Height
	return s.grid.Work(func(t parallel.Tile) error {
		filter.Blend(orig, strength, support, dst, w, h, t.Bounds)
		return nil
	})
}

// Read copies the head of a float buffer into dst.
func (s *softwareSession) Read(id compute.BufferID, dst []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrSessionReleased
	}
	if !id.Valid() || id.IsOutput() {
		return fmt.Errorf("%w: %s is not a float buffer", ErrUnknownBuffer, id)
	}
	if len(dst) > s.n {
		return fmt.Errorf("%w: read of %d samples from %d", ErrSizeMismatch, len(dst), s.n)
	}
	copy(dst, s.floats[id])
	return nil
}

// Download copies the output planes into dst.
func (s *softwareSession) Download(dst [compute.Channels][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return ErrSessionReleased
	}
	for c, out := range dst {
		if len(out) != s.n {
			return fmt.Errorf("%w: plane %d has %d samples, want %d", ErrSizeMismatch, c, len(out), s.n)
		}
		copy(out, s.bytes[c])
	}
	return nil
}

// Release stops the worker pool and returns every plane to the device pools.
func (s *softwareSession) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	s.pool.Close()
	s.arena.Release()
	s.floats = [compute.BufOutput0][]float32{}
	s.bytes = [compute.Channels][]byte{}
}
