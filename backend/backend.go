package backend

import (
	"errors"
	"fmt"

	"github.com/gogpu/edgeblend/compute"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrUnknownBuffer is returned when a buffer id does not name a buffer
	// of the requested kind.
	ErrUnknownBuffer = errors.New("backend: unknown buffer")

	// ErrSizeMismatch is returned when a host slice does not match the
	// session's plane size.
	ErrSizeMismatch = errors.New("backend: size mismatch")

	// ErrSessionReleased is returned when a released session is used.
	ErrSessionReleased = errors.New("backend: session released")

	// ErrOutOfMemory is returned when a session cannot allocate its buffers.
	ErrOutOfMemory = errors.New("backend: out of memory")
)

// Initialization steps reported by InitError.
const (
	StepInstance = "instance"
	StepAdapter  = "adapter"
	StepDevice   = "device"
	StepShader   = "shader"
	StepPipeline = "pipeline"
)

// InitError reports which step of device initialization failed.
type InitError struct {
	Backend string
	Step    string
	Err     error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Step, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU backend.
	BackendSoftware = "software"
	// BackendWGPU is the name of the GPU backend (gogpu/wgpu compute).
	BackendWGPU = "wgpu"
)

// Device is a compute backend.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type Device interface {
	// Name returns the backend identifier (e.g., "software", "wgpu").
	Name() string

	// Init acquires the backend's resources.
	// It must succeed before NewSession is called.
	Init() error

	// Close releases all backend resources.
	// The device should not be used after Close is called.
	Close()

	// NewSession allocates the buffers of one pipeline run sized by cfg.
	NewSession(cfg compute.Config) (Session, error)
}

// Session owns the buffers of one pipeline run.
//
// Float buffers (channels, scratch, edge) hold Width*Height float32
// samples; output buffers hold Width*Height bytes. Release must be called
// on every path once the session was created.
type Session interface {
	// Upload copies the three promoted channels into BufChannel0..2.
	Upload(channels [compute.Channels][]float32) error

	// Dispatch runs one stage launch. It returns only after every worker
	// of the launch completed, so the next launch observes all its writes.
	Dispatch(l compute.Launch) error

	// Read copies the first len(dst) samples of a float buffer into dst.
	Read(id compute.BufferID, dst []float32) error

	// Download copies BufOutput0..2 into dst.
	Download(dst [compute.Channels][]byte) error

	// Release frees every buffer of the session. It is idempotent.
	Release()
}
