package edgeblend

import (
	"errors"
	"fmt"

	"github.com/gogpu/edgeblend/compute"
)

// Sentinel errors. Every error returned by this package matches one of
// them with errors.Is.
var (
	// ErrBackendUnavailable is matched by every *BackendError.
	ErrBackendUnavailable = errors.New("edgeblend: backend unavailable")

	// ErrAllocation is matched by every *AllocationError.
	ErrAllocation = errors.New("edgeblend: allocation failed")

	// ErrInvalidDimensions is returned when height or width is not positive.
	ErrInvalidDimensions = errors.New("edgeblend: invalid dimensions")

	// ErrDimensionMismatch is returned when a plane does not hold
	// height*width samples.
	ErrDimensionMismatch = errors.New("edgeblend: plane dimension mismatch")

	// ErrAliasedPlanes is returned when two planes share memory.
	ErrAliasedPlanes = errors.New("edgeblend: aliased planes")

	// ErrInvalidConfig is returned for out-of-range tunables.
	ErrInvalidConfig = compute.ErrInvalidConfig

	// ErrClosed is returned by Run after Close.
	ErrClosed = errors.New("edgeblend: pipeline closed")

	// ErrStageFailed is matched by every *StageError.
	ErrStageFailed = errors.New("edgeblend: stage failed")

	// ErrDevice is matched by every *DeviceError.
	ErrDevice = errors.New("edgeblend: device operation failed")
)

// StepLookup is the BackendError step for a backend name that is not
// registered. The other steps are those of backend.InitError.
const StepLookup = "lookup"

// BackendError reports that no compute backend could be acquired.
// It is fatal: no image data has been touched.
type BackendError struct {
	Backend string // requested backend, or "default"
	Step    string // initialization step that failed
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("edgeblend: backend %s unavailable at %s: %v", e.Backend, e.Step, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Is reports whether target is ErrBackendUnavailable.
func (e *BackendError) Is(target error) bool { return target == ErrBackendUnavailable }

// AllocationError reports a host or device allocation that failed.
type AllocationError struct {
	What  string // what was being allocated
	Bytes int64  // requested size, 0 if unknown
	Err   error
}

func (e *AllocationError) Error() string {
	if e.Bytes > 0 {
		return fmt.Sprintf("edgeblend: allocate %s (%d bytes): %v", e.What, e.Bytes, e.Err)
	}
	return fmt.Sprintf("edgeblend: allocate %s: %v", e.What, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrAllocation.
func (e *AllocationError) Is(target error) bool { return target == ErrAllocation }

// StageError reports a stage whose worker grid failed. The run is aborted
// and the planes are left untouched.
type StageError struct {
	Stage compute.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("edgeblend: stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Is reports whether target is ErrStageFailed.
func (e *StageError) Is(target error) bool { return target == ErrStageFailed }

// Device operations reported by DeviceError.
const (
	OpNewSession = "new session"
	OpUpload     = "upload"
	OpDownload   = "download"
)

// DeviceError reports a session operation outside the stage sequence that
// failed on an acquired backend. The planes are left untouched.
type DeviceError struct {
	Backend string
	Op      string
	Err     error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("edgeblend: %s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Is reports whether target is ErrDevice.
func (e *DeviceError) Is(target error) bool { return target == ErrDevice }
