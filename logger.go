package edgeblend

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/edgeblend/backend"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

// liveDevices holds the devices of open pipelines so SetLogger reaches them.
var (
	liveMu      sync.Mutex
	liveDevices = make(map[backend.Device]int)
)

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for edgeblend and its backends.
// By default, edgeblend produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore the default
// silent behavior.
//
// Log levels used by edgeblend:
//   - [slog.LevelDebug]: stage dispatches, buffer sizes, reduction passes
//   - [slog.LevelInfo]: backend selection, GPU adapter
//   - [slog.LevelWarn]: backend fallback, resource release errors
//
// Example:
//
//	edgeblend.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	backend.SetLogger(l)

	liveMu.Lock()
	defer liveMu.Unlock()
	for d := range liveDevices {
		propagateLogger(d, l)
	}
}

// Logger returns the current logger used by edgeblend.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to a device if it implements the
// loggerSetter interface.
func propagateLogger(d backend.Device, l *slog.Logger) {
	if ls, ok := d.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

// trackDevice hands the current logger to d and keeps it reachable from
// SetLogger until untrackDevice.
func trackDevice(d backend.Device) {
	liveMu.Lock()
	defer liveMu.Unlock()
	liveDevices[d]++
	propagateLogger(d, Logger())
}

func untrackDevice(d backend.Device) {
	liveMu.Lock()
	defer liveMu.Unlock()
	if liveDevices[d] <= 1 {
		delete(liveDevices, d)
		return
	}
	liveDevices[d]--
}
