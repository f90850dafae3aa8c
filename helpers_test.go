package edgeblend

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/gogpu/edgeblend/backend"
	"github.com/gogpu/edgeblend/compute"
)

// Test helper functions shared across edgeblend tests.

// gray returns three identical copies of a width x height plane built by f.
func gray(width, height int, f func(x, y int) byte) Planes {
	var p Planes
	for c := range p {
		p[c] = make([]byte, width*height)
		for y := range height {
			for x := range width {
				p[c][y*width+x] = f(x, y)
			}
		}
	}
	return p
}

// clonePlanes returns a deep copy of p.
func clonePlanes(p Planes) Planes {
	var out Planes
	for c := range p {
		out[c] = append([]byte(nil), p[c]...)
	}
	return out
}

func absDiff(a, b byte) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

var errInjected = errors.New("injected failure")

// fakeDevice runs on the software backend and injects failures.
type fakeDevice struct {
	*backend.SoftwareBackend

	initErr    error
	sessionErr error
	failStage  compute.Stage
	failAfter  int // dispatches of failStage that succeed before failing; -1 disables
	uploadErr  error
	downErr    error

	mu     sync.Mutex
	logger *slog.Logger
	closed bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{SoftwareBackend: backend.NewSoftwareBackend(), failAfter: -1}
}

func (d *fakeDevice) Name() string { return "fake" }

func (d *fakeDevice) Init() error {
	if d.initErr != nil {
		return d.initErr
	}
	return d.SoftwareBackend.Init()
}

func (d *fakeDevice) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.SoftwareBackend.Close()
}

func (d *fakeDevice) SetLogger(l *slog.Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger = l
}

func (d *fakeDevice) currentLogger() *slog.Logger {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.logger
}

func (d *fakeDevice) NewSession(cfg compute.Config) (backend.Session, error) {
	if d.sessionErr != nil {
		return nil, d.sessionErr
	}
	s, err := d.SoftwareBackend.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return &fakeSession{Session: s, dev: d}, nil
}

func (s *fakeSession) Upload(channels [compute.Channels][]float32) error {
	if s.dev.uploadErr != nil {
		return s.dev.uploadErr
	}
	return s.Session.Upload(channels)
}

func (s *fakeSession) Download(dst [compute.Channels][]byte) error {
	if s.dev.downErr != nil {
		return s.dev.downErr
	}
	return s.Session.Download(dst)
}

type fakeSession struct {
	backend.Session
	dev   *fakeDevice
	count int
}

func (s *fakeSession) Dispatch(l compute.Launch) error {
	if s.dev.failAfter >= 0 && l.Stage == s.dev.failStage {
		if s.count >= s.dev.failAfter {
			return errInjected
		}
		s.count++
	}
	return s.Session.Dispatch(l)
}
