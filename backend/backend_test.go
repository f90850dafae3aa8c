package backend

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/edgeblend/compute"
)

func TestSoftwareBackendName(t *testing.T) {
	b := NewSoftwareBackend()
	if b.Name() != "software" {
		t.Errorf("Name() = %q, want %q", b.Name(), "software")
	}
}

func TestSoftwareBackendNotInitialized(t *testing.T) {
	b := NewSoftwareBackend()
	_, err := b.NewSession(compute.Config{Width: 4, Height: 4}.WithDefaults())
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("NewSession() before Init error = %v, want ErrNotInitialized", err)
	}
}

func TestSoftwareBackendInvalidConfig(t *testing.T) {
	b := initSoftware(t)
	_, err := b.NewSession(compute.Config{Width: 4, Height: 4, GroupSize: 3, TileSize: 1})
	if !errors.Is(err, compute.ErrInvalidConfig) {
		t.Errorf("NewSession() error = %v, want ErrInvalidConfig", err)
	}
}

func TestSoftwareBackendMemoryLimit(t *testing.T) {
	b := initSoftware(t)
	b.SetMemoryLimit(1024)

	_, err := b.NewSession(compute.Config{Width: 16, Height: 16}.WithDefaults())
	if !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("NewSession() above the memory limit error = %v, want ErrOutOfMemory", err)
	}
}

func TestSoftwareBackendCloseDrainsPools(t *testing.T) {
	b := NewSoftwareBackend()
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}

	for _, w := range []int{8, 9} {
		s, err := b.NewSession(compute.Config{Width: w, Height: 8}.WithDefaults())
		if err != nil {
			t.Fatalf("NewSession() error = %v", err)
		}
		s.Release()
	}
	if got, want := b.floats.Len(9*8), int(compute.BufOutput0); got != want {
		t.Errorf("pooled float planes = %d, want %d", got, want)
	}
	if b.floats.Retained() > softwarePoolBytes {
		t.Errorf("retained %d bytes above the cap", b.floats.Retained())
	}

	b.Close()
	if f, by := b.floats.Retained(), b.bytes.Retained(); f != 0 || by != 0 {
		t.Errorf("after Close: retained %d float and %d byte bytes, want 0", f, by)
	}
}

func TestRegistry(t *testing.T) {
	if !IsRegistered(BackendSoftware) {
		t.Fatal("software backend not registered")
	}
	if !slices.Contains(Available(), BackendSoftware) {
		t.Errorf("Available() = %v, missing software", Available())
	}
	if Get("does-not-exist") != nil {
		t.Error("Get() of unknown backend returned a device")
	}

	Register("test-backend", func() Device { return NewSoftwareBackend() })
	defer Unregister("test-backend")

	if d := Get("test-backend"); d == nil || d.Name() != BackendSoftware {
		t.Errorf("Get(test-backend) = %v", d)
	}
}

func TestInitDefault(t *testing.T) {
	d, err := InitDefault()
	if err != nil {
		t.Fatalf("InitDefault() error = %v", err)
	}
	defer d.Close()

	if d.Name() == "" {
		t.Error("InitDefault() returned unnamed device")
	}
}

func TestSessionUploadSizeMismatch(t *testing.T) {
	s := newSession(t, 4, 4, 0, 0)

	short := make([]float32, 3)
	full := make([]float32, 16)
	err := s.Upload([compute.Channels][]float32{full, short, full})
	if !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Upload() error = %v, want ErrSizeMismatch", err)
	}
}

func TestSessionReadOutputBuffer(t *testing.T) {
	s := newSession(t, 4, 4, 0, 0)

	err := s.Read(compute.BufOutput0, make([]float32, 1))
	if !errors.Is(err, ErrUnknownBuffer) {
		t.Errorf("Read(output0) error = %v, want ErrUnknownBuffer", err)
	}
}

func TestSessionRejectsInvalidLaunch(t *testing.T) {
	s := newSession(t, 4, 4, 0, 0)

	err := s.Dispatch(compute.Launch{
		Stage:  compute.StageSmooth,
		Inputs: []compute.BufferID{compute.BufEdge},
		Output: compute.BufEdge,
	})
	if !errors.Is(err, compute.ErrInvalidLaunch) {
		t.Errorf("Dispatch() error = %v, want ErrInvalidLaunch", err)
	}
}

func TestSessionRelease(t *testing.T) {
	s := newSession(t, 4, 4, 0, 0)
	s.Release()
	s.Release()

	if err := s.Download([compute.Channels][]byte{}); !errors.Is(err, ErrSessionReleased) {
		t.Errorf("Download() after Release error = %v, want ErrSessionReleased", err)
	}
}

func TestSessionReduce(t *testing.T) {
	const w, h = 37, 29
	s := newSession(t, w, h, 0, 2)

	ch := make([]float32, w*h)
	for i := range ch {
		ch[i] = float32(i % 97)
	}
	ch[w*h-3] = 1000
	if err := s.Upload([compute.Channels][]float32{ch, ch, ch}); err != nil {
		t.Fatal(err)
	}

	// channel0 -> scratch0 -> scratch1 -> ... until one element.
	pair := compute.NewPingPong(compute.BufScratch0, compute.BufScratch1)
	src := compute.BufChannel0
	n := w * h
	passes := 0
	for n > 1 {
		dst := pair.Current()
		if err := s.Dispatch(compute.Launch{
			Stage:  compute.StageMaxReduce,
			Inputs: []compute.BufferID{src},
			Output: dst,
			Length: n,
		}); err != nil {
			t.Fatalf("pass %d: %v", passes, err)
		}
		n = compute.GroupCount(n, 16)
		src = dst
		pair = pair.Swap()
		passes++
	}

	got := make([]float32, 1)
	if err := s.Read(src, got); err != nil {
		t.Fatal(err)
	}
	if got[0] != 1000 {
		t.Errorf("reduced max = %v, want 1000", got[0])
	}
	if want := len(compute.ReductionPasses(w*h, 16)); passes != want {
		t.Errorf("passes = %d, want %d", passes, want)
	}
}

func TestSoftwareDeterministicAcrossTiling(t *testing.T) {
	const w, h = 45, 23
	channels := testChannels(w, h)

	ref := runStages(t, newSession(t, w, h, 32, 1), channels)

	configs := []struct{ tile, workers int }{
		{1, 4},
		{7, 3},
		{16, 8},
		{64, 2},
	}
	for _, c := range configs {
		got := runStages(t, newSession(t, w, h, c.tile, c.workers), channels)
		for ch := range got {
			if !slices.Equal(got[ch], ref[ch]) {
				t.Errorf("tile=%d workers=%d: channel %d differs from reference", c.tile, c.workers, ch)
			}
		}
	}
}

func TestSessionBoundarySharpening(t *testing.T) {
	const w, h = 12, 6
	ch := make([]float32, w*h)
	for i := range ch {
		if i%w >= w/2 {
			ch[i] = 255
		}
	}

	s := newSession(t, w, h, 0, 0)
	support := edgeMaps(t, s, [compute.Channels][]float32{ch, ch, ch})

	strength := make([]float32, w*h)
	if err := s.Read(compute.BufEdge, strength); err != nil {
		t.Fatal(err)
	}
	smoothed := make([]float32, w*h)
	if err := s.Read(support, smoothed); err != nil {
		t.Fatal(err)
	}

	boundary := []int{w/2 - 1, w / 2}
	for y := range h {
		for _, bx := range boundary {
			b := y*w + bx
			if strength[b] != 1 {
				t.Errorf("row %d col %d: strength = %v, want 1", y, bx, strength[b])
			}
			for x := range w {
				if slices.Contains(boundary, x) {
					continue
				}
				i := y*w + x
				if strength[i] != 0 {
					t.Errorf("row %d col %d: strength = %v, want 0", y, x, strength[i])
				}
				if !(smoothed[b] > smoothed[i]) {
					t.Errorf("row %d: support at boundary col %d = %v, not above col %d = %v",
						y, bx, smoothed[b], x, smoothed[i])
				}
				if wb, wi := min(strength[b], smoothed[b]), min(strength[i], smoothed[i]); !(wb > wi) {
					t.Errorf("row %d: weight at boundary col %d = %v, not above col %d = %v", y, bx, wb, x, wi)
				}
			}
		}
	}
}

func initSoftware(t *testing.T) *SoftwareBackend {
	t.Helper()
	b := NewSoftwareBackend()
	if err := b.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(b.Close)
	return b
}

// newSession creates a software session with group size 16.
func newSession(t *testing.T, w, h, tile, workers int) Session {
	t.Helper()
	b := initSoftware(t)
	cfg := compute.Config{Width: w, Height: h, TileSize: tile, Workers: workers, GroupSize: 16}.WithDefaults()
	s, err := b.NewSession(cfg)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	t.Cleanup(s.Release)
	return s
}

func testChannels(w, h int) [compute.Channels][]float32 {
	var out [compute.Channels][]float32
	for c := range out {
		p := make([]float32, w*h)
		for i := range p {
			x, y := i%w, i/w
			v := (x*13 + y*7 + c*50) % 256
			if x > w/2 {
				v = 255 - v/4
			}
			p[i] = float32(v)
		}
		out[c] = p
	}
	return out
}

// runStages drives one full pipeline run on s.
func runStages(t *testing.T, s Session, channels [compute.Channels][]float32) [compute.Channels][]byte {
	t.Helper()
	n := len(channels[0])
	support := edgeMaps(t, s, channels)

	for c := range compute.Channels {
		dispatchOK(t, s, compute.Launch{
			Stage:  compute.StageBlend,
			Inputs: []compute.BufferID{compute.ChannelBuffer(c), compute.BufEdge, support},
			Output: compute.OutputBuffer(c),
		})
	}

	var out [compute.Channels][]byte
	for c := range out {
		out[c] = make([]byte, n)
	}
	if err := s.Download(out); err != nil {
		t.Fatal(err)
	}
	return out
}

// edgeMaps uploads channels and runs every stage before blend. The
// normalized strength is left in the edge buffer; the returned buffer
// holds the normalized support.
func edgeMaps(t *testing.T, s Session, channels [compute.Channels][]float32) compute.BufferID {
	t.Helper()
	n := len(channels[0])

	if err := s.Upload(channels); err != nil {
		t.Fatal(err)
	}
	for c := range compute.Channels {
		dispatchOK(t, s, compute.Launch{
			Stage:  compute.StageGradient,
			Inputs: []compute.BufferID{compute.ChannelBuffer(c)},
			Output: compute.ScratchBuffer(c),
		})
	}
	dispatchOK(t, s, compute.Launch{
		Stage:  compute.StageMix,
		Inputs: []compute.BufferID{compute.BufScratch0, compute.BufScratch1, compute.BufScratch2},
		Output: compute.BufEdge,
		Length: n,
	})
	normalizeOK(t, s, compute.BufEdge, compute.NewPingPong(compute.BufScratch1, compute.BufScratch2), n)

	support := compute.BufEdge
	smooth := compute.NewPingPong(compute.BufScratch1, compute.BufScratch0)
	for range compute.DefaultIterations {
		dispatchOK(t, s, compute.Launch{
			Stage:  compute.StageSmooth,
			Inputs: []compute.BufferID{support},
			Output: smooth.Next(),
		})
		smooth = smooth.Swap()
		support = smooth.Current()
	}
	normalizeOK(t, s, support, compute.NewPingPong(smooth.Next(), compute.BufScratch2), n)
	return support
}

// normalizeOK reduces src to its maximum through pair and divides src by it.
func normalizeOK(t *testing.T, s Session, src compute.BufferID, pair compute.PingPong, n int) {
	t.Helper()
	in := src
	for m := n; ; m = compute.GroupCount(m, 16) {
		dispatchOK(t, s, compute.Launch{
			Stage:  compute.StageMaxReduce,
			Inputs: []compute.BufferID{in},
			Output: pair.Current(),
			Length: m,
		})
		in = pair.Current()
		pair = pair.Swap()
		if compute.GroupCount(m, 16) <= 1 {
			break
		}
	}
	dispatchOK(t, s, compute.Launch{
		Stage:  compute.StageNormalize,
		Inputs: []compute.BufferID{src, in},
		Output: src,
		Length: n,
	})
}

func dispatchOK(t *testing.T, s Session, l compute.Launch) {
	t.Helper()
	if err := s.Dispatch(l); err != nil {
		t.Fatalf("Dispatch(%s) error = %v", l.Stage, err)
	}
}
