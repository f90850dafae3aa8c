package edgeblend

import (
	"errors"
	"testing"

	"github.com/gogpu/edgeblend/compute"
)

func TestDefaultOptions(t *testing.T) {
	t.Setenv(EnvBackend, "")
	o := newOptions(nil)

	if o.backend != "" || o.device != nil {
		t.Errorf("default backend = %q, device = %v, want none", o.backend, o.device)
	}
	if o.cfg.Iterations != compute.DefaultIterations {
		t.Errorf("Iterations = %d, want %d", o.cfg.Iterations, compute.DefaultIterations)
	}
	if o.cfg.GroupSize != compute.DefaultGroupSize {
		t.Errorf("GroupSize = %d, want %d", o.cfg.GroupSize, compute.DefaultGroupSize)
	}
	if o.cfg.TileSize != compute.DefaultTileSize {
		t.Errorf("TileSize = %d, want %d", o.cfg.TileSize, compute.DefaultTileSize)
	}
	if err := o.validate(); err != nil {
		t.Errorf("validate() = %v", err)
	}
}

func TestOptionsApply(t *testing.T) {
	d := newFakeDevice()
	o := newOptions([]Option{
		WithBackend("software"),
		WithDevice(d),
		WithIterations(3),
		WithGroupSize(16),
		WithTileSize(7),
		WithWorkers(2),
		WithMaxPixels(100),
	})

	if o.backend != "software" {
		t.Errorf("backend = %q", o.backend)
	}
	if o.device != d {
		t.Error("device not set")
	}
	want := compute.Config{Iterations: 3, GroupSize: 16, TileSize: 7, Workers: 2}
	if o.cfg != want {
		t.Errorf("cfg = %+v, want %+v", o.cfg, want)
	}
	if o.maxPixels != 100 {
		t.Errorf("maxPixels = %d, want 100", o.maxPixels)
	}
}

func TestOptionsEnvBackend(t *testing.T) {
	t.Setenv(EnvBackend, "wgpu")
	if o := newOptions(nil); o.backend != "wgpu" {
		t.Errorf("backend = %q, want wgpu from %s", o.backend, EnvBackend)
	}
	if o := newOptions([]Option{WithBackend("software")}); o.backend != "software" {
		t.Errorf("backend = %q, want the explicit option", o.backend)
	}
}

func TestPlanesValidate(t *testing.T) {
	buf := make([]byte, 48)
	tests := []struct {
		name    string
		planes  Planes
		h, w    int
		wantErr error
	}{
		{"ok", Planes{buf[:16], buf[16:32], buf[32:]}, 4, 4, nil},
		{"zero width", Planes{}, 4, 0, ErrInvalidDimensions},
		{"mismatch", Planes{buf[:16], buf[16:32], buf[32:47]}, 4, 4, ErrDimensionMismatch},
		{"adjacent overlap", Planes{buf[:17], buf[16:33], make([]byte, 17)}, 1, 17, ErrAliasedPlanes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.planes.Validate(tt.h, tt.w)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
