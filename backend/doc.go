// Package backend provides the pluggable compute backends of edgeblend.
//
// A backend executes the six pipeline stages over device-side buffers.
// The pipeline only talks to the Device and Session interfaces defined
// here, so the same orchestration runs on the CPU or on a GPU.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// The software backend is automatically registered on import:
//
//	import _ "github.com/gogpu/edgeblend/backend"
//
// The GPU backend registers itself when its package is imported:
//
//	import _ "github.com/gogpu/edgeblend/backend/wgpu"
//
// # Backend Selection
//
// Use InitDefault() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	d, err := backend.InitDefault()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer d.Close()
//
//	s, err := d.NewSession(compute.Config{Width: w, Height: h}.WithDefaults())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer s.Release()
//
// # Available Backends
//
//   - "software": tiled CPU execution on a work-stealing pool (always available)
//   - "wgpu": compute shaders via gogpu/wgpu (Vulkan)
package backend
