// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package wgpu

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/edgeblend/backend"
	"github.com/gogpu/edgeblend/compute"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	_ "github.com/gogpu/wgpu/hal/vulkan" // register the Vulkan HAL backend
)

// fenceTimeout bounds the wait for a single launch.
const fenceTimeout = 30 * time.Second

// init registers the GPU backend on package import.
func init() {
	backend.Register(backend.BackendWGPU, func() backend.Device {
		return New()
	})
}

// Option configures a Device.
type Option func(*Device)

// WithDeviceProvider makes the device run on a GPU device shared by a
// gogpu application instead of opening its own. The provider must also
// expose HalDevice() and HalQueue() returning hal.Device and hal.Queue.
// A shared device is never destroyed by Close.
func WithDeviceProvider(provider gpucontext.DeviceProvider) Option {
	return func(d *Device) {
		d.provider = provider
	}
}

// Device is the GPU compute backend.
type Device struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	pipes    *pipelineSet

	provider       gpucontext.DeviceProvider
	externalDevice bool // true when using shared device (don't destroy on Close)
	adapterName    string
	maxBufferSize  uint64
	ready          bool
}

var _ backend.Device = (*Device)(nil)

// New creates an uninitialized GPU device.
func New(opts ...Option) *Device {
	d := &Device{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the backend identifier.
func (d *Device) Name() string { return backend.BackendWGPU }

// AdapterName returns the name of the selected GPU adapter, or "" before
// Init or when running on a shared device.
func (d *Device) AdapterName() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.adapterName
}

// SetLogger sets the logger for the GPU backend.
// Called by edgeblend.SetLogger to propagate logging configuration.
func (d *Device) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Init acquires a device and builds the stage pipelines. Failures are
// reported as *backend.InitError naming the step that failed.
func (d *Device) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ready {
		return nil
	}

	var err error
	if d.provider != nil {
		err = d.useProvider()
	} else {
		err = d.openDevice()
	}
	if err != nil {
		d.destroyPartialInit()
		return err
	}

	d.maxBufferSize = uint64(gputypes.DefaultLimits().MaxBufferSize)

	pipes, err := newPipelineSet(d.device)
	if err != nil {
		d.destroyPartialInit()
		return err
	}
	d.pipes = pipes
	d.ready = true

	slogger().Info("wgpu: compute backend initialized",
		"adapter", d.adapterName, "shared", d.externalDevice)
	return nil
}

// useProvider adopts the HAL device and queue of a shared provider.
func (d *Device) useProvider() error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := d.provider.(halProvider)
	if !ok {
		return stepError(backend.StepDevice, ErrInvalidProvider)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return stepError(backend.StepDevice, fmt.Errorf("%w: HalDevice is not hal.Device", ErrInvalidProvider))
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return stepError(backend.StepDevice, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrInvalidProvider))
	}

	d.device = device
	d.queue = queue
	d.externalDevice = true
	return nil
}

// openDevice creates an instance, picks an adapter and opens a device.
func (d *Device) openDevice() error {
	halBackend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return stepError(backend.StepInstance, ErrNoVulkan)
	}
	instance, err := halBackend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return stepError(backend.StepInstance, fmt.Errorf("create instance: %w", err))
	}
	d.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return stepError(backend.StepAdapter, ErrNoAdapter)
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
		slogger().Warn("wgpu: no discrete or integrated GPU, using first adapter",
			"adapter", selected.Info.Name)
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return stepError(backend.StepDevice, fmt.Errorf("open device: %w", err))
	}
	d.device = openDev.Device
	d.queue = openDev.Queue
	d.adapterName = selected.Info.Name
	return nil
}

// destroyPartialInit releases whatever Init created before failing.
func (d *Device) destroyPartialInit() {
	if d.pipes != nil {
		d.pipes.destroy()
		d.pipes = nil
	}
	if d.device != nil && !d.externalDevice {
		d.device.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
	}
	d.device, d.queue, d.instance = nil, nil, nil
	d.externalDevice = false
}

// Close releases the pipelines and, unless shared, the device.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.destroyPartialInit()
	d.ready = false
}

// NewSession allocates the GPU buffers of one pipeline run.
func (d *Device) NewSession(cfg compute.Config) (backend.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.ready {
		return nil, backend.ErrNotInitialized
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logTileSize(cfg)
	s, err := newSession(d, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}
