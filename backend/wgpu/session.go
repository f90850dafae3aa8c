// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/edgeblend/backend"
	"github.com/gogpu/edgeblend/compute"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// paramsSize is the size of the Params uniform shared by all shaders.
const paramsSize = 16

// params mirrors the Params struct of the stage shaders.
type params struct {
	width, height, length, group uint32
}

func (p params) bytes() []byte {
	b := make([]byte, paramsSize)
	binary.LittleEndian.PutUint32(b[0:], p.width)
	binary.LittleEndian.PutUint32(b[4:], p.height)
	binary.LittleEndian.PutUint32(b[8:], p.length)
	binary.LittleEndian.PutUint32(b[12:], p.group)
	return b
}

// session owns the GPU buffers of one pipeline run.
type session struct {
	mu sync.Mutex

	dev    *Device
	device hal.Device
	queue  hal.Queue
	cfg    compute.Config
	n      int

	// bufSize is the byte size of every float and output buffer.
	bufSize  uint64
	buffers  [compute.BufferCount]hal.Buffer
	params   hal.Buffer
	staging  hal.Buffer
	released bool
}

// newSession creates every buffer for cfg. Called with d.mu held.
func newSession(d *Device, cfg compute.Config) (*session, error) {
	n := cfg.Pixels()
	if n <= 0 || uint64(n) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %dx%d exceeds 32-bit indexing", backend.ErrOutOfMemory, cfg.Width, cfg.Height)
	}
	if tilesX, tilesY := ceilDiv(cfg.Width, tileWorkgroupSize), ceilDiv(cfg.Height, tileWorkgroupSize); tilesX > maxWorkgroups || tilesY > maxWorkgroups {
		return nil, fmt.Errorf("%w: %dx%d workgroups", ErrDispatchTooLarge, tilesX, tilesY)
	}

	bufSize := uint64(n) * 4
	if d.maxBufferSize > 0 && bufSize > d.maxBufferSize {
		return nil, fmt.Errorf("%w: %w: %d > %d bytes", backend.ErrOutOfMemory, ErrBufferTooLarge, bufSize, d.maxBufferSize)
	}

	s := &session{
		dev:     d,
		device:  d.device,
		queue:   d.queue,
		cfg:     cfg,
		n:       n,
		bufSize: bufSize,
	}

	for id := compute.BufferID(0); id < compute.BufferCount; id++ {
		usage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc
		if !id.IsOutput() {
			usage |= gputypes.BufferUsageCopyDst
		}
		buf, err := s.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "edgeblend_" + id.String(),
			Size:  bufSize,
			Usage: usage,
		})
		if err != nil {
			s.destroy()
			return nil, fmt.Errorf("%w: create buffer %s: %w", backend.ErrOutOfMemory, id, err)
		}
		s.buffers[id] = buf
	}

	var err error
	s.params, err = s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "edgeblend_params",
		Size:  paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		s.destroy()
		return nil, fmt.Errorf("%w: create params buffer: %w", backend.ErrOutOfMemory, err)
	}

	s.staging, err = s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "edgeblend_staging",
		Size:  bufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		s.destroy()
		return nil, fmt.Errorf("%w: create staging buffer: %w", backend.ErrOutOfMemory, err)
	}

	slogger().Debug("wgpu: session created",
		"width", cfg.Width, "height", cfg.Height,
		"buffers", int(compute.BufferCount), "buffer_bytes", bufSize)
	return s, nil
}

// Upload writes the promoted channels into the channel buffers.
func (s *session) Upload(channels [compute.Channels][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return backend.ErrSessionReleased
	}

	data := make([]byte, s.bufSize)
	for c, src := range channels {
		if len(src) != s.n {
			return fmt.Errorf("%w: channel %d has %d samples, want %d", backend.ErrSizeMismatch, c, len(src), s.n)
		}
		for i, v := range src {
			binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
		}
		s.queue.WriteBuffer(s.buffers[compute.ChannelBuffer(c)], 0, data)
	}
	return nil
}

// Dispatch records one compute pass for l, submits it and waits.
func (s *session) Dispatch(l compute.Launch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return backend.ErrSessionReleased
	}
	if err := l.Validate(s.cfg); err != nil {
		return err
	}

	p := params{
		width:  uint32(s.cfg.Width),     //nolint:gosec // bounded by 32-bit indexing check
		height: uint32(s.cfg.Height),    //nolint:gosec // bounded by 32-bit indexing check
		length: uint32(s.n),             //nolint:gosec // bounded by 32-bit indexing check
		group:  uint32(s.cfg.GroupSize), //nolint:gosec // validated power of two
	}
	if !l.Stage.PerPixel() {
		p.length = uint32(l.Length) //nolint:gosec // at most n
	}
	s.queue.WriteBuffer(s.params, 0, p.bytes())

	x, y := s.workgroups(l)
	if y > maxWorkgroups {
		return fmt.Errorf("%w: %s needs %dx%d workgroups", ErrDispatchTooLarge, l.Stage, x, y)
	}

	res := &dispatchResources{device: s.device}
	defer res.cleanup()

	bg, err := s.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "edgeblend_" + l.Stage.String() + "_bg",
		Layout:  s.dev.pipes.stages[l.Stage].bindLayout,
		Entries: s.bindGroupEntries(l),
	})
	if err != nil {
		return fmt.Errorf("wgpu: create bind group for %s: %w", l.Stage, err)
	}
	res.bindGroups = append(res.bindGroups, bg)

	err = s.submit(res, l.Stage.String(), func(encoder hal.CommandEncoder) {
		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "edgeblend_" + l.Stage.String()})
		pass.SetPipeline(s.dev.pipes.stages[l.Stage].pipeline)
		pass.SetBindGroup(0, bg, nil)
		pass.Dispatch(x, y, 1)
		pass.End()
	})
	if err != nil {
		return fmt.Errorf("wgpu: %s: %w", l.Stage, err)
	}

	slogger().Debug("wgpu: dispatched stage",
		"stage", l.Stage.String(), "output", l.Output.String(),
		"workgroups_x", x, "workgroups_y", y)
	return nil
}

// bindGroupEntries binds params followed by the launch's buffers in the
// order declared by stageBindings.
func (s *session) bindGroupEntries(l compute.Launch) []gputypes.BindGroupEntry {
	ids := append([]compute.BufferID(nil), l.Inputs...)
	if l.Stage != compute.StageNormalize {
		ids = append(ids, l.Output)
	}

	entries := make([]gputypes.BindGroupEntry, 0, len(ids)+1)
	entries = append(entries, gputypes.BindGroupEntry{
		Binding:  0,
		Resource: gputypes.BufferBinding{Buffer: s.params.NativeHandle(), Offset: 0, Size: paramsSize},
	})
	for i, id := range ids {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(i + 1), //nolint:gosec // at most five bindings
			Resource: gputypes.BufferBinding{Buffer: s.buffers[id].NativeHandle(), Offset: 0, Size: s.bufSize},
		})
	}
	return entries
}

// workgroups returns the dispatch size of l.
func (s *session) workgroups(l compute.Launch) (x, y uint32) {
	switch {
	case l.Stage.PerPixel():
		return uint32(ceilDiv(s.cfg.Width, tileWorkgroupSize)), //nolint:gosec // checked in newSession
			uint32(ceilDiv(s.cfg.Height, tileWorkgroupSize)) //nolint:gosec // checked in newSession
	case l.Stage == compute.StageMaxReduce:
		return foldWorkgroups(compute.GroupCount(l.Length, s.cfg.GroupSize))
	default:
		return foldWorkgroups(ceilDiv(l.Length, linearWorkgroupSize))
	}
}

// foldWorkgroups spreads a 1-D workgroup count over x and y so that x
// stays within the per-dimension limit.
func foldWorkgroups(groups int) (x, y uint32) {
	if groups <= 0 {
		return 0, 0
	}
	gx := min(groups, maxWorkgroups)
	gy := ceilDiv(groups, gx)
	return uint32(gx), uint32(gy) //nolint:gosec // gx <= 65535, gy <= groups
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}

// Read copies the head of a float buffer into dst.
func (s *session) Read(id compute.BufferID, dst []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return backend.ErrSessionReleased
	}
	if !id.Valid() || id.IsOutput() {
		return fmt.Errorf("%w: %s is not a float buffer", backend.ErrUnknownBuffer, id)
	}
	if len(dst) > s.n {
		return fmt.Errorf("%w: read of %d samples from %d", backend.ErrSizeMismatch, len(dst), s.n)
	}
	if len(dst) == 0 {
		return nil
	}

	raw, err := s.readback(s.buffers[id], uint64(len(dst))*4)
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return nil
}

// Download narrows the u32 output buffers into dst.
func (s *session) Download(dst [compute.Channels][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return backend.ErrSessionReleased
	}

	for c, out := range dst {
		if len(out) != s.n {
			return fmt.Errorf("%w: plane %d has %d samples, want %d", backend.ErrSizeMismatch, c, len(out), s.n)
		}
		raw, err := s.readback(s.buffers[compute.OutputBuffer(c)], s.bufSize)
		if err != nil {
			return err
		}
		for i := range out {
			out[i] = uint8(binary.LittleEndian.Uint32(raw[i*4:]) & 0xFF) //nolint:gosec // masked to 8 bits
		}
	}
	return nil
}

// readback copies size bytes of src through the staging buffer.
func (s *session) readback(src hal.Buffer, size uint64) ([]byte, error) {
	res := &dispatchResources{device: s.device}
	defer res.cleanup()

	err := s.submit(res, "readback", func(encoder hal.CommandEncoder) {
		encoder.CopyBufferToBuffer(src, s.staging, []hal.BufferCopy{
			{SrcOffset: 0, DstOffset: 0, Size: size},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: readback: %w", err)
	}

	raw := make([]byte, size)
	if err := s.queue.ReadBuffer(s.staging, 0, raw); err != nil {
		return nil, fmt.Errorf("wgpu: readback: %w", err)
	}
	return raw, nil
}

// submit records commands into a fresh encoder, submits them and waits
// for the fence.
func (s *session) submit(res *dispatchResources, label string, record func(hal.CommandEncoder)) error {
	encoder, err := s.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "edgeblend_" + label})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("edgeblend_" + label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	record(encoder)

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	res.cmdBuf = cmdBuf

	fence, err := s.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	res.fence = fence

	if err := s.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := s.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w after %v", ErrTimeout, fenceTimeout)
	}
	return nil
}

// Release destroys every buffer of the session.
func (s *session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	s.destroy()
}

func (s *session) destroy() {
	for i, buf := range s.buffers {
		if buf != nil {
			s.device.DestroyBuffer(buf)
			s.buffers[i] = nil
		}
	}
	if s.params != nil {
		s.device.DestroyBuffer(s.params)
		s.params = nil
	}
	if s.staging != nil {
		s.device.DestroyBuffer(s.staging)
		s.staging = nil
	}
}

// dispatchResources tracks per-launch GPU resources for cleanup.
type dispatchResources struct {
	device     hal.Device
	bindGroups []hal.BindGroup
	cmdBuf     hal.CommandBuffer
	fence      hal.Fence
}

// cleanup destroys all tracked per-launch resources.
func (r *dispatchResources) cleanup() {
	if r.fence != nil {
		r.device.DestroyFence(r.fence)
	}
	if r.cmdBuf != nil {
		r.device.FreeCommandBuffer(r.cmdBuf)
	}
	for _, g := range r.bindGroups {
		r.device.DestroyBindGroup(g)
	}
}
