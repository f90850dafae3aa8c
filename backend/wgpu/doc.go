// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package wgpu provides a GPU compute backend for edgeblend using gogpu/wgpu.
//
// Every pipeline stage is a WGSL compute shader compiled to SPIR-V with
// gogpu/naga and executed through the wgpu HAL on Vulkan. Each launch is
// recorded into its own command buffer and followed by a fence wait, so a
// stage never starts before the previous one finished writing.
//
// # Buffers
//
// A session allocates one storage buffer per compute.BufferID. Float
// buffers hold Width*Height f32 samples. Output buffers hold one u32 per
// sample with the byte value in the low 8 bits; Download narrows them.
// A single staging buffer is reused for all readbacks.
//
// # Workgroups
//
// 2-D stages (gradient, smooth, blend) use 16x16 workgroups. Element-wise
// stages use 256 invocations per workgroup. The max reduction runs one
// 256-invocation workgroup per block of GroupSize elements; invocations
// fold the block with a strided loop before the tree reduction in
// workgroup memory, so GroupSize is not limited by the device's
// invocation limit. 1-D dispatches that exceed 65535 workgroups are
// folded into the y dimension.
//
// # Usage
//
// Importing the package registers the "wgpu" backend:
//
//	import _ "github.com/gogpu/edgeblend/backend/wgpu"
//
// To share a device with a gogpu application, pass its provider:
//
//	d := wgpu.New(wgpu.WithDeviceProvider(app.GPUContextProvider()))
package wgpu
