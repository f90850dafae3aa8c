// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package wgpu

import "errors"

// Package errors for the wgpu backend.
var (
	// ErrNoVulkan is returned when the Vulkan HAL backend is not registered.
	ErrNoVulkan = errors.New("wgpu: vulkan backend not available")

	// ErrNoAdapter is returned when no GPU adapter is found.
	ErrNoAdapter = errors.New("wgpu: no GPU adapters found")

	// ErrInvalidProvider is returned when a device provider does not expose
	// HAL device and queue handles.
	ErrInvalidProvider = errors.New("wgpu: provider does not expose HAL types")

	// ErrBufferTooLarge is returned when a session buffer exceeds the
	// device's maximum buffer size.
	ErrBufferTooLarge = errors.New("wgpu: buffer exceeds device limit")

	// ErrDispatchTooLarge is returned when an image needs more workgroups
	// than a dispatch dimension allows.
	ErrDispatchTooLarge = errors.New("wgpu: dispatch exceeds workgroup limit")

	// ErrTimeout is returned when the GPU does not signal a fence in time.
	ErrTimeout = errors.New("wgpu: GPU timeout")
)
