// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package compute defines the backend-neutral vocabulary of the edge-aware
// filter pipeline: the enumerated stages, the device buffers they read and
// write, the launch descriptor and the ping-pong token used by iterative
// stages.
//
// # Stages
//
// The pipeline is built from six stages:
//
//  1. [StageGradient]: Sobel gradient magnitude of one channel.
//  2. [StageMix]: elementwise maximum of the three gradient maps.
//  3. [StageSmooth]: one 3x3 box-blur pass over the edge map.
//  4. [StageMaxReduce]: one tree-reduction pass (blocks of GroupSize).
//  5. [StageNormalize]: in-place division of the edge map by its maximum.
//  6. [StageBlend]: per-pixel blend of original and smoothed samples.
//
// The raw edge map (strength) is reduced and normalized before smoothing.
// The smoothed copy (support) is reduced and normalized again, and blend
// weights each pixel by the smaller of the two. An isolated impulse has
// zero Sobel response at its own position, so it cannot protect itself.
//
// Backends resolve each [Stage] through a dispatch table indexed by the
// stage value.
//
// # Buffers
//
// Device memory is addressed by [BufferID]. A session owns one buffer per
// id for the lifetime of a run:
//
//	BufChannel0..2   working float planes (input of gradient and blend)
//	BufScratch0..2   per-channel gradients, smoothing and reduction scratch
//	BufEdge          normalized edge strength
//	BufOutput0..2    byte-domain blend output
//
// # Ping-pong
//
// Iterative stages never read and write the same buffer in one launch.
// [PingPong] is an explicit two-state token: each iteration reads
// Current, writes Next, and continues with the token returned by Swap.
package compute
