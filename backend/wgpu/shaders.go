// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package wgpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/edgeblend/compute"
	"github.com/gogpu/edgeblend/internal/cache"
	"github.com/gogpu/naga"
)

//go:embed shaders/gradient.wgsl
var gradientShaderWGSL string

//go:embed shaders/mix.wgsl
var mixShaderWGSL string

//go:embed shaders/smooth.wgsl
var smoothShaderWGSL string

//go:embed shaders/reduce_max.wgsl
var reduceMaxShaderWGSL string

//go:embed shaders/normalize.wgsl
var normalizeShaderWGSL string

//go:embed shaders/blend.wgsl
var blendShaderWGSL string

// Workgroup geometry shared with the shaders.
const (
	tileWorkgroupSize   = 16
	linearWorkgroupSize = 256
	maxWorkgroups       = 65535
)

// logTileSize reports a configured tile size the GPU backend does not use.
// Per-pixel stages always run in tileWorkgroupSize square workgroups.
func logTileSize(cfg compute.Config) {
	if cfg.TileSize != compute.DefaultTileSize {
		slogger().Debug("wgpu: tile size ignored",
			"tile_size", cfg.TileSize, "workgroup", tileWorkgroupSize)
	}
}

// shaderSource returns the WGSL source of a stage.
func shaderSource(s compute.Stage) string {
	switch s {
	case compute.StageGradient:
		return gradientShaderWGSL
	case compute.StageMix:
		return mixShaderWGSL
	case compute.StageSmooth:
		return smoothShaderWGSL
	case compute.StageMaxReduce:
		return reduceMaxShaderWGSL
	case compute.StageNormalize:
		return normalizeShaderWGSL
	case compute.StageBlend:
		return blendShaderWGSL
	default:
		return ""
	}
}

// spirvCache holds the SPIR-V of every stage compiled so far. Devices
// created by later pipelines reuse it.
var spirvCache = cache.New[compute.Stage, []uint32]()

// stageSPIRV returns the compiled SPIR-V of a stage.
func stageSPIRV(s compute.Stage) ([]uint32, error) {
	return spirvCache.GetOrCreate(s, func() ([]uint32, error) {
		return compileShader(shaderSource(s))
	})
}

// compileShader compiles WGSL source to SPIR-V words.
func compileShader(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}
