// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/edgeblend/backend"
	"github.com/gogpu/edgeblend/compute"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const (
	readOnly  = gputypes.BufferBindingTypeReadOnlyStorage
	readWrite = gputypes.BufferBindingTypeStorage
)

// stageBindings lists the storage bindings of each stage after the
// uniform params at binding 0. Every stage except normalize binds its
// inputs in order followed by its output; normalize binds the edge map
// read-write and the maximum read-only.
var stageBindings = [compute.StageCount][]gputypes.BufferBindingType{
	compute.StageGradient:  {readOnly, readWrite},
	compute.StageMix:       {readOnly, readOnly, readOnly, readWrite},
	compute.StageSmooth:    {readOnly, readWrite},
	compute.StageMaxReduce: {readOnly, readWrite},
	compute.StageNormalize: {readWrite, readOnly},
	compute.StageBlend:     {readOnly, readOnly, readOnly, readWrite},
}

// stagePipeline holds the GPU objects of one stage.
type stagePipeline struct {
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

// pipelineSet holds one compute pipeline per stage.
type pipelineSet struct {
	device hal.Device
	stages [compute.StageCount]stagePipeline
}

// newPipelineSet compiles every stage shader and creates its pipeline.
// On failure the partially created objects are destroyed and an
// *backend.InitError naming the shader or pipeline step is returned.
func newPipelineSet(device hal.Device) (*pipelineSet, error) {
	p := &pipelineSet{device: device}
	for s := compute.Stage(0); s < compute.StageCount; s++ {
		if err := p.createStage(s); err != nil {
			p.destroy()
			return nil, err
		}
	}
	return p, nil
}

func (p *pipelineSet) createStage(s compute.Stage) error {
	label := "edgeblend_" + s.String()
	sp := &p.stages[s]

	spirv, err := stageSPIRV(s)
	if err != nil {
		return stepError(backend.StepShader, fmt.Errorf("%s: %w", s, err))
	}
	sp.shader, err = p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return stepError(backend.StepShader, fmt.Errorf("%s: create shader module: %w", s, err))
	}

	entries := []gputypes.BindGroupLayoutEntry{
		{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
	}
	for i, t := range stageBindings[s] {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    uint32(i + 1), //nolint:gosec // at most five bindings
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: t},
		})
	}

	sp.bindLayout, err = p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label + "_bind_layout",
		Entries: entries,
	})
	if err != nil {
		return stepError(backend.StepPipeline, fmt.Errorf("%s: create bind group layout: %w", s, err))
	}

	sp.pipeLayout, err = p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{sp.bindLayout},
	})
	if err != nil {
		return stepError(backend.StepPipeline, fmt.Errorf("%s: create pipeline layout: %w", s, err))
	}

	sp.pipeline, err = p.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   label,
		Layout:  sp.pipeLayout,
		Compute: hal.ComputeState{Module: sp.shader, EntryPoint: "main"},
	})
	if err != nil {
		return stepError(backend.StepPipeline, fmt.Errorf("%s: create compute pipeline: %w", s, err))
	}

	slogger().Debug("wgpu: stage pipeline created", "stage", s.String(), "spirv_words", len(spirv))
	return nil
}

// destroy releases every created object, pipelines first.
func (p *pipelineSet) destroy() {
	for i := range p.stages {
		sp := &p.stages[i]
		if sp.pipeline != nil {
			p.device.DestroyComputePipeline(sp.pipeline)
		}
		if sp.pipeLayout != nil {
			p.device.DestroyPipelineLayout(sp.pipeLayout)
		}
		if sp.bindLayout != nil {
			p.device.DestroyBindGroupLayout(sp.bindLayout)
		}
		if sp.shader != nil {
			p.device.DestroyShaderModule(sp.shader)
		}
		*sp = stagePipeline{}
	}
}

func stepError(step string, err error) error {
	return &backend.InitError{Backend: backend.BackendWGPU, Step: step, Err: err}
}
