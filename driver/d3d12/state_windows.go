// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build amd64 || arm64

package d3d12

import (
	"slices"

	"github.com/gviegas/rhi/driver"
)

// blendState implements driver.BlendState.
type blendState struct {
	object
	desc driver.BlendDesc
	bd   blendDesc
}

// NewBlendState creates a new blend state.
func (d *Device) NewBlendState(desc *driver.BlendDesc) (driver.BlendState, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	bd, err := newBlendDesc(desc, d.adp.info.Features, d.adp.lim.MaxColorTargets)
	if err != nil {
		return nil, &driver.CreateError{Object: "blend state", Err: err}
	}
	s := &blendState{desc: *desc, bd: bd}
	s.desc.Targets = slices.Clone(desc.Targets)
	s.track(d, s, nil, "")
	return s, nil
}

// Desc returns the blend description.
func (s *blendState) Desc() driver.BlendDesc { return s.desc }

// Destroy destroys the blend state.
func (s *blendState) Destroy() {
	if s == nil || s.d == nil {
		return
	}
	s.untrack()
	*s = blendState{}
}

// rasterizerState implements driver.RasterizerState.
type rasterizerState struct {
	object
	prop driver.RasterizerProperty
	rd   rasterizerDesc
}

// NewRasterizerState creates a new rasterizer state.
func (d *Device) NewRasterizerState(prop *driver.RasterizerProperty) (driver.RasterizerState, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	rd, err := newRasterizerDesc(prop, d.adp.info.Features)
	if err != nil {
		return nil, &driver.CreateError{Object: "rasterizer state", Err: err}
	}
	s := &rasterizerState{prop: *prop, rd: rd}
	s.track(d, s, nil, "")
	return s, nil
}

// Property returns the rasterizer property.
func (s *rasterizerState) Property() driver.RasterizerProperty { return s.prop }

// Destroy destroys the rasterizer state.
func (s *rasterizerState) Destroy() {
	if s == nil || s.d == nil {
		return
	}
	s.untrack()
	*s = rasterizerState{}
}

// depthStencilState implements driver.DepthStencilState.
type depthStencilState struct {
	object
	prop driver.DepthStencilProperty
	dd   depthStencilDesc
}

// NewDepthStencilState creates a new depth/stencil state.
func (d *Device) NewDepthStencilState(prop *driver.DepthStencilProperty) (driver.DepthStencilState, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	dd, err := newDepthStencilDesc(prop)
	if err != nil {
		return nil, &driver.CreateError{Object: "depth/stencil state", Err: err}
	}
	s := &depthStencilState{prop: *prop, dd: dd}
	s.track(d, s, nil, "")
	return s, nil
}

// Property returns the depth/stencil property.
func (s *depthStencilState) Property() driver.DepthStencilProperty { return s.prop }

// Destroy destroys the depth/stencil state.
func (s *depthStencilState) Destroy() {
	if s == nil || s.d == nil {
		return
	}
	s.untrack()
	*s = depthStencilState{}
}

// inputAssemblyState implements driver.InputAssemblyState.
// Semantic names are kept alive with the element
// descriptions that point to them.
type inputAssemblyState struct {
	object
	top driver.Topology
	il  inputLayout
}

// NewInputAssemblyState creates a new input assembly
// state.
func (d *Device) NewInputAssemblyState(top driver.Topology, elems []driver.InputElement) (driver.InputAssemblyState, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	il, err := newInputLayout(top, elems, d.adp.lim.MaxVertexIn)
	if err != nil {
		return nil, &driver.CreateError{Object: "input assembly state", Err: err}
	}
	s := &inputAssemblyState{top: top, il: il}
	s.track(d, s, nil, "")
	return s, nil
}

// Topology returns the primitive topology.
func (s *inputAssemblyState) Topology() driver.Topology { return s.top }

// Attrs returns the vertex attributes.
func (s *inputAssemblyState) Attrs() []driver.VertexAttr { return slices.Clone(s.il.attrs) }

// Slots returns the vertex buffer bindings.
func (s *inputAssemblyState) Slots() []driver.VertexSlot { return slices.Clone(s.il.slots) }

// Destroy destroys the input assembly state.
func (s *inputAssemblyState) Destroy() {
	if s == nil || s.d == nil {
		return
	}
	s.untrack()
	*s = inputAssemblyState{}
}
