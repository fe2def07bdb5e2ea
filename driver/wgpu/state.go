// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wgpu

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gviegas/rhi/driver"
)

// blendState implements driver.BlendState.
// Target formats are unknown until a pipeline is
// created, so they are left undefined.
type blendState struct {
	object
	desc    driver.BlendDesc
	targets []wgpu.ColorTargetState
	ms      wgpu.MultisampleState
}

// NewBlendState creates a new blend state.
func (d *Device) NewBlendState(desc *driver.BlendDesc) (driver.BlendState, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	targets, err := colorTargets(desc, d.lim.MaxColorTargets)
	if err != nil {
		return nil, &driver.CreateError{Object: "blend state", Err: err}
	}
	s := &blendState{
		desc:    *desc,
		targets: targets,
		ms: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: desc.AlphaToCoverage,
		},
	}
	s.desc.Targets = append([]driver.BlendProperty(nil), desc.Targets...)
	s.track(d, s, "")
	return s, nil
}

// colorTargets converts the blend properties of desc.
// Without independent blend, the first property applies
// to every target.
func colorTargets(desc *driver.BlendDesc, maxTargets int) ([]wgpu.ColorTargetState, error) {
	n := len(desc.Targets)
	if n > maxTargets {
		return nil, &driver.RangeError{Op: "NewBlendState targets", Index: n, Len: maxTargets + 1}
	}
	targets := make([]wgpu.ColorTargetState, n)
	for i := range targets {
		p := &desc.Targets[i]
		if !desc.IndependentBlend {
			p = &desc.Targets[0]
		}
		targets[i].WriteMask = convColorMask(p.WriteMask)
		if !p.Enable {
			continue
		}
		bs, err := convBlend(p)
		if err != nil {
			return nil, err
		}
		targets[i].Blend = &bs
	}
	return targets, nil
}

func convBlend(p *driver.BlendProperty) (bs wgpu.BlendState, err error) {
	if bs.Color.Operation, err = convBlendOp(p.ColorOp); err != nil {
		return
	}
	if bs.Color.SrcFactor, err = convBlendFac(p.Src); err != nil {
		return
	}
	if bs.Color.DstFactor, err = convBlendFac(p.Dst); err != nil {
		return
	}
	if bs.Alpha.Operation, err = convBlendOp(p.AlphaOp); err != nil {
		return
	}
	if bs.Alpha.SrcFactor, err = convBlendFac(p.SrcAlpha); err != nil {
		return
	}
	bs.Alpha.DstFactor, err = convBlendFac(p.DstAlpha)
	return
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

// depthBias is the part of the rasterizer property that
// WebGPU places in the depth/stencil state.
type depthBias struct {
	bias  int32
	slope float32
	clamp float32
}

// rasterizerState implements driver.RasterizerState.
type rasterizerState struct {
	object
	prop      driver.RasterizerProperty
	primitive wgpu.PrimitiveState
	bias      depthBias
}

// NewRasterizerState creates a new rasterizer state.
// Wire frame fill is not supported.
func (d *Device) NewRasterizerState(prop *driver.RasterizerProperty) (driver.RasterizerState, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	ps, err := primitiveState(prop)
	if err != nil {
		return nil, &driver.CreateError{Object: "rasterizer state", Err: err}
	}
	s := &rasterizerState{
		prop:      *prop,
		primitive: ps,
		bias: depthBias{
			bias:  prop.DepthBias,
			slope: prop.SlopeScaledDepthBias,
			clamp: prop.DepthBiasClamp,
		},
	}
	s.track(d, s, "")
	return s, nil
}

// primitiveState converts prop to a wgpu.PrimitiveState.
// The topology is set by the input assembly state.
func primitiveState(prop *driver.RasterizerProperty) (ps wgpu.PrimitiveState, err error) {
	if err = convFillMode(prop.Fill); err != nil {
		return
	}
	if ps.CullMode, err = convCullMode(prop.Cull); err != nil {
		return
	}
	ps.Topology = wgpu.PrimitiveTopologyTriangleList
	ps.FrontFace = wgpu.FrontFaceCW
	if prop.FrontCounterClockwise {
		ps.FrontFace = wgpu.FrontFaceCCW
	}
	return
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
// The depth format is set when a pipeline is created.
type depthStencilState struct {
	object
	prop driver.DepthStencilProperty
	ds   wgpu.DepthStencilState
}

// NewDepthStencilState creates a new depth/stencil state.
func (d *Device) NewDepthStencilState(prop *driver.DepthStencilProperty) (driver.DepthStencilState, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	ds, err := depthStencil(prop)
	if err != nil {
		return nil, &driver.CreateError{Object: "depth/stencil state", Err: err}
	}
	s := &depthStencilState{prop: *prop, ds: ds}
	s.track(d, s, "")
	return s, nil
}

func stencilFace(s *driver.StencilOperatorInfo) (f wgpu.StencilFaceState, err error) {
	if f.Compare, err = convCmpFunc(s.Cmp); err != nil {
		return
	}
	if f.FailOp, err = convStencilOp(s.Fail); err != nil {
		return
	}
	if f.DepthFailOp, err = convStencilOp(s.DepthFail); err != nil {
		return
	}
	f.PassOp, err = convStencilOp(s.Pass)
	return
}

// depthStencil converts prop to a wgpu.DepthStencilState.
// Disabled tests compare with CompareFunctionAlways and
// keep the stencil value.
func depthStencil(prop *driver.DepthStencilProperty) (ds wgpu.DepthStencilState, err error) {
	ds.DepthCompare = wgpu.CompareFunctionAlways
	if prop.DepthTest {
		if ds.DepthCompare, err = convCmpFunc(prop.DepthCmp); err != nil {
			return
		}
		ds.DepthWriteEnabled = prop.DepthWrite
	}
	if !prop.StencilTest {
		keep := wgpu.StencilFaceState{
			Compare:     wgpu.CompareFunctionAlways,
			FailOp:      wgpu.StencilOperationKeep,
			DepthFailOp: wgpu.StencilOperationKeep,
			PassOp:      wgpu.StencilOperationKeep,
		}
		ds.StencilFront = keep
		ds.StencilBack = keep
		return
	}
	if ds.StencilFront, err = stencilFace(&prop.Front); err != nil {
		return
	}
	if ds.StencilBack, err = stencilFace(&prop.Back); err != nil {
		return
	}
	ds.StencilReadMask = uint32(prop.StencilReadMask)
	ds.StencilWriteMask = uint32(prop.StencilWriteMask)
	return
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
type inputAssemblyState struct {
	object
	top     driver.Topology
	attrs   []driver.VertexAttr
	slots   []driver.VertexSlot
	topo    wgpu.PrimitiveTopology
	buffers []wgpu.VertexBufferLayout
}

// NewInputAssemblyState creates a new input assembly
// state.
func (d *Device) NewInputAssemblyState(top driver.Topology, elems []driver.InputElement) (driver.InputAssemblyState, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	topo, err := convTopology(top)
	if err != nil {
		return nil, &driver.CreateError{Object: "input assembly state", Err: err}
	}
	attrs, slots, err := driver.InputLayout(elems)
	if err != nil {
		return nil, &driver.CreateError{Object: "input assembly state", Err: err}
	}
	buffers, err := vertexBuffers(attrs, slots, d.lim.MaxVertexIn)
	if err != nil {
		return nil, &driver.CreateError{Object: "input assembly state", Err: err}
	}
	s := &inputAssemblyState{
		top:     top,
		attrs:   attrs,
		slots:   slots,
		topo:    topo,
		buffers: buffers,
	}
	s.track(d, s, "")
	return s, nil
}

// vertexBuffers creates one vertex buffer layout per
// slot, in slot order.
func vertexBuffers(attrs []driver.VertexAttr, slots []driver.VertexSlot, maxIn int) ([]wgpu.VertexBufferLayout, error) {
	if len(attrs) > maxIn {
		return nil, &driver.RangeError{Op: "NewInputAssemblyState inputs", Index: len(attrs), Len: maxIn + 1}
	}
	buffers := make([]wgpu.VertexBufferLayout, len(slots))
	index := make(map[int]int, len(slots))
	for i, s := range slots {
		buffers[i] = wgpu.VertexBufferLayout{
			ArrayStride: uint64(s.Stride),
			StepMode:    wgpu.VertexStepModeVertex,
		}
		index[s.Slot] = i
	}
	for _, a := range attrs {
		vf, err := convVertexFmt(a.Format)
		if err != nil {
			return nil, err
		}
		b := &buffers[index[a.Slot]]
		b.Attributes = append(b.Attributes, wgpu.VertexAttribute{
			Format:         vf,
			Offset:         uint64(a.Offset),
			ShaderLocation: uint32(a.Location),
		})
	}
	return buffers, nil
}

// Topology returns the primitive topology.
func (s *inputAssemblyState) Topology() driver.Topology { return s.top }

// Attrs returns the vertex attributes.
func (s *inputAssemblyState) Attrs() []driver.VertexAttr {
	return append([]driver.VertexAttr(nil), s.attrs...)
}

// Slots returns the vertex buffer bindings.
func (s *inputAssemblyState) Slots() []driver.VertexSlot {
	return append([]driver.VertexSlot(nil), s.slots...)
}

// Destroy destroys the input assembly state.
func (s *inputAssemblyState) Destroy() {
	if s == nil || s.d == nil {
		return
	}
	s.untrack()
	*s = inputAssemblyState{}
}
