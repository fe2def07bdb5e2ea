// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"github.com/gogpu/gputypes"

	"github.com/gviegas/rhi/driver"
)

// blendState implements driver.BlendState.
type blendState struct {
	object
	desc    driver.BlendDesc
	targets []gputypes.ColorTargetState
}

// NewBlendState creates a new blend state.
func (d *Device) NewBlendState(desc *driver.BlendDesc) (driver.BlendState, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	props := desc.Targets
	if !desc.IndependentBlend && len(props) > 1 {
		props = props[:1]
	}
	if len(props) > d.Limits().MaxColorTargets {
		return nil, &driver.RangeError{Op: "NewBlendState targets", Index: len(props), Len: d.Limits().MaxColorTargets + 1}
	}
	targets := make([]gputypes.ColorTargetState, len(props))
	for i, p := range props {
		targets[i].WriteMask = convColorMask(p.WriteMask)
		if !p.Enable {
			continue
		}
		bs, err := convBlend(&p)
		if err != nil {
			return nil, &driver.CreateError{Object: "blend state", Err: err}
		}
		targets[i].Blend = &bs
	}
	s := &blendState{desc: *desc, targets: targets}
	s.desc.Targets = append([]driver.BlendProperty(nil), desc.Targets...)
	s.track(d, s, "")
	return s, nil
}

func convBlend(p *driver.BlendProperty) (bs gputypes.BlendState, err error) {
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

// rasterizerState implements driver.RasterizerState.
type rasterizerState struct {
	object
	prop      driver.RasterizerProperty
	primitive gputypes.PrimitiveState
	wireFrame bool
}

// NewRasterizerState creates a new rasterizer state.
func (d *Device) NewRasterizerState(prop *driver.RasterizerProperty) (driver.RasterizerState, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	cull, err := convCullMode(prop.Cull)
	if err != nil {
		return nil, &driver.CreateError{Object: "rasterizer state", Err: err}
	}
	var wire bool
	switch prop.Fill {
	case driver.FSolid:
	case driver.FWireFrame:
		wire = true
	default:
		return nil, &driver.CreateError{Object: "rasterizer state", Err: driver.Unsupported("fill mode", prop.Fill)}
	}
	front := gputypes.FrontFaceCW
	if prop.FrontCounterClockwise {
		front = gputypes.FrontFaceCCW
	}
	s := &rasterizerState{
		prop: *prop,
		primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: front,
			CullMode:  cull,
		},
		wireFrame: wire,
	}
	s.track(d, s, "")
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

// stencilFace is the native stencil state of one face.
// gputypes does not define stencil operations, so they
// are kept after validation.
type stencilFace struct {
	cmp                   gputypes.CompareFunction
	fail, depthFail, pass driver.StencilOp
}

func convStencilFace(s *driver.StencilOperatorInfo) (f stencilFace, err error) {
	for _, op := range [3]driver.StencilOp{s.Fail, s.DepthFail, s.Pass} {
		if op < driver.SKeep || op > driver.SDecWrap {
			return f, driver.Unsupported("stencil operation", op)
		}
	}
	f.fail, f.depthFail, f.pass = s.Fail, s.DepthFail, s.Pass
	f.cmp, err = convCmpFunc(s.Cmp)
	return
}

// depthStencilState implements driver.DepthStencilState.
type depthStencilState struct {
	object
	prop        driver.DepthStencilProperty
	depthCmp    gputypes.CompareFunction
	front, back stencilFace
}

// NewDepthStencilState creates a new depth/stencil state.
func (d *Device) NewDepthStencilState(prop *driver.DepthStencilProperty) (driver.DepthStencilState, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	s := &depthStencilState{prop: *prop, depthCmp: gputypes.CompareFunctionAlways}
	var err error
	if prop.DepthTest {
		s.depthCmp, err = convCmpFunc(prop.DepthCmp)
	}
	if err == nil {
		s.front, err = convStencilFace(&prop.Front)
	}
	if err == nil {
		s.back, err = convStencilFace(&prop.Back)
	}
	if err != nil {
		return nil, &driver.CreateError{Object: "depth/stencil state", Err: err}
	}
	s.track(d, s, "")
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
type inputAssemblyState struct {
	object
	top     driver.Topology
	attrs   []driver.VertexAttr
	slots   []driver.VertexSlot
	topo    gputypes.PrimitiveTopology
	buffers []gputypes.VertexBufferLayout
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
	if len(attrs) > d.Limits().MaxVertexIn {
		err = &driver.RangeError{Op: "NewInputAssemblyState inputs", Index: len(attrs), Len: d.Limits().MaxVertexIn + 1}
		return nil, &driver.CreateError{Object: "input assembly state", Err: err}
	}
	buffers := make([]gputypes.VertexBufferLayout, len(slots))
	index := make(map[int]int, len(slots))
	for i, s := range slots {
		buffers[i] = gputypes.VertexBufferLayout{
			ArrayStride: uint64(s.Stride),
			StepMode:    gputypes.VertexStepModeVertex,
		}
		index[s.Slot] = i
	}
	for _, a := range attrs {
		vf, err := convVertexFmt(a.Format)
		if err != nil {
			return nil, &driver.CreateError{Object: "input assembly state", Err: err}
		}
		b := &buffers[index[a.Slot]]
		b.Attributes = append(b.Attributes, gputypes.VertexAttribute{
			Format:         vf,
			Offset:         uint64(a.Offset),
			ShaderLocation: uint32(a.Location),
		})
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

// Topology returns the primitive topology.
func (s *inputAssemblyState) Topology() driver.Topology { return s.top }

// Attrs returns the vertex attributes.
func (s *inputAssemblyState) Attrs() []driver.VertexAttr { return s.attrs }

// Slots returns the vertex buffer bindings.
func (s *inputAssemblyState) Slots() []driver.VertexSlot { return s.slots }

// Destroy destroys the input assembly state.
func (s *inputAssemblyState) Destroy() {
	if s == nil || s.d == nil {
		return
	}
	s.untrack()
	*s = inputAssemblyState{}
}
