// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/goki/vulkan"

	"github.com/gviegas/rhi/driver"
)

// blendState implements driver.BlendState.
type blendState struct {
	object
	desc driver.BlendDesc
	atts []vk.PipelineColorBlendAttachmentState
}

// NewBlendState creates a new blend state.
func (d *Device) NewBlendState(desc *driver.BlendDesc) (driver.BlendState, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	atts, err := blendAttachments(desc, d.adp.info.Features, d.adp.lim.MaxColorTargets)
	if err != nil {
		return nil, &driver.CreateError{Object: "blend state", Err: err}
	}
	s := &blendState{desc: *desc, atts: atts}
	s.desc.Targets = append([]driver.BlendProperty(nil), desc.Targets...)
	s.track(d, s, "")
	return s, nil
}

// blendAttachments converts the targets of desc.
// Without independent blend, Targets[0] is replicated
// to every target.
func blendAttachments(desc *driver.BlendDesc, feat driver.Feature, maxTargets int) ([]vk.PipelineColorBlendAttachmentState, error) {
	if len(desc.Targets) > maxTargets {
		return nil, &driver.RangeError{Op: "NewBlendState targets", Index: len(desc.Targets), Len: maxTargets + 1}
	}
	if desc.IndependentBlend && !feat.Has(driver.FeatIndependentBlend) {
		return nil, driver.Unsupported("blend feature", uint32(driver.FeatIndependentBlend))
	}
	atts := make([]vk.PipelineColorBlendAttachmentState, len(desc.Targets))
	for i := range atts {
		p := &desc.Targets[0]
		if desc.IndependentBlend {
			p = &desc.Targets[i]
		}
		var err error
		if atts[i], err = convBlend(p); err != nil {
			return nil, err
		}
	}
	return atts, nil
}

func convBlend(p *driver.BlendProperty) (s vk.PipelineColorBlendAttachmentState, err error) {
	s.ColorWriteMask = vk.ColorComponentFlags(convColorMask(p.WriteMask))
	if !p.Enable {
		return
	}
	s.BlendEnable = vk.True
	if s.ColorBlendOp, err = convBlendOp(p.ColorOp); err != nil {
		return
	}
	if s.SrcColorBlendFactor, err = convBlendFac(p.Src); err != nil {
		return
	}
	if s.DstColorBlendFactor, err = convBlendFac(p.Dst); err != nil {
		return
	}
	if s.AlphaBlendOp, err = convBlendOp(p.AlphaOp); err != nil {
		return
	}
	if s.SrcAlphaBlendFactor, err = convBlendFac(p.SrcAlpha); err != nil {
		return
	}
	s.DstAlphaBlendFactor, err = convBlendFac(p.DstAlpha)
	return
}

// native returns the color blend state.
// Alpha to coverage is part of the multisample state.
func (s *blendState) native() (vk.PipelineColorBlendStateCreateInfo, bool) {
	return vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: uint32(len(s.atts)),
		PAttachments:    s.atts,
	}, s.desc.AlphaToCoverage
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
	info vk.PipelineRasterizationStateCreateInfo
}

// NewRasterizerState creates a new rasterizer state.
func (d *Device) NewRasterizerState(prop *driver.RasterizerProperty) (driver.RasterizerState, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	info, err := rasterInfo(prop, d.adp.info.Features)
	if err != nil {
		return nil, &driver.CreateError{Object: "rasterizer state", Err: err}
	}
	s := &rasterizerState{prop: *prop, info: info}
	s.track(d, s, "")
	return s, nil
}

// rasterInfo creates the rasterization state for prop.
func rasterInfo(prop *driver.RasterizerProperty, feat driver.Feature) (info vk.PipelineRasterizationStateCreateInfo, err error) {
	cull, err := convCullMode(prop.Cull)
	if err != nil {
		return
	}
	fill, err := convFillMode(prop.Fill)
	if err != nil {
		return
	}
	if fill != vk.PolygonModeFill && !feat.Has(driver.FeatWireFrame) {
		err = driver.Unsupported("fill mode", prop.Fill)
		return
	}
	info = vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: fill,
		CullMode:    vk.CullModeFlags(cull),
		FrontFace:   vk.FrontFaceClockwise,
		LineWidth:   1,
	}
	if prop.FrontCounterClockwise {
		info.FrontFace = vk.FrontFaceCounterClockwise
	}
	if !prop.DepthClip {
		if !feat.Has(driver.FeatDepthClamp) {
			err = driver.Unsupported("rasterizer feature", uint32(driver.FeatDepthClamp))
			return
		}
		info.DepthClampEnable = vk.True
	}
	if prop.DepthBias != 0 || prop.SlopeScaledDepthBias != 0 {
		info.DepthBiasEnable = vk.True
		info.DepthBiasConstantFactor = float32(prop.DepthBias)
		info.DepthBiasClamp = prop.DepthBiasClamp
		info.DepthBiasSlopeFactor = prop.SlopeScaledDepthBias
	}
	return
}

// native returns the rasterization state.
func (s *rasterizerState) native() vk.PipelineRasterizationStateCreateInfo { return s.info }

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
	info vk.PipelineDepthStencilStateCreateInfo
}

// NewDepthStencilState creates a new depth/stencil state.
func (d *Device) NewDepthStencilState(prop *driver.DepthStencilProperty) (driver.DepthStencilState, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	info, err := depthStencilInfo(prop)
	if err != nil {
		return nil, &driver.CreateError{Object: "depth/stencil state", Err: err}
	}
	s := &depthStencilState{prop: *prop, info: info}
	s.track(d, s, "")
	return s, nil
}

// depthStencilInfo creates the depth/stencil state for
// prop.
func depthStencilInfo(prop *driver.DepthStencilProperty) (info vk.PipelineDepthStencilStateCreateInfo, err error) {
	info = vk.PipelineDepthStencilStateCreateInfo{
		SType:          vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthCompareOp: vk.CompareOpAlways,
		MaxDepthBounds: 1,
	}
	if prop.DepthTest {
		info.DepthTestEnable = vk.True
		if info.DepthCompareOp, err = convCmpFunc(prop.DepthCmp); err != nil {
			return
		}
	}
	if prop.DepthWrite {
		info.DepthWriteEnable = vk.True
	}
	if prop.StencilTest {
		info.StencilTestEnable = vk.True
	}
	if info.Front, err = convStencil(&prop.Front, prop.StencilReadMask, prop.StencilWriteMask); err != nil {
		return
	}
	info.Back, err = convStencil(&prop.Back, prop.StencilReadMask, prop.StencilWriteMask)
	return
}

func convStencil(s *driver.StencilOperatorInfo, read, write uint8) (st vk.StencilOpState, err error) {
	if st.FailOp, err = convStencilOp(s.Fail); err != nil {
		return
	}
	if st.DepthFailOp, err = convStencilOp(s.DepthFail); err != nil {
		return
	}
	if st.PassOp, err = convStencilOp(s.Pass); err != nil {
		return
	}
	if st.CompareOp, err = convCmpFunc(s.Cmp); err != nil {
		return
	}
	st.CompareMask = uint32(read)
	st.WriteMask = uint32(write)
	return
}

// native returns the depth/stencil state.
func (s *depthStencilState) native() vk.PipelineDepthStencilStateCreateInfo { return s.info }

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
	top   driver.Topology
	attrs []driver.VertexAttr
	slots []driver.VertexSlot
	ia    vk.PipelineInputAssemblyStateCreateInfo
	binds []vk.VertexInputBindingDescription
	descs []vk.VertexInputAttributeDescription
}

// NewInputAssemblyState creates a new input assembly
// state.
func (d *Device) NewInputAssemblyState(top driver.Topology, elems []driver.InputElement) (driver.InputAssemblyState, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	s, err := newInputAssembly(top, elems, d.adp.lim.MaxVertexIn)
	if err != nil {
		return nil, &driver.CreateError{Object: "input assembly state", Err: err}
	}
	s.track(d, s, "")
	return s, nil
}

func newInputAssembly(top driver.Topology, elems []driver.InputElement, maxIn int) (*inputAssemblyState, error) {
	topo, err := convTopology(top)
	if err != nil {
		return nil, err
	}
	attrs, slots, err := driver.InputLayout(elems)
	if err != nil {
		return nil, err
	}
	if len(attrs) > maxIn {
		return nil, &driver.RangeError{Op: "NewInputAssemblyState inputs", Index: len(attrs), Len: maxIn + 1}
	}
	s := &inputAssemblyState{
		top:   top,
		attrs: attrs,
		slots: slots,
		ia: vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: topo,
		},
		binds: make([]vk.VertexInputBindingDescription, len(slots)),
		descs: make([]vk.VertexInputAttributeDescription, len(attrs)),
	}
	for i, sl := range slots {
		s.binds[i] = vk.VertexInputBindingDescription{
			Binding:   uint32(sl.Slot),
			Stride:    uint32(sl.Stride),
			InputRate: vk.VertexInputRateVertex,
		}
	}
	for i, a := range attrs {
		f, err := convPixelFmt(a.Format)
		if err != nil || a.Format.IsDepth() {
			return nil, driver.Unsupported("vertex format", a.Format)
		}
		s.descs[i] = vk.VertexInputAttributeDescription{
			Location: uint32(a.Location),
			Binding:  uint32(a.Slot),
			Format:   f,
			Offset:   uint32(a.Offset),
		}
	}
	return s, nil
}

// native returns the input assembly and vertex input
// states.
func (s *inputAssemblyState) native() (vk.PipelineInputAssemblyStateCreateInfo, vk.PipelineVertexInputStateCreateInfo) {
	return s.ia, vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(s.binds)),
		PVertexBindingDescriptions:      s.binds,
		VertexAttributeDescriptionCount: uint32(len(s.descs)),
		PVertexAttributeDescriptions:    s.descs,
	}
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

// convTopology converts a driver.Topology to a
// vk.PrimitiveTopology.
func convTopology(top driver.Topology) (vk.PrimitiveTopology, error) {
	switch top {
	case driver.TPoint:
		return vk.PrimitiveTopologyPointList, nil
	case driver.TLine:
		return vk.PrimitiveTopologyLineList, nil
	case driver.TLnStrip:
		return vk.PrimitiveTopologyLineStrip, nil
	case driver.TTriangle:
		return vk.PrimitiveTopologyTriangleList, nil
	case driver.TTriStrip:
		return vk.PrimitiveTopologyTriangleStrip, nil
	}
	return 0, driver.Unsupported("topology", top)
}

// convCullMode converts a driver.CullMode to a
// vk.CullModeFlagBits.
func convCullMode(cm driver.CullMode) (vk.CullModeFlagBits, error) {
	switch cm {
	case driver.CNone:
		return vk.CullModeNone, nil
	case driver.CFront:
		return vk.CullModeFrontBit, nil
	case driver.CBack:
		return vk.CullModeBackBit, nil
	}
	return 0, driver.Unsupported("cull mode", cm)
}

// convFillMode converts a driver.FillMode to a
// vk.PolygonMode.
func convFillMode(fm driver.FillMode) (vk.PolygonMode, error) {
	switch fm {
	case driver.FSolid:
		return vk.PolygonModeFill, nil
	case driver.FWireFrame:
		return vk.PolygonModeLine, nil
	}
	return 0, driver.Unsupported("fill mode", fm)
}

// convStencilOp converts a driver.StencilOp to a
// vk.StencilOp.
func convStencilOp(op driver.StencilOp) (vk.StencilOp, error) {
	switch op {
	case driver.SKeep:
		return vk.StencilOpKeep, nil
	case driver.SZero:
		return vk.StencilOpZero, nil
	case driver.SReplace:
		return vk.StencilOpReplace, nil
	case driver.SIncClamp:
		return vk.StencilOpIncrementAndClamp, nil
	case driver.SDecClamp:
		return vk.StencilOpDecrementAndClamp, nil
	case driver.SInvert:
		return vk.StencilOpInvert, nil
	case driver.SIncWrap:
		return vk.StencilOpIncrementAndWrap, nil
	case driver.SDecWrap:
		return vk.StencilOpDecrementAndWrap, nil
	}
	return 0, driver.Unsupported("stencil operation", op)
}

// convBlendOp converts a driver.BlendOp to a vk.BlendOp.
func convBlendOp(op driver.BlendOp) (vk.BlendOp, error) {
	switch op {
	case driver.BAdd:
		return vk.BlendOpAdd, nil
	case driver.BSubtract:
		return vk.BlendOpSubtract, nil
	case driver.BRevSubtract:
		return vk.BlendOpReverseSubtract, nil
	case driver.BMin:
		return vk.BlendOpMin, nil
	case driver.BMax:
		return vk.BlendOpMax, nil
	}
	return 0, driver.Unsupported("blend operation", op)
}

// convBlendFac converts a driver.BlendFac to a
// vk.BlendFactor.
func convBlendFac(fac driver.BlendFac) (vk.BlendFactor, error) {
	switch fac {
	case driver.BZero:
		return vk.BlendFactorZero, nil
	case driver.BOne:
		return vk.BlendFactorOne, nil
	case driver.BSrcColor:
		return vk.BlendFactorSrcColor, nil
	case driver.BInvSrcColor:
		return vk.BlendFactorOneMinusSrcColor, nil
	case driver.BSrcAlpha:
		return vk.BlendFactorSrcAlpha, nil
	case driver.BInvSrcAlpha:
		return vk.BlendFactorOneMinusSrcAlpha, nil
	case driver.BDstColor:
		return vk.BlendFactorDstColor, nil
	case driver.BInvDstColor:
		return vk.BlendFactorOneMinusDstColor, nil
	case driver.BDstAlpha:
		return vk.BlendFactorDstAlpha, nil
	case driver.BInvDstAlpha:
		return vk.BlendFactorOneMinusDstAlpha, nil
	case driver.BSrcAlphaSaturated:
		return vk.BlendFactorSrcAlphaSaturate, nil
	case driver.BBlendColor:
		return vk.BlendFactorConstantColor, nil
	case driver.BInvBlendColor:
		return vk.BlendFactorOneMinusConstantColor, nil
	}
	return 0, driver.Unsupported("blend factor", fac)
}

// convColorMask converts a driver.ColorMask to a
// vk.ColorComponentFlagBits.
func convColorMask(cm driver.ColorMask) (flags vk.ColorComponentFlagBits) {
	if cm&driver.CRed != 0 {
		flags |= vk.ColorComponentRBit
	}
	if cm&driver.CGreen != 0 {
		flags |= vk.ColorComponentGBit
	}
	if cm&driver.CBlue != 0 {
		flags |= vk.ColorComponentBBit
	}
	if cm&driver.CAlpha != 0 {
		flags |= vk.ColorComponentABit
	}
	return
}
