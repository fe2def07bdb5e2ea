// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"github.com/gogpu/gputypes"

	"github.com/gviegas/rhi/driver"
)

// convPixelFmt converts a driver.PixelFormat to a
// gputypes.TextureFormat.
func convPixelFmt(pf driver.PixelFormat) (gputypes.TextureFormat, error) {
	switch pf {
	case driver.RGBA8un:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case driver.RGBA8n:
		return gputypes.TextureFormatRGBA8Snorm, nil
	case driver.RGBA8ui:
		return gputypes.TextureFormatRGBA8Uint, nil
	case driver.RGBA8sRGB:
		return gputypes.TextureFormatRGBA8UnormSrgb, nil
	case driver.BGRA8un:
		return gputypes.TextureFormatBGRA8Unorm, nil
	case driver.BGRA8sRGB:
		return gputypes.TextureFormatBGRA8UnormSrgb, nil
	case driver.RG8un:
		return gputypes.TextureFormatRG8Unorm, nil
	case driver.R8un:
		return gputypes.TextureFormatR8Unorm, nil
	case driver.RGBA16f:
		return gputypes.TextureFormatRGBA16Float, nil
	case driver.RG16f:
		return gputypes.TextureFormatRG16Float, nil
	case driver.R16f:
		return gputypes.TextureFormatR16Float, nil
	case driver.R16ui:
		return gputypes.TextureFormatR16Uint, nil
	case driver.RGBA32f:
		return gputypes.TextureFormatRGBA32Float, nil
	case driver.RG32f:
		return gputypes.TextureFormatRG32Float, nil
	case driver.R32f:
		return gputypes.TextureFormatR32Float, nil
	case driver.RGBA32ui:
		return gputypes.TextureFormatRGBA32Uint, nil
	case driver.R32ui:
		return gputypes.TextureFormatR32Uint, nil
	case driver.D16un:
		return gputypes.TextureFormatDepth16Unorm, nil
	case driver.D24unS8ui:
		return gputypes.TextureFormatDepth24PlusStencil8, nil
	case driver.D32f:
		return gputypes.TextureFormatDepth32Float, nil
	case driver.D32fS8ui:
		return gputypes.TextureFormatDepth32FloatStencil8, nil
	}
	// WebGPU has no three-channel texture formats, so
	// RGB32f is valid as vertex format only.
	return gputypes.TextureFormatUndefined, driver.Unsupported("pixel format", pf)
}

// convVertexFmt converts a driver.PixelFormat to a
// gputypes.VertexFormat.
func convVertexFmt(pf driver.PixelFormat) (gputypes.VertexFormat, error) {
	switch pf {
	case driver.RGBA8un, driver.BGRA8un:
		return gputypes.VertexFormatUnorm8x4, nil
	case driver.RGBA8n:
		return gputypes.VertexFormatSnorm8x4, nil
	case driver.RGBA8ui:
		return gputypes.VertexFormatUint8x4, nil
	case driver.RGBA16f:
		return gputypes.VertexFormatFloat16x4, nil
	case driver.RG16f:
		return gputypes.VertexFormatFloat16x2, nil
	case driver.RGBA32f:
		return gputypes.VertexFormatFloat32x4, nil
	case driver.RGB32f:
		return gputypes.VertexFormatFloat32x3, nil
	case driver.RG32f:
		return gputypes.VertexFormatFloat32x2, nil
	case driver.R32f:
		return gputypes.VertexFormatFloat32, nil
	case driver.RGBA32ui:
		return gputypes.VertexFormatUint32x4, nil
	case driver.R32ui:
		return gputypes.VertexFormatUint32, nil
	}
	return 0, driver.Unsupported("vertex format", pf)
}

// convDimension converts a driver.Dimension to a
// gputypes.TextureDimension.
func convDimension(dim driver.Dimension) (gputypes.TextureDimension, error) {
	switch dim {
	case driver.Dim1D:
		return gputypes.TextureDimension1D, nil
	case driver.Dim2D:
		return gputypes.TextureDimension2D, nil
	case driver.Dim3D:
		return gputypes.TextureDimension3D, nil
	}
	return 0, driver.Unsupported("dimension", dim)
}

// convTexUsage converts a driver.Usage to a
// gputypes.TextureUsage.
// Copy usages are always set.
func convTexUsage(usg driver.Usage) gputypes.TextureUsage {
	u := gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst
	if usg&driver.UShaderResource != 0 {
		u |= gputypes.TextureUsageTextureBinding
	}
	if usg&driver.UUnorderedAccess != 0 {
		u |= gputypes.TextureUsageStorageBinding
	}
	if usg&(driver.URenderTarget|driver.UDepthStencil) != 0 {
		u |= gputypes.TextureUsageRenderAttachment
	}
	return u
}

// convBufUsage converts a driver.Usage and heap to a
// gputypes.BufferUsage.
func convBufUsage(usg driver.Usage, heap driver.HeapType) gputypes.BufferUsage {
	var u gputypes.BufferUsage
	switch heap {
	case driver.HUpload:
		u |= gputypes.BufferUsageMapWrite | gputypes.BufferUsageCopySrc
	case driver.HReadback:
		u |= gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst
	}
	if usg&driver.UCopySrc != 0 {
		u |= gputypes.BufferUsageCopySrc
	}
	if usg&driver.UCopyDst != 0 {
		u |= gputypes.BufferUsageCopyDst
	}
	if usg&driver.UConstantBuffer != 0 {
		u |= gputypes.BufferUsageUniform
	}
	if usg&(driver.UShaderResource|driver.UUnorderedAccess) != 0 {
		u |= gputypes.BufferUsageStorage
	}
	if usg&driver.UVertexBuffer != 0 {
		u |= gputypes.BufferUsageVertex
	}
	if usg&driver.UIndexBuffer != 0 {
		u |= gputypes.BufferUsageIndex
	}
	return u
}

// convCmpFunc converts a driver.CmpFunc to a
// gputypes.CompareFunction.
func convCmpFunc(f driver.CmpFunc) (gputypes.CompareFunction, error) {
	switch f {
	case driver.CNever:
		return gputypes.CompareFunctionNever, nil
	case driver.CLess:
		return gputypes.CompareFunctionLess, nil
	case driver.CEqual:
		return gputypes.CompareFunctionEqual, nil
	case driver.CLessEqual:
		return gputypes.CompareFunctionLessEqual, nil
	case driver.CGreater:
		return gputypes.CompareFunctionGreater, nil
	case driver.CNotEqual:
		return gputypes.CompareFunctionNotEqual, nil
	case driver.CGreaterEqual:
		return gputypes.CompareFunctionGreaterEqual, nil
	case driver.CAlways:
		return gputypes.CompareFunctionAlways, nil
	}
	return 0, driver.Unsupported("compare function", f)
}

// convCullMode converts a driver.CullMode to a
// gputypes.CullMode.
func convCullMode(m driver.CullMode) (gputypes.CullMode, error) {
	switch m {
	case driver.CNone:
		return gputypes.CullModeNone, nil
	case driver.CFront:
		return gputypes.CullModeFront, nil
	case driver.CBack:
		return gputypes.CullModeBack, nil
	}
	return 0, driver.Unsupported("cull mode", m)
}

// convTopology converts a driver.Topology to a
// gputypes.PrimitiveTopology.
func convTopology(t driver.Topology) (gputypes.PrimitiveTopology, error) {
	switch t {
	case driver.TPoint:
		return gputypes.PrimitiveTopologyPointList, nil
	case driver.TLine:
		return gputypes.PrimitiveTopologyLineList, nil
	case driver.TLnStrip:
		return gputypes.PrimitiveTopologyLineStrip, nil
	case driver.TTriangle:
		return gputypes.PrimitiveTopologyTriangleList, nil
	case driver.TTriStrip:
		return gputypes.PrimitiveTopologyTriangleStrip, nil
	}
	return 0, driver.Unsupported("topology", t)
}

// convBlendFac converts a driver.BlendFac to a
// gputypes.BlendFactor.
func convBlendFac(f driver.BlendFac) (gputypes.BlendFactor, error) {
	switch f {
	case driver.BZero:
		return gputypes.BlendFactorZero, nil
	case driver.BOne:
		return gputypes.BlendFactorOne, nil
	case driver.BSrcColor:
		return gputypes.BlendFactorSrc, nil
	case driver.BInvSrcColor:
		return gputypes.BlendFactorOneMinusSrc, nil
	case driver.BSrcAlpha:
		return gputypes.BlendFactorSrcAlpha, nil
	case driver.BInvSrcAlpha:
		return gputypes.BlendFactorOneMinusSrcAlpha, nil
	case driver.BDstColor:
		return gputypes.BlendFactorDst, nil
	case driver.BInvDstColor:
		return gputypes.BlendFactorOneMinusDst, nil
	case driver.BDstAlpha:
		return gputypes.BlendFactorDstAlpha, nil
	case driver.BInvDstAlpha:
		return gputypes.BlendFactorOneMinusDstAlpha, nil
	case driver.BSrcAlphaSaturated:
		return gputypes.BlendFactorSrcAlphaSaturated, nil
	case driver.BBlendColor:
		return gputypes.BlendFactorConstant, nil
	case driver.BInvBlendColor:
		return gputypes.BlendFactorOneMinusConstant, nil
	}
	return 0, driver.Unsupported("blend factor", f)
}

// convBlendOp converts a driver.BlendOp to a
// gputypes.BlendOperation.
func convBlendOp(op driver.BlendOp) (gputypes.BlendOperation, error) {
	switch op {
	case driver.BAdd:
		return gputypes.BlendOperationAdd, nil
	case driver.BSubtract:
		return gputypes.BlendOperationSubtract, nil
	case driver.BRevSubtract:
		return gputypes.BlendOperationReverseSubtract, nil
	case driver.BMin:
		return gputypes.BlendOperationMin, nil
	case driver.BMax:
		return gputypes.BlendOperationMax, nil
	}
	return 0, driver.Unsupported("blend operation", op)
}

// convColorMask converts a driver.ColorMask to a
// gputypes.ColorWriteMask.
func convColorMask(m driver.ColorMask) gputypes.ColorWriteMask {
	w := gputypes.ColorWriteMaskNone
	if m&driver.CRed != 0 {
		w |= gputypes.ColorWriteMaskRed
	}
	if m&driver.CGreen != 0 {
		w |= gputypes.ColorWriteMaskGreen
	}
	if m&driver.CBlue != 0 {
		w |= gputypes.ColorWriteMaskBlue
	}
	if m&driver.CAlpha != 0 {
		w |= gputypes.ColorWriteMaskAlpha
	}
	return w
}

// convAddrMode converts a driver.AddrMode to a
// gputypes.AddressMode.
func convAddrMode(m driver.AddrMode) (gputypes.AddressMode, error) {
	switch m {
	case driver.AWrap:
		return gputypes.AddressModeRepeat, nil
	case driver.AMirror:
		return gputypes.AddressModeMirrorRepeat, nil
	case driver.AClamp:
		return gputypes.AddressModeClampToEdge, nil
	}
	// WebGPU has no border address mode.
	return 0, driver.Unsupported("address mode", m)
}

// convFilter converts the stage of f selected by mask
// to a gputypes.FilterMode.
func convFilter(f driver.Filter, mask driver.Filter) (gputypes.FilterMode, error) {
	if !f.IsValid() {
		return 0, driver.Unsupported("filter", f)
	}
	if f.Linear(mask) {
		return gputypes.FilterModeLinear, nil
	}
	return gputypes.FilterModeNearest, nil
}

// setVisibility sets the visibility of e from a
// driver.Stage.
func setVisibility(e *gputypes.BindGroupLayoutEntry, s driver.Stage) {
	if s&driver.SVertex != 0 {
		e.Visibility |= gputypes.ShaderStageVertex
	}
	if s&driver.SFragment != 0 {
		e.Visibility |= gputypes.ShaderStageFragment
	}
	if s&driver.SCompute != 0 {
		e.Visibility |= gputypes.ShaderStageCompute
	}
}

// Binding number offsets of each register class.
// WebGPU has a single binding namespace per group.
const (
	maxRegister  = 64
	cbvShift     = 0
	srvShift     = 64
	uavShift     = 128
	samplerShift = 192
)

// convLayout converts a driver.LayoutDesc to bind group
// layout entries, indexed by register space.
func convLayout(desc *driver.LayoutDesc) (map[int][]gputypes.BindGroupLayoutEntry, error) {
	groups := make(map[int][]gputypes.BindGroupLayoutEntry)
	for _, r := range desc.Elements() {
		if r.Register+r.Count > maxRegister {
			return nil, &driver.RangeError{Op: "binding register", Index: r.Register + r.Count - 1, Len: maxRegister}
		}
		for i := range r.Count {
			e := gputypes.BindGroupLayoutEntry{}
			switch r.Type {
			case driver.DConstant:
				e.Binding = uint32(cbvShift + r.Register + i)
				e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
			case driver.DBuffer:
				e.Binding = uint32(srvShift + r.Register + i)
				e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}
			case driver.DStorageBuffer:
				e.Binding = uint32(uavShift + r.Register + i)
				e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}
			case driver.DTexture:
				e.Binding = uint32(srvShift + r.Register + i)
				e.Texture = &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				}
			case driver.DStorageTexture:
				e.Binding = uint32(uavShift + r.Register + i)
				e.StorageTexture = &gputypes.StorageTextureBindingLayout{
					Access:        gputypes.StorageTextureAccessReadWrite,
					Format:        gputypes.TextureFormatRGBA8Unorm,
					ViewDimension: gputypes.TextureViewDimension2D,
				}
			}
			setVisibility(&e, r.Stages)
			groups[r.Space] = append(groups[r.Space], e)
		}
	}
	for _, s := range desc.Samplers() {
		if s.Register+s.Count > maxRegister {
			return nil, &driver.RangeError{Op: "binding register", Index: s.Register + s.Count - 1, Len: maxRegister}
		}
		for i := range s.Count {
			e := gputypes.BindGroupLayoutEntry{
				Binding: uint32(samplerShift + s.Register + i),
				Sampler: &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			}
			setVisibility(&e, s.Stages)
			groups[s.Space] = append(groups[s.Space], e)
		}
	}
	// Inline constants become a uniform buffer.
	if c, ok := desc.Constant(); ok {
		if c.Register >= maxRegister {
			return nil, &driver.RangeError{Op: "binding register", Index: c.Register, Len: maxRegister}
		}
		e := gputypes.BindGroupLayoutEntry{
			Binding: uint32(cbvShift + c.Register),
			Buffer:  &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		}
		setVisibility(&e, c.Stages)
		groups[c.Space] = append(groups[c.Space], e)
	}
	return groups, nil
}
