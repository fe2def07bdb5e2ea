// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wgpu

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gviegas/rhi/driver"
)

// convPower converts a driver.PowerPreference to a
// wgpu.PowerPreference.
func convPower(p driver.PowerPreference) wgpu.PowerPreference {
	switch p {
	case driver.PowerLow:
		return wgpu.PowerPreferenceLowPower
	case driver.PowerHigh:
		return wgpu.PowerPreferenceHighPerformance
	}
	return wgpu.PowerPreferenceUndefined
}

// maxColorTargets is the WebGPU default for
// maxColorAttachments.
const maxColorTargets = 8

// convLimits converts the limits requested on device
// creation to driver.Limits.
func convLimits(l *wgpu.Limits) driver.Limits {
	return driver.Limits{
		MaxTexture1D:      int(l.MaxTextureDimension1D),
		MaxTexture2D:      int(l.MaxTextureDimension2D),
		MaxTextureCube:    int(l.MaxTextureDimension2D),
		MaxTexture3D:      int(l.MaxTextureDimension3D),
		MaxLayers:         int(l.MaxTextureArrayLayers),
		MaxConstantRange:  int64(l.MaxUniformBufferBindingSize),
		MaxConstant32Bits: driver.MaxConstant32Bits,
		MaxAnisotropy:     16,
		MaxVertexIn:       int(l.MaxVertexAttributes),
		MaxColorTargets:   maxColorTargets,
	}
}

// convPixelFmt converts a driver.PixelFormat to a
// wgpu.TextureFormat.
func convPixelFmt(pf driver.PixelFormat) (wgpu.TextureFormat, error) {
	switch pf {
	case driver.RGBA8un:
		return wgpu.TextureFormatRGBA8Unorm, nil
	case driver.RGBA8n:
		return wgpu.TextureFormatRGBA8Snorm, nil
	case driver.RGBA8ui:
		return wgpu.TextureFormatRGBA8Uint, nil
	case driver.RGBA8sRGB:
		return wgpu.TextureFormatRGBA8UnormSrgb, nil
	case driver.BGRA8un:
		return wgpu.TextureFormatBGRA8Unorm, nil
	case driver.BGRA8sRGB:
		return wgpu.TextureFormatBGRA8UnormSrgb, nil
	case driver.RG8un:
		return wgpu.TextureFormatRG8Unorm, nil
	case driver.R8un:
		return wgpu.TextureFormatR8Unorm, nil
	case driver.RGBA16f:
		return wgpu.TextureFormatRGBA16Float, nil
	case driver.RG16f:
		return wgpu.TextureFormatRG16Float, nil
	case driver.R16f:
		return wgpu.TextureFormatR16Float, nil
	case driver.R16ui:
		return wgpu.TextureFormatR16Uint, nil
	case driver.RGBA32f:
		return wgpu.TextureFormatRGBA32Float, nil
	case driver.RG32f:
		return wgpu.TextureFormatRG32Float, nil
	case driver.R32f:
		return wgpu.TextureFormatR32Float, nil
	case driver.RGBA32ui:
		return wgpu.TextureFormatRGBA32Uint, nil
	case driver.R32ui:
		return wgpu.TextureFormatR32Uint, nil
	case driver.D16un:
		return wgpu.TextureFormatDepth16Unorm, nil
	case driver.D24unS8ui:
		return wgpu.TextureFormatDepth24PlusStencil8, nil
	case driver.D32f:
		return wgpu.TextureFormatDepth32Float, nil
	case driver.D32fS8ui:
		return wgpu.TextureFormatDepth32FloatStencil8, nil
	}
	return wgpu.TextureFormatUndefined, driver.Unsupported("pixel format", pf)
}

// convVertexFmt converts a driver.PixelFormat to a
// wgpu.VertexFormat.
func convVertexFmt(pf driver.PixelFormat) (wgpu.VertexFormat, error) {
	switch pf {
	case driver.RGBA8un, driver.BGRA8un:
		return wgpu.VertexFormatUnorm8x4, nil
	case driver.RGBA8n:
		return wgpu.VertexFormatSnorm8x4, nil
	case driver.RGBA8ui:
		return wgpu.VertexFormatUint8x4, nil
	case driver.RGBA16f:
		return wgpu.VertexFormatFloat16x4, nil
	case driver.RG16f:
		return wgpu.VertexFormatFloat16x2, nil
	case driver.RGBA32f:
		return wgpu.VertexFormatFloat32x4, nil
	case driver.RGB32f:
		return wgpu.VertexFormatFloat32x3, nil
	case driver.RG32f:
		return wgpu.VertexFormatFloat32x2, nil
	case driver.R32f:
		return wgpu.VertexFormatFloat32, nil
	case driver.RGBA32ui:
		return wgpu.VertexFormatUint32x4, nil
	case driver.R32ui:
		return wgpu.VertexFormatUint32, nil
	}
	return 0, driver.Unsupported("vertex format", pf)
}

// Format capability classes of core WebGPU.
const (
	capsColor   = driver.FmtSampled | driver.FmtFilter | driver.FmtRenderTarget | driver.FmtBlend
	capsStorage = capsColor | driver.FmtStorage
	capsInt     = driver.FmtSampled | driver.FmtRenderTarget
	capsFloat32 = driver.FmtSampled | driver.FmtRenderTarget | driver.FmtStorage
	capsDepth   = driver.FmtSampled | driver.FmtDepthStencil
)

var formatCaps = map[driver.PixelFormat]driver.FormatFeature{
	driver.RGBA8un:   capsStorage,
	driver.RGBA8n:    driver.FmtSampled | driver.FmtFilter | driver.FmtStorage,
	driver.RGBA8ui:   capsInt | driver.FmtStorage,
	driver.RGBA8sRGB: capsColor,
	driver.BGRA8un:   capsColor,
	driver.BGRA8sRGB: capsColor,
	driver.RG8un:     capsColor,
	driver.R8un:      capsColor,
	driver.RGBA16f:   capsStorage,
	driver.RG16f:     capsColor,
	driver.R16f:      capsColor,
	driver.R16ui:     capsInt,
	driver.RGBA32f:   capsFloat32,
	driver.RG32f:     capsFloat32,
	driver.R32f:      capsFloat32,
	driver.RGBA32ui:  capsFloat32,
	driver.R32ui:     capsFloat32,
	driver.D16un:     capsDepth,
	driver.D24unS8ui: capsDepth,
	driver.D32f:      capsDepth,
	driver.D32fS8ui:  capsDepth,
}

// formatSupport returns the operations that core WebGPU
// supports for pf.
func formatSupport(pf driver.PixelFormat) driver.FormatFeature {
	f := formatCaps[pf]
	if _, err := convVertexFmt(pf); err == nil {
		f |= driver.FmtVertex
	}
	return f
}

// convDimension converts a driver.Dimension to a
// wgpu.TextureDimension.
func convDimension(dim driver.Dimension) (wgpu.TextureDimension, error) {
	switch dim {
	case driver.Dim1D:
		return wgpu.TextureDimension1D, nil
	case driver.Dim2D:
		return wgpu.TextureDimension2D, nil
	case driver.Dim3D:
		return wgpu.TextureDimension3D, nil
	}
	return 0, driver.Unsupported("dimension", dim)
}

// convTexUsage converts a driver.Usage to a
// wgpu.TextureUsage.
// Copy usages are always set.
func convTexUsage(usg driver.Usage) wgpu.TextureUsage {
	u := wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst
	if usg&driver.UShaderResource != 0 {
		u |= wgpu.TextureUsageTextureBinding
	}
	if usg&driver.UUnorderedAccess != 0 {
		u |= wgpu.TextureUsageStorageBinding
	}
	if usg&(driver.URenderTarget|driver.UDepthStencil) != 0 {
		u |= wgpu.TextureUsageRenderAttachment
	}
	return u
}

// convBufUsage converts a driver.Usage and heap to a
// wgpu.BufferUsage.
// Every buffer can be a copy destination, since both
// Queue.WriteBuffer and Pack need it.
func convBufUsage(usg driver.Usage, heap driver.HeapType) (wgpu.BufferUsage, error) {
	u := wgpu.BufferUsageCopyDst
	switch heap {
	case driver.HDefault:
	case driver.HUpload:
		u |= wgpu.BufferUsageCopySrc
	default:
		return 0, driver.Unsupported("heap", heap)
	}
	if usg&driver.UCopySrc != 0 {
		u |= wgpu.BufferUsageCopySrc
	}
	if usg&driver.UConstantBuffer != 0 {
		u |= wgpu.BufferUsageUniform
	}
	if usg&(driver.UShaderResource|driver.UUnorderedAccess) != 0 {
		u |= wgpu.BufferUsageStorage
	}
	if usg&driver.UVertexBuffer != 0 {
		u |= wgpu.BufferUsageVertex
	}
	if usg&driver.UIndexBuffer != 0 {
		u |= wgpu.BufferUsageIndex
	}
	return u, nil
}

// convCmpFunc converts a driver.CmpFunc to a
// wgpu.CompareFunction.
func convCmpFunc(f driver.CmpFunc) (wgpu.CompareFunction, error) {
	switch f {
	case driver.CNever:
		return wgpu.CompareFunctionNever, nil
	case driver.CLess:
		return wgpu.CompareFunctionLess, nil
	case driver.CEqual:
		return wgpu.CompareFunctionEqual, nil
	case driver.CLessEqual:
		return wgpu.CompareFunctionLessEqual, nil
	case driver.CGreater:
		return wgpu.CompareFunctionGreater, nil
	case driver.CNotEqual:
		return wgpu.CompareFunctionNotEqual, nil
	case driver.CGreaterEqual:
		return wgpu.CompareFunctionGreaterEqual, nil
	case driver.CAlways:
		return wgpu.CompareFunctionAlways, nil
	}
	return 0, driver.Unsupported("compare function", f)
}

// convCullMode converts a driver.CullMode to a
// wgpu.CullMode.
func convCullMode(m driver.CullMode) (wgpu.CullMode, error) {
	switch m {
	case driver.CNone:
		return wgpu.CullModeNone, nil
	case driver.CFront:
		return wgpu.CullModeFront, nil
	case driver.CBack:
		return wgpu.CullModeBack, nil
	}
	return 0, driver.Unsupported("cull mode", m)
}

// convFillMode validates a driver.FillMode.
// WebGPU has no polygon modes.
func convFillMode(m driver.FillMode) error {
	if m != driver.FSolid {
		return driver.Unsupported("fill mode", m)
	}
	return nil
}

// convTopology converts a driver.Topology to a
// wgpu.PrimitiveTopology.
func convTopology(t driver.Topology) (wgpu.PrimitiveTopology, error) {
	switch t {
	case driver.TPoint:
		return wgpu.PrimitiveTopologyPointList, nil
	case driver.TLine:
		return wgpu.PrimitiveTopologyLineList, nil
	case driver.TLnStrip:
		return wgpu.PrimitiveTopologyLineStrip, nil
	case driver.TTriangle:
		return wgpu.PrimitiveTopologyTriangleList, nil
	case driver.TTriStrip:
		return wgpu.PrimitiveTopologyTriangleStrip, nil
	}
	return 0, driver.Unsupported("topology", t)
}

// convStencilOp converts a driver.StencilOp to a
// wgpu.StencilOperation.
func convStencilOp(op driver.StencilOp) (wgpu.StencilOperation, error) {
	switch op {
	case driver.SKeep:
		return wgpu.StencilOperationKeep, nil
	case driver.SZero:
		return wgpu.StencilOperationZero, nil
	case driver.SReplace:
		return wgpu.StencilOperationReplace, nil
	case driver.SIncClamp:
		return wgpu.StencilOperationIncrementClamp, nil
	case driver.SDecClamp:
		return wgpu.StencilOperationDecrementClamp, nil
	case driver.SInvert:
		return wgpu.StencilOperationInvert, nil
	case driver.SIncWrap:
		return wgpu.StencilOperationIncrementWrap, nil
	case driver.SDecWrap:
		return wgpu.StencilOperationDecrementWrap, nil
	}
	return 0, driver.Unsupported("stencil operation", op)
}

// convBlendFac converts a driver.BlendFac to a
// wgpu.BlendFactor.
func convBlendFac(f driver.BlendFac) (wgpu.BlendFactor, error) {
	switch f {
	case driver.BZero:
		return wgpu.BlendFactorZero, nil
	case driver.BOne:
		return wgpu.BlendFactorOne, nil
	case driver.BSrcColor:
		return wgpu.BlendFactorSrc, nil
	case driver.BInvSrcColor:
		return wgpu.BlendFactorOneMinusSrc, nil
	case driver.BSrcAlpha:
		return wgpu.BlendFactorSrcAlpha, nil
	case driver.BInvSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha, nil
	case driver.BDstColor:
		return wgpu.BlendFactorDst, nil
	case driver.BInvDstColor:
		return wgpu.BlendFactorOneMinusDst, nil
	case driver.BDstAlpha:
		return wgpu.BlendFactorDstAlpha, nil
	case driver.BInvDstAlpha:
		return wgpu.BlendFactorOneMinusDstAlpha, nil
	case driver.BSrcAlphaSaturated:
		return wgpu.BlendFactorSrcAlphaSaturated, nil
	case driver.BBlendColor:
		return wgpu.BlendFactorConstant, nil
	case driver.BInvBlendColor:
		return wgpu.BlendFactorOneMinusConstant, nil
	}
	return 0, driver.Unsupported("blend factor", f)
}

// convBlendOp converts a driver.BlendOp to a
// wgpu.BlendOperation.
func convBlendOp(op driver.BlendOp) (wgpu.BlendOperation, error) {
	switch op {
	case driver.BAdd:
		return wgpu.BlendOperationAdd, nil
	case driver.BSubtract:
		return wgpu.BlendOperationSubtract, nil
	case driver.BRevSubtract:
		return wgpu.BlendOperationReverseSubtract, nil
	case driver.BMin:
		return wgpu.BlendOperationMin, nil
	case driver.BMax:
		return wgpu.BlendOperationMax, nil
	}
	return 0, driver.Unsupported("blend operation", op)
}

// convColorMask converts a driver.ColorMask to a
// wgpu.ColorWriteMask.
func convColorMask(m driver.ColorMask) wgpu.ColorWriteMask {
	w := wgpu.ColorWriteMaskNone
	if m&driver.CRed != 0 {
		w |= wgpu.ColorWriteMaskRed
	}
	if m&driver.CGreen != 0 {
		w |= wgpu.ColorWriteMaskGreen
	}
	if m&driver.CBlue != 0 {
		w |= wgpu.ColorWriteMaskBlue
	}
	if m&driver.CAlpha != 0 {
		w |= wgpu.ColorWriteMaskAlpha
	}
	return w
}

// convAddrMode converts a driver.AddrMode to a
// wgpu.AddressMode.
func convAddrMode(m driver.AddrMode) (wgpu.AddressMode, error) {
	switch m {
	case driver.AWrap:
		return wgpu.AddressModeRepeat, nil
	case driver.AMirror:
		return wgpu.AddressModeMirrorRepeat, nil
	case driver.AClamp:
		return wgpu.AddressModeClampToEdge, nil
	}
	return 0, driver.Unsupported("address mode", m)
}

// convFilter converts the min/mag stage of f selected by
// mask to a wgpu.FilterMode.
func convFilter(f driver.Filter, mask driver.Filter) (wgpu.FilterMode, error) {
	if !f.IsValid() {
		return 0, driver.Unsupported("filter", f)
	}
	if f.Linear(mask) {
		return wgpu.FilterModeLinear, nil
	}
	return wgpu.FilterModeNearest, nil
}

// convMipFilter converts the mip stage of f to a
// wgpu.MipmapFilterMode.
func convMipFilter(f driver.Filter) (wgpu.MipmapFilterMode, error) {
	if !f.IsValid() {
		return 0, driver.Unsupported("filter", f)
	}
	if f.Linear(driver.FMipLinear) {
		return wgpu.MipmapFilterModeLinear, nil
	}
	return wgpu.MipmapFilterModeNearest, nil
}

// convStage converts a driver.Stage to a wgpu.ShaderStage.
func convStage(s driver.Stage) wgpu.ShaderStage {
	v := wgpu.ShaderStageNone
	if s&driver.SVertex != 0 {
		v |= wgpu.ShaderStageVertex
	}
	if s&driver.SFragment != 0 {
		v |= wgpu.ShaderStageFragment
	}
	if s&driver.SCompute != 0 {
		v |= wgpu.ShaderStageCompute
	}
	return v
}

// Binding number offsets of each register class.
// A bind group has a single binding namespace, so each
// class is given its own range of maxRegister bindings.
const (
	maxRegister  = 64
	cbvShift     = 0
	srvShift     = 64
	uavShift     = 128
	samplerShift = 192
)

// checkRegister checks that registers [reg, reg+n) fit in
// a binding range.
func checkRegister(reg, n int) error {
	if reg+n > maxRegister {
		return &driver.RangeError{Op: "binding register", Index: reg + n - 1, Len: maxRegister}
	}
	return nil
}

// convLayout converts a driver.LayoutDesc to bind group
// layout entries, indexed by register space.
// Spaces that have no elements produce empty groups.
// Inline constants become a uniform buffer binding.
func convLayout(desc *driver.LayoutDesc, maxGroups int) ([][]wgpu.BindGroupLayoutEntry, error) {
	var groups [][]wgpu.BindGroupLayoutEntry
	add := func(space int, e wgpu.BindGroupLayoutEntry) error {
		if space >= maxGroups {
			return &driver.RangeError{Op: "bind group", Index: space, Len: maxGroups}
		}
		for len(groups) <= space {
			groups = append(groups, nil)
		}
		groups[space] = append(groups[space], e)
		return nil
	}
	for _, r := range desc.Elements() {
		if err := checkRegister(r.Register, r.Count); err != nil {
			return nil, err
		}
		for i := range r.Count {
			e := wgpu.BindGroupLayoutEntry{Visibility: convStage(r.Stages)}
			switch r.Type {
			case driver.DConstant:
				e.Binding = uint32(cbvShift + r.Register + i)
				e.Buffer.Type = wgpu.BufferBindingTypeUniform
			case driver.DBuffer:
				e.Binding = uint32(srvShift + r.Register + i)
				e.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
			case driver.DStorageBuffer:
				e.Binding = uint32(uavShift + r.Register + i)
				e.Buffer.Type = wgpu.BufferBindingTypeStorage
			case driver.DTexture:
				e.Binding = uint32(srvShift + r.Register + i)
				e.Texture.SampleType = wgpu.TextureSampleTypeFloat
				e.Texture.ViewDimension = wgpu.TextureViewDimension2D
			case driver.DStorageTexture:
				e.Binding = uint32(uavShift + r.Register + i)
				e.StorageTexture.Access = wgpu.StorageTextureAccessReadWrite
				e.StorageTexture.Format = wgpu.TextureFormatRGBA8Unorm
				e.StorageTexture.ViewDimension = wgpu.TextureViewDimension2D
			default:
				return nil, driver.Unsupported("descriptor type", r.Type)
			}
			if err := add(r.Space, e); err != nil {
				return nil, err
			}
		}
	}
	for _, s := range desc.Samplers() {
		if err := checkRegister(s.Register, s.Count); err != nil {
			return nil, err
		}
		for i := range s.Count {
			e := wgpu.BindGroupLayoutEntry{
				Binding:    uint32(samplerShift + s.Register + i),
				Visibility: convStage(s.Stages),
			}
			e.Sampler.Type = wgpu.SamplerBindingTypeFiltering
			if err := add(s.Space, e); err != nil {
				return nil, err
			}
		}
	}
	if c, ok := desc.Constant(); ok {
		if err := checkRegister(c.Register, 1); err != nil {
			return nil, err
		}
		e := wgpu.BindGroupLayoutEntry{
			Binding:    uint32(cbvShift + c.Register),
			Visibility: convStage(c.Stages),
		}
		e.Buffer.Type = wgpu.BufferBindingTypeUniform
		e.Buffer.MinBindingSize = uint64(c.Count * 4)
		if err := add(c.Space, e); err != nil {
			return nil, err
		}
	}
	return groups, nil
}
