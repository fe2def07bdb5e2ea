// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package d3d12

import (
	"errors"
	"fmt"

	"github.com/gviegas/rhi/driver"
)

// Native enumerations. Values are those of d3d12.h and
// dxgiformat.h.

type dxgiFormat uint32

const (
	fmtUnknown           dxgiFormat = 0
	fmtR32G32B32A32Float dxgiFormat = 2
	fmtR32G32B32A32Uint  dxgiFormat = 3
	fmtR32G32B32Float    dxgiFormat = 6
	fmtR16G16B16A16Float dxgiFormat = 10
	fmtR32G32Float       dxgiFormat = 16
	fmtD32FloatS8X24Uint dxgiFormat = 20
	fmtR8G8B8A8Unorm     dxgiFormat = 28
	fmtR8G8B8A8UnormSRGB dxgiFormat = 29
	fmtR8G8B8A8Uint      dxgiFormat = 30
	fmtR8G8B8A8Snorm     dxgiFormat = 31
	fmtR16G16Float       dxgiFormat = 34
	fmtD32Float          dxgiFormat = 40
	fmtR32Float          dxgiFormat = 41
	fmtR32Uint           dxgiFormat = 42
	fmtD24UnormS8Uint    dxgiFormat = 45
	fmtR8G8Unorm         dxgiFormat = 49
	fmtR16Float          dxgiFormat = 54
	fmtD16Unorm          dxgiFormat = 55
	fmtR16Uint           dxgiFormat = 57
	fmtR8Unorm           dxgiFormat = 61
	fmtB8G8R8A8Unorm     dxgiFormat = 87
	fmtB8G8R8A8UnormSRGB dxgiFormat = 91
	fmtR32G8X24Typeless  dxgiFormat = 19
	fmtR24G8Typeless     dxgiFormat = 44
	fmtR32Typeless       dxgiFormat = 39
	fmtR16Typeless       dxgiFormat = 53
)

type heapType uint32

const (
	heapDefault  heapType = 1
	heapUpload   heapType = 2
	heapReadback heapType = 3
)

type resourceDimension uint32

const (
	dimBuffer    resourceDimension = 1
	dimTexture1D resourceDimension = 2
	dimTexture2D resourceDimension = 3
	dimTexture3D resourceDimension = 4
)

type textureLayout uint32

const (
	layoutUnknown  textureLayout = 0
	layoutRowMajor textureLayout = 1
)

type resourceFlags uint32

const (
	flagNone                 resourceFlags = 0
	flagAllowRenderTarget    resourceFlags = 0x1
	flagAllowDepthStencil    resourceFlags = 0x2
	flagAllowUnorderedAccess resourceFlags = 0x4
	flagDenyShaderResource   resourceFlags = 0x8
)

type resourceStates uint32

const (
	stateCommon            resourceStates = 0
	stateVertexAndConstant resourceStates = 0x1
	stateIndexBuffer       resourceStates = 0x2
	stateRenderTarget      resourceStates = 0x4
	stateUnorderedAccess   resourceStates = 0x8
	stateDepthWrite        resourceStates = 0x10
	stateDepthRead         resourceStates = 0x20
	stateNonPixelShaderRes resourceStates = 0x40
	statePixelShaderRes    resourceStates = 0x80
	stateCopyDest          resourceStates = 0x400
	stateCopySource        resourceStates = 0x800
	stateGenericRead       resourceStates = 0xac3
	statePresent           resourceStates = 0
	stateAllShaderResource resourceStates = stateNonPixelShaderRes | statePixelShaderRes
)

type fillMode uint32

const (
	fillWireFrame fillMode = 2
	fillSolid     fillMode = 3
)

type cullMode uint32

const (
	cullNone  cullMode = 1
	cullFront cullMode = 2
	cullBack  cullMode = 3
)

type comparisonFunc uint32

const (
	cmpNever comparisonFunc = iota + 1
	cmpLess
	cmpEqual
	cmpLessEqual
	cmpGreater
	cmpNotEqual
	cmpGreaterEqual
	cmpAlways
)

type stencilOp uint32

const (
	stencilKeep stencilOp = iota + 1
	stencilZero
	stencilReplace
	stencilIncrSat
	stencilDecrSat
	stencilInvert
	stencilIncr
	stencilDecr
)

type blendOp uint32

const (
	blendOpAdd blendOp = iota + 1
	blendOpSubtract
	blendOpRevSubtract
	blendOpMin
	blendOpMax
)

type blend uint32

const (
	blendZero           blend = 1
	blendOne            blend = 2
	blendSrcColor       blend = 3
	blendInvSrcColor    blend = 4
	blendSrcAlpha       blend = 5
	blendInvSrcAlpha    blend = 6
	blendDestAlpha      blend = 7
	blendInvDestAlpha   blend = 8
	blendDestColor      blend = 9
	blendInvDestColor   blend = 10
	blendSrcAlphaSat    blend = 11
	blendBlendFactor    blend = 14
	blendInvBlendFactor blend = 15
)

const logicOpNoop = 4

type colorWriteEnable uint8

const (
	writeRed   colorWriteEnable = 1
	writeGreen colorWriteEnable = 2
	writeBlue  colorWriteEnable = 4
	writeAlpha colorWriteEnable = 8
)

type primitiveTopologyType uint32

const (
	topologyTypePoint    primitiveTopologyType = 1
	topologyTypeLine     primitiveTopologyType = 2
	topologyTypeTriangle primitiveTopologyType = 3
)

type primitiveTopology uint32

const (
	topologyPointList     primitiveTopology = 1
	topologyLineList      primitiveTopology = 2
	topologyLineStrip     primitiveTopology = 3
	topologyTriangleList  primitiveTopology = 4
	topologyTriangleStrip primitiveTopology = 5
)

type textureAddressMode uint32

const (
	addrWrap   textureAddressMode = 1
	addrMirror textureAddressMode = 2
	addrClamp  textureAddressMode = 3
	addrBorder textureAddressMode = 4
)

type filter uint32

type descriptorRangeType uint32

const (
	rangeSRV     descriptorRangeType = 0
	rangeUAV     descriptorRangeType = 1
	rangeCBV     descriptorRangeType = 2
	rangeSampler descriptorRangeType = 3
)

type rootParameterType uint32

const (
	paramDescriptorTable rootParameterType = 0
	param32BitConstants  rootParameterType = 1
)

type shaderVisibility uint32

const (
	visibilityAll    shaderVisibility = 0
	visibilityVertex shaderVisibility = 1
	visibilityPixel  shaderVisibility = 5
)

// convPixelFmt converts a driver.PixelFormat to a
// DXGI_FORMAT.
func convPixelFmt(pf driver.PixelFormat) (dxgiFormat, error) {
	switch pf {
	case driver.RGBA8un:
		return fmtR8G8B8A8Unorm, nil
	case driver.RGBA8n:
		return fmtR8G8B8A8Snorm, nil
	case driver.RGBA8ui:
		return fmtR8G8B8A8Uint, nil
	case driver.RGBA8sRGB:
		return fmtR8G8B8A8UnormSRGB, nil
	case driver.BGRA8un:
		return fmtB8G8R8A8Unorm, nil
	case driver.BGRA8sRGB:
		return fmtB8G8R8A8UnormSRGB, nil
	case driver.RG8un:
		return fmtR8G8Unorm, nil
	case driver.R8un:
		return fmtR8Unorm, nil
	case driver.RGBA16f:
		return fmtR16G16B16A16Float, nil
	case driver.RG16f:
		return fmtR16G16Float, nil
	case driver.R16f:
		return fmtR16Float, nil
	case driver.R16ui:
		return fmtR16Uint, nil
	case driver.RGBA32f:
		return fmtR32G32B32A32Float, nil
	case driver.RGB32f:
		return fmtR32G32B32Float, nil
	case driver.RG32f:
		return fmtR32G32Float, nil
	case driver.R32f:
		return fmtR32Float, nil
	case driver.RGBA32ui:
		return fmtR32G32B32A32Uint, nil
	case driver.R32ui:
		return fmtR32Uint, nil
	case driver.D16un:
		return fmtD16Unorm, nil
	case driver.D24unS8ui:
		return fmtD24UnormS8Uint, nil
	case driver.D32f:
		return fmtD32Float, nil
	case driver.D32fS8ui:
		return fmtD32FloatS8X24Uint, nil
	}
	return fmtUnknown, driver.Unsupported("pixel format", pf)
}

// typelessOf returns the typeless format of a depth
// format, which sampled depth textures must be created
// with. Other formats are returned unchanged.
func typelessOf(f dxgiFormat) dxgiFormat {
	switch f {
	case fmtD16Unorm:
		return fmtR16Typeless
	case fmtD24UnormS8Uint:
		return fmtR24G8Typeless
	case fmtD32Float:
		return fmtR32Typeless
	case fmtD32FloatS8X24Uint:
		return fmtR32G8X24Typeless
	}
	return f
}

// D3D12_FORMAT_SUPPORT1 bits.
const (
	support1IAVertexBuffer = 0x2
	support1ShaderLoad     = 0x100
	support1ShaderSample   = 0x200
	support1RenderTarget   = 0x4000
	support1Blendable      = 0x8000
	support1DepthStencil   = 0x10000
	support1TypedUAV       = 0x2000000
)

// convFormatSupport converts D3D12_FORMAT_SUPPORT1 bits.
func convFormatSupport(s uint32) (f driver.FormatFeature) {
	if s&support1ShaderLoad != 0 {
		f |= driver.FmtSampled
	}
	if s&support1ShaderSample != 0 {
		f |= driver.FmtSampled | driver.FmtFilter
	}
	if s&support1RenderTarget != 0 {
		f |= driver.FmtRenderTarget
	}
	if s&support1Blendable != 0 {
		f |= driver.FmtBlend
	}
	if s&support1DepthStencil != 0 {
		f |= driver.FmtDepthStencil
	}
	if s&support1TypedUAV != 0 {
		f |= driver.FmtStorage
	}
	if s&support1IAVertexBuffer != 0 {
		f |= driver.FmtVertex
	}
	return
}

// convSamples validates a sample count.
func convSamples(n int) (uint32, error) {
	switch n {
	case 0, 1:
		return 1, nil
	case 2, 4, 8, 16, 32:
		return uint32(n), nil
	}
	return 0, driver.Unsupported("sample count", n)
}

// convHeap converts a driver.HeapType to a
// D3D12_HEAP_TYPE.
func convHeap(h driver.HeapType) (heapType, error) {
	switch h {
	case driver.HDefault:
		return heapDefault, nil
	case driver.HUpload:
		return heapUpload, nil
	case driver.HReadback:
		return heapReadback, nil
	}
	return 0, driver.Unsupported("heap", h)
}

// convDimension converts a driver.Dimension to a
// D3D12_RESOURCE_DIMENSION.
func convDimension(dim driver.Dimension) (resourceDimension, error) {
	switch dim {
	case driver.Dim1D:
		return dimTexture1D, nil
	case driver.Dim2D:
		return dimTexture2D, nil
	case driver.Dim3D:
		return dimTexture3D, nil
	}
	return 0, driver.Unsupported("dimension", dim)
}

// convUsage converts a driver.Usage to
// D3D12_RESOURCE_FLAGS.
func convUsage(usg driver.Usage) (flags resourceFlags) {
	if usg&driver.URenderTarget != 0 {
		flags |= flagAllowRenderTarget
	}
	if usg&driver.UDepthStencil != 0 {
		flags |= flagAllowDepthStencil
		if usg&driver.UShaderResource == 0 {
			flags |= flagDenyShaderResource
		}
	}
	if usg&driver.UUnorderedAccess != 0 {
		flags |= flagAllowUnorderedAccess
	}
	return
}

// convState converts a driver.ResourceState to
// D3D12_RESOURCE_STATES.
func convState(st driver.ResourceState) (resourceStates, error) {
	switch st {
	case driver.StCommon:
		return stateCommon, nil
	case driver.StGenericRead:
		return stateGenericRead, nil
	case driver.StCopySrc:
		return stateCopySource, nil
	case driver.StCopyDst:
		return stateCopyDest, nil
	case driver.StVertexAndConstant:
		return stateVertexAndConstant, nil
	case driver.StIndex:
		return stateIndexBuffer, nil
	case driver.StRenderTarget:
		return stateRenderTarget, nil
	case driver.StDepthWrite:
		return stateDepthWrite, nil
	case driver.StDepthRead:
		return stateDepthRead, nil
	case driver.StShaderResource:
		return stateAllShaderResource, nil
	case driver.StUnorderedAccess:
		return stateUnorderedAccess, nil
	case driver.StPresent:
		return statePresent, nil
	}
	return 0, driver.Unsupported("resource state", st)
}

// convFillMode converts a driver.FillMode to a
// D3D12_FILL_MODE.
func convFillMode(fm driver.FillMode) (fillMode, error) {
	switch fm {
	case driver.FSolid:
		return fillSolid, nil
	case driver.FWireFrame:
		return fillWireFrame, nil
	}
	return 0, driver.Unsupported("fill mode", fm)
}

// convCullMode converts a driver.CullMode to a
// D3D12_CULL_MODE.
func convCullMode(cm driver.CullMode) (cullMode, error) {
	switch cm {
	case driver.CNone:
		return cullNone, nil
	case driver.CFront:
		return cullFront, nil
	case driver.CBack:
		return cullBack, nil
	}
	return 0, driver.Unsupported("cull mode", cm)
}

// convCmpFunc converts a driver.CmpFunc to a
// D3D12_COMPARISON_FUNC.
func convCmpFunc(cf driver.CmpFunc) (comparisonFunc, error) {
	if cf < driver.CNever || cf > driver.CAlways {
		return 0, driver.Unsupported("compare function", cf)
	}
	// Same order, starting at 1.
	return cmpNever + comparisonFunc(cf-driver.CNever), nil
}

// convStencilOp converts a driver.StencilOp to a
// D3D12_STENCIL_OP.
func convStencilOp(op driver.StencilOp) (stencilOp, error) {
	switch op {
	case driver.SKeep:
		return stencilKeep, nil
	case driver.SZero:
		return stencilZero, nil
	case driver.SReplace:
		return stencilReplace, nil
	case driver.SIncClamp:
		return stencilIncrSat, nil
	case driver.SDecClamp:
		return stencilDecrSat, nil
	case driver.SInvert:
		return stencilInvert, nil
	case driver.SIncWrap:
		return stencilIncr, nil
	case driver.SDecWrap:
		return stencilDecr, nil
	}
	return 0, driver.Unsupported("stencil operation", op)
}

// convBlendOp converts a driver.BlendOp to a
// D3D12_BLEND_OP.
func convBlendOp(op driver.BlendOp) (blendOp, error) {
	switch op {
	case driver.BAdd:
		return blendOpAdd, nil
	case driver.BSubtract:
		return blendOpSubtract, nil
	case driver.BRevSubtract:
		return blendOpRevSubtract, nil
	case driver.BMin:
		return blendOpMin, nil
	case driver.BMax:
		return blendOpMax, nil
	}
	return 0, driver.Unsupported("blend operation", op)
}

// convBlendFac converts a driver.BlendFac to a
// D3D12_BLEND.
func convBlendFac(fac driver.BlendFac) (blend, error) {
	switch fac {
	case driver.BZero:
		return blendZero, nil
	case driver.BOne:
		return blendOne, nil
	case driver.BSrcColor:
		return blendSrcColor, nil
	case driver.BInvSrcColor:
		return blendInvSrcColor, nil
	case driver.BSrcAlpha:
		return blendSrcAlpha, nil
	case driver.BInvSrcAlpha:
		return blendInvSrcAlpha, nil
	case driver.BDstColor:
		return blendDestColor, nil
	case driver.BInvDstColor:
		return blendInvDestColor, nil
	case driver.BDstAlpha:
		return blendDestAlpha, nil
	case driver.BInvDstAlpha:
		return blendInvDestAlpha, nil
	case driver.BSrcAlphaSaturated:
		return blendSrcAlphaSat, nil
	case driver.BBlendColor:
		return blendBlendFactor, nil
	case driver.BInvBlendColor:
		return blendInvBlendFactor, nil
	}
	return 0, driver.Unsupported("blend factor", fac)
}

// convColorMask converts a driver.ColorMask to a
// D3D12_COLOR_WRITE_ENABLE mask.
func convColorMask(cm driver.ColorMask) (mask colorWriteEnable) {
	if cm&driver.CRed != 0 {
		mask |= writeRed
	}
	if cm&driver.CGreen != 0 {
		mask |= writeGreen
	}
	if cm&driver.CBlue != 0 {
		mask |= writeBlue
	}
	if cm&driver.CAlpha != 0 {
		mask |= writeAlpha
	}
	return
}

// convTopology converts a driver.Topology to both the
// topology type of the pipeline and the topology of the
// input assembler.
func convTopology(top driver.Topology) (primitiveTopologyType, primitiveTopology, error) {
	switch top {
	case driver.TPoint:
		return topologyTypePoint, topologyPointList, nil
	case driver.TLine:
		return topologyTypeLine, topologyLineList, nil
	case driver.TLnStrip:
		return topologyTypeLine, topologyLineStrip, nil
	case driver.TTriangle:
		return topologyTypeTriangle, topologyTriangleList, nil
	case driver.TTriStrip:
		return topologyTypeTriangle, topologyTriangleStrip, nil
	}
	return 0, 0, driver.Unsupported("topology", top)
}

// convAddrMode converts a driver.AddrMode to a
// D3D12_TEXTURE_ADDRESS_MODE.
func convAddrMode(am driver.AddrMode) (textureAddressMode, error) {
	switch am {
	case driver.AWrap:
		return addrWrap, nil
	case driver.AMirror:
		return addrMirror, nil
	case driver.AClamp:
		return addrClamp, nil
	case driver.ABorder:
		return addrBorder, nil
	}
	return 0, driver.Unsupported("address mode", am)
}

// convFilter converts a driver.Filter to a D3D12_FILTER.
// The encodings match, except that anisotropic filters
// must have every linear bit set.
func convFilter(f driver.Filter) (filter, error) {
	if !f.IsValid() {
		return 0, driver.Unsupported("filter", f)
	}
	return filter(f), nil
}

// convVisibility converts a driver.Stage mask to a
// D3D12_SHADER_VISIBILITY.
// Masks with more than one stage are visible to all.
func convVisibility(stg driver.Stage) shaderVisibility {
	switch stg {
	case driver.SVertex:
		return visibilityVertex
	case driver.SFragment:
		return visibilityPixel
	}
	return visibilityAll
}

// convRangeType converts a driver.DescType to a
// D3D12_DESCRIPTOR_RANGE_TYPE.
func convRangeType(t driver.DescType) (descriptorRangeType, error) {
	switch t {
	case driver.DConstant:
		return rangeCBV, nil
	case driver.DBuffer, driver.DTexture:
		return rangeSRV, nil
	case driver.DStorageBuffer, driver.DStorageTexture:
		return rangeUAV, nil
	}
	return 0, driver.Unsupported("descriptor", t)
}

// HRESULT values.
const (
	sOK                      = 0
	sFalse                   = 1
	eOutOfMemory             = 0x8007000e
	eInvalidArg              = 0x80070057
	eNoInterface             = 0x80004002
	eFail                    = 0x80004005
	dxgiErrorNotFound        = 0x887a0002
	dxgiErrorUnsupported     = 0x887a0004
	dxgiErrorDeviceRemoved   = 0x887a0005
	dxgiErrorDeviceHung      = 0x887a0006
	dxgiErrorDeviceReset     = 0x887a0007
	dxgiErrorDriverInternal  = 0x887a0020
	d3d12ErrorAdapterMissing = 0x887e0001
)

var (
	errInvalidArg  = errors.New("d3d12: invalid argument")
	errNoInterface = errors.New("d3d12: interface not supported")
	errUnsupported = errors.New("d3d12: not supported")
	errFail        = errors.New("d3d12: unspecified failure")
)

// checkHR returns an error derived from an HRESULT.
// Success codes return nil.
func checkHR(hr uint32) error {
	if int32(hr) >= 0 {
		return nil
	}
	switch hr {
	case eOutOfMemory:
		return driver.ErrNoHostMemory
	case eInvalidArg:
		return errInvalidArg
	case eNoInterface:
		return errNoInterface
	case dxgiErrorUnsupported:
		return errUnsupported
	case dxgiErrorNotFound, d3d12ErrorAdapterMissing:
		return driver.ErrNoDevice
	case dxgiErrorDeviceRemoved, dxgiErrorDeviceHung, dxgiErrorDeviceReset, dxgiErrorDriverInternal:
		return driver.ErrFatal
	case eFail:
		return errFail
	}
	return fmt.Errorf("d3d12: HRESULT %#08x", hr)
}
