// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

// CullMode is the type of cull modes, which
// determines primitive culling based on triangle
// facing direction.
type CullMode int

// Cull modes.
const (
	CNone CullMode = iota
	CFront
	CBack
)

// FillMode is the type of triangle fill modes, which
// determines the final rasterization of triangles.
type FillMode int

// Triangle fill modes.
const (
	FSolid FillMode = iota
	FWireFrame
)

// CmpFunc is the type of comparison functions.
type CmpFunc int

// Comparison functions.
const (
	CNever CmpFunc = iota
	CLess
	CEqual
	CLessEqual
	CGreater
	CNotEqual
	CGreaterEqual
	CAlways
)

// StencilOp is the type of stencil operations.
type StencilOp int

// Stencil operations.
const (
	SKeep StencilOp = iota
	SZero
	SReplace
	SIncClamp
	SDecClamp
	SInvert
	SIncWrap
	SDecWrap
)

// BlendOp is the type of blend operations.
type BlendOp int

// Blend operations.
const (
	BAdd BlendOp = iota
	BSubtract
	BRevSubtract
	BMin
	BMax
)

// BlendFac is the type of blend factors.
type BlendFac int

// Blend factors.
const (
	BZero BlendFac = iota
	BOne
	BSrcColor
	BInvSrcColor
	BSrcAlpha
	BInvSrcAlpha
	BDstColor
	BInvDstColor
	BDstAlpha
	BInvDstAlpha
	BSrcAlphaSaturated
	BBlendColor
	BInvBlendColor
)

// ColorMask is the type of a color write mask.
type ColorMask int

// Color write masks.
const (
	CRed ColorMask = 1 << iota
	CGreen
	CBlue
	CAlpha
	// Write to all channels.
	CAll ColorMask = 1<<iota - 1
	// Write to no channel.
	CNoColor ColorMask = 0
)

// Topology is the type of primitive topologies,
// which determines how vertex data is assembled.
type Topology int

// Primitive topologies.
const (
	TPoint Topology = iota
	TLine
	TLnStrip
	TTriangle
	TTriStrip
)

// AddrMode is the type of sampler address modes.
type AddrMode int

// Address modes.
const (
	AWrap AddrMode = iota
	AMirror
	AClamp
	ABorder
)

// Filter is a sampler filter.
// It is a bit combination: each of the min, mag and mip
// bits selects linear filtering for that stage, and point
// filtering when unset. Anisotropic filtering implies
// linear filtering in every stage, regardless of the other
// bits. The encoding matches D3D12_FILTER.
type Filter int

// Filter bits.
const (
	FMipLinear     Filter = 0x01
	FMagLinear     Filter = 0x04
	FMinLinear     Filter = 0x10
	FAnisotropic   Filter = 0x40
	FComparison    Filter = 0x80
	filterBitsMask Filter = FMipLinear | FMagLinear | FMinLinear | FAnisotropic | FComparison
)

// Common filters.
const (
	FPoint         Filter = 0
	FLinear        Filter = FMinLinear | FMagLinear | FMipLinear
	FBilinear      Filter = FMinLinear | FMagLinear
	FAniso         Filter = FAnisotropic | FLinear
	FCmpLinear     Filter = FComparison | FLinear
	FCmpAnisotropy Filter = FComparison | FAniso
)

// IsValid returns whether f contains only known bits
// and, if anisotropic, has every linear bit set.
func (f Filter) IsValid() bool {
	if f&^filterBitsMask != 0 {
		return false
	}
	if f&FAnisotropic != 0 && f&FLinear != FLinear {
		return false
	}
	return true
}

// Linear returns whether the stage selected by mask
// (one of FMinLinear, FMagLinear or FMipLinear) uses
// linear filtering.
func (f Filter) Linear(mask Filter) bool {
	if f&FAnisotropic != 0 {
		return true
	}
	return f&mask != 0
}

// HeapType classifies memory by CPU visibility.
type HeapType int

// Heap types.
const (
	// GPU-local memory with no CPU access.
	HDefault HeapType = iota
	// CPU-visible, host-coherent memory for uploads.
	HUpload
	// CPU-visible memory for reading back GPU results.
	HReadback
)

// Visible returns whether memory of the heap type can
// be mapped by the CPU.
func (h HeapType) Visible() bool { return h == HUpload || h == HReadback }

// Usage is a mask indicating valid uses for a resource.
type Usage int

// Usage flags for Buffer and Texture.
const (
	UShaderResource Usage = 1 << iota
	UUnorderedAccess
	URenderTarget
	UDepthStencil
	UConstantBuffer
	UVertexBuffer
	UIndexBuffer
	UCopySrc
	UCopyDst
	UNone Usage = 0
)

// ResourceState is the state in which a resource is
// created.
type ResourceState int

// Resource states.
const (
	StCommon ResourceState = iota
	StGenericRead
	StCopySrc
	StCopyDst
	StVertexAndConstant
	StIndex
	StRenderTarget
	StDepthWrite
	StDepthRead
	StShaderResource
	StUnorderedAccess
	StPresent
)

// BufferType identifies the factory that built a
// BufferMeta.
type BufferType int

// Buffer types.
const (
	BufUpload BufferType = iota
	BufDefault
	BufConstant
	BufVertex
	BufIndex
)

// Dimension is the dimensionality of a texture.
type Dimension int

// Texture dimensions.
const (
	Dim1D Dimension = iota + 1
	Dim2D
	Dim3D
)

// TextureType identifies the factory that built a
// TextureMeta, and thus the view type of the texture.
type TextureType int

// Texture types.
const (
	Tex1D TextureType = iota
	Tex1DArray
	Tex2D
	Tex2DArray
	Tex2DMS
	Tex2DMSArray
	Tex3D
	TexCube
	TexCubeArray
)

// IsArray returns whether t is an array type.
func (t TextureType) IsArray() bool {
	switch t {
	case Tex1DArray, Tex2DArray, Tex2DMSArray, TexCubeArray:
		return true
	}
	return false
}

// IsCube returns whether t is a cube type.
func (t TextureType) IsCube() bool { return t == TexCube || t == TexCubeArray }

// DescType is the type of a descriptor.
type DescType int

// Descriptor types.
const (
	// Constant buffer.
	DConstant DescType = iota
	// Read-only buffer.
	DBuffer
	// Read/write buffer.
	DStorageBuffer
	// Sampled texture.
	DTexture
	// Read/write texture.
	DStorageTexture
)

// Stage is a mask of shader stages, which determines
// the visibility of a binding.
type Stage int

// Stages.
const (
	SVertex Stage = 1 << iota
	SFragment
	SCompute
	SAllGraphics = SVertex | SFragment
	SAll         = SVertex | SFragment | SCompute
)

// ClearValue defines clear values for color or
// depth/stencil aspects of a render target.
type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

// SampleDesc describes multisampling.
type SampleDesc struct {
	Count   int
	Quality int
}
