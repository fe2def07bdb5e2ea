// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

// BlendProperty defines a render target's blend parameters.
// Use one of NoColorWrite, OverWrite or AlphaBlend rather
// than setting fields individually.
type BlendProperty struct {
	// Enable enables blending.
	Enable bool
	// Color blend.
	ColorOp BlendOp
	Src     BlendFac
	Dst     BlendFac
	// Alpha blend.
	AlphaOp  BlendOp
	SrcAlpha BlendFac
	DstAlpha BlendFac
	// WriteMask specifies which color channels to write.
	WriteMask ColorMask
}

// NoColorWrite returns a blend property that writes no
// color channel.
func NoColorWrite() BlendProperty {
	return BlendProperty{
		ColorOp:   BAdd,
		Src:       BOne,
		Dst:       BZero,
		AlphaOp:   BAdd,
		SrcAlpha:  BOne,
		DstAlpha:  BZero,
		WriteMask: CNoColor,
	}
}

// OverWrite returns a blend property that replaces the
// destination with the source.
func OverWrite() BlendProperty {
	p := NoColorWrite()
	p.WriteMask = CAll
	return p
}

// AlphaBlend returns a blend property for "over"
// compositing. If premultiplied is set, the source color
// is assumed to be multiplied by its alpha already.
func AlphaBlend(premultiplied bool) BlendProperty {
	src := BSrcAlpha
	if premultiplied {
		src = BOne
	}
	return BlendProperty{
		Enable:    true,
		ColorOp:   BAdd,
		Src:       src,
		Dst:       BInvSrcAlpha,
		AlphaOp:   BAdd,
		SrcAlpha:  BOne,
		DstAlpha:  BZero,
		WriteMask: CAll,
	}
}

// BlendDesc defines the color blend state of a pipeline.
type BlendDesc struct {
	AlphaToCoverage bool
	// IndependentBlend enables each render target to use
	// different blend parameters. If false, only Targets[0]
	// is used.
	IndependentBlend bool
	Targets          []BlendProperty
}

// RasterizerProperty defines the rasterization state of a
// pipeline.
type RasterizerProperty struct {
	Fill FillMode
	Cull CullMode
	// Winding order of front faces.
	FrontCounterClockwise bool
	DepthBias             int32
	DepthBiasClamp        float32
	SlopeScaledDepthBias  float32
	DepthClip             bool
	Multisample           bool
	AntialiasedLine       bool
}

// Solid returns a rasterizer property for filled
// triangles culled by cull.
func Solid(cull CullMode) RasterizerProperty {
	return RasterizerProperty{
		Fill:                  FSolid,
		Cull:                  cull,
		FrontCounterClockwise: true,
		DepthClip:             true,
	}
}

// WireFrame returns a rasterizer property that draws
// triangle edges only, with no culling.
func WireFrame() RasterizerProperty {
	p := Solid(CNone)
	p.Fill = FWireFrame
	return p
}

// StencilOperatorInfo defines the stencil test for one
// triangle face.
type StencilOperatorInfo struct {
	Fail      StencilOp
	DepthFail StencilOp
	Pass      StencilOp
	Cmp       CmpFunc
}

// KeepStencil returns a stencil operator that always
// passes and never writes.
func KeepStencil() StencilOperatorInfo {
	return StencilOperatorInfo{SKeep, SKeep, SKeep, CAlways}
}

// DepthStencilProperty defines the depth/stencil state of
// a pipeline.
type DepthStencilProperty struct {
	DepthTest        bool
	DepthWrite       bool
	DepthCmp         CmpFunc
	StencilTest      bool
	StencilReadMask  uint8
	StencilWriteMask uint8
	Front            StencilOperatorInfo
	Back             StencilOperatorInfo
}

// DepthTest returns a depth/stencil property with depth
// test and write enabled, using cmp.
func DepthTest(cmp CmpFunc) DepthStencilProperty {
	return DepthStencilProperty{
		DepthTest:        true,
		DepthWrite:       true,
		DepthCmp:         cmp,
		StencilReadMask:  0xff,
		StencilWriteMask: 0xff,
		Front:            KeepStencil(),
		Back:             KeepStencil(),
	}
}

// DepthOff returns a depth/stencil property with every
// test disabled.
func DepthOff() DepthStencilProperty {
	p := DepthTest(CAlways)
	p.DepthTest = false
	p.DepthWrite = false
	return p
}

// InputElement describes one vertex attribute.
// Semantic and Index identify the shader input (e.g.,
// "TEXCOORD", 1). Slot is the vertex buffer binding.
type InputElement struct {
	Semantic string
	Index    int
	Format   PixelFormat
	Slot     int
}

// VertexAttr is an InputElement with its byte offset
// within the slot resolved.
type VertexAttr struct {
	InputElement
	// Location is the position of the element in the
	// list given to InputLayout.
	Location int
	Offset   int
}

// VertexSlot describes one vertex buffer binding derived
// by InputLayout.
type VertexSlot struct {
	Slot   int
	Stride int
}

// InputLayout derives byte offsets and per-slot strides
// from an ordered list of input elements.
// Offsets are positional and slot-scoped: each element
// starts where the previous element of the same slot
// ended, and the first element of every slot starts at 0.
// Slots are returned in order of first appearance.
func InputLayout(elems []InputElement) ([]VertexAttr, []VertexSlot, error) {
	attrs := make([]VertexAttr, len(elems))
	var slots []VertexSlot
	off := make(map[int]int)
	for i, e := range elems {
		n := e.Format.Size()
		if n == 0 {
			return nil, nil, Unsupported("input element format", e.Format)
		}
		if e.Slot < 0 {
			return nil, nil, &RangeError{Op: "InputLayout slot", Index: e.Slot, Len: 1 << 16}
		}
		o, ok := off[e.Slot]
		if !ok {
			slots = append(slots, VertexSlot{Slot: e.Slot})
		}
		attrs[i] = VertexAttr{InputElement: e, Location: i, Offset: o}
		off[e.Slot] = o + n
	}
	for i := range slots {
		slots[i].Stride = off[slots[i].Slot]
	}
	return attrs, slots, nil
}

// SamplerInfo describes sampler state.
type SamplerInfo struct {
	Filter   Filter
	AddrU    AddrMode
	AddrV    AddrMode
	AddrW    AddrMode
	LODBias  float32
	MaxAniso int
	// Cmp is used only when Filter has FComparison set.
	Cmp         CmpFunc
	BorderColor [4]float32
	MinLOD      float32
	MaxLOD      float32
}

// LinearWrap returns sampler info for trilinear filtering
// with wrapping coordinates.
func LinearWrap() SamplerInfo {
	return SamplerInfo{
		Filter:   FLinear,
		MaxAniso: 1,
		MaxLOD:   1000,
		Cmp:      CNever,
	}
}
