// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package d3d12

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"unsafe"

	"github.com/gviegas/rhi/driver"
)

// Go mirrors of the D3D12 structures that are passed to
// the native API. Field order and sizes follow d3d12.h
// for 64-bit targets.

// bool32 is the Win32 BOOL.
type bool32 int32

func b32(b bool) bool32 {
	if b {
		return 1
	}
	return 0
}

type sampleDesc struct {
	Count   uint32
	Quality uint32
}

// resourceDesc is D3D12_RESOURCE_DESC.
type resourceDesc struct {
	Dimension        resourceDimension
	Alignment        uint64
	Width            uint64
	Height           uint32
	DepthOrArraySize uint16
	MipLevels        uint16
	Format           dxgiFormat
	SampleDesc       sampleDesc
	Layout           textureLayout
	Flags            resourceFlags
}

// heapProperties is D3D12_HEAP_PROPERTIES.
type heapProperties struct {
	Type                 heapType
	CPUPageProperty      uint32
	MemoryPoolPreference uint32
	CreationNodeMask     uint32
	VisibleNodeMask      uint32
}

// heapDesc is D3D12_HEAP_DESC.
type heapDesc struct {
	SizeInBytes uint64
	Properties  heapProperties
	Alignment   uint64
	Flags       uint32
}

// D3D12_HEAP_FLAGS for tier 1 heaps.
const (
	heapFlagOnlyNonRTDSTex    = 0x44
	heapFlagOnlyRTDSTex       = 0x84
	msaaPlacementAlign        = 0x400000
	textureDataPitchAlign     = 256
	textureDataPlacementAlign = 512
)

// allocationInfo is D3D12_RESOURCE_ALLOCATION_INFO.
type allocationInfo struct {
	SizeInBytes uint64
	Alignment   uint64
}

// clearValue is D3D12_CLEAR_VALUE. The union holds
// either a color or a depth/stencil pair; Color[0] and
// Color[1] alias Depth and Stencil.
type clearValue struct {
	Format dxgiFormat
	Color  [4]float32
}

// bufferDesc creates the D3D12_RESOURCE_DESC and heap
// type for a buffer.
func bufferDesc(meta *driver.BufferMeta) (desc resourceDesc, heap heapType, err error) {
	if err = meta.Validate(); err != nil {
		return
	}
	if heap, err = convHeap(meta.Heap); err != nil {
		return
	}
	desc = resourceDesc{
		Dimension:        dimBuffer,
		Width:            uint64(meta.ByteSize),
		Height:           1,
		DepthOrArraySize: 1,
		MipLevels:        1,
		Format:           fmtUnknown,
		SampleDesc:       sampleDesc{Count: 1},
		Layout:           layoutRowMajor,
	}
	if meta.Usage&driver.UUnorderedAccess != 0 {
		desc.Flags |= flagAllowUnorderedAccess
	}
	return
}

// bufferState returns the initial state of a buffer.
// Upload and readback heaps require fixed states.
func bufferState(heap heapType) resourceStates {
	switch heap {
	case heapUpload:
		return stateGenericRead
	case heapReadback:
		return stateCopyDest
	}
	return stateCommon
}

// textureDesc creates the D3D12_RESOURCE_DESC for a
// texture. Depth formats that can be sampled use their
// typeless counterpart.
func textureDesc(meta *driver.TextureMeta, lim *driver.Limits) (desc resourceDesc, err error) {
	if err = meta.Validate(); err != nil {
		return
	}
	if meta.Heap != driver.HDefault {
		err = driver.Unsupported("texture heap", meta.Heap)
		return
	}
	f, err := convPixelFmt(meta.Format)
	if err != nil {
		return
	}
	dim, err := convDimension(meta.Dimension)
	if err != nil {
		return
	}
	ns, err := convSamples(meta.Sample.Count)
	if err != nil {
		return
	}
	if err = checkExtent(meta, lim); err != nil {
		return
	}
	if meta.Format.IsDepth() && meta.Usage&driver.UShaderResource != 0 {
		f = typelessOf(f)
	}
	desc = resourceDesc{
		Dimension:        dim,
		Width:            uint64(meta.Width),
		Height:           uint32(meta.Height),
		DepthOrArraySize: uint16(meta.DepthOrArraySize),
		MipLevels:        uint16(meta.MipLevels),
		Format:           f,
		SampleDesc:       sampleDesc{Count: ns},
		Layout:           layoutUnknown,
		Flags:            convUsage(meta.Usage),
	}
	if ns > 1 {
		desc.Alignment = msaaPlacementAlign
	}
	return
}

// checkExtent checks the texture size against lim.
func checkExtent(meta *driver.TextureMeta, lim *driver.Limits) error {
	var limit int
	switch {
	case meta.Dimension == driver.Dim1D:
		limit = lim.MaxTexture1D
	case meta.Dimension == driver.Dim3D:
		limit = lim.MaxTexture3D
	case meta.Type.IsCube():
		limit = lim.MaxTextureCube
	default:
		limit = lim.MaxTexture2D
	}
	if n := max(meta.Width, meta.Height, meta.Depth()); n > limit {
		return &driver.RangeError{Op: "NewTexture extent", Index: n, Len: limit + 1}
	}
	if n := meta.LayerCount(); n > lim.MaxLayers {
		return &driver.RangeError{Op: "NewTexture layers", Index: n, Len: lim.MaxLayers + 1}
	}
	return nil
}

// textureHeapFlags returns the D3D12_HEAP_FLAGS for a
// heap that will hold a single texture.
func textureHeapFlags(usg driver.Usage) uint32 {
	if usg&(driver.URenderTarget|driver.UDepthStencil) != 0 {
		return heapFlagOnlyRTDSTex
	}
	return heapFlagOnlyNonRTDSTex
}

// optimizedClear returns the optimized clear value for
// render targets and depth/stencil textures, or nil.
func optimizedClear(meta *driver.TextureMeta, f dxgiFormat) *clearValue {
	switch {
	case meta.Usage&driver.URenderTarget != 0:
		return &clearValue{Format: f, Color: meta.ClearColor.Color}
	case meta.Usage&driver.UDepthStencil != 0:
		cv := &clearValue{Format: f, Color: [4]float32{meta.ClearColor.Depth}}
		*(*uint8)(unsafe.Pointer(&cv.Color[1])) = uint8(meta.ClearColor.Stencil)
		return cv
	}
	return nil
}

// footprint is the placement of one subresource in a
// buffer, as D3D12_PLACED_SUBRESOURCE_FOOTPRINT.
type footprint struct {
	Offset   uint64
	Format   dxgiFormat
	Width    uint32
	Height   uint32
	Depth    uint32
	RowPitch uint32
}

// copyLayout computes the footprints of mip level 0 of
// every layer of a texture, placed from offset 0 with
// the row and placement alignments that buffer to texture
// copies require. It returns the footprints and the total
// size of the buffer.
func copyLayout(meta *driver.TextureMeta, f dxgiFormat) ([]footprint, int) {
	row := meta.Width * meta.Format.Size()
	pitch := driver.AlignUp(row, textureDataPitchAlign)
	fps := make([]footprint, meta.LayerCount())
	var off int
	for i := range fps {
		off = driver.AlignUp(off, textureDataPlacementAlign)
		fps[i] = footprint{
			Offset:   uint64(off),
			Format:   f,
			Width:    uint32(meta.Width),
			Height:   uint32(meta.Height),
			Depth:    uint32(meta.Depth()),
			RowPitch: uint32(pitch),
		}
		off += pitch*(meta.Height*meta.Depth()-1) + row
	}
	return fps, off
}

// isTight returns whether tightly packed texture data can
// be copied without repitching.
func isTight(meta *driver.TextureMeta, srcOff int64) bool {
	row := meta.Width * meta.Format.Size()
	layer := row * meta.Height * meta.Depth()
	return row%textureDataPitchAlign == 0 &&
		(meta.LayerCount() == 1 || layer%textureDataPlacementAlign == 0) &&
		srcOff%textureDataPlacementAlign == 0
}

// repitch writes tightly packed texture data into dst
// using the footprints of copyLayout.
func repitch(dst, src []byte, meta *driver.TextureMeta, fps []footprint) {
	row := meta.Width * meta.Format.Size()
	rows := meta.Height * meta.Depth()
	for _, fp := range fps {
		for r := range rows {
			o := int(fp.Offset) + r*int(fp.RowPitch)
			copy(dst[o:o+row], src[:row])
			src = src[row:]
		}
	}
}

// samplerDesc is D3D12_SAMPLER_DESC.
type samplerDesc struct {
	Filter         filter
	AddressU       textureAddressMode
	AddressV       textureAddressMode
	AddressW       textureAddressMode
	MipLODBias     float32
	MaxAnisotropy  uint32
	ComparisonFunc comparisonFunc
	BorderColor    [4]float32
	MinLOD         float32
	MaxLOD         float32
}

// newSamplerDesc creates the D3D12_SAMPLER_DESC for info.
// Anisotropy is clamped to maxAniso.
func newSamplerDesc(info *driver.SamplerInfo, maxAniso int) (desc samplerDesc, err error) {
	f, err := convFilter(info.Filter)
	if err != nil {
		return
	}
	var addr [3]textureAddressMode
	for i, am := range [3]driver.AddrMode{info.AddrU, info.AddrV, info.AddrW} {
		if addr[i], err = convAddrMode(am); err != nil {
			return
		}
	}
	desc = samplerDesc{
		Filter:         f,
		AddressU:       addr[0],
		AddressV:       addr[1],
		AddressW:       addr[2],
		MipLODBias:     info.LODBias,
		MaxAnisotropy:  1,
		ComparisonFunc: cmpNever,
		BorderColor:    info.BorderColor,
		MinLOD:         info.MinLOD,
		MaxLOD:         info.MaxLOD,
	}
	if info.Filter&driver.FAnisotropic != 0 {
		desc.MaxAnisotropy = uint32(max(1, min(info.MaxAniso, maxAniso)))
	}
	if info.Filter&driver.FComparison != 0 {
		desc.ComparisonFunc, err = convCmpFunc(info.Cmp)
	}
	return
}

// renderTargetBlendDesc is D3D12_RENDER_TARGET_BLEND_DESC.
type renderTargetBlendDesc struct {
	BlendEnable           bool32
	LogicOpEnable         bool32
	SrcBlend              blend
	DestBlend             blend
	BlendOp               blendOp
	SrcBlendAlpha         blend
	DestBlendAlpha        blend
	BlendOpAlpha          blendOp
	LogicOp               uint32
	RenderTargetWriteMask colorWriteEnable
}

const maxRenderTargets = 8

// blendDesc is D3D12_BLEND_DESC.
type blendDesc struct {
	AlphaToCoverageEnable  bool32
	IndependentBlendEnable bool32
	RenderTarget           [maxRenderTargets]renderTargetBlendDesc
}

// newBlendDesc creates the D3D12_BLEND_DESC for desc.
// Unused targets have blending disabled and write to no
// channel.
func newBlendDesc(desc *driver.BlendDesc, feat driver.Feature, maxTargets int) (bd blendDesc, err error) {
	maxTargets = min(maxTargets, maxRenderTargets)
	if len(desc.Targets) > maxTargets {
		err = &driver.RangeError{Op: "NewBlendState targets", Index: len(desc.Targets), Len: maxTargets + 1}
		return
	}
	if desc.IndependentBlend && !feat.Has(driver.FeatIndependentBlend) {
		err = driver.Unsupported("blend feature", uint32(driver.FeatIndependentBlend))
		return
	}
	bd.AlphaToCoverageEnable = b32(desc.AlphaToCoverage)
	bd.IndependentBlendEnable = b32(desc.IndependentBlend)
	for i := range bd.RenderTarget {
		rt := &bd.RenderTarget[i]
		*rt = renderTargetBlendDesc{
			SrcBlend:       blendOne,
			DestBlend:      blendZero,
			BlendOp:        blendOpAdd,
			SrcBlendAlpha:  blendOne,
			DestBlendAlpha: blendZero,
			BlendOpAlpha:   blendOpAdd,
			LogicOp:        logicOpNoop,
		}
		if i >= len(desc.Targets) {
			continue
		}
		p := &desc.Targets[0]
		if desc.IndependentBlend {
			p = &desc.Targets[i]
		}
		if err = convBlend(rt, p); err != nil {
			return
		}
	}
	return
}

func convBlend(rt *renderTargetBlendDesc, p *driver.BlendProperty) (err error) {
	rt.RenderTargetWriteMask = convColorMask(p.WriteMask)
	if !p.Enable {
		return
	}
	rt.BlendEnable = 1
	if rt.BlendOp, err = convBlendOp(p.ColorOp); err != nil {
		return
	}
	if rt.SrcBlend, err = convBlendFac(p.Src); err != nil {
		return
	}
	if rt.DestBlend, err = convBlendFac(p.Dst); err != nil {
		return
	}
	if rt.BlendOpAlpha, err = convBlendOp(p.AlphaOp); err != nil {
		return
	}
	if rt.SrcBlendAlpha, err = convBlendFac(p.SrcAlpha); err != nil {
		return
	}
	rt.DestBlendAlpha, err = convBlendFac(p.DstAlpha)
	return
}

// rasterizerDesc is D3D12_RASTERIZER_DESC.
type rasterizerDesc struct {
	FillMode              fillMode
	CullMode              cullMode
	FrontCounterClockwise bool32
	DepthBias             int32
	DepthBiasClamp        float32
	SlopeScaledDepthBias  float32
	DepthClipEnable       bool32
	MultisampleEnable     bool32
	AntialiasedLineEnable bool32
	ForcedSampleCount     uint32
	ConservativeRaster    uint32
}

// newRasterizerDesc creates the D3D12_RASTERIZER_DESC for
// prop.
func newRasterizerDesc(prop *driver.RasterizerProperty, feat driver.Feature) (rd rasterizerDesc, err error) {
	fill, err := convFillMode(prop.Fill)
	if err != nil {
		return
	}
	if fill != fillSolid && !feat.Has(driver.FeatWireFrame) {
		err = driver.Unsupported("fill mode", prop.Fill)
		return
	}
	cull, err := convCullMode(prop.Cull)
	if err != nil {
		return
	}
	if !prop.DepthClip && !feat.Has(driver.FeatDepthClamp) {
		err = driver.Unsupported("rasterizer feature", uint32(driver.FeatDepthClamp))
		return
	}
	rd = rasterizerDesc{
		FillMode:              fill,
		CullMode:              cull,
		FrontCounterClockwise: b32(prop.FrontCounterClockwise),
		DepthBias:             prop.DepthBias,
		DepthBiasClamp:        prop.DepthBiasClamp,
		SlopeScaledDepthBias:  prop.SlopeScaledDepthBias,
		DepthClipEnable:       b32(prop.DepthClip),
		MultisampleEnable:     b32(prop.Multisample),
		AntialiasedLineEnable: b32(prop.AntialiasedLine),
	}
	return
}

// depthStencilOpDesc is D3D12_DEPTH_STENCILOP_DESC.
type depthStencilOpDesc struct {
	StencilFailOp      stencilOp
	StencilDepthFailOp stencilOp
	StencilPassOp      stencilOp
	StencilFunc        comparisonFunc
}

// depthStencilDesc is D3D12_DEPTH_STENCIL_DESC.
type depthStencilDesc struct {
	DepthEnable      bool32
	DepthWriteMask   uint32
	DepthFunc        comparisonFunc
	StencilEnable    bool32
	StencilReadMask  uint8
	StencilWriteMask uint8
	FrontFace        depthStencilOpDesc
	BackFace         depthStencilOpDesc
}

// newDepthStencilDesc creates the D3D12_DEPTH_STENCIL_DESC
// for prop. The depth function is always valid, even if
// the depth test is disabled.
func newDepthStencilDesc(prop *driver.DepthStencilProperty) (dd depthStencilDesc, err error) {
	dd = depthStencilDesc{
		DepthEnable:      b32(prop.DepthTest),
		DepthFunc:        cmpAlways,
		StencilEnable:    b32(prop.StencilTest),
		StencilReadMask:  prop.StencilReadMask,
		StencilWriteMask: prop.StencilWriteMask,
	}
	if prop.DepthTest {
		if dd.DepthFunc, err = convCmpFunc(prop.DepthCmp); err != nil {
			return
		}
		if prop.DepthWrite {
			dd.DepthWriteMask = 1
		}
	}
	if dd.FrontFace, err = convStencil(&prop.Front); err != nil {
		return
	}
	dd.BackFace, err = convStencil(&prop.Back)
	return
}

func convStencil(s *driver.StencilOperatorInfo) (d depthStencilOpDesc, err error) {
	if d.StencilFailOp, err = convStencilOp(s.Fail); err != nil {
		return
	}
	if d.StencilDepthFailOp, err = convStencilOp(s.DepthFail); err != nil {
		return
	}
	if d.StencilPassOp, err = convStencilOp(s.Pass); err != nil {
		return
	}
	d.StencilFunc, err = convCmpFunc(s.Cmp)
	return
}

// inputElementDesc is D3D12_INPUT_ELEMENT_DESC.
type inputElementDesc struct {
	SemanticName         *byte
	SemanticIndex        uint32
	Format               dxgiFormat
	InputSlot            uint32
	AlignedByteOffset    uint32
	InputSlotClass       uint32
	InstanceDataStepRate uint32
}

// inputLayout holds the input elements of a pipeline and
// the memory their semantic names point to.
type inputLayout struct {
	topType primitiveTopologyType
	top     primitiveTopology
	attrs   []driver.VertexAttr
	slots   []driver.VertexSlot
	elems   []inputElementDesc
	names   [][]byte
}

var errNoSemantic = errors.New("d3d12: input element has no semantic")

// newInputLayout creates the input layout of a pipeline.
func newInputLayout(top driver.Topology, elems []driver.InputElement, maxIn int) (il inputLayout, err error) {
	if len(elems) > maxIn {
		err = &driver.RangeError{Op: "NewInputAssemblyState elements", Index: len(elems), Len: maxIn + 1}
		return
	}
	if il.topType, il.top, err = convTopology(top); err != nil {
		return
	}
	if il.attrs, il.slots, err = driver.InputLayout(elems); err != nil {
		return
	}
	il.elems = make([]inputElementDesc, len(il.attrs))
	il.names = make([][]byte, len(il.attrs))
	for i, a := range il.attrs {
		if a.Semantic == "" {
			err = fmt.Errorf("%w (element %d)", errNoSemantic, i)
			return
		}
		if a.Format.IsDepth() {
			err = driver.Unsupported("vertex format", a.Format)
			return
		}
		var f dxgiFormat
		if f, err = convPixelFmt(a.Format); err != nil {
			return
		}
		il.names[i] = append([]byte(a.Semantic), 0)
		il.elems[i] = inputElementDesc{
			SemanticName:      &il.names[i][0],
			SemanticIndex:     uint32(a.Index),
			Format:            f,
			InputSlot:         uint32(a.Slot),
			AlignedByteOffset: uint32(a.Offset),
		}
	}
	return
}

// descriptorRange is D3D12_DESCRIPTOR_RANGE.
type descriptorRange struct {
	RangeType                         descriptorRangeType
	NumDescriptors                    uint32
	BaseShaderRegister                uint32
	RegisterSpace                     uint32
	OffsetInDescriptorsFromTableStart uint32
}

// rootParameter is D3D12_ROOT_PARAMETER.
// u holds either D3D12_ROOT_DESCRIPTOR_TABLE (a count
// followed by a pointer) or D3D12_ROOT_CONSTANTS.
type rootParameter struct {
	ParameterType    rootParameterType
	_                uint32
	u                [4]uint32
	ShaderVisibility shaderVisibility
	_                uint32
}

// setTable makes p a descriptor table of r.
// r must be kept alive while p is in use.
func (p *rootParameter) setTable(r []descriptorRange) {
	p.ParameterType = paramDescriptorTable
	p.u[0] = uint32(len(r))
	*(*uintptr)(unsafe.Pointer(&p.u[2])) = uintptr(unsafe.Pointer(&r[0]))
}

// setConstants makes p a root constants parameter.
func (p *rootParameter) setConstants(reg, space, n int) {
	p.ParameterType = param32BitConstants
	p.u = [4]uint32{uint32(reg), uint32(space), uint32(n)}
}

// rootSignatureDesc is D3D12_ROOT_SIGNATURE_DESC.
type rootSignatureDesc struct {
	NumParameters     uint32
	Parameters        *rootParameter
	NumStaticSamplers uint32
	StaticSamplers    unsafe.Pointer
	Flags             uint32
}

const (
	rootFlagAllowInputLayout = 0x1
	rootSignatureVersion1    = 0x1
	// A root signature is limited to 64 DWORDs; each
	// table costs one.
	maxRootCost = 64
)

// rootTable describes one descriptor table of a root
// signature.
type rootTable struct {
	Space   int
	Sampler bool
	// Number of descriptors in the table.
	Count int
}

// rootLayout is the root signature built from a
// driver.LayoutDesc. There is one CBV/SRV/UAV table and
// one sampler table per register space, ordered by space,
// followed by the root constants, if any.
type rootLayout struct {
	params []rootParameter
	ranges [][]descriptorRange
	tables []rootTable
	// Index of the root constants parameter, or -1.
	constant int
}

// newRootLayout creates the root signature layout of
// desc.
func newRootLayout(desc *driver.LayoutDesc) (rl rootLayout, err error) {
	type table struct {
		ranges []descriptorRange
		stages driver.Stage
		count  int
	}
	res := make(map[int]*table)
	spl := make(map[int]*table)
	get := func(m map[int]*table, space int) *table {
		t := m[space]
		if t == nil {
			t = new(table)
			m[space] = t
		}
		return t
	}
	for _, e := range desc.Elements() {
		var rt descriptorRangeType
		if rt, err = convRangeType(e.Type); err != nil {
			return
		}
		t := get(res, e.Space)
		t.ranges = append(t.ranges, descriptorRange{
			RangeType:                         rt,
			NumDescriptors:                    uint32(e.Count),
			BaseShaderRegister:                uint32(e.Register),
			RegisterSpace:                     uint32(e.Space),
			OffsetInDescriptorsFromTableStart: uint32(t.count),
		})
		t.stages |= e.Stages
		t.count += e.Count
	}
	for _, e := range desc.Samplers() {
		t := get(spl, e.Space)
		t.ranges = append(t.ranges, descriptorRange{
			RangeType:                         rangeSampler,
			NumDescriptors:                    uint32(e.Count),
			BaseShaderRegister:                uint32(e.Register),
			RegisterSpace:                     uint32(e.Space),
			OffsetInDescriptorsFromTableStart: uint32(t.count),
		})
		t.stages |= e.Stages
		t.count += e.Count
	}
	spaces := make([]int, 0, len(res)+len(spl))
	for s := range res {
		spaces = append(spaces, s)
	}
	for s := range spl {
		if _, ok := res[s]; !ok {
			spaces = append(spaces, s)
		}
	}
	slices.SortFunc(spaces, cmp.Compare)
	add := func(t *table, space int, sampler bool) {
		rl.params = append(rl.params, rootParameter{ShaderVisibility: convVisibility(t.stages)})
		rl.ranges = append(rl.ranges, t.ranges)
		rl.tables = append(rl.tables, rootTable{Space: space, Sampler: sampler, Count: t.count})
	}
	for _, s := range spaces {
		if t := res[s]; t != nil {
			add(t, s, false)
		}
		if t := spl[s]; t != nil {
			add(t, s, true)
		}
	}
	for i := range rl.params {
		rl.params[i].setTable(rl.ranges[i])
	}
	cost := len(rl.params)
	rl.constant = -1
	if c, ok := desc.Constant(); ok {
		var p rootParameter
		p.setConstants(c.Register, c.Space, c.Count)
		p.ShaderVisibility = convVisibility(c.Stages)
		rl.constant = len(rl.params)
		rl.params = append(rl.params, p)
		cost += c.Count
	}
	if cost > maxRootCost {
		err = &driver.RangeError{Op: "NewResourceLayout root cost", Index: cost, Len: maxRootCost + 1}
	}
	return
}

// desc returns the D3D12_ROOT_SIGNATURE_DESC of rl.
// It points into rl, which must be kept alive while the
// result is in use.
func (rl *rootLayout) desc() rootSignatureDesc {
	d := rootSignatureDesc{
		NumParameters: uint32(len(rl.params)),
		Flags:         rootFlagAllowInputLayout,
	}
	if len(rl.params) > 0 {
		d.Parameters = &rl.params[0]
	}
	return d
}
