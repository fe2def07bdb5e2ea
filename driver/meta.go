// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

import "math/bits"

// ConstantBufferAlign is the alignment of constant buffer
// elements, in bytes. Every backend uses this value.
const ConstantBufferAlign = 256

// AlignUp rounds n up to a multiple of align, which must
// be a power of two.
func AlignUp(n, align int) int { return (n + align - 1) &^ (align - 1) }

// BufferMeta describes a buffer.
// It is built by one of the buffer factories and consumed
// by Device.NewBuffer. ByteSize is always Stride*Count.
type BufferMeta struct {
	Stride   int
	Count    int
	ByteSize int
	Usage    Usage
	State    ResourceState
	Heap     HeapType
	Type     BufferType
	// InitData, if not nil, is copied into the buffer on
	// creation. Buffers in the default heap are filled with
	// PackNow.
	InitData []byte
}

func newBufferMeta(stride, count int, usg Usage, st ResourceState, heap HeapType, typ BufferType, init []byte) BufferMeta {
	return BufferMeta{
		Stride:   stride,
		Count:    count,
		ByteSize: stride * count,
		Usage:    usg,
		State:    st,
		Heap:     heap,
		Type:     typ,
		InitData: init,
	}
}

// UploadBuffer returns the description of a CPU-visible
// buffer used as copy source.
func UploadBuffer(stride, count int, init []byte) BufferMeta {
	return newBufferMeta(stride, count, UCopySrc, StGenericRead, HUpload, BufUpload, init)
}

// ReadbackBuffer returns the description of a CPU-visible
// buffer used as copy destination.
func ReadbackBuffer(stride, count int) BufferMeta {
	return newBufferMeta(stride, count, UCopyDst, StCopyDst, HReadback, BufUpload, nil)
}

// DefaultBuffer returns the description of a GPU-local
// buffer. Its contents are provided with Buffer.Pack.
// UCopyDst is always added to usg.
func DefaultBuffer(stride, count int, usg Usage, init []byte) BufferMeta {
	return newBufferMeta(stride, count, usg|UCopyDst, StCommon, HDefault, BufDefault, init)
}

// ConstantBuffer returns the description of a CPU-visible
// constant buffer. stride is rounded up to
// ConstantBufferAlign before ByteSize is computed.
func ConstantBuffer(stride, count int, init []byte) BufferMeta {
	stride = AlignUp(stride, ConstantBufferAlign)
	return newBufferMeta(stride, count, UConstantBuffer, StVertexAndConstant, HUpload, BufConstant, init)
}

// VertexBuffer returns the description of a vertex buffer
// in the given heap.
func VertexBuffer(stride, count int, heap HeapType, init []byte) BufferMeta {
	usg := UVertexBuffer
	st := StVertexAndConstant
	if heap == HDefault {
		usg |= UCopyDst
		st = StCommon
	}
	return newBufferMeta(stride, count, usg, st, heap, BufVertex, init)
}

// IndexBuffer returns the description of an index buffer
// in the given heap. stride should be 2 or 4.
func IndexBuffer(stride, count int, heap HeapType, init []byte) BufferMeta {
	usg := UIndexBuffer
	st := StIndex
	if heap == HDefault {
		usg |= UCopyDst
		st = StCommon
	}
	return newBufferMeta(stride, count, usg, st, heap, BufIndex, init)
}

// Validate checks that m can be used to create a buffer.
func (m *BufferMeta) Validate() error {
	switch {
	case m.Stride <= 0:
		return &RangeError{Op: "BufferMeta.Stride", Index: m.Stride, Len: 1 << 31}
	case m.Count <= 0:
		return &RangeError{Op: "BufferMeta.Count", Index: m.Count, Len: 1 << 31}
	case m.ByteSize != m.Stride*m.Count:
		return &RangeError{Op: "BufferMeta.ByteSize", Index: m.ByteSize, Len: m.Stride * m.Count}
	case m.InitData != nil && len(m.InitData) > m.ByteSize:
		return &RangeError{Op: "BufferMeta.InitData", Index: len(m.InitData), Len: m.ByteSize}
	}
	return nil
}

// TextureMeta describes a texture.
// It is built by one of the texture factories and consumed
// by Device.NewTexture.
// DepthOrArraySize is the number of layers for array and
// cube types (6*length for cube arrays), the depth for 3D
// textures and 1 otherwise.
// ByteSize is derived; call CalculateByteSize after changing
// any other field.
type TextureMeta struct {
	Width            int
	Height           int
	DepthOrArraySize int
	Format           PixelFormat
	MipLevels        int
	Usage            Usage
	State            ResourceState
	Dimension        Dimension
	Type             TextureType
	Heap             HeapType
	Sample           SampleDesc
	ClearColor       ClearValue
	ByteSize         int
}

// MaxMipLevels returns the length of the full mip chain
// of a texture of the given size.
func MaxMipLevels(width, height, depth int) int {
	n := max(width, height, depth, 1)
	return bits.Len(uint(n))
}

// CalculateByteSize computes the byte size from the other
// fields and stores it in m.ByteSize.
// It sums every mip level of every layer, multiplied by
// the sample count.
func (m *TextureMeta) CalculateByteSize() int {
	m.ByteSize = m.byteSize()
	return m.ByteSize
}

func (m *TextureMeta) byteSize() int {
	px := m.Format.Size()
	if px == 0 || m.Width <= 0 || m.Height <= 0 || m.DepthOrArraySize <= 0 || m.MipLevels <= 0 {
		return 0
	}
	samples := max(m.Sample.Count, 1)
	layers, depth := m.DepthOrArraySize, 1
	if m.Dimension == Dim3D {
		layers, depth = 1, m.DepthOrArraySize
	}
	var n int
	for i := range m.MipLevels {
		w := max(m.Width>>i, 1)
		h := max(m.Height>>i, 1)
		d := max(depth>>i, 1)
		n += w * h * d
	}
	return n * layers * px * samples
}

// LayerCount returns the number of array layers.
func (m *TextureMeta) LayerCount() int {
	if m.Dimension == Dim3D {
		return 1
	}
	return m.DepthOrArraySize
}

// Depth returns the depth of mip level 0.
func (m *TextureMeta) Depth() int {
	if m.Dimension == Dim3D {
		return m.DepthOrArraySize
	}
	return 1
}

// Mip0Size returns the byte size of mip level 0 across
// every layer, which is the data layout expected by
// Texture.Pack.
func (m *TextureMeta) Mip0Size() int {
	return m.Width * m.Height * m.Depth() * m.LayerCount() * m.Format.Size()
}

func newTextureMeta(w, h, doa int, pf PixelFormat, mips int, usg Usage, dim Dimension, typ TextureType, samples int) TextureMeta {
	if mips <= 0 {
		d := 1
		if dim == Dim3D {
			d = doa
		}
		mips = MaxMipLevels(w, h, d)
	}
	if samples > 1 {
		mips = 1
	}
	m := TextureMeta{
		Width:            w,
		Height:           h,
		DepthOrArraySize: doa,
		Format:           pf,
		MipLevels:        mips,
		Usage:            usg,
		State:            StCommon,
		Dimension:        dim,
		Type:             typ,
		Heap:             HDefault,
		Sample:           SampleDesc{Count: max(samples, 1)},
	}
	m.CalculateByteSize()
	return m
}

// Texture1D returns the description of a 1D texture.
// A mips value of 0 selects the full mip chain.
func Texture1D(width int, pf PixelFormat, mips int, usg Usage) TextureMeta {
	return newTextureMeta(width, 1, 1, pf, mips, usg, Dim1D, Tex1D, 1)
}

// Texture1DArray returns the description of a 1D array
// texture.
func Texture1DArray(width, length int, pf PixelFormat, mips int, usg Usage) TextureMeta {
	return newTextureMeta(width, 1, length, pf, mips, usg, Dim1D, Tex1DArray, 1)
}

// Texture2D returns the description of a 2D texture.
func Texture2D(width, height int, pf PixelFormat, mips int, usg Usage) TextureMeta {
	return newTextureMeta(width, height, 1, pf, mips, usg, Dim2D, Tex2D, 1)
}

// Texture2DArray returns the description of a 2D array
// texture.
func Texture2DArray(width, height, length int, pf PixelFormat, mips int, usg Usage) TextureMeta {
	return newTextureMeta(width, height, length, pf, mips, usg, Dim2D, Tex2DArray, 1)
}

// Texture2DMS returns the description of a multisample
// 2D texture. It has a single mip level.
func Texture2DMS(width, height int, pf PixelFormat, samples int, usg Usage) TextureMeta {
	return newTextureMeta(width, height, 1, pf, 1, usg, Dim2D, Tex2DMS, samples)
}

// Texture2DMSArray returns the description of a
// multisample 2D array texture.
func Texture2DMSArray(width, height, length int, pf PixelFormat, samples int, usg Usage) TextureMeta {
	return newTextureMeta(width, height, length, pf, 1, usg, Dim2D, Tex2DMSArray, samples)
}

// Texture3D returns the description of a 3D texture.
func Texture3D(width, height, depth int, pf PixelFormat, mips int, usg Usage) TextureMeta {
	return newTextureMeta(width, height, depth, pf, mips, usg, Dim3D, Tex3D, 1)
}

// CubeMap returns the description of a cube texture.
// It has 6 layers.
func CubeMap(width, height int, pf PixelFormat, mips int, usg Usage) TextureMeta {
	return newTextureMeta(width, height, 6, pf, mips, usg, Dim2D, TexCube, 1)
}

// CubeMapArray returns the description of a cube array
// texture with length cubes. It has 6*length layers.
func CubeMapArray(width, height, length int, pf PixelFormat, mips int, usg Usage) TextureMeta {
	return newTextureMeta(width, height, 6*length, pf, mips, usg, Dim2D, TexCubeArray, 1)
}

// RenderTarget returns the description of a color render
// target. It has a single mip level.
func RenderTarget(width, height int, pf PixelFormat, samples int, clear [4]float32) TextureMeta {
	typ := Tex2D
	if samples > 1 {
		typ = Tex2DMS
	}
	m := newTextureMeta(width, height, 1, pf, 1, URenderTarget|UShaderResource, Dim2D, typ, samples)
	m.State = StRenderTarget
	m.ClearColor.Color = clear
	return m
}

// DepthStencil returns the description of a depth/stencil
// target. It has a single mip level.
func DepthStencil(width, height int, pf PixelFormat, samples int, depth float32, stencil uint32) TextureMeta {
	typ := Tex2D
	if samples > 1 {
		typ = Tex2DMS
	}
	m := newTextureMeta(width, height, 1, pf, 1, UDepthStencil, Dim2D, typ, samples)
	m.State = StDepthWrite
	m.ClearColor.Depth = depth
	m.ClearColor.Stencil = stencil
	return m
}

// Validate checks that m can be used to create a texture.
func (m *TextureMeta) Validate() error {
	switch {
	case !m.Format.IsValid():
		return Unsupported("pixel format", m.Format)
	case m.Width <= 0:
		return &RangeError{Op: "TextureMeta.Width", Index: m.Width, Len: 1 << 31}
	case m.Height <= 0:
		return &RangeError{Op: "TextureMeta.Height", Index: m.Height, Len: 1 << 31}
	case m.DepthOrArraySize <= 0:
		return &RangeError{Op: "TextureMeta.DepthOrArraySize", Index: m.DepthOrArraySize, Len: 1 << 31}
	case m.MipLevels <= 0:
		return &RangeError{Op: "TextureMeta.MipLevels", Index: m.MipLevels, Len: 1 << 31}
	case m.Type.IsCube() && m.DepthOrArraySize%6 != 0:
		return &RangeError{Op: "TextureMeta.DepthOrArraySize", Index: m.DepthOrArraySize, Len: 6}
	case m.ByteSize != m.byteSize():
		return &RangeError{Op: "TextureMeta.ByteSize", Index: m.ByteSize, Len: m.byteSize()}
	}
	return nil
}

// ElemRange checks a write of n bytes to element index
// and returns its byte offset.
func (m *BufferMeta) ElemRange(index, n int) (off int, err error) {
	if index < 0 || index >= m.Count {
		return 0, &RangeError{Op: "CopyData index", Index: index, Len: m.Count}
	}
	if n > m.Stride {
		return 0, &RangeError{Op: "CopyData length", Index: n, Len: m.Stride + 1}
	}
	return index * m.Stride, nil
}

// TotalRange checks a write of length elements, taken
// from data of dataLen bytes, starting at element
// indexOffset. It returns the byte range to write.
func (m *BufferMeta) TotalRange(dataLen, length, indexOffset int) (off, size int, err error) {
	switch {
	case length < 0 || length > m.Count:
		return 0, 0, &RangeError{Op: "CopyTotalData length", Index: length, Len: m.Count + 1}
	case indexOffset < 0 || indexOffset > m.Count-length:
		return 0, 0, &RangeError{Op: "CopyTotalData", Index: indexOffset, Len: m.Count - length + 1}
	}
	size = length * m.Stride
	if dataLen < size {
		return 0, 0, &RangeError{Op: "CopyTotalData data", Index: dataLen, Len: size}
	}
	return indexOffset * m.Stride, size, nil
}
