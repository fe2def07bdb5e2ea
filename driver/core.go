// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

// Destroyer is the interface that wraps the Destroy method.
// Types that implement this interface may allocate external
// memory that is not managed by GC, so Destroy must be
// called explicitly to ensure such memory is deallocated.
type Destroyer interface {
	Destroy()
}

// Version is a packed major.minor.patch version.
type Version struct {
	Major, Minor, Patch int
}

// AdapterType is the type of a physical adapter.
type AdapterType int

// Adapter types.
const (
	AdapterOther AdapterType = iota
	AdapterDiscrete
	AdapterIntegrated
	AdapterVirtual
	AdapterCPU
)

// Feature is a mask of optional capabilities.
// Features are resolved once, when the adapter is
// enumerated, and never change afterwards.
type Feature uint64

// Features.
const (
	FeatAnisotropy Feature = 1 << iota
	FeatIndependentBlend
	FeatWireFrame
	FeatDepthClamp
	FeatCubeArray
	FeatSampleRateShading
	FeatTimestamp
	FeatDescriptorIndexing
	FeatBCCompression
)

// Has returns whether every feature in x is present in f.
func (f Feature) Has(x Feature) bool { return f&x == x }

// MemoryHeap describes a memory heap of an adapter.
type MemoryHeap struct {
	Size        uint64
	DeviceLocal bool
}

// AdapterInfo is a snapshot of an adapter's properties,
// taken during enumeration.
type AdapterInfo struct {
	Name          string
	Vendor        uint32
	Device        uint32
	Type          AdapterType
	API           Version
	DriverVersion uint32
	Heaps         []MemoryHeap
	Features      Feature
}

// QueueFlags is a mask of queue capabilities.
type QueueFlags int

// Queue flags.
const (
	QGraphics QueueFlags = 1 << iota
	QCompute
	QCopy
)

// QueueFamily describes a family of device queues.
type QueueFamily struct {
	Flags QueueFlags
	Count int
	// TimestampBits is 0 if timestamps are not supported.
	TimestampBits int
}

// FormatFeature is a mask of operations that an adapter
// supports for a given pixel format.
type FormatFeature int

// Format features.
const (
	FmtSampled FormatFeature = 1 << iota
	FmtFilter
	FmtRenderTarget
	FmtBlend
	FmtDepthStencil
	FmtStorage
	FmtVertex
)

// Adapter is the interface that defines a physical GPU.
type Adapter interface {
	// Info returns the adapter properties.
	Info() AdapterInfo

	// Extensions returns the native extensions that the
	// adapter supports.
	Extensions() []string

	// QueueFamilies returns the adapter's queue families.
	QueueFamilies() []QueueFamily

	// FormatSupport returns the operations supported for
	// a pixel format. Unknown formats support nothing.
	FormatSupport(pf PixelFormat) FormatFeature

	// PresentSupport returns whether the queue family can
	// present to the given native surface (VkSurfaceKHR,
	// HWND or WGPUSurface, depending on the backend).
	PresentSupport(surface uintptr, family int) (bool, error)

	// CreateDevice creates the logical device.
	// It can be called only once per adapter; further
	// calls return ErrDeviceCreated.
	CreateDevice() (Device, error)
}

// Device is the interface that defines a logical GPU.
// It owns every object created from it: destroying the
// device destroys, with a warning, any object that is
// still alive.
type Device interface {
	Destroyer

	// Adapter returns the adapter that created the device.
	Adapter() Adapter

	// NewBuffer creates a new buffer.
	NewBuffer(meta *BufferMeta, name string) (Buffer, error)

	// NewTexture creates a new texture.
	NewTexture(meta *TextureMeta, name string) (Texture, error)

	// NewSampler creates a new sampler.
	NewSampler(info *SamplerInfo, name string) (Sampler, error)

	// NewResourceLayout creates the native binding layout
	// described by desc.
	NewResourceLayout(desc *LayoutDesc, name string) (ResourceLayout, error)

	// NewBlendState creates a new blend state.
	NewBlendState(desc *BlendDesc) (BlendState, error)

	// NewRasterizerState creates a new rasterizer state.
	NewRasterizerState(prop *RasterizerProperty) (RasterizerState, error)

	// NewDepthStencilState creates a new depth/stencil state.
	NewDepthStencilState(prop *DepthStencilProperty) (DepthStencilState, error)

	// NewInputAssemblyState creates a new input assembly
	// state.
	NewInputAssemblyState(top Topology, elems []InputElement) (InputAssemblyState, error)

	// NewCmdList creates a new command list for copy
	// commands.
	NewCmdList() (CmdList, error)

	// Flush submits command lists for execution and waits
	// for their completion. Objects retained by the command
	// lists are destroyed afterwards, and the lists can be
	// recorded again.
	Flush(cl ...CmdList) error

	// Limits returns the implementation limits.
	// They are immutable for the lifetime of the device.
	Limits() Limits
}

// Limits describes implementation limits.
type Limits struct {
	// Maximum width of 1D textures.
	MaxTexture1D int
	// Maximum width and height of 2D textures.
	MaxTexture2D int
	// Maximum width and height of cube textures.
	MaxTextureCube int
	// Maximum width, height and depth of 3D textures.
	MaxTexture3D int
	// Maximum number of layers in a texture.
	MaxLayers int
	// Maximum range of constant buffer bindings.
	MaxConstantRange int64
	// Maximum number of 32-bit inline constants.
	MaxConstant32Bits int
	// Maximum sampler anisotropy.
	MaxAnisotropy int
	// Maximum number of vertex inputs.
	MaxVertexIn int
	// Maximum number of color render targets.
	MaxColorTargets int
}

// Buffer is the interface that defines a GPU buffer.
// The size of the buffer is fixed. When a larger buffer
// is necessary, a new one must be created and the data
// must be copied explicitly.
type Buffer interface {
	Destroyer

	// Meta returns the description used to create the
	// buffer.
	Meta() BufferMeta

	// Name returns the debug name of the buffer.
	Name() string

	// SetName sets the debug name of the buffer.
	SetName(name string)

	// Pack uploads data to the start of the buffer.
	// For host-visible buffers the data is copied through
	// a mapping and cl is not used. Otherwise, a staging
	// buffer is created, filled and copied to the buffer by
	// a command recorded in cl; the staging buffer is
	// retained by cl and destroyed by Device.Flush.
	Pack(data []byte, cl CmdList) error

	// CopyStart maps the buffer for CPU access.
	// It must be paired with CopyEnd.
	CopyStart() error

	// CopyData writes one element at index*Stride.
	// len(elem) must not exceed Stride.
	CopyData(index int, elem []byte) error

	// CopyEnd unmaps the buffer.
	// Calling CopyEnd on a buffer that is not mapped
	// has no effect.
	CopyEnd()

	// Mapped returns the mapped memory between CopyStart
	// and CopyEnd, and nil otherwise.
	Mapped() []byte

	// CopyTotalData writes length elements from data,
	// starting at element indexOffset. It maps and unmaps
	// the buffer itself.
	// If indexOffset+length exceeds Count, it returns a
	// *RangeError without writing anything.
	CopyTotalData(data []byte, length, indexOffset int) error
}

// WithMapping calls fn between b.CopyStart and b.CopyEnd.
// CopyEnd runs even if fn panics.
// If b is already mapped, fn receives the current mapping
// and b stays mapped when WithMapping returns.
func WithMapping(b Buffer, fn func(mapped []byte) error) error {
	if p := b.Mapped(); p != nil {
		return fn(p)
	}
	if err := b.CopyStart(); err != nil {
		return err
	}
	defer b.CopyEnd()
	return fn(b.Mapped())
}

// Packer is the interface that wraps the Pack method
// of Buffer and Texture.
type Packer interface {
	Pack(data []byte, cl CmdList) error
}

// PackNow packs data into p using a temporary command
// list, and waits for the copy to complete.
func PackNow(d Device, p Packer, data []byte) (err error) {
	cl, err := d.NewCmdList()
	if err != nil {
		return
	}
	defer cl.Destroy()
	if err = cl.Begin(); err != nil {
		return
	}
	if err = p.Pack(data, cl); err != nil {
		cl.End()
		return
	}
	if err = cl.End(); err != nil {
		return
	}
	return d.Flush(cl)
}

// Texture is the interface that defines a GPU texture.
// Direct access to texture memory is not provided, so
// copying data from the CPU to a texture requires the use
// of a staging buffer.
type Texture interface {
	Destroyer

	// Meta returns the description used to create the
	// texture.
	Meta() TextureMeta

	// Name returns the debug name of the texture.
	Name() string

	// SetName sets the debug name of the texture.
	SetName(name string)

	// Pack uploads mip level 0 of every layer. data must
	// be tightly packed, with layers in order, and must have
	// length TextureMeta.Mip0Size.
	// The staging buffer is retained by cl and destroyed by
	// Device.Flush.
	Pack(data []byte, cl CmdList) error

	// Owned returns whether the texture owns its native
	// image and memory. Wrapped textures (e.g., swapchain
	// images) do not.
	Owned() bool
}

// Sampler is the interface that defines a texture sampler.
type Sampler interface {
	Destroyer

	// Info returns the description used to create the
	// sampler.
	Info() SamplerInfo
}

// ResourceLayout is the interface that defines a native
// binding layout (root signature, descriptor set and
// pipeline layouts, bind group layouts).
type ResourceLayout interface {
	Destroyer

	// Desc returns the immutable layout description.
	Desc() *LayoutDesc
}

// BlendState is the interface that defines an immutable
// blend state.
type BlendState interface {
	Destroyer
	Desc() BlendDesc
}

// RasterizerState is the interface that defines an
// immutable rasterizer state.
type RasterizerState interface {
	Destroyer
	Property() RasterizerProperty
}

// DepthStencilState is the interface that defines an
// immutable depth/stencil state.
type DepthStencilState interface {
	Destroyer
	Property() DepthStencilProperty
}

// InputAssemblyState is the interface that defines an
// immutable input assembly state.
type InputAssemblyState interface {
	Destroyer

	Topology() Topology

	// Attrs returns the vertex attributes with resolved
	// offsets, in input order.
	Attrs() []VertexAttr

	// Slots returns the vertex buffer bindings.
	Slots() []VertexSlot
}

// CmdList is the interface that defines a command list
// for copy commands.
// Usage: call Begin, record copies, call End and submit
// with Device.Flush. A single goroutine must record a
// given command list.
type CmdList interface {
	Destroyer

	// Begin prepares the command list for recording.
	Begin() error

	// CopyBuffer copies size bytes between buffers.
	CopyBuffer(dst Buffer, dstOff int64, src Buffer, srcOff, size int64)

	// CopyBufferToTexture copies mip level 0 of every
	// layer of dst from tightly packed data in src at
	// srcOff.
	CopyBufferToTexture(dst Texture, src Buffer, srcOff int64)

	// Retain keeps d alive until the command list
	// completes execution; d is destroyed by Device.Flush.
	Retain(d Destroyer)

	// End ends recording.
	End() error
}
