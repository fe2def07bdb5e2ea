// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build amd64 || arm64

package d3d12

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	d3d12DLL = windows.NewLazySystemDLL("d3d12.dll")
	dxgiDLL  = windows.NewLazySystemDLL("dxgi.dll")

	procCreateDevice           = d3d12DLL.NewProc("D3D12CreateDevice")
	procGetDebugInterface      = d3d12DLL.NewProc("D3D12GetDebugInterface")
	procSerializeRootSignature = d3d12DLL.NewProc("D3D12SerializeRootSignature")
	procCreateDXGIFactory1     = dxgiDLL.NewProc("CreateDXGIFactory1")
)

// Interface identifiers.
var (
	iidDXGIFactory1 = windows.GUID{Data1: 0x770aae78, Data2: 0xf26f, Data3: 0x4dba,
		Data4: [8]byte{0xa8, 0x29, 0x25, 0x3c, 0x83, 0xd1, 0xb3, 0x87}}
	iidDXGIFactory4 = windows.GUID{Data1: 0x1bc6ea02, Data2: 0xef36, Data3: 0x464f,
		Data4: [8]byte{0xbf, 0x0c, 0x21, 0xca, 0x39, 0xe5, 0x16, 0x8a}}
	iidDXGIAdapter1 = windows.GUID{Data1: 0x29038f61, Data2: 0x3839, Data3: 0x4626,
		Data4: [8]byte{0x91, 0xfd, 0x08, 0x68, 0x79, 0x01, 0x1a, 0x05}}
	iidDXGIDevice = windows.GUID{Data1: 0x54ec77fa, Data2: 0x1377, Data3: 0x44e6,
		Data4: [8]byte{0x8c, 0x32, 0x88, 0xfd, 0x5f, 0x44, 0xc8, 0x4c}}
	iidDevice = windows.GUID{Data1: 0x189819f1, Data2: 0x1db6, Data3: 0x4b57,
		Data4: [8]byte{0xbe, 0x54, 0x18, 0x21, 0x33, 0x9b, 0x85, 0xf7}}
	iidCommandQueue = windows.GUID{Data1: 0x0ec870a6, Data2: 0x5d7e, Data3: 0x4c22,
		Data4: [8]byte{0x8c, 0xfc, 0x5b, 0xaa, 0xe0, 0x76, 0x16, 0xed}}
	iidCommandAllocator = windows.GUID{Data1: 0x6102dee4, Data2: 0xaf59, Data3: 0x4b09,
		Data4: [8]byte{0xb9, 0x99, 0xb4, 0x4d, 0x73, 0xf0, 0x9b, 0x24}}
	iidGraphicsCommandList = windows.GUID{Data1: 0x5b160d0f, Data2: 0xac1b, Data3: 0x4185,
		Data4: [8]byte{0x8b, 0xa8, 0xb3, 0xae, 0x42, 0xa5, 0xa4, 0x55}}
	iidFence = windows.GUID{Data1: 0x0a753dcf, Data2: 0xc4d8, Data3: 0x4b91,
		Data4: [8]byte{0xad, 0xf6, 0xbe, 0x5a, 0x60, 0xd9, 0x5a, 0x76}}
	iidResource = windows.GUID{Data1: 0x696442be, Data2: 0xa72e, Data3: 0x4059,
		Data4: [8]byte{0xbc, 0x79, 0x5b, 0x5c, 0x98, 0x04, 0x0f, 0xad}}
	iidHeap = windows.GUID{Data1: 0x6b3b2502, Data2: 0x6e51, Data3: 0x45b3,
		Data4: [8]byte{0x90, 0xee, 0x98, 0x84, 0x26, 0x5e, 0x8d, 0xf3}}
	iidDescriptorHeap = windows.GUID{Data1: 0x8efb471d, Data2: 0x616c, Data3: 0x4f49,
		Data4: [8]byte{0x90, 0xf7, 0x12, 0x7b, 0xb7, 0x63, 0xfa, 0x51}}
	iidRootSignature = windows.GUID{Data1: 0xc54a6b66, Data2: 0x72df, Data3: 0x4ee8,
		Data4: [8]byte{0x8b, 0xe5, 0xa9, 0x46, 0xa1, 0x42, 0x92, 0x14}}
	iidDebug = windows.GUID{Data1: 0x344488b7, Data2: 0x6846, Data3: 0x474b,
		Data4: [8]byte{0xb9, 0x89, 0xf0, 0x27, 0x44, 0x82, 0x45, 0xe0}}
)

// unknown is the memory layout of every COM object: a
// pointer to its method table. Method indices count the
// methods of every base interface.
type unknown struct {
	vtbl *[64]uintptr
}

// IUnknown and ID3D12Object methods.
const (
	mQueryInterface = 0
	mRelease        = 2
	mSetName        = 6
)

// call calls a method of u.
//
//go:uintptrescapes
func (u *unknown) call(method int, args ...uintptr) uintptr {
	a := make([]uintptr, 0, 1+len(args))
	a = append(a, uintptr(unsafe.Pointer(u)))
	a = append(a, args...)
	r, _, _ := syscall.SyscallN(u.vtbl[method], a...)
	return r
}

// hr calls a method of u that returns an HRESULT.
//
//go:uintptrescapes
func (u *unknown) hr(method int, args ...uintptr) error {
	return checkHR(uint32(u.call(method, args...)))
}

// release decrements the reference count of u.
func (u *unknown) release() { u.call(mRelease) }

// setName sets the debug name of an ID3D12Object.
func (u *unknown) setName(name string) {
	s, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return
	}
	u.call(mSetName, uintptr(unsafe.Pointer(s)))
}

// callProc calls an exported function that returns an
// HRESULT. A missing library is reported as
// driver.ErrNotInstalled by the caller, via Find.
//
//go:uintptrescapes
func callProc(p *windows.LazyProc, args ...uintptr) error {
	r, _, _ := p.Call(args...)
	return checkHR(uint32(r))
}

// DXGI.

type iDXGIFactory1 struct{ unknown }

type iDXGIFactory4 struct{ unknown }

type iDXGIAdapter1 struct{ unknown }

// dxgiAdapterDesc1 is DXGI_ADAPTER_DESC1.
type dxgiAdapterDesc1 struct {
	Description           [128]uint16
	VendorID              uint32
	DeviceID              uint32
	SubSysID              uint32
	Revision              uint32
	DedicatedVideoMemory  uintptr
	DedicatedSystemMemory uintptr
	SharedSystemMemory    uintptr
	AdapterLUID           windows.LUID
	Flags                 uint32
}

func createFactory() (*iDXGIFactory1, error) {
	if err := procCreateDXGIFactory1.Find(); err != nil {
		return nil, err
	}
	var f *iDXGIFactory1
	err := callProc(procCreateDXGIFactory1, uintptr(unsafe.Pointer(&iidDXGIFactory1)), uintptr(unsafe.Pointer(&f)))
	return f, err
}

func (f *iDXGIFactory1) enumAdapters1(i int) (*iDXGIAdapter1, error) {
	var a *iDXGIAdapter1
	err := f.hr(12, uintptr(i), uintptr(unsafe.Pointer(&a)))
	return a, err
}

// enumWarpAdapter returns the software adapter.
func (f *iDXGIFactory1) enumWarpAdapter() (*iDXGIAdapter1, error) {
	var f4 *iDXGIFactory4
	if err := f.hr(mQueryInterface, uintptr(unsafe.Pointer(&iidDXGIFactory4)), uintptr(unsafe.Pointer(&f4))); err != nil {
		return nil, err
	}
	defer f4.release()
	var a *iDXGIAdapter1
	err := f4.hr(27, uintptr(unsafe.Pointer(&iidDXGIAdapter1)), uintptr(unsafe.Pointer(&a)))
	return a, err
}

func (a *iDXGIAdapter1) desc1() (desc dxgiAdapterDesc1, err error) {
	err = a.hr(10, uintptr(unsafe.Pointer(&desc)))
	return
}

// umdVersion returns the user mode driver version, or 0
// if it cannot be queried.
func (a *iDXGIAdapter1) umdVersion() int64 {
	var v int64
	if a.hr(9, uintptr(unsafe.Pointer(&iidDXGIDevice)), uintptr(unsafe.Pointer(&v))) != nil {
		return 0
	}
	return v
}

// D3D12.

type iDebug struct{ unknown }

func enableDebugLayer() error {
	var dbg *iDebug
	if err := callProc(procGetDebugInterface, uintptr(unsafe.Pointer(&iidDebug)), uintptr(unsafe.Pointer(&dbg))); err != nil {
		return err
	}
	dbg.call(3)
	dbg.release()
	return nil
}

// D3D_FEATURE_LEVEL_11_0.
const featureLevel11 = 0xb000

type iDevice struct{ unknown }

func createDevice(a *iDXGIAdapter1) (*iDevice, error) {
	if err := procCreateDevice.Find(); err != nil {
		return nil, err
	}
	var d *iDevice
	err := callProc(procCreateDevice, uintptr(unsafe.Pointer(a)), featureLevel11,
		uintptr(unsafe.Pointer(&iidDevice)), uintptr(unsafe.Pointer(&d)))
	return d, err
}

// commandQueueDesc is D3D12_COMMAND_QUEUE_DESC.
type commandQueueDesc struct {
	Type     uint32
	Priority int32
	Flags    uint32
	NodeMask uint32
}

// D3D12_COMMAND_LIST_TYPE_DIRECT.
const commandListDirect = 0

func (d *iDevice) createCommandQueue(desc *commandQueueDesc) (q *iCommandQueue, err error) {
	err = d.hr(8, uintptr(unsafe.Pointer(desc)), uintptr(unsafe.Pointer(&iidCommandQueue)), uintptr(unsafe.Pointer(&q)))
	return
}

func (d *iDevice) createCommandAllocator(typ uint32) (a *iCommandAllocator, err error) {
	err = d.hr(9, uintptr(typ), uintptr(unsafe.Pointer(&iidCommandAllocator)), uintptr(unsafe.Pointer(&a)))
	return
}

func (d *iDevice) createCommandList(typ uint32, a *iCommandAllocator) (cl *iGraphicsCommandList, err error) {
	err = d.hr(12, 0, uintptr(typ), uintptr(unsafe.Pointer(a)), 0,
		uintptr(unsafe.Pointer(&iidGraphicsCommandList)), uintptr(unsafe.Pointer(&cl)))
	return
}

// D3D12_FEATURE values.
const (
	featureOptions       = 0
	featureArchitecture  = 1
	featureFormatSupport = 2
)

// featureDataOptions is D3D12_FEATURE_DATA_D3D12_OPTIONS.
type featureDataOptions struct {
	DoublePrecisionFloatShaderOps  bool32
	OutputMergerLogicOp            bool32
	MinPrecisionSupport            uint32
	TiledResourcesTier             uint32
	ResourceBindingTier            uint32
	PSSpecifiedStencilRefSupported bool32
	TypedUAVLoadAdditionalFormats  bool32
	ROVsSupported                  bool32
	ConservativeRasterizationTier  uint32
	MaxGPUVirtualAddressBits       uint32
	StandardSwizzle64KBSupported   bool32
	CrossNodeSharingTier           uint32
	CrossAdapterRowMajorTexture    bool32
	VPAndRTArrayIndexFromAnyShader bool32
	ResourceHeapTier               uint32
}

// featureDataArchitecture is
// D3D12_FEATURE_DATA_ARCHITECTURE.
type featureDataArchitecture struct {
	NodeIndex         uint32
	TileBasedRenderer bool32
	UMA               bool32
	CacheCoherentUMA  bool32
}

// featureDataFormatSupport is
// D3D12_FEATURE_DATA_FORMAT_SUPPORT.
type featureDataFormatSupport struct {
	Format   dxgiFormat
	Support1 uint32
	Support2 uint32
}

func (d *iDevice) checkFeatureSupport(feature uint32, data unsafe.Pointer, size uintptr) error {
	return d.hr(13, uintptr(feature), uintptr(data), size)
}

// descriptorHeapDesc is D3D12_DESCRIPTOR_HEAP_DESC.
type descriptorHeapDesc struct {
	Type           uint32
	NumDescriptors uint32
	Flags          uint32
	NodeMask       uint32
}

// D3D12_DESCRIPTOR_HEAP_TYPE_SAMPLER.
const descriptorHeapSampler = 3

func (d *iDevice) createDescriptorHeap(desc *descriptorHeapDesc) (h *iDescriptorHeap, err error) {
	err = d.hr(14, uintptr(unsafe.Pointer(desc)), uintptr(unsafe.Pointer(&iidDescriptorHeap)), uintptr(unsafe.Pointer(&h)))
	return
}

func (d *iDevice) descriptorHandleIncrementSize(typ uint32) uintptr {
	return uintptr(uint32(d.call(15, uintptr(typ))))
}

func (d *iDevice) createRootSignature(blob []byte) (rs *iRootSignature, err error) {
	err = d.hr(16, 0, uintptr(unsafe.Pointer(&blob[0])), uintptr(len(blob)),
		uintptr(unsafe.Pointer(&iidRootSignature)), uintptr(unsafe.Pointer(&rs)))
	return
}

func (d *iDevice) createSampler(desc *samplerDesc, dst uintptr) {
	d.call(22, uintptr(unsafe.Pointer(desc)), dst)
}

// resourceAllocationInfo returns the size and alignment
// required by a placed resource. The result is returned
// through a hidden pointer that follows the receiver.
func (d *iDevice) resourceAllocationInfo(desc *resourceDesc) (info allocationInfo) {
	d.call(25, uintptr(unsafe.Pointer(&info)), 0, 1, uintptr(unsafe.Pointer(desc)))
	return
}

func (d *iDevice) createCommittedResource(hp *heapProperties, desc *resourceDesc, st resourceStates) (r *iResource, err error) {
	err = d.hr(27, uintptr(unsafe.Pointer(hp)), 0, uintptr(unsafe.Pointer(desc)), uintptr(st), 0,
		uintptr(unsafe.Pointer(&iidResource)), uintptr(unsafe.Pointer(&r)))
	return
}

func (d *iDevice) createHeap(desc *heapDesc) (h *iHeap, err error) {
	err = d.hr(28, uintptr(unsafe.Pointer(desc)), uintptr(unsafe.Pointer(&iidHeap)), uintptr(unsafe.Pointer(&h)))
	return
}

func (d *iDevice) createPlacedResource(h *iHeap, desc *resourceDesc, st resourceStates, cv *clearValue) (r *iResource, err error) {
	err = d.hr(29, uintptr(unsafe.Pointer(h)), 0, uintptr(unsafe.Pointer(desc)), uintptr(st),
		uintptr(unsafe.Pointer(cv)), uintptr(unsafe.Pointer(&iidResource)), uintptr(unsafe.Pointer(&r)))
	return
}

func (d *iDevice) createFence() (f *iFence, err error) {
	err = d.hr(36, 0, 0, uintptr(unsafe.Pointer(&iidFence)), uintptr(unsafe.Pointer(&f)))
	return
}

func (d *iDevice) removedReason() error { return d.hr(37) }

type iCommandQueue struct{ unknown }

func (q *iCommandQueue) executeCommandLists(cls []*iGraphicsCommandList) {
	q.call(10, uintptr(len(cls)), uintptr(unsafe.Pointer(&cls[0])))
}

func (q *iCommandQueue) signal(f *iFence, v uint64) error {
	return q.hr(14, uintptr(unsafe.Pointer(f)), uintptr(v))
}

type iCommandAllocator struct{ unknown }

func (a *iCommandAllocator) reset() error { return a.hr(8) }

type iGraphicsCommandList struct{ unknown }

func (cl *iGraphicsCommandList) close() error { return cl.hr(9) }

func (cl *iGraphicsCommandList) reset(a *iCommandAllocator) error {
	return cl.hr(10, uintptr(unsafe.Pointer(a)), 0)
}

func (cl *iGraphicsCommandList) copyBufferRegion(dst *iResource, dstOff uint64, src *iResource, srcOff, size uint64) {
	cl.call(15, uintptr(unsafe.Pointer(dst)), uintptr(dstOff), uintptr(unsafe.Pointer(src)), uintptr(srcOff), uintptr(size))
}

// textureCopyLocation is D3D12_TEXTURE_COPY_LOCATION.
// For subresource locations, the index is stored in the
// low bits of the footprint offset.
type textureCopyLocation struct {
	Resource  *iResource
	Type      uint32
	_         uint32
	Footprint footprint
}

// D3D12_TEXTURE_COPY_TYPE values.
const (
	copySubresourceIndex = 0
	copyPlacedFootprint  = 1
)

func (cl *iGraphicsCommandList) copyTextureRegion(dst, src *textureCopyLocation) {
	cl.call(16, uintptr(unsafe.Pointer(dst)), 0, 0, 0, uintptr(unsafe.Pointer(src)), 0)
}

// resourceBarrier is a transition D3D12_RESOURCE_BARRIER.
type resourceBarrier struct {
	Type        uint32
	Flags       uint32
	Resource    *iResource
	Subresource uint32
	StateBefore resourceStates
	StateAfter  resourceStates
	_           uint32
}

// D3D12_RESOURCE_BARRIER_ALL_SUBRESOURCES.
const allSubresources = 0xffffffff

func (cl *iGraphicsCommandList) resourceBarrier(b []resourceBarrier) {
	cl.call(26, uintptr(len(b)), uintptr(unsafe.Pointer(&b[0])))
}

type iFence struct{ unknown }

func (f *iFence) completedValue() uint64 { return uint64(f.call(8)) }

func (f *iFence) setEventOnCompletion(v uint64, ev windows.Handle) error {
	return f.hr(9, uintptr(v), uintptr(ev))
}

type iResource struct{ unknown }

// byteRange is D3D12_RANGE.
type byteRange struct {
	Begin uintptr
	End   uintptr
}

// mapMemory maps subresource 0. A nil read range means
// that the whole resource may be read.
func (r *iResource) mapMemory(read *byteRange) (p unsafe.Pointer, err error) {
	err = r.hr(8, 0, uintptr(unsafe.Pointer(read)), uintptr(unsafe.Pointer(&p)))
	return
}

func (r *iResource) unmap() { r.call(9, 0, 0) }

type iHeap struct{ unknown }

type iDescriptorHeap struct{ unknown }

// cpuStart returns the first CPU descriptor handle of h.
// The result is returned through a hidden pointer.
func (h *iDescriptorHeap) cpuStart() uintptr {
	var p uintptr
	h.call(9, uintptr(unsafe.Pointer(&p)))
	return p
}

type iRootSignature struct{ unknown }

type iBlob struct{ unknown }

func (b *iBlob) bytes() []byte {
	p := b.call(3)
	n := b.call(4)
	if p == 0 || n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), n)
}

// serializeRootSignature serializes desc. The error
// blob, if any, is returned as the error text.
func serializeRootSignature(desc *rootSignatureDesc) ([]byte, error) {
	var blob, errBlob *iBlob
	err := callProc(procSerializeRootSignature, uintptr(unsafe.Pointer(desc)), rootSignatureVersion1,
		uintptr(unsafe.Pointer(&blob)), uintptr(unsafe.Pointer(&errBlob)))
	if errBlob != nil {
		if err != nil {
			err = &serializeError{msg: string(errBlob.bytes()), err: err}
		}
		errBlob.release()
	}
	if err != nil {
		return nil, err
	}
	b := append([]byte(nil), blob.bytes()...)
	blob.release()
	return b, nil
}

type serializeError struct {
	msg string
	err error
}

func (e *serializeError) Error() string { return "d3d12: root signature: " + e.msg }
func (e *serializeError) Unwrap() error { return e.err }
