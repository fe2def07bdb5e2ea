// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"errors"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/gviegas/rhi/driver"
)

// memory represents a device memory allocation.
type memory struct {
	d    *Device
	size int64
	vis  bool
	p    []byte
	mem  vk.DeviceMemory
	typ  int
	heap int
}

// memoryProps returns the memory properties for heap.
// want is the preferred set and need is the fallback
// used when no memory type has every bit of want.
func memoryProps(heap driver.HeapType) (want, need vk.MemoryPropertyFlagBits, err error) {
	switch heap {
	case driver.HDefault:
		// Device-local memory is desired but not required.
		return vk.MemoryPropertyDeviceLocalBit, 0, nil
	case driver.HUpload:
		need = vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit
		return need, need, nil
	case driver.HReadback:
		need = vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit
		return need | vk.MemoryPropertyHostCachedBit, need, nil
	}
	return 0, 0, driver.Unsupported("heap", heap)
}

// selectMemory selects a suitable memory type from mp.
// It returns the index of the selected memory, or -1 if
// none suffices.
func selectMemory(mp *vk.PhysicalDeviceMemoryProperties, typeBits uint32, prop vk.MemoryPropertyFlagBits) int {
	for i := range int(mp.MemoryTypeCount) {
		if typeBits&(1<<i) != 0 {
			flags := vk.MemoryPropertyFlagBits(mp.MemoryTypes[i].PropertyFlags)
			if flags&prop == prop {
				return i
			}
		}
	}
	return -1
}

// newMemory creates a new memory allocation.
func (d *Device) newMemory(req vk.MemoryRequirements, heap driver.HeapType) (*memory, error) {
	want, need, err := memoryProps(heap)
	if err != nil {
		return nil, err
	}
	mp := &d.adp.mprop
	typ := selectMemory(mp, req.MemoryTypeBits, want)
	if typ == -1 {
		typ = selectMemory(mp, req.MemoryTypeBits, need)
	}
	if typ == -1 {
		return nil, errors.New("vk: no suitable memory type found")
	}
	info := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: uint32(typ),
	}
	var mem vk.DeviceMemory
	if err := checkResult(vk.AllocateMemory(d.dev, &info, nil, &mem)); err != nil {
		return nil, err
	}
	h := int(mp.MemoryTypes[typ].HeapIndex)
	d.mused[h].Add(int64(req.Size))
	return &memory{
		d:    d,
		size: int64(req.Size),
		vis:  heap.Visible(),
		mem:  mem,
		typ:  typ,
		heap: h,
	}, nil
}

// mmap maps the memory for host access.
// The memory must be host visible and must have been
// bound to a resource.
func (m *memory) mmap() error {
	if !m.vis {
		return driver.ErrNotMappable
	}
	if len(m.p) == 0 {
		var p unsafe.Pointer
		if err := checkResult(vk.MapMemory(m.d.dev, m.mem, 0, vk.DeviceSize(m.size), 0, &p)); err != nil {
			return err
		}
		m.p = unsafe.Slice((*byte)(p), m.size)
	}
	return nil
}

// unmap unmaps the memory.
func (m *memory) unmap() {
	if len(m.p) != 0 {
		vk.UnmapMemory(m.d.dev, m.mem)
		m.p = nil
	}
}

// free deallocates and invalidates the memory.
func (m *memory) free() {
	if m == nil {
		return
	}
	if m.d != nil {
		m.unmap()
		vk.FreeMemory(m.d.dev, m.mem, nil)
		m.d.mused[m.heap].Add(-m.size)
	}
	*m = memory{}
}
