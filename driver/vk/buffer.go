// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/goki/vulkan"

	"github.com/gviegas/rhi/driver"
)

// buffer implements driver.Buffer.
type buffer struct {
	object
	meta driver.BufferMeta
	m    *memory
	buf  vk.Buffer
}

// NewBuffer creates a new buffer.
func (d *Device) NewBuffer(meta *driver.BufferMeta, name string) (driver.Buffer, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	b, err := d.newBuffer(meta)
	if err != nil {
		return nil, &driver.CreateError{Object: "buffer", Name: name, Err: err}
	}
	b.track(d, b, name)
	d.log.Debug("buffer created", "name", name, "size", meta.ByteSize, "heap", meta.Heap)
	if meta.InitData == nil {
		return b, nil
	}
	if meta.Heap.Visible() {
		err = b.Pack(meta.InitData, nil)
	} else {
		err = driver.PackNow(d, b, meta.InitData)
	}
	if err != nil {
		b.Destroy()
		return nil, &driver.CreateError{Object: "buffer", Name: name, Err: err}
	}
	return b, nil
}

// newBuffer creates the VkBuffer, allocates its memory
// and binds them. Nothing is left to release on failure.
func (d *Device) newBuffer(meta *driver.BufferMeta) (b *buffer, err error) {
	if err = meta.Validate(); err != nil {
		return
	}
	info := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(meta.ByteSize),
		Usage:       vk.BufferUsageFlags(convBufUsage(meta.Usage)),
		SharingMode: vk.SharingModeExclusive,
	}
	b = &buffer{meta: *meta}
	b.meta.InitData = nil
	if err = checkResult(vk.CreateBuffer(d.dev, &info, nil, &b.buf)); err != nil {
		return nil, err
	}
	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.dev, b.buf, &req)
	req.Deref()
	if b.m, err = d.newMemory(req, meta.Heap); err != nil {
		vk.DestroyBuffer(d.dev, b.buf, nil)
		return nil, err
	}
	if err = checkResult(vk.BindBufferMemory(d.dev, b.buf, b.m.mem, 0)); err != nil {
		vk.DestroyBuffer(d.dev, b.buf, nil)
		b.m.free()
		return nil, err
	}
	return b, nil
}

// Meta returns the buffer description.
func (b *buffer) Meta() driver.BufferMeta { return b.meta }

// Pack uploads data to the start of the buffer.
func (b *buffer) Pack(data []byte, cl driver.CmdList) error {
	if len(data) > b.meta.ByteSize {
		return &driver.RangeError{Op: "Pack", Index: len(data), Len: b.meta.ByteSize + 1}
	}
	if b.m.vis {
		if len(b.m.p) != 0 {
			copy(b.m.p, data)
			return nil
		}
		return driver.WithMapping(b, func(p []byte) error {
			copy(p, data)
			return nil
		})
	}
	if len(data) == 0 {
		return nil
	}
	stg := driver.UploadBuffer(len(data), 1, data)
	s, err := b.d.NewBuffer(&stg, b.name+" (staging)")
	if err != nil {
		return err
	}
	cl.CopyBuffer(b, 0, s, 0, int64(len(data)))
	cl.Retain(s)
	return nil
}

// CopyStart maps the buffer.
func (b *buffer) CopyStart() error { return b.m.mmap() }

// CopyData writes one element.
func (b *buffer) CopyData(index int, elem []byte) error {
	if len(b.m.p) == 0 {
		return driver.ErrNotMapped
	}
	off, err := b.meta.ElemRange(index, len(elem))
	if err != nil {
		return err
	}
	copy(b.m.p[off:], elem)
	return nil
}

// CopyEnd unmaps the buffer.
func (b *buffer) CopyEnd() { b.m.unmap() }

// Mapped returns the mapped memory.
func (b *buffer) Mapped() []byte {
	if len(b.m.p) == 0 {
		return nil
	}
	return b.m.p[:b.meta.ByteSize]
}

// CopyTotalData writes length elements from data.
func (b *buffer) CopyTotalData(data []byte, length, indexOffset int) error {
	off, n, err := b.meta.TotalRange(len(data), length, indexOffset)
	if err != nil {
		return err
	}
	return driver.WithMapping(b, func(p []byte) error {
		copy(p[off:off+n], data)
		return nil
	})
}

// Destroy destroys the buffer.
func (b *buffer) Destroy() {
	if b == nil || b.d == nil {
		return
	}
	b.untrack()
	vk.DestroyBuffer(b.d.dev, b.buf, nil)
	b.m.free()
	*b = buffer{}
}

// convBufUsage converts a driver.Usage to buffer usage
// flags. Copies are always allowed.
func convBufUsage(usg driver.Usage) vk.BufferUsageFlagBits {
	flags := vk.BufferUsageTransferSrcBit | vk.BufferUsageTransferDstBit
	if usg&driver.UShaderResource != 0 {
		flags |= vk.BufferUsageStorageBufferBit
	}
	if usg&driver.UUnorderedAccess != 0 {
		flags |= vk.BufferUsageStorageBufferBit
	}
	if usg&driver.UConstantBuffer != 0 {
		flags |= vk.BufferUsageUniformBufferBit
	}
	if usg&driver.UVertexBuffer != 0 {
		flags |= vk.BufferUsageVertexBufferBit
	}
	if usg&driver.UIndexBuffer != 0 {
		flags |= vk.BufferUsageIndexBufferBit
	}
	return flags
}
