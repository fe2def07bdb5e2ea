// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wgpu

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gviegas/rhi/driver"
)

// copyAlign is the alignment of offsets and sizes in
// buffer copies and Queue.WriteBuffer.
const copyAlign = 4

// buffer implements driver.Buffer.
// Upload buffers keep a host copy of their contents,
// which CopyEnd writes to the GPU buffer.
type buffer struct {
	object
	meta   driver.BufferMeta
	buf    *wgpu.Buffer
	shadow []byte
	mapped bool
}

// NewBuffer creates a new buffer.
// The native size is rounded up to copyAlign.
func (d *Device) NewBuffer(meta *driver.BufferMeta, name string) (driver.Buffer, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if err := meta.Validate(); err != nil {
		return nil, &driver.CreateError{Object: "buffer", Name: name, Err: err}
	}
	usage, err := convBufUsage(meta.Usage, meta.Heap)
	if err != nil {
		return nil, &driver.CreateError{Object: "buffer", Name: name, Err: err}
	}
	size := driver.AlignUp(meta.ByteSize, copyAlign)
	buf, err := d.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: name,
		Size:  uint64(size),
		Usage: usage,
	})
	if err != nil {
		return nil, &driver.CreateError{Object: "buffer", Name: name, Err: err}
	}
	b := &buffer{meta: *meta, buf: buf}
	b.meta.InitData = nil
	if meta.Heap == driver.HUpload {
		b.shadow = make([]byte, size)
	}
	b.track(d, b, name)
	d.log.Debug("buffer created", "name", name, "size", meta.ByteSize, "heap", meta.Heap)
	if meta.InitData == nil {
		return b, nil
	}
	if meta.Heap == driver.HUpload {
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

// Meta returns the buffer description.
func (b *buffer) Meta() driver.BufferMeta { return b.meta }

// Pack uploads data to the start of the buffer.
// Copies between buffers move whole words, so the length
// of data must be a multiple of 4 unless it fills the
// buffer.
func (b *buffer) Pack(data []byte, cl driver.CmdList) error {
	if len(data) > b.meta.ByteSize {
		return &driver.RangeError{Op: "Pack", Index: len(data), Len: b.meta.ByteSize + 1}
	}
	if b.meta.Heap == driver.HUpload {
		return driver.WithMapping(b, func(p []byte) error {
			copy(p, data)
			return nil
		})
	}
	if len(data) == 0 {
		return nil
	}
	if len(data)%copyAlign != 0 && len(data) != b.meta.ByteSize {
		return driver.Unsupported("unaligned pack", len(data))
	}
	meta := driver.UploadBuffer(len(data), 1, data)
	stg, err := b.d.NewBuffer(&meta, b.name+" (staging)")
	if err != nil {
		return err
	}
	cl.(*cmdList).copyBuffer(b, 0, stg.(*buffer), 0, int64(driver.AlignUp(len(data), copyAlign)))
	cl.Retain(stg)
	return nil
}

// CopyStart maps the buffer.
func (b *buffer) CopyStart() error {
	if b.shadow == nil {
		return driver.ErrNotMappable
	}
	b.mapped = true
	return nil
}

// CopyData writes one element.
func (b *buffer) CopyData(index int, elem []byte) error {
	if !b.mapped {
		return driver.ErrNotMapped
	}
	off, err := b.meta.ElemRange(index, len(elem))
	if err != nil {
		return err
	}
	copy(b.shadow[off:], elem)
	return nil
}

// CopyEnd unmaps the buffer, writing the host copy to
// the GPU buffer.
// The write is ordered before any command list submitted
// afterwards.
func (b *buffer) CopyEnd() {
	if !b.mapped {
		return
	}
	b.mapped = false
	b.d.que.WriteBuffer(b.buf, 0, b.shadow)
}

// Mapped returns the mapped memory.
func (b *buffer) Mapped() []byte {
	if !b.mapped {
		return nil
	}
	return b.shadow[:b.meta.ByteSize]
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
	b.mapped = false
	b.buf.Release()
	*b = buffer{}
}
