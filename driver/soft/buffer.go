// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"github.com/gogpu/gputypes"

	"github.com/gviegas/rhi/driver"
)

// buffer implements driver.Buffer.
type buffer struct {
	object
	meta   driver.BufferMeta
	usage  gputypes.BufferUsage
	data   []byte
	mapped bool
}

// NewBuffer creates a new buffer.
func (d *Device) NewBuffer(meta *driver.BufferMeta, name string) (driver.Buffer, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if err := meta.Validate(); err != nil {
		return nil, &driver.CreateError{Object: "buffer", Name: name, Err: err}
	}
	b := &buffer{
		meta:  *meta,
		usage: convBufUsage(meta.Usage, meta.Heap),
		data:  make([]byte, meta.ByteSize),
	}
	b.meta.InitData = nil
	b.track(d, b, name)
	d.log.Debug("buffer created", "name", name, "size", meta.ByteSize, "heap", meta.Heap)
	if meta.InitData == nil {
		return b, nil
	}
	var err error
	if meta.Heap.Visible() {
		copy(b.data, meta.InitData)
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
func (b *buffer) Pack(data []byte, cl driver.CmdList) error {
	if err := b.live(); err != nil {
		return err
	}
	if len(data) > b.meta.ByteSize {
		return &driver.RangeError{Op: "Pack", Index: len(data), Len: b.meta.ByteSize + 1}
	}
	if b.meta.Heap.Visible() {
		copy(b.data, data)
		return nil
	}
	if len(data) == 0 {
		return nil
	}
	stg, err := b.d.NewBuffer(&driver.BufferMeta{
		Stride:   len(data),
		Count:    1,
		ByteSize: len(data),
		Usage:    driver.UCopySrc,
		State:    driver.StGenericRead,
		Heap:     driver.HUpload,
		Type:     driver.BufUpload,
	}, b.name+" (staging)")
	if err != nil {
		return err
	}
	copy(stg.(*buffer).data, data)
	cl.CopyBuffer(b, 0, stg, 0, int64(len(data)))
	cl.Retain(stg)
	return nil
}

// CopyStart maps the buffer.
func (b *buffer) CopyStart() error {
	if err := b.live(); err != nil {
		return err
	}
	if !b.meta.Heap.Visible() {
		return driver.ErrNotMappable
	}
	b.mapped = true
	return nil
}

// CopyData writes one element.
func (b *buffer) CopyData(index int, elem []byte) error {
	if err := b.live(); err != nil {
		return err
	}
	if !b.mapped {
		return driver.ErrNotMapped
	}
	off, err := b.meta.ElemRange(index, len(elem))
	if err != nil {
		return err
	}
	copy(b.data[off:], elem)
	return nil
}

// CopyEnd unmaps the buffer.
func (b *buffer) CopyEnd() { b.mapped = false }

// Mapped returns the mapped memory.
func (b *buffer) Mapped() []byte {
	if !b.mapped {
		return nil
	}
	return b.data
}

// CopyTotalData writes length elements from data.
func (b *buffer) CopyTotalData(data []byte, length, indexOffset int) error {
	if err := b.live(); err != nil {
		return err
	}
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
	*b = buffer{}
}
