// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wgpu

import (
	"errors"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gviegas/rhi/driver"
)

// cmdList implements driver.CmdList.
// A command encoder is created by Begin and finished by
// End; the resulting command buffer is consumed by Flush.
type cmdList struct {
	object
	enc       *wgpu.CommandEncoder
	cb        *wgpu.CommandBuffer
	retained  []driver.Destroyer
	recording bool
	// First error found during recording.
	err error
}

// NewCmdList creates a new command list.
func (d *Device) NewCmdList() (driver.CmdList, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	cl := &cmdList{}
	cl.track(d, cl, "")
	return cl, nil
}

// Begin prepares the command list for recording.
// A command buffer that was ended but not flushed is
// discarded.
func (cl *cmdList) Begin() error {
	if cl.recording {
		return errors.New("wgpu: command list already recording")
	}
	cl.dropBuffer()
	enc, err := cl.d.dev.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	cl.enc = enc
	cl.recording = true
	cl.err = nil
	return nil
}

// setErr records err if no error was recorded yet.
func (cl *cmdList) setErr(err error) {
	if cl.err == nil {
		cl.err = err
	}
}

// CopyBuffer records a buffer copy.
// Offsets and size must be multiples of 4.
// Invalid copies are reported by End.
func (cl *cmdList) CopyBuffer(dst driver.Buffer, dstOff int64, src driver.Buffer, srcOff, size int64) {
	d := dst.(*buffer)
	s := src.(*buffer)
	if n := int64(d.meta.ByteSize); dstOff < 0 || size < 0 || dstOff+size > n {
		cl.setErr(&driver.RangeError{Op: "CopyBuffer dst", Index: int(dstOff + size), Len: int(n) + 1})
		return
	}
	if n := int64(s.meta.ByteSize); srcOff < 0 || srcOff+size > n {
		cl.setErr(&driver.RangeError{Op: "CopyBuffer src", Index: int(srcOff + size), Len: int(n) + 1})
		return
	}
	if (dstOff|srcOff|size)%copyAlign != 0 {
		cl.setErr(driver.Unsupported("unaligned buffer copy", int(dstOff|srcOff|size)))
		return
	}
	if size == 0 {
		return
	}
	cl.copyBuffer(d, dstOff, s, srcOff, size)
}

// copyBuffer records a buffer copy with no checks.
func (cl *cmdList) copyBuffer(dst *buffer, dstOff int64, src *buffer, srcOff, size int64) {
	cl.enc.CopyBufferToBuffer(src.buf, uint64(srcOff), dst.buf, uint64(dstOff), uint64(size))
}

// CopyBufferToTexture records a buffer to texture copy.
// Since src holds tightly packed data, the row size of
// dst must be a multiple of 256 bytes; other textures
// are filled with Texture.Pack.
func (cl *cmdList) CopyBufferToTexture(dst driver.Texture, src driver.Buffer, srcOff int64) {
	t := dst.(*texture)
	s := src.(*buffer)
	if err := t.checkCopy(); err != nil {
		cl.setErr(err)
		return
	}
	if n := int64(t.meta.Mip0Size()); srcOff < 0 || srcOff+n > int64(s.meta.ByteSize) {
		cl.setErr(&driver.RangeError{Op: "CopyBufferToTexture src", Index: int(srcOff + n), Len: s.meta.ByteSize + 1})
		return
	}
	row := t.meta.Width * t.meta.Format.Size()
	if row%rowAlign != 0 || srcOff%int64(t.meta.Format.Size()) != 0 {
		cl.setErr(driver.Unsupported("unaligned texture copy", row))
		return
	}
	cl.copyToTexture(t, s, srcOff, row)
}

// copyToTexture records a copy of mip level 0 of every
// layer of t, from rows that are pitch bytes apart in
// src.
func (cl *cmdList) copyToTexture(t *texture, src *buffer, srcOff int64, pitch int) {
	cl.enc.CopyBufferToTexture(
		&wgpu.ImageCopyBuffer{
			Layout: wgpu.TextureDataLayout{
				Offset:       uint64(srcOff),
				BytesPerRow:  uint32(pitch),
				RowsPerImage: uint32(t.meta.Height),
			},
			Buffer: src.buf,
		},
		&wgpu.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.Extent3D{
			Width:              uint32(t.meta.Width),
			Height:             uint32(t.meta.Height),
			DepthOrArrayLayers: uint32(t.meta.DepthOrArraySize),
		},
	)
}

// Retain keeps d alive until the next Flush.
func (cl *cmdList) Retain(d driver.Destroyer) { cl.retained = append(cl.retained, d) }

// End ends recording.
// It returns the first error found while recording.
func (cl *cmdList) End() error {
	if !cl.recording {
		return errors.New("wgpu: command list not recording")
	}
	cl.recording = false
	cb, err := cl.enc.Finish(nil)
	cl.enc.Release()
	cl.enc = nil
	if err != nil {
		cl.setErr(err)
	} else {
		cl.cb = cb
	}
	return cl.err
}

// dropBuffer releases a command buffer that was not
// submitted.
func (cl *cmdList) dropBuffer() {
	if cl.cb != nil {
		cl.cb.Release()
		cl.cb = nil
	}
}

// release destroys the retained objects.
func (cl *cmdList) release() {
	for _, d := range cl.retained {
		d.Destroy()
	}
	clear(cl.retained)
	cl.retained = cl.retained[:0]
}

// Destroy destroys the command list, including objects
// that it still retains.
func (cl *cmdList) Destroy() {
	if cl == nil || cl.d == nil {
		return
	}
	cl.release()
	cl.untrack()
	if cl.enc != nil {
		cl.enc.Release()
	}
	cl.dropBuffer()
	*cl = cmdList{}
}

// Flush submits the command lists in order and waits for
// their completion.
// Lists that failed recording are not submitted, but
// retained objects are destroyed regardless.
func (d *Device) Flush(cl ...driver.CmdList) (err error) {
	if err = d.check(); err != nil {
		return
	}
	cbs := make([]*wgpu.CommandBuffer, 0, len(cl))
	for _, x := range cl {
		x := x.(*cmdList)
		if x.recording {
			return errors.New("wgpu: command list not ended")
		}
		switch {
		case x.err != nil:
			if err == nil {
				err = x.err
			}
		case x.cb != nil:
			cbs = append(cbs, x.cb)
		}
	}
	defer func() {
		for _, x := range cl {
			x := x.(*cmdList)
			x.dropBuffer()
			x.release()
		}
	}()
	if err != nil || len(cbs) == 0 {
		return
	}
	d.qmu.Lock()
	defer d.qmu.Unlock()
	for _, cb := range cbs {
		d.que.Submit(cb)
	}
	d.dev.Poll(true, nil)
	return
}
