// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build amd64 || arm64

package d3d12

import (
	"errors"

	"github.com/gviegas/rhi/driver"
)

// cmdList implements driver.CmdList.
// Each command list has its own allocator, so that lists
// can be recorded concurrently.
type cmdList struct {
	object
	alloc     *iCommandAllocator
	cl        *iGraphicsCommandList
	retained  []driver.Destroyer
	recording bool
	// First error found during recording.
	err error
}

// NewCmdList creates a new command list.
// The native list is created in the recording state and
// closed immediately, so that Begin can reset it.
func (d *Device) NewCmdList() (driver.CmdList, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	alloc, err := d.dev.createCommandAllocator(commandListDirect)
	if err != nil {
		return nil, &driver.CreateError{Object: "command list", Err: d.fatal(err)}
	}
	cl, err := d.dev.createCommandList(commandListDirect, alloc)
	if err != nil {
		alloc.release()
		return nil, &driver.CreateError{Object: "command list", Err: d.fatal(err)}
	}
	if err := cl.close(); err != nil {
		cl.release()
		alloc.release()
		return nil, &driver.CreateError{Object: "command list", Err: d.fatal(err)}
	}
	x := &cmdList{alloc: alloc, cl: cl}
	x.track(d, x, &cl.unknown, "")
	return x, nil
}

// Begin prepares the command list for recording.
// It must not be called while the GPU is still executing
// the list.
func (cl *cmdList) Begin() error {
	if cl.recording {
		return errors.New("d3d12: command list already recording")
	}
	if err := cl.alloc.reset(); err != nil {
		return cl.d.fatal(err)
	}
	if err := cl.cl.reset(cl.alloc); err != nil {
		return cl.d.fatal(err)
	}
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
// Buffers are promoted from the common state implicitly,
// so no barriers are recorded.
// Invalid ranges are reported by End.
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
	if size == 0 {
		return
	}
	cl.cl.copyBufferRegion(d.res, uint64(dstOff), s.res, uint64(srcOff), uint64(size))
}

// CopyBufferToTexture records a buffer to texture copy.
// Since src holds tightly packed data, rows must already
// satisfy the pitch alignment of placed footprints; other
// textures are filled with Texture.Pack.
func (cl *cmdList) CopyBufferToTexture(dst driver.Texture, src driver.Buffer, srcOff int64) {
	t := dst.(*texture)
	s := src.(*buffer)
	switch {
	case t.meta.Sample.Count > 1:
		cl.setErr(driver.Unsupported("multisample copy", t.meta.Sample.Count))
		return
	case t.meta.Format.HasStencil():
		cl.setErr(driver.Unsupported("depth/stencil copy", t.meta.Format))
		return
	}
	if n := int64(t.meta.Mip0Size()); srcOff < 0 || srcOff+n > int64(s.meta.ByteSize) {
		cl.setErr(&driver.RangeError{Op: "CopyBufferToTexture src", Index: int(srcOff + n), Len: s.meta.ByteSize + 1})
		return
	}
	if !isTight(&t.meta, srcOff) {
		cl.setErr(driver.Unsupported("unaligned texture copy", t.meta.Width*t.meta.Format.Size()))
		return
	}
	row := t.meta.Width * t.meta.Format.Size()
	layer := row * t.meta.Height * t.meta.Depth()
	fps := make([]footprint, t.meta.LayerCount())
	for i := range fps {
		fps[i] = footprint{
			Offset:   uint64(srcOff) + uint64(i*layer),
			Format:   t.f,
			Width:    uint32(t.meta.Width),
			Height:   uint32(t.meta.Height),
			Depth:    uint32(t.meta.Depth()),
			RowPitch: uint32(row),
		}
	}
	cl.copyFootprints(t, s, fps)
}

// copyFootprints records one copy per layer, from the
// placed footprints in src to mip level 0 of t.
// The texture is transitioned to the copy destination
// state and then to a shader resource state if it can be
// sampled.
func (cl *cmdList) copyFootprints(t *texture, src *buffer, fps []footprint) {
	cl.transition(t, stateCopyDest)
	for i, fp := range fps {
		d := textureCopyLocation{
			Resource:  t.res,
			Type:      copySubresourceIndex,
			Footprint: footprint{Offset: uint64(i * t.meta.MipLevels)},
		}
		s := textureCopyLocation{
			Resource:  src.res,
			Type:      copyPlacedFootprint,
			Footprint: fp,
		}
		cl.cl.copyTextureRegion(&d, &s)
	}
	if t.meta.Usage&driver.UShaderResource != 0 {
		cl.transition(t, stateAllShaderResource)
	}
}

// transition records a transition of every subresource
// of t.
func (cl *cmdList) transition(t *texture, state resourceStates) {
	if t.state == state {
		return
	}
	cl.cl.resourceBarrier([]resourceBarrier{{
		Resource:    t.res,
		Subresource: allSubresources,
		StateBefore: t.state,
		StateAfter:  state,
	}})
	t.state = state
}

// Retain keeps d alive until the next Flush.
func (cl *cmdList) Retain(d driver.Destroyer) { cl.retained = append(cl.retained, d) }

// End ends recording.
// It returns the first error found while recording.
func (cl *cmdList) End() error {
	if !cl.recording {
		return errors.New("d3d12: command list not recording")
	}
	cl.recording = false
	if err := cl.cl.close(); err != nil {
		cl.setErr(cl.d.fatal(err))
	}
	return cl.err
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
	if cl.recording {
		cl.cl.close()
	}
	cl.cl.release()
	cl.alloc.release()
	*cl = cmdList{}
}

// Flush executes the command lists in a single batch and
// waits for their completion.
// Retained objects are destroyed regardless of errors.
func (d *Device) Flush(cl ...driver.CmdList) (err error) {
	if err = d.check(); err != nil {
		return
	}
	cls := make([]*iGraphicsCommandList, 0, len(cl))
	for _, x := range cl {
		x := x.(*cmdList)
		if x.recording {
			return errors.New("d3d12: command list not ended")
		}
		if x.err == nil {
			cls = append(cls, x.cl)
		} else if err == nil {
			err = x.err
		}
	}
	defer func() {
		for _, x := range cl {
			x.(*cmdList).release()
		}
	}()
	if err != nil || len(cls) == 0 {
		return
	}
	d.qmu.Lock()
	defer d.qmu.Unlock()
	d.que.executeCommandLists(cls)
	if err = d.wait(); err != nil {
		d.log.Error("queue execution failed", "err", err)
	}
	return
}
