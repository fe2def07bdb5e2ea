// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"errors"

	"github.com/gviegas/rhi/driver"
)

// copyCmd is a recorded copy command.
type copyCmd func() error

// cmdList implements driver.CmdList.
type cmdList struct {
	object
	cmds      []copyCmd
	retained  []driver.Destroyer
	recording bool
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
func (cl *cmdList) Begin() error {
	if err := cl.live(); err != nil {
		return err
	}
	if cl.recording {
		return errors.New("soft: command list already recording")
	}
	cl.cmds = cl.cmds[:0]
	cl.recording = true
	return nil
}

// CopyBuffer records a buffer copy.
func (cl *cmdList) CopyBuffer(dst driver.Buffer, dstOff int64, src driver.Buffer, srcOff, size int64) {
	d := dst.(*buffer)
	s := src.(*buffer)
	cl.cmds = append(cl.cmds, func() error {
		switch {
		case d.d == nil || s.d == nil:
			return driver.ErrDestroyed
		case dstOff < 0 || size < 0 || dstOff+size > int64(len(d.data)):
			return &driver.RangeError{Op: "CopyBuffer dst", Index: int(dstOff + size), Len: len(d.data) + 1}
		case srcOff < 0 || srcOff+size > int64(len(s.data)):
			return &driver.RangeError{Op: "CopyBuffer src", Index: int(srcOff + size), Len: len(s.data) + 1}
		}
		copy(d.data[dstOff:dstOff+size], s.data[srcOff:srcOff+size])
		return nil
	})
}

// CopyBufferToTexture records a buffer to texture copy.
func (cl *cmdList) CopyBufferToTexture(dst driver.Texture, src driver.Buffer, srcOff int64) {
	t := dst.(*texture)
	s := src.(*buffer)
	cl.cmds = append(cl.cmds, func() error {
		if t.d == nil || s.d == nil {
			return driver.ErrDestroyed
		}
		n := int64(t.meta.Mip0Size())
		if srcOff < 0 || srcOff+n > int64(len(s.data)) {
			return &driver.RangeError{Op: "CopyBufferToTexture src", Index: int(srcOff + n), Len: len(s.data) + 1}
		}
		t.copyFrom(s.data[srcOff : srcOff+n])
		return nil
	})
}

// Retain keeps d alive until the next Flush.
func (cl *cmdList) Retain(d driver.Destroyer) { cl.retained = append(cl.retained, d) }

// End ends recording.
func (cl *cmdList) End() error {
	if err := cl.live(); err != nil {
		return err
	}
	if !cl.recording {
		return errors.New("soft: command list not recording")
	}
	cl.recording = false
	return nil
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
	*cl = cmdList{}
}

// Flush executes the command lists in order.
// Execution stops at the first command that fails, but
// retained objects are destroyed regardless.
func (d *Device) Flush(cl ...driver.CmdList) (err error) {
	if err = d.check(); err != nil {
		return
	}
	for _, x := range cl {
		x := x.(*cmdList)
		if err = x.live(); err != nil {
			return
		}
		if x.recording {
			return errors.New("soft: command list not ended")
		}
	}
	for _, x := range cl {
		x := x.(*cmdList)
		for _, c := range x.cmds {
			if err != nil {
				break
			}
			err = c()
		}
		x.cmds = x.cmds[:0]
		x.release()
	}
	return
}
