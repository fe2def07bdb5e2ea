// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/gviegas/rhi/driver"
)

func TestBufferPack(t *testing.T) {
	meta := driver.DefaultBuffer(64, 10, driver.UShaderResource, nil)
	if meta.ByteSize != 640 {
		t.Fatalf("DefaultBuffer(64, 10, ...).ByteSize\nhave %d\nwant 640", meta.ByteSize)
	}
	buf, err := tDev.NewBuffer(&meta, "default")
	if err != nil {
		t.Fatalf("tDev.NewBuffer failed: %v", err)
	}
	defer buf.Destroy()
	rmeta := driver.ReadbackBuffer(64, 10)
	rbuf, err := tDev.NewBuffer(&rmeta, "readback")
	if err != nil {
		t.Fatalf("tDev.NewBuffer failed: %v", err)
	}
	defer rbuf.Destroy()

	data := pattern(640)
	n := tDev.objs.Len()
	flush(t, func(cl driver.CmdList) error {
		k := tDev.objs.Len()
		if err := buf.Pack(data, cl); err != nil {
			return err
		}
		// The staging buffer lives until Flush.
		if m := tDev.objs.Len(); m != k+1 {
			t.Errorf("buf.Pack: live objects\nhave %d\nwant %d", m, k+1)
		}
		return nil
	})
	if m := tDev.objs.Len(); m != n {
		t.Fatalf("tDev.Flush: live objects\nhave %d\nwant %d", m, n)
	}
	flush(t, func(cl driver.CmdList) error {
		cl.CopyBuffer(rbuf, 0, buf, 0, 640)
		return nil
	})
	err = driver.WithMapping(rbuf, func(p []byte) error {
		if !bytes.Equal(p, data) {
			t.Errorf("rbuf.Mapped()\nhave %v\nwant %v", p[:16], data[:16])
		}
		return nil
	})
	if err != nil {
		t.Fatalf("driver.WithMapping failed: %v", err)
	}
	if p := rbuf.Mapped(); p != nil {
		t.Fatalf("rbuf.Mapped() after CopyEnd\nhave %v\nwant nil", p)
	}
}

func TestBufferInitData(t *testing.T) {
	data := pattern(256)
	for _, meta := range [...]driver.BufferMeta{
		driver.UploadBuffer(16, 16, data),
		driver.DefaultBuffer(16, 16, driver.UVertexBuffer, data),
		driver.VertexBuffer(32, 8, driver.HDefault, data),
		driver.IndexBuffer(4, 64, driver.HUpload, data),
	} {
		buf, err := tDev.NewBuffer(&meta, "init")
		if err != nil {
			t.Fatalf("tDev.NewBuffer failed: %v", err)
		}
		if p := buf.(*buffer).data; !bytes.Equal(p, data) {
			t.Errorf("tDev.NewBuffer(%+v): data\nhave %v\nwant %v", meta.Heap, p[:8], data[:8])
		}
		if buf.Meta().InitData != nil {
			t.Errorf("buf.Meta().InitData\nhave %v\nwant nil", buf.Meta().InitData[:8])
		}
		buf.Destroy()
	}
}

func TestCopyTotalData(t *testing.T) {
	meta := driver.UploadBuffer(16, 4, nil)
	buf, err := tDev.NewBuffer(&meta, "upload")
	if err != nil {
		t.Fatalf("tDev.NewBuffer failed: %v", err)
	}
	defer buf.Destroy()
	data := pattern(64)

	err = buf.CopyTotalData(data, 2, 3)
	if !driver.IsRange(err) {
		t.Fatalf("buf.CopyTotalData(data, 2, 3)\nhave %v\nwant *driver.RangeError", err)
	}
	if p := buf.(*buffer).data; !bytes.Equal(p, make([]byte, 64)) {
		t.Fatalf("buf.CopyTotalData(data, 2, 3): data\nhave %v\nwant zeroes", p)
	}

	if err := buf.CopyTotalData(data, 2, 2); err != nil {
		t.Fatalf("buf.CopyTotalData(data, 2, 2)\nhave %v\nwant nil", err)
	}
	p := buf.(*buffer).data
	if !bytes.Equal(p[32:], data[:32]) || !bytes.Equal(p[:32], make([]byte, 32)) {
		t.Fatalf("buf.CopyTotalData(data, 2, 2): data\nhave %v\nwant %v", p[32:], data[:32])
	}
	if buf.Mapped() != nil {
		t.Fatal("buf.CopyTotalData: buffer left mapped")
	}
}

func TestCopyTotalDataMapped(t *testing.T) {
	meta := driver.UploadBuffer(16, 4, nil)
	buf, err := tDev.NewBuffer(&meta, "upload")
	if err != nil {
		t.Fatalf("tDev.NewBuffer failed: %v", err)
	}
	defer buf.Destroy()
	data := pattern(64)

	if err := buf.CopyStart(); err != nil {
		t.Fatalf("buf.CopyStart failed: %v", err)
	}
	if err := buf.CopyTotalData(data, 1, 0); err != nil {
		t.Fatalf("buf.CopyTotalData(data, 1, 0)\nhave %v\nwant nil", err)
	}
	if buf.Mapped() == nil {
		t.Fatal("buf.CopyTotalData: caller's mapping was ended")
	}
	if err := buf.CopyData(1, data[16:32]); err != nil {
		t.Fatalf("buf.CopyData(1, ...) after CopyTotalData\nhave %v\nwant nil", err)
	}
	for _, x := range [...]struct{ length, offset int }{{1, math.MaxInt}, {math.MaxInt, 1}} {
		if err := buf.CopyTotalData(data, x.length, x.offset); !driver.IsRange(err) {
			t.Fatalf("buf.CopyTotalData(data, %d, %d)\nhave %v\nwant *driver.RangeError", x.length, x.offset, err)
		}
	}
	buf.CopyEnd()
	if p := buf.(*buffer).data; !bytes.Equal(p[:32], data[:32]) {
		t.Fatalf("buf.CopyTotalData: data\nhave %v\nwant %v", p[:32], data[:32])
	}
}

func TestCopyData(t *testing.T) {
	meta := driver.ConstantBuffer(48, 3, nil)
	buf, err := tDev.NewBuffer(&meta, "constant")
	if err != nil {
		t.Fatalf("tDev.NewBuffer failed: %v", err)
	}
	defer buf.Destroy()
	elem := pattern(48)

	if err := buf.CopyData(0, elem); !errors.Is(err, driver.ErrNotMapped) {
		t.Fatalf("buf.CopyData before CopyStart\nhave %v\nwant %v", err, driver.ErrNotMapped)
	}
	if err := buf.CopyStart(); err != nil {
		t.Fatalf("buf.CopyStart failed: %v", err)
	}
	for _, x := range [...]struct {
		index int
		elem  []byte
		err   bool
	}{
		{0, elem, false},
		{2, elem, false},
		{3, elem, true},
		{-1, elem, true},
		{1, make([]byte, 257), true},
	} {
		err := buf.CopyData(x.index, x.elem)
		if (err != nil) != x.err {
			t.Errorf("buf.CopyData(%d, [%d]byte)\nhave %v\nwant error %t", x.index, len(x.elem), err, x.err)
		}
	}
	p := buf.Mapped()
	if !bytes.Equal(p[512:560], elem) || !bytes.Equal(p[:48], elem) {
		t.Errorf("buf.Mapped(): elements not written at index*Stride")
	}
	buf.CopyEnd()
	buf.CopyEnd()
}

func TestNotMappable(t *testing.T) {
	meta := driver.DefaultBuffer(16, 4, driver.UShaderResource, nil)
	buf, err := tDev.NewBuffer(&meta, "default")
	if err != nil {
		t.Fatalf("tDev.NewBuffer failed: %v", err)
	}
	defer buf.Destroy()
	if err := buf.CopyStart(); !errors.Is(err, driver.ErrNotMappable) {
		t.Errorf("buf.CopyStart\nhave %v\nwant %v", err, driver.ErrNotMappable)
	}
	if err := buf.CopyTotalData(pattern(16), 1, 0); !errors.Is(err, driver.ErrNotMappable) {
		t.Errorf("buf.CopyTotalData\nhave %v\nwant %v", err, driver.ErrNotMappable)
	}
	called := false
	err = driver.WithMapping(buf, func([]byte) error { called = true; return nil })
	if !errors.Is(err, driver.ErrNotMappable) || called {
		t.Errorf("driver.WithMapping\nhave %v, %t\nwant %v, false", err, called, driver.ErrNotMappable)
	}
}

func TestNewBufferInvalid(t *testing.T) {
	for _, meta := range [...]driver.BufferMeta{
		{},
		{Stride: 4, Count: 4, ByteSize: 15},
		{Stride: 4, Count: 1, ByteSize: 4, InitData: make([]byte, 5)},
	} {
		buf, err := tDev.NewBuffer(&meta, "invalid")
		var cerr *driver.CreateError
		if buf != nil || !errors.As(err, &cerr) || !driver.IsRange(err) {
			t.Errorf("tDev.NewBuffer(%+v)\nhave %v, %v\nwant nil, *driver.CreateError", meta, buf, err)
		}
	}
}
