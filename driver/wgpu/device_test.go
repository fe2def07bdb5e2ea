// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package wgpu

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gviegas/rhi/driver"
)

func TestRegistered(t *testing.T) {
	for _, drv := range driver.Drivers() {
		if drv.Name() == driverName {
			if _, ok := drv.(*Driver); !ok {
				t.Errorf("driver.Drivers: %q\nhave %T\nwant *Driver", driverName, drv)
			}
			return
		}
	}
	t.Errorf("driver.Drivers\nhave no %q\nwant registered", driverName)
}

func TestAdapter(t *testing.T) {
	needDev(t)
	a := tDev.Adapter()
	if _, err := a.CreateDevice(); !errors.Is(err, driver.ErrDeviceCreated) {
		t.Errorf("a.CreateDevice (second call)\nhave %v\nwant %v", err, driver.ErrDeviceCreated)
	}
	if f := a.Info().Features; !f.Has(coreFeatures) || f.Has(driver.FeatWireFrame) {
		t.Errorf("a.Info().Features\nhave %#x\nwant %#x", f, coreFeatures)
	}
	if _, err := a.PresentSupport(0, 1); !driver.IsRange(err) {
		t.Errorf("a.PresentSupport(0, 1)\nhave %v\nwant *driver.RangeError", err)
	}
	if n := len(a.QueueFamilies()); n != 1 {
		t.Errorf("len(a.QueueFamilies())\nhave %d\nwant 1", n)
	}
	if lim := tDev.Limits(); lim.MaxTexture2D < 8192 || lim.MaxColorTargets != maxColorTargets {
		t.Errorf("tDev.Limits()\nhave %+v\nwant WebGPU defaults", lim)
	}
}

func TestBufferPack(t *testing.T) {
	needDev(t)
	meta := driver.DefaultBuffer(64, 10, driver.UShaderResource, nil)
	buf, err := tDev.NewBuffer(&meta, "default")
	if err != nil {
		t.Fatalf("tDev.NewBuffer failed: %v", err)
	}
	defer buf.Destroy()

	n := tDev.objs.Len()
	flush(t, func(cl driver.CmdList) error {
		k := tDev.objs.Len()
		if err := buf.Pack(pattern(640), cl); err != nil {
			return err
		}
		if m := tDev.objs.Len(); m != k+1 {
			t.Errorf("buf.Pack: live objects\nhave %d\nwant %d", m, k+1)
		}
		return nil
	})
	if m := tDev.objs.Len(); m != n {
		t.Fatalf("tDev.Flush: live objects\nhave %d\nwant %d", m, n)
	}
	if err := buf.CopyStart(); !errors.Is(err, driver.ErrNotMappable) {
		t.Errorf("buf.CopyStart (default heap)\nhave %v\nwant %v", err, driver.ErrNotMappable)
	}

	flush(t, func(cl driver.CmdList) error {
		if err := buf.Pack(pattern(7), cl); !driver.IsUnsupported(err) {
			t.Errorf("buf.Pack(7 bytes)\nhave %v\nwant *driver.UnsupportedError", err)
		}
		if err := buf.Pack(pattern(641), cl); !driver.IsRange(err) {
			t.Errorf("buf.Pack(641 bytes)\nhave %v\nwant *driver.RangeError", err)
		}
		return nil
	})
}

func TestBufferInitData(t *testing.T) {
	needDev(t)
	data := pattern(30)
	for _, meta := range [...]driver.BufferMeta{
		driver.UploadBuffer(10, 3, data),
		driver.VertexBuffer(10, 3, driver.HDefault, data),
	} {
		buf, err := tDev.NewBuffer(&meta, "init")
		if err != nil {
			t.Errorf("tDev.NewBuffer(heap %d)\nhave %v\nwant nil", meta.Heap, err)
			continue
		}
		if m := buf.Meta(); m.InitData != nil || m.ByteSize != 30 {
			t.Errorf("buf.Meta()\nhave %+v\nwant no InitData, ByteSize 30", m)
		}
		if meta.Heap == driver.HUpload {
			driver.WithMapping(buf, func(p []byte) error {
				if !bytes.Equal(p, data) {
					t.Errorf("buf.Mapped()\nhave %v\nwant %v", p, data)
				}
				return nil
			})
		}
		buf.Destroy()
	}
	meta := driver.ReadbackBuffer(4, 4)
	if _, err := tDev.NewBuffer(&meta, "readback"); !driver.IsUnsupported(err) {
		t.Errorf("tDev.NewBuffer(readback)\nhave %v\nwant *driver.UnsupportedError", err)
	}
}

func TestBufferCopyData(t *testing.T) {
	needDev(t)
	meta := driver.UploadBuffer(8, 4, nil)
	buf, err := tDev.NewBuffer(&meta, "upload")
	if err != nil {
		t.Fatalf("tDev.NewBuffer failed: %v", err)
	}
	defer buf.Destroy()
	if err := buf.CopyData(0, pattern(8)); !errors.Is(err, driver.ErrNotMapped) {
		t.Errorf("buf.CopyData (not mapped)\nhave %v\nwant %v", err, driver.ErrNotMapped)
	}
	err = driver.WithMapping(buf, func(p []byte) error {
		if len(p) != 32 {
			t.Errorf("len(buf.Mapped())\nhave %d\nwant 32", len(p))
		}
		if err := buf.CopyData(3, []byte{1, 2, 3}); err != nil {
			return err
		}
		if !bytes.Equal(p[24:27], []byte{1, 2, 3}) {
			t.Errorf("buf.CopyData(3, ...)\nhave %v\nwant [1 2 3]", p[24:27])
		}
		if err := buf.CopyData(4, []byte{1}); !driver.IsRange(err) {
			t.Errorf("buf.CopyData(4, ...)\nhave %v\nwant *driver.RangeError", err)
		}
		if err := buf.CopyData(0, pattern(9)); !driver.IsRange(err) {
			t.Errorf("buf.CopyData(0, 9 bytes)\nhave %v\nwant *driver.RangeError", err)
		}
		if err := buf.CopyTotalData(pattern(8), 1, 0); err != nil {
			t.Errorf("buf.CopyTotalData(1, 0) while mapped\nhave %v\nwant nil", err)
		}
		if m := buf.Mapped(); m == nil || !bytes.Equal(m[:8], pattern(8)) {
			t.Errorf("buf.Mapped() after CopyTotalData\nhave %v\nwant mapping kept", m)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("driver.WithMapping failed: %v", err)
	}
	if err := buf.CopyTotalData(pattern(16), 2, 3); !driver.IsRange(err) {
		t.Errorf("buf.CopyTotalData(2, 3)\nhave %v\nwant *driver.RangeError", err)
	}
	if err := buf.CopyTotalData(pattern(16), 2, 2); err != nil {
		t.Errorf("buf.CopyTotalData(2, 2)\nhave %v\nwant nil", err)
	}
}

func TestTexturePack(t *testing.T) {
	needDev(t)
	meta := driver.Texture2DArray(10, 3, 2, driver.RGBA8un, 1, driver.UShaderResource)
	tex, err := tDev.NewTexture(&meta, "array")
	if err != nil {
		t.Fatalf("tDev.NewTexture failed: %v", err)
	}
	defer tex.Destroy()
	if !tex.Owned() {
		t.Error("tex.Owned()\nhave false\nwant true")
	}
	n := tDev.objs.Len()
	flush(t, func(cl driver.CmdList) error {
		if err := tex.Pack(pattern(meta.Mip0Size()-1), cl); !driver.IsRange(err) {
			t.Errorf("tex.Pack(short)\nhave %v\nwant *driver.RangeError", err)
		}
		return tex.Pack(pattern(meta.Mip0Size()), cl)
	})
	if m := tDev.objs.Len(); m != n {
		t.Errorf("tDev.Flush: live objects\nhave %d\nwant %d", m, n)
	}

	meta = driver.DepthStencil(16, 16, driver.D32f, 1, 1, 0)
	ds, err := tDev.NewTexture(&meta, "depth")
	if err != nil {
		t.Fatalf("tDev.NewTexture failed: %v", err)
	}
	defer ds.Destroy()
	flush(t, func(cl driver.CmdList) error {
		if err := ds.Pack(pattern(meta.Mip0Size()), cl); !driver.IsUnsupported(err) {
			t.Errorf("ds.Pack\nhave %v\nwant *driver.UnsupportedError", err)
		}
		return nil
	})
}

func TestCopyBufferToTexture(t *testing.T) {
	needDev(t)
	meta := driver.Texture2D(64, 8, driver.RGBA8un, 1, driver.UShaderResource)
	tex, err := tDev.NewTexture(&meta, "aligned")
	if err != nil {
		t.Fatalf("tDev.NewTexture failed: %v", err)
	}
	defer tex.Destroy()
	bmeta := driver.UploadBuffer(512+meta.Mip0Size(), 1, nil)
	buf, err := tDev.NewBuffer(&bmeta, "src")
	if err != nil {
		t.Fatalf("tDev.NewBuffer failed: %v", err)
	}
	defer buf.Destroy()
	flush(t, func(cl driver.CmdList) error {
		cl.CopyBufferToTexture(tex, buf, 512)
		return nil
	})

	cl, err := tDev.NewCmdList()
	if err != nil {
		t.Fatalf("tDev.NewCmdList failed: %v", err)
	}
	defer cl.Destroy()
	for _, x := range [...]struct {
		off   int64
		check func(error) bool
	}{
		{510, driver.IsUnsupported},
		{1024, driver.IsRange},
	} {
		if err := cl.Begin(); err != nil {
			t.Fatalf("cl.Begin failed: %v", err)
		}
		cl.CopyBufferToTexture(tex, buf, x.off)
		if err := cl.End(); !x.check(err) {
			t.Errorf("cl.CopyBufferToTexture(%d): cl.End\nhave %v\nwant error", x.off, err)
		}
	}

	meta = driver.Texture2D(10, 8, driver.RGBA8un, 1, driver.UShaderResource)
	odd, err := tDev.NewTexture(&meta, "unaligned")
	if err != nil {
		t.Fatalf("tDev.NewTexture failed: %v", err)
	}
	defer odd.Destroy()
	if err := cl.Begin(); err != nil {
		t.Fatalf("cl.Begin failed: %v", err)
	}
	cl.CopyBufferToTexture(odd, buf, 0)
	if err := cl.End(); !driver.IsUnsupported(err) {
		t.Errorf("cl.CopyBufferToTexture(unaligned rows): cl.End\nhave %v\nwant *driver.UnsupportedError", err)
	}
	if err := tDev.Flush(cl); !driver.IsUnsupported(err) {
		t.Errorf("tDev.Flush(failed list)\nhave %v\nwant *driver.UnsupportedError", err)
	}
}

func TestCmdListErrors(t *testing.T) {
	needDev(t)
	meta := driver.UploadBuffer(16, 4, nil)
	a, err := tDev.NewBuffer(&meta, "a")
	if err != nil {
		t.Fatalf("tDev.NewBuffer failed: %v", err)
	}
	defer a.Destroy()
	b, err := tDev.NewBuffer(&meta, "b")
	if err != nil {
		t.Fatalf("tDev.NewBuffer failed: %v", err)
	}
	defer b.Destroy()

	cl, err := tDev.NewCmdList()
	if err != nil {
		t.Fatalf("tDev.NewCmdList failed: %v", err)
	}
	defer cl.Destroy()
	if err := cl.End(); err == nil {
		t.Error("cl.End (not recording)\nhave nil\nwant error")
	}
	if err := cl.Begin(); err != nil {
		t.Fatalf("cl.Begin failed: %v", err)
	}
	if err := cl.Begin(); err == nil {
		t.Error("cl.Begin (recording)\nhave nil\nwant error")
	}
	if err := tDev.Flush(cl); err == nil {
		t.Error("tDev.Flush (recording)\nhave nil\nwant error")
	}
	cl.CopyBuffer(a, 2, b, 0, 4)
	cl.CopyBuffer(a, 0, b, 0, 128)
	if err := cl.End(); !driver.IsUnsupported(err) {
		t.Errorf("cl.End (unaligned copy first)\nhave %v\nwant *driver.UnsupportedError", err)
	}
	if err := cl.Begin(); err != nil {
		t.Fatalf("cl.Begin failed: %v", err)
	}
	cl.CopyBuffer(a, 0, b, 60, 8)
	if err := cl.End(); !driver.IsRange(err) {
		t.Errorf("cl.End (src out of range)\nhave %v\nwant *driver.RangeError", err)
	}
	if err := cl.Begin(); err != nil {
		t.Fatalf("cl.Begin failed: %v", err)
	}
	cl.CopyBuffer(a, 0, b, 0, 64)
	if err := cl.End(); err != nil {
		t.Fatalf("cl.End\nhave %v\nwant nil", err)
	}
	if err := tDev.Flush(cl); err != nil {
		t.Errorf("tDev.Flush\nhave %v\nwant nil", err)
	}
}

func TestStates(t *testing.T) {
	needDev(t)
	bs, err := tDev.NewBlendState(&driver.BlendDesc{Targets: []driver.BlendProperty{driver.AlphaBlend(true)}})
	if err != nil {
		t.Fatalf("tDev.NewBlendState failed: %v", err)
	}
	defer bs.Destroy()
	if d := bs.Desc(); len(d.Targets) != 1 || d.Targets[0].Src != driver.BOne {
		t.Errorf("bs.Desc()\nhave %+v\nwant premultiplied alpha", d)
	}
	prop := driver.Solid(driver.CBack)
	rs, err := tDev.NewRasterizerState(&prop)
	if err != nil {
		t.Fatalf("tDev.NewRasterizerState failed: %v", err)
	}
	defer rs.Destroy()
	wire := driver.WireFrame()
	if _, err := tDev.NewRasterizerState(&wire); !driver.IsUnsupported(err) {
		t.Errorf("tDev.NewRasterizerState(WireFrame())\nhave %v\nwant *driver.UnsupportedError", err)
	}
	dprop := driver.DepthTest(driver.CLess)
	ds, err := tDev.NewDepthStencilState(&dprop)
	if err != nil {
		t.Fatalf("tDev.NewDepthStencilState failed: %v", err)
	}
	defer ds.Destroy()
	ia, err := tDev.NewInputAssemblyState(driver.TTriangle, []driver.InputElement{
		{Semantic: "POSITION", Format: driver.RGB32f},
		{Semantic: "COLOR", Format: driver.RGBA8un},
	})
	if err != nil {
		t.Fatalf("tDev.NewInputAssemblyState failed: %v", err)
	}
	defer ia.Destroy()
	if s := ia.Slots(); len(s) != 1 || s[0].Stride != 16 {
		t.Errorf("ia.Slots()\nhave %v\nwant [{0 16}]", s)
	}
	if _, err := tDev.NewInputAssemblyState(driver.TTriangle, []driver.InputElement{{Format: driver.D24unS8ui}}); err == nil {
		t.Error("tDev.NewInputAssemblyState(D24unS8ui)\nhave nil\nwant error")
	}
}

func TestResourceLayout(t *testing.T) {
	needDev(t)
	desc, err := driver.NewLayoutDesc(
		[]driver.ResourceElement{
			{Type: driver.DConstant, Register: 0},
			{Type: driver.DTexture, Register: 0, Space: 1, Stages: driver.SFragment},
		},
		[]driver.SamplerElement{{Register: 0, Space: 1, Stages: driver.SFragment}},
		nil,
	)
	if err != nil {
		t.Fatalf("driver.NewLayoutDesc failed: %v", err)
	}
	l, err := tDev.NewResourceLayout(desc, "layout")
	if err != nil {
		t.Fatalf("tDev.NewResourceLayout failed: %v", err)
	}
	defer l.Destroy()
	if l.Desc() != desc {
		t.Error("l.Desc()\nhave other\nwant desc")
	}
	if n := len(l.(*resourceLayout).groups); n != 2 {
		t.Errorf("resourceLayout.groups\nhave %d\nwant 2", n)
	}
}

func TestSampler(t *testing.T) {
	needDev(t)
	info := driver.LinearWrap()
	s, err := tDev.NewSampler(&info, "linear")
	if err != nil {
		t.Fatalf("tDev.NewSampler failed: %v", err)
	}
	defer s.Destroy()
	if s.Info() != info {
		t.Errorf("s.Info()\nhave %+v\nwant %+v", s.Info(), info)
	}
	info.AddrU = driver.ABorder
	if _, err := tDev.NewSampler(&info, "border"); !driver.IsUnsupported(err) {
		t.Errorf("tDev.NewSampler(ABorder)\nhave %v\nwant *driver.UnsupportedError", err)
	}
}
