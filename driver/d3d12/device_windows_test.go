// Copyright 2023 Gustavo C. Viegas. All rights reserved.

//go:build amd64 || arm64

package d3d12

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gviegas/rhi/driver"
)

func TestAdapter(t *testing.T) {
	needDev(t)
	a := tDev.Adapter()
	if _, err := a.CreateDevice(); !errors.Is(err, driver.ErrDeviceCreated) {
		t.Errorf("a.CreateDevice (second call)\nhave %v\nwant %v", err, driver.ErrDeviceCreated)
	}
	info := a.Info()
	if info.Name == "" || len(info.Heaps) == 0 || info.API.Major != 12 {
		t.Errorf("a.Info()\nhave %+v\nwant name, heaps and API 12", info)
	}
	if _, err := a.PresentSupport(0, len(queueFamilies)); !driver.IsRange(err) {
		t.Errorf("a.PresentSupport(0, %d)\nhave %v\nwant *driver.RangeError", len(queueFamilies), err)
	}
	if ok, _ := a.PresentSupport(0, 0); ok {
		t.Error("a.PresentSupport(0, 0)\nhave true\nwant false")
	}
	if f := a.FormatSupport(driver.RGBA8un); f&driver.FmtSampled == 0 {
		t.Errorf("a.FormatSupport(RGBA8un)\nhave %#x\nwant FmtSampled", f)
	}
	if f := a.FormatSupport(driver.FormatUnknown); f != 0 {
		t.Errorf("a.FormatSupport(FormatUnknown)\nhave %#x\nwant 0", f)
	}
	if lim := tDev.Limits(); lim != fl11Limits {
		t.Errorf("tDev.Limits()\nhave %+v\nwant %+v", lim, fl11Limits)
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
	rmeta := driver.ReadbackBuffer(64, 10)
	rbuf, err := tDev.NewBuffer(&rmeta, "readback")
	if err != nil {
		t.Fatalf("tDev.NewBuffer failed: %v", err)
	}
	defer rbuf.Destroy()

	data := pattern(640)
	n := tDev.objs.Len()
	flush(t, func(cl driver.CmdList) error {
		if err := buf.Pack(data, cl); err != nil {
			return err
		}
		cl.CopyBuffer(rbuf, 0, buf, 0, 640)
		return nil
	})
	if m := tDev.objs.Len(); m != n {
		t.Fatalf("tDev.Flush: live objects\nhave %d\nwant %d", m, n)
	}
	err = driver.WithMapping(rbuf, func(p []byte) error {
		if !bytes.Equal(p, data) {
			return errors.New("readback mismatch")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := buf.CopyStart(); !errors.Is(err, driver.ErrNotMappable) {
		t.Errorf("buf.CopyStart (default heap)\nhave %v\nwant %v", err, driver.ErrNotMappable)
	}
}

func TestBufferInitData(t *testing.T) {
	needDev(t)
	data := pattern(256)
	meta := driver.VertexBuffer(16, 16, driver.HDefault, data)
	buf, err := tDev.NewBuffer(&meta, "vertices")
	if err != nil {
		t.Fatalf("tDev.NewBuffer failed: %v", err)
	}
	defer buf.Destroy()
	if m := buf.Meta(); m.InitData != nil {
		t.Error("buf.Meta().InitData\nhave non-nil\nwant nil")
	}
	rmeta := driver.ReadbackBuffer(16, 16)
	rbuf, err := tDev.NewBuffer(&rmeta, "readback")
	if err != nil {
		t.Fatalf("tDev.NewBuffer failed: %v", err)
	}
	defer rbuf.Destroy()
	flush(t, func(cl driver.CmdList) error {
		cl.CopyBuffer(rbuf, 0, buf, 0, 256)
		return nil
	})
	err = driver.WithMapping(rbuf, func(p []byte) error {
		if !bytes.Equal(p, data) {
			return errors.New("readback mismatch")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestBufferCopyData(t *testing.T) {
	needDev(t)
	meta := driver.UploadBuffer(16, 4, nil)
	buf, err := tDev.NewBuffer(&meta, "upload")
	if err != nil {
		t.Fatalf("tDev.NewBuffer failed: %v", err)
	}
	defer buf.Destroy()
	if err := buf.CopyData(0, pattern(16)); !errors.Is(err, driver.ErrNotMapped) {
		t.Errorf("buf.CopyData (unmapped)\nhave %v\nwant %v", err, driver.ErrNotMapped)
	}
	if err := buf.CopyStart(); err != nil {
		t.Fatalf("buf.CopyStart failed: %v", err)
	}
	if err := buf.CopyData(2, pattern(16)); err != nil {
		t.Errorf("buf.CopyData(2, ...)\nhave %v\nwant nil", err)
	}
	if err := buf.CopyData(4, pattern(16)); !driver.IsRange(err) {
		t.Errorf("buf.CopyData(4, ...)\nhave %v\nwant *driver.RangeError", err)
	}
	if p := buf.Mapped(); !bytes.Equal(p[32:48], pattern(16)) {
		t.Errorf("buf.Mapped()[32:48]\nhave %v\nwant %v", p[32:48], pattern(16))
	}
	if err := buf.CopyTotalData(pattern(16), 1, 0); err != nil {
		t.Errorf("buf.CopyTotalData(..., 1, 0) while mapped\nhave %v\nwant nil", err)
	}
	if p := buf.Mapped(); p == nil || !bytes.Equal(p[:16], pattern(16)) {
		t.Errorf("buf.Mapped() after CopyTotalData\nhave %v\nwant mapping kept", p)
	}
	buf.CopyEnd()
	if p := buf.Mapped(); p != nil {
		t.Errorf("buf.Mapped() after CopyEnd\nhave %d bytes\nwant nil", len(p))
	}
	if err := buf.CopyTotalData(pattern(32), 2, 3); !driver.IsRange(err) {
		t.Errorf("buf.CopyTotalData(..., 2, 3)\nhave %v\nwant *driver.RangeError", err)
	}
}

func TestTexturePack(t *testing.T) {
	needDev(t)
	// Rows of 40 bytes need repitching.
	meta := driver.Texture2DArray(10, 16, 2, driver.RGBA8un, 1, driver.UShaderResource)
	tex, err := tDev.NewTexture(&meta, "array")
	if err != nil {
		t.Fatalf("tDev.NewTexture failed: %v", err)
	}
	defer tex.Destroy()
	if !tex.Owned() {
		t.Error("tex.Owned()\nhave false\nwant true")
	}
	flush(t, func(cl driver.CmdList) error {
		if err := tex.Pack(pattern(10*16*4), cl); !driver.IsRange(err) {
			t.Errorf("tex.Pack (short data)\nhave %v\nwant *driver.RangeError", err)
		}
		return tex.Pack(pattern(meta.Mip0Size()), cl)
	})
	if st := tex.(*texture).state; st != stateAllShaderResource {
		t.Errorf("tex.Pack: state\nhave %#x\nwant %#x", st, stateAllShaderResource)
	}
}

func TestCopyBufferToTexture(t *testing.T) {
	needDev(t)
	meta := driver.Texture2D(64, 8, driver.RGBA8un, 1, driver.UShaderResource|driver.UCopyDst)
	tex, err := tDev.NewTexture(&meta, "")
	if err != nil {
		t.Fatalf("tDev.NewTexture failed: %v", err)
	}
	defer tex.Destroy()
	smeta := driver.UploadBuffer(meta.Mip0Size()+512, 1, nil)
	src, err := tDev.NewBuffer(&smeta, "")
	if err != nil {
		t.Fatalf("tDev.NewBuffer failed: %v", err)
	}
	defer src.Destroy()
	flush(t, func(cl driver.CmdList) error {
		cl.CopyBufferToTexture(tex, src, 512)
		return nil
	})

	cl, err := tDev.NewCmdList()
	if err != nil {
		t.Fatalf("tDev.NewCmdList failed: %v", err)
	}
	defer cl.Destroy()
	if err := cl.Begin(); err != nil {
		t.Fatalf("cl.Begin failed: %v", err)
	}
	cl.CopyBufferToTexture(tex, src, 4)
	if err := cl.End(); !driver.IsUnsupported(err) {
		t.Errorf("cl.End (unaligned copy)\nhave %v\nwant *driver.UnsupportedError", err)
	}
}

func TestCmdListErrors(t *testing.T) {
	needDev(t)
	meta := driver.UploadBuffer(16, 1, nil)
	buf, err := tDev.NewBuffer(&meta, "")
	if err != nil {
		t.Fatalf("tDev.NewBuffer failed: %v", err)
	}
	defer buf.Destroy()
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
	if err := tDev.Flush(cl); err == nil {
		t.Error("tDev.Flush (recording)\nhave nil\nwant error")
	}
	cl.CopyBuffer(buf, 8, buf, 0, 16)
	if err := cl.End(); !driver.IsRange(err) {
		t.Errorf("cl.End (bad copy)\nhave %v\nwant *driver.RangeError", err)
	}
	if err := tDev.Flush(cl); !driver.IsRange(err) {
		t.Errorf("tDev.Flush (bad copy)\nhave %v\nwant *driver.RangeError", err)
	}
}

func TestStates(t *testing.T) {
	needDev(t)
	n := tDev.objs.Len()
	bs, err := tDev.NewBlendState(&driver.BlendDesc{Targets: []driver.BlendProperty{driver.OverWrite()}})
	if err != nil {
		t.Fatalf("tDev.NewBlendState failed: %v", err)
	}
	prop := driver.Solid(driver.CBack)
	rs, err := tDev.NewRasterizerState(&prop)
	if err != nil {
		t.Fatalf("tDev.NewRasterizerState failed: %v", err)
	}
	dprop := driver.DepthTest(driver.CLess)
	ds, err := tDev.NewDepthStencilState(&dprop)
	if err != nil {
		t.Fatalf("tDev.NewDepthStencilState failed: %v", err)
	}
	ia, err := tDev.NewInputAssemblyState(driver.TTriangle, []driver.InputElement{{Semantic: "POSITION", Format: driver.RGB32f}})
	if err != nil {
		t.Fatalf("tDev.NewInputAssemblyState failed: %v", err)
	}
	if m := tDev.objs.Len(); m != n+4 {
		t.Errorf("tDev: live objects\nhave %d\nwant %d", m, n+4)
	}
	for _, s := range []driver.Destroyer{bs, rs, ds, ia} {
		s.Destroy()
	}
	if m := tDev.objs.Len(); m != n {
		t.Errorf("tDev: live objects after Destroy\nhave %d\nwant %d", m, n)
	}
}

func TestResourceLayout(t *testing.T) {
	needDev(t)
	desc, err := driver.NewLayoutDesc(
		[]driver.ResourceElement{{Type: driver.DTexture, Space: 1, Count: 1, Stages: driver.SFragment}},
		[]driver.SamplerElement{{Space: 1, Count: 1, Stages: driver.SFragment}},
		&driver.Constant32Bits{Count: 16, Stages: driver.SVertex},
	)
	if err != nil {
		t.Fatalf("driver.NewLayoutDesc failed: %v", err)
	}
	l, err := tDev.NewResourceLayout(desc, "layout")
	if err != nil {
		t.Fatalf("tDev.NewResourceLayout failed: %v", err)
	}
	defer l.Destroy()
	if n := len(l.(*resourceLayout).root.params); n != 3 {
		t.Errorf("tDev.NewResourceLayout: parameters\nhave %d\nwant 3", n)
	}
}

func TestSamplers(t *testing.T) {
	needDev(t)
	info := driver.LinearWrap()
	var spls []driver.Sampler
	defer func() {
		for _, s := range spls {
			s.Destroy()
		}
	}()
	// Crosses into a second descriptor heap.
	for range samplerHeapSize + 1 {
		s, err := tDev.NewSampler(&info, "")
		if err != nil {
			t.Fatalf("tDev.NewSampler failed: %v", err)
		}
		spls = append(spls, s)
	}
	if n := len(tDev.splHeaps); n < 2 {
		t.Errorf("tDev.splHeaps\nhave %d heaps\nwant >= 2", n)
	}
	last := spls[len(spls)-1].(*sampler)
	if last.handle == spls[0].(*sampler).handle {
		t.Error("tDev.NewSampler: handles\nhave duplicate\nwant unique")
	}
}
