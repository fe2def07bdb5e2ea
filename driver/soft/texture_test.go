// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gviegas/rhi/driver"
)

func TestNewTexture(t *testing.T) {
	for _, x := range [...]struct {
		meta driver.TextureMeta
		dim  gputypes.TextureDimension
		fmt  gputypes.TextureFormat
	}{
		{driver.Texture1D(256, driver.R8un, 0, driver.UShaderResource), gputypes.TextureDimension1D, gputypes.TextureFormatR8Unorm},
		{driver.Texture2D(64, 32, driver.RGBA8sRGB, 1, driver.UShaderResource), gputypes.TextureDimension2D, gputypes.TextureFormatRGBA8UnormSrgb},
		{driver.Texture2DArray(16, 16, 4, driver.RGBA16f, 0, driver.UShaderResource), gputypes.TextureDimension2D, gputypes.TextureFormatRGBA16Float},
		{driver.Texture3D(8, 8, 8, driver.R32f, 0, driver.UUnorderedAccess), gputypes.TextureDimension3D, gputypes.TextureFormatR32Float},
		{driver.CubeMapArray(32, 32, 2, driver.BGRA8un, 0, driver.UShaderResource), gputypes.TextureDimension2D, gputypes.TextureFormatBGRA8Unorm},
		{driver.DepthStencil(128, 128, driver.D24unS8ui, 4, 1, 0), gputypes.TextureDimension2D, gputypes.TextureFormatDepth24PlusStencil8},
	} {
		tex, err := tDev.NewTexture(&x.meta, "texture")
		if err != nil {
			t.Fatalf("tDev.NewTexture(%v) failed: %v", x.meta.Type, err)
		}
		st := tex.(*texture)
		if st.desc.Dimension != x.dim || st.desc.Format != x.fmt {
			t.Errorf("tDev.NewTexture(%v): desc\nhave %v, %v\nwant %v, %v", x.meta.Type, st.desc.Dimension, st.desc.Format, x.dim, x.fmt)
		}
		if n := len(st.data); n != x.meta.ByteSize {
			t.Errorf("tDev.NewTexture(%v): len(data)\nhave %d\nwant %d", x.meta.Type, n, x.meta.ByteSize)
		}
		if int(st.desc.Size.DepthOrArrayLayers) != x.meta.DepthOrArraySize {
			t.Errorf("tDev.NewTexture(%v): DepthOrArrayLayers\nhave %d\nwant %d", x.meta.Type, st.desc.Size.DepthOrArrayLayers, x.meta.DepthOrArraySize)
		}
		if !tex.Owned() {
			t.Errorf("tDev.NewTexture(%v): Owned\nhave false\nwant true", x.meta.Type)
		}
		tex.Destroy()
	}

	meta := driver.Texture2D(4, 4, driver.RGB32f, 1, driver.UShaderResource)
	if _, err := tDev.NewTexture(&meta, "rgb"); !driver.IsUnsupported(err) {
		t.Errorf("tDev.NewTexture(RGB32f)\nhave %v\nwant *driver.UnsupportedError", err)
	}
	meta = driver.Texture2D(4, 4, driver.RGBA8un, 1, driver.UShaderResource)
	meta.Width = 8
	var cerr *driver.CreateError
	if _, err := tDev.NewTexture(&meta, "stale"); !errors.As(err, &cerr) || !driver.IsRange(err) {
		t.Errorf("tDev.NewTexture(stale ByteSize)\nhave %v\nwant *driver.CreateError", err)
	}
}

func TestTexturePack(t *testing.T) {
	meta := driver.Texture2DArray(4, 4, 3, driver.RGBA8un, 0, driver.UShaderResource)
	tex, err := tDev.NewTexture(&meta, "array")
	if err != nil {
		t.Fatalf("tDev.NewTexture failed: %v", err)
	}
	defer tex.Destroy()
	data := pattern(meta.Mip0Size())
	flush(t, func(cl driver.CmdList) error {
		if err := tex.Pack(data[1:], cl); !driver.IsRange(err) {
			t.Errorf("tex.Pack(short)\nhave %v\nwant *driver.RangeError", err)
		}
		return tex.Pack(data, cl)
	})
	st := tex.(*texture)
	// 4x4 + 2x2 + 1x1 texels per layer.
	if st.layerSize != 21*4 {
		t.Fatalf("texture.layerSize\nhave %d\nwant %d", st.layerSize, 21*4)
	}
	for i := range 3 {
		have := st.data[i*st.layerSize : i*st.layerSize+64]
		want := data[i*64 : i*64+64]
		if !bytes.Equal(have, want) {
			t.Errorf("tex.Pack: layer %d\nhave %v\nwant %v", i, have[:8], want[:8])
		}
		if mips := st.data[i*st.layerSize+64 : (i+1)*st.layerSize]; !bytes.Equal(mips, make([]byte, len(mips))) {
			t.Errorf("tex.Pack: layer %d: mip levels 1+ written", i)
		}
	}

	ms := driver.Texture2DMS(4, 4, driver.RGBA8un, 4, driver.URenderTarget)
	mtex, err := tDev.NewTexture(&ms, "ms")
	if err != nil {
		t.Fatalf("tDev.NewTexture failed: %v", err)
	}
	defer mtex.Destroy()
	flush(t, func(cl driver.CmdList) error {
		if err := mtex.Pack(pattern(ms.Mip0Size()), cl); !driver.IsUnsupported(err) {
			t.Errorf("mtex.Pack\nhave %v\nwant *driver.UnsupportedError", err)
		}
		return nil
	})
}

func TestWrapTexture(t *testing.T) {
	meta := driver.RenderTarget(8, 8, driver.BGRA8un, 1, [4]float32{})
	ext := pattern(meta.ByteSize)
	keep := bytes.Clone(ext)
	if _, err := tDev.WrapTexture(&meta, ext[1:], "short"); !driver.IsRange(err) {
		t.Fatalf("tDev.WrapTexture(short)\nhave %v\nwant *driver.RangeError", err)
	}
	tex, err := tDev.WrapTexture(&meta, ext, "swapchain")
	if err != nil {
		t.Fatalf("tDev.WrapTexture failed: %v", err)
	}
	if tex.Owned() {
		t.Fatal("tex.Owned()\nhave true\nwant false")
	}
	if tex.Name() != "swapchain" {
		t.Fatalf("tex.Name()\nhave %q\nwant %q", tex.Name(), "swapchain")
	}
	tex.SetName("swapchain 0")
	if tex.Name() != "swapchain 0" || tex.(*texture).desc.Label != "swapchain 0" {
		t.Fatalf("tex.SetName: label\nhave %q\nwant %q", tex.(*texture).desc.Label, "swapchain 0")
	}
	tex.Destroy()
	if !bytes.Equal(ext, keep) {
		t.Fatal("tex.Destroy: wrapped memory modified")
	}
	tex.Destroy()
}
