// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gviegas/rhi/driver"
)

// checkConv checks that conv succeeds for every value in
// [0, n) and fails with *driver.UnsupportedError for n.
func checkConv[T ~int, U any](t *testing.T, name string, first, n T, conv func(T) (U, error)) {
	t.Helper()
	for v := first; v < n; v++ {
		if _, err := conv(v); err != nil {
			t.Errorf("%s(%d)\nhave %v\nwant nil", name, v, err)
		}
	}
	if _, err := conv(n); !driver.IsUnsupported(err) {
		t.Errorf("%s(%d)\nhave %v\nwant *driver.UnsupportedError", name, n, err)
	}
	if _, err := conv(-1); !driver.IsUnsupported(err) {
		t.Errorf("%s(-1)\nhave %v\nwant *driver.UnsupportedError", name, err)
	}
}

func TestConvTotal(t *testing.T) {
	checkConv(t, "convDimension", driver.Dim1D, driver.Dim3D+1, convDimension)
	checkConv(t, "convCmpFunc", driver.CNever, driver.CAlways+1, convCmpFunc)
	checkConv(t, "convCullMode", driver.CNone, driver.CBack+1, convCullMode)
	checkConv(t, "convTopology", driver.TPoint, driver.TTriStrip+1, convTopology)
	checkConv(t, "convBlendFac", driver.BZero, driver.BInvBlendColor+1, convBlendFac)
	checkConv(t, "convBlendOp", driver.BAdd, driver.BMax+1, convBlendOp)
	checkConv(t, "convAddrMode", driver.AWrap, driver.AClamp+1, convAddrMode)
}

func TestConvPixelFmt(t *testing.T) {
	for _, pf := range driver.Formats() {
		_, err := convPixelFmt(pf)
		if pf == driver.RGB32f {
			if !driver.IsUnsupported(err) {
				t.Errorf("convPixelFmt(RGB32f)\nhave %v\nwant *driver.UnsupportedError", err)
			}
			continue
		}
		if err != nil {
			t.Errorf("convPixelFmt(%v)\nhave %v\nwant nil", pf, err)
		}
	}
	if _, err := convPixelFmt(driver.FormatUnknown); !driver.IsUnsupported(err) {
		t.Errorf("convPixelFmt(FormatUnknown)\nhave %v\nwant *driver.UnsupportedError", err)
	}
	if _, err := convVertexFmt(driver.D32f); !driver.IsUnsupported(err) {
		t.Errorf("convVertexFmt(D32f)\nhave %v\nwant *driver.UnsupportedError", err)
	}
}

func TestConvFilter(t *testing.T) {
	for _, x := range [...]struct {
		f             driver.Filter
		min, mag, mip gputypes.FilterMode
	}{
		{driver.FPoint, gputypes.FilterModeNearest, gputypes.FilterModeNearest, gputypes.FilterModeNearest},
		{driver.FBilinear, gputypes.FilterModeLinear, gputypes.FilterModeLinear, gputypes.FilterModeNearest},
		{driver.FLinear, gputypes.FilterModeLinear, gputypes.FilterModeLinear, gputypes.FilterModeLinear},
		{driver.FMipLinear, gputypes.FilterModeNearest, gputypes.FilterModeNearest, gputypes.FilterModeLinear},
		{driver.FAniso, gputypes.FilterModeLinear, gputypes.FilterModeLinear, gputypes.FilterModeLinear},
		{driver.FCmpLinear, gputypes.FilterModeLinear, gputypes.FilterModeLinear, gputypes.FilterModeLinear},
	} {
		info := driver.LinearWrap()
		info.Filter = x.f
		info.MaxAniso = 32
		desc, err := convSampler(&info)
		if err != nil {
			t.Fatalf("convSampler(%#x) failed: %v", x.f, err)
		}
		if desc.min != x.min || desc.mag != x.mag || desc.mip != x.mip {
			t.Errorf("convSampler(%#x): min/mag/mip\nhave %v %v %v\nwant %v %v %v", x.f, desc.min, desc.mag, desc.mip, x.min, x.mag, x.mip)
		}
		aniso := uint16(1)
		if x.f&driver.FAnisotropic != 0 {
			aniso = 16
		}
		if desc.maxAniso != aniso {
			t.Errorf("convSampler(%#x): maxAniso\nhave %d\nwant %d", x.f, desc.maxAniso, aniso)
		}
	}
	if _, err := convFilter(driver.FAnisotropic, driver.FMinLinear); !driver.IsUnsupported(err) {
		t.Errorf("convFilter(FAnisotropic)\nhave %v\nwant *driver.UnsupportedError", err)
	}
}

func TestConvColorMask(t *testing.T) {
	if m := convColorMask(driver.CAll); m != gputypes.ColorWriteMaskAll {
		t.Errorf("convColorMask(CAll)\nhave %v\nwant %v", m, gputypes.ColorWriteMaskAll)
	}
	if m := convColorMask(driver.CNoColor); m != gputypes.ColorWriteMaskNone {
		t.Errorf("convColorMask(CNoColor)\nhave %v\nwant %v", m, gputypes.ColorWriteMaskNone)
	}
	if m := convColorMask(driver.CRed | driver.CAlpha); m != gputypes.ColorWriteMaskRed|gputypes.ColorWriteMaskAlpha {
		t.Errorf("convColorMask(CRed|CAlpha)\nhave %v\nwant %v", m, gputypes.ColorWriteMaskRed|gputypes.ColorWriteMaskAlpha)
	}
}

func TestConvBufUsage(t *testing.T) {
	for _, x := range [...]struct {
		meta driver.BufferMeta
		want gputypes.BufferUsage
	}{
		{driver.UploadBuffer(4, 1, nil), gputypes.BufferUsageMapWrite | gputypes.BufferUsageCopySrc},
		{driver.ReadbackBuffer(4, 1), gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst},
		{driver.ConstantBuffer(4, 1, nil), gputypes.BufferUsageMapWrite | gputypes.BufferUsageCopySrc | gputypes.BufferUsageUniform},
		{driver.VertexBuffer(4, 1, driver.HDefault, nil), gputypes.BufferUsageCopyDst | gputypes.BufferUsageVertex},
		{driver.IndexBuffer(4, 1, driver.HDefault, nil), gputypes.BufferUsageCopyDst | gputypes.BufferUsageIndex},
	} {
		if u := convBufUsage(x.meta.Usage, x.meta.Heap); u != x.want {
			t.Errorf("convBufUsage(%v, %v)\nhave %v\nwant %v", x.meta.Usage, x.meta.Heap, u, x.want)
		}
	}
}
