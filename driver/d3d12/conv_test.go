// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package d3d12

import (
	"errors"
	"testing"

	"github.com/gviegas/rhi/driver"
)

// checkConv checks that conv succeeds for every value in
// [first, n) and fails with *driver.UnsupportedError for
// n and -1.
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
	checkConv(t, "convHeap", driver.HDefault, driver.HReadback+1, convHeap)
	checkConv(t, "convCmpFunc", driver.CNever, driver.CAlways+1, convCmpFunc)
	checkConv(t, "convCullMode", driver.CNone, driver.CBack+1, convCullMode)
	checkConv(t, "convFillMode", driver.FSolid, driver.FWireFrame+1, convFillMode)
	checkConv(t, "convStencilOp", driver.SKeep, driver.SDecWrap+1, convStencilOp)
	checkConv(t, "convBlendFac", driver.BZero, driver.BInvBlendColor+1, convBlendFac)
	checkConv(t, "convBlendOp", driver.BAdd, driver.BMax+1, convBlendOp)
	checkConv(t, "convAddrMode", driver.AWrap, driver.ABorder+1, convAddrMode)
	checkConv(t, "convState", driver.StCommon, driver.StPresent+1, convState)
	checkConv(t, "convRangeType", driver.DConstant, driver.DStorageTexture+1, convRangeType)
}

func TestConvPixelFmt(t *testing.T) {
	seen := make(map[dxgiFormat]driver.PixelFormat)
	for _, pf := range driver.Formats() {
		f, err := convPixelFmt(pf)
		if err != nil {
			t.Errorf("convPixelFmt(%v)\nhave %v\nwant nil", pf, err)
			continue
		}
		if x, ok := seen[f]; ok {
			t.Errorf("convPixelFmt(%v)\nhave %d (same as %v)\nwant unique", pf, f, x)
		}
		seen[f] = pf
		tl := typelessOf(f)
		if pf.IsDepth() == (tl == f) {
			t.Errorf("typelessOf(%d) [%v]\nhave %d\nwant typeless only for depth", f, pf, tl)
		}
	}
	if _, err := convPixelFmt(driver.FormatUnknown); !driver.IsUnsupported(err) {
		t.Errorf("convPixelFmt(FormatUnknown)\nhave %v\nwant *driver.UnsupportedError", err)
	}
}

func TestConvTopology(t *testing.T) {
	for _, x := range [...]struct {
		top driver.Topology
		typ primitiveTopologyType
		pt  primitiveTopology
	}{
		{driver.TPoint, topologyTypePoint, topologyPointList},
		{driver.TLine, topologyTypeLine, topologyLineList},
		{driver.TLnStrip, topologyTypeLine, topologyLineStrip},
		{driver.TTriangle, topologyTypeTriangle, topologyTriangleList},
		{driver.TTriStrip, topologyTypeTriangle, topologyTriangleStrip},
	} {
		typ, pt, err := convTopology(x.top)
		if err != nil || typ != x.typ || pt != x.pt {
			t.Errorf("convTopology(%d)\nhave %d, %d, %v\nwant %d, %d, nil", x.top, typ, pt, err, x.typ, x.pt)
		}
	}
	if _, _, err := convTopology(driver.TTriStrip + 1); !driver.IsUnsupported(err) {
		t.Errorf("convTopology(TTriStrip+1)\nhave %v\nwant *driver.UnsupportedError", err)
	}
}

func TestConvCmpFunc(t *testing.T) {
	if x, _ := convCmpFunc(driver.CNever); x != cmpNever {
		t.Errorf("convCmpFunc(CNever)\nhave %d\nwant %d", x, cmpNever)
	}
	if x, _ := convCmpFunc(driver.CAlways); x != cmpAlways {
		t.Errorf("convCmpFunc(CAlways)\nhave %d\nwant %d", x, cmpAlways)
	}
}

func TestConvSamples(t *testing.T) {
	for _, x := range [...]struct {
		n    int
		want uint32
		ok   bool
	}{
		{0, 1, true},
		{1, 1, true},
		{4, 4, true},
		{32, 32, true},
		{3, 0, false},
		{64, 0, false},
		{-1, 0, false},
	} {
		n, err := convSamples(x.n)
		if (err == nil) != x.ok || n != x.want {
			t.Errorf("convSamples(%d)\nhave %d, %v\nwant %d (ok=%t)", x.n, n, err, x.want, x.ok)
		}
	}
}

func TestConvUsage(t *testing.T) {
	for _, x := range [...]struct {
		usg  driver.Usage
		want resourceFlags
	}{
		{driver.UShaderResource, flagNone},
		{driver.URenderTarget | driver.UShaderResource, flagAllowRenderTarget},
		{driver.UDepthStencil, flagAllowDepthStencil | flagDenyShaderResource},
		{driver.UDepthStencil | driver.UShaderResource, flagAllowDepthStencil},
		{driver.UUnorderedAccess, flagAllowUnorderedAccess},
	} {
		if have := convUsage(x.usg); have != x.want {
			t.Errorf("convUsage(%#x)\nhave %#x\nwant %#x", x.usg, have, x.want)
		}
	}
}

func TestConvFormatSupport(t *testing.T) {
	for _, x := range [...]struct {
		s    uint32
		want driver.FormatFeature
	}{
		{0, 0},
		{support1ShaderLoad, driver.FmtSampled},
		{support1ShaderSample, driver.FmtSampled | driver.FmtFilter},
		{support1RenderTarget | support1Blendable, driver.FmtRenderTarget | driver.FmtBlend},
		{support1DepthStencil, driver.FmtDepthStencil},
		{support1TypedUAV | support1IAVertexBuffer, driver.FmtStorage | driver.FmtVertex},
	} {
		if have := convFormatSupport(x.s); have != x.want {
			t.Errorf("convFormatSupport(%#x)\nhave %#x\nwant %#x", x.s, have, x.want)
		}
	}
}

func TestConvFilter(t *testing.T) {
	for _, f := range [...]driver.Filter{driver.FPoint, driver.FLinear, driver.FBilinear, driver.FAniso, driver.FCmpLinear} {
		x, err := convFilter(f)
		if err != nil || x != filter(f) {
			t.Errorf("convFilter(%#x)\nhave %#x, %v\nwant %#x, nil", f, x, err, f)
		}
	}
	if _, err := convFilter(driver.FAnisotropic); !driver.IsUnsupported(err) {
		t.Errorf("convFilter(FAnisotropic)\nhave %v\nwant *driver.UnsupportedError", err)
	}
}

func TestConvVisibility(t *testing.T) {
	for _, x := range [...]struct {
		stg  driver.Stage
		want shaderVisibility
	}{
		{driver.SVertex, visibilityVertex},
		{driver.SFragment, visibilityPixel},
		{driver.SCompute, visibilityAll},
		{driver.SAllGraphics, visibilityAll},
		{driver.SAll, visibilityAll},
	} {
		if have := convVisibility(x.stg); have != x.want {
			t.Errorf("convVisibility(%#x)\nhave %d\nwant %d", x.stg, have, x.want)
		}
	}
}

func TestCheckHR(t *testing.T) {
	for _, x := range [...]struct {
		hr   uint32
		want error
	}{
		{sOK, nil},
		{sFalse, nil},
		{eOutOfMemory, driver.ErrNoHostMemory},
		{eInvalidArg, errInvalidArg},
		{eNoInterface, errNoInterface},
		{eFail, errFail},
		{dxgiErrorUnsupported, errUnsupported},
		{dxgiErrorNotFound, driver.ErrNoDevice},
		{d3d12ErrorAdapterMissing, driver.ErrNoDevice},
		{dxgiErrorDeviceRemoved, driver.ErrFatal},
		{dxgiErrorDeviceHung, driver.ErrFatal},
		{dxgiErrorDeviceReset, driver.ErrFatal},
		{dxgiErrorDriverInternal, driver.ErrFatal},
	} {
		if err := checkHR(x.hr); !errors.Is(err, x.want) || (x.want == nil) != (err == nil) {
			t.Errorf("checkHR(%#x)\nhave %v\nwant %v", x.hr, err, x.want)
		}
	}
	if err := checkHR(0x80001234); err == nil {
		t.Error("checkHR(0x80001234)\nhave nil\nwant error")
	}
}
