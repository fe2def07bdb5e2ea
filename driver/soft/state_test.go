// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gviegas/rhi/driver"
)

func TestBlendState(t *testing.T) {
	desc := driver.BlendDesc{Targets: []driver.BlendProperty{
		driver.AlphaBlend(false),
		driver.NoColorWrite(),
	}}
	s, err := tDev.NewBlendState(&desc)
	if err != nil {
		t.Fatalf("tDev.NewBlendState failed: %v", err)
	}
	defer s.Destroy()
	bs := s.(*blendState)
	if n := len(bs.targets); n != 1 {
		t.Fatalf("tDev.NewBlendState (shared): targets\nhave %d\nwant 1", n)
	}
	want := gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorZero,
			Operation: gputypes.BlendOperationAdd,
		},
	}
	if b := bs.targets[0].Blend; b == nil || *b != want {
		t.Fatalf("tDev.NewBlendState: Blend\nhave %+v\nwant %+v", b, want)
	}
	if n := len(s.Desc().Targets); n != 2 {
		t.Fatalf("s.Desc().Targets\nhave %d\nwant 2", n)
	}

	desc.IndependentBlend = true
	s2, err := tDev.NewBlendState(&desc)
	if err != nil {
		t.Fatalf("tDev.NewBlendState failed: %v", err)
	}
	defer s2.Destroy()
	bs = s2.(*blendState)
	if n := len(bs.targets); n != 2 {
		t.Fatalf("tDev.NewBlendState (independent): targets\nhave %d\nwant 2", n)
	}
	if bs.targets[1].Blend != nil || bs.targets[1].WriteMask != gputypes.ColorWriteMaskNone {
		t.Fatalf("tDev.NewBlendState: NoColorWrite target\nhave %+v\nwant no blend, no write", bs.targets[1])
	}

	desc.Targets[0].Src = driver.BlendFac(-1)
	if _, err := tDev.NewBlendState(&desc); !driver.IsUnsupported(err) {
		t.Fatalf("tDev.NewBlendState (bad factor)\nhave %v\nwant *driver.UnsupportedError", err)
	}
}

func TestRasterizerState(t *testing.T) {
	for _, x := range [...]struct {
		prop  driver.RasterizerProperty
		cull  gputypes.CullMode
		front gputypes.FrontFace
		wire  bool
	}{
		{driver.Solid(driver.CBack), gputypes.CullModeBack, gputypes.FrontFaceCCW, false},
		{driver.Solid(driver.CFront), gputypes.CullModeFront, gputypes.FrontFaceCCW, false},
		{driver.WireFrame(), gputypes.CullModeNone, gputypes.FrontFaceCCW, true},
		{driver.RasterizerProperty{Cull: driver.CNone}, gputypes.CullModeNone, gputypes.FrontFaceCW, false},
	} {
		s, err := tDev.NewRasterizerState(&x.prop)
		if err != nil {
			t.Fatalf("tDev.NewRasterizerState failed: %v", err)
		}
		rs := s.(*rasterizerState)
		if rs.primitive.CullMode != x.cull || rs.primitive.FrontFace != x.front || rs.wireFrame != x.wire {
			t.Errorf("tDev.NewRasterizerState(%+v)\nhave %v %v %t\nwant %v %v %t",
				x.prop, rs.primitive.CullMode, rs.primitive.FrontFace, rs.wireFrame, x.cull, x.front, x.wire)
		}
		if s.Property() != x.prop {
			t.Errorf("s.Property()\nhave %+v\nwant %+v", s.Property(), x.prop)
		}
		s.Destroy()
	}
	prop := driver.Solid(driver.CBack)
	prop.Fill = 2
	if _, err := tDev.NewRasterizerState(&prop); !driver.IsUnsupported(err) {
		t.Fatalf("tDev.NewRasterizerState (bad fill)\nhave %v\nwant *driver.UnsupportedError", err)
	}
}

func TestDepthStencilState(t *testing.T) {
	prop := driver.DepthTest(driver.CLessEqual)
	s, err := tDev.NewDepthStencilState(&prop)
	if err != nil {
		t.Fatalf("tDev.NewDepthStencilState failed: %v", err)
	}
	ds := s.(*depthStencilState)
	if ds.depthCmp != gputypes.CompareFunctionLessEqual {
		t.Errorf("depthCmp\nhave %v\nwant %v", ds.depthCmp, gputypes.CompareFunctionLessEqual)
	}
	if ds.front.cmp != gputypes.CompareFunctionAlways || ds.front.pass != driver.SKeep {
		t.Errorf("front\nhave %+v\nwant always/keep", ds.front)
	}
	s.Destroy()

	prop = driver.DepthOff()
	prop.DepthCmp = -1
	s, err = tDev.NewDepthStencilState(&prop)
	if err != nil {
		t.Fatalf("tDev.NewDepthStencilState (depth off) failed: %v", err)
	}
	if ds := s.(*depthStencilState); ds.depthCmp != gputypes.CompareFunctionAlways {
		t.Errorf("depthCmp (depth off)\nhave %v\nwant %v", ds.depthCmp, gputypes.CompareFunctionAlways)
	}
	s.Destroy()

	prop = driver.DepthTest(driver.CLess)
	prop.Back.DepthFail = driver.SDecWrap + 1
	if _, err := tDev.NewDepthStencilState(&prop); !driver.IsUnsupported(err) {
		t.Fatalf("tDev.NewDepthStencilState (bad op)\nhave %v\nwant *driver.UnsupportedError", err)
	}
}

func TestInputAssemblyState(t *testing.T) {
	elems := []driver.InputElement{
		{Semantic: "POSITION", Format: driver.RGB32f, Slot: 0},
		{Semantic: "NORMAL", Format: driver.RGB32f, Slot: 1},
		{Semantic: "TEXCOORD", Format: driver.RG32f, Slot: 0},
		{Semantic: "COLOR", Format: driver.RGBA8un, Slot: 2},
	}
	s, err := tDev.NewInputAssemblyState(driver.TTriangle, elems)
	if err != nil {
		t.Fatalf("tDev.NewInputAssemblyState failed: %v", err)
	}
	defer s.Destroy()
	ia := s.(*inputAssemblyState)
	if ia.topo != gputypes.PrimitiveTopologyTriangleList || s.Topology() != driver.TTriangle {
		t.Errorf("topology\nhave %v\nwant %v", ia.topo, gputypes.PrimitiveTopologyTriangleList)
	}
	for i, x := range [...]struct {
		stride  uint64
		offsets []uint64
		locs    []uint32
	}{
		{20, []uint64{0, 12}, []uint32{0, 2}},
		{12, []uint64{0}, []uint32{1}},
		{4, []uint64{0}, []uint32{3}},
	} {
		b := ia.buffers[i]
		if b.ArrayStride != x.stride || len(b.Attributes) != len(x.offsets) {
			t.Fatalf("buffers[%d]\nhave %d, %d attributes\nwant %d, %d attributes", i, b.ArrayStride, len(b.Attributes), x.stride, len(x.offsets))
		}
		for j, a := range b.Attributes {
			if a.Offset != x.offsets[j] || a.ShaderLocation != x.locs[j] {
				t.Errorf("buffers[%d].Attributes[%d]\nhave %d@%d\nwant %d@%d", i, j, a.ShaderLocation, a.Offset, x.locs[j], x.offsets[j])
			}
		}
	}

	elems[3].Format = driver.D24unS8ui
	if _, err := tDev.NewInputAssemblyState(driver.TTriangle, elems); !driver.IsUnsupported(err) {
		t.Fatalf("tDev.NewInputAssemblyState (depth format)\nhave %v\nwant *driver.UnsupportedError", err)
	}
	if _, err := tDev.NewInputAssemblyState(driver.TTriStrip+1, elems[:1]); !driver.IsUnsupported(err) {
		t.Fatalf("tDev.NewInputAssemblyState (bad topology)\nhave %v\nwant *driver.UnsupportedError", err)
	}
}

func TestResourceLayout(t *testing.T) {
	desc, err := driver.NewLayoutDesc(
		[]driver.ResourceElement{
			{Type: driver.DConstant, Register: 0},
			{Type: driver.DTexture, Register: 0, Count: 2},
			{Type: driver.DStorageBuffer, Register: 0, Space: 1},
		},
		[]driver.SamplerElement{{Register: 0}},
		&driver.Constant32Bits{Register: 1, Count: 4, Stages: driver.SVertex},
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
		t.Fatal("l.Desc(): not the creating description")
	}
	groups := l.(*resourceLayout).groups
	var bindings []uint32
	for _, e := range groups[0] {
		bindings = append(bindings, e.Binding)
	}
	want := []uint32{cbvShift, srvShift, srvShift + 1, samplerShift, cbvShift + 1}
	if len(bindings) != len(want) {
		t.Fatalf("groups[0] bindings\nhave %v\nwant %v", bindings, want)
	}
	for i := range want {
		if bindings[i] != want[i] {
			t.Fatalf("groups[0] bindings\nhave %v\nwant %v", bindings, want)
		}
	}
	if g := groups[1]; len(g) != 1 || g[0].Binding != uavShift || g[0].Buffer == nil {
		t.Fatalf("groups[1]\nhave %+v\nwant one storage buffer at %d", g, uavShift)
	}
	if v := groups[0][4].Visibility; v != gputypes.ShaderStageVertex {
		t.Fatalf("constant visibility\nhave %v\nwant %v", v, gputypes.ShaderStageVertex)
	}

	desc, _ = driver.NewLayoutDesc([]driver.ResourceElement{{Type: driver.DBuffer, Register: maxRegister}}, nil, nil)
	if _, err := tDev.NewResourceLayout(desc, "large"); !driver.IsRange(err) {
		t.Fatalf("tDev.NewResourceLayout (large register)\nhave %v\nwant *driver.RangeError", err)
	}
}
