// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/goki/vulkan"

	"github.com/gviegas/rhi/driver"
)

// Binding number offsets of each register class.
// A descriptor set has a single binding namespace, so
// register classes are shifted apart in the same way
// that HLSL compilers do for SPIR-V.
const (
	maxRegister  = 64
	cbvShift     = 0
	srvShift     = 64
	uavShift     = 128
	samplerShift = 192
)

// resourceLayout implements driver.ResourceLayout.
// It holds one descriptor set layout per register space
// and the pipeline layout that combines them.
type resourceLayout struct {
	object
	desc  *driver.LayoutDesc
	sets  []vk.DescriptorSetLayout
	pl    vk.PipelineLayout
	push  []vk.PushConstantRange
	binds [][]vk.DescriptorSetLayoutBinding
}

// NewResourceLayout creates a new resource layout.
func (d *Device) NewResourceLayout(desc *driver.LayoutDesc, name string) (driver.ResourceLayout, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	binds, push, err := convLayout(desc)
	if err != nil {
		return nil, &driver.CreateError{Object: "resource layout", Name: name, Err: err}
	}
	l := &resourceLayout{desc: desc, binds: binds, push: push}
	if err := l.create(d); err != nil {
		return nil, &driver.CreateError{Object: "resource layout", Name: name, Err: err}
	}
	l.track(d, l, name)
	d.log.Debug("resource layout created", "name", name, "sets", len(l.sets))
	return l, nil
}

// create creates the native layouts. On failure, every
// layout created so far is destroyed.
func (l *resourceLayout) create(d *Device) (err error) {
	l.sets = make([]vk.DescriptorSetLayout, 0, len(l.binds))
	defer func() {
		if err != nil {
			for _, s := range l.sets {
				vk.DestroyDescriptorSetLayout(d.dev, s, nil)
			}
			l.sets = nil
		}
	}()
	for _, b := range l.binds {
		info := vk.DescriptorSetLayoutCreateInfo{
			SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
			BindingCount: uint32(len(b)),
			PBindings:    b,
		}
		var s vk.DescriptorSetLayout
		if err = checkResult(vk.CreateDescriptorSetLayout(d.dev, &info, nil, &s)); err != nil {
			return
		}
		l.sets = append(l.sets, s)
	}
	info := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(l.sets)),
		PSetLayouts:            l.sets,
		PushConstantRangeCount: uint32(len(l.push)),
		PPushConstantRanges:    l.push,
	}
	return checkResult(vk.CreatePipelineLayout(d.dev, &info, nil, &l.pl))
}

// Desc returns the layout description.
func (l *resourceLayout) Desc() *driver.LayoutDesc { return l.desc }

// Destroy destroys the resource layout.
func (l *resourceLayout) Destroy() {
	if l == nil || l.d == nil {
		return
	}
	l.untrack()
	vk.DestroyPipelineLayout(l.d.dev, l.pl, nil)
	for _, s := range l.sets {
		vk.DestroyDescriptorSetLayout(l.d.dev, s, nil)
	}
	*l = resourceLayout{}
}

// convLayout converts a driver.LayoutDesc to descriptor
// set layout bindings, indexed by register space, and to
// a push constant range.
// Spaces with no bindings produce empty set layouts, so
// that set numbers match register spaces.
func convLayout(desc *driver.LayoutDesc) (sets [][]vk.DescriptorSetLayoutBinding, push []vk.PushConstantRange, err error) {
	add := func(space int, b vk.DescriptorSetLayoutBinding) {
		for len(sets) <= space {
			sets = append(sets, nil)
		}
		sets[space] = append(sets[space], b)
	}
	for _, r := range desc.Elements() {
		if r.Register+r.Count > maxRegister {
			return nil, nil, &driver.RangeError{Op: "binding register", Index: r.Register + r.Count - 1, Len: maxRegister}
		}
		typ, shift, err := convDescType(r.Type)
		if err != nil {
			return nil, nil, err
		}
		add(r.Space, vk.DescriptorSetLayoutBinding{
			Binding:         uint32(shift + r.Register),
			DescriptorType:  typ,
			DescriptorCount: uint32(r.Count),
			StageFlags:      vk.ShaderStageFlags(convStage(r.Stages)),
		})
	}
	for _, s := range desc.Samplers() {
		if s.Register+s.Count > maxRegister {
			return nil, nil, &driver.RangeError{Op: "binding register", Index: s.Register + s.Count - 1, Len: maxRegister}
		}
		add(s.Space, vk.DescriptorSetLayoutBinding{
			Binding:         uint32(samplerShift + s.Register),
			DescriptorType:  vk.DescriptorTypeSampler,
			DescriptorCount: uint32(s.Count),
			StageFlags:      vk.ShaderStageFlags(convStage(s.Stages)),
		})
	}
	if c, ok := desc.Constant(); ok {
		push = []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(convStage(c.Stages)),
			Offset:     0,
			Size:       uint32(c.Count * 4),
		}}
	}
	return
}

// convDescType converts a driver.DescType to a
// vk.DescriptorType and its binding shift.
func convDescType(t driver.DescType) (vk.DescriptorType, int, error) {
	switch t {
	case driver.DConstant:
		return vk.DescriptorTypeUniformBuffer, cbvShift, nil
	case driver.DBuffer:
		return vk.DescriptorTypeStorageBuffer, srvShift, nil
	case driver.DStorageBuffer:
		return vk.DescriptorTypeStorageBuffer, uavShift, nil
	case driver.DTexture:
		return vk.DescriptorTypeSampledImage, srvShift, nil
	case driver.DStorageTexture:
		return vk.DescriptorTypeStorageImage, uavShift, nil
	}
	return 0, 0, driver.Unsupported("descriptor", t)
}

// convStage converts a driver.Stage to shader stage
// flags.
func convStage(stg driver.Stage) (flags vk.ShaderStageFlagBits) {
	if stg&driver.SVertex != 0 {
		flags |= vk.ShaderStageVertexBit
	}
	if stg&driver.SFragment != 0 {
		flags |= vk.ShaderStageFragmentBit
	}
	if stg&driver.SCompute != 0 {
		flags |= vk.ShaderStageComputeBit
	}
	return
}
