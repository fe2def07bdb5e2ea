// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wgpu

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gviegas/rhi/driver"
)

// sampler implements driver.Sampler.
type sampler struct {
	object
	info driver.SamplerInfo
	spl  *wgpu.Sampler
}

// NewSampler creates a new sampler.
func (d *Device) NewSampler(info *driver.SamplerInfo, name string) (driver.Sampler, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	desc, err := samplerDesc(info, name)
	if err != nil {
		return nil, &driver.CreateError{Object: "sampler", Name: name, Err: err}
	}
	spl, err := d.dev.CreateSampler(&desc)
	if err != nil {
		return nil, &driver.CreateError{Object: "sampler", Name: name, Err: err}
	}
	s := &sampler{info: *info, spl: spl}
	s.track(d, s, name)
	return s, nil
}

// samplerDesc creates the native sampler description.
// The LOD bias and border color have no WebGPU
// counterpart and are ignored.
func samplerDesc(info *driver.SamplerInfo, name string) (desc wgpu.SamplerDescriptor, err error) {
	desc.Label = name
	if desc.AddressModeU, err = convAddrMode(info.AddrU); err != nil {
		return
	}
	if desc.AddressModeV, err = convAddrMode(info.AddrV); err != nil {
		return
	}
	if desc.AddressModeW, err = convAddrMode(info.AddrW); err != nil {
		return
	}
	if desc.MagFilter, err = convFilter(info.Filter, driver.FMagLinear); err != nil {
		return
	}
	if desc.MinFilter, err = convFilter(info.Filter, driver.FMinLinear); err != nil {
		return
	}
	if desc.MipmapFilter, err = convMipFilter(info.Filter); err != nil {
		return
	}
	if info.Filter&driver.FComparison != 0 {
		if desc.Compare, err = convCmpFunc(info.Cmp); err != nil {
			return
		}
	}
	desc.MaxAnisotropy = 1
	if info.Filter&driver.FAnisotropic != 0 {
		desc.MaxAnisotropy = uint16(min(max(info.MaxAniso, 1), 16))
	}
	desc.LodMinClamp = info.MinLOD
	desc.LodMaxClamp = max(info.MaxLOD, info.MinLOD)
	return
}

// Info returns the sampler description.
func (s *sampler) Info() driver.SamplerInfo { return s.info }

// Destroy destroys the sampler.
func (s *sampler) Destroy() {
	if s == nil || s.d == nil {
		return
	}
	s.untrack()
	s.spl.Release()
	*s = sampler{}
}
