// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"github.com/gogpu/gputypes"

	"github.com/gviegas/rhi/driver"
)

// samplerDesc is the native sampler description.
type samplerDesc struct {
	addrU, addrV, addrW gputypes.AddressMode
	mag, min, mip       gputypes.FilterMode
	lodMin, lodMax      float32
	// Zero when comparison is disabled.
	cmp      gputypes.CompareFunction
	maxAniso uint16
}

// sampler implements driver.Sampler.
type sampler struct {
	object
	info driver.SamplerInfo
	desc samplerDesc
}

// NewSampler creates a new sampler.
func (d *Device) NewSampler(info *driver.SamplerInfo, name string) (driver.Sampler, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	desc, err := convSampler(info)
	if err != nil {
		return nil, &driver.CreateError{Object: "sampler", Name: name, Err: err}
	}
	s := &sampler{info: *info, desc: desc}
	s.track(d, s, name)
	return s, nil
}

func convSampler(info *driver.SamplerInfo) (desc samplerDesc, err error) {
	if desc.addrU, err = convAddrMode(info.AddrU); err != nil {
		return
	}
	if desc.addrV, err = convAddrMode(info.AddrV); err != nil {
		return
	}
	if desc.addrW, err = convAddrMode(info.AddrW); err != nil {
		return
	}
	if desc.mag, err = convFilter(info.Filter, driver.FMagLinear); err != nil {
		return
	}
	if desc.min, err = convFilter(info.Filter, driver.FMinLinear); err != nil {
		return
	}
	if desc.mip, err = convFilter(info.Filter, driver.FMipLinear); err != nil {
		return
	}
	if info.Filter&driver.FComparison != 0 {
		if desc.cmp, err = convCmpFunc(info.Cmp); err != nil {
			return
		}
	}
	desc.maxAniso = 1
	if info.Filter&driver.FAnisotropic != 0 {
		desc.maxAniso = uint16(min(max(info.MaxAniso, 1), 16))
	}
	desc.lodMin = info.MinLOD
	desc.lodMax = info.MaxLOD
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
	*s = sampler{}
}
