// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/goki/vulkan"

	"github.com/gviegas/rhi/driver"
)

// sampler implements driver.Sampler.
type sampler struct {
	object
	info driver.SamplerInfo
	splr vk.Sampler
}

// NewSampler creates a new sampler.
func (d *Device) NewSampler(info *driver.SamplerInfo, name string) (driver.Sampler, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	ci, err := samplerInfo(info, d.adp.lim.MaxAnisotropy, d.adp.info.Features.Has(driver.FeatAnisotropy))
	if err != nil {
		return nil, &driver.CreateError{Object: "sampler", Name: name, Err: err}
	}
	s := &sampler{info: *info}
	if err := checkResult(vk.CreateSampler(d.dev, &ci, nil, &s.splr)); err != nil {
		return nil, &driver.CreateError{Object: "sampler", Name: name, Err: err}
	}
	s.track(d, s, name)
	return s, nil
}

// samplerInfo creates the VkSamplerCreateInfo for info.
// Anisotropy is clamped to maxAniso and disabled if the
// feature is not present.
func samplerInfo(info *driver.SamplerInfo, maxAniso int, aniso bool) (ci vk.SamplerCreateInfo, err error) {
	magf, err := convFilter(info.Filter, driver.FMagLinear)
	if err != nil {
		return
	}
	minf, err := convFilter(info.Filter, driver.FMinLinear)
	if err != nil {
		return
	}
	mip := vk.SamplerMipmapModeNearest
	if info.Filter.Linear(driver.FMipLinear) {
		mip = vk.SamplerMipmapModeLinear
	}
	var addr [3]vk.SamplerAddressMode
	for i, am := range [3]driver.AddrMode{info.AddrU, info.AddrV, info.AddrW} {
		if addr[i], err = convAddrMode(am); err != nil {
			return
		}
	}
	ci = vk.SamplerCreateInfo{
		SType:        vk.StructureTypeSamplerCreateInfo,
		MagFilter:    magf,
		MinFilter:    minf,
		MipmapMode:   mip,
		AddressModeU: addr[0],
		AddressModeV: addr[1],
		AddressModeW: addr[2],
		MipLodBias:   info.LODBias,
		MinLod:       info.MinLOD,
		MaxLod:       info.MaxLOD,
		BorderColor:  convBorder(info.BorderColor),
	}
	if aniso && info.Filter&driver.FAnisotropic != 0 {
		ci.AnisotropyEnable = vk.True
		ci.MaxAnisotropy = float32(max(1, min(info.MaxAniso, maxAniso)))
	}
	if info.Filter&driver.FComparison != 0 {
		ci.CompareEnable = vk.True
		if ci.CompareOp, err = convCmpFunc(info.Cmp); err != nil {
			return
		}
	}
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
	vk.DestroySampler(s.d.dev, s.splr, nil)
	*s = sampler{}
}

// convFilter converts the stage of f selected by mask to
// a vk.Filter.
func convFilter(f driver.Filter, mask driver.Filter) (vk.Filter, error) {
	if !f.IsValid() {
		return 0, driver.Unsupported("filter", f)
	}
	if f.Linear(mask) {
		return vk.FilterLinear, nil
	}
	return vk.FilterNearest, nil
}

// convAddrMode converts a driver.AddrMode to a
// vk.SamplerAddressMode.
func convAddrMode(am driver.AddrMode) (vk.SamplerAddressMode, error) {
	switch am {
	case driver.AWrap:
		return vk.SamplerAddressModeRepeat, nil
	case driver.AMirror:
		return vk.SamplerAddressModeMirroredRepeat, nil
	case driver.AClamp:
		return vk.SamplerAddressModeClampToEdge, nil
	case driver.ABorder:
		return vk.SamplerAddressModeClampToBorder, nil
	}
	return 0, driver.Unsupported("address mode", am)
}

// convBorder selects the predefined border color closest
// to c. Vulkan has no arbitrary border colors.
func convBorder(c [4]float32) vk.BorderColor {
	switch {
	case c[3] < 0.5:
		return vk.BorderColorFloatTransparentBlack
	case c[0]+c[1]+c[2] < 1.5:
		return vk.BorderColorFloatOpaqueBlack
	}
	return vk.BorderColorFloatOpaqueWhite
}

// convCmpFunc converts a driver.CmpFunc to a
// vk.CompareOp.
func convCmpFunc(cf driver.CmpFunc) (vk.CompareOp, error) {
	switch cf {
	case driver.CNever:
		return vk.CompareOpNever, nil
	case driver.CLess:
		return vk.CompareOpLess, nil
	case driver.CEqual:
		return vk.CompareOpEqual, nil
	case driver.CLessEqual:
		return vk.CompareOpLessOrEqual, nil
	case driver.CGreater:
		return vk.CompareOpGreater, nil
	case driver.CNotEqual:
		return vk.CompareOpNotEqual, nil
	case driver.CGreaterEqual:
		return vk.CompareOpGreaterOrEqual, nil
	case driver.CAlways:
		return vk.CompareOpAlways, nil
	}
	return 0, driver.Unsupported("compare function", cf)
}
