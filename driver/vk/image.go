// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/goki/vulkan"

	"github.com/gviegas/rhi/driver"
)

// texture implements driver.Texture.
type texture struct {
	object
	meta   driver.TextureMeta
	m      *memory
	img    vk.Image
	vf     vk.Format
	aspect vk.ImageAspectFlagBits
	// Layout of every subresource, as of the last
	// recorded command.
	layout vk.ImageLayout
	owns   bool
}

// NewTexture creates a new texture.
// The image is created unbound, its memory requirements
// are queried and then memory is allocated and bound at
// offset 0.
func (d *Device) NewTexture(meta *driver.TextureMeta, name string) (driver.Texture, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	t, err := d.newTexture(meta)
	if err != nil {
		return nil, &driver.CreateError{Object: "texture", Name: name, Err: err}
	}
	t.track(d, t, name)
	d.log.Debug("texture created", "name", name, "type", meta.Type, "format", meta.Format)
	return t, nil
}

func (d *Device) newTexture(meta *driver.TextureMeta) (t *texture, err error) {
	info, err := imageInfo(meta)
	if err != nil {
		return
	}
	if meta.Type == driver.TexCubeArray && !d.adp.info.Features.Has(driver.FeatCubeArray) {
		return nil, driver.Unsupported("texture", meta.Type)
	}
	t = &texture{
		meta:   *meta,
		vf:     info.Format,
		aspect: aspectOf(meta.Format),
		layout: vk.ImageLayoutUndefined,
		owns:   true,
	}
	if err = checkResult(vk.CreateImage(d.dev, &info, nil, &t.img)); err != nil {
		return nil, err
	}
	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.dev, t.img, &req)
	req.Deref()
	if t.m, err = d.newMemory(req, driver.HDefault); err != nil {
		vk.DestroyImage(d.dev, t.img, nil)
		return nil, err
	}
	if err = checkResult(vk.BindImageMemory(d.dev, t.img, t.m.mem, 0)); err != nil {
		vk.DestroyImage(d.dev, t.img, nil)
		t.m.free()
		return nil, err
	}
	return t, nil
}

// imageInfo creates the VkImageCreateInfo for meta.
func imageInfo(meta *driver.TextureMeta) (info vk.ImageCreateInfo, err error) {
	if err = meta.Validate(); err != nil {
		return
	}
	f, err := convPixelFmt(meta.Format)
	if err != nil {
		return
	}
	typ, err := convDimension(meta.Dimension)
	if err != nil {
		return
	}
	ns, err := convSamples(meta.Sample.Count)
	if err != nil {
		return
	}
	var flags vk.ImageCreateFlagBits
	if meta.Type.IsCube() {
		flags |= vk.ImageCreateCubeCompatibleBit
	}
	info = vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		Flags:     vk.ImageCreateFlags(flags),
		ImageType: typ,
		Format:    f,
		Extent: vk.Extent3D{
			Width:  uint32(meta.Width),
			Height: uint32(meta.Height),
			Depth:  uint32(meta.Depth()),
		},
		MipLevels:     uint32(meta.MipLevels),
		ArrayLayers:   uint32(meta.LayerCount()),
		Samples:       ns,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(convImgUsage(meta.Usage, meta.Format)),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	return
}

// WrapTexture creates a driver.Texture from an existing
// image, such as a swapchain image.
// The texture does not own img: Destroy will not destroy
// it nor free its memory.
func WrapTexture(d *Device, meta *driver.TextureMeta, img vk.Image, name string) (driver.Texture, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if err := meta.Validate(); err != nil {
		return nil, &driver.CreateError{Object: "texture", Name: name, Err: err}
	}
	f, err := convPixelFmt(meta.Format)
	if err != nil {
		return nil, &driver.CreateError{Object: "texture", Name: name, Err: err}
	}
	t := &texture{
		meta:   *meta,
		img:    img,
		vf:     f,
		aspect: aspectOf(meta.Format),
		layout: vk.ImageLayoutUndefined,
	}
	t.track(d, t, name)
	d.log.Debug("texture wrapped", "name", name)
	return t, nil
}

// Meta returns the texture description.
func (t *texture) Meta() driver.TextureMeta { return t.meta }

// Owned returns whether the texture owns its image.
func (t *texture) Owned() bool { return t.owns }

// Pack uploads mip level 0 of every layer.
func (t *texture) Pack(data []byte, cl driver.CmdList) error {
	if t.meta.Sample.Count > 1 {
		return driver.Unsupported("multisample copy", t.meta.Sample.Count)
	}
	if t.meta.Format.HasStencil() {
		return driver.Unsupported("depth/stencil copy", t.meta.Format)
	}
	if n := t.meta.Mip0Size(); len(data) != n {
		return &driver.RangeError{Op: "Texture.Pack", Index: len(data), Len: n}
	}
	stg := driver.UploadBuffer(len(data), 1, data)
	s, err := t.d.NewBuffer(&stg, t.name+" (staging)")
	if err != nil {
		return err
	}
	cl.CopyBufferToTexture(t, s, 0)
	cl.Retain(s)
	return nil
}

// Destroy destroys the texture.
func (t *texture) Destroy() {
	if t == nil || t.d == nil {
		return
	}
	t.untrack()
	if t.owns {
		vk.DestroyImage(t.d.dev, t.img, nil)
		t.m.free()
	}
	*t = texture{}
}

// convPixelFmt converts a driver.PixelFormat to a
// vk.Format.
func convPixelFmt(pf driver.PixelFormat) (vk.Format, error) {
	switch pf {
	case driver.RGBA8un:
		return vk.FormatR8g8b8a8Unorm, nil
	case driver.RGBA8n:
		return vk.FormatR8g8b8a8Snorm, nil
	case driver.RGBA8ui:
		return vk.FormatR8g8b8a8Uint, nil
	case driver.RGBA8sRGB:
		return vk.FormatR8g8b8a8Srgb, nil
	case driver.BGRA8un:
		return vk.FormatB8g8r8a8Unorm, nil
	case driver.BGRA8sRGB:
		return vk.FormatB8g8r8a8Srgb, nil
	case driver.RG8un:
		return vk.FormatR8g8Unorm, nil
	case driver.R8un:
		return vk.FormatR8Unorm, nil
	case driver.RGBA16f:
		return vk.FormatR16g16b16a16Sfloat, nil
	case driver.RG16f:
		return vk.FormatR16g16Sfloat, nil
	case driver.R16f:
		return vk.FormatR16Sfloat, nil
	case driver.R16ui:
		return vk.FormatR16Uint, nil
	case driver.RGBA32f:
		return vk.FormatR32g32b32a32Sfloat, nil
	case driver.RGB32f:
		return vk.FormatR32g32b32Sfloat, nil
	case driver.RG32f:
		return vk.FormatR32g32Sfloat, nil
	case driver.R32f:
		return vk.FormatR32Sfloat, nil
	case driver.RGBA32ui:
		return vk.FormatR32g32b32a32Uint, nil
	case driver.R32ui:
		return vk.FormatR32Uint, nil
	case driver.D16un:
		return vk.FormatD16Unorm, nil
	case driver.D24unS8ui:
		return vk.FormatD24UnormS8Uint, nil
	case driver.D32f:
		return vk.FormatD32Sfloat, nil
	case driver.D32fS8ui:
		return vk.FormatD32SfloatS8Uint, nil
	}
	return vk.FormatUndefined, driver.Unsupported("pixel format", pf)
}

// convDimension converts a driver.Dimension to a
// vk.ImageType.
func convDimension(dim driver.Dimension) (vk.ImageType, error) {
	switch dim {
	case driver.Dim1D:
		return vk.ImageType1d, nil
	case driver.Dim2D:
		return vk.ImageType2d, nil
	case driver.Dim3D:
		return vk.ImageType3d, nil
	}
	return 0, driver.Unsupported("dimension", dim)
}

// convSamples converts a sample count to a
// vk.SampleCountFlagBits.
func convSamples(ns int) (vk.SampleCountFlagBits, error) {
	switch ns {
	case 0, 1:
		return vk.SampleCount1Bit, nil
	case 2:
		return vk.SampleCount2Bit, nil
	case 4:
		return vk.SampleCount4Bit, nil
	case 8:
		return vk.SampleCount8Bit, nil
	case 16:
		return vk.SampleCount16Bit, nil
	case 32:
		return vk.SampleCount32Bit, nil
	case 64:
		return vk.SampleCount64Bit, nil
	}
	return 0, driver.Unsupported("sample count", ns)
}

// convImgUsage converts a driver.Usage to image usage
// flags. Copies are always allowed.
func convImgUsage(usg driver.Usage, pf driver.PixelFormat) vk.ImageUsageFlagBits {
	flags := vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit
	if usg&driver.UShaderResource != 0 {
		flags |= vk.ImageUsageSampledBit
	}
	if usg&driver.UUnorderedAccess != 0 {
		flags |= vk.ImageUsageStorageBit
	}
	if usg&(driver.URenderTarget|driver.UDepthStencil) != 0 {
		if pf.IsDepth() {
			flags |= vk.ImageUsageDepthStencilAttachmentBit
		} else {
			flags |= vk.ImageUsageColorAttachmentBit
		}
	}
	return flags
}

// aspectOf returns the image aspect used to copy to an
// image of format pf.
func aspectOf(pf driver.PixelFormat) vk.ImageAspectFlagBits {
	if pf.IsDepth() {
		return vk.ImageAspectDepthBit
	}
	return vk.ImageAspectColorBit
}

// convFormatFeature converts format features of optimal
// tiling images and of buffers.
func convFormatFeature(img, buf vk.FormatFeatureFlagBits) (f driver.FormatFeature) {
	for _, x := range [...]struct {
		bit vk.FormatFeatureFlagBits
		f   driver.FormatFeature
	}{
		{vk.FormatFeatureSampledImageBit, driver.FmtSampled},
		{vk.FormatFeatureSampledImageFilterLinearBit, driver.FmtFilter},
		{vk.FormatFeatureColorAttachmentBit, driver.FmtRenderTarget},
		{vk.FormatFeatureColorAttachmentBlendBit, driver.FmtBlend},
		{vk.FormatFeatureDepthStencilAttachmentBit, driver.FmtDepthStencil},
		{vk.FormatFeatureStorageImageBit, driver.FmtStorage},
	} {
		if img&x.bit != 0 {
			f |= x.f
		}
	}
	if buf&vk.FormatFeatureVertexBufferBit != 0 {
		f |= driver.FmtVertex
	}
	return
}
