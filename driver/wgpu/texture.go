// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wgpu

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gviegas/rhi/driver"
)

// rowAlign is the alignment of bytesPerRow in copies
// between buffers and textures.
const rowAlign = 256

// texture implements driver.Texture.
type texture struct {
	object
	meta driver.TextureMeta
	tex  *wgpu.Texture
	owns bool
}

// NewTexture creates a new texture.
// WebGPU allocates memory along with the texture.
func (d *Device) NewTexture(meta *driver.TextureMeta, name string) (driver.Texture, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	desc, err := textureDesc(meta, name)
	if err != nil {
		return nil, &driver.CreateError{Object: "texture", Name: name, Err: err}
	}
	tex, err := d.dev.CreateTexture(&desc)
	if err != nil {
		return nil, &driver.CreateError{Object: "texture", Name: name, Err: err}
	}
	t := &texture{meta: *meta, tex: tex, owns: true}
	t.track(d, t, name)
	d.log.Debug("texture created", "name", name, "size", meta.ByteSize)
	return t, nil
}

// WrapTexture creates a texture that refers to tex, such
// as a surface texture. Destroy does not release tex.
func WrapTexture(d *Device, meta *driver.TextureMeta, tex *wgpu.Texture, name string) (driver.Texture, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if err := meta.Validate(); err != nil {
		return nil, &driver.CreateError{Object: "texture", Name: name, Err: err}
	}
	t := &texture{meta: *meta, tex: tex}
	t.track(d, t, name)
	d.log.Debug("texture wrapped", "name", name)
	return t, nil
}

// textureDesc validates meta and creates the native
// texture description.
func textureDesc(meta *driver.TextureMeta, name string) (desc wgpu.TextureDescriptor, err error) {
	if err = meta.Validate(); err != nil {
		return
	}
	if meta.Heap != driver.HDefault {
		err = driver.Unsupported("texture heap", meta.Heap)
		return
	}
	format, err := convPixelFmt(meta.Format)
	if err != nil {
		return
	}
	dim, err := convDimension(meta.Dimension)
	if err != nil {
		return
	}
	desc = wgpu.TextureDescriptor{
		Label:     name,
		Usage:     convTexUsage(meta.Usage),
		Dimension: dim,
		Size: wgpu.Extent3D{
			Width:              uint32(meta.Width),
			Height:             uint32(meta.Height),
			DepthOrArrayLayers: uint32(meta.DepthOrArraySize),
		},
		Format:        format,
		MipLevelCount: uint32(meta.MipLevels),
		SampleCount:   uint32(max(meta.Sample.Count, 1)),
	}
	return
}

// Meta returns the texture description.
func (t *texture) Meta() driver.TextureMeta { return t.meta }

// Owned returns whether t owns its native texture.
func (t *texture) Owned() bool { return t.owns }

// checkCopy checks that mip level 0 of t can be copied
// from a buffer.
func (t *texture) checkCopy() error {
	switch {
	case t.meta.Sample.Count > 1:
		return driver.Unsupported("multisample copy", t.meta.Sample.Count)
	case t.meta.Format.IsDepth():
		return driver.Unsupported("depth/stencil copy", t.meta.Format)
	}
	return nil
}

// pitch returns the row pitch used by Pack.
func (t *texture) pitch() int {
	return driver.AlignUp(t.meta.Width*t.meta.Format.Size(), rowAlign)
}

// Pack uploads mip level 0 of every layer.
// Rows are copied to a staging buffer with a pitch of
// rowAlign bytes.
func (t *texture) Pack(data []byte, cl driver.CmdList) error {
	if err := t.checkCopy(); err != nil {
		return err
	}
	if n := t.meta.Mip0Size(); len(data) != n {
		return &driver.RangeError{Op: "Texture.Pack", Index: len(data), Len: n + 1}
	}
	row := t.meta.Width * t.meta.Format.Size()
	pitch := t.pitch()
	rows := t.meta.Height * t.meta.Depth() * t.meta.LayerCount()
	meta := driver.UploadBuffer(pitch*rows, 1, nil)
	stg, err := t.d.NewBuffer(&meta, t.name+" (staging)")
	if err != nil {
		return err
	}
	err = driver.WithMapping(stg, func(p []byte) error {
		repitch(p, data, row, pitch, rows)
		return nil
	})
	if err != nil {
		stg.Destroy()
		return err
	}
	cl.(*cmdList).copyToTexture(t, stg.(*buffer), 0, pitch)
	cl.Retain(stg)
	return nil
}

// repitch copies rows of size row from tightly packed src
// to dst, whose rows are pitch bytes apart.
func repitch(dst, src []byte, row, pitch, rows int) {
	for i := range rows {
		copy(dst[i*pitch:i*pitch+row], src[i*row:])
	}
}

// Destroy destroys the texture.
// Wrapped textures are not released.
func (t *texture) Destroy() {
	if t == nil || t.d == nil {
		return
	}
	t.untrack()
	if t.owns {
		t.tex.Release()
	}
	*t = texture{}
}
