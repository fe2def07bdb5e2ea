// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"github.com/gogpu/gputypes"

	"github.com/gviegas/rhi/driver"
)

// texture implements driver.Texture.
// Memory is laid out by layer, with the mip levels of
// each layer stored consecutively.
type texture struct {
	object
	meta driver.TextureMeta
	desc gputypes.TextureDescriptor
	data []byte
	// Byte size of one layer, including every mip level
	// and sample.
	layerSize int
	owns      bool
}

func (d *Device) newTexture(meta *driver.TextureMeta, name string) (*texture, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if err := meta.Validate(); err != nil {
		return nil, &driver.CreateError{Object: "texture", Name: name, Err: err}
	}
	format, err := convPixelFmt(meta.Format)
	if err != nil {
		return nil, &driver.CreateError{Object: "texture", Name: name, Err: err}
	}
	dim, err := convDimension(meta.Dimension)
	if err != nil {
		return nil, &driver.CreateError{Object: "texture", Name: name, Err: err}
	}
	return &texture{
		meta: *meta,
		desc: gputypes.TextureDescriptor{
			Label: name,
			Size: gputypes.Extent3D{
				Width:              uint32(meta.Width),
				Height:             uint32(meta.Height),
				DepthOrArrayLayers: uint32(meta.DepthOrArraySize),
			},
			MipLevelCount: uint32(meta.MipLevels),
			SampleCount:   uint32(meta.Sample.Count),
			Dimension:     dim,
			Format:        format,
			Usage:         convTexUsage(meta.Usage),
		},
		layerSize: meta.ByteSize / meta.LayerCount(),
	}, nil
}

// NewTexture creates a new texture.
func (d *Device) NewTexture(meta *driver.TextureMeta, name string) (driver.Texture, error) {
	t, err := d.newTexture(meta, name)
	if err != nil {
		return nil, err
	}
	t.data = make([]byte, meta.ByteSize)
	t.owns = true
	t.track(d, t, name)
	d.log.Debug("texture created", "name", name, "size", meta.ByteSize)
	return t, nil
}

// WrapTexture creates a texture that refers to external
// memory. The texture does not own data, which must have
// length meta.ByteSize.
func (d *Device) WrapTexture(meta *driver.TextureMeta, data []byte, name string) (driver.Texture, error) {
	t, err := d.newTexture(meta, name)
	if err != nil {
		return nil, err
	}
	if len(data) != meta.ByteSize {
		err = &driver.RangeError{Op: "WrapTexture data", Index: len(data), Len: meta.ByteSize + 1}
		return nil, &driver.CreateError{Object: "texture", Name: name, Err: err}
	}
	t.data = data
	t.track(d, t, name)
	d.log.Debug("texture wrapped", "name", name)
	return t, nil
}

// Meta returns the texture description.
func (t *texture) Meta() driver.TextureMeta { return t.meta }

// Owned returns whether t owns its memory.
func (t *texture) Owned() bool { return t.owns }

// SetName sets the debug name.
func (t *texture) SetName(name string) {
	t.object.SetName(name)
	t.desc.Label = name
}

// Pack uploads mip level 0 of every layer.
func (t *texture) Pack(data []byte, cl driver.CmdList) error {
	if err := t.live(); err != nil {
		return err
	}
	if t.meta.Sample.Count > 1 {
		return driver.Unsupported("multisample copy", t.meta.Sample.Count)
	}
	if n := t.meta.Mip0Size(); len(data) != n {
		return &driver.RangeError{Op: "Pack", Index: len(data), Len: n + 1}
	}
	meta := driver.UploadBuffer(len(data), 1, data)
	stg, err := t.d.NewBuffer(&meta, t.name+" (staging)")
	if err != nil {
		return err
	}
	cl.CopyBufferToTexture(t, stg, 0)
	cl.Retain(stg)
	return nil
}

// copyFrom copies mip level 0 of every layer from
// tightly packed src.
func (t *texture) copyFrom(src []byte) {
	n := t.meta.Mip0Size() / t.meta.LayerCount()
	for i := range t.meta.LayerCount() {
		copy(t.data[i*t.layerSize:i*t.layerSize+n], src[i*n:])
	}
}

// Destroy destroys the texture.
// Memory of wrapped textures is not touched.
func (t *texture) Destroy() {
	if t == nil || t.d == nil {
		return
	}
	t.untrack()
	*t = texture{}
}
