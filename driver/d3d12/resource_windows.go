// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build amd64 || arm64

package d3d12

import (
	"unsafe"

	"github.com/gviegas/rhi/driver"
)

// buffer implements driver.Buffer.
// Every buffer is a committed resource.
type buffer struct {
	object
	meta driver.BufferMeta
	res  *iResource
	heap heapType
	p    []byte
}

// NewBuffer creates a new buffer.
func (d *Device) NewBuffer(meta *driver.BufferMeta, name string) (driver.Buffer, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	desc, heap, err := bufferDesc(meta)
	if err != nil {
		return nil, &driver.CreateError{Object: "buffer", Name: name, Err: err}
	}
	hp := heapProperties{Type: heap}
	res, err := d.dev.createCommittedResource(&hp, &desc, bufferState(heap))
	if err != nil {
		return nil, &driver.CreateError{Object: "buffer", Name: name, Err: d.fatal(err)}
	}
	b := &buffer{meta: *meta, res: res, heap: heap}
	b.meta.InitData = nil
	b.track(d, b, &res.unknown, name)
	d.log.Debug("buffer created", "name", name, "size", meta.ByteSize, "heap", meta.Heap)
	if meta.InitData == nil {
		return b, nil
	}
	if meta.Heap.Visible() {
		err = b.Pack(meta.InitData, nil)
	} else {
		err = driver.PackNow(d, b, meta.InitData)
	}
	if err != nil {
		b.Destroy()
		return nil, &driver.CreateError{Object: "buffer", Name: name, Err: err}
	}
	return b, nil
}

// Meta returns the buffer description.
func (b *buffer) Meta() driver.BufferMeta { return b.meta }

// Pack uploads data to the start of the buffer.
func (b *buffer) Pack(data []byte, cl driver.CmdList) error {
	if len(data) > b.meta.ByteSize {
		return &driver.RangeError{Op: "Pack", Index: len(data), Len: b.meta.ByteSize + 1}
	}
	if b.heap != heapDefault {
		if len(b.p) != 0 {
			copy(b.p, data)
			return nil
		}
		return driver.WithMapping(b, func(p []byte) error {
			copy(p, data)
			return nil
		})
	}
	if len(data) == 0 {
		return nil
	}
	stg := driver.UploadBuffer(len(data), 1, data)
	s, err := b.d.NewBuffer(&stg, b.name+" (staging)")
	if err != nil {
		return err
	}
	cl.CopyBuffer(b, 0, s, 0, int64(len(data)))
	cl.Retain(s)
	return nil
}

// CopyStart maps the buffer.
// Mapping a buffer that is mapped already has no effect.
func (b *buffer) CopyStart() error {
	if b.heap == heapDefault {
		return driver.ErrNotMappable
	}
	if len(b.p) != 0 {
		return nil
	}
	// Upload heaps are never read by the CPU.
	var read *byteRange
	if b.heap == heapUpload {
		read = &byteRange{}
	}
	p, err := b.res.mapMemory(read)
	if err != nil {
		return b.d.fatal(err)
	}
	b.p = unsafe.Slice((*byte)(p), b.meta.ByteSize)
	return nil
}

// CopyData writes one element.
func (b *buffer) CopyData(index int, elem []byte) error {
	if len(b.p) == 0 {
		return driver.ErrNotMapped
	}
	off, err := b.meta.ElemRange(index, len(elem))
	if err != nil {
		return err
	}
	copy(b.p[off:], elem)
	return nil
}

// CopyEnd unmaps the buffer.
func (b *buffer) CopyEnd() {
	if len(b.p) != 0 {
		b.res.unmap()
		b.p = nil
	}
}

// Mapped returns the mapped memory.
func (b *buffer) Mapped() []byte {
	if len(b.p) == 0 {
		return nil
	}
	return b.p
}

// CopyTotalData writes length elements from data.
func (b *buffer) CopyTotalData(data []byte, length, indexOffset int) error {
	off, n, err := b.meta.TotalRange(len(data), length, indexOffset)
	if err != nil {
		return err
	}
	return driver.WithMapping(b, func(p []byte) error {
		copy(p[off:off+n], data)
		return nil
	})
}

// Destroy destroys the buffer.
func (b *buffer) Destroy() {
	if b == nil || b.d == nil {
		return
	}
	b.untrack()
	b.CopyEnd()
	b.res.release()
	*b = buffer{}
}

// texture implements driver.Texture.
// Owned textures are placed resources, each in its own
// heap.
type texture struct {
	object
	meta driver.TextureMeta
	heap *iHeap
	res  *iResource
	// Format of the resource, which may be typeless.
	f dxgiFormat
	// State of every subresource, as of the last
	// recorded command.
	state resourceStates
	owns  bool
}

// NewTexture creates a new texture.
// The heap is created with the size and alignment that
// the device reports for the resource description, and
// the resource is then placed at offset 0.
func (d *Device) NewTexture(meta *driver.TextureMeta, name string) (driver.Texture, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	t, err := d.newTexture(meta)
	if err != nil {
		return nil, &driver.CreateError{Object: "texture", Name: name, Err: err}
	}
	t.track(d, t, &t.res.unknown, name)
	d.log.Debug("texture created", "name", name, "type", meta.Type, "format", meta.Format)
	return t, nil
}

func (d *Device) newTexture(meta *driver.TextureMeta) (*texture, error) {
	desc, err := textureDesc(meta, &d.adp.lim)
	if err != nil {
		return nil, err
	}
	info := d.dev.resourceAllocationInfo(&desc)
	if info.SizeInBytes == ^uint64(0) {
		return nil, driver.Unsupported("texture", meta.Type)
	}
	heap, err := d.dev.createHeap(&heapDesc{
		SizeInBytes: info.SizeInBytes,
		Properties:  heapProperties{Type: heapDefault},
		Alignment:   info.Alignment,
		Flags:       textureHeapFlags(meta.Usage),
	})
	if err != nil {
		return nil, d.fatal(err)
	}
	cf, _ := convPixelFmt(meta.Format)
	res, err := d.dev.createPlacedResource(heap, &desc, stateCommon, optimizedClear(meta, cf))
	if err != nil {
		heap.release()
		return nil, d.fatal(err)
	}
	return &texture{
		meta:  *meta,
		heap:  heap,
		res:   res,
		f:     desc.Format,
		state: stateCommon,
		owns:  true,
	}, nil
}

// WrapTexture creates a driver.Texture from an existing
// resource, such as a swap chain buffer.
// The texture does not own res: Destroy will not release
// it. state is the current state of res.
func WrapTexture(d *Device, meta *driver.TextureMeta, res uintptr, state driver.ResourceState, name string) (driver.Texture, error) {
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
	st, err := convState(state)
	if err != nil {
		return nil, &driver.CreateError{Object: "texture", Name: name, Err: err}
	}
	t := &texture{
		meta:  *meta,
		res:   (*iResource)(unsafe.Pointer(res)),
		f:     f,
		state: st,
	}
	t.track(d, t, nil, name)
	d.log.Debug("texture wrapped", "name", name)
	return t, nil
}

// Meta returns the texture description.
func (t *texture) Meta() driver.TextureMeta { return t.meta }

// Owned returns whether the texture owns its resource.
func (t *texture) Owned() bool { return t.owns }

// Pack uploads mip level 0 of every layer.
// The staging buffer is laid out with the row pitch and
// placement alignment that the copy requires.
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
	fps, size := copyLayout(&t.meta, t.f)
	stg := driver.UploadBuffer(size, 1, nil)
	s, err := t.d.NewBuffer(&stg, t.name+" (staging)")
	if err != nil {
		return err
	}
	err = driver.WithMapping(s, func(p []byte) error {
		repitch(p, data, &t.meta, fps)
		return nil
	})
	if err != nil {
		s.Destroy()
		return err
	}
	cl.(*cmdList).copyFootprints(t, s.(*buffer), fps)
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
		t.res.release()
		t.heap.release()
	}
	*t = texture{}
}

// sampler implements driver.Sampler.
// The descriptor lives in a CPU-only heap, from where it
// is copied into shader-visible heaps for binding.
type sampler struct {
	object
	info   driver.SamplerInfo
	desc   samplerDesc
	slot   int
	handle uintptr
}

// NewSampler creates a new sampler.
func (d *Device) NewSampler(info *driver.SamplerInfo, name string) (driver.Sampler, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	desc, err := newSamplerDesc(info, d.adp.lim.MaxAnisotropy)
	if err != nil {
		return nil, &driver.CreateError{Object: "sampler", Name: name, Err: err}
	}
	i, h, err := d.allocSampler()
	if err != nil {
		return nil, &driver.CreateError{Object: "sampler", Name: name, Err: d.fatal(err)}
	}
	d.dev.createSampler(&desc, h)
	s := &sampler{info: *info, desc: desc, slot: i, handle: h}
	s.track(d, s, nil, name)
	return s, nil
}

// Info returns the sampler description.
func (s *sampler) Info() driver.SamplerInfo { return s.info }

// Destroy destroys the sampler.
func (s *sampler) Destroy() {
	if s == nil || s.d == nil {
		return
	}
	s.untrack()
	s.d.freeSampler(s.slot)
	*s = sampler{}
}

// resourceLayout implements driver.ResourceLayout as a
// root signature.
type resourceLayout struct {
	object
	desc *driver.LayoutDesc
	root rootLayout
	rs   *iRootSignature
}

// NewResourceLayout creates a root signature from desc.
func (d *Device) NewResourceLayout(desc *driver.LayoutDesc, name string) (driver.ResourceLayout, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	root, err := newRootLayout(desc)
	if err != nil {
		return nil, &driver.CreateError{Object: "resource layout", Name: name, Err: err}
	}
	rsd := root.desc()
	blob, err := serializeRootSignature(&rsd)
	if err != nil {
		return nil, &driver.CreateError{Object: "resource layout", Name: name, Err: err}
	}
	rs, err := d.dev.createRootSignature(blob)
	if err != nil {
		return nil, &driver.CreateError{Object: "resource layout", Name: name, Err: d.fatal(err)}
	}
	l := &resourceLayout{desc: desc, root: root, rs: rs}
	l.track(d, l, &rs.unknown, name)
	d.log.Debug("resource layout created", "name", name, "parameters", len(root.params))
	return l, nil
}

// Desc returns the layout description.
func (l *resourceLayout) Desc() *driver.LayoutDesc { return l.desc }

// Destroy destroys the resource layout.
func (l *resourceLayout) Destroy() {
	if l == nil || l.d == nil {
		return
	}
	l.untrack()
	l.rs.release()
	*l = resourceLayout{}
}
