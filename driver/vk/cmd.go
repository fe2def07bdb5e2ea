// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"errors"
	"math"

	vk "github.com/goki/vulkan"

	"github.com/gviegas/rhi/driver"
)

// cmdList implements driver.CmdList.
// Each command list has its own pool, so that lists can
// be recorded concurrently.
type cmdList struct {
	object
	pool      vk.CommandPool
	cb        vk.CommandBuffer
	retained  []driver.Destroyer
	recording bool
	// First error found during recording.
	err error
}

// NewCmdList creates a new command list.
func (d *Device) NewCmdList() (driver.CmdList, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	cl := &cmdList{}
	pinfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: d.adp.qfam,
	}
	if err := checkResult(vk.CreateCommandPool(d.dev, &pinfo, nil, &cl.pool)); err != nil {
		return nil, &driver.CreateError{Object: "command list", Err: err}
	}
	ainfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        cl.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	cbs := make([]vk.CommandBuffer, 1)
	if err := checkResult(vk.AllocateCommandBuffers(d.dev, &ainfo, cbs)); err != nil {
		vk.DestroyCommandPool(d.dev, cl.pool, nil)
		return nil, &driver.CreateError{Object: "command list", Err: err}
	}
	cl.cb = cbs[0]
	cl.track(d, cl, "")
	return cl, nil
}

// Begin prepares the command list for recording.
func (cl *cmdList) Begin() error {
	if cl.recording {
		return errors.New("vk: command list already recording")
	}
	if err := checkResult(vk.ResetCommandBuffer(cl.cb, 0)); err != nil {
		return err
	}
	info := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := checkResult(vk.BeginCommandBuffer(cl.cb, &info)); err != nil {
		return err
	}
	cl.recording = true
	cl.err = nil
	return nil
}

// setErr records err if no error was recorded yet.
func (cl *cmdList) setErr(err error) {
	if cl.err == nil {
		cl.err = err
	}
}

// CopyBuffer records a buffer copy.
// Invalid ranges are reported by End.
func (cl *cmdList) CopyBuffer(dst driver.Buffer, dstOff int64, src driver.Buffer, srcOff, size int64) {
	d := dst.(*buffer)
	s := src.(*buffer)
	if n := int64(d.meta.ByteSize); dstOff < 0 || size < 0 || dstOff+size > n {
		cl.setErr(&driver.RangeError{Op: "CopyBuffer dst", Index: int(dstOff + size), Len: int(n) + 1})
		return
	}
	if n := int64(s.meta.ByteSize); srcOff < 0 || srcOff+size > n {
		cl.setErr(&driver.RangeError{Op: "CopyBuffer src", Index: int(srcOff + size), Len: int(n) + 1})
		return
	}
	if size == 0 {
		return
	}
	vk.CmdCopyBuffer(cl.cb, s.buf, d.buf, 1, []vk.BufferCopy{{
		SrcOffset: vk.DeviceSize(srcOff),
		DstOffset: vk.DeviceSize(dstOff),
		Size:      vk.DeviceSize(size),
	}})
}

// CopyBufferToTexture records a buffer to texture copy.
// The texture is transitioned to a transfer layout for the
// copy and then to a shader read layout if it can be
// sampled.
func (cl *cmdList) CopyBufferToTexture(dst driver.Texture, src driver.Buffer, srcOff int64) {
	t := dst.(*texture)
	s := src.(*buffer)
	if t.meta.Format.HasStencil() {
		cl.setErr(driver.Unsupported("depth/stencil copy", t.meta.Format))
		return
	}
	if n := int64(t.meta.Mip0Size()); srcOff < 0 || srcOff+n > int64(s.meta.ByteSize) {
		cl.setErr(&driver.RangeError{Op: "CopyBufferToTexture src", Index: int(srcOff + n), Len: s.meta.ByteSize + 1})
		return
	}
	layers := uint32(t.meta.LayerCount())
	cl.transition(t, vk.ImageLayoutTransferDstOptimal, layers)
	vk.CmdCopyBufferToImage(cl.cb, s.buf, t.img, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
		BufferOffset: vk.DeviceSize(srcOff),
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(t.aspect),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     layers,
		},
		ImageExtent: vk.Extent3D{
			Width:  uint32(t.meta.Width),
			Height: uint32(t.meta.Height),
			Depth:  uint32(t.meta.Depth()),
		},
	}})
	if t.meta.Usage&driver.UShaderResource != 0 {
		cl.transition(t, vk.ImageLayoutShaderReadOnlyOptimal, layers)
	}
}

// transition records a layout transition of mip level 0.
func (cl *cmdList) transition(t *texture, layout vk.ImageLayout, layers uint32) {
	srcStg, srcAcc := layoutAccess(t.layout)
	dstStg, dstAcc := layoutAccess(layout)
	vk.CmdPipelineBarrier(cl.cb, vk.PipelineStageFlags(srcStg), vk.PipelineStageFlags(dstStg), 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       vk.AccessFlags(srcAcc),
		DstAccessMask:       vk.AccessFlags(dstAcc),
		OldLayout:           t.layout,
		NewLayout:           layout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               t.img,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(t.aspect),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     layers,
		},
	}})
	t.layout = layout
}

// layoutAccess returns the pipeline stage and access mask
// that synchronize with a given image layout.
func layoutAccess(layout vk.ImageLayout) (vk.PipelineStageFlagBits, vk.AccessFlagBits) {
	switch layout {
	case vk.ImageLayoutTransferDstOptimal:
		return vk.PipelineStageTransferBit, vk.AccessTransferWriteBit
	case vk.ImageLayoutShaderReadOnlyOptimal:
		return vk.PipelineStageVertexShaderBit | vk.PipelineStageFragmentShaderBit | vk.PipelineStageComputeShaderBit,
			vk.AccessShaderReadBit
	}
	return vk.PipelineStageTopOfPipeBit, 0
}

// Retain keeps d alive until the next Flush.
func (cl *cmdList) Retain(d driver.Destroyer) { cl.retained = append(cl.retained, d) }

// End ends recording.
// It returns the first error found while recording.
func (cl *cmdList) End() error {
	if !cl.recording {
		return errors.New("vk: command list not recording")
	}
	cl.recording = false
	if err := checkResult(vk.EndCommandBuffer(cl.cb)); err != nil {
		cl.setErr(err)
	}
	return cl.err
}

// release destroys the retained objects.
func (cl *cmdList) release() {
	for _, d := range cl.retained {
		d.Destroy()
	}
	clear(cl.retained)
	cl.retained = cl.retained[:0]
}

// Destroy destroys the command list, including objects
// that it still retains.
func (cl *cmdList) Destroy() {
	if cl == nil || cl.d == nil {
		return
	}
	cl.release()
	cl.untrack()
	vk.FreeCommandBuffers(cl.d.dev, cl.pool, 1, []vk.CommandBuffer{cl.cb})
	vk.DestroyCommandPool(cl.d.dev, cl.pool, nil)
	*cl = cmdList{}
}

// Flush submits the command lists in a single batch and
// waits for their completion.
// Retained objects are destroyed regardless of errors.
func (d *Device) Flush(cl ...driver.CmdList) (err error) {
	if err = d.check(); err != nil {
		return
	}
	cbs := make([]vk.CommandBuffer, 0, len(cl))
	for _, x := range cl {
		x := x.(*cmdList)
		if x.recording {
			return errors.New("vk: command list not ended")
		}
		if x.err == nil {
			cbs = append(cbs, x.cb)
		} else if err == nil {
			err = x.err
		}
	}
	defer func() {
		for _, x := range cl {
			x.(*cmdList).release()
		}
	}()
	if err != nil || len(cbs) == 0 {
		return
	}
	return d.submit(cbs)
}

// submit submits cbs and waits on a fence.
func (d *Device) submit(cbs []vk.CommandBuffer) error {
	var fence vk.Fence
	info := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if err := checkResult(vk.CreateFence(d.dev, &info, nil, &fence)); err != nil {
		return err
	}
	defer vk.DestroyFence(d.dev, fence, nil)
	sub := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: uint32(len(cbs)),
		PCommandBuffers:    cbs,
	}}
	d.qmu.Lock()
	res := vk.QueueSubmit(d.que, 1, sub, fence)
	d.qmu.Unlock()
	if err := checkResult(res); err != nil {
		d.log.Error("queue submission failed", "err", err)
		return err
	}
	return checkResult(vk.WaitForFences(d.dev, 1, []vk.Fence{fence}, vk.True, math.MaxUint64))
}

// convQueueFlags converts queue capabilities.
// Graphics and compute queues implicitly support copies.
func convQueueFlags(f vk.QueueFlagBits) (flags driver.QueueFlags) {
	if f&vk.QueueGraphicsBit != 0 {
		flags |= driver.QGraphics | driver.QCopy
	}
	if f&vk.QueueComputeBit != 0 {
		flags |= driver.QCompute | driver.QCopy
	}
	if f&vk.QueueTransferBit != 0 {
		flags |= driver.QCopy
	}
	return
}

// convAdapterType converts a vk.PhysicalDeviceType.
func convAdapterType(t vk.PhysicalDeviceType) driver.AdapterType {
	switch t {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return driver.AdapterDiscrete
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return driver.AdapterIntegrated
	case vk.PhysicalDeviceTypeVirtualGpu:
		return driver.AdapterVirtual
	case vk.PhysicalDeviceTypeCpu:
		return driver.AdapterCPU
	}
	return driver.AdapterOther
}
