// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package wgpu implements driver interfaces using WebGPU,
// through the wgpu-native bindings of cogentcore/webgpu.
//
// WebGPU manages memory and resource states itself, so
// this backend is thinner than the Vulkan and Direct3D 12
// ones: upload buffers are shadowed in host memory and
// written with Queue.WriteBuffer, and readback heaps are
// not supported.
package wgpu

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gviegas/rhi/driver"
	"github.com/gviegas/rhi/internal/track"
)

const driverName = "wgpu"

func init() { driver.Register(&Driver{}) }

// Driver implements driver.Driver.
type Driver struct {
	mu   sync.Mutex
	inst *wgpu.Instance
	adps []driver.Adapter
	log  *slog.Logger
}

// Open initializes the driver.
// WebGPU hands out a single adapter, chosen by the
// implementation from cfg.Power and cfg.ForceFallback.
func (d *Driver) Open(cfg driver.Config) ([]driver.Adapter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.adps != nil {
		return d.adps, nil
	}
	d.log = driver.LoggerFor(&cfg, driverName)
	inst := wgpu.CreateInstance(nil)
	if inst == nil {
		return nil, driver.ErrNotInstalled
	}
	adp, err := inst.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference:      convPower(cfg.Power),
		ForceFallbackAdapter: cfg.ForceFallback,
	})
	if err != nil {
		inst.Release()
		return nil, fmt.Errorf("%w: %v", driver.ErrNoDevice, err)
	}
	d.inst = inst
	d.adps = []driver.Adapter{&Adapter{
		drv:      d,
		log:      d.log,
		adp:      adp,
		fallback: cfg.ForceFallback,
	}}
	d.log.Info("driver opened", "adapters", 1, "fallback", cfg.ForceFallback)
	return d.adps, nil
}

// Name returns the driver name.
func (d *Driver) Name() string { return driverName }

// Close deinitializes the driver.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.adps == nil {
		return
	}
	for _, a := range d.adps {
		a.(*Adapter).adp.Release()
	}
	d.inst.Release()
	d.inst = nil
	d.adps = nil
	d.log.Info("driver closed")
}

// Adapter implements driver.Adapter.
type Adapter struct {
	drv      *Driver
	log      *slog.Logger
	adp      *wgpu.Adapter
	fallback bool

	mu  sync.Mutex
	dev *Device
}

// Info returns the adapter properties.
// Features are those that core WebGPU guarantees.
func (a *Adapter) Info() driver.AdapterInfo {
	typ := driver.AdapterOther
	if a.fallback {
		typ = driver.AdapterCPU
	}
	return driver.AdapterInfo{
		Name:     "WebGPU Adapter",
		Type:     typ,
		API:      driver.Version{Major: 1},
		Features: coreFeatures,
	}
}

// coreFeatures are the driver features available on every
// WebGPU implementation.
const coreFeatures = driver.FeatAnisotropy | driver.FeatIndependentBlend |
	driver.FeatCubeArray | driver.FeatSampleRateShading

// Extensions returns nil.
func (a *Adapter) Extensions() []string { return nil }

// QueueFamilies returns the single WebGPU queue.
func (a *Adapter) QueueFamilies() []driver.QueueFamily {
	return []driver.QueueFamily{{Flags: driver.QGraphics | driver.QCompute | driver.QCopy, Count: 1}}
}

// FormatSupport returns the operations supported for pf.
func (a *Adapter) FormatSupport(pf driver.PixelFormat) driver.FormatFeature {
	return formatSupport(pf)
}

// PresentSupport reports whether the queue can present.
// WebGPU checks surface compatibility when the adapter is
// requested, so it always returns false here.
func (a *Adapter) PresentSupport(surface uintptr, family int) (bool, error) {
	if family != 0 {
		return false, &driver.RangeError{Op: "PresentSupport family", Index: family, Len: 1}
	}
	return false, nil
}

// CreateDevice creates the device, requesting the default
// WebGPU limits.
func (a *Adapter) CreateDevice() (driver.Device, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dev != nil {
		return nil, driver.ErrDeviceCreated
	}
	lim := wgpu.DefaultLimits()
	dev, err := a.adp.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "rhi device",
		RequiredLimits: &wgpu.RequiredLimits{Limits: lim},
	})
	if err != nil {
		return nil, &driver.CreateError{Object: "device", Err: fmt.Errorf("%w: %v", driver.ErrNoDevice, err)}
	}
	a.dev = &Device{
		adp:  a,
		log:  a.log,
		dev:  dev,
		que:  dev.GetQueue(),
		lim:  convLimits(&lim),
		maxG: int(lim.MaxBindGroups),
	}
	a.log.Info("device created", "adapter", a.Info().Name)
	return a.dev, nil
}

// Device implements driver.Device.
type Device struct {
	adp *Adapter
	log *slog.Logger
	dev *wgpu.Device
	lim driver.Limits
	// Maximum number of bind groups in a pipeline layout.
	maxG int

	// qmu serializes submissions.
	qmu sync.Mutex
	que *wgpu.Queue

	objs track.Set
	dead atomic.Bool
}

// Adapter returns the adapter that created d.
func (d *Device) Adapter() driver.Adapter { return d.adp }

// Limits returns the implementation limits.
func (d *Device) Limits() driver.Limits { return d.lim }

// Destroy destroys the device, including every object
// that is still alive.
func (d *Device) Destroy() {
	if d == nil || d.dead.Swap(true) {
		return
	}
	if objs := d.objs.Drain(); len(objs) > 0 {
		d.log.Warn("destroying live objects", "count", len(objs))
		for _, o := range objs {
			o.Destroy()
		}
	}
	d.que.Release()
	d.dev.Release()
	d.log.Info("device destroyed")
}

// check returns driver.ErrDestroyed if d was destroyed.
func (d *Device) check() error {
	if d.dead.Load() {
		return driver.ErrDestroyed
	}
	return nil
}

// object is embedded in every type created by a Device.
// WebGPU labels are fixed at creation, so renaming only
// changes the name reported by Name.
type object struct {
	d    *Device
	key  uint64
	name string
}

func (o *object) track(d *Device, self track.Destroyer, name string) {
	o.d = d
	o.name = name
	o.key = d.objs.Add(self)
}

func (o *object) untrack() { o.d.objs.Remove(o.key) }

// Name returns the debug name.
func (o *object) Name() string { return o.name }

// SetName sets the debug name.
func (o *object) SetName(name string) {
	o.d.log.Debug("object renamed", "from", o.name, "to", name)
	o.name = name
}
