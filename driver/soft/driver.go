// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package soft implements driver interfaces in host memory.
// Native descriptions use the WebGPU types of gputypes.
// Copies are executed by Device.Flush, in recording
// order, so the package serves as a reference for the
// resource protocol of the hardware backends.
package soft

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gviegas/rhi/driver"
	"github.com/gviegas/rhi/internal/track"
)

const driverName = "soft"

func init() { driver.Register(&Driver{}) }

// Driver implements driver.Driver.
type Driver struct {
	mu   sync.Mutex
	adps []driver.Adapter
	log  *slog.Logger
}

// Open initializes the driver.
// It always returns a single CPU adapter.
func (d *Driver) Open(cfg driver.Config) ([]driver.Adapter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.adps != nil {
		return d.adps, nil
	}
	d.log = driver.LoggerFor(&cfg, driverName)
	d.adps = []driver.Adapter{&Adapter{drv: d, log: d.log}}
	d.log.Info("driver opened", "adapters", 1)
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
	d.log.Info("driver closed")
	d.adps = nil
}

// Adapter implements driver.Adapter.
type Adapter struct {
	drv *Driver
	log *slog.Logger

	mu  sync.Mutex
	dev *Device
}

// Info returns the adapter properties.
func (a *Adapter) Info() driver.AdapterInfo {
	return driver.AdapterInfo{
		Name: "Software Adapter",
		Type: driver.AdapterCPU,
		API:  driver.Version{Major: 1},
		Heaps: []driver.MemoryHeap{
			{Size: 1 << 32, DeviceLocal: true},
		},
		Features: driver.FeatAnisotropy | driver.FeatIndependentBlend |
			driver.FeatWireFrame | driver.FeatDepthClamp | driver.FeatCubeArray,
	}
}

// Extensions returns nil.
func (a *Adapter) Extensions() []string { return nil }

// QueueFamilies returns a single family that supports
// every operation.
func (a *Adapter) QueueFamilies() []driver.QueueFamily {
	return []driver.QueueFamily{{Flags: driver.QGraphics | driver.QCompute | driver.QCopy, Count: 1}}
}

// FormatSupport returns the operations supported for pf.
func (a *Adapter) FormatSupport(pf driver.PixelFormat) (f driver.FormatFeature) {
	if _, err := convVertexFmt(pf); err == nil {
		f |= driver.FmtVertex
	}
	if _, err := convPixelFmt(pf); err != nil {
		return
	}
	if pf.IsDepth() {
		return f | driver.FmtSampled | driver.FmtDepthStencil
	}
	return f | driver.FmtSampled | driver.FmtFilter | driver.FmtRenderTarget | driver.FmtBlend | driver.FmtStorage
}

// PresentSupport always returns false, since there is
// no presentation engine.
func (a *Adapter) PresentSupport(surface uintptr, family int) (bool, error) {
	if family != 0 {
		return false, &driver.RangeError{Op: "PresentSupport family", Index: family, Len: 1}
	}
	return false, nil
}

// CreateDevice creates the device.
func (a *Adapter) CreateDevice() (driver.Device, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dev != nil {
		return nil, driver.ErrDeviceCreated
	}
	a.dev = &Device{adp: a, log: a.log}
	a.log.Info("device created", "adapter", a.Info().Name)
	return a.dev, nil
}

// Device implements driver.Device.
type Device struct {
	adp  *Adapter
	log  *slog.Logger
	objs track.Set
	dead atomic.Bool
}

// Adapter returns the adapter that created d.
func (d *Device) Adapter() driver.Adapter { return d.adp }

// Limits returns the implementation limits.
func (d *Device) Limits() driver.Limits {
	return driver.Limits{
		MaxTexture1D:      16384,
		MaxTexture2D:      16384,
		MaxTextureCube:    16384,
		MaxTexture3D:      2048,
		MaxLayers:         2048,
		MaxConstantRange:  65536,
		MaxConstant32Bits: driver.MaxConstant32Bits,
		MaxAnisotropy:     16,
		MaxVertexIn:       16,
		MaxColorTargets:   8,
	}
}

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

// live returns driver.ErrDestroyed if the object was
// destroyed, either directly or by Device.Destroy.
func (o *object) live() error {
	if o.d == nil {
		return driver.ErrDestroyed
	}
	return nil
}

// Name returns the debug name.
func (o *object) Name() string { return o.name }

// SetName sets the debug name.
func (o *object) SetName(name string) {
	if o.d == nil {
		return
	}
	o.d.log.Debug("object renamed", "from", o.name, "to", name)
	o.name = name
}
