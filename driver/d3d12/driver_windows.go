// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build amd64 || arm64

package d3d12

import (
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/gviegas/rhi/driver"
	"github.com/gviegas/rhi/internal/slot"
	"github.com/gviegas/rhi/internal/track"
)

// library holds the DXGI factory.
type library struct {
	fac *iDXGIFactory1
}

// open creates the DXGI factory and enumerates the
// adapters that support feature level 11_0.
func (d *Driver) open(cfg *driver.Config) ([]driver.Adapter, error) {
	fac, err := createFactory()
	if err != nil {
		d.log.Debug("DXGI not found", "err", err)
		return nil, driver.ErrNotInstalled
	}
	d.lib.fac = fac
	if cfg.Debug {
		if err := enableDebugLayer(); err != nil {
			d.log.Warn("debug layer not present", "err", err)
		} else {
			d.log.Info("debug layer enabled")
		}
	}
	dxas, err := enumerate(fac, cfg.ForceFallback)
	if err != nil {
		return nil, err
	}
	var adps []*Adapter
	for i, dxa := range dxas {
		a, err := newAdapter(d, dxa)
		switch {
		case err == nil:
			d.log.Debug("adapter found", "name", a.info.Name, "type", a.info.Type)
			adps = append(adps, a)
		case errors.Is(err, windows.ERROR_MOD_NOT_FOUND), errors.Is(err, windows.ERROR_PROC_NOT_FOUND):
			for _, a := range adps {
				a.dev.release()
				a.dxa.release()
			}
			for _, x := range dxas[i:] {
				x.release()
			}
			return nil, driver.ErrNotInstalled
		default:
			d.log.Debug("adapter skipped", "err", err)
			dxa.release()
		}
	}
	if len(adps) == 0 {
		return nil, driver.ErrNoDevice
	}
	infos := make([]driver.AdapterInfo, len(adps))
	for i, a := range adps {
		infos[i] = a.info
	}
	res := make([]driver.Adapter, len(adps))
	for i, j := range rankAdapters(infos, cfg.Power) {
		res[i] = adps[j]
	}
	return res, nil
}

// enumerate returns the DXGI adapters of fac, or only
// the software adapter if fallback is set.
func enumerate(fac *iDXGIFactory1, fallback bool) ([]*iDXGIAdapter1, error) {
	if fallback {
		a, err := fac.enumWarpAdapter()
		if err != nil {
			return nil, err
		}
		return []*iDXGIAdapter1{a}, nil
	}
	var dxas []*iDXGIAdapter1
	for i := 0; ; i++ {
		a, err := fac.enumAdapters1(i)
		switch {
		case errors.Is(err, driver.ErrNoDevice):
			return dxas, nil
		case err != nil:
			for _, a := range dxas {
				a.release()
			}
			return nil, err
		}
		dxas = append(dxas, a)
	}
}

// close destroys live devices and releases every native
// object owned by the driver.
func (d *Driver) close() {
	for _, a := range d.adps {
		a := a.(*Adapter)
		if dev := a.device; dev != nil && !dev.dead.Load() {
			d.log.Warn("closing driver with live device", "adapter", a.info.Name)
			dev.Destroy()
		}
		a.dev.release()
		a.dxa.release()
	}
	if d.lib.fac != nil {
		d.lib.fac.release()
	}
	d.lib = library{}
}

// Adapter implements driver.Adapter.
type Adapter struct {
	drv  *Driver
	log  *slog.Logger
	dxa  *iDXGIAdapter1
	dev  *iDevice
	info driver.AdapterInfo
	lim  driver.Limits

	mu     sync.Mutex
	device *Device
}

// newAdapter creates the D3D12 device of dxa and queries
// its properties. The device is shared by every Device
// created from the adapter.
func newAdapter(drv *Driver, dxa *iDXGIAdapter1) (*Adapter, error) {
	desc, err := dxa.desc1()
	if err != nil {
		return nil, err
	}
	dev, err := createDevice(dxa)
	if err != nil {
		return nil, err
	}
	var opts featureDataOptions
	if err := dev.checkFeatureSupport(featureOptions, unsafe.Pointer(&opts), unsafe.Sizeof(opts)); err != nil {
		dev.release()
		return nil, err
	}
	var arch featureDataArchitecture
	if err := dev.checkFeatureSupport(featureArchitecture, unsafe.Pointer(&arch), unsafe.Sizeof(arch)); err != nil {
		dev.release()
		return nil, err
	}
	uma := arch.UMA != 0
	a := &Adapter{
		drv: drv,
		dxa: dxa,
		dev: dev,
		lim: fl11Limits,
		info: driver.AdapterInfo{
			Name:          windows.UTF16ToString(desc.Description[:]),
			Vendor:        desc.VendorID,
			Device:        desc.DeviceID,
			Type:          adapterType(desc.Flags, uma),
			API:           driver.Version{Major: 12},
			DriverVersion: driverVersion(dxa.umdVersion()),
			Heaps:         memoryHeaps(uint64(desc.DedicatedVideoMemory), uint64(desc.SharedSystemMemory), uma),
			Features:      features(opts.ResourceBindingTier),
		},
	}
	a.log = drv.log.With("adapter", a.info.Name)
	return a, nil
}

// Info returns the adapter properties.
func (a *Adapter) Info() driver.AdapterInfo {
	info := a.info
	info.Heaps = slices.Clone(a.info.Heaps)
	return info
}

// Extensions returns nil. Direct3D 12 reports optional
// capabilities as features rather than extensions.
func (a *Adapter) Extensions() []string { return nil }

// QueueFamilies returns the direct, compute and copy
// queue types.
func (a *Adapter) QueueFamilies() []driver.QueueFamily { return slices.Clone(queueFamilies) }

// FormatSupport returns the operations supported for pf.
func (a *Adapter) FormatSupport(pf driver.PixelFormat) driver.FormatFeature {
	f, err := convPixelFmt(pf)
	if err != nil {
		return 0
	}
	data := featureDataFormatSupport{Format: f}
	if a.dev.checkFeatureSupport(featureFormatSupport, unsafe.Pointer(&data), unsafe.Sizeof(data)) != nil {
		return 0
	}
	return convFormatSupport(data.Support1)
}

// PresentSupport returns whether the queue family can
// present to surface, which must be a HWND.
// Only direct queues can present.
func (a *Adapter) PresentSupport(surface uintptr, family int) (bool, error) {
	if family < 0 || family >= len(queueFamilies) {
		return false, &driver.RangeError{Op: "PresentSupport family", Index: family, Len: len(queueFamilies)}
	}
	return surface != 0 && family == 0, nil
}

// CreateDevice creates the logical device.
func (a *Adapter) CreateDevice() (driver.Device, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.device != nil {
		return nil, driver.ErrDeviceCreated
	}
	d := &Device{adp: a, log: a.log, dev: a.dev}
	var err error
	if d.que, err = a.dev.createCommandQueue(&commandQueueDesc{Type: commandListDirect}); err != nil {
		return nil, err
	}
	if d.fence, err = a.dev.createFence(); err != nil {
		d.que.release()
		return nil, err
	}
	if d.event, err = windows.CreateEvent(nil, 0, 0, nil); err != nil {
		d.fence.release()
		d.que.release()
		return nil, err
	}
	d.splInc = a.dev.descriptorHandleIncrementSize(descriptorHeapSampler)
	a.device = d
	a.log.Info("device created")
	return d, nil
}

// Number of descriptors in each sampler heap.
const samplerHeapSize = 256

// Device implements driver.Device.
type Device struct {
	adp *Adapter
	log *slog.Logger
	dev *iDevice

	qmu   sync.Mutex
	que   *iCommandQueue
	fence *iFence
	fval  uint64
	event windows.Handle

	// Sampler descriptors are allocated from CPU-only
	// heaps of samplerHeapSize descriptors each.
	smu      sync.Mutex
	splHeaps []*iDescriptorHeap
	splStart []uintptr
	splInc   uintptr
	splSlots slot.Set

	objs track.Set
	dead atomic.Bool
}

// Adapter returns the adapter that created d.
func (d *Device) Adapter() driver.Adapter { return d.adp }

// Limits returns the implementation limits.
func (d *Device) Limits() driver.Limits { return d.adp.lim }

// Destroy waits for the queue to become idle and then
// destroys the device, including every object that is
// still alive.
// The ID3D12Device is owned by the adapter and outlives
// the Device.
func (d *Device) Destroy() {
	if d == nil || d.dead.Swap(true) {
		return
	}
	d.qmu.Lock()
	if err := d.wait(); err != nil {
		d.log.Error("wait for idle failed", "err", err)
	}
	d.qmu.Unlock()
	if objs := d.objs.Drain(); len(objs) > 0 {
		d.log.Warn("destroying live objects", "count", len(objs))
		for _, o := range objs {
			o.Destroy()
		}
	}
	for _, h := range d.splHeaps {
		h.release()
	}
	windows.CloseHandle(d.event)
	d.fence.release()
	d.que.release()
	d.log.Info("device destroyed")
}

// check returns driver.ErrDestroyed if d was destroyed.
func (d *Device) check() error {
	if d.dead.Load() {
		return driver.ErrDestroyed
	}
	return nil
}

// wait signals the fence and blocks until the queue
// reaches it. d.qmu must be held.
func (d *Device) wait() error {
	d.fval++
	if err := d.que.signal(d.fence, d.fval); err != nil {
		return d.fatal(err)
	}
	if d.fence.completedValue() >= d.fval {
		return nil
	}
	if err := d.fence.setEventOnCompletion(d.fval, d.event); err != nil {
		return d.fatal(err)
	}
	if _, err := windows.WaitForSingleObject(d.event, windows.INFINITE); err != nil {
		return err
	}
	return nil
}

// fatal returns err, or the reason for device removal
// if err is driver.ErrFatal.
func (d *Device) fatal(err error) error {
	if errors.Is(err, driver.ErrFatal) {
		if reason := d.dev.removedReason(); reason != nil {
			d.log.Error("device removed", "reason", reason)
		}
	}
	return err
}

// allocSampler allocates a CPU descriptor handle for a
// sampler.
func (d *Device) allocSampler() (int, uintptr, error) {
	d.smu.Lock()
	defer d.smu.Unlock()
	i, ok := d.splSlots.Alloc()
	if !ok {
		h, err := d.dev.createDescriptorHeap(&descriptorHeapDesc{
			Type:           descriptorHeapSampler,
			NumDescriptors: samplerHeapSize,
		})
		if err != nil {
			return 0, 0, err
		}
		d.splHeaps = append(d.splHeaps, h)
		d.splStart = append(d.splStart, h.cpuStart())
		d.splSlots.Grow(samplerHeapSize)
		i, _ = d.splSlots.Alloc()
	}
	h := d.splStart[i/samplerHeapSize] + uintptr(i%samplerHeapSize)*d.splInc
	return i, h, nil
}

// freeSampler releases a sampler descriptor.
func (d *Device) freeSampler(i int) {
	d.smu.Lock()
	d.splSlots.Release(i)
	d.smu.Unlock()
}

// object is embedded in every type created by a Device.
type object struct {
	d    *Device
	key  uint64
	name string
	// Native object to name, if any.
	native *unknown
}

func (o *object) track(d *Device, self track.Destroyer, native *unknown, name string) {
	o.d = d
	o.name = name
	o.native = native
	o.key = d.objs.Add(self)
	if native != nil && name != "" {
		native.setName(name)
	}
}

func (o *object) untrack() { o.d.objs.Remove(o.key) }

// Name returns the debug name.
func (o *object) Name() string { return o.name }

// SetName sets the debug name of the object and of its
// native counterpart.
func (o *object) SetName(name string) {
	o.d.log.Debug("object renamed", "from", o.name, "to", name)
	o.name = name
	if o.native != nil && name != "" {
		o.native.setName(name)
	}
}
