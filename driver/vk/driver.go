// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package vk implements driver interfaces using the Vulkan API.
package vk

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	vk "github.com/goki/vulkan"

	"github.com/gviegas/rhi/driver"
	"github.com/gviegas/rhi/internal/track"
)

const driverName = "vulkan"

// Version requested when the loader supports it.
var preferredAPIVersion = vk.MakeVersion(1, 3, 0)

// Driver implements driver.Driver.
type Driver struct {
	mu    sync.Mutex
	inst  vk.Instance
	ivers uint32
	adps  []driver.Adapter
	log   *slog.Logger

	// Enabled instance extensions, indexed by ext*
	// constants.
	exts [extN]bool
}

func init() { driver.Register(&Driver{}) }

// initInstance initializes the Vulkan instance.
func (d *Driver) initInstance(cfg *driver.Config) error {
	if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		d.log.Debug("loader not found", "err", err)
		return driver.ErrNotInstalled
	}
	if err := vk.Init(); err != nil {
		d.log.Debug("loader init failed", "err", err)
		return driver.ErrNotInstalled
	}
	appInfo := vk.ApplicationInfo{
		SType:            vk.StructureTypeApplicationInfo,
		PApplicationName: safeString(cfg.AppName),
		PEngineName:      safeString("rhi"),
		ApiVersion:       preferredAPIVersion,
	}
	info := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &appInfo,
	}
	exts, inds := selectInstanceExts()
	info.EnabledExtensionCount = uint32(len(exts))
	info.PpEnabledExtensionNames = safeStrings(exts)
	if cfg.Debug {
		if layers := validationLayers(); len(layers) > 0 {
			info.EnabledLayerCount = uint32(len(layers))
			info.PpEnabledLayerNames = safeStrings(layers)
			d.log.Info("validation enabled", "layers", layers)
		} else {
			d.log.Warn("validation layer not present")
		}
	}
	var inst vk.Instance
	for {
		res := vk.CreateInstance(&info, nil, &inst)
		api, retry := fallbackAPIVersion(res, appInfo.ApiVersion)
		if !retry {
			if err := checkResult(res); err != nil {
				return err
			}
			break
		}
		d.log.Debug("instance version not supported", "version", formatVersion(appInfo.ApiVersion))
		appInfo.ApiVersion = api
	}
	d.ivers = appInfo.ApiVersion
	if err := vk.InitInstance(inst); err != nil {
		vk.DestroyInstance(inst, nil)
		return err
	}
	d.inst = inst
	for _, i := range inds {
		d.exts[i] = true
	}
	return nil
}

// enumerate creates an Adapter for every physical device
// that has a queue supporting graphics operations.
func (d *Driver) enumerate(pref driver.PowerPreference) ([]driver.Adapter, error) {
	var n uint32
	if err := checkResult(vk.EnumeratePhysicalDevices(d.inst, &n, nil)); err != nil {
		return nil, err
	}
	// The implementation need not expose any devices
	// at all.
	if n == 0 {
		return nil, driver.ErrNoDevice
	}
	pdevs := make([]vk.PhysicalDevice, n)
	if err := checkResult(vk.EnumeratePhysicalDevices(d.inst, &n, pdevs)); err != nil {
		return nil, err
	}
	var adps []*Adapter
	for _, pd := range pdevs[:n] {
		a := newAdapter(d, pd)
		if a == nil {
			continue
		}
		d.log.Debug("adapter found", "name", a.info.Name, "type", a.info.Type)
		adps = append(adps, a)
	}
	if len(adps) == 0 {
		return nil, driver.ErrNoDevice
	}
	sortAdapters(adps, pref)
	res := make([]driver.Adapter, len(adps))
	for i := range adps {
		res[i] = adps[i]
	}
	return res, nil
}

// sortAdapters orders adps by power preference.
// The order is stable, so adapters that the preference
// does not distinguish keep the enumeration order.
func sortAdapters(adps []*Adapter, pref driver.PowerPreference) {
	rank := func(t driver.AdapterType) int {
		switch t {
		case driver.AdapterDiscrete:
			if pref == driver.PowerLow {
				return 1
			}
			return 0
		case driver.AdapterIntegrated:
			if pref == driver.PowerLow {
				return 0
			}
			return 1
		case driver.AdapterVirtual:
			return 2
		case driver.AdapterCPU:
			return 4
		}
		return 3
	}
	slices.SortStableFunc(adps, func(a, b *Adapter) int {
		return cmp.Compare(rank(a.info.Type), rank(b.info.Type))
	})
}

// Open initializes the driver.
func (d *Driver) Open(cfg driver.Config) (adps []driver.Adapter, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.adps != nil {
		return d.adps, nil
	}
	d.log = driver.LoggerFor(&cfg, driverName)
	if err = d.initInstance(&cfg); err != nil {
		goto fail
	}
	if adps, err = d.enumerate(cfg.Power); err != nil {
		goto fail
	}
	d.adps = adps
	d.log.Info("driver opened", "adapters", len(adps),
		"version", formatVersion(d.ivers))
	return adps, nil
fail:
	d.close()
	return nil, err
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
		if dev := a.(*Adapter).dev; dev != nil && !dev.dead.Load() {
			d.log.Warn("closing driver with live device", "adapter", a.Info().Name)
			dev.Destroy()
		}
	}
	d.close()
	d.log.Info("driver closed")
}

func (d *Driver) close() {
	if d.inst != nil {
		vk.DestroyInstance(d.inst, nil)
	}
	d.inst = nil
	d.adps = nil
	d.exts = [extN]bool{}
}

// Adapter implements driver.Adapter.
type Adapter struct {
	drv   *Driver
	log   *slog.Logger
	pdev  vk.PhysicalDevice
	info  driver.AdapterInfo
	exts  []string
	fams  []driver.QueueFamily
	feat  vk.PhysicalDeviceFeatures
	mprop vk.PhysicalDeviceMemoryProperties
	lim   driver.Limits

	// Queue family used for every submission.
	qfam uint32

	mu  sync.Mutex
	dev *Device
}

// newAdapter queries the properties of pd.
// It returns nil if pd is not suitable.
func newAdapter(d *Driver, pd vk.PhysicalDevice) *Adapter {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &props)
	props.Deref()
	props.Limits.Deref()
	if isVariant(props.ApiVersion) {
		return nil
	}
	var n uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &n, nil)
	qprops := make([]vk.QueueFamilyProperties, n)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &n, qprops)
	a := &Adapter{
		drv:  d,
		log:  d.log,
		pdev: pd,
		qfam: n,
	}
	a.fams = make([]driver.QueueFamily, n)
	for i := range qprops[:n] {
		qp := &qprops[i]
		qp.Deref()
		a.fams[i] = driver.QueueFamily{
			Flags:         convQueueFlags(vk.QueueFlagBits(qp.QueueFlags)),
			Count:         int(qp.QueueCount),
			TimestampBits: int(qp.TimestampValidBits),
		}
		flg := driver.QGraphics | driver.QCompute
		if a.qfam == n && a.fams[i].Flags&flg == flg {
			a.qfam = uint32(i)
		}
	}
	if a.qfam == n {
		// Device does not support graphics/compute
		// operations.
		return nil
	}
	a.exts, _ = deviceExts(pd)
	vk.GetPhysicalDeviceFeatures(pd, &a.feat)
	a.feat.Deref()
	vk.GetPhysicalDeviceMemoryProperties(pd, &a.mprop)
	a.mprop.Deref()
	for i := range a.mprop.MemoryTypeCount {
		a.mprop.MemoryTypes[i].Deref()
	}
	heaps := make([]driver.MemoryHeap, a.mprop.MemoryHeapCount)
	for i := range heaps {
		h := &a.mprop.MemoryHeaps[i]
		h.Deref()
		heaps[i] = driver.MemoryHeap{
			Size:        uint64(h.Size),
			DeviceLocal: vk.MemoryHeapFlagBits(h.Flags)&vk.MemoryHeapDeviceLocalBit != 0,
		}
	}
	a.info = driver.AdapterInfo{
		Name:          vk.ToString(props.DeviceName[:]),
		Vendor:        props.VendorID,
		Device:        props.DeviceID,
		Type:          convAdapterType(props.DeviceType),
		API:           parseVersion(props.ApiVersion),
		DriverVersion: props.DriverVersion,
		Heaps:         heaps,
		Features:      features(&a.feat, &props.Limits),
	}
	a.lim = limits(&props.Limits)
	return a
}

// features resolves driver.Feature flags.
func features(f *vk.PhysicalDeviceFeatures, lim *vk.PhysicalDeviceLimits) (feat driver.Feature) {
	for _, x := range [...]struct {
		b vk.Bool32
		f driver.Feature
	}{
		{f.SamplerAnisotropy, driver.FeatAnisotropy},
		{f.IndependentBlend, driver.FeatIndependentBlend},
		{f.FillModeNonSolid, driver.FeatWireFrame},
		{f.DepthClamp, driver.FeatDepthClamp},
		{f.ImageCubeArray, driver.FeatCubeArray},
		{f.SampleRateShading, driver.FeatSampleRateShading},
		{lim.TimestampComputeAndGraphics, driver.FeatTimestamp},
		{f.ShaderSampledImageArrayDynamicIndexing, driver.FeatDescriptorIndexing},
		{f.TextureCompressionBC, driver.FeatBCCompression},
	} {
		if x.b == vk.True {
			feat |= x.f
		}
	}
	return
}

// limits converts the device limits.
func limits(lim *vk.PhysicalDeviceLimits) driver.Limits {
	return driver.Limits{
		MaxTexture1D:      int(lim.MaxImageDimension1D),
		MaxTexture2D:      int(lim.MaxImageDimension2D),
		MaxTextureCube:    int(lim.MaxImageDimensionCube),
		MaxTexture3D:      int(lim.MaxImageDimension3D),
		MaxLayers:         int(lim.MaxImageArrayLayers),
		MaxConstantRange:  int64(lim.MaxUniformBufferRange),
		MaxConstant32Bits: min(int(lim.MaxPushConstantsSize)/4, driver.MaxConstant32Bits),
		MaxAnisotropy:     int(lim.MaxSamplerAnisotropy),
		MaxVertexIn:       int(lim.MaxVertexInputBindings),
		MaxColorTargets:   int(lim.MaxColorAttachments),
	}
}

// Info returns the adapter properties.
func (a *Adapter) Info() driver.AdapterInfo {
	info := a.info
	info.Heaps = slices.Clone(a.info.Heaps)
	return info
}

// Extensions returns the device extensions that the
// adapter supports.
func (a *Adapter) Extensions() []string { return slices.Clone(a.exts) }

// QueueFamilies returns the adapter's queue families.
func (a *Adapter) QueueFamilies() []driver.QueueFamily { return slices.Clone(a.fams) }

// FormatSupport returns the operations supported for pf.
func (a *Adapter) FormatSupport(pf driver.PixelFormat) (f driver.FormatFeature) {
	vf, err := convPixelFmt(pf)
	if err != nil {
		return 0
	}
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(a.pdev, vf, &props)
	props.Deref()
	return convFormatFeature(vk.FormatFeatureFlagBits(props.OptimalTilingFeatures),
		vk.FormatFeatureFlagBits(props.BufferFeatures))
}

// PresentSupport returns whether the queue family can
// present to surface, which must be a VkSurfaceKHR.
func (a *Adapter) PresentSupport(surface uintptr, family int) (bool, error) {
	if family < 0 || family >= len(a.fams) {
		return false, &driver.RangeError{Op: "PresentSupport family", Index: family, Len: len(a.fams)}
	}
	if !a.drv.exts[extSurface] {
		return false, nil
	}
	var ok vk.Bool32
	sf := vk.SurfaceFromPointer(surface)
	if err := checkResult(vk.GetPhysicalDeviceSurfaceSupport(a.pdev, uint32(family), sf, &ok)); err != nil {
		return false, err
	}
	return ok == vk.True, nil
}

// CreateDevice creates the logical device.
func (a *Adapter) CreateDevice() (driver.Device, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dev != nil {
		return nil, driver.ErrDeviceCreated
	}
	qinfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: a.qfam,
		QueueCount:       1,
		PQueuePriorities: []float32{1},
	}
	feat := enabledFeatures(&a.feat)
	info := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos:    []vk.DeviceQueueCreateInfo{qinfo},
		PEnabledFeatures:     []vk.PhysicalDeviceFeatures{feat},
	}
	if a.drv.exts[extSurface] && slices.Contains(a.exts, extSwapchainS) {
		info.EnabledExtensionCount = 1
		info.PpEnabledExtensionNames = safeStrings([]string{extSwapchainS})
	}
	var dev vk.Device
	if err := checkResult(vk.CreateDevice(a.pdev, &info, nil, &dev)); err != nil {
		return nil, err
	}
	d := &Device{
		adp:   a,
		log:   a.log,
		dev:   dev,
		mused: make([]atomic.Int64, a.mprop.MemoryHeapCount),
	}
	vk.GetDeviceQueue(dev, a.qfam, 0, &d.que)
	a.dev = d
	a.log.Info("device created", "adapter", a.info.Name, "family", a.qfam)
	return d, nil
}

// enabledFeatures chooses which of the supported
// features to enable.
func enabledFeatures(f *vk.PhysicalDeviceFeatures) vk.PhysicalDeviceFeatures {
	return vk.PhysicalDeviceFeatures{
		FullDrawIndexUint32:                    f.FullDrawIndexUint32,
		ImageCubeArray:                         f.ImageCubeArray,
		IndependentBlend:                       f.IndependentBlend,
		SampleRateShading:                      f.SampleRateShading,
		DepthClamp:                             f.DepthClamp,
		DepthBiasClamp:                         f.DepthBiasClamp,
		FillModeNonSolid:                       f.FillModeNonSolid,
		SamplerAnisotropy:                      f.SamplerAnisotropy,
		TextureCompressionBC:                   f.TextureCompressionBC,
		ShaderSampledImageArrayDynamicIndexing: f.ShaderSampledImageArrayDynamicIndexing,
	}
}

// Device implements driver.Device.
type Device struct {
	adp *Adapter
	log *slog.Logger
	dev vk.Device

	// Queue submission requires that the queue handle
	// be externally synchronized.
	qmu sync.Mutex
	que vk.Queue

	// Used device memory, indexed by heap indices.
	mused []atomic.Int64

	objs track.Set
	dead atomic.Bool
}

// Adapter returns the adapter that created d.
func (d *Device) Adapter() driver.Adapter { return d.adp }

// Limits returns the implementation limits.
func (d *Device) Limits() driver.Limits { return d.adp.lim }

// Destroy waits for the device to become idle and then
// destroys it, including every object that is still
// alive.
func (d *Device) Destroy() {
	if d == nil || d.dead.Swap(true) {
		return
	}
	vk.DeviceWaitIdle(d.dev)
	if objs := d.objs.Drain(); len(objs) > 0 {
		d.log.Warn("destroying live objects", "count", len(objs))
		for _, o := range objs {
			o.Destroy()
		}
	}
	vk.DestroyDevice(d.dev, nil)
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

// Name returns the debug name.
func (o *object) Name() string { return o.name }

// SetName sets the debug name.
func (o *object) SetName(name string) {
	o.d.log.Debug("object renamed", "from", o.name, "to", name)
	o.name = name
}

// checkResult returns an error derived from a vk.Result
// value. If such value does not indicate an error, it
// returns nil instead.
func checkResult(res vk.Result) error {
	if res >= vk.Success {
		// Not an error: VK_ERROR_* values are all
		// negative.
		return nil
	}
	switch res {
	case vk.ErrorOutOfHostMemory:
		return errNoHostMemory
	case vk.ErrorOutOfDeviceMemory:
		return errNoDeviceMemory
	case vk.ErrorInitializationFailed:
		return errInitFailed
	case vk.ErrorDeviceLost:
		return errDeviceLost
	case vk.ErrorMemoryMapFailed:
		return errMMapFailed
	case vk.ErrorLayerNotPresent:
		return errNoLayer
	case vk.ErrorExtensionNotPresent:
		return errNoExtension
	case vk.ErrorFeatureNotPresent:
		return errNoFeature
	case vk.ErrorIncompatibleDriver:
		return errDriverCompat
	case vk.ErrorTooManyObjects:
		return errTooManyObjects
	case vk.ErrorFormatNotSupported:
		return errUnsupportedFormat
	case vk.ErrorFragmentedPool:
		return errFragmentedPool
	case vk.ErrorSurfaceLost:
		return errSurfaceLost
	case vk.ErrorOutOfDate:
		return errOutOfDate
	}
	return errUnknown
}

// Common Vulkan errors (VK_ERROR_*).
var (
	errNoHostMemory      = driver.ErrNoHostMemory
	errNoDeviceMemory    = driver.ErrNoDeviceMemory
	errInitFailed        = errors.New("vk: initialization failed")
	errDeviceLost        = driver.ErrFatal
	errMMapFailed        = errors.New("vk: memory map failed")
	errNoLayer           = errors.New("vk: layer not present")
	errNoExtension       = errors.New("vk: extension not present")
	errNoFeature         = errors.New("vk: feature not present")
	errDriverCompat      = errors.New("vk: incompatible driver")
	errTooManyObjects    = errors.New("vk: too many objects")
	errUnsupportedFormat = errors.New("vk: format not supported")
	errFragmentedPool    = errors.New("vk: fragmented pool")
	errSurfaceLost       = errors.New("vk: surface lost")
	errOutOfDate         = errors.New("vk: out of date")
	errUnknown           = errors.New("vk: unknown error")
)

// parseVersion unpacks a version created with
// VK_MAKE_API_VERSION.
func parseVersion(v uint32) driver.Version {
	return driver.Version{
		Major: int(v >> 22 & 0x7f),
		Minor: int(v >> 12 & 0x3ff),
		Patch: int(v & 0xfff),
	}
}

func formatVersion(v uint32) string {
	x := parseVersion(v)
	return fmt.Sprintf("%d.%d.%d", x.Major, x.Minor, x.Patch)
}

// fallbackAPIVersion returns the API version to request
// after instance creation with api failed with res.
// Vulkan 1.0 loaders reject any other version with
// ErrorIncompatibleDriver.
func fallbackAPIVersion(res vk.Result, api uint32) (uint32, bool) {
	v10 := vk.MakeVersion(1, 0, 0)
	if res != vk.ErrorIncompatibleDriver || api == v10 {
		return api, false
	}
	return v10, true
}

// isVariant returns whether version v identifies a variant
// implementation of the Vulkan API.
func isVariant(v uint32) bool { return v>>29 != 0 }
