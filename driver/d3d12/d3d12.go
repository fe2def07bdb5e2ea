// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package d3d12 implements driver interfaces using the
// Direct3D 12 API.
//
// The native structures and conversions are plain Go and
// build on every platform. The device itself requires a
// 64-bit Windows system; elsewhere, Open fails with
// driver.ErrNotInstalled.
package d3d12

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"

	"github.com/gviegas/rhi/driver"
)

const driverName = "d3d12"

// Driver implements driver.Driver.
type Driver struct {
	mu   sync.Mutex
	log  *slog.Logger
	adps []driver.Adapter
	lib  library
}

func init() { driver.Register(&Driver{}) }

// Open initializes the driver.
func (d *Driver) Open(cfg driver.Config) ([]driver.Adapter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.adps != nil {
		return d.adps, nil
	}
	d.log = driver.LoggerFor(&cfg, driverName)
	adps, err := d.open(&cfg)
	if err != nil {
		d.close()
		return nil, err
	}
	d.adps = adps
	d.log.Info("driver opened", "adapters", len(adps))
	return adps, nil
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
	d.close()
	d.adps = nil
	d.log.Info("driver closed")
}

// Feature level 11_0 guarantees these limits.
var fl11Limits = driver.Limits{
	MaxTexture1D:      16384,
	MaxTexture2D:      16384,
	MaxTextureCube:    16384,
	MaxTexture3D:      2048,
	MaxLayers:         2048,
	MaxConstantRange:  65536,
	MaxConstant32Bits: driver.MaxConstant32Bits,
	MaxAnisotropy:     16,
	MaxVertexIn:       32,
	MaxColorTargets:   maxRenderTargets,
}

// Direct queues support timestamps with 64 valid bits.
var queueFamilies = []driver.QueueFamily{
	{Flags: driver.QGraphics | driver.QCompute | driver.QCopy, Count: 1, TimestampBits: 64},
	{Flags: driver.QCompute | driver.QCopy, Count: 1, TimestampBits: 64},
	{Flags: driver.QCopy, Count: 1},
}

// features returns the features of a feature level 11_0
// device with the given resource binding tier.
func features(bindingTier uint32) driver.Feature {
	f := driver.FeatAnisotropy | driver.FeatIndependentBlend | driver.FeatWireFrame |
		driver.FeatDepthClamp | driver.FeatCubeArray | driver.FeatSampleRateShading |
		driver.FeatTimestamp | driver.FeatBCCompression
	if bindingTier >= 2 {
		f |= driver.FeatDescriptorIndexing
	}
	return f
}

// DXGI_ADAPTER_FLAG_SOFTWARE.
const adapterFlagSoftware = 2

// adapterType classifies an adapter from its DXGI flags
// and its memory architecture.
func adapterType(flags uint32, uma bool) driver.AdapterType {
	switch {
	case flags&adapterFlagSoftware != 0:
		return driver.AdapterCPU
	case uma:
		return driver.AdapterIntegrated
	}
	return driver.AdapterDiscrete
}

// memoryHeaps describes the memory of an adapter.
// UMA adapters report only the shared system memory.
func memoryHeaps(dedicated, shared uint64, uma bool) []driver.MemoryHeap {
	if uma || dedicated == 0 {
		return []driver.MemoryHeap{{Size: shared, DeviceLocal: uma}}
	}
	return []driver.MemoryHeap{
		{Size: dedicated, DeviceLocal: true},
		{Size: shared},
	}
}

// rankAdapters orders infos by power preference and
// returns the permutation applied.
// The order is stable, so adapters that the preference
// does not distinguish keep the enumeration order.
func rankAdapters(infos []driver.AdapterInfo, pref driver.PowerPreference) []int {
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
		case driver.AdapterCPU:
			return 3
		}
		return 2
	}
	idx := make([]int, len(infos))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(rank(infos[a].Type), rank(infos[b].Type))
	})
	return idx
}

// driverVersion extracts the subversion and build number
// from the user mode driver version that DXGI reports.
func driverVersion(umd int64) uint32 { return uint32(umd) }
