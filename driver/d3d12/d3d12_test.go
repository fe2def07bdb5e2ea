// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package d3d12

import (
	"errors"
	"runtime"
	"slices"
	"testing"

	"github.com/gviegas/rhi/driver"
)

func TestRegistered(t *testing.T) {
	for _, drv := range driver.Drivers() {
		if drv.Name() == driverName {
			if _, ok := drv.(*Driver); !ok {
				t.Errorf("driver.Drivers: %q\nhave %T\nwant *Driver", driverName, drv)
			}
			return
		}
	}
	t.Errorf("driver.Drivers\nhave no %q\nwant registered", driverName)
}

func TestOpenUnavailable(t *testing.T) {
	if runtime.GOOS == "windows" && (runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64") {
		t.Skip("Direct3D 12 may be present")
	}
	var d Driver
	adps, err := d.Open(driver.DefaultConfig())
	if !errors.Is(err, driver.ErrNotInstalled) || adps != nil {
		t.Errorf("Driver.Open\nhave %v, %v\nwant nil, %v", adps, err, driver.ErrNotInstalled)
	}
	// Close must not panic after a failed Open.
	d.Close()
}

func TestFeatures(t *testing.T) {
	f := features(1)
	for _, x := range [...]driver.Feature{driver.FeatAnisotropy, driver.FeatIndependentBlend, driver.FeatCubeArray, driver.FeatBCCompression} {
		if !f.Has(x) {
			t.Errorf("features(1).Has(%#x)\nhave false\nwant true", x)
		}
	}
	if f.Has(driver.FeatDescriptorIndexing) {
		t.Error("features(1).Has(FeatDescriptorIndexing)\nhave true\nwant false")
	}
	if !features(2).Has(driver.FeatDescriptorIndexing) {
		t.Error("features(2).Has(FeatDescriptorIndexing)\nhave false\nwant true")
	}
}

func TestAdapterType(t *testing.T) {
	for _, x := range [...]struct {
		flags uint32
		uma   bool
		want  driver.AdapterType
	}{
		{0, false, driver.AdapterDiscrete},
		{0, true, driver.AdapterIntegrated},
		{adapterFlagSoftware, false, driver.AdapterCPU},
		{adapterFlagSoftware, true, driver.AdapterCPU},
	} {
		if have := adapterType(x.flags, x.uma); have != x.want {
			t.Errorf("adapterType(%d, %t)\nhave %d\nwant %d", x.flags, x.uma, have, x.want)
		}
	}
}

func TestMemoryHeaps(t *testing.T) {
	for _, x := range [...]struct {
		dedicated, shared uint64
		uma               bool
		want              []driver.MemoryHeap
	}{
		{4 << 30, 8 << 30, false, []driver.MemoryHeap{{Size: 4 << 30, DeviceLocal: true}, {Size: 8 << 30}}},
		{128 << 20, 8 << 30, true, []driver.MemoryHeap{{Size: 8 << 30, DeviceLocal: true}}},
		{0, 8 << 30, false, []driver.MemoryHeap{{Size: 8 << 30}}},
	} {
		if have := memoryHeaps(x.dedicated, x.shared, x.uma); !slices.Equal(have, x.want) {
			t.Errorf("memoryHeaps(%d, %d, %t)\nhave %v\nwant %v", x.dedicated, x.shared, x.uma, have, x.want)
		}
	}
}

func TestRankAdapters(t *testing.T) {
	infos := []driver.AdapterInfo{
		{Name: "warp", Type: driver.AdapterCPU},
		{Name: "igpu", Type: driver.AdapterIntegrated},
		{Name: "other", Type: driver.AdapterOther},
		{Name: "dgpu", Type: driver.AdapterDiscrete},
		{Name: "dgpu2", Type: driver.AdapterDiscrete},
	}
	for _, x := range [...]struct {
		pref driver.PowerPreference
		want []int
	}{
		{driver.PowerDefault, []int{3, 4, 1, 2, 0}},
		{driver.PowerHigh, []int{3, 4, 1, 2, 0}},
		{driver.PowerLow, []int{1, 3, 4, 2, 0}},
	} {
		if have := rankAdapters(infos, x.pref); !slices.Equal(have, x.want) {
			t.Errorf("rankAdapters(%d)\nhave %v\nwant %v", x.pref, have, x.want)
		}
	}
	if have := rankAdapters(nil, driver.PowerDefault); len(have) != 0 {
		t.Errorf("rankAdapters(nil)\nhave %v\nwant []", have)
	}
}

func TestLimits(t *testing.T) {
	if fl11Limits.MaxColorTargets != maxRenderTargets {
		t.Errorf("fl11Limits.MaxColorTargets\nhave %d\nwant %d", fl11Limits.MaxColorTargets, maxRenderTargets)
	}
	if fl11Limits.MaxConstant32Bits != driver.MaxConstant32Bits {
		t.Errorf("fl11Limits.MaxConstant32Bits\nhave %d\nwant %d", fl11Limits.MaxConstant32Bits, driver.MaxConstant32Bits)
	}
	if n := len(queueFamilies); n != 3 || queueFamilies[0].Flags&driver.QGraphics == 0 || queueFamilies[2].TimestampBits != 0 {
		t.Errorf("queueFamilies\nhave %+v\nwant direct, compute and copy", queueFamilies)
	}
}
