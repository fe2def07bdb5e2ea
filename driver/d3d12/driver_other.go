// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build !windows || !(amd64 || arm64)

package d3d12

import "github.com/gviegas/rhi/driver"

type library struct{}

func (d *Driver) open(*driver.Config) ([]driver.Adapter, error) {
	d.log.Debug("not available on this platform")
	return nil, driver.ErrNotInstalled
}

func (d *Driver) close() {}
