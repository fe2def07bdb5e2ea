// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gviegas/rhi/driver"
)

// resourceLayout implements driver.ResourceLayout.
// Each register space is a bind group.
type resourceLayout struct {
	object
	desc   *driver.LayoutDesc
	groups []*wgpu.BindGroupLayout
	pl     *wgpu.PipelineLayout
}

// NewResourceLayout creates a new resource layout.
func (d *Device) NewResourceLayout(desc *driver.LayoutDesc, name string) (driver.ResourceLayout, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	entries, err := convLayout(desc, d.maxG)
	if err != nil {
		return nil, &driver.CreateError{Object: "resource layout", Name: name, Err: err}
	}
	l := &resourceLayout{desc: desc, groups: make([]*wgpu.BindGroupLayout, 0, len(entries))}
	for i, e := range entries {
		bgl, err := d.dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s (group %d)", name, i),
			Entries: e,
		})
		if err != nil {
			l.release()
			return nil, &driver.CreateError{Object: "resource layout", Name: name, Err: err}
		}
		l.groups = append(l.groups, bgl)
	}
	l.pl, err = d.dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            name,
		BindGroupLayouts: l.groups,
	})
	if err != nil {
		l.release()
		return nil, &driver.CreateError{Object: "resource layout", Name: name, Err: err}
	}
	l.track(d, l, name)
	d.log.Debug("resource layout created", "name", name, "groups", len(l.groups))
	return l, nil
}

// Desc returns the layout description.
func (l *resourceLayout) Desc() *driver.LayoutDesc { return l.desc }

// release releases the native objects.
func (l *resourceLayout) release() {
	if l.pl != nil {
		l.pl.Release()
	}
	for _, g := range l.groups {
		g.Release()
	}
}

// Destroy destroys the resource layout.
func (l *resourceLayout) Destroy() {
	if l == nil || l.d == nil {
		return
	}
	l.untrack()
	l.release()
	*l = resourceLayout{}
}
