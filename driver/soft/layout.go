// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"github.com/gogpu/gputypes"

	"github.com/gviegas/rhi/driver"
)

// resourceLayout implements driver.ResourceLayout.
type resourceLayout struct {
	object
	desc   *driver.LayoutDesc
	groups map[int][]gputypes.BindGroupLayoutEntry
}

// NewResourceLayout creates a new resource layout.
func (d *Device) NewResourceLayout(desc *driver.LayoutDesc, name string) (driver.ResourceLayout, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	groups, err := convLayout(desc)
	if err != nil {
		return nil, &driver.CreateError{Object: "resource layout", Name: name, Err: err}
	}
	l := &resourceLayout{desc: desc, groups: groups}
	l.track(d, l, name)
	d.log.Debug("resource layout created", "name", name, "groups", len(groups))
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
	*l = resourceLayout{}
}
