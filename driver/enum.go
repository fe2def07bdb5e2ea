// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Found pairs an adapter with the driver that
// enumerated it.
type Found struct {
	Driver  Driver
	Adapter Adapter
}

// EnumerateAdapters opens every registered driver
// concurrently and returns all of their adapters.
// Results are ordered as Drivers and, within a driver, as
// returned by Open. Drivers that fail with ErrNotInstalled
// or ErrNoDevice are skipped; any other error is returned
// and the drivers opened so far are left open.
func EnumerateAdapters(ctx context.Context, cfg Config) ([]Found, error) {
	drvs := Drivers()
	res := make([][]Found, len(drvs))
	g, ctx := errgroup.WithContext(ctx)
	for i, d := range drvs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			adps, err := d.Open(cfg)
			switch {
			case errors.Is(err, ErrNotInstalled), errors.Is(err, ErrNoDevice):
				LoggerFor(&cfg, d.Name()).Info("driver skipped", "err", err)
				return nil
			case err != nil:
				return err
			}
			fs := make([]Found, len(adps))
			for j, a := range adps {
				fs[j] = Found{d, a}
			}
			res[i] = fs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var all []Found
	for _, fs := range res {
		all = append(all, fs...)
	}
	if len(all) == 0 {
		return nil, ErrNoDevice
	}
	return all, nil
}
