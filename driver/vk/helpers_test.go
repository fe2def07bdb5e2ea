// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"errors"
	"log"
	"os"
	"testing"

	"github.com/gviegas/rhi/driver"
)

// Helpers for testing.

// tDrv and tDev are managed by TestMain.
// tDev is nil when no Vulkan implementation is present,
// in which case tests that need a device are skipped.
var (
	tDrv Driver
	tDev *Device
)

// TestMain runs the tests between device creation and
// destruction.
func TestMain(m *testing.M) {
	adps, err := tDrv.Open(driver.ConfigFromEnv(driver.DefaultConfig()))
	switch {
	case errors.Is(err, driver.ErrNotInstalled), errors.Is(err, driver.ErrNoDevice):
		log.Printf("vk: no device, skipping device tests: %v", err)
	case err != nil:
		log.Fatalf("fatal: Driver.Open failed: %v", err)
	default:
		dev, err := adps[0].CreateDevice()
		if err != nil {
			log.Fatalf("fatal: Adapter.CreateDevice failed: %v", err)
		}
		tDev = dev.(*Device)
	}
	c := m.Run()
	if tDev != nil {
		tDev.Destroy()
	}
	tDrv.Close()
	os.Exit(c)
}

// needDev skips t if there is no device.
func needDev(t *testing.T) {
	t.Helper()
	if tDev == nil {
		t.Skip("no Vulkan device")
	}
}

// flush records fn in a new command list and flushes it.
func flush(t *testing.T, fn func(cl driver.CmdList) error) {
	t.Helper()
	cl, err := tDev.NewCmdList()
	if err != nil {
		t.Fatalf("tDev.NewCmdList failed: %v", err)
	}
	defer cl.Destroy()
	if err := cl.Begin(); err != nil {
		t.Fatalf("cl.Begin failed: %v", err)
	}
	if err := fn(cl); err != nil {
		t.Fatalf("recording failed: %v", err)
	}
	if err := cl.End(); err != nil {
		t.Fatalf("cl.End failed: %v", err)
	}
	if err := tDev.Flush(cl); err != nil {
		t.Fatalf("tDev.Flush failed: %v", err)
	}
}

// pattern returns n bytes of a non-repeating pattern.
func pattern(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i*7 + i>>8)
	}
	return p
}
