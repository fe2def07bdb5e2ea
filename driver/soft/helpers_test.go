// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"log"
	"os"
	"testing"

	"github.com/gviegas/rhi/driver"
)

// Helpers for testing.

// tDev is the device managed by TestMain.
var tDev *Device

// TestMain runs the tests between device creation and
// destruction.
func TestMain(m *testing.M) {
	drv := &Driver{}
	adps, err := drv.Open(driver.DefaultConfig())
	if err != nil {
		log.Fatalf("fatal: Driver.Open failed: %v", err)
	}
	dev, err := adps[0].CreateDevice()
	if err != nil {
		log.Fatalf("fatal: Adapter.CreateDevice failed: %v", err)
	}
	tDev = dev.(*Device)
	c := m.Run()
	tDev.Destroy()
	drv.Close()
	os.Exit(c)
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
