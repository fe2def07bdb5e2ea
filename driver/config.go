// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// PowerPreference guides adapter ordering.
type PowerPreference int

// Power preferences.
const (
	PowerDefault PowerPreference = iota
	PowerLow
	PowerHigh
)

// Config is the configuration passed to Driver.Open.
// It replaces process-wide state: everything a driver
// needs to know about the application is given here.
type Config struct {
	// AppName is reported to the native API, when
	// it accepts one.
	AppName string
	// Debug enables validation/debug layers.
	Debug bool
	// Power orders the adapters returned by Open.
	Power PowerPreference
	// ForceFallback requests a software/WARP adapter
	// when the native API offers one.
	ForceFallback bool
	// Logger overrides the package logger for the
	// opened driver and everything it creates.
	Logger *slog.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{AppName: "rhi"}
}

// Environment variables read by ConfigFromEnv.
const (
	EnvDebug    = "RHI_DEBUG"
	EnvPower    = "RHI_POWER"
	EnvFallback = "RHI_FALLBACK"
)

// ConfigFromEnv returns cfg with values overridden by
// the environment.
// RHI_DEBUG and RHI_FALLBACK accept strconv.ParseBool
// values. RHI_POWER accepts "low" or "high".
// Malformed values are ignored.
func ConfigFromEnv(cfg Config) Config {
	if s, ok := os.LookupEnv(EnvDebug); ok {
		if b, err := strconv.ParseBool(s); err == nil {
			cfg.Debug = b
		}
	}
	if s, ok := os.LookupEnv(EnvFallback); ok {
		if b, err := strconv.ParseBool(s); err == nil {
			cfg.ForceFallback = b
		}
	}
	switch strings.ToLower(os.Getenv(EnvPower)) {
	case "low":
		cfg.Power = PowerLow
	case "high":
		cfg.Power = PowerHigh
	}
	return cfg
}
