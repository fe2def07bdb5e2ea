// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

import (
	"errors"
	"fmt"
)

// ErrNotMappable means that a resource that is not host
// visible was accessed through a CPU mapping.
var ErrNotMappable = errors.New("driver: resource not host visible")

// ErrNotMapped means that a mapped-access method was called
// outside of a CopyStart/CopyEnd pair.
var ErrNotMapped = errors.New("driver: resource not mapped")

// UnsupportedError is returned when a value cannot be
// translated into a backend's native representation.
// It happens before any native call is made.
type UnsupportedError struct {
	// Kind is the name of the abstract type
	// (e.g., "pixel format").
	Kind  string
	Value int
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("driver: not supported %s type (%d)", e.Kind, e.Value)
}

// Unsupported returns an *UnsupportedError.
func Unsupported[T ~int | ~uint32](kind string, v T) error {
	return &UnsupportedError{Kind: kind, Value: int(v)}
}

// RangeError is returned when an index or byte range
// exceeds the bounds of its target. It is always checked
// before memory is touched.
type RangeError struct {
	Op    string
	Index int
	Len   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("driver: %s: index %d out of range [0:%d]", e.Op, e.Index, e.Len)
}

// CreateError is returned when a native object could
// not be created. The object that failed holds no native
// resources afterwards.
type CreateError struct {
	// Object is the kind of object (e.g., "buffer").
	Object string
	Name   string
	Err    error
}

func (e *CreateError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("driver: create %s: %v", e.Object, e.Err)
	}
	return fmt.Sprintf("driver: create %s %q: %v", e.Object, e.Name, e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }

// IsUnsupported reports whether err, or an error that it
// wraps, is an *UnsupportedError.
func IsUnsupported(err error) bool {
	var u *UnsupportedError
	return errors.As(err, &u)
}

// IsRange reports whether err, or an error that it wraps,
// is a *RangeError.
func IsRange(err error) bool {
	var r *RangeError
	return errors.As(err, &r)
}
