// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package track keeps the set of live objects created
// by a device, so that they can be released when the
// device is destroyed.
package track

import (
	"slices"
	"sync"
)

// Destroyer is the driver.Destroyer interface.
type Destroyer interface {
	Destroy()
}

// Set is a set of live objects.
// The zero value is ready for use. A Set is safe for
// concurrent use.
type Set struct {
	mu   sync.Mutex
	next uint64
	objs map[uint64]Destroyer
}

// Add adds d to the set and returns its key.
// Keys increase monotonically, so they reflect creation
// order.
func (s *Set) Add(d Destroyer) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objs == nil {
		s.objs = make(map[uint64]Destroyer)
	}
	s.next++
	s.objs[s.next] = d
	return s.next
}

// Remove removes the object identified by key.
// Removing a key that is not present has no effect.
func (s *Set) Remove(key uint64) {
	s.mu.Lock()
	delete(s.objs, key)
	s.mu.Unlock()
}

// Len returns the number of live objects.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objs)
}

// Drain removes every object from the set and returns
// them in reverse creation order.
// Callers destroy the returned objects; their Destroy
// methods may call Remove safely.
func (s *Set) Drain() []Destroyer {
	s.mu.Lock()
	keys := make([]uint64, 0, len(s.objs))
	for k := range s.objs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	slices.Reverse(keys)
	objs := make([]Destroyer, len(keys))
	for i, k := range keys {
		objs[i] = s.objs[k]
	}
	clear(s.objs)
	s.mu.Unlock()
	return objs
}
