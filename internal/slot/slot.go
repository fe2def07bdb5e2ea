// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package slot defines a bit vector of slots, used to
// allocate descriptor heap entries and to track binding
// registers and live objects.
package slot

import (
	"iter"
	"math/bits"
)

const nbit = 64

// Set is a growable set of slots.
// Slots are identified by their index and are either
// in use or free.
// The zero value is an empty set.
type Set struct {
	w    []uint64
	free int
}

// Len returns the number of slots in the set.
func (s *Set) Len() int { return len(s.w) * nbit }

// Free returns the number of free slots.
func (s *Set) Free() int { return s.free }

// Grow adds at least n free slots at the end of the set.
// It returns the index of the first slot added.
func (s *Set) Grow(n int) (index int) {
	index = s.Len()
	if n <= 0 {
		return
	}
	nw := (n + nbit - 1) / nbit
	s.w = append(s.w, make([]uint64, nw)...)
	s.free += nw * nbit
	return
}

// Use marks a slot as in use.
// It returns false if the slot was in use already.
// The set grows as needed to contain index.
func (s *Set) Use(index int) bool {
	if index >= s.Len() {
		s.Grow(index + 1 - s.Len())
	}
	i, b := index/nbit, uint64(1)<<(index%nbit)
	if s.w[i]&b != 0 {
		return false
	}
	s.w[i] |= b
	s.free--
	return true
}

// Release marks a slot as free.
// Releasing a slot that is free or out of range has
// no effect.
func (s *Set) Release(index int) {
	if index < 0 || index >= s.Len() {
		return
	}
	i, b := index/nbit, uint64(1)<<(index%nbit)
	if s.w[i]&b != 0 {
		s.w[i] &^= b
		s.free++
	}
}

// InUse returns whether a slot is in use.
// Slots out of range are never in use.
func (s *Set) InUse(index int) bool {
	if index < 0 || index >= s.Len() {
		return false
	}
	return s.w[index/nbit]&(1<<(index%nbit)) != 0
}

// Alloc finds a free slot and marks it as in use.
// It fails only when s.Free() == 0.
func (s *Set) Alloc() (index int, ok bool) {
	if s.free == 0 {
		return
	}
	for i, x := range s.w {
		if x == ^uint64(0) {
			continue
		}
		index = i*nbit + bits.TrailingZeros64(^x)
		s.Use(index)
		return index, true
	}
	return
}

// AllocRange finds n contiguous free slots and marks them
// as in use.
// If ok is true, slots [index, index+n) are now in use.
func (s *Set) AllocRange(n int) (index int, ok bool) {
	if n <= 1 {
		return s.Alloc()
	}
	if s.free < n {
		return
	}
	cnt := 0
	for i := range s.Len() {
		if s.w[i/nbit] == ^uint64(0) {
			// Whole word in use.
			cnt = 0
			continue
		}
		if s.InUse(i) {
			cnt = 0
			continue
		}
		if cnt++; cnt == n {
			index = i - n + 1
			for j := index; j <= i; j++ {
				s.Use(j)
			}
			return index, true
		}
	}
	return
}

// Clear frees every slot.
func (s *Set) Clear() {
	clear(s.w)
	s.free = s.Len()
}

// Used returns an iterator over the slots in use, in
// ascending order.
func (s *Set) Used() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i, x := range s.w {
			for x != 0 {
				b := bits.TrailingZeros64(x)
				if !yield(i*nbit + b) {
					return
				}
				x &^= 1 << b
			}
		}
	}
}

// Backward returns an iterator over the slots in use, in
// descending order.
func (s *Set) Backward() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := len(s.w) - 1; i >= 0; i-- {
			x := s.w[i]
			for x != 0 {
				b := nbit - 1 - bits.LeadingZeros64(x)
				if !yield(i*nbit + b) {
					return
				}
				x &^= 1 << b
			}
		}
	}
}
