// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

import (
	"fmt"

	"github.com/gviegas/rhi/internal/slot"
)

// ResourceElement describes a shader-visible resource
// binding.
// Register is the binding slot within Space. Count is the
// number of descriptors in the binding (arrays).
type ResourceElement struct {
	Type     DescType
	Register int
	Space    int
	Count    int
	Stages   Stage
}

// SamplerElement describes a shader-visible sampler
// binding.
type SamplerElement struct {
	Register int
	Space    int
	Count    int
	Stages   Stage
}

// Constant32Bits describes a small block of inline
// constants (root constants/push constants).
type Constant32Bits struct {
	Register int
	Space    int
	// Count is the number of 32-bit values.
	Count  int
	Stages Stage
}

// MaxConstant32Bits is the maximum Count of a
// Constant32Bits block. 128 bytes is the smallest
// push constant range that Vulkan guarantees.
const MaxConstant32Bits = 32

// LayoutDesc describes the shader-visible binding layout
// of a pipeline.
// A LayoutDesc is immutable once created, so it can be
// shared across goroutines.
type LayoutDesc struct {
	res  []ResourceElement
	spl  []SamplerElement
	cnst Constant32Bits
	hasC bool
}

// register classes; each has its own register namespace
// in D3D12, so uniqueness is checked per class.
const (
	classCBV = iota
	classSRV
	classUAV
	classSampler
)

func classOf(t DescType) int {
	switch t {
	case DConstant:
		return classCBV
	case DBuffer, DTexture:
		return classSRV
	default:
		return classUAV
	}
}

// NewLayoutDesc creates a new LayoutDesc.
// res and spl are copied. c, if not nil, describes the
// single inline constant block of the layout.
// Registers must be unique within a space for each
// register class (constant, read-only, read/write and
// sampler), including the constant block's register.
func NewLayoutDesc(res []ResourceElement, spl []SamplerElement, c *Constant32Bits) (*LayoutDesc, error) {
	l := &LayoutDesc{
		res: append([]ResourceElement(nil), res...),
		spl: append([]SamplerElement(nil), spl...),
	}
	used := make(map[[2]int]*slot.Set)
	mark := func(class, space, reg, n int) error {
		if space < 0 || reg < 0 {
			return &RangeError{Op: "NewLayoutDesc register", Index: min(space, reg), Len: 1 << 16}
		}
		k := [2]int{class, space}
		s := used[k]
		if s == nil {
			s = new(slot.Set)
			used[k] = s
		}
		for i := reg; i < reg+n; i++ {
			if !s.Use(i) {
				return fmt.Errorf("driver: NewLayoutDesc: register %d (space %d) bound twice", i, space)
			}
		}
		return nil
	}
	for i := range l.res {
		e := &l.res[i]
		if e.Type < DConstant || e.Type > DStorageTexture {
			return nil, Unsupported("descriptor", e.Type)
		}
		if e.Count <= 0 {
			e.Count = 1
		}
		if e.Stages == 0 {
			e.Stages = SAll
		}
		if err := mark(classOf(e.Type), e.Space, e.Register, e.Count); err != nil {
			return nil, err
		}
	}
	for i := range l.spl {
		e := &l.spl[i]
		if e.Count <= 0 {
			e.Count = 1
		}
		if e.Stages == 0 {
			e.Stages = SAll
		}
		if err := mark(classSampler, e.Space, e.Register, e.Count); err != nil {
			return nil, err
		}
	}
	if c != nil {
		if c.Count <= 0 || c.Count > MaxConstant32Bits {
			return nil, &RangeError{Op: "NewLayoutDesc constant count", Index: c.Count, Len: MaxConstant32Bits + 1}
		}
		if err := mark(classCBV, c.Space, c.Register, 1); err != nil {
			return nil, err
		}
		l.cnst = *c
		if l.cnst.Stages == 0 {
			l.cnst.Stages = SAll
		}
		l.hasC = true
	}
	return l, nil
}

// ElementCount returns the number of resource elements.
func (l *LayoutDesc) ElementCount() int { return len(l.res) }

// SamplerCount returns the number of sampler elements.
func (l *LayoutDesc) SamplerCount() int { return len(l.spl) }

// Element returns the resource element at index i.
func (l *LayoutDesc) Element(i int) (ResourceElement, error) {
	if i < 0 || i >= len(l.res) {
		return ResourceElement{}, &RangeError{Op: "LayoutDesc.Element", Index: i, Len: len(l.res)}
	}
	return l.res[i], nil
}

// Sampler returns the sampler element at index i.
func (l *LayoutDesc) Sampler(i int) (SamplerElement, error) {
	if i < 0 || i >= len(l.spl) {
		return SamplerElement{}, &RangeError{Op: "LayoutDesc.Sampler", Index: i, Len: len(l.spl)}
	}
	return l.spl[i], nil
}

// Constant returns the inline constant block, if any.
func (l *LayoutDesc) Constant() (Constant32Bits, bool) { return l.cnst, l.hasC }

// Elements returns a copy of the resource elements.
func (l *LayoutDesc) Elements() []ResourceElement { return append([]ResourceElement(nil), l.res...) }

// Samplers returns a copy of the sampler elements.
func (l *LayoutDesc) Samplers() []SamplerElement { return append([]SamplerElement(nil), l.spl...) }
