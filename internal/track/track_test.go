// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package track

import "testing"

type obj struct {
	id  int
	out *[]int
	s   *Set
	key uint64
}

func (o *obj) Destroy() {
	*o.out = append(*o.out, o.id)
	o.s.Remove(o.key)
}

func TestDrain(t *testing.T) {
	var s Set
	var out []int
	objs := make([]*obj, 5)
	for i := range objs {
		objs[i] = &obj{id: i, out: &out, s: &s}
		objs[i].key = s.Add(objs[i])
	}
	objs[2].Destroy()
	if n := s.Len(); n != 4 {
		t.Fatalf("s.Len:\nhave %d\nwant 4", n)
	}
	out = out[:0]
	for _, d := range s.Drain() {
		d.Destroy()
	}
	want := []int{4, 3, 1, 0}
	if len(out) != len(want) {
		t.Fatalf("s.Drain: destroyed:\nhave %v\nwant %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("s.Drain: destroyed:\nhave %v\nwant %v", out, want)
		}
	}
	if n := s.Len(); n != 0 {
		t.Fatalf("s.Len after Drain:\nhave %d\nwant 0", n)
	}
}
