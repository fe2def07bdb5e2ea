// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/gviegas/rhi/driver"
)

func TestMemStreamSeek(t *testing.T) {
	s := driver.NewMemStream([]byte("0123456789"))
	for _, x := range [...]struct {
		off    int64
		whence int
		want   int64
		err    bool
	}{
		{0, io.SeekEnd, 10, false},
		{-1, io.SeekEnd, 9, false},
		{-10, io.SeekEnd, 0, false},
		{-11, io.SeekEnd, 0, true},
		{3, io.SeekStart, 3, false},
		{2, io.SeekCurrent, 5, false},
		{-6, io.SeekCurrent, 5, true},
		{20, io.SeekStart, 20, false},
		{0, 7, 20, true},
	} {
		pos, err := s.Seek(x.off, x.whence)
		if (err != nil) != x.err {
			t.Fatalf("MemStream.Seek(%d, %d): error:\nhave %v\nwant error %t", x.off, x.whence, err, x.err)
		}
		if pos != x.want {
			t.Fatalf("MemStream.Seek(%d, %d):\nhave %d\nwant %d", x.off, x.whence, pos, x.want)
		}
	}
}

func TestMemStreamReadWrite(t *testing.T) {
	var s driver.MemStream
	if _, err := s.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Seek(-2, io.SeekEnd); err != nil {
		t.Fatal(err)
	}
	p := make([]byte, 4)
	n, err := s.Read(p)
	if n != 2 || err != nil || string(p[:n]) != "lo" {
		t.Fatalf("MemStream.Read:\nhave %q, %v\nwant \"lo\", nil", p[:n], err)
	}
	if _, err := s.Read(p); err != io.EOF {
		t.Fatalf("MemStream.Read at end:\nhave %v\nwant io.EOF", err)
	}
	// Writing past the end zero-fills the gap.
	s.Seek(2, io.SeekEnd)
	s.Write([]byte("!"))
	want := []byte("hello\x00\x00!")
	if !bytes.Equal(s.Bytes(), want) {
		t.Fatalf("MemStream.Bytes:\nhave %q\nwant %q", s.Bytes(), want)
	}
	// Overwrite in place.
	s.Seek(0, io.SeekStart)
	s.Write([]byte("J"))
	if s.Len() != len(want) || s.Bytes()[0] != 'J' {
		t.Fatalf("MemStream overwrite:\nhave %q", s.Bytes())
	}
	s.Seek(0, io.SeekStart)
	all, err := io.ReadAll(&s)
	if err != nil || string(all) != "Jello\x00\x00!" {
		t.Fatalf("io.ReadAll(MemStream):\nhave %q, %v", all, err)
	}
}
