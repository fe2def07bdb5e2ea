// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

import (
	"errors"
	"io"
)

// MemStream is an in-memory io.ReadWriteSeeker.
// Seeking relative to io.SeekEnd positions the stream
// at Len() - (-offset); in other words, an offset of 0
// is the end of the data and -1 is its last byte.
// Seeking before the start is an error. Seeking past
// the end is allowed, and a subsequent Write fills the
// gap with zeros.
// The zero value is an empty stream ready to use.
type MemStream struct {
	buf []byte
	off int
}

// NewMemStream creates a stream that reads from data.
// The stream takes ownership of data.
func NewMemStream(data []byte) *MemStream { return &MemStream{buf: data} }

// Len returns the number of bytes in the stream.
func (s *MemStream) Len() int { return len(s.buf) }

// Bytes returns the stream contents.
func (s *MemStream) Bytes() []byte { return s.buf }

// Read implements io.Reader.
func (s *MemStream) Read(p []byte) (int, error) {
	if s.off >= len(s.buf) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, s.buf[s.off:])
	s.off += n
	return n, nil
}

// Write implements io.Writer.
func (s *MemStream) Write(p []byte) (int, error) {
	end := s.off + len(p)
	if end > len(s.buf) {
		if end > cap(s.buf) {
			buf := make([]byte, end, max(end, 2*cap(s.buf)))
			copy(buf, s.buf)
			s.buf = buf
		} else {
			n := len(s.buf)
			s.buf = s.buf[:end]
			clear(s.buf[n:end])
		}
	}
	copy(s.buf[s.off:], p)
	s.off = end
	return len(p), nil
}

var errWhence = errors.New("driver: MemStream.Seek: invalid whence")

// Seek implements io.Seeker.
func (s *MemStream) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(s.off)
	case io.SeekEnd:
		base = int64(len(s.buf))
	default:
		return int64(s.off), errWhence
	}
	pos := base + offset
	if pos < 0 {
		return int64(s.off), &RangeError{Op: "MemStream.Seek", Index: int(pos), Len: len(s.buf)}
	}
	s.off = int(pos)
	return pos, nil
}
