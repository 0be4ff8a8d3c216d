package heif

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncatedBox is returned when a box's payload ends before a field it
// declares.
var ErrTruncatedBox = errors.New("heif: truncated box")

// reader is a big-endian, bounds-checked cursor over a byte slice.
//
// The first out-of-bounds read sets a sticky error; later reads return zero
// values, so parsers can read a whole structure and check Err once.
type reader struct {
	data []byte
	pos  int
	err  error
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

// Err returns the first error encountered.
func (r *reader) Err() error {
	return r.err
}

// Len returns the number of unread bytes.
func (r *reader) Len() int {
	if r.pos >= len(r.data) {
		return 0
	}
	return len(r.data) - r.pos
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedBox, n, r.pos, r.Len())
		return false
	}
	return true
}

func (r *reader) u8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *reader) u16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) u32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) u64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v
}

// uintN reads an unsigned field of 0, 2, 4 or 8 bytes.
func (r *reader) uintN(size int) uint64 {
	switch size {
	case 0:
		return 0
	case 2:
		return uint64(r.u16())
	case 4:
		return uint64(r.u32())
	case 8:
		return r.u64()
	}
	if r.err == nil {
		r.err = fmt.Errorf("%w: unsupported field size %d", ErrTruncatedBox, size)
	}
	return 0
}

// varUint reads a big-endian unsigned field of 1 to 8 bytes.
func (r *reader) varUint(size int) uint64 {
	if size < 1 || size > 8 {
		if r.err == nil {
			r.err = fmt.Errorf("%w: unsupported field size %d", ErrTruncatedBox, size)
		}
		return 0
	}
	b := r.bytes(size)
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// id reads a 16-bit field when wide is false and a 32-bit field otherwise.
func (r *reader) id(wide bool) uint32 {
	if wide {
		return r.u32()
	}
	return uint32(r.u16())
}

func (r *reader) fourCC() string {
	if !r.need(4) {
		return ""
	}
	v := string(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v
}

// bytes returns the next n bytes without copying.
func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v
}

// cstring reads a NUL-terminated string. A missing terminator consumes the
// rest of the data.
func (r *reader) cstring() string {
	if r.err != nil {
		return ""
	}
	start := r.pos
	for r.pos < len(r.data) {
		if r.data[r.pos] == 0 {
			s := string(r.data[start:r.pos])
			r.pos++
			return s
		}
		r.pos++
	}
	return string(r.data[start:])
}

// fullBoxHeader reads the version and 24-bit flags of a FullBox.
func (r *reader) fullBoxHeader() (version uint8, flags uint32) {
	v := r.u32()
	return uint8(v >> 24), v & 0xFFFFFF
}
