package binary

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ShortReadError is returned when a read would run past the end of the data.
type ShortReadError struct {
	Position int
	Need     int
	Have     int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("at position %d: need %d byte(s), have %d", e.Position, e.Need, e.Have)
}

func (e *ShortReadError) Unwrap() error {
	return io.ErrUnexpectedEOF
}

// Reader is a bounds-checked cursor over fixed-width fields in a byte slice.
type Reader struct {
	order binary.ByteOrder
	data  []byte
	base  int
	pos   int
}

// NewReader creates a new Reader over data using the given byte order.
func NewReader(data []byte, order binary.ByteOrder) *Reader {
	return &Reader{data: data, order: order}
}

// NewSectionReader creates a Reader whose positions are reported relative to
// base, so errors point into the enclosing buffer.
func NewSectionReader(data []byte, order binary.ByteOrder, base int) *Reader {
	return &Reader{data: data, order: order, base: base}
}

// Position returns the current byte position, including the base.
func (r *Reader) Position() int {
	return r.base + r.pos
}

// Offset returns the current position relative to the start of the data.
func (r *Reader) Offset() int {
	return r.pos
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data) - r.pos
}

// Order returns the reader's byte order.
func (r *Reader) Order() binary.ByteOrder {
	return r.order
}

func (r *Reader) need(n int) error {
	if n < 0 || r.Len() < n {
		return &ShortReadError{Position: r.Position(), Need: n, Have: r.Len()}
	}
	return nil
}

// ReadU8 reads a single byte and advances the position.
func (r *Reader) ReadU8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadU16 reads a uint16 in the reader's byte order.
func (r *Reader) ReadU16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := r.order.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadU32 reads a uint32 in the reader's byte order.
func (r *Reader) ReadU32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := r.order.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadI32 reads a two's complement int32.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadU64Split reads a 64-bit value stored as high then low 32-bit words.
func (r *Reader) ReadU64Split() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	hi := r.order.Uint32(r.data[r.pos:])
	lo := r.order.Uint32(r.data[r.pos+4:])
	r.pos += 8
	return uint64(hi)<<32 | uint64(lo), nil
}

// ReadBytes returns the next n bytes without copying.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// Need reports an error if fewer than n bytes remain, without advancing.
func (r *Reader) Need(n int) error {
	return r.need(n)
}
