package binary

import (
	"bytes"
	"encoding/binary"
)

// Writer provides buffered fixed-width writing for CTF encoding.
type Writer struct {
	buf   *bytes.Buffer
	order binary.ByteOrder
}

// NewWriter creates a new Writer using the given byte order.
func NewWriter(order binary.ByteOrder) *Writer {
	return &Writer{buf: &bytes.Buffer{}, order: order}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// WriteU16 writes a uint16 in the writer's byte order.
func (w *Writer) WriteU16(v uint16) {
	var buf [2]byte
	w.order.PutUint16(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteU32 writes a uint32 in the writer's byte order.
func (w *Writer) WriteU32(v uint32) {
	var buf [4]byte
	w.order.PutUint32(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteI32 writes a two's complement int32.
func (w *Writer) WriteI32(v int32) {
	w.WriteU32(uint32(v))
}

// WriteU64Split writes a 64-bit value as high then low 32-bit words.
func (w *Writer) WriteU64Split(v uint64) {
	w.WriteU32(uint32(v >> 32))
	w.WriteU32(uint32(v))
}

// Pad writes n zero bytes.
func (w *Writer) Pad(n int) {
	for i := 0; i < n; i++ {
		w.buf.WriteByte(0)
	}
}
