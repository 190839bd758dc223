// Package bitio provides byte- and bit-level parsing primitives shared by
// the packet codec, the message catalog, the LLSD binary codec, and the
// terrain patch decoder.
package bitio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ErrUnexpectedEOF is returned whenever a read runs past the end of the
// underlying buffer.
var ErrUnexpectedEOF = fmt.Errorf("bitio: unexpected end of buffer")

// ByteReader reads fixed-width integers and floats from a byte slice with
// an explicit, per-call endianness.
type ByteReader struct {
	buf    []byte
	offset int
}

// NewByteReader wraps buf for sequential reads starting at offset 0.
func NewByteReader(buf []byte) *ByteReader {
	return &ByteReader{buf: buf}
}

// Len returns the number of unread bytes remaining.
func (r *ByteReader) Len() int {
	return len(r.buf) - r.offset
}

// Offset returns the current read offset into the underlying buffer.
func (r *ByteReader) Offset() int {
	return r.offset
}

// Remaining returns the unread tail of the underlying buffer without
// advancing the read offset.
func (r *ByteReader) Remaining() []byte {
	return r.buf[r.offset:]
}

func (r *ByteReader) take(n int) ([]byte, error) {
	if r.Len() < n {
		return nil, ErrUnexpectedEOF
	}
	b := r.buf[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

// ReadByte reads a single byte.
func (r *ByteReader) ReadByte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBytes reads n raw bytes.
func (r *ByteReader) ReadBytes(n int) ([]byte, error) {
	return r.take(n)
}

// ReadU16 reads a 16-bit unsigned integer in the given byte order.
func (r *ByteReader) ReadU16(order binary.ByteOrder) (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

// ReadU32 reads a 32-bit unsigned integer in the given byte order.
func (r *ByteReader) ReadU32(order binary.ByteOrder) (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

// ReadU64 reads a 64-bit unsigned integer in the given byte order.
func (r *ByteReader) ReadU64(order binary.ByteOrder) (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return order.Uint64(b), nil
}

// ReadI32 reads a 32-bit signed integer in the given byte order.
func (r *ByteReader) ReadI32(order binary.ByteOrder) (int32, error) {
	v, err := r.ReadU32(order)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// ReadF32 reads a 32-bit IEEE-754 float in the given byte order.
func (r *ByteReader) ReadF32(order binary.ByteOrder) (float32, error) {
	v, err := r.ReadU32(order)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadF64 reads a 64-bit IEEE-754 float in the given byte order.
func (r *ByteReader) ReadF64(order binary.ByteOrder) (float64, error) {
	v, err := r.ReadU64(order)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ByteWriter appends fixed-width integers and floats to a growing buffer.
type ByteWriter struct {
	buf []byte
}

// NewByteWriter returns an empty writer with cap bytes of headroom.
func NewByteWriter(cap int) *ByteWriter {
	return &ByteWriter{buf: make([]byte, 0, cap)}
}

// Bytes returns the accumulated buffer.
func (w *ByteWriter) Bytes() []byte {
	return w.buf
}

// WriteByte appends a single byte.
func (w *ByteWriter) WriteByte(b byte) {
	w.buf = append(w.buf, b)
}

// WriteBytes appends raw bytes verbatim.
func (w *ByteWriter) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteU16 appends a 16-bit unsigned integer in the given byte order.
func (w *ByteWriter) WriteU16(order binary.ByteOrder, v uint16) {
	var tmp [2]byte
	order.PutUint16(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteU32 appends a 32-bit unsigned integer in the given byte order.
func (w *ByteWriter) WriteU32(order binary.ByteOrder, v uint32) {
	var tmp [4]byte
	order.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteU64 appends a 64-bit unsigned integer in the given byte order.
func (w *ByteWriter) WriteU64(order binary.ByteOrder, v uint64) {
	var tmp [8]byte
	order.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteI32 appends a 32-bit signed integer in the given byte order.
func (w *ByteWriter) WriteI32(order binary.ByteOrder, v int32) {
	w.WriteU32(order, uint32(v))
}

// WriteF32 appends a 32-bit IEEE-754 float in the given byte order.
func (w *ByteWriter) WriteF32(order binary.ByteOrder, f float32) {
	w.WriteU32(order, math.Float32bits(f))
}

// WriteF64 appends a 64-bit IEEE-754 float in the given byte order.
func (w *ByteWriter) WriteF64(order binary.ByteOrder, f float64) {
	w.WriteU64(order, math.Float64bits(f))
}
