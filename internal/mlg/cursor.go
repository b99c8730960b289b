package mlg

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
)

// Cursor is a bounds-checked sequential reader over a byte source. Every
// read either returns the full requested width or fails with
// ErrUnexpectedEOF; there are no partial reads and no zero-fill.
//
// The byte order is fixed once for the whole file (format version 1 is
// big-endian) rather than chosen per call.
type Cursor struct {
	r       *bufio.Reader
	order   binary.ByteOrder
	off     int64
	size    int64 // total source size, -1 when unknown
	scratch [8]byte
}

// NewCursor wraps r. size is the total number of bytes the source will
// yield, or -1 when unknown (e.g. a compressed stream).
func NewCursor(r io.Reader, size int64) *Cursor {
	return &Cursor{
		r:     bufio.NewReader(r),
		order: binary.BigEndian,
		size:  size,
	}
}

// Offset returns the absolute read position.
func (c *Cursor) Offset() int64 {
	return c.off
}

// Remaining returns the number of unread bytes, or -1 when the source size
// is unknown.
func (c *Cursor) Remaining() int64 {
	if c.size < 0 {
		return -1
	}
	return c.size - c.off
}

// Seek advances to an absolute offset. The cursor is forward-only; seeking
// backwards fails.
func (c *Cursor) Seek(abs int64) error {
	if abs < c.off {
		return fmt.Errorf("%w: seek backwards from %d to %d", ErrCorruptHeader, c.off, abs)
	}
	n, err := io.CopyN(io.Discard, c.r, abs-c.off)
	c.off += n
	if err != nil {
		return fmt.Errorf("%w: seeking to offset %d", ErrUnexpectedEOF, abs)
	}
	return nil
}

func (c *Cursor) read(n int) ([]byte, error) {
	b := c.scratch[:n]
	if _, err := io.ReadFull(c.r, b); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: need %d bytes at offset %d", ErrUnexpectedEOF, n, c.off)
		}
		return nil, err
	}
	c.off += int64(n)
	return b, nil
}

func (c *Cursor) ReadU8() (uint8, error) {
	b, err := c.read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) ReadI8() (int8, error) {
	v, err := c.ReadU8()
	return int8(v), err
}

func (c *Cursor) ReadU16() (uint16, error) {
	b, err := c.read(2)
	if err != nil {
		return 0, err
	}
	return c.order.Uint16(b), nil
}

func (c *Cursor) ReadI16() (int16, error) {
	v, err := c.ReadU16()
	return int16(v), err
}

func (c *Cursor) ReadU32() (uint32, error) {
	b, err := c.read(4)
	if err != nil {
		return 0, err
	}
	return c.order.Uint32(b), nil
}

func (c *Cursor) ReadI32() (int32, error) {
	v, err := c.ReadU32()
	return int32(v), err
}

func (c *Cursor) ReadI64() (int64, error) {
	b, err := c.read(8)
	if err != nil {
		return 0, err
	}
	return int64(c.order.Uint64(b)), nil
}

func (c *Cursor) ReadF32() (float32, error) {
	v, err := c.ReadU32()
	return math.Float32frombits(v), err
}

// ReadBytes returns the next n bytes. The slice is freshly allocated and
// owned by the caller.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(c.r, b); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: need %d bytes at offset %d", ErrUnexpectedEOF, n, c.off)
		}
		return nil, err
	}
	c.off += int64(n)
	return b, nil
}

// ReadString reads a fixed-width NUL-padded string and strips the padding.
func (c *Cursor) ReadString(n int) (string, error) {
	b, err := c.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return strings.Trim(string(b), "\x00"), nil
}

// ReadBlock fills buf with the next record. Unlike the typed reads it
// reports the underlying condition so the record decoder can tell a clean
// end of stream (io.EOF, zero bytes) from a trailing partial record
// (io.ErrUnexpectedEOF, 0 < n < len(buf)).
func (c *Cursor) ReadBlock(buf []byte) (int, error) {
	n, err := io.ReadFull(c.r, buf)
	c.off += int64(n)
	return n, err
}
