package mlg

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestCursorReads(t *testing.T) {
	data := []byte{
		0xAB,       // u8
		0xFF,       // i8 = -1
		0x01, 0x02, // u16 = 0x0102
		0xFF, 0xFE, // i16 = -2
		0x00, 0x00, 0x01, 0x00, // u32 = 256
		0xFF, 0xFF, 0xFF, 0xFD, // i32 = -3
		0x3F, 0x80, 0x00, 0x00, // f32 = 1.0
	}
	c := NewCursor(bytes.NewReader(data), int64(len(data)))

	if v, err := c.ReadU8(); err != nil || v != 0xAB {
		t.Fatalf("ReadU8 = %v, %v", v, err)
	}
	if v, err := c.ReadI8(); err != nil || v != -1 {
		t.Fatalf("ReadI8 = %v, %v", v, err)
	}
	if v, err := c.ReadU16(); err != nil || v != 0x0102 {
		t.Fatalf("ReadU16 = %v, %v", v, err)
	}
	if v, err := c.ReadI16(); err != nil || v != -2 {
		t.Fatalf("ReadI16 = %v, %v", v, err)
	}
	if v, err := c.ReadU32(); err != nil || v != 256 {
		t.Fatalf("ReadU32 = %v, %v", v, err)
	}
	if v, err := c.ReadI32(); err != nil || v != -3 {
		t.Fatalf("ReadI32 = %v, %v", v, err)
	}
	if v, err := c.ReadF32(); err != nil || v != 1.0 {
		t.Fatalf("ReadF32 = %v, %v", v, err)
	}
	if got := c.Offset(); got != int64(len(data)) {
		t.Fatalf("Offset = %d, want %d", got, len(data))
	}
	if got := c.Remaining(); got != 0 {
		t.Fatalf("Remaining = %d, want 0", got)
	}
}

func TestCursorReadI64(t *testing.T) {
	var buf [8]byte
	want := int64(-123456789012345)
	for i := 0; i < 8; i++ {
		buf[i] = byte(uint64(want) >> (56 - 8*i))
	}
	c := NewCursor(bytes.NewReader(buf[:]), 8)
	got, err := c.ReadI64()
	if err != nil || got != want {
		t.Fatalf("ReadI64 = %v, %v; want %v", got, err, want)
	}
}

func TestCursorShortRead(t *testing.T) {
	c := NewCursor(bytes.NewReader([]byte{0x01}), 1)
	if _, err := c.ReadU32(); !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestCursorReadString(t *testing.T) {
	data := append([]byte("RPM"), 0, 0, 0)
	c := NewCursor(bytes.NewReader(data), int64(len(data)))
	s, err := c.ReadString(6)
	if err != nil || s != "RPM" {
		t.Fatalf("ReadString = %q, %v", s, err)
	}
}

func TestCursorSeek(t *testing.T) {
	data := make([]byte, 16)
	data[10] = 0x42
	c := NewCursor(bytes.NewReader(data), 16)

	if err := c.Seek(10); err != nil {
		t.Fatalf("Seek(10): %v", err)
	}
	if v, _ := c.ReadU8(); v != 0x42 {
		t.Fatalf("byte at offset 10 = %#x", v)
	}
	if err := c.Seek(5); err == nil {
		t.Fatal("backward seek should fail")
	}
	if err := c.Seek(100); !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("seek past end: expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestCursorUnknownSize(t *testing.T) {
	c := NewCursor(bytes.NewReader([]byte{1, 2, 3}), -1)
	if got := c.Remaining(); got != -1 {
		t.Fatalf("Remaining = %d, want -1", got)
	}
}

func TestFieldTypeDecodeF32(t *testing.T) {
	var b [4]byte
	bits := math.Float32bits(3.5)
	b[0] = byte(bits >> 24)
	b[1] = byte(bits >> 16)
	b[2] = byte(bits >> 8)
	b[3] = byte(bits)
	c := NewCursor(bytes.NewReader(b[:]), 4)
	v, err := c.ReadF32()
	if err != nil || v != 3.5 {
		t.Fatalf("ReadF32 = %v, %v", v, err)
	}
}
