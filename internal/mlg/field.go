package mlg

import (
	"encoding/binary"
	"fmt"
	"math"
)

// FieldType is the on-disk primitive type tag of a logger field. Tags 10-12
// are bit-field carriers; they decode like their unsigned counterparts.
type FieldType int8

const (
	FieldU8  FieldType = 0
	FieldI8  FieldType = 1
	FieldU16 FieldType = 2
	FieldI16 FieldType = 3
	FieldU32 FieldType = 4
	FieldI32 FieldType = 5
	FieldI64 FieldType = 6
	FieldF32 FieldType = 7

	FieldBitU8  FieldType = 10
	FieldBitU16 FieldType = 11
	FieldBitU32 FieldType = 12
)

// Width returns the on-disk size in bytes, or 0 for an unknown tag.
func (t FieldType) Width() int {
	switch t {
	case FieldU8, FieldI8, FieldBitU8:
		return 1
	case FieldU16, FieldI16, FieldBitU16:
		return 2
	case FieldU32, FieldI32, FieldF32, FieldBitU32:
		return 4
	case FieldI64:
		return 8
	default:
		return 0
	}
}

func (t FieldType) String() string {
	switch t {
	case FieldU8:
		return "u8"
	case FieldI8:
		return "i8"
	case FieldU16:
		return "u16"
	case FieldI16:
		return "i16"
	case FieldU32:
		return "u32"
	case FieldI32:
		return "i32"
	case FieldI64:
		return "i64"
	case FieldF32:
		return "f32"
	case FieldBitU8:
		return "bit8"
	case FieldBitU16:
		return "bit16"
	case FieldBitU32:
		return "bit32"
	default:
		return "unknown"
	}
}

// decode interprets the bytes at the start of b as this primitive type.
// The caller guarantees len(b) >= Width().
func (t FieldType) decode(b []byte, order binary.ByteOrder) float64 {
	switch t {
	case FieldU8, FieldBitU8:
		return float64(b[0])
	case FieldI8:
		return float64(int8(b[0]))
	case FieldU16, FieldBitU16:
		return float64(order.Uint16(b))
	case FieldI16:
		return float64(int16(order.Uint16(b)))
	case FieldU32, FieldBitU32:
		return float64(order.Uint32(b))
	case FieldI32:
		return float64(int32(order.Uint32(b)))
	case FieldI64:
		return float64(int64(order.Uint64(b)))
	case FieldF32:
		return float64(math.Float32frombits(order.Uint32(b)))
	default:
		return 0
	}
}

// DisplayStyle controls how a field's physical values are rendered.
type DisplayStyle int8

const (
	StyleFloat DisplayStyle = iota
	StyleHex
	StyleBits
	StyleDate
	StyleOnOff
	StyleYesNo
	StyleHighLow
	StyleActiveInactive

	styleMax = StyleActiveInactive
)

var styleNames = [...]string{
	"Float", "Hex", "bits", "Date", "On/Off", "Yes/No", "High/Low", "Active/Inactive",
}

func (s DisplayStyle) String() string {
	if s < 0 || s > styleMax {
		return "unknown"
	}
	return styleNames[s]
}

// FieldDescriptor describes one logger channel: where its raw value lives
// inside a record and how that value maps to a physical quantity.
type FieldDescriptor struct {
	Type      FieldType
	Name      string
	Units     string
	Style     DisplayStyle
	Scale     float32
	Transform float32
	Digits    int8
	Offset    int // byte offset within a record
}

// Physical converts a raw on-disk value to its physical quantity.
func (f FieldDescriptor) Physical(raw float64) float64 {
	return (raw + float64(f.Transform)) * float64(f.Scale)
}

// ParseFields decodes exactly h.FieldCount descriptor entries. The result
// is consumed read-only by the record decoder for the rest of the run.
func ParseFields(c *Cursor, h Header) ([]FieldDescriptor, error) {
	fields := make([]FieldDescriptor, 0, h.FieldCount)
	seen := make(map[string]bool, h.FieldCount)

	for i := 0; i < int(h.FieldCount); i++ {
		f, err := parseField(c)
		if err != nil {
			return nil, err
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, f.Name)
		}
		seen[f.Name] = true
		fields = append(fields, f)
	}

	assignOffsets(fields)
	for _, f := range fields {
		if f.Offset+f.Type.Width() > int(h.RecordLength) {
			return nil, fmt.Errorf("%w: %q at offset %d width %d, record length %d",
				ErrFieldOutOfBounds, f.Name, f.Offset, f.Type.Width(), h.RecordLength)
		}
	}
	return fields, nil
}

func parseField(c *Cursor) (FieldDescriptor, error) {
	var f FieldDescriptor

	tag, err := c.ReadI8()
	if err != nil {
		return f, err
	}
	f.Type = FieldType(tag)

	if f.Name, err = c.ReadString(fieldNameSize); err != nil {
		return f, err
	}
	if f.Units, err = c.ReadString(fieldUnitsSize); err != nil {
		return f, err
	}

	style, err := c.ReadI8()
	if err != nil {
		return f, err
	}
	f.Style = DisplayStyle(style)

	if f.Scale, err = c.ReadF32(); err != nil {
		return f, err
	}
	if f.Transform, err = c.ReadF32(); err != nil {
		return f, err
	}
	if f.Digits, err = c.ReadI8(); err != nil {
		return f, err
	}

	if f.Name == "" {
		return f, fmt.Errorf("%w: tag %d", ErrEmptyFieldName, tag)
	}
	if f.Type.Width() == 0 {
		return f, fmt.Errorf("%w: %q (tag %d)", ErrUnknownFieldType, f.Name, tag)
	}
	if f.Style < 0 || f.Style > styleMax {
		return f, fmt.Errorf("%w: %q (style %d)", ErrUnknownDisplayStyle, f.Name, style)
	}
	return f, nil
}

// assignOffsets lays fields out back to back after the record block header.
// The format stores no explicit offsets; they are the cumulative sums of
// the declared type widths. Returns the minimal record length, including
// the trailing CRC slot of a field record.
func assignOffsets(fields []FieldDescriptor) int {
	off := recordHeadSize
	for i := range fields {
		fields[i].Offset = off
		off += fields[i].Type.Width()
	}
	return off + 1
}
