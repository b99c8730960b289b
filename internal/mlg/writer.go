package mlg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Record is one entry to be encoded into a datalog: either a field record
// carrying one raw (pre scale/transform) value per descriptor, or a marker
// record carrying a message.
type Record struct {
	Counter  uint8
	TimeMark uint16
	Raw      []float64
	Marker   bool
	Message  string
}

// Writer encodes an MLG datalog: header, field table, info region, then
// fixed-size records. It is the symmetric counterpart of the decoder and
// backs the round-trip tests and fixture generation.
type Writer struct {
	order   binary.ByteOrder
	header  Header
	fields  []FieldDescriptor
	bitStr  string
	info    string
	records bytes.Buffer
}

// NewWriter prepares a writer for the given metadata. Field offsets are
// assigned from the declared type widths; a zero RecordLength in h is
// replaced by the minimal length. InfoDataStart and DataBeginIndex are
// computed, not taken from h.
func NewWriter(h Header, fields []FieldDescriptor, bitFieldNames, infoData string) (*Writer, error) {
	minLen := assignOffsets(fields)
	if h.RecordLength == 0 {
		h.RecordLength = int16(minLen)
	}
	if int(h.RecordLength) < minLen {
		return nil, fmt.Errorf("%w: record length %d below minimal %d",
			ErrFieldOutOfBounds, h.RecordLength, minLen)
	}
	h.FieldCount = int16(len(fields))

	tableEnd := headerSize + fieldEntrySize*len(fields)
	h.InfoDataStart = int16(tableEnd + len(bitFieldNames))
	h.DataBeginIndex = int32(int(h.InfoDataStart) + len(infoData))

	return &Writer{
		order:  binary.BigEndian,
		header: h,
		fields: fields,
		bitStr: bitFieldNames,
		info:   infoData,
	}, nil
}

// Append encodes one record.
func (w *Writer) Append(rec Record) error {
	buf := make([]byte, w.header.RecordLength)
	buf[1] = rec.Counter
	w.order.PutUint16(buf[2:4], rec.TimeMark)

	if rec.Marker {
		buf[0] = byte(BlockMarker)
		if len(rec.Message) > markerMsgLimit || len(rec.Message) > len(buf)-recordHeadSize {
			return fmt.Errorf("marker message %q too long for record", rec.Message)
		}
		copy(buf[recordHeadSize:], rec.Message)
	} else {
		buf[0] = byte(BlockField)
		if len(rec.Raw) != len(w.fields) {
			return fmt.Errorf("record has %d values, field table has %d",
				len(rec.Raw), len(w.fields))
		}
		for i, f := range w.fields {
			w.encodeValue(buf[f.Offset:], f.Type, rec.Raw[i])
		}
	}

	w.records.Write(buf)
	return nil
}

func (w *Writer) encodeValue(b []byte, t FieldType, v float64) {
	switch t {
	case FieldU8, FieldBitU8:
		b[0] = uint8(v)
	case FieldI8:
		b[0] = byte(int8(v))
	case FieldU16, FieldBitU16:
		w.order.PutUint16(b, uint16(v))
	case FieldI16:
		w.order.PutUint16(b, uint16(int16(v)))
	case FieldU32, FieldBitU32:
		w.order.PutUint32(b, uint32(v))
	case FieldI32:
		w.order.PutUint32(b, uint32(int32(v)))
	case FieldI64:
		w.order.PutUint64(b, uint64(int64(v)))
	case FieldF32:
		w.order.PutUint32(b, math.Float32bits(float32(v)))
	}
}

// Bytes assembles the complete file. A RecordCountEOF header leaves the
// count as the until-EOF sentinel; any other value is written verbatim so
// tests can declare counts that disagree with the stream.
func (w *Writer) Bytes() []byte {
	var out bytes.Buffer

	out.Write(Magic)
	binary.Write(&out, w.order, w.header.Version)
	binary.Write(&out, w.order, w.header.Epoch)
	binary.Write(&out, w.order, w.header.InfoDataStart)
	binary.Write(&out, w.order, w.header.DataBeginIndex)
	binary.Write(&out, w.order, w.header.RecordLength)
	binary.Write(&out, w.order, w.header.RecordCount)
	binary.Write(&out, w.order, math.Float32bits(w.header.SampleInterval))
	binary.Write(&out, w.order, w.header.FieldCount)

	for _, f := range w.fields {
		binary.Write(&out, w.order, int8(f.Type))
		writePadded(&out, f.Name, fieldNameSize)
		writePadded(&out, f.Units, fieldUnitsSize)
		binary.Write(&out, w.order, int8(f.Style))
		binary.Write(&out, w.order, math.Float32bits(f.Scale))
		binary.Write(&out, w.order, math.Float32bits(f.Transform))
		binary.Write(&out, w.order, f.Digits)
	}

	out.WriteString(w.bitStr)
	out.WriteString(w.info)
	out.Write(w.records.Bytes())
	return out.Bytes()
}

func writePadded(out *bytes.Buffer, s string, width int) {
	b := make([]byte, width)
	copy(b, s)
	out.Write(b)
}
