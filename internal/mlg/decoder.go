package mlg

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// BlockType discriminates the records in the stream.
const (
	BlockField  int8 = 0
	BlockMarker int8 = 1
)

// Sample is one decoded record. Values holds the physical field values in
// declaration order; for marker records Values is nil and Message carries
// the marker text. The Values slice is reused between calls to Next, so
// callers that retain samples must copy it.
type Sample struct {
	Index    int     // record index within the stream
	Time     float64 // resolved sample time in seconds
	Counter  uint8
	TimeMark uint16 // raw 16-bit time marker from the block header
	Values   []float64
	Message  string
}

// IsMarker reports whether the sample is a marker record.
func (s *Sample) IsMarker() bool {
	return s.Values == nil
}

// Decoder walks the record stream as a lazy, finite, forward-only sequence
// of samples. It is not restartable: a single forward pass over the cursor.
//
// Usage mirrors a row iterator:
//
//	for dec.Next() {
//	    s := dec.Sample()
//	    ...
//	}
//	if err := dec.Err(); err != nil { ... }
type Decoder struct {
	cur    *Cursor
	log    *LogFile
	order  binary.ByteOrder
	times  *timeResolver
	buf    []byte
	values []float64 // backing storage for field-record samples
	sample Sample

	index    int // records consumed, field and marker alike
	produced int // field records emitted as samples
	done     bool
	err      error
	warnings []Warning
}

// NewDecoder prepares a decoder over a cursor positioned at the record
// stream. timeField names the designated timestamp channel; empty selects
// DefaultTimeField. Falls back to implicit index-based timing when the
// channel does not exist.
func NewDecoder(c *Cursor, lf *LogFile, timeField string) *Decoder {
	return &Decoder{
		cur:    c,
		log:    lf,
		order:  binary.BigEndian,
		times:  newTimeResolver(lf.Fields, timeField, lf.Header.SampleInterval),
		buf:    make([]byte, lf.Header.RecordLength),
		values: make([]float64, len(lf.Fields)),
	}
}

// Next advances to the next record. It returns false at the end of the
// stream or on error; check Err afterwards.
func (d *Decoder) Next() bool {
	if d.done || d.err != nil {
		return false
	}

	declared := int(d.log.Header.RecordCount)
	if declared != RecordCountEOF && d.index >= declared {
		// Surplus complete records past the declared count are ignored.
		d.done = true
		return false
	}

	n, err := d.cur.ReadBlock(d.buf)
	switch err {
	case nil:
	case io.EOF:
		d.done = true
		if declared != RecordCountEOF {
			d.err = fmt.Errorf("%w: declared %d, stream held %d",
				ErrTruncatedLog, declared, d.index)
		}
		return false
	case io.ErrUnexpectedEOF:
		d.done = true
		if declared != RecordCountEOF {
			d.err = fmt.Errorf("%w: declared %d, stream held %d and a partial record",
				ErrTruncatedLog, declared, d.index)
			return false
		}
		d.warnings = append(d.warnings, Warning{
			Kind:   WarnTrailingBytes,
			Detail: fmt.Sprintf("%d trailing byte(s) after the last complete record", n),
		})
		return false
	default:
		d.err = err
		return false
	}

	blockType := int8(d.buf[0])
	d.sample.Index = d.index
	d.sample.Counter = d.buf[1]
	d.sample.TimeMark = d.order.Uint16(d.buf[2:4])

	switch blockType {
	case BlockField:
		for i, f := range d.log.Fields {
			raw := f.Type.decode(d.buf[f.Offset:], d.order)
			d.values[i] = f.Physical(raw)
		}
		// The final payload byte is a CRC slot; version 1 readers skip it.
		d.sample.Values = d.values
		d.sample.Message = ""
		d.sample.Time = d.times.resolve(d.index, d.values)
		d.produced++
	case BlockMarker:
		msg := d.buf[recordHeadSize:]
		if len(msg) > markerMsgLimit {
			msg = msg[:markerMsgLimit]
		}
		d.sample.Values = nil
		d.sample.Message = strings.Trim(string(msg), "\x00")
		d.sample.Time = d.times.resolve(d.index, nil)
	default:
		d.err = fmt.Errorf("%w: %d at record %d", ErrUnknownBlockType, blockType, d.index)
		return false
	}

	d.index++
	return true
}

// Sample returns the current record. Valid until the next call to Next.
func (d *Decoder) Sample() *Sample {
	return &d.sample
}

// Err returns the first fatal stream error, if any.
func (d *Decoder) Err() error {
	return d.err
}

// Produced returns the number of field records decoded so far.
func (d *Decoder) Produced() int {
	return d.produced
}

// Warnings returns the non-fatal conditions observed so far, including the
// aggregate non-monotonic timestamp warning once the stream has ended.
func (d *Decoder) Warnings() []Warning {
	out := d.warnings
	if w, ok := d.times.warning(); ok {
		out = append(out[:len(out):len(out)], w)
	}
	return out
}
