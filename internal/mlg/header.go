package mlg

import (
	"bytes"
	"fmt"
)

// Magic identifies an MLG datalog. The trailing NUL is part of the
// signature on disk.
var Magic = []byte("MLVLG\x00")

const (
	headerSize      = 30
	fieldEntrySize  = 55
	fieldNameSize   = 34
	fieldUnitsSize  = 10
	recordHeadSize  = 4 // block type + counter + time marker
	markerMsgLimit  = 50
	// RecordCountEOF is the declared-count sentinel meaning "read records
	// until the stream ends".
	RecordCountEOF = -1
)

// supportedVersions is the closed set of format versions this decoder
// understands. Unknown versions are rejected, never guessed at.
var supportedVersions = map[int16]bool{1: true}

// Header is the fixed-layout file header. All offsets are absolute.
type Header struct {
	Version        int16
	Epoch          int32 // capture start, seconds since the Unix epoch
	InfoDataStart  int16
	DataBeginIndex int32
	RecordLength   int16
	RecordCount    int32 // RecordCountEOF means until end of stream
	SampleInterval float32
	FieldCount     int16
}

// ParseHeader decodes and validates the file header. On success the cursor
// is positioned at the start of the field descriptor table.
func ParseHeader(c *Cursor) (Header, error) {
	var h Header

	magic, err := c.ReadBytes(len(Magic))
	if err != nil {
		return h, err
	}
	if !bytes.Equal(magic, Magic) {
		return h, fmt.Errorf("%w: got %q", ErrInvalidSignature, magic)
	}

	if h.Version, err = c.ReadI16(); err != nil {
		return h, err
	}
	if !supportedVersions[h.Version] {
		return h, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}

	if h.Epoch, err = c.ReadI32(); err != nil {
		return h, err
	}
	if h.InfoDataStart, err = c.ReadI16(); err != nil {
		return h, err
	}
	if h.DataBeginIndex, err = c.ReadI32(); err != nil {
		return h, err
	}
	if h.RecordLength, err = c.ReadI16(); err != nil {
		return h, err
	}
	if h.RecordCount, err = c.ReadI32(); err != nil {
		return h, err
	}
	if h.SampleInterval, err = c.ReadF32(); err != nil {
		return h, err
	}
	if h.FieldCount, err = c.ReadI16(); err != nil {
		return h, err
	}

	return h, h.validate()
}

func (h Header) validate() error {
	if h.FieldCount < 0 {
		return fmt.Errorf("%w: negative field count %d", ErrCorruptHeader, h.FieldCount)
	}
	if h.RecordLength <= recordHeadSize {
		return fmt.Errorf("%w: record length %d", ErrCorruptHeader, h.RecordLength)
	}
	if h.RecordCount < RecordCountEOF {
		return fmt.Errorf("%w: record count %d", ErrCorruptHeader, h.RecordCount)
	}
	if h.SampleInterval < 0 {
		return fmt.Errorf("%w: sample interval %g", ErrCorruptHeader, h.SampleInterval)
	}
	tableEnd := int64(headerSize) + int64(h.FieldCount)*fieldEntrySize
	if int64(h.InfoDataStart) < tableEnd {
		return fmt.Errorf("%w: info data start %d overlaps field table ending at %d",
			ErrCorruptHeader, h.InfoDataStart, tableEnd)
	}
	if int64(h.DataBeginIndex) < int64(h.InfoDataStart) {
		return fmt.Errorf("%w: data begin index %d before info data start %d",
			ErrCorruptHeader, h.DataBeginIndex, h.InfoDataStart)
	}
	return nil
}
