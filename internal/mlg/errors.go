package mlg

import (
	"errors"
	"fmt"
)

// Fatal conditions. Everything detectable in the metadata (header and field
// table) fails before a single record is streamed; stream-level corruption
// fails after whatever was valid has been emitted.
var (
	ErrInvalidSignature    = errors.New("invalid MLG signature")
	ErrUnsupportedVersion  = errors.New("unsupported MLG format version")
	ErrCorruptHeader       = errors.New("corrupt MLG header")
	ErrEmptyFieldName      = errors.New("empty field name")
	ErrDuplicateField      = errors.New("duplicate field name")
	ErrUnknownFieldType    = errors.New("unknown field type tag")
	ErrUnknownDisplayStyle = errors.New("unknown field display style")
	ErrFieldOutOfBounds    = errors.New("field extends past record length")
	ErrUnknownBlockType    = errors.New("unknown block type")
	ErrTruncatedLog        = errors.New("record stream shorter than declared count")
	ErrUnexpectedEOF       = errors.New("unexpected end of input")
)

// WarningKind identifies a non-fatal condition found while decoding.
type WarningKind int

const (
	WarnTrailingBytes WarningKind = iota
	WarnNonMonotonicTimestamp
)

func (k WarningKind) String() string {
	switch k {
	case WarnTrailingBytes:
		return "trailing bytes"
	case WarnNonMonotonicTimestamp:
		return "non-monotonic timestamp"
	default:
		return "unknown warning"
	}
}

// Warning is reported to the caller but never aborts a conversion. Logs can
// legitimately end mid-write, and source order is preserved even when a
// timestamp channel runs backwards.
type Warning struct {
	Kind   WarningKind
	Detail string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Detail)
}
