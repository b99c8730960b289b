// Package mlg decodes MLG binary datalogs: a self-describing container of
// a fixed header, a channel descriptor table and a stream of fixed-size
// sample records, decoded in a single forward pass.
package mlg

// LogFile is the decoded metadata of an MLG datalog: everything that
// precedes the record stream. It stays read-only for the engine's lifetime;
// samples are transient and owned by whichever pipeline stage holds them.
type LogFile struct {
	Header        Header
	Fields        []FieldDescriptor
	BitFieldNames string
	InfoData      string
}

// Parse decodes the header, field table and info region in one call,
// leaving the cursor positioned at the start of the record stream.
//
// The conversion pipeline drives ParseHeader, ParseFields and
// ReadInfoRegion individually so it can report which phase failed; Parse is
// the single-shot form for callers that do not care.
func Parse(c *Cursor) (*LogFile, error) {
	h, err := ParseHeader(c)
	if err != nil {
		return nil, err
	}
	fields, err := ParseFields(c, h)
	if err != nil {
		return nil, err
	}
	bitNames, info, err := ReadInfoRegion(c, h)
	if err != nil {
		return nil, err
	}
	return &LogFile{
		Header:        h,
		Fields:        fields,
		BitFieldNames: bitNames,
		InfoData:      info,
	}, nil
}

// ReadInfoRegion reads the bit-field-names string (between the field table
// and InfoDataStart) and the free-text info data (up to DataBeginIndex).
// On success the cursor sits at the first record.
func ReadInfoRegion(c *Cursor, h Header) (bitFieldNames, infoData string, err error) {
	n := int(int64(h.InfoDataStart) - c.Offset())
	if n < 0 {
		// Header validation bounds InfoDataStart against the field table,
		// so a negative gap means the cursor was driven out of position.
		return "", "", ErrCorruptHeader
	}
	if bitFieldNames, err = c.ReadString(n); err != nil {
		return "", "", err
	}
	if infoData, err = c.ReadString(int(h.DataBeginIndex) - int(h.InfoDataStart)); err != nil {
		return "", "", err
	}
	return bitFieldNames, infoData, nil
}
