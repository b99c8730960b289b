package sink

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/coffersTech/mlgconv/internal/mlg"
)

// DefaultDelimiter matches MegaLogViewer's tab-separated export convention.
const DefaultDelimiter = '\t'

// CSV writes one header row of field names, one row of units, then one row
// per sample with the resolved timestamp in the first column. Formatting is
// deterministic and locale-independent: the decimal point is always '.'.
// Marker records carry no field values and are skipped.
type CSV struct {
	w      *csv.Writer
	c      io.Closer
	fields []mlg.FieldDescriptor
	row    []string
}

// NewCSV builds a CSV sink over w with the given field separator. If w is
// an io.Closer it is closed by Close.
func NewCSV(w io.Writer, delimiter rune) *CSV {
	cw := csv.NewWriter(w)
	if delimiter != 0 {
		cw.Comma = delimiter
	} else {
		cw.Comma = DefaultDelimiter
	}
	s := &CSV{w: cw}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

func (s *CSV) WriteHeader(lf *mlg.LogFile) error {
	s.fields = lf.Fields
	s.row = make([]string, len(lf.Fields)+1)

	s.row[0] = "Time"
	for i, f := range lf.Fields {
		s.row[i+1] = f.Name
	}
	if err := s.w.Write(s.row); err != nil {
		return err
	}

	s.row[0] = "s"
	for i, f := range lf.Fields {
		s.row[i+1] = f.Units
	}
	return s.w.Write(s.row)
}

func (s *CSV) WriteSample(sm *mlg.Sample) error {
	s.row[0] = formatTime(sm.Time)
	for i, f := range s.fields {
		s.row[i+1] = FormatValue(f, sm.Values[i])
	}
	return s.w.Write(s.row)
}

// WriteMarker drops marker records; they have no tabular representation.
func (s *CSV) WriteMarker(*mlg.Sample) error {
	return nil
}

func (s *CSV) Close() error {
	s.w.Flush()
	err := s.w.Error()
	if s.c != nil {
		if cerr := s.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// FormatValue renders a physical value for its field. Float-styled fields
// honor the declared digit count so scaled integers come out exact (raw
// 250 at scale 0.1 prints 25.0, not 25.000000372); every other style uses
// the shortest representation that round-trips.
func FormatValue(f mlg.FieldDescriptor, v float64) string {
	if f.Style == mlg.StyleFloat && f.Digits >= 0 {
		return strconv.FormatFloat(v, 'f', int(f.Digits), 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTime(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}
