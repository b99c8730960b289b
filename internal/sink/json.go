package sink

import (
	"encoding/json"
	"io"
	"math"
	"strconv"

	"github.com/coffersTech/mlgconv/internal/mlg"
)

// JSON writes a single document: the file metadata followed by a "samples"
// array streamed one element at a time, never holding the series in
// memory. Marker records become {"type":"marker"} entries, field records
// {"type":"field"} with values keyed by channel name in declaration order.
type JSON struct {
	w      io.Writer
	c      io.Closer
	fields []mlg.FieldDescriptor
	first  bool
	opened bool
}

type jsonField struct {
	Type         int8    `json:"fieldType"`
	Name         string  `json:"name"`
	Units        string  `json:"units"`
	DisplayStyle string  `json:"displayStyle"`
	Scale        float32 `json:"scale"`
	Transform    float32 `json:"transform"`
	Digits       int8    `json:"digits"`
}

type jsonMeta struct {
	FileFormat     string      `json:"fileFormat"`
	FormatVersion  int16       `json:"formatVersion"`
	Timestamp      int32       `json:"timestamp"`
	RecordLength   int16       `json:"recordLength"`
	RecordCount    int32       `json:"recordCount"`
	SampleInterval float32     `json:"sampleInterval"`
	BitFieldNames  string      `json:"bitFieldNames"`
	InfoData       string      `json:"infoData"`
	Fields         []jsonField `json:"fields"`
}

// NewJSON builds a JSON sink over w. If w is an io.Closer it is closed by
// Close.
func NewJSON(w io.Writer) *JSON {
	s := &JSON{w: w, first: true}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

func (s *JSON) WriteHeader(lf *mlg.LogFile) error {
	s.fields = lf.Fields
	s.opened = true

	meta := jsonMeta{
		FileFormat:     "MLVLG",
		FormatVersion:  lf.Header.Version,
		Timestamp:      lf.Header.Epoch,
		RecordLength:   lf.Header.RecordLength,
		RecordCount:    lf.Header.RecordCount,
		SampleInterval: lf.Header.SampleInterval,
		BitFieldNames:  lf.BitFieldNames,
		InfoData:       lf.InfoData,
		Fields:         make([]jsonField, len(lf.Fields)),
	}
	for i, f := range lf.Fields {
		meta.Fields[i] = jsonField{
			Type:         int8(f.Type),
			Name:         f.Name,
			Units:        f.Units,
			DisplayStyle: f.Style.String(),
			Scale:        f.Scale,
			Transform:    f.Transform,
			Digits:       f.Digits,
		}
	}

	b, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	// Reopen the metadata object so the samples array streams inside it.
	if _, err := s.w.Write(b[:len(b)-1]); err != nil {
		return err
	}
	_, err = io.WriteString(s.w, `,"samples":[`)
	return err
}

func (s *JSON) WriteSample(sm *mlg.Sample) error {
	if err := s.writeSep(); err != nil {
		return err
	}
	if _, err := io.WriteString(s.w, `{"type":"field","timestamp":`); err != nil {
		return err
	}
	if _, err := io.WriteString(s.w, formatTime(sm.Time)); err != nil {
		return err
	}
	if _, err := io.WriteString(s.w, `,"counter":`+strconv.Itoa(int(sm.Counter))+`,"values":{`); err != nil {
		return err
	}
	for i, f := range s.fields {
		if i > 0 {
			if _, err := io.WriteString(s.w, ","); err != nil {
				return err
			}
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return err
		}
		if _, err := s.w.Write(name); err != nil {
			return err
		}
		if _, err := io.WriteString(s.w, ":"+jsonNumber(sm.Values[i])); err != nil {
			return err
		}
	}
	_, err := io.WriteString(s.w, "}}")
	return err
}

func (s *JSON) WriteMarker(sm *mlg.Sample) error {
	if err := s.writeSep(); err != nil {
		return err
	}
	msg, err := json.Marshal(sm.Message)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(s.w, `{"type":"marker","timestamp":`+formatTime(sm.Time)+`,"message":`); err != nil {
		return err
	}
	if _, err := s.w.Write(msg); err != nil {
		return err
	}
	_, err = io.WriteString(s.w, "}")
	return err
}

func (s *JSON) Close() error {
	var err error
	if s.opened {
		_, err = io.WriteString(s.w, "]}")
	}
	if s.c != nil {
		if cerr := s.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (s *JSON) writeSep() error {
	if s.first {
		s.first = false
		return nil
	}
	_, err := io.WriteString(s.w, ",")
	return err
}

// jsonNumber renders a float as a valid JSON number: shortest round-trip
// form, with non-finite values (not representable in JSON) as null.
func jsonNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "null"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
