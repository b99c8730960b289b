package mlg

import (
	"errors"
	"math"
	"testing"
)

func decodeAll(t *testing.T, data []byte, timeField string) (*Decoder, []Sample) {
	t.Helper()
	c := cursorOver(data)
	lf, err := Parse(c)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dec := NewDecoder(c, lf, timeField)

	var samples []Sample
	for dec.Next() {
		s := *dec.Sample()
		s.Values = append([]float64(nil), s.Values...)
		samples = append(samples, s)
	}
	return dec, samples
}

func TestDecodeMixedTypes(t *testing.T) {
	fields := []FieldDescriptor{
		{Type: FieldU8, Name: "Gear", Style: StyleFloat, Scale: 1},
		{Type: FieldI16, Name: "IAT", Style: StyleFloat, Scale: 1},
		{Type: FieldU32, Name: "Odometer", Style: StyleFloat, Scale: 1},
		{Type: FieldI64, Name: "Ticks", Style: StyleFloat, Scale: 1},
		{Type: FieldF32, Name: "Lambda", Style: StyleFloat, Scale: 1, Digits: 3},
		{Type: FieldBitU16, Name: "Flags", Style: StyleBits, Scale: 1},
	}
	raw := []float64{3, -40, 123456, -987654321, 0.85, 0x00FF}
	data := encodeTestFile(t, Header{Version: 1, RecordCount: RecordCountEOF, SampleInterval: 0.1},
		fields, []Record{{Raw: raw}})

	dec, samples := decodeAll(t, data, "")
	if err := dec.Err(); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("got %d samples, want 1", len(samples))
	}
	got := samples[0].Values
	want := []float64{3, -40, 123456, -987654321, float64(float32(0.85)), 255}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("field %s = %v, want %v", fields[i].Name, got[i], want[i])
		}
	}
}

func TestDecodeScaleAndTransform(t *testing.T) {
	fields := []FieldDescriptor{
		{Type: FieldU16, Name: "CLT", Style: StyleFloat, Scale: 0.1, Transform: 0, Digits: 1},
	}
	data := encodeTestFile(t, Header{Version: 1, RecordCount: RecordCountEOF},
		fields, []Record{{Raw: []float64{250}}})

	dec, samples := decodeAll(t, data, "")
	if err := dec.Err(); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if math.Abs(samples[0].Values[0]-25.0) > 1e-5 {
		t.Fatalf("physical = %v, want 25.0", samples[0].Values[0])
	}
}

func TestDecodeImplicitTimestamps(t *testing.T) {
	fields := testFields()
	recs := []Record{
		{Raw: []float64{1000, 99}},
		{Raw: []float64{2000, 98}},
		{Raw: []float64{3000, 97}},
	}
	data := encodeTestFile(t, Header{Version: 1, RecordCount: RecordCountEOF, SampleInterval: 0.5},
		fields, recs)

	dec, samples := decodeAll(t, data, "")
	if err := dec.Err(); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []float64{0, 0.5, 1.0}
	for i, s := range samples {
		if s.Time != want[i] {
			t.Errorf("sample %d time = %v, want %v", i, s.Time, want[i])
		}
	}
}

func TestDecodeExplicitTimestampField(t *testing.T) {
	fields := []FieldDescriptor{
		{Type: FieldF32, Name: "Time", Units: "s", Style: StyleFloat, Scale: 1, Digits: 3},
		{Type: FieldU16, Name: "RPM", Style: StyleFloat, Scale: 1},
	}
	recs := []Record{
		{Raw: []float64{1.5, 900}},
		{Raw: []float64{2.5, 950}},
	}
	data := encodeTestFile(t, Header{Version: 1, RecordCount: RecordCountEOF, SampleInterval: 42},
		fields, recs)

	dec, samples := decodeAll(t, data, "")
	if err := dec.Err(); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if samples[0].Time != 1.5 || samples[1].Time != 2.5 {
		t.Fatalf("times = %v, %v", samples[0].Time, samples[1].Time)
	}
	if len(dec.Warnings()) != 0 {
		t.Fatalf("unexpected warnings: %v", dec.Warnings())
	}
}

func TestDecodeNonMonotonicTimestamp(t *testing.T) {
	fields := []FieldDescriptor{
		{Type: FieldF32, Name: "Time", Units: "s", Style: StyleFloat, Scale: 1, Digits: 3},
	}
	recs := []Record{
		{Raw: []float64{1.0}},
		{Raw: []float64{0.5}}, // goes backwards
		{Raw: []float64{2.0}},
	}
	data := encodeTestFile(t, Header{Version: 1, RecordCount: RecordCountEOF}, fields, recs)

	dec, samples := decodeAll(t, data, "")
	if err := dec.Err(); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Source order preserved, never re-sorted.
	if samples[1].Time != 0.5 {
		t.Fatalf("sample 1 time = %v", samples[1].Time)
	}
	warns := dec.Warnings()
	if len(warns) != 1 || warns[0].Kind != WarnNonMonotonicTimestamp {
		t.Fatalf("warnings = %v", warns)
	}
}

func TestDecodeTrailingBytes(t *testing.T) {
	// A record length of 8 with 20 stream bytes: exactly 2 records decode
	// and the 4 leftover bytes warn without failing.
	fields := []FieldDescriptor{
		{Type: FieldU16, Name: "RPM", Style: StyleFloat, Scale: 1},
	}
	h := Header{Version: 1, RecordCount: RecordCountEOF, RecordLength: 8}
	data := encodeTestFile(t, h, fields, []Record{
		{Raw: []float64{100}},
		{Raw: []float64{200}},
	})
	data = append(data, 0xDE, 0xAD, 0xBE, 0xEF)

	dec, samples := decodeAll(t, data, "")
	if err := dec.Err(); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	warns := dec.Warnings()
	if len(warns) != 1 || warns[0].Kind != WarnTrailingBytes {
		t.Fatalf("warnings = %v", warns)
	}
}

func TestDecodeTruncatedLog(t *testing.T) {
	fields := testFields()
	recs := make([]Record, 40)
	for i := range recs {
		recs[i] = Record{Raw: []float64{float64(i), 1}}
	}
	data := encodeTestFile(t, Header{Version: 1, RecordCount: 100}, fields, recs)

	dec, samples := decodeAll(t, data, "")
	if len(samples) != 40 {
		t.Fatalf("got %d samples before failure, want 40", len(samples))
	}
	if !errors.Is(dec.Err(), ErrTruncatedLog) {
		t.Fatalf("expected ErrTruncatedLog, got %v", dec.Err())
	}
}

func TestDecodeTruncatedLogPartialRecord(t *testing.T) {
	fields := testFields()
	data := encodeTestFile(t, Header{Version: 1, RecordCount: 2}, fields, []Record{
		{Raw: []float64{1, 2}},
		{Raw: []float64{3, 4}},
	})
	data = data[:len(data)-3] // clip into the last record

	dec, _ := decodeAll(t, data, "")
	if !errors.Is(dec.Err(), ErrTruncatedLog) {
		t.Fatalf("expected ErrTruncatedLog, got %v", dec.Err())
	}
}

func TestDecodeDeclaredCountCapsStream(t *testing.T) {
	fields := testFields()
	recs := make([]Record, 5)
	for i := range recs {
		recs[i] = Record{Raw: []float64{float64(i), 0}}
	}
	data := encodeTestFile(t, Header{Version: 1, RecordCount: 3}, fields, recs)

	dec, samples := decodeAll(t, data, "")
	if err := dec.Err(); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
}

func TestDecodeMarkers(t *testing.T) {
	fields := testFields()
	data := encodeTestFile(t, Header{Version: 1, RecordCount: RecordCountEOF, SampleInterval: 1},
		fields, []Record{
			{Raw: []float64{100, 1}},
			{Marker: true, Message: "lap 2", Counter: 7},
			{Raw: []float64{200, 2}},
		})

	dec, samples := decodeAll(t, data, "")
	if err := dec.Err(); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("got %d records, want 3", len(samples))
	}
	m := samples[1]
	if !m.IsMarker() || m.Message != "lap 2" || m.Counter != 7 {
		t.Fatalf("marker = %+v", m)
	}
	if dec.Produced() != 2 {
		t.Fatalf("Produced = %d, want 2", dec.Produced())
	}
	if m.Time != 1 {
		t.Fatalf("marker time = %v, want 1", m.Time)
	}
}

func TestDecodeUnknownBlockType(t *testing.T) {
	fields := testFields()
	data := encodeTestFile(t, Header{Version: 1, RecordCount: RecordCountEOF},
		fields, []Record{{Raw: []float64{1, 2}}})
	data[len(data)-recordLenOf(t, data)] = 9 // stomp the block type

	dec, _ := decodeAll(t, data, "")
	if !errors.Is(dec.Err(), ErrUnknownBlockType) {
		t.Fatalf("expected ErrUnknownBlockType, got %v", dec.Err())
	}
}

func recordLenOf(t *testing.T, data []byte) int {
	t.Helper()
	h, err := ParseHeader(cursorOver(data))
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	return int(h.RecordLength)
}

func TestDecodeEmptyStream(t *testing.T) {
	data := encodeTestFile(t, Header{Version: 1, RecordCount: RecordCountEOF}, testFields(), nil)
	dec, samples := decodeAll(t, data, "")
	if err := dec.Err(); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(samples) != 0 || len(dec.Warnings()) != 0 {
		t.Fatalf("samples = %d, warnings = %v", len(samples), dec.Warnings())
	}
}
