package mlg

import "fmt"

// DefaultTimeField is the conventional name of the explicit timestamp
// channel in MLG datalogs.
const DefaultTimeField = "Time"

// timeResolver derives a sample time in seconds for each record: the
// physical value of the designated timestamp field when the log carries
// one, otherwise record index times the header's sample interval.
type timeResolver struct {
	fieldIdx int // index into the field table, -1 for implicit timing
	interval float64

	last     float64
	seen     bool
	firstBad int // record index of the first timestamp decrease
	badCount int
}

func newTimeResolver(fields []FieldDescriptor, timeField string, interval float32) *timeResolver {
	r := &timeResolver{fieldIdx: -1, interval: float64(interval)}
	if timeField == "" {
		timeField = DefaultTimeField
	}
	for i, f := range fields {
		if f.Name == timeField {
			r.fieldIdx = i
			break
		}
	}
	return r
}

// resolve returns the sample time for record idx. values holds the
// physical field values of the record, nil for marker records.
func (r *timeResolver) resolve(idx int, values []float64) float64 {
	if r.fieldIdx < 0 || values == nil {
		return float64(idx) * r.interval
	}
	t := values[r.fieldIdx]
	if r.seen && t < r.last {
		if r.badCount == 0 {
			r.firstBad = idx
		}
		r.badCount++
		// Keep source order; re-sorting would misrepresent acquisition order.
	}
	r.last = t
	r.seen = true
	return t
}

// warning reports the aggregate non-monotonic condition, if any occurred.
func (r *timeResolver) warning() (Warning, bool) {
	if r.badCount == 0 {
		return Warning{}, false
	}
	return Warning{
		Kind: WarnNonMonotonicTimestamp,
		Detail: fmt.Sprintf("timestamp decreased %d time(s), first at record %d",
			r.badCount, r.firstBad),
	}, true
}
