// Package convert wires the MLG decoding stages into a single pass:
// parse header, parse fields, stream-decode records, stream-write output.
// It is the only piece the command-line layer talks to.
package convert

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/coffersTech/mlgconv/internal/mlg"
	"github.com/coffersTech/mlgconv/internal/sink"
)

// Phase names how far a conversion has progressed. Transitions are
// strictly sequential and no phase is revisited; a failure is terminal and
// reports the phase that was active.
type Phase int

const (
	PhaseUnopened Phase = iota
	PhaseHeaderParsed
	PhaseFieldsParsed
	PhaseStreaming
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseUnopened:
		return "unopened"
	case PhaseHeaderParsed:
		return "header parsed"
	case PhaseFieldsParsed:
		return "fields parsed"
	case PhaseStreaming:
		return "streaming"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// PhaseError wraps a fatal conversion error with the phase that was active
// when it occurred.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Options tunes a single conversion run.
type Options struct {
	// TimeField names the designated timestamp channel; empty selects
	// mlg.DefaultTimeField.
	TimeField string
	// ProgressEvery logs decoding progress every N records; 0 disables.
	ProgressEvery int
	Logger        *zap.Logger
}

// Result is the terminal outcome of a successful (possibly warned)
// conversion.
type Result struct {
	Samples  int
	Markers  int
	Warnings []mlg.Warning
}

// Convert runs one full pass from src to dst. srcSize is the input size in
// bytes, -1 when unknown. Metadata corruption fails before anything is
// written and the sink is left untouched so the caller can discard it;
// once streaming has begun the sink is always closed, and on cancellation
// the output written so far is flushed first, leaving a valid-but-partial
// file. Partial output on failure is the caller's concern: streaming beats
// atomicity for very large logs.
func Convert(ctx context.Context, src io.Reader, srcSize int64, dst sink.Sink, opts Options) (Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var res Result
	phase := PhaseUnopened
	fail := func(err error) (Result, error) {
		return res, &PhaseError{Phase: phase, Err: err}
	}

	cur := mlg.NewCursor(src, srcSize)

	hdr, err := mlg.ParseHeader(cur)
	if err != nil {
		return fail(err)
	}
	phase = PhaseHeaderParsed
	log.Debug("header parsed",
		zap.Int16("version", hdr.Version),
		zap.Int16("recordLength", hdr.RecordLength),
		zap.Int32("recordCount", hdr.RecordCount),
		zap.Int16("fieldCount", hdr.FieldCount))

	fields, err := mlg.ParseFields(cur, hdr)
	if err != nil {
		return fail(err)
	}
	bitNames, info, err := mlg.ReadInfoRegion(cur, hdr)
	if err != nil {
		return fail(err)
	}
	phase = PhaseFieldsParsed

	lf := &mlg.LogFile{
		Header:        hdr,
		Fields:        fields,
		BitFieldNames: bitNames,
		InfoData:      info,
	}

	if err := dst.WriteHeader(lf); err != nil {
		return fail(err)
	}
	phase = PhaseStreaming

	dec := mlg.NewDecoder(cur, lf, opts.TimeField)
	start := time.Now()

	closeSink := func(prev error) error {
		if cerr := dst.Close(); cerr != nil && prev == nil {
			return cerr
		}
		return prev
	}

	for dec.Next() {
		// Cooperative cancellation, checked between records.
		if err := ctx.Err(); err != nil {
			res.Warnings = dec.Warnings()
			return res, &PhaseError{Phase: phase, Err: closeSinkKeep(dst, err)}
		}

		s := dec.Sample()
		if s.IsMarker() {
			if err := dst.WriteMarker(s); err != nil {
				return fail(closeSinkKeep(dst, err))
			}
			res.Markers++
			continue
		}
		if err := dst.WriteSample(s); err != nil {
			return fail(closeSinkKeep(dst, err))
		}
		res.Samples++

		if opts.ProgressEvery > 0 && res.Samples%opts.ProgressEvery == 0 {
			elapsed := time.Since(start)
			log.Info("decoding",
				zap.Int("samples", res.Samples),
				zap.Float64("rows_per_sec", float64(res.Samples)/elapsed.Seconds()))
		}
	}

	res.Warnings = dec.Warnings()
	if err := dec.Err(); err != nil {
		return fail(closeSink(err))
	}

	if err := closeSink(nil); err != nil {
		return fail(err)
	}
	phase = PhaseDone

	for _, w := range res.Warnings {
		log.Warn("conversion warning", zap.Stringer("kind", w.Kind), zap.String("detail", w.Detail))
	}
	log.Debug("conversion done",
		zap.Int("samples", res.Samples),
		zap.Int("markers", res.Markers),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

// closeSinkKeep flushes and closes the sink but always reports the
// original error.
func closeSinkKeep(dst sink.Sink, err error) error {
	_ = dst.Close()
	return err
}
