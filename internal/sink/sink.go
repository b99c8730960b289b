// Package sink serializes decoded samples into row-oriented output
// formats. Sinks are streaming: each sample is written as soon as it is
// decoded and the full series is never buffered, so logs larger than
// memory convert fine.
package sink

import (
	"github.com/coffersTech/mlgconv/internal/mlg"
)

// Sink consumes the decoded sample stream. WriteHeader is called exactly
// once, before any sample; Close flushes buffered output.
type Sink interface {
	WriteHeader(lf *mlg.LogFile) error
	WriteSample(s *mlg.Sample) error
	WriteMarker(s *mlg.Sample) error
	Close() error
}
