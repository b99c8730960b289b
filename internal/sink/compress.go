package sink

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression algorithms for transparent output wrapping.
const (
	CompressNone = ""
	CompressGzip = "gzip"
	CompressZstd = "zstd"
)

// Ext returns the filename suffix appended for a compression algorithm.
func Ext(algo string) string {
	switch algo {
	case CompressGzip:
		return ".gz"
	case CompressZstd:
		return ".zst"
	default:
		return ""
	}
}

type compressedWriter struct {
	io.WriteCloser
	under io.Writer
}

func (c *compressedWriter) Close() error {
	err := c.WriteCloser.Close()
	if u, ok := c.under.(io.Closer); ok {
		if cerr := u.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Compress wraps w so everything written to it is compressed with the
// named algorithm. Closing the returned writer flushes the compressor and
// closes w if it is an io.Closer.
func Compress(w io.Writer, algo string) (io.Writer, error) {
	switch algo {
	case CompressNone:
		return w, nil
	case CompressGzip:
		return &compressedWriter{WriteCloser: gzip.NewWriter(w), under: w}, nil
	case CompressZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, err
		}
		return &compressedWriter{WriteCloser: zw, under: w}, nil
	default:
		return nil, fmt.Errorf("unknown compression algorithm %q", algo)
	}
}
