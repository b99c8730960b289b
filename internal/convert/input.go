package convert

import (
	"io"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// OpenInput wraps r with the decompressor implied by the filename
// extension (.gz or .zst), passing anything else through untouched. The
// returned size is the decoded size when known, -1 otherwise.
func OpenInput(r io.Reader, name string, rawSize int64) (io.Reader, int64, error) {
	switch filepath.Ext(name) {
	case ".gz":
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, 0, err
		}
		return gr, -1, nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, 0, err
		}
		return zr.IOReadCloser(), -1, nil
	default:
		return r, rawSize, nil
	}
}
