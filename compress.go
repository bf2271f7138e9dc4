// Per-blob compression.
//
// The stream layer (stream.go) applies one compression algorithm to every
// blob written to a file; the choice is recorded once in the footer and
// read back transparently. Zlib and Gzip are served by klauspost/compress.
// Bzip2 needs a writer, which the standard library's compress/bzip2 does
// not provide (it is decode-only), so dsnet/compress/bzip2 supplies both
// directions.
package fdd

import (
	"bytes"
	"fmt"
	"io"

	dsnetbzip2 "github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Compression selects the per-blob compression algorithm for a file. It is
// chosen once, at file creation, and recorded in the footer; a reopen must
// match the existing file's setting exactly (ErrSchemaMismatch otherwise).
type Compression int

const (
	CompressionNone Compression = iota
	CompressionZlib
	CompressionBz2
	CompressionGzip
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZlib:
		return "zlib"
	case CompressionBz2:
		return "bz2"
	case CompressionGzip:
		return "gzip"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// compressBlob compresses data under the given algorithm. CompressionNone
// returns data unchanged (no copy).
func compressBlob(c Compression, data []byte) ([]byte, error) {
	if c == CompressionNone {
		return data, nil
	}

	var buf bytes.Buffer
	var wc io.WriteCloser
	var err error

	switch c {
	case CompressionZlib:
		wc = zlib.NewWriter(&buf)
	case CompressionGzip:
		wc = gzip.NewWriter(&buf)
	case CompressionBz2:
		wc, err = dsnetbzip2.NewWriter(&buf, nil)
		if err != nil {
			return nil, fmt.Errorf("fdd: bz2 writer: %w", err)
		}
	default:
		return nil, fmt.Errorf("fdd: unknown compression %v", c)
	}

	if _, err := wc.Write(data); err != nil {
		return nil, fmt.Errorf("fdd: compress: %w", err)
	}
	if err := wc.Close(); err != nil {
		return nil, fmt.Errorf("fdd: compress: %w", err)
	}
	return buf.Bytes(), nil
}

// decompressBlob reverses compressBlob.
func decompressBlob(c Compression, data []byte) ([]byte, error) {
	if c == CompressionNone {
		return data, nil
	}

	var rc io.ReadCloser
	var err error

	switch c {
	case CompressionZlib:
		rc, err = zlib.NewReader(bytes.NewReader(data))
	case CompressionGzip:
		rc, err = gzip.NewReader(bytes.NewReader(data))
	case CompressionBz2:
		rc, err = dsnetbzip2.NewReader(bytes.NewReader(data), nil)
	default:
		return nil, fmt.Errorf("fdd: unknown compression %v", c)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}
	defer rc.Close()

	out, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}
	return out, nil
}

// parseCompression maps a persisted footer string back to a Compression.
func parseCompression(s string) (Compression, error) {
	switch s {
	case "none", "":
		return CompressionNone, nil
	case "zlib":
		return CompressionZlib, nil
	case "bz2":
		return CompressionBz2, nil
	case "gzip":
		return CompressionGzip, nil
	default:
		return 0, fmt.Errorf("%w: unknown compression %q", ErrInvalidFile, s)
	}
}
