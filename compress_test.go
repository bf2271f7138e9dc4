// Compression round-trip tests.
//
// Per-blob compression (zlib, bz2, gzip, or none) is chosen once per
// file and recorded in the footer; every blob write and read applies it
// transparently. A compression bug has two failure modes: silent data
// corruption (decompressed output differs from the original) or a crash
// during decompression. These tests verify every byte survives the round
// trip for a variety of payloads under every algorithm, and that
// CompressionNone is a true no-op (no copy, no framing overhead).
package fdd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func allCompressions() []Compression {
	return []Compression{CompressionNone, CompressionZlib, CompressionBz2, CompressionGzip}
}

// TestCompressDecompressRoundTrip verifies that every algorithm recovers
// the exact original bytes for a range of payload shapes: empty, small
// text, binary, and large repetitive data.
func TestCompressDecompressRoundTrip(t *testing.T) {
	payloads := map[string][]byte{
		"empty":      {},
		"short text": []byte("hello, fdd"),
		"binary":     {0x00, 0xff, 0x10, 0x00, 0xde, 0xad, 0xbe, 0xef},
		"large":      bytes.Repeat([]byte("freeze-dried-data"), 10_000),
		"unicode":    []byte(strings.Repeat("日本語テスト", 100)),
	}

	for _, c := range allCompressions() {
		for name, data := range payloads {
			t.Run(c.String()+"/"+name, func(t *testing.T) {
				compressed, err := compressBlob(c, data)
				if err != nil {
					t.Fatalf("compressBlob: %v", err)
				}
				decompressed, err := decompressBlob(c, compressed)
				if err != nil {
					t.Fatalf("decompressBlob: %v", err)
				}
				if !bytes.Equal(decompressed, data) {
					t.Fatalf("round trip mismatch: got %d bytes, want %d bytes", len(decompressed), len(data))
				}
			})
		}
	}
}

// TestCompressionNoneIsNoCopy verifies that CompressionNone returns the
// input slice itself, unchanged, rather than a copy or a compressed (and
// therefore different) byte sequence.
func TestCompressionNoneIsNoCopy(t *testing.T) {
	data := []byte("pass through unchanged")
	out, err := compressBlob(CompressionNone, data)
	if err != nil {
		t.Fatalf("compressBlob: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("CompressionNone altered the data")
	}
	if &out[0] != &data[0] {
		t.Fatalf("CompressionNone returned a copy instead of the input slice")
	}
}

// TestCompressionReducesSize verifies zlib/gzip/bz2 actually shrink
// highly repetitive data — if they didn't, a regression may have wired
// the wrong codec (or a no-op) in under a real compression name.
func TestCompressionReducesSize(t *testing.T) {
	data := bytes.Repeat([]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), 1000)
	for _, c := range []Compression{CompressionZlib, CompressionGzip, CompressionBz2} {
		t.Run(c.String(), func(t *testing.T) {
			out, err := compressBlob(c, data)
			if err != nil {
				t.Fatalf("compressBlob: %v", err)
			}
			if len(out) >= len(data) {
				t.Errorf("compressed size %d not smaller than input %d", len(out), len(data))
			}
		})
	}
}

// TestParseCompressionRoundTrip verifies that every Compression value's
// String() form is accepted back by parseCompression, the path the
// footer decode uses to restore the file's algorithm on open.
func TestParseCompressionRoundTrip(t *testing.T) {
	for _, c := range allCompressions() {
		got, err := parseCompression(c.String())
		if err != nil {
			t.Fatalf("parseCompression(%q): %v", c.String(), err)
		}
		if got != c {
			t.Errorf("parseCompression(%q) = %v, want %v", c.String(), got, c)
		}
	}
}

// TestParseCompressionUnknown verifies that a footer naming an
// unrecognized algorithm string is rejected as InvalidFile rather than
// silently treated as CompressionNone.
func TestParseCompressionUnknown(t *testing.T) {
	if _, err := parseCompression("lz4"); !errors.Is(err, ErrInvalidFile) {
		t.Fatalf("parseCompression(lz4): want ErrInvalidFile, got %v", err)
	}
}

// TestDecompressCorruptData verifies that feeding garbage bytes to a
// real compression algorithm's decoder surfaces ErrDecompress rather
// than panicking.
func TestDecompressCorruptData(t *testing.T) {
	garbage := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	for _, c := range []Compression{CompressionZlib, CompressionGzip, CompressionBz2} {
		t.Run(c.String(), func(t *testing.T) {
			if _, err := decompressBlob(c, garbage); !errors.Is(err, ErrDecompress) {
				t.Fatalf("decompression of garbage: want ErrDecompress, got %v", err)
			}
		})
	}
}
