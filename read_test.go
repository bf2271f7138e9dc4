// Stream read primitive tests.
//
// The read layer has exactly two operations: Put(bytes) -> (offset,
// length) and Get(offset, length) -> bytes. Every higher-level read —
// Reader.Get, Row.ByName, Row.Value — ultimately calls Stream.Get once
// per accessed column, never more: no column beyond the one requested
// is ever touched, and results are not cached. These tests exercise
// Stream directly and, through an instrumented io.ReaderAt, verify that
// property end-to-end.
package fdd

import (
	"os"
	"path/filepath"
	"testing"
)

// countingReaderAt wraps a blobReaderAt and counts ReadAt calls per byte
// offset, so a test can assert exactly which bytes were touched.
type countingReaderAt struct {
	r      blobReaderAt
	nCalls int
	starts []int64
}

func (c *countingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	c.nCalls++
	c.starts = append(c.starts, off)
	return c.r.ReadAt(p, off)
}

// TestStreamPutGetRoundTrip verifies Put/Get round-trip raw bytes through
// an uncompressed stream and that Tail advances by the written length.
func TestStreamPutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stream.bin")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	s := newWriteStream(f, CompressionNone, 0)

	ref1, err := s.Put([]byte("hello"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ref1.Offset != 0 || ref1.Length != 5 {
		t.Fatalf("ref1 = %+v, want offset 0 length 5", ref1)
	}
	if s.Tail() != 5 {
		t.Fatalf("Tail = %d, want 5", s.Tail())
	}

	ref2, err := s.Put([]byte("world!"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ref2.Offset != 5 || ref2.Length != 6 {
		t.Fatalf("ref2 = %+v, want offset 5 length 6", ref2)
	}
	if s.Tail() != 11 {
		t.Fatalf("Tail = %d, want 11", s.Tail())
	}

	got1, err := s.Get(ref1)
	if err != nil {
		t.Fatalf("Get(ref1): %v", err)
	}
	if string(got1) != "hello" {
		t.Errorf("Get(ref1) = %q, want hello", got1)
	}
	got2, err := s.Get(ref2)
	if err != nil {
		t.Fatalf("Get(ref2): %v", err)
	}
	if string(got2) != "world!" {
		t.Errorf("Get(ref2) = %q, want world!", got2)
	}
}

// TestStreamGetEmptyRef verifies a zero-length BlobRef (an unset column)
// decodes to nil bytes without touching the underlying reader.
func TestStreamGetEmptyRef(t *testing.T) {
	counter := &countingReaderAt{}
	s := newReadStream(counter, CompressionNone)
	got, err := s.Get(BlobRef{})
	if err != nil {
		t.Fatalf("Get(empty): %v", err)
	}
	if got != nil {
		t.Errorf("Get(empty) = %v, want nil", got)
	}
	if counter.nCalls != 0 {
		t.Errorf("ReadAt called %d times for an empty ref, want 0", counter.nCalls)
	}
}

// TestRowAccessReadsOnlyRequestedColumn verifies read laziness:
// materialising one column of a multi-column row must issue exactly one
// underlying read, at the requested column's offset, and must not touch
// any other column's bytes.
func TestRowAccessReadsOnlyRequestedColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lazy.fdd")

	w, err := NewWriter(path, WithColumns([]ColumnDef{
		{Name: "a", Codec: "utf8"},
		{Name: "b", Codec: "utf8"},
		{Name: "c", Codec: "utf8"},
	}))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Set("k1", map[string]any{"a": "AAA", "b": "BBB", "c": "CCC"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	counter := &countingReaderAt{r: r.stream.r}
	r.stream.setReader(counter)

	row, err := r.Row("k1")
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	if counter.nCalls != 0 {
		t.Fatalf("Row() itself issued %d reads, want 0 (lazy until ByName)", counter.nCalls)
	}

	val, err := row.ByName("b")
	if err != nil {
		t.Fatalf("ByName(b): %v", err)
	}
	if val != "BBB" {
		t.Fatalf("ByName(b) = %v, want BBB", val)
	}
	if counter.nCalls != 1 {
		t.Fatalf("ByName(b) issued %d reads, want exactly 1", counter.nCalls)
	}
	loc, _ := r.ix.rows.Get("k1")
	if counter.starts[0] != loc.Columns[1].Offset {
		t.Fatalf("ByName(b) read at offset %d, want column b's offset %d", counter.starts[0], loc.Columns[1].Offset)
	}

	// A second access to the same column reads again — results are not
	// cached.
	if _, err := row.ByName("b"); err != nil {
		t.Fatalf("ByName(b) second call: %v", err)
	}
	if counter.nCalls != 2 {
		t.Fatalf("after second ByName(b), reads = %d, want 2 (no caching)", counter.nCalls)
	}
}
