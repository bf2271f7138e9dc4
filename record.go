// Record, column, and locator types shared by Writer and Reader.
//
// A Record is either Unstructured (one blob holding the whole value) or
// Columnar (one BlobRef per declared column). A RecordLocator never holds
// the decoded value itself — only where to find it — so Get/ByName/ByIndex
// perform at most one disk read and one decode (none for an absent
// column), regardless of how many other columns a row declares.
package fdd

import (
	"github.com/bits-and-blooms/bitset"
)

// MaxColumnNameSize bounds a declared column name.
const MaxColumnNameSize = 256

// ColumnDef declares one column's name and the codec used to encode and
// decode its values. Order is significant: it defines positional indexing
// and is fixed at file creation.
type ColumnDef struct {
	Name  string `json:"name"`
	Codec string `json:"codec"`
}

// Columns builds a column declaration from bare names, each under the
// default codec — the shorthand for files whose every column holds
// plain JSON-encodable values.
func Columns(names ...string) []ColumnDef {
	cols := make([]ColumnDef, len(names))
	for i, n := range names {
		cols[i] = ColumnDef{Name: n, Codec: DefaultCodecName}
	}
	return cols
}

// BlobRef names a byte range on disk. A zero-value BlobRef is never a valid
// locator by itself — presence is tracked separately (see RecordLocator) so
// that offset 0 is never mistaken for "absent".
type BlobRef struct {
	Offset int64 `json:"o"`
	Length int64 `json:"l"`
}

// RecordLocator is the index's value type: where to find a record's bytes.
// Unstructured records populate Blob and leave Columns nil. Columnar
// records populate Columns (one entry per declared column, in column
// order) and leave Blob zero; Present marks which column slots actually
// hold a blob — an absent column is a cleared bit rather than a magic
// offset value.
type RecordLocator struct {
	Blob    BlobRef
	Columns []BlobRef
	Present *bitset.BitSet
}

// newColumnarLocator allocates a locator sized to n columns, all absent.
func newColumnarLocator(n int) RecordLocator {
	return RecordLocator{
		Columns: make([]BlobRef, n),
		Present: bitset.New(uint(n)),
	}
}

// columnar reports whether this locator describes a columnar record.
func (l RecordLocator) columnar() bool {
	return l.Columns != nil
}

// has reports whether column i has a stored value.
func (l RecordLocator) has(i int) bool {
	return l.Present != nil && l.Present.Test(uint(i))
}

// set records a blob for column i and marks it present.
func (l *RecordLocator) set(i int, ref BlobRef) {
	l.Columns[i] = ref
	l.Present.Set(uint(i))
}

// presentWords returns the locator's presence bitmap as raw 64-bit words,
// suitable for JSON persistence in the footer.
func presentWords(l RecordLocator) []uint64 {
	if l.Present == nil {
		return nil
	}
	return l.Present.Bytes()
}

// columnarLocatorFromWords rebuilds a columnar locator from footer-persisted
// column blobs and a presence bitmap.
func columnarLocatorFromWords(columns []BlobRef, words []uint64) RecordLocator {
	bs := bitset.From(words)
	return RecordLocator{Columns: columns, Present: bs}
}
