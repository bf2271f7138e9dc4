// Reader-side row materialisation: three explicit accessors — ByName,
// ByIndex, and mapping-style Get — all consulting the same locator.
// Each performs at most one disk read and at most one decode, and
// results are never cached; callers that want caching wrap externally.
package fdd

import "fmt"

// Row is a lazily materialising view of one record. It is valid only
// while its originating Reader remains open.
type Row struct {
	r   *Reader
	key any
	loc RecordLocator
}

// ByIndex decodes the value at declared column position i. Returns nil
// for an absent column.
func (row *Row) ByIndex(i int) (any, error) {
	if !row.loc.columnar() {
		return nil, fmt.Errorf("%w: record is unstructured", ErrColumnMismatch)
	}
	if i < 0 || i >= len(row.r.columns) {
		return nil, fmt.Errorf("%w: column index %d out of range", ErrColumnMismatch, i)
	}
	if !row.loc.has(i) {
		return nil, nil
	}
	row.r.mu.RLock()
	defer row.r.mu.RUnlock()
	if err := row.r.ensureOpen(); err != nil {
		return nil, err
	}
	return row.r.decodeColumn(i, row.loc.Columns[i])
}

// ByName decodes the value of the named column.
func (row *Row) ByName(name string) (any, error) {
	i := row.r.ix.columnIndex(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: unknown column %q", ErrColumnMismatch, name)
	}
	return row.ByIndex(i)
}

// Get decodes the whole row value for an unstructured record, or is
// equivalent to ByName for a columnar one (mapping-style access).
func (row *Row) Get(name string) (any, error) {
	if !row.loc.columnar() {
		return row.decodeWholeLocked()
	}
	return row.ByName(name)
}

// Value decodes the unstructured whole-row value. Calling it on a
// columnar record is a caller error.
func (row *Row) Value() (any, error) {
	if row.loc.columnar() {
		return nil, fmt.Errorf("%w: record is columnar, use ByName/ByIndex", ErrColumnMismatch)
	}
	return row.decodeWholeLocked()
}

// decodeWholeLocked decodes an unstructured record's blob under the
// owning Reader's lock, so a concurrent Close can't tear down the file
// handle mid-decode (mirrors Reader.Get's own locking).
func (row *Row) decodeWholeLocked() (any, error) {
	row.r.mu.RLock()
	defer row.r.mu.RUnlock()
	if err := row.r.ensureOpen(); err != nil {
		return nil, err
	}
	return row.r.decodeWhole(row.loc.Blob)
}

// Columns reports declared column names, in declared order, for
// columnar records (empty for unstructured ones).
func (row *Row) Columns() []string {
	if !row.loc.columnar() {
		return nil
	}
	names := make([]string, len(row.r.columns))
	for i, c := range row.r.columns {
		names[i] = c.Name
	}
	return names
}
