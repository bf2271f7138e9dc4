// Pass-through row copy between files.
//
// Two paths per column: if the caller hasn't overridden it and source
// and destination share codec identity, the raw encoded bytes are copied
// verbatim (no decode, no re-encode); otherwise the value is decoded
// from the source and re-encoded under the destination's codec.
package fdd

import "fmt"

// CopyRowFrom copies src's row at srcKey into w at destKey (or srcKey if
// destKey is nil). For each declared column not named in overrides, if
// src has a value for it and source/destination codecs match by name,
// the bytes are copied verbatim; otherwise the value is decoded from src
// and re-encoded under w's codec for that column.
func (w *Writer) CopyRowFrom(src *Reader, srcKey any, destKey any, overrides map[string]any) error {
	if err := w.ensureOpen(); err != nil {
		return err
	}
	srcKey, err := normalizeKey(srcKey)
	if err != nil {
		return err
	}
	if destKey == nil {
		destKey = srcKey
	}
	destKey, err = normalizeKey(destKey)
	if err != nil {
		return err
	}
	if w.ix.rows.Has(destKey) {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, destKey)
	}
	if _, pending := w.pending[destKey]; pending {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, destKey)
	}

	src.mu.RLock()
	defer src.mu.RUnlock()
	if err := src.ensureOpen(); err != nil {
		return err
	}
	srcLoc, err := src.view.locator(srcKey)
	if err != nil {
		return err
	}

	if len(w.columns) == 0 {
		if !srcLoc.columnar() {
			if src.codec == w.codec {
				ref, err := copyBlobVerbatim(w.stream, src.stream, srcLoc.Blob)
				if err != nil {
					return err
				}
				w.ix.rows.Set(destKey, RecordLocator{Blob: ref})
				return nil
			}
			val, err := src.decodeWhole(srcLoc.Blob)
			if err != nil {
				return err
			}
			ref, err := w.encodeAndPut(w.codec, val)
			if err != nil {
				return err
			}
			w.ix.rows.Set(destKey, RecordLocator{Blob: ref})
			return nil
		}
		return fmt.Errorf("%w: source is columnar, destination is not", ErrColumnMismatch)
	}

	if !srcLoc.columnar() {
		return fmt.Errorf("%w: source is unstructured, destination is columnar", ErrColumnMismatch)
	}

	loc := newColumnarLocator(len(w.columns))
	for i, col := range w.columns {
		if override, ok := overrides[col.Name]; ok {
			ref, err := w.encodeAndPut(col.Codec, override)
			if err != nil {
				return err
			}
			loc.set(i, ref)
			continue
		}

		srcIdx := src.ix.columnIndex(col.Name)
		if srcIdx < 0 || !srcLoc.has(srcIdx) {
			continue
		}
		srcCol := src.columns[srcIdx]

		if srcCol.Codec == col.Codec {
			ref, err := copyBlobVerbatim(w.stream, src.stream, srcLoc.Columns[srcIdx])
			if err != nil {
				return err
			}
			loc.set(i, ref)
			continue
		}

		val, err := src.decodeColumn(srcIdx, srcLoc.Columns[srcIdx])
		if err != nil {
			return err
		}
		ref, err := w.encodeAndPut(col.Codec, val)
		if err != nil {
			return err
		}
		loc.set(i, ref)
	}

	w.ix.rows.Set(destKey, loc)
	return nil
}
