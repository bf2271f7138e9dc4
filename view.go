// view is the reader's active projection over the index. Keys/Items/
// Values yield lazily so callers can break early without the library
// materialising the full result set; the sequences range over an
// in-memory key list, since the whole index lives in memory once a file
// is open.
package fdd

import "fmt"

// view restricts iteration to a subset of the index's keys, in a fixed
// order established at construction (or extended by loadNewSplit). set
// mirrors keys for O(1) membership tests; nil for a full view, where
// membership is answered by the index's own map instead.
type view struct {
	ix    *index
	keys  []any
	set   map[any]struct{}
	names []string // split names composing this view, empty if full
	full  bool
}

// Len reports the number of keys in the active view.
func (v *view) Len() int { return len(v.keys) }

// Has reports whether key is in the active view.
func (v *view) Has(key any) bool {
	if v.full {
		return v.ix.rows.Has(key)
	}
	_, ok := v.set[key]
	return ok
}

// Keys returns the view's keys in order. Copy on each call so callers
// can't mutate the view's internal order.
func (v *view) Keys() []any {
	out := make([]any, len(v.keys))
	copy(out, v.keys)
	return out
}

// locator looks up key's RecordLocator, restricted to view membership.
func (v *view) locator(key any) (RecordLocator, error) {
	if !v.Has(key) {
		return RecordLocator{}, fmt.Errorf("%w: %v", ErrNotFound, key)
	}
	loc, ok := v.ix.rows.Get(key)
	if !ok {
		return RecordLocator{}, fmt.Errorf("%w: %v", ErrNotFound, key)
	}
	return loc, nil
}

// loadNewSplit extends the active view with another split's keys,
// deduplicated and appended in that split's order. A view opened with
// no split restriction (full) is
// already a superset of any split and is left unchanged.
func (v *view) loadNewSplit(name string) error {
	if v.full {
		return nil
	}
	split, ok := v.ix.splits.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrSplitNotFound, name)
	}

	if v.set == nil {
		v.set = make(map[any]struct{}, len(v.keys))
		for _, k := range v.keys {
			v.set[k] = struct{}{}
		}
	}
	for _, k := range split {
		if _, dup := v.set[k]; dup {
			continue
		}
		v.set[k] = struct{}{}
		v.keys = append(v.keys, k)
	}
	v.names = append(v.names, name)
	return nil
}
