// Index & split store: three coordinated ordered structures — rows,
// splits, properties — because splits compose by union and must preserve
// first-occurrence order across the listed names. index is the shared
// building block used by both writer.go (building it up) and reader.go
// (querying it read-only).
package fdd

import (
	"fmt"
	"strings"
)

// index is the in-memory key->RecordLocator map plus named splits and
// properties. It has no knowledge of file I/O; Writer and Reader own the
// Stream that locators point into.
type index struct {
	rows       *orderedMap[any, RecordLocator]
	splits     *orderedMap[string, []any]
	splitSet   map[string]map[any]struct{} // name -> membership, for duplicate checks
	properties *orderedMap[string, footerProperty]
	columns    []ColumnDef
}

func newIndex(columns []ColumnDef) *index {
	return &index{
		rows:       newOrderedMap[any, RecordLocator](),
		splits:     newOrderedMap[string, []any](),
		splitSet:   make(map[string]map[any]struct{}),
		properties: newOrderedMap[string, footerProperty](),
		columns:    columns,
	}
}

// columnIndex returns the declared position of name, or -1.
func (ix *index) columnIndex(name string) int {
	for i, c := range ix.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// makeSplit creates a new named split. Fails if name exists or any key is
// absent from rows. A key repeated within keys, or already a member
// (impossible here since the split is new, but shared with addToSplit's
// logic), is kept only once.
func (ix *index) makeSplit(name string, keys []any) error {
	if ix.splits.Has(name) {
		return fmt.Errorf("%w: split %q already exists", ErrSplitExists, name)
	}
	for _, k := range keys {
		if !ix.rows.Has(k) {
			return fmt.Errorf("%w: key %v not present", ErrNotFound, k)
		}
	}
	set := make(map[any]struct{}, len(keys))
	cp := make([]any, 0, len(keys))
	for _, k := range keys {
		if _, dup := set[k]; dup {
			continue
		}
		set[k] = struct{}{}
		cp = append(cp, k)
	}
	ix.splits.Set(name, cp)
	ix.splitSet[name] = set
	return nil
}

// addToSplit appends keys to an existing split, skipping any key already
// a member so a split's persisted key list never carries duplicates.
func (ix *index) addToSplit(name string, keys []any) error {
	existing, ok := ix.splits.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrSplitNotFound, name)
	}
	for _, k := range keys {
		if !ix.rows.Has(k) {
			return fmt.Errorf("%w: key %v not present", ErrNotFound, k)
		}
	}
	set := ix.splitSet[name]
	for _, k := range keys {
		if _, dup := set[k]; dup {
			continue
		}
		set[k] = struct{}{}
		existing = append(existing, k)
	}
	ix.splits.Set(name, existing)
	return nil
}

// replaceSplit overwrites a split's key list wholesale (creating it if
// absent, matching the writer's reopen-then-overwrite scenario). A key
// repeated in keys is kept only once.
func (ix *index) replaceSplit(name string, keys []any) error {
	for _, k := range keys {
		if !ix.rows.Has(k) {
			return fmt.Errorf("%w: key %v not present", ErrNotFound, k)
		}
	}
	set := make(map[any]struct{}, len(keys))
	cp := make([]any, 0, len(keys))
	for _, k := range keys {
		if _, dup := set[k]; dup {
			continue
		}
		set[k] = struct{}{}
		cp = append(cp, k)
	}
	ix.splits.Set(name, cp)
	ix.splitSet[name] = set
	return nil
}

// view builds a read-only projection for a split spec: "" or nil means
// the full index in insertion order; "a+b" means the union of named
// splits, first-occurrence order preserved across the listed splits.
func (ix *index) view(spec string) (*view, error) {
	if spec == "" {
		return &view{ix: ix, keys: ix.rows.Keys(), full: true}, nil
	}

	names := strings.Split(spec, "+")
	var keys []any
	seen := make(map[any]struct{})
	for _, name := range names {
		split, ok := ix.splits.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrSplitNotFound, name)
		}
		for _, k := range split {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return &view{ix: ix, keys: keys, set: seen, names: names}, nil
}
