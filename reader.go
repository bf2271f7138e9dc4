// Core reader type and lifecycle operations: the entry point owning the
// file handle and coordinating every read. A Reader only ever reads a
// finalised, immutable file, so its lifecycle is a single "closed" flag
// rather than a state machine — there is no compaction or concurrent
// writer to arbitrate against.
package fdd

import (
	"fmt"
	"iter"
	"os"
	"sync"

	"go.uber.org/zap"
)

// Reader exposes a random-access mapping over an immutable FDD file.
// Any number of independent Readers may be open against the same file.
type Reader struct {
	mu      sync.RWMutex
	file    *forkSafeFile
	stream  *Stream
	ix      *index
	view    *view
	columns []ColumnDef
	codec   string
	props   map[string]any // decoded-property cache, keyed by name
	log     *zap.Logger
	closed  bool
}

// Open parses the footer at path and constructs the in-memory view.
// path may carry a "^split-spec" suffix equivalent to WithSplit.
func Open(path string, opts ...ReaderOption) (*Reader, error) {
	cfg := defaultReaderConfig()
	for _, o := range opts {
		o(&cfg)
	}

	file, spec := splitPath(path)
	if spec != "" && cfg.Split == "" {
		cfg.Split = spec
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	doc, footerStart, err := readFooter(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}

	comp, err := parseCompression(doc.Compression)
	if err != nil {
		f.Close()
		return nil, err
	}
	codecNames := []string{doc.DefaultCodec}
	for _, c := range doc.Columns {
		codecNames = append(codecNames, c.Codec)
	}
	for _, name := range codecNames {
		if _, err := LookupCodec(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
		}
	}

	ix := newIndex(doc.Columns)
	for name, p := range doc.Properties {
		ix.properties.Set(name, p)
	}
	for _, s := range doc.Splits {
		keys := make([]any, len(s.Keys))
		for i, ek := range s.Keys {
			k, err := decodeKey(ek)
			if err != nil {
				f.Close()
				return nil, err
			}
			keys[i] = k
		}
		ix.splits.Set(s.Name, keys)
		set := make(map[any]struct{}, len(keys))
		for _, k := range keys {
			set[k] = struct{}{}
		}
		ix.splitSet[s.Name] = set
	}
	for _, e := range doc.Index {
		key, err := decodeKey(e.Key)
		if err != nil {
			f.Close()
			return nil, err
		}
		loc := e.toLocator()
		if err := validateLocator(loc, footerStart, len(doc.Columns)); err != nil {
			f.Close()
			return nil, err
		}
		ix.rows.Set(key, loc)
	}
	if err := validateSplitMembership(ix); err != nil {
		f.Close()
		return nil, err
	}

	fsf := newForkSafeFile(file, f)
	stream := newReadStream(fsf, comp)

	v, err := ix.view(cfg.Split)
	if err != nil {
		f.Close()
		return nil, err
	}

	r := &Reader{
		file:    fsf,
		stream:  stream,
		ix:      ix,
		view:    v,
		columns: doc.Columns,
		codec:   doc.DefaultCodec,
		props:   make(map[string]any),
		log:     cfg.Logger,
	}
	r.log.Debug("fdd: opened reader", zap.String("path", file), zap.Int("rows", ix.rows.Len()))
	return r, nil
}

// readFooter validates the trailing [FOOTER_LEN][checksum] and decodes
// the footer it points to.
func readFooter(f *os.File, size int64) (*footerDoc, int64, error) {
	if size < TrailerSize {
		return nil, 0, fmt.Errorf("%w: file too small", ErrInvalidFile)
	}
	trailer := make([]byte, TrailerSize)
	if _, err := f.ReadAt(trailer, size-TrailerSize); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	footerLen := getUint64LE(trailer[0:8])
	footerStart := size - TrailerSize - int64(footerLen)
	if footerStart < 0 {
		return nil, 0, fmt.Errorf("%w: footer length exceeds file size", ErrInvalidFile)
	}

	footerBytes := make([]byte, footerLen)
	if footerLen > 0 {
		if _, err := f.ReadAt(footerBytes, footerStart); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
	}

	doc, err := decodeFooter(footerBytes, trailer)
	if err != nil {
		return nil, 0, err
	}
	return doc, footerStart, nil
}

// validateLocator enforces the invariant that every blob reference lies
// strictly before the footer start, and that a columnar
// locator's column count matches the declaration.
func validateLocator(loc RecordLocator, footerStart int64, nCols int) error {
	check := func(ref BlobRef) error {
		if ref.Length == 0 {
			return nil
		}
		if ref.Offset < 0 || ref.Offset+ref.Length > footerStart {
			return fmt.Errorf("%w: locator references past footer", ErrInvalidFile)
		}
		return nil
	}
	if loc.columnar() {
		if len(loc.Columns) != nCols {
			return fmt.Errorf("%w: locator column count mismatch", ErrInvalidFile)
		}
		for _, ref := range loc.Columns {
			if err := check(ref); err != nil {
				return err
			}
		}
		return nil
	}
	return check(loc.Blob)
}

// validateSplitMembership enforces that every key named by a split is
// present in the index.
func validateSplitMembership(ix *index) error {
	for _, name := range ix.splits.Keys() {
		keys, _ := ix.splits.Get(name)
		for _, k := range keys {
			if !ix.rows.Has(k) {
				return fmt.Errorf("%w: split %q references absent key", ErrInvalidFile, name)
			}
		}
	}
	return nil
}

func (r *Reader) ensureOpen() error {
	if r.closed {
		return ErrClosed
	}
	return nil
}

// Get returns the decoded whole-row value (unstructured records) or an
// error directing the caller to row-based access (columnar records).
func (r *Reader) Get(key any) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	loc, err := r.view.locator(key)
	if err != nil {
		return nil, err
	}
	if loc.columnar() {
		return nil, fmt.Errorf("%w: columnar record, use Row(key)", ErrColumnMismatch)
	}
	return r.decodeWhole(loc.Blob)
}

// Has reports whether key is present in the active view.
func (r *Reader) Has(key any) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, err := normalizeKey(key)
	if err != nil {
		return false
	}
	return r.view.Has(key)
}

// Len reports the number of keys in the active view.
func (r *Reader) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view.Len()
}

// Row returns a lazily materialising Row for key.
func (r *Reader) Row(key any) (*Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	loc, err := r.view.locator(key)
	if err != nil {
		return nil, err
	}
	return &Row{r: r, key: key, loc: loc}, nil
}

// snapshotKeys copies the active view's keys under the read lock, so
// Keys/Items/Values iterate a stable slice instead of racing a
// concurrent LoadNewSplit (which mutates view.keys under the write lock).
func (r *Reader) snapshotKeys() []any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view.Keys()
}

// Keys yields the active view's keys in order.
func (r *Reader) Keys() iter.Seq[any] {
	keys := r.snapshotKeys()
	return func(yield func(any) bool) {
		for _, k := range keys {
			if !yield(k) {
				return
			}
		}
	}
}

// Items yields (key, *Row) pairs in the active view's order.
func (r *Reader) Items() iter.Seq2[any, *Row] {
	keys := r.snapshotKeys()
	return func(yield func(any, *Row) bool) {
		for _, k := range keys {
			row, err := r.Row(k)
			if err != nil {
				return
			}
			if !yield(k, row) {
				return
			}
		}
	}
}

// Values yields *Row values in the active view's order.
func (r *Reader) Values() iter.Seq[*Row] {
	keys := r.snapshotKeys()
	return func(yield func(*Row) bool) {
		for _, k := range keys {
			row, err := r.Row(k)
			if err != nil {
				return
			}
			if !yield(row) {
				return
			}
		}
	}
}

// LoadNewSplit extends the active view with another split's keys.
func (r *Reader) LoadNewSplit(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view.loadNewSplit(name)
}

// Property returns the decoded value of a named property, decoding and
// caching on first access.
func (r *Reader) Property(name string) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.props[name]; ok {
		return v, nil
	}
	p, ok := r.ix.properties.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: property %q", ErrNotFound, name)
	}
	codec, err := LookupCodec(p.Codec)
	if err != nil {
		return nil, err
	}
	v, err := codec.Decode(p.Data)
	if err != nil {
		return nil, err
	}
	r.props[name] = v
	return v, nil
}

// Properties returns the names of every property attached to the file.
// Values stay undecoded until requested through Property.
func (r *Reader) Properties() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ix.properties.Keys()
}

// decodeWhole decodes an unstructured record's single blob.
func (r *Reader) decodeWhole(ref BlobRef) (any, error) {
	codec, err := LookupCodec(r.codec)
	if err != nil {
		return nil, err
	}
	raw, err := r.stream.Get(ref)
	if err != nil {
		return nil, err
	}
	return codec.Decode(raw)
}

// decodeColumn decodes column i's blob using its declared codec.
func (r *Reader) decodeColumn(i int, ref BlobRef) (any, error) {
	codec, err := LookupCodec(r.columns[i].Codec)
	if err != nil {
		return nil, err
	}
	raw, err := r.stream.Get(ref)
	if err != nil {
		return nil, err
	}
	return codec.Decode(raw)
}

// Close releases the reader's file handle. Further operations fail with
// ErrClosed.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.log.Debug("fdd: closed reader")
	return r.file.Close()
}
