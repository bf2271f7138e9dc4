// Core writer type and write-session operations.
//
// Every mutating call checks its key and column names before a single
// byte is written, and a failed operation never leaves a partial index
// entry — a blob already appended before a later encode failure may
// become orphaned garbage, which is fine because the file isn't valid
// until Close emits the footer anyway.
package fdd

import (
	"fmt"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Writer orchestrates a single write session: streaming values to disk,
// tracking row/split/property state, and emitting the footer at Close.
type Writer struct {
	file         *os.File
	path         string
	stream       *Stream
	ix           *index
	columns      []ColumnDef
	comp         Compression
	codec        string
	pending      map[any]*pendingRow
	pendingOrder []any
	log          *zap.Logger
	closed       bool
}

// BatchRow pairs a key and record value for Batch, preserving the
// caller's intended write order — the insertion-order guarantee applies
// to Batch the same as to repeated Set calls.
type BatchRow struct {
	Key    any
	Record any
}

// NewWriter opens path for writing under the given mode. path may carry
// a "^split-spec" suffix, which is stripped: a writer always operates on
// the whole file, so the suffix only identifies which file to open.
func NewWriter(path string, opts ...WriterOption) (*Writer, error) {
	path, _ = splitPath(path)
	cfg := defaultWriterConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if _, err := LookupCodec(cfg.DefaultCodec); err != nil {
		return nil, err
	}
	// Copy the declaration before normalizing, so a bare-name entry
	// (empty codec, meaning the default) never mutates the caller's slice.
	if len(cfg.Columns) > 0 {
		cols := make([]ColumnDef, len(cfg.Columns))
		copy(cols, cfg.Columns)
		cfg.Columns = cols
	}
	seen := make(map[string]struct{}, len(cfg.Columns))
	for i := range cfg.Columns {
		col := &cfg.Columns[i]
		if col.Codec == "" {
			col.Codec = DefaultCodecName
		}
		if len(col.Name) > MaxColumnNameSize {
			return nil, fmt.Errorf("%w: column name %q exceeds %d bytes", ErrColumnMismatch, col.Name, MaxColumnNameSize)
		}
		if _, dup := seen[col.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column name %q", ErrColumnMismatch, col.Name)
		}
		seen[col.Name] = struct{}{}
	}

	switch cfg.Mode {
	case ModeFresh:
		return newWriterFresh(path, cfg, os.O_RDWR|os.O_CREATE|os.O_EXCL)
	case ModeOverwrite:
		return newWriterFresh(path, cfg, os.O_RDWR|os.O_CREATE|os.O_TRUNC)
	case ModeReopen:
		return newWriterReopen(path, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown mode", ErrBadState)
	}
}

func newWriterFresh(path string, cfg WriterConfig, flags int) (*Writer, error) {
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, err
	}
	ix := newIndex(cfg.Columns)
	w := &Writer{
		file:    f,
		path:    path,
		stream:  newWriteStream(f, cfg.Compression, 0),
		ix:      ix,
		columns: cfg.Columns,
		comp:    cfg.Compression,
		codec:   cfg.DefaultCodec,
		pending: make(map[any]*pendingRow),
		log:     cfg.Logger,
	}
	w.log.Debug("fdd: opened writer (fresh)", zap.String("path", path))
	return w, nil
}

// newWriterReopen loads the existing footer, truncates the file to
// just-before-footer, and resumes appending.
func newWriterReopen(path string, cfg WriterConfig) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
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

	if cfg.Columns != nil && !columnsEqual(cfg.Columns, doc.Columns) {
		f.Close()
		return nil, fmt.Errorf("%w: column definition differs", ErrSchemaMismatch)
	}
	existingComp, err := parseCompression(doc.Compression)
	if err != nil {
		f.Close()
		return nil, err
	}
	if cfg.compressionSet && cfg.Compression != existingComp {
		f.Close()
		return nil, fmt.Errorf("%w: compression differs", ErrSchemaMismatch)
	}

	ix := newIndex(doc.Columns)
	for name, p := range doc.Properties {
		ix.properties.Set(name, p)
	}
	for _, s := range doc.Splits {
		keys := make([]any, len(s.Keys))
		for i, ek := range s.Keys {
			k, derr := decodeKey(ek)
			if derr != nil {
				f.Close()
				return nil, derr
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
		key, derr := decodeKey(e.Key)
		if derr != nil {
			f.Close()
			return nil, derr
		}
		ix.rows.Set(key, e.toLocator())
	}

	if err := f.Truncate(footerStart); err != nil {
		f.Close()
		return nil, err
	}

	w := &Writer{
		file:    f,
		path:    path,
		stream:  newWriteStream(f, existingComp, footerStart),
		ix:      ix,
		columns: doc.Columns,
		comp:    existingComp,
		codec:   doc.DefaultCodec,
		pending: make(map[any]*pendingRow),
		log:     cfg.Logger,
	}
	w.log.Debug("fdd: opened writer (reopen)", zap.String("path", path), zap.Int("rows", ix.rows.Len()))
	return w, nil
}

func columnsEqual(a, b []ColumnDef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (w *Writer) ensureOpen() error {
	if w.closed {
		return ErrClosed
	}
	return nil
}

// encodeAndPut encodes value with the named codec and appends its blob.
func (w *Writer) encodeAndPut(codecName string, value any) (BlobRef, error) {
	codec, err := LookupCodec(codecName)
	if err != nil {
		return BlobRef{}, err
	}
	raw, err := codec.Encode(value)
	if err != nil {
		return BlobRef{}, err
	}
	return w.stream.Put(raw)
}

// Set performs whole-row assignment: record may be a map[string]any (dict
// form), a []any (positional tuple form), or a single value when the
// file declares no columns.
func (w *Writer) Set(key any, record any) error {
	if err := w.ensureOpen(); err != nil {
		return err
	}
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if w.ix.rows.Has(key) {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, key)
	}
	if _, pending := w.pending[key]; pending {
		return fmt.Errorf("%w: %v", ErrRowPending, key)
	}

	if len(w.columns) == 0 {
		ref, err := w.encodeAndPut(w.codec, record)
		if err != nil {
			return err
		}
		w.ix.rows.Set(key, RecordLocator{Blob: ref})
		return nil
	}

	loc := newColumnarLocator(len(w.columns))
	switch v := record.(type) {
	case map[string]any:
		for name := range v {
			if w.ix.columnIndex(name) < 0 {
				return fmt.Errorf("%w: unknown column %q", ErrColumnMismatch, name)
			}
		}
		for i, col := range w.columns {
			val, ok := v[col.Name]
			if !ok {
				continue
			}
			ref, err := w.encodeAndPut(col.Codec, val)
			if err != nil {
				return err
			}
			loc.set(i, ref)
		}
	case []any:
		if len(v) > len(w.columns) {
			return fmt.Errorf("%w: too many positional values", ErrColumnMismatch)
		}
		for i, val := range v {
			ref, err := w.encodeAndPut(w.columns[i].Codec, val)
			if err != nil {
				return err
			}
			loc.set(i, ref)
		}
	default:
		return fmt.Errorf("%w: expected map or slice for columnar record", ErrColumnMismatch)
	}

	w.ix.rows.Set(key, loc)
	return nil
}

// Row returns a handle for piecewise column assignment on a new key.
func (w *Writer) Row(key any) (*RowHandle, error) {
	if err := w.ensureOpen(); err != nil {
		return nil, err
	}
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	if w.ix.rows.Has(key) {
		return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, key)
	}
	if _, ok := w.pending[key]; ok {
		return nil, fmt.Errorf("%w: %v", ErrRowPending, key)
	}
	if len(w.columns) == 0 {
		return nil, fmt.Errorf("%w: piecewise Row requires declared columns", ErrColumnMismatch)
	}

	p := &pendingRow{key: key, loc: newColumnarLocator(len(w.columns)), state: RowNew}
	w.pending[key] = p
	w.pendingOrder = append(w.pendingOrder, key)
	return &RowHandle{w: w, p: p}, nil
}

// commitPending moves a pending row's locator into the index.
func (w *Writer) commitPending(p *pendingRow) error {
	p.state = RowCommitted
	w.ix.rows.Set(p.key, p.loc)
	delete(w.pending, p.key)
	return nil
}

// removePendingOrder drops key from pendingOrder once it has been
// committed, so a later Close never revisits it.
func (w *Writer) removePendingOrder(key any) {
	for i, k := range w.pendingOrder {
		if k == key {
			w.pendingOrder = append(w.pendingOrder[:i], w.pendingOrder[i+1:]...)
			return
		}
	}
}

// SetProperty encodes and stores a named file-level property, overwriting
// any previous value.
func (w *Writer) SetProperty(name string, value any) error {
	if err := w.ensureOpen(); err != nil {
		return err
	}
	codec, err := LookupCodec(w.codec)
	if err != nil {
		return err
	}
	raw, err := codec.Encode(value)
	if err != nil {
		return err
	}
	w.ix.properties.Set(name, footerProperty{Codec: w.codec, Data: raw})
	return nil
}

// MakeSplit creates a new named split over keys already present.
func (w *Writer) MakeSplit(name string, keys []any) error {
	if err := w.ensureOpen(); err != nil {
		return err
	}
	return w.ix.makeSplit(name, keys)
}

// AddToSplit extends an existing split.
func (w *Writer) AddToSplit(name string, keys []any) error {
	if err := w.ensureOpen(); err != nil {
		return err
	}
	return w.ix.addToSplit(name, keys)
}

// ReplaceSplit overwrites a split's key list.
func (w *Writer) ReplaceSplit(name string, keys []any) error {
	if err := w.ensureOpen(); err != nil {
		return err
	}
	return w.ix.replaceSplit(name, keys)
}

// Batch performs multiple Set calls, validating nothing beyond what Set
// itself validates; rows are processed in slice order.
func (w *Writer) Batch(rows ...BatchRow) error {
	if err := w.ensureOpen(); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Set(row.Key, row.Record); err != nil {
			return err
		}
	}
	return nil
}

// Has reports whether key is already present, either committed to the
// index or pending piecewise assignment.
func (w *Writer) Has(key any) bool {
	key, err := normalizeKey(key)
	if err != nil {
		return false
	}
	if w.ix.rows.Has(key) {
		return true
	}
	_, pending := w.pending[key]
	return pending
}

// Len counts the rows the file will contain if closed now: committed
// rows plus rows still pending commit.
func (w *Writer) Len() int {
	return w.ix.rows.Len() + len(w.pending)
}

// Keys returns the keys the file will contain if closed now: committed
// keys in insertion order, followed by pending keys in Row-call order —
// the same order Close commits them in.
func (w *Writer) Keys() []any {
	out := w.ix.rows.Keys()
	for _, k := range w.pendingOrder {
		if _, ok := w.pending[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Get reads key's currently known value back through the write session's
// own file handle. For an unstructured file it returns the decoded whole
// value; for a columnar file it returns a map of column name to decoded
// value, with a nil entry for each column not yet written. A row still
// pending piecewise assignment yields whatever columns have arrived so
// far, absent slots for the rest.
func (w *Writer) Get(key any) (any, error) {
	if err := w.ensureOpen(); err != nil {
		return nil, err
	}
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	loc, ok := w.ix.rows.Get(key)
	if !ok {
		p, pending := w.pending[key]
		if !pending {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, key)
		}
		loc = p.loc
	}
	return w.decodeLocator(loc)
}

// decodeLocator materialises a locator's value(s) through the writer's
// stream, which reads the same handle it writes.
func (w *Writer) decodeLocator(loc RecordLocator) (any, error) {
	if !loc.columnar() {
		codec, err := LookupCodec(w.codec)
		if err != nil {
			return nil, err
		}
		raw, err := w.stream.Get(loc.Blob)
		if err != nil {
			return nil, err
		}
		return codec.Decode(raw)
	}

	out := make(map[string]any, len(w.columns))
	for i, col := range w.columns {
		if !loc.has(i) {
			out[col.Name] = nil
			continue
		}
		codec, err := LookupCodec(col.Codec)
		if err != nil {
			return nil, err
		}
		raw, err := w.stream.Get(loc.Columns[i])
		if err != nil {
			return nil, err
		}
		v, err := codec.Decode(raw)
		if err != nil {
			return nil, err
		}
		out[col.Name] = v
	}
	return out, nil
}

// Close commits any pending rows, writes the footer and trailer, and
// closes the file. Further operations fail with ErrClosed.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var errs error
	for _, key := range w.pendingOrder {
		p, ok := w.pending[key]
		if !ok {
			continue
		}
		if err := w.commitPending(p); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	doc := &footerDoc{
		Compression:  w.comp.String(),
		DefaultCodec: w.codec,
		Columns:      w.columns,
	}
	doc.Properties = make(map[string]footerProperty, w.ix.properties.Len())
	for _, name := range w.ix.properties.Keys() {
		p, _ := w.ix.properties.Get(name)
		doc.Properties[name] = p
	}
	for _, name := range w.ix.splits.Keys() {
		keys, _ := w.ix.splits.Get(name)
		eks := make([]encodedKey, len(keys))
		for i, k := range keys {
			ek, err := encodeKey(k)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			eks[i] = ek
		}
		doc.Splits = append(doc.Splits, footerSplit{Name: name, Keys: eks})
	}
	for _, k := range w.ix.rows.Keys() {
		loc, _ := w.ix.rows.Get(k)
		ek, err := encodeKey(k)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		doc.Index = append(doc.Index, footerIndexEntryFrom(ek, loc))
	}

	if errs != nil {
		w.file.Close()
		return errs
	}

	footer, trailer, err := encodeFooter(doc)
	if err != nil {
		w.file.Close()
		return err
	}

	// The footer itself is written raw, never through Stream.Put: Put
	// applies per-blob compression, but the footer must be readable by
	// seeking from the trailer alone, before any compression setting is
	// known.
	footerStart := w.stream.Tail()
	if _, err := w.file.WriteAt(footer, footerStart); err != nil {
		w.file.Close()
		return err
	}
	if _, err := w.file.WriteAt(trailer, footerStart+int64(len(footer))); err != nil {
		w.file.Close()
		return err
	}

	w.log.Debug("fdd: closed writer", zap.String("path", w.path), zap.Int("rows", w.ix.rows.Len()))
	return w.file.Close()
}
