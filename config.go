// Functional options for Writer and Reader construction: a config struct
// per handle with field-setting option funcs, validated once at open.
package fdd

import "go.uber.org/zap"

// Mode selects how NewWriter treats an existing file at path.
type Mode int

const (
	// ModeFresh fails if the file already exists.
	ModeFresh Mode = iota
	// ModeOverwrite truncates any existing file.
	ModeOverwrite
	// ModeReopen loads the existing footer, reverts the file to
	// just-before-footer, and continues appending.
	ModeReopen
)

// WriterConfig collects NewWriter's recognised options.
type WriterConfig struct {
	Mode           Mode
	Columns        []ColumnDef
	Compression    Compression
	compressionSet bool // true once WithCompression has been applied, even to CompressionNone
	DefaultCodec   string
	Logger         *zap.Logger
}

// WriterOption mutates a WriterConfig during NewWriter.
type WriterOption func(*WriterConfig)

func defaultWriterConfig() WriterConfig {
	return WriterConfig{
		Mode:         ModeFresh,
		Compression:  CompressionNone,
		DefaultCodec: DefaultCodecName,
		Logger:       zap.NewNop(),
	}
}

// WithMode selects fresh/overwrite/reopen semantics.
func WithMode(m Mode) WriterOption {
	return func(c *WriterConfig) { c.Mode = m }
}

// WithColumns declares an ordered column list. In ModeReopen it must
// match the existing file's declaration exactly.
func WithColumns(cols []ColumnDef) WriterOption {
	return func(c *WriterConfig) { c.Columns = cols }
}

// WithCompression selects the per-blob compression algorithm. In
// ModeReopen it must match the existing file's setting.
func WithCompression(comp Compression) WriterOption {
	return func(c *WriterConfig) {
		c.Compression = comp
		c.compressionSet = true
	}
}

// WithDefaultCodec overrides the whole-value codec used for unstructured
// records and properties.
func WithDefaultCodec(name string) WriterOption {
	return func(c *WriterConfig) { c.DefaultCodec = name }
}

// WithWriterLogger attaches a zap logger for lifecycle events. Defaults
// to a no-op logger.
func WithWriterLogger(l *zap.Logger) WriterOption {
	return func(c *WriterConfig) {
		if l != nil {
			c.Logger = l
		}
	}
}

// ReaderConfig collects Open's recognised options.
type ReaderConfig struct {
	Split  string
	Logger *zap.Logger
}

// ReaderOption mutates a ReaderConfig during Open.
type ReaderOption func(*ReaderConfig)

func defaultReaderConfig() ReaderConfig {
	return ReaderConfig{Logger: zap.NewNop()}
}

// WithSplit scopes the reader to the union of the named splits (joined
// internally the same way a "^a+b" path suffix would be).
func WithSplit(spec string) ReaderOption {
	return func(c *ReaderConfig) { c.Split = spec }
}

// WithReaderLogger attaches a zap logger for lifecycle events.
func WithReaderLogger(l *zap.Logger) ReaderOption {
	return func(c *ReaderConfig) {
		if l != nil {
			c.Logger = l
		}
	}
}
