// Sentinel errors for every failure mode the format can surface.
package fdd

import "errors"

// Sentinel errors returned by Writer and Reader operations. Callers use
// errors.Is to decide how to handle a failure; each error maps to exactly
// one failure mode so that matching on one can never silently catch another.
var (
	// ErrInvalidFile is returned when a footer cannot be trusted: bad magic,
	// a failed checksum, a failed decode, or a structurally inconsistent
	// index (a locator pointing past the footer, a split key absent from
	// the index).
	ErrInvalidFile = errors.New("fdd: invalid or corrupt file")

	// ErrCorruptFooter is a more specific InvalidFile case: the trailer's
	// checksum does not match the footer bytes actually read. Errors that
	// carry it also match ErrInvalidFile.
	ErrCorruptFooter = errors.New("fdd: footer checksum mismatch")

	// ErrNotFound is returned when a key is absent from the active view,
	// a split operation names a key absent from the file, or a named
	// property does not exist.
	ErrNotFound = errors.New("fdd: key not found")

	// ErrDuplicateKey is returned by Set/Row when the key is already
	// present in the file.
	ErrDuplicateKey = errors.New("fdd: duplicate key")

	// ErrSchemaMismatch is returned when a reopen's column definition or
	// compression setting does not match the file being reopened.
	ErrSchemaMismatch = errors.New("fdd: schema mismatch on reopen")

	// ErrBadState is returned for a column assignment on a row handle that
	// has already been finalized, or an unknown writer mode. Operations on
	// a closed handle return ErrClosed instead.
	ErrBadState = errors.New("fdd: invalid handle state")

	// ErrCodecUnregistered is returned when a footer names a codec that
	// has not been registered in this process.
	ErrCodecUnregistered = errors.New("fdd: codec not registered")

	// ErrCodecError wraps an error raised from a codec's Encode or Decode.
	ErrCodecError = errors.New("fdd: codec error")

	// ErrSplitExists is returned by MakeSplit when the split name is
	// already declared.
	ErrSplitExists = errors.New("fdd: split already exists")

	// ErrSplitNotFound is returned by AddToSplit/LoadNewSplit, and by Open
	// with a split spec, when a named split has not been declared.
	// ReplaceSplit creates an absent split instead.
	ErrSplitNotFound = errors.New("fdd: split not found")

	// ErrColumnMismatch is returned when a whole-row value does not match
	// the declared column shape, or a column name used in piecewise
	// assignment was never declared.
	ErrColumnMismatch = errors.New("fdd: column mismatch")

	// ErrClosed is returned when operating on a closed Writer or Reader.
	ErrClosed = errors.New("fdd: handle is closed")

	// ErrRowPending is returned when Set is called for a key that already
	// has an open, uncommitted piecewise row.
	ErrRowPending = errors.New("fdd: row already pending for key")

	// ErrDecompress wraps a failure to decompress a blob under the file's
	// declared compression algorithm.
	ErrDecompress = errors.New("fdd: decompression failed")
)
