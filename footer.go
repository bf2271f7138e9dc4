// Footer management.
//
// The footer sits at the *end* of the file, because an append-only
// format can't know its own size in advance: one JSON-encoded struct
// (goccy/go-json), one fixed-width trailer so it can always be found,
// one magic string checked before anything else is trusted.
package fdd

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Magic identifies an FDD file and its format version.
const Magic = "FDD\x01"

// TrailerSize is the fixed width of the trailer: an 8-byte little-endian
// FOOTER_LEN followed by an 8-byte little-endian XXH3-64 checksum of the
// footer bytes.
const TrailerSize = 16

// footerProperty is a property's persisted form: its codec name and the
// raw encoded bytes, decoded lazily on first read.
type footerProperty struct {
	Codec string `json:"codec"`
	Data  []byte `json:"data"`
}

// footerSplit preserves split declaration order, which a bare JSON object
// (Go map) cannot guarantee.
type footerSplit struct {
	Name string       `json:"name"`
	Keys []encodedKey `json:"keys"`
}

// footerIndexEntry is one (key, locator) pair, in insertion order. A
// columnar entry populates Columns and Present (the bitset's raw words);
// an unstructured entry populates Blob and leaves both nil.
type footerIndexEntry struct {
	Key     encodedKey `json:"key"`
	Blob    BlobRef    `json:"blob,omitempty"`
	Columns []BlobRef  `json:"columns,omitempty"`
	Present []uint64   `json:"present,omitempty"`
}

// toLocator rebuilds a RecordLocator from its persisted form.
func (e footerIndexEntry) toLocator() RecordLocator {
	if e.Columns != nil {
		return columnarLocatorFromWords(e.Columns, e.Present)
	}
	return RecordLocator{Blob: e.Blob}
}

// footerIndexEntryFrom captures a live RecordLocator for persistence.
func footerIndexEntryFrom(key encodedKey, l RecordLocator) footerIndexEntry {
	if l.columnar() {
		return footerIndexEntry{Key: key, Columns: l.Columns, Present: presentWords(l)}
	}
	return footerIndexEntry{Key: key, Blob: l.Blob}
}

// footerDoc is the on-disk footer structure.
type footerDoc struct {
	Magic        string      `json:"magic"`
	Compression  string      `json:"compression"`
	DefaultCodec string      `json:"default_codec"`
	Columns      []ColumnDef `json:"columns"`
	// Properties is keyed by name only; unlike Splits/Index, the insertion
	// order ix.properties maintains in memory is not persisted here, so
	// Reader.Properties lists names in no defined order.
	Properties map[string]footerProperty `json:"properties"`
	Splits     []footerSplit             `json:"splits"`
	Index      []footerIndexEntry        `json:"index"`
}

// encodeFooter serializes a writer's in-memory state into footer bytes and
// the trailer that follows them.
func encodeFooter(doc *footerDoc) (footer []byte, trailer []byte, err error) {
	doc.Magic = Magic
	footer, err = json.Marshal(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("fdd: encode footer: %w", err)
	}

	trailer = make([]byte, TrailerSize)
	putUint64LE(trailer[0:8], uint64(len(footer)))
	putUint64LE(trailer[8:16], footerChecksum(footer))
	return footer, trailer, nil
}

// decodeFooter parses and validates footer bytes already read off disk.
func decodeFooter(footerBytes []byte, trailerBytes []byte) (*footerDoc, error) {
	if len(trailerBytes) != TrailerSize {
		return nil, fmt.Errorf("%w: short trailer", ErrInvalidFile)
	}
	wantLen := getUint64LE(trailerBytes[0:8])
	wantSum := getUint64LE(trailerBytes[8:16])

	if uint64(len(footerBytes)) != wantLen {
		return nil, fmt.Errorf("%w: footer length mismatch", ErrInvalidFile)
	}
	if footerChecksum(footerBytes) != wantSum {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, ErrCorruptFooter)
	}

	var doc footerDoc
	if err := json.Unmarshal(footerBytes, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if doc.Magic != Magic {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidFile)
	}
	return &doc, nil
}

func putUint64LE(buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v)
		v >>= 8
	}
}

func getUint64LE(buf []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v
}
