// Stream I/O layer.
//
// Blobs carry no on-disk delimiter at all — their boundaries live only
// in the index — so Stream offers exactly two primitives: Put(bytes) ->
// (offset, length) and Get(offset, length) -> bytes, with optional
// per-blob compression folded in transparently on both sides.
package fdd

import (
	"fmt"
	"io"
)

// blobReaderAt is the minimal capability Stream needs to serve Get. It is
// satisfied by *os.File and, in tests, by instrumented wrappers that count
// calls to verify the laziness property (see read_test.go).
type blobReaderAt interface {
	io.ReaderAt
}

// blobWriterAt is the minimal capability Stream needs to serve Put.
type blobWriterAt interface {
	io.ReaderAt
	io.WriterAt
}

// Stream appends and retrieves blobs against an underlying file. A Stream
// used only for reading has w == nil; Put and putRaw return an error in
// that configuration (Reader never constructs a writable Stream).
type Stream struct {
	r           blobReaderAt
	w           blobWriterAt
	compression Compression
	tail        int64 // next Put() offset
}

// newWriteStream constructs a Stream positioned to append at tail.
func newWriteStream(rw blobWriterAt, compression Compression, tail int64) *Stream {
	return &Stream{r: rw, w: rw, compression: compression, tail: tail}
}

// newReadStream constructs a read-only Stream.
func newReadStream(r blobReaderAt, compression Compression) *Stream {
	return &Stream{r: r, compression: compression}
}

// Put compresses (if configured) and appends data at the stream's current
// tail, advancing it. It returns the BlobRef locating the bytes actually
// written on disk — Length reflects the post-compression size, which is
// what Get needs to read exactly the right number of bytes back.
func (s *Stream) Put(data []byte) (BlobRef, error) {
	if s.w == nil {
		return BlobRef{}, fmt.Errorf("fdd: stream is read-only")
	}

	out, err := compressBlob(s.compression, data)
	if err != nil {
		return BlobRef{}, err
	}

	offset := s.tail
	n, err := s.w.WriteAt(out, offset)
	if err != nil {
		return BlobRef{}, fmt.Errorf("fdd: write blob: %w", err)
	}
	s.tail += int64(n)

	return BlobRef{Offset: offset, Length: int64(n)}, nil
}

// Get reads exactly ref.Length bytes at ref.Offset and decompresses them
// (if configured). It performs at most one disk read per call; a
// zero-length ref returns nil without reading.
func (s *Stream) Get(ref BlobRef) ([]byte, error) {
	if ref.Length == 0 {
		return nil, nil
	}
	buf := make([]byte, ref.Length)
	if _, err := s.r.ReadAt(buf, ref.Offset); err != nil {
		return nil, fmt.Errorf("fdd: read blob: %w", err)
	}
	return decompressBlob(s.compression, buf)
}

// Tail returns the stream's current append offset.
func (s *Stream) Tail() int64 { return s.tail }

// rawBytes reads ref's on-disk bytes without decompressing. Used by
// pass-through copy (copy.go) when source and destination compression
// settings match, so the copied bytes are byte-identical to the source
// at rest, not merely equal after a decompress/recompress round trip.
func (s *Stream) rawBytes(ref BlobRef) ([]byte, error) {
	if ref.Length == 0 {
		return nil, nil
	}
	buf := make([]byte, ref.Length)
	if _, err := s.r.ReadAt(buf, ref.Offset); err != nil {
		return nil, fmt.Errorf("fdd: read blob: %w", err)
	}
	return buf, nil
}

// putRaw appends already-compressed (or deliberately uncompressed) bytes
// verbatim, without applying this stream's compression setting.
func (s *Stream) putRaw(data []byte) (BlobRef, error) {
	if s.w == nil {
		return BlobRef{}, fmt.Errorf("fdd: stream is read-only")
	}
	offset := s.tail
	n, err := s.w.WriteAt(data, offset)
	if err != nil {
		return BlobRef{}, fmt.Errorf("fdd: write blob: %w", err)
	}
	s.tail += int64(n)
	return BlobRef{Offset: offset, Length: int64(n)}, nil
}

// copyBlobVerbatim copies one blob from src to dst. When both streams use
// the same compression setting it copies the on-disk bytes directly
// (true byte-for-byte identity); otherwise it decompresses under src's
// setting and recompresses under dst's.
func copyBlobVerbatim(dst, src *Stream, ref BlobRef) (BlobRef, error) {
	if ref.Length == 0 {
		return BlobRef{}, nil
	}
	if dst.compression == src.compression {
		raw, err := src.rawBytes(ref)
		if err != nil {
			return BlobRef{}, err
		}
		return dst.putRaw(raw)
	}
	data, err := src.Get(ref)
	if err != nil {
		return BlobRef{}, err
	}
	return dst.Put(data)
}

// setReader swaps the underlying reader. The laziness test uses it to
// install a counting wrapper; fork safety does not go through it, since
// forkSafeFile swaps its own handle (see forksafe.go).
func (s *Stream) setReader(r blobReaderAt) { s.r = r }

// setWriter swaps the underlying reader+writer and the append offset.
// Writer reopen does not use it; it builds a new Stream instead.
func (s *Stream) setWriter(rw blobWriterAt, tail int64) {
	s.r = rw
	s.w = rw
	s.tail = tail
}
