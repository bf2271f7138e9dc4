// Footer checksumming.
//
// The trailer stores an XXH3-64 checksum of the footer bytes alongside
// the footer length, so a truncated or bit-flipped footer is caught
// before a JSON decode is even attempted.
package fdd

import "github.com/zeebo/xxh3"

// footerChecksum returns the XXH3-64 checksum of the raw footer bytes as
// they're about to be (or were) written to disk.
func footerChecksum(footerBytes []byte) uint64 {
	return xxh3.Hash(footerBytes)
}
