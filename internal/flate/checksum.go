package flate

import (
	"hash"
	"hash/adler32"
	"hash/crc32"
)

// ChecksumState tracks the running checksum and uncompressed byte count a
// container footer needs (spec §3's "Checksum state"). It wraps the
// standard library's hash implementations rather than reimplementing
// CRC-32 or Adler-32, matching how this codebase treats checksums
// elsewhere: built on a trusted primitive, never hand-rolled.
type ChecksumState struct {
	h    hash.Hash32
	size uint32
}

// NewCRC32State returns a ChecksumState accumulating the IEEE CRC-32 used
// by gzip footers.
func NewCRC32State() *ChecksumState {
	return &ChecksumState{h: crc32.NewIEEE()}
}

// NewAdler32State returns a ChecksumState accumulating the Adler-32 used
// by zlib footers.
func NewAdler32State() *ChecksumState {
	return &ChecksumState{h: adler32.New()}
}

// Write feeds p through the underlying hash and advances the byte count.
// The hash.Hash32 contract guarantees Write never errors.
func (c *ChecksumState) Write(p []byte) {
	c.h.Write(p)
	c.size += uint32(len(p))
}

// Sum32 returns the checksum of every byte written so far.
func (c *ChecksumState) Sum32() uint32 { return c.h.Sum32() }

// Size returns the uncompressed byte count modulo 2^32, matching gzip's
// ISIZE field semantics.
func (c *ChecksumState) Size() uint32 { return c.size }
