// Package zlib wraps the internal flate encoder with RFC 1950 framing: a
// 2-byte header and a 4-byte big-endian Adler-32 footer, no preset
// dictionary.
package zlib

import (
	"encoding/binary"
	"io"

	"github.com/elliotnunn/godeflate/internal/flate"
)

// cmf is 0x78: compression method 8 (deflate) with a 32K window (CINFO=7).
const cmf = 0x78

// Writer produces a zlib stream from the bytes written to it.
type Writer struct {
	w    io.Writer
	fw   *flate.Writer
	sum  *flate.ChecksumState
	init bool
	err  error
}

// NewWriter returns a Writer at flate.Default compression.
func NewWriter(w io.Writer) *Writer { return NewWriterLevel(w, flate.Default) }

// NewWriterLevel returns a Writer at the given compression level.
func NewWriterLevel(w io.Writer, level flate.Level) *Writer {
	return &Writer{w: w, fw: flate.NewWriter(w, level), sum: flate.NewAdler32State()}
}

// flevel approximates zlib's FLEVEL field (0=fastest .. 3=maximum) from the
// DEFLATE level, purely as framing metadata; it does not affect encoding.
func flevel(level flate.Level) byte {
	switch {
	case level <= 1:
		return 0
	case level <= 5:
		return 1
	case level <= 6:
		return 2
	default:
		return 3
	}
}

func (z *Writer) writeHeader(level flate.Level) error {
	if z.init {
		return nil
	}
	z.init = true
	flg := flevel(level) << 6
	// No preset dictionary (FDICT=0), per the Non-goal in spec §1. Choose
	// FCHECK so that (CMF*256 + FLG) is a multiple of 31.
	head := uint16(cmf)<<8 | uint16(flg)
	if rem := head % 31; rem != 0 {
		flg += byte(31 - rem)
	}
	if _, err := z.w.Write([]byte{cmf, flg}); err != nil {
		z.err = err
	}
	return z.err
}

// Write compresses p, updating the running Adler-32.
func (z *Writer) Write(p []byte) (int, error) {
	if z.err != nil {
		return 0, z.err
	}
	if err := z.writeHeader(flate.Default); err != nil {
		return 0, err
	}
	z.sum.Write(p)
	n, err := z.fw.Write(p)
	if err != nil {
		z.err = err
	}
	return n, z.err
}

// Flush forces a sync flush of any buffered compressed bytes without
// ending the stream.
func (z *Writer) Flush() error {
	if z.err != nil {
		return z.err
	}
	if err := z.writeHeader(flate.Default); err != nil {
		return err
	}
	if err := z.fw.Flush(); err != nil {
		z.err = err
	}
	return z.err
}

// Close finishes the DEFLATE stream and appends the big-endian Adler-32
// footer.
func (z *Writer) Close() error {
	if z.err != nil {
		return z.err
	}
	if err := z.writeHeader(flate.Default); err != nil {
		return err
	}
	if err := z.fw.Close(); err != nil {
		z.err = err
		return z.err
	}
	var footer [4]byte
	binary.BigEndian.PutUint32(footer[:], z.sum.Sum32())
	if _, err := z.w.Write(footer[:]); err != nil {
		z.err = err
	}
	return z.err
}
