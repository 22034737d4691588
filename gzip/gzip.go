// Package gzip wraps the internal flate encoder with RFC 1952 framing: a
// fixed 10-byte header, the DEFLATE payload, and an 8-byte footer carrying
// the CRC-32 and uncompressed size of the input.
package gzip

import (
	"encoding/binary"
	"io"

	"github.com/elliotnunn/godeflate/internal/flate"
)

// header is the fixed 10-byte gzip header this package always emits:
// magic 1F 8B, method 8 (deflate), no flags, mtime 0, no extra flags,
// OS 3 (Unix). Per spec §6 there is exactly one supported header shape.
var header = [10]byte{0x1f, 0x8b, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x03}

// Writer produces a gzip stream from the bytes written to it.
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
	return &Writer{w: w, fw: flate.NewWriter(w, level), sum: flate.NewCRC32State()}
}

func (z *Writer) writeHeader() error {
	if z.init {
		return nil
	}
	z.init = true
	if _, err := z.w.Write(header[:]); err != nil {
		z.err = err
	}
	return z.err
}

// Write compresses p, updating the running CRC-32 and byte count that the
// footer will carry.
func (z *Writer) Write(p []byte) (int, error) {
	if z.err != nil {
		return 0, z.err
	}
	if err := z.writeHeader(); err != nil {
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
	if err := z.writeHeader(); err != nil {
		return err
	}
	if err := z.fw.Flush(); err != nil {
		z.err = err
	}
	return z.err
}

// Close finishes the DEFLATE stream and appends the CRC-32/ISIZE footer.
func (z *Writer) Close() error {
	if z.err != nil {
		return z.err
	}
	if err := z.writeHeader(); err != nil {
		return err
	}
	if err := z.fw.Close(); err != nil {
		z.err = err
		return z.err
	}
	var footer [8]byte
	binary.LittleEndian.PutUint32(footer[0:4], z.sum.Sum32())
	binary.LittleEndian.PutUint32(footer[4:8], z.sum.Size())
	if _, err := z.w.Write(footer[:]); err != nil {
		z.err = err
	}
	return z.err
}
