package flate

import "errors"

// ErrUnfinishedBits is returned when writeBytes is called while the bit
// register holds a fractional byte. It indicates a caller bug in the block
// encoder, not a corrupt stream, and is fatal to the Writer.
var ErrUnfinishedBits = errors.New("flate: writeBytes called with unfinished bits")

// ErrReadFailed wraps a failure reading from the input source, as distinct
// from a clean end-of-stream (io.EOF, which is not an error at this layer).
type ErrReadFailed struct{ Err error }

func (e *ErrReadFailed) Error() string { return "flate: read from input source failed: " + e.Err.Error() }
func (e *ErrReadFailed) Unwrap() error { return e.Err }
