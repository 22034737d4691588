// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flate

const (
	windowSize   = 1 << 15 // 32768, the DEFLATE history size
	windowBytes  = 2 * windowSize
	minLookahead = minMatchLength + maxMatchLength // 261: enough to find the longest possible match
)

// slidingWindow is the 64 KiB buffer of spec §3/§4.3: a history region
// (the trailing windowSize bytes already compressed) and an "ahead" region
// not yet compressed. wp is the write cursor (end of valid data), rp is the
// compression cursor, fp is the flush cursor (-1 meaning "no input written
// this block yet").
type slidingWindow struct {
	buf    [windowBytes]byte
	wp, rp int
	fp     int // may be -1
}

func newSlidingWindow() *slidingWindow {
	return &slidingWindow{fp: -1}
}

func (w *slidingWindow) reset() {
	w.wp, w.rp = 0, 0
	w.fp = -1
}

// writable returns the slice the caller should fill with fresh input bytes.
func (w *slidingWindow) writable() []byte {
	return w.buf[w.wp:]
}

// produced records that n bytes were written into the slice writable()
// previously returned.
func (w *slidingWindow) produced(n int) {
	w.wp += n
}

// needsSlide reports whether the compression cursor has advanced far enough
// into the ahead region that a slide is required before further progress,
// per the invariant in spec §4.3.
func (w *slidingWindow) needsSlide() bool {
	return w.rp > windowBytes-minLookahead
}

// slide copies the upper windowSize bytes down to the start of the buffer
// and rebases every cursor by -windowSize.
func (w *slidingWindow) slide() {
	copy(w.buf[:windowSize], w.buf[windowSize:w.wp])
	w.wp -= windowSize
	w.rp -= windowSize
	if w.fp >= 0 {
		w.fp -= windowSize
	}
}

// activeLookahead returns the unread lookahead slice (buf[rp:wp]) if it is
// long enough to guarantee a maximal match search, or if flush is pending
// (in which case any remaining bytes, however few, must still be tokenized).
func (w *slidingWindow) activeLookahead(flush bool) []byte {
	n := w.wp - w.rp
	if n <= 0 {
		return nil
	}
	if !flush && n < minLookahead {
		return nil
	}
	return w.buf[w.rp:w.wp]
}

// match compares the maxMatchLength-bounded runs at prevPos and currPos and
// returns the match length (0 if below minMatchLength). If minLen > 0, the
// bytes at minLen and maxLen-1 are checked first, and a mismatch at either
// one rejects the candidate in O(1); the bytes between them are not
// checked before the full compare.
func (w *slidingWindow) match(prevPos, currPos, minLen int) int {
	maxLen := w.wp - currPos
	if maxLen > maxMatchLength {
		maxLen = maxMatchLength
	}
	if maxLen <= minLen {
		return 0
	}

	a := w.buf[prevPos:]
	b := w.buf[currPos:]

	if minLen > 0 {
		if a[minLen] != b[minLen] || a[maxLen-1] != b[maxLen-1] {
			return 0
		}
	}

	n := 0
	for n < maxLen && a[n] == b[n] {
		n++
	}
	if n < minMatchLength {
		return 0
	}
	return n
}
