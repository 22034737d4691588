// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flate

import "io"

// Level selects the good/lazy/nice/chain tuning for the lazy match finder.
// Higher levels search harder for matches at the cost of speed.
type Level int

const (
	Fast    Level = 4
	Default Level = 6
	Best    Level = 9
)

// levelParams holds the good_length/lazy_length/nice_length/chain_depth
// tuning for one compression level.
type levelParams struct {
	good, lazy, nice, chain int
}

var levelTable = map[Level]levelParams{
	4: {good: 4, lazy: 4, nice: 16, chain: 16},
	5: {good: 8, lazy: 16, nice: 32, chain: 32},
	6: {good: 8, lazy: 16, nice: 128, chain: 128},
	7: {good: 8, lazy: 32, nice: 128, chain: 256},
	8: {good: 32, lazy: 128, nice: 258, chain: 1024},
	9: {good: 32, lazy: 258, nice: 258, chain: 4096},
}

// resolveLevel maps the aliases in spec §6 (fast=4, default=6, best=9) and
// validates the level is one of the six values the table above covers.
func resolveLevel(l Level) (Level, levelParams, bool) {
	switch l {
	case 0:
		l = Default
	case 1, 2, 3:
		l = Fast
	}
	p, ok := levelTable[l]
	return l, p, ok
}

const maxTokens = 1 << 15 // 32768, the per-block token batch limit

// pendingMatch is the lazy matcher's deferred state: a match held back
// while the position just past it is probed for a longer one. literal is
// the byte at the deferred match's own position, emitted instead of this
// match if a longer one supersedes it at the next position.
type pendingMatch struct {
	active  bool
	length  int
	offset  int
	literal byte
}

// Writer is the DeflateCore driver of spec §4.6: it owns the sliding
// window, hash chain, block encoder and its bit sink, and the pending
// lazy-match state, and turns a stream of input bytes into DEFLATE blocks.
//
// Writer does not itself own any container framing (gzip/zlib headers and
// checksums); those live in the gzip and zlib packages, which drive this
// type and additionally feed every input byte through a running checksum.
type Writer struct {
	dst io.Writer
	bw  *bitWriter
	enc *blockWriter

	win    *slidingWindow
	chain  *hashChain
	params levelParams

	tokens []token
	lit    pendingMatch // pending match info for the byte *before* win.rp
	hasLit bool
	litVal byte

	closed bool
	err    error
}

// NewWriter constructs a Writer at the given level, writing DEFLATE blocks
// to dst. An invalid level falls back to Default, matching the alias table
// in spec §6.
func NewWriter(dst io.Writer, level Level) *Writer {
	_, params, ok := resolveLevel(level)
	if !ok {
		_, params, _ = resolveLevel(Default)
	}
	bw := newBitWriter(dst)
	w := &Writer{
		dst:    dst,
		bw:     bw,
		enc:    newBlockWriter(bw),
		win:    newSlidingWindow(),
		chain:  &hashChain{},
		params: params,
		tokens: make([]token, 0, maxTokens),
	}
	return w
}

// Write feeds raw bytes into the sliding window, running the match finder
// incrementally as space allows, and returns the number of bytes accepted.
// It never blocks on the caller's behalf; large writes are drained in
// window-sized chunks, sliding and tokenizing between them as needed.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	total := len(p)
	for len(p) > 0 {
		if w.win.needsSlide() {
			w.tokenizeAvailable(false)
			if w.err != nil {
				return total - len(p), w.err
			}
			w.slideWindow()
		}
		dst := w.win.writable()
		if len(dst) == 0 {
			// Shouldn't happen given needsSlide above, but guard against
			// a pathological state rather than spin.
			w.slideWindow()
			dst = w.win.writable()
		}
		n := copy(dst, p)
		w.win.produced(n)
		p = p[n:]
		w.tokenizeAvailable(false)
		if w.err != nil {
			return total - len(p), w.err
		}
	}
	return total, nil
}

// slideWindow drains the hash chain alongside a window slide, per spec
// §4.6's closing paragraph.
func (w *Writer) slideWindow() {
	w.win.slide()
	w.chain.slide(windowSize)
}

// tokenizeAvailable runs the lazy match finder described in spec §4.6 over
// every position for which activeLookahead is non-nil, flushing a full
// block whenever the token batch fills.
func (w *Writer) tokenizeAvailable(flush bool) {
	for {
		look := w.win.activeLookahead(flush)
		if look == nil {
			return
		}
		pos := w.win.rp

		minLen := 0
		if w.lit.active {
			minLen = w.lit.length
		}

		// The hash needs 4 bytes; near the end of a flushed input fewer may
		// remain, and those positions are neither indexed nor searched.
		var prevHead uint32
		if pos+4 <= w.win.wp {
			prevHead = w.chain.add(w.win.buf[:w.win.wp], pos)
		}
		bestLen, bestPos := 0, 0
		if prevHead != 0 && int(prevHead) < pos {
			bestLen, bestPos = w.searchChain(pos, prevHead, minLen)
		}

		switch {
		case bestLen == 0:
			wasPendingMatch := w.lit.active
			if wasPendingMatch {
				w.emitPendingMatch()
			} else if w.hasLit {
				w.tokens = append(w.tokens, literalToken(uint32(w.litVal)))
				w.checkFlush()
			}
			if wasPendingMatch {
				// emitPendingMatch already advanced rp past this step.
				continue
			}
			w.hasLit = true
			w.litVal = look[0]
			w.advance(1)
		default:
			if w.hasLit {
				w.tokens = append(w.tokens, literalToken(uint32(w.litVal)))
				w.hasLit = false
				w.checkFlush()
			}
			if w.lit.active {
				// A longer match superseded the one deferred from the
				// previous position: emit that position's literal instead
				// of the match it would have taken, and fall through to
				// decide what to do with the new, better match.
				w.tokens = append(w.tokens, literalToken(uint32(w.lit.literal)))
				w.lit.active = false
				w.checkFlush()
			}
			if bestLen >= w.params.lazy {
				w.tokens = append(w.tokens, matchToken(uint32(bestLen-baseMatchLength), uint32(pos-bestPos-1+baseMatchOffset)))
				w.advance(bestLen)
				w.checkFlush()
			} else {
				w.lit.active = true
				w.lit.length = bestLen
				w.lit.offset = pos - bestPos
				w.lit.literal = look[0]
				w.advance(1)
			}
		}
	}
}

// emitPendingMatch commits the deferred match recorded in w.lit (from a
// lazy-match defer one position back) and advances past it.
func (w *Writer) emitPendingMatch() {
	length := w.lit.length
	offset := w.lit.offset
	w.lit.active = false
	// The match was found starting one position behind the current rp
	// (the position we deferred from); rewind the compression cursor to
	// emit it from there, then advance length-1 more (1 already consumed
	// by the single-step lookahead at defer time).
	w.win.rp--
	w.tokens = append(w.tokens, matchToken(uint32(length-baseMatchLength), uint32(offset-1+baseMatchOffset)))
	w.advance(length)
	w.checkFlush()
}

// advance moves the compression cursor forward by step bytes, catching the
// hash chain up on the intervening positions per spec §4.6 point 4.
func (w *Writer) advance(step int) {
	if step > 1 {
		w.chain.bulkAdd(w.win.buf[:w.win.wp], w.win.rp+1, step-1)
	}
	w.win.rp += step
}

// searchChain walks up to params.chain predecessors of pos sharing its
// hash bucket, returning the best match length found and the window
// position it starts at. Matches are rejected once the hop distance
// exceeds windowSize.
func (w *Writer) searchChain(pos int, prevHead uint32, minLen int) (bestLen, bestPos int) {
	chainLen := w.params.chain
	cur := prevHead
	for i := 0; i < chainLen; i++ {
		distance := pos - int(cur)
		if distance > windowSize || distance <= 0 {
			break
		}
		n := w.win.match(int(cur), pos, minLen)
		if n > bestLen {
			bestLen, bestPos = n, int(cur)
			minLen = n
			if n >= w.params.nice {
				break
			}
		}
		if bestLen >= w.params.good {
			chainLen /= 2
		}
		cur = w.chain.prev(cur)
	}
	return bestLen, bestPos
}

// checkFlush flushes a full block when the token batch reaches its limit.
func (w *Writer) checkFlush() {
	if len(w.tokens) >= maxTokens {
		w.flushBlock(false)
	}
}

// flushBlock hands the accumulated tokens to the block encoder, marking it
// final when eof is true, then resets the batch and the window's flush
// cursor per spec §4.6.
func (w *Writer) flushBlock(eof bool) {
	raw := w.win.buf[w.blockStart():w.win.rp]
	w.enc.writeBlock(w.tokens, eof, raw)
	if err := w.bw.writeError(); err != nil {
		w.err = err
	}
	w.tokens = w.tokens[:0]
	w.win.fp = w.win.rp
}

// blockStart returns the raw-byte offset the current token batch began at.
func (w *Writer) blockStart() int {
	if w.win.fp < 0 {
		return 0
	}
	return w.win.fp
}

// Flush forces a sync flush (spec §4.6, RFC 1951 empty stored block): every
// byte written so far becomes independently decompressible. Not a no-op
// even with zero pending tokens, per the open question in spec §9: an
// empty stored block is still emitted.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return nil
	}
	w.tokenizeAvailable(true)
	if w.err != nil {
		return w.err
	}
	w.flushPending()
	w.flushBlock(false)
	w.enc.writeEmptyStoredBlock()
	w.bw.flush()
	if err := w.bw.writeError(); err != nil {
		w.err = err
		return err
	}
	return nil
}

// flushPending commits any literal or lazily-deferred match still held by
// the matcher, so a flush or finish sees a complete token batch.
func (w *Writer) flushPending() {
	if w.lit.active {
		w.emitPendingMatch()
		w.lit.active = false
	}
	if w.hasLit {
		w.tokens = append(w.tokens, literalToken(uint32(w.litVal)))
		w.hasLit = false
	}
}

// Close finalizes the stream: drains any remaining input, emits the final
// block with the end-of-block bit set, and flushes the bit sink. Close is
// idempotent; subsequent calls are no-ops once the stream is closed
// successfully.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return nil
	}
	w.closed = true
	w.tokenizeAvailable(true)
	if w.err != nil {
		return w.err
	}
	w.flushPending()
	w.flushBlock(true)
	w.bw.flush()
	if err := w.bw.writeError(); err != nil {
		w.err = err
		return err
	}
	return nil
}
