// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flate

const (
	hashBits  = 15
	hashSize  = 1 << hashBits
	hashShift = 17 // right shift after the multiply, yielding 15 bits

	// windowSize and related constants are defined in window.go.
)

// hash4 computes the 15-bit hash of the 4 bytes at b[0:4], per spec §4.2:
// ((b0<<24|b1<<16|b2<<8|b3) * 0x9E3779B1) >> 17.
func hash4(b []byte) uint32 {
	v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return (v * 0x9E3779B1) >> hashShift
}

// hashChain is the content-addressed index mapping 4-byte prefixes to the
// most recent window position with that prefix, with chain links to
// earlier occurrences of the same hash.
type hashChain struct {
	head  [hashSize]uint32
	chain [2 * windowSize]uint32
}

func (h *hashChain) reset() {
	h.head = [hashSize]uint32{}
	h.chain = [2 * windowSize]uint32{}
}

// add hashes the 4 bytes at data[pos:pos+4], records pos as the new head
// for that hash, links the old head into chain[pos], and returns the old
// head (0 if none, which match search treats as "no predecessor").
func (h *hashChain) add(data []byte, pos int) (prevHead uint32) {
	hv := hash4(data[pos:])
	prevHead = h.head[hv]
	h.head[hv] = uint32(pos)
	h.chain[pos] = prevHead
	return prevHead
}

// prev returns the next-older position sharing pos's hash bucket.
func (h *hashChain) prev(pos uint32) uint32 {
	return h.chain[pos]
}

// bulkAdd calls add for each of the n consecutive positions starting at
// pos, used to catch the hash index up after an advance of more than one
// byte (a committed match, or a lazy-match skip).
func (h *hashChain) bulkAdd(data []byte, pos, n int) {
	for i := 0; i < n; i++ {
		if pos+i+4 > len(data) {
			break
		}
		h.add(data, pos+i)
	}
}

// slide subtracts n (always windowSize, the half-window the SlidingWindow
// just dropped) from every head entry, and from the chain entries that
// described the half of the window now shifted down to position 0.
// Saturating subtraction means stale references resolve to 0 ("no
// predecessor") instead of wrapping around.
func (h *hashChain) slide(n uint32) {
	for i := range h.head {
		h.head[i] = satSub(h.head[i], n)
	}
	for i := uint32(0); i < n; i++ {
		h.chain[i] = satSub(h.chain[i+n], n)
	}
	for i := n; i < uint32(len(h.chain)); i++ {
		h.chain[i] = 0
	}
}

func satSub(v, n uint32) uint32 {
	if v < n {
		return 0
	}
	return v - n
}
