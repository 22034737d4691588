// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flate

// A token is a 32-bit packed representation of either a literal byte or a
// back-reference match, per RFC 1951 section 3.2.5. Bits 31-30 hold the
// token kind; for a match, the low 22 bits hold the distance itself
// (1..32768, not biased by -1) and (length-3) is packed above it in bits
// 22-29.
type token uint32

const (
	literalType = 0 << 30
	matchType   = 1 << 30
)

// Bit masks and shifts for the packed token.
const (
	lengthShift = 22
	offsetMask  = 1<<lengthShift - 1
	typeMask    = 3 << 30
	literalMask = 1<<lengthShift - 1
)

func literalToken(value uint32) token { return token(literalType + value) }

// matchToken builds a token from a length-3 xlength and the unbiased match
// distance xoffset.
func matchToken(xlength uint32, xoffset uint32) token {
	return token(matchType + xlength<<lengthShift + xoffset)
}

func (t token) isLiteral() bool { return t&typeMask == literalType }

func (t token) literal() uint32 { return uint32(t & literalMask) }

// length returns the actual match length, 3..258.
func (t token) length() uint32 { return uint32(t>>lengthShift) & 0xff + 3 }

// offset returns the actual match distance, 1..32768.
func (t token) offset() uint32 { return uint32(t) & offsetMask }

const (
	maxMatchLength = 258
	minMatchLength = 3
	maxStoreBlockSize = 65535

	baseMatchOffset = 1
	baseMatchLength = 3
)

// The RFC 1951 length-code table: lengthCodes[length-3] gives the symbol
// (257..285) used to encode that match length, and lengthExtraBits/lengthBase
// give the number and base value of the extra bits that follow the symbol.
var lengthCodes = [256]uint8{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 12, 12,
	13, 13, 13, 13, 14, 14, 14, 14, 15, 15, 15, 15,
	16, 16, 16, 16, 16, 16, 16, 16, 17, 17, 17, 17, 17, 17, 17, 17,
	18, 18, 18, 18, 18, 18, 18, 18, 19, 19, 19, 19, 19, 19, 19, 19,
	20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20,
	21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21,
	22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22,
	23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23,
	24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24,
	24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24,
	25, 25, 25, 25, 25, 25, 25, 25, 25, 25, 25, 25, 25, 25, 25, 25,
	25, 25, 25, 25, 25, 25, 25, 25, 25, 25, 25, 25, 25, 25, 25, 25,
	26, 26, 26, 26, 26, 26, 26, 26, 26, 26, 26, 26, 26, 26, 26, 26,
	26, 26, 26, 26, 26, 26, 26, 26, 26, 26, 26, 26, 26, 26, 26, 26,
	27, 27, 27, 27, 27, 27, 27, 27, 27, 27, 27, 27, 27, 27, 27, 27,
	27, 27, 27, 27, 27, 27, 27, 27, 27, 27, 27, 27, 27, 27, 27, 28,
}

var lengthExtraBits = [32]int8{
	/* 257 */ 0, 0, 0,
	/* 260 */ 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
	/* 273 */ 3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
}

var lengthBase = [32]uint32{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 10,
	12, 14, 16, 20, 24, 28, 32, 40, 48, 56,
	64, 80, 96, 112, 128, 160, 192, 224, 255,
}

// offsetCodes maps a biased distance d = dist-1 below 256 to its distance
// symbol; distanceCode indexes it with d, d>>7 or d>>14 to cover all
// distances 1..32768.
var offsetCodes = [256]uint32{
	0, 1, 2, 3, 4, 4, 5, 5, 6, 6, 6, 6, 7, 7, 7, 7,
	8, 8, 8, 8, 8, 8, 8, 8, 9, 9, 9, 9, 9, 9, 9, 9,
	10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10,
	11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11,
	12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12,
	12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14,
	14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14,
	14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14,
	14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14,
	15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15,
	15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15,
	15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15,
	15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15,
}

var offsetExtraBits = [32]int8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3,
	4, 4, 5, 5, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
	/* extended window */
	14, 14,
}

var offsetBase = [32]uint32{
	0x000000, 0x000001, 0x000002, 0x000003, 0x000004,
	0x000006, 0x000008, 0x00000c, 0x000010, 0x000018,
	0x000020, 0x000030, 0x000040, 0x000060, 0x000080,
	0x0000c0, 0x000100, 0x000180, 0x000200, 0x000300,
	0x000400, 0x000600, 0x000800, 0x000c00, 0x001000,
	0x001800, 0x002000, 0x003000, 0x004000, 0x006000,
}

// lengthCode returns the literal/length symbol, extra-bit count, and
// extra-bits value for a match length (3..258).
func lengthCode(length uint32) (code uint32, extraBits int, extra uint32) {
	i := length - minMatchLength
	code = uint32(lengthCodes[i]) + 257
	extraBits = int(lengthExtraBits[code-257])
	extra = i - lengthBase[code-257]
	return
}

// distanceCode returns the distance symbol, extra-bit count, and extra-bits
// value for a match distance (1..32768), per the three-range table in
// RFC 1951 section 3.2.5.
func distanceCode(dist uint32) (code uint32, extraBits int, extra uint32) {
	d := dist - baseMatchOffset
	switch {
	case d < uint32(len(offsetCodes)):
		code = offsetCodes[d]
	case d>>7 < uint32(len(offsetCodes)):
		code = offsetCodes[d>>7] + 14
	default:
		code = offsetCodes[d>>14] + 28
	}
	extraBits = int(offsetExtraBits[code])
	extra = d - offsetBase[code]
	return
}
