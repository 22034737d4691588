package flate

import (
	"math/rand/v2"
	"testing"
)

func TestBuildHuffmanRespectsMaxLen(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	freq := make([]int32, 286)
	for i := range freq {
		if rng.IntN(4) != 0 {
			freq[i] = int32(rng.IntN(1000) + 1)
		}
	}
	table := buildHuffman(freq, maxBitLength)
	for i, c := range table {
		if freq[i] == 0 {
			if c.len != 0 {
				t.Errorf("symbol %d: zero-freq symbol got nonzero length %d", i, c.len)
			}
			continue
		}
		if c.len == 0 || int(c.len) > maxBitLength {
			t.Errorf("symbol %d: length %d out of range", i, c.len)
		}
		if c.code >= 1<<c.len {
			t.Errorf("symbol %d: code %d does not fit in %d bits", i, c.code, c.len)
		}
	}

	got := table.bitLength(freq)
	var want int64
	for i, f := range freq {
		want += int64(f) * int64(table[i].len)
	}
	if got != want {
		t.Errorf("bitLength: got %d want %d", got, want)
	}
}

func TestBuildHuffmanSmallAlphabets(t *testing.T) {
	if tbl := buildHuffman([]int32{0, 0, 0}, maxBitLength); tbl[0].len != 0 {
		t.Fatal("all-zero frequency should produce no codes")
	}

	tbl := buildHuffman([]int32{5, 0, 0}, maxBitLength)
	if tbl[0].len != 1 {
		t.Fatalf("single symbol should get length 1, got %d", tbl[0].len)
	}

	tbl = buildHuffman([]int32{5, 0, 3}, maxBitLength)
	if tbl[0].len != 1 || tbl[2].len != 1 {
		t.Fatalf("two symbols should each get length 1, got %d and %d", tbl[0].len, tbl[2].len)
	}
}

func TestCanonicalCodesAreConsecutiveWithinLength(t *testing.T) {
	freq := []int32{1, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89}
	table := buildHuffman(freq, maxBitLength)

	byLen := map[uint8][]uint16{}
	for i, c := range table {
		if c.len == 0 {
			continue
		}
		byLen[c.len] = append(byLen[c.len], reverseBits(c.code, c.len))
		_ = i
	}
	for length, codes := range byLen {
		sorted := append([]uint16(nil), codes...)
		for i := 1; i < len(sorted); i++ {
			if sorted[i] < sorted[i-1] {
				sorted[i], sorted[i-1] = sorted[i-1], sorted[i]
			}
		}
		for i := 1; i < len(sorted); i++ {
			if sorted[i] != sorted[i-1]+1 {
				t.Errorf("length %d: codes not consecutive: %v", length, sorted)
				break
			}
		}
	}
}

func TestReverseBitsRoundTrips(t *testing.T) {
	for _, width := range []uint8{1, 3, 7, 8, 9, 15} {
		for v := uint16(0); v < 1<<width && v < 64; v++ {
			back := reverseBits(reverseBits(v, width), width)
			if back != v {
				t.Errorf("width %d: reverseBits not involutive for %d: got %d", width, v, back)
			}
		}
	}
}
