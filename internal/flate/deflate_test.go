package flate

import (
	"bytes"
	goflate "compress/flate"
	"io"
	"math/rand/v2"
	"strings"
	"testing"
	"unsafe"
)

// roundTrip compresses b at the given level and decompresses it with the
// standard library's own flate reader, used throughout this file as an
// independent oracle for correctness (spec §8's round-trip property).
func roundTrip(t *testing.T, b []byte, level Level) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf, level)
	if _, err := w.Write(b); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	r := goflate.NewReader(&buf)
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	return got
}

func TestRoundTripBoundaries(t *testing.T) {
	cases := map[string][]byte{
		"empty":            {},
		"single byte":      {'x'},
		"exact window":     bytes.Repeat([]byte{'a', 'b'}, windowSize/2),
		"window plus one":  append(bytes.Repeat([]byte{'a', 'b'}, windowSize/2), 'c'),
		"cross block":      bytes.Repeat([]byte("0123456789"), 10000),
		"highly repetitive": bytes.Repeat([]byte{0x42}, 100000),
		"text":             []byte(strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200)),
	}
	for name, in := range cases {
		for _, level := range []Level{Fast, Default, Best} {
			t.Run(name, func(t *testing.T) {
				got := roundTrip(t, in, level)
				if !bytes.Equal(got, in) {
					t.Fatalf("level %d: round-trip mismatch: got %d bytes, want %d", level, len(got), len(in))
				}
			})
		}
	}
}

func TestRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	buf := make([]byte, 50000)
	for i := range buf {
		buf[i] = byte(rng.IntN(256))
	}
	got := roundTrip(t, buf, Default)
	if !bytes.Equal(got, buf) {
		t.Fatal("round-trip mismatch on random input")
	}
}

func TestBestBeatsFast(t *testing.T) {
	phrase := []byte(strings.Repeat("The quick brown fox jumps over the lazy dog.", 3))

	sizeAt := func(level Level) int {
		var buf bytes.Buffer
		w := NewWriter(&buf, level)
		w.Write(phrase)
		w.Close()
		return buf.Len()
	}

	fast := sizeAt(Fast)
	best := sizeAt(Best)
	if best > fast {
		t.Fatalf("best (%d bytes) should not exceed fast (%d bytes)", best, fast)
	}

	got := roundTrip(t, phrase, Best)
	if !bytes.Equal(got, phrase) {
		t.Fatal("best-level round trip mismatch")
	}
}

func TestHighlyRepetitiveIsSmall(t *testing.T) {
	in := bytes.Repeat([]byte{0x41}, 100000)
	var buf bytes.Buffer
	w := NewWriter(&buf, Default)
	w.Write(in)
	w.Close()
	if buf.Len() > 200 {
		t.Fatalf("expected <=200 bytes for 100000 identical bytes, got %d", buf.Len())
	}
	got := roundTrip(t, in, Default)
	if !bytes.Equal(got, in) {
		t.Fatal("round-trip mismatch")
	}
}

func TestFlushIsIndependentlyDecodable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Default)
	w.Write([]byte("first chunk of data"))
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	flushed := append([]byte(nil), buf.Bytes()...)

	// The flushed prefix has no final block yet, so the reader ends with
	// io.ErrUnexpectedEOF after returning everything written so far.
	r := goflate.NewReader(bytes.NewReader(flushed))
	got, err := io.ReadAll(r)
	if err != nil && err != io.ErrUnexpectedEOF {
		t.Fatalf("decompress after flush: %v", err)
	}
	if string(got) != "first chunk of data" {
		t.Fatalf("got %q", got)
	}

	w.Write([]byte(" and second chunk"))
	w.Close()
	full, err := io.ReadAll(goflate.NewReader(bytes.NewReader(buf.Bytes())))
	if err != nil {
		t.Fatalf("decompress full stream: %v", err)
	}
	if string(full) != "first chunk of data and second chunk" {
		t.Fatalf("got %q", full)
	}
}

func TestTokenLengthDistanceEncoding(t *testing.T) {
	code, extraBits, extra := lengthCode(4)
	if code != 258 || extraBits != 0 || extra != 0 {
		t.Errorf("length 4: got code=%d extraBits=%d extra=%d", code, extraBits, extra)
	}
	code, extraBits, extra = lengthCode(11)
	if code != 265 || extraBits != 1 || extra != 0 {
		t.Errorf("length 11: got code=%d extraBits=%d extra=%d", code, extraBits, extra)
	}
	code, extraBits, extra = distanceCode(192)
	if code != 14 || extraBits != 6 || extra != 63 {
		t.Errorf("distance 192: got code=%d extraBits=%d extra=%d", code, extraBits, extra)
	}
}

func TestFixedTableSpotChecks(t *testing.T) {
	if fixedLiteralTable[0].len != 8 || fixedLiteralTable[0].code != reverseBits(48, 8) {
		t.Errorf("symbol 0: got len=%d code=%d", fixedLiteralTable[0].len, fixedLiteralTable[0].code)
	}
	if fixedLiteralTable[256].len != 7 || fixedLiteralTable[256].code != reverseBits(0, 7) {
		t.Errorf("symbol 256: got len=%d code=%d", fixedLiteralTable[256].len, fixedLiteralTable[256].code)
	}
}

func TestTokenSize(t *testing.T) {
	if unsafe.Sizeof(token(0)) != 4 {
		t.Fatalf("token must be 4 bytes, got %d", unsafe.Sizeof(token(0)))
	}
}
