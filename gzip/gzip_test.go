package gzip

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"github.com/elliotnunn/godeflate/internal/flate"
)

func TestHelloWorldScenario(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriterLevel(&buf, flate.Default)
	if _, err := w.Write([]byte("Hello, World!")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	out := buf.Bytes()
	if !bytes.Equal(out[:10], header[:]) {
		t.Fatalf("header mismatch: got % x", out[:10])
	}
	if len(out) > 40 {
		t.Fatalf("expected <=40 bytes, got %d", len(out))
	}

	crc := out[len(out)-8 : len(out)-4]
	const want = 0xEC4AC3D0
	got := uint32(crc[0]) | uint32(crc[1])<<8 | uint32(crc[2])<<16 | uint32(crc[3])<<24
	if got != want {
		t.Fatalf("CRC-32 mismatch: got %#x want %#x", got, want)
	}

	r, err := gzip.NewReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(decoded) != "Hello, World!" {
		t.Fatalf("got %q", decoded)
	}
}

func TestEmptyInput(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if buf.Len() != 20 {
		t.Fatalf("expected exactly 20 bytes for empty input, got %d", buf.Len())
	}
	r, err := gzip.NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected 0 bytes, got %d", len(got))
	}
}

func TestLargeInputRoundTrip(t *testing.T) {
	in := bytes.Repeat([]byte("gzip container round trip payload "), 5000)
	var buf bytes.Buffer
	w := NewWriterLevel(&buf, flate.Best)
	if _, err := w.Write(in); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	r, err := gzip.NewReader(&buf)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, in) {
		t.Fatal("round-trip mismatch")
	}
}
