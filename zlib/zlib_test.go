package zlib

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"

	"github.com/elliotnunn/godeflate/internal/flate"
)

func TestHeaderIsDefaultFlevel(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if _, err := w.Write([]byte("abc")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	got := buf.Bytes()[:2]
	want := []byte{0x78, 0x9c}
	if !bytes.Equal(got, want) {
		t.Fatalf("header: got % x want % x", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	in := bytes.Repeat([]byte("zlib container round trip payload "), 5000)
	var buf bytes.Buffer
	w := NewWriterLevel(&buf, flate.Best)
	if _, err := w.Write(in); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	r, err := zlib.NewReader(&buf)
	if err != nil {
		t.Fatalf("zlib.NewReader: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, in) {
		t.Fatal("round-trip mismatch")
	}
}
