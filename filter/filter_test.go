package filter

import (
	"bytes"
	"testing"
)

func TestASCIIHexRoundTrip(t *testing.T) {
	in := []byte("Hello, PDF!")
	enc := encodeASCIIHex(in)
	dec, err := decodeASCIIHex(enc)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dec, in) {
		t.Fatalf("got %q, want %q", dec, in)
	}
}

func TestASCII85RoundTrip(t *testing.T) {
	in := []byte("the quick brown fox jumps over the lazy dog 0123")
	enc := encodeASCII85(in)
	dec, err := decodeASCII85(enc)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dec, in) {
		t.Fatalf("got %q, want %q", dec, in)
	}
}

func TestRunLengthRoundTrip(t *testing.T) {
	in := bytes.Repeat([]byte("AB"), 300)
	enc := encodeRunLength(in)
	dec, err := decodeRunLength(enc)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dec, in) {
		t.Fatalf("mismatch: got %d bytes, want %d", len(dec), len(in))
	}
}

func TestRunLengthRepeatRun(t *testing.T) {
	// 10 repeats of 'Z': length byte = 257-10 = 247
	enc := []byte{247, 'Z', 128}
	dec, err := decodeRunLength(enc)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dec, bytes.Repeat([]byte("Z"), 10)) {
		t.Fatalf("got %q", dec)
	}
}

func TestFlateRoundTrip(t *testing.T) {
	in := []byte("some content to compress, with enough repetition to compress well well well")
	enc, err := encodeFlate(in)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := decodeFlate(enc, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dec, in) {
		t.Fatalf("got %q", dec)
	}
}

func TestPNGUpPredictor(t *testing.T) {
	pp := predictorParams{predictor: 15, colors: 1, bpc: 8, columns: 4}
	row1 := append([]byte{pngNone}, []byte{1, 2, 3, 4}...)
	row2 := append([]byte{pngUp}, []byte{1, 1, 1, 1}...)
	raw := append(append([]byte{}, row1...), row2...)
	decoded, err := applyPNGPredictorDecode(raw, pp)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 2, 3, 4, 2, 3, 4, 5}
	if !bytes.Equal(decoded, want) {
		t.Fatalf("got %v, want %v", decoded, want)
	}
}
