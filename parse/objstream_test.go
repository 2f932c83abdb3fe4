package parse

import (
	"testing"

	"github.com/arnovale/pdfcore/object"
)

func TestParseObjectStreamCompressedLookup(t *testing.T) {
	// prolog "5 0 8 3 " (8 bytes) then bodies "42" and "(hi)" back to back.
	content := []byte("5 0 8 3 42\n(hi)")
	entries, err := ParseObjectStream(content, 2, 8)
	if err != nil {
		t.Fatalf("ParseObjectStream: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Num != 5 {
		t.Errorf("entries[0].Num = %d, want 5", entries[0].Num)
	}
	n, ok := entries[0].Value.(object.Number)
	if !ok || n.Int64() != 42 {
		t.Errorf("entries[0].Value = %#v, want Number(42)", entries[0].Value)
	}

	if entries[1].Num != 8 {
		t.Errorf("entries[1].Num = %d, want 8", entries[1].Num)
	}
	s, ok := entries[1].Value.(object.String)
	if !ok || string(s.Bytes) != "hi" || s.Format != object.Literal {
		t.Errorf("entries[1].Value = %#v, want literal String(\"hi\")", entries[1].Value)
	}
}
