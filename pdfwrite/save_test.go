package pdfwrite

import (
	"bytes"
	"strings"
	"testing"

	"github.com/arnovale/pdfcore/object"
)

type fakeSource struct {
	objs map[uint32]object.Object
	all  []uint32
	gens map[uint32]uint16
}

func (f fakeSource) GetObject(num uint32) (object.Object, error) { return f.objs[num], nil }
func (f fakeSource) AllObjects() []uint32                        { return f.all }
func (f fakeSource) DirtyObjects() []uint32                      { return f.all }
func (f fakeSource) ObjectGeneration(num uint32) uint16          { return f.gens[num] }

func TestFormatNumber(t *testing.T) {
	cases := map[object.Number]string{
		object.Int(12):        "12",
		object.Float(0):       "0",
		object.Float(3.5):     "3.5",
		object.Float(1.0 / 3): "0.33333",
	}
	for n, want := range cases {
		if got := FormatNumber(n); got != want {
			t.Errorf("FormatNumber(%v) = %q, want %q", n, got, want)
		}
	}
}

func TestByteWriterGrows(t *testing.T) {
	w := NewByteWriter(1)
	for i := 0; i < 1000; i++ {
		w.WriteByte('x')
	}
	if w.Len() != 1000 {
		t.Fatalf("len = %d", w.Len())
	}
}

func TestByteWriterMaxSize(t *testing.T) {
	w := NewByteWriter(0)
	w.MaxSize = 4
	if _, err := w.Write([]byte("abcd")); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("e")); err != ErrMaxSizeExceeded {
		t.Fatalf("got %v", err)
	}
}

func TestCompleteSaveRoundTripStructure(t *testing.T) {
	src := fakeSource{
		objs: map[uint32]object.Object{
			1: object.NewDict(
				object.DictEntry{Key: "Type", Value: object.Name("Catalog")},
				object.DictEntry{Key: "Pages", Value: object.Ref{Num: 2}},
			),
			2: object.NewDict(
				object.DictEntry{Key: "Type", Value: object.Name("Pages")},
				object.DictEntry{Key: "Count", Value: object.Int(0)},
			),
		},
		all: []uint32{1, 2},
	}
	out, err := CompleteSave(src, CompleteSaveOptions{Root: object.Ref{Num: 1}})
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.HasPrefix(s, "%PDF-1.7\n") {
		t.Fatalf("missing header: %q", s[:20])
	}
	if !strings.Contains(s, "1 0 obj") || !strings.Contains(s, "2 0 obj") {
		t.Fatalf("missing objects:\n%s", s)
	}
	if !strings.Contains(s, "trailer") || !strings.HasSuffix(strings.TrimRight(s, "\n"), "%%EOF") {
		t.Fatalf("missing trailer/EOF:\n%s", s)
	}
}

func TestIncrementalSavePreservesPrefix(t *testing.T) {
	original := []byte("%PDF-1.7\n1 0 obj\n<< >>\nendobj\nxref\n0 2\n0000000000 65535 f \n0000000009 00000 n \ntrailer\n<< /Size 2 /Root 1 0 R >>\nstartxref\n31\n%%EOF\n")
	src := fakeSource{
		objs: map[uint32]object.Object{2: object.Int(42)},
		all:  []uint32{2},
	}
	out, err := IncrementalSave(original, src, IncrementalSaveOptions{Root: object.Ref{Num: 1}, PrevXRef: 31})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out, original) {
		t.Fatalf("prefix not preserved")
	}
	if err := VerifyIncrementalSave(original, out); err != nil {
		t.Fatalf("VerifyIncrementalSave: %v", err)
	}
}
