package registry

import (
	"testing"

	"github.com/arnovale/pdfcore/object"
	"github.com/arnovale/pdfcore/xref"
)

func TestResolveDirectObject(t *testing.T) {
	data := []byte("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	table := xref.Table{Entries: map[uint32]xref.Entry{
		1: {Kind: xref.InUse, Offset: 0},
	}}
	r := New(data, table, nil)

	o, err := r.GetObject(1)
	if err != nil {
		t.Fatal(err)
	}
	d, ok := o.(object.Dict)
	if !ok {
		t.Fatalf("got %T", o)
	}
	if n, _ := d.GetName("Type"); n != "Catalog" {
		t.Fatalf("Type = %v", n)
	}
}

func TestDanglingReferenceResolvesToNull(t *testing.T) {
	r := New(nil, xref.Table{Entries: map[uint32]xref.Entry{}}, nil)
	o, err := r.Resolve(object.Ref{Num: 99})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := o.(object.Null); !ok {
		t.Fatalf("got %T, want Null", o)
	}
}

func TestRegisterAllocatesFreshNumbers(t *testing.T) {
	table := xref.Table{Entries: map[uint32]xref.Entry{5: {Kind: xref.InUse}}}
	r := New(nil, table, nil)
	ref := r.Register(object.Int(42))
	if ref.Num != 6 {
		t.Fatalf("got object number %d, want 6", ref.Num)
	}
	if !r.IsNew(ref.Num) || !r.IsDirty(ref.Num) {
		t.Fatal("new object should be new and dirty")
	}
	v, err := r.GetObject(ref.Num)
	if err != nil {
		t.Fatal(err)
	}
	if v != object.Int(42) {
		t.Fatalf("got %v", v)
	}
}
