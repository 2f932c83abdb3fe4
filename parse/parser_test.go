package parse

import (
	"reflect"
	"testing"

	"github.com/arnovale/pdfcore/object"
	"github.com/arnovale/pdfcore/token"
)

func mustParse(t *testing.T, s string) object.Object {
	t.Helper()
	o, err := NewFromBytes([]byte(s), Strict).ParseObject()
	if err != nil {
		t.Fatalf("ParseObject(%q): %v", s, err)
	}
	return o
}

func TestParseScalars(t *testing.T) {
	if got := mustParse(t, "12"); got != object.Int(12) {
		t.Errorf("got %v", got)
	}
	if got := mustParse(t, "12 0 R"); got != (object.Ref{Num: 12, Gen: 0}) {
		t.Errorf("got %v", got)
	}
	if got := mustParse(t, "true"); got != object.Bool(true) {
		t.Errorf("got %v", got)
	}
	if got := mustParse(t, "null"); got != (object.Null{}) {
		t.Errorf("got %v", got)
	}
}

func TestParseArrayAndDict(t *testing.T) {
	got := mustParse(t, "[1 2 (hi) /Foo]")
	want := object.Array{object.Int(1), object.Int(2), object.NewLiteralString([]byte("hi")), object.Name("Foo")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}

	got = mustParse(t, "<< /Type /Catalog /Count 3 >>")
	want2 := object.NewDict(
		object.DictEntry{Key: "Type", Value: object.Name("Catalog")},
		object.DictEntry{Key: "Count", Value: object.Int(3)},
	)
	if !reflect.DeepEqual(got, want2) {
		t.Fatalf("got %#v, want %#v", got, want2)
	}
}

func TestParseNestedRefDisambiguation(t *testing.T) {
	// "1 2" not followed by "R" must stay two bare integers inside the array.
	got := mustParse(t, "[1 2]")
	want := object.Array{object.Int(1), object.Int(2)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v", got)
	}
}

func TestParseIndirectObjectWithStream(t *testing.T) {
	data := []byte("7 0 obj\n<< /Length 5 >>\nstream\nhello\nendstream\nendobj\n")
	sc := token.New(data)
	io, err := ParseIndirectObject(sc, Strict, nil)
	if err != nil {
		t.Fatal(err)
	}
	if io.Num != 7 || io.Gen != 0 {
		t.Fatalf("got num=%d gen=%d", io.Num, io.Gen)
	}
	st, ok := io.Value.(object.Stream)
	if !ok {
		t.Fatalf("got %T", io.Value)
	}
	if string(st.Raw) != "hello" {
		t.Fatalf("raw = %q", st.Raw)
	}
}

func TestMaxDepthExceeded(t *testing.T) {
	data := make([]byte, 0, 4*(MaxDepth+10))
	for i := 0; i < MaxDepth+10; i++ {
		data = append(data, '['...)
	}
	_, err := NewFromBytes(data, Strict).ParseObject()
	if _, ok := err.(ErrMaxDepthExceeded); !ok {
		t.Fatalf("got %v, want ErrMaxDepthExceeded", err)
	}
}

func TestBruteForceRecoverLaterWins(t *testing.T) {
	data := []byte("1 0 obj\n<< >>\nendobj\ngarbage garbage\n1 0 obj\n<< /X 1 >>\nendobj\n2 0 obj\nnull\nendobj\n")
	got := BruteForceRecover(data)
	if len(got) != 2 {
		t.Fatalf("got %d objects, want 2", len(got))
	}
	// first entry for object 1 should be the *later* occurrence.
	var obj1Offset int
	for _, r := range got {
		if r.Num == 1 {
			obj1Offset = r.Offset
		}
	}
	secondOccurrence := indexOf(data[10:], []byte("1 0 obj")) + 10
	if obj1Offset != secondOccurrence {
		t.Fatalf("obj1Offset = %d, want %d", obj1Offset, secondOccurrence)
	}
}
