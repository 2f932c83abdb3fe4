package xref

import (
	"fmt"
	"testing"

	"github.com/arnovale/pdfcore/token"
)

func TestParseStreamDecodesFixedWidthRecords(t *testing.T) {
	// W [1 2 1], Index [3 2], two type-1 records: offset 100 gen 0, offset 200 gen 0.
	payload := []byte{0x01, 0x00, 0x64, 0x00, 0x01, 0x00, 0xC8, 0x00}
	body := "1 0 obj\n<< /Type /XRef /W [1 2 1] /Index [3 2] /Size 5 /Length " +
		fmt.Sprintf("%d", len(payload)) + " >>\nstream\n" + string(payload) + "\nendstream\nendobj\n"

	sc := token.New([]byte(body))
	sec, err := parseStream(sc, nil)
	if err != nil {
		t.Fatalf("parseStream: %v", err)
	}
	e3, ok := sec.Entries[3]
	if !ok || e3.Kind != InUse || e3.Offset != 100 || e3.Gen != 0 {
		t.Errorf("entry 3 = %+v", e3)
	}
	e4, ok := sec.Entries[4]
	if !ok || e4.Kind != InUse || e4.Offset != 200 || e4.Gen != 0 {
		t.Errorf("entry 4 = %+v", e4)
	}
}

func TestBuildParsesTraditionalTable(t *testing.T) {
	data := []byte("%PDF-1.4\n" +
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n" +
		"xref\n0 2\r\n0000000000 65535 f\r\n0000000009 00000 n\r\n" +
		"trailer\n<< /Root 1 0 R /Size 2 >>\nstartxref\n58\n%%EOF\n")
	startOffset, err := ParseStartXRef(data)
	if err != nil {
		t.Fatalf("ParseStartXRef: %v", err)
	}
	table, err := Build(data, startOffset)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	e, ok := table.Entries[1]
	if !ok || e.Kind != InUse {
		t.Errorf("entry 1 = %+v", e)
	}
	if table.Trailer.Root == nil || table.Trailer.Root.Num != 1 {
		t.Errorf("trailer root = %+v", table.Trailer.Root)
	}
}

func TestNoTrailerDictIsError(t *testing.T) {
	_, err := parseStream(token.New([]byte("not a stream at all")), nil)
	if err == nil {
		t.Fatal("expected an error parsing garbage as an xref stream")
	}
}
