package token

import "testing"

func tok(t *testing.T, s *Scanner) Token { t.Helper(); return s.NextToken() }

func TestScanNumbers(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
		val  string
	}{
		{"12", Integer, "12"},
		{"+12", Integer, "12"},
		{"-12", Integer, "-12"},
		{"--5", Integer, "5"},
		{"---5", Integer, "-5"},
		{"3.14", Real, "3.14"},
		{".5", Real, ".5"},
		{"-.5", Real, "-.5"},
	}
	for _, c := range cases {
		s := New([]byte(c.in))
		got := tok(t, s)
		if got.Kind != c.kind || string(got.Value) != c.val {
			t.Errorf("scan(%q) = %s %q, want %s %q", c.in, got.Kind, got.Value, c.kind, c.val)
		}
	}
}

func TestScanName(t *testing.T) {
	s := New([]byte("/Name#20With#2FEscapes"))
	got := tok(t, s)
	if got.Kind != Name || string(got.Value) != "Name With/Escapes" {
		t.Fatalf("got %v", got)
	}
}

func TestScanLiteralString(t *testing.T) {
	s := New([]byte("(abc \\n \\(nested\\) \\101 line\\\ncont)"))
	got := tok(t, s)
	want := "abc \n (nested) A linecont"
	if got.Kind != StringLiteral || string(got.Value) != want {
		t.Fatalf("got kind=%v value=%q, want %q", got.Kind, got.Value, want)
	}
}

func TestScanHexStringOddDigits(t *testing.T) {
	s := New([]byte("<48656C6C6F2>"))
	got := tok(t, s)
	if got.Kind != StringHex {
		t.Fatalf("kind = %v", got.Kind)
	}
	if string(got.Value) != "Hello\x20" {
		t.Fatalf("got %q", got.Value)
	}
}

func TestLookahead(t *testing.T) {
	s := New([]byte("12 0 R"))
	if p := s.PeekToken(); string(p.Value) != "12" {
		t.Fatalf("peek1 = %q", p.Value)
	}
	if p := s.PeekPeekToken(); string(p.Value) != "0" {
		t.Fatalf("peek2 = %q", p.Value)
	}
	// peeking twice must not advance past the lookahead buffer
	if p := s.PeekToken(); string(p.Value) != "12" {
		t.Fatalf("peek1 again = %q", p.Value)
	}
	first := s.NextToken()
	second := s.NextToken()
	third := s.NextToken()
	if string(first.Value) != "12" || string(second.Value) != "0" || string(third.Value) != "R" {
		t.Fatalf("got %v %v %v", first, second, third)
	}
}

func TestDictDelimiters(t *testing.T) {
	s := New([]byte("<< /A [1 2] >>"))
	kinds := []Kind{DictStart, Name, ArrayStart, Integer, Integer, ArrayEnd, DictEnd, EOF}
	for i, k := range kinds {
		got := s.NextToken()
		if got.Kind != k {
			t.Fatalf("token %d: got %v, want %v", i, got.Kind, k)
		}
	}
}

func TestStreamPartialShift(t *testing.T) {
	s := New([]byte("stream\r\nBINARYDATA"))
	got := s.NextToken()
	if got.Kind != Keyword || string(got.Value) != "stream" {
		t.Fatalf("got %v", got)
	}
	if !s.partialShift {
		t.Fatal("expected partialShift after 'stream' keyword")
	}
	s.ConsumeStreamEOL()
	payload := s.SkipBytes(10)
	if string(payload) != "BINARYDATA" {
		t.Fatalf("payload = %q", payload)
	}
}
