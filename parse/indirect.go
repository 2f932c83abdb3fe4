package parse

import (
	"github.com/arnovale/pdfcore/object"
	"github.com/arnovale/pdfcore/token"
)

// LengthResolver resolves a /Length value that may itself be an
// indirect reference, returning the decoded stream length in bytes.
// Kept as a callback rather than a concrete registry dependency so
// this package never imports the registry (which itself depends on
// parse for recovery), avoiding an import cycle.
type LengthResolver func(object.Object) (int64, bool)

// IndirectObject is one "N G obj ... endobj" unit read from a file
// body.
type IndirectObject struct {
	Num   uint32
	Gen   uint16
	Value object.Object
}

// ParseIndirectObject reads one indirect object starting at the
// scanner's current position: "N G obj", the direct object (possibly a
// stream with a following binary payload), and the closing "endobj"
// keyword, tolerated even if missing in Lenient mode.
func ParseIndirectObject(sc *token.Scanner, mode Mode, resolveLength LengthResolver) (IndirectObject, error) {
	numTok := sc.NextToken()
	genTok := sc.NextToken()
	objTok := sc.NextToken()
	if numTok.Kind != token.Integer || genTok.Kind != token.Integer ||
		objTok.Kind != token.Keyword || string(objTok.Value) != "obj" {
		return IndirectObject{}, &ErrObjectParse{Pos: numTok.Pos, Msg: "malformed indirect object header"}
	}

	p := New(sc, mode)
	val, err := p.ParseObject()
	if err != nil {
		return IndirectObject{}, err
	}

	if st, ok := val.(object.Stream); ok {
		raw, err := readStreamBody(sc, st.Dict, resolveLength)
		if err != nil {
			return IndirectObject{}, err
		}
		st.Raw = raw
		val = st
	}

	end := sc.PeekToken()
	if end.Kind == token.Keyword && string(end.Value) == "endobj" {
		sc.NextToken()
	} else if mode != Lenient {
		return IndirectObject{}, &ErrObjectParse{Pos: end.Pos, Msg: "missing endobj"}
	}

	return IndirectObject{
		Num:   uint32(parseFloat(numTok.Value)),
		Gen:   uint16(parseFloat(genTok.Value)),
		Value: val,
	}, nil
}

// readStreamBody reads the binary payload following "stream\r\n" (or
// "stream\n"), up to the length given by /Length, falling back to a
// scan for the literal "endstream" keyword when /Length is missing,
// unresolvable, or inconsistent with the actual bytes on disk — all
// conditions real-world generators routinely produce.
func readStreamBody(sc *token.Scanner, dict object.Dict, resolveLength LengthResolver) ([]byte, error) {
	lengthObj, hasLength := dict.Get("Length")
	var length int64 = -1
	if hasLength {
		if n, ok := lengthObj.(object.Number); ok {
			length = n.Int64()
		} else if resolveLength != nil {
			if n, ok := resolveLength(lengthObj); ok {
				length = n
			}
		}
	}

	data := sc.Bytes()
	start := sc.Pos()

	if length >= 0 && int(start)+int(length) <= len(data) {
		candidate := data[start : start+int(length)]
		rest := data[start+int(length):]
		if looksLikeEndstream(rest) {
			sc.Seek(start + int(length))
			skipEndstreamMarker(sc)
			return candidate, nil
		}
	}

	// Fall back to scanning for "endstream".
	idx := indexOf(data[start:], []byte("endstream"))
	if idx < 0 {
		return nil, &ErrObjectParse{Pos: start, Msg: "stream has no matching endstream"}
	}
	end := start + idx
	// Trim a single trailing EOL that precedes "endstream", which is
	// not part of the stream's data.
	trimmed := end
	if trimmed > start && data[trimmed-1] == '\n' {
		trimmed--
		if trimmed > start && data[trimmed-1] == '\r' {
			trimmed--
		}
	} else if trimmed > start && data[trimmed-1] == '\r' {
		trimmed--
	}
	sc.Seek(end)
	skipEndstreamMarker(sc)
	return data[start:trimmed], nil
}

func looksLikeEndstream(rest []byte) bool {
	i := 0
	for i < len(rest) && (rest[i] == '\r' || rest[i] == '\n' || rest[i] == ' ') {
		i++
	}
	return len(rest) >= i+9 && string(rest[i:i+9]) == "endstream"
}

func skipEndstreamMarker(sc *token.Scanner) {
	t := sc.NextToken()
	if t.Kind != token.Keyword || string(t.Value) != "endstream" {
		// Already consumed something else; nothing more we can do
		// here, the caller's own endobj check will surface the error.
		_ = t
	}
}

func indexOf(haystack, needle []byte) int {
	n, m := len(haystack), len(needle)
	if m == 0 {
		return 0
	}
	for i := 0; i+m <= n; i++ {
		if string(haystack[i:i+m]) == string(needle) {
			return i
		}
	}
	return -1
}

// ParseHeader parses just the "N G obj" header at the scanner's
// current position without consuming the object body, used by the
// cross-reference and brute-force scanners to validate an offset
// before committing to a full parse.
func ParseHeader(sc *token.Scanner) (num uint32, gen uint16, ok bool) {
	numTok := sc.NextToken()
	genTok := sc.NextToken()
	objTok := sc.NextToken()
	if numTok.Kind != token.Integer || genTok.Kind != token.Integer ||
		objTok.Kind != token.Keyword || string(objTok.Value) != "obj" {
		return 0, 0, false
	}
	return uint32(parseFloat(numTok.Value)), uint16(parseFloat(genTok.Value)), true
}
