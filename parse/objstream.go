package parse

import (
	"bytes"

	"github.com/arnovale/pdfcore/object"
	"github.com/arnovale/pdfcore/token"
)

// ObjectStreamEntry is one compressed object held inside an ObjStm.
type ObjectStreamEntry struct {
	Num   uint32
	Value object.Object
}

// ParseObjectStream decodes the already-filter-decoded content of an
// ObjStm: a prolog of N pairs "objNum offset" (whitespace or NUL
// separated, both seen in the wild), followed at byte First by the
// concatenated bodies of the N objects in the same order.
func ParseObjectStream(content []byte, n, first int) ([]ObjectStreamEntry, error) {
	if first < 0 || first > len(content) {
		return nil, &ErrObjectParse{Msg: "object stream /First out of range"}
	}
	prolog := bytes.ReplaceAll(content[:first], []byte{0x00}, []byte{' '})
	sc := token.New(prolog)

	type pair struct {
		num    uint32
		offset int
	}
	pairs := make([]pair, 0, n)
	for i := 0; i < n; i++ {
		numTok := sc.NextToken()
		offTok := sc.NextToken()
		if numTok.Kind != token.Integer || offTok.Kind != token.Integer {
			return nil, &ErrObjectParse{Msg: "malformed object stream index"}
		}
		pairs = append(pairs, pair{
			num:    uint32(parseFloat(numTok.Value)),
			offset: int(parseFloat(offTok.Value)),
		})
	}

	out := make([]ObjectStreamEntry, 0, len(pairs))
	for i, p := range pairs {
		start := first + p.offset
		if start < 0 || start > len(content) {
			return nil, &ErrObjectParse{Msg: "object stream entry offset out of range"}
		}
		end := len(content)
		if i+1 < len(pairs) {
			nextStart := first + pairs[i+1].offset
			if nextStart >= start && nextStart <= len(content) {
				end = nextStart
			}
		}
		body := content[start:end]
		val, err := NewFromBytes(body, Lenient).ParseObject()
		if err != nil {
			return nil, err
		}
		out = append(out, ObjectStreamEntry{Num: p.num, Value: val})
	}
	return out, nil
}
