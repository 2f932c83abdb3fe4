package xref

import (
	"fmt"

	"github.com/arnovale/pdfcore/object"
	"github.com/arnovale/pdfcore/parse"
	"github.com/arnovale/pdfcore/token"
)

// parseTable parses a traditional "xref ... trailer << ... >>" section
// starting at the "xref" keyword.
func parseTable(sc *token.Scanner) (section, error) {
	kw := sc.NextToken()
	if kw.Kind != token.Keyword || string(kw.Value) != "xref" {
		return section{}, fmt.Errorf("xref: expected 'xref' keyword")
	}

	entries := map[uint32]Entry{}
	for {
		t := sc.PeekToken()
		if t.Kind == token.Keyword && string(t.Value) == "trailer" {
			sc.NextToken()
			break
		}
		if t.Kind != token.Integer {
			break
		}
		startTok := sc.NextToken()
		countTok := sc.NextToken()
		if startTok.Kind != token.Integer || countTok.Kind != token.Integer {
			return section{}, fmt.Errorf("xref: malformed subsection header")
		}
		start := toUint32(startTok.Value)
		count := toUint32(countTok.Value)
		for i := uint32(0); i < count; i++ {
			offTok := sc.NextToken()
			genTok := sc.NextToken()
			typeTok := sc.NextToken()
			if offTok.Kind != token.Integer || genTok.Kind != token.Integer {
				return section{}, fmt.Errorf("xref: malformed entry")
			}
			num := start + i
			if _, exists := entries[num]; exists {
				continue // first occurrence within this subsection wins
			}
			typ := string(typeTok.Value)
			e := Entry{Gen: uint16(toUint32(genTok.Value))}
			if typ == "f" {
				e.Kind = Free
			} else {
				e.Kind = InUse
				e.Offset = int64(toUint32(offTok.Value))
			}
			entries[num] = e
		}
	}

	trailerDictTok := sc.PeekToken()
	if trailerDictTok.Kind != token.DictStart {
		return section{Entries: entries}, fmt.Errorf("xref: missing trailer dictionary")
	}
	p := parse.New(sc, parse.Lenient)
	obj, err := p.ParseObject()
	if err != nil {
		return section{Entries: entries}, err
	}
	dict, _ := obj.(object.Dict)
	trailer := trailerFromDict(dict)
	return section{Entries: entries, Trailer: trailer}, nil
}

func trailerFromDict(d object.Dict) Trailer {
	var tr Trailer
	if r, ok := d.GetRef("Root"); ok {
		rr := r
		tr.Root = &rr
	}
	if r, ok := d.GetRef("Info"); ok {
		rr := r
		tr.Info = &rr
	}
	if enc, ok := d.Get("Encrypt"); ok {
		tr.Encrypt = enc
	}
	if a, ok := d.GetArray("ID"); ok {
		tr.ID = a
	}
	if n, ok := d.GetInt("Size"); ok {
		tr.Size = n
	}
	if prev, ok := d.Get("Prev"); ok {
		if prevOffset, ok := offsetFromObject(prev); ok {
			tr.Prev = prevOffset
			tr.HasPrev = true
		}
	}
	if xrefStm, ok := d.Get("XRefStm"); ok {
		if xrefStmOffset, ok := offsetFromObject(xrefStm); ok {
			tr.XRefStm = xrefStmOffset
			tr.HasXRefStm = true
		}
	}
	return tr
}

// offsetFromObject accepts either a direct integer or (leniently) an
// indirect reference used in place of one, matching real-world files
// that write /Prev as "12 0 R" instead of a bare integer.
func offsetFromObject(o object.Object) (int64, bool) {
	switch v := o.(type) {
	case object.Number:
		return v.Int64(), true
	case object.Ref:
		return int64(v.Num), true
	default:
		return 0, false
	}
}

func toUint32(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		if c < '0' || c > '9' {
			continue
		}
		v = v*10 + uint32(c-'0')
	}
	return v
}
