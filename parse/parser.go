// Package parse builds object.Object values from a token.Scanner:
// the recursive-descent object parser, the indirect-object header
// parser, the object-stream body parser, and the brute-force recovery
// scan used when a file's cross-reference information is unusable.
package parse

import (
	"fmt"
	"strconv"

	"github.com/arnovale/pdfcore/object"
	"github.com/arnovale/pdfcore/token"
)

// MaxDepth bounds recursive array/dictionary nesting, guarding against
// both malicious and merely corrupt input driving the parser into a
// stack overflow.
const MaxDepth = 500

// ErrMaxDepthExceeded is returned when nesting exceeds MaxDepth.
type ErrMaxDepthExceeded struct{}

func (ErrMaxDepthExceeded) Error() string { return "parse: maximum object nesting depth exceeded" }

// ErrObjectParse reports a malformed object at a given byte offset.
type ErrObjectParse struct {
	Pos int
	Msg string
}

func (e *ErrObjectParse) Error() string {
	return fmt.Sprintf("parse: object error at offset %d: %s", e.Pos, e.Msg)
}

// Mode controls how the parser reacts to recoverable irregularities.
type Mode uint8

const (
	// Strict rejects dictionaries with malformed keys or duplicate
	// keys where the format disallows them.
	Strict Mode = iota
	// Lenient tolerates the irregularities real-world generators
	// produce: a dictionary key token that isn't a Name but looks
	// like one, or a dictionary that runs into EOF before its closing
	// ">>", which is accepted up to the point of failure.
	Lenient
)

// Parser parses PDF objects from a token stream.
type Parser struct {
	sc   *token.Scanner
	mode Mode
}

// New creates a Parser reading from data at its current scan position.
func New(sc *token.Scanner, mode Mode) *Parser {
	return &Parser{sc: sc, mode: mode}
}

// NewFromBytes creates a Parser over a fresh Scanner on data.
func NewFromBytes(data []byte, mode Mode) *Parser {
	return &Parser{sc: token.New(data), mode: mode}
}

// Scanner exposes the underlying scanner, e.g. so a caller can read
// the raw stream bytes following a Stream object.
func (p *Parser) Scanner() *token.Scanner { return p.sc }

// ParseObject parses the next direct or indirect-reference object.
func (p *Parser) ParseObject() (object.Object, error) {
	return p.parseAt(0)
}

func (p *Parser) parseAt(depth int) (object.Object, error) {
	if depth > MaxDepth {
		return nil, ErrMaxDepthExceeded{}
	}
	t := p.sc.NextToken()
	switch t.Kind {
	case token.EOF:
		return nil, &ErrObjectParse{Pos: t.Pos, Msg: "unexpected end of input"}
	case token.Integer:
		return p.parseNumericOrRef(t)
	case token.Real:
		return object.Float(parseFloat(t.Value)), nil
	case token.Name:
		return object.Name(t.Value), nil
	case token.StringLiteral:
		return object.NewLiteralString(append([]byte(nil), t.Value...)), nil
	case token.StringHex:
		return object.NewHexString(append([]byte(nil), t.Value...)), nil
	case token.ArrayStart:
		return p.parseArray(depth + 1)
	case token.DictStart:
		return p.parseDictOrStream(depth + 1)
	case token.Keyword:
		switch string(t.Value) {
		case "true":
			return object.Bool(true), nil
		case "false":
			return object.Bool(false), nil
		case "null":
			return object.Null{}, nil
		default:
			if p.mode == Lenient {
				return object.Null{}, nil
			}
			return nil, &ErrObjectParse{Pos: t.Pos, Msg: "unexpected keyword " + string(t.Value)}
		}
	default:
		if p.mode == Lenient {
			return object.Null{}, nil
		}
		return nil, &ErrObjectParse{Pos: t.Pos, Msg: "unexpected token " + t.String()}
	}
}

// parseNumericOrRef implements the core "N G R" lookahead: an integer
// is only the first half of an indirect reference if it is followed by
// another integer and then the literal keyword "R", checked without
// consuming tokens that turn out not to match.
func (p *Parser) parseNumericOrRef(first token.Token) (object.Object, error) {
	n1 := parseFloat(first.Value)
	second := p.sc.PeekToken()
	if second.Kind != token.Integer {
		return object.Int(int64(n1)), nil
	}
	third := p.sc.PeekPeekToken()
	if third.Kind == token.Keyword && string(third.Value) == "R" {
		p.sc.NextToken() // consume second
		p.sc.NextToken() // consume "R"
		return object.Ref{Num: uint32(n1), Gen: uint16(parseFloat(second.Value))}, nil
	}
	return object.Int(int64(n1)), nil
}

func (p *Parser) parseArray(depth int) (object.Array, error) {
	var arr object.Array
	for {
		t := p.sc.PeekToken()
		if t.Kind == token.ArrayEnd {
			p.sc.NextToken()
			return arr, nil
		}
		if t.Kind == token.EOF {
			if p.mode == Lenient {
				return arr, nil
			}
			return nil, &ErrObjectParse{Pos: t.Pos, Msg: "unterminated array"}
		}
		o, err := p.parseAt(depth)
		if err != nil {
			return nil, err
		}
		arr = append(arr, o)
	}
}

// parseDictOrStream parses a "<< ... >>" dictionary and, if
// immediately followed by the "stream" keyword, the stream body that
// follows it, returning an object.Stream instead of a bare Dict.
func (p *Parser) parseDictOrStream(depth int) (object.Object, error) {
	d, err := p.parseDictBody(depth)
	if err != nil {
		return nil, err
	}
	if p.sc.PeekToken().Kind == token.Keyword && string(p.sc.PeekToken().Value) == "stream" {
		p.sc.NextToken()
		p.sc.ConsumeStreamEOL()
		return object.Stream{Dict: d}, nil // raw bytes filled in by the indirect-object parser, which knows /Length
	}
	return d, nil
}

func (p *Parser) parseDictBody(depth int) (object.Dict, error) {
	d := object.Dict{}
	for {
		kt := p.sc.PeekToken()
		if kt.Kind == token.DictEnd {
			p.sc.NextToken()
			return d, nil
		}
		if kt.Kind == token.EOF {
			if p.mode == Lenient {
				return d, nil
			}
			return object.Dict{}, &ErrObjectParse{Pos: kt.Pos, Msg: "unterminated dictionary"}
		}
		if kt.Kind != token.Name {
			if p.mode == Lenient {
				// Skip one token and try again: a common corruption is
				// a stray value with no preceding key.
				p.sc.NextToken()
				continue
			}
			return object.Dict{}, &ErrObjectParse{Pos: kt.Pos, Msg: "dictionary key is not a name"}
		}
		p.sc.NextToken()
		key := object.Name(kt.Value)
		if p.mode == Strict && d.Has(key) {
			return object.Dict{}, &ErrObjectParse{Pos: kt.Pos, Msg: "duplicate dictionary key " + string(key)}
		}
		val, err := p.parseAt(depth)
		if err != nil {
			return object.Dict{}, err
		}
		d.Set(key, val) // last-definition-wins, keeping the key's first position
	}
}

func parseFloat(b []byte) float64 {
	if v, err := strconv.ParseFloat(string(b), 64); err == nil {
		return v
	}
	var neg bool
	i := 0
	if i < len(b) && b[i] == '-' {
		neg = true
		i++
	}
	var intPart, fracPart float64
	var fracDiv float64 = 1
	seenDot := false
	for ; i < len(b); i++ {
		c := b[i]
		if c == '.' {
			seenDot = true
			continue
		}
		if c < '0' || c > '9' {
			continue
		}
		d := float64(c - '0')
		if seenDot {
			fracDiv *= 10
			fracPart = fracPart*10 + d
		} else {
			intPart = intPart*10 + d
		}
	}
	v := intPart + fracPart/fracDiv
	if neg {
		v = -v
	}
	return v
}
