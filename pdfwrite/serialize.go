package pdfwrite

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/arnovale/pdfcore/object"
)

// FormatNumber renders f the way a conforming writer should: no
// trailing ".000000" noise from a naive %f, no lone "-0", and no more
// precision than round-trips, which keeps file sizes down and avoids
// emitting numbers a strict reader's grammar might stumble on (a bare
// exponent form, for instance).
func FormatNumber(n object.Number) string {
	if n.IsInteger {
		return strconv.FormatInt(n.Int64(), 10)
	}
	f := n.Value
	// round to 5 decimal places: PDF numbers have no meaningful
	// precision past that for anything this core writes.
	rounded := math.Round(f*1e5) / 1e5
	if rounded == 0 {
		rounded = 0 // normalize -0 to 0
	}
	s := strconv.FormatFloat(rounded, 'f', -1, 64)
	return s
}

// escapeName renders a Name with its leading slash and #XX-escapes
// for whitespace, delimiters, and the '#' character itself.
func escapeName(n object.Name) string {
	var b strings.Builder
	b.WriteByte('/')
	for i := 0; i < len(n); i++ {
		c := n[i]
		if needsNameEscape(c) {
			fmt.Fprintf(&b, "#%02X", c)
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func needsNameEscape(c byte) bool {
	if c <= 0x20 || c >= 0x7f {
		return true
	}
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%', '#':
		return true
	}
	return false
}

// escapeLiteralString renders bytes in "(...)" form, escaping
// parentheses and backslashes and writing LF, CR and tab as \n, \r and
// \t. Every other byte, other control bytes included, is written as-is.
func escapeLiteralString(b []byte) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, c := range b {
		switch c {
		case '(', ')', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\n':
			sb.WriteString("\\n")
		case '\r':
			sb.WriteString("\\r")
		case '\t':
			sb.WriteString("\\t")
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

func escapeHexString(b []byte) string {
	const hexDigits = "0123456789ABCDEF"
	var sb strings.Builder
	sb.WriteByte('<')
	for _, c := range b {
		sb.WriteByte(hexDigits[c>>4])
		sb.WriteByte(hexDigits[c&0xf])
	}
	sb.WriteByte('>')
	return sb.String()
}

// WriteObject serializes a direct object (no containing "N G obj"
// wrapper) into w. A Stream is written as its dictionary only; its
// payload is written by writeIndirectObject.
func WriteObject(w *ByteWriter, o object.Object) {
	switch v := o.(type) {
	case nil, object.Null:
		w.WriteString("null")
	case object.Bool:
		if v {
			w.WriteString("true")
		} else {
			w.WriteString("false")
		}
	case object.Number:
		w.WriteString(FormatNumber(v))
	case object.Name:
		w.WriteString(escapeName(v))
	case object.String:
		if v.Format == object.Hex {
			w.WriteString(escapeHexString(v.Bytes))
		} else {
			w.WriteString(escapeLiteralString(v.Bytes))
		}
	case object.Ref:
		fmt.Fprintf(w, "%d %d R", v.Num, v.Gen)
	case object.Array:
		w.WriteByte('[')
		for i, el := range v {
			if i > 0 {
				w.WriteByte(' ')
			}
			WriteObject(w, el)
		}
		w.WriteByte(']')
	case object.Dict:
		writeDictBody(w, v)
	case object.Stream:
		writeDictBody(w, v.Dict)
	default:
		w.WriteString("null")
	}
}

// writeDictBody writes "<< /Key value ... >>" in the dictionary's
// declaration order, omitting keys whose value is Null (a null-valued
// entry and an absent entry are equivalent per the format, so dropping
// them is always safe and keeps output smaller).
func writeDictBody(w *ByteWriter, d object.Dict) {
	w.WriteString("<<")
	for _, e := range d.Entries() {
		if _, isNull := e.Value.(object.Null); isNull {
			continue
		}
		w.WriteByte(' ')
		w.WriteString(escapeName(e.Key))
		w.WriteByte(' ')
		WriteObject(w, e.Value)
	}
	w.WriteString(" >>")
}
