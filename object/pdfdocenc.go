package object

import "bytes"

// pdfDocEncoding is the single-byte encoding used for PDF text strings
// that are not UTF-16BE. It covers ASCII plus a control-character block
// and an upper-half block of typographic punctuation, tailored to PDF
// rather than true Latin-1.
var pdfDocEncoding = map[byte]rune{
	0x18: 0x02d8, 0x19: 0x02c7, 0x1a: 0x02c6, 0x1b: 0x02d9,
	0x1c: 0x02dd, 0x1d: 0x02db, 0x1e: 0x02da, 0x1f: 0x02dc,
	0x80: 0x2022, 0x81: 0x2020, 0x82: 0x2021, 0x83: 0x2026,
	0x84: 0x2014, 0x85: 0x2013, 0x86: 0x0192, 0x87: 0x2044,
	0x88: 0x2039, 0x89: 0x203a, 0x8a: 0x2212, 0x8b: 0x2030,
	0x8c: 0x201e, 0x8d: 0x201c, 0x8e: 0x201d, 0x8f: 0x2018,
	0x90: 0x2019, 0x91: 0x201a, 0x92: 0x2122, 0x93: 0xfb01,
	0x94: 0xfb02, 0x95: 0x0141, 0x96: 0x0152, 0x97: 0x0160,
	0x98: 0x0178, 0x99: 0x017d, 0x9a: 0x0131, 0x9b: 0x0142,
	0x9c: 0x0153, 0x9d: 0x0161, 0x9e: 0x017e, 0xa0: 0x20ac,
}

var pdfDocEncodingRunes map[rune]byte

func init() {
	pdfDocEncoding[0x09] = rune(0x09) // tab
	pdfDocEncoding[0x0a] = rune(0x0a) // line feed
	pdfDocEncoding[0x0d] = rune(0x0d) // carriage return
	for b := 0x20; b < 0x7f; b++ {
		pdfDocEncoding[byte(b)] = rune(b)
	}
	for b := 0xa1; b <= 0xff; b++ {
		if b == 0xad {
			continue
		}
		pdfDocEncoding[byte(b)] = rune(b)
	}
	pdfDocEncodingRunes = make(map[rune]byte, len(pdfDocEncoding))
	for b, r := range pdfDocEncoding {
		pdfDocEncodingRunes[r] = b
	}
}

func pdfDocDecode(b []byte) string {
	var buf bytes.Buffer
	for _, c := range b {
		r, ok := pdfDocEncoding[c]
		if !ok {
			return ""
		}
		buf.WriteRune(r)
	}
	return buf.String()
}

// pdfDocEncodable reports whether s can be represented exactly in
// PDFDocEncoding.
func pdfDocEncodable(s string) ([]byte, bool) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := pdfDocEncodingRunes[r]
		if !ok {
			return nil, false
		}
		out = append(out, b)
	}
	return out, true
}
