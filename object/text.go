package object

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
)

var utf16BOM = []byte{0xfe, 0xff}

var utf16Enc = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)

// Text interprets s as a PDF text string: UTF-16BE with a leading BOM
// if present, PDFDocEncoding otherwise.
func (s String) Text() (string, error) {
	if bytes.HasPrefix(s.Bytes, utf16BOM) {
		decoded, err := utf16Enc.NewDecoder().Bytes(s.Bytes)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	}
	return pdfDocDecode(s.Bytes), nil
}

// SetText encodes text as a PDF text string. It prefers PDFDocEncoding
// when text round-trips through it exactly, falling back to
// UTF-16BE-with-BOM for anything outside that repertoire. This
// autodetection is the resolution of the format's text-string encoding
// ambiguity: a reader must accept either, and a writer should prefer
// the more compact one when it is lossless.
func SetText(text string) String {
	if b, ok := pdfDocEncodable(text); ok {
		return NewLiteralString(b)
	}
	encoded, err := utf16Enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		// text is valid UTF-8 by construction (a Go string); the only
		// failure mode is an encoding that cannot represent a rune,
		// which UTF-16 can for all of Unicode via surrogate pairs.
		encoded = append(append([]byte{}, utf16BOM...), []byte(text)...)
	}
	return NewHexString(encoded)
}
