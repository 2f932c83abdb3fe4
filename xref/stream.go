package xref

import (
	"fmt"

	"github.com/arnovale/pdfcore/filter"
	"github.com/arnovale/pdfcore/object"
	"github.com/arnovale/pdfcore/parse"
	"github.com/arnovale/pdfcore/token"
)

// StreamDecoder decodes a Stream's filter pipeline. Injected so this
// package does not need to know about encryption: by the time an
// xref stream is parsed, no decryption is ever needed (cross-reference
// streams are explicitly exempt from encryption per the format).
type StreamDecoder func(object.Stream) ([]byte, error)

var defaultDecoder StreamDecoder = func(s object.Stream) ([]byte, error) {
	return filter.DecodeStream(s)
}

// parseStream parses an "N G obj << /Type /XRef ... >> stream ...
// endstream" cross-reference stream starting at the object header.
func parseStream(sc *token.Scanner, decode StreamDecoder) (section, error) {
	if decode == nil {
		decode = defaultDecoder
	}
	io, err := parse.ParseIndirectObject(sc, parse.Lenient, nil)
	if err != nil {
		return section{}, err
	}
	st, ok := io.Value.(object.Stream)
	if !ok {
		return section{}, fmt.Errorf("xref: expected a stream object")
	}

	wArr, ok := st.Dict.GetArray("W")
	if !ok || len(wArr) != 3 {
		return section{}, fmt.Errorf("xref: missing or malformed /W")
	}
	var w [3]int
	for i, o := range wArr {
		n, ok := o.(object.Number)
		if !ok {
			return section{}, fmt.Errorf("xref: /W entries must be numbers")
		}
		w[i] = int(n.Int64())
	}

	size, _ := st.Dict.GetInt("Size")
	var index [][2]int64
	if idxArr, ok := st.Dict.GetArray("Index"); ok {
		for i := 0; i+1 < len(idxArr); i += 2 {
			start, _ := idxArr[i].(object.Number)
			count, _ := idxArr[i+1].(object.Number)
			index = append(index, [2]int64{start.Int64(), count.Int64()})
		}
	} else {
		index = [][2]int64{{0, size}}
	}

	content, err := decode(st)
	if err != nil {
		return section{}, fmt.Errorf("xref: decoding stream: %w", err)
	}

	entrySize := w[0] + w[1] + w[2]
	entries := map[uint32]Entry{}
	pos := 0
	for _, sub := range index {
		for i := int64(0); i < sub[1]; i++ {
			if pos+entrySize > len(content) {
				return section{}, fmt.Errorf("xref: stream content too short")
			}
			num := uint32(sub[0] + i)
			fields := readFields(content[pos:pos+entrySize], w)
			pos += entrySize

			typ := fields[0]
			if w[0] == 0 {
				typ = 1 // default type is 1 when /W[0] == 0, per the format
			}
			var e Entry
			switch typ {
			case 0:
				e.Kind = Free
				e.Gen = uint16(fields[2])
			case 1:
				e.Kind = InUse
				e.Offset = int64(fields[1])
				e.Gen = uint16(fields[2])
			case 2:
				e.Kind = Compressed
				e.StreamNum = uint32(fields[1])
				e.StreamIndex = int(fields[2])
			default:
				continue
			}
			if _, exists := entries[num]; !exists {
				entries[num] = e
			}
		}
	}

	return section{Entries: entries, Trailer: trailerFromDict(st.Dict)}, nil
}

func readFields(buf []byte, w [3]int) [3]int64 {
	var out [3]int64
	pos := 0
	for i, width := range w {
		var v int64
		for j := 0; j < width; j++ {
			v = v<<8 | int64(buf[pos+j])
		}
		out[i] = v
		pos += width
	}
	return out
}
