// Package filter implements the PDF stream filter pipeline: decoding
// (and, where meaningful, encoding) the named filters a stream's
// /Filter array lists, plus the PNG/TIFF predictor post-processing
// FlateDecode and LZWDecode streams commonly layer on top.
package filter

import (
	"fmt"

	"github.com/arnovale/pdfcore/object"
)

// Name is a filter's PDF name.
type Name string

const (
	ASCII85Decode   Name = "ASCII85Decode"
	ASCIIHexDecode  Name = "ASCIIHexDecode"
	RunLengthDecode Name = "RunLengthDecode"
	LZWDecode       Name = "LZWDecode"
	FlateDecode     Name = "FlateDecode"
	CCITTFaxDecode  Name = "CCITTFaxDecode"
	DCTDecode       Name = "DCTDecode"
	JBIG2Decode     Name = "JBIG2Decode"
	JPXDecode       Name = "JPXDecode"
)

// imageOnly filters are decode-only pass-throughs in this core: their
// bitstreams are image codecs, not a generic byte transform, and
// decoding them is explicitly out of this engine's scope. The pipeline
// still recognizes them so a stream's /Filter chain parses and
// round-trips correctly.
func imageOnly(n Name) bool {
	switch n {
	case CCITTFaxDecode, DCTDecode, JBIG2Decode, JPXDecode:
		return true
	}
	return false
}

// Params is one stage's /DecodeParms, with boolean entries already
// normalized to 0/1 the way the teacher's StreamDict.DecodeParms does.
type Params map[object.Name]int

// Stage is one element of a stream's filter pipeline.
type Stage struct {
	Filter Name
	Params Params
}

// Pipeline parses a Stream's /Filter and /DecodeParms into an ordered
// list of stages, accepting both the single-filter (Name) and
// multi-filter (Array of Name) forms, and both a single dict and an
// array of dicts for /DecodeParms, resolving indirect references via
// resolve.
func Pipeline(dict object.Dict, resolve func(object.Object) (object.Object, error)) ([]Stage, error) {
	if resolve == nil {
		resolve = func(o object.Object) (object.Object, error) { return o, nil }
	}
	filterVal, _ := dict.Get("Filter")
	filterObj, err := resolve(filterVal)
	if err != nil {
		return nil, err
	}
	var names []Name
	switch f := filterObj.(type) {
	case nil, object.Null:
		return nil, nil
	case object.Name:
		names = []Name{Name(f)}
	case object.Array:
		for _, el := range f {
			rel, err := resolve(el)
			if err != nil {
				return nil, err
			}
			n, ok := rel.(object.Name)
			if !ok {
				return nil, fmt.Errorf("filter: non-name entry in /Filter array")
			}
			names = append(names, Name(n))
		}
	default:
		return nil, fmt.Errorf("filter: unsupported /Filter type %T", filterObj)
	}

	parmsVal, _ := dict.Get("DecodeParms")
	parmsObj, err := resolve(parmsVal)
	if err != nil {
		return nil, err
	}
	parmsList := make([]Params, len(names))
	switch p := parmsObj.(type) {
	case object.Dict:
		parmsList[0] = paramsFromDict(p)
	case object.Array:
		for i, el := range p {
			if i >= len(parmsList) {
				break
			}
			rel, err := resolve(el)
			if err != nil {
				return nil, err
			}
			if d, ok := rel.(object.Dict); ok {
				parmsList[i] = paramsFromDict(d)
			}
		}
	}

	stages := make([]Stage, len(names))
	for i, n := range names {
		stages[i] = Stage{Filter: n, Params: parmsList[i]}
	}
	return stages, nil
}

func paramsFromDict(d object.Dict) Params {
	out := Params{}
	for _, entry := range d.Entries() {
		k, v := entry.Key, entry.Value
		switch n := v.(type) {
		case object.Number:
			out[k] = int(n.Int64())
		case object.Bool:
			if n {
				out[k] = 1
			} else {
				out[k] = 0
			}
		}
	}
	return out
}

// DecodeStream runs s's full filter pipeline over its raw bytes,
// returning the fully decoded content.
func DecodeStream(s object.Stream) ([]byte, error) {
	stages, err := Pipeline(s.Dict, nil)
	if err != nil {
		return nil, err
	}
	return Decode(s.Raw, stages)
}

// Decode runs data through each stage of a filter pipeline in order.
func Decode(data []byte, stages []Stage) ([]byte, error) {
	for _, st := range stages {
		var err error
		data, err = decodeOne(data, st)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", st.Filter, err)
		}
	}
	return data, nil
}

func decodeOne(data []byte, st Stage) ([]byte, error) {
	switch st.Filter {
	case FlateDecode:
		return decodeFlate(data, st.Params)
	case LZWDecode:
		return decodeLZW(data, st.Params)
	case ASCII85Decode:
		return decodeASCII85(data)
	case ASCIIHexDecode:
		return decodeASCIIHex(data)
	case RunLengthDecode:
		return decodeRunLength(data)
	default:
		if imageOnly(st.Filter) {
			return data, nil
		}
		return nil, fmt.Errorf("unknown filter %q", st.Filter)
	}
}

// Encode runs data through each stage of a filter pipeline in
// reverse, i.e. builds the encoded representation a decoder given the
// same stages would invert. Image-only filters are decode-only: this
// core cannot produce a /DCTDecode or /CCITTFaxDecode bitstream, so
// they pass through untouched, matching decodeOne's treatment of them
// and leaving data for those stages exactly as the caller supplied it.
func Encode(data []byte, stages []Stage) ([]byte, error) {
	for i := len(stages) - 1; i >= 0; i-- {
		st := stages[i]
		var err error
		data, err = encodeOne(data, st)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", st.Filter, err)
		}
	}
	return data, nil
}

func encodeOne(data []byte, st Stage) ([]byte, error) {
	switch st.Filter {
	case FlateDecode:
		return encodeFlate(data)
	case ASCII85Decode:
		return encodeASCII85(data), nil
	case ASCIIHexDecode:
		return encodeASCIIHex(data), nil
	case RunLengthDecode:
		return encodeRunLength(data), nil
	default:
		if imageOnly(st.Filter) {
			return data, nil
		}
		return nil, fmt.Errorf("filter %q cannot be encoded by this pipeline", st.Filter)
	}
}
