package pdfwrite

import (
	"bytes"
	"fmt"

	"github.com/arnovale/pdfcore/filter"
	"github.com/arnovale/pdfcore/object"
)

// ObjectSource is the minimal view of a registry a save needs: look up
// an object's current value and generation, and enumerate what to
// write.
type ObjectSource interface {
	GetObject(num uint32) (object.Object, error)
	AllObjects() []uint32
	DirtyObjects() []uint32
	ObjectGeneration(num uint32) uint16
}

// defaultVersion is emitted when a caller supplies no Version, which
// only a document built from scratch (rather than loaded from a file)
// should ever do.
const defaultVersion = "1.7"

// CompleteSaveOptions controls a full rewrite of a document.
type CompleteSaveOptions struct {
	// Version is the header version written after "%PDF-", normally
	// the source document's own HeaderVersion so a complete save
	// never silently bumps a file's declared version. Defaults to
	// "1.7" if empty.
	Version string

	// UseXRefStream writes a PDF-1.5-style cross-reference stream
	// instead of a traditional table. Traditional tables remain the
	// default for maximum compatibility with older readers.
	UseXRefStream bool

	// CompressStreams FlateDecode-compresses any written stream that
	// does not already declare a /Filter.
	CompressStreams bool

	Root object.Ref
	Info *object.Ref
}

// CompleteSave performs a full rewrite: every object number that
// src.AllObjects lists is written, in that order, followed by a fresh
// cross-reference section and trailer. Objects are not filtered by
// reachability from Root.
func CompleteSave(src ObjectSource, opts CompleteSaveOptions) ([]byte, error) {
	version := opts.Version
	if version == "" {
		version = defaultVersion
	}

	w := NewByteWriter(1 << 16)
	fmt.Fprintf(w, "%%PDF-%s\n%%", version)
	w.Write([]byte{0xe2, 0xe3, 0xcf, 0xd3})
	w.WriteString("\n")

	nums := src.AllObjects()
	offsets := make(map[uint32]int64, len(nums))
	gens := make(map[uint32]uint16, len(nums))
	var maxNum uint32
	for _, num := range nums {
		if num > maxNum {
			maxNum = num
		}
		obj, err := src.GetObject(num)
		if err != nil {
			return nil, fmt.Errorf("pdfwrite: object %d: %w", num, err)
		}
		if opts.CompressStreams {
			obj = maybeCompress(obj)
		}
		gen := src.ObjectGeneration(num)
		gens[num] = gen
		offsets[num] = int64(w.Len())
		writeIndirectObject(w, num, gen, obj)
	}

	if opts.UseXRefStream {
		xrefNum := maxNum + 1
		writeXRefStream(w, xrefNum, offsets, gens, xrefNum+1, opts.Root, opts.Info, nil, opts.CompressStreams)
	} else {
		size := maxNum + 1
		xrefOffset := int64(w.Len())
		writeXRefTable(w, offsets, gens, size)
		writeTrailer(w, size, opts.Root, opts.Info, xrefOffset)
	}

	return w.ToBytes(), nil
}

// maybeCompress FlateDecode-compresses a stream's payload in place if
// it does not already declare a /Filter. Non-stream objects and
// streams that already carry a filter pass through unchanged.
func maybeCompress(obj object.Object) object.Object {
	st, ok := obj.(object.Stream)
	if !ok {
		return obj
	}
	if st.Dict.Has("Filter") {
		return obj
	}
	encoded, err := filter.Encode(st.Raw, []filter.Stage{{Filter: filter.FlateDecode}})
	if err != nil {
		return obj
	}
	d := st.Dict.Clone()
	d.Set("Filter", object.Name(filter.FlateDecode))
	return object.Stream{Dict: d, Raw: encoded}
}

func writeIndirectObject(w *ByteWriter, num uint32, gen uint16, obj object.Object) {
	fmt.Fprintf(w, "%d %d obj\n", num, gen)
	if st, ok := obj.(object.Stream); ok {
		d := st.Dict.Clone()
		d.Set("Length", object.Int(int64(len(st.Raw))))
		writeDictBody(w, d)
		w.WriteString("\nstream\n")
		w.Write(st.Raw)
		w.WriteString("\nendstream")
	} else {
		WriteObject(w, obj)
	}
	w.WriteString("\nendobj\n")
}

func writeXRefTable(w *ByteWriter, offsets map[uint32]int64, gens map[uint32]uint16, size uint32) {
	w.WriteString("xref\n")
	fmt.Fprintf(w, "0 %d\n", size)
	w.WriteString("0000000000 65535 f \n")
	for num := uint32(1); num < size; num++ {
		off, ok := offsets[num]
		if !ok {
			w.WriteString("0000000000 00000 f \n")
			continue
		}
		fmt.Fprintf(w, "%010d %05d n \n", off, gens[num])
	}
}

func writeTrailer(w *ByteWriter, size uint32, root object.Ref, info *object.Ref, xrefOffset int64) {
	d := object.NewDict(
		object.DictEntry{Key: "Size", Value: object.Int(int64(size))},
		object.DictEntry{Key: "Root", Value: root},
	)
	if info != nil {
		d.Set("Info", *info)
	}
	w.WriteString("trailer\n")
	WriteObject(w, d)
	fmt.Fprintf(w, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
}

// writeXRefStream emits a PDF-1.5-style "/Type /XRef" cross-reference
// stream as object xrefNum, in place of a traditional table+trailer:
// the trailer-equivalent fields (/Root, /Info, /Size) live directly in
// the stream's own dictionary, and there is no separate trailer
// keyword section. A non-nil prevOffset is written as the stream's
// /Prev, the same way a traditional trailer threads an incremental
// update's /Prev.
func writeXRefStream(w *ByteWriter, xrefNum uint32, offsets map[uint32]int64, gens map[uint32]uint16, size uint32, root object.Ref, info *object.Ref, prevOffset *int64, compress bool) {
	// The xref stream describes its own offset, so that offset must be
	// fixed before its body is built: it is exactly where this object
	// is about to begin.
	offsets[xrefNum] = int64(w.Len())

	const w0, w1, w2 = 1, 4, 2 // type, offset/stream-num, gen/stream-index
	body := make([]byte, 0, int(size)*(w0+w1+w2))
	putBE := func(v uint64, n int) {
		for i := n - 1; i >= 0; i-- {
			body = append(body, byte(v>>(8*uint(i))))
		}
	}
	for num := uint32(0); num < size; num++ {
		if num == 0 {
			putBE(0, w0)
			putBE(0, w1)
			putBE(0xFFFF, w2) // free list terminator, mirroring object 0's conventional generation
			continue
		}
		if num == xrefNum {
			putBE(1, w0)
			putBE(uint64(offsets[xrefNum]), w1)
			putBE(uint64(gens[xrefNum]), w2)
			continue
		}
		off, ok := offsets[num]
		if !ok {
			putBE(0, w0)
			putBE(0, w1)
			putBE(0, w2)
			continue
		}
		putBE(1, w0)
		putBE(uint64(off), w1)
		putBE(uint64(gens[num]), w2)
	}

	raw := body
	filterName := object.Object(nil)
	if compress {
		encoded, err := filter.Encode(body, []filter.Stage{{Filter: filter.FlateDecode}})
		if err == nil {
			raw = encoded
			filterName = object.Name(filter.FlateDecode)
		}
	}

	d := object.NewDict(
		object.DictEntry{Key: "Type", Value: object.Name("XRef")},
		object.DictEntry{Key: "Size", Value: object.Int(int64(size))},
		object.DictEntry{Key: "W", Value: object.Array{object.Int(w0), object.Int(w1), object.Int(w2)}},
		object.DictEntry{Key: "Root", Value: root},
	)
	if info != nil {
		d.Set("Info", *info)
	}
	if prevOffset != nil {
		d.Set("Prev", object.Int(*prevOffset))
	}
	if filterName != nil {
		d.Set("Filter", filterName)
	}

	writeIndirectObject(w, xrefNum, gens[xrefNum], object.Stream{Dict: d, Raw: raw})
	fmt.Fprintf(w, "startxref\n%d\n%%%%EOF\n", offsets[xrefNum])
}

// IncrementalSaveOptions controls an append-only update.
type IncrementalSaveOptions struct {
	Root     object.Ref
	Info     *object.Ref
	PrevXRef int64

	// UseXRefStream writes the appended update's cross-reference
	// section as a stream instead of a traditional table.
	UseXRefStream bool

	// CompressStreams FlateDecode-compresses any newly written stream
	// that does not already declare a /Filter.
	CompressStreams bool
}

// IncrementalSave appends only the new/dirty objects from src onto the
// end of original, producing a byte-for-byte-preserving update: the
// first len(original) bytes of the result are guaranteed identical to
// original. Precondition: original must not be a linearized PDF,
// since linearization's hint tables assume the byte offsets they
// record never change, which appending to the file would violate for
// a reader that trusts them.
func IncrementalSave(original []byte, src ObjectSource, opts IncrementalSaveOptions) ([]byte, error) {
	w := NewByteWriter(len(original) + 4096)
	w.Write(original)
	if len(original) > 0 && original[len(original)-1] != '\n' {
		w.WriteString("\n")
	}

	dirty := src.DirtyObjects()
	offsets := make(map[uint32]int64, len(dirty))
	gens := make(map[uint32]uint16, len(dirty))
	var maxNum uint32
	for _, num := range dirty {
		if num > maxNum {
			maxNum = num
		}
	}
	for _, num := range dirty {
		obj, err := src.GetObject(num)
		if err != nil {
			return nil, fmt.Errorf("pdfwrite: object %d: %w", num, err)
		}
		if opts.CompressStreams {
			obj = maybeCompress(obj)
		}
		gen := src.ObjectGeneration(num)
		gens[num] = gen
		offsets[num] = int64(w.Len())
		writeIndirectObject(w, num, gen, obj)
	}

	if opts.UseXRefStream {
		xrefNum := maxNum + 1
		size := xrefNum + 1
		prev := opts.PrevXRef
		writeXRefStream(w, xrefNum, offsets, gens, size, opts.Root, opts.Info, &prev, opts.CompressStreams)
		return w.ToBytes(), nil
	}

	xrefOffset := int64(w.Len())
	writeIncrementalXRefTable(w, offsets, gens)

	d := object.NewDict(
		object.DictEntry{Key: "Size", Value: object.Int(int64(maxNum) + 1)},
		object.DictEntry{Key: "Root", Value: opts.Root},
		object.DictEntry{Key: "Prev", Value: object.Int(opts.PrevXRef)},
	)
	if opts.Info != nil {
		d.Set("Info", *opts.Info)
	}
	w.WriteString("trailer\n")
	WriteObject(w, d)
	fmt.Fprintf(w, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)

	return w.ToBytes(), nil
}

func writeIncrementalXRefTable(w *ByteWriter, offsets map[uint32]int64, gens map[uint32]uint16) {
	nums := make([]uint32, 0, len(offsets))
	for n := range offsets {
		nums = append(nums, n)
	}
	sortUint32s(nums)

	w.WriteString("xref\n")
	i := 0
	for i < len(nums) {
		j := i + 1
		for j < len(nums) && nums[j] == nums[j-1]+1 {
			j++
		}
		fmt.Fprintf(w, "%d %d\n", nums[i], j-i)
		for k := i; k < j; k++ {
			fmt.Fprintf(w, "%010d %05d n \n", offsets[nums[k]], gens[nums[k]])
		}
		i = j
	}
}

func sortUint32s(s []uint32) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// VerifyIncrementalSave checks the three invariants an incremental
// save must uphold: the result's prefix is byte-identical to
// original, the result ends with a "%%EOF" marker, and the result is
// not shorter than original.
func VerifyIncrementalSave(original, result []byte) error {
	if len(result) < len(original) {
		return fmt.Errorf("pdfwrite: incremental save shrank the file (%d < %d bytes)", len(result), len(original))
	}
	if !bytes.Equal(result[:len(original)], original) {
		return fmt.Errorf("pdfwrite: incremental save did not preserve the original prefix")
	}
	trimmed := bytes.TrimRight(result, "\n\r")
	if !bytes.HasSuffix(trimmed, []byte("%%EOF")) {
		return fmt.Errorf("pdfwrite: incremental save result does not end with %%%%EOF")
	}
	return nil
}
