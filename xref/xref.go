// Package xref parses a PDF file's cross-reference information: the
// traditional table format, the cross-reference stream format
// introduced in PDF 1.5, and the /Prev chain linking incremental
// updates together.
package xref

import (
	"errors"
	"fmt"

	"github.com/arnovale/pdfcore/object"
	"github.com/arnovale/pdfcore/parse"
	"github.com/arnovale/pdfcore/token"
)

// EntryKind distinguishes the three kinds of cross-reference entry.
type EntryKind uint8

const (
	Free EntryKind = iota
	InUse
	Compressed
)

// Entry is one cross-reference table/stream record.
type Entry struct {
	Kind EntryKind
	Gen  uint16

	// Offset is valid when Kind == InUse: the byte offset of the
	// object's "N G obj" header.
	Offset int64

	// StreamNum/StreamIndex are valid when Kind == Compressed: the
	// object number of the containing ObjStm and this object's index
	// within it.
	StreamNum   uint32
	StreamIndex int
}

// Trailer holds the fields of a file or update's trailer dictionary.
type Trailer struct {
	Root    *object.Ref
	Info    *object.Ref
	Encrypt object.Object
	ID      object.Array
	Size    int64
	Prev    int64
	HasPrev bool
	XRefStm int64
	HasXRefStm bool
}

// Table is the merged cross-reference table across a /Prev chain: the
// earliest definition of each object number wins, matching the rule
// that newer (first-read, since the chain is walked backward from the
// newest update) entries take precedence over older ones.
type Table struct {
	Entries map[uint32]Entry
	Trailer Trailer
}

var errCycle = errors.New("xref: cyclic /Prev chain")

// Build walks a file's cross-reference chain starting at startOffset,
// merging traditional tables and cross-reference streams, and
// returns the final merged table plus the trailer of the newest
// (first-parsed) section, which is authoritative for /Root, /Info
// and /Encrypt.
func Build(data []byte, startOffset int64) (Table, error) {
	table := Table{Entries: map[uint32]Entry{}}
	visited := map[int64]bool{}
	offset := startOffset
	first := true
	haveTrailer := false

	for offset != 0 || first {
		if first {
			first = false
		}
		if visited[offset] {
			return table, errCycle
		}
		visited[offset] = true

		section, err := parseSection(data, offset)
		if err != nil {
			return table, err
		}

		for num, e := range section.Entries {
			if _, exists := table.Entries[num]; !exists {
				table.Entries[num] = e
			}
		}

		if !haveTrailer {
			table.Trailer = section.Trailer
			haveTrailer = true
		} else {
			// merge only the fields not already set by a newer section
			mergeTrailer(&table.Trailer, section.Trailer)
		}

		if section.Trailer.HasXRefStm {
			hybrid, err := parseSection(data, section.Trailer.XRefStm)
			if err == nil {
				for num, e := range hybrid.Entries {
					if _, exists := table.Entries[num]; !exists {
						table.Entries[num] = e
					}
				}
			}
		}

		if !section.Trailer.HasPrev {
			break
		}
		offset = section.Trailer.Prev
	}

	return table, nil
}

func mergeTrailer(dst *Trailer, src Trailer) {
	if dst.Root == nil {
		dst.Root = src.Root
	}
	if dst.Info == nil {
		dst.Info = src.Info
	}
	if dst.Encrypt == nil {
		dst.Encrypt = src.Encrypt
	}
	if dst.ID == nil {
		dst.ID = src.ID
	}
	if dst.Size == 0 {
		dst.Size = src.Size
	}
}

type section struct {
	Entries map[uint32]Entry
	Trailer Trailer
}

func parseSection(data []byte, offset int64) (section, error) {
	if offset < 0 || int(offset) >= len(data) {
		return section{}, fmt.Errorf("xref: offset %d out of range", offset)
	}
	sc := token.New(data)
	sc.Seek(int(offset))
	t := sc.PeekToken()
	if t.Kind == token.Keyword && string(t.Value) == "xref" {
		return parseTable(sc)
	}
	// otherwise this must be an "N G obj << ... /Type /XRef ... >> stream"
	return parseStream(sc, nil)
}

// ParseStartXRef scans backward from near the end of data for the
// literal "startxref" marker and the offset that follows it, bounded
// to the last 1024 bytes as a conforming reader is permitted to
// assume, since appended garbage past that point is not meaningful
// PDF trailer material.
func ParseStartXRef(data []byte) (int64, error) {
	const window = 1024
	start := len(data) - window
	if start < 0 {
		start = 0
	}
	tail := data[start:]
	idx := lastIndexOf(tail, []byte("startxref"))
	if idx < 0 {
		return 0, errors.New("xref: no startxref marker found")
	}
	sc := token.New(tail)
	sc.Seek(idx + len("startxref"))
	t := sc.NextToken()
	if t.Kind != token.Integer {
		return 0, errors.New("xref: malformed startxref offset")
	}
	var v int64
	for _, c := range t.Value {
		if c == '-' {
			continue
		}
		v = v*10 + int64(c-'0')
	}
	return v, nil
}

func lastIndexOf(haystack, needle []byte) int {
	n, m := len(haystack), len(needle)
	last := -1
	for i := 0; i+m <= n; i++ {
		if string(haystack[i:i+m]) == string(needle) {
			last = i
		}
	}
	return last
}

