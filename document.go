// Package pdfcore is a byte-level PDF engine: scanning and tokenizing,
// parsing direct and indirect objects, reading cross-reference tables
// and streams, decoding the standard filter pipeline, decrypting with
// the standard security handler, and writing documents back out
// either as a complete rewrite or a byte-preserving incremental
// update.
//
// Higher-level document concepts — the page tree, fonts, forms,
// annotations, text extraction — are not implemented here; callers
// build those on top of Document's Resolve/GetObject/Register surface.
package pdfcore

import (
	"fmt"

	"github.com/arnovale/pdfcore/crypt"
	"github.com/arnovale/pdfcore/object"
	"github.com/arnovale/pdfcore/parse"
	"github.com/arnovale/pdfcore/pdfwrite"
	"github.com/arnovale/pdfcore/registry"
	"github.com/arnovale/pdfcore/token"
	"github.com/arnovale/pdfcore/xref"
)

// Document is a loaded (or freshly created) PDF file.
type Document struct {
	data []byte // nil for a document built from scratch

	HeaderVersion string
	Linearized    bool

	Root object.Ref
	Info *object.Ref

	// AdditionalStreams holds the non-standard trailer entry some
	// generators (notably OASIS Open Doc) use to keep extra streams
	// reachable outside the page tree. Load does not fill it from the
	// trailer and Save does not write it back.
	AdditionalStreams object.Array

	registry *registry.Registry
	security *crypt.StandardSecurityHandler

	trailer  xref.Trailer
	warnings []string
}

// New creates an empty Document with a fresh Catalog as its root, for
// building a PDF from scratch.
func New() *Document {
	r := registry.New(nil, emptyTable(), nil)
	catalogRef := r.Register(object.NewDict(object.DictEntry{Key: "Type", Value: object.Name("Catalog")}))
	return &Document{
		HeaderVersion: "1.7",
		Root:          catalogRef,
		registry:      r,
	}
}

func emptyTable() xref.Table {
	return xref.Table{Entries: map[uint32]xref.Entry{}}
}

// Load parses a complete PDF file from data.
func Load(data []byte, opts LoadOptions) (*Document, error) {
	doc := &Document{data: data}

	version, ok := readHeaderVersion(data)
	if !ok {
		if !opts.Lenient {
			return nil, newError(KindStructureError, fmt.Errorf("missing %%PDF- header"))
		}
		doc.warnings = append(doc.warnings, "missing or malformed %PDF- header; assuming 1.7")
		version = "1.7"
	}
	doc.HeaderVersion = version

	table, loadErr := loadXRefTable(data, opts, func(w string) { doc.warnings = append(doc.warnings, w) })
	if loadErr != nil {
		return nil, loadErr
	}
	doc.trailer = table.Trailer

	var security *crypt.StandardSecurityHandler
	if table.Trailer.Encrypt != nil {
		h, encErr := buildSecurityHandler(table.Trailer, opts.Password)
		if encErr != nil {
			return nil, encErr
		}
		security = h
	}
	doc.security = security

	doc.registry = registry.New(data, table, security)

	if table.Trailer.Root != nil {
		doc.Root = *table.Trailer.Root
	} else if opts.Lenient {
		doc.warnings = append(doc.warnings, "trailer has no /Root; recovery will not find a catalog")
	} else {
		return nil, newError(KindStructureError, fmt.Errorf("trailer missing /Root"))
	}
	doc.Info = table.Trailer.Info

	if root, err := doc.registry.GetObject(doc.Root.Num); err == nil {
		if d, ok := root.(object.Dict); ok {
			linObj, _ := doc.registry.GetObject(1) // linearization dict, when present, is always object 1
			if ld, ok := linObj.(object.Dict); ok {
				if ld.Has("Linearized") {
					doc.Linearized = true
				}
			}
			_ = d
		}
	}

	return doc, nil
}

func loadXRefTable(data []byte, opts LoadOptions, warn func(string)) (xref.Table, error) {
	startOffset, err := xref.ParseStartXRef(data)
	if err == nil {
		table, buildErr := xref.Build(data, startOffset)
		if buildErr == nil && table.Trailer.Root != nil {
			return table, nil
		}
		if !opts.Lenient && buildErr != nil {
			return xref.Table{}, newError(KindXRefParseError, buildErr)
		}
	} else if !opts.Lenient {
		return xref.Table{}, newError(KindXRefParseError, err)
	}

	// Brute-force recovery: rebuild a synthetic table from every "N G
	// obj" marker found anywhere in the file.
	warn("cross-reference information unusable; object offsets rebuilt by scanning the whole file")
	recovered := parse.BruteForceRecover(data)
	table := xref.Table{Entries: map[uint32]xref.Entry{}}
	for _, r := range recovered {
		table.Entries[r.Num] = xref.Entry{Kind: xref.InUse, Gen: r.Gen, Offset: int64(r.Offset)}
	}
	root := findCatalog(data, recovered)
	if root == nil {
		return xref.Table{}, newError(KindStructureError, fmt.Errorf("brute-force recovery found no /Catalog object"))
	}
	table.Trailer.Root = root
	return table, nil
}

// findCatalog scans the recovered objects for the first dictionary
// declaring /Type /Catalog, the same opportunistic heuristic a reader
// with no trailer to trust must fall back on.
func findCatalog(data []byte, recovered []parse.RecoveredObject) *object.Ref {
	for _, r := range recovered {
		sc := token.New(data)
		sc.Seek(int(r.Offset))
		io, err := parse.ParseIndirectObject(sc, parse.Lenient, nil)
		if err != nil {
			continue
		}
		d, ok := io.Value.(object.Dict)
		if !ok {
			continue
		}
		if n, ok := d.GetName("Type"); ok && n == "Catalog" {
			ref := object.Ref{Num: r.Num, Gen: r.Gen}
			return &ref
		}
	}
	return nil
}

func buildSecurityHandler(tr xref.Trailer, password string) (*crypt.StandardSecurityHandler, error) {
	d, ok := tr.Encrypt.(object.Dict)
	if !ok {
		return nil, newError(KindEncryptionDictError, fmt.Errorf("/Encrypt is not a dictionary"))
	}
	h := &crypt.StandardSecurityHandler{EncryptMetadata: true}
	if v, ok := d.GetInt("V"); ok {
		h.V = int(v)
	}
	if r, ok := d.GetInt("R"); ok {
		h.R = int(r)
	}
	if l, ok := d.GetInt("Length"); ok {
		h.Length = int(l)
	} else {
		h.Length = 40
	}
	if o, ok := d.Get("O"); ok {
		if s, ok := o.(object.String); ok {
			h.O = s.Bytes
		}
	}
	if u, ok := d.Get("U"); ok {
		if s, ok := u.(object.String); ok {
			h.U = s.Bytes
		}
	}
	if oe, ok := d.Get("OE"); ok {
		if s, ok := oe.(object.String); ok {
			h.OE = s.Bytes
		}
	}
	if ue, ok := d.Get("UE"); ok {
		if s, ok := ue.(object.String); ok {
			h.UE = s.Bytes
		}
	}
	if p, ok := d.GetInt("P"); ok {
		h.P = int32(p)
	}
	if em, ok := d.Get("EncryptMetadata"); ok {
		if b, ok := em.(object.Bool); ok {
			h.EncryptMetadata = bool(b)
		}
	}
	if len(tr.ID) > 0 {
		if s, ok := tr.ID[0].(object.String); ok {
			h.ID0 = s.Bytes
		}
	}
	h.Method = crypt.MethodRC4
	if h.V >= 4 {
		h.Method = crypt.MethodAES128
	}
	if h.V >= 5 {
		h.Method = crypt.MethodAES256
	}

	if err := h.Authenticate(password); err != nil {
		return nil, newError(KindPermissionDenied, err)
	}
	return h, nil
}

func readHeaderVersion(data []byte) (string, bool) {
	const probe = 1024
	n := len(data)
	if n > probe {
		n = probe
	}
	idx := -1
	for i := 0; i+5 <= n; i++ {
		if string(data[i:i+5]) == "%PDF-" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", false
	}
	start := idx + 5
	end := start
	for end < len(data) && end < start+3 && data[end] != '\r' && data[end] != '\n' {
		end++
	}
	return string(data[start:end]), true
}

// Authenticate retries decryption with a new password, replacing the
// document's current security handler on success. Returns
// UnsupportedCredentials if the document is not encrypted at all.
func (d *Document) Authenticate(password string) error {
	if d.trailer.Encrypt == nil {
		return newError(KindUnsupportedCredentials, fmt.Errorf("document is not encrypted"))
	}
	h, err := buildSecurityHandler(d.trailer, password)
	if err != nil {
		return err
	}
	d.security = h
	return nil
}

// Resolve follows o if it is an indirect reference.
func (d *Document) Resolve(o object.Object) (object.Object, error) {
	return d.registry.Resolve(o)
}

// GetObject resolves an object by number.
func (d *Document) GetObject(num uint32) (object.Object, error) {
	return d.registry.GetObject(num)
}

// Register adds a new object to the document, returning its reference.
func (d *Document) Register(o object.Object) object.Ref {
	return d.registry.Register(o)
}

// GetCatalog resolves and returns the document's root Catalog
// dictionary.
func (d *Document) GetCatalog() (object.Dict, error) {
	o, err := d.registry.GetObject(d.Root.Num)
	if err != nil {
		return object.Dict{}, err
	}
	dict, ok := o.(object.Dict)
	if !ok {
		return object.Dict{}, newError(KindStructureError, fmt.Errorf("/Root does not resolve to a dictionary"))
	}
	return dict, nil
}

// GetPages walks the catalog's /Pages tree and returns every leaf
// /Type /Page object, in the tree's left-to-right order. A node reached
// a second time returns a CircularReference error, and a tree nested
// deeper than maxPageTreeDepth returns a MaxDepthExceeded error.
func (d *Document) GetPages() ([]object.Ref, error) {
	cat, err := d.GetCatalog()
	if err != nil {
		return nil, err
	}
	pagesVal, ok := cat.Get("Pages")
	if !ok {
		return nil, newError(KindStructureError, fmt.Errorf("catalog missing /Pages"))
	}
	root, ok := pagesVal.(object.Ref)
	if !ok {
		return nil, newError(KindStructureError, fmt.Errorf("/Pages is not an indirect reference"))
	}

	var pages []object.Ref
	visited := map[uint32]bool{}
	var walk func(ref object.Ref, depth int) error
	walk = func(ref object.Ref, depth int) error {
		if depth > maxPageTreeDepth {
			return newError(KindMaxDepthExceeded, fmt.Errorf("page tree exceeds maximum depth %d", maxPageTreeDepth))
		}
		if visited[ref.Num] {
			return newError(KindCircularReference, fmt.Errorf("page tree cycle at object %d", ref.Num))
		}
		visited[ref.Num] = true

		obj, err := d.Resolve(ref)
		if err != nil {
			return err
		}
		node, ok := obj.(object.Dict)
		if !ok {
			return newError(KindStructureError, fmt.Errorf("page tree node %d is not a dictionary", ref.Num))
		}
		if typ, _ := node.GetName("Type"); typ == "Page" {
			pages = append(pages, ref)
			return nil
		}
		kids, _ := node.GetArray("Kids")
		for _, kid := range kids {
			kidRef, ok := kid.(object.Ref)
			if !ok {
				continue
			}
			if err := walk(kidRef, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root, 0); err != nil {
		return nil, err
	}
	return pages, nil
}

// maxPageTreeDepth bounds /Kids recursion against a maliciously or
// accidentally self-referential page tree.
const maxPageTreeDepth = 256

// GetPageCount returns the number of leaf pages in the document's page
// tree.
func (d *Document) GetPageCount() (int, error) {
	pages, err := d.GetPages()
	if err != nil {
		return 0, err
	}
	return len(pages), nil
}

// Warnings returns every recoverable problem accumulated while loading
// and resolving this document.
func (d *Document) Warnings() []string {
	all := append([]string{}, d.warnings...)
	if d.registry != nil {
		all = append(all, d.registry.Warnings()...)
	}
	return all
}

// Save writes the document out per opts, returning the resulting
// bytes.
func (d *Document) Save(opts SaveOptions) ([]byte, error) {
	if opts.Incremental && d.data == nil {
		d.warnings = append(d.warnings, "incremental save requires a document loaded from bytes; writing a complete save instead")
		opts.Incremental = false
	}
	if opts.Incremental && d.Linearized {
		d.warnings = append(d.warnings, "incremental save of a linearized document is not supported; writing a complete save instead")
		opts.Incremental = false
	}
	if opts.Incremental {
		out, err := pdfwrite.IncrementalSave(d.data, d.registry, pdfwrite.IncrementalSaveOptions{
			Root:            d.Root,
			Info:            d.Info,
			PrevXRef:        d.lastXRefOffset(),
			UseXRefStream:   opts.UseXRefStream,
			CompressStreams: opts.CompressStreams,
		})
		if err != nil {
			return nil, newError(KindWriterError, err)
		}
		d.registry.CommitAfterSave()
		return out, nil
	}

	out, err := pdfwrite.CompleteSave(d.registry, pdfwrite.CompleteSaveOptions{
		Version:         d.HeaderVersion,
		UseXRefStream:   opts.UseXRefStream,
		CompressStreams: opts.CompressStreams,
		Root:            d.Root,
		Info:            d.Info,
	})
	if err != nil {
		return nil, newError(KindWriterError, err)
	}
	d.registry.CommitAfterSave()
	return out, nil
}

func (d *Document) lastXRefOffset() int64 {
	off, err := xref.ParseStartXRef(d.data)
	if err != nil {
		return 0
	}
	return off
}
