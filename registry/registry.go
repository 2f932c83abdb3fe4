// Package registry implements the object registry: the resolver and
// mutation-tracking layer sitting between the cross-reference table
// and a document's public API. It lazily loads objects on first
// access, caches them, and tracks which are new or modified so a save
// can decide what to write.
package registry

import (
	"fmt"

	"github.com/arnovale/pdfcore/crypt"
	"github.com/arnovale/pdfcore/filter"
	"github.com/arnovale/pdfcore/object"
	"github.com/arnovale/pdfcore/parse"
	"github.com/arnovale/pdfcore/token"
	"github.com/arnovale/pdfcore/xref"
)

// ErrCircularReference reports an object number re-entered while it is
// still being resolved. GetObject stores a null stand-in in the cache
// before recursing, so a re-entry through the object's own content
// returns that null and GetObject does not return this error.
type ErrCircularReference struct{ Num uint32 }

func (e ErrCircularReference) Error() string {
	return fmt.Sprintf("registry: circular reference while resolving object %d", e.Num)
}

// Registry is the in-memory object store for one document.
type Registry struct {
	data []byte // the source file, for lazily-resolved entries; nil for a document built from scratch

	xref map[uint32]xref.Entry
	cache map[uint32]object.Object
	objStreamCache map[uint32][]parse.ObjectStreamEntry

	new   map[uint32]object.Object
	dirty map[uint32]bool

	// newGen records the generation a number was (re)assigned at,
	// for numbers allocated or reused by Register. Absent for numbers
	// untouched since load, whose generation is read straight off the
	// original xref entry.
	newGen map[uint32]uint16

	resolving map[uint32]bool

	nextObjectNumber uint32

	security *crypt.StandardSecurityHandler

	warnings []string
}

// New creates a Registry over a parsed cross-reference table and the
// raw file bytes it was parsed from.
func New(data []byte, table xref.Table, security *crypt.StandardSecurityHandler) *Registry {
	r := &Registry{
		data:           data,
		xref:           table.Entries,
		cache:          map[uint32]object.Object{},
		objStreamCache: map[uint32][]parse.ObjectStreamEntry{},
		new:            map[uint32]object.Object{},
		dirty:          map[uint32]bool{},
		newGen:         map[uint32]uint16{},
		resolving:      map[uint32]bool{},
		security:       security,
		// object number 0 is reserved for the head of the free list
		nextObjectNumber: 1,
	}
	for n := range table.Entries {
		if n >= r.nextObjectNumber {
			r.nextObjectNumber = n + 1
		}
	}
	return r
}

// Warnings returns the accumulated list of recoverable problems
// encountered while resolving objects.
func (r *Registry) Warnings() []string { return r.warnings }

func (r *Registry) warn(format string, args ...interface{}) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// Resolve follows o if it is a Ref, returning the direct object it
// points to (object.Null{} if undefined, per the format's rule that a
// dangling reference is not an error). Non-Ref objects are returned
// unchanged.
func (r *Registry) Resolve(o object.Object) (object.Object, error) {
	ref, ok := o.(object.Ref)
	if !ok {
		return o, nil
	}
	return r.GetObject(ref.Num)
}

// GetObject resolves object number num, loading and caching it on
// first access.
func (r *Registry) GetObject(num uint32) (object.Object, error) {
	if v, ok := r.new[num]; ok {
		return v, nil
	}
	if v, ok := r.cache[num]; ok {
		return v, nil
	}
	entry, ok := r.xref[num]
	if !ok || entry.Kind == xref.Free {
		return object.Null{}, nil
	}
	if r.resolving[num] {
		return nil, ErrCircularReference{Num: num}
	}
	r.resolving[num] = true
	// Stand in a null value before recursing so a cycle reached through
	// this object's own content resolves to null instead of looping.
	r.cache[num] = object.Null{}
	defer delete(r.resolving, num)

	var val object.Object
	var err error
	if entry.Kind == xref.Compressed {
		val, err = r.resolveCompressed(entry)
	} else {
		val, err = r.resolveDirect(num, entry)
	}
	if err != nil {
		return nil, err
	}
	r.cache[num] = val
	return val, nil
}

func (r *Registry) resolveCompressed(entry xref.Entry) (object.Object, error) {
	entries, ok := r.objStreamCache[entry.StreamNum]
	if !ok {
		streamObj, err := r.GetObject(entry.StreamNum)
		if err != nil {
			return nil, err
		}
		st, ok := streamObj.(object.Stream)
		if !ok {
			return nil, fmt.Errorf("registry: object %d is not an object stream", entry.StreamNum)
		}
		n, _ := st.Dict.GetInt("N")
		first, _ := st.Dict.GetInt("First")
		content, err := filter.DecodeStream(st)
		if err != nil {
			return nil, err
		}
		entries, err = parse.ParseObjectStream(content, int(n), int(first))
		if err != nil {
			return nil, err
		}
		r.objStreamCache[entry.StreamNum] = entries
	}
	if entry.StreamIndex < 0 || entry.StreamIndex >= len(entries) {
		return nil, fmt.Errorf("registry: object stream index %d out of range", entry.StreamIndex)
	}
	return entries[entry.StreamIndex].Value, nil
}

func (r *Registry) resolveDirect(num uint32, entry xref.Entry) (object.Object, error) {
	sc := token.New(r.data)
	sc.Seek(int(entry.Offset))
	io, err := parse.ParseIndirectObject(sc, parse.Lenient, r.resolveLength)
	if err != nil {
		return nil, fmt.Errorf("registry: object %d: %w", num, err)
	}
	if io.Num != num {
		r.warn("object %d declared at its xref offset as %d %d obj", num, io.Num, io.Gen)
	}

	val := io.Value
	if st, ok := val.(object.Stream); ok {
		if r.security != nil && !bypassesEncryption(st.Dict) {
			raw, err := r.security.Decrypt(st.Raw, num, entry.Gen)
			if err == nil {
				st.Raw = raw
			}
		}
		val = st
	} else if r.security != nil {
		val = r.decryptStrings(val, num, entry.Gen)
	}
	return val, nil
}

func bypassesEncryption(d object.Dict) bool {
	if n, ok := d.GetName("Type"); ok && n == "XRef" {
		return true
	}
	if names, ok := d.GetArray("Filter"); ok {
		for _, f := range names {
			if n, ok := f.(object.Name); ok && n == "Crypt" {
				return true
			}
		}
	}
	if n, ok := d.GetName("Filter"); ok && n == "Crypt" {
		return true
	}
	return false
}

// decryptStrings recursively decrypts every String leaf in o.
func (r *Registry) decryptStrings(o object.Object, num uint32, gen uint16) object.Object {
	switch v := o.(type) {
	case object.String:
		dec, err := r.security.Decrypt(v.Bytes, num, gen)
		if err != nil {
			return v
		}
		return object.String{Bytes: dec, Format: v.Format}
	case object.Array:
		out := make(object.Array, len(v))
		for i, el := range v {
			out[i] = r.decryptStrings(el, num, gen)
		}
		return out
	case object.Dict:
		var out object.Dict
		for _, e := range v.Entries() {
			out.Set(e.Key, r.decryptStrings(e.Value, num, gen))
		}
		return out
	default:
		return o
	}
}

func (r *Registry) resolveLength(o object.Object) (int64, bool) {
	ref, ok := o.(object.Ref)
	if !ok {
		return 0, false
	}
	v, err := r.GetObject(ref.Num)
	if err != nil {
		return 0, false
	}
	n, ok := v.(object.Number)
	if !ok {
		return 0, false
	}
	return n.Int64(), true
}

// Register returns the indirect reference registered for obj, registering
// it as a new object. If a previously-freed object number is available
// it is reused with its generation bumped by one, the free-list
// convention the format relies on to let readers detect stale
// references through an object number that has since been recycled;
// otherwise the next unused object number is allocated at generation 0.
// Used by callers that build up a document tree of Go values and need
// to emit "N G R" when writing.
func (r *Registry) Register(obj object.Object) object.Ref {
	for n, e := range r.xref {
		if _, taken := r.newGen[n]; n != 0 && !taken && e.Kind == xref.Free && e.Gen < 0xFFFF && !r.IsDirty(n) {
			gen := e.Gen + 1
			r.new[n] = obj
			r.newGen[n] = gen
			r.dirty[n] = true
			return object.Ref{Num: n, Gen: gen}
		}
	}
	num := r.nextObjectNumber
	r.nextObjectNumber++
	r.new[num] = obj
	r.newGen[num] = 0
	r.dirty[num] = true
	return object.Ref{Num: num, Gen: 0}
}

// ObjectGeneration returns the generation currently assigned to object
// number num: the generation it was (re)registered at if this session
// allocated or reused it, otherwise the generation recorded in the
// original cross-reference table, or 0 for a number the registry has
// never heard of.
func (r *Registry) ObjectGeneration(num uint32) uint16 {
	if g, ok := r.newGen[num]; ok {
		return g
	}
	if e, ok := r.xref[num]; ok {
		return e.Gen
	}
	return 0
}

// Set replaces the value stored for an existing object number and
// marks it dirty, for incremental-save purposes.
func (r *Registry) Set(num uint32, obj object.Object) {
	if _, isNew := r.new[num]; isNew {
		r.new[num] = obj
	} else {
		r.cache[num] = obj
	}
	r.dirty[num] = true
}

// IsDirty reports whether num has been modified since load (or is new).
func (r *Registry) IsDirty(num uint32) bool { return r.dirty[num] }

// IsNew reports whether num was allocated by this session rather than
// read from the source file.
func (r *Registry) IsNew(num uint32) bool {
	_, ok := r.new[num]
	return ok
}

// DirtyObjects returns every new-or-modified object number, in
// ascending order, for the writer's incremental-save append list.
func (r *Registry) DirtyObjects() []uint32 {
	out := make([]uint32, 0, len(r.dirty))
	for n, d := range r.dirty {
		if d {
			out = append(out, n)
		}
	}
	sortUint32(out)
	return out
}

// AllObjects returns every live (non-free) object number known to the
// registry, from both the original xref table and newly registered
// objects, in ascending order. Used as the object list of a complete
// save and by tests.
func (r *Registry) AllObjects() []uint32 {
	seen := map[uint32]bool{}
	var out []uint32
	for n, e := range r.xref {
		if e.Kind == xref.Free {
			continue
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for n := range r.new {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sortUint32(out)
	return out
}

// CommitAfterSave clears the dirty set once a save has durably
// persisted every marked object, folding newly-registered objects into
// the regular resolved cache so a subsequent incremental save starts
// clean.
func (r *Registry) CommitAfterSave() {
	for num, obj := range r.new {
		r.cache[num] = obj
	}
	r.new = map[uint32]object.Object{}
	r.dirty = map[uint32]bool{}
}

func sortUint32(s []uint32) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
