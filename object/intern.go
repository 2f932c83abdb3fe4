package object

import "sync"

// internTable deduplicates Name values across a process, the way the
// teacher's model.Name (a bare Go string) already benefits from Go's
// string interning for identical literals; dictionary keys parsed at
// runtime do not get that for free, so documents with many repeated
// keys (Type, Subtype, Filter, ...) benefit from an explicit table.
var internTable = struct {
	sync.RWMutex
	m map[string]Name
}{m: make(map[string]Name, 256)}

// Intern returns a canonical Name value equal to s, reusing a
// previously interned instance when one exists.
func Intern(s string) Name {
	internTable.RLock()
	n, ok := internTable.m[s]
	internTable.RUnlock()
	if ok {
		return n
	}

	internTable.Lock()
	defer internTable.Unlock()
	if n, ok := internTable.m[s]; ok {
		return n
	}
	n = Name(s)
	internTable.m[s] = n
	return n
}
