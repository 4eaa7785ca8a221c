// Package intern implements the canonical string table: every user-visible
// string value in the language is reachable through it, and two interns of
// the same bytes return the identical *value.Obj so that string equality
// can be a pointer comparison (spec.md §3, "InternTable").
package intern

import "github.com/chazu/lumen/internal/value"

const (
	initialCapacity = 8
	maxLoadFactor   = 0.75
)

type entry struct {
	obj  *value.Obj
	used bool
	// tombstone marks a deleted-but-still-probed slot. The current surface
	// never deletes, but the slot exists per spec.md's InternTable note
	// that tombstones are "used for deletion but are not required by the
	// current surface."
	tombstone bool
}

// Table is an open-addressed hash table with linear probing, keyed by
// (hash, length, content) and storing the canonical *value.Obj for each
// distinct string.
type Table struct {
	entries []entry
	count   int // occupied (non-tombstone) slots
}

// New creates an empty intern table.
func New() *Table {
	return &Table{entries: make([]entry, initialCapacity)}
}

// fnv1a32 hashes a byte range with 32-bit FNV-1a, matching spec.md §4.2.
func fnv1a32(s string) uint32 {
	const (
		offsetBasis uint32 = 2166136261
		prime       uint32 = 16777619
	)
	h := offsetBasis
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}

// Copy hashes s, looks it up in the table, and returns the existing
// canonical object on a hit or inserts and returns a freshly allocated one
// on a miss. The returned *value.Obj is always already linked into the
// VM's object list by the caller (see internal/vm), matching the teacher's
// convention that allocation and list-linking are the caller's job.
func (t *Table) Copy(s string) (*value.Obj, bool) {
	hash := fnv1a32(s)
	if obj, ok := t.find(s, hash); ok {
		return obj, true
	}
	obj := &value.Obj{
		Kind: value.ObjKindString,
		Str:  value.ObjString{Chars: s, Hash: hash},
	}
	t.insert(obj)
	return obj, false
}

// Take is Copy's move variant: semantically identical for a Go string
// (which is already immutable and cheap to share), kept distinct per
// spec.md §4.2 so compiler and VM call sites can document intent — Copy
// for literals borrowed from source text, Take for strings already
// owned outright (e.g. a freshly built concatenation result).
func (t *Table) Take(s string) *value.Obj {
	obj, _ := t.Copy(s)
	return obj
}

func (t *Table) find(s string, hash uint32) (*value.Obj, bool) {
	if len(t.entries) == 0 {
		return nil, false
	}
	mask := uint32(len(t.entries) - 1)
	idx := hash & mask
	for {
		e := &t.entries[idx]
		if !e.used && !e.tombstone {
			return nil, false
		}
		if e.used && e.obj.Str.Hash == hash && e.obj.Str.Chars == s {
			return e.obj, true
		}
		idx = (idx + 1) & mask
	}
}

func (t *Table) insert(obj *value.Obj) {
	if float64(t.count+1) > float64(len(t.entries))*maxLoadFactor {
		t.rehash(len(t.entries) * 2)
	}
	mask := uint32(len(t.entries) - 1)
	idx := obj.Str.Hash & mask
	for t.entries[idx].used {
		idx = (idx + 1) & mask
	}
	t.entries[idx] = entry{obj: obj, used: true}
	t.count++
}

func (t *Table) rehash(newCap int) {
	old := t.entries
	t.entries = make([]entry, newCap)
	t.count = 0
	for _, e := range old {
		if e.used {
			t.insert(e.obj)
		}
	}
}

// Len reports the number of live (non-tombstone) interned strings.
func (t *Table) Len() int { return t.count }
