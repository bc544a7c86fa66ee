package hint

import (
	"reflect"

	"github.com/sghaida/odimerge/internal/decl"
)

// Index maps scopes to records. It is built once per compilation from the
// upstream artifacts and only ever appended to afterwards.
type Index struct {
	records []*Record
	byScope map[decl.ClassID][]*Record
	byKey   map[string]*Record
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		byScope: map[decl.ClassID][]*Record{},
		byKey:   map[string]*Record{},
	}
}

// Add appends records. Adding a record identical to one already present is a
// no-op, so recompiling the same unit is idempotent. A different record under
// an existing key is an artifact conflict.
func (ix *Index) Add(records ...*Record) error {
	for _, r := range records {
		key := r.Key()
		if existing, ok := ix.byKey[key]; ok {
			if sameContent(existing, r) {
				continue
			}
			return &ArtifactError{
				URL: r.Source(),
				Key: key,
				Err: errConflict(existing.Source()),
			}
		}
		ix.byKey[key] = r
		ix.records = append(ix.records, r)
		seen := map[decl.ClassID]bool{}
		for _, scope := range r.Scopes() {
			if seen[scope] {
				continue
			}
			seen[scope] = true
			ix.byScope[scope] = append(ix.byScope[scope], r)
		}
	}
	return nil
}

func sameContent(a, b *Record) bool {
	ca, cb := *a, *b
	ca.Artifact, cb.Artifact = "", ""
	return reflect.DeepEqual(ca, cb)
}

// ForScope returns the records contributing to scope, in insertion order.
func (ix *Index) ForScope(scope decl.ClassID) []*Record {
	return ix.byScope[scope]
}

// ForKind returns every record of a kind, in insertion order.
func (ix *Index) ForKind(kind Kind) []*Record {
	var out []*Record
	for _, r := range ix.records {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Lookup finds a record by key.
func (ix *Index) Lookup(key string) (*Record, bool) {
	r, ok := ix.byKey[key]
	return r, ok
}

// Records returns every record in insertion order.
func (ix *Index) Records() []*Record {
	return append([]*Record(nil), ix.records...)
}

// Len is the number of distinct records.
func (ix *Index) Len() int { return len(ix.records) }
