package decl

import (
	"github.com/pkg/errors"
)

// ErrUnknownClass is returned when a referenced class is neither in the unit
// nor on the classpath.
var ErrUnknownClass = errors.New("unknown class")

// Model is the seam between the merge engine and a host integration.
type Model interface {
	// Unit names the compilation unit being compiled.
	Unit() string

	// Annotated returns the declarations of the current unit carrying the
	// annotation, in declaration order. Declarations emitted in earlier
	// rounds are included once the model has made them visible.
	Annotated(annotation ClassID) []*Declaration

	// Lookup finds a declaration in the current unit or on the classpath.
	Lookup(id ClassID) (*Declaration, bool)

	// Nested returns the declarations directly nested in id, in declaration
	// order.
	Nested(id ClassID) []*Declaration

	// Canonical resolves aliases so that two references to the same class
	// compare equal.
	Canonical(id ClassID) ClassID

	// Emit hands synthesized declarations back to the host.
	Emit(decls ...*Declaration) error
}

// CanonicalType canonicalizes every class in t.
func CanonicalType(m Model, t Type) Type {
	if t.Param != "" {
		return t
	}
	out := Type{Class: m.Canonical(t.Class)}
	for _, a := range t.Args {
		out.Args = append(out.Args, CanonicalType(m, a))
	}
	return out
}

// DirectSupertypes returns the direct super types of d with Any removed.
func DirectSupertypes(m Model, d *Declaration) []Type {
	var out []Type
	for _, s := range d.Supertypes {
		s = CanonicalType(m, s)
		if s.Param == "" && s.Class == Any {
			continue
		}
		out = append(out, s)
	}
	return out
}

// AllSupertypes walks the super type graph breadth first. The result is
// deduplicated, excludes id itself and Any, and keeps first-seen order.
// Classes missing from the model end the walk on that branch.
func AllSupertypes(m Model, id ClassID) []ClassID {
	var out []ClassID
	seen := map[ClassID]bool{m.Canonical(id): true}
	queue := []ClassID{m.Canonical(id)}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d, ok := m.Lookup(cur)
		if !ok {
			continue
		}
		for _, s := range DirectSupertypes(m, d) {
			if s.Param != "" || seen[s.Class] {
				continue
			}
			seen[s.Class] = true
			out = append(out, s.Class)
			queue = append(queue, s.Class)
		}
	}
	return out
}

// IsSubclass reports whether sub is super or transitively extends it.
// Type arguments are not compared.
func IsSubclass(m Model, sub, super ClassID) bool {
	sub, super = m.Canonical(sub), m.Canonical(super)
	if sub == super || super == Any {
		return true
	}
	for _, s := range AllSupertypes(m, sub) {
		if s == super {
			return true
		}
	}
	return false
}

// hasMeta reports whether the annotation class is itself annotated with meta.
func hasMeta(m Model, annotation, meta ClassID) bool {
	d, ok := m.Lookup(m.Canonical(annotation))
	return ok && d.Has(meta)
}

func IsQualifier(m Model, a Annotation) bool { return hasMeta(m, a.Class, Qualifier) }
func IsMapKey(m Model, a Annotation) bool { return hasMeta(m, a.Class, MapKey) }
func IsScope(m Model, a Annotation) bool { return hasMeta(m, a.Class, ScopeMeta) }

// Qualifiers returns the qualifier annotations on d.
func Qualifiers(m Model, d *Declaration) []Annotation {
	var out []Annotation
	for _, a := range d.Annotations {
		if IsQualifier(m, a) {
			out = append(out, a)
		}
	}
	return out
}

// MapKeys returns the map key annotations on d.
func MapKeys(m Model, d *Declaration) []Annotation {
	var out []Annotation
	for _, a := range d.Annotations {
		if IsMapKey(m, a) {
			out = append(out, a)
		}
	}
	return out
}

// IsModule reports whether the class is a DI module declaration.
func IsModule(m Model, id ClassID) bool {
	d, ok := m.Lookup(m.Canonical(id))
	return ok && d.Has(Module)
}

// MustLookup is Lookup with an error naming the missing class.
func MustLookup(m Model, id ClassID) (*Declaration, error) {
	d, ok := m.Lookup(m.Canonical(id))
	if !ok {
		return nil, errors.Wrap(ErrUnknownClass, id.String())
	}
	return d, nil
}
