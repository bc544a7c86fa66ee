// Package memory is the in-process declaration model. A compiler extension
// running inside the host process adds the unit's declarations directly and
// sees emitted declarations immediately.
package memory

import (
	"github.com/pkg/errors"

	"github.com/sghaida/odimerge/internal/decl"
)

// Model implements decl.Model over plain slices and maps.
type Model struct {
	unit      string
	unitDecls []*decl.Declaration
	byID      map[decl.ClassID]*decl.Declaration
	nested    map[decl.ClassID][]*decl.Declaration
	aliases   map[decl.ClassID]decl.ClassID
	emitted   int
}

var _ decl.Model = (*Model)(nil)

// New returns an empty model for the named unit. Builtin declarations are
// already on its classpath.
func New(unit string) *Model {
	m := &Model{
		unit:    unit,
		byID:    map[decl.ClassID]*decl.Declaration{},
		nested:  map[decl.ClassID][]*decl.Declaration{},
		aliases: map[decl.ClassID]decl.ClassID{},
	}
	for _, d := range decl.Builtins() {
		m.index(d)
	}
	return m
}

func (m *Model) index(d *decl.Declaration) {
	m.byID[d.ID] = d
	if outer, ok := d.ID.Outer(); ok {
		m.nested[outer] = append(m.nested[outer], d)
	}
}

// Add registers declarations of the current unit. Declarations with an empty
// Unit are stamped with the model's unit.
func (m *Model) Add(decls ...*decl.Declaration) *Model {
	for _, d := range decls {
		if d.Unit == "" {
			d.Unit = m.unit
		}
		m.unitDecls = append(m.unitDecls, d)
		m.index(d)
	}
	return m
}

// AddClasspath registers declarations compiled in other units.
func (m *Model) AddClasspath(decls ...*decl.Declaration) *Model {
	for _, d := range decls {
		m.index(d)
	}
	return m
}

// Alias makes alias resolve to target.
func (m *Model) Alias(alias, target decl.ClassID) *Model {
	m.aliases[alias] = target
	return m
}

func (m *Model) Unit() string { return m.unit }

func (m *Model) Annotated(annotation decl.ClassID) []*decl.Declaration {
	var out []*decl.Declaration
	for _, d := range m.unitDecls {
		for _, a := range d.Annotations {
			if m.Canonical(a.Class) == annotation {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

func (m *Model) Lookup(id decl.ClassID) (*decl.Declaration, bool) {
	d, ok := m.byID[m.Canonical(id)]
	return d, ok
}

func (m *Model) Nested(id decl.ClassID) []*decl.Declaration {
	return m.nested[m.Canonical(id)]
}

// Canonical follows alias chains. A cyclic chain resolves to the last class
// seen before the cycle closes.
func (m *Model) Canonical(id decl.ClassID) decl.ClassID {
	seen := map[decl.ClassID]bool{}
	for {
		target, ok := m.aliases[id]
		if !ok || seen[target] {
			return id
		}
		seen[id] = true
		id = target
	}
}

// Emit adds generated declarations to the unit. They are visible to the
// next query.
func (m *Model) Emit(decls ...*decl.Declaration) error {
	for _, d := range decls {
		if existing, ok := m.byID[d.ID]; ok {
			return errors.Errorf("memory: %s already declared in unit %s", d.ID, existing.Unit)
		}
		d.Unit = m.unit
		d.Generated = true
		m.unitDecls = append(m.unitDecls, d)
		m.index(d)
		m.emitted++
	}
	return nil
}

// Emitted counts declarations emitted so far.
func (m *Model) Emitted() int { return m.emitted }

// Declarations returns every declaration of the current unit, generated ones
// included, in order.
func (m *Model) Declarations() []*decl.Declaration {
	return append([]*decl.Declaration(nil), m.unitDecls...)
}
