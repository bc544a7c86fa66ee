package manifest

import (
	"context"

	"github.com/pkg/errors"
	"github.com/viant/afs"

	"github.com/sghaida/odimerge/internal/decl"
)

// Model implements decl.Model with symbol-processing visibility: Emit only
// stages declarations, NextRound publishes them.
type Model struct {
	unit    string
	visible []*decl.Declaration
	pending []*decl.Declaration
	byID    map[decl.ClassID]*decl.Declaration
	nested  map[decl.ClassID][]*decl.Declaration
	aliases map[decl.ClassID]decl.ClassID
	round   int
}

var _ decl.Model = (*Model)(nil)

// NewModel builds a model for unit from its manifests.
func NewModel(unit string, files ...*File) (*Model, error) {
	m := &Model{
		unit:    unit,
		byID:    map[decl.ClassID]*decl.Declaration{},
		nested:  map[decl.ClassID][]*decl.Declaration{},
		aliases: map[decl.ClassID]decl.ClassID{},
		round:   1,
	}
	for _, d := range decl.Builtins() {
		m.index(d)
	}
	for _, f := range files {
		decls, err := f.ToDecls(unit)
		if err != nil {
			return nil, err
		}
		if err := m.addAliases(f); err != nil {
			return nil, err
		}
		for _, d := range decls {
			if err := m.add(d); err != nil {
				return nil, err
			}
			m.visible = append(m.visible, d)
		}
	}
	return m, nil
}

// AddClasspath registers the public declarations of upstream units.
func (m *Model) AddClasspath(files ...*File) error {
	for _, f := range files {
		decls, err := f.ToDecls("")
		if err != nil {
			return err
		}
		if err := m.addAliases(f); err != nil {
			return err
		}
		for _, d := range decls {
			if err := m.add(d); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Model) addAliases(f *File) error {
	for alias, target := range f.Aliases {
		a, t := decl.ParseClassID(alias), decl.ParseClassID(target)
		if prev, ok := m.aliases[a]; ok && prev != t {
			return errors.Errorf("alias %s maps to both %s and %s", a, prev, t)
		}
		m.aliases[a] = t
	}
	return nil
}

func (m *Model) add(d *decl.Declaration) error {
	if existing, ok := m.byID[d.ID]; ok && existing.Unit != "builtin" {
		return errors.Errorf("%s declared by both %s and %s", d.ID, existing.Unit, d.Unit)
	}
	m.index(d)
	return nil
}

func (m *Model) index(d *decl.Declaration) {
	m.byID[d.ID] = d
	if outer, ok := d.ID.Outer(); ok {
		m.nested[outer] = append(m.nested[outer], d)
	}
}

func (m *Model) Unit() string { return m.unit }

// Round is the 1-based number of the current round.
func (m *Model) Round() int { return m.round }

func (m *Model) Annotated(annotation decl.ClassID) []*decl.Declaration {
	var out []*decl.Declaration
	for _, d := range m.visible {
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

// Emit serializes the declarations and stages what reads back. Nothing is
// visible until NextRound.
func (m *Model) Emit(decls ...*decl.Declaration) error {
	for _, d := range decls {
		d.Generated = true
	}
	data, err := Marshal(FromDecls(m.unit, decls))
	if err != nil {
		return err
	}
	f, err := Decode(data)
	if err != nil {
		return err
	}
	staged, err := f.ToDecls(m.unit)
	if err != nil {
		return err
	}
	for _, d := range staged {
		if _, ok := m.byID[d.ID]; ok {
			return errors.Errorf("manifest: %s already declared", d.ID)
		}
		for _, p := range m.pending {
			if p.ID == d.ID {
				return errors.Errorf("manifest: %s emitted twice in round %d", d.ID, m.round)
			}
		}
	}
	m.pending = append(m.pending, staged...)
	return nil
}

// NextRound publishes staged declarations and returns them. It reports false
// when nothing was staged, which is when a symbol processing host stops
// invoking processors.
func (m *Model) NextRound() ([]*decl.Declaration, bool) {
	if len(m.pending) == 0 {
		return nil, false
	}
	published := m.pending
	m.pending = nil
	for _, d := range published {
		m.index(d)
		m.visible = append(m.visible, d)
	}
	m.round++
	return published, true
}

// Declarations returns the visible declarations of the current unit.
func (m *Model) Declarations() []*decl.Declaration {
	return append([]*decl.Declaration(nil), m.visible...)
}

// Generated returns the visible declarations produced by this tool.
func (m *Model) Generated() []*decl.Declaration {
	var out []*decl.Declaration
	for _, d := range m.visible {
		if d.Generated {
			out = append(out, d)
		}
	}
	return out
}

// Load reads and decodes manifests from storage URLs, in order.
func Load(ctx context.Context, fs afs.Service, URLs ...string) ([]*File, error) {
	files := make([]*File, 0, len(URLs))
	for _, URL := range URLs {
		data, err := fs.DownloadWithURL(ctx, URL)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to download manifest %v", URL)
		}
		f, err := Decode(data)
		if err != nil {
			return nil, errors.Wrapf(err, "manifest %v", URL)
		}
		files = append(files, f)
	}
	return files, nil
}
