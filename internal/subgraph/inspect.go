package subgraph

import (
	"github.com/sghaida/odimerge/internal/decl"
	"github.com/sghaida/odimerge/internal/diag"
	"github.com/sghaida/odimerge/internal/resolve"
)

// complete fills in the generated names of spec and validates the factory
// and the manual parent component declared inside the original.
func (g *Graph) complete(spec *resolve.SubcomponentSpec) error {
	namer := g.synth.Namer()
	spec.GeneratedName = namer.Subcomponent(spec.Parent, spec.Original)
	spec.ParentComponentInterface = namer.ParentComponent(spec.GeneratedName)

	original, err := decl.MustLookup(g.m, spec.Original)
	if err != nil {
		return err
	}
	factory, err := g.factory(original)
	if err != nil {
		return err
	}
	if factory != nil {
		factory.Generated = namer.Factory(spec.GeneratedName)
		spec.Factory = factory
	}
	manual, err := g.manualParent(original, spec)
	if err != nil {
		return err
	}
	if manual != nil {
		spec.ManualParent = manual.ID
	}
	return nil
}

func (g *Graph) nestedWith(outer decl.ClassID, annotation decl.ClassID) []*decl.Declaration {
	var out []*decl.Declaration
	for _, d := range g.m.Nested(outer) {
		for _, a := range d.Annotations {
			if g.m.Canonical(a.Class) == annotation {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// factory returns the validated factory of original, or nil when it has
// none.
func (g *Graph) factory(original *decl.Declaration) (*resolve.FactorySpec, error) {
	factories := g.nestedWith(original.ID, decl.ContributesSubcomponentFactory)
	switch len(factories) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, diag.New(diag.KindUser, original, diag.MultipleFactories(original.ID))
	}

	f := factories[0]
	if !f.IsInterface() && !f.IsAbstract() {
		return nil, diag.New(diag.KindUser, f, diag.FactoryNotAbstract())
	}
	var abstract []decl.Function
	for _, fn := range f.Functions {
		if fn.Abstract {
			abstract = append(abstract, fn)
		}
	}
	if len(abstract) != 1 || g.m.Canonical(abstract[0].Returns.Class) != original.ID {
		return nil, diag.New(diag.KindUser, f, diag.FactoryFunctionCount(original.ID))
	}
	return &resolve.FactorySpec{Original: f.ID, Function: abstract[0]}, nil
}

// manualParent returns the interface nested in original that is contributed
// to the parent scope, or nil when there is none.
func (g *Graph) manualParent(original *decl.Declaration, spec *resolve.SubcomponentSpec) (*decl.Declaration, error) {
	var candidates []*decl.Declaration
	for _, d := range g.nestedWith(original.ID, decl.ContributesTo) {
		if !d.IsInterface() {
			continue
		}
		for _, a := range d.Annotations {
			if g.m.Canonical(a.Class) != decl.ContributesTo {
				continue
			}
			if scope, ok, err := a.ClassArg("scope"); err == nil && ok && g.m.Canonical(scope) == spec.ParentScope {
				candidates = append(candidates, d)
				break
			}
		}
	}
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, diag.New(diag.KindUser, original, diag.MultipleParentComponents(original.ID))
	}

	p := candidates[0]
	returning := 0
	for _, fn := range p.Functions {
		if !fn.Abstract {
			continue
		}
		r := g.m.Canonical(fn.Returns.Class)
		if r == original.ID || (spec.Factory != nil && r == spec.Factory.Original) {
			returning++
		}
	}
	if returning > 1 {
		return nil, diag.New(diag.KindUser, p, diag.MultipleParentFunctions(original.ID))
	}
	return p, nil
}
