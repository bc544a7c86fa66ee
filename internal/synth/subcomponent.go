package synth

import (
	"github.com/pkg/errors"

	"github.com/sghaida/odimerge/internal/decl"
	"github.com/sghaida/odimerge/internal/resolve"
)

// Subcomponent builds the generated subcomponent of spec together with its
// nested parent component and, when the original declares one, its factory.
// spec must have been completed by the graph builder.
func (s *Synthesizer) Subcomponent(spec resolve.SubcomponentSpec) ([]*decl.Declaration, error) {
	if spec.GeneratedName.IsZero() || spec.ParentComponentInterface.IsZero() {
		return nil, errors.Errorf("subcomponent %s has no generated name", spec.Original)
	}
	original, err := decl.MustLookup(s.m, spec.Original)
	if err != nil {
		return nil, err
	}

	g := s.generated(spec.GeneratedName, decl.KindInterface, spec.Pos)
	g.Supertypes = []decl.Type{decl.ClassType(spec.Original)}

	merge := decl.NewAnnotation(decl.MergeSubcomponent, decl.NamedArg("scope", decl.ClassValue(spec.Scope)))
	if len(spec.Modules) > 0 {
		merge.Args = append(merge.Args, decl.NamedArg("modules", decl.ClassArray(spec.Modules...)))
	}
	if len(spec.Exclude) > 0 {
		merge.Args = append(merge.Args, decl.NamedArg("exclude", decl.ClassArray(spec.Exclude...)))
	}
	g.Annotations = append(g.Annotations, merge)
	g.Annotations = append(g.Annotations, s.scopeAnnotations(original)...)
	g.Annotations = append(g.Annotations,
		decl.NewAnnotation(decl.SubcomponentMarker, decl.NamedArg("originClass", decl.ClassValue(spec.Original))))

	out := []*decl.Declaration{g}

	accessorReturns := decl.ClassType(spec.GeneratedName)
	var factoryID *decl.ClassID
	if f := spec.Factory; f != nil {
		factoryID = &f.Original
		accessorReturns = decl.ClassType(f.Generated)
		out = append(out, s.factory(spec, f))
	}

	parent := s.generated(spec.ParentComponentInterface, decl.KindInterface, spec.Pos)
	contributes := decl.NewAnnotation(decl.ContributesTo, decl.NamedArg("scope", decl.ClassValue(spec.ParentScope)))
	accessor := decl.Function{
		Name:       s.namer.Accessor(spec.Original, factoryID),
		Returns:    accessorReturns,
		Abstract:   true,
		Visibility: decl.Public,
	}
	if !spec.ManualParent.IsZero() {
		parent.Supertypes = []decl.Type{decl.ClassType(spec.ManualParent)}
		contributes.Args = append(contributes.Args,
			decl.NamedArg("replaces", decl.ClassArray(spec.ManualParent)))
		if name, ok := s.manualAccessor(spec); ok {
			accessor.Name = name
		}
	}
	parent.Annotations = []decl.Annotation{contributes}
	parent.Functions = []decl.Function{accessor}
	out = append(out, parent)
	return out, nil
}

// manualAccessor finds the function of the manual parent interface that the
// generated accessor overrides: the one returning the original subcomponent
// or its factory.
func (s *Synthesizer) manualAccessor(spec resolve.SubcomponentSpec) (string, bool) {
	manual, ok := s.m.Lookup(spec.ManualParent)
	if !ok {
		return "", false
	}
	for _, f := range manual.Functions {
		if !f.Abstract {
			continue
		}
		returns := s.m.Canonical(f.Returns.Class)
		if returns == spec.Original || (spec.Factory != nil && returns == spec.Factory.Original) {
			return f.Name, true
		}
	}
	return "", false
}

// factory builds the generated factory. It overrides the single function of
// the original factory to return the generated subcomponent and is bound to
// the original factory in the parent scope.
func (s *Synthesizer) factory(spec resolve.SubcomponentSpec, f *resolve.FactorySpec) *decl.Declaration {
	d := s.generated(f.Generated, decl.KindInterface, spec.Pos)
	d.Supertypes = []decl.Type{decl.ClassType(f.Original)}
	d.Annotations = []decl.Annotation{
		decl.NewAnnotation(decl.SubcomponentFactory),
		decl.NewAnnotation(decl.ContributesBinding,
			decl.NamedArg("scope", decl.ClassValue(spec.ParentScope)),
			decl.NamedArg("boundType", decl.ClassValue(f.Original))),
	}
	fn := f.Function
	fn.Returns = decl.ClassType(spec.GeneratedName)
	fn.Abstract = true
	fn.Annotations = nil
	fn.Params = append([]decl.Param(nil), f.Function.Params...)
	d.Functions = []decl.Function{fn}
	return d
}
