package synth

import (
	"github.com/sghaida/odimerge/internal/decl"
	"github.com/sghaida/odimerge/internal/resolve"
)

// Synthesizer turns resolution results into declarations. It never emits
// them itself; the caller hands them to the model.
type Synthesizer struct {
	m     decl.Model
	namer Namer
}

// New returns a synthesizer that looks up classes in m and names what it
// generates with namer.
func New(m decl.Model, namer Namer) *Synthesizer {
	return &Synthesizer{m: m, namer: namer}
}

func (s *Synthesizer) Namer() Namer { return s.namer }

func (s *Synthesizer) generated(id decl.ClassID, kind decl.Kind, pos decl.Position) *decl.Declaration {
	return &decl.Declaration{
		ID:         id,
		Kind:       kind,
		Visibility: decl.Public,
		Pos:        pos,
		Unit:       s.m.Unit(),
		Generated:  true,
	}
}

// Module builds the module holding the binding methods of set. It returns
// nil when nothing needs a binding method.
func (s *Synthesizer) Module(set *resolve.ResolvedBindingSet) *decl.Declaration {
	if len(set.BindingMethods) == 0 && len(set.MultibindingMethods) == 0 {
		return nil
	}
	d := s.generated(s.namer.MergedModule(set.Request.Target), decl.KindAbstractClass, set.Request.Pos)
	d.Annotations = []decl.Annotation{decl.NewAnnotation(decl.Module)}

	used := map[string]bool{}
	for _, b := range set.BindingMethods {
		d.Functions = append(d.Functions, s.bindingMethod(b, used))
	}
	for _, b := range set.MultibindingMethods {
		d.Functions = append(d.Functions, s.bindingMethod(b, used))
	}
	return d
}

// bindingMethod builds a binds method, or a provides method returning the
// singleton when the contributing declaration is an object.
func (s *Synthesizer) bindingMethod(b resolve.BindingSpec, used map[string]bool) decl.Function {
	f := decl.Function{
		Name:       s.namer.BindingMethod(b.BoundType, b.Object, used),
		Returns:    b.BoundType,
		Visibility: decl.Public,
	}
	if b.Object {
		f.Annotations = append(f.Annotations, decl.NewAnnotation(decl.Provides))
	} else {
		f.Abstract = true
		f.Params = []decl.Param{{Name: s.namer.ParamName(b.Contributing), Type: decl.ClassType(b.Contributing)}}
		f.Annotations = append(f.Annotations, decl.NewAnnotation(decl.Binds))
	}
	if b.IsMultibinding {
		if b.MapKey != nil {
			f.Annotations = append(f.Annotations, decl.NewAnnotation(decl.IntoMap), *b.MapKey)
		} else {
			f.Annotations = append(f.Annotations, decl.NewAnnotation(decl.IntoSet))
		}
	}
	if b.Qualifier != nil {
		f.Annotations = append(f.Annotations, *b.Qualifier)
	}
	return f
}

// Target builds the declaration that merges everything resolved for the
// request into its target. module is the result of Module and may be nil.
func (s *Synthesizer) Target(set *resolve.ResolvedBindingSet, module *decl.Declaration) (*decl.Declaration, error) {
	req := set.Request
	target, err := decl.MustLookup(s.m, req.Target)
	if err != nil {
		return nil, err
	}

	modules := append([]decl.ClassID(nil), set.Modules...)
	if module != nil {
		modules = append(modules, module.ID)
	}

	d := s.generated(s.namer.MergedTarget(req.Target), decl.KindInterface, req.Pos)
	switch req.Mode {
	case resolve.ModeModuleList:
		d.Annotations = append(d.Annotations,
			decl.NewAnnotation(decl.Module, decl.NamedArg("includes", decl.ClassArray(modules...))))
		return d, nil
	case resolve.ModeComponent:
		d.Annotations = append(d.Annotations,
			decl.NewAnnotation(decl.Component, decl.NamedArg("modules", decl.ClassArray(modules...))))
	case resolve.ModeSubcomponent:
		d.Annotations = append(d.Annotations,
			decl.NewAnnotation(decl.Subcomponent, decl.NamedArg("modules", decl.ClassArray(modules...))))
	}
	if req.Mode != resolve.ModeInterfaceList {
		d.Annotations = append(d.Annotations, s.scopeAnnotations(target)...)
	}

	d.Supertypes = append(d.Supertypes, decl.ClassType(target.ID))
	for _, id := range set.Interfaces {
		if id == req.Target {
			continue
		}
		d.Supertypes = append(d.Supertypes, decl.ClassType(id))
	}
	return d, nil
}

// scopeAnnotations returns the scope annotations of d with class references
// canonicalized.
func (s *Synthesizer) scopeAnnotations(d *decl.Declaration) []decl.Annotation {
	var out []decl.Annotation
	for _, a := range d.Annotations {
		if decl.IsScope(s.m, a) {
			a = a.MapClasses(s.m.Canonical)
			a.Pos = decl.Position{}
			out = append(out, a)
		}
	}
	return out
}
