package contrib

import (
	"github.com/sghaida/odimerge/internal/decl"
	"github.com/sghaida/odimerge/internal/diag"
	"github.com/sghaida/odimerge/internal/hint"
)

// Contributing lists the annotations that make a declaration a contributor.
var Contributing = []decl.ClassID{
	decl.ContributesTo,
	decl.ContributesBinding,
	decl.ContributesMultibinding,
	decl.ContributesSubcomponent,
}

// Scanner extracts contributions from declarations of a model. All class
// references are canonicalized through the model before they are stored.
type Scanner struct {
	m decl.Model
}

// NewScanner returns a scanner over the declarations of m.
func NewScanner(m decl.Model) *Scanner { return &Scanner{m: m} }

// Contributors returns the declarations of the current unit carrying any
// contributing annotation, each once, in declaration order of first
// discovery.
func (s *Scanner) Contributors() []*decl.Declaration {
	var out []*decl.Declaration
	seen := map[decl.ClassID]bool{}
	for _, ann := range Contributing {
		for _, d := range s.m.Annotated(ann) {
			if seen[d.ID] {
				continue
			}
			seen[d.ID] = true
			out = append(out, d)
		}
	}
	return out
}

// ScanAll scans every declaration and stops at the first invalid one.
func (s *Scanner) ScanAll(decls []*decl.Declaration) ([]Contribution, error) {
	var out []Contribution
	for _, d := range decls {
		cs, err := s.Scan(d)
		if err != nil {
			return nil, err
		}
		out = append(out, cs...)
	}
	return out, nil
}

// Scan validates d and returns its contributions in annotation order, kind
// by kind.
func (s *Scanner) Scan(d *decl.Declaration) ([]Contribution, error) {
	found := map[decl.ClassID][]decl.Annotation{}
	contributes := false
	for _, a := range d.Annotations {
		class := s.m.Canonical(a.Class)
		for _, c := range Contributing {
			if class == c {
				found[c] = append(found[c], a)
				contributes = true
			}
		}
	}
	if !contributes {
		return nil, nil
	}
	if d.Visibility != decl.Public {
		return nil, diag.New(diag.KindUser, d, diag.NotPublic(d.ID))
	}

	var out []Contribution
	if anns := found[decl.ContributesTo]; len(anns) > 0 {
		cs, err := s.scanContributesTo(d, anns)
		if err != nil {
			return nil, err
		}
		out = append(out, cs...)
	}
	for _, kind := range []hint.Kind{hint.KindBinding, hint.KindMultibinding} {
		ann := decl.ContributesBinding
		if kind == hint.KindMultibinding {
			ann = decl.ContributesMultibinding
		}
		if anns := found[ann]; len(anns) > 0 {
			cs, err := s.scanBindings(d, kind, ann, anns)
			if err != nil {
				return nil, err
			}
			out = append(out, cs...)
		}
	}
	if anns := found[decl.ContributesSubcomponent]; len(anns) > 0 {
		cs, err := s.scanSubcomponents(d, anns)
		if err != nil {
			return nil, err
		}
		out = append(out, cs...)
	}
	return out, nil
}

func (s *Scanner) base(d *decl.Declaration, kind hint.Kind) Contribution {
	c := Contribution{
		Kind:        kind,
		Declaration: d.ID,
		Excludable:  true,
		Object:      d.IsObject(),
		Unit:        d.Unit,
		Pos:         d.Pos,
		Generated:   d.Generated,
	}
	if d.Generated {
		c.Origin = s.originOf(d)
	}
	return c
}

// originOf follows the generated-subcomponent marker of d or of any class
// enclosing it.
func (s *Scanner) originOf(d *decl.Declaration) decl.ClassID {
	for cur, ok := d, true; ok; {
		for _, a := range cur.Find(decl.SubcomponentMarker) {
			if id, found, err := a.ClassArg("originClass"); err == nil && found {
				return s.m.Canonical(id)
			}
		}
		outer, hasOuter := cur.ID.Outer()
		if !hasOuter {
			break
		}
		cur, ok = s.m.Lookup(outer)
	}
	return decl.ClassID{}
}

// scope reads the required scope argument of a contributing annotation.
func (s *Scanner) scope(d *decl.Declaration, a decl.Annotation, name string) (decl.ClassID, error) {
	id, ok, err := a.ClassArg(name)
	if err != nil {
		return decl.ClassID{}, diag.At(diag.KindUser, d.PositionOf(a), d.ID, err.Error())
	}
	if !ok {
		return decl.ClassID{}, diag.At(diag.KindUser, d.PositionOf(a), d.ID, diag.MissingScope(d.ID, a.Class))
	}
	return s.m.Canonical(id), nil
}

func (s *Scanner) classList(d *decl.Declaration, a decl.Annotation, name string) ([]decl.ClassID, error) {
	ids, err := a.ClassListArg(name)
	if err != nil {
		return nil, diag.At(diag.KindUser, d.PositionOf(a), d.ID, err.Error())
	}
	for i := range ids {
		ids[i] = s.m.Canonical(ids[i])
	}
	return ids, nil
}

func duplicates(ids []decl.ClassID) []decl.ClassID {
	var out []decl.ClassID
	count := map[decl.ClassID]int{}
	for _, id := range ids {
		count[id]++
		if count[id] == 2 {
			out = append(out, id)
		}
	}
	return out
}

func (s *Scanner) scanContributesTo(d *decl.Declaration, anns []decl.Annotation) ([]Contribution, error) {
	kind := hint.KindInterface
	switch {
	case d.Has(decl.Module):
		kind = hint.KindModule
	case d.IsInterface():
	default:
		return nil, diag.New(diag.KindUser, d, diag.ContributesToNotInterfaceOrModule(d.ID))
	}

	scopes := make([]decl.ClassID, 0, len(anns))
	for _, a := range anns {
		scope, err := s.scope(d, a, "scope")
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, scope)
	}
	if dups := duplicates(scopes); len(dups) > 0 {
		return nil, diag.New(diag.KindUser, d, diag.DuplicateScope(d.ID, dups))
	}

	out := make([]Contribution, 0, len(anns))
	for i, a := range anns {
		replaces, err := s.classList(d, a, "replaces")
		if err != nil {
			return nil, err
		}
		c := s.base(d, kind)
		c.Scope, c.Scopes, c.ScopeIndex = scopes[i], scopes, i
		c.Replaces = replaces
		out = append(out, c)
	}
	return out, nil
}

func (s *Scanner) scanBindings(d *decl.Declaration, kind hint.Kind, ann decl.ClassID, anns []decl.Annotation) ([]Contribution, error) {
	qualifiers := decl.Qualifiers(s.m, d)
	if len(qualifiers) > 1 {
		return nil, diag.New(diag.KindUser, d, diag.MultipleQualifiers())
	}
	var qualifier *decl.Annotation
	if len(qualifiers) == 1 {
		q := s.canonicalAnnotation(qualifiers[0])
		qualifier = &q
	}

	var mapKey *decl.Annotation
	if kind == hint.KindMultibinding {
		keys := decl.MapKeys(s.m, d)
		if len(keys) > 1 {
			return nil, diag.New(diag.KindUser, d, diag.MultipleMapKeys(ann))
		}
		if len(keys) == 1 {
			k := s.canonicalAnnotation(keys[0])
			mapKey = &k
		}
	}

	scopes := make([]decl.ClassID, 0, len(anns))
	for _, a := range anns {
		scope, err := s.scope(d, a, "scope")
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, scope)
	}

	out := make([]Contribution, 0, len(anns))
	for i, a := range anns {
		c := s.base(d, kind)
		c.Scope, c.Scopes, c.ScopeIndex = scopes[i], scopes, i
		c.Qualifier = qualifier
		c.MapKey = mapKey

		bound, implied, err := s.boundType(d, ann, a)
		if err != nil {
			return nil, err
		}
		c.BoundType, c.BoundTypeImplied = bound, implied

		if c.IgnoreQualifier, err = a.BoolArg("ignoreQualifier", false); err != nil {
			return nil, diag.At(diag.KindUser, d.PositionOf(a), d.ID, err.Error())
		}
		if kind == hint.KindBinding {
			name, _, err := a.EnumArg("priority")
			if err != nil {
				return nil, diag.At(diag.KindUser, d.PositionOf(a), d.ID, err.Error())
			}
			p, ok := ParsePriority(name)
			if !ok {
				return nil, diag.At(diag.KindUser, d.PositionOf(a), d.ID, diag.UnknownPriority(d.ID, name))
			}
			c.Priority = p
		}
		if c.Replaces, err = s.classList(d, a, "replaces"); err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	if err := checkDuplicateScopeAndBoundType(d, out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkDuplicateScopeAndBoundType rejects two instances that would produce
// the same binding: same scope, same effective qualifier, same bound type.
func checkDuplicateScopeAndBoundType(d *decl.Declaration, cs []Contribution) error {
	type key struct {
		scope     decl.ClassID
		qualifier string
		bound     string
	}
	seen := map[key]bool{}
	var dups []decl.ClassID
	for _, c := range cs {
		k := key{scope: c.Scope, qualifier: c.QualifierKey(), bound: c.BoundType.String()}
		if seen[k] {
			dups = append(dups, c.BoundType.Class)
		}
		seen[k] = true
	}
	if len(dups) > 0 {
		return diag.New(diag.KindUser, d, diag.DuplicateScopeAndBoundType(d.ID, dups))
	}
	return nil
}

// boundType returns the explicit bound type or infers it from the single
// direct super type, then checks it is concrete and actually a super type.
func (s *Scanner) boundType(d *decl.Declaration, ann decl.ClassID, a decl.Annotation) (decl.Type, bool, error) {
	pos := d.PositionOf(a)
	var bound decl.Type
	explicit, ok, err := a.ClassArg("boundType")
	if err != nil {
		return decl.Type{}, false, diag.At(diag.KindUser, pos, d.ID, err.Error())
	}
	implied := !ok
	if ok {
		bound = decl.ClassType(s.m.Canonical(explicit))
		if bd, found := s.m.Lookup(bound.Class); found && len(bd.TypeParams) > 0 {
			return decl.Type{}, false, diag.At(diag.KindUser, pos, d.ID,
				diag.TypeParameterBinding(d.ID, bound, bd.TypeParams))
		}
	} else {
		supers := decl.DirectSupertypes(s.m, d)
		if len(supers) != 1 {
			return decl.Type{}, false, diag.At(diag.KindUser, pos, d.ID, diag.MissingBoundType(d.ID, ann))
		}
		bound = supers[0]
		if params := bound.TypeParams(); len(params) > 0 {
			return decl.Type{}, false, diag.At(diag.KindUser, pos, d.ID,
				diag.TypeParameterBinding(d.ID, bound, params))
		}
	}
	if !decl.IsSubclass(s.m, d.ID, bound.Class) {
		return decl.Type{}, false, diag.At(diag.KindUser, pos, d.ID, diag.NotSubtype(d.ID, bound))
	}
	return bound, implied, nil
}

func (s *Scanner) scanSubcomponents(d *decl.Declaration, anns []decl.Annotation) ([]Contribution, error) {
	parents := make([]decl.ClassID, 0, len(anns))
	for _, a := range anns {
		parent, err := s.scope(d, a, "parentScope")
		if err != nil {
			return nil, err
		}
		parents = append(parents, parent)
	}
	if dups := duplicates(parents); len(dups) > 0 {
		return nil, diag.New(diag.KindUser, d, diag.DuplicateScope(d.ID, dups))
	}

	out := make([]Contribution, 0, len(anns))
	for i, a := range anns {
		own, err := s.scope(d, a, "scope")
		if err != nil {
			return nil, err
		}
		info := &SubcomponentInfo{Scope: own}
		if info.Modules, err = s.classList(d, a, "modules"); err != nil {
			return nil, err
		}
		if info.Exclude, err = s.classList(d, a, "exclude"); err != nil {
			return nil, err
		}
		c := s.base(d, hint.KindSubcomponent)
		c.Scope, c.Scopes, c.ScopeIndex = parents[i], parents, i
		c.Subcomponent = info
		if c.Replaces, err = s.classList(d, a, "replaces"); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// canonicalAnnotation strips the position and canonicalizes every class
// reference so the annotation compares equal across units.
func (s *Scanner) canonicalAnnotation(a decl.Annotation) decl.Annotation {
	out := a.MapClasses(s.m.Canonical)
	out.Pos = decl.Position{}
	return out
}
