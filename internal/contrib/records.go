package contrib

import (
	"github.com/pkg/errors"

	"github.com/sghaida/odimerge/internal/decl"
	"github.com/sghaida/odimerge/internal/decl/manifest"
	"github.com/sghaida/odimerge/internal/hint"
)

// ToRecords folds contributions into one record per declaration and kind,
// keeping the order in which declarations were first seen.
func ToRecords(cs []Contribution) []*hint.Record {
	type key struct {
		id   decl.ClassID
		kind hint.Kind
	}
	var out []*hint.Record
	byKey := map[key]*hint.Record{}
	for i := range cs {
		c := &cs[i]
		k := key{id: c.Declaration, kind: c.Kind}
		r, ok := byKey[k]
		if !ok {
			r = &hint.Record{
				Version:     hint.FormatVersion,
				Kind:        c.Kind,
				Declaration: c.Declaration.String(),
				Unit:        c.Unit,
				Object:      c.Object,
				Generated:   c.Generated,
			}
			if c.Pos.IsValid() {
				r.Pos = c.Pos.String()
			}
			if !c.Origin.IsZero() {
				r.Origin = c.Origin.String()
			}
			if c.Qualifier != nil {
				q := manifest.FromAnnotation(*c.Qualifier)
				r.Qualifier = &q
			}
			if c.MapKey != nil {
				mk := manifest.FromAnnotation(*c.MapKey)
				r.MapKey = &mk
			}
			byKey[k] = r
			out = append(out, r)
		}
		r.Entries = append(r.Entries, toEntry(c))
	}
	return out
}

func toEntry(c *Contribution) hint.Entry {
	e := hint.Entry{
		Scope:    c.Scope.String(),
		Replaces: classStrings(c.Replaces),
	}
	if c.IsBinding() {
		e.BoundType = c.BoundType.String()
		e.BoundTypeImplied = c.BoundTypeImplied
		e.IgnoreQualifier = c.IgnoreQualifier
	}
	if c.Kind == hint.KindBinding {
		e.Priority = c.Priority.String()
	}
	if c.Subcomponent != nil {
		e.SubcomponentScope = c.Subcomponent.Scope.String()
		e.Modules = classStrings(c.Subcomponent.Modules)
		e.Exclude = classStrings(c.Subcomponent.Exclude)
	}
	return e
}

func classStrings(ids []decl.ClassID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func classIDs(ss []string) []decl.ClassID {
	if len(ss) == 0 {
		return nil
	}
	out := make([]decl.ClassID, len(ss))
	for i, s := range ss {
		out[i] = decl.ParseClassID(s)
	}
	return out
}

// FromRecord reconstructs the contributions of a record. Anything that does
// not decode is an artifact error naming where the record came from.
func FromRecord(r *hint.Record) ([]Contribution, error) {
	fail := func(err error) error {
		return &hint.ArtifactError{URL: r.Source(), Key: r.Key(), Err: err}
	}
	if err := r.Validate(); err != nil {
		return nil, fail(err)
	}

	base := Contribution{
		Kind:        r.Kind,
		Declaration: r.ID(),
		Scopes:      r.Scopes(),
		Excludable:  true,
		Object:      r.Object,
		Unit:        r.Unit,
		Generated:   r.Generated,
	}
	if r.Origin != "" {
		base.Origin = decl.ParseClassID(r.Origin)
	}
	if r.Pos != "" {
		pos, err := manifest.ParsePosition(r.Pos)
		if err != nil {
			return nil, fail(err)
		}
		base.Pos = pos
	}
	if r.Qualifier != nil {
		q, err := r.Qualifier.ToDecl()
		if err != nil {
			return nil, fail(errors.Wrap(hint.ErrMalformed, err.Error()))
		}
		base.Qualifier = &q
	}
	if r.MapKey != nil {
		mk, err := r.MapKey.ToDecl()
		if err != nil {
			return nil, fail(errors.Wrap(hint.ErrMalformed, err.Error()))
		}
		base.MapKey = &mk
	}

	out := make([]Contribution, 0, len(r.Entries))
	for i, e := range r.Entries {
		c := base
		c.Scope = base.Scopes[i]
		c.ScopeIndex = i
		c.Replaces = classIDs(e.Replaces)
		if c.IsBinding() {
			t, err := decl.ParseType(e.BoundType)
			if err != nil {
				return nil, fail(errors.Wrap(hint.ErrMalformed, err.Error()))
			}
			c.BoundType = t
			c.BoundTypeImplied = e.BoundTypeImplied
			c.IgnoreQualifier = e.IgnoreQualifier
		}
		if c.Kind == hint.KindBinding {
			p, ok := ParsePriority(e.Priority)
			if !ok {
				return nil, fail(errors.Wrapf(hint.ErrMalformed, "unknown priority %q", e.Priority))
			}
			c.Priority = p
		}
		if c.Kind == hint.KindSubcomponent {
			c.Subcomponent = &SubcomponentInfo{
				Scope:   decl.ParseClassID(e.SubcomponentScope),
				Modules: classIDs(e.Modules),
				Exclude: classIDs(e.Exclude),
			}
		}
		out = append(out, c)
	}
	return out, nil
}
