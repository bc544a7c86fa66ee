package resolve

import (
	"github.com/sghaida/odimerge/internal/contrib"
	"github.com/sghaida/odimerge/internal/decl"
)

// BindingSpec is one binding method of a merged module.
type BindingSpec struct {
	BoundType      decl.Type
	Qualifier      *decl.Annotation
	Contributing   decl.ClassID
	IsMultibinding bool
	MapKey         *decl.Annotation

	// Object bindings are provided from the singleton instance.
	Object     bool
	Priority   contrib.Priority
	ScopeIndex int
}

// FactorySpec describes the factory of a contributed subcomponent.
type FactorySpec struct {
	// Original is the factory nested in the contributed subcomponent.
	Original decl.ClassID
	// Generated is the factory nested in the generated subcomponent.
	Generated decl.ClassID
	// Function is the single abstract function of Original.
	Function decl.Function
}

// SubcomponentSpec is a contributed subcomponent attached to a merge target.
type SubcomponentSpec struct {
	Original    decl.ClassID
	ParentScope decl.ClassID
	// Scope is the scope the generated subcomponent merges.
	Scope    decl.ClassID
	Modules  []decl.ClassID
	Exclude  []decl.ClassID
	Replaces []decl.ClassID
	Pos      decl.Position

	// Parent is the merge target the subcomponent was resolved for.
	Parent decl.ClassID

	// The fields below are filled in by the subcomponent graph builder.
	GeneratedName            decl.ClassID
	ParentComponentInterface decl.ClassID
	// ManualParent is the hand written parent interface that the generated
	// one extends, zero when there is none.
	ManualParent decl.ClassID
	Factory      *FactorySpec
}

// ResolvedBindingSet is the outcome of one merge request. Every list is
// sorted, so equal inputs produce equal sets.
type ResolvedBindingSet struct {
	Request MergeRequest

	Modules             []decl.ClassID
	Interfaces          []decl.ClassID
	BindingMethods      []BindingSpec
	MultibindingMethods []BindingSpec
	Subcomponents       []SubcomponentSpec
}

// Empty reports whether nothing was merged.
func (s *ResolvedBindingSet) Empty() bool {
	return len(s.Modules) == 0 && len(s.Interfaces) == 0 && len(s.BindingMethods) == 0 &&
		len(s.MultibindingMethods) == 0 && len(s.Subcomponents) == 0
}

// Combine folds the sets resolved for one target under several scopes into
// one. The first set's request wins; bindings contributed to more than one of
// the scopes are kept once.
func Combine(sets []*ResolvedBindingSet) *ResolvedBindingSet {
	if len(sets) == 1 {
		return sets[0]
	}
	out := &ResolvedBindingSet{Request: sets[0].Request}
	modules := map[decl.ClassID]bool{}
	interfaces := map[decl.ClassID]bool{}
	bindings := map[string]bool{}
	subcomponents := map[decl.ClassID]bool{}
	for _, set := range sets {
		for _, id := range set.Modules {
			if !modules[id] {
				modules[id] = true
				out.Modules = append(out.Modules, id)
			}
		}
		for _, id := range set.Interfaces {
			if !interfaces[id] {
				interfaces[id] = true
				out.Interfaces = append(out.Interfaces, id)
			}
		}
		for _, b := range set.BindingMethods {
			if k := b.key(); !bindings[k] {
				bindings[k] = true
				out.BindingMethods = append(out.BindingMethods, b)
			}
		}
		for _, b := range set.MultibindingMethods {
			if k := b.key(); !bindings[k] {
				bindings[k] = true
				out.MultibindingMethods = append(out.MultibindingMethods, b)
			}
		}
		for _, s := range set.Subcomponents {
			if !subcomponents[s.Original] {
				subcomponents[s.Original] = true
				out.Subcomponents = append(out.Subcomponents, s)
			}
		}
	}
	sortSet(out)
	return out
}

func (b BindingSpec) key() string {
	k := b.Contributing.String() + "|" + b.BoundType.String() + "|" + qualifierKey(b.Qualifier)
	if b.IsMultibinding {
		k += "|multi|" + qualifierKey(b.MapKey)
	}
	return k
}
