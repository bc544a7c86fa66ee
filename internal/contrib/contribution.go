// Package contrib turns annotated declarations into validated contributions
// and converts them to and from hint records.
package contrib

import (
	"fmt"

	"github.com/sghaida/odimerge/internal/decl"
	"github.com/sghaida/odimerge/internal/hint"
)

// Priority orders competing single bindings. Higher values win.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
	PriorityHighest
)

func (p Priority) String() string {
	switch p {
	case PriorityNormal:
		return "NORMAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityHighest:
		return "HIGHEST"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// ParsePriority reads an enum entry name. Empty is NORMAL.
func ParsePriority(s string) (Priority, bool) {
	switch s {
	case "", "NORMAL":
		return PriorityNormal, true
	case "HIGH":
		return PriorityHigh, true
	case "HIGHEST":
		return PriorityHighest, true
	default:
		return 0, false
	}
}

// Contribution is one contributing annotation instance on a declaration.
type Contribution struct {
	Kind        hint.Kind
	Declaration decl.ClassID
	// Scope is the scope this instance contributes to. For subcomponents it
	// is the parent scope.
	Scope decl.ClassID
	// Scopes lists the scopes of every instance of the same kind on the
	// declaration, in declaration order.
	Scopes     []decl.ClassID
	ScopeIndex int

	BoundType        decl.Type
	BoundTypeImplied bool
	Qualifier        *decl.Annotation
	IgnoreQualifier  bool
	MapKey           *decl.Annotation
	Priority         Priority
	Replaces         []decl.ClassID
	Excludable       bool

	// Object is set when the declaration is a singleton object, which is
	// bound with a provider method instead of a binds method.
	Object bool

	Subcomponent *SubcomponentInfo

	Unit      string
	Pos       decl.Position
	Generated bool
	Origin    decl.ClassID
}

// SubcomponentInfo carries the arguments of a contributed subcomponent.
type SubcomponentInfo struct {
	Scope   decl.ClassID
	Modules []decl.ClassID
	Exclude []decl.ClassID
}

// IsBinding reports whether c is a single binding or a multibinding.
func (c *Contribution) IsBinding() bool {
	return c.Kind == hint.KindBinding || c.Kind == hint.KindMultibinding
}

// QualifierKey is the grouping key contribution of the qualifier, empty when
// the binding is unqualified or ignores its qualifier.
func (c *Contribution) QualifierKey() string {
	if c.Qualifier == nil || c.IgnoreQualifier {
		return ""
	}
	return c.Qualifier.Key()
}

// EffectiveQualifier is the qualifier mirrored onto generated methods.
func (c *Contribution) EffectiveQualifier() *decl.Annotation {
	if c.IgnoreQualifier {
		return nil
	}
	return c.Qualifier
}

// Matches reports whether id names this contribution, either directly or
// through the declaration it was generated from.
func (c *Contribution) Matches(id decl.ClassID) bool {
	return c.Declaration == id || (!c.Origin.IsZero() && c.Origin == id)
}

func (c *Contribution) String() string {
	return fmt.Sprintf("%s(%s -> %s)", c.Kind, c.Declaration, c.Scope)
}
