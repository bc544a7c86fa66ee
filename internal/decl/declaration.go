package decl

import (
	"fmt"
	"strconv"
)

// Position is a source location. Line and Column start at 1; zero means
// unknown.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) IsValid() bool { return p.File != "" }

func (p Position) String() string {
	if p.File == "" {
		return "<unknown>"
	}
	return p.File + ":" + strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Kind is the shape of a declaration.
type Kind uint8

const (
	KindClass Kind = iota + 1
	KindAbstractClass
	KindInterface
	KindObject
	KindAnnotationClass
)

var kindNames = map[Kind]string{
	KindClass:           "class",
	KindAbstractClass:   "abstract",
	KindInterface:       "interface",
	KindObject:          "object",
	KindAnnotationClass: "annotation",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Visibility of a declaration. Only public declarations may contribute.
type Visibility uint8

const (
	Public Visibility = iota
	Internal
	Protected
	Private
)

var visibilityNames = map[Visibility]string{
	Public:    "public",
	Internal:  "internal",
	Protected: "protected",
	Private:   "private",
}

func (v Visibility) String() string {
	if s, ok := visibilityNames[v]; ok {
		return s
	}
	return fmt.Sprintf("Visibility(%d)", uint8(v))
}

// ParseVisibility is the inverse of Visibility.String. Empty means public.
func ParseVisibility(s string) (Visibility, bool) {
	if s == "" {
		return Public, true
	}
	for v, name := range visibilityNames {
		if name == s {
			return v, true
		}
	}
	return 0, false
}

type Param struct {
	Name string
	Type Type
}

// Function is a member function. Only the signature is modelled.
type Function struct {
	Name        string
	Params      []Param
	Returns     Type
	Abstract    bool
	Visibility  Visibility
	Annotations []Annotation
}

// Declaration is a class-like declaration.
type Declaration struct {
	ID          ClassID
	Kind        Kind
	Visibility  Visibility
	TypeParams  []string
	Supertypes  []Type
	Annotations []Annotation
	Functions   []Function
	Pos         Position

	// Unit is the compilation unit the declaration belongs to.
	Unit string
	// Generated marks declarations produced by this tool.
	Generated bool
}

// Find returns every instance of the annotation, in source order.
func (d *Declaration) Find(class ClassID) []Annotation {
	var out []Annotation
	for _, a := range d.Annotations {
		if a.Class == class {
			out = append(out, a)
		}
	}
	return out
}

func (d *Declaration) Has(class ClassID) bool {
	for _, a := range d.Annotations {
		if a.Class == class {
			return true
		}
	}
	return false
}

func (d *Declaration) IsInterface() bool { return d.Kind == KindInterface }

// IsAbstract reports whether instances cannot be constructed directly.
func (d *Declaration) IsAbstract() bool {
	return d.Kind == KindInterface || d.Kind == KindAbstractClass
}

func (d *Declaration) IsObject() bool { return d.Kind == KindObject }

// Type returns the declared type, parameterized by its own type parameters.
func (d *Declaration) Type() Type {
	t := Type{Class: d.ID}
	for _, p := range d.TypeParams {
		t.Args = append(t.Args, Type{Param: p})
	}
	return t
}

// PositionOf returns the position of an annotation when known, otherwise the
// position of the declaration.
func (d *Declaration) PositionOf(a Annotation) Position {
	if a.Pos.IsValid() {
		return a.Pos
	}
	return d.Pos
}

// Clone returns a deep enough copy to let callers append to the slices
// without affecting d.
func (d *Declaration) Clone() *Declaration {
	c := *d
	c.TypeParams = append([]string(nil), d.TypeParams...)
	c.Supertypes = append([]Type(nil), d.Supertypes...)
	c.Annotations = append([]Annotation(nil), d.Annotations...)
	c.Functions = append([]Function(nil), d.Functions...)
	return &c
}
