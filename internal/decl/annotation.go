package decl

import (
	"strings"

	"github.com/pkg/errors"
)

// Arg is one named annotation argument.
type Arg struct {
	Name  string
	Value Value
}

// Annotation is an annotation instance on a declaration. Args keep source
// order; arguments left at their default are absent.
type Annotation struct {
	Class ClassID
	Args  []Arg
	Pos   Position
}

func NewAnnotation(class ClassID, args ...Arg) Annotation {
	return Annotation{Class: class, Args: args}
}

func NamedArg(name string, v Value) Arg { return Arg{Name: name, Value: v} }

// Arg returns the argument with the given name.
func (a Annotation) Arg(name string) (Value, bool) {
	for _, arg := range a.Args {
		if arg.Name == name {
			return arg.Value, true
		}
	}
	return Value{}, false
}

// ClassArg reads a class reference argument.
func (a Annotation) ClassArg(name string) (ClassID, bool, error) {
	v, ok := a.Arg(name)
	if !ok {
		return ClassID{}, false, nil
	}
	id, err := v.AsClass()
	if err != nil {
		return ClassID{}, true, errors.Wrapf(err, "@%s.%s", a.Class.SimpleName(), name)
	}
	return id, true, nil
}

// ClassListArg reads an array of class references. A missing argument is an
// empty list.
func (a Annotation) ClassListArg(name string) ([]ClassID, error) {
	v, ok := a.Arg(name)
	if !ok {
		return nil, nil
	}
	ids, err := v.AsClassList()
	if err != nil {
		return nil, errors.Wrapf(err, "@%s.%s", a.Class.SimpleName(), name)
	}
	return ids, nil
}

// EnumArg reads an enum entry argument and returns the entry name.
func (a Annotation) EnumArg(name string) (string, bool, error) {
	v, ok := a.Arg(name)
	if !ok {
		return "", false, nil
	}
	e, err := v.AsEnum()
	if err != nil {
		return "", true, errors.Wrapf(err, "@%s.%s", a.Class.SimpleName(), name)
	}
	return e.Name, true, nil
}

// BoolArg reads a boolean argument, returning def when absent.
func (a Annotation) BoolArg(name string, def bool) (bool, error) {
	v, ok := a.Arg(name)
	if !ok {
		return def, nil
	}
	b, err := v.AsBool()
	if err != nil {
		return false, errors.Wrapf(err, "@%s.%s", a.Class.SimpleName(), name)
	}
	return b, nil
}

// Key identifies the annotation including its arguments: the class name
// followed by every name and value. Two qualifiers are the same qualifier iff
// their keys are equal.
func (a Annotation) Key() string {
	var sb strings.Builder
	sb.WriteString(a.Class.String())
	for _, arg := range a.Args {
		sb.WriteString(arg.Name)
		sb.WriteString(arg.Value.String())
	}
	return sb.String()
}

func (a Annotation) String() string {
	var sb strings.Builder
	sb.WriteByte('@')
	sb.WriteString(a.Class.String())
	if len(a.Args) == 0 {
		return sb.String()
	}
	sb.WriteByte('(')
	for i, arg := range a.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(arg.Name)
		sb.WriteString(" = ")
		sb.WriteString(arg.Value.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// Equal compares class and arguments. Positions are ignored.
func (a Annotation) Equal(o Annotation) bool {
	if a.Class != o.Class || len(a.Args) != len(o.Args) {
		return false
	}
	for i := range a.Args {
		if a.Args[i].Name != o.Args[i].Name || !a.Args[i].Value.Equal(o.Args[i].Value) {
			return false
		}
	}
	return true
}

// MapClasses rewrites the annotation class and every class reference in its
// arguments.
func (a Annotation) MapClasses(fn func(ClassID) ClassID) Annotation {
	out := Annotation{Class: fn(a.Class), Pos: a.Pos}
	if len(a.Args) > 0 {
		out.Args = make([]Arg, len(a.Args))
		for i, arg := range a.Args {
			out.Args[i] = Arg{Name: arg.Name, Value: arg.Value.MapClasses(fn)}
		}
	}
	return out
}
