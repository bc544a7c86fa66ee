package decl

import (
	"strings"

	"github.com/pkg/errors"
)

// ClassID identifies a class. Package is the dotted package, Relative the
// dotted chain of simple names from the top level class to this one.
type ClassID struct {
	Package  string
	Relative string
}

// ParseClassID splits a fully qualified name. The first segment starting with
// an upper case letter begins the class part; a name without one is treated as
// a top level class in the root package.
func ParseClassID(fq string) ClassID {
	fq = strings.TrimSpace(fq)
	segments := strings.Split(fq, ".")
	for i, s := range segments {
		if s != "" && s[0] >= 'A' && s[0] <= 'Z' {
			return ClassID{
				Package:  strings.Join(segments[:i], "."),
				Relative: strings.Join(segments[i:], "."),
			}
		}
	}
	return ClassID{Relative: fq}
}

func (c ClassID) String() string {
	if c.Package == "" {
		return c.Relative
	}
	return c.Package + "." + c.Relative
}

func (c ClassID) IsZero() bool { return c.Relative == "" }

// SimpleNames returns the nesting chain, outermost first.
func (c ClassID) SimpleNames() []string {
	if c.Relative == "" {
		return nil
	}
	return strings.Split(c.Relative, ".")
}

// SimpleName is the innermost simple name.
func (c ClassID) SimpleName() string {
	if i := strings.LastIndexByte(c.Relative, '.'); i >= 0 {
		return c.Relative[i+1:]
	}
	return c.Relative
}

func (c ClassID) Nested(simpleName string) ClassID {
	return ClassID{Package: c.Package, Relative: c.Relative + "." + simpleName}
}

// Outer returns the enclosing class of a nested class.
func (c ClassID) Outer() (ClassID, bool) {
	i := strings.LastIndexByte(c.Relative, '.')
	if i < 0 {
		return ClassID{}, false
	}
	return ClassID{Package: c.Package, Relative: c.Relative[:i]}, true
}

func (c ClassID) Less(o ClassID) bool { return c.String() < o.String() }

// Flatten joins names with "_". An underscore inside a name is written as
// "_0"; identifiers never start with a digit, so a.Outer.Inner and
// a.Outer_Inner flatten differently.
func Flatten(names ...string) string {
	var sb strings.Builder
	for i, n := range names {
		if i > 0 {
			sb.WriteByte('_')
		}
		sb.WriteString(strings.ReplaceAll(n, "_", "_0"))
	}
	return sb.String()
}

// Type is a use of a class, possibly parameterized, or a bare type parameter.
type Type struct {
	Class ClassID
	Args  []Type
	// Param is set when the type is a type parameter of the enclosing
	// declaration. Class and Args are empty in that case.
	Param string
}

func ClassType(id ClassID) Type { return Type{Class: id} }

func (t Type) IsParam() bool { return t.Param != "" }

func (t Type) String() string {
	if t.Param != "" {
		return t.Param
	}
	if len(t.Args) == 0 {
		return t.Class.String()
	}
	var sb strings.Builder
	sb.WriteString(t.Class.String())
	sb.WriteByte('<')
	for i, a := range t.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteByte('>')
	return sb.String()
}

// TypeParams lists the type parameters used anywhere in t, in order of first
// appearance.
func (t Type) TypeParams() []string {
	var out []string
	seen := map[string]bool{}
	var walk func(Type)
	walk = func(t Type) {
		if t.Param != "" {
			if !seen[t.Param] {
				seen[t.Param] = true
				out = append(out, t.Param)
			}
			return
		}
		for _, a := range t.Args {
			walk(a)
		}
	}
	walk(t)
	return out
}

func (t Type) Equal(o Type) bool {
	if t.Param != o.Param || t.Class != o.Class || len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// ParseType parses "a.b.C", "a.b.C<x.Y, T>" or a bare type parameter. Names
// listed in params are read as type parameters.
func ParseType(s string, params ...string) (Type, error) {
	p := typeParser{src: s, params: params}
	t, err := p.parse()
	if err != nil {
		return Type{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Type{}, errors.Errorf("type %q: unexpected %q at offset %d", s, p.src[p.pos:], p.pos)
	}
	return t, nil
}

type typeParser struct {
	src    string
	pos    int
	params []string
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) parse() (Type, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune("<>, ", rune(p.src[p.pos])) {
		p.pos++
	}
	name := p.src[start:p.pos]
	if name == "" {
		return Type{}, errors.Errorf("type %q: expected a name at offset %d", p.src, start)
	}
	for _, tp := range p.params {
		if tp == name {
			return Type{Param: name}, nil
		}
	}
	t := Type{Class: ParseClassID(name)}
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '<' {
		p.pos++
		for {
			arg, err := p.parse()
			if err != nil {
				return Type{}, err
			}
			t.Args = append(t.Args, arg)
			p.skipSpace()
			if p.pos >= len(p.src) {
				return Type{}, errors.Errorf("type %q: unterminated type arguments", p.src)
			}
			if p.src[p.pos] == ',' {
				p.pos++
				continue
			}
			if p.src[p.pos] == '>' {
				p.pos++
				break
			}
			return Type{}, errors.Errorf("type %q: unexpected %q at offset %d", p.src, p.src[p.pos], p.pos)
		}
	}
	return t, nil
}
