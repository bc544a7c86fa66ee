package memory

import (
	"github.com/sghaida/odimerge/internal/decl"
)

// Builder assembles a declaration fluently. It is meant for host adapters and
// tests; malformed type strings panic.
type Builder struct {
	d *decl.Declaration
}

// Class starts a public class declaration named fq.
func Class(fq string) *Builder {
	return &Builder{d: &decl.Declaration{ID: decl.ParseClassID(fq), Kind: decl.KindClass}}
}

func Interface(fq string) *Builder { return Class(fq).Kind(decl.KindInterface) }

func Object(fq string) *Builder { return Class(fq).Kind(decl.KindObject) }

func AnnotationClass(fq string) *Builder { return Class(fq).Kind(decl.KindAnnotationClass) }

func (b *Builder) Kind(k decl.Kind) *Builder {
	b.d.Kind = k
	return b
}

func (b *Builder) Visibility(v decl.Visibility) *Builder {
	b.d.Visibility = v
	return b
}

func (b *Builder) TypeParams(params ...string) *Builder {
	b.d.TypeParams = append(b.d.TypeParams, params...)
	return b
}

// Extends adds direct super types, parsed with the declaration's type
// parameters in scope.
func (b *Builder) Extends(types ...string) *Builder {
	for _, s := range types {
		t, err := decl.ParseType(s, b.d.TypeParams...)
		if err != nil {
			panic(err)
		}
		b.d.Supertypes = append(b.d.Supertypes, t)
	}
	return b
}

func (b *Builder) Annotate(annotations ...decl.Annotation) *Builder {
	b.d.Annotations = append(b.d.Annotations, annotations...)
	return b
}

// With adds a bare annotation by name.
func (b *Builder) With(fq string) *Builder {
	return b.Annotate(decl.NewAnnotation(decl.ParseClassID(fq)))
}

// Fun adds an abstract function returning ret.
func (b *Builder) Fun(name, ret string, params ...decl.Param) *Builder {
	t, err := decl.ParseType(ret, b.d.TypeParams...)
	if err != nil {
		panic(err)
	}
	b.d.Functions = append(b.d.Functions, decl.Function{Name: name, Returns: t, Params: params, Abstract: true})
	return b
}

func (b *Builder) At(file string, line, column int) *Builder {
	b.d.Pos = decl.Position{File: file, Line: line, Column: column}
	return b
}

func (b *Builder) Build() *decl.Declaration { return b.d }

// Ann adds an annotation with arguments.
func (b *Builder) Ann(fq string, args ...decl.Arg) *Builder {
	return b.Annotate(decl.NewAnnotation(decl.ParseClassID(fq), args...))
}

// Class-reference argument helpers for Ann.

func ClassArg(name, fq string) decl.Arg {
	return decl.NamedArg(name, decl.ClassValue(decl.ParseClassID(fq)))
}

func ClassListArg(name string, fqs ...string) decl.Arg {
	ids := make([]decl.ClassID, len(fqs))
	for i, fq := range fqs {
		ids[i] = decl.ParseClassID(fq)
	}
	return decl.NamedArg(name, decl.ClassArray(ids...))
}

// PriorityArg sets the priority of a contributed binding.
func PriorityArg(entry string) decl.Arg {
	return decl.NamedArg("priority", decl.EnumValue(decl.PriorityEnum, entry))
}
