// Package manifest is the round based declaration model. Declarations arrive
// as YAML or JSON manifests, and everything emitted during a round is written
// out as a manifest and read back at the start of the next round.
package manifest

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sghaida/odimerge/internal/decl"
)

// File is one manifest document.
type File struct {
	Unit         string            `yaml:"unit,omitempty"`
	Aliases      map[string]string `yaml:"aliases,omitempty"`
	Declarations []Declaration     `yaml:"declarations"`
}

// Declaration is the manifest form of decl.Declaration. Names are fully
// qualified and positions use the file:line:column form.
type Declaration struct {
	Name        string       `yaml:"name"`
	Kind        string       `yaml:"kind,omitempty"`
	Visibility  string       `yaml:"visibility,omitempty"`
	TypeParams  []string     `yaml:"typeParams,omitempty"`
	Supertypes  []string     `yaml:"supertypes,omitempty"`
	Annotations []Annotation `yaml:"annotations,omitempty"`
	Functions   []Function   `yaml:"functions,omitempty"`
	Pos         string       `yaml:"pos,omitempty"`
	Generated   bool         `yaml:"generated,omitempty"`
}

// Annotation is one annotation use with its arguments in source order.
type Annotation struct {
	Type string `yaml:"type"`
	Args Args   `yaml:"args,omitempty"`
	Pos  string `yaml:"pos,omitempty"`
}

// Function is a member function of a declaration.
type Function struct {
	Name        string       `yaml:"name"`
	Returns     string       `yaml:"returns"`
	Abstract    bool         `yaml:"abstract,omitempty"`
	Visibility  string       `yaml:"visibility,omitempty"`
	Params      []Param      `yaml:"params,omitempty"`
	Annotations []Annotation `yaml:"annotations,omitempty"`
}

type Param struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Value is the tagged encoding of decl.Value: exactly one key is set.
type Value struct {
	String     *string     `yaml:"string,omitempty"`
	Bool       *bool       `yaml:"bool,omitempty"`
	Int        *int64      `yaml:"int,omitempty"`
	Class      string      `yaml:"class,omitempty"`
	Enum       string      `yaml:"enum,omitempty"`
	Annotation *Annotation `yaml:"annotation,omitempty"`
	Array      *[]Value    `yaml:"array,omitempty"`
}

// Arg is one named annotation argument.
type Arg struct {
	Name  string
	Value Value
}

// Args is an ordered mapping from argument name to value. Order is kept
// because it is part of a qualifier's identity.
type Args []Arg

func (a *Args) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: args must be a mapping", node.Line)
	}
	out := make(Args, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var v Value
		if err := node.Content[i+1].Decode(&v); err != nil {
			return err
		}
		out = append(out, Arg{Name: node.Content[i].Value, Value: v})
	}
	*a = out
	return nil
}

func (a Args) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, arg := range a {
		var val yaml.Node
		if err := val.Encode(arg.Value); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: arg.Name},
			&val,
		)
	}
	return node, nil
}

// Decode parses a YAML or JSON manifest.
func Decode(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "manifest")
	}
	return &f, nil
}

// Marshal renders a manifest as YAML.
func Marshal(f *File) ([]byte, error) {
	data, err := yaml.Marshal(f)
	if err != nil {
		return nil, errors.Wrap(err, "manifest")
	}
	return data, nil
}

// -------------------------
// File -> decl
// -------------------------

// ToDecls converts the manifest into declarations stamped with unit. An
// empty unit falls back to File.Unit.
func (f *File) ToDecls(unit string) ([]*decl.Declaration, error) {
	if unit == "" {
		unit = f.Unit
	}
	out := make([]*decl.Declaration, 0, len(f.Declarations))
	for i := range f.Declarations {
		d, err := f.Declarations[i].toDecl(unit)
		if err != nil {
			return nil, errors.Wrapf(err, "declaration %d (%s)", i, f.Declarations[i].Name)
		}
		out = append(out, d)
	}
	return out, nil
}

func (md *Declaration) toDecl(unit string) (*decl.Declaration, error) {
	if strings.TrimSpace(md.Name) == "" {
		return nil, errors.New("missing name")
	}
	d := &decl.Declaration{
		ID:         decl.ParseClassID(md.Name),
		Kind:       decl.KindClass,
		TypeParams: md.TypeParams,
		Unit:       unit,
		Generated:  md.Generated,
	}
	if md.Kind != "" {
		k, ok := decl.ParseKind(md.Kind)
		if !ok {
			return nil, errors.Errorf("unknown kind %q", md.Kind)
		}
		d.Kind = k
	}
	vis, ok := decl.ParseVisibility(md.Visibility)
	if !ok {
		return nil, errors.Errorf("unknown visibility %q", md.Visibility)
	}
	d.Visibility = vis

	pos, err := ParsePosition(md.Pos)
	if err != nil {
		return nil, err
	}
	d.Pos = pos

	for _, s := range md.Supertypes {
		t, err := decl.ParseType(s, md.TypeParams...)
		if err != nil {
			return nil, err
		}
		d.Supertypes = append(d.Supertypes, t)
	}
	for _, ma := range md.Annotations {
		a, err := ma.ToDecl()
		if err != nil {
			return nil, err
		}
		d.Annotations = append(d.Annotations, a)
	}
	for _, mf := range md.Functions {
		fn, err := mf.toDecl(md.TypeParams)
		if err != nil {
			return nil, errors.Wrapf(err, "function %s", mf.Name)
		}
		d.Functions = append(d.Functions, fn)
	}
	return d, nil
}

// ToDecl converts a manifest annotation.
func (ma *Annotation) ToDecl() (decl.Annotation, error) {
	if strings.TrimSpace(ma.Type) == "" {
		return decl.Annotation{}, errors.New("annotation without type")
	}
	a := decl.Annotation{Class: decl.ParseClassID(ma.Type)}
	pos, err := ParsePosition(ma.Pos)
	if err != nil {
		return decl.Annotation{}, err
	}
	a.Pos = pos
	for _, arg := range ma.Args {
		v, err := arg.Value.toDecl()
		if err != nil {
			return decl.Annotation{}, errors.Wrapf(err, "@%s.%s", a.Class.SimpleName(), arg.Name)
		}
		a.Args = append(a.Args, decl.Arg{Name: arg.Name, Value: v})
	}
	return a, nil
}

func (mf *Function) toDecl(typeParams []string) (decl.Function, error) {
	ret, err := decl.ParseType(mf.Returns, typeParams...)
	if err != nil {
		return decl.Function{}, err
	}
	vis, ok := decl.ParseVisibility(mf.Visibility)
	if !ok {
		return decl.Function{}, errors.Errorf("unknown visibility %q", mf.Visibility)
	}
	fn := decl.Function{Name: mf.Name, Returns: ret, Abstract: mf.Abstract, Visibility: vis}
	for _, p := range mf.Params {
		t, err := decl.ParseType(p.Type, typeParams...)
		if err != nil {
			return decl.Function{}, err
		}
		fn.Params = append(fn.Params, decl.Param{Name: p.Name, Type: t})
	}
	for _, ma := range mf.Annotations {
		a, err := ma.ToDecl()
		if err != nil {
			return decl.Function{}, err
		}
		fn.Annotations = append(fn.Annotations, a)
	}
	return fn, nil
}

func (mv *Value) toDecl() (decl.Value, error) {
	set := 0
	var out decl.Value
	if mv.String != nil {
		set++
		out = decl.StringValue(*mv.String)
	}
	if mv.Bool != nil {
		set++
		out = decl.BoolValue(*mv.Bool)
	}
	if mv.Int != nil {
		set++
		out = decl.IntValue(*mv.Int)
	}
	if mv.Class != "" {
		set++
		out = decl.ClassValue(decl.ParseClassID(mv.Class))
	}
	if mv.Enum != "" {
		set++
		i := strings.LastIndexByte(mv.Enum, '.')
		if i <= 0 {
			return decl.Value{}, errors.Errorf("enum %q must be <EnumClass>.<ENTRY>", mv.Enum)
		}
		out = decl.EnumValue(decl.ParseClassID(mv.Enum[:i]), mv.Enum[i+1:])
	}
	if mv.Annotation != nil {
		set++
		a, err := mv.Annotation.ToDecl()
		if err != nil {
			return decl.Value{}, err
		}
		out = decl.AnnotationValue(a)
	}
	if mv.Array != nil {
		set++
		elems := make([]decl.Value, 0, len(*mv.Array))
		for i := range *mv.Array {
			e, err := (*mv.Array)[i].toDecl()
			if err != nil {
				return decl.Value{}, errors.Wrapf(err, "[%d]", i)
			}
			elems = append(elems, e)
		}
		out = decl.ArrayValue(elems...)
	}
	if set != 1 {
		return decl.Value{}, errors.Errorf("value must set exactly one of string|bool|int|class|enum|annotation|array, got %d", set)
	}
	return out, nil
}

// ParsePosition reads "file:line:column". Line and column are optional.
func ParsePosition(s string) (decl.Position, error) {
	if s == "" {
		return decl.Position{}, nil
	}
	parts := strings.Split(s, ":")
	nums := []int{}
	for len(parts) > 1 && len(nums) < 2 {
		n, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			break
		}
		nums = append([]int{n}, nums...)
		parts = parts[:len(parts)-1]
	}
	p := decl.Position{File: strings.Join(parts, ":")}
	if len(nums) > 0 {
		p.Line = nums[0]
	}
	if len(nums) > 1 {
		p.Column = nums[1]
	}
	return p, nil
}

// -------------------------
// decl -> File
// -------------------------

// FromDecls encodes declarations into a manifest.
func FromDecls(unit string, decls []*decl.Declaration) *File {
	f := &File{Unit: unit, Declarations: make([]Declaration, 0, len(decls))}
	for _, d := range decls {
		f.Declarations = append(f.Declarations, fromDecl(d))
	}
	return f
}

func fromDecl(d *decl.Declaration) Declaration {
	md := Declaration{
		Name:       d.ID.String(),
		Kind:       d.Kind.String(),
		TypeParams: d.TypeParams,
		Generated:  d.Generated,
	}
	if d.Visibility != decl.Public {
		md.Visibility = d.Visibility.String()
	}
	if d.Pos.IsValid() {
		md.Pos = d.Pos.String()
	}
	for _, t := range d.Supertypes {
		md.Supertypes = append(md.Supertypes, t.String())
	}
	for _, a := range d.Annotations {
		md.Annotations = append(md.Annotations, FromAnnotation(a))
	}
	for _, fn := range d.Functions {
		mf := Function{Name: fn.Name, Returns: fn.Returns.String(), Abstract: fn.Abstract}
		if fn.Visibility != decl.Public {
			mf.Visibility = fn.Visibility.String()
		}
		for _, p := range fn.Params {
			mf.Params = append(mf.Params, Param{Name: p.Name, Type: p.Type.String()})
		}
		for _, a := range fn.Annotations {
			mf.Annotations = append(mf.Annotations, FromAnnotation(a))
		}
		md.Functions = append(md.Functions, mf)
	}
	return md
}

// FromAnnotation encodes an annotation.
func FromAnnotation(a decl.Annotation) Annotation {
	ma := Annotation{Type: a.Class.String()}
	if a.Pos.IsValid() {
		ma.Pos = a.Pos.String()
	}
	for _, arg := range a.Args {
		ma.Args = append(ma.Args, Arg{Name: arg.Name, Value: fromValue(arg.Value)})
	}
	return ma
}

func fromValue(v decl.Value) Value {
	switch v.Kind() {
	case decl.ValueString:
		s, _ := v.AsString()
		return Value{String: &s}
	case decl.ValueBool:
		b, _ := v.AsBool()
		return Value{Bool: &b}
	case decl.ValueInt:
		i, _ := v.AsInt()
		return Value{Int: &i}
	case decl.ValueClass:
		id, _ := v.AsClass()
		return Value{Class: id.String()}
	case decl.ValueEnum:
		e, _ := v.AsEnum()
		return Value{Enum: e.String()}
	case decl.ValueAnnotation:
		a, _ := v.AsAnnotation()
		ma := FromAnnotation(a)
		return Value{Annotation: &ma}
	case decl.ValueArray:
		elems, _ := v.AsArray()
		arr := make([]Value, 0, len(elems))
		for _, e := range elems {
			arr = append(arr, fromValue(e))
		}
		return Value{Array: &arr}
	default:
		return Value{}
	}
}
