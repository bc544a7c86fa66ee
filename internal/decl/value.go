package decl

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	ValueInvalid ValueKind = iota
	ValueString
	ValueBool
	ValueInt
	ValueClass
	ValueEnum
	ValueAnnotation
	ValueArray
)

var valueKindNames = [...]string{
	ValueInvalid:    "invalid",
	ValueString:     "string",
	ValueBool:       "bool",
	ValueInt:        "int",
	ValueClass:      "class",
	ValueEnum:       "enum",
	ValueAnnotation: "annotation",
	ValueArray:      "array",
}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return "ValueKind(" + strconv.Itoa(int(k)) + ")"
}

// EnumRef is an enum entry: Class is the enum class, Name the entry.
type EnumRef struct {
	Class ClassID
	Name  string
}

func (e EnumRef) String() string { return e.Class.String() + "." + e.Name }

// Value is an annotation argument. It is a closed sum type: exactly one of
// the payload fields is meaningful, selected by Kind.
type Value struct {
	kind  ValueKind
	str   string
	b     bool
	i     int64
	class ClassID
	enum  EnumRef
	ann   *Annotation
	elems []Value
}

func StringValue(s string) Value { return Value{kind: ValueString, str: s} }
func BoolValue(b bool) Value { return Value{kind: ValueBool, b: b} }
func IntValue(i int64) Value { return Value{kind: ValueInt, i: i} }
func ClassValue(id ClassID) Value { return Value{kind: ValueClass, class: id} }
func EnumValue(class ClassID, name string) Value {
	return Value{kind: ValueEnum, enum: EnumRef{Class: class, Name: name}}
}
func AnnotationValue(a Annotation) Value { return Value{kind: ValueAnnotation, ann: &a} }
func ArrayValue(elems ...Value) Value {
	return Value{kind: ValueArray, elems: append([]Value(nil), elems...)}
}

// ClassArray is a shorthand for an array of class references.
func ClassArray(ids ...ClassID) Value {
	elems := make([]Value, 0, len(ids))
	for _, id := range ids {
		elems = append(elems, ClassValue(id))
	}
	return Value{kind: ValueArray, elems: elems}
}

func (v Value) Kind() ValueKind { return v.kind }

// ValueKindError is returned when a Value is read as the wrong variant.
type ValueKindError struct {
	Want ValueKind
	Got  ValueKind
}

func (e *ValueKindError) Error() string {
	return fmt.Sprintf("annotation value: want %s, got %s", e.Want, e.Got)
}

func (v Value) expect(k ValueKind) error {
	if v.kind != k {
		return &ValueKindError{Want: k, Got: v.kind}
	}
	return nil
}

func (v Value) AsString() (string, error) { return v.str, v.expect(ValueString) }
func (v Value) AsBool() (bool, error) { return v.b, v.expect(ValueBool) }
func (v Value) AsInt() (int64, error) { return v.i, v.expect(ValueInt) }
func (v Value) AsClass() (ClassID, error) { return v.class, v.expect(ValueClass) }
func (v Value) AsEnum() (EnumRef, error) { return v.enum, v.expect(ValueEnum) }

func (v Value) AsAnnotation() (Annotation, error) {
	if err := v.expect(ValueAnnotation); err != nil {
		return Annotation{}, err
	}
	return *v.ann, nil
}

func (v Value) AsArray() ([]Value, error) { return v.elems, v.expect(ValueArray) }

// AsClassList reads an array of class references. A single class reference
// is accepted as a one element list.
func (v Value) AsClassList() ([]ClassID, error) {
	if v.kind == ValueClass {
		return []ClassID{v.class}, nil
	}
	if err := v.expect(ValueArray); err != nil {
		return nil, err
	}
	out := make([]ClassID, 0, len(v.elems))
	for _, e := range v.elems {
		id, err := e.AsClass()
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// MapClasses returns a copy of v with every class reference, including those
// nested in arrays, annotations and enum entries, passed through fn.
func (v Value) MapClasses(fn func(ClassID) ClassID) Value {
	switch v.kind {
	case ValueClass:
		return ClassValue(fn(v.class))
	case ValueEnum:
		return EnumValue(fn(v.enum.Class), v.enum.Name)
	case ValueAnnotation:
		return AnnotationValue(v.ann.MapClasses(fn))
	case ValueArray:
		elems := make([]Value, len(v.elems))
		for i, e := range v.elems {
			elems[i] = e.MapClasses(fn)
		}
		return Value{kind: ValueArray, elems: elems}
	case ValueString, ValueBool, ValueInt, ValueInvalid:
		return v
	}
	panic(fmt.Sprintf("decl: unhandled value kind %d", v.kind))
}

// String renders the value in source form. The rendering is canonical and
// is used for qualifier keys and generated output.
func (v Value) String() string {
	switch v.kind {
	case ValueString:
		return strconv.Quote(v.str)
	case ValueBool:
		return strconv.FormatBool(v.b)
	case ValueInt:
		return strconv.FormatInt(v.i, 10)
	case ValueClass:
		return v.class.String() + "::class"
	case ValueEnum:
		return v.enum.String()
	case ValueAnnotation:
		return v.ann.String()
	case ValueArray:
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ValueInvalid:
		return "<invalid>"
	}
	panic(fmt.Sprintf("decl: unhandled value kind %d", v.kind))
}

func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ValueString:
		return v.str == o.str
	case ValueBool:
		return v.b == o.b
	case ValueInt:
		return v.i == o.i
	case ValueClass:
		return v.class == o.class
	case ValueEnum:
		return v.enum == o.enum
	case ValueAnnotation:
		return v.ann.Equal(*o.ann)
	case ValueArray:
		if len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	case ValueInvalid:
		return true
	}
	panic(fmt.Sprintf("decl: unhandled value kind %d", v.kind))
}
