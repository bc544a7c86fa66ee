// Package hint is the durable side table that lets a compilation see what
// upstream units contributed without their sources.
//
// Every contributing declaration produces one Record per kind. Records are
// written next to the compiled output under a reserved namespace and are
// never rewritten; downstream compilations load them once into an Index.
package hint

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/sghaida/odimerge/internal/decl"
	"github.com/sghaida/odimerge/internal/decl/manifest"
)

// Kind discriminates records of the same declaration.
type Kind string

const (
	KindModule       Kind = "module"
	KindInterface    Kind = "interface"
	KindBinding      Kind = "binding"
	KindMultibinding Kind = "multibinding"
	KindSubcomponent Kind = "subcomponent"
)

// Kinds lists every kind in a fixed order.
var Kinds = []Kind{KindModule, KindInterface, KindBinding, KindMultibinding, KindSubcomponent}

func (k Kind) valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Namespace is the reserved prefix of hint keys and of the artifact directory.
const Namespace = "odimerge.hint"

// prefix returns the key prefix of a kind. Every kind has its own segment;
// modules keep the "merge" segment of the annotation that merges them.
func (k Kind) prefix() string {
	if k == KindModule {
		return Namespace + ".merge"
	}
	return Namespace + "." + string(k)
}

// Key derives the record name from the declaration and kind. The package is
// kept verbatim and the qualified name is flattened with decl.Flatten, so two
// distinct declarations never share a key.
func Key(kind Kind, id decl.ClassID) string {
	var sb strings.Builder
	sb.WriteString(kind.prefix())
	sb.WriteByte('.')
	if id.Package != "" {
		sb.WriteString(id.Package)
		sb.WriteByte('.')
	}
	sb.WriteString(decl.Flatten(strings.Split(id.String(), ".")...))
	return sb.String()
}

// Record is the serialized form of every contribution one declaration makes
// with one kind.
type Record struct {
	Version     string `yaml:"version"`
	Kind        Kind   `yaml:"kind"`
	Declaration string `yaml:"declaration"`
	Unit        string `yaml:"unit"`
	Pos         string `yaml:"pos,omitempty"`
	Object      bool   `yaml:"object,omitempty"`
	Generated   bool   `yaml:"generated,omitempty"`
	// Origin is the user declaration a generated declaration stems from.
	Origin    string               `yaml:"origin,omitempty"`
	Qualifier *manifest.Annotation `yaml:"qualifier,omitempty"`
	MapKey    *manifest.Annotation `yaml:"mapKey,omitempty"`
	// Entries hold one element per annotation instance, in declaration order.
	Entries []Entry `yaml:"entries"`

	// Artifact is the URL the record was read from. Empty for records of the
	// unit being compiled.
	Artifact string `yaml:"-"`
}

// Entry is one annotation instance.
type Entry struct {
	Scope            string   `yaml:"scope"`
	BoundType        string   `yaml:"boundType,omitempty"`
	BoundTypeImplied bool     `yaml:"boundTypeImplied,omitempty"`
	Priority         string   `yaml:"priority,omitempty"`
	IgnoreQualifier  bool     `yaml:"ignoreQualifier,omitempty"`
	Replaces         []string `yaml:"replaces,omitempty"`

	// Subcomponent entries only.
	SubcomponentScope string   `yaml:"subcomponentScope,omitempty"`
	Modules           []string `yaml:"modules,omitempty"`
	Exclude           []string `yaml:"exclude,omitempty"`
}

// Key is the name the record is stored under.
func (r *Record) Key() string { return Key(r.Kind, r.ID()) }

// ID parses the contributing declaration.
func (r *Record) ID() decl.ClassID { return decl.ParseClassID(r.Declaration) }

// Scopes returns the scope of every entry, in declaration order.
func (r *Record) Scopes() []decl.ClassID {
	out := make([]decl.ClassID, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, decl.ParseClassID(e.Scope))
	}
	return out
}

// Source names where the record came from, for error messages.
func (r *Record) Source() string {
	if r.Artifact != "" {
		return r.Artifact
	}
	return "unit " + r.Unit
}

// ErrMalformed marks records that cannot be interpreted.
var ErrMalformed = errors.New("malformed hint record")

// Validate checks the structure of a record. Semantic checks happen when the
// record is turned back into contributions.
func (r *Record) Validate() error {
	fail := func(format string, args ...interface{}) error {
		return errors.Wrapf(ErrMalformed, format, args...)
	}
	if !r.Kind.valid() {
		return fail("unknown kind %q", r.Kind)
	}
	if strings.TrimSpace(r.Declaration) == "" {
		return fail("missing declaration")
	}
	if len(r.Entries) == 0 {
		return fail("%s has no entries", r.Declaration)
	}
	for i, e := range r.Entries {
		if strings.TrimSpace(e.Scope) == "" {
			return fail("%s entry %d has no scope", r.Declaration, i)
		}
		switch r.Kind {
		case KindBinding, KindMultibinding:
			if e.BoundType == "" {
				return fail("%s entry %d has no bound type", r.Declaration, i)
			}
			if _, err := decl.ParseType(e.BoundType); err != nil {
				return fail("%s entry %d: %v", r.Declaration, i, err)
			}
		case KindSubcomponent:
			if e.SubcomponentScope == "" {
				return fail("%s entry %d has no subcomponent scope", r.Declaration, i)
			}
		}
	}
	return nil
}
