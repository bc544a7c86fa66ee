// Package synth builds the declarations handed to the downstream DI framework:
// merged modules, merged components and generated subcomponents.
package synth

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/sghaida/odimerge/internal/decl"
)

const (
	// ModulePackage prefixes the package of every merged module.
	ModulePackage = "odimerge.module"
	// ComponentPackage prefixes the package of every generated subcomponent.
	ComponentPackage = "odimerge.component"

	mergedModuleSuffix       = "MergedModule"
	mergedSubcomponentSuffix = "MergedSubcomponent"
	chainSeparator           = "__"

	// ParentComponentName is the nested accessor interface of a generated
	// subcomponent.
	ParentComponentName = "ParentComponent"
	// FactoryName is the nested factory of a generated subcomponent.
	FactoryName = "SubcomponentFactory"

	// maxFileName is the file name limit of common file systems. Generated
	// classes end up as files named after their nested path.
	maxFileName = 255
)

// MaxSimpleNameLength leaves room for the class file extension, the hash
// suffix and the longest nested class a generated subcomponent carries.
const MaxSimpleNameLength = maxFileName - 14 - 8 - len(ParentComponentName)

// Namer derives every generated name. Names are pure functions of their
// inputs, so separate compilations agree on them.
type Namer struct {
	// MaxLength bounds generated subcomponent simple names.
	MaxLength int
}

// DefaultNamer uses MaxSimpleNameLength.
var DefaultNamer = Namer{MaxLength: MaxSimpleNameLength}

func joinNames(id decl.ClassID) string { return strings.Join(id.SimpleNames(), "_") }

// flatName folds a class into one simple name. Generated classes are already
// flat and keep their name.
func (n Namer) flatName(id decl.ClassID) string {
	if n.IsGenerated(id) {
		return id.Relative
	}
	return decl.Flatten(id.SimpleNames()...)
}

func joinPackage(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ".")
}

// MergedModule names the module holding the binding methods of target.
func (n Namer) MergedModule(target decl.ClassID) decl.ClassID {
	return decl.ClassID{
		Package:  joinPackage(ModulePackage, target.Package),
		Relative: n.flatName(target) + mergedModuleSuffix,
	}
}

// MergedTarget names the declaration that merges everything into target.
func (n Namer) MergedTarget(target decl.ClassID) decl.ClassID {
	return decl.ClassID{Package: target.Package, Relative: "Merged" + n.flatName(target)}
}

// IsGenerated reports whether id is a generated subcomponent.
func (n Namer) IsGenerated(id decl.ClassID) bool {
	return id.Package == ComponentPackage || strings.HasPrefix(id.Package, ComponentPackage+".")
}

// Subcomponent names the subcomponent generated for original when it is
// attached to parent. The chain of ancestors folds into the name: a root
// parent contributes its package and names to the package, a generated
// parent passes its own package and name prefix on unchanged. Levels of the
// chain are joined with "__", which a flattened name never produces before an
// upper case letter.
func (n Namer) Subcomponent(parent, original decl.ClassID) decl.ClassID {
	var pkg, prefix string
	if n.IsGenerated(parent) {
		pkg = parent.Package
		prefix = strings.TrimSuffix(parent.Relative, "_"+mergedSubcomponentSuffix)
	} else {
		pkg = joinPackage(ComponentPackage, parent.Package, strings.ToLower(n.flatName(parent)))
	}
	name := n.flatName(original)
	if prefix != "" {
		name = prefix + chainSeparator + name
	}
	name += "_" + mergedSubcomponentSuffix
	return decl.ClassID{Package: pkg, Relative: n.truncate(pkg, name)}
}

// truncate keeps names within MaxLength by replacing the tail with a hash of
// the full qualified name.
func (n Namer) truncate(pkg, name string) string {
	limit := n.MaxLength
	if limit <= 0 {
		limit = MaxSimpleNameLength
	}
	if len(name) <= limit {
		return name
	}
	sum := xxhash.Sum64String(pkg + "." + name)
	suffix := fmt.Sprintf("_%016x", sum)
	keep := limit - len(suffix)
	if keep < 1 {
		keep = 1
	}
	return name[:keep] + suffix
}

// ParentComponent names the accessor interface nested in generated.
func (n Namer) ParentComponent(generated decl.ClassID) decl.ClassID {
	return generated.Nested(ParentComponentName)
}

// Factory names the factory nested in generated.
func (n Namer) Factory(generated decl.ClassID) decl.ClassID {
	return generated.Nested(FactoryName)
}

// Accessor names the parent accessor function. With a factory the accessor
// returns the factory and is named after it.
func (n Namer) Accessor(original decl.ClassID, factory *decl.ClassID) string {
	if factory != nil {
		return "create" + factory.SimpleName()
	}
	return "create" + original.SimpleName()
}

// BindingMethod names the method binding bound. used tracks names already
// taken in the module; clashes get a numeric suffix.
func (n Namer) BindingMethod(bound decl.Type, object bool, used map[string]bool) string {
	prefix := "bind"
	if object {
		prefix = "provide"
	}
	base := prefix + exportName(joinNames(bound.Class))
	name := base
	for i := 2; used[name]; i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}
	used[name] = true
	return name
}

// ParamName is the parameter name of a binds method.
func (n Namer) ParamName(contributing decl.ClassID) string {
	s := contributing.SimpleName()
	if s == "" {
		return "instance"
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func exportName(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
