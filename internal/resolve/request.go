// Package resolve turns the contributions indexed for a scope into the set of
// modules, binding methods and subcomponents a merge target receives.
package resolve

import (
	"fmt"

	"github.com/sghaida/odimerge/internal/decl"
	"github.com/sghaida/odimerge/internal/diag"
)

// Mode says what a merge target absorbs.
type Mode uint8

const (
	ModeComponent Mode = iota + 1
	ModeSubcomponent
	ModeModuleList
	ModeInterfaceList
)

func (m Mode) String() string {
	switch m {
	case ModeComponent:
		return "component"
	case ModeSubcomponent:
		return "subcomponent"
	case ModeModuleList:
		return "moduleList"
	case ModeInterfaceList:
		return "interfaceList"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// MergesModules reports whether modules and bindings are merged in this mode.
func (m Mode) MergesModules() bool { return m != ModeInterfaceList }

// MergesInterfaces reports whether contributed interfaces become super types
// of the target in this mode.
func (m Mode) MergesInterfaces() bool { return m != ModeModuleList }

// RequiresInterface reports whether the merge target must be an interface.
func (m Mode) RequiresInterface() bool { return m != ModeModuleList }

// MergeAnnotations maps each merge annotation to its mode, in the order
// requests are produced for a declaration.
var MergeAnnotations = []struct {
	Class decl.ClassID
	Mode  Mode
}{
	{decl.MergeComponent, ModeComponent},
	{decl.MergeSubcomponent, ModeSubcomponent},
	{decl.MergeModules, ModeModuleList},
	{decl.MergeInterfaces, ModeInterfaceList},
}

// MergeRequest asks for everything contributed to Scope to be merged into
// Target.
type MergeRequest struct {
	Target decl.ClassID
	Scope  decl.ClassID
	Mode   Mode
	// Excluded contributions are dropped before replacement.
	Excluded []decl.ClassID
	// Included modules are always part of the result.
	Included []decl.ClassID

	Pos  decl.Position
	Unit string
}

func (r MergeRequest) String() string {
	return fmt.Sprintf("%s(%s <- %s)", r.Mode, r.Target, r.Scope)
}

// Requests reads the merge annotations of d. All class references are
// canonicalized through m.
func Requests(m decl.Model, d *decl.Declaration) ([]MergeRequest, error) {
	var out []MergeRequest
	for _, ma := range MergeAnnotations {
		var scopes []decl.ClassID
		for _, a := range d.Annotations {
			if m.Canonical(a.Class) != ma.Class {
				continue
			}
			pos := d.PositionOf(a)
			scope, ok, err := a.ClassArg("scope")
			if err != nil {
				return nil, diag.At(diag.KindUser, pos, d.ID, err.Error())
			}
			if !ok {
				return nil, diag.At(diag.KindUser, pos, d.ID, diag.MissingScope(d.ID, ma.Class))
			}
			req := MergeRequest{
				Target: d.ID,
				Scope:  m.Canonical(scope),
				Mode:   ma.Mode,
				Pos:    pos,
				Unit:   d.Unit,
			}
			if req.Excluded, err = canonicalList(m, a, "exclude"); err != nil {
				return nil, diag.At(diag.KindUser, pos, d.ID, err.Error())
			}
			if req.Included, err = canonicalList(m, a, "modules"); err != nil {
				return nil, diag.At(diag.KindUser, pos, d.ID, err.Error())
			}
			scopes = append(scopes, req.Scope)
			out = append(out, req)
		}
		if dups := duplicateIDs(scopes); len(dups) > 0 {
			return nil, diag.New(diag.KindUser, d, diag.DuplicateMergeScope(d.ID, dups))
		}
	}
	return out, nil
}

// Targets returns the declarations of the current unit carrying any merge
// annotation, each once.
func Targets(m decl.Model) []*decl.Declaration {
	var out []*decl.Declaration
	seen := map[decl.ClassID]bool{}
	for _, ma := range MergeAnnotations {
		for _, d := range m.Annotated(ma.Class) {
			if !seen[d.ID] {
				seen[d.ID] = true
				out = append(out, d)
			}
		}
	}
	return out
}

func canonicalList(m decl.Model, a decl.Annotation, name string) ([]decl.ClassID, error) {
	ids, err := a.ClassListArg(name)
	if err != nil {
		return nil, err
	}
	for i := range ids {
		ids[i] = m.Canonical(ids[i])
	}
	return ids, nil
}

func duplicateIDs(ids []decl.ClassID) []decl.ClassID {
	var out []decl.ClassID
	count := map[decl.ClassID]int{}
	for _, id := range ids {
		count[id]++
		if count[id] == 2 {
			out = append(out, id)
		}
	}
	return out
}
