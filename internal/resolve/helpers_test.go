package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sghaida/odimerge/internal/contrib"
	"github.com/sghaida/odimerge/internal/decl"
	"github.com/sghaida/odimerge/internal/decl/memory"
	"github.com/sghaida/odimerge/internal/hint"
)

//
// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

const (
	contributesTo           = "odimerge.annotations.ContributesTo"
	contributesBinding      = "odimerge.annotations.ContributesBinding"
	contributesMultibinding = "odimerge.annotations.ContributesMultibinding"
	contributesSubcomponent = "odimerge.annotations.ContributesSubcomponent"
	mergeComponent          = "odimerge.annotations.MergeComponent"
	mergeModules            = "odimerge.annotations.MergeModules"
	mergeInterfaces         = "odimerge.annotations.MergeInterfaces"

	appScope  = "a.AppScope"
	userScope = "a.UserScope"
)

var scopeArg = memory.ClassArg("scope", appScope)

// shared are the classes the fixtures reference.
func shared() []*decl.Declaration {
	return []*decl.Declaration{
		memory.Class(appScope).Build(),
		memory.Class(userScope).Build(),
		memory.Interface("a.Api").Build(),
		memory.Interface("a.Cache").Build(),
		memory.AnnotationClass("a.Fast").With("javax.inject.Qualifier").Build(),
	}
}

func component(fq string, args ...decl.Arg) *decl.Declaration {
	return memory.Interface(fq).At("Component.kt", 1, 1).
		Ann(mergeComponent, append([]decl.Arg{scopeArg}, args...)...).Build()
}

func module(fq string, args ...decl.Arg) *decl.Declaration {
	return memory.Class(fq).Kind(decl.KindAbstractClass).With("dagger.Module").
		Ann(contributesTo, append([]decl.Arg{scopeArg}, args...)...).Build()
}

func accessors(fq string) *decl.Declaration {
	return memory.Interface(fq).Ann(contributesTo, scopeArg).Build()
}

func binding(fq, bound string, args ...decl.Arg) *memory.Builder {
	return memory.Class(fq).Extends(bound).Ann(contributesBinding, append([]decl.Arg{scopeArg}, args...)...)
}

//
// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// unit builds a model over decls and indexes its contributions, as the first
// round of a compilation does.
func unit(t testing.TB, upstream *hint.Index, decls ...*decl.Declaration) (*memory.Model, *Engine) {
	t.Helper()
	m := memory.New("app").AddClasspath(shared()...).Add(decls...)
	ix := upstream
	if ix == nil {
		ix = hint.NewIndex()
	}
	s := contrib.NewScanner(m)
	cs, err := s.ScanAll(s.Contributors())
	require.NoError(t, err)
	require.NoError(t, ix.Add(contrib.ToRecords(cs)...))
	return m, NewEngine(m, ix)
}

// upstreamIndex compiles decls as a separate unit and returns its records.
func upstreamIndex(t testing.TB, decls ...*decl.Declaration) *hint.Index {
	t.Helper()
	_, e := unit(t, nil, decls...)
	return e.Index()
}

// resolveTarget resolves the single merge request of target.
func resolveTarget(t testing.TB, m decl.Model, e *Engine, target string) (*ResolvedBindingSet, error) {
	t.Helper()
	d, ok := m.Lookup(decl.ParseClassID(target))
	require.True(t, ok, target)
	reqs, err := Requests(m, d)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	return e.Resolve(reqs[0])
}

func ids(fqs ...string) []decl.ClassID {
	out := make([]decl.ClassID, len(fqs))
	for i, fq := range fqs {
		out[i] = decl.ParseClassID(fq)
	}
	return out
}

func contributing(bs []BindingSpec) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Contributing.String()
	}
	return out
}
