package subgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sghaida/odimerge/internal/decl"
	"github.com/sghaida/odimerge/internal/decl/manifest"
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
	contributesSubcomponent = "odimerge.annotations.ContributesSubcomponent"
	subcomponentFactory     = "odimerge.annotations.ContributesSubcomponent.Factory"
	mergeComponent          = "odimerge.annotations.MergeComponent"

	appScope  = "a.AppScope"
	userScope = "a.UserScope"
	taskScope = "a.TaskScope"
)

func shared() []*decl.Declaration {
	return []*decl.Declaration{
		memory.Class(appScope).Build(),
		memory.Class(userScope).Build(),
		memory.Class(taskScope).Build(),
		memory.Interface("a.Api").Build(),
		memory.AnnotationClass("a.UserScoped").With("javax.inject.Scope").Build(),
	}
}

func app() *decl.Declaration {
	return memory.Interface("a.App").At("App.kt", 1, 1).
		Ann(mergeComponent, memory.ClassArg("scope", appScope)).With("javax.inject.Singleton").Build()
}

// child contributes a.Child with its own scope into parent.
func child(fq, scope, parent string, args ...decl.Arg) *decl.Declaration {
	return memory.Interface(fq).At(fq+".kt", 1, 1).
		Ann(contributesSubcomponent, append([]decl.Arg{
			memory.ClassArg("scope", scope),
			memory.ClassArg("parentScope", parent),
		}, args...)...).Build()
}

func userBinding() *decl.Declaration {
	return memory.Class("a.UserApi").Extends("a.Api").
		Ann(contributesBinding, memory.ClassArg("scope", userScope)).Build()
}

//
// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func memoryModel(decls ...*decl.Declaration) *memory.Model {
	return memory.New("app").AddClasspath(shared()...).Add(decls...)
}

func manifestModel(t *testing.T, decls ...*decl.Declaration) *manifest.Model {
	t.Helper()
	m, err := manifest.NewModel("app", manifest.FromDecls("app", decls))
	require.NoError(t, err)
	require.NoError(t, m.AddClasspath(manifest.FromDecls("shared", shared())))
	return m
}

// runInProcess expands decls with the in-process driver.
func runInProcess(t *testing.T, opts Options, decls ...*decl.Declaration) (*Result, error) {
	t.Helper()
	return NewBuilder(memoryModel(decls...), hint.NewIndex(), opts).Run(context.Background())
}

// runRounds expands decls one host round at a time.
func runRounds(t *testing.T, opts Options, decls ...*decl.Declaration) (*Result, error) {
	t.Helper()
	m := manifestModel(t, decls...)
	return RunRounds(context.Background(), m, NewProcessor(m, hint.NewIndex(), opts))
}

func generatedIDs(r *Result) []string {
	out := make([]string, len(r.Generated))
	for i, d := range r.Generated {
		out[i] = d.ID.String()
	}
	return out
}

func find(t *testing.T, r *Result, fq string) *decl.Declaration {
	t.Helper()
	for _, d := range r.Generated {
		if d.ID.String() == fq {
			return d
		}
	}
	require.Failf(t, "not generated", "%s not in %v", fq, generatedIDs(r))
	return nil
}
