package resolve

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/odimerge/internal/decl"
	"github.com/sghaida/odimerge/internal/decl/memory"
	"github.com/sghaida/odimerge/internal/diag"
)

func TestResolve_MergesEverythingInScope(t *testing.T) {
	t.Parallel()

	m, e := unit(t, nil,
		component("a.App"),
		module("a.NetModule"),
		accessors("a.AppAccessors"),
		binding("a.ApiImpl", "a.Api").Build(),
		memory.Class("a.CacheImpl").Extends("a.Cache").
			Ann(contributesMultibinding, scopeArg).Build(),
		// a different scope is ignored
		memory.Class("a.UserModule").Kind(decl.KindAbstractClass).With("dagger.Module").
			Ann(contributesTo, memory.ClassArg("scope", userScope)).Build(),
	)

	set, err := resolveTarget(t, m, e, "a.App")
	require.NoError(t, err)
	assert.Equal(t, ids("a.NetModule"), set.Modules)
	assert.Equal(t, ids("a.AppAccessors"), set.Interfaces)
	assert.Equal(t, []string{"a.ApiImpl"}, contributing(set.BindingMethods))
	assert.Equal(t, []string{"a.CacheImpl"}, contributing(set.MultibindingMethods))
	assert.True(t, set.MultibindingMethods[0].IsMultibinding)
	assert.False(t, set.Empty())
}

func TestResolve_ModesPartitionContributions(t *testing.T) {
	t.Parallel()

	decls := []*decl.Declaration{
		memory.Interface("a.AsInterfaces").Ann(mergeInterfaces, scopeArg).Build(),
		memory.Class("a.AsModules").Kind(decl.KindAbstractClass).With("dagger.Module").Ann(mergeModules, scopeArg).Build(),
		module("a.NetModule"),
		accessors("a.AppAccessors"),
		binding("a.ApiImpl", "a.Api").Build(),
		memory.Interface("a.Child").Ann(contributesSubcomponent,
			memory.ClassArg("scope", userScope), memory.ClassArg("parentScope", appScope)).Build(),
	}
	m, e := unit(t, nil, decls...)

	interfaces, err := resolveTarget(t, m, e, "a.AsInterfaces")
	require.NoError(t, err)
	assert.Empty(t, interfaces.Modules)
	assert.Empty(t, interfaces.BindingMethods)
	assert.Empty(t, interfaces.Subcomponents)
	assert.Equal(t, ids("a.AppAccessors"), interfaces.Interfaces)

	modules, err := resolveTarget(t, m, e, "a.AsModules")
	require.NoError(t, err)
	assert.Equal(t, ids("a.NetModule"), modules.Modules)
	assert.Len(t, modules.BindingMethods, 1)
	assert.Empty(t, modules.Interfaces)
	assert.Empty(t, modules.Subcomponents)
}

func TestResolve_Subcomponents(t *testing.T) {
	t.Parallel()

	m, e := unit(t, nil,
		component("a.App"),
		memory.Interface("a.Child").At("Child.kt", 4, 1).Ann(contributesSubcomponent,
			memory.ClassArg("scope", userScope),
			memory.ClassArg("parentScope", appScope),
			memory.ClassListArg("modules", "a.ChildModule"),
		).Build(),
	)
	set, err := resolveTarget(t, m, e, "a.App")
	require.NoError(t, err)
	require.Len(t, set.Subcomponents, 1)

	spec := set.Subcomponents[0]
	assert.Equal(t, decl.ParseClassID("a.Child"), spec.Original)
	assert.Equal(t, decl.ParseClassID(appScope), spec.ParentScope)
	assert.Equal(t, decl.ParseClassID(userScope), spec.Scope)
	assert.Equal(t, ids("a.ChildModule"), spec.Modules)
	assert.Equal(t, decl.ParseClassID("a.App"), spec.Parent)
	assert.Equal(t, decl.Position{File: "Child.kt", Line: 4, Column: 1}, spec.Pos)
}

func TestResolve_Priority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		decls  []*decl.Declaration
		winner string
	}{
		{
			name: "high beats normal",
			decls: []*decl.Declaration{
				binding("a.Impl1", "a.Api").Build(),
				binding("a.Impl2", "a.Api", memory.PriorityArg("HIGH")).Build(),
			},
			winner: "a.Impl2",
		},
		{
			name: "highest beats high",
			decls: []*decl.Declaration{
				binding("a.Impl1", "a.Api", memory.PriorityArg("HIGHEST")).Build(),
				binding("a.Impl2", "a.Api", memory.PriorityArg("HIGH")).Build(),
				binding("a.Impl3", "a.Api").Build(),
			},
			winner: "a.Impl1",
		},
		{
			name: "ties below the winner are fine",
			decls: []*decl.Declaration{
				binding("a.Impl1", "a.Api").Build(),
				binding("a.Impl2", "a.Api").Build(),
				binding("a.Impl3", "a.Api", memory.PriorityArg("HIGH")).Build(),
			},
			winner: "a.Impl3",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, e := unit(t, nil, append([]*decl.Declaration{component("a.App")}, tt.decls...)...)
			set, err := resolveTarget(t, m, e, "a.App")
			require.NoError(t, err)
			assert.Equal(t, []string{tt.winner}, contributing(set.BindingMethods))
		})
	}
}

func TestResolve_DuplicateBinding(t *testing.T) {
	t.Parallel()

	m, e := unit(t, nil,
		component("a.App"),
		binding("a.Zeta", "a.Api", memory.PriorityArg("HIGH")).Build(),
		binding("a.Alpha", "a.Api", memory.PriorityArg("HIGH")).Build(),
		binding("a.Low", "a.Api").Build(),
	)
	_, err := resolveTarget(t, m, e, "a.App")
	require.Error(t, err)
	assert.True(t, diag.IsKind(err, diag.KindUser))
	assert.Equal(t, "Component.kt:1:1: There are multiple contributed bindings with the same bound type and priority. "+
		"The bound type is a.Api. The priority is HIGH. The contributed binding classes are: [a.Alpha, a.Zeta]",
		err.Error())
}

func TestResolve_QualifiersSeparateGroups(t *testing.T) {
	t.Parallel()

	named := func(v string) decl.Annotation {
		return decl.NewAnnotation(decl.Named, decl.NamedArg("value", decl.StringValue(v)))
	}
	m, e := unit(t, nil,
		component("a.App"),
		binding("a.Plain", "a.Api").Build(),
		binding("a.Quick", "a.Api").With("a.Fast").Build(),
		binding("a.Db", "a.Api").Annotate(named("db")).Build(),
		binding("a.Net", "a.Api").Annotate(named("net")).Build(),
		// ignoring the qualifier puts it back into the unqualified group
		binding("a.Loose", "a.Api", decl.NamedArg("ignoreQualifier", decl.BoolValue(true)), memory.PriorityArg("HIGH")).
			Annotate(named("loose")).Build(),
	)
	set, err := resolveTarget(t, m, e, "a.App")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.Db", "a.Loose", "a.Net", "a.Quick"}, contributing(set.BindingMethods))
	for _, b := range set.BindingMethods {
		if b.Contributing.String() == "a.Loose" {
			assert.Nil(t, b.Qualifier)
		}
	}
}

func TestResolve_Exclude(t *testing.T) {
	t.Parallel()

	m, e := unit(t, nil,
		component("a.App", memory.ClassListArg("exclude", "a.NetModule", "a.ApiImpl")),
		module("a.NetModule"),
		module("a.KeptModule"),
		binding("a.ApiImpl", "a.Api").Build(),
	)
	set, err := resolveTarget(t, m, e, "a.App")
	require.NoError(t, err)
	assert.Equal(t, ids("a.KeptModule"), set.Modules)
	assert.Empty(t, set.BindingMethods)
}

func TestResolve_Replace(t *testing.T) {
	t.Parallel()

	m, e := unit(t, nil,
		component("a.App"),
		module("a.RealModule"),
		module("a.FakeModule", memory.ClassListArg("replaces", "a.RealModule")),
		binding("a.RealApi", "a.Api").Build(),
		binding("a.FakeApi", "a.Api", memory.ClassListArg("replaces", "a.RealApi")).Build(),
		// a second replacer of the same module is harmless
		module("a.OtherFake", memory.ClassListArg("replaces", "a.RealModule")),
	)
	set, err := resolveTarget(t, m, e, "a.App")
	require.NoError(t, err)
	assert.Equal(t, ids("a.FakeModule", "a.OtherFake"), set.Modules)
	assert.Equal(t, []string{"a.FakeApi"}, contributing(set.BindingMethods))
}

func TestResolve_ExcludingReplacedIsIdempotent(t *testing.T) {
	t.Parallel()

	contributors := []*decl.Declaration{
		module("a.RealModule"),
		module("a.FakeModule", memory.ClassListArg("replaces", "a.RealModule")),
		binding("a.RealApi", "a.Api").Build(),
		binding("a.FakeApi", "a.Api", memory.ClassListArg("replaces", "a.RealApi")).Build(),
	}

	m, e := unit(t, nil, append([]*decl.Declaration{component("a.App")}, contributors...)...)
	replaced, err := resolveTarget(t, m, e, "a.App")
	require.NoError(t, err)

	m2, e2 := unit(t, nil, append([]*decl.Declaration{
		component("a.App", memory.ClassListArg("exclude", "a.RealModule", "a.RealApi")),
	}, contributors...)...)
	excluded, err := resolveTarget(t, m2, e2, "a.App")
	require.NoError(t, err)

	assert.Equal(t, ids("a.FakeModule"), replaced.Modules)
	assert.Equal(t, replaced.Modules, excluded.Modules)
	assert.Equal(t, []string{"a.FakeApi"}, contributing(replaced.BindingMethods))
	if diff := cmp.Diff(replaced.BindingMethods, excluded.BindingMethods,
		cmp.Comparer(func(a, b decl.Value) bool { return a.Equal(b) })); diff != "" {
		t.Fatalf("excluding a replaced class changed the bindings (-replaced +excluded):\n%s", diff)
	}
}

func TestResolve_IncludedModulesSurvive(t *testing.T) {
	t.Parallel()

	m, e := unit(t, nil,
		component("a.App", memory.ClassListArg("modules", "a.Manual")),
		module("a.NetModule"),
	)
	set, err := resolveTarget(t, m, e, "a.App")
	require.NoError(t, err)
	assert.Equal(t, ids("a.Manual", "a.NetModule"), set.Modules)
}

func TestResolve_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		decls    []*decl.Declaration
		kind     diag.Kind
		wantSub  string
		wantCycl bool
	}{
		{
			name: "target not an interface",
			decls: []*decl.Declaration{
				memory.Class("a.App").Ann(mergeComponent, scopeArg).Build(),
			},
			kind:    diag.KindUser,
			wantSub: "must be interfaces",
		},
		{
			name: "include and exclude",
			decls: []*decl.Declaration{
				component("a.App", memory.ClassListArg("modules", "a.NetModule"), memory.ClassListArg("exclude", "a.NetModule")),
				module("a.NetModule"),
			},
			kind:    diag.KindUser,
			wantSub: "includes and excludes modules at the same time: a.NetModule",
		},
		{
			name: "exclude own supertype",
			decls: []*decl.Declaration{
				memory.Interface("a.App").Extends("a.AppAccessors").
					Ann(mergeComponent, scopeArg, memory.ClassListArg("exclude", "a.AppAccessors")).Build(),
				accessors("a.AppAccessors"),
			},
			kind:    diag.KindUser,
			wantSub: "excludes types that it implements or extends",
		},
		{
			name: "exclude from another scope",
			decls: []*decl.Declaration{
				component("a.App", memory.ClassListArg("exclude", "a.UserModule")),
				memory.Class("a.UserModule").Kind(decl.KindAbstractClass).With("dagger.Module").
					Ann(contributesTo, memory.ClassArg("scope", userScope)).Build(),
			},
			kind:    diag.KindScopeMismatch,
			wantSub: "wants to exclude a.UserModule",
		},
		{
			name: "replace from another scope",
			decls: []*decl.Declaration{
				component("a.App"),
				module("a.Fake", memory.ClassListArg("replaces", "a.Elsewhere")),
			},
			kind:    diag.KindScopeMismatch,
			wantSub: "wants to replace a.Elsewhere",
		},
		{
			name: "binding replaces an interface",
			decls: []*decl.Declaration{
				component("a.App"),
				accessors("a.AppAccessors"),
				binding("a.FakeApi", "a.Api", memory.ClassListArg("replaces", "a.AppAccessors")).Build(),
			},
			kind:    diag.KindUser,
			wantSub: "is not a Dagger module",
		},
		{
			name: "replace cycle",
			decls: []*decl.Declaration{
				component("a.App"),
				module("a.B", memory.ClassListArg("replaces", "a.A")),
				module("a.A", memory.ClassListArg("replaces", "a.B")),
			},
			kind:     diag.KindStructural,
			wantSub:  "Replacement cycle detected: a.A -> a.B -> a.A.",
			wantCycl: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, e := unit(t, nil, tt.decls...)
			_, err := resolveTarget(t, m, e, "a.App")
			require.Error(t, err)
			assert.True(t, diag.IsKind(err, tt.kind), "got %v", err)
			assert.Contains(t, err.Error(), tt.wantSub)
			if tt.wantCycl {
				assert.ErrorIs(t, err, ErrReplaceCycle)
			}
		})
	}
}

func TestRequests(t *testing.T) {
	t.Parallel()

	m := memory.New("app").AddClasspath(shared()...).
		Alias(decl.ParseClassID("a.ScopeAlias"), decl.ParseClassID(appScope))
	twoScopes := memory.Interface("a.App").
		Ann(mergeComponent, memory.ClassArg("scope", "a.ScopeAlias")).
		Ann(mergeComponent, memory.ClassArg("scope", userScope)).
		Ann(mergeInterfaces, scopeArg).Build()
	m.Add(twoScopes)

	reqs, err := Requests(m, twoScopes)
	require.NoError(t, err)
	require.Len(t, reqs, 3)
	assert.Equal(t, "component(a.App <- a.AppScope)", reqs[0].String())
	assert.Equal(t, "component(a.App <- a.UserScope)", reqs[1].String())
	assert.Equal(t, "interfaceList(a.App <- a.AppScope)", reqs[2].String())
	assert.Equal(t, []string{"a.App"}, func() []string {
		var out []string
		for _, d := range Targets(m) {
			out = append(out, d.ID.String())
		}
		return out
	}())

	dup := memory.Interface("a.Dup").
		Ann(mergeComponent, scopeArg).
		Ann(mergeComponent, memory.ClassArg("scope", "a.ScopeAlias")).Build()
	_, err = Requests(m, dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merges multiple times to the same scope: [AppScope]")

	missing := memory.Interface("a.Missing").Ann(mergeComponent).Build()
	_, err = Requests(m, missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Couldn't find scope")
}

func TestResolve_Deterministic(t *testing.T) {
	t.Parallel()

	build := func() []*decl.Declaration {
		return []*decl.Declaration{
			component("a.App"),
			module("a.ModC"), module("a.ModA"), module("a.ModB"),
			accessors("a.AccB"), accessors("a.AccA"),
			binding("a.ImplB", "a.Api").With("a.Fast").Build(),
			binding("a.ImplA", "a.Api").Build(),
			memory.Class("a.CacheB").Extends("a.Cache").Ann(contributesMultibinding, scopeArg).Build(),
			memory.Class("a.CacheA").Extends("a.Cache").Ann(contributesMultibinding, scopeArg).Build(),
		}
	}
	m, e := unit(t, nil, build()...)
	want, err := resolveTarget(t, m, e, "a.App")
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5; i++ {
		decls := build()
		rng.Shuffle(len(decls), func(a, b int) { decls[a], decls[b] = decls[b], decls[a] })
		m, e := unit(t, nil, decls...)
		got, err := resolveTarget(t, m, e, "a.App")
		require.NoError(t, err)
		if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b decl.Value) bool { return a.Equal(b) })); diff != "" {
			t.Fatalf("shuffle %d changed the result (-want +got):\n%s", i, diff)
		}
	}
}

func TestResolve_SameResultAcrossUnits(t *testing.T) {
	t.Parallel()

	contributors := func() []*decl.Declaration {
		return []*decl.Declaration{
			module("a.NetModule"),
			accessors("a.AppAccessors"),
			binding("a.ApiImpl", "a.Api", memory.PriorityArg("HIGH")).Build(),
			binding("a.ApiFallback", "a.Api").Build(),
		}
	}

	m, e := unit(t, nil, append([]*decl.Declaration{component("a.App")}, contributors()...)...)
	local, err := resolveTarget(t, m, e, "a.App")
	require.NoError(t, err)

	upstream := upstreamIndex(t, contributors()...)
	m2, e2 := unit(t, upstream, component("a.App"))
	remote, err := resolveTarget(t, m2, e2, "a.App")
	require.NoError(t, err)

	if diff := cmp.Diff(local, remote, cmp.Comparer(func(a, b decl.Value) bool { return a.Equal(b) })); diff != "" {
		t.Fatalf("upstream contributions resolve differently (-local +upstream):\n%s", diff)
	}
}

func TestCombine(t *testing.T) {
	t.Parallel()

	api := decl.ClassType(decl.ParseClassID("a.Api"))
	a := &ResolvedBindingSet{
		Request:        MergeRequest{Target: decl.ParseClassID("a.App"), Scope: decl.ParseClassID(appScope)},
		Modules:        ids("a.M1"),
		BindingMethods: []BindingSpec{{BoundType: api, Contributing: decl.ParseClassID("a.Impl")}},
	}
	b := &ResolvedBindingSet{
		Request:        MergeRequest{Target: decl.ParseClassID("a.App"), Scope: decl.ParseClassID(userScope)},
		Modules:        ids("a.M0", "a.M1"),
		BindingMethods: []BindingSpec{{BoundType: api, Contributing: decl.ParseClassID("a.Impl"), ScopeIndex: 1}},
		Interfaces:     ids("a.I"),
	}
	got := Combine([]*ResolvedBindingSet{a, b})
	assert.Equal(t, a.Request, got.Request)
	assert.Equal(t, ids("a.M0", "a.M1"), got.Modules)
	assert.Equal(t, ids("a.I"), got.Interfaces)
	assert.Len(t, got.BindingMethods, 1)

	assert.Same(t, a, Combine([]*ResolvedBindingSet{a}))
}

func BenchmarkResolve(b *testing.B) {
	decls := []*decl.Declaration{component("a.App")}
	for i := 0; i < 200; i++ {
		n := string(rune('A'+i%26)) + string(rune('a'+i/26))
		decls = append(decls,
			module("a.Mod"+n),
			memory.Class("a.Impl"+n).Extends("a.Api").
				Ann(contributesBinding, scopeArg, memory.ClassArg("boundType", "a.Api")).
				Ann("javax.inject.Named", decl.NamedArg("value", decl.StringValue(n))).Build(),
		)
	}
	m, e := unit(b, nil, decls...)
	d, _ := m.Lookup(decl.ParseClassID("a.App"))
	reqs, err := Requests(m, d)
	require.NoError(b, err)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Resolve(reqs[0]); err != nil {
			b.Fatal(err)
		}
	}
}
