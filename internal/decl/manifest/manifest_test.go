package manifest

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/sghaida/odimerge/internal/decl"
)

const sampleManifest = `unit: app
aliases:
  com.example.Alias: com.example.Repo
declarations:
  - name: com.example.Repo
    kind: interface
  - name: com.example.RepoImpl
    supertypes: [com.example.Repo]
    pos: src/RepoImpl.kt:12:1
    annotations:
      - type: odimerge.annotations.ContributesBinding
        args:
          scope: {class: com.example.AppScope}
          priority: {enum: odimerge.annotations.ContributesBinding.Priority.HIGH}
          replaces:
            array:
              - {class: com.example.OldRepo}
      - type: javax.inject.Named
        args:
          value: {string: db}
  - name: com.example.Factory
    kind: interface
    typeParams: [T]
    functions:
      - name: create
        returns: com.example.Box<T>
        abstract: true
        params:
          - {name: seed, type: T}
`

func TestDecode_ToDecls(t *testing.T) {
	t.Parallel()

	f, err := Decode([]byte(sampleManifest))
	require.NoError(t, err)
	decls, err := f.ToDecls("")
	require.NoError(t, err)
	require.Len(t, decls, 3)

	impl := decls[1]
	assert.Equal(t, "app", impl.Unit)
	assert.Equal(t, decl.KindClass, impl.Kind)
	assert.Equal(t, decl.Position{File: "src/RepoImpl.kt", Line: 12, Column: 1}, impl.Pos)
	require.Len(t, impl.Annotations, 2)

	binding := impl.Annotations[0]
	assert.Equal(t, decl.ContributesBinding, binding.Class)
	assert.Equal(t, []string{"scope", "priority", "replaces"}, []string{
		binding.Args[0].Name, binding.Args[1].Name, binding.Args[2].Name,
	})
	prio, ok, err := binding.EnumArg("priority")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "HIGH", prio)

	factory := decls[2]
	require.Len(t, factory.Functions, 1)
	fn := factory.Functions[0]
	assert.True(t, fn.Abstract)
	assert.Equal(t, "com.example.Box<T>", fn.Returns.String())
	assert.True(t, fn.Params[0].Type.IsParam())
}

func TestMarshal_RoundTrip(t *testing.T) {
	t.Parallel()

	f, err := Decode([]byte(sampleManifest))
	require.NoError(t, err)
	decls, err := f.ToDecls("")
	require.NoError(t, err)

	data, err := Marshal(FromDecls("app", decls))
	require.NoError(t, err)
	back, err := Decode(data)
	require.NoError(t, err)
	again, err := back.ToDecls("")
	require.NoError(t, err)

	opts := cmp.Comparer(func(a, b decl.Value) bool { return a.Equal(b) })
	if diff := cmp.Diff(decls, again, opts); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantSub string
	}{
		{
			name:    "missing name",
			doc:     "declarations:\n  - kind: interface\n",
			wantSub: "missing name",
		},
		{
			name:    "unknown kind",
			doc:     "declarations:\n  - name: a.B\n    kind: struct\n",
			wantSub: "unknown kind",
		},
		{
			name:    "two value keys",
			doc:     "declarations:\n  - name: a.B\n    annotations:\n      - type: a.X\n        args:\n          v: {string: s, bool: true}\n",
			wantSub: "exactly one",
		},
		{
			name:    "bad enum",
			doc:     "declarations:\n  - name: a.B\n    annotations:\n      - type: a.X\n        args:\n          v: {enum: HIGH}\n",
			wantSub: "<EnumClass>.<ENTRY>",
		},
		{
			name:    "bad type",
			doc:     "declarations:\n  - name: a.B\n    supertypes: [\"a.C<\"]\n",
			wantSub: "a.C<",
		},
		{
			name:    "args not a mapping",
			doc:     "declarations:\n  - name: a.B\n    annotations:\n      - type: a.X\n        args: [1]\n",
			wantSub: "args must be a mapping",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f, err := Decode([]byte(tt.doc))
			if err == nil {
				_, err = f.ToDecls("u")
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantSub)
		})
	}
}

func TestParsePosition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want decl.Position
	}{
		{in: "", want: decl.Position{}},
		{in: "a.kt", want: decl.Position{File: "a.kt"}},
		{in: "a.kt:4", want: decl.Position{File: "a.kt", Line: 4}},
		{in: "a.kt:4:7", want: decl.Position{File: "a.kt", Line: 4, Column: 7}},
		{in: "C:/src/a.kt:4:7", want: decl.Position{File: "C:/src/a.kt", Line: 4, Column: 7}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParsePosition(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModel_RoundVisibility(t *testing.T) {
	t.Parallel()

	f, err := Decode([]byte(sampleManifest))
	require.NoError(t, err)
	m, err := NewModel("app", f)
	require.NoError(t, err)

	alias := decl.ParseClassID("com.example.Alias")
	assert.Equal(t, decl.ParseClassID("com.example.Repo"), m.Canonical(alias))
	assert.Len(t, m.Annotated(decl.ContributesBinding), 1)

	gen := &decl.Declaration{
		ID:          decl.ParseClassID("com.example.Gen"),
		Kind:        decl.KindInterface,
		Annotations: []decl.Annotation{decl.NewAnnotation(decl.ContributesBinding)},
	}
	require.NoError(t, m.Emit(gen))
	assert.Len(t, m.Annotated(decl.ContributesBinding), 1, "emitted declarations stay hidden until the next round")
	require.Error(t, m.Emit(gen), "emitting the same class twice in a round")

	published, ok := m.NextRound()
	require.True(t, ok)
	require.Len(t, published, 1)
	assert.True(t, published[0].Generated)
	assert.Equal(t, 2, m.Round())
	assert.Len(t, m.Annotated(decl.ContributesBinding), 2)
	assert.Len(t, m.Generated(), 1)

	_, ok = m.NextRound()
	assert.False(t, ok)
	require.Error(t, m.Emit(gen), "already declared")
}

func TestNewModel_RejectsDuplicates(t *testing.T) {
	t.Parallel()

	a := &File{Declarations: []Declaration{{Name: "a.B"}}}
	b := &File{Declarations: []Declaration{{Name: "a.B"}}}
	_, err := NewModel("u", a, b)
	require.Error(t, err)

	c := &File{Aliases: map[string]string{"a.X": "a.Y"}}
	d := &File{Aliases: map[string]string{"a.X": "a.Z"}}
	_, err = NewModel("u", c, d)
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fs := afs.New()
	URL := "mem://localhost/manifest_test/app.yaml"
	require.NoError(t, fs.Upload(ctx, URL, file.DefaultFileOsMode, strings.NewReader(sampleManifest)))

	files, err := Load(ctx, fs, URL)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "app", files[0].Unit)

	_, err = Load(ctx, fs, "mem://localhost/manifest_test/missing.yaml")
	require.Error(t, err)
}
