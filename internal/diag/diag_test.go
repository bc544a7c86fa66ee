package diag

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/odimerge/internal/decl"
	"github.com/sghaida/odimerge/internal/logging"
)

func TestError(t *testing.T) {
	t.Parallel()

	d := &decl.Declaration{
		ID:  decl.ParseClassID("a.Impl"),
		Pos: decl.Position{File: "Impl.kt", Line: 3, Column: 5},
	}
	err := New(KindUser, d, MultipleQualifiers())
	assert.Equal(t, "Impl.kt:3:5: Classes can be annotated with only one qualifier.", err.Error())
	assert.Equal(t, "a.Impl", err.Declaration.String())

	noPos := At(KindStructural, decl.Position{}, decl.ParseClassID("a.Impl"), "boom")
	assert.Equal(t, "boom", noPos.Error())

	assert.Equal(t, "boom", New(KindArtifact, nil, "boom").Error())
}

func TestAsAndIsKind(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	base := At(KindScopeMismatch, decl.Position{}, decl.ClassID{}, "mismatch").WithCause(sentinel)
	wrapped := errors.Wrap(base, "round 2")

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Same(t, base, got)
	assert.True(t, IsKind(wrapped, KindScopeMismatch))
	assert.False(t, IsKind(wrapped, KindUser))
	assert.ErrorIs(t, wrapped, sentinel)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsKind(nil, KindUser))
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want string
	}{
		{KindUser, "user"},
		{KindStructural, "structural"},
		{KindArtifact, "artifact"},
		{KindScopeMismatch, "scope-mismatch"},
		{Kind(42), "Kind(42)"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestMessages(t *testing.T) {
	t.Parallel()

	ids := func(fqs ...string) []decl.ClassID {
		out := make([]decl.ClassID, len(fqs))
		for i, fq := range fqs {
			out[i] = decl.ParseClassID(fq)
		}
		return out
	}
	api := decl.ClassType(decl.ParseClassID("a.Api"))

	assert.Equal(t,
		"a.Impl contributes multiple times to the same scope: [AppScope, AppScope]. "+
			"Contributing multiple times to the same scope is forbidden and all scopes must be distinct.",
		DuplicateScope(decl.ParseClassID("a.Impl"), ids("a.AppScope", "a.AppScope")))
	assert.Equal(t,
		"There are multiple contributed bindings with the same bound type and priority. "+
			"The bound type is a.Api. The priority is NORMAL. The contributed binding classes are: [a.A, a.B]",
		DuplicateBinding(api, "NORMAL", ids("a.B", "a.A")))
	assert.Equal(t, "Replacement cycle detected: a.A -> a.B -> a.A.", ReplaceCycle(ids("a.A", "a.B", "a.A")))
	assert.Equal(t, "Classes annotated with @ContributesBinding may not use more than one @MapKey.",
		MultipleMapKeys(decl.ContributesBinding))
	assert.Equal(t,
		"Contributed subcomponents did not reach a fixed point after 3 rounds; pending: [a.App -> a.Child].",
		RoundLimit(3, []string{"a.App -> a.Child"}))
}

// Report writes to the process wide logger, so it does not run in parallel.
func TestReport(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.DefaultLogger
	prevOut, prevFormatter := logger.Out, logger.Formatter
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	t.Cleanup(func() {
		logger.SetOutput(prevOut)
		logger.SetFormatter(prevFormatter)
	})

	assert.NoError(t, Report(nil))
	assert.Empty(t, buf.String())

	d := At(KindUser, decl.Position{File: "A.kt", Line: 1, Column: 2}, decl.ParseClassID("a.A"), "bad input")
	err := errors.Wrap(d, "round 1")
	assert.Same(t, err, Report(err))
	out := buf.String()
	assert.Contains(t, out, `msg="bad input"`)
	assert.Contains(t, out, "kind=user")
	assert.Contains(t, out, "position=\"A.kt:1:2\"")
	assert.Contains(t, out, "subsys=diag")

	buf.Reset()
	plain := errors.New("disk full")
	assert.Equal(t, plain, Report(plain))
	assert.Contains(t, buf.String(), "disk full")
}
