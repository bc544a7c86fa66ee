package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

//
// -----------------------------------------------------------------------------
// Shared fixtures
// -----------------------------------------------------------------------------

// libManifest is an upstream unit contributing one binding and one module.
func libManifest() string {
	return `unit: lib
declarations:
  - name: com.example.AppScope
  - name: com.example.Repo
    kind: interface
  - name: com.example.RepoImpl
    supertypes: [com.example.Repo]
    pos: lib/RepoImpl.kt:3:1
    annotations:
      - type: odimerge.annotations.ContributesBinding
        args:
          scope: {class: com.example.AppScope}
  - name: com.example.NetworkModule
    kind: abstract
    annotations:
      - type: dagger.Module
      - type: odimerge.annotations.ContributesTo
        args:
          scope: {class: com.example.AppScope}
`
}

// appManifest is a unit with one merge target over AppScope.
func appManifest() string {
	return `unit: app
declarations:
  - name: com.example.app.AppComponent
    kind: interface
    pos: app/AppComponent.kt:5:1
    annotations:
      - type: odimerge.annotations.MergeComponent
        args:
          scope: {class: com.example.AppScope}
`
}

// duplicateManifest adds a second NORMAL binding for Repo, which collides
// with the upstream one.
func duplicateManifest() string {
	return `unit: app
declarations:
  - name: com.example.app.OtherRepo
    supertypes: [com.example.Repo]
    annotations:
      - type: odimerge.annotations.ContributesBinding
        args:
          scope: {class: com.example.AppScope}
`
}

//
// -----------------------------------------------------------------------------
// Small helpers
// -----------------------------------------------------------------------------

// writeTempFile writes a file under dir/name and returns its full path.
func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// readFileString reads a file and returns its contents as string (fatal on error).
func readFileString(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(b)
}
