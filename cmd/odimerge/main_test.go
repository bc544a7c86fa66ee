package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run redirects the process wide logger, so these tests do not run in
// parallel.

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantSub string
	}{
		{name: "missing unit", args: []string{}, wantSub: "--unit"},
		{name: "unknown flag", args: []string{"--unit", "x.yaml", "--nope"}, wantSub: "nope"},
		{name: "bad driver", args: []string{"--unit", "x.yaml", "--driver", "threads"}, wantSub: "threads"},
		{name: "bad log format", args: []string{"--unit", "x.yaml", "--log-format", "xml"}, wantSub: "xml"},
		{name: "missing config", args: []string{"--unit", "x.yaml", "--config", "/does/not/exist.yaml"}, wantSub: "read config"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			code := run(tt.args, &stderr)
			assert.Equal(t, 2, code)
			assert.Contains(t, stderr.String(), tt.wantSub)
		})
	}
}

func TestRun_Help(t *testing.T) {
	var stderr bytes.Buffer
	code := run([]string{"--help"}, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr.String(), "--classpath")
}

func TestRun_MissingManifestFails(t *testing.T) {
	var stderr bytes.Buffer
	code := run([]string{"--unit", filepath.Join(t.TempDir(), "absent.yaml")}, &stderr)
	assert.Equal(t, 1, code)
}

func TestRun_MergesAcrossUnits(t *testing.T) {
	for _, driver := range []string{"inprocess", "rounds"} {
		driver := driver
		t.Run(driver, func(t *testing.T) {
			dir := t.TempDir()
			libOut := filepath.Join(dir, "lib-out")
			appOut := filepath.Join(dir, "app-out")

			var stderr bytes.Buffer
			code := run([]string{
				"--unit", writeTempFile(t, dir, "lib.yaml", libManifest()),
				"--out", libOut,
				"--driver", driver,
			}, &stderr)
			require.Equal(t, 0, code, stderr.String())

			stderr.Reset()
			code = run([]string{
				"--unit", writeTempFile(t, dir, "app.yaml", appManifest()),
				"--classpath", libOut,
				"--out", appOut,
				"--driver", driver,
			}, &stderr)
			require.Equal(t, 0, code, stderr.String())

			listing := readFileString(t, filepath.Join(appOut, "odimerge", "generated.txt"))
			assert.Contains(t, listing, "// Code generated by odimerge; DO NOT EDIT.")
			assert.Contains(t, listing, "// Unit: app")
			assert.Contains(t, listing, "com.example.app.MergedAppComponent")
			assert.Contains(t, listing, "odimerge.module.com.example.app.AppComponentMergedModule")
			assert.Contains(t, listing, "fun bindRepo(repoImpl: com.example.RepoImpl): com.example.Repo")
			assert.Contains(t, listing, "com.example.NetworkModule")

			generated := readFileString(t, filepath.Join(appOut, "odimerge", "generated.yaml"))
			assert.Contains(t, generated, "MergedAppComponent")
		})
	}
}

func TestRun_DuplicateBindingFails(t *testing.T) {
	dir := t.TempDir()
	libOut := filepath.Join(dir, "lib-out")

	var stderr bytes.Buffer
	require.Equal(t, 0, run([]string{
		"--unit", writeTempFile(t, dir, "lib.yaml", libManifest()),
		"--out", libOut,
	}, &stderr), stderr.String())

	stderr.Reset()
	code := run([]string{
		"--unit", writeTempFile(t, dir, "app.yaml", appManifest()),
		"--unit", writeTempFile(t, dir, "dup.yaml", duplicateManifest()),
		"--classpath", libOut,
	}, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "com.example.Repo")
}

func TestRun_ShopExample(t *testing.T) {
	example := filepath.Join("..", "..", "examples", "shop")
	config := filepath.Join(example, "odimerge.yaml")
	dir := t.TempDir()
	coreOut := filepath.Join(dir, "core")
	appOut := filepath.Join(dir, "app")

	var stderr bytes.Buffer
	require.Equal(t, 0, run([]string{
		"--config", config,
		"--unit", filepath.Join(example, "core.yaml"),
		"--out", coreOut,
	}, &stderr), stderr.String())
	require.Equal(t, 0, run([]string{
		"--config", config,
		"--unit", filepath.Join(example, "app.yaml"),
		"--classpath", coreOut,
		"--out", appOut,
	}, &stderr), stderr.String())

	const checkout = "odimerge.component.com.shop.app.shopcomponent.Checkout_MergedSubcomponent"
	listing := readFileString(t, filepath.Join(appOut, "odimerge", "generated.txt"))
	for _, want := range []string{
		"interface com.shop.app.MergedShopComponent : com.shop.app.ShopComponent, " + checkout + ".ParentComponent {",
		"abstract fun bindPayments(fakePayments: com.shop.app.FakePayments): com.shop.Payments",
		"    @dagger.multibindings.IntoSet\n    fun providePlugin(): com.shop.Plugin",
		"abstract fun createFactory(): " + checkout + ".SubcomponentFactory",
		"abstract fun bindCart(cartImpl: com.shop.app.CartImpl): com.shop.app.Cart",
		"@com.shop.SessionScoped",
		"com.shop.ClockModule::class",
	} {
		assert.Contains(t, listing, want)
	}
	assert.NotContains(t, listing, "cardPayments")
}
