// Package compile runs one merge over a compilation unit: it loads the unit
// and its upstream artifacts, drives the rounds and writes the artifact of
// the unit.
package compile

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/sghaida/odimerge/internal/config"
	"github.com/sghaida/odimerge/internal/decl"
	"github.com/sghaida/odimerge/internal/decl/manifest"
	"github.com/sghaida/odimerge/internal/decl/memory"
	"github.com/sghaida/odimerge/internal/diag"
	"github.com/sghaida/odimerge/internal/hint"
	"github.com/sghaida/odimerge/internal/logging"
	"github.com/sghaida/odimerge/internal/logging/logfields"
	"github.com/sghaida/odimerge/internal/subgraph"
	"github.com/sghaida/odimerge/internal/synth"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "compile")

const (
	generatedFile = "generated.yaml"
	listingFile   = "generated.txt"
)

// ErrNoUnit is returned when no unit manifest was given.
var ErrNoUnit = errors.New("no unit manifest")

// GeneratedURL is where the synthesized declarations of a unit are written.
func GeneratedURL(outURL string) string { return url.Join(outURL, "odimerge", generatedFile) }

// ListingURL is where the rendered listing of a unit is written.
func ListingURL(outURL string) string { return url.Join(outURL, "odimerge", listingFile) }

// Compiler merges units. It may be reused; decoded upstream artifacts are
// cached between runs.
type Compiler struct {
	fs    afs.Service
	store *hint.Store
	cfg   config.Config
}

// New validates cfg and returns a compiler reading and writing through fs.
func New(fs afs.Service, cfg config.Config) (*Compiler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := hint.NewStore(fs, cfg.CacheSize, cfg.Parallelism)
	if err != nil {
		return nil, err
	}
	return &Compiler{fs: fs, store: store, cfg: cfg}, nil
}

// Output describes what a run produced.
type Output struct {
	Unit   string
	Digest string
	Result *subgraph.Result
}

// Run merges the unit described by the manifests at unitURLs.
func (c *Compiler) Run(ctx context.Context, unitURLs []string) (*Output, error) {
	if len(unitURLs) == 0 {
		return nil, ErrNoUnit
	}
	files, err := manifest.Load(ctx, c.fs, unitURLs...)
	if err != nil {
		return nil, err
	}
	unit, err := unitName(files)
	if err != nil {
		return nil, err
	}
	runLog := log.WithField(logfields.Unit, unit)

	ix, artifacts, err := c.store.Load(ctx, c.cfg.Classpath)
	if err != nil {
		return nil, artifactDiag(err)
	}
	var apis []*manifest.File
	for _, a := range artifacts {
		if a.API != nil {
			apis = append(apis, a.API)
		}
	}
	runLog.WithField(logfields.Count, ix.Len()).Info("Loaded upstream hints")

	opts := subgraph.Options{MaxRounds: c.cfg.MaxRounds, Namer: synth.DefaultNamer}
	var (
		result *subgraph.Result
		unitOf func() []*decl.Declaration
	)
	switch c.cfg.Driver {
	case config.DriverInProcess:
		m, err := memoryModel(unit, files, apis)
		if err != nil {
			return nil, err
		}
		if result, err = subgraph.NewBuilder(m, ix, opts).Run(ctx); err != nil {
			return nil, artifactDiag(err)
		}
		unitOf = m.Declarations
	default:
		m, err := manifest.NewModel(unit, files...)
		if err != nil {
			return nil, err
		}
		if err := m.AddClasspath(apis...); err != nil {
			return nil, err
		}
		if result, err = subgraph.RunRounds(ctx, m, subgraph.NewProcessor(m, ix, opts)); err != nil {
			return nil, artifactDiag(err)
		}
		unitOf = m.Declarations
	}

	digest, err := inputsDigest(files, apis)
	if err != nil {
		return nil, err
	}
	out := &Output{Unit: unit, Digest: digest, Result: result}
	if c.cfg.OutputURL != "" {
		if err := c.write(ctx, out, publicAPI(unit, files, unitOf())); err != nil {
			return nil, err
		}
	}
	runLog.WithFields(logrus.Fields{
		logfields.Round: result.Rounds,
		logfields.Count: len(result.Generated),
	}).Info("Unit merged")
	return out, nil
}

// artifactDiag reports unusable upstream artifacts as artifact diagnostics.
// The hint.ArtifactError stays reachable through errors.As.
func artifactDiag(err error) error {
	if _, ok := diag.As(err); ok {
		return err
	}
	var artifactErr *hint.ArtifactError
	if !errors.As(err, &artifactErr) {
		return err
	}
	return diag.At(diag.KindArtifact, decl.Position{}, decl.ClassID{}, err.Error()).WithCause(err)
}

func unitName(files []*manifest.File) (string, error) {
	var unit string
	for _, f := range files {
		switch {
		case f.Unit == "":
		case unit == "":
			unit = f.Unit
		case unit != f.Unit:
			return "", errors.Errorf("manifests name different units: %s and %s", unit, f.Unit)
		}
	}
	if unit == "" {
		return "", errors.Wrap(ErrNoUnit, "manifests do not name a unit")
	}
	return unit, nil
}

// memoryModel loads the manifests into the in-process model.
func memoryModel(unit string, files, apis []*manifest.File) (*memory.Model, error) {
	m := memory.New(unit)
	for _, f := range files {
		decls, err := f.ToDecls(unit)
		if err != nil {
			return nil, err
		}
		m.Add(decls...)
		addAliases(m, f)
	}
	for _, f := range apis {
		decls, err := f.ToDecls("")
		if err != nil {
			return nil, err
		}
		m.AddClasspath(decls...)
		addAliases(m, f)
	}
	return m, nil
}

func addAliases(m *memory.Model, f *manifest.File) {
	for alias, target := range f.Aliases {
		m.Alias(decl.ParseClassID(alias), decl.ParseClassID(target))
	}
}

// publicAPI collects what downstream units may see of this one: its public
// declarations, generated ones included, and its aliases.
func publicAPI(unit string, files []*manifest.File, decls []*decl.Declaration) *manifest.File {
	var public []*decl.Declaration
	for _, d := range decls {
		if d.Visibility == decl.Public {
			public = append(public, d)
		}
	}
	api := manifest.FromDecls(unit, public)
	for _, f := range files {
		for alias, target := range f.Aliases {
			if api.Aliases == nil {
				api.Aliases = map[string]string{}
			}
			api.Aliases[alias] = target
		}
	}
	return api
}

// inputsDigest hashes the re-encoded inputs, so formatting differences in
// the source manifests do not change it.
func inputsDigest(files, apis []*manifest.File) (string, error) {
	var inputs [][]byte
	for _, f := range append(append([]*manifest.File(nil), files...), apis...) {
		data, err := manifest.Marshal(f)
		if err != nil {
			return "", err
		}
		inputs = append(inputs, data)
	}
	return synth.Digest(inputs...), nil
}

func (c *Compiler) write(ctx context.Context, out *Output, api *manifest.File) error {
	outURL := c.cfg.OutputURL
	if err := c.store.Write(ctx, outURL, out.Result.Records); err != nil {
		return err
	}
	if err := c.store.WriteAPI(ctx, outURL, api); err != nil {
		return err
	}

	generated, err := manifest.Marshal(manifest.FromDecls(out.Unit, out.Result.Generated))
	if err != nil {
		return err
	}
	if err := c.upload(ctx, GeneratedURL(outURL), generated); err != nil {
		return err
	}

	var listing bytes.Buffer
	if err := synth.Render(&listing, out.Unit, out.Digest, out.Result.Generated); err != nil {
		return err
	}
	return c.upload(ctx, ListingURL(outURL), listing.Bytes())
}

func (c *Compiler) upload(ctx context.Context, URL string, data []byte) error {
	if err := c.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return errors.Wrapf(err, "failed to upload %v", URL)
	}
	return nil
}
