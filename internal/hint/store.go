package hint

import (
	"bytes"
	"context"
	"path"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/sghaida/odimerge/internal/decl/manifest"
	"github.com/sghaida/odimerge/internal/logging"
	"github.com/sghaida/odimerge/internal/logging/logfields"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "hint")

const (
	// artifactDir is the reserved directory inside an artifact.
	artifactDir = "odimerge"
	hintDir     = "hint"
	apiFile     = "api.yaml"

	DefaultCacheSize   = 128
	DefaultParallelism = 4
)

// HintURL is where the records of an artifact live.
func HintURL(artifactURL string) string {
	return url.Join(artifactURL, artifactDir, hintDir)
}

// APIURL is the public declaration manifest of an artifact.
func APIURL(artifactURL string) string {
	return url.Join(artifactURL, artifactDir, apiFile)
}

// Store reads and writes hint artifacts through afs, so artifacts can live on
// local disk, in memory for tests, or behind any scheme afs supports.
type Store struct {
	fs          afs.Service
	cache       *lru.Cache[string, *Artifact]
	parallelism int
}

// Artifact is the decoded content of one upstream unit.
type Artifact struct {
	URL     string
	Records []*Record
	API     *manifest.File
}

// NewStore creates a store. Artifacts are immutable for the lifetime of a
// process, so decoded artifacts are cached by URL.
func NewStore(fs afs.Service, cacheSize, parallelism int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	cache, err := lru.New[string, *Artifact](cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "hint cache")
	}
	return &Store{fs: fs, cache: cache, parallelism: parallelism}, nil
}

// Write stores one file per record under outURL. Existing files for the same
// keys are overwritten with identical content on recompilation.
func (s *Store) Write(ctx context.Context, outURL string, records []*Record) error {
	base := HintURL(outURL)
	for _, r := range records {
		if r.Version == "" {
			r.Version = FormatVersion
		}
		data, err := yaml.Marshal(r)
		if err != nil {
			return errors.Wrapf(err, "encode %s", r.Key())
		}
		URL := url.Join(base, string(r.Kind), r.Key()+".yaml")
		if err := s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
			return errors.Wrapf(err, "failed to upload %v", URL)
		}
	}
	log.WithFields(logrus.Fields{
		logfields.URL:   outURL,
		logfields.Count: len(records),
	}).Debug("wrote hint records")
	return nil
}

// WriteAPI stores the public declarations of the compiled unit.
func (s *Store) WriteAPI(ctx context.Context, outURL string, api *manifest.File) error {
	data, err := manifest.Marshal(api)
	if err != nil {
		return err
	}
	URL := APIURL(outURL)
	if err := s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return errors.Wrapf(err, "failed to upload %v", URL)
	}
	return nil
}

// ReadArtifact decodes every record of one artifact, sorted by key. A record
// that fails to decode, validate or pass the version gate fails the whole
// artifact.
func (s *Store) ReadArtifact(ctx context.Context, artifactURL string) (*Artifact, error) {
	if cached, ok := s.cache.Get(artifactURL); ok {
		return cached, nil
	}
	a := &Artifact{URL: artifactURL}

	base := HintURL(artifactURL)
	exists, err := s.fs.Exists(ctx, base)
	if err != nil {
		return nil, &ArtifactError{URL: artifactURL, Err: err}
	}
	if exists {
		objects, err := s.fs.List(ctx, base, option.NewRecursive(true))
		if err != nil {
			return nil, &ArtifactError{URL: artifactURL, Err: err}
		}
		var URLs []string
		for _, o := range objects {
			if o.IsDir() || path.Ext(o.Name()) != ".yaml" {
				continue
			}
			URLs = append(URLs, o.URL())
		}
		sort.Strings(URLs)
		for _, URL := range URLs {
			r, err := s.readRecord(ctx, artifactURL, URL)
			if err != nil {
				return nil, err
			}
			a.Records = append(a.Records, r)
		}
	}

	apiURL := APIURL(artifactURL)
	hasAPI, err := s.fs.Exists(ctx, apiURL)
	if err != nil {
		return nil, &ArtifactError{URL: artifactURL, Key: apiFile, Err: err}
	}
	if hasAPI {
		data, err := s.fs.DownloadWithURL(ctx, apiURL)
		if err != nil {
			return nil, &ArtifactError{URL: artifactURL, Err: err}
		}
		api, err := manifest.Decode(data)
		if err != nil {
			return nil, &ArtifactError{URL: artifactURL, Key: apiFile, Err: err}
		}
		a.API = api
	}

	s.cache.Add(artifactURL, a)
	return a, nil
}

func (s *Store) readRecord(ctx context.Context, artifactURL, URL string) (*Record, error) {
	name := strings.TrimSuffix(path.Base(URL), ".yaml")
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, &ArtifactError{URL: artifactURL, Key: name, Err: err}
	}
	var r Record
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, &ArtifactError{URL: artifactURL, Key: name, Err: errors.Wrap(ErrMalformed, err.Error())}
	}
	if err := CheckVersion(r.Version); err != nil {
		return nil, &ArtifactError{URL: artifactURL, Key: name, Err: err}
	}
	if err := r.Validate(); err != nil {
		return nil, &ArtifactError{URL: artifactURL, Key: name, Err: err}
	}
	if r.Key() != name {
		return nil, &ArtifactError{URL: artifactURL, Key: name,
			Err: errors.Wrapf(ErrMalformed, "record names %s", r.Key())}
	}
	r.Artifact = artifactURL
	return &r, nil
}

// Load reads artifacts concurrently and indexes them in the order given, so
// the index does not depend on which download finishes first.
func (s *Store) Load(ctx context.Context, artifactURLs []string) (*Index, []*Artifact, error) {
	artifacts := make([]*Artifact, len(artifactURLs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, URL := range artifactURLs {
		i, URL := i, URL
		g.Go(func() error {
			a, err := s.ReadArtifact(gctx, URL)
			if err != nil {
				return err
			}
			artifacts[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	ix := NewIndex()
	for _, a := range artifacts {
		if err := ix.Add(a.Records...); err != nil {
			return nil, nil, err
		}
		log.WithFields(logrus.Fields{
			logfields.Artifact: a.URL,
			logfields.Count:    len(a.Records),
		}).Debug("loaded hint artifact")
	}
	return ix, artifacts, nil
}
