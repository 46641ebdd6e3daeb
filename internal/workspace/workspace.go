// Package workspace assembles the loader tree described by a configuration:
// one Base loader per model directory, then the SQLite store and the object
// store when enabled, all attached to a single Aggregate.
package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/nodekit/internal/config"
	"github.com/zjrosen/nodekit/internal/infrastructure/objectstore"
	"github.com/zjrosen/nodekit/internal/infrastructure/sqlite"
	"github.com/zjrosen/nodekit/internal/loaders"
	"github.com/zjrosen/nodekit/internal/log"
	"github.com/zjrosen/nodekit/internal/metrics"
	"github.com/zjrosen/nodekit/internal/modelfile"
	"github.com/zjrosen/nodekit/internal/pubsub"
	"github.com/zjrosen/nodekit/internal/sources"
	"github.com/zjrosen/nodekit/internal/tracing"
	"github.com/zjrosen/nodekit/internal/watcher"
)

// RootName names the aggregate in logs, metrics and spans.
const RootName = "workspace"

// child is one loader of the tree and the hook that drops its cached text.
type child struct {
	name       string
	invalidate func(names []string)
}

// Workspace owns the loader tree. Loaders are not safe for concurrent use,
// so every query goes through Do.
type Workspace struct {
	mu       sync.Mutex
	root     *loaders.Aggregate
	children []child
	dirs     []string
	db       *sqlite.DB
	store    *sqlite.ModelStore
}

type options struct {
	metrics     *metrics.Registry
	tracer      trace.Tracer
	events      *pubsub.Broker[loaders.ModelEvent]
	dirFS       func(dir string) fs.FS
	objectStore objectstore.API
}

// Option configures Open.
type Option func(*options)

// WithMetrics records loader and source activity on m.
func WithMetrics(m *metrics.Registry) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracer wraps model loads in spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithEvents publishes the root loader's model events on broker.
func WithEvents(broker *pubsub.Broker[loaders.ModelEvent]) Option {
	return func(o *options) { o.events = broker }
}

// WithDirFS replaces os.DirFS for model directories.
func WithDirFS(fn func(dir string) fs.FS) Option {
	return func(o *options) { o.dirFS = fn }
}

// WithObjectStoreAPI serves the configured bucket through api instead of a
// client built from the AWS default configuration.
func WithObjectStoreAPI(api objectstore.API) Option {
	return func(o *options) { o.objectStore = api }
}

// Open builds the loader tree for cfg. The deployment latency configured in
// cfg is handed to the parser of every child loader.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*Workspace, error) {
	o := options{
		tracer: tracing.NoopTracer(),
		dirFS:  os.DirFS,
	}
	for _, opt := range opts {
		opt(&o)
	}

	rootOpts := []loaders.Option{loaders.WithName(RootName), loaders.WithTracer(o.tracer)}
	if o.metrics != nil {
		rootOpts = append(rootOpts, loaders.WithMetrics(o.metrics))
	}
	if o.events != nil {
		rootOpts = append(rootOpts, loaders.WithEvents(o.events))
	}
	root, err := loaders.NewAggregate(rootOpts...)
	if err != nil {
		return nil, err
	}

	w := &Workspace{root: root}
	parser := modelfile.NewParser(modelfile.WithDefaultLatency(cfg.Deployment.DefaultLatency))
	ttl := cfg.Cache.TTL
	if !cfg.Cache.Enabled {
		ttl = 0
	}

	for _, dir := range cfg.ModelPaths {
		dir = config.ExpandHome(dir)
		fileOpts := []sources.FileOption{sources.WithLabel(dir)}
		if o.metrics != nil {
			fileOpts = append(fileOpts, sources.WithSourceMetrics(o.metrics))
		}
		src := sources.NewCached(sources.NewFileSource(o.dirFS(dir), fileOpts...), ttl)
		if err := w.attach(dir, src, src.Invalidate, parser, o); err != nil {
			return nil, err
		}
		w.dirs = append(w.dirs, dir)
	}

	if cfg.Database.Enabled {
		path := config.ExpandHome(cfg.Database.Path)
		db, err := sqlite.NewDB(path)
		if err != nil {
			return nil, fmt.Errorf("opening model store: %w", err)
		}
		w.db = db
		var storeOpts []sqlite.StoreOption
		if o.metrics != nil {
			storeOpts = append(storeOpts, sqlite.WithStoreMetrics(o.metrics))
		}
		w.store = db.ModelStore(storeOpts...)
		src := sources.NewCached(w.store, ttl)
		if err := w.attach("sqlite", src, src.Invalidate, parser, o); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if cfg.ObjectStore != nil {
		var storeOpts []objectstore.Option
		if o.metrics != nil {
			storeOpts = append(storeOpts, objectstore.WithMetrics(o.metrics))
		}
		var bucket *objectstore.Source
		if o.objectStore != nil {
			bucket = objectstore.New(o.objectStore, cfg.ObjectStore.Bucket,
				append([]objectstore.Option{objectstore.WithPrefix(cfg.ObjectStore.Prefix)}, storeOpts...)...)
		} else {
			bucket, err = objectstore.NewFromConfig(ctx, *cfg.ObjectStore, storeOpts...)
			if err != nil {
				_ = w.Close()
				return nil, fmt.Errorf("opening object store: %w", err)
			}
		}
		src := sources.NewCached(bucket, ttl)
		if err := w.attach("s3://"+cfg.ObjectStore.Bucket, src, src.Invalidate, parser, o); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	log.Info(log.CatLoader, "workspace opened", "loaders", len(w.children),
		"latency", cfg.Deployment.DefaultLatency.String())
	return w, nil
}

func (w *Workspace) attach(name string, src loaders.TextSource, invalidate func(...string), parser *modelfile.Parser, o options) error {
	opts := []loaders.Option{
		loaders.WithName(name),
		loaders.WithSource(src),
		loaders.WithRoot(w.root),
		loaders.WithProjectParser(parser),
		loaders.WithTypekitParser(parser),
		loaders.WithTracer(o.tracer),
	}
	if o.metrics != nil {
		opts = append(opts, loaders.WithMetrics(o.metrics))
	}
	if _, err := loaders.NewBase(opts...); err != nil {
		return fmt.Errorf("attaching %s: %w", name, err)
	}
	w.children = append(w.children, child{
		name:       name,
		invalidate: func(names []string) { invalidate(names...) },
	})
	return nil
}

// Do runs fn with exclusive access to the loader tree.
func (w *Workspace) Do(fn func(root *loaders.Aggregate) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return fn(w.root)
}

// Root returns the aggregate. Callers running concurrently with Reload must
// use Do instead.
func (w *Workspace) Root() *loaders.Aggregate { return w.root }

// Dirs returns the expanded model directories, for watching.
func (w *Workspace) Dirs() []string { return w.dirs }

// Store returns the SQLite model store, nil when the database is disabled.
func (w *Workspace) Store() *sqlite.ModelStore { return w.store }

// Reload drops the cached text of the changed models and clears every
// loader. Models are reloaded on the next query. Load callbacks survive.
func (w *Workspace) Reload(change watcher.Change) {
	w.mu.Lock()
	defer w.mu.Unlock()

	names := append(append([]string(nil), change.Projects...), change.Typekits...)
	for _, c := range w.children {
		log.Debug(log.CatLoader, "invalidating source", "loader", c.name)
		c.invalidate(names)
	}
	w.root.Clear()
	log.Info(log.CatLoader, "workspace reloaded", "projects", len(change.Projects), "typekits", len(change.Typekits))
}

// Failure is a model that could not be loaded.
type Failure struct {
	Kind string // "project" or "typekit"
	Name string
	Err  error
}

// Report is the result of LoadAll.
type Report struct {
	Projects []string
	Typekits []string
	Failures []Failure
}

// OK reports whether every model loaded.
func (r Report) OK() bool { return len(r.Failures) == 0 }

// LoadAll loads the named projects, or every available typekit and project
// when none is named, and reports what failed instead of stopping at the
// first error.
func (w *Workspace) LoadAll(projects ...string) (Report, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var report Report
	if len(projects) == 0 {
		typekits, err := w.root.AvailableTypekitNames()
		if err != nil {
			return report, err
		}
		for _, name := range typekits {
			if _, err := w.root.TypekitModelFromName(name); err != nil {
				log.Warn(log.CatLoader, "typekit failed to load", "typekit", name, "error", err)
				report.Failures = append(report.Failures, Failure{Kind: "typekit", Name: name, Err: err})
				continue
			}
			report.Typekits = append(report.Typekits, name)
		}
		if projects, err = w.root.AvailableProjectNames(); err != nil {
			return report, err
		}
	}

	for _, name := range projects {
		if _, err := w.root.ProjectModelFromName(name); err != nil {
			log.Warn(log.CatLoader, "project failed to load", "project", name, "error", err)
			report.Failures = append(report.Failures, Failure{Kind: "project", Name: name, Err: err})
			continue
		}
		report.Projects = append(report.Projects, name)
	}
	return report, nil
}

// Close releases the model store.
func (w *Workspace) Close() error {
	if w.db == nil {
		return nil
	}
	err := w.db.Close()
	w.db, w.store = nil, nil
	return err
}
