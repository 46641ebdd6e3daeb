package sources

import (
	"context"
	"time"

	"github.com/zjrosen/nodekit/internal/cachemanager"
	"github.com/zjrosen/nodekit/internal/modelfile"
)

// TextSource is the contract shared by every source in this package.
type TextSource interface {
	ProjectText(name string) (modelfile.ProjectText, error)
	TypekitText(name string) (modelfile.TypekitText, error)
}

// Cached keeps model text read from another source for a TTL. Index and
// listing queries pass through to the wrapped source.
type Cached struct {
	inner    TextSource
	ttl      time.Duration
	projects *cachemanager.ReadThroughCache[string, modelfile.ProjectText, string]
	typekits *cachemanager.ReadThroughCache[string, modelfile.TypekitText, string]
}

// NewCached wraps inner. With a zero ttl every read goes to inner.
func NewCached(inner TextSource, ttl time.Duration) *Cached {
	projects := cachemanager.NewInMemoryCacheManager[string, modelfile.ProjectText]("project-text", ttl, cachemanager.DefaultCleanupInterval)
	typekits := cachemanager.NewInMemoryCacheManager[string, modelfile.TypekitText]("typekit-text", ttl, cachemanager.DefaultCleanupInterval)
	return &Cached{
		inner: inner,
		ttl:   ttl,
		projects: cachemanager.NewReadThroughCache[string, modelfile.ProjectText, string](projects,
			func(_ context.Context, name string) (modelfile.ProjectText, error) { return inner.ProjectText(name) },
			ttl <= 0),
		typekits: cachemanager.NewReadThroughCache[string, modelfile.TypekitText, string](typekits,
			func(_ context.Context, name string) (modelfile.TypekitText, error) { return inner.TypekitText(name) },
			ttl <= 0),
	}
}

// ProjectText implements loaders.TextSource.
func (c *Cached) ProjectText(name string) (modelfile.ProjectText, error) {
	return c.projects.GetWithRefresh(context.Background(), name, name, c.ttl)
}

// TypekitText implements loaders.TextSource.
func (c *Cached) TypekitText(name string) (modelfile.TypekitText, error) {
	return c.typekits.GetWithRefresh(context.Background(), name, name, c.ttl)
}

// ProjectNames implements loaders.Lister when the wrapped source does.
func (c *Cached) ProjectNames() ([]string, error) {
	if l, ok := c.inner.(interface{ ProjectNames() ([]string, error) }); ok {
		return l.ProjectNames()
	}
	return nil, nil
}

// TypekitNames implements loaders.Lister when the wrapped source does.
func (c *Cached) TypekitNames() ([]string, error) {
	if l, ok := c.inner.(interface{ TypekitNames() ([]string, error) }); ok {
		return l.TypekitNames()
	}
	return nil, nil
}

// ProjectNameForNodeModel implements loaders.ProjectIndex when the wrapped
// source does.
func (c *Cached) ProjectNameForNodeModel(name string) (string, bool) {
	if idx, ok := c.inner.(interface {
		ProjectNameForNodeModel(string) (string, bool)
	}); ok {
		return idx.ProjectNameForNodeModel(name)
	}
	return "", false
}

// ProjectNameForDeployment implements loaders.ProjectIndex when the wrapped
// source does.
func (c *Cached) ProjectNameForDeployment(name string) (string, bool) {
	if idx, ok := c.inner.(interface {
		ProjectNameForDeployment(string) (string, bool)
	}); ok {
		return idx.ProjectNameForDeployment(name)
	}
	return "", false
}

// Invalidate forgets the cached text of the named models, or everything when
// no name is given, and invalidates the wrapped source.
func (c *Cached) Invalidate(names ...string) {
	ctx := context.Background()
	if len(names) == 0 {
		_ = c.projects.Flush(ctx)
		_ = c.typekits.Flush(ctx)
	} else {
		_ = c.projects.Invalidate(ctx, names...)
		_ = c.typekits.Invalidate(ctx, names...)
	}
	if inv, ok := c.inner.(interface{ Invalidate() }); ok {
		inv.Invalidate()
	}
}
