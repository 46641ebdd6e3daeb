package loaders

import (
	"slices"

	"github.com/google/uuid"

	"github.com/zjrosen/nodekit/internal/domain/component"
	"github.com/zjrosen/nodekit/internal/log"
)

// CallbackID identifies a registered load callback.
type CallbackID string

// CallbackOption configures a load callback registration.
type CallbackOption func(*callbackConfig)

type callbackConfig struct {
	initialEvents bool
}

// WithoutInitialEvents skips replaying the models registered before the
// callback was added.
func WithoutInitialEvents() CallbackOption {
	return func(c *callbackConfig) { c.initialEvents = false }
}

type callback[T any] struct {
	id CallbackID
	fn func(T)
}

// callbacks holds the load callbacks of a loader. Registrations that happen
// while callbacks run are queued and delivered after the current event, in
// order.
type callbacks struct {
	projects    []callback[*component.Project]
	typekits    []callback[*component.Typekit]
	dispatching bool
	pending     []func()
}

// OnProjectLoad calls fn for every project registered from now on and, unless
// WithoutInitialEvents is given, for every project already registered.
func (b *Base) OnProjectLoad(fn func(*component.Project), opts ...CallbackOption) CallbackID {
	cfg := callbackConfig{initialEvents: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	id := CallbackID(uuid.NewString())
	b.callbacks.projects = append(b.callbacks.projects, callback[*component.Project]{id: id, fn: fn})
	if cfg.initialEvents {
		for _, p := range b.Projects() {
			fn(p)
		}
	}
	return id
}

// RemoveProjectLoadCallback unregisters a project callback. It reports
// whether the callback was registered.
func (b *Base) RemoveProjectLoadCallback(id CallbackID) bool {
	var removed bool
	b.callbacks.projects, removed = removeCallback(b.callbacks.projects, id)
	return removed
}

// OnTypekitLoad calls fn for every typekit registered from now on and, unless
// WithoutInitialEvents is given, for every typekit already registered.
func (b *Base) OnTypekitLoad(fn func(*component.Typekit), opts ...CallbackOption) CallbackID {
	cfg := callbackConfig{initialEvents: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	id := CallbackID(uuid.NewString())
	b.callbacks.typekits = append(b.callbacks.typekits, callback[*component.Typekit]{id: id, fn: fn})
	if cfg.initialEvents {
		for _, tk := range b.Typekits() {
			fn(tk)
		}
	}
	return id
}

// RemoveTypekitLoadCallback unregisters a typekit callback.
func (b *Base) RemoveTypekitLoadCallback(id CallbackID) bool {
	var removed bool
	b.callbacks.typekits, removed = removeCallback(b.callbacks.typekits, id)
	return removed
}

func (b *Base) notifyProject(p *component.Project) {
	b.dispatch(func() {
		for _, cb := range slices.Clone(b.callbacks.projects) {
			b.metrics.RecordCallback("project")
			cb.fn(p)
		}
	})
}

func (b *Base) notifyTypekit(tk *component.Typekit) {
	b.dispatch(func() {
		for _, cb := range slices.Clone(b.callbacks.typekits) {
			b.metrics.RecordCallback("typekit")
			cb.fn(tk)
		}
	})
}

func (b *Base) dispatch(event func()) {
	c := &b.callbacks
	c.pending = append(c.pending, event)
	if c.dispatching {
		log.Debug(log.CatLoader, "queued load event", "loader", b.name, "pending", len(c.pending))
		return
	}

	c.dispatching = true
	defer func() { c.dispatching = false }()
	for len(c.pending) > 0 {
		next := c.pending[0]
		c.pending = c.pending[1:]
		next()
	}
}

func removeCallback[T any](list []callback[T], id CallbackID) ([]callback[T], bool) {
	for i, cb := range list {
		if cb.id == id {
			return slices.Delete(list, i, i+1), true
		}
	}
	return list, false
}
