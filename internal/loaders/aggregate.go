package loaders

import (
	"errors"
	"fmt"
	"slices"

	"github.com/zjrosen/nodekit/internal/domain/component"
	"github.com/zjrosen/nodekit/internal/log"
)

// Aggregate answers queries from its own registrations first, then from its
// children in the order they were added. The first child that succeeds wins
// and its result is cached by the registration the child forwards.
type Aggregate struct {
	*Base
	loaders []Loader
}

var _ Root = (*Aggregate)(nil)

// NewAggregate creates an aggregate. WithSource is allowed but the aggregate
// is usually sourceless and only forwards to children.
func NewAggregate(opts ...Option) (*Aggregate, error) {
	agg := &Aggregate{Base: newBase(opts)}
	agg.self = agg
	if agg.root != nil {
		if err := agg.root.AddedChild(agg); err != nil {
			return nil, err
		}
	}
	return agg, nil
}

// Add appends a child loader. Adding the same loader twice fails.
func (a *Aggregate) Add(l Loader) error {
	if slices.Contains(a.loaders, l) {
		return fmt.Errorf("%w: %s", component.ErrDuplicateLoader, l.Name())
	}
	a.loaders = append(a.loaders, l)
	log.Debug(log.CatLoader, "added loader", "aggregate", a.name, "loader", l.Name())
	return nil
}

// AddedChild is called by a loader created WithRoot(a).
func (a *Aggregate) AddedChild(child Loader) error {
	return a.Add(child)
}

// Remove detaches a child. Models it already registered stay registered.
func (a *Aggregate) Remove(l Loader) bool {
	i := slices.Index(a.loaders, l)
	if i < 0 {
		return false
	}
	a.loaders = slices.Delete(a.loaders, i, i+1)
	return true
}

// Loaders returns the children in query order.
func (a *Aggregate) Loaders() []Loader {
	return slices.Clone(a.loaders)
}

// Clear drops the aggregate's registrations and clears every child.
func (a *Aggregate) Clear() {
	a.Base.Clear()
	for _, l := range a.loaders {
		l.Clear()
	}
}

// ProjectModelFromName implements Loader.
func (a *Aggregate) ProjectModelFromName(name string) (*component.Project, error) {
	if p, ok := a.projects[name]; ok {
		return p, nil
	}
	return fanOut(a, name, component.ErrProjectNotFound, Loader.ProjectModelFromName)
}

// TypekitModelFromName implements Loader.
func (a *Aggregate) TypekitModelFromName(name string) (*component.Typekit, error) {
	if tk, ok := a.typekits[name]; ok {
		return tk, nil
	}
	return fanOut(a, name, component.ErrTypekitNotFound, Loader.TypekitModelFromName)
}

// NodeModelFromName implements Loader.
func (a *Aggregate) NodeModelFromName(name string) (*component.NodeModel, error) {
	if m, ok := a.nodeModels[name]; ok {
		return m, nil
	}
	return fanOut(a, name, component.ErrNodeModelNotFound, Loader.NodeModelFromName)
}

// DeploymentModelFromName implements Loader.
func (a *Aggregate) DeploymentModelFromName(name string) (*component.Deployment, error) {
	if d, ok := a.deployments[name]; ok {
		return d, nil
	}
	return fanOut(a, name, component.ErrDeploymentModelNotFound, Loader.DeploymentModelFromName)
}

// DeployedNodeModelFromName implements Loader.
func (a *Aggregate) DeployedNodeModelFromName(name string) (*component.DeployedNode, error) {
	node, err := a.Base.DeployedNodeModelFromName(name)
	if !errors.Is(err, component.ErrDeployedNodeModelNotFound) {
		return node, err
	}
	return fanOut(a, name, component.ErrDeployedNodeModelNotFound, Loader.DeployedNodeModelFromName)
}

// AvailableProjectNames merges what the aggregate's own source and every
// child can list.
func (a *Aggregate) AvailableProjectNames() ([]string, error) {
	return a.available(lister.AvailableProjectNames)
}

// AvailableTypekitNames merges what the aggregate's own source and every
// child can list.
func (a *Aggregate) AvailableTypekitNames() ([]string, error) {
	return a.available(lister.AvailableTypekitNames)
}

type lister interface {
	AvailableProjectNames() ([]string, error)
	AvailableTypekitNames() ([]string, error)
}

func (a *Aggregate) available(list func(lister) ([]string, error)) ([]string, error) {
	names, err := list(a.Base)
	if err != nil {
		return nil, err
	}
	for _, l := range a.loaders {
		c, ok := l.(lister)
		if !ok {
			continue
		}
		child, err := list(c)
		if err != nil {
			return nil, err
		}
		names = append(names, child...)
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// fanOut asks each child in turn. Only errors of the notFound kind move on to
// the next child; anything else is returned as is.
func fanOut[T any](a *Aggregate, name string, notFound error, query func(Loader, string) (T, error)) (T, error) {
	var zero T
	if a.source != nil {
		if v, err := query(a.Base, name); err == nil || !errors.Is(err, notFound) {
			return v, err
		}
	}
	for _, l := range a.loaders {
		v, err := query(l, name)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, notFound) {
			return zero, err
		}
	}
	return zero, fmt.Errorf("%w: %s in %s", notFound, name, a.name)
}
