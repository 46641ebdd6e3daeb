package loaders

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/nodekit/internal/domain/component"
	"github.com/zjrosen/nodekit/internal/domain/types"
	"github.com/zjrosen/nodekit/internal/log"
	"github.com/zjrosen/nodekit/internal/metrics"
	"github.com/zjrosen/nodekit/internal/modelfile"
	"github.com/zjrosen/nodekit/internal/pubsub"
	"github.com/zjrosen/nodekit/internal/tracing"
)

// Base loads models from a single text source and caches what it registers.
// A Base is not safe for concurrent use.
type Base struct {
	name string
	// self is the loader queries re-enter through. It is the Aggregate when
	// Base is embedded in one.
	self          Root
	root          Root
	source        TextSource
	projectParser ProjectParser
	typekitParser TypekitParser
	metrics       *metrics.Registry
	tracer        trace.Tracer
	events        *pubsub.Broker[ModelEvent]

	registry       *types.Registry
	interfaceTypes map[string]struct{}
	typekitsByType map[string][]*component.Typekit

	projects        map[string]*component.Project
	projectOrder    []string
	typekits        map[string]*component.Typekit
	typekitOrder    []string
	nodeModels      map[string]*component.NodeModel
	nodeOrder       []string
	deployments     map[string]*component.Deployment
	deploymentOrder []string

	// projects whose text is being evaluated
	loading map[string]bool

	callbacks callbacks
}

var (
	_ Root             = (*Base)(nil)
	_ component.Loader = (*Base)(nil)
)

// NewBase creates a loader. With WithRoot, the loader attaches itself to the
// root, which fails if the root already holds it.
func NewBase(opts ...Option) (*Base, error) {
	b := newBase(opts)
	b.self = b
	if b.root != nil {
		if err := b.root.AddedChild(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *Base) reset() {
	b.registry = newVoidRegistry()
	b.interfaceTypes = make(map[string]struct{})
	b.typekitsByType = make(map[string][]*component.Typekit)
	b.projects = make(map[string]*component.Project)
	b.projectOrder = nil
	b.typekits = make(map[string]*component.Typekit)
	b.typekitOrder = nil
	b.nodeModels = make(map[string]*component.NodeModel)
	b.nodeOrder = nil
	b.deployments = make(map[string]*component.Deployment)
	b.deploymentOrder = nil
	b.loading = make(map[string]bool)
}

// Name returns the loader name.
func (b *Base) Name() string { return b.name }

// Root returns the loader this one forwards registrations to, nil when it is
// a root itself.
func (b *Base) Root() Root { return b.root }

// Source returns the text source, possibly nil.
func (b *Base) Source() TextSource { return b.source }

// Registry returns the union of the registries of every registered typekit.
func (b *Base) Registry() *types.Registry { return b.registry }

// AddedChild is called when a loader attaches to b. A plain Base keeps no
// list of children.
func (b *Base) AddedChild(Loader) error { return nil }

// rootLoader is the loader models created here are bound to.
func (b *Base) rootLoader() component.Loader {
	if b.root != nil {
		return b.root
	}
	return b.self
}

// Clear drops every registered model and resets the registry to the void
// type. Callbacks survive.
func (b *Base) Clear() {
	b.reset()
	log.Debug(log.CatLoader, "cleared", "loader", b.name)
	b.publish(pubsub.ClearedEvent, "loader", b.name)
}

// RegisterProjectModel records project. Registering a name twice fails.
// A root loader also registers the project's node models and deployments,
// skipping the ones already registered, then fires the project callbacks.
func (b *Base) RegisterProjectModel(project *component.Project) error {
	name := project.Name()
	if _, ok := b.projects[name]; ok {
		return fmt.Errorf("%w: there is already a project registered under the name %s", component.ErrAlreadyRegistered, name)
	}
	if b.root != nil {
		if err := b.root.RegisterProjectModel(project); err != nil {
			return err
		}
	} else {
		for _, m := range project.NodeModels() {
			if existing, ok := b.nodeModels[m.Name()]; ok && existing != m {
				return fmt.Errorf("%w: there is already a node model registered under the name %s", component.ErrAlreadyRegistered, m.Name())
			}
		}
		for _, d := range project.DeploymentModels() {
			if existing, ok := b.deployments[d.Name()]; ok && existing != d {
				return fmt.Errorf("%w: there is already a deployment registered under the name %s", component.ErrAlreadyRegistered, d.Name())
			}
		}
		for _, m := range project.NodeModels() {
			if b.nodeModels[m.Name()] == m {
				continue
			}
			if err := b.RegisterNodeModel(m); err != nil {
				return err
			}
		}
		for _, d := range project.DeploymentModels() {
			if b.deployments[d.Name()] == d {
				continue
			}
			if err := b.RegisterDeploymentModel(d); err != nil {
				return err
			}
		}
	}

	b.projects[name] = project
	b.projectOrder = append(b.projectOrder, name)
	b.metrics.RecordRegistration("project")
	log.Debug(log.CatLoader, "registered project", "loader", b.name, "project", name)

	if b.root == nil {
		b.publish(pubsub.LoadedEvent, "project", name)
		b.notifyProject(project)
	}
	return nil
}

// RegisterTypekitModel records tk and merges its registry. A registry
// conflict leaves the loader unchanged.
func (b *Base) RegisterTypekitModel(tk *component.Typekit) error {
	name := tk.Name()
	if _, ok := b.typekits[name]; ok {
		return fmt.Errorf("%w: there is already a typekit registered under the name %s", component.ErrAlreadyRegistered, name)
	}
	if b.root != nil {
		if err := b.root.RegisterTypekitModel(tk); err != nil {
			return err
		}
	}
	if err := b.registry.Merge(tk.Registry()); err != nil {
		return fmt.Errorf("typekit %s: %w", name, err)
	}

	b.typekits[name] = tk
	b.typekitOrder = append(b.typekitOrder, name)
	for _, e := range tk.Registry().Each(true) {
		b.typekitsByType[e.Name] = append(b.typekitsByType[e.Name], tk)
	}
	for _, n := range tk.InterfaceTypelist() {
		if t, err := tk.Registry().Get(n); err == nil {
			n = t.Name
		}
		b.interfaceTypes[n] = struct{}{}
	}
	b.metrics.RecordRegistration("typekit")
	log.Debug(log.CatTypekit, "registered typekit", "loader", b.name, "typekit", name, "types", tk.Registry().Len())

	if b.root == nil {
		b.publish(pubsub.LoadedEvent, "typekit", name)
		b.notifyTypekit(tk)
	}
	return nil
}

// RegisterNodeModel records m. Registering a name twice fails.
func (b *Base) RegisterNodeModel(m *component.NodeModel) error {
	name := m.Name()
	if _, ok := b.nodeModels[name]; ok {
		return fmt.Errorf("%w: there is already a node model registered under the name %s", component.ErrAlreadyRegistered, name)
	}
	if b.root != nil {
		if err := b.root.RegisterNodeModel(m); err != nil {
			return err
		}
	}
	b.nodeModels[name] = m
	b.nodeOrder = append(b.nodeOrder, name)
	b.metrics.RecordRegistration("node_model")
	log.Debug(log.CatNode, "registered node model", "loader", b.name, "model", name)
	return nil
}

// RegisterDeploymentModel records d. Registering a name twice fails.
func (b *Base) RegisterDeploymentModel(d *component.Deployment) error {
	name := d.Name()
	if _, ok := b.deployments[name]; ok {
		return fmt.Errorf("%w: there is already a deployment registered under the name %s", component.ErrAlreadyRegistered, name)
	}
	if b.root != nil {
		if err := b.root.RegisterDeploymentModel(d); err != nil {
			return err
		}
	}
	b.deployments[name] = d
	b.deploymentOrder = append(b.deploymentOrder, name)
	b.metrics.RecordRegistration("deployment")
	return nil
}

// RegisterTypeModel merges t and its dependencies from the registry it was
// defined in.
func (b *Base) RegisterTypeModel(t *types.Type, from *types.Registry) error {
	minimal, err := from.Minimal(t.Name)
	if err != nil {
		return fmt.Errorf("%w: %w", component.ErrTypeNotFound, err)
	}
	return b.registry.Merge(minimal)
}

// ProjectModelFromName returns the named project, loading it from the text
// source on first use.
func (b *Base) ProjectModelFromName(name string) (*component.Project, error) {
	if p, ok := b.projects[name]; ok {
		b.metrics.RecordLookup("project", metrics.ResultHit)
		return p, nil
	}
	if b.source == nil {
		b.metrics.RecordLookup("project", metrics.ResultNotFound)
		return nil, fmt.Errorf("%w: %s in %s", component.ErrProjectNotFound, name, b.name)
	}
	if b.loading[name] {
		return nil, fmt.Errorf("%w: %s is still being loaded by %s", component.ErrProjectNotFound, name, b.name)
	}

	start := time.Now()
	_, span := tracing.StartModelSpan(context.Background(), b.tracer, tracing.SpanLoadProject, "project", name,
		attribute.String(tracing.AttrLoaderName, b.name))
	project, err := b.loadProject(name)
	tracing.EndSpan(span, err)
	b.metrics.ObserveLoad("project", time.Since(start))
	b.recordLoad("project", err)
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (b *Base) loadProject(name string) (*component.Project, error) {
	text, err := b.source.ProjectText(name)
	if err != nil {
		return nil, err
	}
	log.Info(log.CatProject, "loading project", "loader", b.name, "project", name, "origin", text.Origin)

	b.loading[name] = true
	defer delete(b.loading, name)

	project := component.NewProject(b.rootLoader(), "")
	if err := b.evaluateProject(project, name, text); err != nil {
		b.dropProjectModelsFromRoot(project)
		return nil, err
	}
	return project, nil
}

// evaluateProject fills project from text and registers it. Node models and
// deployments are registered on the root while the text is evaluated.
func (b *Base) evaluateProject(project *component.Project, name string, text modelfile.ProjectText) error {
	if err := b.projectParser.ParseProject(project, text); err != nil {
		log.ErrorErr(log.CatProject, "project evaluation failed", err, "project", name, "origin", text.Origin)
		return err
	}
	if project.Name() != name {
		return fmt.Errorf("%w: %s was expected to define project %s, but it defined %q",
			component.ErrInternal, text.Origin, name, project.Name())
	}

	tk, err := b.self.TypekitModelFromName(name)
	switch {
	case err == nil:
		project.SetTypekit(tk)
	case !errors.Is(err, component.ErrTypekitNotFound):
		return err
	}
	return b.RegisterProjectModel(project)
}

// dropProjectModelsFromRoot undoes what evaluating project registered on the
// loader its models are bound to.
func (b *Base) dropProjectModelsFromRoot(project *component.Project) {
	var target Root = b.self
	if b.root != nil {
		target = b.root
	}
	if d, ok := target.(interface{ dropProjectModels(*component.Project) }); ok {
		d.dropProjectModels(project)
	}
}

// dropProjectModels unregisters the node models and deployments of project
// that are registered as those exact objects, here and on the root.
func (b *Base) dropProjectModels(project *component.Project) {
	for _, m := range project.NodeModels() {
		if b.nodeModels[m.Name()] == m {
			delete(b.nodeModels, m.Name())
			b.nodeOrder = slices.DeleteFunc(b.nodeOrder, func(n string) bool { return n == m.Name() })
		}
	}
	for _, d := range project.DeploymentModels() {
		if b.deployments[d.Name()] == d {
			delete(b.deployments, d.Name())
			b.deploymentOrder = slices.DeleteFunc(b.deploymentOrder, func(n string) bool { return n == d.Name() })
		}
	}
	log.Debug(log.CatLoader, "dropped models of failed project", "loader", b.name, "project", project.Name())
	if b.root != nil {
		if d, ok := b.root.(interface{ dropProjectModels(*component.Project) }); ok {
			d.dropProjectModels(project)
		}
	}
}

// TypekitModelFromName returns the named typekit, loading it from the text
// source on first use.
func (b *Base) TypekitModelFromName(name string) (*component.Typekit, error) {
	if tk, ok := b.typekits[name]; ok {
		b.metrics.RecordLookup("typekit", metrics.ResultHit)
		return tk, nil
	}
	if b.source == nil {
		b.metrics.RecordLookup("typekit", metrics.ResultNotFound)
		return nil, fmt.Errorf("%w: %s in %s", component.ErrTypekitNotFound, name, b.name)
	}

	start := time.Now()
	_, span := tracing.StartModelSpan(context.Background(), b.tracer, tracing.SpanLoadTypekit, "typekit", name,
		attribute.String(tracing.AttrLoaderName, b.name))
	tk, err := b.loadTypekit(name)
	tracing.EndSpan(span, err)
	b.metrics.ObserveLoad("typekit", time.Since(start))
	b.recordLoad("typekit", err)
	if err != nil {
		return nil, err
	}
	return tk, nil
}

func (b *Base) loadTypekit(name string) (*component.Typekit, error) {
	text, err := b.source.TypekitText(name)
	if err != nil {
		return nil, err
	}
	log.Info(log.CatTypekit, "loading typekit", "loader", b.name, "typekit", name, "origin", text.Origin)

	tk, err := b.typekitParser.ParseTypekit(b.rootLoader(), text)
	if err != nil {
		log.ErrorErr(log.CatTypekit, "typekit evaluation failed", err, "typekit", name, "origin", text.Origin)
		return nil, err
	}
	if tk.Name() != name {
		return nil, fmt.Errorf("%w: %s was expected to define typekit %s, but it defined %q",
			component.ErrInternal, text.Origin, name, tk.Name())
	}
	if err := b.RegisterTypekitModel(tk); err != nil {
		return nil, err
	}
	return tk, nil
}

func (b *Base) recordLoad(kind string, err error) {
	switch {
	case err == nil:
		b.metrics.RecordLookup(kind, metrics.ResultLoaded)
	case errors.Is(err, component.ErrNotFound):
		b.metrics.RecordLookup(kind, metrics.ResultNotFound)
	default:
		b.metrics.RecordLookup(kind, metrics.ResultError)
	}
}

// NodeLibraryModelFromName returns the named project, which must declare at
// least one node model.
func (b *Base) NodeLibraryModelFromName(name string) (*component.Project, error) {
	project, err := b.self.ProjectModelFromName(name)
	if err != nil {
		return nil, err
	}
	if len(project.NodeModels()) == 0 {
		return nil, fmt.Errorf("%w: project %s has no node models", component.ErrProjectNotFound, name)
	}
	return project, nil
}

// NodeModelFromName returns the named node model, loading the project that
// defines it when needed.
func (b *Base) NodeModelFromName(name string) (*component.NodeModel, error) {
	if m, ok := b.nodeModels[name]; ok {
		return m, nil
	}
	projectName, ok := b.projectNameForNodeModel(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", component.ErrNodeModelNotFound, name, b.name)
	}
	project, err := b.self.ProjectModelFromName(projectName)
	if err != nil {
		if errors.Is(err, component.ErrProjectNotFound) {
			return nil, fmt.Errorf("%w: %s (%w)", component.ErrNodeModelNotFound, name, err)
		}
		return nil, err
	}
	m, ok := project.NodeModel(name)
	if !ok {
		return nil, fmt.Errorf("%w: project %s was expected to define node model %s, but it does not",
			component.ErrInternal, projectName, name)
	}
	return m, nil
}

// DeploymentModelFromName returns the named deployment, loading the project
// that defines it when needed.
func (b *Base) DeploymentModelFromName(name string) (*component.Deployment, error) {
	if d, ok := b.deployments[name]; ok {
		return d, nil
	}
	projectName, ok := b.projectNameForDeployment(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", component.ErrDeploymentModelNotFound, name, b.name)
	}
	project, err := b.self.ProjectModelFromName(projectName)
	if err != nil {
		if errors.Is(err, component.ErrProjectNotFound) {
			return nil, fmt.Errorf("%w: %s (%w)", component.ErrDeploymentModelNotFound, name, err)
		}
		return nil, err
	}
	d, err := project.DeploymentModelFromName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: project %s was expected to define deployment %s, but it does not",
			component.ErrInternal, projectName, name)
	}
	return d, nil
}

func (b *Base) projectNameForNodeModel(name string) (string, bool) {
	for _, n := range b.projectOrder {
		if b.projects[n].HasNodeModel(name) {
			return n, true
		}
	}
	if idx, ok := b.source.(ProjectIndex); ok {
		return idx.ProjectNameForNodeModel(name)
	}
	return "", false
}

func (b *Base) projectNameForDeployment(name string) (string, bool) {
	for _, n := range b.projectOrder {
		if b.projects[n].HasDeploymentModel(name) {
			return n, true
		}
	}
	if idx, ok := b.source.(ProjectIndex); ok {
		return idx.ProjectNameForDeployment(name)
	}
	return "", false
}

// DeployedNodeModelFromName finds the deployed node called name among the
// registered deployments. The name must be unique across them.
func (b *Base) DeployedNodeModelFromName(name string) (*component.DeployedNode, error) {
	var matches []*component.Deployment
	for _, n := range b.deploymentOrder {
		if d := b.deployments[n]; d.HasDeployedNode(name) {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: no registered deployment has a node called %s", component.ErrDeployedNodeModelNotFound, name)
	case 1:
		return matches[0].DeployedNodeFromName(name)
	default:
		names := make([]string, len(matches))
		for i, d := range matches {
			names[i] = d.Name()
		}
		return nil, fmt.Errorf("%w: %s is deployed by %s", component.ErrAmbiguousDeployedNode, name, strings.Join(names, ", "))
	}
}

// DeployedNodeModelFromDeployment returns the node called name in the named
// deployment.
func (b *Base) DeployedNodeModelFromDeployment(deploymentName, name string) (*component.DeployedNode, error) {
	d, err := b.self.DeploymentModelFromName(deploymentName)
	if err != nil {
		return nil, err
	}
	node, err := d.DeployedNodeFromName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: deployment %s has no node called %s", component.ErrInvalidArgument, deploymentName, name)
	}
	return node, nil
}

// ResolveType returns the registered type called name, following aliases.
func (b *Base) ResolveType(name string) (*types.Type, error) {
	t, err := b.registry.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s in %s", component.ErrTypeNotFound, name, b.name)
	}
	return t, nil
}

// ResolveInterfaceType returns the type called name if some typekit exports
// it. Otherwise the error is a *component.NotInterfaceTypeError listing the
// typekits that know the type.
func (b *Base) ResolveInterfaceType(name string) (*types.Type, error) {
	t, err := b.ResolveType(name)
	if err != nil {
		return nil, err
	}
	if _, ok := b.interfaceTypes[t.Name]; ok {
		return t, nil
	}
	tks, _ := b.ImportedTypekitsFor(t.Name, false)
	return nil, &component.NotInterfaceTypeError{Type: t, Typekits: tks}
}

// InterfaceType reports whether some registered typekit exports name.
func (b *Base) InterfaceType(name string) bool {
	t, err := b.registry.Get(name)
	if err != nil {
		return false
	}
	_, ok := b.interfaceTypes[t.Name]
	return ok
}

// ImportedTypekitsFor returns the typekits whose registry knows typeName.
// With definitionTypekits, only typekits that define the type are returned.
func (b *Base) ImportedTypekitsFor(typeName string, definitionTypekits bool) ([]*component.Typekit, error) {
	canonical := typeName
	if t, err := b.registry.Get(typeName); err == nil {
		canonical = t.Name
	}
	known := b.typekitsByType[canonical]
	if len(known) == 0 {
		known = b.typekitsByType[typeName]
	}
	if len(known) == 0 {
		return nil, fmt.Errorf("%w: %s is not known to any typekit", component.ErrDefinitionTypekitNotFound, typeName)
	}
	if !definitionTypekits {
		return slices.Clone(known), nil
	}

	var defining []*component.Typekit
	for _, tk := range known {
		if tk.Include(canonical) {
			defining = append(defining, tk)
		}
	}
	if len(defining) == 0 {
		return nil, fmt.Errorf("%w: %s is known to typekits but none of them define it", component.ErrDefinitionTypekitNotFound, typeName)
	}
	return defining, nil
}

// TypekitForType returns the single typekit defining typeName.
func (b *Base) TypekitForType(typeName string) (*component.Typekit, error) {
	tks, err := b.ImportedTypekitsFor(typeName, true)
	if err != nil {
		return nil, err
	}
	if len(tks) > 1 {
		names := make([]string, len(tks))
		for i, tk := range tks {
			names[i] = tk.Name()
		}
		return nil, fmt.Errorf("%w: %s is defined by %s", component.ErrAmbiguousName, typeName, strings.Join(names, ", "))
	}
	return tks[0], nil
}

// HasLoadedProject reports whether a project is registered under name.
func (b *Base) HasLoadedProject(name string) bool {
	_, ok := b.projects[name]
	return ok
}

// HasLoadedTypekit reports whether a typekit is registered under name.
func (b *Base) HasLoadedTypekit(name string) bool {
	_, ok := b.typekits[name]
	return ok
}

// Projects returns the registered projects in registration order.
func (b *Base) Projects() []*component.Project {
	return ordered(b.projectOrder, b.projects)
}

// Typekits returns the registered typekits in registration order.
func (b *Base) Typekits() []*component.Typekit {
	return ordered(b.typekitOrder, b.typekits)
}

// NodeModels returns the registered node models in registration order.
func (b *Base) NodeModels() []*component.NodeModel {
	return ordered(b.nodeOrder, b.nodeModels)
}

// Deployments returns the registered deployments in registration order.
func (b *Base) Deployments() []*component.Deployment {
	return ordered(b.deploymentOrder, b.deployments)
}

// AvailableProjectNames lists the projects the source can provide, sorted.
// Sources that cannot enumerate contribute nothing.
func (b *Base) AvailableProjectNames() ([]string, error) {
	src, ok := b.source.(Lister)
	if !ok {
		return nil, nil
	}
	names, err := src.ProjectNames()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// AvailableTypekitNames lists the typekits the source can provide, sorted.
func (b *Base) AvailableTypekitNames() ([]string, error) {
	src, ok := b.source.(Lister)
	if !ok {
		return nil, nil
	}
	names, err := src.TypekitNames()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (b *Base) publish(event pubsub.EventType, kind, name string) {
	if b.events == nil {
		return
	}
	b.events.Publish(event, ModelEvent{Kind: kind, Name: name, Loader: b.name})
}

func ordered[T any](order []string, byName map[string]T) []T {
	out := make([]T, 0, len(order))
	for _, n := range order {
		out = append(out, byName[n])
	}
	return out
}
