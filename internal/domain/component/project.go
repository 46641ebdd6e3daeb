package component

import (
	"fmt"
	"regexp"
)

var versionPattern = regexp.MustCompile(`^\d`)

// NodeOption configures a node model declared with Project.Node.
type NodeOption func(*nodeConfig)

type nodeConfig struct {
	supermodel *NodeModel
	setup      func(*NodeModel) error
}

// Supermodel derives the new node model from m instead of the project default.
func Supermodel(m *NodeModel) NodeOption {
	return func(c *nodeConfig) {
		c.supermodel = m
	}
}

// Setup runs fn on the new node model before it is registered.
func Setup(fn func(*NodeModel) error) NodeOption {
	return func(c *nodeConfig) {
		c.setup = fn
	}
}

// DeploymentOption configures a deployment declared with Project.Deployment.
type DeploymentOption func(*deploymentConfig)

type deploymentConfig struct {
	factory func(loader Loader, name string) *Deployment
	setup   func(*Deployment) error
}

// DeploymentFactory replaces NewDeployment as the constructor.
func DeploymentFactory(fn func(loader Loader, name string) *Deployment) DeploymentOption {
	return func(c *deploymentConfig) {
		c.factory = fn
	}
}

// DeploymentSetup runs fn on the new deployment before it is registered.
func DeploymentSetup(fn func(*Deployment) error) DeploymentOption {
	return func(c *deploymentConfig) {
		c.setup = fn
	}
}

// Project is a namespace of node models and deployments backed by a loader.
type Project struct {
	loader                Loader
	name                  string
	version               string
	typekit               *Typekit
	defaultNodeSupermodel *NodeModel

	nodeModels      map[string]*NodeModel
	nodeOrder       []string
	deployments     map[string]*Deployment
	deploymentOrder []string
}

// NewProject creates an empty project bound to loader.
func NewProject(loader Loader, name string) *Project {
	return &Project{
		loader:                loader,
		name:                  name,
		defaultNodeSupermodel: RootNodeModel(),
		nodeModels:            make(map[string]*NodeModel),
		deployments:           make(map[string]*Deployment),
	}
}

// Loader returns the loader the project registers its models on.
func (p *Project) Loader() Loader { return p.loader }

// Name returns the project name.
func (p *Project) Name() string { return p.name }

// SetName renames the project.
func (p *Project) SetName(name string) { p.name = name }

// Version returns the project version, empty when unset.
func (p *Project) Version() string { return p.version }

// SetVersion sets the version. Versions must start with a digit.
func (p *Project) SetVersion(version string) error {
	if !versionPattern.MatchString(version) {
		return fmt.Errorf("%w: version strings must start with a number (had: %s)", ErrInvalidArgument, version)
	}
	p.version = version
	return nil
}

// Typekit returns the typekit generated alongside the project, if any.
func (p *Project) Typekit() *Typekit { return p.typekit }

// SetTypekit attaches the project's own typekit.
func (p *Project) SetTypekit(tk *Typekit) { p.typekit = tk }

// DefaultNodeSupermodel returns the model new node models derive from.
func (p *Project) DefaultNodeSupermodel() *NodeModel { return p.defaultNodeSupermodel }

// SetDefaultNodeSupermodel changes the model new node models derive from.
func (p *Project) SetDefaultNodeSupermodel(m *NodeModel) { p.defaultNodeSupermodel = m }

// Node declares a node model in the project and registers it on the loader.
func (p *Project) Node(name string, opts ...NodeOption) (*NodeModel, error) {
	if p.HasNodeModel(name) {
		return nil, fmt.Errorf("%w: there is already a node model named %s in %s", ErrInvalidArgument, name, p.name)
	}
	cfg := nodeConfig{supermodel: p.defaultNodeSupermodel}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.supermodel == nil {
		cfg.supermodel = RootNodeModel()
	}

	model := cfg.supermodel.NewSubmodel(name, p)
	if cfg.setup != nil {
		if err := cfg.setup(model); err != nil {
			return nil, fmt.Errorf("node model %s: %w", name, err)
		}
	}
	if err := p.loader.RegisterNodeModel(model); err != nil {
		return nil, err
	}
	p.nodeModels[name] = model
	p.nodeOrder = append(p.nodeOrder, name)
	return model, nil
}

// Deployment declares a deployment in the project and registers it on the loader.
func (p *Project) Deployment(name string, opts ...DeploymentOption) (*Deployment, error) {
	if p.HasDeploymentModel(name) {
		return nil, fmt.Errorf("%w: there is already a deployment called %s in %s", ErrInvalidArgument, name, p.name)
	}
	cfg := deploymentConfig{factory: NewDeployment}
	for _, opt := range opts {
		opt(&cfg)
	}

	deployment := cfg.factory(p.loader, name)
	if cfg.setup != nil {
		if err := cfg.setup(deployment); err != nil {
			return nil, fmt.Errorf("deployment %s: %w", name, err)
		}
	}
	if err := p.loader.RegisterDeploymentModel(deployment); err != nil {
		return nil, err
	}
	p.deployments[name] = deployment
	p.deploymentOrder = append(p.deploymentOrder, name)
	return deployment, nil
}

// UseNodesFrom loads the named project through the loader so its node models
// become resolvable. Nothing is copied into p.
func (p *Project) UseNodesFrom(name string) (*Project, error) {
	return p.loader.NodeLibraryModelFromName(name)
}

// UseProject registers an already built project on the loader.
func (p *Project) UseProject(other *Project) error {
	return p.loader.RegisterProjectModel(other)
}

// UseTypesFrom loads the named typekit through the loader.
func (p *Project) UseTypesFrom(name string) (*Typekit, error) {
	return p.loader.TypekitModelFromName(name)
}

// UseTypekit registers an already built typekit on the loader.
func (p *Project) UseTypekit(tk *Typekit) error {
	return p.loader.RegisterTypekitModel(tk)
}

// HasNodeModel reports whether the project itself declares name.
func (p *Project) HasNodeModel(name string) bool {
	_, ok := p.nodeModels[name]
	return ok
}

// NodeModel returns the node model the project itself declares as name.
func (p *Project) NodeModel(name string) (*NodeModel, bool) {
	m, ok := p.nodeModels[name]
	return m, ok
}

// NodeModelFromName returns a node model of the project, or any node model
// the loader can resolve.
func (p *Project) NodeModelFromName(name string) (*NodeModel, error) {
	if m, ok := p.nodeModels[name]; ok {
		return m, nil
	}
	return p.loader.NodeModelFromName(name)
}

// NodeModels returns the project's node models in declaration order.
func (p *Project) NodeModels() []*NodeModel {
	out := make([]*NodeModel, 0, len(p.nodeOrder))
	for _, n := range p.nodeOrder {
		out = append(out, p.nodeModels[n])
	}
	return out
}

// HasDeploymentModel reports whether the project declares the deployment.
func (p *Project) HasDeploymentModel(name string) bool {
	_, ok := p.deployments[name]
	return ok
}

// DeploymentModelFromName returns a deployment declared by the project.
func (p *Project) DeploymentModelFromName(name string) (*Deployment, error) {
	d, ok := p.deployments[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s in project %s", ErrDeploymentModelNotFound, name, p.name)
	}
	return d, nil
}

// DeploymentModels returns the project's deployments in declaration order.
func (p *Project) DeploymentModels() []*Deployment {
	out := make([]*Deployment, 0, len(p.deploymentOrder))
	for _, n := range p.deploymentOrder {
		out = append(out, p.deployments[n])
	}
	return out
}

func (p *Project) String() string {
	return fmt.Sprintf("#<Project: %s>", p.name)
}
