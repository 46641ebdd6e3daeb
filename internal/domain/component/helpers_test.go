package component

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/nodekit/internal/domain/types"
)

// stubLoader is a minimal in-memory Loader for model tests.
type stubLoader struct {
	registry    *types.Registry
	exported    map[string]bool
	projects    []*Project
	typekits    []*Typekit
	nodeModels  map[string]*NodeModel
	deployments map[string]*Deployment
}

var _ Loader = (*stubLoader)(nil)

func newStubLoader(t *testing.T) *stubLoader {
	t.Helper()
	r := types.NewRegistry()
	_, err := r.CreateNumeric("/double", 8, types.Float)
	require.NoError(t, err)
	_, err = r.CreateNumeric("/int32_t", 4, types.Signed)
	require.NoError(t, err)
	_, err = r.CreateOpaque("/internal_handle", 8)
	require.NoError(t, err)
	return &stubLoader{
		registry:    r,
		exported:    map[string]bool{"/double": true, "/int32_t": true},
		nodeModels:  make(map[string]*NodeModel),
		deployments: make(map[string]*Deployment),
	}
}

func (l *stubLoader) RegisterProjectModel(p *Project) error {
	l.projects = append(l.projects, p)
	return nil
}

func (l *stubLoader) RegisterTypekitModel(tk *Typekit) error {
	l.typekits = append(l.typekits, tk)
	return l.registry.Merge(tk.Registry())
}

func (l *stubLoader) RegisterNodeModel(m *NodeModel) error {
	if _, ok := l.nodeModels[m.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, m.Name())
	}
	l.nodeModels[m.Name()] = m
	return nil
}

func (l *stubLoader) RegisterDeploymentModel(d *Deployment) error {
	if _, ok := l.deployments[d.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, d.Name())
	}
	l.deployments[d.Name()] = d
	return nil
}

func (l *stubLoader) NodeLibraryModelFromName(name string) (*Project, error) {
	return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
}

func (l *stubLoader) TypekitModelFromName(name string) (*Typekit, error) {
	return nil, fmt.Errorf("%w: %s", ErrTypekitNotFound, name)
}

func (l *stubLoader) NodeModelFromName(name string) (*NodeModel, error) {
	if m, ok := l.nodeModels[name]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNodeModelNotFound, name)
}

func (l *stubLoader) ResolveType(name string) (*types.Type, error) {
	t, err := l.registry.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTypeNotFound, err)
	}
	return t, nil
}

func (l *stubLoader) ResolveInterfaceType(name string) (*types.Type, error) {
	t, err := l.ResolveType(name)
	if err != nil {
		return nil, err
	}
	if !l.exported[t.Name] {
		return nil, &NotInterfaceTypeError{Type: t}
	}
	return t, nil
}

// newTestNode declares a node model on a fresh project.
func newTestNode(t *testing.T, name string, opts ...NodeOption) (*NodeModel, *Project) {
	t.Helper()
	project := NewProject(newStubLoader(t), "test")
	m, err := project.Node(name, opts...)
	require.NoError(t, err)
	return m, project
}
