package component

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProject_NodeRegistersOnLoader(t *testing.T) {
	loader := newStubLoader(t)
	project := NewProject(loader, "demo")

	m, err := project.Node("demo::Task", Setup(func(m *NodeModel) error {
		_, err := m.OutputPort("out", "/double")
		return err
	}))
	require.NoError(t, err)
	require.Same(t, RootNodeModel(), m.Supermodel())
	require.Same(t, project, m.Project())
	require.NotNil(t, m.FindOutputPort("out"))

	registered, err := loader.NodeModelFromName("demo::Task")
	require.NoError(t, err)
	require.Same(t, m, registered)

	found, err := project.NodeModelFromName("demo::Task")
	require.NoError(t, err)
	require.Same(t, m, found)
}

func TestProject_NodeDuplicates(t *testing.T) {
	project := NewProject(newStubLoader(t), "demo")
	_, err := project.Node("demo::Task")
	require.NoError(t, err)
	_, err = project.Node("demo::Task")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestProject_FailedSetupDoesNotRegister(t *testing.T) {
	loader := newStubLoader(t)
	project := NewProject(loader, "demo")
	boom := errors.New("boom")

	_, err := project.Node("demo::Task", Setup(func(*NodeModel) error { return boom }))
	require.ErrorIs(t, err, boom)
	require.False(t, project.HasNodeModel("demo::Task"))
	_, err = loader.NodeModelFromName("demo::Task")
	require.ErrorIs(t, err, ErrNodeModelNotFound)
}

func TestProject_DefaultSupermodel(t *testing.T) {
	project := NewProject(newStubLoader(t), "demo")
	base, err := project.Node("demo::Base")
	require.NoError(t, err)
	project.SetDefaultNodeSupermodel(base)

	derived, err := project.Node("demo::Derived")
	require.NoError(t, err)
	require.True(t, derived.Fulfills(base))
	require.True(t, derived.Fulfills(RootNodeModel()))
}

func TestProject_Version(t *testing.T) {
	project := NewProject(newStubLoader(t), "demo")
	require.NoError(t, project.SetVersion("1.2"))
	require.ErrorIs(t, project.SetVersion("v1"), ErrInvalidArgument)
	require.Equal(t, "1.2", project.Version())
}

func TestProject_Deployment(t *testing.T) {
	loader := newStubLoader(t)
	project := NewProject(loader, "demo")
	task, err := project.Node("demo::Task")
	require.NoError(t, err)

	d, err := project.Deployment("demo_deployment", DeploymentSetup(func(d *Deployment) error {
		d.SetDefaultLatency(50 * time.Millisecond)
		if _, err := d.Node("task", task); err != nil {
			return err
		}
		_, err := d.NodeByModelName("task2", "demo::Task")
		return err
	}))
	require.NoError(t, err)
	require.Len(t, d.DeployedNodes(), 2)
	require.Equal(t, 50*time.Millisecond, d.DefaultLatency())

	deployed, err := d.DeployedNodeFromName("task2")
	require.NoError(t, err)
	require.Same(t, task, deployed.Model())
	require.Same(t, d, deployed.Deployment())

	_, err = d.Node("task", task)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = d.DeployedNodeFromName("nope")
	require.ErrorIs(t, err, ErrDeployedNodeModelNotFound)

	_, err = project.Deployment("demo_deployment")
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.Same(t, d, loader.deployments["demo_deployment"])
}

func TestErrors_Families(t *testing.T) {
	for _, err := range []error{
		ErrProjectNotFound, ErrTypekitNotFound, ErrTypeNotFound, ErrNodeModelNotFound,
		ErrDeploymentModelNotFound, ErrDeployedNodeModelNotFound, ErrDefinitionTypekitNotFound,
	} {
		require.ErrorIs(t, err, ErrNotFound)
	}
	for _, err := range []error{
		ErrAmbiguousProjectName, ErrAmbiguousNodeModelName, ErrAmbiguousDeploymentName, ErrAmbiguousDeployedNode,
	} {
		require.ErrorIs(t, err, ErrAmbiguousName)
	}
	require.ErrorIs(t, ErrDuplicateLoader, ErrInvalidArgument)
	require.False(t, errors.Is(ErrProjectNotFound, ErrTypekitNotFound))
}
