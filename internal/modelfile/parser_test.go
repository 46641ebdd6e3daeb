package modelfile_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/nodekit/internal/domain/component"
	"github.com/zjrosen/nodekit/internal/modelfile"
)

func TestParseProject_YAML(t *testing.T) {
	l := newLoader(t, modelFS(), modelfile.WithDefaultLatency(100*time.Millisecond))

	project, err := l.ProjectModelFromName("demo")
	require.NoError(t, err)
	require.Equal(t, "1.0", project.Version())
	require.Len(t, project.NodeModels(), 4)

	base, err := project.NodeModelFromName("demo::Base")
	require.NoError(t, err)
	require.True(t, base.Abstract())
	require.Same(t, component.RootNodeModel(), base.Supermodel(), "declared before the default applies")
	require.False(t, base.FindInputPort("cmd").CleanOnNodeStart())
	require.Equal(t, "1.5", base.FindProperty("gain").DefaultValue())

	task, err := project.NodeModelFromName("demo::Task")
	require.NoError(t, err)
	require.Same(t, base, task.Supermodel(), "the default supermodel applies once declared")
	require.True(t, task.FindAttribute("rate").Dynamic())

	out := task.FindOutputPort("out")
	require.NotNil(t, out)
	require.Equal(t, 4, out.SampleSize())
	require.Equal(t, 10, out.BurstSize())
	require.Equal(t, 2, out.BurstPeriod())
	require.Len(t, out.PortTriggers(), 1)
	require.Equal(t, "in", out.PortTriggers()[0].Name())
	require.False(t, out.TriggeredOnUpdate())
	require.True(t, task.FindOutputPort("status").TriggeredOncePerUpdate())

	reset := task.FindOperation("reset")
	require.NotNil(t, reset)
	require.Equal(t, "resets the filter", reset.Doc())
	require.Len(t, reset.Arguments(), 1)
	require.True(t, reset.HasReturnValue())

	matches, err := task.FindMatchingDynamicInputPorts("x_left", "/double")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	ok, err := task.HasMatchingDynamicPort("whatever", "/int32_t")
	require.NoError(t, err)
	require.True(t, ok, "the untyped dynamic output port accepts any name and type")

	relay, err := project.NodeModelFromName("demo::Relay")
	require.NoError(t, err)
	require.True(t, relay.Fulfills(task))
	require.NotNil(t, relay.FindOutputPort("signal"))
	require.Nil(t, relay.FindOutputPort("sig"))
	require.NotNil(t, relay.FindInputPort("cmd"), "inherited from demo::Base through demo::Task")

	d, err := l.DeploymentModelFromName("demo_deployment")
	require.NoError(t, err)
	require.Equal(t, 100*time.Millisecond, d.DefaultLatency())
	fast, err := l.DeploymentModelFromName("demo_fast")
	require.NoError(t, err)
	require.Equal(t, 5*time.Millisecond, fast.DefaultLatency())

	deployed, err := l.DeployedNodeModelFromName("relay")
	require.NoError(t, err)
	require.Same(t, relay, deployed.Model())
}

func TestParseProject_HCL(t *testing.T) {
	l := newLoader(t, modelFS())

	project, err := l.ProjectModelFromName("hcldemo")
	require.NoError(t, err)
	require.Equal(t, "2.0", project.Version())

	task, err := l.NodeModelFromName("hcldemo::Task")
	require.NoError(t, err)
	require.Same(t, project, task.Project())
	require.Equal(t, "declared in hcl", task.Doc())
	require.Equal(t, "2", task.FindProperty("gain").DefaultValue())
	require.Len(t, task.FindOutputPort("out").PortTriggers(), 1)
	require.NotNil(t, task.FindDynamicOutputPort("dyn"))
	require.True(t, task.FindOperation("reset").HasReturnValue())

	d, err := l.DeploymentModelFromName("hcl_deployment")
	require.NoError(t, err)
	require.Equal(t, 20*time.Millisecond, d.DefaultLatency())
	require.Len(t, d.DeployedNodes(), 1)
}

func TestParseProject_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{
			name:    "missing project name",
			file:    "projects/bad.yml",
			content: "nodes: []\n",
			wantErr: modelfile.ErrParse,
		},
		{
			name:    "unknown field",
			file:    "projects/bad.yml",
			content: "name: bad\nnodez: []\n",
			wantErr: modelfile.ErrParse,
		},
		{
			name:    "type names are absolute",
			file:    "projects/bad.yml",
			content: "name: bad\nnodes:\n  - name: bad::T\n    input_ports:\n      - {name: in, type: double}\n",
			wantErr: modelfile.ErrParse,
		},
		{
			name:    "malformed hcl",
			file:    "projects/bad.hcl",
			content: "name = \n",
			wantErr: modelfile.ErrParse,
		},
		{
			name:    "unknown superclass",
			file:    "projects/bad.yml",
			content: "name: bad\nnodes:\n  - {name: bad::T, superclass: bad::Missing}\n",
			wantErr: component.ErrNodeModelNotFound,
		},
		{
			name:    "invalid latency",
			file:    "projects/bad.yml",
			content: "name: bad\ndeployments:\n  - {name: d, default_latency: soon}\n",
			wantErr: component.ErrInvalidArgument,
		},
		{
			name:    "invalid dynamic port pattern",
			file:    "projects/bad.yml",
			content: "name: bad\nnodes:\n  - name: bad::T\n    dynamic_input_ports:\n      - {name: d, pattern: \"(\"}\n",
			wantErr: component.ErrInvalidArgument,
		},
		{
			name:    "file defines another project",
			file:    "projects/bad.yml",
			content: "name: other\n",
			wantErr: component.ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := modelFS()
			fsys[tt.file] = newFile(tt.content)
			l := newLoader(t, fsys)

			_, err := l.ProjectModelFromName("bad")
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			require.False(t, l.HasLoadedProject("bad"))
		})
	}
}

func TestDecodeProject_Outline(t *testing.T) {
	def, err := modelfile.DecodeProject(modelfile.ProjectText{
		Name:   "hcldemo",
		Origin: "projects/hcldemo.hcl",
		Format: modelfile.FormatHCL,
		Data:   []byte(demoHCL),
	})
	require.NoError(t, err)
	require.Equal(t, "hcldemo", def.Name)
	require.Len(t, def.Nodes, 1)
	require.Equal(t, "hcldemo::Task", def.Nodes[0].Name)
	require.Equal(t, "hcl_deployment", def.Deployments[0].Name)
}

func TestProjectNameFromNodeModel(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"demo::Task", "demo", true},
		{"Task", "", false},
		{"::Task", "", false},
	}
	for _, tt := range tests {
		got, ok := modelfile.ProjectNameFromNodeModel(tt.in)
		require.Equal(t, tt.ok, ok, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}
}
