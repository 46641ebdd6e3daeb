package presentation_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/nodekit/internal/presentation"
)

func TestFromNodeModel_IncludesInheritedObjects(t *testing.T) {
	dto := presentation.FromNodeModel(nodeModel(t, "robots::Driver"))

	require.Equal(t, "robots::Driver", dto.Name)
	require.Equal(t, "robots::Base", dto.Superclass)
	require.Equal(t, "robots", dto.Project)
	require.True(t, dto.Abstract)

	require.Len(t, dto.Ports, 2)
	require.Equal(t, "cmd", dto.Ports[0].Name)
	require.Equal(t, "input", dto.Ports[0].Direction)
	require.NotNil(t, dto.Ports[0].CleanOnNodeStart)
	require.True(t, *dto.Ports[0].CleanOnNodeStart)

	pose := dto.Ports[1]
	require.Equal(t, "output", pose.Direction)
	require.Equal(t, "compound", pose.Type.Category)
	require.Equal(t, []presentation.FieldDTO{{Name: "x", Type: "/double"}, {Name: "y", Type: "/double"}}, pose.Type.Fields)
	require.Equal(t, 2, pose.Period)
	require.Equal(t, []string{"cmd"}, pose.TriggeredOn)

	require.Len(t, dto.DynamicPorts, 2)
	require.Equal(t, `^w_\d+$`, dto.DynamicPorts[0].Pattern)
	require.True(t, dto.DynamicPorts[0].Dynamic)
	require.Nil(t, dto.DynamicPorts[1].Type, "no type means any type")

	require.Len(t, dto.Properties, 1)
	require.Equal(t, "0.1", dto.Properties[0].Default)
	require.Len(t, dto.Attributes, 1)
	require.True(t, dto.Attributes[0].Dynamic)

	require.Len(t, dto.Operations, 1)
	op := dto.Operations[0]
	require.Equal(t, "reset", op.Name)
	require.NotNil(t, op.Returns)
	require.Equal(t, "/int32_t", op.Returns.Type.Name)
	require.Equal(t, "to", op.Arguments[0].Name)
}

func TestFormatter_NodeModelJSON(t *testing.T) {
	var buf bytes.Buffer
	f := presentation.NewFormatter(&buf)
	require.NoError(t, f.FormatNodeModel(presentation.FromNodeModel(nodeModel(t, "robots::Base"))))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "robots::Base", decoded["name"])
	require.NotContains(t, decoded, "abstract")
	require.Equal(t, []any{}, decoded["operations"], "empty sets encode as []")
}

func TestFromInventory(t *testing.T) {
	loader := newLoader(t)
	_, err := loader.NodeModelFromName("robots::Other")
	require.NoError(t, err)

	listing, err := presentation.FromInventory(loader)
	require.NoError(t, err)
	require.Equal(t, []string{"robots"}, listing.AvailableProjects)
	require.Equal(t, []string{"base"}, listing.AvailableTypekits)
	require.Equal(t, []string{"robots::Base", "robots::Driver", "robots::Other"}, listing.NodeModels)

	require.Len(t, listing.Projects, 1)
	project := listing.Projects[0]
	require.Equal(t, "1.0", project.Version)
	require.Len(t, project.Deployments, 1)
	require.Equal(t, "5ms", project.Deployments[0].DefaultLatency)
	require.Equal(t, []presentation.DeployedNodeDTO{{Name: "driver", Model: "robots::Driver"}}, project.Deployments[0].Nodes)

	var names []string
	for _, tk := range listing.Typekits {
		names = append(names, tk.Name)
	}
	require.Contains(t, names, "base")
}

func TestPretty(t *testing.T) {
	out := presentation.Pretty(nodeModel(t, "robots::Driver"), 60)

	for _, want := range []string{
		"------- robots::Driver ------",
		"no documentation defined for this node model",
		"subclass of robots::Base (the superclass elements are displayed below)",
		"[in]cmd:/double",
		"[out]pose:/Pose",
		"[dyn,out]any:any type",
		"[dyn,out]w_:/double",
		"# Update period in seconds",
		"period:/double, default: 0.1",
		"device:/int32_t",
		"Returns: /int32_t status code",
		"to: /Pose new origin",
	} {
		require.Contains(t, out, want)
	}
	require.Less(t, strings.Index(out, "[dyn,out]any"), strings.Index(out, "[dyn,out]w_"), "sorted by name")
}

func TestPretty_EmptySections(t *testing.T) {
	out := presentation.Pretty(nodeModel(t, "robots::Base"), 0)
	require.Contains(t, out, "# Common interface of every robot driver.")
	require.Contains(t, out, "No dynamic ports")
	require.Contains(t, out, "No operations")
}

func TestMarkdown(t *testing.T) {
	md := presentation.Markdown(nodeModel(t, "robots::Driver"))
	require.Contains(t, md, "# robots::Driver")
	require.Contains(t, md, "_abstract_")
	require.Contains(t, md, "| pose | output | `/Pose` |")
	require.Contains(t, md, "| any | dynamic output | any |")
	require.Contains(t, md, "| device | `/int32_t` |  | yes |")
	require.Contains(t, md, "### `reset(to: /Pose)`")

	r, err := presentation.NewMarkdownRenderer(80, "notty")
	require.NoError(t, err)
	rendered, err := r.Render(md)
	require.NoError(t, err)
	require.Contains(t, rendered, "robots::Driver")
}

func TestDot(t *testing.T) {
	loader := newLoader(t)
	base, err := loader.NodeModelFromName("robots::Base")
	require.NoError(t, err)
	other, err := loader.NodeModelFromName("robots::Other")
	require.NoError(t, err)

	dot := presentation.Dot(base, other)
	require.True(t, strings.HasPrefix(dot, "digraph {"))
	require.Contains(t, dot, "t1 -> t0;")
	require.Contains(t, dot, "status&lt;x&gt; [/int32_t]")
	require.Contains(t, dot, "<TD>Input ports</TD>")
	require.Contains(t, dot, "period [/double]")
}

func TestDiff(t *testing.T) {
	loader := newLoader(t)
	driver, err := loader.NodeModelFromName("robots::Driver")
	require.NoError(t, err)
	other, err := loader.NodeModelFromName("robots::Other")
	require.NoError(t, err)

	require.False(t, presentation.HasChanges(presentation.Diff(driver, driver)))

	lines := presentation.Diff(driver, other)
	require.True(t, presentation.HasChanges(lines))

	byType := map[presentation.LineType][]string{}
	for _, l := range lines {
		byType[l.Type] = append(byType[l.Type], l.Text)
	}
	require.Contains(t, byType[presentation.LineContext], "[in]cmd:/double")
	require.Contains(t, byType[presentation.LineDeletion], "[out]pose:/Pose")
	require.Contains(t, byType[presentation.LineAddition], "[out]pose:/double")
	require.Contains(t, byType[presentation.LineDeletion], "[operation]reset(to:/Pose) -> /int32_t")

	rendered := presentation.RenderDiff(lines)
	require.Contains(t, rendered, " subclass of robots::Base")
	require.Contains(t, rendered, "+[out]pose:/double")
}

func TestDiffLines(t *testing.T) {
	lines := presentation.DiffLines([]string{"a", "b", "c"}, []string{"a", "c", "d"})
	require.Equal(t, []presentation.DiffLine{
		{Type: presentation.LineContext, Text: "a"},
		{Type: presentation.LineDeletion, Text: "b"},
		{Type: presentation.LineContext, Text: "c"},
		{Type: presentation.LineAddition, Text: "d"},
	}, lines)
	require.Empty(t, presentation.DiffLines(nil, nil))
}

func TestQuery(t *testing.T) {
	dto := presentation.FromNodeModel(nodeModel(t, "robots::Driver"))

	tests := []struct {
		expr string
		want []any
	}{
		{"$.name", []any{"robots::Driver"}},
		{"$.ports[*].name", []any{"cmd", "pose"}},
		{"$.ports[?(@.direction == 'output')].type.name", []any{"/Pose"}},
		{"$.operations[0].arguments[0].type.fields[*].name", []any{"x", "y"}},
		{"$.nothing", []any{}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := presentation.Query(dto, tt.expr)
			require.NoError(t, err)
			if len(tt.want) == 0 {
				require.Empty(t, got)
				return
			}
			require.Equal(t, tt.want, got)
		})
	}

	_, err := presentation.Query(dto, "$[")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid jsonpath")
}
