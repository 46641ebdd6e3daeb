package presentation

import (
	"fmt"
	"html"
	"strings"

	"github.com/zjrosen/nodekit/internal/domain/component"
)

// DotFragment returns a Graphviz fragment drawing m as an HTML-label node
// listing its properties and ports. id must be unique in the enclosing graph.
func DotFragment(m *component.NodeModel, id string) string {
	var label strings.Builder
	label.WriteString("<TABLE BORDER=\"0\" CELLBORDER=\"0\" CELLSPACING=\"0\">\n")
	fmt.Fprintf(&label, "  <TR><TD>%s</TD></TR>\n", html.EscapeString(m.Name()))

	var properties []string
	for _, p := range m.Properties() {
		properties = append(properties, typedName(p.Name(), p.Type().String()))
	}
	var inputs, outputs []string
	for _, p := range m.InputPorts() {
		inputs = append(inputs, typedName(p.Name(), p.Type().String()))
	}
	for _, p := range m.OutputPorts() {
		outputs = append(outputs, typedName(p.Name(), p.Type().String()))
	}
	for _, section := range []struct {
		title string
		lines []string
	}{
		{"Properties", properties},
		{"Input ports", inputs},
		{"Output ports", outputs},
	} {
		if len(section.lines) > 0 {
			fmt.Fprintf(&label, "  <TR><TD>%s</TD></TR>\n", htmlTable(section.title, section.lines))
		}
	}
	label.WriteString("</TABLE>")

	var b strings.Builder
	b.WriteString("  node [shape=none,margin=0,height=.1];\n")
	fmt.Fprintf(&b, "  %s [label=<%s>];\n", id, label.String())
	return b.String()
}

// Dot returns a complete digraph of the given models with an edge from each
// model to its supermodel when both are drawn.
func Dot(models ...*component.NodeModel) string {
	ids := make(map[*component.NodeModel]string, len(models))
	var b strings.Builder
	b.WriteString("digraph {\n  rankdir=BT;\n")
	for i, m := range models {
		id := fmt.Sprintf("t%d", i)
		ids[m] = id
		b.WriteString(DotFragment(m, id))
	}
	for _, m := range models {
		if superID, ok := ids[m.Supermodel()]; ok {
			fmt.Fprintf(&b, "  %s -> %s;\n", ids[m], superID)
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func typedName(name, typeName string) string {
	return fmt.Sprintf("%s [%s]", html.EscapeString(name), html.EscapeString(typeName))
}

func htmlTable(title string, lines []string) string {
	var b strings.Builder
	b.WriteString("<TABLE BORDER=\"0\" CELLBORDER=\"1\" CELLSPACING=\"0\">\n")
	fmt.Fprintf(&b, "  <TR><TD>%s</TD></TR>\n", title)
	b.WriteString("  <TR><TD>\n")
	b.WriteString(strings.Join(lines, "<BR/>\n"))
	b.WriteString("\n  </TD></TR>\n")
	b.WriteString("</TABLE>")
	return b.String()
}
