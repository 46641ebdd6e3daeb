package presentation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/nodekit/internal/domain/component"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#93C5FD"})
	sectionStyle = lipgloss.NewStyle().Bold(true)
	docStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"})
)

// DefaultWidth is used when the caller does not know the terminal width.
const DefaultWidth = 80

// Pretty renders a node model interface as styled text. Inherited objects are
// listed alongside the model's own, sorted by name within each section.
func Pretty(m *component.NodeModel, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("------- %s ------", m.Name())))
	b.WriteString("\n")
	if m.Doc() != "" {
		b.WriteString(docStyle.Render(commentLines(m.Doc(), width)))
		b.WriteString("\n")
	} else {
		b.WriteString("no documentation defined for this node model\n")
	}
	if super := m.Supermodel(); super != nil {
		fmt.Fprintf(&b, "subclass of %s (the superclass elements are displayed below)\n", super.Name())
	}

	writeSection(&b, "Ports", portLines(m.Ports()))
	writeSection(&b, "Dynamic Ports", portLines(m.DynamicPorts()))
	writeSection(&b, "Properties", configurationLines(m.Properties(), width))
	writeSection(&b, "Attributes", configurationLines(m.Attributes(), width))
	writeSection(&b, "Operations", operationLines(m.Operations(), width))
	return b.String()
}

// PortSummary is the one-line form of a port, e.g. "[out]pose:/Pose" or
// "[dyn,in]w_.*:any type".
func PortSummary(p component.PortObject) string {
	dir := "in"
	if p.IsOutput() {
		dir = "out"
	}
	typeName := "any type"
	if p.Type() != nil {
		typeName = p.Type().Name
	}
	if p.IsDynamic() {
		return fmt.Sprintf("[dyn,%s]%s:%s", dir, p.Name(), typeName)
	}
	return fmt.Sprintf("[%s]%s:%s", dir, p.Name(), typeName)
}

func writeSection(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		fmt.Fprintf(b, "No %s\n", strings.ToLower(title))
		return
	}
	b.WriteString(sectionStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(indent.String(strings.Join(lines, "\n"), 2))
	b.WriteString("\n")
}

func commentLines(doc string, width int) string {
	wrapped := wordwrap.String(strings.TrimRight(doc, "\n"), width-2)
	lines := strings.Split(wrapped, "\n")
	for i, l := range lines {
		lines[i] = "# " + l
	}
	return strings.Join(lines, "\n")
}

func sortedByName[T component.InterfaceObject](objs []T) []T {
	out := append([]T(nil), objs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func portLines(ports []component.PortObject) []string {
	var lines []string
	for _, p := range sortedByName(ports) {
		lines = append(lines, PortSummary(p))
	}
	return lines
}

func configurationLines(objs []*component.ConfigurationObject, width int) []string {
	var lines []string
	for _, c := range sortedByName(objs) {
		if c.Doc() != "" {
			lines = append(lines, commentLines(c.Doc(), width-2))
		}
		line := fmt.Sprintf("%s:%s", c.Name(), c.Type().String())
		if v := c.DefaultValue(); v != nil {
			line += fmt.Sprintf(", default: %v", v)
		}
		lines = append(lines, line)
	}
	return lines
}

func operationLines(ops []*component.Operation, width int) []string {
	var lines []string
	for _, o := range sortedByName(ops) {
		var details []string
		if o.Doc() != "" {
			details = append(details, wordwrap.String(o.Doc(), width-4))
		}
		if o.HasReturnValue() {
			ret := "Returns: " + o.ReturnType().Name
			if o.ReturnDoc() != "" {
				ret += " " + o.ReturnDoc()
			}
			details = append(details, ret)
		}
		for _, a := range o.Arguments() {
			details = append(details, fmt.Sprintf("%s: %s %s", a.Name, a.Type.Name, a.Doc))
		}
		lines = append(lines, o.Name())
		if len(details) > 0 {
			lines = append(lines, indent.String(strings.Join(details, "\n"), 2))
		}
	}
	return lines
}

// InterfaceSummary lists a node model's interface one object per line, in a
// stable order suitable for diffing.
func InterfaceSummary(m *component.NodeModel) []string {
	var lines []string
	if super := m.Supermodel(); super != nil {
		lines = append(lines, "subclass of "+super.Name())
	}
	for _, p := range sortedByName(m.Ports()) {
		lines = append(lines, PortSummary(p))
	}
	for _, p := range sortedByName(m.DynamicPorts()) {
		lines = append(lines, PortSummary(p))
	}
	for _, c := range sortedByName(m.Properties()) {
		lines = append(lines, fmt.Sprintf("[property]%s:%s", c.Name(), c.Type()))
	}
	for _, c := range sortedByName(m.Attributes()) {
		lines = append(lines, fmt.Sprintf("[attribute]%s:%s", c.Name(), c.Type()))
	}
	for _, o := range sortedByName(m.Operations()) {
		args := make([]string, 0, len(o.Arguments()))
		for _, a := range o.Arguments() {
			args = append(args, a.Name+":"+a.Type.Name)
		}
		ret := ""
		if o.HasReturnValue() {
			ret = " -> " + o.ReturnType().Name
		}
		lines = append(lines, fmt.Sprintf("[operation]%s(%s)%s", o.Name(), strings.Join(args, ", "), ret))
	}
	return lines
}
