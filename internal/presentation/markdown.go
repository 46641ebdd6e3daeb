package presentation

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/zjrosen/nodekit/internal/domain/component"
)

// noMarginStyle removes document margins on top of the selected style.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// Markdown documents a node model interface as a Markdown page.
func Markdown(m *component.NodeModel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", m.Name())
	if m.Abstract() {
		b.WriteString("_abstract_\n\n")
	}
	if m.Doc() != "" {
		b.WriteString(strings.TrimSpace(m.Doc()))
		b.WriteString("\n\n")
	}
	if super := m.Supermodel(); super != nil {
		fmt.Fprintf(&b, "Subclass of `%s`.\n\n", super.Name())
	}

	ports := append(m.Ports(), m.DynamicPorts()...)
	if len(ports) > 0 {
		b.WriteString("## Ports\n\n| Port | Direction | Type | Doc |\n|---|---|---|---|\n")
		for _, p := range ports {
			dir := "input"
			if p.IsOutput() {
				dir = "output"
			}
			if p.IsDynamic() {
				dir = "dynamic " + dir
			}
			typeName := "any"
			if p.Type() != nil {
				typeName = "`" + p.Type().Name + "`"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", p.Name(), dir, typeName, cell(p.Doc()))
		}
		b.WriteString("\n")
	}

	writeConfigurationTable(&b, "Properties", m.Properties())
	writeConfigurationTable(&b, "Attributes", m.Attributes())

	if ops := m.Operations(); len(ops) > 0 {
		b.WriteString("## Operations\n\n")
		for _, o := range ops {
			args := make([]string, 0, len(o.Arguments()))
			for _, a := range o.Arguments() {
				args = append(args, a.Name+": "+a.Type.Name)
			}
			fmt.Fprintf(&b, "### `%s(%s)`\n\n", o.Name(), strings.Join(args, ", "))
			if o.Doc() != "" {
				b.WriteString(o.Doc())
				b.WriteString("\n\n")
			}
			if o.HasReturnValue() {
				fmt.Fprintf(&b, "Returns `%s`. %s\n\n", o.ReturnType().Name, o.ReturnDoc())
			}
		}
	}
	return b.String()
}

func writeConfigurationTable(b *strings.Builder, title string, objs []*component.ConfigurationObject) {
	if len(objs) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n| Name | Type | Default | Dynamic | Doc |\n|---|---|---|---|---|\n", title)
	for _, c := range objs {
		def := ""
		if v := c.DefaultValue(); v != nil {
			def = fmt.Sprintf("`%v`", v)
		}
		dynamic := ""
		if c.Dynamic() {
			dynamic = "yes"
		}
		fmt.Fprintf(b, "| %s | `%s` | %s | %s | %s |\n", c.Name(), c.Type(), def, dynamic, cell(c.Doc()))
	}
	b.WriteString("\n")
}

// cell keeps a doc string on one table row.
func cell(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// MarkdownRenderer renders Markdown for the terminal.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer creates a renderer wrapping at width. An empty style
// detects dark or light terminals; "notty" renders plain text.
func NewMarkdownRenderer(width int, style string) (*MarkdownRenderer, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &MarkdownRenderer{renderer: r}, nil
}

// Render transforms markdown to styled terminal output.
func (r *MarkdownRenderer) Render(markdown string) (string, error) {
	return r.renderer.Render(markdown)
}
