package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/nodekit/internal/domain/component"
	"github.com/zjrosen/nodekit/internal/presentation"
)

var (
	showMarkdown bool
	showRender   bool
	showDot      bool
	showJSON     bool
	showWidth    int
	showStyle    string
)

var showCmd = &cobra.Command{
	Use:   "show <node-model>...",
	Short: "Describe node models",
	Long: `Describe node models together with everything they inherit.

The default output is a plain text summary. --json prints the full model,
--markdown a markdown document (styled for the terminal with --render) and
--dot a graphviz digraph of all the named models and their supermodels.

Examples:
  nodekit show robots::Driver
  nodekit show robots::Driver --markdown --render
  nodekit show robots::Driver robots::Other --dot | dot -Tsvg > models.svg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showMarkdown, "markdown", false, "print markdown")
	showCmd.Flags().BoolVar(&showRender, "render", false, "style markdown for the terminal")
	showCmd.Flags().BoolVar(&showDot, "dot", false, "print a graphviz digraph")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print JSON")
	showCmd.Flags().IntVarP(&showWidth, "width", "w", presentation.DefaultWidth, "wrap width for text and rendered markdown")
	showCmd.Flags().StringVar(&showStyle, "style", "", "glamour style for --render (default: detect)")
	showCmd.MarkFlagsMutuallyExclusive("markdown", "dot", "json")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ws, closeWS, err := openWorkspace(cmd.Context())
	if err != nil {
		return err
	}
	defer closeWS()

	out := presentation.NewFormatter(cmd.OutOrStdout())
	var renderer *presentation.MarkdownRenderer
	if showMarkdown && showRender {
		if renderer, err = presentation.NewMarkdownRenderer(showWidth, showStyle); err != nil {
			return fmt.Errorf("creating markdown renderer: %w", err)
		}
	}

	var dot []*component.NodeModel
	for _, name := range args {
		m, err := nodeModel(ws, name)
		if err != nil {
			return err
		}
		switch {
		case showDot:
			dot = append(dot, m)
		case showJSON:
			if err := out.FormatNodeModel(presentation.FromNodeModel(m)); err != nil {
				return err
			}
		case showMarkdown:
			text := presentation.Markdown(m)
			if renderer != nil {
				if text, err = renderer.Render(text); err != nil {
					return err
				}
			}
			if err := out.FormatText(text); err != nil {
				return err
			}
		default:
			if err := out.FormatText(presentation.Pretty(m, showWidth)); err != nil {
				return err
			}
		}
	}
	if showDot {
		return out.FormatText(presentation.Dot(dot...))
	}
	return nil
}
