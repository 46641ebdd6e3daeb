package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/zjrosen/nodekit/internal/presentation"
)

// ErrInterfacesDiffer is returned by diff --exit-code when the models differ.
var ErrInterfacesDiffer = errors.New("node model interfaces differ")

var diffExitCode bool

var diffCmd = &cobra.Command{
	Use:   "diff <node-model> <node-model>",
	Short: "Compare the interfaces of two node models",
	Long: `Compare the interfaces of two node models, inherited objects included.
Lines only in the first model start with '-', lines only in the second with '+'.

Examples:
  nodekit diff robots::Driver robots::Other
  nodekit diff --exit-code old::Task new::Task`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().BoolVar(&diffExitCode, "exit-code", false, "fail when the interfaces differ")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	ws, closeWS, err := openWorkspace(cmd.Context())
	if err != nil {
		return err
	}
	defer closeWS()

	a, err := nodeModel(ws, args[0])
	if err != nil {
		return err
	}
	b, err := nodeModel(ws, args[1])
	if err != nil {
		return err
	}

	lines := presentation.Diff(a, b)
	out := presentation.NewFormatter(cmd.OutOrStdout())
	if !presentation.HasChanges(lines) {
		return out.FormatText("no interface differences")
	}
	if err := out.FormatText(presentation.RenderDiff(lines)); err != nil {
		return err
	}
	if diffExitCode {
		return ErrInterfacesDiffer
	}
	return nil
}
