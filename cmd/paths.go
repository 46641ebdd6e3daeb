package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/nodekit/internal/config"
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Print the model directories searched, in order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		for _, p := range cfg.ModelPaths {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), config.ExpandHome(p))
		}
		return nil
	},
}

var pathsAddCmd = &cobra.Command{
	Use:   "add <dir>",
	Short: "Append a model directory to model_paths in the config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		if !filepath.IsAbs(dir) && !strings.HasPrefix(dir, "~") {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			dir = abs
		}
		if err := config.AddModelPath(cfgPath, cfg.ModelPaths, dir); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "model path %s saved to %s\n", dir, cfgPath)
		return nil
	},
}

func init() {
	pathsCmd.AddCommand(pathsAddCmd)
	rootCmd.AddCommand(pathsCmd)
}
