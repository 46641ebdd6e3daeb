package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/nodekit/internal/config"
)

var (
	initGlobal bool
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config file",
	Long: `Write a commented default config file to .nodekit/config.yaml, or to
~/.config/nodekit/config.yaml with --global.`,
	Args: cobra.NoArgs,
	// The config file may not exist yet.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE:              runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "write the user config instead of the local one")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	path := localConfigPath
	switch {
	case cfgFile != "":
		path = cfgFile
	case initGlobal:
		path = globalConfigPath()
	}
	if fileExists(path) && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.WriteDefaultConfig(path); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
