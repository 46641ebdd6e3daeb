package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/nodekit/internal/presentation"
)

var listLoad bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available and loaded models as JSON",
	Long: `List the project and typekit names every source can provide, together with
the projects, typekits and node models loaded so far.

Without --load only the names are known. With --load every typekit and
project is loaded first; models that fail to load are reported on stderr.

Examples:
  nodekit list
  nodekit list --load | jq '.node_models[]'`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listLoad, "load", false, "load every typekit and project before listing")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	ws, closeWS, err := openWorkspace(cmd.Context())
	if err != nil {
		return err
	}
	defer closeWS()

	if listLoad {
		report, err := ws.LoadAll()
		if err != nil {
			return err
		}
		for _, f := range report.Failures {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s %s: %v\n", f.Kind, f.Name, f.Err)
		}
	}

	listing, err := presentation.FromInventory(ws.Root())
	if err != nil {
		return err
	}
	return presentation.NewFormatter(cmd.OutOrStdout()).FormatListing(listing)
}
