package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/nodekit/internal/presentation"
)

var queryCmd = &cobra.Command{
	Use:   "query <node-model> <jsonpath>",
	Short: "Evaluate a JSONPath expression against a node model",
	Long: `Evaluate a JSONPath expression against the JSON form of a node model (the
output of 'nodekit show --json') and print the matches as a JSON array.

Examples:
  nodekit query robots::Driver '$.ports[*].name'
  nodekit query robots::Driver "$.ports[?(@.direction == 'output')].type.name"`,
	Args: cobra.ExactArgs(2),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ws, closeWS, err := openWorkspace(cmd.Context())
	if err != nil {
		return err
	}
	defer closeWS()

	m, err := nodeModel(ws, args[0])
	if err != nil {
		return err
	}
	matches, err := presentation.Query(presentation.FromNodeModel(m), args[1])
	if err != nil {
		return err
	}
	return presentation.NewFormatter(cmd.OutOrStdout()).FormatJSON(matches)
}
