package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/nodekit/internal/config"
	"github.com/zjrosen/nodekit/internal/infrastructure/sqlite"
	"github.com/zjrosen/nodekit/internal/log"
	"github.com/zjrosen/nodekit/internal/metrics"
	"github.com/zjrosen/nodekit/internal/sources"
)

var importEnable bool

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Copy a model directory into the SQLite model store",
	Long: `Copy every typekit and project of a model directory (one holding projects/
and typekits/) into the SQLite model store at database.path. Models already in
the store are replaced.

With --enable the database section of the config file is updated so later
commands search the store.

Examples:
  nodekit import ./models
  nodekit import ~/src/robots/models --enable`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importEnable, "enable", false, "enable the store in the config file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	dir := config.ExpandHome(args[0])
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	path := cfg.Database.Path
	if path == "" {
		path = config.DefaultDatabasePath()
	}
	db, err := sqlite.NewDB(config.ExpandHome(path))
	if err != nil {
		return fmt.Errorf("opening model store: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.ErrorErr(log.CatDB, "closing model store", err)
		}
	}()

	src := sources.NewFileSource(os.DirFS(dir), sources.WithLabel(dir), sources.WithSourceMetrics(metrics.DefaultRegistry()))
	res, err := db.ModelStore(sqlite.WithStoreMetrics(metrics.DefaultRegistry())).Import(cmd.Context(), src)
	if err != nil {
		return fmt.Errorf("importing %s: %w", dir, err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d project(s) and %d typekit(s) into %s\n", res.Projects, res.Typekits, db.Path())

	if importEnable && !cfg.Database.Enabled {
		if err := config.SaveDatabase(cfgPath, config.DatabaseConfig{Enabled: true, Path: path}); err != nil {
			return fmt.Errorf("enabling model store: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "enabled the model store in %s\n", cfgPath)
	}
	return nil
}
