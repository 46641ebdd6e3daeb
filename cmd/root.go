package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/nodekit/internal/config"
	"github.com/zjrosen/nodekit/internal/domain/component"
	"github.com/zjrosen/nodekit/internal/log"
	"github.com/zjrosen/nodekit/internal/metrics"
	"github.com/zjrosen/nodekit/internal/tracing"
	"github.com/zjrosen/nodekit/internal/workspace"
)

// localConfigPath is checked before the user config directory.
const localConfigPath = ".nodekit/config.yaml"

var (
	version    = "dev"
	cfgFile    string
	debugFlag  bool
	cfg        config.Config
	cfgPath    string // config file in use, written back by import --enable and paths add
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "nodekit",
	Short: "Inspect and check component interface models",
	Long: `nodekit loads projects and typekits from model directories, a SQLite model
store or an S3 bucket, resolves node model inheritance across them and prints
what it finds.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .nodekit/config.yaml, then ~/.config/nodekit/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write a debug log (path from log.path, default ./debug.log)")
}

func setup(_ *cobra.Command, _ []string) error {
	loaded, used, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	cfg, cfgPath = loaded, used
	if cfgPath == "" {
		cfgPath = localConfigPath
	}

	if err := initLogging(); err != nil {
		return err
	}
	log.Info(log.CatConfig, "configuration loaded", "path", cfgPath, "model_paths", strings.Join(cfg.ModelPaths, ","))
	return config.Validate(cfg)
}

// envKeys are the settings that can be overridden with NODEKIT_* variables.
var envKeys = []string{
	"model_paths",
	"database.enabled",
	"database.path",
	"cache.enabled",
	"cache.ttl",
	"log.path",
	"log.level",
	"metrics.enabled",
	"metrics.addr",
	"watch.debounce",
	"deployment.default_latency",
}

// loadConfig reads the config file at path, or the first of
// .nodekit/config.yaml and ~/.config/nodekit/config.yaml that exists.
// A missing default file is not an error. Returns the file actually used.
func loadConfig(path string) (config.Config, string, error) {
	v := viper.New()
	v.SetEnvPrefix("NODEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	switch {
	case path != "":
		v.SetConfigFile(path)
	case fileExists(localConfigPath):
		v.SetConfigFile(localConfigPath)
	default:
		v.AddConfigPath(config.DefaultConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config.Config{}, "", fmt.Errorf("reading config: %w", err)
		}
	}

	loaded := config.Defaults()
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&loaded, hook); err != nil {
		return config.Config{}, "", fmt.Errorf("decoding config %s: %w", v.ConfigFileUsed(), err)
	}
	return loaded, v.ConfigFileUsed(), nil
}

func initLogging() error {
	if !debugFlag && os.Getenv("NODEKIT_DEBUG") == "" && cfg.Log.Path == "" {
		return nil
	}
	path := config.ExpandHome(cfg.Log.Path)
	if path == "" {
		path = "debug.log"
	}
	cleanup, err := log.Init(path)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	logCleanup = cleanup
	log.SetMinLevel(log.ParseLevel(cfg.Log.Level))
	return nil
}

// openWorkspace builds the loader tree for the loaded configuration with the
// process metrics registry and the configured tracer. The returned function
// releases both.
func openWorkspace(ctx context.Context, opts ...workspace.Option) (*workspace.Workspace, func(), error) {
	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, nil, fmt.Errorf("creating tracer: %w", err)
	}
	opts = append([]workspace.Option{
		workspace.WithMetrics(metrics.DefaultRegistry()),
		workspace.WithTracer(provider.Tracer()),
	}, opts...)

	ws, err := workspace.Open(ctx, cfg, opts...)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, nil, err
	}
	return ws, func() {
		if err := ws.Close(); err != nil {
			log.ErrorErr(log.CatCLI, "closing workspace", err)
		}
		if err := provider.Shutdown(context.Background()); err != nil {
			log.ErrorErr(log.CatCLI, "shutting down tracer", err)
		}
	}, nil
}

// nodeModel loads one node model through the workspace.
func nodeModel(ws *workspace.Workspace, name string) (*component.NodeModel, error) {
	return ws.Root().NodeModelFromName(name)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// globalConfigPath is where init --global writes.
func globalConfigPath() string {
	return filepath.Join(config.DefaultConfigDir(), "config.yaml")
}

// Execute runs the root command
func Execute() error {
	defer func() {
		if logCleanup != nil {
			logCleanup()
		}
	}()
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
