// Package config provides configuration types and defaults for nodekit.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/zjrosen/nodekit/internal/infrastructure/objectstore"
	"github.com/zjrosen/nodekit/internal/log"
	"github.com/zjrosen/nodekit/internal/tracing"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all configuration options for nodekit.
type Config struct {
	ModelPaths  []string            `mapstructure:"model_paths" yaml:"model_paths" validate:"dive,required"` // directories holding projects/ and typekits/
	Database    DatabaseConfig      `mapstructure:"database" yaml:"database"`
	ObjectStore *objectstore.Config `mapstructure:"object_store" yaml:"object_store,omitempty" validate:"omitempty"` // nil disables the bucket source
	Cache       CacheConfig         `mapstructure:"cache" yaml:"cache"`
	Log         LogConfig           `mapstructure:"log" yaml:"log"`
	Tracing     tracing.Config      `mapstructure:"tracing" yaml:"tracing"`
	Metrics     MetricsConfig       `mapstructure:"metrics" yaml:"metrics"`
	Watch       WatchConfig         `mapstructure:"watch" yaml:"watch"`
	Deployment  DeploymentConfig    `mapstructure:"deployment" yaml:"deployment"`
}

// DatabaseConfig configures the SQLite model store.
type DatabaseConfig struct {
	// Enabled adds the store to the loader tree after the model paths.
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path" validate:"required_if=Enabled true"`
}

// CacheConfig configures the read-through text cache in front of file sources.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl" validate:"gte=0"`
}

// LogConfig configures the debug log.
type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`                                                    // empty keeps logging off unless --debug is given
	Level string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"` // minimum level written
}

// MetricsConfig configures the Prometheus endpoint served by `nodekit watch`.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr" validate:"omitempty,hostname_port"`
}

// WatchConfig configures the model directory watcher.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce" validate:"gte=0"`
}

// DeploymentConfig holds values handed to every deployment the parser declares.
type DeploymentConfig struct {
	// DefaultLatency is the latency a deployment gets unless its file sets
	// default_latency itself.
	DefaultLatency time.Duration `mapstructure:"default_latency" yaml:"default_latency" validate:"gte=0"`
}

// DefaultConfigDir returns ~/.config/nodekit, or an empty string if the home
// directory is unavailable.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "nodekit")
}

// DefaultDatabasePath returns the default location of the SQLite model store.
func DefaultDatabasePath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "models.db")
}

// DefaultTracesFilePath returns the default path for trace file export.
func DefaultTracesFilePath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	tr := tracing.DefaultConfig()
	tr.FilePath = DefaultTracesFilePath()
	return Config{
		ModelPaths: []string{"."},
		Database: DatabaseConfig{
			Enabled: false,
			Path:    DefaultDatabasePath(),
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Minute,
		},
		Log: LogConfig{
			Level: "debug",
		},
		Tracing: tr,
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9464",
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
		Deployment: DeploymentConfig{
			DefaultLatency: 100 * time.Millisecond,
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks cfg and reports the first offending key by its config path,
// e.g. "deployment.default_latency".
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		fe := verrs[0]
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		return fmt.Errorf("%w: %s fails %q (got %v)", ErrInvalidConfig, key, constraint(fe), fe.Value())
	}

	// Cross-field rules the tags cannot express.
	if cfg.Tracing.Enabled {
		if cfg.Tracing.Exporter == "file" && cfg.Tracing.FilePath == "" {
			return fmt.Errorf("%w: tracing.file_path is required when exporter is \"file\"", ErrInvalidConfig)
		}
		if cfg.Tracing.Exporter == "otlp" && cfg.Tracing.OTLPEndpoint == "" {
			return fmt.Errorf("%w: tracing.otlp_endpoint is required when exporter is \"otlp\"", ErrInvalidConfig)
		}
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return fmt.Errorf("%w: metrics.addr is required when metrics are enabled", ErrInvalidConfig)
	}
	if !cfg.Database.Enabled && len(cfg.ModelPaths) == 0 && cfg.ObjectStore == nil {
		return fmt.Errorf("%w: no model source configured (model_paths, database or object_store)", ErrInvalidConfig)
	}
	return nil
}

func constraint(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# nodekit configuration

# Directories searched for models, in order. Each holds a projects/ directory
# (<name>.yml, <name>.yaml or <name>.hcl) and a typekits/ directory
# (<name>.registry.yml and <name>.typelist.yml). The first directory that
# knows a model wins.
model_paths:
  - .

# SQLite model store filled by ` + "`nodekit import`" + `. Searched after model_paths
# when enabled.
database:
  enabled: false
  # path: ~/.config/nodekit/models.db

# S3 (or S3 compatible) bucket with the same layout as a model path.
# object_store:
#   bucket: my-models
#   prefix: robots/          # key prefix inside the bucket
#   region: eu-west-1
#   endpoint: http://localhost:9000  # for MinIO and friends

# Read-through cache in front of the model sources
cache:
  enabled: true
  ttl: 5m

# Debug log (also enabled with --debug or NODEKIT_DEBUG=1)
log:
  # path: ./debug.log
  level: debug    # debug, info, warn or error

# Tracing of model loads
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # none, file, stdout, otlp (default: file)
#   file_path: ~/.config/nodekit/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)

# Prometheus endpoint served by ` + "`nodekit watch`" + `
metrics:
  enabled: false
  addr: ":9464"

watch:
  debounce: 200ms

# Values applied to every deployment. A deployment may override the latency
# with its own default_latency.
deployment:
  default_latency: 100ms
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
