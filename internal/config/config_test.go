package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/nodekit/internal/infrastructure/objectstore"
)

func TestDefaults_AreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, Validate(cfg))
	require.Equal(t, []string{"."}, cfg.ModelPaths)
	require.Equal(t, 100*time.Millisecond, cfg.Deployment.DefaultLatency)
	require.True(t, cfg.Cache.Enabled)
	require.False(t, cfg.Tracing.Enabled)
	require.Equal(t, "file", cfg.Tracing.Exporter)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		key    string // substring of the error, empty for valid configs
	}{
		{
			name:   "negative latency",
			modify: func(c *Config) { c.Deployment.DefaultLatency = -time.Second },
			key:    "deployment.default_latency",
		},
		{
			name:   "negative cache ttl",
			modify: func(c *Config) { c.Cache.TTL = -time.Second },
			key:    "cache.ttl",
		},
		{
			name:   "empty model path",
			modify: func(c *Config) { c.ModelPaths = []string{"models", ""} },
			key:    "model_paths[1]",
		},
		{
			name:   "unknown log level",
			modify: func(c *Config) { c.Log.Level = "chatty" },
			key:    "log.level",
		},
		{
			name:   "sample rate above one",
			modify: func(c *Config) { c.Tracing.SampleRate = 1.5 },
			key:    "tracing.sample_rate",
		},
		{
			name:   "unknown exporter",
			modify: func(c *Config) { c.Tracing.Exporter = "zipkin" },
			key:    "tracing.exporter",
		},
		{
			name: "file exporter without path",
			modify: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.FilePath = ""
			},
			key: "tracing.file_path",
		},
		{
			name: "otlp exporter without endpoint",
			modify: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "otlp"
				c.Tracing.OTLPEndpoint = ""
			},
			key: "tracing.otlp_endpoint",
		},
		{
			name:   "bad metrics address",
			modify: func(c *Config) { c.Metrics.Addr = "not an address" },
			key:    "metrics.addr",
		},
		{
			name: "metrics enabled without address",
			modify: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Addr = ""
			},
			key: "metrics.addr",
		},
		{
			name: "database enabled without path",
			modify: func(c *Config) {
				c.Database.Enabled = true
				c.Database.Path = ""
			},
			key: "database.path",
		},
		{
			name:   "object store without bucket",
			modify: func(c *Config) { c.ObjectStore = &objectstore.Config{Region: "eu-west-1"} },
			key:    "object_store.bucket",
		},
		{
			name: "object store",
			modify: func(c *Config) {
				c.ObjectStore = &objectstore.Config{Bucket: "models", Endpoint: "http://localhost:9000"}
			},
		},
		{
			name:   "no sources",
			modify: func(c *Config) { c.ModelPaths = nil },
			key:    "no model source",
		},
		{
			name: "database only",
			modify: func(c *Config) {
				c.ModelPaths = nil
				c.Database.Enabled = true
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := Validate(cfg)
			if tt.key == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidConfig)
			require.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestDefaultConfigTemplate_LoadsThroughViper(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(DefaultConfigTemplate())))

	cfg := Defaults()
	require.NoError(t, v.Unmarshal(&cfg))
	require.NoError(t, Validate(cfg))

	require.Equal(t, []string{"."}, cfg.ModelPaths)
	require.Nil(t, cfg.ObjectStore)
	require.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	require.Equal(t, 200*time.Millisecond, cfg.Watch.Debounce)
	require.Equal(t, 100*time.Millisecond, cfg.Deployment.DefaultLatency)
	require.Equal(t, ":9464", cfg.Metrics.Addr)
}

func TestViper_ObjectStoreSection(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(`
object_store:
  bucket: models
  prefix: robots/
  endpoint: http://localhost:9000
deployment:
  default_latency: 20ms
`)))

	cfg := Defaults()
	require.NoError(t, v.Unmarshal(&cfg))
	require.NotNil(t, cfg.ObjectStore)
	require.Equal(t, "models", cfg.ObjectStore.Bucket)
	require.Equal(t, "robots/", cfg.ObjectStore.Prefix)
	require.Equal(t, 20*time.Millisecond, cfg.Deployment.DefaultLatency)
	require.NoError(t, Validate(cfg))
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "models"), ExpandHome("~/models"))
	require.Equal(t, home, ExpandHome("~"))
	require.Equal(t, "models/~", ExpandHome("models/~"))
	require.Equal(t, "/abs", ExpandHome("/abs"))
}
