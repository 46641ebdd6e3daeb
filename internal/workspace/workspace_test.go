package workspace_test

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/nodekit/internal/config"
	"github.com/zjrosen/nodekit/internal/domain/component"
	"github.com/zjrosen/nodekit/internal/infrastructure/objectstore"
	"github.com/zjrosen/nodekit/internal/loaders"
	"github.com/zjrosen/nodekit/internal/metrics"
	"github.com/zjrosen/nodekit/internal/sources"
	"github.com/zjrosen/nodekit/internal/watcher"
	"github.com/zjrosen/nodekit/internal/workspace"
)

const (
	registry = "types:\n  - {category: numeric, name: /double, size: 8, numeric: float}\n"
	typelist = "name: base\ntypelist: [/double]\ninterface_typelist: [/double]\n"
	libYAML  = `
name: lib
using: {typekits: [base]}
nodes:
  - name: lib::Base
    input_ports:
      - {name: cmd, type: /double}
`
	appYAML = `
name: app
using: {projects: [lib]}
nodes:
  - name: app::Task
    superclass: lib::Base
deployments:
  - name: app_deployment
    nodes:
      - {name: task, model: app::Task}
  - name: app_fast
    default_latency: 1ms
    nodes:
      - {name: fast, model: app::Task}
`
	brokenYAML = `
name: broken
nodes:
  - name: broken::Task
    superclass: nowhere::Base
`
)

func libFS() fstest.MapFS {
	return fstest.MapFS{
		"typekits/base.registry.yml": {Data: []byte(registry)},
		"typekits/base.typelist.yml": {Data: []byte(typelist)},
		"projects/lib.yml":           {Data: []byte(libYAML)},
	}
}

func appFS() fstest.MapFS {
	return fstest.MapFS{
		"projects/app.yml": {Data: []byte(appYAML)},
	}
}

// dirs maps the configured model paths to in-memory trees.
func dirs(trees map[string]fstest.MapFS) workspace.Option {
	return workspace.WithDirFS(func(dir string) fs.FS {
		if fsys, ok := trees[dir]; ok {
			return fsys
		}
		return fstest.MapFS{}
	})
}

func testConfig(paths ...string) config.Config {
	cfg := config.Defaults()
	cfg.ModelPaths = paths
	cfg.Deployment.DefaultLatency = 42 * time.Millisecond
	return cfg
}

func TestOpen_ResolvesAcrossModelPaths(t *testing.T) {
	m := metrics.NewRegistry()
	w, err := workspace.Open(context.Background(), testConfig("lib", "app"),
		dirs(map[string]fstest.MapFS{"lib": libFS(), "app": appFS()}), workspace.WithMetrics(m))
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()

	require.Equal(t, []string{"lib", "app"}, w.Dirs())
	require.Nil(t, w.Store())

	err = w.Do(func(root *loaders.Aggregate) error {
		require.Len(t, root.Loaders(), 2)

		task, err := root.NodeModelFromName("app::Task")
		require.NoError(t, err)
		require.Equal(t, "lib::Base", task.Supermodel().Name())
		require.NotNil(t, task.FindInputPort("cmd"))
		require.Same(t, root, task.Loader(), "models bind to the aggregate")
		return nil
	})
	require.NoError(t, err)
}

func TestOpen_DeploymentLatencyIsExplicit(t *testing.T) {
	w, err := workspace.Open(context.Background(), testConfig("lib", "app"),
		dirs(map[string]fstest.MapFS{"lib": libFS(), "app": appFS()}))
	require.NoError(t, err)

	d, err := w.Root().DeploymentModelFromName("app_deployment")
	require.NoError(t, err)
	require.Equal(t, 42*time.Millisecond, d.DefaultLatency())

	fast, err := w.Root().DeploymentModelFromName("app_fast")
	require.NoError(t, err)
	require.Equal(t, time.Millisecond, fast.DefaultLatency(), "a deployment's own value wins")

	other, err := workspace.Open(context.Background(), func() config.Config {
		cfg := testConfig("lib", "app")
		cfg.Deployment.DefaultLatency = time.Second
		return cfg
	}(), dirs(map[string]fstest.MapFS{"lib": libFS(), "app": appFS()}))
	require.NoError(t, err)
	d2, err := other.Root().DeploymentModelFromName("app_deployment")
	require.NoError(t, err)
	require.Equal(t, time.Second, d2.DefaultLatency(), "workspaces do not share latency")
	require.Equal(t, 42*time.Millisecond, d.DefaultLatency())
}

func TestOpen_DatabaseServesImportedModels(t *testing.T) {
	cfg := testConfig("lib")
	cfg.Database = config.DatabaseConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "models.db")}

	w, err := workspace.Open(context.Background(), cfg, dirs(map[string]fstest.MapFS{"lib": libFS()}))
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()
	require.NotNil(t, w.Store())

	res, err := w.Store().Import(context.Background(), sources.NewFileSource(appFS()))
	require.NoError(t, err)
	require.Equal(t, 1, res.Projects)

	w.Reload(watcher.Change{})
	task, err := w.Root().NodeModelFromName("app::Task")
	require.NoError(t, err)
	require.Equal(t, "lib::Base", task.Supermodel().Name())
	require.Len(t, w.Root().Loaders(), 2)
}

func TestOpen_ObjectStore(t *testing.T) {
	cfg := testConfig()
	cfg.ObjectStore = &objectstore.Config{Bucket: "models", Prefix: "robots"}

	bucket := &memoryBucket{objects: map[string]string{
		"robots/typekits/base.registry.yml": registry,
		"robots/typekits/base.typelist.yml": typelist,
		"robots/projects/lib.yml":           libYAML,
	}}
	w, err := workspace.Open(context.Background(), cfg, workspace.WithObjectStoreAPI(bucket))
	require.NoError(t, err)

	m, err := w.Root().NodeModelFromName("lib::Base")
	require.NoError(t, err)
	require.Equal(t, "lib", m.Project().Name())

	names, err := w.Root().AvailableProjectNames()
	require.NoError(t, err)
	require.Equal(t, []string{"lib"}, names)
}

func TestReload_PicksUpChangedText(t *testing.T) {
	dir := t.TempDir()
	for path, file := range libFS() {
		full := filepath.Join(dir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, file.Data, 0o644))
	}

	w, err := workspace.Open(context.Background(), testConfig(dir))
	require.NoError(t, err)

	var loads []string
	w.Root().OnProjectLoad(func(p *component.Project) { loads = append(loads, p.Name()) })

	base, err := w.Root().NodeModelFromName("lib::Base")
	require.NoError(t, err)
	require.Nil(t, base.FindOutputPort("out"))

	changed := libYAML + "    output_ports:\n      - {name: out, type: /double}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "projects", "lib.yml"), []byte(changed), 0o644))

	// Cached until told otherwise.
	again, err := w.Root().NodeModelFromName("lib::Base")
	require.NoError(t, err)
	require.Same(t, base, again)

	w.Reload(watcher.Change{Projects: []string{"lib"}})
	reloaded, err := w.Root().NodeModelFromName("lib::Base")
	require.NoError(t, err)
	require.NotSame(t, base, reloaded)
	require.NotNil(t, reloaded.FindOutputPort("out"))
	require.Equal(t, []string{"lib", "lib"}, loads, "callbacks survive a reload")
}

func TestLoadAll(t *testing.T) {
	app := appFS()
	app["projects/broken.yml"] = &fstest.MapFile{Data: []byte(brokenYAML)}

	w, err := workspace.Open(context.Background(), testConfig("lib", "app"),
		dirs(map[string]fstest.MapFS{"lib": libFS(), "app": app}))
	require.NoError(t, err)

	report, err := w.LoadAll()
	require.NoError(t, err)
	require.False(t, report.OK())
	require.Equal(t, []string{"base"}, report.Typekits)
	require.ElementsMatch(t, []string{"app", "lib"}, report.Projects)
	require.Len(t, report.Failures, 1)
	require.Equal(t, "broken", report.Failures[0].Name)
	require.ErrorIs(t, report.Failures[0].Err, component.ErrNotFound)

	report, err = w.LoadAll("lib", "missing")
	require.NoError(t, err)
	require.Equal(t, []string{"lib"}, report.Projects)
	require.Len(t, report.Failures, 1)
	require.ErrorIs(t, report.Failures[0].Err, component.ErrProjectNotFound)
}

// memoryBucket serves objects from memory in a single listing page.
type memoryBucket struct {
	objects map[string]string
}

var _ objectstore.API = (*memoryBucket)(nil)

func (b *memoryBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := b.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte(body)))}, nil
}

func (b *memoryBucket) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var keys []string
	for k := range b.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	return out, nil
}
