package loaders

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/nodekit/internal/modelfile"
	"github.com/zjrosen/nodekit/internal/sources"
)

const (
	baseRegistry = `
types:
  - {category: numeric, name: /double, size: 8, numeric: float}
  - {category: numeric, name: /int32_t, size: 4}
  - {category: opaque, name: /internal_handle, size: 8}
`
	baseTypelist = `
name: base
typelist: [/double, /int32_t, /internal_handle]
interface_typelist: [/double, /int32_t]
`
	extraRegistry = `
types:
  - {category: numeric, name: /double, size: 8, numeric: float}
  - {category: compound, name: /Sample, fields: [{name: v, type: /double}]}
`
	extraTypelist = `
name: extra
typelist: [/Sample]
interface_typelist: [/Sample]
`
	libProject = `
name: lib
using: {typekits: [base]}
nodes:
  - name: lib::Base
    input_ports:
      - {name: cmd, type: /double}
`
	appProject = `
name: app
using: {projects: [lib]}
nodes:
  - name: app::Task
    superclass: lib::Base
    output_ports:
      - {name: out, type: /int32_t}
deployments:
  - name: app_deployment
    nodes:
      - {name: task, model: app::Task}
`
	otherProject = `
name: other
using: {projects: [lib]}
deployments:
  - name: other_deployment
    nodes:
      - {name: task, model: lib::Base}
`
	handleProject = `
name: handles
using: {typekits: [base]}
nodes:
  - name: handles::Task
    input_ports:
      - {name: h, type: /internal_handle}
`
)

func modelFS() fstest.MapFS {
	return fstest.MapFS{
		"typekits/base.registry.yml":  {Data: []byte(baseRegistry)},
		"typekits/base.typelist.yml":  {Data: []byte(baseTypelist)},
		"typekits/extra.registry.yml": {Data: []byte(extraRegistry)},
		"typekits/extra.typelist.yml": {Data: []byte(extraTypelist)},
		"projects/lib.yml":            {Data: []byte(libProject)},
		"projects/app.yml":            {Data: []byte(appProject)},
		"projects/other.yml":          {Data: []byte(otherProject)},
		"projects/handles.yml":        {Data: []byte(handleProject)},
	}
}

// countingSource counts text reads per model name.
type countingSource struct {
	*sources.FileSource
	projectReads map[string]int
	typekitReads map[string]int
}

func newCountingSource(fsys fstest.MapFS) *countingSource {
	return &countingSource{
		FileSource:   sources.NewFileSource(fsys),
		projectReads: make(map[string]int),
		typekitReads: make(map[string]int),
	}
}

func (s *countingSource) ProjectText(name string) (modelfile.ProjectText, error) {
	s.projectReads[name]++
	return s.FileSource.ProjectText(name)
}

func (s *countingSource) TypekitText(name string) (modelfile.TypekitText, error) {
	s.typekitReads[name]++
	return s.FileSource.TypekitText(name)
}

func newFile(content string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(content)}
}

func newTestBase(t *testing.T, opts ...Option) (*Base, *countingSource) {
	t.Helper()
	src := newCountingSource(modelFS())
	b, err := NewBase(append([]Option{WithName("test"), WithSource(src)}, opts...)...)
	require.NoError(t, err)
	return b, src
}

func projectNames[T interface{ Name() string }](models []T) []string {
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.Name()
	}
	return names
}
