package modelfile_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/nodekit/internal/loaders"
	"github.com/zjrosen/nodekit/internal/modelfile"
	"github.com/zjrosen/nodekit/internal/sources"
)

const baseRegistry = `
types:
  - category: compound
    name: /Pose
    fields:
      - {name: x, type: /double}
      - {name: y, type: /double}
  - category: numeric
    name: /double
    size: 8
    numeric: float
  - category: numeric
    name: /int32_t
    size: 4
    numeric: sint
  - category: array
    element: /double
    length: 3
  - category: opaque
    name: /internal_handle
    size: 8
  - category: enum
    name: /Mode
    values:
      - {symbol: IDLE, value: 0}
      - {symbol: RUNNING, value: 1}
aliases:
  /float64: /double
`

const baseTypelist = `
name: base
typelist: [/Pose, /double, /int32_t, "/double[3]", /internal_handle, /Mode]
interface_typelist: [/Pose, /double, /int32_t, "/double[3]", /Mode]
`

const demoYAML = `
name: demo
version: "1.0"
using:
  typekits: [base]
default_supermodel: demo::Base
nodes:
  - name: demo::Base
    doc: common ancestor
    abstract: true
    properties:
      - {name: gain, type: /double, default: "1.5"}
    input_ports:
      - name: cmd
        type: /double
        clean_on_node_start: false
  - name: demo::Task
    attributes:
      - {name: rate, type: /int32_t, dynamic: true}
    operations:
      - name: reset
        doc: resets the filter
        arguments:
          - {name: count, type: /int32_t}
        returns: {type: /double}
    input_ports:
      - {name: in, type: /Pose}
    output_ports:
      - name: out
        type: /Pose
        sample_size: 4
        burst: {size: 10, period: 2}
        triggered_on: [in]
      - name: status
        type: /Mode
        triggered_once_per_update: true
    dynamic_input_ports:
      - {name: extra, pattern: "^x_\\w+$", type: /double}
    dynamic_output_ports:
      - {name: anything}
  - name: demo::Other
    output_ports:
      - {name: sig, type: /double}
  - name: demo::Relay
    superclass: demo::Task
    merge_ports_from:
      - model: demo::Other
        mappings: {sig: signal}
deployments:
  - name: demo_deployment
    nodes:
      - {name: task, model: demo::Task}
  - name: demo_fast
    default_latency: 5ms
    nodes:
      - {name: relay, model: demo::Relay}
`

const demoHCL = `
name    = "hcldemo"
version = "2.0"

using {
  typekits = ["base"]
}

node "hcldemo::Task" {
  doc = "declared in hcl"

  property "gain" {
    type    = "/double"
    default = "2"
  }

  operation "reset" {
    argument "count" {
      type = "/int32_t"
    }
    returns {
      type = "/double"
    }
  }

  input_port "in" {
    type = "/Pose"
  }

  output_port "out" {
    type         = "/Pose"
    triggered_on = ["in"]
  }

  dynamic_output_port "dyn" {
    pattern = "^d_"
    type    = "/double"
  }
}

deployment "hcl_deployment" {
  default_latency = "20ms"

  task "task" {
    model = "hcldemo::Task"
  }
}
`

func modelFS() fstest.MapFS {
	return fstest.MapFS{
		"typekits/base.registry.yml": {Data: []byte(baseRegistry)},
		"typekits/base.typelist.yml": {Data: []byte(baseTypelist)},
		"projects/demo.yml":          {Data: []byte(demoYAML)},
		"projects/hcldemo.hcl":       {Data: []byte(demoHCL)},
	}
}

func newLoader(t *testing.T, fsys fstest.MapFS, opts ...modelfile.ParserOption) *loaders.Base {
	t.Helper()
	parser := modelfile.NewParser(opts...)
	l, err := loaders.NewBase(
		loaders.WithName("test"),
		loaders.WithSource(sources.NewFileSource(fsys)),
		loaders.WithProjectParser(parser),
		loaders.WithTypekitParser(parser),
	)
	require.NoError(t, err)
	return l
}
