package presentation_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/nodekit/internal/domain/component"
	"github.com/zjrosen/nodekit/internal/loaders"
	"github.com/zjrosen/nodekit/internal/sources"
)

const (
	registryYAML = `
types:
  - {category: numeric, name: /double, size: 8, numeric: float}
  - {category: numeric, name: /int32_t, size: 4, numeric: sint}
  - {category: compound, name: /Pose, fields: [{name: x, type: /double}, {name: y, type: /double}]}
`
	typelistYAML = `
name: base
typelist: [/double, /int32_t, /Pose]
interface_typelist: [/double, /int32_t, /Pose]
`
	robotsYAML = `
name: robots
version: "1.0"
using: {typekits: [base]}
nodes:
  - name: robots::Base
    doc: Common interface of every robot driver.
    properties:
      - {name: period, type: /double, default: "0.1", doc: Update period in seconds}
    input_ports:
      - {name: cmd, type: /double}
  - name: robots::Driver
    superclass: robots::Base
    abstract: true
    attributes:
      - {name: device, type: /int32_t, dynamic: true}
    operations:
      - name: reset
        doc: Resets the odometry.
        arguments:
          - {name: to, type: /Pose, doc: new origin}
        returns: {type: /int32_t, doc: status code}
    output_ports:
      - {name: pose, type: /Pose, period: 2, triggered_on: [cmd]}
    dynamic_output_ports:
      - {name: w_, pattern: "^w_\\d+$", type: /double}
      - {name: any}
  - name: robots::Other
    superclass: robots::Base
    output_ports:
      - {name: pose, type: /double}
      - {name: "status<x>", type: /int32_t}
deployments:
  - name: robots_deployment
    default_latency: 5ms
    nodes:
      - {name: driver, model: robots::Driver}
`
)

func modelFS() fstest.MapFS {
	return fstest.MapFS{
		"typekits/base.registry.yml": {Data: []byte(registryYAML)},
		"typekits/base.typelist.yml": {Data: []byte(typelistYAML)},
		"projects/robots.yml":        {Data: []byte(robotsYAML)},
	}
}

func newLoader(t *testing.T) *loaders.Base {
	t.Helper()
	b, err := loaders.NewBase(loaders.WithName("test"), loaders.WithSource(sources.NewFileSource(modelFS())))
	require.NoError(t, err)
	return b
}

func nodeModel(t *testing.T, name string) *component.NodeModel {
	t.Helper()
	m, err := newLoader(t).NodeModelFromName(name)
	require.NoError(t, err)
	return m
}
