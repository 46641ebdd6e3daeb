// Package loaders resolves projects, typekits, node models and deployments by
// name, evaluating model text on demand and caching everything it registers.
//
// A Base loader owns one text source. An Aggregate combines several loaders
// behind a single name space: children bind the models they load to the
// aggregate, forward every registration to it, and the aggregate answers
// queries from its own cache first and from its children in order after that.
package loaders

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/nodekit/internal/domain/component"
	"github.com/zjrosen/nodekit/internal/domain/types"
	"github.com/zjrosen/nodekit/internal/metrics"
	"github.com/zjrosen/nodekit/internal/modelfile"
	"github.com/zjrosen/nodekit/internal/pubsub"
	"github.com/zjrosen/nodekit/internal/tracing"
)

// VoidTypeName is the null type every loader registry starts with.
const VoidTypeName = "/nodekit/void"

// Loader is the query surface shared by Base and Aggregate.
type Loader interface {
	component.Loader

	Name() string
	ProjectModelFromName(name string) (*component.Project, error)
	DeploymentModelFromName(name string) (*component.Deployment, error)
	DeployedNodeModelFromName(name string) (*component.DeployedNode, error)
	ImportedTypekitsFor(typeName string, definitionTypekits bool) ([]*component.Typekit, error)
	Clear()
}

// Root is a loader that other loaders can attach to.
type Root interface {
	Loader
	AddedChild(child Loader) error
}

// TextSource fetches model text by name. Missing models are reported with
// errors wrapping component.ErrProjectNotFound or component.ErrTypekitNotFound.
type TextSource interface {
	ProjectText(name string) (modelfile.ProjectText, error)
	TypekitText(name string) (modelfile.TypekitText, error)
}

// ProjectIndex is implemented by sources that can tell which project defines
// a node model or a deployment without loading it.
type ProjectIndex interface {
	ProjectNameForNodeModel(name string) (string, bool)
	ProjectNameForDeployment(name string) (string, bool)
}

// Lister is implemented by sources that can enumerate what they hold.
type Lister interface {
	ProjectNames() ([]string, error)
	TypekitNames() ([]string, error)
}

// ProjectParser evaluates project text into an empty project.
type ProjectParser interface {
	ParseProject(project *component.Project, text modelfile.ProjectText) error
}

// TypekitParser evaluates typekit text into a typekit bound to loader.
type TypekitParser interface {
	ParseTypekit(loader component.Loader, text modelfile.TypekitText) (*component.Typekit, error)
}

// ModelEvent is published when a loader registers a project or typekit.
type ModelEvent struct {
	Kind   string
	Name   string
	Loader string
}

// Option configures a Base or an Aggregate.
type Option func(*Base)

// WithName names the loader in logs, metrics and spans.
func WithName(name string) Option {
	return func(b *Base) { b.name = name }
}

// WithSource sets the text source models are read from.
func WithSource(src TextSource) Option {
	return func(b *Base) { b.source = src }
}

// WithRoot attaches the loader to root. Models are bound to root and every
// registration is forwarded to it.
func WithRoot(root Root) Option {
	return func(b *Base) { b.root = root }
}

// WithProjectParser replaces the default project text parser.
func WithProjectParser(p ProjectParser) Option {
	return func(b *Base) { b.projectParser = p }
}

// WithTypekitParser replaces the default typekit text parser.
func WithTypekitParser(p TypekitParser) Option {
	return func(b *Base) { b.typekitParser = p }
}

// WithMetrics records lookups and registrations on m.
func WithMetrics(m *metrics.Registry) Option {
	return func(b *Base) { b.metrics = m }
}

// WithTracer wraps model loads in spans.
func WithTracer(t trace.Tracer) Option {
	return func(b *Base) { b.tracer = t }
}

// WithEvents publishes ModelEvents on broker.
func WithEvents(broker *pubsub.Broker[ModelEvent]) Option {
	return func(b *Base) { b.events = broker }
}

func newBase(opts []Option) *Base {
	parser := modelfile.NewParser()
	b := &Base{
		name:          "loader",
		projectParser: parser,
		typekitParser: parser,
		tracer:        tracing.NoopTracer(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.reset()
	return b
}

func newVoidRegistry() *types.Registry {
	r := types.NewRegistry()
	if _, err := r.CreateNull(VoidTypeName); err != nil {
		panic(err)
	}
	return r
}
