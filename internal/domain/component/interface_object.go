package component

import "github.com/zjrosen/nodekit/internal/domain/types"

// object holds what every interface object has in common.
type object struct {
	node *NodeModel
	name string
	doc  string
}

// Name returns the object name.
func (o *object) Name() string { return o.name }

// Node returns the node model owning the object.
func (o *object) Node() *NodeModel { return o.node }

// Doc returns the documentation string.
func (o *object) Doc() string { return o.doc }

// SetDoc sets the documentation string.
func (o *object) SetDoc(doc string) { o.doc = doc }

// ConfigurationObject is an attribute or a property of a node model.
type ConfigurationObject struct {
	object
	kind         Kind
	typ          *types.Type
	defaultValue any
	dynamic      bool
}

var _ InterfaceObject = (*ConfigurationObject)(nil)

// Kind returns KindAttribute or KindProperty.
func (c *ConfigurationObject) Kind() Kind { return c.kind }

// Type returns the value type.
func (c *ConfigurationObject) Type() *types.Type { return c.typ }

// DefaultValue returns the declared default, nil when there is none.
func (c *ConfigurationObject) DefaultValue() any { return c.defaultValue }

// SetDefaultValue sets the default value.
func (c *ConfigurationObject) SetDefaultValue(v any) { c.defaultValue = v }

// Dynamic reports whether the value may be changed while the node runs.
func (c *ConfigurationObject) Dynamic() bool { return c.dynamic }

// SetDynamic marks the value as changeable at runtime.
func (c *ConfigurationObject) SetDynamic(dynamic bool) { c.dynamic = dynamic }

func (c *ConfigurationObject) rebind(node *NodeModel, name string) InterfaceObject {
	dup := *c
	dup.node, dup.name = node, name
	return &dup
}
