package component

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/zjrosen/nodekit/internal/domain/types"
)

// RootNodeModelName names the model every node model ultimately derives from.
const RootNodeModelName = "nodekit::Node"

// NodeModel is the interface schema of a component. Node models form a
// single-inheritance tree rooted at a model without supermodel.
type NodeModel struct {
	name       string
	supermodel *NodeModel
	project    *Project
	doc        string
	abstract   bool
	objects    [kindCount]objectSet
}

// NewRootNodeModel creates a model without supermodel.
func NewRootNodeModel(name string) *NodeModel {
	return &NodeModel{name: name}
}

// rootNodeModel is the default supermodel of projects.
var rootNodeModel = NewRootNodeModel(RootNodeModelName)

// RootNodeModel returns the shared root of all node models.
func RootNodeModel() *NodeModel { return rootNodeModel }

// NewSubmodel derives a fresh model with no local interface objects.
func (m *NodeModel) NewSubmodel(name string, project *Project) *NodeModel {
	return &NodeModel{name: name, supermodel: m, project: project}
}

// Name returns the model name.
func (m *NodeModel) Name() string { return m.name }

// Supermodel returns the parent model, nil for a root model.
func (m *NodeModel) Supermodel() *NodeModel { return m.supermodel }

// Project returns the owning project, nil for models built outside one.
func (m *NodeModel) Project() *Project { return m.project }

// Loader returns the loader of the owning project.
func (m *NodeModel) Loader() Loader {
	if m.project == nil {
		return nil
	}
	return m.project.Loader()
}

// Doc returns the model documentation.
func (m *NodeModel) Doc() string { return m.doc }

// SetDoc sets the model documentation.
func (m *NodeModel) SetDoc(doc string) { m.doc = doc }

// Abstract reports whether the model may not be deployed directly.
func (m *NodeModel) Abstract() bool { return m.abstract }

// SetAbstract marks the model abstract.
func (m *NodeModel) SetAbstract(v bool) { m.abstract = v }

// Fulfills reports whether m is other or derives from it.
func (m *NodeModel) Fulfills(other *NodeModel) bool {
	for cur := m; cur != nil; cur = cur.supermodel {
		if cur == other {
			return true
		}
	}
	return false
}

func (m *NodeModel) String() string {
	return fmt.Sprintf("#<NodeModel: %s>", m.name)
}

func (m *NodeModel) resolveInterfaceType(name string) (*types.Type, error) {
	loader := m.Loader()
	if loader == nil {
		return nil, fmt.Errorf("%w: %s has no loader to resolve %s", ErrInternal, m.name, name)
	}
	return loader.ResolveInterfaceType(name)
}

// CheckUniqueness fails when name is already used by any interface object of
// m or its ancestors.
func (m *NodeModel) CheckUniqueness(name string) error {
	for _, k := range Kinds() {
		if _, ok := m.lookup(k, name); ok {
			return fmt.Errorf("%w: %s is already used in the interface of %s, as a %s", ErrInvalidArgument, name, m.name, k)
		}
	}
	return nil
}

func (m *NodeModel) declareConfiguration(k Kind, name, typeName string) (*ConfigurationObject, error) {
	if err := m.CheckUniqueness(name); err != nil {
		return nil, err
	}
	typ, err := m.resolveInterfaceType(typeName)
	if err != nil {
		return nil, err
	}
	obj := &ConfigurationObject{object: object{node: m, name: name}, kind: k, typ: typ}
	m.objects[k].put(obj)
	return obj, nil
}

// Attribute declares an attribute, a value read when the node is configured.
func (m *NodeModel) Attribute(name, typeName string) (*ConfigurationObject, error) {
	return m.declareConfiguration(KindAttribute, name, typeName)
}

// Property declares a property.
func (m *NodeModel) Property(name, typeName string) (*ConfigurationObject, error) {
	return m.declareConfiguration(KindProperty, name, typeName)
}

// Operation declares an operation. Names must be identifiers.
func (m *NodeModel) Operation(name string) (*Operation, error) {
	if !operationNamePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: operation names must only contain alphanumeric characters and _ (got %q)", ErrInvalidArgument, name)
	}
	if err := m.CheckUniqueness(name); err != nil {
		return nil, err
	}
	op := &Operation{object: object{node: m, name: name}}
	m.objects[KindOperation].put(op)
	return op, nil
}

// InputPort declares an input port.
func (m *NodeModel) InputPort(name, typeName string) (*InputPort, error) {
	if err := m.CheckUniqueness(name); err != nil {
		return nil, err
	}
	typ, err := m.resolveInterfaceType(typeName)
	if err != nil {
		return nil, err
	}
	port := newInputPort(m, name, typ)
	m.objects[KindInputPort].put(port)
	return port, nil
}

// OutputPort declares an output port.
func (m *NodeModel) OutputPort(name, typeName string) (*OutputPort, error) {
	if err := m.CheckUniqueness(name); err != nil {
		return nil, err
	}
	typ, err := m.resolveInterfaceType(typeName)
	if err != nil {
		return nil, err
	}
	port := newOutputPort(m, name, typ)
	m.objects[KindOutputPort].put(port)
	return port, nil
}

// dynamicType resolves an optional dynamic port type. Empty means any type.
func (m *NodeModel) dynamicType(typeName string) (*types.Type, error) {
	if typeName == "" {
		return nil, nil
	}
	return m.resolveInterfaceType(typeName)
}

// DynamicInputPort declares a specification for input ports created at
// runtime. A nil pattern matches any name and an empty typeName any type.
func (m *NodeModel) DynamicInputPort(name string, pattern *regexp.Regexp, typeName string) (*DynamicInputPort, error) {
	if err := m.CheckUniqueness(name); err != nil {
		return nil, err
	}
	typ, err := m.dynamicType(typeName)
	if err != nil {
		return nil, err
	}
	port := &DynamicInputPort{InputPort: *newInputPort(m, name, typ), pattern: pattern}
	port.kind = KindDynamicInputPort
	m.objects[KindDynamicInputPort].put(port)
	return port, nil
}

// DynamicOutputPort declares a specification for output ports created at
// runtime. A nil pattern matches any name and an empty typeName any type.
func (m *NodeModel) DynamicOutputPort(name string, pattern *regexp.Regexp, typeName string) (*DynamicOutputPort, error) {
	if err := m.CheckUniqueness(name); err != nil {
		return nil, err
	}
	typ, err := m.dynamicType(typeName)
	if err != nil {
		return nil, err
	}
	port := &DynamicOutputPort{OutputPort: *newOutputPort(m, name, typ), pattern: pattern}
	port.kind = KindDynamicOutputPort
	m.objects[KindDynamicOutputPort].put(port)
	return port, nil
}

// FindAttribute returns the named attribute, promoting it when inherited.
func (m *NodeModel) FindAttribute(name string) *ConfigurationObject {
	return findAs[*ConfigurationObject](m, KindAttribute, name)
}

// FindProperty returns the named property, promoting it when inherited.
func (m *NodeModel) FindProperty(name string) *ConfigurationObject {
	return findAs[*ConfigurationObject](m, KindProperty, name)
}

// FindOperation returns the named operation, promoting it when inherited.
func (m *NodeModel) FindOperation(name string) *Operation {
	return findAs[*Operation](m, KindOperation, name)
}

// FindInputPort returns the named input port, promoting it when inherited.
func (m *NodeModel) FindInputPort(name string) *InputPort {
	return findAs[*InputPort](m, KindInputPort, name)
}

// FindOutputPort returns the named output port, promoting it when inherited.
func (m *NodeModel) FindOutputPort(name string) *OutputPort {
	return findAs[*OutputPort](m, KindOutputPort, name)
}

// FindDynamicInputPort returns the named dynamic input port specification.
func (m *NodeModel) FindDynamicInputPort(name string) *DynamicInputPort {
	return findAs[*DynamicInputPort](m, KindDynamicInputPort, name)
}

// FindDynamicOutputPort returns the named dynamic output port specification.
func (m *NodeModel) FindDynamicOutputPort(name string) *DynamicOutputPort {
	return findAs[*DynamicOutputPort](m, KindDynamicOutputPort, name)
}

// Find returns the interface object of kind k named name.
func (m *NodeModel) Find(k Kind, name string) InterfaceObject {
	return m.find(k, name)
}

// Each returns the interface objects of kind k, inherited ones first.
func (m *NodeModel) Each(k Kind) []InterfaceObject {
	return m.each(k)
}

// Self returns the interface objects of kind k stored on m itself.
func (m *NodeModel) Self(k Kind) []InterfaceObject {
	return m.objects[k].values()
}

// Attributes returns all attributes, inherited ones first.
func (m *NodeModel) Attributes() []*ConfigurationObject {
	return castAll[*ConfigurationObject](m.each(KindAttribute))
}

// Properties returns all properties, inherited ones first.
func (m *NodeModel) Properties() []*ConfigurationObject {
	return castAll[*ConfigurationObject](m.each(KindProperty))
}

// Operations returns all operations, inherited ones first.
func (m *NodeModel) Operations() []*Operation {
	return castAll[*Operation](m.each(KindOperation))
}

// InputPorts returns all input ports, inherited ones first.
func (m *NodeModel) InputPorts() []*InputPort {
	return castAll[*InputPort](m.each(KindInputPort))
}

// OutputPorts returns all output ports, inherited ones first.
func (m *NodeModel) OutputPorts() []*OutputPort {
	return castAll[*OutputPort](m.each(KindOutputPort))
}

// DynamicInputPorts returns all dynamic input port specifications.
func (m *NodeModel) DynamicInputPorts() []*DynamicInputPort {
	return castAll[*DynamicInputPort](m.each(KindDynamicInputPort))
}

// DynamicOutputPorts returns all dynamic output port specifications.
func (m *NodeModel) DynamicOutputPorts() []*DynamicOutputPort {
	return castAll[*DynamicOutputPort](m.each(KindDynamicOutputPort))
}

// Ports returns the input ports followed by the output ports.
func (m *NodeModel) Ports() []PortObject {
	ports := castAll[PortObject](m.each(KindInputPort))
	return append(ports, castAll[PortObject](m.each(KindOutputPort))...)
}

// DynamicPorts returns the dynamic input specifications followed by the output ones.
func (m *NodeModel) DynamicPorts() []PortObject {
	ports := castAll[PortObject](m.each(KindDynamicInputPort))
	return append(ports, castAll[PortObject](m.each(KindDynamicOutputPort))...)
}

// FindPort returns the named output or input port.
func (m *NodeModel) FindPort(name string) PortObject {
	if p := m.FindOutputPort(name); p != nil {
		return p
	}
	if p := m.FindInputPort(name); p != nil {
		return p
	}
	return nil
}

// HasPort reports whether a static port is named name.
func (m *NodeModel) HasPort(name string) bool {
	_, in := m.lookup(KindInputPort, name)
	_, out := m.lookup(KindOutputPort, name)
	return in || out
}

// FindDynamicPort returns the named dynamic input or output specification.
func (m *NodeModel) FindDynamicPort(name string) PortObject {
	if p := m.FindDynamicInputPort(name); p != nil {
		return p
	}
	if p := m.FindDynamicOutputPort(name); p != nil {
		return p
	}
	return nil
}

// HasDynamicPort reports whether a dynamic specification is named name.
func (m *NodeModel) HasDynamicPort(name string) bool {
	_, in := m.lookup(KindDynamicInputPort, name)
	_, out := m.lookup(KindDynamicOutputPort, name)
	return in || out
}

// PortFilter selects ports. Zero fields match everything.
type PortFilter struct {
	Name    string
	Pattern *regexp.Regexp
	Type    string
}

func (m *NodeModel) filterType(typeName string) (*types.Type, error) {
	if typeName == "" {
		return nil, nil
	}
	return m.resolveInterfaceType(typeName)
}

func matchingPorts[T PortObject](m *NodeModel, k Kind, f PortFilter) ([]T, error) {
	typ, err := m.filterType(f.Type)
	if err != nil {
		return nil, err
	}
	var candidates []InterfaceObject
	if f.Name != "" {
		if obj := m.find(k, f.Name); obj != nil {
			candidates = append(candidates, obj)
		}
	} else {
		candidates = m.each(k)
	}

	var out []T
	for _, obj := range candidates {
		p := obj.(T)
		if f.Pattern != nil && !f.Pattern.MatchString(p.Name()) {
			continue
		}
		if typ != nil && !typ.Equal(p.Type()) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// FindMatchingInputPorts returns the input ports selected by f.
func (m *NodeModel) FindMatchingInputPorts(f PortFilter) ([]*InputPort, error) {
	return matchingPorts[*InputPort](m, KindInputPort, f)
}

// FindMatchingOutputPorts returns the output ports selected by f.
func (m *NodeModel) FindMatchingOutputPorts(f PortFilter) ([]*OutputPort, error) {
	return matchingPorts[*OutputPort](m, KindOutputPort, f)
}

type dynamicSpec interface {
	PortObject
	Matches(name string) bool
}

func matchingDynamicPorts[T dynamicSpec](m *NodeModel, k Kind, name, typeName string) ([]T, error) {
	typ, err := m.filterType(typeName)
	if err != nil {
		return nil, err
	}
	var out []T
	for _, obj := range m.each(k) {
		p := obj.(T)
		if name != "" && !p.Matches(name) {
			continue
		}
		if typ != nil && p.Type() != nil && !typ.Equal(p.Type()) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// FindMatchingDynamicInputPorts returns the dynamic input specifications that
// could create a port named name of type typeName. Empty arguments match anything.
func (m *NodeModel) FindMatchingDynamicInputPorts(name, typeName string) ([]*DynamicInputPort, error) {
	return matchingDynamicPorts[*DynamicInputPort](m, KindDynamicInputPort, name, typeName)
}

// FindMatchingDynamicOutputPorts is FindMatchingDynamicInputPorts for outputs.
func (m *NodeModel) FindMatchingDynamicOutputPorts(name, typeName string) ([]*DynamicOutputPort, error) {
	return matchingDynamicPorts[*DynamicOutputPort](m, KindDynamicOutputPort, name, typeName)
}

// HasMatchingDynamicPort reports whether any dynamic specification could
// create a port named name of type typeName.
func (m *NodeModel) HasMatchingDynamicPort(name, typeName string) (bool, error) {
	in, err := m.FindMatchingDynamicInputPorts(name, typeName)
	if err != nil {
		return false, err
	}
	out, err := m.FindMatchingDynamicOutputPorts(name, typeName)
	if err != nil {
		return false, err
	}
	return len(in)+len(out) > 0, nil
}

// MergePortsFrom copies the static and dynamic ports of other into m.
// mappings renames ports on the way in. A port that already exists on m must
// agree in direction, type and, for dynamic ports, pattern. Nothing is added
// when any port conflicts.
func (m *NodeModel) MergePortsFrom(other *NodeModel, mappings map[string]string) error {
	target := func(name string) string {
		if mapped, ok := mappings[name]; ok && mapped != "" {
			return mapped
		}
		return name
	}

	var add []InterfaceObject
	var errs []error
	// target name -> source port name
	seen := make(map[string]string)
	claim := func(from, name string) bool {
		if prev, ok := seen[name]; ok {
			errs = append(errs, fmt.Errorf("%w: cannot merge both %s and %s of %s into %s of %s",
				ErrInvalidArgument, prev, from, other.name, name, m.name))
			return false
		}
		seen[name] = from
		return true
	}
	for _, p := range other.Ports() {
		name := target(p.Name())
		if !claim(p.Name(), name) {
			continue
		}
		existing, found := m.existingPort(name, false)
		if !found {
			add = append(add, p.rebind(m, name))
			continue
		}
		errs = append(errs, checkMergeable(m, other, existing, p, name))
	}
	for _, p := range other.DynamicPorts() {
		name := target(p.Name())
		if !claim(p.Name(), name) {
			continue
		}
		existing, found := m.existingPort(name, true)
		if !found {
			add = append(add, p.rebind(m, name))
			continue
		}
		errs = append(errs, checkMergeable(m, other, existing, p, name))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	for _, obj := range add {
		m.objects[obj.Kind()].put(obj)
	}
	return nil
}

func (m *NodeModel) existingPort(name string, dynamic bool) (PortObject, bool) {
	kinds := []Kind{KindOutputPort, KindInputPort}
	if dynamic {
		kinds = []Kind{KindDynamicOutputPort, KindDynamicInputPort}
	}
	for _, k := range kinds {
		if obj, ok := m.lookup(k, name); ok {
			return obj.(PortObject), true
		}
	}
	return nil, false
}

func checkMergeable(m, other *NodeModel, existing, incoming PortObject, name string) error {
	if existing.Kind() != incoming.Kind() {
		return fmt.Errorf("%w: cannot merge as %s is a %s in %s and a %s in %s",
			ErrInvalidArgument, name, existing.Kind(), m.name, incoming.Kind(), other.name)
	}
	if !sameType(existing.Type(), incoming.Type()) {
		return fmt.Errorf("%w: cannot merge as %s is of type %s in %s and of type %s in %s",
			ErrInvalidArgument, name, existing.Type(), m.name, incoming.Type(), other.name)
	}
	if !samePattern(patternOf(existing), patternOf(incoming)) {
		return fmt.Errorf("%w: cannot merge as %s matches %s in %s and %s in %s",
			ErrInvalidArgument, name, patternOf(existing), m.name, patternOf(incoming), other.name)
	}
	return nil
}

func sameType(a, b *types.Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b)
}

func patternOf(p PortObject) *regexp.Regexp {
	switch port := p.(type) {
	case *DynamicInputPort:
		return port.pattern
	case *DynamicOutputPort:
		return port.pattern
	}
	return nil
}
