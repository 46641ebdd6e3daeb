package component

import (
	"fmt"
	"regexp"

	"github.com/zjrosen/nodekit/internal/domain/types"
)

// DynamicInputPort specifies input ports created at runtime.
type DynamicInputPort struct {
	InputPort
	pattern *regexp.Regexp
}

// DynamicOutputPort specifies output ports created at runtime.
type DynamicOutputPort struct {
	OutputPort
	pattern *regexp.Regexp
}

var (
	_ PortObject = (*DynamicInputPort)(nil)
	_ PortObject = (*DynamicOutputPort)(nil)
)

// Pattern returns the name matcher, nil when any name matches.
func (p *DynamicInputPort) Pattern() *regexp.Regexp { return p.pattern }

// Pattern returns the name matcher, nil when any name matches.
func (p *DynamicOutputPort) Pattern() *regexp.Regexp { return p.pattern }

// AnyType reports whether the specification accepts any type.
func (p *DynamicInputPort) AnyType() bool { return p.typ == nil }

// AnyType reports whether the specification accepts any type.
func (p *DynamicOutputPort) AnyType() bool { return p.typ == nil }

// Matches reports whether name fits the pattern.
func (p *DynamicInputPort) Matches(name string) bool { return matchesPattern(p.pattern, name) }

// Matches reports whether name fits the pattern.
func (p *DynamicOutputPort) Matches(name string) bool { return matchesPattern(p.pattern, name) }

// Instantiate returns a concrete input port named name. typeName may be empty
// when the specification has a type of its own.
func (p *DynamicInputPort) Instantiate(name, typeName string) (*InputPort, error) {
	typ, err := instantiateType(&p.Port, p.pattern, name, typeName)
	if err != nil {
		return nil, err
	}
	port := p.InputPort
	port.name, port.typ, port.kind = name, typ, KindInputPort
	return &port, nil
}

// Instantiate returns a concrete output port named name. typeName may be
// empty when the specification has a type of its own.
func (p *DynamicOutputPort) Instantiate(name, typeName string) (*OutputPort, error) {
	typ, err := instantiateType(&p.Port, p.pattern, name, typeName)
	if err != nil {
		return nil, err
	}
	port := p.OutputPort
	port.name, port.typ, port.kind = name, typ, KindOutputPort
	port.triggers = append([]string(nil), p.triggers...)
	return &port, nil
}

func (p *DynamicInputPort) rebind(node *NodeModel, name string) InterfaceObject {
	dup := *p
	dup.node, dup.name = node, name
	return &dup
}

func (p *DynamicOutputPort) rebind(node *NodeModel, name string) InterfaceObject {
	dup := *p
	dup.node, dup.name = node, name
	dup.triggers = append([]string(nil), p.triggers...)
	return &dup
}

func instantiateType(spec *Port, pattern *regexp.Regexp, name, typeName string) (*types.Type, error) {
	if !matchesPattern(pattern, name) {
		return nil, fmt.Errorf("%w: %s does not match the pattern %s of %s", ErrInvalidArgument, name, pattern, spec.name)
	}
	if typeName == "" {
		if spec.typ == nil {
			return nil, fmt.Errorf("%w: no type given and %s accepts any type", ErrInvalidArgument, spec.name)
		}
		return spec.typ, nil
	}
	typ, err := spec.node.resolveInterfaceType(typeName)
	if err != nil {
		return nil, err
	}
	if spec.typ != nil && !spec.typ.Equal(typ) {
		return nil, fmt.Errorf("%w: cannot instantiate %s with type %s, it is declared as %s", ErrInvalidArgument, spec.name, typ, spec.typ)
	}
	return typ, nil
}

func matchesPattern(pattern *regexp.Regexp, name string) bool {
	return pattern == nil || pattern.MatchString(name)
}

func samePattern(a, b *regexp.Regexp) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}
