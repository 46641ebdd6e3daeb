package component

import (
	"fmt"

	"github.com/zjrosen/nodekit/internal/domain/types"
)

// PortObject is implemented by the static and dynamic port variants.
type PortObject interface {
	InterfaceObject
	Type() *types.Type
	IsOutput() bool
	IsDynamic() bool
	StaticConnections() bool
}

// Port holds what input and output ports share.
type Port struct {
	object
	kind   Kind
	typ    *types.Type
	static bool
}

// Kind returns the port category.
func (p *Port) Kind() Kind { return p.kind }

// Type returns the port type. Dynamic ports accepting any type return nil.
func (p *Port) Type() *types.Type { return p.typ }

// IsOutput reports whether this is an output port.
func (p *Port) IsOutput() bool {
	return p.kind == KindOutputPort || p.kind == KindDynamicOutputPort
}

// IsDynamic reports whether this is a dynamic port specification.
func (p *Port) IsDynamic() bool {
	return p.kind == KindDynamicInputPort || p.kind == KindDynamicOutputPort
}

// StaticConnections reports whether the port must be connected before the
// node is configured.
func (p *Port) StaticConnections() bool { return p.static }

// SetStaticConnections selects static (true) or dynamic (false) connections.
func (p *Port) SetStaticConnections(static bool) { p.static = static }

func (p *Port) direction() string {
	if p.IsOutput() {
		return "output"
	}
	return "input"
}

// InputPort receives data.
type InputPort struct {
	Port
	needsReliableConnection bool
	cleanOnNodeStart        bool
	multiplexes             bool
}

var _ PortObject = (*InputPort)(nil)

func newInputPort(node *NodeModel, name string, typ *types.Type) *InputPort {
	return &InputPort{
		Port:             Port{object: object{node: node, name: name}, kind: KindInputPort, typ: typ},
		cleanOnNodeStart: true,
	}
}

// NeedsReliableConnection reports whether connections to this port must not drop samples.
func (p *InputPort) NeedsReliableConnection() bool { return p.needsReliableConnection }

// SetNeedsReliableConnection sets the reliable connection requirement.
func (p *InputPort) SetNeedsReliableConnection(v bool) { p.needsReliableConnection = v }

// CleanOnNodeStart reports whether pending samples are discarded when the node starts.
func (p *InputPort) CleanOnNodeStart() bool { return p.cleanOnNodeStart }

// SetCleanOnNodeStart sets the clean-on-start behavior.
func (p *InputPort) SetCleanOnNodeStart(v bool) { p.cleanOnNodeStart = v }

// Multiplexes reports whether the port accepts several connections at once.
func (p *InputPort) Multiplexes() bool { return p.multiplexes }

// SetMultiplexes sets the multiplexing flag.
func (p *InputPort) SetMultiplexes(v bool) { p.multiplexes = v }

func (p *InputPort) rebind(node *NodeModel, name string) InterfaceObject {
	dup := *p
	dup.node, dup.name = node, name
	return &dup
}

// OutputPort emits data.
type OutputPort struct {
	Port
	sampleSize  int
	period      int
	burstSize   int
	burstPeriod int
	triggers    []string

	triggeredOnUpdate      *bool
	triggeredOncePerUpdate bool
}

var _ PortObject = (*OutputPort)(nil)

func newOutputPort(node *NodeModel, name string, typ *types.Type) *OutputPort {
	return &OutputPort{
		Port:       Port{object: object{node: node, name: name}, kind: KindOutputPort, typ: typ},
		sampleSize: 1,
		period:     1,
	}
}

// SampleSize returns how many samples are written at once.
func (p *OutputPort) SampleSize() int { return p.sampleSize }

// SetSampleSize sets how many samples are written at once.
func (p *OutputPort) SetSampleSize(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: sample size of %s must be positive, got %d", ErrInvalidArgument, p.name, n)
	}
	p.sampleSize = n
	return nil
}

// Period returns the minimal number of update cycles between two writes.
func (p *OutputPort) Period() int { return p.period }

// SetPeriod sets the minimal number of update cycles between two writes.
func (p *OutputPort) SetPeriod(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: period of %s must be positive, got %d", ErrInvalidArgument, p.name, n)
	}
	p.period = n
	return nil
}

// Burst declares that up to size samples may occasionally be written at once,
// every period cycles. A period of zero means bursts are rare.
func (p *OutputPort) Burst(size, period int) error {
	if size < 0 || period < 0 {
		return fmt.Errorf("%w: burst of %s must not be negative", ErrInvalidArgument, p.name)
	}
	p.burstSize, p.burstPeriod = size, period
	return nil
}

// BurstSize returns the declared burst size, 0 when none was declared.
func (p *OutputPort) BurstSize() int { return p.burstSize }

// BurstPeriod returns the declared burst period.
func (p *OutputPort) BurstPeriod() int { return p.burstPeriod }

// TriggeredOn declares that the port is written when a sample arrives on the
// named input ports of the same node.
func (p *OutputPort) TriggeredOn(inputPorts ...string) error {
	if p.triggeredOncePerUpdate {
		return fmt.Errorf("%w: %s cannot be triggered by input ports and once per update", ErrIncompatibility, p.name)
	}
	for _, name := range inputPorts {
		if _, ok := p.node.lookup(KindInputPort, name); !ok {
			return fmt.Errorf("%w: %s is not an input port of %s", ErrInvalidArgument, name, p.node.Name())
		}
	}
	for _, name := range inputPorts {
		if !p.hasTrigger(name) {
			p.triggers = append(p.triggers, name)
		}
	}
	return nil
}

// TriggeredOnPorts is TriggeredOn for port objects, which must belong to the same node.
func (p *OutputPort) TriggeredOnPorts(inputPorts ...*InputPort) error {
	names := make([]string, 0, len(inputPorts))
	for _, in := range inputPorts {
		if in.Node() != p.node {
			return fmt.Errorf("%w: %s is not an input port of %s", ErrInvalidArgument, in.Name(), p.node.Name())
		}
		names = append(names, in.Name())
	}
	return p.TriggeredOn(names...)
}

func (p *OutputPort) hasTrigger(name string) bool {
	for _, t := range p.triggers {
		if t == name {
			return true
		}
	}
	return false
}

// PortTriggers returns the input ports whose samples cause a write.
func (p *OutputPort) PortTriggers() []*InputPort {
	out := make([]*InputPort, 0, len(p.triggers))
	for _, name := range p.triggers {
		if in := p.node.FindInputPort(name); in != nil {
			out = append(out, in)
		}
	}
	return out
}

// HasPortTriggers reports whether TriggeredOn was called.
func (p *OutputPort) HasPortTriggers() bool { return len(p.triggers) > 0 }

// SetTriggeredOnUpdate overrides whether the port is written on each update.
func (p *OutputPort) SetTriggeredOnUpdate(v bool) { p.triggeredOnUpdate = &v }

// TriggeredOnUpdate reports whether the port is written on each update. It
// is the default unless input port triggers were declared.
func (p *OutputPort) TriggeredOnUpdate() bool {
	switch {
	case p.triggeredOncePerUpdate:
		return true
	case !p.HasPortTriggers():
		return p.triggeredOnUpdate == nil || *p.triggeredOnUpdate
	default:
		return p.triggeredOnUpdate != nil && *p.triggeredOnUpdate
	}
}

// SetTriggeredOncePerUpdate declares that at most one sample is written per update.
func (p *OutputPort) SetTriggeredOncePerUpdate() error {
	if p.HasPortTriggers() {
		return fmt.Errorf("%w: %s cannot be triggered by the update and by input ports", ErrIncompatibility, p.name)
	}
	p.triggeredOncePerUpdate = true
	return nil
}

// TriggeredOncePerUpdate reports whether SetTriggeredOncePerUpdate was called.
func (p *OutputPort) TriggeredOncePerUpdate() bool { return p.triggeredOncePerUpdate }

func (p *OutputPort) rebind(node *NodeModel, name string) InterfaceObject {
	dup := *p
	dup.node, dup.name = node, name
	dup.triggers = append([]string(nil), p.triggers...)
	if p.triggeredOnUpdate != nil {
		v := *p.triggeredOnUpdate
		dup.triggeredOnUpdate = &v
	}
	return &dup
}
