package component

import (
	"fmt"
	"time"
)

// DeployedNode is a named instance of a node model inside a deployment.
type DeployedNode struct {
	deployment *Deployment
	name       string
	model      *NodeModel
}

// Deployment returns the owning deployment.
func (d *DeployedNode) Deployment() *Deployment { return d.deployment }

// Name returns the instance name.
func (d *DeployedNode) Name() string { return d.name }

// Model returns the deployed node model.
func (d *DeployedNode) Model() *NodeModel { return d.model }

// Deployment maps deployed node names to node models.
type Deployment struct {
	loader         Loader
	name           string
	nodes          map[string]*DeployedNode
	order          []string
	defaultLatency time.Duration
}

// NewDeployment creates an empty deployment.
func NewDeployment(loader Loader, name string) *Deployment {
	return &Deployment{
		loader: loader,
		name:   name,
		nodes:  make(map[string]*DeployedNode),
	}
}

// Name returns the deployment name.
func (d *Deployment) Name() string { return d.name }

// Loader returns the loader used to resolve node models by name.
func (d *Deployment) Loader() Loader { return d.loader }

// SetDefaultLatency sets the latency budget applied to deployed nodes that
// do not declare their own.
func (d *Deployment) SetDefaultLatency(latency time.Duration) { d.defaultLatency = latency }

// DefaultLatency returns the latency budget, zero when unset.
func (d *Deployment) DefaultLatency() time.Duration { return d.defaultLatency }

// Node deploys model under name.
func (d *Deployment) Node(name string, model *NodeModel) (*DeployedNode, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: no model given for %s in %s", ErrInvalidArgument, name, d.name)
	}
	if existing, ok := d.nodes[name]; ok {
		return nil, fmt.Errorf("%w: %s already has a deployed node called %s, of model %s",
			ErrInvalidArgument, d.name, name, existing.model.Name())
	}
	node := &DeployedNode{deployment: d, name: name, model: model}
	d.nodes[name] = node
	d.order = append(d.order, name)
	return node, nil
}

// NodeByModelName deploys the node model resolved by name through the loader.
func (d *Deployment) NodeByModelName(name, modelName string) (*DeployedNode, error) {
	if d.loader == nil {
		return nil, fmt.Errorf("%w: %s has no loader to resolve %s", ErrInternal, d.name, modelName)
	}
	model, err := d.loader.NodeModelFromName(modelName)
	if err != nil {
		return nil, err
	}
	return d.Node(name, model)
}

// DeployedNodeFromName returns the named deployed node.
func (d *Deployment) DeployedNodeFromName(name string) (*DeployedNode, error) {
	node, ok := d.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s in deployment %s", ErrDeployedNodeModelNotFound, name, d.name)
	}
	return node, nil
}

// HasDeployedNode reports whether name is deployed.
func (d *Deployment) HasDeployedNode(name string) bool {
	_, ok := d.nodes[name]
	return ok
}

// DeployedNodes returns the deployed nodes in declaration order.
func (d *Deployment) DeployedNodes() []*DeployedNode {
	out := make([]*DeployedNode, 0, len(d.order))
	for _, n := range d.order {
		out = append(out, d.nodes[n])
	}
	return out
}

func (d *Deployment) String() string {
	return fmt.Sprintf("#<Deployment: %s>", d.name)
}
