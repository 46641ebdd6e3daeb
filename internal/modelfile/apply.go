package modelfile

import (
	"fmt"
	"regexp"
	"time"

	"github.com/zjrosen/nodekit/internal/domain/component"
	"github.com/zjrosen/nodekit/internal/log"
)

// ParseProject evaluates text into project, which must be empty.
func (p *Parser) ParseProject(project *component.Project, text ProjectText) error {
	def, err := p.DecodeProject(text)
	if err != nil {
		return err
	}
	if err := p.Apply(project, def); err != nil {
		return fmt.Errorf("%s: %w", text.Origin, err)
	}
	return nil
}

// Apply declares everything def describes on project.
func (p *Parser) Apply(project *component.Project, def *ProjectDef) error {
	project.SetName(def.Name)
	if def.Version != "" {
		if err := project.SetVersion(def.Version); err != nil {
			return err
		}
	}

	if def.Using != nil {
		for _, name := range def.Using.Typekits {
			if _, err := project.UseTypesFrom(name); err != nil {
				return fmt.Errorf("using typekit %s: %w", name, err)
			}
		}
		for _, name := range def.Using.Projects {
			if _, err := project.UseNodesFrom(name); err != nil {
				return fmt.Errorf("using project %s: %w", name, err)
			}
		}
	}

	// A default supermodel declared in this file takes effect once declared.
	pendingSupermodel := def.DefaultSupermodel
	setSupermodel := func() error {
		if pendingSupermodel == "" {
			return nil
		}
		m, err := project.NodeModelFromName(pendingSupermodel)
		if err != nil {
			return err
		}
		project.SetDefaultNodeSupermodel(m)
		pendingSupermodel = ""
		return nil
	}
	if !declaresNode(def, pendingSupermodel) {
		if err := setSupermodel(); err != nil {
			return fmt.Errorf("default supermodel: %w", err)
		}
	}

	for _, nd := range def.Nodes {
		if err := p.declareNode(project, nd); err != nil {
			return err
		}
		if nd.Name == pendingSupermodel {
			if err := setSupermodel(); err != nil {
				return fmt.Errorf("default supermodel: %w", err)
			}
		}
	}

	for _, dd := range def.Deployments {
		if err := p.declareDeployment(project, dd); err != nil {
			return err
		}
	}
	return nil
}

func declaresNode(def *ProjectDef, name string) bool {
	for _, nd := range def.Nodes {
		if nd.Name == name {
			return true
		}
	}
	return false
}

func (p *Parser) declareNode(project *component.Project, nd NodeDef) error {
	var opts []component.NodeOption
	if nd.Superclass != "" {
		super, err := project.NodeModelFromName(nd.Superclass)
		if err != nil {
			return fmt.Errorf("node %s: superclass: %w", nd.Name, err)
		}
		opts = append(opts, component.Supermodel(super))
	}
	opts = append(opts, component.Setup(func(m *component.NodeModel) error {
		return p.setupNode(project, m, nd)
	}))

	if _, err := project.Node(nd.Name, opts...); err != nil {
		return err
	}
	log.Debug(log.CatNode, "declared node model", "model", nd.Name, "project", project.Name())
	return nil
}

func (p *Parser) setupNode(project *component.Project, m *component.NodeModel, nd NodeDef) error {
	m.SetDoc(nd.Doc)
	m.SetAbstract(nd.Abstract)

	for _, od := range nd.Attributes {
		obj, err := m.Attribute(od.Name, od.Type)
		if err != nil {
			return err
		}
		configure(obj, od)
	}
	for _, od := range nd.Properties {
		obj, err := m.Property(od.Name, od.Type)
		if err != nil {
			return err
		}
		configure(obj, od)
	}
	for _, opd := range nd.Operations {
		if err := declareOperation(m, opd); err != nil {
			return err
		}
	}
	for _, pd := range nd.InputPorts {
		port, err := m.InputPort(pd.Name, pd.Type)
		if err != nil {
			return err
		}
		port.SetDoc(pd.Doc)
		port.SetNeedsReliableConnection(pd.NeedsReliableConnection)
		port.SetMultiplexes(pd.Multiplexes)
		port.SetStaticConnections(pd.Static)
		if pd.CleanOnNodeStart != nil {
			port.SetCleanOnNodeStart(*pd.CleanOnNodeStart)
		}
	}
	for _, pd := range nd.OutputPorts {
		if err := declareOutputPort(m, pd); err != nil {
			return err
		}
	}
	for _, pd := range nd.DynamicInputPorts {
		pattern, err := compilePattern(pd)
		if err != nil {
			return err
		}
		port, err := m.DynamicInputPort(pd.Name, pattern, pd.Type)
		if err != nil {
			return err
		}
		port.SetDoc(pd.Doc)
	}
	for _, pd := range nd.DynamicOutputPorts {
		pattern, err := compilePattern(pd)
		if err != nil {
			return err
		}
		port, err := m.DynamicOutputPort(pd.Name, pattern, pd.Type)
		if err != nil {
			return err
		}
		port.SetDoc(pd.Doc)
	}
	for _, md := range nd.MergePortsFrom {
		other, err := project.NodeModelFromName(md.Model)
		if err != nil {
			return fmt.Errorf("merge ports from %s: %w", md.Model, err)
		}
		if err := m.MergePortsFrom(other, md.Mappings); err != nil {
			return err
		}
	}
	return nil
}

func configure(obj *component.ConfigurationObject, od ObjectDef) {
	obj.SetDoc(od.Doc)
	obj.SetDynamic(od.Dynamic)
	if od.Default != "" {
		obj.SetDefaultValue(od.Default)
	}
}

func declareOperation(m *component.NodeModel, opd OperationDef) error {
	op, err := m.Operation(opd.Name)
	if err != nil {
		return err
	}
	op.SetDoc(opd.Doc)
	op.SetInCallerThread(opd.InCallerThread)
	op.SetHidden(opd.Hidden)
	for _, a := range opd.Arguments {
		if err := op.Argument(a.Name, a.Type, a.Doc); err != nil {
			return fmt.Errorf("operation %s: %w", opd.Name, err)
		}
	}
	if opd.Returns != nil {
		if err := op.Returns(opd.Returns.Type, opd.Returns.Doc); err != nil {
			return fmt.Errorf("operation %s: %w", opd.Name, err)
		}
	}
	return nil
}

func declareOutputPort(m *component.NodeModel, pd OutputPortDef) error {
	port, err := m.OutputPort(pd.Name, pd.Type)
	if err != nil {
		return err
	}
	port.SetDoc(pd.Doc)
	port.SetStaticConnections(pd.Static)
	if pd.SampleSize > 0 {
		if err := port.SetSampleSize(pd.SampleSize); err != nil {
			return err
		}
	}
	if pd.Period > 0 {
		if err := port.SetPeriod(pd.Period); err != nil {
			return err
		}
	}
	if pd.Burst != nil {
		if err := port.Burst(pd.Burst.Size, pd.Burst.Period); err != nil {
			return err
		}
	}
	if pd.TriggeredOncePerUpdate {
		if err := port.SetTriggeredOncePerUpdate(); err != nil {
			return err
		}
	}
	if len(pd.TriggeredOn) > 0 {
		if err := port.TriggeredOn(pd.TriggeredOn...); err != nil {
			return fmt.Errorf("output port %s: %w", pd.Name, err)
		}
	}
	if pd.TriggeredOnUpdate != nil {
		port.SetTriggeredOnUpdate(*pd.TriggeredOnUpdate)
	}
	return nil
}

func compilePattern(pd DynamicPortDef) (*regexp.Regexp, error) {
	if pd.Pattern == "" {
		return nil, nil
	}
	pattern, err := regexp.Compile(pd.Pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: dynamic port %s: %w", component.ErrInvalidArgument, pd.Name, err)
	}
	return pattern, nil
}

func (p *Parser) declareDeployment(project *component.Project, dd DeploymentDef) error {
	latency := p.defaultLatency
	if dd.DefaultLatency != "" {
		d, err := time.ParseDuration(dd.DefaultLatency)
		if err != nil {
			return fmt.Errorf("%w: deployment %s: default_latency: %w", component.ErrInvalidArgument, dd.Name, err)
		}
		latency = d
	}

	_, err := project.Deployment(dd.Name, component.DeploymentSetup(func(d *component.Deployment) error {
		d.SetDefaultLatency(latency)
		for _, n := range dd.Nodes {
			if _, err := d.NodeByModelName(n.Name, n.Model); err != nil {
				return err
			}
		}
		return nil
	}))
	return err
}
