package presentation

import (
	"sort"

	"github.com/zjrosen/nodekit/internal/domain/component"
	"github.com/zjrosen/nodekit/internal/domain/types"
)

// TypeDTO represents a data type for presentation
type TypeDTO struct {
	Name      string            `json:"name"`
	Category  string            `json:"category"`
	Size      int               `json:"size,omitempty"`
	Numeric   string            `json:"numeric,omitempty"`
	Element   string            `json:"element,omitempty"`
	Length    int               `json:"length,omitempty"`
	Fields    []FieldDTO        `json:"fields,omitempty"`
	Values    []types.EnumValue `json:"values,omitempty"`
	Container string            `json:"container,omitempty"`
}

// FieldDTO is a compound field. Nested types are referenced by name.
type FieldDTO struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// PortDTO represents a static or dynamic port
type PortDTO struct {
	Direction string   `json:"direction"` // "input" or "output"
	Name      string   `json:"name"`
	Type      *TypeDTO `json:"type"` // nil for dynamic ports accepting any type
	Doc       string   `json:"doc"`
	Static    bool     `json:"static_connections,omitempty"`

	Dynamic bool   `json:"dynamic,omitempty"`
	Pattern string `json:"pattern,omitempty"`

	NeedsReliableConnection bool  `json:"needs_reliable_connection,omitempty"`
	CleanOnNodeStart        *bool `json:"clean_on_node_start,omitempty"`
	Multiplexes             bool  `json:"multiplexes,omitempty"`

	SampleSize             int      `json:"sample_size,omitempty"`
	Period                 int      `json:"period,omitempty"`
	BurstSize              int      `json:"burst_size,omitempty"`
	BurstPeriod            int      `json:"burst_period,omitempty"`
	TriggeredOn            []string `json:"triggered_on,omitempty"`
	TriggeredOnUpdate      *bool    `json:"triggered_on_update,omitempty"`
	TriggeredOncePerUpdate bool     `json:"triggered_once_per_update,omitempty"`
}

// ConfigurationDTO represents an attribute or a property
type ConfigurationDTO struct {
	Name    string   `json:"name"`
	Type    *TypeDTO `json:"type"`
	Dynamic bool     `json:"dynamic"`
	Doc     string   `json:"doc"`
	Default any      `json:"default,omitempty"` // absent when no default is declared
}

// ArgumentDTO is an operation argument
type ArgumentDTO struct {
	Name string   `json:"name"`
	Type *TypeDTO `json:"type"`
	Doc  string   `json:"doc"`
}

// ReturnDTO is an operation return value
type ReturnDTO struct {
	Type *TypeDTO `json:"type"`
	Doc  string   `json:"doc"`
}

// OperationDTO represents an operation
type OperationDTO struct {
	Name           string        `json:"name"`
	Doc            string        `json:"doc"`
	Returns        *ReturnDTO    `json:"returns,omitempty"`
	Arguments      []ArgumentDTO `json:"arguments"`
	Hidden         bool          `json:"hidden,omitempty"`
	InCallerThread bool          `json:"in_caller_thread,omitempty"`
}

// NodeModelDTO represents the full interface of a node model, inherited
// objects included.
type NodeModelDTO struct {
	Name         string             `json:"name"`
	Superclass   string             `json:"superclass,omitempty"`
	Project      string             `json:"project,omitempty"`
	Doc          string             `json:"doc,omitempty"`
	Abstract     bool               `json:"abstract,omitempty"`
	Ports        []PortDTO          `json:"ports"`
	DynamicPorts []PortDTO          `json:"dynamic_ports"`
	Properties   []ConfigurationDTO `json:"properties"`
	Attributes   []ConfigurationDTO `json:"attributes"`
	Operations   []OperationDTO     `json:"operations"`
}

// DeployedNodeDTO is one node of a deployment
type DeployedNodeDTO struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

// DeploymentDTO represents a deployment
type DeploymentDTO struct {
	Name           string            `json:"name"`
	DefaultLatency string            `json:"default_latency"`
	Nodes          []DeployedNodeDTO `json:"nodes"`
}

// ProjectDTO represents a loaded project
type ProjectDTO struct {
	Name        string          `json:"name"`
	Version     string          `json:"version,omitempty"`
	Typekit     string          `json:"typekit,omitempty"`
	NodeModels  []string        `json:"node_models"`
	Deployments []DeploymentDTO `json:"deployments"`
}

// TypekitDTO represents a loaded typekit
type TypekitDTO struct {
	Name              string   `json:"name"`
	Typelist          []string `json:"typelist"`
	InterfaceTypelist []string `json:"interface_typelist"`
}

// ListingDTO is the output of `nodekit list`
type ListingDTO struct {
	AvailableProjects []string     `json:"available_projects"`
	AvailableTypekits []string     `json:"available_typekits"`
	Projects          []ProjectDTO `json:"projects"`
	Typekits          []TypekitDTO `json:"typekits"`
	NodeModels        []string     `json:"node_models"`
}

// FromType converts a type. Nil stays nil.
func FromType(t *types.Type) *TypeDTO {
	if t == nil {
		return nil
	}
	dto := &TypeDTO{
		Name:      t.Name,
		Category:  t.Category.String(),
		Size:      t.Size,
		Numeric:   string(t.Numeric),
		Length:    t.Length,
		Values:    t.Values,
		Container: t.Container,
	}
	if t.Element != nil {
		dto.Element = t.Element.Name
	}
	for _, f := range t.Fields {
		dto.Fields = append(dto.Fields, FieldDTO{Name: f.Name, Type: f.Type.String()})
	}
	return dto
}

// FromPort converts any port variant.
func FromPort(p component.PortObject) PortDTO {
	dto := PortDTO{
		Direction: "input",
		Name:      p.Name(),
		Type:      FromType(p.Type()),
		Doc:       p.Doc(),
		Static:    p.StaticConnections(),
		Dynamic:   p.IsDynamic(),
	}
	if p.IsOutput() {
		dto.Direction = "output"
	}

	switch port := p.(type) {
	case *component.InputPort:
		clean := port.CleanOnNodeStart()
		dto.NeedsReliableConnection = port.NeedsReliableConnection()
		dto.CleanOnNodeStart = &clean
		dto.Multiplexes = port.Multiplexes()
	case *component.OutputPort:
		dto.SampleSize = port.SampleSize()
		dto.Period = port.Period()
		dto.BurstSize = port.BurstSize()
		dto.BurstPeriod = port.BurstPeriod()
		for _, in := range port.PortTriggers() {
			dto.TriggeredOn = append(dto.TriggeredOn, in.Name())
		}
		onUpdate := port.TriggeredOnUpdate()
		dto.TriggeredOnUpdate = &onUpdate
		dto.TriggeredOncePerUpdate = port.TriggeredOncePerUpdate()
	case *component.DynamicInputPort:
		if port.Pattern() != nil {
			dto.Pattern = port.Pattern().String()
		}
	case *component.DynamicOutputPort:
		if port.Pattern() != nil {
			dto.Pattern = port.Pattern().String()
		}
	}
	return dto
}

// FromConfiguration converts an attribute or a property.
func FromConfiguration(c *component.ConfigurationObject) ConfigurationDTO {
	return ConfigurationDTO{
		Name:    c.Name(),
		Type:    FromType(c.Type()),
		Dynamic: c.Dynamic(),
		Doc:     c.Doc(),
		Default: c.DefaultValue(),
	}
}

// FromOperation converts an operation.
func FromOperation(o *component.Operation) OperationDTO {
	dto := OperationDTO{
		Name:           o.Name(),
		Doc:            o.Doc(),
		Arguments:      make([]ArgumentDTO, 0, len(o.Arguments())),
		Hidden:         o.Hidden(),
		InCallerThread: o.InCallerThread(),
	}
	if o.HasReturnValue() {
		dto.Returns = &ReturnDTO{Type: FromType(o.ReturnType()), Doc: o.ReturnDoc()}
	}
	for _, a := range o.Arguments() {
		dto.Arguments = append(dto.Arguments, ArgumentDTO{Name: a.Name, Type: FromType(a.Type), Doc: a.Doc})
	}
	return dto
}

// FromNodeModel converts a node model with everything it inherits.
func FromNodeModel(m *component.NodeModel) NodeModelDTO {
	dto := NodeModelDTO{
		Name:         m.Name(),
		Doc:          m.Doc(),
		Abstract:     m.Abstract(),
		Ports:        make([]PortDTO, 0),
		DynamicPorts: make([]PortDTO, 0),
		Properties:   make([]ConfigurationDTO, 0),
		Attributes:   make([]ConfigurationDTO, 0),
		Operations:   make([]OperationDTO, 0),
	}
	if super := m.Supermodel(); super != nil {
		dto.Superclass = super.Name()
	}
	if p := m.Project(); p != nil {
		dto.Project = p.Name()
	}
	for _, p := range m.Ports() {
		dto.Ports = append(dto.Ports, FromPort(p))
	}
	for _, p := range m.DynamicPorts() {
		dto.DynamicPorts = append(dto.DynamicPorts, FromPort(p))
	}
	for _, c := range m.Properties() {
		dto.Properties = append(dto.Properties, FromConfiguration(c))
	}
	for _, c := range m.Attributes() {
		dto.Attributes = append(dto.Attributes, FromConfiguration(c))
	}
	for _, o := range m.Operations() {
		dto.Operations = append(dto.Operations, FromOperation(o))
	}
	return dto
}

// FromDeployment converts a deployment.
func FromDeployment(d *component.Deployment) DeploymentDTO {
	dto := DeploymentDTO{
		Name:           d.Name(),
		DefaultLatency: d.DefaultLatency().String(),
		Nodes:          make([]DeployedNodeDTO, 0),
	}
	for _, n := range d.DeployedNodes() {
		dto.Nodes = append(dto.Nodes, DeployedNodeDTO{Name: n.Name(), Model: n.Model().Name()})
	}
	return dto
}

// FromProject converts a project.
func FromProject(p *component.Project) ProjectDTO {
	dto := ProjectDTO{
		Name:        p.Name(),
		Version:     p.Version(),
		NodeModels:  make([]string, 0),
		Deployments: make([]DeploymentDTO, 0),
	}
	if tk := p.Typekit(); tk != nil {
		dto.Typekit = tk.Name()
	}
	for _, m := range p.NodeModels() {
		dto.NodeModels = append(dto.NodeModels, m.Name())
	}
	for _, d := range p.DeploymentModels() {
		dto.Deployments = append(dto.Deployments, FromDeployment(d))
	}
	return dto
}

// FromTypekit converts a typekit.
func FromTypekit(tk *component.Typekit) TypekitDTO {
	return TypekitDTO{
		Name:              tk.Name(),
		Typelist:          nonNil(tk.Typelist()),
		InterfaceTypelist: nonNil(tk.InterfaceTypelist()),
	}
}

// Inventory is what a listing is built from. loaders.Base and
// loaders.Aggregate implement it.
type Inventory interface {
	AvailableProjectNames() ([]string, error)
	AvailableTypekitNames() ([]string, error)
	Projects() []*component.Project
	Typekits() []*component.Typekit
	NodeModels() []*component.NodeModel
}

// FromInventory builds the listing of what is available and what is loaded.
func FromInventory(inv Inventory) (ListingDTO, error) {
	projects, err := inv.AvailableProjectNames()
	if err != nil {
		return ListingDTO{}, err
	}
	typekits, err := inv.AvailableTypekitNames()
	if err != nil {
		return ListingDTO{}, err
	}

	dto := ListingDTO{
		AvailableProjects: nonNil(projects),
		AvailableTypekits: nonNil(typekits),
		Projects:          make([]ProjectDTO, 0),
		Typekits:          make([]TypekitDTO, 0),
		NodeModels:        make([]string, 0),
	}
	for _, p := range inv.Projects() {
		dto.Projects = append(dto.Projects, FromProject(p))
	}
	for _, tk := range inv.Typekits() {
		dto.Typekits = append(dto.Typekits, FromTypekit(tk))
	}
	for _, m := range inv.NodeModels() {
		dto.NodeModels = append(dto.NodeModels, m.Name())
	}
	sort.Strings(dto.NodeModels)
	return dto, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
