package modelfile

// ProjectDef is the root of a project file. YAML and HCL share it.
type ProjectDef struct {
	Name              string          `yaml:"name" hcl:"name" validate:"required"`
	Version           string          `yaml:"version" hcl:"version,optional"`
	Using             *UsingDef       `yaml:"using" hcl:"using,block"`
	DefaultSupermodel string          `yaml:"default_supermodel" hcl:"default_supermodel,optional"` // node model new nodes derive from
	Nodes             []NodeDef       `yaml:"nodes" hcl:"node,block" validate:"dive"`
	Deployments       []DeploymentDef `yaml:"deployments" hcl:"deployment,block" validate:"dive"`
}

// UsingDef lists the models a project depends on.
type UsingDef struct {
	Typekits []string `yaml:"typekits" hcl:"typekits,optional"`
	Projects []string `yaml:"projects" hcl:"projects,optional"`
}

// NodeDef declares one node model.
type NodeDef struct {
	Name               string           `yaml:"name" hcl:"name,label" validate:"required"`
	Superclass         string           `yaml:"superclass" hcl:"superclass,optional"`
	Doc                string           `yaml:"doc" hcl:"doc,optional"`
	Abstract           bool             `yaml:"abstract" hcl:"abstract,optional"`
	Attributes         []ObjectDef      `yaml:"attributes" hcl:"attribute,block" validate:"dive"`
	Properties         []ObjectDef      `yaml:"properties" hcl:"property,block" validate:"dive"`
	Operations         []OperationDef   `yaml:"operations" hcl:"operation,block" validate:"dive"`
	InputPorts         []InputPortDef   `yaml:"input_ports" hcl:"input_port,block" validate:"dive"`
	OutputPorts        []OutputPortDef  `yaml:"output_ports" hcl:"output_port,block" validate:"dive"`
	DynamicInputPorts  []DynamicPortDef `yaml:"dynamic_input_ports" hcl:"dynamic_input_port,block" validate:"dive"`
	DynamicOutputPorts []DynamicPortDef `yaml:"dynamic_output_ports" hcl:"dynamic_output_port,block" validate:"dive"`
	MergePortsFrom     []MergeDef       `yaml:"merge_ports_from" hcl:"merge_ports_from,block" validate:"dive"`
}

// ObjectDef declares an attribute or a property.
type ObjectDef struct {
	Name    string `yaml:"name" hcl:"name,label" validate:"required"`
	Type    string `yaml:"type" hcl:"type" validate:"required,startswith=/"`
	Default string `yaml:"default" hcl:"default,optional"` // kept as text, models do not interpret it
	Doc     string `yaml:"doc" hcl:"doc,optional"`
	Dynamic bool   `yaml:"dynamic" hcl:"dynamic,optional"`
}

// OperationDef declares an operation.
type OperationDef struct {
	Name           string        `yaml:"name" hcl:"name,label" validate:"required"`
	Doc            string        `yaml:"doc" hcl:"doc,optional"`
	Arguments      []ArgumentDef `yaml:"arguments" hcl:"argument,block" validate:"dive"`
	Returns        *ReturnDef    `yaml:"returns" hcl:"returns,block"`
	InCallerThread bool          `yaml:"in_caller_thread" hcl:"in_caller_thread,optional"`
	Hidden         bool          `yaml:"hidden" hcl:"hidden,optional"`
}

// ArgumentDef is an operation argument.
type ArgumentDef struct {
	Name string `yaml:"name" hcl:"name,label" validate:"required"`
	Type string `yaml:"type" hcl:"type" validate:"required,startswith=/"`
	Doc  string `yaml:"doc" hcl:"doc,optional"`
}

// ReturnDef is an operation return value.
type ReturnDef struct {
	Type string `yaml:"type" hcl:"type" validate:"required,startswith=/"`
	Doc  string `yaml:"doc" hcl:"doc,optional"`
}

// InputPortDef declares a static input port.
type InputPortDef struct {
	Name                    string `yaml:"name" hcl:"name,label" validate:"required"`
	Type                    string `yaml:"type" hcl:"type" validate:"required,startswith=/"`
	Doc                     string `yaml:"doc" hcl:"doc,optional"`
	NeedsReliableConnection bool   `yaml:"needs_reliable_connection" hcl:"needs_reliable_connection,optional"`
	CleanOnNodeStart        *bool  `yaml:"clean_on_node_start" hcl:"clean_on_node_start,optional"` // nil keeps the default
	Multiplexes             bool   `yaml:"multiplexes" hcl:"multiplexes,optional"`
	Static                  bool   `yaml:"static" hcl:"static,optional"`
}

// OutputPortDef declares a static output port.
type OutputPortDef struct {
	Name                   string    `yaml:"name" hcl:"name,label" validate:"required"`
	Type                   string    `yaml:"type" hcl:"type" validate:"required,startswith=/"`
	Doc                    string    `yaml:"doc" hcl:"doc,optional"`
	SampleSize             int       `yaml:"sample_size" hcl:"sample_size,optional" validate:"gte=0"`
	Period                 int       `yaml:"period" hcl:"period,optional" validate:"gte=0"`
	Burst                  *BurstDef `yaml:"burst" hcl:"burst,block"`
	TriggeredOn            []string  `yaml:"triggered_on" hcl:"triggered_on,optional"`
	TriggeredOnUpdate      *bool     `yaml:"triggered_on_update" hcl:"triggered_on_update,optional"`
	TriggeredOncePerUpdate bool      `yaml:"triggered_once_per_update" hcl:"triggered_once_per_update,optional"`
	Static                 bool      `yaml:"static" hcl:"static,optional"`
}

// BurstDef configures an output port burst.
type BurstDef struct {
	Size   int `yaml:"size" hcl:"size" validate:"gte=0"`
	Period int `yaml:"period" hcl:"period,optional" validate:"gte=0"`
}

// DynamicPortDef declares a dynamic port. An empty type accepts any type.
type DynamicPortDef struct {
	Name    string `yaml:"name" hcl:"name,label" validate:"required"`
	Pattern string `yaml:"pattern" hcl:"pattern,optional"`
	Type    string `yaml:"type" hcl:"type,optional" validate:"omitempty,startswith=/"`
	Doc     string `yaml:"doc" hcl:"doc,optional"`
}

// MergeDef copies the ports of another node model into this one.
type MergeDef struct {
	Model    string            `yaml:"model" hcl:"model,label" validate:"required"`
	Mappings map[string]string `yaml:"mappings" hcl:"mappings,optional"` // source port name to new name
}

// DeploymentDef declares a deployment.
type DeploymentDef struct {
	Name           string            `yaml:"name" hcl:"name,label" validate:"required"`
	DefaultLatency string            `yaml:"default_latency" hcl:"default_latency,optional"` // Go duration, overrides the parser default
	Nodes          []DeployedNodeDef `yaml:"nodes" hcl:"task,block" validate:"dive"`
}

// DeployedNodeDef deploys a node model under a name.
type DeployedNodeDef struct {
	Name  string `yaml:"name" hcl:"name,label" validate:"required"`
	Model string `yaml:"model" hcl:"model" validate:"required"`
}

// TypelistDef is the typelist document of a typekit.
type TypelistDef struct {
	Name              string   `yaml:"name" validate:"required"`
	Typelist          []string `yaml:"typelist"`
	InterfaceTypelist []string `yaml:"interface_typelist"`
}

// RegistryDef is the registry document of a typekit.
type RegistryDef struct {
	Types   []TypeDef         `yaml:"types" validate:"dive"`
	Aliases map[string]string `yaml:"aliases"` // alias name to target
}

// TypeDef describes one type of a registry document.
type TypeDef struct {
	Category  string     `yaml:"category" validate:"required"`
	Name      string     `yaml:"name"`
	Size      int        `yaml:"size" validate:"gte=0"`
	Numeric   string     `yaml:"numeric" validate:"omitempty,oneof=sint uint float"`
	Element   string     `yaml:"element"`
	Length    int        `yaml:"length" validate:"gte=0"`
	Fields    []FieldDef `yaml:"fields" validate:"dive"`
	Values    []ValueDef `yaml:"values" validate:"dive"`
	Container string     `yaml:"container"`
}

// FieldDef is a compound field.
type FieldDef struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"required"`
}

// ValueDef is an enum symbol.
type ValueDef struct {
	Symbol string `yaml:"symbol" validate:"required"`
	Value  int64  `yaml:"value"`
}
