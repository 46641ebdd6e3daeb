package component

import "github.com/zjrosen/nodekit/internal/domain/types"

// Loader is the part of a loader models call back into while they are built.
// Projects, node models and deployments hold the root loader of their tree.
type Loader interface {
	RegisterProjectModel(project *Project) error
	RegisterTypekitModel(typekit *Typekit) error
	RegisterNodeModel(model *NodeModel) error
	RegisterDeploymentModel(deployment *Deployment) error

	NodeLibraryModelFromName(name string) (*Project, error)
	TypekitModelFromName(name string) (*Typekit, error)
	NodeModelFromName(name string) (*NodeModel, error)

	ResolveType(name string) (*types.Type, error)
	ResolveInterfaceType(name string) (*types.Type, error)
}
