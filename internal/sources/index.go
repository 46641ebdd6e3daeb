package sources

import (
	"slices"

	"github.com/zjrosen/nodekit/internal/log"
	"github.com/zjrosen/nodekit/internal/modelfile"
)

// Listing is a text source that can enumerate its projects.
type Listing interface {
	TextSource
	ProjectNames() ([]string, error)
}

// Index tells which project declares a node model or a deployment by
// decoding the outline of every project of a source. It is built on first
// use and kept until Invalidate.
type Index struct {
	src   Listing
	label string

	projects    []string
	nodes       map[string]string
	deployments map[string]string
}

// NewIndex creates an index over src.
func NewIndex(src Listing, label string) *Index {
	return &Index{src: src, label: label}
}

// ProjectNameForNodeModel tries the "<project>::<Node>" convention first,
// then the declared node names of every project.
func (i *Index) ProjectNameForNodeModel(name string) (string, bool) {
	i.build()
	if project, ok := modelfile.ProjectNameFromNodeModel(name); ok && slices.Contains(i.projects, project) {
		return project, true
	}
	project, ok := i.nodes[name]
	return project, ok
}

// ProjectNameForDeployment returns the project declaring the deployment.
func (i *Index) ProjectNameForDeployment(name string) (string, bool) {
	i.build()
	project, ok := i.deployments[name]
	return project, ok
}

// Invalidate drops the index after the source changed.
func (i *Index) Invalidate() {
	i.nodes = nil
	i.deployments = nil
	i.projects = nil
}

func (i *Index) build() {
	if i.nodes != nil {
		return
	}
	i.nodes = make(map[string]string)
	i.deployments = make(map[string]string)

	names, err := i.src.ProjectNames()
	if err != nil {
		log.ErrorErr(log.CatSource, "listing projects failed", err, "source", i.label)
		return
	}
	i.projects = names
	for _, n := range names {
		text, err := i.src.ProjectText(n)
		if err != nil {
			continue
		}
		def, err := modelfile.DecodeProject(text)
		if err != nil {
			log.Warn(log.CatSource, "skipping unreadable project while indexing", "source", i.label, "origin", text.Origin, "error", err)
			continue
		}
		for _, nd := range def.Nodes {
			i.nodes[nd.Name] = n
		}
		for _, dd := range def.Deployments {
			i.deployments[dd.Name] = n
		}
	}
	log.Debug(log.CatSource, "indexed projects", "source", i.label, "projects", len(names), "nodes", len(i.nodes))
}
