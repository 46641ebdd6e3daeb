// Package sources provides the text sources loaders read models from.
package sources

import (
	"errors"
	"fmt"
	"io/fs"
	stdpath "path"
	"strings"

	"github.com/zjrosen/nodekit/internal/domain/component"
	"github.com/zjrosen/nodekit/internal/metrics"
	"github.com/zjrosen/nodekit/internal/modelfile"
)

// Directory layout of a model tree.
const (
	ProjectsDir = "projects"
	TypekitsDir = "typekits"
)

var projectExtensions = []string{".yml", ".yaml", ".hcl"}

// FileSource reads models from a directory tree:
//
//	projects/<name>.yml|.yaml|.hcl
//	typekits/<name>.registry.yml
//	typekits/<name>.typelist.yml
type FileSource struct {
	fsys    fs.FS
	label   string
	metrics *metrics.Registry
	index   *Index
}

// FileOption configures a FileSource.
type FileOption func(*FileSource)

// WithLabel names the source in logs and metrics.
func WithLabel(label string) FileOption {
	return func(s *FileSource) { s.label = label }
}

// WithSourceMetrics records reads on m.
func WithSourceMetrics(m *metrics.Registry) FileOption {
	return func(s *FileSource) { s.metrics = m }
}

// NewFileSource creates a source over fsys.
func NewFileSource(fsys fs.FS, opts ...FileOption) *FileSource {
	s := &FileSource{fsys: fsys, label: "fs"}
	for _, opt := range opts {
		opt(s)
	}
	s.index = NewIndex(s, s.label)
	return s
}

// Label returns the source label.
func (s *FileSource) Label() string { return s.label }

// ProjectText implements loaders.TextSource.
func (s *FileSource) ProjectText(name string) (modelfile.ProjectText, error) {
	for _, ext := range projectExtensions {
		p := stdpath.Join(ProjectsDir, name+ext)
		data, err := fs.ReadFile(s.fsys, p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			s.metrics.RecordSourceRead(s.label, "error", 0)
			return modelfile.ProjectText{}, fmt.Errorf("read %s: %w", p, err)
		}
		format, _ := modelfile.FormatForPath(p)
		s.metrics.RecordSourceRead(s.label, "ok", len(data))
		return modelfile.ProjectText{Name: name, Origin: p, Format: format, Data: data}, nil
	}
	s.metrics.RecordSourceRead(s.label, "missing", 0)
	return modelfile.ProjectText{}, fmt.Errorf("%w: %s in %s", component.ErrProjectNotFound, name, s.label)
}

// TypekitText implements loaders.TextSource. The typelist document is
// required, the registry document is optional.
func (s *FileSource) TypekitText(name string) (modelfile.TypekitText, error) {
	base := stdpath.Join(TypekitsDir, name)
	typelist, err := fs.ReadFile(s.fsys, base+modelfile.TypelistSuffix)
	if errors.Is(err, fs.ErrNotExist) {
		s.metrics.RecordSourceRead(s.label, "missing", 0)
		return modelfile.TypekitText{}, fmt.Errorf("%w: %s in %s", component.ErrTypekitNotFound, name, s.label)
	}
	if err != nil {
		s.metrics.RecordSourceRead(s.label, "error", 0)
		return modelfile.TypekitText{}, fmt.Errorf("read %s: %w", base+modelfile.TypelistSuffix, err)
	}

	registry, err := fs.ReadFile(s.fsys, base+modelfile.RegistrySuffix)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.metrics.RecordSourceRead(s.label, "error", 0)
		return modelfile.TypekitText{}, fmt.Errorf("read %s: %w", base+modelfile.RegistrySuffix, err)
	}
	s.metrics.RecordSourceRead(s.label, "ok", len(typelist)+len(registry))
	return modelfile.TypekitText{Name: name, Origin: base, Registry: registry, Typelist: typelist}, nil
}

// ProjectNames implements loaders.Lister.
func (s *FileSource) ProjectNames() ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, ProjectsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := modelfile.FormatForPath(e.Name()); !ok {
			continue
		}
		n := strings.TrimSuffix(e.Name(), stdpath.Ext(e.Name()))
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names, nil
}

// TypekitNames implements loaders.Lister.
func (s *FileSource) TypekitNames() ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, TypekitsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if n, ok := strings.CutSuffix(e.Name(), modelfile.TypelistSuffix); ok && !e.IsDir() {
			names = append(names, n)
		}
	}
	return names, nil
}

// ProjectNameForNodeModel implements loaders.ProjectIndex.
func (s *FileSource) ProjectNameForNodeModel(name string) (string, bool) {
	return s.index.ProjectNameForNodeModel(name)
}

// ProjectNameForDeployment implements loaders.ProjectIndex.
func (s *FileSource) ProjectNameForDeployment(name string) (string, bool) {
	return s.index.ProjectNameForDeployment(name)
}

// Invalidate drops the name index after the tree changed.
func (s *FileSource) Invalidate() {
	s.index.Invalidate()
}
