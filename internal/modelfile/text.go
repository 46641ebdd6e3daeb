// Package modelfile evaluates project and typekit text into models.
//
// Projects are written in YAML or HCL; both decode into the same
// ProjectDef tree, which Apply turns into node models and deployments on a
// component.Project. Typekits are two YAML documents: a registry of type
// definitions and a typelist naming what the typekit defines and exports.
package modelfile

import (
	stdpath "path"
	"strings"
)

// Format is the syntax a project is written in.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// Project and typekit file name suffixes.
const (
	RegistrySuffix = ".registry.yml"
	TypelistSuffix = ".typelist.yml"
)

// ProjectText is the source text of a project.
type ProjectText struct {
	Name   string // project name the text is expected to define
	Origin string // file path, object key or database row it came from
	Format Format
	Data   []byte
}

// TypekitText is the source text of a typekit.
type TypekitText struct {
	Name     string
	Origin   string
	Registry []byte // type definitions
	Typelist []byte // defined and exported type names
}

// FormatForPath guesses a project's format from its file extension.
func FormatForPath(p string) (Format, bool) {
	switch strings.ToLower(stdpath.Ext(p)) {
	case ".yml", ".yaml":
		return FormatYAML, true
	case ".hcl":
		return FormatHCL, true
	default:
		return "", false
	}
}

// ProjectNameFromNodeModel returns the project prefix of a "<project>::<Node>" name.
func ProjectNameFromNodeModel(name string) (string, bool) {
	project, _, ok := strings.Cut(name, "::")
	if !ok || project == "" {
		return "", false
	}
	return project, true
}
