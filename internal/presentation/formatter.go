// Package presentation renders loaded models for the command line: JSON
// documents, styled text, Markdown, Graphviz and interface diffs.
package presentation

import (
	"encoding/json"
	"io"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatJSON writes v as indented JSON
func (f *Formatter) FormatJSON(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatListing formats the output of `nodekit list` as JSON
func (f *Formatter) FormatListing(listing ListingDTO) error {
	return f.FormatJSON(listing)
}

// FormatNodeModel formats a node model interface as JSON
func (f *Formatter) FormatNodeModel(model NodeModelDTO) error {
	return f.FormatJSON(model)
}

// FormatText writes pre-rendered text, adding a trailing newline when missing
func (f *Formatter) FormatText(text string) error {
	if len(text) == 0 || text[len(text)-1] != '\n' {
		text += "\n"
	}
	_, err := io.WriteString(f.writer, text)
	return err
}
