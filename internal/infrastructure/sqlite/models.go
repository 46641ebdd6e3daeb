package sqlite

import (
	"fmt"
	"time"

	"github.com/golang/snappy"

	"github.com/zjrosen/nodekit/internal/modelfile"
)

// ProjectRow represents a row of the projects table. Data is snappy
// compressed.
type ProjectRow struct {
	Name      string
	Format    string
	Origin    string
	Data      []byte
	Size      int   // uncompressed size
	UpdatedAt int64 // Unix timestamp
}

// TypekitRow represents a row of the typekits table. Both documents are
// snappy compressed.
type TypekitRow struct {
	Name      string
	Origin    string
	Registry  []byte // nullable
	Typelist  []byte
	UpdatedAt int64 // Unix timestamp
}

func toProjectRow(text modelfile.ProjectText, now time.Time) *ProjectRow {
	return &ProjectRow{
		Name:      text.Name,
		Format:    string(text.Format),
		Origin:    text.Origin,
		Data:      snappy.Encode(nil, text.Data),
		Size:      len(text.Data),
		UpdatedAt: now.Unix(),
	}
}

func (r *ProjectRow) toText() (modelfile.ProjectText, error) {
	data, err := snappy.Decode(nil, r.Data)
	if err != nil {
		return modelfile.ProjectText{}, fmt.Errorf("project %s: corrupt data: %w", r.Name, err)
	}
	return modelfile.ProjectText{
		Name:   r.Name,
		Origin: r.Origin,
		Format: modelfile.Format(r.Format),
		Data:   data,
	}, nil
}

func toTypekitRow(text modelfile.TypekitText, now time.Time) *TypekitRow {
	row := &TypekitRow{
		Name:      text.Name,
		Origin:    text.Origin,
		Typelist:  snappy.Encode(nil, text.Typelist),
		UpdatedAt: now.Unix(),
	}
	if len(text.Registry) > 0 {
		row.Registry = snappy.Encode(nil, text.Registry)
	}
	return row
}

func (r *TypekitRow) toText() (modelfile.TypekitText, error) {
	typelist, err := snappy.Decode(nil, r.Typelist)
	if err != nil {
		return modelfile.TypekitText{}, fmt.Errorf("typekit %s: corrupt typelist: %w", r.Name, err)
	}
	text := modelfile.TypekitText{Name: r.Name, Origin: r.Origin, Typelist: typelist}
	if r.Registry != nil {
		text.Registry, err = snappy.Decode(nil, r.Registry)
		if err != nil {
			return modelfile.TypekitText{}, fmt.Errorf("typekit %s: corrupt registry: %w", r.Name, err)
		}
	}
	return text, nil
}
