package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/nodekit/internal/domain/component"
	"github.com/zjrosen/nodekit/internal/log"
	"github.com/zjrosen/nodekit/internal/metrics"
	"github.com/zjrosen/nodekit/internal/modelfile"
)

// DefaultQueryTimeout bounds every query issued by a ModelStore.
const DefaultQueryTimeout = 5 * time.Second

// ModelStore serves model text stored in the database. It implements
// loaders.TextSource, loaders.Lister and loaders.ProjectIndex.
type ModelStore struct {
	db      *sql.DB
	timeout time.Duration
	label   string
	metrics *metrics.Registry
	now     func() time.Time
}

// StoreOption configures a ModelStore.
type StoreOption func(*ModelStore)

// WithQueryTimeout overrides DefaultQueryTimeout.
func WithQueryTimeout(d time.Duration) StoreOption {
	return func(s *ModelStore) { s.timeout = d }
}

// WithStoreMetrics records reads on m.
func WithStoreMetrics(m *metrics.Registry) StoreOption {
	return func(s *ModelStore) { s.metrics = m }
}

func newModelStore(db *sql.DB, opts ...StoreOption) *ModelStore {
	s := &ModelStore{db: db, timeout: DefaultQueryTimeout, label: "sqlite", now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ModelStore) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// ProjectText implements loaders.TextSource.
func (s *ModelStore) ProjectText(name string) (modelfile.ProjectText, error) {
	ctx, cancel := s.context()
	defer cancel()

	var row ProjectRow
	err := s.db.QueryRowContext(ctx,
		`SELECT name, format, origin, data, size, updated_at FROM projects WHERE name = ?`, name,
	).Scan(&row.Name, &row.Format, &row.Origin, &row.Data, &row.Size, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		s.metrics.RecordSourceRead(s.label, "missing", 0)
		return modelfile.ProjectText{}, fmt.Errorf("%w: %s in %s", component.ErrProjectNotFound, name, s.label)
	}
	if err != nil {
		s.metrics.RecordSourceRead(s.label, "error", 0)
		return modelfile.ProjectText{}, fmt.Errorf("failed to read project %s: %w", name, err)
	}
	s.metrics.RecordSourceRead(s.label, "ok", row.Size)
	return row.toText()
}

// TypekitText implements loaders.TextSource.
func (s *ModelStore) TypekitText(name string) (modelfile.TypekitText, error) {
	ctx, cancel := s.context()
	defer cancel()

	var row TypekitRow
	err := s.db.QueryRowContext(ctx,
		`SELECT name, origin, registry, typelist, updated_at FROM typekits WHERE name = ?`, name,
	).Scan(&row.Name, &row.Origin, &row.Registry, &row.Typelist, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		s.metrics.RecordSourceRead(s.label, "missing", 0)
		return modelfile.TypekitText{}, fmt.Errorf("%w: %s in %s", component.ErrTypekitNotFound, name, s.label)
	}
	if err != nil {
		s.metrics.RecordSourceRead(s.label, "error", 0)
		return modelfile.TypekitText{}, fmt.Errorf("failed to read typekit %s: %w", name, err)
	}
	text, err := row.toText()
	if err == nil {
		s.metrics.RecordSourceRead(s.label, "ok", len(text.Typelist)+len(text.Registry))
	}
	return text, err
}

// ProjectNames implements loaders.Lister.
func (s *ModelStore) ProjectNames() ([]string, error) {
	return s.names(`SELECT name FROM projects ORDER BY name`)
}

// TypekitNames implements loaders.Lister.
func (s *ModelStore) TypekitNames() ([]string, error) {
	return s.names(`SELECT name FROM typekits ORDER BY name`)
}

func (s *ModelStore) names(query string) ([]string, error) {
	ctx, cancel := s.context()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan model name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// ProjectNameForNodeModel implements loaders.ProjectIndex.
func (s *ModelStore) ProjectNameForNodeModel(name string) (string, bool) {
	return s.lookupIndex("node_model", name)
}

// ProjectNameForDeployment implements loaders.ProjectIndex.
func (s *ModelStore) ProjectNameForDeployment(name string) (string, bool) {
	return s.lookupIndex("deployment", name)
}

func (s *ModelStore) lookupIndex(kind, name string) (string, bool) {
	ctx, cancel := s.context()
	defer cancel()

	var project string
	err := s.db.QueryRowContext(ctx,
		`SELECT project FROM model_index WHERE kind = ? AND model = ?`, kind, name,
	).Scan(&project)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.ErrorErr(log.CatDB, "index lookup failed", err, "kind", kind, "model", name)
		}
		return "", false
	}
	return project, true
}

// PutProject stores text, replacing any previous version, and indexes the
// node models and deployments it declares.
func (s *ModelStore) PutProject(ctx context.Context, text modelfile.ProjectText) error {
	def, err := modelfile.DecodeProject(text)
	if err != nil {
		return err
	}
	if def.Name != text.Name {
		return fmt.Errorf("%w: %s defines project %q, not %q", component.ErrInvalidArgument, text.Origin, def.Name, text.Name)
	}
	row := toProjectRow(text, s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO projects (name, format, origin, data, size, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET format = excluded.format, origin = excluded.origin,
			data = excluded.data, size = excluded.size, updated_at = excluded.updated_at`,
		row.Name, row.Format, row.Origin, row.Data, row.Size, row.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to save project %s: %w", row.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM model_index WHERE project = ?`, row.Name); err != nil {
		return fmt.Errorf("failed to clear index of %s: %w", row.Name, err)
	}
	for _, nd := range def.Nodes {
		if err := insertIndex(ctx, tx, "node_model", nd.Name, row.Name); err != nil {
			return err
		}
	}
	for _, dd := range def.Deployments {
		if err := insertIndex(ctx, tx, "deployment", dd.Name, row.Name); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit project %s: %w", row.Name, err)
	}
	log.Debug(log.CatDB, "stored project", "project", row.Name, "bytes", row.Size, "compressed", len(row.Data))
	return nil
}

func insertIndex(ctx context.Context, tx *sql.Tx, kind, model, project string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO model_index (kind, model, project) VALUES (?, ?, ?)`, kind, model, project)
	if err != nil {
		return fmt.Errorf("%w: %s %s of %s is already indexed: %w", component.ErrAlreadyRegistered, kind, model, project, err)
	}
	return nil
}

// PutTypekit stores text, replacing any previous version.
func (s *ModelStore) PutTypekit(ctx context.Context, text modelfile.TypekitText) error {
	row := toTypekitRow(text, s.now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO typekits (name, origin, registry, typelist, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET origin = excluded.origin, registry = excluded.registry,
			typelist = excluded.typelist, updated_at = excluded.updated_at`,
		row.Name, row.Origin, row.Registry, row.Typelist, row.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save typekit %s: %w", row.Name, err)
	}
	log.Debug(log.CatDB, "stored typekit", "typekit", row.Name)
	return nil
}

// DeleteProject removes a project and its index entries.
func (s *ModelStore) DeleteProject(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete project %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ImportSource is what Import reads from.
type ImportSource interface {
	ProjectText(name string) (modelfile.ProjectText, error)
	TypekitText(name string) (modelfile.TypekitText, error)
	ProjectNames() ([]string, error)
	TypekitNames() ([]string, error)
}

// ImportResult counts what Import stored.
type ImportResult struct {
	Projects int
	Typekits int
}

// Import copies every typekit and project src can list.
func (s *ModelStore) Import(ctx context.Context, src ImportSource) (ImportResult, error) {
	var res ImportResult

	typekits, err := src.TypekitNames()
	if err != nil {
		return res, err
	}
	for _, name := range typekits {
		text, err := src.TypekitText(name)
		if err != nil {
			return res, err
		}
		if err := s.PutTypekit(ctx, text); err != nil {
			return res, err
		}
		res.Typekits++
	}

	projects, err := src.ProjectNames()
	if err != nil {
		return res, err
	}
	for _, name := range projects {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		text, err := src.ProjectText(name)
		if err != nil {
			return res, err
		}
		if err := s.PutProject(ctx, text); err != nil {
			return res, err
		}
		res.Projects++
	}
	log.Info(log.CatDB, "import finished", "projects", res.Projects, "typekits", res.Typekits)
	return res, nil
}
