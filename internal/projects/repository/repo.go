package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/GoSim-25-26J-441/portfolio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/portfolio-backend/internal/storage"
)

const projectColumns = `id, nombre, descripcion, enlace, imagen`

// ProjectRepository provides persistence operations for projects
type ProjectRepository struct {
	db *storage.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *storage.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (domain.Project, error) {
	var (
		p     domain.Project
		link  sql.NullString
		image sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &link, &image); err != nil {
		return domain.Project{}, err
	}
	if link.Valid {
		p.Link = &link.String
	}
	if image.Valid {
		p.Image = &image.String
	}
	return p, nil
}

func persistenceErr(op string, err error) error {
	if storage.IsCheckViolation(err) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return &domain.PersistenceError{Op: op, Err: err}
}

// ListAll returns every project in id order.
func (r *ProjectRepository) ListAll(ctx context.Context) ([]domain.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects ORDER BY id`

	rows, err := r.db.Reader.QueryContext(ctx, r.db.Rebind(q))
	if err != nil {
		return nil, persistenceErr("list", err)
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, persistenceErr("list", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("list", err)
	}
	return out, nil
}

// Get returns the project with the given id, or domain.ErrNotFound.
func (r *ProjectRepository) Get(ctx context.Context, id int64) (*domain.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`

	p, err := scanProject(r.db.Reader.QueryRowContext(ctx, r.db.Rebind(q), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, persistenceErr("get", err)
	}
	return &p, nil
}

// Create inserts a new project and returns it with the assigned id.
func (r *ProjectRepository) Create(ctx context.Context, in domain.ProjectInput) (*domain.Project, error) {
	q := `
INSERT INTO projects (nombre, descripcion, enlace, imagen)
VALUES (?, ?, ?, ?)
RETURNING ` + projectColumns

	p, err := scanProject(r.db.Writer.QueryRowContext(ctx, r.db.Rebind(q),
		in.Name, in.Description, in.Link, in.Image))
	if err != nil {
		return nil, persistenceErr("create", err)
	}
	return &p, nil
}

// Update replaces every mutable field of the project. The boolean is false
// when no project has that id; that case is not an error.
func (r *ProjectRepository) Update(ctx context.Context, id int64, in domain.ProjectInput) (*domain.Project, bool, error) {
	q := `
UPDATE projects
SET nombre = ?, descripcion = ?, enlace = ?, imagen = ?
WHERE id = ?
RETURNING ` + projectColumns

	p, err := scanProject(r.db.Writer.QueryRowContext(ctx, r.db.Rebind(q),
		in.Name, in.Description, in.Link, in.Image, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, persistenceErr("update", err)
	}
	return &p, true, nil
}

// Delete removes the project. The boolean reports whether a row existed.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) (bool, error) {
	q := `DELETE FROM projects WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, r.db.Rebind(q), id)
	if err != nil {
		return false, persistenceErr("delete", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, persistenceErr("delete", err)
	}
	return rowsAffected > 0, nil
}

func (r *ProjectRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n); err != nil {
		return 0, persistenceErr("count", err)
	}
	return n, nil
}
