package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/jask/kgview/internal/database"
)

// ExportRepo keeps the export history.
type ExportRepo struct {
	db *sql.DB
}

func NewExportRepo(db *sql.DB) *ExportRepo {
	return &ExportRepo{db: db}
}

// Record stores an export and returns it with its id and timestamp filled.
func (r *ExportRepo) Record(ctx context.Context, path string, rows int) (Export, error) {
	e := Export{
		ID:        uuid.NewString(),
		Path:      path,
		Rows:      rows,
		CreatedAt: database.Now(),
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO exports(id, path, row_count, created_at) VALUES (?, ?, ?, ?)
	`, e.ID, e.Path, e.Rows, e.CreatedAt)
	if err != nil {
		return Export{}, err
	}
	return e, nil
}

// Recent lists the newest exports first.
func (r *ExportRepo) Recent(ctx context.Context, limit int) ([]Export, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, path, row_count, created_at FROM exports ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Export
	for rows.Next() {
		var e Export
		if err := rows.Scan(&e.ID, &e.Path, &e.Rows, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
