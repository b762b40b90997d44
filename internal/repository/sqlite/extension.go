package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/domain"
)

type extensionRepo struct {
	db *sql.DB
}

func (r *extensionRepo) Create(ctx context.Context, e *domain.Extension) error {
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO extensions (id, name, version, description, enabled, sort, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Name, e.Version, e.Description, boolToInt(e.Enabled), e.Sort, toMillis(now), toMillis(now))
	return mapError(err)
}

func (r *extensionRepo) FindByID(ctx context.Context, id string) (*domain.Extension, error) {
	return scanExtension(r.db.QueryRowContext(ctx, `
		SELECT id, name, version, description, enabled, sort, created_at, updated_at
		FROM extensions WHERE id = ?
	`, id))
}

func (r *extensionRepo) List(ctx context.Context) ([]domain.Extension, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, version, description, enabled, sort, created_at, updated_at
		FROM extensions ORDER BY sort ASC, created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Extension
	for rows.Next() {
		e, err := scanExtension(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *extensionRepo) Update(ctx context.Context, e *domain.Extension) error {
	e.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE extensions SET name = ?, version = ?, description = ?, enabled = ?, sort = ?, updated_at = ?
		WHERE id = ?
	`, e.Name, e.Version, e.Description, boolToInt(e.Enabled), e.Sort, toMillis(e.UpdatedAt), e.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *extensionRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM extensions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func scanExtension(s scanner) (*domain.Extension, error) {
	var (
		e                    domain.Extension
		enabled              int
		createdAt, updatedAt int64
	)
	if err := s.Scan(&e.ID, &e.Name, &e.Version, &e.Description, &enabled, &e.Sort, &createdAt, &updatedAt); err != nil {
		return nil, mapError(err)
	}
	e.Enabled = enabled == 1
	e.CreatedAt = fromMillis(createdAt)
	e.UpdatedAt = fromMillis(updatedAt)
	return &e, nil
}
