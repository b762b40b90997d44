package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/domain"
)

const tagSelect = `
	SELECT t.id, t.name, t.sort, t.remark, t.created_at, t.updated_at,
		(SELECT COUNT(*) FROM profile_tags pt JOIN profiles p ON p.id = pt.profile_id
			WHERE pt.tag_id = t.id AND p.deleted_at IS NULL)
	FROM tags t`

type tagRepo struct {
	db *sql.DB
}

func (r *tagRepo) Create(ctx context.Context, t *domain.Tag) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tags (id, name, sort, remark, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.Name, t.Sort, t.Remark, toMillis(now), toMillis(now))
	return mapError(err)
}

func (r *tagRepo) FindByID(ctx context.Context, id string) (*domain.Tag, error) {
	return scanTag(r.db.QueryRowContext(ctx, tagSelect+` WHERE t.id = ?`, id))
}

func (r *tagRepo) FindByName(ctx context.Context, name string) (*domain.Tag, error) {
	return scanTag(r.db.QueryRowContext(ctx, tagSelect+` WHERE t.name = ?`, name))
}

func (r *tagRepo) List(ctx context.Context) ([]domain.Tag, error) {
	return r.query(ctx, tagSelect+` ORDER BY t.sort ASC, t.created_at DESC, t.rowid DESC`)
}

func (r *tagRepo) Update(ctx context.Context, t *domain.Tag) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE tags SET name = ?, sort = ?, remark = ?, updated_at = ? WHERE id = ?
	`, t.Name, t.Sort, t.Remark, toMillis(t.UpdatedAt), t.ID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func (r *tagRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *tagRepo) ListForProfile(ctx context.Context, profileID string) ([]domain.Tag, error) {
	return r.query(ctx, tagSelect+`
		JOIN profile_tags own ON own.tag_id = t.id
		WHERE own.profile_id = ?
		ORDER BY t.sort ASC, t.created_at DESC, t.rowid DESC
	`, profileID)
}

// SetForProfile replaces the tag set of a profile.
func (r *tagRepo) SetForProfile(ctx context.Context, profileID string, tagIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM profile_tags WHERE profile_id = ?`, profileID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO profile_tags (profile_id, tag_id) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, tagID := range tagIDs {
		if _, err := stmt.ExecContext(ctx, profileID, tagID); err != nil {
			return mapError(err)
		}
	}
	return tx.Commit()
}

func (r *tagRepo) query(ctx context.Context, query string, args ...any) ([]domain.Tag, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func scanTag(s scanner) (*domain.Tag, error) {
	var (
		t                    domain.Tag
		createdAt, updatedAt int64
	)
	if err := s.Scan(&t.ID, &t.Name, &t.Sort, &t.Remark, &createdAt, &updatedAt, &t.WindowCount); err != nil {
		return nil, mapError(err)
	}
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return &t, nil
}
