package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/domain"
)

const groupSelect = `
	SELECT g.id, g.name, g.sort, g.permission, g.remark, g.icon, g.created_at, g.updated_at,
		(SELECT COUNT(*) FROM profiles p WHERE p.group_id = g.id AND p.deleted_at IS NULL)
	FROM profile_groups g`

type groupRepo struct {
	db *sql.DB
}

func (r *groupRepo) Create(ctx context.Context, g *domain.Group) error {
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	if g.Permission == "" {
		g.Permission = domain.PermissionEditable
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profile_groups (id, name, sort, permission, remark, icon, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, g.ID, g.Name, g.Sort, string(g.Permission), g.Remark, g.Icon, toMillis(now), toMillis(now))
	return mapError(err)
}

func (r *groupRepo) FindByID(ctx context.Context, id string) (*domain.Group, error) {
	return scanGroup(r.db.QueryRowContext(ctx, groupSelect+` WHERE g.id = ?`, id))
}

func (r *groupRepo) FindByName(ctx context.Context, name string) (*domain.Group, error) {
	return scanGroup(r.db.QueryRowContext(ctx, groupSelect+` WHERE g.name = ?`, name))
}

func (r *groupRepo) List(ctx context.Context) ([]domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, groupSelect+` ORDER BY g.sort ASC, g.created_at ASC, g.rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (r *groupRepo) Update(ctx context.Context, g *domain.Group) error {
	g.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE profile_groups SET name = ?, sort = ?, permission = ?, remark = ?, icon = ?, updated_at = ?
		WHERE id = ?
	`, g.Name, g.Sort, string(g.Permission), g.Remark, g.Icon, toMillis(g.UpdatedAt), g.ID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

// Delete removes the group; profiles parked in the recycle bin fall back to the default group.
func (r *groupRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE profiles SET group_id = ? WHERE group_id = ? AND deleted_at IS NOT NULL
	`, domain.DefaultGroupID, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM profile_groups WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}

func scanGroup(s scanner) (*domain.Group, error) {
	var (
		g                    domain.Group
		permission           string
		createdAt, updatedAt int64
	)
	if err := s.Scan(&g.ID, &g.Name, &g.Sort, &permission, &g.Remark, &g.Icon, &createdAt, &updatedAt, &g.ProfileCount); err != nil {
		return nil, mapError(err)
	}
	g.Permission = domain.GroupPermission(permission)
	g.CreatedAt = fromMillis(createdAt)
	g.UpdatedAt = fromMillis(updatedAt)
	return &g, nil
}
