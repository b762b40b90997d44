package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/repository"
)

type userRepo struct {
	db *sql.DB
}

func (r *userRepo) Create(ctx context.Context, u *repository.UserRecord) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)
	`, u.ID, u.Username, u.PasswordHash, toMillis(u.CreatedAt))
	return mapError(err)
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*repository.UserRecord, error) {
	return scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at FROM users WHERE id = ?
	`, id))
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*repository.UserRecord, error) {
	return scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at FROM users WHERE username = ?
	`, username))
}

func (r *userRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func scanUser(row *sql.Row) (*repository.UserRecord, error) {
	var (
		u         repository.UserRecord
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt); err != nil {
		return nil, mapError(err)
	}
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}
