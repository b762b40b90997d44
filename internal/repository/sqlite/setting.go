package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/repository"
)

type settingRepo struct {
	db *sql.DB
}

func (r *settingRepo) Get(ctx context.Context, key string) (*repository.Setting, error) {
	var s repository.Setting
	err := r.db.QueryRowContext(ctx, `SELECT key, value, updated_at FROM settings WHERE key = ?`, key).
		Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

func (r *settingRepo) Upsert(ctx context.Context, s *repository.Setting) error {
	s.UpdatedAt = time.Now().Unix()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, s.Key, s.Value, s.UpdatedAt)
	return err
}

func (r *settingRepo) InsertIfAbsent(ctx context.Context, s *repository.Setting) (bool, error) {
	s.UpdatedAt = time.Now().Unix()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		WHERE TRIM(settings.value) = ''
	`, s.Key, s.Value, s.UpdatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
