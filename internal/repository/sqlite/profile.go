package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/repository"
)

const profileColumns = `id, name, group_id, status, fingerprint, proxy, preferences, remark,
	last_open_at, created_at, updated_at, deleted_at`

type profileRepo struct {
	db *sql.DB
}

func (r *profileRepo) Create(ctx context.Context, p *domain.Profile) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Group == "" {
		p.Group = domain.DefaultGroupID
	}
	if p.Status == "" {
		p.Status = domain.StatusStopped
	}

	fp, proxy, prefs, err := encodeProfileBlobs(p)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO profiles (
			id, name, group_id, status, fingerprint, proxy, preferences, remark,
			last_open_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.Name, p.Group, string(p.Status), fp, proxy, prefs, p.Remark,
		nullableTime(p.LastOpenTime), toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
	)
	return mapError(err)
}

func (r *profileRepo) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ? AND deleted_at IS NULL`, id)
	rec, err := scanProfile(row)
	if err != nil {
		return nil, err
	}
	return &rec.Profile, nil
}

func (r *profileRepo) List(ctx context.Context, filter repository.ProfileListFilter) ([]domain.Profile, error) {
	var (
		where = []string{"deleted_at IS NULL"}
		args  []any
	)
	if filter.Group != "" {
		where = append(where, "group_id = ?")
		args = append(args, filter.Group)
	}
	if len(filter.Statuses) > 0 {
		where = append(where, fmt.Sprintf("status IN (%s)", placeholders(len(filter.Statuses))))
		for _, s := range filter.Statuses {
			args = append(args, string(s))
		}
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + kw + "%"
		where = append(where, "(name LIKE ? OR id LIKE ? OR remark LIKE ?)")
		args = append(args, like, like, like)
	}

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, rowid DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Profile
	for rows.Next() {
		rec, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec.Profile)
	}
	return out, rows.Err()
}

// Update 不写 status 与 last_open_at，二者只由 UpdateStatus 维护。
func (r *profileRepo) Update(ctx context.Context, p *domain.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	fp, proxy, prefs, err := encodeProfileBlobs(p)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET
			name = ?, group_id = ?, fingerprint = ?, proxy = ?, preferences = ?,
			remark = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`,
		p.Name, p.Group, fp, proxy, prefs,
		p.Remark, toMillis(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

// UpdateStatus leaves last_open_at untouched when lastOpen is nil.
func (r *profileRepo) UpdateStatus(ctx context.Context, id string, status domain.ProfileStatus, lastOpen *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET status = ?, last_open_at = COALESCE(?, last_open_at), updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, string(status), nullableTime(lastOpen), time.Now().UnixMilli(), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *profileRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET deleted_at = ?, status = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, toMillis(at), string(domain.StatusStopped), toMillis(at), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *profileRepo) ListDeleted(ctx context.Context) ([]domain.RecycledProfile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+profileColumns+` FROM profiles
		WHERE deleted_at IS NOT NULL
		ORDER BY deleted_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RecycledProfile
	for rows.Next() {
		rec, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.RecycledProfile{Profile: rec.Profile, DeletedAt: fromMillis(rec.deletedAt.Int64)})
	}
	return out, rows.Err()
}

func (r *profileRepo) Restore(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET deleted_at = NULL, updated_at = ?
		WHERE id = ? AND deleted_at IS NOT NULL
	`, time.Now().UnixMilli(), id)
	if err != nil {
		return err
	}
	return r.binResult(ctx, res, id)
}

func (r *profileRepo) Purge(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ? AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return err
	}
	return r.binResult(ctx, res, id)
}

func (r *profileRepo) PurgeAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE deleted_at IS NOT NULL`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *profileRepo) PurgeDeletedBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE deleted_at IS NOT NULL AND deleted_at < ?`, toMillis(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ResetTransient marks every non-stopped live profile as stopped. Used at startup,
// when no browser process from a previous run can still be tracked.
func (r *profileRepo) ResetTransient(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET status = ?, updated_at = ?
		WHERE deleted_at IS NULL AND status <> ?
	`, string(domain.StatusStopped), time.Now().UnixMilli(), string(domain.StatusStopped))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// binResult distinguishes a missing row from a live row outside the bin.
func (r *profileRepo) binResult(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM profiles WHERE id = ? AND deleted_at IS NULL`, id).Scan(&exists)
	if err == nil {
		return repository.ErrNotDeleted
	}
	return mapError(err)
}

type profileRecord struct {
	domain.Profile
	deletedAt sql.NullInt64
}

func scanProfile(s scanner) (*profileRecord, error) {
	var (
		rec                  profileRecord
		status, fp           string
		proxy, prefs         sql.NullString
		lastOpen             sql.NullInt64
		createdAt, updatedAt int64
	)
	err := s.Scan(
		&rec.ID, &rec.Name, &rec.Group, &status, &fp, &proxy, &prefs, &rec.Remark,
		&lastOpen, &createdAt, &updatedAt, &rec.deletedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	rec.Status = domain.ProfileStatus(status)
	rec.Fingerprint = domain.DefaultFingerprint()
	if fp != "" {
		if err := json.Unmarshal([]byte(fp), &rec.Fingerprint); err != nil {
			return nil, fmt.Errorf("decode fingerprint of %s: %w", rec.ID, err)
		}
	}
	if rec.Proxy, err = decodeJSON[domain.ProxyConfig](proxy); err != nil {
		return nil, fmt.Errorf("decode proxy of %s: %w", rec.ID, err)
	}
	if rec.Preferences, err = decodeJSON[domain.Preferences](prefs); err != nil {
		return nil, fmt.Errorf("decode preferences of %s: %w", rec.ID, err)
	}
	rec.LastOpenTime = nullableTimePtr(lastOpen)
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return &rec, nil
}

func encodeProfileBlobs(p *domain.Profile) (string, sql.NullString, sql.NullString, error) {
	fp, err := json.Marshal(p.Fingerprint)
	if err != nil {
		return "", sql.NullString{}, sql.NullString{}, fmt.Errorf("encode fingerprint: %w", err)
	}
	proxy, err := encodeJSON(p.Proxy)
	if err != nil {
		return "", sql.NullString{}, sql.NullString{}, fmt.Errorf("encode proxy: %w", err)
	}
	prefs, err := encodeJSON(p.Preferences)
	if err != nil {
		return "", sql.NullString{}, sql.NullString{}, fmt.Errorf("encode preferences: %w", err)
	}
	return string(fp), proxy, prefs, nil
}
