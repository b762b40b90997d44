package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/domain"
)

const proxyColumns = `id, name, type, source, tag, host, port, username, password, ip_address,
	location, latency, used_count, auto_check, expire_at, bind_window, remark, status,
	last_checked_at, created_at, updated_at`

type proxyRepo struct {
	db *sql.DB
}

func (r *proxyRepo) Create(ctx context.Context, p *domain.Proxy) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = domain.ProxyPending
	}
	if p.Source == "" {
		p.Source = "custom"
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO proxies (`+proxyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.Name, string(p.Type), p.Source, p.Tag, p.Host, p.Port, p.Username, p.Password,
		p.IPAddress, p.Location, p.Latency, p.UsedCount, boolToInt(p.AutoCheck),
		nullableTime(p.ExpireAt), p.BindWindow, p.Remark, string(p.Status),
		nullableTime(p.LastCheckedAt), toMillis(now), toMillis(now),
	)
	return mapError(err)
}

func (r *proxyRepo) FindByID(ctx context.Context, id string) (*domain.Proxy, error) {
	return scanProxy(r.db.QueryRowContext(ctx, `SELECT `+proxyColumns+` FROM proxies WHERE id = ?`, id))
}

func (r *proxyRepo) FindByName(ctx context.Context, name string) (*domain.Proxy, error) {
	return scanProxy(r.db.QueryRowContext(ctx, `SELECT `+proxyColumns+` FROM proxies WHERE name = ?`, name))
}

func (r *proxyRepo) List(ctx context.Context) ([]domain.Proxy, error) {
	return r.query(ctx, `SELECT `+proxyColumns+` FROM proxies ORDER BY created_at DESC, rowid DESC`)
}

func (r *proxyRepo) ListAutoCheck(ctx context.Context) ([]domain.Proxy, error) {
	return r.query(ctx, `SELECT `+proxyColumns+` FROM proxies WHERE auto_check = 1 ORDER BY created_at ASC`)
}

// Update writes user-editable columns. Probe results are left alone.
func (r *proxyRepo) Update(ctx context.Context, p *domain.Proxy) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE proxies SET
			name = ?, type = ?, source = ?, tag = ?, host = ?, port = ?, username = ?, password = ?,
			used_count = ?, auto_check = ?, expire_at = ?, bind_window = ?, remark = ?, status = ?,
			updated_at = ?
		WHERE id = ?
	`,
		p.Name, string(p.Type), p.Source, p.Tag, p.Host, p.Port, p.Username, p.Password,
		p.UsedCount, boolToInt(p.AutoCheck), nullableTime(p.ExpireAt), p.BindWindow, p.Remark,
		string(p.Status), toMillis(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

func (r *proxyRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM proxies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// RecordCheck persists a probe outcome. A failed probe only flips the status, so the
// last known ip and location survive; a successful probe without an ip keeps the old one.
func (r *proxyRepo) RecordCheck(ctx context.Context, result domain.ProxyCheckResult) error {
	checkedAt := result.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now().UTC()
	}
	var (
		res sql.Result
		err error
	)
	if result.Success {
		res, err = r.db.ExecContext(ctx, `
			UPDATE proxies SET status = ?, ip_address = COALESCE(NULLIF(?, ''), ip_address), location = ?, latency = ?,
				last_checked_at = ?, updated_at = ?
			WHERE id = ?
		`, string(domain.ProxyActive), result.IP, result.Location, result.Latency,
			toMillis(checkedAt), toMillis(checkedAt), result.ProxyID)
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE proxies SET status = ?, last_checked_at = ?, updated_at = ? WHERE id = ?
		`, string(domain.ProxyError), toMillis(checkedAt), toMillis(checkedAt), result.ProxyID)
	}
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *proxyRepo) SetAutoCheck(ctx context.Context, id string, enabled bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE proxies SET auto_check = ?, updated_at = ? WHERE id = ?
	`, boolToInt(enabled), time.Now().UnixMilli(), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// MarkExpired flags proxies whose expire_at has passed.
func (r *proxyRepo) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE proxies SET status = ?, updated_at = ?
		WHERE expire_at IS NOT NULL AND expire_at <= ? AND status <> ?
	`, string(domain.ProxyExpired), toMillis(now), toMillis(now), string(domain.ProxyExpired))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *proxyRepo) query(ctx context.Context, query string, args ...any) ([]domain.Proxy, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Proxy
	for rows.Next() {
		p, err := scanProxy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanProxy(s scanner) (*domain.Proxy, error) {
	var (
		p                    domain.Proxy
		typ, status          string
		autoCheck            int
		expireAt, checkedAt  sql.NullInt64
		createdAt, updatedAt int64
	)
	err := s.Scan(
		&p.ID, &p.Name, &typ, &p.Source, &p.Tag, &p.Host, &p.Port, &p.Username, &p.Password,
		&p.IPAddress, &p.Location, &p.Latency, &p.UsedCount, &autoCheck, &expireAt,
		&p.BindWindow, &p.Remark, &status, &checkedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	p.Type = domain.ProxyType(typ)
	p.Status = domain.ProxyStatus(status)
	p.AutoCheck = autoCheck == 1
	p.ExpireAt = nullableTimePtr(expireAt)
	p.LastCheckedAt = nullableTimePtr(checkedAt)
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return &p, nil
}
