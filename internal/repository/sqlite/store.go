// 文件路径: internal/repository/sqlite/store.go
// 模块说明: 基于 SQLite 的仓储实现集合。
package sqlite

import (
	"database/sql"

	"github.com/creamcroissant/fpbrowser/internal/repository"
)

// Store wires SQLite-backed repository implementations.
type Store struct {
	db         *sql.DB
	profiles   repository.ProfileRepository
	groups     repository.GroupRepository
	tags       repository.TagRepository
	proxies    repository.ProxyRepository
	extensions repository.ExtensionRepository
	users      repository.UserRepository
	settings   repository.SettingRepository
}

var _ repository.Store = (*Store)(nil)

// NewStore constructs a SQLite-backed repository store.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:         db,
		profiles:   &profileRepo{db: db},
		groups:     &groupRepo{db: db},
		tags:       &tagRepo{db: db},
		proxies:    &proxyRepo{db: db},
		extensions: &extensionRepo{db: db},
		users:      &userRepo{db: db},
		settings:   &settingRepo{db: db},
	}
}

func (s *Store) Profiles() repository.ProfileRepository {
	return s.profiles
}

func (s *Store) Groups() repository.GroupRepository {
	return s.groups
}

func (s *Store) Tags() repository.TagRepository {
	return s.tags
}

func (s *Store) Proxies() repository.ProxyRepository {
	return s.proxies
}

func (s *Store) Extensions() repository.ExtensionRepository {
	return s.extensions
}

func (s *Store) Users() repository.UserRepository {
	return s.users
}

func (s *Store) Settings() repository.SettingRepository {
	return s.settings
}

// DB exposes the underlying handle for migrations and health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}
