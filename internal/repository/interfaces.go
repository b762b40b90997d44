// 文件路径: internal/repository/interfaces.go
// 模块说明: 每个聚合根对应的仓储接口，sqlite 包提供实现。
package repository

import (
	"context"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/domain"
)

// Store 暴露每个聚合根对应的仓储接口。
type Store interface {
	Profiles() ProfileRepository
	Groups() GroupRepository
	Tags() TagRepository
	Proxies() ProxyRepository
	Extensions() ExtensionRepository
	Users() UserRepository
	Settings() SettingRepository
}

// ProfileRepository 管理浏览器环境，删除为软删除。
// 除 ListDeleted/Restore/Purge* 外，所有方法只作用于未删除的记录。
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	FindByID(ctx context.Context, id string) (*domain.Profile, error)
	List(ctx context.Context, filter ProfileListFilter) ([]domain.Profile, error)
	Update(ctx context.Context, profile *domain.Profile) error
	UpdateStatus(ctx context.Context, id string, status domain.ProfileStatus, lastOpen *time.Time) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	ListDeleted(ctx context.Context) ([]domain.RecycledProfile, error)
	Restore(ctx context.Context, id string) error
	Purge(ctx context.Context, id string) error
	PurgeAll(ctx context.Context) (int64, error)
	PurgeDeletedBefore(ctx context.Context, before time.Time) (int64, error)
	ResetTransient(ctx context.Context) (int64, error)
}

// GroupRepository 管理分组，列表附带未删除环境数量。
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	FindByID(ctx context.Context, id string) (*domain.Group, error)
	FindByName(ctx context.Context, name string) (*domain.Group, error)
	List(ctx context.Context) ([]domain.Group, error)
	Update(ctx context.Context, group *domain.Group) error
	Delete(ctx context.Context, id string) error
}

// TagRepository 管理标签及其与环境的关联。
type TagRepository interface {
	Create(ctx context.Context, tag *domain.Tag) error
	FindByID(ctx context.Context, id string) (*domain.Tag, error)
	FindByName(ctx context.Context, name string) (*domain.Tag, error)
	List(ctx context.Context) ([]domain.Tag, error)
	Update(ctx context.Context, tag *domain.Tag) error
	Delete(ctx context.Context, id string) error
	ListForProfile(ctx context.Context, profileID string) ([]domain.Tag, error)
	SetForProfile(ctx context.Context, profileID string, tagIDs []string) error
}

// ProxyRepository 管理代理。探测结果只能经 RecordCheck 写入。
type ProxyRepository interface {
	Create(ctx context.Context, proxy *domain.Proxy) error
	FindByID(ctx context.Context, id string) (*domain.Proxy, error)
	FindByName(ctx context.Context, name string) (*domain.Proxy, error)
	List(ctx context.Context) ([]domain.Proxy, error)
	ListAutoCheck(ctx context.Context) ([]domain.Proxy, error)
	Update(ctx context.Context, proxy *domain.Proxy) error
	Delete(ctx context.Context, id string) error
	RecordCheck(ctx context.Context, result domain.ProxyCheckResult) error
	SetAutoCheck(ctx context.Context, id string, enabled bool) error
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}

// ExtensionRepository 管理扩展。
type ExtensionRepository interface {
	Create(ctx context.Context, ext *domain.Extension) error
	FindByID(ctx context.Context, id string) (*domain.Extension, error)
	List(ctx context.Context) ([]domain.Extension, error)
	Update(ctx context.Context, ext *domain.Extension) error
	Delete(ctx context.Context, id string) error
}

// UserRepository 定义用户相关数据访问方法。
type UserRepository interface {
	Create(ctx context.Context, user *UserRecord) error
	FindByID(ctx context.Context, id string) (*UserRecord, error)
	FindByUsername(ctx context.Context, username string) (*UserRecord, error)
	Count(ctx context.Context) (int64, error)
}

// SettingRepository 处理键值配置的存取。
type SettingRepository interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Upsert(ctx context.Context, setting *Setting) error
	// InsertIfAbsent 仅在键不存在或值为空时写入，返回是否写入。
	InsertIfAbsent(ctx context.Context, setting *Setting) (bool, error)
}
