// Package orchestrator 持有客户端应用状态，驱动窗口生命周期并与后端推送的事件对账。
package orchestrator

import (
	"context"
	"errors"

	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/events"
	"github.com/creamcroissant/fpbrowser/internal/wire"
)

var (
	// ErrProfileRunning 表示窗口正在运行或处于过渡状态，本地拒绝删除。
	ErrProfileRunning = errors.New("orchestrator: profile is running / 窗口正在运行，请先关闭")
	// ErrProfileNotFound 表示本地缓存中没有该窗口。
	ErrProfileNotFound = errors.New("orchestrator: profile not found / 窗口不存在")
	// ErrNameRequired 表示名称为空。
	ErrNameRequired = errors.New("orchestrator: name is required / 名称不能为空")
	// ErrDefaultGroup 表示默认分组不可删除。
	ErrDefaultGroup = errors.New("orchestrator: default group cannot be deleted / 默认分组不可删除")
	// ErrGroupNotEmpty 表示分组下仍有窗口。
	ErrGroupNotEmpty = errors.New("orchestrator: group is not empty / 分组下仍有窗口")
	// ErrInvalidProxy 表示代理参数不完整。
	ErrInvalidProxy = errors.New("orchestrator: invalid proxy config / 代理配置无效")
)

// ProfileBackend 是生命周期编排依赖的后端命令。
type ProfileBackend interface {
	GetProfiles(ctx context.Context, q wire.ProfileQuery) ([]domain.Profile, error)
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	CreateProfile(ctx context.Context, input domain.CreateProfileInput) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, id string, input domain.UpdateProfileInput) (*domain.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
	BatchDeleteProfiles(ctx context.Context, ids []string) (domain.BatchResult, error)
	BatchMoveToGroup(ctx context.Context, ids []string, group string) (domain.BatchResult, error)
	BatchDuplicateProfiles(ctx context.Context, ids []string) (domain.BatchResult, error)
	LaunchBrowser(ctx context.Context, id string) (*domain.Profile, error)
	StopBrowser(ctx context.Context, id string) error
	BatchLaunchBrowsers(ctx context.Context, ids []string) (domain.BatchResult, error)
	BatchStopBrowsers(ctx context.Context, ids []string) (domain.BatchResult, error)
}

// BinBackend 是回收站依赖的后端命令。
type BinBackend interface {
	GetRecycleBin(ctx context.Context) ([]domain.RecycledProfile, error)
	RestoreProfile(ctx context.Context, id string) error
	BatchRestoreProfiles(ctx context.Context, ids []string) (domain.BatchResult, error)
	PermanentlyDeleteProfile(ctx context.Context, id string) error
	BatchPermanentlyDeleteProfiles(ctx context.Context, ids []string) (domain.BatchResult, error)
	EmptyRecycleBin(ctx context.Context) (int64, error)
}

// ProxyBackend 是代理管理与检测依赖的后端命令。
type ProxyBackend interface {
	GetProxies(ctx context.Context) ([]domain.Proxy, error)
	CreateProxy(ctx context.Context, input domain.CreateProxyInput) (*domain.Proxy, error)
	UpdateProxy(ctx context.Context, id string, input domain.UpdateProxyInput) (*domain.Proxy, error)
	DeleteProxy(ctx context.Context, id string) error
	TestProxy(ctx context.Context, id string) (domain.ProxyCheckResult, error)
	TestProxyConfig(ctx context.Context, cfg domain.ProxyTestConfig) (domain.ProxyCheckResult, error)
	BatchTestProxies(ctx context.Context, ids []string) ([]domain.ProxyCheckResult, error)
	TestAllProxies(ctx context.Context) ([]domain.ProxyCheckResult, error)
	SetProxyAutoCheck(ctx context.Context, id string, enabled bool) error
}

// CatalogBackend 是分组与标签依赖的后端命令。
type CatalogBackend interface {
	GetGroups(ctx context.Context) ([]domain.Group, error)
	CreateGroup(ctx context.Context, input domain.CreateGroupInput) (*domain.Group, error)
	UpdateGroup(ctx context.Context, id string, input domain.UpdateGroupInput) (*domain.Group, error)
	DeleteGroup(ctx context.Context, id string) error
	GetTags(ctx context.Context) ([]domain.Tag, error)
	CreateTag(ctx context.Context, input domain.CreateTagInput) (*domain.Tag, error)
	UpdateTag(ctx context.Context, id string, input domain.UpdateTagInput) (*domain.Tag, error)
	DeleteTag(ctx context.Context, id string) error
	GetProfileTags(ctx context.Context, profileID string) ([]domain.Tag, error)
	SetProfileTags(ctx context.Context, profileID string, tagIDs []string) error
}

// Backend 是完整的后端命令面，*client.Client 实现了它。
type Backend interface {
	ProfileBackend
	BinBackend
	ProxyBackend
	CatalogBackend
}

// Subscriber 提供带自动重连的事件订阅。
type Subscriber interface {
	Subscribe(ctx context.Context, onConnect func(), fn func(events.Event)) error
}
