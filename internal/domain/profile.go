// 文件路径: internal/domain/profile.go
// 模块说明: 窗口环境（Profile）的内存模型，字段采用 camelCase JSON。
package domain

import "time"

// ProfileStatus 表示窗口环境的运行状态。
type ProfileStatus string

const (
	StatusStopped   ProfileStatus = "stopped"
	StatusLaunching ProfileStatus = "launching"
	StatusRunning   ProfileStatus = "running"
	StatusStopping  ProfileStatus = "stopping"
	StatusError     ProfileStatus = "error"
)

// Pending 表示请求已发出但尚未被后端确认的过渡状态。
func (s ProfileStatus) Pending() bool {
	return s == StatusLaunching || s == StatusStopping
}

// Valid 判断状态值是否属于已知集合。
func (s ProfileStatus) Valid() bool {
	switch s {
	case StatusStopped, StatusLaunching, StatusRunning, StatusStopping, StatusError:
		return true
	}
	return false
}

// DefaultGroupID 是不可删除的默认分组。
const DefaultGroupID = "default"

// Profile 是一个隔离的浏览器身份配置。
type Profile struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Group        string        `json:"group"`
	Status       ProfileStatus `json:"status"`
	Fingerprint  Fingerprint   `json:"fingerprint"`
	Proxy        *ProxyConfig  `json:"proxy,omitempty"`
	Preferences  *Preferences  `json:"preferences,omitempty"`
	Remark       string        `json:"remark,omitempty"`
	LastOpenTime *time.Time    `json:"lastOpenTime,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Clone 返回深拷贝，缓存对外只暴露副本。
func (p Profile) Clone() Profile {
	out := p
	out.Fingerprint = p.Fingerprint.Clone()
	if p.Proxy != nil {
		proxy := *p.Proxy
		out.Proxy = &proxy
	}
	if p.Preferences != nil {
		prefs := p.Preferences.Clone()
		out.Preferences = &prefs
	}
	if p.LastOpenTime != nil {
		t := *p.LastOpenTime
		out.LastOpenTime = &t
	}
	return out
}

// RecycledProfile 是回收站中的窗口环境。
type RecycledProfile struct {
	Profile
	DeletedAt time.Time `json:"deletedAt"`
}

// ProxyType 是代理协议，内存中统一使用小写。
type ProxyType string

const (
	ProxyHTTP   ProxyType = "http"
	ProxyHTTPS  ProxyType = "https"
	ProxySOCKS5 ProxyType = "socks5"
	ProxyDirect ProxyType = "direct"
)

// ProxyConfig 是窗口环境内嵌的代理配置。
type ProxyConfig struct {
	Type     ProxyType `json:"type"`
	Host     string    `json:"host"`
	Port     int       `json:"port"`
	Username string    `json:"username,omitempty"`
	Password string    `json:"password,omitempty"`
}

// Preferences 是窗口环境的偏好设置。
type Preferences struct {
	WindowName               bool     `json:"windowName"`
	CustomBookmarks          bool     `json:"customBookmarks"`
	Extensions               []string `json:"extensions,omitempty"`
	StartupPage              string   `json:"startupPage"`
	StartupURL               string   `json:"startupUrl,omitempty"`
	SyncBookmarks            bool     `json:"syncBookmarks"`
	SyncHistory              bool     `json:"syncHistory"`
	SyncTabs                 bool     `json:"syncTabs"`
	SyncCookies              bool     `json:"syncCookies"`
	SyncExtensions           bool     `json:"syncExtensions"`
	SyncPasswords            bool     `json:"syncPasswords"`
	SyncLocalStorage         bool     `json:"syncLocalStorage"`
	ClearCacheOnStart        bool     `json:"clearCacheOnStart"`
	ClearCookiesOnStart      bool     `json:"clearCookiesOnStart"`
	ClearHistoryOnExit       bool     `json:"clearHistoryOnExit"`
	ClearCookiesOnExit       bool     `json:"clearCookiesOnExit"`
	ClearCacheOnExit         bool     `json:"clearCacheOnExit"`
	RandomFingerprintOnStart bool     `json:"randomFingerprintOnStart"`
	StopOnNetworkError       bool     `json:"stopOnNetworkError"`
	StopOnIPChange           bool     `json:"stopOnIpChange"`
	URLBlacklist             string   `json:"urlBlacklist,omitempty"`
	URLWhitelist             string   `json:"urlWhitelist,omitempty"`
}

// Clone 拷贝切片字段。
func (p Preferences) Clone() Preferences {
	out := p
	if p.Extensions != nil {
		out.Extensions = append([]string(nil), p.Extensions...)
	}
	return out
}

// CreateProfileInput 是创建窗口环境的入参；Fingerprint 为未经过滤的补丁。
type CreateProfileInput struct {
	Name        string         `json:"name"`
	Group       string         `json:"group,omitempty"`
	Fingerprint map[string]any `json:"fingerprint,omitempty"`
	Proxy       *ProxyConfig   `json:"proxy,omitempty"`
	Preferences *Preferences   `json:"preferences,omitempty"`
	Remark      string         `json:"remark,omitempty"`
}

// UpdateProfileInput 是部分更新入参，nil 字段保持不变。
type UpdateProfileInput struct {
	Name        *string        `json:"name,omitempty"`
	Group       *string        `json:"group,omitempty"`
	Fingerprint map[string]any `json:"fingerprint,omitempty"`
	Proxy       *ProxyConfig   `json:"proxy,omitempty"`
	Preferences *Preferences   `json:"preferences,omitempty"`
	Remark      *string        `json:"remark,omitempty"`
}

// ProfileFilter 约束窗口列表的本地筛选。
type ProfileFilter struct {
	Status  ProfileStatus
	Keyword string
	Group   string
}
