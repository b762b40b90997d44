package wire

import (
	"fmt"
	"strings"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/domain"
)

// ProfileDTO 是后端返回的窗口环境（snake_case）。
type ProfileDTO struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Group        string             `json:"group"`
	Remark       string             `json:"remark"`
	Status       string             `json:"status"`
	Fingerprint  FingerprintPayload `json:"fingerprint"`
	Proxy        *ProxyDTO          `json:"proxy"`
	Preferences  *PreferencesDTO    `json:"preferences"`
	LastOpenTime string             `json:"last_open_time,omitempty"`
	CreatedAt    string             `json:"created_at"`
	UpdatedAt    string             `json:"updated_at"`
}

// RecycledProfileDTO 是回收站条目。
type RecycledProfileDTO struct {
	ProfileDTO
	DeletedAt string `json:"deleted_at"`
}

// ProxyDTO 是窗口内嵌代理；type 使用首字母大写的枚举值。
type ProxyDTO struct {
	Type     string `json:"type"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// PreferencesDTO 是偏好设置的线上结构。
type PreferencesDTO struct {
	WindowName               bool     `json:"window_name"`
	CustomBookmarks          bool     `json:"custom_bookmarks"`
	Extensions               []string `json:"extensions,omitempty"`
	StartupPage              string   `json:"startup_page"`
	StartupURL               string   `json:"startup_url,omitempty"`
	SyncBookmarks            bool     `json:"sync_bookmarks"`
	SyncHistory              bool     `json:"sync_history"`
	SyncTabs                 bool     `json:"sync_tabs"`
	SyncCookies              bool     `json:"sync_cookies"`
	SyncExtensions           bool     `json:"sync_extensions"`
	SyncPasswords            bool     `json:"sync_passwords"`
	SyncLocalStorage         bool     `json:"sync_local_storage"`
	ClearCacheOnStart        bool     `json:"clear_cache_on_start"`
	ClearCookiesOnStart      bool     `json:"clear_cookies_on_start"`
	ClearHistoryOnExit       bool     `json:"clear_history_on_exit"`
	ClearCookiesOnExit       bool     `json:"clear_cookies_on_exit"`
	ClearCacheOnExit         bool     `json:"clear_cache_on_exit"`
	RandomFingerprintOnStart bool     `json:"random_fingerprint_on_start"`
	StopOnNetworkError       bool     `json:"stop_on_network_error"`
	StopOnIPChange           bool     `json:"stop_on_ip_change"`
	URLBlacklist             string   `json:"url_blacklist,omitempty"`
	URLWhitelist             string   `json:"url_whitelist,omitempty"`
}

// CreateProfileRequest 是 create_profile 的参数；fingerprint 为 snake_case 补丁。
type CreateProfileRequest struct {
	Name        string          `json:"name"`
	Group       string          `json:"group,omitempty"`
	Fingerprint map[string]any  `json:"fingerprint,omitempty"`
	Proxy       *ProxyDTO       `json:"proxy,omitempty"`
	Preferences *PreferencesDTO `json:"preferences,omitempty"`
	Remark      string          `json:"remark,omitempty"`
}

// UpdateProfileRequest 是 update_profile 的参数。
type UpdateProfileRequest struct {
	ID          string          `json:"id"`
	Name        *string         `json:"name,omitempty"`
	Group       *string         `json:"group,omitempty"`
	Fingerprint map[string]any  `json:"fingerprint,omitempty"`
	Proxy       *ProxyDTO       `json:"proxy,omitempty"`
	Preferences *PreferencesDTO `json:"preferences,omitempty"`
	Remark      *string         `json:"remark,omitempty"`
}

// ProfileToWire 把内存模型编码为线上结构。
func ProfileToWire(p domain.Profile) ProfileDTO {
	dto := ProfileDTO{
		ID:          p.ID,
		Name:        p.Name,
		Group:       p.Group,
		Remark:      p.Remark,
		Status:      string(p.Status),
		Fingerprint: FlatPayload(FlatFromFingerprint(p.Fingerprint)),
		Proxy:       ProxyConfigToWire(p.Proxy),
		Preferences: PreferencesToWire(p.Preferences),
		CreatedAt:   FormatTime(p.CreatedAt),
		UpdatedAt:   FormatTime(p.UpdatedAt),
	}
	if p.LastOpenTime != nil {
		dto.LastOpenTime = FormatTime(*p.LastOpenTime)
	}
	return dto
}

// ProfileFromWire 解码线上结构；未知状态回落为 stopped，缺失分组回落为 default。
func ProfileFromWire(dto ProfileDTO) (domain.Profile, error) {
	fp, err := FingerprintFromPayload(dto.Fingerprint)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("profile %s fingerprint: %w", dto.ID, err)
	}
	status := domain.ProfileStatus(dto.Status)
	if !status.Valid() {
		status = domain.StatusStopped
	}
	group := dto.Group
	if group == "" {
		group = domain.DefaultGroupID
	}
	p := domain.Profile{
		ID:          dto.ID,
		Name:        dto.Name,
		Group:       group,
		Status:      status,
		Fingerprint: fp,
		Proxy:       ProxyConfigFromWire(dto.Proxy),
		Preferences: PreferencesFromWire(dto.Preferences),
		Remark:      dto.Remark,
		CreatedAt:   ParseTime(dto.CreatedAt),
		UpdatedAt:   ParseTime(dto.UpdatedAt),
	}
	if dto.LastOpenTime != "" {
		t := ParseTime(dto.LastOpenTime)
		p.LastOpenTime = &t
	}
	return p, nil
}

// ProfilesFromWire 批量解码。
func ProfilesFromWire(dtos []ProfileDTO) ([]domain.Profile, error) {
	out := make([]domain.Profile, 0, len(dtos))
	for _, dto := range dtos {
		p, err := ProfileFromWire(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// RecycledToWire 编码回收站条目。
func RecycledToWire(r domain.RecycledProfile) RecycledProfileDTO {
	return RecycledProfileDTO{ProfileDTO: ProfileToWire(r.Profile), DeletedAt: FormatTime(r.DeletedAt)}
}

// RecycledFromWire 解码回收站条目。
func RecycledFromWire(dto RecycledProfileDTO) (domain.RecycledProfile, error) {
	p, err := ProfileFromWire(dto.ProfileDTO)
	if err != nil {
		return domain.RecycledProfile{}, err
	}
	return domain.RecycledProfile{Profile: p, DeletedAt: ParseTime(dto.DeletedAt)}, nil
}

// ProxyTypeToWire 把小写代理类型转为线上枚举；未知或为空时回落为 Socks5。
func ProxyTypeToWire(t domain.ProxyType) string {
	switch domain.ProxyType(strings.ToLower(string(t))) {
	case domain.ProxyHTTP:
		return "Http"
	case domain.ProxyHTTPS:
		return "Https"
	case domain.ProxyDirect:
		return "Direct"
	default:
		return "Socks5"
	}
}

// ProxyTypeFromWire 把线上枚举转为小写；无法识别时视为 socks5。
func ProxyTypeFromWire(s string) domain.ProxyType {
	switch t := domain.ProxyType(strings.ToLower(strings.TrimSpace(s))); t {
	case domain.ProxyHTTP, domain.ProxyHTTPS, domain.ProxySOCKS5, domain.ProxyDirect:
		return t
	default:
		return domain.ProxySOCKS5
	}
}

func ProxyConfigToWire(p *domain.ProxyConfig) *ProxyDTO {
	if p == nil {
		return nil
	}
	return &ProxyDTO{
		Type:     ProxyTypeToWire(p.Type),
		Host:     p.Host,
		Port:     p.Port,
		Username: p.Username,
		Password: p.Password,
	}
}

func ProxyConfigFromWire(dto *ProxyDTO) *domain.ProxyConfig {
	if dto == nil {
		return nil
	}
	return &domain.ProxyConfig{
		Type:     ProxyTypeFromWire(dto.Type),
		Host:     dto.Host,
		Port:     dto.Port,
		Username: dto.Username,
		Password: dto.Password,
	}
}

func PreferencesToWire(p *domain.Preferences) *PreferencesDTO {
	if p == nil {
		return nil
	}
	return &PreferencesDTO{
		WindowName:               p.WindowName,
		CustomBookmarks:          p.CustomBookmarks,
		Extensions:               cloneStrings(p.Extensions),
		StartupPage:              p.StartupPage,
		StartupURL:               p.StartupURL,
		SyncBookmarks:            p.SyncBookmarks,
		SyncHistory:              p.SyncHistory,
		SyncTabs:                 p.SyncTabs,
		SyncCookies:              p.SyncCookies,
		SyncExtensions:           p.SyncExtensions,
		SyncPasswords:            p.SyncPasswords,
		SyncLocalStorage:         p.SyncLocalStorage,
		ClearCacheOnStart:        p.ClearCacheOnStart,
		ClearCookiesOnStart:      p.ClearCookiesOnStart,
		ClearHistoryOnExit:       p.ClearHistoryOnExit,
		ClearCookiesOnExit:       p.ClearCookiesOnExit,
		ClearCacheOnExit:         p.ClearCacheOnExit,
		RandomFingerprintOnStart: p.RandomFingerprintOnStart,
		StopOnNetworkError:       p.StopOnNetworkError,
		StopOnIPChange:           p.StopOnIPChange,
		URLBlacklist:             p.URLBlacklist,
		URLWhitelist:             p.URLWhitelist,
	}
}

func PreferencesFromWire(dto *PreferencesDTO) *domain.Preferences {
	if dto == nil {
		return nil
	}
	startup := dto.StartupPage
	if startup == "" {
		startup = "blank"
	}
	return &domain.Preferences{
		WindowName:               dto.WindowName,
		CustomBookmarks:          dto.CustomBookmarks,
		Extensions:               cloneStrings(dto.Extensions),
		StartupPage:              startup,
		StartupURL:               dto.StartupURL,
		SyncBookmarks:            dto.SyncBookmarks,
		SyncHistory:              dto.SyncHistory,
		SyncTabs:                 dto.SyncTabs,
		SyncCookies:              dto.SyncCookies,
		SyncExtensions:           dto.SyncExtensions,
		SyncPasswords:            dto.SyncPasswords,
		SyncLocalStorage:         dto.SyncLocalStorage,
		ClearCacheOnStart:        dto.ClearCacheOnStart,
		ClearCookiesOnStart:      dto.ClearCookiesOnStart,
		ClearHistoryOnExit:       dto.ClearHistoryOnExit,
		ClearCookiesOnExit:       dto.ClearCookiesOnExit,
		ClearCacheOnExit:         dto.ClearCacheOnExit,
		RandomFingerprintOnStart: dto.RandomFingerprintOnStart,
		StopOnNetworkError:       dto.StopOnNetworkError,
		StopOnIPChange:           dto.StopOnIPChange,
		URLBlacklist:             dto.URLBlacklist,
		URLWhitelist:             dto.URLWhitelist,
	}
}

// CreateInputToWire 编码创建入参，指纹补丁键转为 snake_case。
func CreateInputToWire(in domain.CreateProfileInput) CreateProfileRequest {
	return CreateProfileRequest{
		Name:        in.Name,
		Group:       in.Group,
		Fingerprint: PatchToWire(in.Fingerprint),
		Proxy:       ProxyConfigToWire(in.Proxy),
		Preferences: PreferencesToWire(in.Preferences),
		Remark:      in.Remark,
	}
}

func CreateInputFromWire(req CreateProfileRequest) domain.CreateProfileInput {
	return domain.CreateProfileInput{
		Name:        req.Name,
		Group:       req.Group,
		Fingerprint: PatchFromWire(req.Fingerprint),
		Proxy:       ProxyConfigFromWire(req.Proxy),
		Preferences: PreferencesFromWire(req.Preferences),
		Remark:      req.Remark,
	}
}

func UpdateInputToWire(id string, in domain.UpdateProfileInput) UpdateProfileRequest {
	return UpdateProfileRequest{
		ID:          id,
		Name:        in.Name,
		Group:       in.Group,
		Fingerprint: PatchToWire(in.Fingerprint),
		Proxy:       ProxyConfigToWire(in.Proxy),
		Preferences: PreferencesToWire(in.Preferences),
		Remark:      in.Remark,
	}
}

func UpdateInputFromWire(req UpdateProfileRequest) (string, domain.UpdateProfileInput) {
	return req.ID, domain.UpdateProfileInput{
		Name:        req.Name,
		Group:       req.Group,
		Fingerprint: PatchFromWire(req.Fingerprint),
		Proxy:       ProxyConfigFromWire(req.Proxy),
		Preferences: PreferencesFromWire(req.Preferences),
		Remark:      req.Remark,
	}
}

// FormatTime 使用 RFC3339（纳秒精度）；零值输出空串。
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTime 解析 RFC3339；无法解析时返回零值。
func ParseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatTime(*t)
}

func parseTimePtr(s string) *time.Time {
	t := ParseTime(s)
	if t.IsZero() {
		return nil
	}
	return &t
}
