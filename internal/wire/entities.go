package wire

import (
	"github.com/creamcroissant/fpbrowser/internal/domain"
)

// GroupDTO 是分组线上结构。
type GroupDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Sort         int    `json:"sort"`
	Permission   string `json:"permission"`
	ProfileCount int    `json:"profile_count"`
	Remark       string `json:"remark,omitempty"`
	Icon         string `json:"icon,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type CreateGroupRequest struct {
	Name       string `json:"name"`
	Sort       int    `json:"sort"`
	Permission string `json:"permission"`
	Remark     string `json:"remark,omitempty"`
	Icon       string `json:"icon,omitempty"`
}

type UpdateGroupRequest struct {
	ID     string  `json:"id"`
	Name   *string `json:"name,omitempty"`
	Sort   *int    `json:"sort,omitempty"`
	Remark *string `json:"remark,omitempty"`
	Icon   *string `json:"icon,omitempty"`
}

func GroupToWire(g domain.Group) GroupDTO {
	return GroupDTO{
		ID:           g.ID,
		Name:         g.Name,
		Sort:         g.Sort,
		Permission:   string(g.Permission),
		ProfileCount: g.ProfileCount,
		Remark:       g.Remark,
		Icon:         g.Icon,
		CreatedAt:    FormatTime(g.CreatedAt),
		UpdatedAt:    FormatTime(g.UpdatedAt),
	}
}

// GroupFromWire 解码分组；未知权限视为 editable。
func GroupFromWire(dto GroupDTO) domain.Group {
	perm := domain.GroupPermission(dto.Permission)
	if perm != domain.PermissionReadonly {
		perm = domain.PermissionEditable
	}
	return domain.Group{
		ID:           dto.ID,
		Name:         dto.Name,
		Sort:         dto.Sort,
		Permission:   perm,
		ProfileCount: dto.ProfileCount,
		Remark:       dto.Remark,
		Icon:         dto.Icon,
		CreatedAt:    ParseTime(dto.CreatedAt),
		UpdatedAt:    ParseTime(dto.UpdatedAt),
	}
}

func CreateGroupToWire(in domain.CreateGroupInput) CreateGroupRequest {
	return CreateGroupRequest{Name: in.Name, Sort: in.Sort, Permission: string(in.Permission), Remark: in.Remark, Icon: in.Icon}
}

func CreateGroupFromWire(req CreateGroupRequest) domain.CreateGroupInput {
	return domain.CreateGroupInput{Name: req.Name, Sort: req.Sort, Permission: domain.GroupPermission(req.Permission), Remark: req.Remark, Icon: req.Icon}
}

func UpdateGroupToWire(id string, in domain.UpdateGroupInput) UpdateGroupRequest {
	return UpdateGroupRequest{ID: id, Name: in.Name, Sort: in.Sort, Remark: in.Remark, Icon: in.Icon}
}

func UpdateGroupFromWire(req UpdateGroupRequest) (string, domain.UpdateGroupInput) {
	return req.ID, domain.UpdateGroupInput{Name: req.Name, Sort: req.Sort, Remark: req.Remark, Icon: req.Icon}
}

// TagDTO 是标签线上结构。
type TagDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Sort        int    `json:"sort"`
	Remark      string `json:"remark,omitempty"`
	WindowCount int    `json:"window_count"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type CreateTagRequest struct {
	Name   string `json:"name"`
	Sort   int    `json:"sort"`
	Remark string `json:"remark,omitempty"`
}

type UpdateTagRequest struct {
	ID     string  `json:"id"`
	Name   *string `json:"name,omitempty"`
	Sort   *int    `json:"sort,omitempty"`
	Remark *string `json:"remark,omitempty"`
}

func TagToWire(t domain.Tag) TagDTO {
	return TagDTO{
		ID:          t.ID,
		Name:        t.Name,
		Sort:        t.Sort,
		Remark:      t.Remark,
		WindowCount: t.WindowCount,
		CreatedAt:   FormatTime(t.CreatedAt),
		UpdatedAt:   FormatTime(t.UpdatedAt),
	}
}

func TagFromWire(dto TagDTO) domain.Tag {
	return domain.Tag{
		ID:          dto.ID,
		Name:        dto.Name,
		Sort:        dto.Sort,
		Remark:      dto.Remark,
		WindowCount: dto.WindowCount,
		CreatedAt:   ParseTime(dto.CreatedAt),
		UpdatedAt:   ParseTime(dto.UpdatedAt),
	}
}

func CreateTagToWire(in domain.CreateTagInput) CreateTagRequest {
	return CreateTagRequest{Name: in.Name, Sort: in.Sort, Remark: in.Remark}
}

func CreateTagFromWire(req CreateTagRequest) domain.CreateTagInput {
	return domain.CreateTagInput{Name: req.Name, Sort: req.Sort, Remark: req.Remark}
}

func UpdateTagToWire(id string, in domain.UpdateTagInput) UpdateTagRequest {
	return UpdateTagRequest{ID: id, Name: in.Name, Sort: in.Sort, Remark: in.Remark}
}

func UpdateTagFromWire(req UpdateTagRequest) (string, domain.UpdateTagInput) {
	return req.ID, domain.UpdateTagInput{Name: req.Name, Sort: req.Sort, Remark: req.Remark}
}

// ProxyEntityDTO 是代理条目的线上结构；type 为小写。
type ProxyEntityDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Source        string `json:"source"`
	Tag           string `json:"tag"`
	Host          string `json:"host"`
	Port          int    `json:"port"`
	Username      string `json:"username,omitempty"`
	Password      string `json:"password,omitempty"`
	IPAddress     string `json:"ip_address,omitempty"`
	Location      string `json:"location,omitempty"`
	Latency       int64  `json:"latency,omitempty"`
	UsedCount     int    `json:"used_count"`
	AutoCheck     bool   `json:"auto_check"`
	ExpireAt      string `json:"expire_at,omitempty"`
	BindWindow    string `json:"bind_window,omitempty"`
	Remark        string `json:"remark"`
	Status        string `json:"status"`
	LastCheckedAt string `json:"last_checked_at,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type CreateProxyRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
	Source    string `json:"source,omitempty"`
	Tag       string `json:"tag,omitempty"`
	Remark    string `json:"remark,omitempty"`
	AutoCheck bool   `json:"auto_check"`
	ExpireAt  string `json:"expire_at,omitempty"`
}

type UpdateProxyRequest struct {
	ID         string  `json:"id"`
	Name       *string `json:"name,omitempty"`
	Type       *string `json:"type,omitempty"`
	Host       *string `json:"host,omitempty"`
	Port       *int    `json:"port,omitempty"`
	Username   *string `json:"username,omitempty"`
	Password   *string `json:"password,omitempty"`
	Source     *string `json:"source,omitempty"`
	Tag        *string `json:"tag,omitempty"`
	Remark     *string `json:"remark,omitempty"`
	AutoCheck  *bool   `json:"auto_check,omitempty"`
	ExpireAt   *string `json:"expire_at,omitempty"`
	BindWindow *string `json:"bind_window,omitempty"`
}

// ProxyTestConfigRequest 是 test_proxy_config 的参数。
type ProxyTestConfigRequest struct {
	Type     string `json:"type"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

func ProxyToWire(p domain.Proxy) ProxyEntityDTO {
	return ProxyEntityDTO{
		ID:            p.ID,
		Name:          p.Name,
		Type:          string(p.Type),
		Source:        p.Source,
		Tag:           p.Tag,
		Host:          p.Host,
		Port:          p.Port,
		Username:      p.Username,
		Password:      p.Password,
		IPAddress:     p.IPAddress,
		Location:      p.Location,
		Latency:       p.Latency,
		UsedCount:     p.UsedCount,
		AutoCheck:     p.AutoCheck,
		ExpireAt:      formatTimePtr(p.ExpireAt),
		BindWindow:    p.BindWindow,
		Remark:        p.Remark,
		Status:        string(p.Status),
		LastCheckedAt: formatTimePtr(p.LastCheckedAt),
		CreatedAt:     FormatTime(p.CreatedAt),
		UpdatedAt:     FormatTime(p.UpdatedAt),
	}
}

// ProxyFromWire 解码代理条目；缺失状态视为 pending。
func ProxyFromWire(dto ProxyEntityDTO) domain.Proxy {
	status := domain.ProxyStatus(dto.Status)
	if status == "" {
		status = domain.ProxyPending
	}
	return domain.Proxy{
		ID:            dto.ID,
		Name:          dto.Name,
		Type:          domain.ProxyType(dto.Type),
		Source:        dto.Source,
		Tag:           dto.Tag,
		Host:          dto.Host,
		Port:          dto.Port,
		Username:      dto.Username,
		Password:      dto.Password,
		IPAddress:     dto.IPAddress,
		Location:      dto.Location,
		Latency:       dto.Latency,
		UsedCount:     dto.UsedCount,
		AutoCheck:     dto.AutoCheck,
		ExpireAt:      parseTimePtr(dto.ExpireAt),
		BindWindow:    dto.BindWindow,
		Remark:        dto.Remark,
		Status:        status,
		LastCheckedAt: parseTimePtr(dto.LastCheckedAt),
		CreatedAt:     ParseTime(dto.CreatedAt),
		UpdatedAt:     ParseTime(dto.UpdatedAt),
	}
}

func CreateProxyToWire(in domain.CreateProxyInput) CreateProxyRequest {
	return CreateProxyRequest{
		Name:      in.Name,
		Type:      string(in.Type),
		Host:      in.Host,
		Port:      in.Port,
		Username:  in.Username,
		Password:  in.Password,
		Source:    in.Source,
		Tag:       in.Tag,
		Remark:    in.Remark,
		AutoCheck: in.AutoCheck,
		ExpireAt:  formatTimePtr(in.ExpireAt),
	}
}

func CreateProxyFromWire(req CreateProxyRequest) domain.CreateProxyInput {
	return domain.CreateProxyInput{
		Name:      req.Name,
		Type:      domain.ProxyType(req.Type),
		Host:      req.Host,
		Port:      req.Port,
		Username:  req.Username,
		Password:  req.Password,
		Source:    req.Source,
		Tag:       req.Tag,
		Remark:    req.Remark,
		AutoCheck: req.AutoCheck,
		ExpireAt:  parseTimePtr(req.ExpireAt),
	}
}

func UpdateProxyToWire(id string, in domain.UpdateProxyInput) UpdateProxyRequest {
	req := UpdateProxyRequest{
		ID:         id,
		Name:       in.Name,
		Host:       in.Host,
		Port:       in.Port,
		Username:   in.Username,
		Password:   in.Password,
		Source:     in.Source,
		Tag:        in.Tag,
		Remark:     in.Remark,
		AutoCheck:  in.AutoCheck,
		BindWindow: in.BindWindow,
	}
	if in.Type != nil {
		t := string(*in.Type)
		req.Type = &t
	}
	if in.ExpireAt != nil {
		s := FormatTime(*in.ExpireAt)
		req.ExpireAt = &s
	}
	return req
}

func UpdateProxyFromWire(req UpdateProxyRequest) (string, domain.UpdateProxyInput) {
	in := domain.UpdateProxyInput{
		Name:       req.Name,
		Host:       req.Host,
		Port:       req.Port,
		Username:   req.Username,
		Password:   req.Password,
		Source:     req.Source,
		Tag:        req.Tag,
		Remark:     req.Remark,
		AutoCheck:  req.AutoCheck,
		BindWindow: req.BindWindow,
	}
	if req.Type != nil {
		t := domain.ProxyType(*req.Type)
		in.Type = &t
	}
	if req.ExpireAt != nil {
		in.ExpireAt = parseTimePtr(*req.ExpireAt)
	}
	return req.ID, in
}

func ProxyTestConfigToWire(c domain.ProxyTestConfig) ProxyTestConfigRequest {
	return ProxyTestConfigRequest{Type: string(c.Type), Host: c.Host, Port: c.Port, Username: c.Username, Password: c.Password}
}

func ProxyTestConfigFromWire(req ProxyTestConfigRequest) domain.ProxyTestConfig {
	return domain.ProxyTestConfig{Type: domain.ProxyType(req.Type), Host: req.Host, Port: req.Port, Username: req.Username, Password: req.Password}
}

// ProxyCheckResultDTO 是一次检测结果。
type ProxyCheckResultDTO struct {
	ProxyID     string `json:"proxy_id"`
	Success     bool   `json:"success"`
	Latency     int64  `json:"latency,omitempty"`
	IP          string `json:"ip,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	City        string `json:"city,omitempty"`
	ISP         string `json:"isp,omitempty"`
	Location    string `json:"location,omitempty"`
	Error       string `json:"error,omitempty"`
	CheckedAt   string `json:"checked_at"`
}

func CheckResultToWire(r domain.ProxyCheckResult) ProxyCheckResultDTO {
	return ProxyCheckResultDTO{
		ProxyID:     r.ProxyID,
		Success:     r.Success,
		Latency:     r.Latency,
		IP:          r.IP,
		Country:     r.Country,
		CountryCode: r.CountryCode,
		City:        r.City,
		ISP:         r.ISP,
		Location:    r.Location,
		Error:       r.Error,
		CheckedAt:   FormatTime(r.CheckedAt),
	}
}

func CheckResultFromWire(dto ProxyCheckResultDTO) domain.ProxyCheckResult {
	return domain.ProxyCheckResult{
		ProxyID:     dto.ProxyID,
		Success:     dto.Success,
		Latency:     dto.Latency,
		IP:          dto.IP,
		Country:     dto.Country,
		CountryCode: dto.CountryCode,
		City:        dto.City,
		ISP:         dto.ISP,
		Location:    dto.Location,
		Error:       dto.Error,
		CheckedAt:   ParseTime(dto.CheckedAt),
	}
}

// ExtensionDTO 是扩展线上结构。
type ExtensionDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
	Sort        int    `json:"sort"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func ExtensionToWire(e domain.Extension) ExtensionDTO {
	return ExtensionDTO{
		ID:          e.ID,
		Name:        e.Name,
		Version:     e.Version,
		Description: e.Description,
		Enabled:     e.Enabled,
		Sort:        e.Sort,
		CreatedAt:   FormatTime(e.CreatedAt),
		UpdatedAt:   FormatTime(e.UpdatedAt),
	}
}

func ExtensionFromWire(dto ExtensionDTO) domain.Extension {
	return domain.Extension{
		ID:          dto.ID,
		Name:        dto.Name,
		Version:     dto.Version,
		Description: dto.Description,
		Enabled:     dto.Enabled,
		Sort:        dto.Sort,
		CreatedAt:   ParseTime(dto.CreatedAt),
		UpdatedAt:   ParseTime(dto.UpdatedAt),
	}
}

type CreateExtensionRequest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
	Sort        int    `json:"sort"`
}

type UpdateExtensionRequest struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	Version     *string `json:"version,omitempty"`
	Description *string `json:"description,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
	Sort        *int    `json:"sort,omitempty"`
}

func CreateExtensionToWire(in domain.CreateExtensionInput) CreateExtensionRequest {
	return CreateExtensionRequest{Name: in.Name, Version: in.Version, Description: in.Description, Enabled: in.Enabled, Sort: in.Sort}
}

func UpdateExtensionToWire(id string, in domain.UpdateExtensionInput) UpdateExtensionRequest {
	return UpdateExtensionRequest{ID: id, Name: in.Name, Version: in.Version, Description: in.Description, Enabled: in.Enabled, Sort: in.Sort}
}

func CreateExtensionFromWire(req CreateExtensionRequest) domain.CreateExtensionInput {
	return domain.CreateExtensionInput{Name: req.Name, Version: req.Version, Description: req.Description, Enabled: req.Enabled, Sort: req.Sort}
}

func UpdateExtensionFromWire(req UpdateExtensionRequest) (string, domain.UpdateExtensionInput) {
	return req.ID, domain.UpdateExtensionInput{Name: req.Name, Version: req.Version, Description: req.Description, Enabled: req.Enabled, Sort: req.Sort}
}

// BatchItemDTO / BatchResultDTO 是批量结果线上结构。
type BatchItemDTO struct {
	ProfileID string `json:"profile_id"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

type BatchResultDTO struct {
	Results      []BatchItemDTO `json:"results"`
	Total        int            `json:"total"`
	SuccessCount int            `json:"success_count"`
	FailureCount int            `json:"failure_count"`
}

func BatchToWire(r domain.BatchResult) BatchResultDTO {
	dto := BatchResultDTO{
		Results:      make([]BatchItemDTO, 0, len(r.Results)),
		Total:        r.Total,
		SuccessCount: r.SuccessCount,
		FailureCount: r.FailureCount,
	}
	for _, item := range r.Results {
		dto.Results = append(dto.Results, BatchItemDTO{ProfileID: item.ProfileID, OK: item.OK, Error: item.Error})
	}
	return dto
}

// BatchFromWire 按逐项结果重新计数，不信任线上的汇总字段。
func BatchFromWire(dto BatchResultDTO) domain.BatchResult {
	items := make([]domain.BatchItem, 0, len(dto.Results))
	for _, item := range dto.Results {
		items = append(items, domain.BatchItem{ProfileID: item.ProfileID, OK: item.OK, Error: item.Error})
	}
	return domain.NewBatchResult(items)
}

// UserDTO / SessionDTO 是认证相关结构。
type UserDTO struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
}

type SessionDTO struct {
	User         UserDTO `json:"user"`
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	ExpiresAt    string  `json:"expires_at"`
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenRequest struct {
	Token string `json:"token"`
}

type LicenseDTO struct {
	Key         string `json:"key"`
	Valid       bool   `json:"valid"`
	ActivatedAt string `json:"activated_at,omitempty"`
}

func UserToWire(u domain.User) UserDTO {
	return UserDTO{ID: u.ID, Username: u.Username, CreatedAt: FormatTime(u.CreatedAt)}
}

func UserFromWire(dto UserDTO) domain.User {
	return domain.User{ID: dto.ID, Username: dto.Username, CreatedAt: ParseTime(dto.CreatedAt)}
}

func SessionToWire(s domain.Session) SessionDTO {
	return SessionDTO{User: UserToWire(s.User), AccessToken: s.AccessToken, RefreshToken: s.RefreshToken, ExpiresAt: FormatTime(s.ExpiresAt)}
}

func SessionFromWire(dto SessionDTO) domain.Session {
	return domain.Session{User: UserFromWire(dto.User), AccessToken: dto.AccessToken, RefreshToken: dto.RefreshToken, ExpiresAt: ParseTime(dto.ExpiresAt)}
}

func LicenseToWire(l domain.License) LicenseDTO {
	return LicenseDTO{Key: l.Key, Valid: l.Valid, ActivatedAt: FormatTime(l.ActivatedAt)}
}

func LicenseFromWire(dto LicenseDTO) domain.License {
	return domain.License{Key: dto.Key, Valid: dto.Valid, ActivatedAt: ParseTime(dto.ActivatedAt)}
}

// 通用请求参数。
type IDRequest struct {
	ID string `json:"id"`
}

type IDsRequest struct {
	IDs []string `json:"ids"`
}

type MoveToGroupRequest struct {
	IDs   []string `json:"ids"`
	Group string   `json:"group"`
}

type ProfileTagsRequest struct {
	ProfileID string   `json:"profile_id"`
	TagIDs    []string `json:"tag_ids"`
}

type AutoCheckRequest struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
}

type LicenseRequest struct {
	Key string `json:"key"`
}

// ProfileQuery 是 get_profiles 的可选筛选参数。
type ProfileQuery struct {
	Group   string   `json:"group,omitempty"`
	Status  []string `json:"status,omitempty"`
	Keyword string   `json:"keyword,omitempty"`
	Limit   int      `json:"limit,omitempty"`
	Offset  int      `json:"offset,omitempty"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type BoolResponse struct {
	Value bool `json:"value"`
}

type StringResponse struct {
	Value string `json:"value"`
}
