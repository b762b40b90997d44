package domain

import "time"

// ProxyStatus 是代理的检测状态，只由检测流程写入。
type ProxyStatus string

const (
	ProxyActive  ProxyStatus = "active"
	ProxyError   ProxyStatus = "error"
	ProxyPending ProxyStatus = "pending"
	ProxyExpired ProxyStatus = "expired"
)

// Proxy 是独立管理的代理条目。
type Proxy struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Type          ProxyType   `json:"type"`
	Source        string      `json:"source"`
	Tag           string      `json:"tag"`
	Host          string      `json:"host"`
	Port          int         `json:"port"`
	Username      string      `json:"username,omitempty"`
	Password      string      `json:"password,omitempty"`
	IPAddress     string      `json:"ipAddress,omitempty"`
	Location      string      `json:"location,omitempty"`
	Latency       int64       `json:"latency,omitempty"`
	UsedCount     int         `json:"usedCount"`
	AutoCheck     bool        `json:"autoCheck"`
	ExpireAt      *time.Time  `json:"expireAt,omitempty"`
	BindWindow    string      `json:"bindWindow,omitempty"`
	Remark        string      `json:"remark"`
	Status        ProxyStatus `json:"status"`
	LastCheckedAt *time.Time  `json:"lastCheckedAt,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Endpoint 返回该条目对应的连接配置。
func (p Proxy) Endpoint() ProxyConfig {
	return ProxyConfig{Type: p.Type, Host: p.Host, Port: p.Port, Username: p.Username, Password: p.Password}
}

// CreateProxyInput 创建代理入参。
type CreateProxyInput struct {
	Name      string     `json:"name" validate:"required,max=64"`
	Type      ProxyType  `json:"type" validate:"required,oneof=http https socks5 direct"`
	Host      string     `json:"host" validate:"required_unless=Type direct"`
	Port      int        `json:"port" validate:"omitempty,min=1,max=65535"`
	Username  string     `json:"username,omitempty"`
	Password  string     `json:"password,omitempty"`
	Source    string     `json:"source,omitempty" validate:"omitempty,oneof=custom imported"`
	Tag       string     `json:"tag,omitempty"`
	Remark    string     `json:"remark,omitempty" validate:"max=255"`
	AutoCheck bool       `json:"autoCheck"`
	ExpireAt  *time.Time `json:"expireAt,omitempty"`
}

// UpdateProxyInput 部分更新代理；检测结果字段不在其中。
type UpdateProxyInput struct {
	Name       *string    `json:"name,omitempty" validate:"omitempty,max=64"`
	Type       *ProxyType `json:"type,omitempty" validate:"omitempty,oneof=http https socks5 direct"`
	Host       *string    `json:"host,omitempty"`
	Port       *int       `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	Username   *string    `json:"username,omitempty"`
	Password   *string    `json:"password,omitempty"`
	Source     *string    `json:"source,omitempty" validate:"omitempty,oneof=custom imported"`
	Tag        *string    `json:"tag,omitempty"`
	Remark     *string    `json:"remark,omitempty"`
	AutoCheck  *bool      `json:"autoCheck,omitempty"`
	ExpireAt   *time.Time `json:"expireAt,omitempty"`
	BindWindow *string    `json:"bindWindow,omitempty"`
}

// ProxyCheckResult 是一次连通性检测的结果。
type ProxyCheckResult struct {
	ProxyID     string    `json:"proxyId"`
	Success     bool      `json:"success"`
	Latency     int64     `json:"latency,omitempty"`
	IP          string    `json:"ip,omitempty"`
	Country     string    `json:"country,omitempty"`
	CountryCode string    `json:"countryCode,omitempty"`
	City        string    `json:"city,omitempty"`
	ISP         string    `json:"isp,omitempty"`
	Location    string    `json:"location,omitempty"`
	Error       string    `json:"error,omitempty"`
	CheckedAt   time.Time `json:"checkedAt"`
}

// ProxyTestConfig 是保存前校验代理所需的参数。
type ProxyTestConfig struct {
	Type     ProxyType `json:"type"`
	Host     string    `json:"host"`
	Port     int       `json:"port"`
	Username string    `json:"username,omitempty"`
	Password string    `json:"password,omitempty"`
}
