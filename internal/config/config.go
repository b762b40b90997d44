package config

import (
	"log/slog"
	"time"
)

// Config 汇总应用的全部配置。
type Config struct {
	HTTP       HTTPConfig       `mapstructure:"http"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Backend    BackendConfig    `mapstructure:"backend"`
	Browser    BrowserConfig    `mapstructure:"browser"`
	ProxyCheck ProxyCheckConfig `mapstructure:"proxy_check"`
	RecycleBin RecycleBinConfig `mapstructure:"recycle_bin"`
	UI         UIConfig         `mapstructure:"ui"`
}

// MetricsConfig 定义 Prometheus 指标配置。
type MetricsConfig struct {
	Enabled   bool      `mapstructure:"enabled"`
	Namespace string    `mapstructure:"namespace"`
	Subsystem string    `mapstructure:"subsystem"`
	Buckets   []float64 `mapstructure:"buckets"`
}

// HTTPConfig 定义后端 HTTP 服务配置。
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig 定义日志配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	AddSource  bool   `mapstructure:"add_source"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// DBConfig 定义数据库配置。
type DBConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// AuthConfig 定义本地账号与令牌配置。
type AuthConfig struct {
	SigningKey      string        `mapstructure:"signing_key"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	RefreshTTL      time.Duration `mapstructure:"refresh_ttl"`
	Issuer          string        `mapstructure:"issuer"`
	Audience        string        `mapstructure:"audience"`
	Leeway          time.Duration `mapstructure:"leeway"`
	BcryptCost      int           `mapstructure:"bcrypt_cost"`
	LoginRateLimit  int           `mapstructure:"login_rate_limit"`
	LoginRateWindow time.Duration `mapstructure:"login_rate_window"`
}

// BackendConfig 是客户端访问后端命令面的配置。
type BackendConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RetryMaxAttempts int           `mapstructure:"retry_max_attempts"`
	RetryDelay       time.Duration `mapstructure:"retry_delay"`
	RetryStatusCodes []int         `mapstructure:"retry_status_codes"`
}

// BrowserConfig 定义浏览器内核与启动参数。
type BrowserConfig struct {
	KernelDir     string        `mapstructure:"kernel_dir"`
	Binary        string        `mapstructure:"binary"`
	DataRoot      string        `mapstructure:"data_root"`
	LaunchTimeout time.Duration `mapstructure:"launch_timeout"`
	StopGrace     time.Duration `mapstructure:"stop_grace"`
	ReaperSpec    string        `mapstructure:"reaper_spec"`
}

// ProxyCheckConfig 定义代理检测配置。
type ProxyCheckConfig struct {
	IPAPIURL      string        `mapstructure:"ip_api_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Concurrency   int           `mapstructure:"concurrency"`
	AutoCheckSpec string        `mapstructure:"auto_check_spec"`
	ResultTTL     time.Duration `mapstructure:"result_ttl"`
}

// RecycleBinConfig 定义回收站保留策略。
type RecycleBinConfig struct {
	RetentionDays int    `mapstructure:"retention_days"`
	PurgeSpec     string `mapstructure:"purge_spec"`
}

// UIConfig 是客户端本地状态（主题、语言、分页）配置。
type UIConfig struct {
	StateFile string `mapstructure:"state_file"`
	PageSize  int    `mapstructure:"page_size"`
	Theme     string `mapstructure:"theme"`
	Locale    string `mapstructure:"locale"`
}

func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
