package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load 读取配置文件、环境变量与默认值；path 为空时按默认搜索路径查找 config.yaml。
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.fpbrowser")
		v.AddConfigPath("/etc/fpbrowser/")
	}

	v.SetEnvPrefix("FPBROWSER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// 配置文件缺失时仅依赖环境变量与默认值
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", "127.0.0.1:17890")
	v.SetDefault("http.shutdown_timeout", "15s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/fpbrowser.db")

	v.SetDefault("auth.signing_key", "change-me")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.refresh_ttl", "720h")
	v.SetDefault("auth.issuer", "fpbrowser")
	v.SetDefault("auth.audience", "fpbrowser-client")
	v.SetDefault("auth.leeway", "30s")
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.login_rate_limit", 5)
	v.SetDefault("auth.login_rate_window", "1m")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "fpbrowser")

	v.SetDefault("backend.base_url", "http://127.0.0.1:17890")
	v.SetDefault("backend.timeout", "30s")
	v.SetDefault("backend.retry_max_attempts", 3)
	v.SetDefault("backend.retry_delay", "1s")
	v.SetDefault("backend.retry_status_codes", []int{408, 429, 500, 502, 503, 504})

	v.SetDefault("browser.kernel_dir", "kernel")
	v.SetDefault("browser.binary", "chrome")
	v.SetDefault("browser.data_root", "data/profiles")
	v.SetDefault("browser.launch_timeout", "60s")
	v.SetDefault("browser.stop_grace", "5s")
	v.SetDefault("browser.reaper_spec", "@every 15s")

	v.SetDefault("proxy_check.ip_api_url", "http://ip-api.com/json")
	v.SetDefault("proxy_check.timeout", "10s")
	v.SetDefault("proxy_check.concurrency", 8)
	v.SetDefault("proxy_check.auto_check_spec", "@every 15m")
	v.SetDefault("proxy_check.result_ttl", "30s")

	v.SetDefault("recycle_bin.retention_days", 30)
	v.SetDefault("recycle_bin.purge_spec", "@every 1h")

	v.SetDefault("ui.state_file", "data/client-state.yaml")
	v.SetDefault("ui.page_size", 20)
	v.SetDefault("ui.theme", "light")
	v.SetDefault("ui.locale", "zh-CN")
}
