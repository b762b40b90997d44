package bootstrap

import (
	"net/http"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/config"
)

// NewHTTPServer constructs the backend http.Server.
// WriteTimeout 为 0：事件流是长连接，启动浏览器也可能超过常规写超时。
func NewHTTPServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
	}
}
