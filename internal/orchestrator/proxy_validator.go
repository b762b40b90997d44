// 文件路径: internal/orchestrator/proxy_validator.go
// 模块说明: 代理连通性检测客户端。检测失败把代理置为 error，但保留上一次成功时的 IP 与位置。
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/creamcroissant/fpbrowser/internal/domain"
)

// ProxyValidator 调用后端检测代理，并把结果写回代理缓存。
type ProxyValidator struct {
	backend ProxyBackend
	state   *AppState
	logger  *slog.Logger
}

func NewProxyValidator(backend ProxyBackend, state *AppState, logger *slog.Logger) *ProxyValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProxyValidator{backend: backend, state: state, logger: logger.With("component", "proxy_validator")}
}

// Test 检测已保存的代理。
func (v *ProxyValidator) Test(ctx context.Context, id string) (domain.ProxyCheckResult, error) {
	result, err := v.backend.TestProxy(ctx, id)
	if err != nil {
		return domain.ProxyCheckResult{}, err
	}
	if result.ProxyID == "" {
		result.ProxyID = id
	}
	v.apply(ctx, result)
	return result, nil
}

// TestConfig 检测尚未保存的代理配置，不影响缓存。
func (v *ProxyValidator) TestConfig(ctx context.Context, proxyType domain.ProxyType, host string, port int, username, password string) (domain.ProxyCheckResult, error) {
	cfg := domain.ProxyTestConfig{
		Type:     proxyType,
		Host:     strings.TrimSpace(host),
		Port:     port,
		Username: username,
		Password: password,
	}
	if err := checkTestConfig(cfg); err != nil {
		return domain.ProxyCheckResult{}, err
	}
	return v.backend.TestProxyConfig(ctx, cfg)
}

// BatchTest 批量检测。单个代理超时只体现在它自己的结果里，整批不会中断。
func (v *ProxyValidator) BatchTest(ctx context.Context, ids []string) ([]domain.ProxyCheckResult, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	results, err := v.backend.BatchTestProxies(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, result := range results {
		v.apply(ctx, result)
	}
	return results, nil
}

// TestAll 检测全部代理。
func (v *ProxyValidator) TestAll(ctx context.Context) ([]domain.ProxyCheckResult, error) {
	results, err := v.backend.TestAllProxies(ctx)
	if err != nil {
		return nil, err
	}
	for _, result := range results {
		v.apply(ctx, result)
	}
	return results, nil
}

// apply 把检测结果写回缓存中的代理。
func (v *ProxyValidator) apply(ctx context.Context, result domain.ProxyCheckResult) {
	checked := result.CheckedAt
	err := v.state.proxies.patch(context.WithoutCancel(ctx), result.ProxyID, func(p *domain.Proxy) {
		if !checked.IsZero() {
			p.LastCheckedAt = &checked
		}
		if !result.Success {
			p.Status = domain.ProxyError
			return
		}
		p.Status = domain.ProxyActive
		p.Latency = result.Latency
		if result.IP != "" {
			p.IPAddress = result.IP
		}
		if loc := location(result); loc != "" {
			p.Location = loc
		}
	})
	if err != nil {
		v.logger.Warn("update proxy cache failed", "proxy_id", result.ProxyID, "error", err)
	}
}

func location(r domain.ProxyCheckResult) string {
	if r.Location != "" {
		return r.Location
	}
	switch {
	case r.City != "" && r.Country != "":
		return r.City + ", " + r.Country
	case r.Country != "":
		return r.Country
	}
	return ""
}

func checkTestConfig(cfg domain.ProxyTestConfig) error {
	switch cfg.Type {
	case domain.ProxyDirect:
		return nil
	case domain.ProxyHTTP, domain.ProxyHTTPS, domain.ProxySOCKS5:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidProxy, cfg.Type)
	}
	if cfg.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidProxy)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("%w: port out of range", ErrInvalidProxy)
	}
	return nil
}
