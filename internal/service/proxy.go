// 文件路径: internal/service/proxy.go
// 模块说明: 代理管理与连通性检测。检测结果只通过 RecordCheck 写回，失败时保留原有 IP 与位置。
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/cache"
	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/events"
	"github.com/creamcroissant/fpbrowser/internal/metrics"
	"github.com/creamcroissant/fpbrowser/internal/proxycheck"
	"github.com/creamcroissant/fpbrowser/internal/repository"
	"github.com/creamcroissant/fpbrowser/internal/security"
	"github.com/creamcroissant/fpbrowser/internal/wire"
)

// ProxyService manages proxies and runs connectivity probes.
type ProxyService interface {
	List(ctx context.Context) ([]domain.Proxy, error)
	Create(ctx context.Context, input domain.CreateProxyInput) (*domain.Proxy, error)
	Update(ctx context.Context, id string, input domain.UpdateProxyInput) (*domain.Proxy, error)
	Delete(ctx context.Context, id string) error
	Test(ctx context.Context, id string) (domain.ProxyCheckResult, error)
	TestConfig(ctx context.Context, cfg domain.ProxyTestConfig) (domain.ProxyCheckResult, error)
	BatchTest(ctx context.Context, ids []string) []domain.ProxyCheckResult
	TestAll(ctx context.Context) ([]domain.ProxyCheckResult, error)
	SetAutoCheck(ctx context.Context, id string, enabled bool) error
	AutoCheck(ctx context.Context) (int, error)
}

// Prober runs proxy probes.
type Prober interface {
	Check(ctx context.Context, id string, cfg domain.ProxyTestConfig) domain.ProxyCheckResult
	CheckMany(ctx context.Context, targets []proxycheck.Target) []domain.ProxyCheckResult
}

type proxyService struct {
	proxies   repository.ProxyRepository
	prober    Prober
	results   cache.Store
	resultTTL time.Duration
	sanitizer *security.Sanitizer
	events    events.Publisher
	metrics   *metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewProxyService wires persistence, prober and the probe result cache.
func NewProxyService(store repository.Store, prober Prober, cacheStore cache.Store, resultTTL time.Duration, sanitizer *security.Sanitizer, publisher events.Publisher, recorder *metrics.Recorder, logger *slog.Logger) ProxyService {
	if logger == nil {
		logger = slog.Default()
	}
	var results cache.Store
	if cacheStore != nil {
		results = cacheStore.Namespace("proxy_check")
	}
	return &proxyService{
		proxies:   store.Proxies(),
		prober:    prober,
		results:   results,
		resultTTL: resultTTL,
		sanitizer: sanitizerOrDefault(sanitizer),
		events:    publisherOrNoop(publisher),
		metrics:   recorder,
		logger:    logger.With("component", "proxy"),
		now:       time.Now,
	}
}

func (s *proxyService) List(ctx context.Context) ([]domain.Proxy, error) {
	return s.proxies.List(ctx)
}

func (s *proxyService) Create(ctx context.Context, input domain.CreateProxyInput) (*domain.Proxy, error) {
	input.Name = s.sanitizer.Text(input.Name)
	input.Host = strings.TrimSpace(input.Host)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if input.Type != domain.ProxyDirect && input.Port == 0 {
		return nil, fmt.Errorf("%w: port is required", ErrInvalidInput)
	}
	proxy := &domain.Proxy{
		ID:        newID(),
		Name:      input.Name,
		Type:      input.Type,
		Source:    input.Source,
		Tag:       input.Tag,
		Host:      input.Host,
		Port:      input.Port,
		Username:  input.Username,
		Password:  input.Password,
		AutoCheck: input.AutoCheck,
		ExpireAt:  input.ExpireAt,
		Remark:    s.sanitizer.Text(input.Remark),
		Status:    domain.ProxyPending,
	}
	if err := s.proxies.Create(ctx, proxy); err != nil {
		return nil, mapRepoError(err, ErrNotFound)
	}
	s.events.Emit(events.ProxyCreated, wire.ProxyToWire(*proxy))
	return proxy, nil
}

func (s *proxyService) Update(ctx context.Context, id string, input domain.UpdateProxyInput) (*domain.Proxy, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	proxy, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := s.sanitizer.Text(*input.Name)
		if err := requireText("name", name); err != nil {
			return nil, err
		}
		proxy.Name = name
	}
	if input.Type != nil {
		proxy.Type = *input.Type
	}
	if input.Host != nil {
		proxy.Host = strings.TrimSpace(*input.Host)
	}
	if input.Port != nil {
		proxy.Port = *input.Port
	}
	if input.Username != nil {
		proxy.Username = *input.Username
	}
	if input.Password != nil {
		proxy.Password = *input.Password
	}
	if input.Source != nil {
		proxy.Source = *input.Source
	}
	if input.Tag != nil {
		proxy.Tag = *input.Tag
	}
	if input.Remark != nil {
		proxy.Remark = s.sanitizer.Text(*input.Remark)
	}
	if input.AutoCheck != nil {
		proxy.AutoCheck = *input.AutoCheck
	}
	if input.ExpireAt != nil {
		proxy.ExpireAt = input.ExpireAt
	}
	if input.BindWindow != nil {
		proxy.BindWindow = *input.BindWindow
	}
	if err := s.proxies.Update(ctx, proxy); err != nil {
		return nil, mapRepoError(err, ErrNotFound)
	}
	s.events.Emit(events.ProxyUpdated, wire.ProxyToWire(*proxy))
	return proxy, nil
}

func (s *proxyService) Delete(ctx context.Context, id string) error {
	if err := s.proxies.Delete(ctx, id); err != nil {
		return mapRepoError(err, ErrNotFound)
	}
	s.events.Emit(events.ProxyDeleted, events.IDPayload{ID: id})
	return nil
}

// Test 探测已保存的代理并写回结果。探测失败不是 error，体现在结果的 Success 字段。
func (s *proxyService) Test(ctx context.Context, id string) (domain.ProxyCheckResult, error) {
	proxy, err := s.find(ctx, id)
	if err != nil {
		return domain.ProxyCheckResult{}, err
	}
	result := s.prober.Check(ctx, id, testConfig(*proxy))
	if err := s.record(ctx, result); err != nil {
		return result, err
	}
	return result, nil
}

// TestConfig 探测未保存的代理配置，结果按配置缓存 resultTTL。
func (s *proxyService) TestConfig(ctx context.Context, cfg domain.ProxyTestConfig) (domain.ProxyCheckResult, error) {
	if err := validateProxyConfig(&domain.ProxyConfig{Type: cfg.Type, Host: cfg.Host, Port: cfg.Port}); err != nil {
		return domain.ProxyCheckResult{}, err
	}
	key := configKey(cfg)
	if s.results != nil && s.resultTTL > 0 {
		var cached domain.ProxyCheckResult
		if ok, err := s.results.GetJSON(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}
	result := s.prober.Check(ctx, "", cfg)
	s.metrics.ProxyChecked(result.Success, result.Latency)
	if s.results != nil && s.resultTTL > 0 {
		if err := s.results.SetJSON(ctx, key, result, s.resultTTL); err != nil {
			s.logger.Warn("cache probe result failed", "error", err)
		}
	}
	return result, nil
}

// BatchTest 并发探测；不存在的代理作为失败项返回，整批不会中断。
func (s *proxyService) BatchTest(ctx context.Context, ids []string) []domain.ProxyCheckResult {
	ids = dedupe(ids)
	results := make([]domain.ProxyCheckResult, len(ids))
	targets := make([]proxycheck.Target, 0, len(ids))
	slots := make([]int, 0, len(ids))
	for i, id := range ids {
		proxy, err := s.find(ctx, id)
		if err != nil {
			results[i] = domain.ProxyCheckResult{ProxyID: id, Error: err.Error(), CheckedAt: s.now().UTC()}
			continue
		}
		targets = append(targets, proxycheck.Target{ID: id, Config: testConfig(*proxy)})
		slots = append(slots, i)
	}
	for j, result := range s.prober.CheckMany(ctx, targets) {
		if err := s.record(ctx, result); err != nil {
			s.logger.Warn("record probe result failed", "proxy_id", result.ProxyID, "error", err)
		}
		results[slots[j]] = result
	}
	return results
}

func (s *proxyService) TestAll(ctx context.Context) ([]domain.ProxyCheckResult, error) {
	proxies, err := s.proxies.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.BatchTest(ctx, proxyIDs(proxies)), nil
}

func (s *proxyService) SetAutoCheck(ctx context.Context, id string, enabled bool) error {
	if err := s.proxies.SetAutoCheck(ctx, id, enabled); err != nil {
		return mapRepoError(err, ErrNotFound)
	}
	if proxy, err := s.proxies.FindByID(ctx, id); err == nil {
		s.events.Emit(events.ProxyUpdated, wire.ProxyToWire(*proxy))
	}
	return nil
}

// AutoCheck 先标记过期代理，再探测开启自动检测的代理。
func (s *proxyService) AutoCheck(ctx context.Context) (int, error) {
	if n, err := s.proxies.MarkExpired(ctx, s.now().UTC()); err != nil {
		return 0, fmt.Errorf("mark expired proxies: %w", err)
	} else if n > 0 {
		s.logger.Info("proxies expired", "count", n)
	}
	proxies, err := s.proxies.ListAutoCheck(ctx)
	if err != nil {
		return 0, err
	}
	live := proxies[:0]
	for _, p := range proxies {
		if p.Status != domain.ProxyExpired {
			live = append(live, p)
		}
	}
	results := s.BatchTest(ctx, proxyIDs(live))
	return len(results), nil
}

func (s *proxyService) record(ctx context.Context, result domain.ProxyCheckResult) error {
	s.metrics.ProxyChecked(result.Success, result.Latency)
	if err := s.proxies.RecordCheck(ctx, result); err != nil {
		return mapRepoError(err, ErrNotFound)
	}
	if proxy, err := s.proxies.FindByID(ctx, result.ProxyID); err == nil {
		s.events.Emit(events.ProxyUpdated, wire.ProxyToWire(*proxy))
	}
	return nil
}

func (s *proxyService) find(ctx context.Context, id string) (*domain.Proxy, error) {
	proxy, err := s.proxies.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, ErrNotFound)
	}
	return proxy, nil
}

func testConfig(p domain.Proxy) domain.ProxyTestConfig {
	return domain.ProxyTestConfig{Type: p.Type, Host: p.Host, Port: p.Port, Username: p.Username, Password: p.Password}
}

func configKey(cfg domain.ProxyTestConfig) string {
	return fmt.Sprintf("%s://%s:%s@%s:%d", cfg.Type, cfg.Username, cfg.Password, cfg.Host, cfg.Port)
}

func proxyIDs(proxies []domain.Proxy) []string {
	ids := make([]string, 0, len(proxies))
	for _, p := range proxies {
		ids = append(ids, p.ID)
	}
	return ids
}
