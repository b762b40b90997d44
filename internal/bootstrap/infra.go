// 文件路径: internal/bootstrap/infra.go
// 模块说明: 组装认证相关的共享组件：缓存、令牌、密码哈希、登录限流与审计。
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/auth/token"
	"github.com/creamcroissant/fpbrowser/internal/cache"
	"github.com/creamcroissant/fpbrowser/internal/config"
	"github.com/creamcroissant/fpbrowser/internal/security"
	"github.com/creamcroissant/fpbrowser/internal/support/hash"
)

// Infrastructure bundles shared helpers required by auth-related services.
type Infrastructure struct {
	Cache       cache.Store
	Token       *token.Manager
	Hasher      hash.Hasher
	RateLimiter *security.RateLimiter
	Audit       security.Recorder
	Sanitizer   *security.Sanitizer
	KeySource   JWTSigningKeySource
}

// BuildInfrastructure wires default implementations for cache/token/hash/rate limiting.
func BuildInfrastructure(ctx context.Context, cfg *config.Config, db *sql.DB, logger *slog.Logger) (*Infrastructure, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required / 配置不能为空")
	}

	cacheStore := cache.NewStore(cache.Options{
		Prefix:          "fpbrowser",
		DefaultTTL:      5 * time.Minute,
		CleanupInterval: time.Minute,
	})

	signingKey, source, err := ResolveJWTSigningKey(ctx, db, cfg.Auth.SigningKey)
	if err != nil {
		return nil, err
	}

	tokenManager, err := token.NewManager(token.Options{
		SigningKey: []byte(signingKey),
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		AccessTTL:  cfg.Auth.TokenTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
		Leeway:     cfg.Auth.Leeway,
	})
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	hasher, err := hash.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt hasher: %w", err)
	}

	rateLimiter, err := security.NewRateLimiter(cacheStore.Namespace("login"), cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	return &Infrastructure{
		Cache:       cacheStore,
		Token:       tokenManager,
		Hasher:      hasher,
		RateLimiter: rateLimiter,
		Audit:       security.NewLoggerRecorder(logger),
		Sanitizer:   security.NewSanitizer(),
		KeySource:   source,
	}, nil
}
