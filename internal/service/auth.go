// 文件路径: internal/service/auth.go
// 模块说明: 本地账号注册登录，签发访问令牌与刷新令牌；注销时把令牌 id 加入吊销缓存直到过期。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/auth/token"
	"github.com/creamcroissant/fpbrowser/internal/cache"
	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/repository"
	"github.com/creamcroissant/fpbrowser/internal/security"
	"github.com/creamcroissant/fpbrowser/internal/support/hash"
)

// AuthService coordinates registration, login and session tokens.
type AuthService interface {
	Register(ctx context.Context, input CredentialsInput) (*domain.User, error)
	Login(ctx context.Context, input CredentialsInput) (*domain.Session, error)
	Logout(ctx context.Context, accessToken string) error
	CheckLogin(ctx context.Context, accessToken string) bool
	GetUser(ctx context.Context, accessToken string) (*domain.User, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.Session, error)
}

// CredentialsInput 是注册与登录共用的入参。
type CredentialsInput struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type authService struct {
	users   repository.UserRepository
	hasher  hash.Hasher
	tokens  *token.Manager
	rate    *security.RateLimiter
	audit   security.Recorder
	revoked cache.Store
	now     func() time.Time
}

// NewAuthService wires repository + infrastructure helpers.
func NewAuthService(store repository.Store, hasher hash.Hasher, tokens *token.Manager, rate *security.RateLimiter, audit security.Recorder, cacheStore cache.Store) AuthService {
	return &authService{
		users:   store.Users(),
		hasher:  hasher,
		tokens:  tokens,
		rate:    rate,
		audit:   audit,
		revoked: cacheStore.Namespace("auth").Namespace("revoked"),
		now:     time.Now,
	}
}

func (s *authService) Register(ctx context.Context, input CredentialsInput) (*domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByUsername(ctx, input.Username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	rec := &repository.UserRecord{
		User:         domain.User{ID: newID(), Username: input.Username},
		PasswordHash: hashed,
	}
	if err := s.users.Create(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUsernameExists
		}
		return nil, err
	}
	s.record(ctx, "register", rec.Username, true, "")
	return &rec.User, nil
}

func (s *authService) Login(ctx context.Context, input CredentialsInput) (*domain.Session, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if s.rate != nil {
		res, err := s.rate.Allow(ctx, strings.ToLower(username))
		if err != nil {
			return nil, err
		}
		if !res.Allowed {
			s.record(ctx, "login", username, false, "rate_limited")
			return nil, ErrRateLimited
		}
	}

	rec, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.record(ctx, "login", username, false, "unknown_user")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.hasher.Compare(rec.PasswordHash, input.Password); err != nil {
		s.record(ctx, "login", username, false, "bad_password")
		return nil, ErrInvalidCredentials
	}
	if s.rate != nil {
		s.rate.Reset(ctx, strings.ToLower(username))
	}
	s.record(ctx, "login", username, true, "")
	return s.issue(rec.User)
}

// Logout 吊销访问令牌，已失效的令牌视为成功。
func (s *authService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.tokens.Parse(accessToken, token.KindAccess)
	if err != nil {
		return nil
	}
	s.revoke(ctx, claims)
	s.record(ctx, "logout", claims.Username, true, "")
	return nil
}

func (s *authService) CheckLogin(ctx context.Context, accessToken string) bool {
	_, err := s.verify(ctx, accessToken, token.KindAccess)
	return err == nil
}

func (s *authService) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.verify(ctx, accessToken, token.KindAccess)
	if err != nil {
		return nil, ErrUnauthorized
	}
	rec, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return &rec.User, nil
}

// Refresh 用刷新令牌换新的一对令牌，旧刷新令牌随即吊销。
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	claims, err := s.verify(ctx, refreshToken, token.KindRefresh)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	rec, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	s.revoke(ctx, claims)
	return s.issue(rec.User)
}

func (s *authService) verify(ctx context.Context, raw string, kind token.Kind) (*token.Claims, error) {
	claims, err := s.tokens.Parse(raw, kind)
	if err != nil {
		return nil, err
	}
	if s.revoked.Has(ctx, claims.ID) {
		return nil, token.ErrInvalidToken
	}
	return claims, nil
}

func (s *authService) revoke(ctx context.Context, claims *token.Claims) {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if remaining := claims.ExpiresAt.Sub(s.now()); remaining > 0 {
			ttl = remaining
		}
	}
	s.revoked.Set(ctx, claims.ID, true, ttl)
}

func (s *authService) issue(user domain.User) (*domain.Session, error) {
	pair, err := s.tokens.IssuePair(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &domain.Session{
		User:         user,
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		ExpiresAt:    pair.AccessClaims.ExpiresAt.Time,
	}, nil
}

func (s *authService) record(ctx context.Context, kind, actor string, ok bool, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, security.Event{Kind: kind, Actor: actor, Success: ok, Reason: reason, Occurred: s.now().UTC()})
}
