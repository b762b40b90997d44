// 文件路径: internal/auth/token/manager.go
// 模块说明: 签发与校验访问令牌、刷新令牌。
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind 区分访问令牌和刷新令牌。
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Manager 负责签发和校验 JWT。
type Manager struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	leeway     time.Duration
}

// Options 配置 Token 管理器。
type Options struct {
	SigningKey []byte
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Leeway     time.Duration
}

// Claims 包含 JWT 标准声明及令牌类型。
type Claims struct {
	jwt.RegisteredClaims
	Kind     Kind   `json:"kind"`
	Username string `json:"username,omitempty"`
}

// Pair 是一次登录签发的两枚令牌。
type Pair struct {
	Access        string
	Refresh       string
	AccessClaims  *Claims
	RefreshClaims *Claims
}

var (
	// ErrInvalidToken 表示解析或校验失败。
	ErrInvalidToken = errors.New("invalid token / 无效的 token")
	// ErrExpiredToken 表示令牌超出允许的过期宽限。
	ErrExpiredToken = errors.New("token expired / token 已过期")
	// ErrWrongKind 表示令牌类型与用途不符。
	ErrWrongKind = errors.New("wrong token kind / token 类型不匹配")
)

// NewManager 组装 HS256 JWT 管理器。
func NewManager(opts Options) (*Manager, error) {
	if len(opts.SigningKey) == 0 {
		return nil, fmt.Errorf("signing key is required / 签名密钥不能为空")
	}
	access := opts.AccessTTL
	if access <= 0 {
		access = time.Hour
	}
	refresh := opts.RefreshTTL
	if refresh <= 0 {
		refresh = 7 * 24 * time.Hour
	}
	return &Manager{
		secret:     append([]byte(nil), opts.SigningKey...),
		issuer:     strings.TrimSpace(opts.Issuer),
		audience:   strings.TrimSpace(opts.Audience),
		accessTTL:  access,
		refreshTTL: refresh,
		leeway:     max(opts.Leeway, 0),
	}, nil
}

// IssuePair 为用户签发访问令牌与刷新令牌。
func (m *Manager) IssuePair(userID, username string) (*Pair, error) {
	access, accessClaims, err := m.issue(userID, username, KindAccess, m.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, refreshClaims, err := m.issue(userID, username, KindRefresh, m.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &Pair{Access: access, Refresh: refresh, AccessClaims: accessClaims, RefreshClaims: refreshClaims}, nil
}

func (m *Manager) issue(subject, username string, kind Kind, ttl time.Duration) (string, *Claims, error) {
	if strings.TrimSpace(subject) == "" {
		return "", nil, fmt.Errorf("token subject is required / token subject 不能为空")
	}
	now := time.Now().UTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind:     kind,
		Username: username,
	}
	if m.audience != "" {
		claims.Audience = jwt.ClaimStrings{m.audience}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse 校验 JWT 字符串并要求指定的令牌类型。
func (m *Manager) Parse(tokenString string, want Kind) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(m.leeway),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	claims := &Claims{}
	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Kind != want {
		return nil, ErrWrongKind
	}
	return claims, nil
}
