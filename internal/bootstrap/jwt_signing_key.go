package bootstrap

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/creamcroissant/fpbrowser/internal/repository"
	"github.com/creamcroissant/fpbrowser/internal/repository/sqlite"
)

type JWTSigningKeySource string

const (
	defaultJWTSigningKey    = "change-me"
	jwtSigningKeySettingKey = "auth.signing_key"
	jwtSigningKeyBytes      = 32

	JWTSigningKeySourceConfig    JWTSigningKeySource = "config"
	JWTSigningKeySourceSettings  JWTSigningKeySource = "settings"
	JWTSigningKeySourceGenerated JWTSigningKeySource = "generated"
)

const signingKeyHint = "you can set FPBROWSER_AUTH_SIGNING_KEY"

// ResolveJWTSigningKey 按优先级取签名密钥：配置/环境变量 > settings 表 > 生成并持久化。
// 本地首次启动无需手动配置密钥，重启后已签发的令牌仍然有效。
func ResolveJWTSigningKey(ctx context.Context, db *sql.DB, configuredKey string) (string, JWTSigningKeySource, error) {
	if key := strings.TrimSpace(configuredKey); key != "" && key != defaultJWTSigningKey {
		return key, JWTSigningKeySourceConfig, nil
	}
	if db == nil {
		return "", "", fmt.Errorf("resolve jwt signing key: db is required when auth.signing_key uses default value; %s", signingKeyHint)
	}
	return resolveFromSettings(ctx, sqlite.NewStore(db).Settings(), rand.Reader)
}

func resolveFromSettings(ctx context.Context, settings repository.SettingRepository, random io.Reader) (string, JWTSigningKeySource, error) {
	existing, err := readSigningKey(ctx, settings)
	if err != nil {
		return "", "", fmt.Errorf("read jwt signing key from settings: %w; %s", err, signingKeyHint)
	}
	if existing != "" {
		return existing, JWTSigningKeySourceSettings, nil
	}

	buf := make([]byte, jwtSigningKeyBytes)
	if _, err := io.ReadFull(random, buf); err != nil {
		return "", "", fmt.Errorf("generate jwt signing key: %w; %s", err, signingKeyHint)
	}
	generated := hex.EncodeToString(buf)

	written, err := settings.InsertIfAbsent(ctx, &repository.Setting{Key: jwtSigningKeySettingKey, Value: generated})
	if err != nil {
		return "", "", fmt.Errorf("persist jwt signing key to settings: %w; %s", err, signingKeyHint)
	}
	if written {
		return generated, JWTSigningKeySourceGenerated, nil
	}

	// 并发启动时另一个进程可能先写入。
	resolved, err := readSigningKey(ctx, settings)
	if err != nil {
		return "", "", fmt.Errorf("read jwt signing key after persistence: %w; %s", err, signingKeyHint)
	}
	if resolved == "" {
		return "", "", fmt.Errorf("jwt signing key not found after persistence; %s", signingKeyHint)
	}
	return resolved, JWTSigningKeySourceSettings, nil
}

func readSigningKey(ctx context.Context, settings repository.SettingRepository) (string, error) {
	s, err := settings.Get(ctx, jwtSigningKeySettingKey)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s.Value), nil
}
