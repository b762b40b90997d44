package service

import (
	"context"
	"errors"
	"hash/crc32"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/repository"
	"github.com/creamcroissant/fpbrowser/internal/security"
)

const licenseSettingKey = "license.key"

var licensePattern = regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// LicenseService validates and activates license keys.
type LicenseService interface {
	Validate(key string) bool
	Activate(ctx context.Context, key string) (*domain.License, error)
	Current(ctx context.Context) (*domain.License, error)
}

type licenseService struct {
	settings repository.SettingRepository
	audit    security.Recorder
}

// NewLicenseService wires license persistence.
func NewLicenseService(store repository.Store, audit security.Recorder) LicenseService {
	return &licenseService{settings: store.Settings(), audit: audit}
}

// Validate 校验格式 XXXX-XXXX-XXXX-XXXX，末组为前三组的校验码。
func (s *licenseService) Validate(key string) bool {
	key = normalizeLicense(key)
	if !licensePattern.MatchString(key) {
		return false
	}
	return key[15:] == LicenseChecksum(key[:14])
}

func (s *licenseService) Activate(ctx context.Context, key string) (*domain.License, error) {
	key = normalizeLicense(key)
	if !s.Validate(key) {
		s.record(ctx, key, false)
		return nil, ErrInvalidLicense
	}
	setting := &repository.Setting{Key: licenseSettingKey, Value: key}
	if err := s.settings.Upsert(ctx, setting); err != nil {
		return nil, err
	}
	s.record(ctx, key, true)
	return &domain.License{Key: key, Valid: true, ActivatedAt: time.Unix(setting.UpdatedAt, 0).UTC()}, nil
}

// Current 返回已激活的许可证；未激活时 Valid 为 false。
func (s *licenseService) Current(ctx context.Context) (*domain.License, error) {
	setting, err := s.settings.Get(ctx, licenseSettingKey)
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.License{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.License{
		Key:         setting.Value,
		Valid:       s.Validate(setting.Value),
		ActivatedAt: time.Unix(setting.UpdatedAt, 0).UTC(),
	}, nil
}

func (s *licenseService) record(ctx context.Context, key string, ok bool) {
	if s.audit == nil {
		return
	}
	actor := key
	if len(actor) > 4 {
		actor = actor[:4] + "-****"
	}
	s.audit.Record(ctx, security.Event{Kind: "license_activate", Actor: actor, Success: ok})
}

// LicenseChecksum 计算前三组的校验组：CRC32 的 36 进制表示，取末四位。
func LicenseChecksum(body string) string {
	sum := strconv.FormatUint(uint64(crc32.ChecksumIEEE([]byte(body))), 36)
	sum = strings.ToUpper(sum)
	if len(sum) < 4 {
		sum = strings.Repeat("0", 4-len(sum)) + sum
	}
	return sum[len(sum)-4:]
}

func normalizeLicense(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}
