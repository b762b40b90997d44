// 文件路径: internal/service/profile.go
// 模块说明: 窗口环境的增删改查、批量移动与复制。指纹写入统一经过黑名单校验与白名单合并。
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/events"
	"github.com/creamcroissant/fpbrowser/internal/fingerprint"
	"github.com/creamcroissant/fpbrowser/internal/repository"
	"github.com/creamcroissant/fpbrowser/internal/security"
	"github.com/creamcroissant/fpbrowser/internal/wire"
)

const copySuffix = " (copy)"

// ProfileService exposes profile management for the IPC surface.
type ProfileService interface {
	List(ctx context.Context, filter repository.ProfileListFilter) ([]domain.Profile, error)
	Get(ctx context.Context, id string) (*domain.Profile, error)
	Create(ctx context.Context, input domain.CreateProfileInput) (*domain.Profile, error)
	Update(ctx context.Context, id string, input domain.UpdateProfileInput) (*domain.Profile, error)
	Delete(ctx context.Context, id string) error
	BatchDelete(ctx context.Context, ids []string) domain.BatchResult
	MoveToGroup(ctx context.Context, ids []string, group string) domain.BatchResult
	Duplicate(ctx context.Context, id string) (*domain.Profile, error)
	BatchDuplicate(ctx context.Context, ids []string) domain.BatchResult
}

type profileService struct {
	profiles  repository.ProfileRepository
	groups    repository.GroupRepository
	sanitizer *security.Sanitizer
	events    events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewProfileService wires profile persistence with event publishing.
func NewProfileService(store repository.Store, sanitizer *security.Sanitizer, publisher events.Publisher, logger *slog.Logger) ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &profileService{
		profiles:  store.Profiles(),
		groups:    store.Groups(),
		sanitizer: sanitizerOrDefault(sanitizer),
		events:    publisherOrNoop(publisher),
		logger:    logger.With("component", "profile"),
		now:       time.Now,
	}
}

func (s *profileService) List(ctx context.Context, filter repository.ProfileListFilter) ([]domain.Profile, error) {
	return s.profiles.List(ctx, filter)
}

func (s *profileService) Get(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, ErrProfileNotFound)
	}
	return p, nil
}

func (s *profileService) Create(ctx context.Context, input domain.CreateProfileInput) (*domain.Profile, error) {
	name := s.sanitizer.Text(input.Name)
	if err := requireText("name", name); err != nil {
		return nil, err
	}
	group, err := s.resolveGroup(ctx, input.Group)
	if err != nil {
		return nil, err
	}
	if err := validateProxyConfig(input.Proxy); err != nil {
		return nil, err
	}
	base, err := domain.DefaultFingerprint().ToMap()
	if err != nil {
		return nil, err
	}
	fp, err := mergeFingerprint(base, input.Fingerprint)
	if err != nil {
		return nil, err
	}

	profile := &domain.Profile{
		ID:          newID(),
		Name:        name,
		Group:       group,
		Status:      domain.StatusStopped,
		Fingerprint: fp,
		Proxy:       input.Proxy,
		Preferences: input.Preferences,
		Remark:      s.sanitizer.Text(input.Remark),
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	s.events.Emit(events.ProfileCreated, wire.ProfileToWire(*profile))
	s.logger.Info("profile created", "profile_id", profile.ID, "group", profile.Group)
	return profile, nil
}

func (s *profileService) Update(ctx context.Context, id string, input domain.UpdateProfileInput) (*domain.Profile, error) {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := s.sanitizer.Text(*input.Name)
		if err := requireText("name", name); err != nil {
			return nil, err
		}
		profile.Name = name
	}
	if input.Group != nil {
		group, err := s.resolveGroup(ctx, *input.Group)
		if err != nil {
			return nil, err
		}
		profile.Group = group
	}
	if input.Fingerprint != nil {
		existing, err := profile.Fingerprint.ToMap()
		if err != nil {
			return nil, err
		}
		fp, err := mergeFingerprint(existing, input.Fingerprint)
		if err != nil {
			return nil, err
		}
		profile.Fingerprint = fp
	}
	if input.Proxy != nil {
		if err := validateProxyConfig(input.Proxy); err != nil {
			return nil, err
		}
		profile.Proxy = input.Proxy
	}
	if input.Preferences != nil {
		profile.Preferences = input.Preferences
	}
	if input.Remark != nil {
		profile.Remark = s.sanitizer.Text(*input.Remark)
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, mapRepoError(err, ErrProfileNotFound)
	}
	s.events.Emit(events.ProfileUpdated, wire.ProfileToWire(*profile))
	return profile, nil
}

func (s *profileService) Delete(ctx context.Context, id string) error {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if profile.Status != domain.StatusStopped && profile.Status != domain.StatusError {
		return ErrProfileRunning
	}
	if err := s.profiles.SoftDelete(ctx, id, s.now().UTC()); err != nil {
		return mapRepoError(err, ErrProfileNotFound)
	}
	s.events.Emit(events.ProfileDeleted, events.IDPayload{ID: id})
	s.logger.Info("profile moved to recycle bin", "profile_id", id)
	return nil
}

func (s *profileService) BatchDelete(ctx context.Context, ids []string) domain.BatchResult {
	return runBatch(ids, func(id string) error { return s.Delete(ctx, id) })
}

func (s *profileService) MoveToGroup(ctx context.Context, ids []string, group string) domain.BatchResult {
	target, err := s.resolveGroup(ctx, group)
	if err != nil {
		return runBatch(ids, func(string) error { return err })
	}
	return runBatch(ids, func(id string) error {
		_, err := s.Update(ctx, id, domain.UpdateProfileInput{Group: &target})
		return err
	})
}

func (s *profileService) Duplicate(ctx context.Context, id string) (*domain.Profile, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dup := src.Clone()
	dup.ID = newID()
	dup.Name = src.Name + copySuffix
	dup.Status = domain.StatusStopped
	dup.LastOpenTime = nil
	dup.CreatedAt = time.Time{}
	if err := s.profiles.Create(ctx, &dup); err != nil {
		return nil, fmt.Errorf("duplicate profile: %w", err)
	}
	s.events.Emit(events.ProfileCreated, wire.ProfileToWire(dup))
	return &dup, nil
}

func (s *profileService) BatchDuplicate(ctx context.Context, ids []string) domain.BatchResult {
	return runBatch(ids, func(id string) error {
		_, err := s.Duplicate(ctx, id)
		return err
	})
}

func (s *profileService) resolveGroup(ctx context.Context, id string) (string, error) {
	if id == "" {
		return domain.DefaultGroupID, nil
	}
	if _, err := s.groups.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("%w: group %q not found", ErrInvalidInput, id)
		}
		return "", err
	}
	return id, nil
}

// mergeFingerprint 拒绝含黑名单字段的补丁，其余字段按白名单合并。
func mergeFingerprint(existing map[string]any, patch fingerprint.Patch) (domain.Fingerprint, error) {
	if err := fingerprint.Validate(patch); err != nil {
		return domain.Fingerprint{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	merged := fingerprint.MergePatch(existing, patch)
	fp, err := domain.FingerprintFromMap(merged)
	if err != nil {
		return domain.Fingerprint{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return fp, nil
}

func validateProxyConfig(p *domain.ProxyConfig) error {
	if p == nil || p.Type == domain.ProxyDirect {
		return nil
	}
	switch p.Type {
	case domain.ProxyHTTP, domain.ProxyHTTPS, domain.ProxySOCKS5:
	default:
		return fmt.Errorf("%w: unknown proxy type %q", ErrInvalidInput, p.Type)
	}
	if err := requireText("proxy host", p.Host); err != nil {
		return err
	}
	if p.Port < 1 || p.Port > 65535 {
		return fmt.Errorf("%w: proxy port %d out of range", ErrInvalidInput, p.Port)
	}
	return nil
}

// runBatch 逐项执行，失败只记录在结果里，不中断后续条目。
func runBatch(ids []string, fn func(id string) error) domain.BatchResult {
	ids = dedupe(ids)
	items := make([]domain.BatchItem, 0, len(ids))
	for _, id := range ids {
		if err := fn(id); err != nil {
			items = append(items, domain.Fail(id, err))
			continue
		}
		items = append(items, domain.Succeed(id))
	}
	return domain.NewBatchResult(items)
}
