package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/events"
	"github.com/creamcroissant/fpbrowser/internal/repository"
	"github.com/creamcroissant/fpbrowser/internal/security"
	"github.com/creamcroissant/fpbrowser/internal/wire"
)

// TagService manages tags and profile tag assignment.
type TagService interface {
	List(ctx context.Context) ([]domain.Tag, error)
	Create(ctx context.Context, input domain.CreateTagInput) (*domain.Tag, error)
	Update(ctx context.Context, id string, input domain.UpdateTagInput) (*domain.Tag, error)
	Delete(ctx context.Context, id string) error
	ForProfile(ctx context.Context, profileID string) ([]domain.Tag, error)
	SetForProfile(ctx context.Context, profileID string, tagIDs []string) error
}

type tagService struct {
	tags      repository.TagRepository
	profiles  repository.ProfileRepository
	sanitizer *security.Sanitizer
	events    events.Publisher
	logger    *slog.Logger
}

// NewTagService wires tag persistence with event publishing.
func NewTagService(store repository.Store, sanitizer *security.Sanitizer, publisher events.Publisher, logger *slog.Logger) TagService {
	if logger == nil {
		logger = slog.Default()
	}
	return &tagService{
		tags:      store.Tags(),
		profiles:  store.Profiles(),
		sanitizer: sanitizerOrDefault(sanitizer),
		events:    publisherOrNoop(publisher),
		logger:    logger.With("component", "tag"),
	}
}

func (s *tagService) List(ctx context.Context) ([]domain.Tag, error) {
	return s.tags.List(ctx)
}

func (s *tagService) Create(ctx context.Context, input domain.CreateTagInput) (*domain.Tag, error) {
	input.Name = s.sanitizer.Text(input.Name)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	tag := &domain.Tag{
		ID:     newID(),
		Name:   input.Name,
		Sort:   input.Sort,
		Remark: s.sanitizer.Text(input.Remark),
	}
	if err := s.tags.Create(ctx, tag); err != nil {
		return nil, mapRepoError(err, ErrNotFound)
	}
	s.events.Emit(events.TagCreated, wire.TagToWire(*tag))
	return tag, nil
}

func (s *tagService) Update(ctx context.Context, id string, input domain.UpdateTagInput) (*domain.Tag, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	tag, err := s.tags.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, ErrNotFound)
	}
	if input.Name != nil {
		name := s.sanitizer.Text(*input.Name)
		if err := requireText("name", name); err != nil {
			return nil, err
		}
		tag.Name = name
	}
	if input.Sort != nil {
		tag.Sort = *input.Sort
	}
	if input.Remark != nil {
		tag.Remark = s.sanitizer.Text(*input.Remark)
	}
	if err := s.tags.Update(ctx, tag); err != nil {
		return nil, mapRepoError(err, ErrNotFound)
	}
	s.events.Emit(events.TagUpdated, wire.TagToWire(*tag))
	return tag, nil
}

func (s *tagService) Delete(ctx context.Context, id string) error {
	if err := s.tags.Delete(ctx, id); err != nil {
		return mapRepoError(err, ErrNotFound)
	}
	s.events.Emit(events.TagDeleted, events.IDPayload{ID: id})
	return nil
}

func (s *tagService) ForProfile(ctx context.Context, profileID string) ([]domain.Tag, error) {
	if _, err := s.profiles.FindByID(ctx, profileID); err != nil {
		return nil, mapRepoError(err, ErrProfileNotFound)
	}
	return s.tags.ListForProfile(ctx, profileID)
}

// SetForProfile 以给定集合整体替换窗口标签。
func (s *tagService) SetForProfile(ctx context.Context, profileID string, tagIDs []string) error {
	if _, err := s.profiles.FindByID(ctx, profileID); err != nil {
		return mapRepoError(err, ErrProfileNotFound)
	}
	tagIDs = dedupe(tagIDs)
	for _, id := range tagIDs {
		if _, err := s.tags.FindByID(ctx, id); err != nil {
			return fmt.Errorf("%w: tag %q: %w", ErrInvalidInput, id, mapRepoError(err, ErrNotFound))
		}
	}
	return s.tags.SetForProfile(ctx, profileID, tagIDs)
}
