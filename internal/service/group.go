package service

import (
	"context"
	"log/slog"

	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/repository"
	"github.com/creamcroissant/fpbrowser/internal/security"
)

// GroupService manages profile groups.
type GroupService interface {
	List(ctx context.Context) ([]domain.Group, error)
	Create(ctx context.Context, input domain.CreateGroupInput) (*domain.Group, error)
	Update(ctx context.Context, id string, input domain.UpdateGroupInput) (*domain.Group, error)
	Delete(ctx context.Context, id string) error
}

type groupService struct {
	groups    repository.GroupRepository
	sanitizer *security.Sanitizer
	logger    *slog.Logger
}

// NewGroupService wires group persistence.
func NewGroupService(store repository.Store, sanitizer *security.Sanitizer, logger *slog.Logger) GroupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &groupService{
		groups:    store.Groups(),
		sanitizer: sanitizerOrDefault(sanitizer),
		logger:    logger.With("component", "group"),
	}
}

func (s *groupService) List(ctx context.Context) ([]domain.Group, error) {
	return s.groups.List(ctx)
}

func (s *groupService) Create(ctx context.Context, input domain.CreateGroupInput) (*domain.Group, error) {
	input.Name = s.sanitizer.Text(input.Name)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	group := &domain.Group{
		ID:         newID(),
		Name:       input.Name,
		Sort:       input.Sort,
		Permission: input.Permission,
		Remark:     s.sanitizer.Text(input.Remark),
		Icon:       input.Icon,
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, mapRepoError(err, ErrNotFound)
	}
	return group, nil
}

func (s *groupService) Update(ctx context.Context, id string, input domain.UpdateGroupInput) (*domain.Group, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, ErrNotFound)
	}
	if group.Permission == domain.PermissionReadonly {
		return nil, ErrGroupReadonly
	}
	if input.Name != nil {
		name := s.sanitizer.Text(*input.Name)
		if err := requireText("name", name); err != nil {
			return nil, err
		}
		group.Name = name
	}
	if input.Sort != nil {
		group.Sort = *input.Sort
	}
	if input.Remark != nil {
		group.Remark = s.sanitizer.Text(*input.Remark)
	}
	if input.Icon != nil {
		group.Icon = *input.Icon
	}
	if err := s.groups.Update(ctx, group); err != nil {
		return nil, mapRepoError(err, ErrNotFound)
	}
	return group, nil
}

// Delete 默认分组与仍有窗口的分组都不可删除。
func (s *groupService) Delete(ctx context.Context, id string) error {
	if id == domain.DefaultGroupID {
		return ErrDefaultGroup
	}
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		return mapRepoError(err, ErrNotFound)
	}
	if group.ProfileCount > 0 {
		return ErrGroupNotEmpty
	}
	if err := s.groups.Delete(ctx, id); err != nil {
		return mapRepoError(err, ErrNotFound)
	}
	s.logger.Info("group deleted", "group_id", id)
	return nil
}
