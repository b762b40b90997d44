package service

import (
	"context"

	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/repository"
	"github.com/creamcroissant/fpbrowser/internal/security"
)

// ExtensionService manages the extension catalog.
type ExtensionService interface {
	List(ctx context.Context) ([]domain.Extension, error)
	Create(ctx context.Context, input domain.CreateExtensionInput) (*domain.Extension, error)
	Update(ctx context.Context, id string, input domain.UpdateExtensionInput) (*domain.Extension, error)
	Delete(ctx context.Context, id string) error
}

type extensionService struct {
	extensions repository.ExtensionRepository
	sanitizer  *security.Sanitizer
}

// NewExtensionService wires extension persistence.
func NewExtensionService(store repository.Store, sanitizer *security.Sanitizer) ExtensionService {
	return &extensionService{extensions: store.Extensions(), sanitizer: sanitizerOrDefault(sanitizer)}
}

func (s *extensionService) List(ctx context.Context) ([]domain.Extension, error) {
	return s.extensions.List(ctx)
}

func (s *extensionService) Create(ctx context.Context, input domain.CreateExtensionInput) (*domain.Extension, error) {
	input.Name = s.sanitizer.Text(input.Name)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	ext := &domain.Extension{
		ID:          newID(),
		Name:        input.Name,
		Version:     input.Version,
		Description: s.sanitizer.Text(input.Description),
		Enabled:     input.Enabled,
		Sort:        input.Sort,
	}
	if err := s.extensions.Create(ctx, ext); err != nil {
		return nil, mapRepoError(err, ErrNotFound)
	}
	return ext, nil
}

func (s *extensionService) Update(ctx context.Context, id string, input domain.UpdateExtensionInput) (*domain.Extension, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	ext, err := s.extensions.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, ErrNotFound)
	}
	if input.Name != nil {
		ext.Name = s.sanitizer.Text(*input.Name)
	}
	if input.Version != nil {
		ext.Version = *input.Version
	}
	if input.Description != nil {
		ext.Description = s.sanitizer.Text(*input.Description)
	}
	if input.Enabled != nil {
		ext.Enabled = *input.Enabled
	}
	if input.Sort != nil {
		ext.Sort = *input.Sort
	}
	if err := s.extensions.Update(ctx, ext); err != nil {
		return nil, mapRepoError(err, ErrNotFound)
	}
	return ext, nil
}

func (s *extensionService) Delete(ctx context.Context, id string) error {
	return mapRepoError(s.extensions.Delete(ctx, id), ErrNotFound)
}
