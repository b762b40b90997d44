package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/events"
	"github.com/creamcroissant/fpbrowser/internal/metrics"
	"github.com/creamcroissant/fpbrowser/internal/repository"
	"github.com/creamcroissant/fpbrowser/internal/wire"
)

// RecycleBinService manages soft-deleted profiles.
type RecycleBinService interface {
	List(ctx context.Context) ([]domain.RecycledProfile, error)
	Restore(ctx context.Context, id string) error
	BatchRestore(ctx context.Context, ids []string) domain.BatchResult
	PermanentlyDelete(ctx context.Context, id string) error
	BatchPermanentlyDelete(ctx context.Context, ids []string) domain.BatchResult
	Empty(ctx context.Context) (int64, error)
	PurgeExpired(ctx context.Context, retention time.Duration) (int64, error)
}

type recycleBinService struct {
	profiles repository.ProfileRepository
	dataRoot string
	events   events.Publisher
	metrics  *metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewRecycleBinService wires the recycle bin. dataRoot holds per-profile browser data removed on purge.
func NewRecycleBinService(store repository.Store, dataRoot string, publisher events.Publisher, recorder *metrics.Recorder, logger *slog.Logger) RecycleBinService {
	if logger == nil {
		logger = slog.Default()
	}
	return &recycleBinService{
		profiles: store.Profiles(),
		dataRoot: dataRoot,
		events:   publisherOrNoop(publisher),
		metrics:  recorder,
		logger:   logger.With("component", "recycle_bin"),
		now:      time.Now,
	}
}

func (s *recycleBinService) List(ctx context.Context) ([]domain.RecycledProfile, error) {
	return s.profiles.ListDeleted(ctx)
}

func (s *recycleBinService) Restore(ctx context.Context, id string) error {
	if err := s.profiles.Restore(ctx, id); err != nil {
		return binError(err)
	}
	if p, err := s.profiles.FindByID(ctx, id); err == nil {
		s.events.Emit(events.ProfileCreated, wire.ProfileToWire(*p))
	}
	s.logger.Info("profile restored", "profile_id", id)
	return nil
}

func (s *recycleBinService) BatchRestore(ctx context.Context, ids []string) domain.BatchResult {
	return runBatch(ids, func(id string) error { return s.Restore(ctx, id) })
}

func (s *recycleBinService) PermanentlyDelete(ctx context.Context, id string) error {
	if err := s.profiles.Purge(ctx, id); err != nil {
		return binError(err)
	}
	s.removeData(id)
	s.metrics.Purged(1)
	return nil
}

func (s *recycleBinService) BatchPermanentlyDelete(ctx context.Context, ids []string) domain.BatchResult {
	return runBatch(ids, func(id string) error { return s.PermanentlyDelete(ctx, id) })
}

func (s *recycleBinService) Empty(ctx context.Context) (int64, error) {
	binned, err := s.profiles.ListDeleted(ctx)
	if err != nil {
		return 0, err
	}
	n, err := s.profiles.PurgeAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("empty recycle bin: %w", err)
	}
	for _, p := range binned {
		s.removeData(p.ID)
	}
	s.metrics.Purged(n)
	s.logger.Info("recycle bin emptied", "count", n)
	return n, nil
}

// PurgeExpired 删除在回收站中停留超过 retention 的窗口。
func (s *recycleBinService) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().UTC().Add(-retention)
	binned, err := s.profiles.ListDeleted(ctx)
	if err != nil {
		return 0, err
	}
	n, err := s.profiles.PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge expired profiles: %w", err)
	}
	for _, p := range binned {
		if p.DeletedAt.Before(cutoff) {
			s.removeData(p.ID)
		}
	}
	s.metrics.Purged(n)
	if n > 0 {
		s.logger.Info("expired profiles purged", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

func (s *recycleBinService) removeData(id string) {
	if s.dataRoot == "" || id == "" || filepath.Base(id) != id {
		return
	}
	if err := os.RemoveAll(filepath.Join(s.dataRoot, id)); err != nil {
		s.logger.Warn("remove profile data failed", "profile_id", id, "error", err)
	}
}

func binError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotDeleted):
		return ErrNotInRecycleBin
	case errors.Is(err, repository.ErrNotFound):
		return ErrProfileNotFound
	}
	return err
}
