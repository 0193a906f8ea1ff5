package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/OlmanCE/agro-track-sub000/internal/domain/models"
)

type Repository interface {
	GetNursery(ctx context.Context, nurseryID string) (models.Nursery, error)
	ListNurseries(ctx context.Context) ([]models.Nursery, error)
	PutNursery(ctx context.Context, n models.Nursery) error
	GetBed(ctx context.Context, nurseryID, bedID string) (models.GrowBed, error)
	ListBeds(ctx context.Context, nurseryID string) ([]models.GrowBed, error)
	PutBed(ctx context.Context, b models.GrowBed) error
}

// Service handles administrative upserts of nurseries and beds.
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// UpsertNursery creates or replaces a nursery, keeping its creation time.
func (s *Service) UpsertNursery(ctx context.Context, n models.Nursery) (models.Nursery, error) {
	if err := n.Validate(); err != nil {
		return models.Nursery{}, err
	}
	now := s.now().UTC()
	n.CreatedAt = now
	existing, err := s.repo.GetNursery(ctx, n.ID)
	switch {
	case err == nil:
		n.CreatedAt = existing.CreatedAt
	case !models.IsKind(err, models.KindNotFound):
		return models.Nursery{}, err
	}
	n.UpdatedAt = now

	if err := s.repo.PutNursery(ctx, n); err != nil {
		return models.Nursery{}, err
	}
	s.logger.Info("nursery saved", zap.String("nursery_id", n.ID))
	return n, nil
}

// UpsertBed creates or replaces a bed of an existing nursery. The stored
// statistics snapshot is carried over; any snapshot in b is ignored.
func (s *Service) UpsertBed(ctx context.Context, b models.GrowBed) (models.GrowBed, error) {
	if b.State == "" {
		b.State = models.BedStateActive
	}
	if err := b.Validate(); err != nil {
		return models.GrowBed{}, err
	}
	if _, err := s.repo.GetNursery(ctx, b.NurseryID); err != nil {
		return models.GrowBed{}, err
	}

	now := s.now().UTC()
	b.CreatedAt = now
	b.Statistics = nil
	existing, err := s.repo.GetBed(ctx, b.NurseryID, b.ID)
	switch {
	case err == nil:
		b.CreatedAt = existing.CreatedAt
		b.Statistics = existing.Statistics
	case !models.IsKind(err, models.KindNotFound):
		return models.GrowBed{}, err
	}
	b.UpdatedAt = now

	if err := s.repo.PutBed(ctx, b); err != nil {
		return models.GrowBed{}, err
	}
	s.logger.Info("bed saved", zap.String("nursery_id", b.NurseryID), zap.String("bed_id", b.ID))
	return b, nil
}

// ListNurseries returns every nursery.
func (s *Service) ListNurseries(ctx context.Context) ([]models.Nursery, error) {
	return s.repo.ListNurseries(ctx)
}

// ListBeds returns the beds of an existing nursery.
func (s *Service) ListBeds(ctx context.Context, nurseryID string) ([]models.GrowBed, error) {
	if _, err := s.repo.GetNursery(ctx, nurseryID); err != nil {
		return nil, err
	}
	return s.repo.ListBeds(ctx, nurseryID)
}
