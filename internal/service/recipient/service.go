package recipient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/carebridge/carelog-api/internal/model"
	"github.com/carebridge/carelog-api/internal/repository"
	apperrors "github.com/carebridge/carelog-api/pkg/errors"
)

const (
	locationCacheTTL     = 12 * time.Hour
	locationCacheCleanup = 1 * time.Hour
)

// Service manages care recipients and resolves "today" in each recipient's
// configured IANA timezone. Timezone lookups are cached; zone data never
// changes within a process lifetime.
type Service struct {
	repo      repository.CareRecipientRepository
	locations *gocache.Cache
	now       func() time.Time
}

func NewService(repo repository.CareRecipientRepository) *Service {
	return &Service{
		repo:      repo,
		locations: gocache.New(locationCacheTTL, locationCacheCleanup),
		now:       time.Now,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateCareRecipientRequest) (*model.CareRecipient, error) {
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid timezone %q", req.Timezone), err)
	}

	now := time.Now().UTC()
	recipient := &model.CareRecipient{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:     req.Name,
		Timezone: req.Timezone,
		Notes:    req.Notes,
	}
	if err := s.repo.Create(ctx, recipient); err != nil {
		return nil, err
	}
	return recipient, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.CareRecipient, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*model.CareRecipient, error) {
	return s.repo.List(ctx)
}

// Today returns the recipient's current calendar day in their own timezone,
// not the server's. Near midnight these differ, and using the wrong one
// would attach observations to the wrong log.
func (s *Service) Today(ctx context.Context, recipientID uuid.UUID) (model.Date, error) {
	recipient, err := s.repo.Get(ctx, recipientID)
	if err != nil {
		return model.Date{}, err
	}

	loc, err := s.location(recipient.Timezone)
	if err != nil {
		return model.Date{}, err
	}
	return model.DateOf(s.now().In(loc)), nil
}

func (s *Service) location(tz string) (*time.Location, error) {
	if cached, ok := s.locations.Get(tz); ok {
		return cached.(*time.Location), nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", tz, err)
	}
	s.locations.Set(tz, loc, gocache.DefaultExpiration)
	return loc, nil
}
