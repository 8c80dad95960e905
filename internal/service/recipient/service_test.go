package recipient

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/carelog-api/internal/model"
	"github.com/carebridge/carelog-api/internal/repository"
	apperrors "github.com/carebridge/carelog-api/pkg/errors"
)

var _ repository.CareRecipientRepository = (*memRecipientRepo)(nil)

type memRecipientRepo struct {
	recipients map[uuid.UUID]*model.CareRecipient
}

func newMemRecipientRepo() *memRecipientRepo {
	return &memRecipientRepo{recipients: map[uuid.UUID]*model.CareRecipient{}}
}

func (r *memRecipientRepo) Create(_ context.Context, recipient *model.CareRecipient) error {
	r.recipients[recipient.ID] = recipient
	return nil
}

func (r *memRecipientRepo) Get(_ context.Context, id uuid.UUID) (*model.CareRecipient, error) {
	recipient, ok := r.recipients[id]
	if !ok {
		return nil, apperrors.NotFound("care recipient", nil)
	}
	return recipient, nil
}

func (r *memRecipientRepo) List(_ context.Context) ([]*model.CareRecipient, error) {
	var out []*model.CareRecipient
	for _, recipient := range r.recipients {
		out = append(out, recipient)
	}
	return out, nil
}

func TestCreate_RejectsInvalidTimezone(t *testing.T) {
	svc := NewService(newMemRecipientRepo())

	_, err := svc.Create(context.Background(), &model.CreateCareRecipientRequest{
		Name:     "Eleanor",
		Timezone: "Mars/Olympus_Mons",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestToday_UsesRecipientTimezone(t *testing.T) {
	repo := newMemRecipientRepo()
	svc := NewService(repo)

	// 01:30 UTC on March 15th: already the 15th in Tokyo, still the 14th
	// in Honolulu.
	svc.now = func() time.Time {
		return time.Date(2026, time.March, 15, 1, 30, 0, 0, time.UTC)
	}

	tokyo, err := svc.Create(context.Background(), &model.CreateCareRecipientRequest{
		Name:     "Haruto",
		Timezone: "Asia/Tokyo",
	})
	require.NoError(t, err)
	honolulu, err := svc.Create(context.Background(), &model.CreateCareRecipientRequest{
		Name:     "Leilani",
		Timezone: "Pacific/Honolulu",
	})
	require.NoError(t, err)

	today, err := svc.Today(context.Background(), tokyo.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", today.String())

	today, err = svc.Today(context.Background(), honolulu.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", today.String())
}

func TestToday_UnknownRecipient(t *testing.T) {
	svc := NewService(newMemRecipientRepo())

	_, err := svc.Today(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
