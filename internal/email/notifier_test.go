package email

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/carelog-api/internal/model"
	"github.com/carebridge/carelog-api/internal/repository"
	"github.com/carebridge/carelog-api/pkg/metrics"
)

var (
	_ Sender                             = (*fakeSender)(nil)
	_ repository.UserRepository          = (*fakeUserRepo)(nil)
	_ repository.CareRecipientRepository = (*fakeRecipientRepo)(nil)

	testMetrics = metrics.NewMetrics("carebridge", "email_test")
)

type sentMail struct {
	To      []string
	Subject string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (s *fakeSender) Send(to []string, subject, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMail{To: to, Subject: subject})
	return nil
}

type fakeUserRepo struct {
	users []*model.User
}

func (r *fakeUserRepo) Create(context.Context, *model.User) error { return nil }

func (r *fakeUserRepo) Get(context.Context, uuid.UUID) (*model.User, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeUserRepo) GetByEmail(context.Context, string) (*model.User, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeUserRepo) ListByRecipientAndRole(_ context.Context, recipientID uuid.UUID, role string) ([]*model.User, error) {
	var out []*model.User
	for _, u := range r.users {
		if u.CareRecipientID == recipientID && u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeRecipientRepo struct{}

func (fakeRecipientRepo) Create(context.Context, *model.CareRecipient) error { return nil }
func (fakeRecipientRepo) Get(context.Context, uuid.UUID) (*model.CareRecipient, error) {
	return nil, errors.New("not implemented")
}
func (fakeRecipientRepo) List(context.Context) ([]*model.CareRecipient, error) { return nil, nil }

func user(recipientID uuid.UUID, role, email string) *model.User {
	return &model.User{
		Base:            model.Base{ID: uuid.New()},
		Email:           email,
		Role:            role,
		CareRecipientID: recipientID,
	}
}

func eventPayload(t *testing.T, recipientID uuid.UUID) []byte {
	t.Helper()
	payload, err := json.Marshal(model.CareLogEvent{
		CareLogID:       uuid.New(),
		CareRecipientID: recipientID,
		LogDate:         "2026-03-14",
		Status:          model.LogStatusSubmitted,
		ChangedBy:       uuid.New(),
	})
	require.NoError(t, err)
	return payload
}

func TestNotify_SubmittedGoesToFamily(t *testing.T) {
	recipientID := uuid.New()
	sender := &fakeSender{}
	users := &fakeUserRepo{users: []*model.User{
		user(recipientID, model.RoleFamily, "daughter@example.com"),
		user(recipientID, model.RoleFamilyAdmin, "son@example.com"),
		user(recipientID, model.RoleCaregiver, "aide@example.com"),
		user(uuid.New(), model.RoleFamily, "stranger@example.com"),
	}}
	n := NewNotifier(sender, users, fakeRecipientRepo{}, testMetrics, zerolog.Nop())

	err := n.Notify(context.Background(), model.EventCareLogSubmitted, eventPayload(t, recipientID))
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.ElementsMatch(t, []string{"daughter@example.com", "son@example.com"}, sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Subject, "2026-03-14")
}

func TestNotify_InvalidatedGoesToCaregivers(t *testing.T) {
	recipientID := uuid.New()
	sender := &fakeSender{}
	users := &fakeUserRepo{users: []*model.User{
		user(recipientID, model.RoleCaregiver, "aide@example.com"),
		user(recipientID, model.RoleFamily, "daughter@example.com"),
	}}
	n := NewNotifier(sender, users, fakeRecipientRepo{}, testMetrics, zerolog.Nop())

	err := n.Notify(context.Background(), model.EventCareLogInvalidated, eventPayload(t, recipientID))
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"aide@example.com"}, sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Subject, "correction")
}

func TestNotify_IgnoresOtherEvents(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, &fakeUserRepo{}, fakeRecipientRepo{}, testMetrics, zerolog.Nop())

	err := n.Notify(context.Background(), model.EventCareLogUpdated, eventPayload(t, uuid.New()))
	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestNotify_BadPayload(t *testing.T) {
	n := NewNotifier(&fakeSender{}, &fakeUserRepo{}, fakeRecipientRepo{}, testMetrics, zerolog.Nop())

	err := n.Notify(context.Background(), model.EventCareLogSubmitted, []byte("not json"))
	require.Error(t, err)
}
