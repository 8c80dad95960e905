package visibility

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

var (
	_ repository.CareLogViewRepository = (*memViewRepo)(nil)
	_ repository.AuditRepository       = (*memAuditRepo)(nil)
	_ repository.CareLogRepository     = (*stubLogRepo)(nil)
)

type memViewRepo struct {
	views map[string]*model.CareLogView
}

func newMemViewRepo() *memViewRepo {
	return &memViewRepo{views: map[string]*model.CareLogView{}}
}

func viewKey(careLogID, userID uuid.UUID) string {
	return careLogID.String() + "/" + userID.String()
}

func (r *memViewRepo) Upsert(_ context.Context, view *model.CareLogView) error {
	r.views[viewKey(view.CareLogID, view.UserID)] = view
	return nil
}

func (r *memViewRepo) GetLatest(_ context.Context, careLogID, userID uuid.UUID) (*model.CareLogView, error) {
	return r.views[viewKey(careLogID, userID)], nil
}

type memAuditRepo struct {
	entries []*model.AuditEntry
}

func (r *memAuditRepo) ListByCareLog(_ context.Context, careLogID uuid.UUID) ([]*model.AuditEntry, error) {
	var out []*model.AuditEntry
	for _, e := range r.entries {
		if e.CareLogID == careLogID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memAuditRepo) ListSince(_ context.Context, careLogID uuid.UUID, after time.Time) ([]*model.AuditEntry, error) {
	var out []*model.AuditEntry
	for _, e := range r.entries {
		if e.CareLogID == careLogID && e.CreatedAt.After(after) {
			out = append(out, e)
		}
	}
	return out, nil
}

// stubLogRepo only backs the existence check in MarkViewed.
type stubLogRepo struct {
	logs map[uuid.UUID]*model.CareLog
}

func (r *stubLogRepo) Create(context.Context, *model.CareLog, *model.AuditEntry, *model.OutboxEvent) error {
	return nil
}

func (r *stubLogRepo) Get(_ context.Context, id uuid.UUID) (*model.CareLog, error) {
	log, ok := r.logs[id]
	if !ok {
		return nil, apperrors.NotFound("care log", nil)
	}
	return log, nil
}

func (r *stubLogRepo) GetByRecipientAndDate(context.Context, uuid.UUID, model.Date) (*model.CareLog, error) {
	return nil, apperrors.NotFound("care log", nil)
}

func (r *stubLogRepo) ListByRecipient(context.Context, uuid.UUID, model.Date, model.Date) ([]*model.CareLog, error) {
	return nil, nil
}

func (r *stubLogRepo) Mutate(context.Context, uuid.UUID, func(*model.CareLog) (*repository.CareLogMutation, error)) (*model.CareLog, error) {
	return nil, apperrors.NotFound("care log", nil)
}

func newFixture(log *model.CareLog) (*Service, *memViewRepo, *memAuditRepo) {
	views := newMemViewRepo()
	audit := &memAuditRepo{}
	logs := &stubLogRepo{logs: map[uuid.UUID]*model.CareLog{log.ID: log}}
	return NewService(views, audit, logs), views, audit
}

func draftLog() *model.CareLog {
	return &model.CareLog{
		Base:              model.Base{ID: uuid.New()},
		CareRecipientID:   uuid.New(),
		LogDate:           model.NewDate(2026, time.March, 14),
		Status:            model.LogStatusDraft,
		Fields:            model.JSONMap{},
		CompletedSections: model.SectionMap{},
	}
}

func auditEntry(careLogID uuid.UUID, at time.Time, fields ...string) *model.AuditEntry {
	changes := model.ChangeSet{}
	for _, f := range fields {
		changes[f] = model.FieldChange{Old: nil, New: "x"}
	}
	return &model.AuditEntry{
		ID:        uuid.New(),
		CareLogID: careLogID,
		ChangedBy: uuid.New(),
		Action:    model.AuditActionUpdate,
		Changes:   changes,
		CreatedAt: at,
	}
}

func TestChangeVisibility_NeverViewedUnsharedLogShowsNothing(t *testing.T) {
	log := draftLog()
	svc, _, audit := newFixture(log)
	audit.entries = append(audit.entries, auditEntry(log.ID, time.Now(), "mood"))

	vis, err := svc.ChangeVisibility(context.Background(), log, uuid.New())
	require.NoError(t, err)
	assert.False(t, vis.HasUnviewedChanges)
	assert.Empty(t, vis.ChangedFields)
}

func TestChangeVisibility_NeverViewedSharedLogShowsEverything(t *testing.T) {
	log := draftLog()
	log.CompletedSections[model.SectionMorning] = model.SectionSubmission{
		SubmittedAt: time.Now().UTC(),
		SubmittedBy: uuid.New(),
	}
	svc, _, audit := newFixture(log)
	base := time.Date(2026, time.March, 14, 8, 0, 0, 0, time.UTC)
	audit.entries = append(audit.entries,
		auditEntry(log.ID, base, "wake_time", "mood"),
		auditEntry(log.ID, base.Add(time.Hour), "mood", "notes"),
	)

	vis, err := svc.ChangeVisibility(context.Background(), log, uuid.New())
	require.NoError(t, err)
	assert.True(t, vis.HasUnviewedChanges)
	assert.Equal(t, []string{"mood", "notes", "wake_time"}, vis.ChangedFields)
}

func TestChangeVisibility_OnlyChangesAfterView(t *testing.T) {
	log := draftLog()
	svc, views, audit := newFixture(log)
	userID := uuid.New()

	viewedAt := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	require.NoError(t, views.Upsert(context.Background(), &model.CareLogView{
		ID: uuid.New(), CareLogID: log.ID, UserID: userID, ViewedAt: viewedAt,
	}))

	audit.entries = append(audit.entries,
		auditEntry(log.ID, viewedAt.Add(-time.Minute), "wake_time"),
		// Committed exactly at viewedAt: counts as seen.
		auditEntry(log.ID, viewedAt, "mood"),
		auditEntry(log.ID, viewedAt.Add(time.Minute), "notes"),
	)

	vis, err := svc.ChangeVisibility(context.Background(), log, userID)
	require.NoError(t, err)
	assert.True(t, vis.HasUnviewedChanges)
	assert.Equal(t, []string{"notes"}, vis.ChangedFields)
}

func TestChangeVisibility_ViewIsPerUser(t *testing.T) {
	log := draftLog()
	log.CompletedSections[model.SectionMorning] = model.SectionSubmission{
		SubmittedAt: time.Now().UTC(),
		SubmittedBy: uuid.New(),
	}
	svc, views, audit := newFixture(log)
	viewer := uuid.New()
	other := uuid.New()

	at := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	audit.entries = append(audit.entries, auditEntry(log.ID, at, "mood"))
	require.NoError(t, views.Upsert(context.Background(), &model.CareLogView{
		ID: uuid.New(), CareLogID: log.ID, UserID: viewer, ViewedAt: at.Add(time.Hour),
	}))

	vis, err := svc.ChangeVisibility(context.Background(), log, viewer)
	require.NoError(t, err)
	assert.False(t, vis.HasUnviewedChanges)

	vis, err = svc.ChangeVisibility(context.Background(), log, other)
	require.NoError(t, err)
	assert.True(t, vis.HasUnviewedChanges)
}

func TestMarkViewed_ClearsBadgeMonotonically(t *testing.T) {
	log := draftLog()
	svc, views, audit := newFixture(log)
	userID := uuid.New()

	audit.entries = append(audit.entries, auditEntry(log.ID, time.Now().UTC().Add(-time.Minute), "mood"))

	require.NoError(t, svc.MarkViewed(context.Background(), log.ID, userID))

	vis, err := svc.ChangeVisibility(context.Background(), log, userID)
	require.NoError(t, err)
	assert.False(t, vis.HasUnviewedChanges)

	// A later change re-raises the badge; a later view clears it again.
	audit.entries = append(audit.entries, auditEntry(log.ID, time.Now().UTC().Add(time.Minute), "notes"))
	vis, err = svc.ChangeVisibility(context.Background(), log, userID)
	require.NoError(t, err)
	assert.True(t, vis.HasUnviewedChanges)

	require.NoError(t, views.Upsert(context.Background(), &model.CareLogView{
		ID: uuid.New(), CareLogID: log.ID, UserID: userID,
		ViewedAt: time.Now().UTC().Add(time.Hour),
	}))
	vis, err = svc.ChangeVisibility(context.Background(), log, userID)
	require.NoError(t, err)
	assert.False(t, vis.HasUnviewedChanges)
}

func TestMarkViewed_UnknownLog(t *testing.T) {
	log := draftLog()
	svc, _, _ := newFixture(log)

	err := svc.MarkViewed(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestDecorate_AttachesBadge(t *testing.T) {
	log := draftLog()
	log.CompletedSections[model.SectionMorning] = model.SectionSubmission{
		SubmittedAt: time.Now().UTC(),
		SubmittedBy: uuid.New(),
	}
	svc, _, audit := newFixture(log)
	audit.entries = append(audit.entries, auditEntry(log.ID, time.Now(), "mood"))

	decorated, err := svc.Decorate(context.Background(), log, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, log.ID, decorated.ID)
	assert.True(t, decorated.HasUnviewedChanges)
	assert.Equal(t, []string{"mood"}, decorated.ChangedFields)
}
