package carelog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/carelog-api/internal/model"
	"github.com/carebridge/carelog-api/internal/repository"
	apperrors "github.com/carebridge/carelog-api/pkg/errors"
)

// Compile-time checks.
var (
	_ repository.CareLogRepository = (*memCareLogRepo)(nil)
	_ RecipientDirectory           = (*stubDirectory)(nil)
)

// memCareLogRepo is an in-memory CareLogRepository with the same semantics
// as the SQL implementation: one log per (recipient, date), mutations are
// all-or-nothing, a nil mutation persists nothing.
type memCareLogRepo struct {
	mu      sync.Mutex
	logs    map[uuid.UUID]*model.CareLog
	byDay   map[string]uuid.UUID
	Audits  []*model.AuditEntry
	Events  []*model.OutboxEvent
}

func newMemCareLogRepo() *memCareLogRepo {
	return &memCareLogRepo{
		logs:  map[uuid.UUID]*model.CareLog{},
		byDay: map[string]uuid.UUID{},
	}
}

func dayKey(recipientID uuid.UUID, date model.Date) string {
	return recipientID.String() + "/" + date.String()
}

func cloneLog(log *model.CareLog) *model.CareLog {
	out := *log
	out.Fields = log.Fields.Clone()
	out.CompletedSections = model.SectionMap{}
	for k, v := range log.CompletedSections {
		out.CompletedSections[k] = v
	}
	return &out
}

func (r *memCareLogRepo) Create(_ context.Context, log *model.CareLog, entry *model.AuditEntry, event *model.OutboxEvent) error {
	key := dayKey(log.CareRecipientID, log.LogDate)
	if _, exists := r.byDay[key]; exists {
		return apperrors.AlreadyExists("care log already exists for this date", nil)
	}
	r.logs[log.ID] = cloneLog(log)
	r.byDay[key] = log.ID
	if entry != nil {
		r.Audits = append(r.Audits, entry)
	}
	if event != nil {
		r.Events = append(r.Events, event)
	}
	return nil
}

func (r *memCareLogRepo) Get(_ context.Context, id uuid.UUID) (*model.CareLog, error) {
	log, ok := r.logs[id]
	if !ok {
		return nil, apperrors.NotFound("care log", nil)
	}
	return cloneLog(log), nil
}

func (r *memCareLogRepo) GetByRecipientAndDate(ctx context.Context, recipientID uuid.UUID, date model.Date) (*model.CareLog, error) {
	id, ok := r.byDay[dayKey(recipientID, date)]
	if !ok {
		return nil, apperrors.NotFound("care log", nil)
	}
	return r.Get(ctx, id)
}

func (r *memCareLogRepo) ListByRecipient(_ context.Context, recipientID uuid.UUID, from, to model.Date) ([]*model.CareLog, error) {
	var out []*model.CareLog
	for _, log := range r.logs {
		if log.CareRecipientID != recipientID {
			continue
		}
		if log.LogDate.String() < from.String() || log.LogDate.String() > to.String() {
			continue
		}
		out = append(out, cloneLog(log))
	}
	return out, nil
}

func (r *memCareLogRepo) Mutate(_ context.Context, id uuid.UUID, fn func(*model.CareLog) (*repository.CareLogMutation, error)) (*model.CareLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.logs[id]
	if !ok {
		return nil, apperrors.NotFound("care log", nil)
	}

	working := cloneLog(stored)
	mutation, err := fn(working)
	if err != nil {
		return nil, err
	}
	if mutation == nil {
		return working, nil
	}

	working.UpdatedAt = time.Now().UTC()
	r.logs[id] = cloneLog(working)
	if mutation.Audit != nil {
		r.Audits = append(r.Audits, mutation.Audit)
	}
	if mutation.Event != nil {
		r.Events = append(r.Events, mutation.Event)
	}
	return working, nil
}

func (r *memCareLogRepo) auditsFor(id uuid.UUID) []*model.AuditEntry {
	var out []*model.AuditEntry
	for _, entry := range r.Audits {
		if entry.CareLogID == id {
			out = append(out, entry)
		}
	}
	return out
}

// stubDirectory resolves every recipient to a fixed timezone and day.
type stubDirectory struct {
	today model.Date
	err   error
}

func (d *stubDirectory) Get(_ context.Context, id uuid.UUID) (*model.CareRecipient, error) {
	if d.err != nil {
		return nil, d.err
	}
	return &model.CareRecipient{
		Base:     model.Base{ID: id},
		Name:     "Eleanor",
		Timezone: "America/New_York",
	}, nil
}

func (d *stubDirectory) Today(_ context.Context, _ uuid.UUID) (model.Date, error) {
	if d.err != nil {
		return model.Date{}, d.err
	}
	return d.today, nil
}
