package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/carelog-api/internal/model"
)

// CareLogMutation is what a mutation closure hands back to the repository:
// the audit entry and outbox event to persist atomically with the updated
// row. A nil mutation means the closure decided the write is a no-op and
// nothing at all is persisted.
type CareLogMutation struct {
	Audit *model.AuditEntry
	Event *model.OutboxEvent
}

// All repository interfaces in one file
type (
	// CareLogRepository persists the daily care log aggregate. Mutate is the
	// per-log serialization point: implementations must load the row, run fn
	// and write the result (plus audit entry and outbox event) atomically so
	// concurrent mutations of the same log cannot interleave.
	CareLogRepository interface {
		Create(ctx context.Context, log *model.CareLog, entry *model.AuditEntry, event *model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.CareLog, error)
		GetByRecipientAndDate(ctx context.Context, recipientID uuid.UUID, date model.Date) (*model.CareLog, error)
		ListByRecipient(ctx context.Context, recipientID uuid.UUID, from, to model.Date) ([]*model.CareLog, error)
		Mutate(ctx context.Context, id uuid.UUID, fn func(*model.CareLog) (*CareLogMutation, error)) (*model.CareLog, error)
	}

	// AuditRepository reads the append-only audit trail. Entries are written
	// only through CareLogRepository transactions; nothing ever rewrites or
	// deletes them.
	AuditRepository interface {
		ListByCareLog(ctx context.Context, careLogID uuid.UUID) ([]*model.AuditEntry, error)
		ListSince(ctx context.Context, careLogID uuid.UUID, after time.Time) ([]*model.AuditEntry, error)
	}

	// CareLogViewRepository tracks the latest view per (care log, user).
	CareLogViewRepository interface {
		Upsert(ctx context.Context, view *model.CareLogView) error
		GetLatest(ctx context.Context, careLogID, userID uuid.UUID) (*model.CareLogView, error)
	}

	CareRecipientRepository interface {
		Create(ctx context.Context, recipient *model.CareRecipient) error
		Get(ctx context.Context, id uuid.UUID) (*model.CareRecipient, error)
		List(ctx context.Context) ([]*model.CareRecipient, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		ListByRecipientAndRole(ctx context.Context, recipientID uuid.UUID, role string) ([]*model.User, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	}
)
