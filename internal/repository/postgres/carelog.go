package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carebridge/carelog-api/internal/model"
	"github.com/carebridge/carelog-api/internal/repository"
	apperrors "github.com/carebridge/carelog-api/pkg/errors"
)

type careLogRepository struct {
	BaseRepository
}

func NewCareLogRepository(base BaseRepository) repository.CareLogRepository {
	return &careLogRepository{base}
}

const careLogColumns = `
	id, care_recipient_id, log_date, status, fields, completed_sections,
	created_by, submitted_at, submitted_by, invalidated_at, invalidated_by,
	invalidation_reason, created_at, updated_at
`

func (r *careLogRepository) Create(ctx context.Context, log *model.CareLog, entry *model.AuditEntry, event *model.OutboxEvent) error {
	query := `
		INSERT INTO care_logs (` + careLogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			log.ID,
			log.CareRecipientID,
			log.LogDate,
			log.Status,
			log.Fields,
			log.CompletedSections,
			log.CreatedBy,
			log.SubmittedAt,
			log.SubmittedBy,
			log.InvalidatedAt,
			log.InvalidatedBy,
			log.InvalidationReason,
			log.CreatedAt,
			log.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if err := insertAuditEntry(ctx, tx, entry); err != nil {
			return err
		}
		return insertOutboxEvent(ctx, tx, event)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists(
				fmt.Sprintf("care log already exists for recipient %s on %s", log.CareRecipientID, log.LogDate),
				err,
			)
		}
		return fmt.Errorf("failed to create care log: %w", err)
	}
	return nil
}

func (r *careLogRepository) Get(ctx context.Context, id uuid.UUID) (*model.CareLog, error) {
	query := `SELECT ` + careLogColumns + ` FROM care_logs WHERE id = $1`

	var log model.CareLog
	if err := r.GetDB().GetContext(ctx, &log, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("care log", err)
		}
		return nil, fmt.Errorf("failed to get care log: %w", err)
	}
	return &log, nil
}

func (r *careLogRepository) GetByRecipientAndDate(ctx context.Context, recipientID uuid.UUID, date model.Date) (*model.CareLog, error) {
	query := `
		SELECT ` + careLogColumns + `
		FROM care_logs
		WHERE care_recipient_id = $1 AND log_date = $2
	`

	var log model.CareLog
	if err := r.GetDB().GetContext(ctx, &log, query, recipientID, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("care log", err)
		}
		return nil, fmt.Errorf("failed to get care log by date: %w", err)
	}
	return &log, nil
}

func (r *careLogRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, from, to model.Date) ([]*model.CareLog, error) {
	query := `
		SELECT ` + careLogColumns + `
		FROM care_logs
		WHERE care_recipient_id = $1 AND log_date >= $2 AND log_date <= $3
		ORDER BY log_date DESC
	`

	var logs []*model.CareLog
	if err := r.GetDB().SelectContext(ctx, &logs, query, recipientID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list care logs: %w", err)
	}
	return logs, nil
}

// Mutate loads the row FOR UPDATE, applies fn and writes the result plus its
// audit entry and outbox event in one transaction. The row lock is the
// per-log serialization point: a concurrent Mutate on the same log blocks
// until this transaction commits, so no diff is ever computed against a
// stale snapshot. A nil mutation commits without writing anything.
func (r *careLogRepository) Mutate(ctx context.Context, id uuid.UUID, fn func(*model.CareLog) (*repository.CareLogMutation, error)) (*model.CareLog, error) {
	query := `SELECT ` + careLogColumns + ` FROM care_logs WHERE id = $1 FOR UPDATE`

	update := `
		UPDATE care_logs SET
			status = $2,
			fields = $3,
			completed_sections = $4,
			submitted_at = $5,
			submitted_by = $6,
			invalidated_at = $7,
			invalidated_by = $8,
			invalidation_reason = $9,
			updated_at = $10
		WHERE id = $1
	`

	var log model.CareLog
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &log, query, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.NotFound("care log", err)
			}
			return fmt.Errorf("failed to lock care log: %w", err)
		}

		mutation, err := fn(&log)
		if err != nil {
			return err
		}
		if mutation == nil {
			return nil
		}

		log.UpdatedAt = time.Now().UTC()
		if _, err := tx.ExecContext(ctx, update,
			log.ID,
			log.Status,
			log.Fields,
			log.CompletedSections,
			log.SubmittedAt,
			log.SubmittedBy,
			log.InvalidatedAt,
			log.InvalidatedBy,
			log.InvalidationReason,
			log.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to update care log: %w", err)
		}

		if err := insertAuditEntry(ctx, tx, mutation.Audit); err != nil {
			return err
		}
		return insertOutboxEvent(ctx, tx, mutation.Event)
	})
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func insertAuditEntry(ctx context.Context, tx *sqlx.Tx, entry *model.AuditEntry) error {
	if entry == nil {
		return nil
	}
	query := `
		INSERT INTO care_log_audit (
			id, care_log_id, changed_by, action, section_submitted,
			changes, snapshot, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.ExecContext(ctx, query,
		entry.ID,
		entry.CareLogID,
		entry.ChangedBy,
		entry.Action,
		entry.SectionSubmitted,
		entry.Changes,
		entry.Snapshot,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func insertOutboxEvent(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error {
	if event == nil {
		return nil
	}
	query := `
		INSERT INTO outbox_events (
			id, event_type, payload, status, retry_count, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.Payload,
		event.Status,
		event.RetryCount,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}
