package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/carelog-api/internal/model"
	"github.com/carebridge/carelog-api/internal/repository"
)

type auditRepository struct {
	BaseRepository
}

func NewAuditRepository(base BaseRepository) repository.AuditRepository {
	return &auditRepository{base}
}

const auditColumns = `
	id, care_log_id, changed_by, action, section_submitted, changes,
	snapshot, created_at
`

func (r *auditRepository) ListByCareLog(ctx context.Context, careLogID uuid.UUID) ([]*model.AuditEntry, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM care_log_audit
		WHERE care_log_id = $1
		ORDER BY created_at ASC
	`

	var entries []*model.AuditEntry
	if err := r.GetDB().SelectContext(ctx, &entries, query, careLogID); err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}

// ListSince returns entries committed strictly after the given instant.
// Equality counts as already seen.
func (r *auditRepository) ListSince(ctx context.Context, careLogID uuid.UUID, after time.Time) ([]*model.AuditEntry, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM care_log_audit
		WHERE care_log_id = $1 AND created_at > $2
		ORDER BY created_at ASC
	`

	var entries []*model.AuditEntry
	if err := r.GetDB().SelectContext(ctx, &entries, query, careLogID, after); err != nil {
		return nil, fmt.Errorf("failed to list audit entries since %s: %w", after, err)
	}
	return entries, nil
}
