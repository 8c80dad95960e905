package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/carebridge/carelog-api/internal/model"
	"github.com/carebridge/carelog-api/internal/repository"
	apperrors "github.com/carebridge/carelog-api/pkg/errors"
)

type careRecipientRepository struct {
	BaseRepository
}

func NewCareRecipientRepository(base BaseRepository) repository.CareRecipientRepository {
	return &careRecipientRepository{base}
}

func (r *careRecipientRepository) Create(ctx context.Context, recipient *model.CareRecipient) error {
	query := `
		INSERT INTO care_recipients (id, name, timezone, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := r.GetDB().ExecContext(ctx, query,
		recipient.ID,
		recipient.Name,
		recipient.Timezone,
		recipient.Notes,
		recipient.CreatedAt,
		recipient.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create care recipient: %w", err)
	}
	return nil
}

func (r *careRecipientRepository) Get(ctx context.Context, id uuid.UUID) (*model.CareRecipient, error) {
	query := `
		SELECT id, name, timezone, notes, created_at, updated_at
		FROM care_recipients
		WHERE id = $1
	`

	var recipient model.CareRecipient
	if err := r.GetDB().GetContext(ctx, &recipient, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("care recipient", err)
		}
		return nil, fmt.Errorf("failed to get care recipient: %w", err)
	}
	return &recipient, nil
}

func (r *careRecipientRepository) List(ctx context.Context) ([]*model.CareRecipient, error) {
	query := `
		SELECT id, name, timezone, notes, created_at, updated_at
		FROM care_recipients
		ORDER BY name ASC
	`

	var recipients []*model.CareRecipient
	if err := r.GetDB().SelectContext(ctx, &recipients, query); err != nil {
		return nil, fmt.Errorf("failed to list care recipients: %w", err)
	}
	return recipients, nil
}
