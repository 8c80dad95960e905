package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/carebridge/carelog-api/internal/model"
	"github.com/carebridge/carelog-api/internal/repository"
)

type careLogViewRepository struct {
	BaseRepository
}

func NewCareLogViewRepository(base BaseRepository) repository.CareLogViewRepository {
	return &careLogViewRepository{base}
}

// Upsert keeps one logical "latest view" row per (care log, user).
func (r *careLogViewRepository) Upsert(ctx context.Context, view *model.CareLogView) error {
	query := `
		INSERT INTO care_log_views (id, care_log_id, user_id, viewed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (care_log_id, user_id)
		DO UPDATE SET viewed_at = EXCLUDED.viewed_at
	`

	if _, err := r.GetDB().ExecContext(ctx, query, view.ID, view.CareLogID, view.UserID, view.ViewedAt); err != nil {
		return fmt.Errorf("failed to upsert care log view: %w", err)
	}
	return nil
}

// GetLatest returns nil without error when the user has never viewed the
// log.
func (r *careLogViewRepository) GetLatest(ctx context.Context, careLogID, userID uuid.UUID) (*model.CareLogView, error) {
	query := `
		SELECT id, care_log_id, user_id, viewed_at
		FROM care_log_views
		WHERE care_log_id = $1 AND user_id = $2
	`

	var view model.CareLogView
	if err := r.GetDB().GetContext(ctx, &view, query, careLogID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get care log view: %w", err)
	}
	return &view, nil
}
