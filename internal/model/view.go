package model

import (
	"time"

	"github.com/google/uuid"
)

// CareLogView records that a family viewer has seen a care log as of a point
// in time. Only the latest view per (care log, user) matters for
// change-visibility.
type CareLogView struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CareLogID uuid.UUID `json:"care_log_id" db:"care_log_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ViewedAt  time.Time `json:"viewed_at" db:"viewed_at"`
}

// ChangeVisibility is the derived "new changes" badge for one viewer.
type ChangeVisibility struct {
	HasUnviewedChanges bool     `json:"has_unviewed_changes"`
	ChangedFields      []string `json:"changed_fields"`
}
