package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// Action types
	AuditActionCreate        = "create"
	AuditActionUpdate        = "update"
	AuditActionSubmit        = "submit"
	AuditActionSubmitSection = "submit_section"
	AuditActionInvalidate    = "invalidate"
)

// FieldChange records the old and new value of one top-level field.
type FieldChange struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// ChangeSet maps changed field names to their old/new values, stored as
// JSONB.
type ChangeSet map[string]FieldChange

func (c ChangeSet) Value() (driver.Value, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c)
}

func (c *ChangeSet) Scan(src interface{}) error {
	if src == nil {
		*c = ChangeSet{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported ChangeSet source type %T", src)
	}
	return json.Unmarshal(b, c)
}

// AuditEntry is the immutable record of one mutation to a care log. Entries
// are only ever appended; ordering by CreatedAt reconstructs full history.
type AuditEntry struct {
	ID               uuid.UUID `json:"id" db:"id"`
	CareLogID        uuid.UUID `json:"care_log_id" db:"care_log_id"`
	ChangedBy        uuid.UUID `json:"changed_by" db:"changed_by"`
	Action           string    `json:"action" db:"action"`
	SectionSubmitted *Section  `json:"section_submitted,omitempty" db:"section_submitted"`
	Changes          ChangeSet `json:"changes" db:"changes"`
	Snapshot         JSONMap   `json:"snapshot" db:"snapshot"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
