package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Care log event types relayed to the broker.
const (
	EventCareLogCreated          = "CARELOG_CREATED"
	EventCareLogUpdated          = "CARELOG_UPDATED"
	EventCareLogSectionSubmitted = "CARELOG_SECTION_SUBMITTED"
	EventCareLogSubmitted        = "CARELOG_SUBMITTED"
	EventCareLogInvalidated      = "CARELOG_INVALIDATED"
)

// CareLogEvent is the payload carried by care log outbox events.
type CareLogEvent struct {
	CareLogID       uuid.UUID `json:"care_log_id"`
	CareRecipientID uuid.UUID `json:"care_recipient_id"`
	LogDate         string    `json:"log_date"`
	Status          LogStatus `json:"status"`
	ChangedBy       uuid.UUID `json:"changed_by"`
	Section         *Section  `json:"section,omitempty"`
}

// OutboxEvent is written in the same transaction as the state change it
// describes and relayed asynchronously by the worker.
type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}
