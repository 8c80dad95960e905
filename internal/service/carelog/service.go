package carelog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebridge/carelog-api/internal/model"
	"github.com/carebridge/carelog-api/internal/repository"
	apperrors "github.com/carebridge/carelog-api/pkg/errors"
)

// RecipientDirectory resolves recipients and their local calendar day.
type RecipientDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*model.CareRecipient, error)
	Today(ctx context.Context, recipientID uuid.UUID) (model.Date, error)
}

// Config carries the service's policy switches.
type Config struct {
	// StrictSubmitLock rejects patches to a submitted, non-invalidated log
	// with a Locked error. Off by default: the product allows caregivers to
	// keep editing after submission, so the lock is advisory at the UI
	// layer.
	StrictSubmitLock bool
}

// Service owns the care log aggregate: draft creation, patching with
// field-level audit diffs, section submission, whole-log submission and the
// invalidation cycle. Every mutation appends an audit entry and an outbox
// event in the same transaction as the state change.
type Service struct {
	logs       repository.CareLogRepository
	recipients RecipientDirectory
	cfg        Config
	logger     zerolog.Logger
}

func NewService(logs repository.CareLogRepository, recipients RecipientDirectory, cfg Config, logger zerolog.Logger) *Service {
	return &Service{
		logs:       logs,
		recipients: recipients,
		cfg:        cfg,
		logger:     logger.With().Str("service", "carelog").Logger(),
	}
}

// CreateDraft creates the single care log for a recipient and calendar day.
// A zero date means "the recipient's today". Fails with AlreadyExists when a
// log for that (recipient, date) pair exists.
func (s *Service) CreateDraft(ctx context.Context, recipientID, authorID uuid.UUID, logDate model.Date) (*model.CareLog, error) {
	if logDate.IsZero() {
		today, err := s.recipients.Today(ctx, recipientID)
		if err != nil {
			return nil, err
		}
		logDate = today
	} else if _, err := s.recipients.Get(ctx, recipientID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	log := &model.CareLog{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		CareRecipientID:   recipientID,
		LogDate:           logDate,
		Status:            model.LogStatusDraft,
		Fields:            model.JSONMap{},
		CompletedSections: model.SectionMap{},
		CreatedBy:         authorID,
	}

	state := auditableState(log)
	entry := newAuditEntry(log, authorID, model.AuditActionCreate, nil, diffStates(model.JSONMap{}, state), state)
	event := newLogEvent(model.EventCareLogCreated, log, authorID, nil)

	if err := s.logs.Create(ctx, log, entry, event); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("care_log_id", log.ID.String()).
		Str("care_recipient_id", recipientID.String()).
		Str("log_date", logDate.String()).
		Msg("care log draft created")
	return log, nil
}

// ApplyPatch merges the given top-level fields into the log. One-level
// shallow merge: a supplied key replaces the stored value wholesale, an
// explicit null clears it, an absent key is untouched. The computed diff is
// appended as an audit entry; a patch whose diff is empty writes nothing.
func (s *Service) ApplyPatch(ctx context.Context, careLogID, authorID uuid.UUID, fields map[string]interface{}) (*model.CareLog, error) {
	if len(fields) == 0 {
		return nil, apperrors.BadRequest("no fields supplied", nil)
	}
	for name := range fields {
		if !model.KnownField(name) {
			return nil, apperrors.BadRequest(fmt.Sprintf("unknown care log field %q", name), nil)
		}
	}

	return s.logs.Mutate(ctx, careLogID, func(log *model.CareLog) (*repository.CareLogMutation, error) {
		if s.cfg.StrictSubmitLock && log.Status == model.LogStatusSubmitted {
			return nil, apperrors.Locked("care log has been submitted; invalidate it before editing")
		}

		before := auditableState(log)

		if log.Fields == nil {
			log.Fields = model.JSONMap{}
		}
		for name, value := range fields {
			if value == nil {
				delete(log.Fields, name)
				continue
			}
			log.Fields[name] = normalizeValue(value)
		}

		changes := diffStates(before, auditableState(log))
		if len(changes) == 0 {
			// Nothing actually changed; committing an empty audit entry
			// would only add noise to history and change-visibility.
			return nil, nil
		}

		return &repository.CareLogMutation{
			Audit: newAuditEntry(log, authorID, model.AuditActionUpdate, nil, changes, auditableState(log)),
			Event: newLogEvent(model.EventCareLogUpdated, log, authorID, nil),
		}, nil
	})
}

// SubmitSection marks one section as shared with family, overwriting any
// prior submission of the same section (re-submission refreshes the
// timestamp). The overall log status is untouched except for an invalidated
// log, where re-sharing a corrected section returns the log to submitted.
func (s *Service) SubmitSection(ctx context.Context, careLogID uuid.UUID, section model.Section, authorID uuid.UUID) (*model.CareLog, error) {
	if !model.ValidSection(section) {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown section %q", section), nil)
	}

	return s.logs.Mutate(ctx, careLogID, func(log *model.CareLog) (*repository.CareLogMutation, error) {
		before := auditableState(log)

		if log.CompletedSections == nil {
			log.CompletedSections = model.SectionMap{}
		}
		log.CompletedSections[section] = model.SectionSubmission{
			SubmittedAt: time.Now().UTC(),
			SubmittedBy: authorID,
		}
		if log.Status == model.LogStatusInvalidated {
			log.Status = model.LogStatusSubmitted
			clearInvalidation(log)
		}

		sec := section
		return &repository.CareLogMutation{
			Audit: newAuditEntry(log, authorID, model.AuditActionSubmitSection, &sec, diffStates(before, auditableState(log)), auditableState(log)),
			Event: newLogEvent(model.EventCareLogSectionSubmitted, log, authorID, &sec),
		}, nil
	})
}

// Submit marks the whole log as submitted. Whether every section must be
// complete first is the caller's policy; partial completed sections are
// accepted. Submitting an invalidated log closes the correction cycle.
func (s *Service) Submit(ctx context.Context, careLogID, authorID uuid.UUID) (*model.CareLog, error) {
	return s.logs.Mutate(ctx, careLogID, func(log *model.CareLog) (*repository.CareLogMutation, error) {
		before := auditableState(log)

		now := time.Now().UTC()
		log.Status = model.LogStatusSubmitted
		log.SubmittedAt = &now
		log.SubmittedBy = &authorID
		clearInvalidation(log)

		return &repository.CareLogMutation{
			Audit: newAuditEntry(log, authorID, model.AuditActionSubmit, nil, diffStates(before, auditableState(log)), auditableState(log)),
			Event: newLogEvent(model.EventCareLogSubmitted, log, authorID, nil),
		}, nil
	})
}

// Invalidate flags a submitted log for correction. Only submitted logs can
// be invalidated; the log stays editable and a later submission returns it
// to submitted.
func (s *Service) Invalidate(ctx context.Context, careLogID, adminID uuid.UUID, reason string) (*model.CareLog, error) {
	return s.logs.Mutate(ctx, careLogID, func(log *model.CareLog) (*repository.CareLogMutation, error) {
		if log.Status != model.LogStatusSubmitted {
			return nil, apperrors.InvalidState(fmt.Sprintf("cannot invalidate a %s care log", log.Status))
		}

		before := auditableState(log)

		now := time.Now().UTC()
		log.Status = model.LogStatusInvalidated
		log.InvalidatedAt = &now
		log.InvalidatedBy = &adminID
		log.InvalidationReason = &reason

		return &repository.CareLogMutation{
			Audit: newAuditEntry(log, adminID, model.AuditActionInvalidate, nil, diffStates(before, auditableState(log)), auditableState(log)),
			Event: newLogEvent(model.EventCareLogInvalidated, log, adminID, nil),
		}, nil
	})
}

// Get returns one care log by id.
func (s *Service) Get(ctx context.Context, careLogID uuid.UUID) (*model.CareLog, error) {
	return s.logs.Get(ctx, careLogID)
}

// GetToday returns the log for the recipient's current calendar day in
// their configured timezone, or nil when none exists yet.
func (s *Service) GetToday(ctx context.Context, recipientID uuid.UUID) (*model.CareLog, error) {
	today, err := s.recipients.Today(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	log, err := s.logs.GetByRecipientAndDate(ctx, recipientID, today)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return log, nil
}

// ListRange returns a recipient's logs between two dates, newest first.
func (s *Service) ListRange(ctx context.Context, recipientID uuid.UUID, from, to model.Date) ([]*model.CareLog, error) {
	return s.logs.ListByRecipient(ctx, recipientID, from, to)
}

func clearInvalidation(log *model.CareLog) {
	log.InvalidatedAt = nil
	log.InvalidatedBy = nil
	log.InvalidationReason = nil
}

func newAuditEntry(log *model.CareLog, changedBy uuid.UUID, action string, section *model.Section, changes model.ChangeSet, snapshot model.JSONMap) *model.AuditEntry {
	return &model.AuditEntry{
		ID:               uuid.New(),
		CareLogID:        log.ID,
		ChangedBy:        changedBy,
		Action:           action,
		SectionSubmitted: section,
		Changes:          changes,
		Snapshot:         snapshot,
		CreatedAt:        time.Now().UTC(),
	}
}

func newLogEvent(eventType string, log *model.CareLog, changedBy uuid.UUID, section *model.Section) *model.OutboxEvent {
	payload, err := json.Marshal(model.CareLogEvent{
		CareLogID:       log.ID,
		CareRecipientID: log.CareRecipientID,
		LogDate:         log.LogDate.String(),
		Status:          log.Status,
		ChangedBy:       changedBy,
		Section:         section,
	})
	if err != nil {
		payload = []byte("{}")
	}
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payload,
		Status:    model.OutboxStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}
