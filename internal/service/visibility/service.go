package visibility

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/carelog-api/internal/model"
	"github.com/carebridge/carelog-api/internal/repository"
)

// Service derives the family-facing "new changes" badge from view tracking
// and the audit trail, so callers never re-implement diff logic.
type Service struct {
	views repository.CareLogViewRepository
	audit repository.AuditRepository
	logs  repository.CareLogRepository
}

func NewService(views repository.CareLogViewRepository, audit repository.AuditRepository, logs repository.CareLogRepository) *Service {
	return &Service{views: views, audit: audit, logs: logs}
}

// MarkViewed records that the user has seen the log as of now, replacing any
// earlier view.
func (s *Service) MarkViewed(ctx context.Context, careLogID, userID uuid.UUID) error {
	if _, err := s.logs.Get(ctx, careLogID); err != nil {
		return err
	}

	return s.views.Upsert(ctx, &model.CareLogView{
		ID:        uuid.New(),
		CareLogID: careLogID,
		UserID:    userID,
		ViewedAt:  time.Now().UTC(),
	})
}

// ChangeVisibility reports whether the log changed since the user last
// viewed it, and which fields did. A change committed strictly after the
// stored viewedAt is always included; one committed at or before is always
// excluded (equality counts as seen). A never-viewed log only shows changes
// once at least one section has been shared with family.
//
// The view row is read before the audit entries, so an entry committing
// between the two reads can only be over-reported as unviewed, never lost.
func (s *Service) ChangeVisibility(ctx context.Context, log *model.CareLog, userID uuid.UUID) (*model.ChangeVisibility, error) {
	view, err := s.views.GetLatest(ctx, log.ID, userID)
	if err != nil {
		return nil, err
	}

	var entries []*model.AuditEntry
	switch {
	case view != nil:
		entries, err = s.audit.ListSince(ctx, log.ID, view.ViewedAt)
	case log.HasSubmittedSection():
		entries, err = s.audit.ListByCareLog(ctx, log.ID)
	default:
		// Never viewed, never shared: there is nothing to badge yet.
	}
	if err != nil {
		return nil, err
	}

	fields := map[string]struct{}{}
	for _, entry := range entries {
		for name := range entry.Changes {
			fields[name] = struct{}{}
		}
	}

	changed := make([]string, 0, len(fields))
	for name := range fields {
		changed = append(changed, name)
	}
	sort.Strings(changed)

	return &model.ChangeVisibility{
		HasUnviewedChanges: len(changed) > 0,
		ChangedFields:      changed,
	}, nil
}

// Decorate attaches the viewer's badge to a care log.
func (s *Service) Decorate(ctx context.Context, log *model.CareLog, userID uuid.UUID) (*model.CareLogWithVisibility, error) {
	vis, err := s.ChangeVisibility(ctx, log, userID)
	if err != nil {
		return nil, err
	}
	return &model.CareLogWithVisibility{
		CareLog:            log,
		HasUnviewedChanges: vis.HasUnviewedChanges,
		ChangedFields:      vis.ChangedFields,
	}, nil
}
