package audit

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/google/uuid"

	"github.com/carebridge/carelog-api/internal/model"
	"github.com/carebridge/carelog-api/internal/repository"
)

// Service reads a care log's forensic history. Entries are written by the
// care log repository inside the mutation transaction; this service only
// ever reads them.
type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

// History returns every audit entry for a care log in createdAt order.
func (s *Service) History(ctx context.Context, careLogID uuid.UUID) ([]*model.AuditEntry, error) {
	return s.repo.ListByCareLog(ctx, careLogID)
}

// Replay folds the change sets of an entry sequence, oldest first, into the
// state they produce. Replaying a log's full history from the empty state
// reproduces the snapshot of its last entry; that round trip is the
// correctness check for the diff engine.
func Replay(entries []*model.AuditEntry) model.JSONMap {
	ordered := make([]*model.AuditEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	state := model.JSONMap{}
	for _, entry := range ordered {
		for field, change := range entry.Changes {
			if change.New == nil {
				delete(state, field)
				continue
			}
			state[field] = normalize(change.New)
		}
	}
	return state
}

func normalize(v interface{}) interface{} {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}
