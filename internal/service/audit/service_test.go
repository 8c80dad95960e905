package audit

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/carebridge/carelog-api/internal/model"
)

func entryAt(at time.Time, changes model.ChangeSet) *model.AuditEntry {
	return &model.AuditEntry{
		ID:        uuid.New(),
		CareLogID: uuid.New(),
		ChangedBy: uuid.New(),
		Action:    model.AuditActionUpdate,
		Changes:   changes,
		CreatedAt: at,
	}
}

func TestReplay_FoldsChangesInOrder(t *testing.T) {
	base := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

	entries := []*model.AuditEntry{
		entryAt(base, model.ChangeSet{
			"mood":      {Old: nil, New: "calm"},
			"wake_time": {Old: nil, New: "07:00"},
		}),
		entryAt(base.Add(time.Hour), model.ChangeSet{
			"mood": {Old: "calm", New: "agitated"},
		}),
		entryAt(base.Add(2*time.Hour), model.ChangeSet{
			"wake_time": {Old: "07:00", New: nil},
			"notes":     {Old: nil, New: "slept poorly"},
		}),
	}

	state := Replay(entries)
	assert.Equal(t, model.JSONMap{
		"mood":  "agitated",
		"notes": "slept poorly",
	}, state)
}

func TestReplay_SortsOutOfOrderEntries(t *testing.T) {
	base := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

	later := entryAt(base.Add(time.Hour), model.ChangeSet{
		"mood": {Old: "calm", New: "cheerful"},
	})
	earlier := entryAt(base, model.ChangeSet{
		"mood": {Old: nil, New: "calm"},
	})

	state := Replay([]*model.AuditEntry{later, earlier})
	assert.Equal(t, "cheerful", state["mood"])
}

func TestReplay_Empty(t *testing.T) {
	assert.Empty(t, Replay(nil))
}

func TestReplay_NormalizesValues(t *testing.T) {
	entries := []*model.AuditEntry{
		entryAt(time.Now(), model.ChangeSet{
			"vitals": {Old: nil, New: map[string]interface{}{"heart_rate": 70}},
		}),
	}

	state := Replay(entries)
	vitals, ok := state["vitals"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, float64(70), vitals["heart_rate"])
}
