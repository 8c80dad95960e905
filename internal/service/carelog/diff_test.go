package carelog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/carelog-api/internal/model"
)

func TestDiffStates_EqualValuesProduceNothing(t *testing.T) {
	before := normalizeMap(model.JSONMap{
		"mood": "calm",
		"vitals": map[string]interface{}{
			"heart_rate": 70,
		},
	})
	after := normalizeMap(model.JSONMap{
		"mood": "calm",
		"vitals": map[string]interface{}{
			"heart_rate": float64(70),
		},
	})

	assert.Empty(t, diffStates(before, after))
}

func TestDiffStates_AddedChangedRemoved(t *testing.T) {
	before := normalizeMap(model.JSONMap{
		"mood":      "calm",
		"wake_time": "07:00",
	})
	after := normalizeMap(model.JSONMap{
		"mood":  "agitated",
		"notes": "slept poorly",
	})

	changes := diffStates(before, after)
	require.Len(t, changes, 3)

	assert.Equal(t, "calm", changes["mood"].Old)
	assert.Equal(t, "agitated", changes["mood"].New)

	assert.Equal(t, "07:00", changes["wake_time"].Old)
	assert.Nil(t, changes["wake_time"].New)

	assert.Nil(t, changes["notes"].Old)
	assert.Equal(t, "slept poorly", changes["notes"].New)
}

func TestDiffStates_NestedValueChange(t *testing.T) {
	before := normalizeMap(model.JSONMap{
		"vitals": map[string]interface{}{"heart_rate": 70, "temperature": 36.6},
	})
	after := normalizeMap(model.JSONMap{
		"vitals": map[string]interface{}{"heart_rate": 82, "temperature": 36.6},
	})

	changes := diffStates(before, after)
	require.Len(t, changes, 1)
	require.Contains(t, changes, "vitals")
}

func TestAuditableState_ExcludesBookkeepingTimestamps(t *testing.T) {
	now := time.Now().UTC()
	log := &model.CareLog{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		CareRecipientID: uuid.New(),
		LogDate:         model.NewDate(2026, time.March, 14),
		Status:          model.LogStatusDraft,
		Fields:          model.JSONMap{"mood": "calm"},
		CreatedBy:       uuid.New(),
	}

	state := auditableState(log)
	assert.NotContains(t, state, "created_at")
	assert.NotContains(t, state, "updated_at")
	assert.Equal(t, "calm", state["mood"])
	assert.Equal(t, "draft", state["status"])
	assert.Equal(t, "2026-03-14", state["log_date"])
	assert.NotContains(t, state, "completed_sections")
	assert.NotContains(t, state, "submitted_at")
}

func TestAuditableState_SameLogIsStable(t *testing.T) {
	sub := time.Date(2026, time.March, 14, 19, 4, 0, 0, time.UTC)
	by := uuid.New()
	log := &model.CareLog{
		Base:            model.Base{ID: uuid.New()},
		CareRecipientID: uuid.New(),
		LogDate:         model.NewDate(2026, time.March, 14),
		Status:          model.LogStatusSubmitted,
		Fields:          model.JSONMap{"notes": "quiet day"},
		CompletedSections: model.SectionMap{
			model.SectionMorning: {SubmittedAt: sub, SubmittedBy: by},
		},
		CreatedBy:   uuid.New(),
		SubmittedAt: &sub,
		SubmittedBy: &by,
	}

	assert.Empty(t, diffStates(auditableState(log), auditableState(log)))
}
