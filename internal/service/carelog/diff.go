package carelog

import (
	"encoding/json"
	"reflect"

	"github.com/carebridge/carelog-api/internal/model"
)

// auditableState serializes the log into the normalized JSON form that
// snapshots and diffs are computed over: payload fields, submission tracker
// state and immutable identity. CreatedAt/UpdatedAt are bookkeeping and
// excluded, otherwise replaying a log's history could never reproduce its
// snapshots.
func auditableState(log *model.CareLog) model.JSONMap {
	state := model.JSONMap{
		"id":                log.ID.String(),
		"care_recipient_id": log.CareRecipientID.String(),
		"log_date":          log.LogDate.String(),
		"created_by":        log.CreatedBy.String(),
		"status":            string(log.Status),
	}

	for name, value := range log.Fields {
		state[name] = value
	}

	if len(log.CompletedSections) > 0 {
		state["completed_sections"] = log.CompletedSections
	}
	if log.SubmittedAt != nil {
		state["submitted_at"] = log.SubmittedAt
	}
	if log.SubmittedBy != nil {
		state["submitted_by"] = log.SubmittedBy.String()
	}
	if log.InvalidatedAt != nil {
		state["invalidated_at"] = log.InvalidatedAt
	}
	if log.InvalidatedBy != nil {
		state["invalidated_by"] = log.InvalidatedBy.String()
	}
	if log.InvalidationReason != nil {
		state["invalidation_reason"] = *log.InvalidationReason
	}

	return normalizeMap(state)
}

// normalizeMap forces every value into plain JSON types (string, float64,
// bool, nil, map, slice) via a marshal round trip so that structurally equal
// values compare equal regardless of their Go representation.
func normalizeMap(m model.JSONMap) model.JSONMap {
	b, err := json.Marshal(m)
	if err != nil {
		return model.JSONMap{}
	}
	var out model.JSONMap
	if err := json.Unmarshal(b, &out); err != nil {
		return model.JSONMap{}
	}
	return out
}

// normalizeValue is normalizeMap for a single value.
func normalizeValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}
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

// diffStates computes the field-level change set between two normalized
// states. Comparison is deep value equality: fields equal in value never
// appear in the result, so no-op writes produce an empty set.
func diffStates(before, after model.JSONMap) model.ChangeSet {
	changes := model.ChangeSet{}

	for name, oldValue := range before {
		newValue, ok := after[name]
		if !ok {
			changes[name] = model.FieldChange{Old: oldValue, New: nil}
			continue
		}
		if !reflect.DeepEqual(oldValue, newValue) {
			changes[name] = model.FieldChange{Old: oldValue, New: newValue}
		}
	}
	for name, newValue := range after {
		if _, ok := before[name]; !ok {
			changes[name] = model.FieldChange{Old: nil, New: newValue}
		}
	}

	return changes
}
