package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LogStatus is the lifecycle state of a care log.
type LogStatus string

const (
	LogStatusDraft       LogStatus = "draft"
	LogStatusSubmitted   LogStatus = "submitted"
	LogStatusInvalidated LogStatus = "invalidated"
)

// Section is one of the four independently submittable units of a day.
type Section string

const (
	SectionMorning      Section = "morning"
	SectionAfternoon    Section = "afternoon"
	SectionEvening      Section = "evening"
	SectionDailySummary Section = "daily_summary"
)

// Sections lists every valid section.
var Sections = []Section{SectionMorning, SectionAfternoon, SectionEvening, SectionDailySummary}

// ValidSection reports whether s names a known section.
func ValidSection(s Section) bool {
	switch s {
	case SectionMorning, SectionAfternoon, SectionEvening, SectionDailySummary:
		return true
	}
	return false
}

// Care log payload field names. Each field is independently optional; forms
// own disjoint subsets of these.
const (
	FieldWakeTime     = "wake_time"
	FieldBedTime      = "bed_time"
	FieldMood         = "mood"
	FieldVitals       = "vitals"
	FieldMeals        = "meals"
	FieldMedications  = "medications"
	FieldToileting    = "toileting"
	FieldSafetyChecks = "safety_checks"
	FieldActivities   = "activities"
	FieldNotes        = "notes"
	FieldSummary      = "summary"
)

var knownFields = map[string]struct{}{
	FieldWakeTime:     {},
	FieldBedTime:      {},
	FieldMood:         {},
	FieldVitals:       {},
	FieldMeals:        {},
	FieldMedications:  {},
	FieldToileting:    {},
	FieldSafetyChecks: {},
	FieldActivities:   {},
	FieldNotes:        {},
	FieldSummary:      {},
}

// KnownField reports whether name is a recognized payload field.
func KnownField(name string) bool {
	_, ok := knownFields[name]
	return ok
}

// Vitals is the shape of the "vitals" payload field.
type Vitals struct {
	SystolicBP  *int     `json:"systolic_bp,omitempty"`
	DiastolicBP *int     `json:"diastolic_bp,omitempty"`
	HeartRate   *int     `json:"heart_rate,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Weight      *float64 `json:"weight,omitempty"`
	MeasuredAt  *string  `json:"measured_at,omitempty"`
}

// Meal is one entry of the "meals" payload field.
type Meal struct {
	Kind        string `json:"kind"`
	Description string `json:"description,omitempty"`
	AmountEaten string `json:"amount_eaten,omitempty"`
}

// MedicationDose is one entry of the "medications" payload field.
type MedicationDose struct {
	Name    string `json:"name"`
	Dosage  string `json:"dosage,omitempty"`
	GivenAt string `json:"given_at,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}

// SafetyCheck is one entry of the "safety_checks" payload field.
type SafetyCheck struct {
	Item   string `json:"item"`
	Passed bool   `json:"passed"`
	Note   string `json:"note,omitempty"`
}

// Date is a calendar day without a time component, stored in a DATE column
// and rendered as YYYY-MM-DD.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

func (d Date) String() string    { return d.t.Format(dateLayout) }
func (d Date) Time() time.Time   { return d.t }
func (d Date) IsZero() bool      { return d.t.IsZero() }
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.t, nil
}

func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v.UTC())
		return nil
	case []byte:
		parsed, err := ParseDate(strings.TrimSpace(string(v)))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := ParseDate(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("unsupported Date source type %T", src)
	}
}

// SectionSubmission records when and by whom one section was shared.
type SectionSubmission struct {
	SubmittedAt time.Time `json:"submitted_at"`
	SubmittedBy uuid.UUID `json:"submitted_by"`
}

// SectionMap maps section names to their latest submission, stored as JSONB.
type SectionMap map[Section]SectionSubmission

func (m SectionMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *SectionMap) Scan(src interface{}) error {
	if src == nil {
		*m = SectionMap{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported SectionMap source type %T", src)
	}
	return json.Unmarshal(b, m)
}

// CareLog is the single mutable daily record for one care recipient on one
// calendar day. All of a day's structured observations live in Fields; the
// submission tracker state lives alongside.
type CareLog struct {
	Base
	CareRecipientID    uuid.UUID  `json:"care_recipient_id" db:"care_recipient_id"`
	LogDate            Date       `json:"log_date" db:"log_date"`
	Status             LogStatus  `json:"status" db:"status"`
	Fields             JSONMap    `json:"fields" db:"fields"`
	CompletedSections  SectionMap `json:"completed_sections" db:"completed_sections"`
	CreatedBy          uuid.UUID  `json:"created_by" db:"created_by"`
	SubmittedAt        *time.Time `json:"submitted_at,omitempty" db:"submitted_at"`
	SubmittedBy        *uuid.UUID `json:"submitted_by,omitempty" db:"submitted_by"`
	InvalidatedAt      *time.Time `json:"invalidated_at,omitempty" db:"invalidated_at"`
	InvalidatedBy      *uuid.UUID `json:"invalidated_by,omitempty" db:"invalidated_by"`
	InvalidationReason *string    `json:"invalidation_reason,omitempty" db:"invalidation_reason"`
}

// HasSubmittedSection reports whether any section has been shared with
// family yet.
func (l *CareLog) HasSubmittedSection() bool {
	return len(l.CompletedSections) > 0
}

// CareLogWithVisibility is a care log decorated with the viewer's
// change-visibility badge.
type CareLogWithVisibility struct {
	*CareLog
	HasUnviewedChanges bool     `json:"has_unviewed_changes"`
	ChangedFields      []string `json:"changed_fields"`
}

type CreateCareLogRequest struct {
	CareRecipientID string `json:"care_recipient_id" binding:"required,uuid"`
	LogDate         string `json:"log_date" binding:"omitempty,datetime=2006-01-02"`
}

type PatchCareLogRequest struct {
	Fields map[string]interface{} `json:"fields" binding:"required"`
}

type InvalidateCareLogRequest struct {
	Reason string `json:"reason" binding:"required"`
}
