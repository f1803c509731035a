package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"sort"
	"time"
)

// EntityType distinguishes the two kinds of staged registrants
type EntityType string

const (
	EntityDriver     EntityType = "driver"
	EntityRestaurant EntityType = "restaurant"
)

// PaymentStatus is the internal view of the provider payment lifecycle
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
)

// ReviewStatus is the admin-controlled account status
type ReviewStatus string

const (
	StatusPending         ReviewStatus = "pending"
	StatusPendingApproval ReviewStatus = "pending_approval"
	StatusApproved        ReviewStatus = "approved"
	StatusRejected        ReviewStatus = "rejected"
	StatusSuspended       ReviewStatus = "suspended"
)

// AdminRole defines allowed admin roles in the system
type AdminRole string

const (
	RoleAdmin      AdminRole = "admin"
	RoleSuperAdmin AdminRole = "super_admin"
)

// StageSet is the set of completed stage numbers, stored as a JSON array.
// It is always persisted and rendered sorted ascending with duplicates removed.
type StageSet []int

func (s StageSet) Has(n int) bool {
	for _, v := range s {
		if v == n {
			return true
		}
	}
	return false
}

// With returns a normalized copy that includes n.
func (s StageSet) With(n int) StageSet {
	out := append(StageSet{}, s...)
	if !out.Has(n) {
		out = append(out, n)
	}
	return out.Normalized()
}

// Normalized returns a sorted, de-duplicated copy.
func (s StageSet) Normalized() StageSet {
	seen := map[int]bool{}
	out := StageSet{}
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

// Covers reports whether every stage in 1..n is present.
func (s StageSet) Covers(n int) bool {
	for i := 1; i <= n; i++ {
		if !s.Has(i) {
			return false
		}
	}
	return true
}

func (s *StageSet) Scan(value interface{}) error {
	if value == nil {
		*s = StageSet{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported column type for StageSet")
	}
	if len(raw) == 0 {
		*s = StageSet{}
		return nil
	}
	var parsed []int
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return err
	}
	*s = StageSet(parsed).Normalized()
	return nil
}

func (s StageSet) Value() (driver.Value, error) {
	normalized := s.Normalized()
	if normalized == nil {
		normalized = StageSet{}
	}
	raw, err := json.Marshal(normalized)
	return string(raw), err
}

func (s StageSet) MarshalJSON() ([]byte, error) {
	normalized := s.Normalized()
	if normalized == nil {
		normalized = StageSet{}
	}
	return json.Marshal([]int(normalized))
}

// JSONMap stores a structured JSON object (banking info, consent map) in a
// text column.
type JSONMap map[string]interface{}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported column type for JSONMap")
	}
	if len(raw) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(raw, m)
}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	raw, err := json.Marshal(m)
	return string(raw), err
}

// Progression holds the staged-registration state shared by all entity types.
type Progression struct {
	CurrentStage         int      `json:"current_stage" gorm:"default:1"`
	CompletedStages      StageSet `json:"completed_stages" gorm:"type:text"`
	RegistrationComplete bool     `json:"is_registration_complete"`
}

// PaymentState tracks the onboarding-fee payment independently of stages.
type PaymentState struct {
	PaymentStatus      PaymentStatus `json:"payment_status" gorm:"default:'pending'"`
	PaymentIntentID    string        `json:"-"`
	PaymentCompletedAt *time.Time    `json:"payment_completed_at,omitempty"`
}

// ReviewState tracks the admin approval lifecycle.
type ReviewState struct {
	Status          ReviewStatus `json:"status" gorm:"default:'pending'"`
	ReviewedAt      *time.Time   `json:"reviewed_at,omitempty"`
	ApprovedAt      *time.Time   `json:"approved_at,omitempty"`
	ApprovedBy      *string      `json:"approved_by,omitempty"`
	RejectionReason string       `json:"rejection_reason,omitempty"`
}

// StagedEntity is implemented by Driver and Restaurant so the progression
// engine, payment adapter, and review workflow are written once and selected
// by entity type rather than by branching on concrete model names.
type StagedEntity interface {
	GetID() string
	GetEmail() string
	Type() EntityType
	Progress() *Progression
	Payment() *PaymentState
	Review() *ReviewState
	// StageFieldValue reports the persisted value of a stage field by its
	// payload name, and whether it is present (non-empty).
	StageFieldValue(name string) (interface{}, bool)
	// SetStageField writes a normalized stage-field value by payload name.
	SetStageField(name string, value interface{}) error
}

// NewByType returns a zero entity of the given type for repository lookups.
func NewByType(t EntityType) (StagedEntity, error) {
	switch t {
	case EntityDriver:
		return &Driver{}, nil
	case EntityRestaurant:
		return &Restaurant{}, nil
	default:
		return nil, errors.New("unknown entity type: " + string(t))
	}
}
