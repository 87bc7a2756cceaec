package domain

import (
	"time"
)

// ShiftTemplate is a reusable wall-clock time window used to generate
// concrete dated shifts. Templates are stateless generators: a generated
// shift keeps only the recorded templateId, never a live link back.
type ShiftTemplate struct {
	ID                int64     `json:"id"`
	OrganizationID    int64     `json:"organizationId"`
	Name              string    `json:"name"`
	StartTime         string    `json:"startTime"` // wall-clock HH:mm, no date
	EndTime           string    `json:"endTime"`   // wall-clock HH:mm, no date
	BreakMinutes      int32     `json:"breakMinutes"`
	DefaultLocationID *int64    `json:"defaultLocationId"`
	RequiredSkillID   *int64    `json:"requiredSkillId"`
	Color             string    `json:"color"`
	IsActive          bool      `json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
	Version           int32     `json:"-"`
}
