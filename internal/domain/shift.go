package domain

import (
	"time"
)

type ShiftStatus string

const (
	ShiftStatusDraft     ShiftStatus = "draft"
	ShiftStatusPublished ShiftStatus = "published"
)

// Shift is a concrete, dated work assignment inside one organization.
// userId is nil while the shift is unassigned; a published shift with a nil
// userId is "open" and may be claimed by any organization member.
type Shift struct {
	ID              int64       `json:"id"`
	OrganizationID  int64       `json:"organizationId"`
	LocationID      *int64      `json:"locationId"`
	UserID          *int64      `json:"userId"`
	StartAt         time.Time   `json:"startAt"`
	EndAt           time.Time   `json:"endAt"`
	BreakMinutes    int32       `json:"breakMinutes"`
	Status          ShiftStatus `json:"status"`
	PublishedAt     *time.Time  `json:"publishedAt"`
	AcknowledgedAt  *time.Time  `json:"acknowledgedAt"`
	RequiredSkillID *int64      `json:"requiredSkillId"`
	TemplateID      *int64      `json:"templateId"`
	Notes           string      `json:"notes"`
	Color           string      `json:"color"`
	CreatedBy       int64       `json:"createdBy"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// IsOpen reports whether the shift is published and has no assignee.
func (s *Shift) IsOpen() bool {
	return s.Status == ShiftStatusPublished && s.UserID == nil
}

// AssignedTo reports whether the shift is assigned to the given user.
func (s *Shift) AssignedTo(userID int64) bool {
	return s.UserID != nil && *s.UserID == userID
}
