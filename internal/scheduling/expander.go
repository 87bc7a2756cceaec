package scheduling

import (
	"time"

	"github.com/shiftline-hq/shiftline/backend/internal/domain"
)

const (
	dateLayout      = "2006-01-02"
	wallClockLayout = "15:04"
)

// ExpandOptions carries the caller's per-expansion overrides.
type ExpandOptions struct {
	LocationID *int64
	Notes      string
}

// ExpandTemplate combines a template's wall-clock window with a calendar date
// into a concrete draft shift. The generated shift is an independent entity;
// only the recorded templateId links back.
//
// Timestamps are composed in UTC regardless of the organization's timezone.
// That matches the observed behavior this service replaces, but it is wrong
// for organizations operating outside UTC; the org Timezone field exists so
// this can be fixed once product decides the migration story.
func ExpandTemplate(tpl *domain.ShiftTemplate, date string, createdBy int64, opts ExpandOptions) (*domain.Shift, error) {
	if !tpl.IsActive {
		return nil, InvalidInput("shift template is inactive")
	}

	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, InvalidInput("date must be formatted YYYY-MM-DD")
	}

	startClock, err := time.Parse(wallClockLayout, tpl.StartTime)
	if err != nil {
		return nil, InvalidInput("template start time is not a valid HH:mm value")
	}
	endClock, err := time.Parse(wallClockLayout, tpl.EndTime)
	if err != nil {
		return nil, InvalidInput("template end time is not a valid HH:mm value")
	}

	locationID := opts.LocationID
	if locationID == nil {
		locationID = tpl.DefaultLocationID
	}
	if locationID == nil {
		return nil, InvalidInput("no location: the template has no default and none was supplied")
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), startClock.Hour(), startClock.Minute(), 0, 0, time.UTC)
	end := time.Date(day.Year(), day.Month(), day.Day(), endClock.Hour(), endClock.Minute(), 0, 0, time.UTC)
	// A wall-clock end at or before the start means the window crosses
	// midnight; the shift ends on the following day.
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}

	templateID := tpl.ID
	return &domain.Shift{
		OrganizationID:  tpl.OrganizationID,
		LocationID:      locationID,
		UserID:          nil,
		StartAt:         start,
		EndAt:           end,
		BreakMinutes:    tpl.BreakMinutes,
		Status:          domain.ShiftStatusDraft,
		RequiredSkillID: tpl.RequiredSkillID,
		TemplateID:      &templateID,
		Notes:           opts.Notes,
		Color:           tpl.Color,
		CreatedBy:       createdBy,
	}, nil
}
