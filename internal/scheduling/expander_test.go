package scheduling

import (
	"testing"
	"time"

	"github.com/shiftline-hq/shiftline/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dayTemplate() *domain.ShiftTemplate {
	return &domain.ShiftTemplate{
		ID:                3,
		OrganizationID:    1,
		Name:              "Day",
		StartTime:         "09:00",
		EndTime:           "17:00",
		BreakMinutes:      30,
		DefaultLocationID: ptr(int64(11)),
		RequiredSkillID:   ptr(int64(5)),
		Color:             "#336699",
		IsActive:          true,
	}
}

func TestExpandTemplate(t *testing.T) {
	shift, err := ExpandTemplate(dayTemplate(), "2024-03-01", 42, ExpandOptions{Notes: "opening shift"})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC), shift.StartAt)
	assert.Equal(t, time.Date(2024, time.March, 1, 17, 0, 0, 0, time.UTC), shift.EndAt)
	assert.Equal(t, int32(30), shift.BreakMinutes)
	assert.Equal(t, domain.ShiftStatusDraft, shift.Status)
	assert.Nil(t, shift.UserID)
	require.NotNil(t, shift.TemplateID)
	assert.Equal(t, int64(3), *shift.TemplateID)
	require.NotNil(t, shift.LocationID)
	assert.Equal(t, int64(11), *shift.LocationID)
	assert.Equal(t, "opening shift", shift.Notes)
	assert.Equal(t, "#336699", shift.Color)
	assert.Equal(t, int64(42), shift.CreatedBy)
}

func TestExpandTemplateOvernight(t *testing.T) {
	tpl := dayTemplate()
	tpl.StartTime = "22:00"
	tpl.EndTime = "06:00"

	shift, err := ExpandTemplate(tpl, "2024-03-01", 42, ExpandOptions{})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, time.March, 1, 22, 0, 0, 0, time.UTC), shift.StartAt)
	assert.Equal(t, time.Date(2024, time.March, 2, 6, 0, 0, 0, time.UTC), shift.EndAt)
}

func TestExpandTemplateLocationOverride(t *testing.T) {
	shift, err := ExpandTemplate(dayTemplate(), "2024-03-01", 42, ExpandOptions{LocationID: ptr(int64(99))})
	require.NoError(t, err)

	require.NotNil(t, shift.LocationID)
	assert.Equal(t, int64(99), *shift.LocationID)
}

func TestExpandTemplateNoLocation(t *testing.T) {
	tpl := dayTemplate()
	tpl.DefaultLocationID = nil

	_, err := ExpandTemplate(tpl, "2024-03-01", 42, ExpandOptions{})
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, KindOf(err))
}

func TestExpandTemplateInactive(t *testing.T) {
	tpl := dayTemplate()
	tpl.IsActive = false

	_, err := ExpandTemplate(tpl, "2024-03-01", 42, ExpandOptions{})
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, KindOf(err))
}

func TestExpandTemplateBadDate(t *testing.T) {
	for _, date := range []string{"03/01/2024", "2024-3-1", "yesterday", ""} {
		_, err := ExpandTemplate(dayTemplate(), date, 42, ExpandOptions{})
		require.Error(t, err, "date %q", date)
		assert.Equal(t, KindInvalidInput, KindOf(err))
	}
}

func TestExpandTemplateBadWallClock(t *testing.T) {
	tpl := dayTemplate()
	tpl.StartTime = "9am"

	_, err := ExpandTemplate(tpl, "2024-03-01", 42, ExpandOptions{})
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, KindOf(err))
}
