package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShiftIsOpen(t *testing.T) {
	user := int64(7)

	open := &Shift{Status: ShiftStatusPublished}
	assert.True(t, open.IsOpen())

	assigned := &Shift{Status: ShiftStatusPublished, UserID: &user}
	assert.False(t, assigned.IsOpen())

	draft := &Shift{Status: ShiftStatusDraft}
	assert.False(t, draft.IsOpen())
}

func TestShiftAssignedTo(t *testing.T) {
	user := int64(7)

	shift := &Shift{UserID: &user}
	assert.True(t, shift.AssignedTo(7))
	assert.False(t, shift.AssignedTo(8))

	open := &Shift{}
	assert.False(t, open.AssignedTo(7))
}
