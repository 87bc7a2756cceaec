package scheduling

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shiftline-hq/shiftline/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssignmentFixture() (*memStore, *recordingAudit, *AssignmentService) {
	store := newMemStore()
	recorder := &recordingAudit{}
	return store, recorder, NewAssignmentService(store, DefaultRules(), recorder)
}

func openShift(store *memStore, day, hour int) *domain.Shift {
	return store.add(&domain.Shift{
		OrganizationID: 1,
		StartAt:        at(day, hour, 0),
		EndAt:          at(day, hour+8, 0),
		Status:         domain.ShiftStatusPublished,
	})
}

func TestAssign(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		store, recorder, svc := newAssignmentFixture()
		shift := openShift(store, 4, 9)

		assigned, err := svc.Assign(ctx, 1, shift.ID, 7, 99)
		require.NoError(t, err)
		require.NotNil(t, assigned.UserID)
		assert.Equal(t, int64(7), *assigned.UserID)
		assert.Equal(t, []string{"shift.assign"}, recorder.actions())
	})

	t.Run("reassign replaces the current assignee", func(t *testing.T) {
		store, _, svc := newAssignmentFixture()
		shift := openShift(store, 4, 9)

		_, err := svc.Assign(ctx, 1, shift.ID, 7, 99)
		require.NoError(t, err)
		assigned, err := svc.Assign(ctx, 1, shift.ID, 8, 99)
		require.NoError(t, err)
		assert.Equal(t, int64(8), *assigned.UserID)
	})

	t.Run("overlap is rejected with the conflicting shift", func(t *testing.T) {
		store, recorder, svc := newAssignmentFixture()
		existing := openShift(store, 4, 9)
		_, err := svc.Assign(ctx, 1, existing.ID, 7, 99)
		require.NoError(t, err)

		overlapping := openShift(store, 4, 12)
		_, err = svc.Assign(ctx, 1, overlapping.ID, 7, 99)
		require.Error(t, err)

		var conflictErr *ConflictError
		require.True(t, errors.As(err, &conflictErr))
		require.NotNil(t, conflictErr.Conflict)
		assert.Equal(t, existing.ID, conflictErr.Conflict.ID)

		// the failed attempt must not mutate the shift or emit audit
		after, err := store.GetShift(ctx, 1, overlapping.ID)
		require.NoError(t, err)
		assert.Nil(t, after.UserID)
		assert.Equal(t, []string{"shift.assign"}, recorder.actions())
	})

	t.Run("compliance breach is rejected with violations", func(t *testing.T) {
		store, _, svc := newAssignmentFixture()
		store.add(&domain.Shift{
			OrganizationID: 1,
			UserID:         ptr(int64(7)),
			StartAt:        at(4, 14, 0),
			EndAt:          at(4, 22, 0),
			Status:         domain.ShiftStatusPublished,
		})

		early := store.add(&domain.Shift{
			OrganizationID: 1,
			StartAt:        at(5, 1, 0),
			EndAt:          at(5, 5, 0),
			Status:         domain.ShiftStatusPublished,
		})

		_, err := svc.Assign(ctx, 1, early.ID, 7, 99)
		require.Error(t, err)

		var complianceErr *ComplianceError
		require.True(t, errors.As(err, &complianceErr))
		require.NotEmpty(t, complianceErr.Violations)
		assert.Equal(t, domain.ViolationRestPeriod, complianceErr.Violations[0].Type)

		after, err := store.GetShift(ctx, 1, early.ID)
		require.NoError(t, err)
		assert.Nil(t, after.UserID)
	})

	t.Run("unknown shift", func(t *testing.T) {
		_, _, svc := newAssignmentFixture()
		_, err := svc.Assign(ctx, 1, 12345, 7, 99)
		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	})
}

func TestUnassign(t *testing.T) {
	ctx := context.Background()
	store, recorder, svc := newAssignmentFixture()
	shift := openShift(store, 4, 9)

	_, err := svc.Assign(ctx, 1, shift.ID, 7, 99)
	require.NoError(t, err)

	unassigned, err := svc.Unassign(ctx, 1, shift.ID, 99)
	require.NoError(t, err)
	assert.Nil(t, unassigned.UserID)
	assert.Equal(t, []string{"shift.assign", "shift.unassign"}, recorder.actions())

	t.Run("unassigning an open shift is a no-op", func(t *testing.T) {
		again, err := svc.Unassign(ctx, 1, shift.ID, 99)
		require.NoError(t, err)
		assert.Nil(t, again.UserID)
	})
}

func TestClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		store, recorder, svc := newAssignmentFixture()
		shift := openShift(store, 4, 9)

		claimed, err := svc.Claim(ctx, 1, shift.ID, 7)
		require.NoError(t, err)
		require.NotNil(t, claimed.UserID)
		assert.Equal(t, int64(7), *claimed.UserID)
		assert.Equal(t, []string{"shift.claim"}, recorder.actions())
	})

	t.Run("draft cannot be claimed", func(t *testing.T) {
		store, _, svc := newAssignmentFixture()
		shift := store.add(&domain.Shift{
			OrganizationID: 1,
			StartAt:        at(4, 9, 0),
			EndAt:          at(4, 17, 0),
			Status:         domain.ShiftStatusDraft,
		})

		_, err := svc.Claim(ctx, 1, shift.ID, 7)
		require.Error(t, err)
		assert.Equal(t, KindInvalidInput, KindOf(err))
	})

	t.Run("already assigned reports the holder", func(t *testing.T) {
		store, _, svc := newAssignmentFixture()
		shift := openShift(store, 4, 9)
		_, err := svc.Assign(ctx, 1, shift.ID, 8, 99)
		require.NoError(t, err)

		_, err = svc.Claim(ctx, 1, shift.ID, 7)
		require.Error(t, err)

		var conflictErr *ConflictError
		require.True(t, errors.As(err, &conflictErr))
		require.NotNil(t, conflictErr.Conflict)
		assert.Equal(t, shift.ID, conflictErr.Conflict.ID)
	})

	t.Run("concurrent claims produce exactly one winner", func(t *testing.T) {
		store, _, svc := newAssignmentFixture()
		shift := openShift(store, 4, 9)

		const claimants = 16
		var wins, losses atomic.Int32
		var wg sync.WaitGroup

		for i := 0; i < claimants; i++ {
			wg.Add(1)
			go func(userID int64) {
				defer wg.Done()
				if _, err := svc.Claim(ctx, 1, shift.ID, userID); err != nil {
					losses.Add(1)
				} else {
					wins.Add(1)
				}
			}(int64(100 + i))
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(claimants-1), losses.Load())

		after, err := store.GetShift(ctx, 1, shift.ID)
		require.NoError(t, err)
		assert.NotNil(t, after.UserID)
	})
}
