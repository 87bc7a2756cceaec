package scheduling

import (
	"context"
	"testing"

	"github.com/shiftline-hq/shiftline/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLifecycleFixture() (*memStore, *recordingAudit, *StateMachine) {
	store := newMemStore()
	recorder := &recordingAudit{}
	return store, recorder, NewStateMachine(store, recorder)
}

func draftShift(store *memStore) *domain.Shift {
	return store.add(&domain.Shift{
		OrganizationID: 1,
		StartAt:        at(4, 9, 0),
		EndAt:          at(4, 17, 0),
		Status:         domain.ShiftStatusDraft,
	})
}

func TestPublish(t *testing.T) {
	store, recorder, sm := newLifecycleFixture()
	shift := draftShift(store)
	ctx := context.Background()

	published, err := sm.Publish(ctx, 1, shift.ID, 99)
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftStatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)
	assert.Equal(t, []string{"shift.publish"}, recorder.actions())

	t.Run("republish is idempotent and keeps publishedAt", func(t *testing.T) {
		again, err := sm.Publish(ctx, 1, shift.ID, 99)
		require.NoError(t, err)
		assert.Equal(t, domain.ShiftStatusPublished, again.Status)
		assert.True(t, again.PublishedAt.Equal(*published.PublishedAt))
		// no second audit entry for a no-op transition
		assert.Equal(t, []string{"shift.publish"}, recorder.actions())
	})

	t.Run("unknown shift", func(t *testing.T) {
		_, err := sm.Publish(ctx, 1, 12345, 99)
		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("wrong organization", func(t *testing.T) {
		_, err := sm.Publish(ctx, 2, shift.ID, 99)
		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	})
}

func TestUnpublish(t *testing.T) {
	store, recorder, sm := newLifecycleFixture()
	shift := draftShift(store)
	ctx := context.Background()

	t.Run("draft cannot be unpublished", func(t *testing.T) {
		_, err := sm.Unpublish(ctx, 1, shift.ID, 99)
		require.Error(t, err)
		assert.Equal(t, KindInvalidInput, KindOf(err))
	})

	published, err := sm.Publish(ctx, 1, shift.ID, 99)
	require.NoError(t, err)

	user := int64(7)
	_, err = store.SetAssignee(ctx, 1, shift.ID, &user)
	require.NoError(t, err)
	_, err = store.AcknowledgeShift(ctx, 1, shift.ID, user)
	require.NoError(t, err)

	unpublished, err := sm.Unpublish(ctx, 1, shift.ID, 99)
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftStatusDraft, unpublished.Status)

	t.Run("assignment and history survive unpublish", func(t *testing.T) {
		require.NotNil(t, unpublished.UserID)
		assert.Equal(t, user, *unpublished.UserID)
		require.NotNil(t, unpublished.PublishedAt)
		assert.True(t, unpublished.PublishedAt.Equal(*published.PublishedAt))
		assert.NotNil(t, unpublished.AcknowledgedAt)
	})

	assert.Contains(t, recorder.actions(), "shift.unpublish")
}

func TestPublishMany(t *testing.T) {
	store, recorder, sm := newLifecycleFixture()
	ctx := context.Background()

	first := draftShift(store)
	second := draftShift(store)

	assignee := int64(7)
	prePublished := store.add(&domain.Shift{
		OrganizationID: 1,
		UserID:         &assignee,
		StartAt:        at(5, 9, 0),
		EndAt:          at(5, 17, 0),
		Status:         domain.ShiftStatusPublished,
	})
	prePublishedAt := at(1, 12, 0)
	store.shifts[prePublished.ID].PublishedAt = &prePublishedAt

	foreign := store.add(&domain.Shift{
		OrganizationID: 2,
		StartAt:        at(6, 9, 0),
		EndAt:          at(6, 17, 0),
		Status:         domain.ShiftStatusDraft,
	})

	// A failing id sits between the successes: the later items must still be
	// processed, and the earlier ones must stay published.
	batch := []int64{first.ID, 12345, prePublished.ID, foreign.ID, second.ID}
	outcomes, failures := sm.PublishMany(ctx, 1, batch, 99)

	require.Len(t, outcomes, 3)
	assert.Equal(t, first.ID, outcomes[0].Shift.ID)
	assert.True(t, outcomes[0].Transitioned)
	assert.Equal(t, prePublished.ID, outcomes[1].Shift.ID)
	assert.False(t, outcomes[1].Transitioned)
	assert.Equal(t, second.ID, outcomes[2].Shift.ID)
	assert.True(t, outcomes[2].Transitioned)

	require.Len(t, failures, 2)
	assert.Equal(t, int64(12345), failures[0].ShiftID)
	assert.NotEmpty(t, failures[0].Error)
	assert.Equal(t, foreign.ID, failures[1].ShiftID)

	t.Run("earlier successes persist past later failures", func(t *testing.T) {
		for _, id := range []int64{first.ID, second.ID} {
			shift, err := store.GetShift(ctx, 1, id)
			require.NoError(t, err)
			assert.Equal(t, domain.ShiftStatusPublished, shift.Status)
			assert.NotNil(t, shift.PublishedAt)
		}
	})

	t.Run("idempotent item keeps its publishedAt", func(t *testing.T) {
		shift, err := store.GetShift(ctx, 1, prePublished.ID)
		require.NoError(t, err)
		require.NotNil(t, shift.PublishedAt)
		assert.True(t, shift.PublishedAt.Equal(prePublishedAt))
	})

	// only the two real transitions are audited
	assert.Equal(t, []string{"shift.publish", "shift.publish"}, recorder.actions())
}

func TestAcknowledge(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*memStore, *recordingAudit, *StateMachine, *domain.Shift) {
		store, recorder, sm := newLifecycleFixture()
		shift := draftShift(store)
		_, err := sm.Publish(ctx, 1, shift.ID, 99)
		require.NoError(t, err)
		user := int64(7)
		_, err = store.SetAssignee(ctx, 1, shift.ID, &user)
		require.NoError(t, err)
		return store, recorder, sm, shift
	}

	t.Run("assignee acknowledges once", func(t *testing.T) {
		_, recorder, sm, shift := setup(t)

		acked, err := sm.Acknowledge(ctx, 1, shift.ID, 7)
		require.NoError(t, err)
		assert.NotNil(t, acked.AcknowledgedAt)
		assert.Contains(t, recorder.actions(), "shift.acknowledge")

		_, err = sm.Acknowledge(ctx, 1, shift.ID, 7)
		require.Error(t, err)
		assert.Equal(t, KindConflict, KindOf(err))
	})

	t.Run("only the assignee may acknowledge", func(t *testing.T) {
		_, _, sm, shift := setup(t)

		_, err := sm.Acknowledge(ctx, 1, shift.ID, 8)
		require.Error(t, err)
		assert.Equal(t, KindForbidden, KindOf(err))
	})

	t.Run("draft cannot be acknowledged", func(t *testing.T) {
		store, _, sm, shift := setup(t)
		_, err := store.UnpublishShift(ctx, 1, shift.ID)
		require.NoError(t, err)

		_, err = sm.Acknowledge(ctx, 1, shift.ID, 7)
		require.Error(t, err)
		assert.Equal(t, KindInvalidInput, KindOf(err))
	})

	t.Run("unassigned shift has no acknowledger", func(t *testing.T) {
		store, _, sm, shift := setup(t)
		_, err := store.SetAssignee(ctx, 1, shift.ID, nil)
		require.NoError(t, err)

		_, err = sm.Acknowledge(ctx, 1, shift.ID, 7)
		require.Error(t, err)
		assert.Equal(t, KindForbidden, KindOf(err))
	})
}
