package scheduling

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shiftline-hq/shiftline/backend/internal/audit"
	"github.com/shiftline-hq/shiftline/backend/internal/domain"
)

// LifecycleStore is the slice of the store the state machine needs.
type LifecycleStore interface {
	GetShift(ctx context.Context, orgID, shiftID int64) (*domain.Shift, error)
	PublishShift(ctx context.Context, orgID, shiftID int64) (*domain.Shift, error)
	UnpublishShift(ctx context.Context, orgID, shiftID int64) (*domain.Shift, error)
	AcknowledgeShift(ctx context.Context, orgID, shiftID, userID int64) (*domain.Shift, error)
}

// StateMachine governs the draft -> published -> acknowledged lifecycle.
// Shifts have no terminal state: publish/unpublish may cycle indefinitely,
// and deletion removes the entity from any state.
type StateMachine struct {
	store LifecycleStore
	audit audit.Recorder
}

func NewStateMachine(store LifecycleStore, recorder audit.Recorder) *StateMachine {
	return &StateMachine{
		store: store,
		audit: recorder,
	}
}

// Publish transitions draft -> published. Publishing an already-published
// shift is idempotent: the status write repeats but published_at keeps its
// original value (the store preserves an existing timestamp).
func (m *StateMachine) Publish(ctx context.Context, orgID, shiftID, actorID int64) (*domain.Shift, error) {
	before, err := m.store.GetShift(ctx, orgID, shiftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFound("shift not found")
		}
		return nil, Internal(err)
	}

	shift, err := m.store.PublishShift(ctx, orgID, shiftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFound("shift not found")
		}
		return nil, Internal(err)
	}

	if before.Status != domain.ShiftStatusPublished {
		m.audit.Record(ctx, domain.AuditEntry{
			OrganizationID: orgID,
			ActorID:        actorID,
			Action:         "shift.publish",
			EntityType:     "shift",
			EntityID:       shiftID,
			OldData:        audit.JSON(before),
			NewData:        audit.JSON(shift),
		})
	}
	return shift, nil
}

// PublishFailure reports one shift of a batch that could not be published.
type PublishFailure struct {
	ShiftID int64  `json:"shiftId"`
	Error   string `json:"error"`
}

// PublishOutcome is one successfully published batch item. Transitioned is
// false for the idempotent case, a shift that was already published.
type PublishOutcome struct {
	Shift        *domain.Shift
	Transitioned bool
}

// PublishMany publishes a batch one shift at a time. The batch is not
// transactional: every item succeeds or fails on its own, failures are
// accumulated alongside the successes, and a failure on a later item never
// rolls back an earlier one.
func (m *StateMachine) PublishMany(ctx context.Context, orgID int64, shiftIDs []int64, actorID int64) ([]PublishOutcome, []PublishFailure) {
	outcomes := make([]PublishOutcome, 0, len(shiftIDs))
	failures := make([]PublishFailure, 0)

	for _, shiftID := range shiftIDs {
		before, err := m.store.GetShift(ctx, orgID, shiftID)
		wasPublished := err == nil && before.Status == domain.ShiftStatusPublished

		shift, err := m.Publish(ctx, orgID, shiftID, actorID)
		if err != nil {
			failures = append(failures, PublishFailure{ShiftID: shiftID, Error: err.Error()})
			continue
		}
		outcomes = append(outcomes, PublishOutcome{Shift: shift, Transitioned: !wasPublished})
	}
	return outcomes, failures
}

// Unpublish transitions published -> draft. The assignee and acknowledged_at
// are deliberately kept: re-publishing shows the prior acknowledgment state.
func (m *StateMachine) Unpublish(ctx context.Context, orgID, shiftID, actorID int64) (*domain.Shift, error) {
	before, err := m.store.GetShift(ctx, orgID, shiftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFound("shift not found")
		}
		return nil, Internal(err)
	}
	if before.Status != domain.ShiftStatusPublished {
		return nil, InvalidInput("can only unpublish published shifts")
	}

	shift, err := m.store.UnpublishShift(ctx, orgID, shiftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFound("shift not found")
		}
		return nil, Internal(err)
	}

	m.audit.Record(ctx, domain.AuditEntry{
		OrganizationID: orgID,
		ActorID:        actorID,
		Action:         "shift.unpublish",
		EntityType:     "shift",
		EntityID:       shiftID,
		OldData:        audit.JSON(before),
		NewData:        audit.JSON(shift),
	})
	return shift, nil
}

// Acknowledge sets acknowledged_at once. Only the shift's own assignee may
// acknowledge, and only while the shift is published. The pre-checks produce
// the specific error; the conditional write catches any race with a
// concurrent unpublish/reassign.
func (m *StateMachine) Acknowledge(ctx context.Context, orgID, shiftID, actorID int64) (*domain.Shift, error) {
	before, err := m.store.GetShift(ctx, orgID, shiftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFound("shift not found")
		}
		return nil, Internal(err)
	}

	if before.Status != domain.ShiftStatusPublished {
		return nil, InvalidInput("can only acknowledge published shifts")
	}
	if !before.AssignedTo(actorID) {
		return nil, Forbidden("only the assigned user can acknowledge this shift")
	}
	if before.AcknowledgedAt != nil {
		return nil, Conflict("shift is already acknowledged")
	}

	shift, err := m.store.AcknowledgeShift(ctx, orgID, shiftID, actorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, Conflict("shift changed while acknowledging, please retry")
		}
		return nil, Internal(err)
	}

	m.audit.Record(ctx, domain.AuditEntry{
		OrganizationID: orgID,
		ActorID:        actorID,
		Action:         "shift.acknowledge",
		EntityType:     "shift",
		EntityID:       shiftID,
		OldData:        audit.JSON(before),
		NewData:        audit.JSON(shift),
	})
	return shift, nil
}
