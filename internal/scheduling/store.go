package scheduling

import (
	"context"
	"time"

	"github.com/shiftline-hq/shiftline/backend/internal/domain"
)

// ShiftStore is the storage surface the core depends on. The concrete
// implementation lives in internal/repository; it is constructed once at
// process start and passed in by reference (no package-level handle).
//
// Absent rows are reported as sql.ErrNoRows so the core can map them to
// NotFound without depending on a driver.
type ShiftStore interface {
	// GetShift loads a shift scoped to one organization.
	GetShift(ctx context.Context, orgID, shiftID int64) (*domain.Shift, error)

	// FindOverlapping returns a shift assigned to userID in orgID whose
	// [start, end) interval intersects the given one, excluding
	// excludeShiftID, or (nil, nil) when there is none. When several shifts
	// overlap, which one is returned is not defined.
	FindOverlapping(ctx context.Context, orgID, userID int64, start, end time.Time, excludeShiftID int64) (*domain.Shift, error)

	// ListAssignedShifts returns userID's shifts in orgID whose intervals
	// intersect [from, to), ordered by start time.
	ListAssignedShifts(ctx context.Context, orgID, userID int64, from, to time.Time) ([]*domain.Shift, error)

	// TryClaim performs the compare-and-swap that guarantees at-most-one
	// claimant: the assignee is written only if the row is still published
	// with a NULL user_id. It reports whether the row actually changed.
	TryClaim(ctx context.Context, orgID, shiftID, userID int64) (bool, error)

	// SetAssignee writes the assignee unconditionally (manager-initiated
	// assign/reassign/unassign; nil clears). It reports whether a row in the
	// organization matched.
	SetAssignee(ctx context.Context, orgID, shiftID int64, userID *int64) (bool, error)

	// PublishShift transitions to published, setting published_at only when
	// it is not already set. Idempotent on already-published shifts.
	PublishShift(ctx context.Context, orgID, shiftID int64) (*domain.Shift, error)

	// UnpublishShift transitions back to draft. The assignee, published_at
	// and acknowledged_at are left untouched for history.
	UnpublishShift(ctx context.Context, orgID, shiftID int64) (*domain.Shift, error)

	// AcknowledgeShift sets acknowledged_at once, conditionally on the shift
	// still being published, assigned to userID and unacknowledged. Returns
	// sql.ErrNoRows when the condition no longer holds.
	AcknowledgeShift(ctx context.Context, orgID, shiftID, userID int64) (*domain.Shift, error)
}
