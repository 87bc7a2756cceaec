package scheduling

import (
	"context"
	"time"

	"github.com/shiftline-hq/shiftline/backend/internal/domain"
)

// OverlapFinder is the slice of the store the conflict detector needs.
type OverlapFinder interface {
	FindOverlapping(ctx context.Context, orgID, userID int64, start, end time.Time, excludeShiftID int64) (*domain.Shift, error)
}

// ConflictDetector checks a candidate (user, interval) pair against the
// user's other shifts in the same organization. Intervals are half-open:
// [a.start, a.end) and [b.start, b.end) overlap iff
// a.start < b.end && b.start < a.end, so back-to-back shifts do not conflict.
type ConflictDetector struct {
	store OverlapFinder
}

func NewConflictDetector(store OverlapFinder) *ConflictDetector {
	return &ConflictDetector{store: store}
}

// FindOverlap returns the first conflicting shift found, or nil. When the
// user has several overlapping shifts, which one is named is up to the
// backing query; harmless, since the operation is rejected either way.
func (d *ConflictDetector) FindOverlap(ctx context.Context, orgID, userID int64, start, end time.Time, excludeShiftID int64) (*domain.Shift, error) {
	if !end.After(start) {
		return nil, InvalidInput("shift end must be after start")
	}
	conflict, err := d.store.FindOverlapping(ctx, orgID, userID, start, end, excludeShiftID)
	if err != nil {
		return nil, Internal(err)
	}
	return conflict, nil
}
