package scheduling

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shiftline-hq/shiftline/backend/internal/audit"
	"github.com/shiftline-hq/shiftline/backend/internal/domain"
)

// AssignmentService orchestrates assign/unassign/claim. The conflict and
// compliance checks run against a snapshot that may be stale by write time;
// they exist to produce good user-facing errors. The conditional write is
// the sole correctness backstop for the at-most-one-claimant invariant, so
// claim must never degrade to read-then-write without the condition.
type AssignmentService struct {
	store    ShiftStore
	detector *ConflictDetector
	rules    Rules
	audit    audit.Recorder
}

func NewAssignmentService(store ShiftStore, rules Rules, recorder audit.Recorder) *AssignmentService {
	return &AssignmentService{
		store:    store,
		detector: NewConflictDetector(store),
		rules:    rules,
		audit:    recorder,
	}
}

// Assign binds userID to the shift on a manager's authority. The write is
// unconditional with respect to the current assignee (reassign is allowed),
// but still scoped to the organization.
func (s *AssignmentService) Assign(ctx context.Context, orgID, shiftID, userID, actorID int64) (*domain.Shift, error) {
	shift, err := s.loadShift(ctx, orgID, shiftID)
	if err != nil {
		return nil, err
	}

	if err := s.checkCandidate(ctx, orgID, userID, shift); err != nil {
		return nil, err
	}

	ok, err := s.store.SetAssignee(ctx, orgID, shiftID, &userID)
	if err != nil {
		return nil, Internal(err)
	}
	if !ok {
		return nil, Conflict("shift no longer exists, please retry")
	}

	return s.finishAssignment(ctx, orgID, shiftID, actorID, "shift.assign", shift)
}

// Unassign clears the assignee. It succeeds whenever the shift exists in the
// organization, regardless of the current assignment state.
func (s *AssignmentService) Unassign(ctx context.Context, orgID, shiftID, actorID int64) (*domain.Shift, error) {
	shift, err := s.loadShift(ctx, orgID, shiftID)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.SetAssignee(ctx, orgID, shiftID, nil)
	if err != nil {
		return nil, Internal(err)
	}
	if !ok {
		return nil, Conflict("shift no longer exists, please retry")
	}

	return s.finishAssignment(ctx, orgID, shiftID, actorID, "shift.unassign", shift)
}

// Claim is the self-service assignment. The read-time open check is advisory
// UX; the TryClaim compare-and-swap provides the actual race safety, so of
// two concurrent claimants exactly one wins and the loser gets a conflict.
func (s *AssignmentService) Claim(ctx context.Context, orgID, shiftID, userID int64) (*domain.Shift, error) {
	shift, err := s.loadShift(ctx, orgID, shiftID)
	if err != nil {
		return nil, err
	}

	if !shift.IsOpen() {
		if shift.Status != domain.ShiftStatusPublished {
			return nil, InvalidInput("only published shifts can be claimed")
		}
		return nil, &ConflictError{Msg: "shift is already assigned", Conflict: shift}
	}

	if err := s.checkCandidate(ctx, orgID, userID, shift); err != nil {
		return nil, err
	}

	claimed, err := s.store.TryClaim(ctx, orgID, shiftID, userID)
	if err != nil {
		return nil, Internal(err)
	}
	if !claimed {
		return nil, Conflict("shift was claimed by someone else")
	}

	return s.finishAssignment(ctx, orgID, shiftID, userID, "shift.claim", shift)
}

func (s *AssignmentService) loadShift(ctx context.Context, orgID, shiftID int64) (*domain.Shift, error) {
	shift, err := s.store.GetShift(ctx, orgID, shiftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFound("shift not found")
		}
		return nil, Internal(err)
	}
	return shift, nil
}

// checkCandidate runs the conflict and compliance pre-checks for binding
// userID to the shift's interval.
func (s *AssignmentService) checkCandidate(ctx context.Context, orgID, userID int64, shift *domain.Shift) error {
	conflict, err := s.detector.FindOverlap(ctx, orgID, userID, shift.StartAt, shift.EndAt, shift.ID)
	if err != nil {
		return err
	}
	if conflict != nil {
		return &ConflictError{Msg: "user already has an overlapping shift", Conflict: conflict}
	}

	from, to := complianceWindow(shift.StartAt)
	existing, err := s.store.ListAssignedShifts(ctx, orgID, userID, from, to)
	if err != nil {
		return Internal(err)
	}

	candidate := *shift
	candidate.UserID = &userID
	if violations := s.rules.Evaluate(userID, &candidate, existing); len(violations) > 0 {
		return &ComplianceError{Violations: violations}
	}
	return nil
}

func (s *AssignmentService) finishAssignment(ctx context.Context, orgID, shiftID, actorID int64, action string, before *domain.Shift) (*domain.Shift, error) {
	after, err := s.store.GetShift(ctx, orgID, shiftID)
	if err != nil {
		return nil, Internal(err)
	}

	s.audit.Record(ctx, domain.AuditEntry{
		OrganizationID: orgID,
		ActorID:        actorID,
		Action:         action,
		EntityType:     "shift",
		EntityID:       shiftID,
		OldData:        audit.JSON(before),
		NewData:        audit.JSON(after),
	})
	return after, nil
}

// complianceWindow bounds the existing-shift set the engine needs for a
// candidate starting at t: the candidate's ISO week padded by two days, which
// covers the daily and weekly sums plus any neighbour close enough to breach
// the rest minimum.
func complianceWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	daysSinceMonday := (int(midnight.Weekday()) + 6) % 7
	weekStart := midnight.AddDate(0, 0, -daysSinceMonday)
	weekEnd := weekStart.AddDate(0, 0, 7)
	return weekStart.Add(-48 * time.Hour), weekEnd.Add(48 * time.Hour)
}
