package scheduling

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/shiftline-hq/shiftline/backend/internal/domain"
)

// memStore is an in-memory ShiftStore with the same conditional-write
// semantics as the real repository, including the TryClaim compare-and-swap.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	shifts map[int64]*domain.Shift
}

func newMemStore() *memStore {
	return &memStore{shifts: make(map[int64]*domain.Shift)}
}

func (s *memStore) add(shift *domain.Shift) *domain.Shift {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	shift.ID = s.nextID
	copied := *shift
	s.shifts[shift.ID] = &copied
	return shift
}

func (s *memStore) find(orgID, shiftID int64) (*domain.Shift, error) {
	shift, ok := s.shifts[shiftID]
	if !ok || shift.OrganizationID != orgID {
		return nil, sql.ErrNoRows
	}
	return shift, nil
}

func (s *memStore) GetShift(_ context.Context, orgID, shiftID int64) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, err := s.find(orgID, shiftID)
	if err != nil {
		return nil, err
	}
	copied := *shift
	return &copied, nil
}

func (s *memStore) FindOverlapping(_ context.Context, orgID, userID int64, start, end time.Time, excludeShiftID int64) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, shift := range s.shifts {
		if shift.OrganizationID != orgID || shift.ID == excludeShiftID {
			continue
		}
		if !shift.AssignedTo(userID) {
			continue
		}
		if shift.StartAt.Before(end) && start.Before(shift.EndAt) {
			copied := *shift
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListAssignedShifts(_ context.Context, orgID, userID int64, from, to time.Time) ([]*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shifts := make([]*domain.Shift, 0)
	for _, shift := range s.shifts {
		if shift.OrganizationID != orgID || !shift.AssignedTo(userID) {
			continue
		}
		if shift.StartAt.Before(to) && from.Before(shift.EndAt) {
			copied := *shift
			shifts = append(shifts, &copied)
		}
	}
	return shifts, nil
}

func (s *memStore) TryClaim(_ context.Context, orgID, shiftID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, err := s.find(orgID, shiftID)
	if err != nil {
		return false, nil
	}
	if !shift.IsOpen() {
		return false, nil
	}
	shift.UserID = &userID
	return true, nil
}

func (s *memStore) SetAssignee(_ context.Context, orgID, shiftID int64, userID *int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, err := s.find(orgID, shiftID)
	if err != nil {
		return false, nil
	}
	shift.UserID = userID
	return true, nil
}

func (s *memStore) PublishShift(_ context.Context, orgID, shiftID int64) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, err := s.find(orgID, shiftID)
	if err != nil {
		return nil, err
	}
	shift.Status = domain.ShiftStatusPublished
	if shift.PublishedAt == nil {
		now := time.Now().UTC()
		shift.PublishedAt = &now
	}
	copied := *shift
	return &copied, nil
}

func (s *memStore) UnpublishShift(_ context.Context, orgID, shiftID int64) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, err := s.find(orgID, shiftID)
	if err != nil {
		return nil, err
	}
	shift.Status = domain.ShiftStatusDraft
	copied := *shift
	return &copied, nil
}

func (s *memStore) AcknowledgeShift(_ context.Context, orgID, shiftID, userID int64) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, err := s.find(orgID, shiftID)
	if err != nil {
		return nil, err
	}
	if shift.Status != domain.ShiftStatusPublished || !shift.AssignedTo(userID) || shift.AcknowledgedAt != nil {
		return nil, sql.ErrNoRows
	}
	now := time.Now().UTC()
	shift.AcknowledgedAt = &now
	copied := *shift
	return &copied, nil
}

// recordingAudit captures entries for assertions.
type recordingAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (r *recordingAudit) Record(_ context.Context, entry domain.AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	actions := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		actions = append(actions, e.Action)
	}
	return actions
}

func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.March, day, hour, minute, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}
