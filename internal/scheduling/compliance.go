package scheduling

import (
	"sort"

	"github.com/shiftline-hq/shiftline/backend/internal/domain"
)

// Working-time limits. The same rule set applies whether the engine runs
// pre-commit (assignment) or retrospectively (compliance report).
const (
	MaxDailyHours  = 9.0
	MaxWeeklyHours = 40.0
	MinRestHours   = 12.0
)

// Rules holds the working-time limits, in hours. Comparisons are strict:
// totals exactly at a limit and gaps exactly at the minimum are compliant.
type Rules struct {
	MaxDailyHours  float64
	MaxWeeklyHours float64
	MinRestHours   float64
}

func DefaultRules() Rules {
	return Rules{
		MaxDailyHours:  MaxDailyHours,
		MaxWeeklyHours: MaxWeeklyHours,
		MinRestHours:   MinRestHours,
	}
}

// netHours is a shift's worked time in decimal hours: end - start minus the
// unpaid break, computed at minute granularity, never negative.
func netHours(s *domain.Shift) float64 {
	minutes := s.EndAt.Sub(s.StartAt).Minutes() - float64(s.BreakMinutes)
	if minutes < 0 {
		minutes = 0
	}
	return minutes / 60
}

// Evaluate checks the candidate shift for userID against the user's existing
// shifts and returns every rule violation found. The engine is pure: it does
// no I/O, and callers supply the relevant existing-shift set. Shifts not
// assigned to userID and the shift being replaced (same ID as the candidate)
// are ignored.
func (r Rules) Evaluate(userID int64, candidate *domain.Shift, existing []*domain.Shift) []domain.ComplianceViolation {
	relevant := make([]*domain.Shift, 0, len(existing))
	for _, s := range existing {
		if s.ID != 0 && s.ID == candidate.ID {
			continue
		}
		if !s.AssignedTo(userID) {
			continue
		}
		relevant = append(relevant, s)
	}

	violations := make([]domain.ComplianceViolation, 0)
	violations = append(violations, r.checkDailyLimit(candidate, relevant)...)
	violations = append(violations, r.checkWeeklyLimit(candidate, relevant)...)
	violations = append(violations, r.checkRestPeriod(candidate, relevant)...)
	return violations
}

func (r Rules) checkDailyLimit(candidate *domain.Shift, existing []*domain.Shift) []domain.ComplianceViolation {
	y, m, d := candidate.StartAt.UTC().Date()

	total := netHours(candidate)
	for _, s := range existing {
		sy, sm, sd := s.StartAt.UTC().Date()
		if sy == y && sm == m && sd == d {
			total += netHours(s)
		}
	}

	if total > r.MaxDailyHours {
		return []domain.ComplianceViolation{{
			Type:        domain.ViolationDailyLimit,
			Severity:    domain.SeverityError,
			ActualValue: total,
			LimitValue:  r.MaxDailyHours,
			Excess:      total - r.MaxDailyHours,
		}}
	}
	return nil
}

func (r Rules) checkWeeklyLimit(candidate *domain.Shift, existing []*domain.Shift) []domain.ComplianceViolation {
	year, week := candidate.StartAt.UTC().ISOWeek()

	total := netHours(candidate)
	for _, s := range existing {
		sy, sw := s.StartAt.UTC().ISOWeek()
		if sy == year && sw == week {
			total += netHours(s)
		}
	}

	if total > r.MaxWeeklyHours {
		return []domain.ComplianceViolation{{
			Type:        domain.ViolationWeeklyLimit,
			Severity:    domain.SeverityError,
			ActualValue: total,
			LimitValue:  r.MaxWeeklyHours,
			Excess:      total - r.MaxWeeklyHours,
		}}
	}
	return nil
}

// checkRestPeriod verifies the gap between the candidate and the immediately
// preceding and following shift (by start time). Each failing gap yields its
// own violation; an overlapping neighbour produces a negative gap, which also
// fails.
func (r Rules) checkRestPeriod(candidate *domain.Shift, existing []*domain.Shift) []domain.ComplianceViolation {
	var prev, next *domain.Shift
	for _, s := range existing {
		switch {
		case s.StartAt.Before(candidate.StartAt):
			if prev == nil || s.StartAt.After(prev.StartAt) {
				prev = s
			}
		case s.StartAt.After(candidate.StartAt):
			if next == nil || s.StartAt.Before(next.StartAt) {
				next = s
			}
		}
	}

	var violations []domain.ComplianceViolation
	if prev != nil {
		gap := candidate.StartAt.Sub(prev.EndAt).Minutes() / 60
		if gap < r.MinRestHours {
			violations = append(violations, restViolation(gap, r.MinRestHours))
		}
	}
	if next != nil {
		gap := next.StartAt.Sub(candidate.EndAt).Minutes() / 60
		if gap < r.MinRestHours {
			violations = append(violations, restViolation(gap, r.MinRestHours))
		}
	}
	return violations
}

func restViolation(gap, limit float64) domain.ComplianceViolation {
	return domain.ComplianceViolation{
		Type:        domain.ViolationRestPeriod,
		Severity:    domain.SeverityError,
		ActualValue: gap,
		LimitValue:  limit,
		Excess:      limit - gap,
	}
}

// ReportFinding pairs a shift with the violations it participates in, as
// produced by a retrospective compliance report.
type ReportFinding struct {
	Shift      *domain.Shift                `json:"shift"`
	Violations []domain.ComplianceViolation `json:"violations"`
}

// EvaluateRange runs the rule set retrospectively over a set of assigned
// shifts (typically one organization over a date range): each shift is
// evaluated as the candidate against the rest of its user's shifts. Only
// shifts with violations are reported, ordered by start time.
func (r Rules) EvaluateRange(shifts []*domain.Shift) []ReportFinding {
	byUser := make(map[int64][]*domain.Shift)
	for _, s := range shifts {
		if s.UserID == nil {
			continue
		}
		byUser[*s.UserID] = append(byUser[*s.UserID], s)
	}

	findings := make([]ReportFinding, 0)
	for userID, userShifts := range byUser {
		for _, s := range userShifts {
			if violations := r.Evaluate(userID, s, userShifts); len(violations) > 0 {
				findings = append(findings, ReportFinding{Shift: s, Violations: violations})
			}
		}
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Shift.StartAt.Equal(findings[j].Shift.StartAt) {
			return findings[i].Shift.ID < findings[j].Shift.ID
		}
		return findings[i].Shift.StartAt.Before(findings[j].Shift.StartAt)
	})
	return findings
}
