package scheduling

import (
	"fmt"
	"testing"

	"github.com/shiftline-hq/shiftline/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const complianceUser = int64(7)

// assigned builds a shift for the compliance user from "day hh:mm" strings
// in March 2024 (the 4th is a Monday).
func assigned(id int64, start, end string, breakMinutes int32) *domain.Shift {
	parse := func(v string) (int, int, int) {
		var day, hour, minute int
		if _, err := fmt.Sscanf(v, "%d %d:%d", &day, &hour, &minute); err != nil {
			panic(err)
		}
		return day, hour, minute
	}
	sd, sh, sm := parse(start)
	ed, eh, em := parse(end)
	return &domain.Shift{
		ID:             id,
		OrganizationID: 1,
		UserID:         ptr(complianceUser),
		StartAt:        at(sd, sh, sm),
		EndAt:          at(ed, eh, em),
		BreakMinutes:   breakMinutes,
		Status:         domain.ShiftStatusPublished,
	}
}

func ofType(violations []domain.ComplianceViolation, vt domain.ViolationType) []domain.ComplianceViolation {
	matched := make([]domain.ComplianceViolation, 0)
	for _, v := range violations {
		if v.Type == vt {
			matched = append(matched, v)
		}
	}
	return matched
}

func TestNetHoursSubtractsBreaks(t *testing.T) {
	// 10 clock hours minus a 60 minute break is 9 net hours.
	s := assigned(1, "4 08:00", "4 18:00", 60)
	assert.InDelta(t, 9.0, netHours(s), 1e-9)

	// A break longer than the shift clamps to zero.
	s = assigned(2, "4 08:00", "4 08:30", 60)
	assert.Zero(t, netHours(s))
}

func TestDailyLimit(t *testing.T) {
	rules := DefaultRules()

	t.Run("exceeded", func(t *testing.T) {
		existing := []*domain.Shift{assigned(1, "4 06:00", "4 12:00", 0)} // 6h
		candidate := assigned(0, "4 18:00", "4 22:00", 0)                 // +4h -> 10h

		violations := rules.Evaluate(complianceUser, candidate, existing)
		daily := ofType(violations, domain.ViolationDailyLimit)
		require.Len(t, daily, 1)
		v := daily[0]
		assert.Equal(t, domain.SeverityError, v.Severity)
		assert.InDelta(t, 10.0, v.ActualValue, 1e-9)
		assert.InDelta(t, 9.0, v.LimitValue, 1e-9)
		assert.InDelta(t, 1.0, v.Excess, 1e-9)
	})

	t.Run("exactly at the limit is compliant", func(t *testing.T) {
		candidate := assigned(0, "4 08:00", "4 17:00", 0) // exactly 9h
		violations := rules.Evaluate(complianceUser, candidate, nil)
		assert.Empty(t, violations)
	})

	t.Run("breaks bring the total under the limit", func(t *testing.T) {
		existing := []*domain.Shift{assigned(1, "4 06:00", "4 12:00", 60)} // 5h net
		candidate := assigned(0, "4 18:00", "4 22:00", 0)                  // +4h -> 9h

		violations := rules.Evaluate(complianceUser, candidate, existing)
		assert.Empty(t, ofType(violations, domain.ViolationDailyLimit))
	})
}

func TestWeeklyLimit(t *testing.T) {
	rules := DefaultRules()

	// Mon-Thu 08:00-16:00 (8h each, 32h) plus Fri 06:00-12:00 (6h) is 38h.
	// Every rest gap is 16h or more, so only the weekly rule is in play.
	existing := []*domain.Shift{
		assigned(1, "4 08:00", "4 16:00", 0),
		assigned(2, "5 08:00", "5 16:00", 0),
		assigned(3, "6 08:00", "6 16:00", 0),
		assigned(4, "7 08:00", "7 16:00", 0),
		assigned(5, "8 06:00", "8 12:00", 0),
	}

	t.Run("exceeded", func(t *testing.T) {
		candidate := assigned(0, "9 08:00", "9 12:00", 0) // +4h -> 42h

		violations := rules.Evaluate(complianceUser, candidate, existing)
		require.Len(t, violations, 1)
		v := violations[0]
		assert.Equal(t, domain.ViolationWeeklyLimit, v.Type)
		assert.InDelta(t, 42.0, v.ActualValue, 1e-9)
		assert.InDelta(t, 40.0, v.LimitValue, 1e-9)
		assert.InDelta(t, 2.0, v.Excess, 1e-9)
	})

	t.Run("exactly at the limit is compliant", func(t *testing.T) {
		candidate := assigned(0, "9 08:00", "9 10:00", 0) // +2h -> 40h
		violations := rules.Evaluate(complianceUser, candidate, existing)
		assert.Empty(t, violations)
	})

	t.Run("next ISO week starts a fresh total", func(t *testing.T) {
		candidate := assigned(0, "11 08:00", "11 16:00", 0) // following Monday
		violations := rules.Evaluate(complianceUser, candidate, existing)
		assert.Empty(t, violations)
	})
}

func TestRestPeriod(t *testing.T) {
	rules := DefaultRules()

	t.Run("gap before the candidate too short", func(t *testing.T) {
		existing := []*domain.Shift{assigned(1, "4 14:00", "4 22:00", 0)}
		candidate := assigned(0, "5 01:00", "5 05:00", 0) // 3h after the previous end

		violations := rules.Evaluate(complianceUser, candidate, existing)
		require.Len(t, violations, 1)
		v := violations[0]
		assert.Equal(t, domain.ViolationRestPeriod, v.Type)
		assert.InDelta(t, 3.0, v.ActualValue, 1e-9)
		assert.InDelta(t, 12.0, v.LimitValue, 1e-9)
		assert.InDelta(t, 9.0, v.Excess, 1e-9)
	})

	t.Run("gap after the candidate too short", func(t *testing.T) {
		existing := []*domain.Shift{assigned(1, "5 06:00", "5 14:00", 0)}
		candidate := assigned(0, "4 16:00", "4 23:00", 0) // ends 7h before the next start

		violations := rules.Evaluate(complianceUser, candidate, existing)
		require.Len(t, violations, 1)
		assert.Equal(t, domain.ViolationRestPeriod, violations[0].Type)
		assert.InDelta(t, 7.0, violations[0].ActualValue, 1e-9)
	})

	t.Run("gap of exactly the minimum is compliant", func(t *testing.T) {
		existing := []*domain.Shift{assigned(1, "4 06:00", "4 14:00", 0)}
		candidate := assigned(0, "5 02:00", "5 06:00", 0) // exactly 12h after

		violations := rules.Evaluate(complianceUser, candidate, existing)
		assert.Empty(t, violations)
	})

	t.Run("both neighbours can violate at once", func(t *testing.T) {
		existing := []*domain.Shift{
			assigned(1, "4 10:00", "4 14:00", 0),
			assigned(2, "5 06:00", "5 08:00", 0),
		}
		candidate := assigned(0, "4 20:00", "4 23:00", 0) // 6h after one, 7h before the other

		violations := rules.Evaluate(complianceUser, candidate, existing)
		assert.Len(t, ofType(violations, domain.ViolationRestPeriod), 2)
	})
}

func TestEvaluateIgnoresIrrelevantShifts(t *testing.T) {
	rules := DefaultRules()

	other := assigned(1, "4 06:00", "4 23:00", 0)
	other.UserID = ptr(int64(99)) // someone else's shift

	replaced := assigned(2, "4 06:00", "4 23:00", 0) // the row being edited

	candidate := assigned(2, "4 08:00", "4 16:00", 0)

	violations := rules.Evaluate(complianceUser, candidate, []*domain.Shift{other, replaced})
	assert.Empty(t, violations)
}

func TestEvaluateRange(t *testing.T) {
	rules := DefaultRules()

	// The compliance user works a double on Monday; the others are fine.
	shifts := []*domain.Shift{
		assigned(1, "4 06:00", "4 12:00", 0),
		assigned(2, "4 13:00", "4 19:00", 0), // 12h that day with a 1h gap
		func() *domain.Shift {
			s := assigned(3, "5 08:00", "5 16:00", 0)
			s.UserID = ptr(int64(8))
			return s
		}(),
		func() *domain.Shift {
			s := assigned(4, "6 08:00", "6 16:00", 0)
			s.UserID = nil // open shifts are skipped
			return s
		}(),
	}

	findings := rules.EvaluateRange(shifts)
	require.Len(t, findings, 2)
	assert.Equal(t, int64(1), findings[0].Shift.ID)
	assert.Equal(t, int64(2), findings[1].Shift.ID)
	for _, f := range findings {
		assert.NotEmpty(t, f.Violations)
	}
}
