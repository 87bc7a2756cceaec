package domain

type ViolationType string

const (
	ViolationRestPeriod  ViolationType = "rest_period"
	ViolationDailyLimit  ViolationType = "daily_limit"
	ViolationWeeklyLimit ViolationType = "weekly_limit"
)

type ViolationSeverity string

const (
	SeverityError ViolationSeverity = "error"
)

// ComplianceViolation is a structured finding that a candidate assignment
// would breach a working-time rule. It is transient: produced by the
// compliance engine and handed to callers, never persisted by the core.
// Values are decimal hours.
type ComplianceViolation struct {
	Type        ViolationType     `json:"type"`
	Severity    ViolationSeverity `json:"severity"`
	ActualValue float64           `json:"actualValue"`
	LimitValue  float64           `json:"limitValue"`
	Excess      float64           `json:"excess"`
}
