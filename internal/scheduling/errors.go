package scheduling

import (
	"errors"
	"fmt"

	"github.com/shiftline-hq/shiftline/backend/internal/domain"
)

// Kind classifies expected failures so callers can pick a status code and a
// payload shape without string matching.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidInput
	KindConflict
)

// Error is the typed result for expected failure conditions. The core never
// panics for these; only genuinely unexpected storage errors pass through
// untyped (and classify as KindInternal).
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Msg: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Msg: msg} }
func InvalidInput(msg string) *Error { return &Error{Kind: KindInvalidInput, Msg: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: KindConflict, Msg: msg} }

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
}

// ConflictError reports an overlapping shift (or a race-lost conditional
// write). The conflicting shift is included so the caller can name it to the
// user instead of a generic "cannot assign".
type ConflictError struct {
	Msg      string
	Conflict *domain.Shift
}

func (e *ConflictError) Error() string {
	return e.Msg
}

// ComplianceError rejects an assignment that would breach working-time law.
// The violations carry the rule, the actual and limit values, and the excess,
// so the caller can surface the specific legal reason.
type ComplianceError struct {
	Violations []domain.ComplianceViolation
}

func (e *ComplianceError) Error() string {
	return fmt.Sprintf("assignment violates %d labor compliance rule(s)", len(e.Violations))
}

// KindOf extracts the Kind from any error returned by this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		return KindConflict
	}
	var ve *ComplianceError
	if errors.As(err, &ve) {
		return KindConflict
	}
	return KindInternal
}
