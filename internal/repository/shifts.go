package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shiftline-hq/shiftline/backend/internal/domain"
)

const shiftColumns = `
	id, organization_id, location_id, user_id, start_at, end_at,
	break_minutes, status, published_at, acknowledged_at,
	required_skill_id, template_id, notes, color, created_by,
	created_at, updated_at
`

type rowScanner interface {
	Scan(dst ...any) error
}

func scanShift(row rowScanner) (*domain.Shift, error) {
	var (
		shift           domain.Shift
		locationID      sql.NullInt64
		userID          sql.NullInt64
		publishedAt     sql.NullTime
		acknowledgedAt  sql.NullTime
		requiredSkillID sql.NullInt64
		templateID      sql.NullInt64
	)

	dst := []any{
		&shift.ID, &shift.OrganizationID, &locationID, &userID, &shift.StartAt, &shift.EndAt,
		&shift.BreakMinutes, &shift.Status, &publishedAt, &acknowledgedAt,
		&requiredSkillID, &templateID, &shift.Notes, &shift.Color, &shift.CreatedBy,
		&shift.CreatedAt, &shift.UpdatedAt,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if locationID.Valid {
		shift.LocationID = &locationID.Int64
	}
	if userID.Valid {
		shift.UserID = &userID.Int64
	}
	if publishedAt.Valid {
		shift.PublishedAt = &publishedAt.Time
	}
	if acknowledgedAt.Valid {
		shift.AcknowledgedAt = &acknowledgedAt.Time
	}
	if requiredSkillID.Valid {
		shift.RequiredSkillID = &requiredSkillID.Int64
	}
	if templateID.Valid {
		shift.TemplateID = &templateID.Int64
	}
	return &shift, nil
}

func (r *Repository) CreateShift(ctx context.Context, shift *domain.Shift) error {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `
		INSERT INTO shifts (
			organization_id, location_id, user_id, start_at, end_at, break_minutes,
			status, required_skill_id, template_id, notes, color, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	args := []any{
		shift.OrganizationID, shift.LocationID, shift.UserID, shift.StartAt, shift.EndAt, shift.BreakMinutes,
		shift.Status, shift.RequiredSkillID, shift.TemplateID, shift.Notes, shift.Color, shift.CreatedBy,
	}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&shift.ID, &shift.CreatedAt, &shift.UpdatedAt)
}

func (r *Repository) GetShift(ctx context.Context, orgID, shiftID int64) (*domain.Shift, error) {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1 AND organization_id = $2`
	return scanShift(r.dbpool.QueryRowContext(ctx, query, shiftID, orgID))
}

// UpdateShiftFields writes the caller-editable fields. Identity, lifecycle
// and assignment columns are never touched here.
func (r *Repository) UpdateShiftFields(ctx context.Context, shift *domain.Shift) error {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `
		UPDATE shifts
		SET
			location_id = $1,
			start_at = $2,
			end_at = $3,
			break_minutes = $4,
			required_skill_id = $5,
			notes = $6,
			color = $7,
			updated_at = now()
		WHERE id = $8 AND organization_id = $9
		RETURNING updated_at
	`

	args := []any{
		shift.LocationID, shift.StartAt, shift.EndAt, shift.BreakMinutes,
		shift.RequiredSkillID, shift.Notes, shift.Color,
		shift.ID, shift.OrganizationID,
	}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&shift.UpdatedAt)
}

// DeleteShift removes the shift outright, from any lifecycle state.
func (r *Repository) DeleteShift(ctx context.Context, orgID, shiftID int64) error {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, `DELETE FROM shifts WHERE id = $1 AND organization_id = $2`, shiftID, orgID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListShifts returns shifts matching the given filters, ordered by start
// time then id.
func (r *Repository) ListShifts(ctx context.Context, filters ...Filter) ([]*domain.Shift, error) {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	where, args := whereClause(filters)
	query := `SELECT ` + shiftColumns + ` FROM shifts` + where + ` ORDER BY start_at, id`

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]*domain.Shift, 0)
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return shifts, nil
}

// FindOverlapping returns one shift assigned to userID whose [start_at,
// end_at) interval intersects [start, end), excluding excludeShiftID, or
// (nil, nil) when there is none.
func (r *Repository) FindOverlapping(ctx context.Context, orgID, userID int64, start, end time.Time, excludeShiftID int64) (*domain.Shift, error) {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	where, args := whereClause([]Filter{
		Eq("organization_id", orgID),
		Eq("user_id", userID),
		NotEq("id", excludeShiftID),
		Overlaps("start_at", "end_at", start, end),
	})
	query := `SELECT ` + shiftColumns + ` FROM shifts` + where + ` ORDER BY start_at, id LIMIT 1`

	shift, err := scanShift(r.dbpool.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return shift, nil
}

func (r *Repository) ListAssignedShifts(ctx context.Context, orgID, userID int64, from, to time.Time) ([]*domain.Shift, error) {
	return r.ListShifts(ctx,
		Eq("organization_id", orgID),
		Eq("user_id", userID),
		Overlaps("start_at", "end_at", from, to),
	)
}

// ListOpenShifts returns published, unassigned shifts, optionally narrowed
// to a location and a date window.
func (r *Repository) ListOpenShifts(ctx context.Context, orgID int64, locationID *int64, from, to *time.Time) ([]*domain.Shift, error) {
	filters := []Filter{
		Eq("organization_id", orgID),
		Eq("status", domain.ShiftStatusPublished),
		IsNull("user_id"),
	}
	if locationID != nil {
		filters = append(filters, Eq("location_id", *locationID))
	}
	if from != nil && to != nil {
		filters = append(filters, Overlaps("start_at", "end_at", *from, *to))
	} else if from != nil {
		filters = append(filters, Gt("end_at", *from))
	} else if to != nil {
		filters = append(filters, Lt("start_at", *to))
	}

	return r.ListShifts(ctx, filters...)
}

// PublishShift sets the status to published. COALESCE keeps an existing
// published_at, which makes publishing idempotent with a stable timestamp.
func (r *Repository) PublishShift(ctx context.Context, orgID, shiftID int64) (*domain.Shift, error) {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `
		UPDATE shifts
		SET status = 'published', published_at = COALESCE(published_at, now()), updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING ` + shiftColumns

	return scanShift(r.dbpool.QueryRowContext(ctx, query, shiftID, orgID))
}

// UnpublishShift reverts to draft. user_id, published_at and acknowledged_at
// persist for history.
func (r *Repository) UnpublishShift(ctx context.Context, orgID, shiftID int64) (*domain.Shift, error) {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `
		UPDATE shifts
		SET status = 'draft', updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING ` + shiftColumns

	return scanShift(r.dbpool.QueryRowContext(ctx, query, shiftID, orgID))
}

// AcknowledgeShift sets acknowledged_at once, conditionally on the row still
// being published, assigned to userID and unacknowledged. sql.ErrNoRows
// means the condition no longer holds.
func (r *Repository) AcknowledgeShift(ctx context.Context, orgID, shiftID, userID int64) (*domain.Shift, error) {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `
		UPDATE shifts
		SET acknowledged_at = now(), updated_at = now()
		WHERE id = $1 AND organization_id = $2
			AND status = 'published' AND user_id = $3 AND acknowledged_at IS NULL
		RETURNING ` + shiftColumns

	return scanShift(r.dbpool.QueryRowContext(ctx, query, shiftID, orgID, userID))
}

// TryClaim is the compare-and-swap behind self-service claims: the assignee
// is written only if the row is still an open published shift. The returned
// bool reports whether the row actually changed; false is a lost race.
func (r *Repository) TryClaim(ctx context.Context, orgID, shiftID, userID int64) (bool, error) {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `
		UPDATE shifts
		SET user_id = $3, updated_at = now()
		WHERE id = $1 AND organization_id = $2
			AND status = 'published' AND user_id IS NULL
	`

	result, err := r.dbpool.ExecContext(ctx, query, shiftID, orgID, userID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// SetAssignee writes the assignee unconditionally (nil clears it). It
// reports whether a row in the organization matched.
func (r *Repository) SetAssignee(ctx context.Context, orgID, shiftID int64, userID *int64) (bool, error) {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `
		UPDATE shifts
		SET user_id = $3, updated_at = now()
		WHERE id = $1 AND organization_id = $2
	`

	result, err := r.dbpool.ExecContext(ctx, query, shiftID, orgID, userID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
