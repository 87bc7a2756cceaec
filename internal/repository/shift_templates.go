package repository

import (
	"context"
	"database/sql"

	"github.com/shiftline-hq/shiftline/backend/internal/domain"
)

const shiftTemplateColumns = `
	id, organization_id, name, start_time, end_time, break_minutes,
	default_location_id, required_skill_id, color, is_active, created_at, version
`

func scanShiftTemplate(row rowScanner) (*domain.ShiftTemplate, error) {
	var (
		tpl               domain.ShiftTemplate
		defaultLocationID sql.NullInt64
		requiredSkillID   sql.NullInt64
	)

	dst := []any{
		&tpl.ID, &tpl.OrganizationID, &tpl.Name, &tpl.StartTime, &tpl.EndTime, &tpl.BreakMinutes,
		&defaultLocationID, &requiredSkillID, &tpl.Color, &tpl.IsActive, &tpl.CreatedAt, &tpl.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if defaultLocationID.Valid {
		tpl.DefaultLocationID = &defaultLocationID.Int64
	}
	if requiredSkillID.Valid {
		tpl.RequiredSkillID = &requiredSkillID.Int64
	}
	return &tpl, nil
}

func (r *Repository) CreateShiftTemplate(ctx context.Context, tpl *domain.ShiftTemplate) error {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `
		INSERT INTO shift_templates (
			organization_id, name, start_time, end_time, break_minutes,
			default_location_id, required_skill_id, color, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, version
	`

	args := []any{
		tpl.OrganizationID, tpl.Name, tpl.StartTime, tpl.EndTime, tpl.BreakMinutes,
		tpl.DefaultLocationID, tpl.RequiredSkillID, tpl.Color, tpl.IsActive,
	}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&tpl.ID, &tpl.CreatedAt, &tpl.Version)
}

func (r *Repository) GetShiftTemplate(ctx context.Context, orgID, templateID int64) (*domain.ShiftTemplate, error) {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `SELECT ` + shiftTemplateColumns + ` FROM shift_templates WHERE id = $1 AND organization_id = $2`
	return scanShiftTemplate(r.dbpool.QueryRowContext(ctx, query, templateID, orgID))
}

func (r *Repository) GetAllShiftTemplates(ctx context.Context, orgID int64) ([]*domain.ShiftTemplate, error) {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `SELECT ` + shiftTemplateColumns + ` FROM shift_templates WHERE organization_id = $1 ORDER BY id`

	rows, err := r.dbpool.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tpls := make([]*domain.ShiftTemplate, 0)
	for rows.Next() {
		tpl, err := scanShiftTemplate(rows)
		if err != nil {
			return nil, err
		}
		tpls = append(tpls, tpl)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tpls, nil
}

// UpdateShiftTemplate writes the template back under its optimistic version;
// sql.ErrNoRows means a concurrent update won and the caller should retry.
func (r *Repository) UpdateShiftTemplate(ctx context.Context, tpl *domain.ShiftTemplate) error {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `
		UPDATE shift_templates
		SET
			name = $1,
			start_time = $2,
			end_time = $3,
			break_minutes = $4,
			default_location_id = $5,
			required_skill_id = $6,
			color = $7,
			is_active = $8,
			version = version + 1
		WHERE id = $9 AND organization_id = $10 AND version = $11
		RETURNING version
	`

	args := []any{
		tpl.Name, tpl.StartTime, tpl.EndTime, tpl.BreakMinutes,
		tpl.DefaultLocationID, tpl.RequiredSkillID, tpl.Color, tpl.IsActive,
		tpl.ID, tpl.OrganizationID, tpl.Version,
	}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&tpl.Version)
}

func (r *Repository) DeleteShiftTemplate(ctx context.Context, orgID, templateID int64) error {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, `DELETE FROM shift_templates WHERE id = $1 AND organization_id = $2`, templateID, orgID)
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
