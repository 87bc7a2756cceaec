package repository

import (
	"context"

	"github.com/shiftline-hq/shiftline/backend/internal/domain"
)

func (r *Repository) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `
		INSERT INTO organizations (slug, name, timezone)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return r.dbpool.QueryRowContext(ctx, query, org.Slug, org.Name, org.Timezone).Scan(&org.ID, &org.CreatedAt)
}

func (r *Repository) GetOrganizationBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	org := &domain.Organization{Slug: slug}

	query := `SELECT id, name, timezone, created_at FROM organizations WHERE slug = $1`
	if err := r.dbpool.QueryRowContext(ctx, query, slug).Scan(&org.ID, &org.Name, &org.Timezone, &org.CreatedAt); err != nil {
		return nil, err
	}
	return org, nil
}

func (r *Repository) AddMembership(ctx context.Context, m *domain.Membership) error {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `
		INSERT INTO memberships (organization_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	return r.dbpool.QueryRowContext(ctx, query, m.OrganizationID, m.UserID, m.Role).Scan(&m.CreatedAt)
}

// GetMembership returns the user's membership in the organization, or
// sql.ErrNoRows when the user is not a member.
func (r *Repository) GetMembership(ctx context.Context, orgID, userID int64) (*domain.Membership, error) {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	m := &domain.Membership{OrganizationID: orgID, UserID: userID}

	query := `SELECT role, created_at FROM memberships WHERE organization_id = $1 AND user_id = $2`
	if err := r.dbpool.QueryRowContext(ctx, query, orgID, userID).Scan(&m.Role, &m.CreatedAt); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Repository) ListMembers(ctx context.Context, orgID int64) ([]*domain.OrgMember, error) {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `
		SELECT u.id, u.username, u.full_name, u.email, m.role, u.is_active
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.organization_id = $1
		ORDER BY u.full_name, u.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]*domain.OrgMember, 0)
	for rows.Next() {
		member := &domain.OrgMember{}
		dst := []any{&member.UserID, &member.Username, &member.FullName, &member.Email, &member.Role, &member.IsActive}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}
