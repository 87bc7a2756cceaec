package domain

import (
	"time"
)

type Organization struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"createdAt"`
}

type MembershipRole string

const (
	RoleMember  MembershipRole = "member"
	RoleManager MembershipRole = "manager"
	RoleAdmin   MembershipRole = "admin"
	RoleOwner   MembershipRole = "owner"
)

var roleRank = map[MembershipRole]int{
	RoleMember:  0,
	RoleManager: 1,
	RoleAdmin:   2,
	RoleOwner:   3,
}

// AtLeast reports whether the role grants the privileges of min or higher.
func (r MembershipRole) AtLeast(min MembershipRole) bool {
	return roleRank[r] >= roleRank[min]
}

func (r MembershipRole) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Membership binds a user to an organization with a role. Roles are scoped
// per organization, not global to the user account.
type Membership struct {
	OrganizationID int64          `json:"organizationId"`
	UserID         int64          `json:"userId"`
	Role           MembershipRole `json:"role"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// OrgMember is a membership row joined with the member's user profile,
// as returned by member listings.
type OrgMember struct {
	UserID   int64          `json:"userId"`
	Username string         `json:"username"`
	FullName string         `json:"fullName"`
	Email    string         `json:"email"`
	Role     MembershipRole `json:"role"`
	IsActive bool           `json:"isActive"`
}
