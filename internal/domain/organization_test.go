package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMembershipRoleAtLeast(t *testing.T) {
	assert.True(t, RoleOwner.AtLeast(RoleMember))
	assert.True(t, RoleOwner.AtLeast(RoleOwner))
	assert.True(t, RoleAdmin.AtLeast(RoleManager))
	assert.True(t, RoleManager.AtLeast(RoleManager))

	assert.False(t, RoleMember.AtLeast(RoleManager))
	assert.False(t, RoleManager.AtLeast(RoleAdmin))
	assert.False(t, RoleAdmin.AtLeast(RoleOwner))

	// unknown roles rank lowest
	assert.False(t, MembershipRole("superuser").AtLeast(RoleManager))
	assert.True(t, RoleMember.AtLeast("superuser"))
}

func TestMembershipRoleValid(t *testing.T) {
	for _, role := range []MembershipRole{RoleMember, RoleManager, RoleAdmin, RoleOwner} {
		assert.True(t, role.Valid(), string(role))
	}
	assert.False(t, MembershipRole("superuser").Valid())
	assert.False(t, MembershipRole("").Valid())
}
