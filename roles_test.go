package accounts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/swaptrix/accounts"
)

func TestUserRoleIsValid(t *testing.T) {
	tests := []struct {
		role  accounts.UserRole
		valid bool
	}{
		{accounts.RoleUser, true},
		{accounts.RoleAdmin, true},
		{accounts.UserRole("owner"), false},
		{accounts.UserRole(""), false},
		{accounts.UserRole("Admin"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.role.IsValid())
		})
	}
}

func TestUserRoleIsAtLeast(t *testing.T) {
	tests := []struct {
		name    string
		role    accounts.UserRole
		minRole accounts.UserRole
		want    bool
	}{
		{"admin is at least user", accounts.RoleAdmin, accounts.RoleUser, true},
		{"admin is at least admin", accounts.RoleAdmin, accounts.RoleAdmin, true},
		{"user is at least user", accounts.RoleUser, accounts.RoleUser, true},
		{"user is not admin", accounts.RoleUser, accounts.RoleAdmin, false},
		{"unknown role never passes", accounts.UserRole("root"), accounts.RoleUser, false},
		{"unknown minimum never passes", accounts.RoleAdmin, accounts.UserRole("root"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.IsAtLeast(tt.minRole))
		})
	}
}

func TestParseRole(t *testing.T) {
	role, ok := accounts.ParseRole("admin")
	assert.True(t, ok)
	assert.Equal(t, accounts.RoleAdmin, role)

	role, ok = accounts.ParseRole("user")
	assert.True(t, ok)
	assert.Equal(t, accounts.RoleUser, role)

	_, ok = accounts.ParseRole("superuser")
	assert.False(t, ok)
}

func TestGetAllRoles(t *testing.T) {
	roles := accounts.GetAllRoles()
	assert.Equal(t, []accounts.UserRole{accounts.RoleUser, accounts.RoleAdmin}, roles)
}
