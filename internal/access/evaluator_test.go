package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellerdesk/support-portal/internal/domain"
)

func testTable() map[domain.Role][]string {
	return map[domain.Role][]string{
		domain.RoleOwner: {PermViewTickets, PermViewAllTickets, PermCreateTickets, PermEditTickets, PermManageUsers},
		domain.RoleAgent: {PermViewTickets, PermCreateTickets, PermCommentTickets},
	}
}

func TestHasPermission(t *testing.T) {
	e := NewEvaluator(testTable())

	tests := []struct {
		name string
		user *domain.User
		perm string
		want bool
	}{
		{"nil user", nil, PermViewTickets, false},
		{"role grant", &domain.User{Role: domain.RoleAgent}, PermCreateTickets, true},
		{"role missing grant", &domain.User{Role: domain.RoleAgent}, PermEditTickets, false},
		{"unknown role", &domain.User{Role: domain.Role("Intern")}, PermViewTickets, false},
		{"role without table entry", &domain.User{Role: domain.RoleViewer}, PermViewTickets, false},
		{"custom grant", &domain.User{Role: domain.RoleViewer, CustomPermissions: []string{PermEditTickets}}, PermEditTickets, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.HasPermission(tt.user, tt.perm))
		})
	}
}

func TestCustomPermissionsReplaceRolePermissions(t *testing.T) {
	e := NewEvaluator(testTable())
	owner := &domain.User{Role: domain.RoleOwner, CustomPermissions: []string{PermViewTickets}}

	assert.True(t, e.HasPermission(owner, PermViewTickets))
	for _, p := range []string{PermEditTickets, PermViewAllTickets, PermCreateTickets, PermManageUsers} {
		assert.False(t, e.HasPermission(owner, p), p)
	}
	assert.Equal(t, []string{PermViewTickets}, e.Permissions(owner))
}

func TestHasRoleIsExactMatch(t *testing.T) {
	e := NewEvaluator(testTable())
	manager := &domain.User{Role: domain.RoleManager, AdditionalRoles: []domain.Role{domain.RoleAdmin}}

	assert.True(t, e.HasRole(manager, domain.RoleAdmin, domain.RoleManager))
	assert.False(t, e.HasRole(manager, domain.RoleAdmin))
	assert.False(t, e.HasRole(manager, domain.RoleSupervisor))
	assert.False(t, e.HasRole(manager))
	assert.False(t, e.HasRole(nil, domain.RoleManager))
}

func TestEvaluatorCopiesTable(t *testing.T) {
	table := testTable()
	e := NewEvaluator(table)
	table[domain.RoleAgent] = append(table[domain.RoleAgent], PermManageUsers)

	assert.False(t, e.HasPermission(&domain.User{Role: domain.RoleAgent}, PermManageUsers))
}

func TestCanViewTicket(t *testing.T) {
	e := NewEvaluator(testTable())
	assignee := "u-3"
	ticket := &domain.Ticket{ID: "t-1", Department: "Operations", CreatedByID: "u-9", AssigneeID: &assignee}

	owner := &domain.User{ID: "u-1", Role: domain.RoleOwner, Active: true}
	require.True(t, e.CanViewTicket(owner, ticket, nil))

	sameDept := &domain.User{ID: "u-2", Role: domain.RoleAgent, Department: "operations", Active: true}
	assert.True(t, e.CanViewTicket(sameDept, ticket, nil))

	otherDept := &domain.User{ID: "u-4", Role: domain.RoleAgent, Department: "Finance", Active: true}
	assert.False(t, e.CanViewTicket(otherDept, ticket, nil))
	assert.True(t, e.CanViewTicket(otherDept, ticket, map[string]struct{}{"u-3": {}}))

	assigned := &domain.User{ID: "u-3", Role: domain.RoleAgent, Department: "Finance", Active: true}
	assert.True(t, e.CanViewTicket(assigned, ticket, nil))

	inactive := &domain.User{ID: "u-1", Role: domain.RoleOwner}
	assert.False(t, e.CanViewTicket(inactive, ticket, nil))

	noView := &domain.User{ID: "u-9", Role: domain.RoleViewer, Active: true}
	assert.False(t, e.CanViewTicket(noView, ticket, nil))
}

func TestKnownPermission(t *testing.T) {
	assert.True(t, KnownPermission(PermResnapshotTickets))
	assert.False(t, KnownPermission("delete:everything"))
}
