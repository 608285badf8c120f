// Package access decides whether a portal user holds a permission or role.
package access

import (
	"slices"
	"strings"

	"github.com/sellerdesk/support-portal/internal/domain"
)

// Permission strings granted through roles or custom overrides.
const (
	PermViewTickets       = "view:tickets"
	PermViewAllTickets    = "view:all_tickets"
	PermCreateTickets     = "create:tickets"
	PermEditTickets       = "edit:tickets"
	PermAssignTickets     = "assign:tickets"
	PermCommentTickets    = "comment:tickets"
	PermResnapshotTickets = "resnapshot:tickets"
	PermManageSLA         = "manage:sla"
	PermManageUsers       = "manage:users"
	PermViewReports       = "view:reports"
)

// AllPermissions lists every permission string the portal checks.
var AllPermissions = []string{
	PermViewTickets, PermViewAllTickets, PermCreateTickets, PermEditTickets, PermAssignTickets,
	PermCommentTickets, PermResnapshotTickets, PermManageSLA, PermManageUsers, PermViewReports,
}

// KnownPermission reports whether p is one of AllPermissions.
func KnownPermission(p string) bool {
	return slices.Contains(AllPermissions, p)
}

// Evaluator answers permission and role questions against an immutable
// role to permission table. It is safe for concurrent use.
type Evaluator struct {
	roles map[domain.Role]map[string]struct{}
}

// NewEvaluator copies table so later mutation by the caller has no effect.
func NewEvaluator(table map[domain.Role][]string) *Evaluator {
	roles := make(map[domain.Role]map[string]struct{}, len(table))
	for role, perms := range table {
		set := make(map[string]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		roles[role] = set
	}
	return &Evaluator{roles: roles}
}

// HasPermission reports whether user is granted permission. A non-empty
// custom permission list replaces the role-derived set entirely.
func (e *Evaluator) HasPermission(user *domain.User, permission string) bool {
	if user == nil {
		return false
	}
	if len(user.CustomPermissions) > 0 {
		for _, p := range user.CustomPermissions {
			if p == permission {
				return true
			}
		}
		return false
	}
	_, ok := e.roles[user.Role][permission]
	return ok
}

// HasRole reports whether the user's primary role is one of roles.
func (e *Evaluator) HasRole(user *domain.User, roles ...domain.Role) bool {
	if user == nil {
		return false
	}
	for _, r := range roles {
		if user.Role == r {
			return true
		}
	}
	return false
}

// Permissions returns the effective permission list for user.
func (e *Evaluator) Permissions(user *domain.User) []string {
	if user == nil {
		return nil
	}
	if len(user.CustomPermissions) > 0 {
		return append([]string(nil), user.CustomPermissions...)
	}
	set := e.roles[user.Role]
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// CanViewTicket combines view permissions with ticket ownership. reports is
// the set of user ids that transitively report to user.
func (e *Evaluator) CanViewTicket(user *domain.User, ticket *domain.Ticket, reports map[string]struct{}) bool {
	if user == nil || ticket == nil || !user.Active {
		return false
	}
	if e.HasPermission(user, PermViewAllTickets) {
		return true
	}
	if !e.HasPermission(user, PermViewTickets) {
		return false
	}
	if ticket.CreatedByID == user.ID {
		return true
	}
	if ticket.AssigneeID != nil {
		if *ticket.AssigneeID == user.ID {
			return true
		}
		if _, ok := reports[*ticket.AssigneeID]; ok {
			return true
		}
	}
	return user.Department != "" && strings.EqualFold(user.Department, ticket.Department)
}
