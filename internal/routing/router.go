// Package routing decides which Slack channels and in-app notification types
// receive a ticket event.
package routing

import (
	"strings"

	"github.com/sellerdesk/support-portal/internal/domain"
)

// Table maps symbolic channel names to opaque channel ids. Keys of
// Departments and CXSubteams are normalized with Key.
type Table struct {
	Departments map[string]string
	CXSubteams  map[string]string
	Urgent      string
	Escalation  string
	SLABreach   string
	Fallback    string
}

// Context is the ticket state a routing decision depends on.
type Context struct {
	Department   string
	PriorityTier string
	Status       string
	IsEscalated  bool
	SLAStatus    string
	OwnerTeam    string
}

// ContextFor builds a routing context from a ticket.
func ContextFor(t *domain.Ticket) Context {
	return Context{
		Department:   t.Department,
		PriorityTier: string(t.PriorityTier),
		Status:       string(t.Status),
		IsEscalated:  t.IsEscalated,
		SLAStatus:    string(t.SLAStatus),
		OwnerTeam:    t.OwnerTeam,
	}
}

// Router is immutable after construction and safe for concurrent use.
type Router struct {
	table Table
}

// NewRouter copies the table.
func NewRouter(table Table) *Router {
	cp := table
	cp.Departments = normalizeKeys(table.Departments)
	cp.CXSubteams = normalizeKeys(table.CXSubteams)
	return &Router{table: cp}
}

// ChannelsFor returns the channel ids for ctx, deduplicated in first-seen
// order. All rules are additive; the fallback is used only when nothing
// else applies.
func (r *Router) ChannelsFor(ctx Context) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	add(r.departmentChannel(ctx))

	switch strings.ToLower(ctx.PriorityTier) {
	case "urgent", "critical":
		add(r.table.Urgent)
	}
	if ctx.IsEscalated || strings.EqualFold(ctx.Status, string(domain.TicketStatusEscalated)) {
		add(r.table.Escalation)
	}
	if strings.EqualFold(ctx.SLAStatus, string(domain.SLAStatusBreached)) {
		add(r.table.SLABreach)
	}
	if len(out) == 0 {
		add(r.table.Fallback)
	}
	return out
}

func (r *Router) departmentChannel(ctx Context) string {
	if strings.EqualFold(ctx.Department, domain.DepartmentCX) && ctx.OwnerTeam != "" {
		if id := r.table.CXSubteams[Key(ctx.OwnerTeam)]; id != "" {
			return id
		}
	}
	return r.table.Departments[Key(ctx.Department)]
}

// Key normalizes a department or team name into its table key:
// upper-case with every run of non-alphanumerics replaced by "_".
func Key(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
			underscore = false
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			underscore = false
		default:
			if !underscore && b.Len() > 0 {
				b.WriteByte('_')
				underscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

func normalizeKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[Key(k)] = v
	}
	return out
}
